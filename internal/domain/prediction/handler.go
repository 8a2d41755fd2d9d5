package prediction

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rcm/rcm/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "billing"))
	g.POST("/predictions", h.Predict)
	g.POST("/predictions/batch", h.PredictBatch)
	g.GET("/history", h.QueryHistory)
	g.POST("/history", h.AppendHistory)
}

func (h *Handler) Predict(c echo.Context) error {
	var q Query
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p, err := h.svc.Predict(c.Request().Context(), q)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

type batchRequest struct {
	Insurer        string   `json:"insurer"`
	ChargedAmount  float64  `json:"charged_amount"`
	ProcedureCodes []string `json:"procedure_codes"`
}

func (h *Handler) PredictBatch(c echo.Context) error {
	var req batchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	predictions, err := h.svc.PredictBatch(c.Request().Context(), req.Insurer, req.ChargedAmount, req.ProcedureCodes)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, predictions)
}

func (h *Handler) QueryHistory(c echo.Context) error {
	raw := c.QueryParam("codes")
	if raw == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "codes query parameter is required")
	}

	var codes []string
	for _, code := range strings.Split(raw, ",") {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}

	records, err := h.svc.QueryHistory(c.Request().Context(), codes)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, records)
}

type appendRequest struct {
	Records []*Record `json:"records"`
}

func (h *Handler) AppendHistory(c echo.Context) error {
	var req appendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Records) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "records are required")
	}

	if err := h.svc.AppendHistory(c.Request().Context(), req.Records); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]int{"appended": len(req.Records)})
}

package allocation

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rcm/rcm/internal/platform/auth"
)

type Handler struct {
	strategy        Strategy
	defaultUnitRate float64
}

func NewHandler(strategy Strategy, defaultUnitRate float64) *Handler {
	return &Handler{strategy: strategy, defaultUnitRate: defaultUnitRate}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "billing"))
	g.POST("/allocations", h.Allocate)
	g.GET("/allocations/tiers", h.ListTiers)
}

type allocateRequest struct {
	Activities []string `json:"activities"`
	TotalUnits int      `json:"total_units"`
	UnitRate   float64  `json:"unit_rate"`
}

type allocateResponse struct {
	Allocations        []Allocation `json:"allocations"`
	TotalUnits         int          `json:"total_units"`
	TotalReimbursement float64      `json:"total_reimbursement"`
}

func (h *Handler) Allocate(c echo.Context) error {
	var req allocateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.TotalUnits < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "total_units must be at least 1")
	}
	if req.UnitRate <= 0 {
		req.UnitRate = h.defaultUnitRate
	}

	allocs, err := h.strategy.Allocate(c.Request().Context(), req.Activities, req.TotalUnits, req.UnitRate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	total := 0.0
	for _, a := range allocs {
		total += a.Reimbursement
	}
	return c.JSON(http.StatusOK, allocateResponse{
		Allocations:        allocs,
		TotalUnits:         req.TotalUnits,
		TotalReimbursement: round2(total),
	})
}

type tierView struct {
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

func (h *Handler) ListTiers(c echo.Context) error {
	out := make([]tierView, 0, len(tiers))
	for _, t := range Tiers() {
		out = append(out, tierView{Code: t.Code, Name: t.Name, Weight: t.Weight})
	}
	return c.JSON(http.StatusOK, out)
}

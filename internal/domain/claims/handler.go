package claims

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/rcm/rcm/internal/platform/auth"
	"github.com/rcm/rcm/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "billing"))
	g.POST("/claims", h.CreateClaim)
	g.GET("/claims", h.ListClaims)
	g.GET("/claims/:id", h.GetClaim)
	g.GET("/claims/:id/line-items", h.GetLineItems)
	g.POST("/claims/:id/line-items", h.AddLineItem)
	g.POST("/claims/:id/submit", h.SubmitClaim)
	g.POST("/claims/:id/pay", h.PayClaim)
	g.POST("/claims/:id/deny", h.DenyClaim)
	g.GET("/claims/:id/appeals", h.ListAppeals)
	g.POST("/claims/:id/appeals", h.RegenerateAppeal)
	g.PUT("/appeals/:id/status", h.UpdateAppealStatus)
}

// httpError maps domain errors onto HTTP status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrMissingRequiredField):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

type lineItemRequest struct {
	ProcedureCode string     `json:"procedure_code"`
	DiagnosisCode *string    `json:"diagnosis_code"`
	Units         int        `json:"units"`
	Rate          float64    `json:"rate"`
	ServiceDate   *time.Time `json:"service_date"`
	Modifier      *string    `json:"modifier"`
}

func (r lineItemRequest) toModel() *ClaimLineItem {
	item := &ClaimLineItem{
		ProcedureCode: r.ProcedureCode,
		DiagnosisCode: r.DiagnosisCode,
		Units:         r.Units,
		Rate:          r.Rate,
		Modifier:      r.Modifier,
	}
	if r.ServiceDate != nil {
		item.ServiceDate = *r.ServiceDate
	} else {
		item.ServiceDate = time.Now().UTC()
	}
	return item
}

type createClaimRequest struct {
	PracticeID  uuid.UUID         `json:"practice_id"`
	PatientID   uuid.UUID         `json:"patient_id"`
	InsurerName string            `json:"insurer_name"`
	ReviewScore *int              `json:"review_score"`
	LineItems   []lineItemRequest `json:"line_items"`
}

func (h *Handler) CreateClaim(c echo.Context) error {
	var req createClaimRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	claim := &Claim{
		PracticeID:  req.PracticeID,
		PatientID:   req.PatientID,
		InsurerName: req.InsurerName,
		ReviewScore: req.ReviewScore,
	}
	items := make([]*ClaimLineItem, 0, len(req.LineItems))
	for _, li := range req.LineItems {
		items = append(items, li.toModel())
	}

	if err := h.svc.CreateClaim(c.Request().Context(), claim, items); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, claim)
}

// claimResponse decorates a claim with the lifecycle events currently
// legal for it.
type claimResponse struct {
	*Claim
	AvailableEvents []Event `json:"available_events"`
}

func (h *Handler) GetClaim(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	claim, err := h.svc.GetClaim(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, claimResponse{
		Claim:           claim,
		AvailableEvents: AvailableEvents(claim.Status),
	})
}

func (h *Handler) ListClaims(c echo.Context) error {
	practiceID, err := uuid.Parse(c.QueryParam("practice_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "practice_id query parameter is required")
	}
	status := ClaimStatus(c.QueryParam("status"))
	p := pagination.FromContext(c)

	list, total, err := h.svc.ListClaims(c.Request().Context(), practiceID, status, p.Limit, p.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, total, p.Limit, p.Offset))
}

func (h *Handler) GetLineItems(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.GetLineItems(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) AddLineItem(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req lineItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	item := req.toModel()
	item.ClaimID = id
	if err := h.svc.AddLineItem(c.Request().Context(), item); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, item)
}

type submitRequest struct {
	SubmittedAmount *float64 `json:"submitted_amount"`
}

func (h *Handler) SubmitClaim(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	claim, err := h.svc.Submit(c.Request().Context(), id, req.SubmittedAmount)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, claim)
}

type payRequest struct {
	PaidAmount *float64 `json:"paid_amount"`
}

func (h *Handler) PayClaim(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req payRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	claim, err := h.svc.MarkPaid(c.Request().Context(), id, req.PaidAmount)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, claim)
}

type denyRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) DenyClaim(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req denyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.svc.Deny(c.Request().Context(), id, req.Reason)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) ListAppeals(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	appeals, err := h.svc.ListAppeals(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appeals)
}

func (h *Handler) RegenerateAppeal(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	appeal, err := h.svc.RegenerateAppeal(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, appeal)
}

type appealStatusRequest struct {
	Status AppealStatus `json:"status"`
}

func (h *Handler) UpdateAppealStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req appealStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	appeal, err := h.svc.UpdateAppealStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appeal)
}

package denials

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rcm/rcm/internal/platform/auth"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "billing"))
	g.POST("/denials/classify", h.ClassifyDenial)
}

type classifyRequest struct {
	Reason string `json:"reason"`
}

type classifyResponse struct {
	Pattern      DenialPattern `json:"pattern"`
	FollowUpTips []string      `json:"follow_up_tips"`
}

// ClassifyDenial previews the category and guidance a denial reason would
// map to, without touching any claim.
func (h *Handler) ClassifyDenial(c echo.Context) error {
	var req classifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	pattern := Classify(req.Reason)
	return c.JSON(http.StatusOK, classifyResponse{
		Pattern:      pattern,
		FollowUpTips: FollowUpTips(pattern.Category),
	})
}

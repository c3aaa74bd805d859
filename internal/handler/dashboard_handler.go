package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tms-portal-api/internal/service"
	appErrors "github.com/noah-isme/tms-portal-api/pkg/errors"
	"github.com/noah-isme/tms-portal-api/pkg/response"
)

// DashboardHandler exposes the reconciled batch dashboard and enrollment actions.
type DashboardHandler struct {
	service *service.ReconcileService
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(svc *service.ReconcileService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Dashboard godoc
// @Summary Batch dashboard
// @Description List batches annotated with the caller's enrollment status; reconciliation advisories land in meta
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	view, err := h.service.Dashboard(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	var meta map[string]interface{}
	if len(view.Advisories) > 0 {
		meta = map[string]interface{}{"advisories": view.Advisories}
	}
	response.JSON(c, http.StatusOK, view.Batches, nil, meta)
}

// RequestEnrollment godoc
// @Summary Request enrollment in a batch
// @Description Submit an enrollment request; the returned status is applied immediately without re-fetching
// @Tags Dashboard
// @Produce json
// @Param batchId path int true "Batch ID"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /enrollments/{batchId}/request [post]
func (h *DashboardHandler) RequestEnrollment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	batchID, ok := pathID(c, "batchId")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid batch id"))
		return
	}

	enrollment, err := h.service.RequestEnrollment(c.Request.Context(), claims.UserID, batchID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Overview godoc
// @Summary Active and inactive batches
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /batches/overview [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil)
}

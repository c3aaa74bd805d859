package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tms-portal-api/internal/service"
	appErrors "github.com/noah-isme/tms-portal-api/pkg/errors"
	"github.com/noah-isme/tms-portal-api/pkg/response"
)

// FeedbackHandler handles batch feedback submission and listing.
type FeedbackHandler struct {
	service *service.FeedbackService
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(svc *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: svc}
}

// Submit godoc
// @Summary Submit feedback for a batch
// @Tags Feedback
// @Accept json
// @Produce json
// @Param batchId path int true "Batch ID"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Router /feedback/{batchId} [post]
func (h *FeedbackHandler) Submit(c *gin.Context) {
	batchID, ok := pathID(c, "batchId")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid batch id"))
		return
	}

	var req service.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	if err := h.service.Submit(c.Request.Context(), batchID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListForBatch godoc
// @Summary List feedback for a batch
// @Tags Feedback
// @Produce json
// @Param batchId path int true "Batch ID"
// @Success 200 {object} response.Envelope
// @Router /feedback/batch/{batchId} [get]
func (h *FeedbackHandler) ListForBatch(c *gin.Context) {
	batchID, ok := pathID(c, "batchId")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid batch id"))
		return
	}

	items, err := h.service.ListForBatch(c.Request.Context(), batchID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

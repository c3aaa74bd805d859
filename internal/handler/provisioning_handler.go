package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tms-portal-api/internal/models"
	"github.com/noah-isme/tms-portal-api/internal/service"
	appErrors "github.com/noah-isme/tms-portal-api/pkg/errors"
	"github.com/noah-isme/tms-portal-api/pkg/response"
)

// ProvisioningHandler drives the Course -> Calendar -> Batch creation flow.
type ProvisioningHandler struct {
	service *service.ProvisioningService
}

// NewProvisioningHandler creates a new provisioning handler.
func NewProvisioningHandler(svc *service.ProvisioningService) *ProvisioningHandler {
	return &ProvisioningHandler{service: svc}
}

// submitCalendarRequest carries the calendar form values.
type submitCalendarRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// submitBatchRequest carries the batch form values.
type submitBatchRequest struct {
	BatchName string `json:"batchName"`
}

// ListCourses godoc
// @Summary List courses
// @Description Refresh and return the course snapshot
// @Tags Provisioning
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *ProvisioningHandler) ListCourses(c *gin.Context) {
	courses, err := h.service.LoadCourses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	var meta map[string]interface{}
	if msg := h.service.CourseMessage(); msg != "" {
		meta = map[string]interface{}{"courseMessage": msg}
	}
	response.JSON(c, http.StatusOK, courses, nil, meta)
}

// CreateCourse godoc
// @Summary Create course
// @Tags Provisioning
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses [post]
func (h *ProvisioningHandler) CreateCourse(c *gin.Context) {
	var req service.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	course, err := h.service.CreateCourse(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// ToggleCalendarForm godoc
// @Summary Toggle calendar form
// @Description Flip the per-course calendar sub-form visibility
// @Tags Provisioning
// @Produce json
// @Param courseId path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{courseId}/calendar-form [post]
func (h *ProvisioningHandler) ToggleCalendarForm(c *gin.Context) {
	courseID, ok := pathID(c, "courseId")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid course id"))
		return
	}
	open := h.service.ToggleCalendarForm(courseID)
	response.JSON(c, http.StatusOK, gin.H{"open": open}, nil)
}

// SubmitCalendar godoc
// @Summary Create calendar
// @Description Create a calendar for a course; it becomes the course's session calendar
// @Tags Provisioning
// @Accept json
// @Produce json
// @Param courseId path int true "Course ID"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses/{courseId}/calendars [post]
func (h *ProvisioningHandler) SubmitCalendar(c *gin.Context) {
	courseID, ok := pathID(c, "courseId")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid course id"))
		return
	}

	var req submitCalendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	calendar, err := h.service.SubmitCalendar(c.Request.Context(), actorFromContext(c), courseID, req.StartDate, req.EndDate)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, calendar)
}

// ToggleBatchForm godoc
// @Summary Toggle batch form
// @Tags Provisioning
// @Produce json
// @Param courseId path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{courseId}/batch-form [post]
func (h *ProvisioningHandler) ToggleBatchForm(c *gin.Context) {
	courseID, ok := pathID(c, "courseId")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid course id"))
		return
	}
	open := h.service.ToggleBatchForm(courseID)
	response.JSON(c, http.StatusOK, gin.H{"open": open}, nil)
}

// SubmitBatch godoc
// @Summary Create batch
// @Description Create a batch under the course's session calendar; fails with 422 when no calendar was created this session
// @Tags Provisioning
// @Accept json
// @Produce json
// @Param courseId path int true "Course ID"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /courses/{courseId}/batches [post]
func (h *ProvisioningHandler) SubmitBatch(c *gin.Context) {
	courseID, ok := pathID(c, "courseId")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid course id"))
		return
	}

	var req submitBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	batch, err := h.service.SubmitBatch(c.Request.Context(), actorFromContext(c), courseID, req.BatchName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, batch)
}

// State godoc
// @Summary Course provisioning state
// @Description Return the UI-visible sub-state for one course
// @Tags Provisioning
// @Produce json
// @Param courseId path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{courseId}/state [get]
func (h *ProvisioningHandler) State(c *gin.Context) {
	courseID, ok := pathID(c, "courseId")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid course id"))
		return
	}
	response.JSON(c, http.StatusOK, h.service.StateFor(courseID), nil)
}

// UpdateBatch godoc
// @Summary Update a batch
// @Tags Provisioning
// @Accept json
// @Produce json
// @Param batchId path int true "Batch ID"
// @Success 204
// @Router /batches/{batchId} [put]
func (h *ProvisioningHandler) UpdateBatch(c *gin.Context) {
	batchID, ok := pathID(c, "batchId")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid batch id"))
		return
	}

	var batch models.Batch
	if err := c.ShouldBindJSON(&batch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	if err := h.service.UpdateBatch(c.Request.Context(), actorFromContext(c), batchID, batch); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteBatch godoc
// @Summary Delete a batch
// @Description Requires confirm=true, otherwise nothing is issued upstream
// @Tags Provisioning
// @Produce json
// @Param batchId path int true "Batch ID"
// @Param confirm query bool true "Explicit confirmation"
// @Success 204
// @Failure 428 {object} response.Envelope
// @Router /batches/{batchId} [delete]
func (h *ProvisioningHandler) DeleteBatch(c *gin.Context) {
	batchID, ok := pathID(c, "batchId")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid batch id"))
		return
	}

	confirmed, _ := strconv.ParseBool(c.DefaultQuery("confirm", "false"))
	if err := h.service.DeleteBatch(c.Request.Context(), actorFromContext(c), batchID, confirmed); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tms-portal-api/internal/service"
	appErrors "github.com/noah-isme/tms-portal-api/pkg/errors"
	"github.com/noah-isme/tms-portal-api/pkg/response"
)

// UserHandler drives the manager roster and nested employee creation.
type UserHandler struct {
	service *service.HierarchyService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc *service.HierarchyService) *UserHandler {
	return &UserHandler{service: svc}
}

// ListManagers godoc
// @Summary List managers
// @Description Reload and return the manager roster with nested employees
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /users/managers [get]
func (h *UserHandler) ListManagers(c *gin.Context) {
	managers, err := h.service.LoadManagers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, managers, nil)
}

// Roster godoc
// @Summary Cached manager roster
// @Description Return the roster as last loaded, without refetching, plus status messages
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /users/roster [get]
func (h *UserHandler) Roster(c *gin.Context) {
	view := h.service.Roster()
	meta := map[string]interface{}{}
	if msg := h.service.ManagerMessage(); msg != "" {
		meta["managerMessage"] = msg
	}
	if alert := h.service.Alert(); alert != "" {
		meta["alert"] = alert
	}
	if len(meta) == 0 {
		meta = nil
	}
	response.JSON(c, http.StatusOK, view, nil, meta)
}

// CreateManager godoc
// @Summary Create manager
// @Tags Users
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /users/managers [post]
func (h *UserHandler) CreateManager(c *gin.Context) {
	var req service.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	user, err := h.service.CreateManager(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// ToggleEmployeeForm godoc
// @Summary Toggle employee sub-form
// @Tags Users
// @Produce json
// @Param managerId path int true "Manager ID"
// @Success 200 {object} response.Envelope
// @Router /users/managers/{managerId}/employee-form [post]
func (h *UserHandler) ToggleEmployeeForm(c *gin.Context) {
	managerID, ok := pathID(c, "managerId")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid manager id"))
		return
	}
	open := h.service.ToggleCreateFor(managerID)
	response.JSON(c, http.StatusOK, gin.H{"open": open}, nil)
}

// CancelEmployeeForm godoc
// @Summary Hide employee sub-form
// @Tags Users
// @Produce json
// @Param managerId path int true "Manager ID"
// @Success 204
// @Router /users/managers/{managerId}/employee-form/cancel [post]
func (h *UserHandler) CancelEmployeeForm(c *gin.Context) {
	managerID, ok := pathID(c, "managerId")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid manager id"))
		return
	}
	h.service.CancelCreate(managerID)
	response.NoContent(c)
}

// CreateEmployee godoc
// @Summary Create employee under a manager
// @Tags Users
// @Accept json
// @Produce json
// @Param managerId path int true "Manager ID"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /users/managers/{managerId}/employees [post]
func (h *UserHandler) CreateEmployee(c *gin.Context) {
	managerID, ok := pathID(c, "managerId")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid manager id"))
		return
	}

	var req service.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	user, err := h.service.CreateEmployee(c.Request.Context(), actorFromContext(c), managerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// DeleteUser godoc
// @Summary Delete user
// @Description Delete a manager or employee; requires confirm=true, otherwise nothing is issued upstream
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Param confirm query bool true "Explicit confirmation"
// @Success 204
// @Failure 428 {object} response.Envelope
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid user id"))
		return
	}

	confirmed, _ := strconv.ParseBool(c.DefaultQuery("confirm", "false"))
	if err := h.service.DeleteUser(c.Request.Context(), actorFromContext(c), userID, confirmed); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ManagerState godoc
// @Summary Manager sub-form state
// @Tags Users
// @Produce json
// @Param managerId path int true "Manager ID"
// @Success 200 {object} response.Envelope
// @Router /users/managers/{managerId}/state [get]
func (h *UserHandler) ManagerState(c *gin.Context) {
	managerID, ok := pathID(c, "managerId")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid manager id"))
		return
	}
	response.JSON(c, http.StatusOK, h.service.StateFor(managerID), nil)
}

package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tms-portal-api/internal/gateway"
	"github.com/noah-isme/tms-portal-api/internal/models"
	appErrors "github.com/noah-isme/tms-portal-api/pkg/errors"
)

type userGateway interface {
	ListManagers(ctx context.Context) ([]models.Manager, error)
	CreateUser(ctx context.Context, req gateway.CreateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, userID int64) error
}

// CreateAccountRequest is the portal payload for creating a manager or an
// employee account.
type CreateAccountRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// employeeForm is the per-manager employee-creation sub-form state.
type employeeForm struct {
	Open    bool
	Buffer  CreateAccountRequest
	Message string
}

// ManagerFormState is the UI-visible sub-state for one manager.
type ManagerFormState struct {
	ManagerID int64  `json:"managerId"`
	FormOpen  bool   `json:"formOpen"`
	Message   string `json:"message,omitempty"`
}

// RosterView is the manager roster plus its loading flag.
type RosterView struct {
	Managers []models.Manager `json:"managers"`
	Loading  bool             `json:"loading"`
}

// HierarchyService drives the manager roster and the nested per-manager
// employee-creation sub-forms. The server is the source of truth for the
// nested employee list shape, so every successful mutation triggers a full
// roster reload rather than an optimistic patch.
type HierarchyService struct {
	gw        userGateway
	auditor   AuditRecorder
	validator *validator.Validate
	logger    *zap.Logger

	mu         sync.Mutex
	managers   []models.Manager
	loading    bool
	managerMsg string
	alertMsg   string
	forms      map[int64]*employeeForm
}

// NewHierarchyService constructs a HierarchyService.
func NewHierarchyService(gw userGateway, auditor AuditRecorder, validate *validator.Validate, logger *zap.Logger) *HierarchyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HierarchyService{
		gw:        gw,
		auditor:   auditor,
		validator: validate,
		logger:    logger,
		forms:     make(map[int64]*employeeForm),
	}
}

// LoadManagers fetches the manager roster. On failure the previous roster
// is left untouched; nothing was mutated, so no rollback is needed.
func (s *HierarchyService) LoadManagers(ctx context.Context) ([]models.Manager, error) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	managers, err := s.gw.ListManagers(ctx)

	s.mu.Lock()
	s.loading = false
	if err == nil {
		if managers == nil {
			managers = []models.Manager{}
		}
		s.managers = managers
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("manager roster load failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load managers")
	}
	return managers, nil
}

// Roster returns the cached roster and loading flag.
func (s *HierarchyService) Roster() RosterView {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Manager, len(s.managers))
	copy(out, s.managers)
	return RosterView{Managers: out, Loading: s.loading}
}

// CreateManager registers a new Manager account and reloads the roster on
// success.
func (s *HierarchyService) CreateManager(ctx context.Context, actor string, req CreateAccountRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		s.setManagerMsg("Create failed: username and password are required")
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid manager payload")
	}

	user, err := s.gw.CreateUser(ctx, gateway.CreateUserRequest{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		RoleName:  models.RoleManager,
	})
	if err != nil {
		s.setManagerMsg(fmt.Sprintf("Create failed: %v", err))
		return nil, err
	}

	s.setManagerMsg("Manager created")
	s.audit(actor, models.AuditActionUserCreate, "user", user.UserID, fmt.Sprintf("manager %s", user.Username))

	if _, err := s.LoadManagers(ctx); err != nil {
		s.logger.Warn("roster reload failed after manager create", zap.Error(err))
	}
	return user, nil
}

// ManagerMessage returns the global manager-creation status message.
func (s *HierarchyService) ManagerMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.managerMsg
}

// ToggleCreateFor flips the employee sub-form for a manager, lazily
// initialising its buffer on first open.
func (s *HierarchyService) ToggleCreateFor(managerID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	form := s.form(managerID)
	form.Open = !form.Open
	return form.Open
}

// CancelCreate hides the employee sub-form for a manager.
func (s *HierarchyService) CancelCreate(managerID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form(managerID).Open = false
}

// CreateEmployee registers an Employee owned by the given manager. The
// result message is keyed by manager id so concurrent errors on different
// managers never overwrite one another.
func (s *HierarchyService) CreateEmployee(ctx context.Context, actor string, managerID int64, req CreateAccountRequest) (*models.User, error) {
	s.mu.Lock()
	s.form(managerID).Buffer = req
	s.mu.Unlock()

	if err := s.validator.Struct(req); err != nil {
		s.setFormMsg(managerID, "Create failed: username and password are required")
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid employee payload")
	}

	user, err := s.gw.CreateUser(ctx, gateway.CreateUserRequest{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		RoleName:  models.RoleEmployee,
		ManagerID: &managerID,
	})
	if err != nil {
		s.setFormMsg(managerID, fmt.Sprintf("Create failed: %v", err))
		return nil, err
	}

	s.mu.Lock()
	form := s.form(managerID)
	form.Buffer = CreateAccountRequest{}
	form.Open = false
	form.Message = "Employee created"
	s.mu.Unlock()

	s.audit(actor, models.AuditActionUserCreate, "user", user.UserID, fmt.Sprintf("employee %s under manager %d", user.Username, managerID))

	if _, err := s.LoadManagers(ctx); err != nil {
		s.logger.Warn("roster reload failed after employee create", zap.Error(err))
	}
	return user, nil
}

// DeleteUser removes a manager or employee. The upstream delete is only
// issued after explicit confirmation; without it nothing happens and the
// roster is unchanged. There is no optimistic removal: membership under a
// manager is only knowable from the server's nested response, so a failed
// delete leaves the roster stale and raises an alert-level message.
func (s *HierarchyService) DeleteUser(ctx context.Context, actor string, userID int64, confirmed bool) error {
	if !confirmed {
		return appErrors.Clone(appErrors.ErrConfirmationRequired, "deletion requires explicit confirmation")
	}

	if err := s.gw.DeleteUser(ctx, userID); err != nil {
		s.setAlert(fmt.Sprintf("Delete failed: %v", err))
		return err
	}

	s.setAlert("")
	s.audit(actor, models.AuditActionUserDelete, "user", userID, "")

	if _, err := s.LoadManagers(ctx); err != nil {
		s.logger.Warn("roster reload failed after delete", zap.Error(err))
	}
	return nil
}

// Alert returns the blocking alert message from the last failed delete.
func (s *HierarchyService) Alert() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alertMsg
}

// StateFor returns the employee sub-form state for one manager.
func (s *HierarchyService) StateFor(managerID int64) ManagerFormState {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := ManagerFormState{ManagerID: managerID}
	if form, ok := s.forms[managerID]; ok {
		state.FormOpen = form.Open
		state.Message = form.Message
	}
	return state
}

func (s *HierarchyService) form(managerID int64) *employeeForm {
	form, ok := s.forms[managerID]
	if !ok {
		form = &employeeForm{}
		s.forms[managerID] = form
	}
	return form
}

func (s *HierarchyService) setManagerMsg(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.managerMsg = msg
}

func (s *HierarchyService) setFormMsg(managerID int64, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form(managerID).Message = msg
}

func (s *HierarchyService) setAlert(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alertMsg = msg
}

func (s *HierarchyService) audit(actor, action, resource string, resourceID int64, detail string) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(models.AuditEntry{
		Actor:      actor,
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
		Detail:     detail,
	})
}

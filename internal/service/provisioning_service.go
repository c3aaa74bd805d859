package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tms-portal-api/internal/gateway"
	"github.com/noah-isme/tms-portal-api/internal/models"
	"github.com/noah-isme/tms-portal-api/internal/store"
	appErrors "github.com/noah-isme/tms-portal-api/pkg/errors"
)

type provisioningGateway interface {
	ListCourses(ctx context.Context) ([]models.Course, error)
	CreateCourse(ctx context.Context, req gateway.CreateCourseRequest) (*models.Course, error)
	CreateCalendar(ctx context.Context, req gateway.CreateCalendarRequest) (*models.CourseCalendar, error)
	CreateBatch(ctx context.Context, req gateway.CreateBatchRequest) (*models.Batch, error)
	UpdateBatch(ctx context.Context, batchID int64, batch models.Batch) error
	DeleteBatch(ctx context.Context, batchID int64) error
}

// CreateCourseRequest is the portal payload for course creation.
type CreateCourseRequest struct {
	CourseName   string `json:"courseName" validate:"required"`
	Description  string `json:"description"`
	DurationDays int    `json:"durationDays" validate:"gte=0"`
}

// calendarForm buffers per-course calendar input between attempts. The
// buffer is only cleared on a successful submission so a rejected attempt
// can be retried without retyping.
type calendarForm struct {
	Open      bool
	StartDate string
	EndDate   string
	Message   string
}

// batchForm buffers per-course batch input, independent of the calendar form.
type batchForm struct {
	Open      bool
	BatchName string
	Message   string
}

// CourseProvisioningState is the UI-visible sub-state for one course.
type CourseProvisioningState struct {
	CourseID          int64  `json:"courseId"`
	CalendarFormOpen  bool   `json:"calendarFormOpen"`
	CalendarStartDate string `json:"calendarStartDate,omitempty"`
	CalendarEndDate   string `json:"calendarEndDate,omitempty"`
	CalendarMessage   string `json:"calendarMessage,omitempty"`
	BatchFormOpen     bool   `json:"batchFormOpen"`
	BatchName         string `json:"batchName,omitempty"`
	BatchMessage      string `json:"batchMessage,omitempty"`
	CalendarID        *int64 `json:"calendarId,omitempty"`
}

// ProvisioningService sequences the Course -> Calendar -> Batch creation
// flow. The upstream backend offers no cross-resource transaction, so this
// service is the only place the ordering invariant is enforced. Batch
// submissions always target the calendar most recently created in this
// session, even when older calendars exist upstream; that is a deliberate
// simplification, not full correctness.
type ProvisioningService struct {
	gw        provisioningGateway
	graph     *store.ResourceGraph
	auditor   AuditRecorder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger

	mu            sync.Mutex
	calendarForms map[int64]*calendarForm
	batchForms    map[int64]*batchForm
	courseMsg     string
}

// NewProvisioningService constructs a ProvisioningService.
func NewProvisioningService(gw provisioningGateway, graph *store.ResourceGraph, auditor AuditRecorder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ProvisioningService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProvisioningService{
		gw:            gw,
		graph:         graph,
		auditor:       auditor,
		cache:         cache,
		validator:     validate,
		logger:        logger,
		calendarForms: make(map[int64]*calendarForm),
		batchForms:    make(map[int64]*batchForm),
	}
}

// LoadCourses refreshes the course snapshot from upstream.
func (s *ProvisioningService) LoadCourses(ctx context.Context) ([]models.Course, error) {
	courses, err := s.gw.ListCourses(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to list courses")
	}
	s.graph.SetCourses(courses)
	return courses, nil
}

// Courses returns the last-fetched course snapshot.
func (s *ProvisioningService) Courses() []models.Course {
	return s.graph.Courses()
}

// CreateCourse registers a new course and reloads the snapshot on success.
func (s *ProvisioningService) CreateCourse(ctx context.Context, actor string, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		s.setCourseMsg("Create failed: course name is required")
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.gw.CreateCourse(ctx, gateway.CreateCourseRequest{
		CourseName:   req.CourseName,
		Description:  req.Description,
		DurationDays: req.DurationDays,
	})
	if err != nil {
		s.setCourseMsg(fmt.Sprintf("Create failed: %v", err))
		return nil, err
	}

	s.setCourseMsg("Course created")
	s.audit(actor, models.AuditActionCourseCreate, "course", course.CourseID, course.CourseName)

	if _, err := s.LoadCourses(ctx); err != nil {
		s.logger.Warn("course list reload failed after create", zap.Error(err))
	}
	return course, nil
}

// CourseMessage returns the global course-creation status message.
func (s *ProvisioningService) CourseMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.courseMsg
}

// ToggleCalendarForm lazily initialises the calendar input buffer for a
// course on first use and flips its visibility. No upstream effect.
func (s *ProvisioningService) ToggleCalendarForm(courseID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	form := s.calendarForm(courseID)
	form.Open = !form.Open
	return form.Open
}

// ToggleBatchForm mirrors ToggleCalendarForm for the batch sub-form.
func (s *ProvisioningService) ToggleBatchForm(courseID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	form := s.batchForm(courseID)
	form.Open = !form.Open
	return form.Open
}

// SubmitCalendar validates the buffered dates and creates the calendar
// upstream. On success the calendar is recorded as the course's current
// calendar and the buffer clears; on rejection the buffer is retained so
// the admin can retry without retyping.
func (s *ProvisioningService) SubmitCalendar(ctx context.Context, actor string, courseID int64, startDate, endDate string) (*models.CourseCalendar, error) {
	s.mu.Lock()
	form := s.calendarForm(courseID)
	form.StartDate = startDate
	form.EndDate = endDate
	s.mu.Unlock()

	if err := validateDateRange(startDate, endDate); err != nil {
		s.setCalendarMsg(courseID, err.Message)
		return nil, err
	}

	calendar, err := s.gw.CreateCalendar(ctx, gateway.CreateCalendarRequest{
		CourseID:  courseID,
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		s.setCalendarMsg(courseID, fmt.Sprintf("Create failed: %v", err))
		return nil, err
	}

	s.graph.RecordCalendar(courseID, *calendar)

	s.mu.Lock()
	form = s.calendarForm(courseID)
	form.StartDate = ""
	form.EndDate = ""
	form.Message = "Calendar created"
	s.mu.Unlock()

	s.audit(actor, models.AuditActionCalendarCreate, "calendar", calendar.CalendarID, fmt.Sprintf("course %d: %s..%s", courseID, startDate, endDate))
	return calendar, nil
}

// SubmitBatch creates a batch under the course's session calendar. When no
// calendar has been created for the course this session it fails
// immediately with MISSING_DEPENDENCY and no upstream call is made.
func (s *ProvisioningService) SubmitBatch(ctx context.Context, actor string, courseID int64, batchName string) (*models.Batch, error) {
	s.mu.Lock()
	form := s.batchForm(courseID)
	form.BatchName = batchName
	s.mu.Unlock()

	if batchName == "" {
		err := appErrors.Clone(appErrors.ErrValidation, "batch name is required")
		s.setBatchMsg(courseID, err.Message)
		return nil, err
	}

	calendar, ok := s.graph.CalendarFor(courseID)
	if !ok {
		err := appErrors.Clone(appErrors.ErrMissingDependency, "no calendar found for this course")
		s.setBatchMsg(courseID, "No calendar found for this course")
		return nil, err
	}

	batch, err := s.gw.CreateBatch(ctx, gateway.CreateBatchRequest{
		BatchName:  batchName,
		CalendarID: calendar.CalendarID,
	})
	if err != nil {
		s.setBatchMsg(courseID, fmt.Sprintf("Create failed: %v", err))
		return nil, err
	}

	s.mu.Lock()
	form = s.batchForm(courseID)
	form.BatchName = ""
	form.Message = "Batch created"
	s.mu.Unlock()

	if err := s.cache.Invalidate(ctx, batchListCacheKey+"*"); err != nil {
		s.logger.Debug("batch list cache invalidation failed", zap.Error(err))
	}

	s.audit(actor, models.AuditActionBatchCreate, "batch", batch.BatchID, batchName)
	return batch, nil
}

// UpdateBatch forwards a batch update, typically an activation flip, and
// invalidates the cached batch list.
func (s *ProvisioningService) UpdateBatch(ctx context.Context, actor string, batchID int64, batch models.Batch) error {
	if err := s.gw.UpdateBatch(ctx, batchID, batch); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, batchListCacheKey+"*"); err != nil {
		s.logger.Debug("batch list cache invalidation failed", zap.Error(err))
	}
	s.audit(actor, models.AuditActionBatchUpdate, "batch", batchID, batch.BatchName)
	return nil
}

// DeleteBatch removes a batch. Deletion requires explicit confirmation; the
// upstream call is never issued without it.
func (s *ProvisioningService) DeleteBatch(ctx context.Context, actor string, batchID int64, confirmed bool) error {
	if !confirmed {
		return appErrors.Clone(appErrors.ErrConfirmationRequired, "batch deletion requires explicit confirmation")
	}
	if err := s.gw.DeleteBatch(ctx, batchID); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, batchListCacheKey+"*"); err != nil {
		s.logger.Debug("batch list cache invalidation failed", zap.Error(err))
	}
	s.audit(actor, models.AuditActionBatchDelete, "batch", batchID, "")
	return nil
}

// StateFor returns the UI-visible provisioning sub-state for one course.
func (s *ProvisioningService) StateFor(courseID int64) CourseProvisioningState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := CourseProvisioningState{CourseID: courseID}
	if form, ok := s.calendarForms[courseID]; ok {
		state.CalendarFormOpen = form.Open
		state.CalendarStartDate = form.StartDate
		state.CalendarEndDate = form.EndDate
		state.CalendarMessage = form.Message
	}
	if form, ok := s.batchForms[courseID]; ok {
		state.BatchFormOpen = form.Open
		state.BatchName = form.BatchName
		state.BatchMessage = form.Message
	}
	if calendar, ok := s.graph.CalendarFor(courseID); ok {
		id := calendar.CalendarID
		state.CalendarID = &id
	}
	return state
}

func (s *ProvisioningService) calendarForm(courseID int64) *calendarForm {
	form, ok := s.calendarForms[courseID]
	if !ok {
		form = &calendarForm{}
		s.calendarForms[courseID] = form
	}
	return form
}

func (s *ProvisioningService) batchForm(courseID int64) *batchForm {
	form, ok := s.batchForms[courseID]
	if !ok {
		form = &batchForm{}
		s.batchForms[courseID] = form
	}
	return form
}

func (s *ProvisioningService) setCourseMsg(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courseMsg = msg
}

func (s *ProvisioningService) setCalendarMsg(courseID int64, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calendarForm(courseID).Message = msg
}

func (s *ProvisioningService) setBatchMsg(courseID int64, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchForm(courseID).Message = msg
}

func (s *ProvisioningService) audit(actor, action, resource string, resourceID int64, detail string) {
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

func validateDateRange(startDate, endDate string) *appErrors.Error {
	if startDate == "" || endDate == "" {
		return appErrors.Clone(appErrors.ErrValidation, "start and end dates are required")
	}
	start, err := time.Parse(models.DateLayout, startDate)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid start date")
	}
	end, err := time.Parse(models.DateLayout, endDate)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid end date")
	}
	if start.After(end) {
		return appErrors.Clone(appErrors.ErrValidation, "start date must not be after end date")
	}
	return nil
}

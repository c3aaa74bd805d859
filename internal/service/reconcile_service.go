package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/tms-portal-api/internal/models"
	appErrors "github.com/noah-isme/tms-portal-api/pkg/errors"
)

const batchListCacheKey = "portal:batches"

type enrollmentGateway interface {
	ListBatches(ctx context.Context) ([]models.Batch, error)
	ListMine(ctx context.Context) ([]models.Enrollment, error)
	RequestEnrollment(ctx context.Context, batchID int64) (*models.Enrollment, error)
}

// DashboardView is the reconciled employee dashboard: per-batch statuses
// plus non-fatal advisories that must not block rendering.
type DashboardView struct {
	Batches    []models.BatchStatus `json:"batches"`
	Advisories []string             `json:"advisories,omitempty"`
}

// BatchOverview partitions batches for the admin calendar screen.
type BatchOverview struct {
	Active   []models.Batch `json:"active"`
	Inactive []models.Batch `json:"inactive"`
}

// ReconcileService derives a best-effort enrollment status per batch by
// correlating the batch list with the caller's enrollment list. The two
// lists are fetched concurrently and reconciled only once both are known;
// reconciliation is idempotent, so re-running it on the same inputs yields
// the same statuses. The enrollment records carry no reliable batch id, so
// correlation happens by exact batch name; the authoritative status always
// lives upstream and this view never becomes a source of truth.
type ReconcileService struct {
	gw      enrollmentGateway
	cache   *CacheService
	auditor AuditRecorder
	logger  *zap.Logger

	mu         sync.Mutex
	optimistic map[int64]map[int64]models.EnrollmentStatus
}

// NewReconcileService constructs a ReconcileService.
func NewReconcileService(gw enrollmentGateway, cache *CacheService, auditor AuditRecorder, logger *zap.Logger) *ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileService{
		gw:         gw,
		cache:      cache,
		auditor:    auditor,
		logger:     logger,
		optimistic: make(map[int64]map[int64]models.EnrollmentStatus),
	}
}

// Dashboard fetches the batch list and the caller's enrollments
// concurrently, tolerating completion in either order, and reconciles them
// into a status per batch.
func (s *ReconcileService) Dashboard(ctx context.Context, userID int64) (*DashboardView, error) {
	var (
		wg       sync.WaitGroup
		batches  []models.Batch
		mine     []models.Enrollment
		batchErr error
		mineErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		batches, batchErr = s.listBatches(ctx)
	}()
	go func() {
		defer wg.Done()
		mine, mineErr = s.gw.ListMine(ctx)
	}()
	wg.Wait()

	if batchErr != nil {
		return nil, appErrors.Wrap(batchErr, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to list batches")
	}
	if mineErr != nil {
		return nil, appErrors.Wrap(mineErr, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to list enrollments")
	}

	statuses, advisories := s.reconcile(batches, mine)

	view := &DashboardView{Advisories: advisories, Batches: make([]models.BatchStatus, 0, len(batches))}

	s.mu.Lock()
	overlay := s.optimistic[userID]
	for _, batch := range batches {
		status, ok := statuses[batch.BatchID]
		if ok {
			// A confirmed refresh observed this batch; the optimistic
			// value has served its purpose. Last reconciliation wins.
			delete(overlay, batch.BatchID)
		} else if pending, exists := overlay[batch.BatchID]; exists {
			status = pending
		} else {
			status = models.StatusNotEnrolled
		}

		entry := models.BatchStatus{
			BatchID:    batch.BatchID,
			BatchName:  batch.BatchName,
			CourseName: batch.CourseName(),
			Status:     status,
		}
		if batch.Calendar != nil {
			entry.StartDate = batch.Calendar.StartDate
			entry.EndDate = batch.Calendar.EndDate
		}
		view.Batches = append(view.Batches, entry)
	}
	s.mu.Unlock()

	return view, nil
}

// reconcile correlates the two lists into a status map. Unmatched
// enrollments are ignored; ambiguous batch names are flagged, not fixed.
func (s *ReconcileService) reconcile(batches []models.Batch, mine []models.Enrollment) (map[int64]models.EnrollmentStatus, []string) {
	statuses := make(map[int64]models.EnrollmentStatus)
	var advisories []string

	if len(mine) == 0 {
		advisories = append(advisories, "no enrollments returned: the upstream 'my enrollments' endpoint may be missing, or you have not enrolled yet")
		return statuses, advisories
	}

	for _, enrollment := range mine {
		match := joinByKey(batches, func(b models.Batch) string { return b.BatchName }, enrollment.BatchName)
		switch match.Kind {
		case MatchNone:
			// No batch carries this name; without a batch id on the
			// enrollment record there is nothing to attach the status to.
			continue
		case MatchAmbiguous:
			s.logger.Warn("ambiguous batch name during reconciliation",
				zap.String("batch_name", enrollment.BatchName),
				zap.Int("candidates", match.Count))
			advisories = append(advisories, fmt.Sprintf("batch name %q matches %d batches; status applied to the last one", enrollment.BatchName, match.Count))
			statuses[match.Batch.BatchID] = enrollment.Status
		case MatchOne:
			statuses[match.Batch.BatchID] = enrollment.Status
		}
	}
	return statuses, advisories
}

// RequestEnrollment submits an enrollment request and optimistically
// records the returned status for the batch without waiting for the next
// refresh. There is no rollback path: a later reconciliation with upstream
// truth simply wins.
func (s *ReconcileService) RequestEnrollment(ctx context.Context, userID, batchID int64) (*models.Enrollment, error) {
	enrollment, err := s.gw.RequestEnrollment(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "enrollment request failed")
	}

	s.mu.Lock()
	overlay, ok := s.optimistic[userID]
	if !ok {
		overlay = make(map[int64]models.EnrollmentStatus)
		s.optimistic[userID] = overlay
	}
	overlay[batchID] = enrollment.Status
	s.mu.Unlock()

	if s.auditor != nil {
		id := batchID
		s.auditor.Record(models.AuditEntry{
			Actor:      fmt.Sprintf("%d", userID),
			Action:     models.AuditActionEnrollmentRequest,
			Resource:   "batch",
			ResourceID: &id,
			Detail:     string(enrollment.Status),
		})
	}
	return enrollment, nil
}

// StatusFor reports the current status for one batch as this service
// would render it, considering only the optimistic overlay.
func (s *ReconcileService) StatusFor(userID, batchID int64) models.EnrollmentStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if overlay, ok := s.optimistic[userID]; ok {
		if status, exists := overlay[batchID]; exists {
			return status
		}
	}
	return models.StatusNotEnrolled
}

// Overview splits all batches into active and inactive for the admin view.
func (s *ReconcileService) Overview(ctx context.Context) (*BatchOverview, error) {
	batches, err := s.listBatches(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to list batches")
	}
	overview := &BatchOverview{Active: []models.Batch{}, Inactive: []models.Batch{}}
	for _, batch := range batches {
		if batch.IsActive {
			overview.Active = append(overview.Active, batch)
		} else {
			overview.Inactive = append(overview.Inactive, batch)
		}
	}
	return overview, nil
}

func (s *ReconcileService) listBatches(ctx context.Context) ([]models.Batch, error) {
	var batches []models.Batch
	if hit, err := s.cache.Get(ctx, batchListCacheKey, &batches); err == nil && hit {
		return batches, nil
	}

	batches, err := s.gw.ListBatches(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, batchListCacheKey, batches, 0); err != nil {
		s.logger.Debug("batch list cache write failed", zap.Error(err))
	}
	return batches, nil
}

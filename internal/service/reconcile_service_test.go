package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/tms-portal-api/internal/models"
	appErrors "github.com/noah-isme/tms-portal-api/pkg/errors"
)

type mockEnrollmentGateway struct {
	batches  []models.Batch
	batchErr error

	mine    []models.Enrollment
	mineErr error

	requestResult *models.Enrollment
	requestErr    error
	requestCalls  []int64
}

func (m *mockEnrollmentGateway) ListBatches(ctx context.Context) ([]models.Batch, error) {
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	return m.batches, nil
}

func (m *mockEnrollmentGateway) ListMine(ctx context.Context) ([]models.Enrollment, error) {
	if m.mineErr != nil {
		return nil, m.mineErr
	}
	return m.mine, nil
}

func (m *mockEnrollmentGateway) RequestEnrollment(ctx context.Context, batchID int64) (*models.Enrollment, error) {
	m.requestCalls = append(m.requestCalls, batchID)
	if m.requestErr != nil {
		return nil, m.requestErr
	}
	return m.requestResult, nil
}

func newReconcileService(gw *mockEnrollmentGateway) *ReconcileService {
	return NewReconcileService(gw, nil, nil, zap.NewNop())
}

func statusOf(t *testing.T, view *DashboardView, batchID int64) models.EnrollmentStatus {
	t.Helper()
	for _, entry := range view.Batches {
		if entry.BatchID == batchID {
			return entry.Status
		}
	}
	t.Fatalf("batch %d not in view", batchID)
	return ""
}

func TestDashboardEmptyEnrollments(t *testing.T) {
	gw := &mockEnrollmentGateway{
		batches: []models.Batch{
			{BatchID: 1, BatchName: "Go Basics B1"},
			{BatchID: 2, BatchName: "Go Basics B2"},
		},
	}
	svc := newReconcileService(gw)

	view, err := svc.Dashboard(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, view.Batches, 2)
	for _, entry := range view.Batches {
		assert.Equal(t, models.StatusNotEnrolled, entry.Status)
	}
	require.Len(t, view.Advisories, 1)
	assert.Contains(t, view.Advisories[0], "no enrollments returned")
}

func TestDashboardExactNameMatch(t *testing.T) {
	gw := &mockEnrollmentGateway{
		batches: []models.Batch{
			{BatchID: 1, BatchName: "Go Basics B1"},
			{BatchID: 2, BatchName: "Go Basics B2"},
		},
		mine: []models.Enrollment{
			{BatchName: "Go Basics B1", Status: models.StatusApproved},
		},
	}
	svc := newReconcileService(gw)

	view, err := svc.Dashboard(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, statusOf(t, view, 1))
	assert.Equal(t, models.StatusNotEnrolled, statusOf(t, view, 2))
	assert.Empty(t, view.Advisories)
}

func TestDashboardMatchIsCaseSensitive(t *testing.T) {
	gw := &mockEnrollmentGateway{
		batches: []models.Batch{{BatchID: 1, BatchName: "Go Basics B1"}},
		mine: []models.Enrollment{
			{BatchName: "go basics b1", Status: models.StatusApproved},
		},
	}
	svc := newReconcileService(gw)

	view, err := svc.Dashboard(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotEnrolled, statusOf(t, view, 1))
}

func TestDashboardUnmatchedEnrollmentIgnored(t *testing.T) {
	gw := &mockEnrollmentGateway{
		batches: []models.Batch{{BatchID: 1, BatchName: "Go Basics B1"}},
		mine: []models.Enrollment{
			{BatchName: "Deleted Batch", Status: models.StatusApproved},
		},
	}
	svc := newReconcileService(gw)

	view, err := svc.Dashboard(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotEnrolled, statusOf(t, view, 1))
}

func TestDashboardAmbiguousNameFlagged(t *testing.T) {
	gw := &mockEnrollmentGateway{
		batches: []models.Batch{
			{BatchID: 1, BatchName: "Repeat"},
			{BatchID: 2, BatchName: "Repeat"},
		},
		mine: []models.Enrollment{
			{BatchName: "Repeat", Status: models.StatusRequested},
		},
	}
	svc := newReconcileService(gw)

	view, err := svc.Dashboard(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRequested, statusOf(t, view, 2), "last match wins")
	assert.Equal(t, models.StatusNotEnrolled, statusOf(t, view, 1))
	require.Len(t, view.Advisories, 1)
	assert.Contains(t, view.Advisories[0], "matches 2 batches")
}

func TestDashboardIsIdempotent(t *testing.T) {
	gw := &mockEnrollmentGateway{
		batches: []models.Batch{
			{BatchID: 1, BatchName: "Go Basics B1"},
			{BatchID: 2, BatchName: "Go Basics B2"},
		},
		mine: []models.Enrollment{
			{BatchName: "Go Basics B2", Status: models.StatusRequested},
		},
	}
	svc := newReconcileService(gw)

	first, err := svc.Dashboard(context.Background(), 10)
	require.NoError(t, err)
	second, err := svc.Dashboard(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, first.Batches, second.Batches)
}

func TestDashboardErrors(t *testing.T) {
	svc := newReconcileService(&mockEnrollmentGateway{batchErr: errors.New("down")})
	_, err := svc.Dashboard(context.Background(), 10)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUpstream))

	svc = newReconcileService(&mockEnrollmentGateway{mineErr: errors.New("down")})
	_, err = svc.Dashboard(context.Background(), 10)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUpstream))
}

func TestRequestEnrollmentOptimisticStatus(t *testing.T) {
	gw := &mockEnrollmentGateway{
		batches:       []models.Batch{{BatchID: 1, BatchName: "Go Basics B1"}},
		requestResult: &models.Enrollment{BatchName: "Go Basics B1", Status: models.StatusRequested},
	}
	svc := newReconcileService(gw)

	enrollment, err := svc.RequestEnrollment(context.Background(), 10, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRequested, enrollment.Status)
	assert.Equal(t, []int64{1}, gw.requestCalls)

	// Status is applied without a refresh.
	assert.Equal(t, models.StatusRequested, svc.StatusFor(10, 1))
	assert.Equal(t, models.StatusNotEnrolled, svc.StatusFor(11, 1), "overlays are per user")
}

func TestOptimisticOverlayShowsInDashboard(t *testing.T) {
	gw := &mockEnrollmentGateway{
		batches:       []models.Batch{{BatchID: 1, BatchName: "Go Basics B1"}},
		requestResult: &models.Enrollment{BatchName: "Go Basics B1", Status: models.StatusRequested},
	}
	svc := newReconcileService(gw)

	_, err := svc.RequestEnrollment(context.Background(), 10, 1)
	require.NoError(t, err)

	view, err := svc.Dashboard(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRequested, statusOf(t, view, 1))
}

func TestConfirmedRefreshClearsOverlay(t *testing.T) {
	gw := &mockEnrollmentGateway{
		batches:       []models.Batch{{BatchID: 1, BatchName: "Go Basics B1"}},
		requestResult: &models.Enrollment{BatchName: "Go Basics B1", Status: models.StatusRequested},
	}
	svc := newReconcileService(gw)

	_, err := svc.RequestEnrollment(context.Background(), 10, 1)
	require.NoError(t, err)

	// Upstream now reports the authoritative status.
	gw.mine = []models.Enrollment{{BatchName: "Go Basics B1", Status: models.StatusApproved}}
	view, err := svc.Dashboard(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, statusOf(t, view, 1))

	assert.Equal(t, models.StatusNotEnrolled, svc.StatusFor(10, 1), "overlay retired once confirmed")
}

func TestRequestEnrollmentFailureLeavesNoOverlay(t *testing.T) {
	gw := &mockEnrollmentGateway{requestErr: errors.New("rejected")}
	svc := newReconcileService(gw)

	_, err := svc.RequestEnrollment(context.Background(), 10, 1)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUpstream))
	assert.Equal(t, models.StatusNotEnrolled, svc.StatusFor(10, 1))
}

func TestOverviewPartitionsByActive(t *testing.T) {
	gw := &mockEnrollmentGateway{
		batches: []models.Batch{
			{BatchID: 1, BatchName: "Live", IsActive: true},
			{BatchID: 2, BatchName: "Finished"},
		},
	}
	svc := newReconcileService(gw)

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)
	require.Len(t, overview.Active, 1)
	require.Len(t, overview.Inactive, 1)
	assert.Equal(t, int64(1), overview.Active[0].BatchID)
	assert.Equal(t, int64(2), overview.Inactive[0].BatchID)
}

func TestJoinByKey(t *testing.T) {
	batches := []models.Batch{
		{BatchID: 1, BatchName: "A"},
		{BatchID: 2, BatchName: "B"},
		{BatchID: 3, BatchName: "B"},
	}
	extract := func(b models.Batch) string { return b.BatchName }

	assert.Equal(t, MatchNone, joinByKey(batches, extract, "C").Kind)

	one := joinByKey(batches, extract, "A")
	assert.Equal(t, MatchOne, one.Kind)
	assert.Equal(t, int64(1), one.Batch.BatchID)

	many := joinByKey(batches, extract, "B")
	assert.Equal(t, MatchAmbiguous, many.Kind)
	assert.Equal(t, 2, many.Count)
	assert.Equal(t, int64(3), many.Batch.BatchID)
}

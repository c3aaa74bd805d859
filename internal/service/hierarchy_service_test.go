package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/tms-portal-api/internal/gateway"
	"github.com/noah-isme/tms-portal-api/internal/models"
	appErrors "github.com/noah-isme/tms-portal-api/pkg/errors"
)

type mockUserGateway struct {
	managers  []models.Manager
	listErr   error
	listCalls int

	createErr   error
	createCalls []gateway.CreateUserRequest

	deleteErr   error
	deleteCalls []int64
}

func (m *mockUserGateway) ListManagers(ctx context.Context) ([]models.Manager, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.managers, nil
}

func (m *mockUserGateway) CreateUser(ctx context.Context, req gateway.CreateUserRequest) (*models.User, error) {
	m.createCalls = append(m.createCalls, req)
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.User{UserID: int64(len(m.createCalls)), Username: req.Username, RoleName: req.RoleName}, nil
}

func (m *mockUserGateway) DeleteUser(ctx context.Context, userID int64) error {
	m.deleteCalls = append(m.deleteCalls, userID)
	return m.deleteErr
}

func newHierarchyService(gw *mockUserGateway) *HierarchyService {
	return NewHierarchyService(gw, nil, validator.New(), zap.NewNop())
}

func TestDeleteUserWithoutConfirmationIsInert(t *testing.T) {
	gw := &mockUserGateway{}
	svc := newHierarchyService(gw)

	err := svc.DeleteUser(context.Background(), "admin", 42, false)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConfirmationRequired))
	assert.Empty(t, gw.deleteCalls, "declining confirmation must not reach upstream")
	assert.Zero(t, gw.listCalls, "no reload without a delete")
}

func TestDeleteUserConfirmedReloadsRoster(t *testing.T) {
	gw := &mockUserGateway{managers: []models.Manager{{UserID: 1}}}
	svc := newHierarchyService(gw)

	err := svc.DeleteUser(context.Background(), "admin", 42, true)
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, gw.deleteCalls)
	assert.Equal(t, 1, gw.listCalls)
	assert.Empty(t, svc.Alert())
}

func TestDeleteUserFailureRaisesAlertAndKeepsRoster(t *testing.T) {
	gw := &mockUserGateway{managers: []models.Manager{{UserID: 1}}}
	svc := newHierarchyService(gw)
	_, err := svc.LoadManagers(context.Background())
	require.NoError(t, err)

	gw.deleteErr = errors.New("upstream says no")
	err = svc.DeleteUser(context.Background(), "admin", 42, true)
	require.Error(t, err)
	assert.Contains(t, svc.Alert(), "Delete failed")
	assert.Len(t, svc.Roster().Managers, 1, "roster stays stale until a successful reload")
}

func TestCreateEmployeeClearsFormAndReloadsOnce(t *testing.T) {
	gw := &mockUserGateway{}
	svc := newHierarchyService(gw)
	svc.ToggleCreateFor(5)

	user, err := svc.CreateEmployee(context.Background(), "admin", 5, CreateAccountRequest{
		Username: "emp1",
		Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "emp1", user.Username)
	assert.Equal(t, 1, gw.listCalls, "exactly one roster reload per successful create")

	require.Len(t, gw.createCalls, 1)
	assert.Equal(t, models.RoleEmployee, gw.createCalls[0].RoleName)
	require.NotNil(t, gw.createCalls[0].ManagerID)
	assert.Equal(t, int64(5), *gw.createCalls[0].ManagerID)

	state := svc.StateFor(5)
	assert.False(t, state.FormOpen, "sub-form closes on success")
	assert.Equal(t, "Employee created", state.Message)
}

func TestCreateEmployeeErrorsAreIsolatedPerManager(t *testing.T) {
	gw := &mockUserGateway{createErr: errors.New("duplicate username")}
	svc := newHierarchyService(gw)

	_, err := svc.CreateEmployee(context.Background(), "admin", 5, CreateAccountRequest{
		Username: "emp1",
		Password: "secret",
	})
	require.Error(t, err)

	assert.Contains(t, svc.StateFor(5).Message, "Create failed")
	assert.Empty(t, svc.StateFor(6).Message, "another manager's form stays clean")
	assert.Zero(t, gw.listCalls, "failed create does not reload the roster")
}

func TestCreateEmployeeValidation(t *testing.T) {
	gw := &mockUserGateway{}
	svc := newHierarchyService(gw)

	_, err := svc.CreateEmployee(context.Background(), "admin", 5, CreateAccountRequest{Username: "emp1"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, gw.createCalls)
}

func TestCreateManagerSetsRole(t *testing.T) {
	gw := &mockUserGateway{}
	svc := newHierarchyService(gw)

	_, err := svc.CreateManager(context.Background(), "admin", CreateAccountRequest{
		Username: "mgr1",
		Password: "secret",
	})
	require.NoError(t, err)
	require.Len(t, gw.createCalls, 1)
	assert.Equal(t, models.RoleManager, gw.createCalls[0].RoleName)
	assert.Nil(t, gw.createCalls[0].ManagerID)
	assert.Equal(t, "Manager created", svc.ManagerMessage())
}

func TestLoadManagersFailureKeepsPreviousRoster(t *testing.T) {
	gw := &mockUserGateway{managers: []models.Manager{{UserID: 1}}}
	svc := newHierarchyService(gw)

	_, err := svc.LoadManagers(context.Background())
	require.NoError(t, err)

	gw.listErr = errors.New("unreachable")
	_, err = svc.LoadManagers(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUpstream))

	view := svc.Roster()
	assert.False(t, view.Loading)
	assert.Len(t, view.Managers, 1, "failed refresh leaves the previous roster intact")
}

func TestToggleAndCancelEmployeeForm(t *testing.T) {
	svc := newHierarchyService(&mockUserGateway{})

	assert.True(t, svc.ToggleCreateFor(3))
	svc.CancelCreate(3)
	assert.False(t, svc.StateFor(3).FormOpen)
}

package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/tms-portal-api/internal/gateway"
	internalmiddleware "github.com/noah-isme/tms-portal-api/internal/middleware"
	"github.com/noah-isme/tms-portal-api/internal/models"
	"github.com/noah-isme/tms-portal-api/internal/service"
	"github.com/noah-isme/tms-portal-api/internal/store"
	"github.com/noah-isme/tms-portal-api/pkg/config"
)

// fakeUpstream simulates the TMS backend the portal orchestrates.
type fakeUpstream struct {
	mux *http.ServeMux

	calendarSeq int64
	batchSeq    int64
	batches     []models.Batch
	mine        []models.Enrollment
	managers    []models.Manager
	deleted     []string
}

func newFakeUpstream() *fakeUpstream {
	f := &fakeUpstream{mux: http.NewServeMux()}

	f.mux.HandleFunc("/courses", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.Course{{CourseID: 1, CourseName: "Go Basics"}}) //nolint:errcheck
	})
	f.mux.HandleFunc("/calendars", func(w http.ResponseWriter, r *http.Request) {
		var req gateway.CreateCalendarRequest
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		f.calendarSeq++
		json.NewEncoder(w).Encode(models.CourseCalendar{ //nolint:errcheck
			CalendarID: f.calendarSeq,
			CourseID:   req.CourseID,
			StartDate:  req.StartDate,
			EndDate:    req.EndDate,
		})
	})
	f.mux.HandleFunc("/batches", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			var req gateway.CreateBatchRequest
			json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
			f.batchSeq++
			batch := models.Batch{BatchID: f.batchSeq, CalendarID: req.CalendarID, BatchName: req.BatchName, IsActive: true}
			f.batches = append(f.batches, batch)
			json.NewEncoder(w).Encode(batch) //nolint:errcheck
			return
		}
		json.NewEncoder(w).Encode(f.batches) //nolint:errcheck
	})
	f.mux.HandleFunc("/enrollments/mine", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(f.mine) //nolint:errcheck
	})
	f.mux.HandleFunc("/enrollments/request/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.Enrollment{Status: models.StatusRequested}) //nolint:errcheck
	})
	f.mux.HandleFunc("/users/managers", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(f.managers) //nolint:errcheck
	})
	f.mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.NotFound(w, r)
			return
		}
		f.deleted = append(f.deleted, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})
	return f
}

func buildPortalRouter(t *testing.T) (*gin.Engine, *fakeUpstream) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	upstream := newFakeUpstream()
	server := httptest.NewServer(upstream.mux)
	t.Cleanup(server.Close)

	gw := gateway.NewClient(config.UpstreamConfig{BaseURL: server.URL}, zap.NewNop(), nil)
	validate := validator.New()

	provisioningSvc := service.NewProvisioningService(gw, store.NewResourceGraph(), nil, nil, validate, zap.NewNop())
	hierarchySvc := service.NewHierarchyService(gw, nil, validate, zap.NewNop())
	reconcileSvc := service.NewReconcileService(gw, nil, nil, zap.NewNop())

	provisioningH := NewProvisioningHandler(provisioningSvc)
	userH := NewUserHandler(hierarchySvc)
	dashboardH := NewDashboardHandler(reconcileSvc)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{
				UserID:   10,
				Username: "tester",
				Role:     models.UserRole(role),
			})
		}
		c.Next()
	})

	admin := router.Group("")
	admin.Use(internalmiddleware.RequireRoles(models.RoleAdministrator))
	{
		admin.GET("/courses", provisioningH.ListCourses)
		admin.POST("/courses/:courseId/calendars", provisioningH.SubmitCalendar)
		admin.POST("/courses/:courseId/batches", provisioningH.SubmitBatch)
		admin.GET("/courses/:courseId/state", provisioningH.State)
		admin.GET("/users/managers", userH.ListManagers)
		admin.DELETE("/users/:id", userH.DeleteUser)
	}
	router.GET("/dashboard", dashboardH.Dashboard)
	router.POST("/enrollments/:batchId/request", dashboardH.RequestEnrollment)

	return router, upstream
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func adminRequest(method, path string, body []byte) *http.Request {
	var req *http.Request
	if body != nil {
		req, _ = http.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}
	req.Header.Set("X-Test-Role", string(models.RoleAdministrator))
	return req
}

func TestProvisioningRoutes(t *testing.T) {
	router, _ := buildPortalRouter(t)

	t.Run("list courses", func(t *testing.T) {
		resp := performRequest(router, adminRequest(http.MethodGet, "/courses", nil))
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), "Go Basics")
	})

	t.Run("forbidden without admin role", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/courses", nil)
		req.Header.Set("X-Test-Role", string(models.RoleEmployee))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusForbidden, resp.Code)
	})
}

func TestProvisioningFlow(t *testing.T) {
	router, _ := buildPortalRouter(t)

	// Batch creation without a calendar fails with 422 and a sticky message.
	resp := performRequest(router, adminRequest(http.MethodPost, "/courses/1/batches", []byte(`{"batchName":"B1"}`)))
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = performRequest(router, adminRequest(http.MethodGet, "/courses/1/state", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "No calendar found for this course")

	// Creating the calendar unblocks the batch.
	resp = performRequest(router, adminRequest(http.MethodPost, "/courses/1/calendars", []byte(`{"startDate":"2026-01-01","endDate":"2026-01-10"}`)))
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = performRequest(router, adminRequest(http.MethodPost, "/courses/1/batches", []byte(`{"batchName":"B1"}`)))
	require.Equal(t, http.StatusCreated, resp.Code)
	require.Contains(t, resp.Body.String(), `"batchName":"B1"`)
}

func TestUserRoutes(t *testing.T) {
	router, upstream := buildPortalRouter(t)
	upstream.managers = []models.Manager{{UserID: 1, Username: "mgr1"}}

	resp := performRequest(router, adminRequest(http.MethodGet, "/users/managers", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "mgr1")

	// Delete without confirmation never reaches the upstream.
	resp = performRequest(router, adminRequest(http.MethodDelete, "/users/1", nil))
	require.Equal(t, http.StatusPreconditionRequired, resp.Code)
	require.Empty(t, upstream.deleted)

	resp = performRequest(router, adminRequest(http.MethodDelete, "/users/1?confirm=true", nil))
	require.Equal(t, http.StatusNoContent, resp.Code)
	require.Equal(t, []string{"/users/1"}, upstream.deleted)
}

func TestDashboardRoutes(t *testing.T) {
	router, upstream := buildPortalRouter(t)
	upstream.batches = []models.Batch{{BatchID: 1, BatchName: "B1", IsActive: true}}

	t.Run("requires claims", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/dashboard", nil)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("advisory on empty enrollments", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/dashboard", nil)
		req.Header.Set("X-Test-Role", string(models.RoleEmployee))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), "NotEnrolled")
		require.Contains(t, resp.Body.String(), "advisories")
	})

	t.Run("optimistic status after request", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/enrollments/1/request", nil)
		req.Header.Set("X-Test-Role", string(models.RoleEmployee))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)

		req, _ = http.NewRequest(http.MethodGet, "/dashboard", nil)
		req.Header.Set("X-Test-Role", string(models.RoleEmployee))
		resp = performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), string(models.StatusRequested))
	})
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/castaway-league-api/internal/models"
	"github.com/noah-isme/castaway-league-api/internal/service"
	appErrors "github.com/noah-isme/castaway-league-api/pkg/errors"
)

type staticValidator struct {
	claims *models.JWTClaims
}

func (v staticValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return v.claims, nil
}

type auditRecorder struct {
	logs []*models.AuditLog
	err  error
}

func (a *auditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return a.err
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	return r
}

func serve(r *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWT(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u1", Role: models.RolePlayer}
	r := newRouter(JWT(staticValidator{claims: claims}))
	r.GET("/me", func(c *gin.Context) {
		value, _ := c.Get(ContextUserKey)
		c.String(http.StatusOK, value.(*models.JWTClaims).UserID)
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "Token good").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "Bearer bad").Code)

	w := serve(r, http.MethodGet, "/me", "bearer good")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())
}

func TestOptionalJWT(t *testing.T) {
	r := newRouter(OptionalJWT(staticValidator{claims: &models.JWTClaims{UserID: "u1"}}))
	r.GET("/", func(c *gin.Context) {
		_, ok := c.Get(ContextUserKey)
		if ok {
			c.String(http.StatusOK, "user")
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	assert.Equal(t, "anonymous", serve(r, http.MethodGet, "/", "").Body.String())
	assert.Equal(t, "anonymous", serve(r, http.MethodGet, "/", "Bearer bad").Body.String())
	assert.Equal(t, "user", serve(r, http.MethodGet, "/", "Bearer good").Body.String())
}

func TestRequireModerator(t *testing.T) {
	for role, want := range map[models.UserRole]int{
		models.RolePlayer:    http.StatusForbidden,
		models.RoleModerator: http.StatusOK,
		models.RoleAdmin:     http.StatusOK,
	} {
		r := newRouter(JWT(staticValidator{claims: &models.JWTClaims{UserID: "u", Role: role}}), RequireModerator())
		r.POST("/review", func(c *gin.Context) { c.Status(http.StatusOK) })
		assert.Equal(t, want, serve(r, http.MethodPost, "/review", "Bearer good").Code, string(role))
	}

	r := newRouter(RequireRoles(models.RoleAdmin))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/", "").Code)
}

func TestAuditRecordsSuccessfulRequests(t *testing.T) {
	store := &auditRecorder{}
	r := newRouter(JWT(staticValidator{claims: &models.JWTClaims{UserID: "u1"}}))
	r.POST("/simulations/:id", Audit(store, nil, models.AuditActionSimulationRun, "simulation", "id"), func(c *gin.Context) {
		if c.Param("id") == "fail" {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	require.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/simulations/run-1", "Bearer good").Code)
	require.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/simulations/fail", "Bearer good").Code)

	require.Len(t, store.logs, 1)
	entry := store.logs[0]
	assert.Equal(t, models.AuditActionSimulationRun, entry.Action)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "u1", *entry.UserID)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, "run-1", *entry.ResourceID)
	assert.Contains(t, string(entry.NewValues), `"/simulations/:id"`)
}

func TestAuditStoreFailureDoesNotAffectResponse(t *testing.T) {
	store := &auditRecorder{err: errors.New("db down")}
	r := newRouter(Audit(store, nil, "ACTION", "thing", ""))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", "").Code)
	assert.Len(t, store.logs, 1)
}

func TestResponseMetaBoardFreshness(t *testing.T) {
	r := newRouter(ResponseMeta())
	generated := time.Date(2026, 3, 4, 20, 0, 0, 0, time.UTC)
	var fresh, cold map[string]interface{}
	r.GET("/boards/:id", func(c *gin.Context) {
		if c.Param("id") == "cold" {
			SetBoardFreshness(c, false, time.Time{})
			cold = Meta(c)
		} else {
			SetBoardFreshness(c, true, generated)
			fresh = Meta(c)
		}
		c.Status(http.StatusOK)
	})

	serve(r, http.MethodGet, "/boards/s1", "")
	serve(r, http.MethodGet, "/boards/cold", "")

	require.NotNil(t, fresh)
	assert.Equal(t, true, fresh[MetaCacheHit])
	assert.Equal(t, "2026-03-04T20:00:00Z", fresh[MetaGeneratedAt])
	assert.Greater(t, fresh[MetaBoardAgeSeconds], int64(0))
	assert.Contains(t, fresh, MetaProcessingTime)

	require.NotNil(t, cold)
	assert.Equal(t, false, cold[MetaCacheHit])
	assert.NotContains(t, cold, MetaGeneratedAt)
}

func TestMetaWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, Meta(c))
	SetBoardFreshness(c, true, time.Time{})
	assert.Equal(t, true, Meta(c)[MetaCacheHit])
}

func requestSeries(t *testing.T, svc *service.MetricsService) map[string]float64 {
	t.Helper()
	families, err := svc.Registry().Gather()
	require.NoError(t, err)
	series := map[string]float64{}
	for _, family := range families {
		if family.GetName() != "http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			var path string
			for _, label := range metric.GetLabel() {
				if label.GetName() == "path" {
					path = label.GetValue()
				}
			}
			series[path] += metric.GetCounter().GetValue()
		}
	}
	return series
}

func TestMetricsLabelsByRouteTemplate(t *testing.T) {
	svc := service.NewMetricsService()
	r := newRouter(Metrics(svc, "/metrics"))
	r.GET("/leagues/:id/leaderboard", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, http.MethodGet, "/leagues/l1/leaderboard", "")
	serve(r, http.MethodGet, "/leagues/l2/leaderboard", "")
	serve(r, http.MethodGet, "/metrics", "")
	serve(r, http.MethodGet, "/leagues/l1/nope", "")

	series := requestSeries(t, svc)
	assert.Equal(t, float64(2), series["/leagues/:id/leaderboard"])
	assert.Equal(t, float64(1), series[unmatchedRoute])
	assert.NotContains(t, series, "/metrics")
	assert.NotContains(t, series, "/leagues/l1/leaderboard")
	assert.Equal(t, uint64(3), svc.Snapshot().RequestsTotal)
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/internship-portal-api/internal/models"
	appErrors "github.com/noah-isme/internship-portal-api/pkg/errors"
)

type validatorStub struct {
	claims *models.JWTClaims
}

func (v validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return v.claims, nil
}

type limiterStub struct {
	remaining int
	keys      []string
}

func (l *limiterStub) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	l.keys = append(l.keys, key)
	if l.remaining <= 0 {
		return false
	}
	l.remaining--
	return true
}

func protectedRouter(roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	auth := validatorStub{claims: &models.JWTClaims{UserID: "sup-1", Role: models.RoleSupervisor}}
	router.GET("/secure", JWT(auth), RequireRoles(roles...), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestJWTMiddleware(t *testing.T) {
	router := protectedRouter(models.RoleSupervisor)

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	assert.Equal(t, http.StatusUnauthorized, serve(router, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Token good")
	assert.Equal(t, http.StatusUnauthorized, serve(router, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer bad")
	assert.Equal(t, http.StatusUnauthorized, serve(router, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer good")
	assert.Equal(t, http.StatusNoContent, serve(router, req).Code)
}

func TestRBACRejectsOtherRoles(t *testing.T) {
	router := protectedRouter(models.RoleStudent, models.RoleCompany)

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := serve(router, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := &limiterStub{remaining: 1}
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})
		c.Next()
	})
	router.POST("/applications", RateLimit(limiter, 1, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	first := serve(router, httptest.NewRequest(http.MethodPost, "/applications", nil))
	assert.Equal(t, http.StatusCreated, first.Code)

	second := serve(router, httptest.NewRequest(http.MethodPost, "/applications", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
	assert.Equal(t, "ratelimit:stu-1:POST:/applications", limiter.keys[0])
}

func TestRateLimitDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/open", RateLimit(nil, 1, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(router, httptest.NewRequest(http.MethodGet, "/open", nil)).Code)
	}
}

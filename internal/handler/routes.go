package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/internship-portal-api/internal/middleware"
	"github.com/noah-isme/internship-portal-api/internal/models"
)

// Routes groups the handlers and guards mounted under the API prefix.
type Routes struct {
	Auth             *AuthHandler
	Applications     *ApplicationHandler
	FinalEvaluations *FinalEvaluationHandler
	Metrics          *MetricsHandler

	// Authenticate populates middleware.ContextUserKey. Throttle guards
	// mutating routes and may be nil.
	Authenticate gin.HandlerFunc
	Throttle     gin.HandlerFunc
}

// Register mounts every route on the router.
func (r Routes) Register(router gin.IRouter, prefix string) {
	if r.Metrics != nil {
		router.GET("/health", r.Metrics.Health)
		router.GET("/ready", r.Metrics.Ready)
		router.GET("/metrics", r.Metrics.Prometheus)
	}

	api := router.Group(prefix)
	throttle := r.Throttle
	if throttle == nil {
		throttle = func(c *gin.Context) { c.Next() }
	}

	student := middleware.RequireRoles(models.RoleStudent)
	supervisor := middleware.RequireRoles(models.RoleSupervisor)
	company := middleware.RequireRoles(models.RoleCompany)
	admin := middleware.RequireRoles(models.RoleAdmin)

	if r.Auth != nil {
		api.POST("/auth/login", throttle, r.Auth.Login)
	}

	secured := api.Group("")
	if r.Authenticate != nil {
		secured.Use(r.Authenticate)
	}
	if r.Auth != nil {
		secured.GET("/auth/me", r.Auth.Me)
	}

	if h := r.Applications; h != nil {
		apps := secured.Group("/applications")
		apps.POST("", student, throttle, h.Submit)
		apps.GET("", h.List)
		apps.GET("/:id", h.Get)
		apps.PUT("/:id/supervisor-review", supervisor, throttle, h.SupervisorReview)
		apps.PATCH("/:id/resubmit", student, throttle, h.Resubmit)
		apps.PATCH("/:id/supervisor/approve", supervisor, throttle, h.ApproveResubmission)
		apps.PATCH("/:id/supervisor", admin, throttle, h.AssignSupervisor)
		apps.PUT("/:id/company-review", company, throttle, h.CompanyReview)
		apps.PATCH("/:id/interview", company, throttle, h.ScheduleInterview)
	}

	if h := r.FinalEvaluations; h != nil {
		final := secured.Group("/final-evaluation")
		final.GET("/supervisor/final-evaluations", supervisor, h.List)
		final.GET("/supervisor/final-evaluations/export", supervisor, h.Export)
		final.POST("/supervisor/evaluations", supervisor, throttle, h.CreateSupervisorEvaluation)
		final.POST("/supervisor/send-result/:applicationId", supervisor, throttle, h.Send)
		final.GET("/supervisor/view-sent-result/:applicationId", supervisor, h.ViewSent)
		final.POST("/company/evaluations", company, throttle, h.CreateCompanyEvaluation)
		final.GET("/student/result", student, h.StudentResult)
	}
}

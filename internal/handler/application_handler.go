package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/internship-portal-api/internal/dto"
	"github.com/noah-isme/internship-portal-api/internal/models"
	appErrors "github.com/noah-isme/internship-portal-api/pkg/errors"
	"github.com/noah-isme/internship-portal-api/pkg/response"
)

type applicationService interface {
	Submit(ctx context.Context, actor *models.JWTClaims, req dto.SubmitApplicationRequest) (*models.Application, error)
	SupervisorReview(ctx context.Context, actor *models.JWTClaims, id string, req dto.SupervisorReviewRequest) (*models.Application, error)
	ApproveResubmission(ctx context.Context, actor *models.JWTClaims, id string) (*models.Application, error)
	Resubmit(ctx context.Context, actor *models.JWTClaims, id string, req dto.ResubmitApplicationRequest) (*models.Application, error)
	AssignSupervisor(ctx context.Context, actor *models.JWTClaims, id string, req dto.AssignSupervisorRequest) (*models.Application, error)
	CompanyReview(ctx context.Context, actor *models.JWTClaims, id string, req dto.CompanyReviewRequest) (*models.Application, error)
	ScheduleInterview(ctx context.Context, actor *models.JWTClaims, id string, req dto.ScheduleInterviewRequest) (*models.Application, error)
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Application, error)
	List(ctx context.Context, actor *models.JWTClaims, query dto.ApplicationQuery) ([]models.Application, error)
}

// ApplicationHandler exposes the internship application workflow.
type ApplicationHandler struct {
	service applicationService
}

// NewApplicationHandler constructs the handler.
func NewApplicationHandler(service applicationService) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

// Submit godoc
// @Summary Submit an internship application
// @Tags Applications
// @Accept json
// @Produce json
// @Param payload body dto.SubmitApplicationRequest true "Application payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /applications [post]
func (h *ApplicationHandler) Submit(c *gin.Context) {
	claims, ok := h.ready(c)
	if !ok {
		return
	}
	var req dto.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid application payload"))
		return
	}
	app, err := h.service.Submit(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, app, "application submitted")
}

// List godoc
// @Summary List applications visible to the caller
// @Tags Applications
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param job_id query string false "Job posting ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /applications [get]
func (h *ApplicationHandler) List(c *gin.Context) {
	claims, ok := h.ready(c)
	if !ok {
		return
	}
	query := dto.ApplicationQuery{JobID: strings.TrimSpace(c.Query("job_id"))}
	if rawStatus := c.Query("status"); rawStatus != "" {
		for _, part := range strings.Split(rawStatus, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			query.Status = append(query.Status, models.ApplicationStatus(part))
		}
	}
	var err error
	if query.Limit, err = intQuery(c, "limit"); err != nil {
		response.Error(c, err)
		return
	}
	if query.Offset, err = intQuery(c, "offset"); err != nil {
		response.Error(c, err)
		return
	}
	apps, err := h.service.List(c.Request.Context(), claims, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apps, "", map[string]interface{}{"count": len(apps)})
}

// Get godoc
// @Summary Get application detail
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(c *gin.Context) {
	claims, ok := h.ready(c)
	if !ok {
		return
	}
	app, err := h.service.Get(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, "")
}

// SupervisorReview godoc
// @Summary Supervisor approves or rejects an application
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.SupervisorReviewRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /applications/{id}/supervisor-review [put]
func (h *ApplicationHandler) SupervisorReview(c *gin.Context) {
	claims, ok := h.ready(c)
	if !ok {
		return
	}
	var req dto.SupervisorReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}
	req.Decision = strings.ToLower(strings.TrimSpace(req.Decision))
	app, err := h.service.SupervisorReview(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, "application "+string(app.OverallStatus))
}

// ApproveResubmission godoc
// @Summary Supervisor approves a resubmitted application
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /applications/{id}/supervisor/approve [patch]
func (h *ApplicationHandler) ApproveResubmission(c *gin.Context) {
	claims, ok := h.ready(c)
	if !ok {
		return
	}
	app, err := h.service.ApproveResubmission(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, "resubmission approved")
}

// Resubmit godoc
// @Summary Resubmit a rejected application
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.ResubmitApplicationRequest false "Corrections"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /applications/{id}/resubmit [patch]
func (h *ApplicationHandler) Resubmit(c *gin.Context) {
	claims, ok := h.ready(c)
	if !ok {
		return
	}
	var req dto.ResubmitApplicationRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resubmission payload"))
			return
		}
	}
	app, err := h.service.Resubmit(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, "application resubmitted")
}

// AssignSupervisor godoc
// @Summary Assign the academic supervisor
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.AssignSupervisorRequest true "Supervisor"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/supervisor [patch]
func (h *ApplicationHandler) AssignSupervisor(c *gin.Context) {
	claims, ok := h.ready(c)
	if !ok {
		return
	}
	var req dto.AssignSupervisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	app, err := h.service.AssignSupervisor(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, "supervisor assigned")
}

// CompanyReview godoc
// @Summary Company opens, accepts or rejects an application
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.CompanyReviewRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /applications/{id}/company-review [put]
func (h *ApplicationHandler) CompanyReview(c *gin.Context) {
	claims, ok := h.ready(c)
	if !ok {
		return
	}
	var req dto.CompanyReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}
	req.Decision = strings.ToLower(strings.TrimSpace(req.Decision))
	app, err := h.service.CompanyReview(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, "application "+string(app.OverallStatus))
}

// ScheduleInterview godoc
// @Summary Schedule or reschedule an interview
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.ScheduleInterviewRequest true "Interview details"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /applications/{id}/interview [patch]
func (h *ApplicationHandler) ScheduleInterview(c *gin.Context) {
	claims, ok := h.ready(c)
	if !ok {
		return
	}
	var req dto.ScheduleInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid interview payload"))
		return
	}
	app, err := h.service.ScheduleInterview(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, "interview scheduled")
}

func (h *ApplicationHandler) ready(c *gin.Context) (*models.JWTClaims, bool) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "application service not configured"))
		return nil, false
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, key+" must be a non-negative integer")
	}
	return v, nil
}

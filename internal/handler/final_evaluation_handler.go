package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/internship-portal-api/internal/dto"
	"github.com/noah-isme/internship-portal-api/internal/models"
	"github.com/noah-isme/internship-portal-api/internal/service"
	appErrors "github.com/noah-isme/internship-portal-api/pkg/errors"
	"github.com/noah-isme/internship-portal-api/pkg/response"
)

type finalEvaluationService interface {
	List(ctx context.Context, actor *models.JWTClaims) (*dto.SupervisorFinalEvaluations, error)
	Send(ctx context.Context, actor *models.JWTClaims, applicationID string) (*dto.SentResult, error)
	ViewSent(ctx context.Context, actor *models.JWTClaims, applicationID string) (*dto.SentResult, error)
	StudentView(ctx context.Context, actor *models.JWTClaims) (*dto.StudentResultView, error)
	Export(ctx context.Context, actor *models.JWTClaims, format string) (*service.ExportFile, error)
}

type evaluationIntakeService interface {
	CreateSupervisorEvaluation(ctx context.Context, actor *models.JWTClaims, req dto.CreateSupervisorEvaluationRequest) (*models.SupervisorEvaluation, error)
	CreateCompanyEvaluation(ctx context.Context, actor *models.JWTClaims, req dto.CreateCompanyEvaluationRequest) (*models.CompanyEvaluation, error)
}

// FinalEvaluationHandler exposes evaluation intake and result release.
type FinalEvaluationHandler struct {
	release     finalEvaluationService
	evaluations evaluationIntakeService
}

// NewFinalEvaluationHandler constructs the handler.
func NewFinalEvaluationHandler(release finalEvaluationService, evaluations evaluationIntakeService) *FinalEvaluationHandler {
	return &FinalEvaluationHandler{release: release, evaluations: evaluations}
}

// List godoc
// @Summary List hired interns by release state
// @Tags FinalEvaluation
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /final-evaluation/supervisor/final-evaluations [get]
func (h *FinalEvaluationHandler) List(c *gin.Context) {
	claims, ok := h.releaseReady(c)
	if !ok {
		return
	}
	out, err := h.release.List(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, out, "", map[string]interface{}{
		"readyToSend":         len(out.ReadyToSend),
		"alreadySent":         len(out.AlreadySent),
		"awaitingEvaluations": len(out.AwaitingEvaluations),
	})
}

// Export godoc
// @Summary Export the release list
// @Tags FinalEvaluation
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /final-evaluation/supervisor/final-evaluations/export [get]
func (h *FinalEvaluationHandler) Export(c *gin.Context) {
	claims, ok := h.releaseReady(c)
	if !ok {
		return
	}
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	file, err := h.release.Export(c.Request.Context(), claims, strings.ToLower(strings.TrimSpace(query.Format)))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Content)
}

// Send godoc
// @Summary Release a final result to the student
// @Tags FinalEvaluation
// @Produce json
// @Param applicationId path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /final-evaluation/supervisor/send-result/{applicationId} [post]
func (h *FinalEvaluationHandler) Send(c *gin.Context) {
	claims, ok := h.releaseReady(c)
	if !ok {
		return
	}
	out, err := h.release.Send(c.Request.Context(), claims, c.Param("applicationId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	message := "final result sent"
	if out.EmailDelivered != nil && !*out.EmailDelivered {
		message = "final result sent, email notification could not be delivered"
	}
	response.JSON(c, http.StatusOK, out, message)
}

// ViewSent godoc
// @Summary View a released result
// @Tags FinalEvaluation
// @Produce json
// @Param applicationId path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /final-evaluation/supervisor/view-sent-result/{applicationId} [get]
func (h *FinalEvaluationHandler) ViewSent(c *gin.Context) {
	claims, ok := h.releaseReady(c)
	if !ok {
		return
	}
	out, err := h.release.ViewSent(c.Request.Context(), claims, c.Param("applicationId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, out, "")
}

// StudentResult godoc
// @Summary Student final result
// @Description Returns marks only after release; otherwise a pending status
// @Tags FinalEvaluation
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /final-evaluation/student/result [get]
func (h *FinalEvaluationHandler) StudentResult(c *gin.Context) {
	claims, ok := h.releaseReady(c)
	if !ok {
		return
	}
	out, err := h.release.StudentView(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, out, out.Message)
}

// CreateSupervisorEvaluation godoc
// @Summary Submit a supervisor evaluation
// @Tags FinalEvaluation
// @Accept json
// @Produce json
// @Param payload body dto.CreateSupervisorEvaluationRequest true "Scores"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /final-evaluation/supervisor/evaluations [post]
func (h *FinalEvaluationHandler) CreateSupervisorEvaluation(c *gin.Context) {
	claims, ok := h.intakeReady(c)
	if !ok {
		return
	}
	var req dto.CreateSupervisorEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid supervisor evaluation payload"))
		return
	}
	eval, err := h.evaluations.CreateSupervisorEvaluation(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, eval, "supervisor evaluation recorded")
}

// CreateCompanyEvaluation godoc
// @Summary Submit a company evaluation
// @Tags FinalEvaluation
// @Accept json
// @Produce json
// @Param payload body dto.CreateCompanyEvaluationRequest true "Criteria"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /final-evaluation/company/evaluations [post]
func (h *FinalEvaluationHandler) CreateCompanyEvaluation(c *gin.Context) {
	claims, ok := h.intakeReady(c)
	if !ok {
		return
	}
	var req dto.CreateCompanyEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid company evaluation payload"))
		return
	}
	eval, err := h.evaluations.CreateCompanyEvaluation(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, eval, "company evaluation recorded")
}

func (h *FinalEvaluationHandler) releaseReady(c *gin.Context) (*models.JWTClaims, bool) {
	if h.release == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "final evaluation service not configured"))
		return nil, false
	}
	return requireClaims(c)
}

func (h *FinalEvaluationHandler) intakeReady(c *gin.Context) (*models.JWTClaims, bool) {
	if h.evaluations == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "evaluation service not configured"))
		return nil, false
	}
	return requireClaims(c)
}

func requireClaims(c *gin.Context) (*models.JWTClaims, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

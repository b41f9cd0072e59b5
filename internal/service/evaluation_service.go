package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/internship-portal-api/internal/dto"
	"github.com/noah-isme/internship-portal-api/internal/models"
	"github.com/noah-isme/internship-portal-api/pkg/database"
	appErrors "github.com/noah-isme/internship-portal-api/pkg/errors"
)

// Evaluation intake event types.
const (
	EventSupervisorEvaluationCreated = "evaluation.supervisor.created"
	EventCompanyEvaluationCreated    = "evaluation.company.created"
)

type evaluationWriter interface {
	CreateSupervisorEvaluation(ctx context.Context, eval *models.SupervisorEvaluation) error
	GetSupervisorEvaluation(ctx context.Context, studentID, supervisorID string) (*models.SupervisorEvaluation, error)
	CreateCompanyEvaluation(ctx context.Context, eval *models.CompanyEvaluation) error
	GetCompanyEvaluationByApplication(ctx context.Context, applicationID string) (*models.CompanyEvaluation, error)
}

type applicationReader interface {
	GetByID(ctx context.Context, id string) (*models.Application, error)
}

type profileMaterializer interface {
	MaterializeByID(ctx context.Context, accountID string) (*models.StudentIdentity, error)
}

type domainEventPublisher interface {
	Publish(eventType, key, actorID string, payload interface{})
}

// EvaluationService records supervisor and company evaluations of hired interns.
type EvaluationService struct {
	evaluations evaluationWriter
	apps        applicationReader
	profiles    profileMaterializer
	events      domainEventPublisher
	audit       auditLogger
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEvaluationService constructs the intake service. profiles, events and audit are optional.
func NewEvaluationService(evaluations evaluationWriter, apps applicationReader, profiles profileMaterializer, events domainEventPublisher, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *EvaluationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EvaluationService{
		evaluations: evaluations,
		apps:        apps,
		profiles:    profiles,
		events:      events,
		audit:       audit,
		validator:   validate,
		logger:      logger,
	}
}

// CreateSupervisorEvaluation stores the assigned supervisor's assessment.
func (s *EvaluationService) CreateSupervisorEvaluation(ctx context.Context, actor *models.JWTClaims, req dto.CreateSupervisorEvaluationRequest) (*models.SupervisorEvaluation, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid supervisor evaluation payload")
	}
	app, err := s.hiredApplication(ctx, req.ApplicationID)
	if err != nil {
		return nil, err
	}
	if !app.AssignedTo(actor.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assigned supervisor can evaluate this intern")
	}

	if _, err := s.evaluations.GetSupervisorEvaluation(ctx, app.StudentID, actor.UserID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "supervisor evaluation already submitted for this student")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to check supervisor evaluation")
	}

	if s.profiles != nil {
		if _, err := s.profiles.MaterializeByID(ctx, app.StudentID); err != nil {
			s.logger.Warn("student profile materialization failed", zap.String("student_id", app.StudentID), zap.Error(err))
		}
	}

	eval := &models.SupervisorEvaluation{
		StudentID:       app.StudentID,
		SupervisorID:    actor.UserID,
		ApplicationID:   app.ID,
		TechnicalSkills: req.TechnicalSkills,
		ProblemSolving:  req.ProblemSolving,
		Communication:   req.Communication,
		Teamwork:        req.Teamwork,
		Professionalism: req.Professionalism,
		Initiative:      req.Initiative,
		Comments:        trimmedOrNil(req.Comments),
	}
	eval.TotalMarks = eval.TechnicalSkills + eval.ProblemSolving + eval.Communication +
		eval.Teamwork + eval.Professionalism + eval.Initiative

	if err := s.evaluations.CreateSupervisorEvaluation(ctx, eval); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "supervisor evaluation already submitted for this student")
		}
		return nil, appErrors.Internal(err, "failed to save supervisor evaluation")
	}

	s.record(ctx, actor, models.AuditActionSupervisorEvaluation, "supervisor_evaluation", eval.ID, eval)
	s.publish(EventSupervisorEvaluationCreated, app.ID, actor.UserID, map[string]interface{}{
		"evaluationId": eval.ID,
		"studentId":    eval.StudentID,
	})
	return eval, nil
}

// CreateCompanyEvaluation stores the hiring company's assessment.
func (s *EvaluationService) CreateCompanyEvaluation(ctx context.Context, actor *models.JWTClaims, req dto.CreateCompanyEvaluationRequest) (*models.CompanyEvaluation, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid company evaluation payload")
	}
	criteria, total, maxMarks, err := scoreCriteria(req)
	if err != nil {
		return nil, err
	}

	app, err := s.hiredApplication(ctx, req.ApplicationID)
	if err != nil {
		return nil, err
	}
	if app.CompanyID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the hiring company can evaluate this intern")
	}

	if _, err := s.evaluations.GetCompanyEvaluationByApplication(ctx, app.ID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "company evaluation already submitted for this application")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to check company evaluation")
	}

	eval := &models.CompanyEvaluation{
		ApplicationID: app.ID,
		StudentID:     app.StudentID,
		CompanyID:     actor.UserID,
		Criteria:      criteria,
		TotalMarks:    total,
		MaxMarks:      maxMarks,
		Comments:      trimmedOrNil(req.Comments),
	}
	if err := s.evaluations.CreateCompanyEvaluation(ctx, eval); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "company evaluation already submitted for this application")
		}
		return nil, appErrors.Internal(err, "failed to save company evaluation")
	}

	s.record(ctx, actor, models.AuditActionCompanyEvaluation, "company_evaluation", eval.ID, eval)
	s.publish(EventCompanyEvaluationCreated, app.ID, actor.UserID, map[string]interface{}{
		"evaluationId": eval.ID,
		"studentId":    eval.StudentID,
	})
	return eval, nil
}

// scoreCriteria sums scores and, when every criterion carries a maximum,
// the maxima. An explicit maxMarks overrides the summed maximum.
func scoreCriteria(req dto.CreateCompanyEvaluationRequest) (models.CompanyCriteria, float64, *float64, error) {
	criteria := make(models.CompanyCriteria, 0, len(req.Criteria))
	total := decimal.Zero
	maxTotal := decimal.Zero
	allMax := true
	for _, in := range req.Criteria {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return nil, 0, nil, appErrors.Clone(appErrors.ErrValidation, "criterion name is required")
		}
		c := models.CompanyCriterion{Name: name, Score: in.Score}
		if in.MaxScore != nil {
			if in.Score > *in.MaxScore {
				return nil, 0, nil, appErrors.Clone(appErrors.ErrValidation, "score exceeds maximum for criterion "+name)
			}
			c.MaxScore = *in.MaxScore
			maxTotal = maxTotal.Add(decimal.NewFromFloat(*in.MaxScore))
		} else {
			allMax = false
		}
		total = total.Add(decimal.NewFromFloat(in.Score))
		criteria = append(criteria, c)
	}

	var maxMarks *float64
	switch {
	case req.MaxMarks != nil:
		v := *req.MaxMarks
		maxMarks = &v
	case allMax:
		v := maxTotal.InexactFloat64()
		maxMarks = &v
	}
	limit := decimal.NewFromInt(models.DefaultCompanyMaxMarks)
	if maxMarks != nil {
		limit = decimal.NewFromFloat(*maxMarks)
	}
	if total.GreaterThan(limit) {
		return nil, 0, nil, appErrors.Clone(appErrors.ErrValidation, "total score exceeds the maximum marks")
	}
	return criteria, total.InexactFloat64(), maxMarks, nil
}

func (s *EvaluationService) hiredApplication(ctx context.Context, id string) (*models.Application, error) {
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Internal(err, "failed to load application")
	}
	if !app.Hired() {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "evaluations are only accepted for hired interns")
	}
	return app, nil
}

func (s *EvaluationService) publish(eventType, key, actorID string, payload interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(eventType, key, actorID, payload)
}

func (s *EvaluationService) record(ctx context.Context, actor *models.JWTClaims, action, resource, id string, value interface{}) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   resource,
		ResourceID: &id,
		IPAddress:  "system",
		UserAgent:  "evaluation-service",
	}
	entry.NewValues, _ = json.Marshal(value)
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.String("resource", resource), zap.Error(err))
	}
}

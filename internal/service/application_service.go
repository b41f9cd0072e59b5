package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/internship-portal-api/internal/dto"
	"github.com/noah-isme/internship-portal-api/internal/models"
	"github.com/noah-isme/internship-portal-api/internal/repository"
	"github.com/noah-isme/internship-portal-api/pkg/database"
	appErrors "github.com/noah-isme/internship-portal-api/pkg/errors"
)

type applicationStore interface {
	Create(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id string) (*models.Application, error)
	FindOpenByStudentAndJob(ctx context.Context, studentID, jobID string) (*models.Application, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error)
	Transition(ctx context.Context, t repository.ApplicationTransition) error
}

type jobStore interface {
	GetByID(ctx context.Context, id string) (*models.JobPosting, error)
}

type userDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type studentIdentities interface {
	Resolve(ctx context.Context, id string) (*models.StudentIdentity, error)
}

type interviewNotifier interface {
	SendInterviewScheduled(ctx context.Context, student *models.StudentIdentity, supervisor *models.User, app *models.Application, info InternshipInfo) error
}

type applicationEvents interface {
	PublishApplicationEvent(event, applicationID, actorID string, payload interface{})
}

// Workflow event names, used for audit, metrics and published events.
const (
	WorkflowEventSubmitted          = "submitted"
	WorkflowEventSupervisorApproved = "supervisor_approved"
	WorkflowEventSupervisorRejected = "supervisor_rejected"
	WorkflowEventResubmitted        = "resubmitted"
	WorkflowEventSupervisorAssigned = "supervisor_assigned"
	WorkflowEventCompanyReview      = "company_review_opened"
	WorkflowEventInterview          = "interview_scheduled"
	WorkflowEventHired              = "hired"
	WorkflowEventRejected           = "rejected"
)

// ApplicationService is the workflow engine for internship applications.
// Every transition is a conditional update on the expected current state, so
// of two concurrent actors only one can win.
type ApplicationService struct {
	apps       applicationStore
	jobs       jobStore
	users      userDirectory
	identities studentIdentities
	notifier   interviewNotifier
	events     applicationEvents
	audit      auditLogger
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// ApplicationServiceOption configures the service.
type ApplicationServiceOption func(*ApplicationService)

// WithApplicationNotifier sets the interview notifier.
func WithApplicationNotifier(n interviewNotifier) ApplicationServiceOption {
	return func(s *ApplicationService) { s.notifier = n }
}

// WithApplicationEvents sets the domain event sink.
func WithApplicationEvents(e applicationEvents) ApplicationServiceOption {
	return func(s *ApplicationService) { s.events = e }
}

// WithApplicationAudit sets the audit trail writer.
func WithApplicationAudit(a auditLogger) ApplicationServiceOption {
	return func(s *ApplicationService) { s.audit = a }
}

// WithApplicationMetrics sets the metrics recorder.
func WithApplicationMetrics(m *MetricsService) ApplicationServiceOption {
	return func(s *ApplicationService) { s.metrics = m }
}

// WithApplicationClock overrides the clock.
func WithApplicationClock(now func() time.Time) ApplicationServiceOption {
	return func(s *ApplicationService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewApplicationService constructs the workflow engine.
func NewApplicationService(apps applicationStore, jobs jobStore, users userDirectory, identities studentIdentities, validate *validator.Validate, logger *zap.Logger, opts ...ApplicationServiceOption) *ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	svc := &ApplicationService{
		apps:       apps,
		jobs:       jobs,
		users:      users,
		identities: identities,
		validator:  validate,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Submit creates an application for the calling student.
func (s *ApplicationService) Submit(ctx context.Context, actor *models.JWTClaims, req dto.SubmitApplicationRequest) (*models.Application, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can apply")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}

	job, err := s.jobs.GetByID(ctx, req.JobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job posting not found")
		}
		return nil, appErrors.Internal(err, "failed to load job posting")
	}
	if !job.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "job posting is no longer accepting applications")
	}

	if _, err := s.apps.FindOpenByStudentAndJob(ctx, actor.UserID, job.ID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an open application for this job already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to check existing applications")
	}

	supervisorID, err := s.pickSupervisor(ctx, actor.UserID, req.SupervisorID)
	if err != nil {
		return nil, err
	}

	app := &models.Application{
		StudentID:    actor.UserID,
		SupervisorID: supervisorID,
		CompanyID:    job.CompanyID,
		JobID:        job.ID,
		CoverLetter:  strings.TrimSpace(req.CoverLetter),
		ResumeURL:    trimmedOrNil(req.ResumeURL),
		SubmittedAt:  s.now().UTC(),
	}
	if err := s.apps.Create(ctx, app); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an open application for this job already exists")
		}
		return nil, appErrors.Internal(err, "failed to create application")
	}

	s.metrics.RecordTransition(WorkflowEventSubmitted)
	s.emitAudit(ctx, actor, models.AuditActionApplicationSubmit, app.ID, nil, app)
	s.publish(WorkflowEventSubmitted, app, actor)
	return app, nil
}

// SupervisorReview records the assigned supervisor's approve or reject decision.
func (s *ApplicationService) SupervisorReview(ctx context.Context, actor *models.JWTClaims, id string, req dto.SupervisorReviewRequest) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	feedback := strings.TrimSpace(req.Feedback)
	if req.Decision == dto.DecisionReject && feedback == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "feedback is required when rejecting an application")
	}

	app, err := s.loadForSupervisor(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if app.SupervisorStatus != models.SupervisorStatusPending || app.OverallStatus != models.ApplicationStatusSubmitted {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "application is not awaiting supervisor review")
	}
	if req.Decision == dto.DecisionApprove {
		return s.approveBySupervisor(ctx, actor, app)
	}

	now := s.now().UTC()
	return s.transition(ctx, actor, app, WorkflowEventSupervisorRejected, models.AuditActionApplicationReview, repository.ApplicationTransition{
		ID:                   app.ID,
		From:                 []models.ApplicationStatus{models.ApplicationStatusSubmitted},
		To:                   models.ApplicationStatusSupervisorRejected,
		SupervisorStatus:     models.SupervisorStatusRejected,
		ExpectedSupervisorID: actor.UserID,
		Fields: map[string]interface{}{
			"feedback":               feedback,
			"supervisor_reviewed_at": now,
		},
		At: now,
	})
}

// ApproveResubmission approves an application that came back after a rejection.
func (s *ApplicationService) ApproveResubmission(ctx context.Context, actor *models.JWTClaims, id string) (*models.Application, error) {
	app, err := s.loadForSupervisor(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if app.SupervisorStatus != models.SupervisorStatusPending || app.OverallStatus != models.ApplicationStatusSubmitted {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "application is not awaiting supervisor review")
	}
	if app.ResubmissionCount == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "application has not been resubmitted")
	}
	return s.approveBySupervisor(ctx, actor, app)
}

func (s *ApplicationService) approveBySupervisor(ctx context.Context, actor *models.JWTClaims, app *models.Application) (*models.Application, error) {
	now := s.now().UTC()
	return s.transition(ctx, actor, app, WorkflowEventSupervisorApproved, models.AuditActionApplicationReview, repository.ApplicationTransition{
		ID:                   app.ID,
		From:                 []models.ApplicationStatus{models.ApplicationStatusSubmitted},
		To:                   models.ApplicationStatusSupervisorApproved,
		SupervisorStatus:     models.SupervisorStatusApproved,
		ExpectedSupervisorID: actor.UserID,
		Fields: map[string]interface{}{
			"feedback":               nil,
			"supervisor_reviewed_at": now,
		},
		At: now,
	})
}

// Resubmit sends a rejected application back to the supervisor with corrections.
func (s *ApplicationService) Resubmit(ctx context.Context, actor *models.JWTClaims, id string, req dto.ResubmitApplicationRequest) (*models.Application, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resubmission payload")
	}
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.StudentID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the applicant can resubmit this application")
	}
	if app.SupervisorStatus != models.SupervisorStatusRejected || app.OverallStatus != models.ApplicationStatusSupervisorRejected {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "only applications rejected by the supervisor can be resubmitted")
	}

	now := s.now().UTC()
	fields := map[string]interface{}{
		"feedback":       nil,
		"resubmitted_at": now,
	}
	if req.CoverLetter != nil {
		fields["cover_letter"] = strings.TrimSpace(*req.CoverLetter)
	}
	if req.ResumeURL != nil {
		fields["resume_url"] = trimmedOrNil(req.ResumeURL)
	}
	return s.transition(ctx, actor, app, WorkflowEventResubmitted, models.AuditActionApplicationResubmit, repository.ApplicationTransition{
		ID:                    app.ID,
		From:                  []models.ApplicationStatus{models.ApplicationStatusSupervisorRejected},
		To:                    models.ApplicationStatusSubmitted,
		SupervisorStatus:      models.SupervisorStatusPending,
		IncrementResubmission: true,
		Fields:                fields,
		At:                    now,
	})
}

// AssignSupervisor sets the supervisor while the supervisor review is pending.
func (s *ApplicationService) AssignSupervisor(ctx context.Context, actor *models.JWTClaims, id string, req dto.AssignSupervisorRequest) (*models.Application, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can assign supervisors")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if err := s.ensureSupervisor(ctx, req.SupervisorID); err != nil {
		return nil, err
	}
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.SupervisorStatus != models.SupervisorStatusPending || app.OverallStatus != models.ApplicationStatusSubmitted {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "supervisor can only be assigned while the review is pending")
	}
	now := s.now().UTC()
	return s.transition(ctx, actor, app, WorkflowEventSupervisorAssigned, models.AuditActionApplicationAssign, repository.ApplicationTransition{
		ID:     app.ID,
		From:   []models.ApplicationStatus{models.ApplicationStatusSubmitted},
		To:     models.ApplicationStatusSubmitted,
		Fields: map[string]interface{}{"supervisor_id": req.SupervisorID},
		At:     now,
	})
}

// CompanyReview opens, accepts or rejects an application owned by the calling company.
func (s *ApplicationService) CompanyReview(ctx context.Context, actor *models.JWTClaims, id string, req dto.CompanyReviewRequest) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	app, err := s.loadForCompany(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	feedback := strings.TrimSpace(req.Feedback)

	switch req.Decision {
	case dto.DecisionOpen:
		if app.OverallStatus != models.ApplicationStatusSupervisorApproved {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "application is not waiting for company review")
		}
		return s.transition(ctx, actor, app, WorkflowEventCompanyReview, models.AuditActionApplicationCompany, repository.ApplicationTransition{
			ID:            app.ID,
			From:          []models.ApplicationStatus{models.ApplicationStatusSupervisorApproved},
			To:            models.ApplicationStatusCompanyReview,
			CompanyStatus: models.CompanyStatusPending,
			Fields:        map[string]interface{}{"company_reviewed_at": now},
			At:            now,
		})
	case dto.DecisionAccept, dto.DecisionReject:
		if !inCompanyReview(app) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "application is not under company review")
		}
		t := repository.ApplicationTransition{
			ID:   app.ID,
			From: []models.ApplicationStatus{models.ApplicationStatusCompanyReview, models.ApplicationStatusInterviewScheduled},
			Fields: map[string]interface{}{
				"company_reviewed_at": now,
				"company_feedback":    trimmedOrNil(&feedback),
			},
			At: now,
		}
		event := WorkflowEventHired
		if req.Decision == dto.DecisionAccept {
			t.To = models.ApplicationStatusApproved
			t.CompanyStatus = models.CompanyStatusHired
			t.Fields["hired_at"] = now
		} else {
			event = WorkflowEventRejected
			t.To = models.ApplicationStatusRejected
			t.CompanyStatus = models.CompanyStatusRejected
			t.Fields["rejected_at"] = now
		}
		return s.transition(ctx, actor, app, event, models.AuditActionApplicationCompany, t)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported decision")
	}
}

// ScheduleInterview records interview details and notifies the student and supervisor.
func (s *ApplicationService) ScheduleInterview(ctx context.Context, actor *models.JWTClaims, id string, req dto.ScheduleInterviewRequest) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid interview payload")
	}
	now := s.now().UTC()
	if !req.ScheduledAt.After(now) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "interview must be scheduled in the future")
	}
	app, err := s.loadForCompany(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !inCompanyReview(app) {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "interviews can only be scheduled during company review")
	}

	updated, err := s.transition(ctx, actor, app, WorkflowEventInterview, models.AuditActionApplicationInterview, repository.ApplicationTransition{
		ID:            app.ID,
		From:          []models.ApplicationStatus{models.ApplicationStatusCompanyReview, models.ApplicationStatusInterviewScheduled},
		To:            models.ApplicationStatusInterviewScheduled,
		CompanyStatus: models.CompanyStatusInterviewScheduled,
		Fields: map[string]interface{}{
			"interview_at":           req.ScheduledAt.UTC(),
			"interview_mode":         req.Mode,
			"interview_location":     strings.TrimSpace(req.Location),
			"interview_notes":        trimmedOrNil(&req.Notes),
			"interview_scheduled_at": now,
		},
		At: now,
	})
	if err != nil {
		return nil, err
	}
	s.notifyInterview(ctx, updated)
	return updated, nil
}

// Get returns an application visible to the actor.
func (s *ApplicationService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Application, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, app) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "application is outside your scope")
	}
	return app, nil
}

// List returns applications scoped to the actor's role.
func (s *ApplicationService) List(ctx context.Context, actor *models.JWTClaims, query dto.ApplicationQuery) ([]models.Application, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	for _, status := range query.Status {
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown status filter: "+string(status))
		}
	}
	filter := models.ApplicationFilter{Status: query.Status, JobID: query.JobID, Limit: query.Limit, Offset: query.Offset}
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleStudent:
		filter.StudentID = actor.UserID
	case models.RoleSupervisor:
		filter.SupervisorID = actor.UserID
	case models.RoleCompany:
		filter.CompanyID = actor.UserID
	default:
		return nil, appErrors.ErrForbidden
	}
	apps, err := s.apps.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list applications")
	}
	if apps == nil {
		apps = []models.Application{}
	}
	return apps, nil
}

func (s *ApplicationService) transition(ctx context.Context, actor *models.JWTClaims, before *models.Application, event, auditAction string, t repository.ApplicationTransition) (*models.Application, error) {
	if err := s.apps.Transition(ctx, t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordTransitionConflict(event)
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "application changed state concurrently, reload and retry")
		}
		return nil, appErrors.Internal(err, "failed to update application")
	}
	after, err := s.load(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTransition(event)
	s.emitAudit(ctx, actor, auditAction, after.ID, before, after)
	s.publish(event, after, actor)
	return after, nil
}

func (s *ApplicationService) load(ctx context.Context, id string) (*models.Application, error) {
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Internal(err, "failed to load application")
	}
	return app, nil
}

func (s *ApplicationService) loadForSupervisor(ctx context.Context, actor *models.JWTClaims, id string) (*models.Application, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !app.AssignedTo(actor.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assigned supervisor can review this application")
	}
	return app, nil
}

func (s *ApplicationService) loadForCompany(ctx context.Context, actor *models.JWTClaims, id string) (*models.Application, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.CompanyID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "application belongs to another company")
	}
	if app.SupervisorStatus != models.SupervisorStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "supervisor approval is required before company review")
	}
	if app.OverallStatus.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "application is closed")
	}
	return app, nil
}

func (s *ApplicationService) pickSupervisor(ctx context.Context, studentID string, requested *string) (*string, error) {
	if id := trimmedOrNil(requested); id != nil {
		if err := s.ensureSupervisor(ctx, *id); err != nil {
			return nil, err
		}
		return id, nil
	}
	if s.identities == nil {
		return nil, nil
	}
	identity, err := s.identities.Resolve(ctx, studentID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return identity.SupervisorID, nil
}

func (s *ApplicationService) ensureSupervisor(ctx context.Context, id string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "supervisor not found")
		}
		return appErrors.Internal(err, "failed to load supervisor")
	}
	if user.Role != models.RoleSupervisor || !user.Active {
		return appErrors.Clone(appErrors.ErrValidation, "user is not an active supervisor")
	}
	return nil
}

func (s *ApplicationService) notifyInterview(ctx context.Context, app *models.Application) {
	if s.notifier == nil {
		return
	}
	student, err := s.identities.Resolve(ctx, app.StudentID)
	if err != nil {
		s.logger.Warn("interview notification skipped, student unresolved", zap.String("application_id", app.ID), zap.Error(err))
		return
	}
	var supervisor *models.User
	if app.SupervisorID != nil {
		if supervisor, err = s.users.FindByID(ctx, *app.SupervisorID); err != nil {
			s.logger.Warn("interview notification without supervisor", zap.String("application_id", app.ID), zap.Error(err))
			supervisor = nil
		}
	}
	info := InternshipInfo{}
	if job, err := s.jobs.GetByID(ctx, app.JobID); err == nil {
		info.JobTitle = job.Title
	}
	if company, err := s.users.FindByID(ctx, app.CompanyID); err == nil {
		info.CompanyName = company.FullName
	}
	if err := s.notifier.SendInterviewScheduled(ctx, student, supervisor, app, info); err != nil {
		if errors.Is(err, ErrDeliveryDisabled) {
			return
		}
		s.logger.Warn("interview notification failed", zap.String("application_id", app.ID), zap.Error(err))
	}
}

func (s *ApplicationService) publish(event string, app *models.Application, actor *models.JWTClaims) {
	if s.events == nil {
		return
	}
	s.events.PublishApplicationEvent(event, app.ID, actor.UserID, map[string]interface{}{
		"studentId":        app.StudentID,
		"companyId":        app.CompanyID,
		"jobId":            app.JobID,
		"overallStatus":    app.OverallStatus,
		"supervisorStatus": app.SupervisorStatus,
		"companyStatus":    app.CompanyStatus,
	})
}

func (s *ApplicationService) emitAudit(ctx context.Context, actor *models.JWTClaims, action, applicationID string, before, after *models.Application) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "application",
		ResourceID: &applicationID,
		IPAddress:  "system",
		UserAgent:  "application-service",
	}
	if actor != nil {
		entry.UserID = &actor.UserID
	}
	if before != nil {
		entry.OldValues, _ = json.Marshal(statusSnapshot(before))
	}
	if after != nil {
		entry.NewValues, _ = json.Marshal(statusSnapshot(after))
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.String("application_id", applicationID), zap.Error(err))
	}
}

func statusSnapshot(app *models.Application) map[string]interface{} {
	return map[string]interface{}{
		"overallStatus":     app.OverallStatus,
		"supervisorStatus":  app.SupervisorStatus,
		"companyStatus":     app.CompanyStatus,
		"supervisorId":      app.SupervisorID,
		"resubmissionCount": app.ResubmissionCount,
	}
}

func inCompanyReview(app *models.Application) bool {
	return app.OverallStatus == models.ApplicationStatusCompanyReview || app.OverallStatus == models.ApplicationStatusInterviewScheduled
}

func canView(actor *models.JWTClaims, app *models.Application) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleStudent:
		return app.StudentID == actor.UserID
	case models.RoleSupervisor:
		return app.AssignedTo(actor.UserID)
	case models.RoleCompany:
		return app.CompanyID == actor.UserID
	}
	return false
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}

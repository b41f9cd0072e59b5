package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/internship-portal-api/internal/dto"
	"github.com/noah-isme/internship-portal-api/internal/models"
	"github.com/noah-isme/internship-portal-api/pkg/export"
	appErrors "github.com/noah-isme/internship-portal-api/pkg/errors"
)

const (
	releaseListLimit     = 200
	pendingResultMessage = "Your final result has not been released yet."
)

type releaseEvaluationStore interface {
	GetSupervisorEvaluation(ctx context.Context, studentID, supervisorID string) (*models.SupervisorEvaluation, error)
	ListSupervisorEvaluations(ctx context.Context, supervisorID string) ([]models.SupervisorEvaluation, error)
	MarkResultSent(ctx context.Context, id, sentBy string, sentAt time.Time) error
	GetCompanyEvaluationByApplication(ctx context.Context, applicationID string) (*models.CompanyEvaluation, error)
	ListCompanyEvaluations(ctx context.Context, applicationIDs []string) ([]models.CompanyEvaluation, error)
}

type releaseApplicationStore interface {
	GetByID(ctx context.Context, id string) (*models.Application, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error)
	FindHiredByStudent(ctx context.Context, studentID string) (*models.Application, error)
}

type finalResultNotifier interface {
	SendFinalEvaluationEmail(ctx context.Context, student *models.StudentIdentity, supervisor *models.User, result dto.FinalResult, info InternshipInfo) error
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// FinalEvaluationDeps groups collaborators of the release gate.
type FinalEvaluationDeps struct {
	Evaluations releaseEvaluationStore
	Apps        releaseApplicationStore
	Jobs        jobStore
	Users       userDirectory
	Identities  studentIdentities
	Notifier    finalResultNotifier
	Events      domainEventPublisher
	Audit       auditLogger
	Metrics     *MetricsService
	Logger      *zap.Logger
	Now         func() time.Time
}

// ExportFile is a rendered release list.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// FinalEvaluationService gates the one-time release of combined results.
// Marks are always recomputed from the stored evaluations.
type FinalEvaluationService struct {
	evaluations releaseEvaluationStore
	apps        releaseApplicationStore
	jobs        jobStore
	users       userDirectory
	identities  studentIdentities
	notifier    finalResultNotifier
	events      domainEventPublisher
	audit       auditLogger
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time
	renderers   map[string]datasetRenderer
}

// NewFinalEvaluationService constructs the release gate.
func NewFinalEvaluationService(deps FinalEvaluationDeps) *FinalEvaluationService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &FinalEvaluationService{
		evaluations: deps.Evaluations,
		apps:        deps.Apps,
		jobs:        deps.Jobs,
		users:       deps.Users,
		identities:  deps.Identities,
		notifier:    deps.Notifier,
		events:      deps.Events,
		audit:       deps.Audit,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		now:         deps.Now,
		renderers: map[string]datasetRenderer{
			"csv": export.NewCSVExporter(),
			"pdf": export.NewPDFExporter(),
		},
	}
}

// List buckets the supervisor's hired interns into ready, sent and awaiting.
func (s *FinalEvaluationService) List(ctx context.Context, actor *models.JWTClaims) (*dto.SupervisorFinalEvaluations, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	apps, err := s.apps.List(ctx, models.ApplicationFilter{
		SupervisorID: actor.UserID,
		Status:       []models.ApplicationStatus{models.ApplicationStatusApproved},
		Limit:        releaseListLimit,
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list hired interns")
	}

	supervisorEvals, err := s.evaluations.ListSupervisorEvaluations(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list supervisor evaluations")
	}
	byStudent := make(map[string]*models.SupervisorEvaluation, len(supervisorEvals))
	for i := range supervisorEvals {
		byStudent[supervisorEvals[i].StudentID] = &supervisorEvals[i]
	}

	ids := make([]string, 0, len(apps))
	for _, app := range apps {
		ids = append(ids, app.ID)
	}
	companyEvals, err := s.evaluations.ListCompanyEvaluations(ctx, ids)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list company evaluations")
	}
	byApplication := make(map[string]*models.CompanyEvaluation, len(companyEvals))
	for i := range companyEvals {
		byApplication[companyEvals[i].ApplicationID] = &companyEvals[i]
	}

	out := &dto.SupervisorFinalEvaluations{
		ReadyToSend:         []dto.FinalEvaluationItem{},
		AlreadySent:         []dto.FinalEvaluationItem{},
		AwaitingEvaluations: []dto.FinalEvaluationItem{},
	}
	jobTitles := make(map[string]string)
	for i := range apps {
		app := &apps[i]
		if !app.Hired() {
			continue
		}
		supEval := byStudent[app.StudentID]
		if supEval != nil && supEval.ApplicationID != app.ID {
			// one release per student and supervisor, owned by the evaluated application
			continue
		}
		compEval := byApplication[app.ID]
		item := dto.FinalEvaluationItem{
			ApplicationID:           app.ID,
			StudentID:               app.StudentID,
			CompanyID:               app.CompanyID,
			JobTitle:                s.jobTitle(ctx, app.JobID, jobTitles),
			HasSupervisorEvaluation: supEval != nil,
			HasCompanyEvaluation:    compEval != nil,
		}
		s.fillStudent(ctx, &item)

		switch {
		case supEval != nil && supEval.FinalResultSent:
			result := Aggregate(supEval, compEval)
			item.Result = &result
			item.Sent = true
			item.SentAt = supEval.FinalResultSentAt
			item.SentBy = supEval.FinalResultSentBy
			out.AlreadySent = append(out.AlreadySent, item)
		case supEval != nil && compEval != nil:
			result := Aggregate(supEval, compEval)
			item.Result = &result
			out.ReadyToSend = append(out.ReadyToSend, item)
		default:
			out.AwaitingEvaluations = append(out.AwaitingEvaluations, item)
		}
	}
	return out, nil
}

// Send releases the combined result of an application exactly once.
func (s *FinalEvaluationService) Send(ctx context.Context, actor *models.JWTClaims, applicationID string) (*dto.SentResult, error) {
	app, supEval, compEval, err := s.loadEvaluations(ctx, actor, applicationID)
	if err != nil {
		return nil, err
	}
	if supEval == nil || compEval == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "both evaluations must be completed before sending the final result")
	}
	if supEval.FinalResultSent {
		return nil, appErrors.Clone(appErrors.ErrConflict, "final result already sent")
	}

	result := Aggregate(supEval, compEval)
	sentAt := s.now().UTC()
	if err := s.evaluations.MarkResultSent(ctx, supEval.ID, actor.UserID, sentAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordTransitionConflict("final_result_release")
			return nil, appErrors.Clone(appErrors.ErrConflict, "final result already sent")
		}
		return nil, appErrors.Internal(err, "failed to record final result release")
	}

	delivered := s.notifyStudent(ctx, app, actor, result)

	s.metrics.RecordRelease()
	s.recordRelease(ctx, actor, app, result, sentAt)
	if s.events != nil {
		s.events.Publish(EventFinalResultReleased, app.ID, actor.UserID, map[string]interface{}{
			"studentId":  app.StudentID,
			"totalMarks": result.TotalMarks,
			"grade":      result.Grade,
			"sentAt":     sentAt,
		})
	}

	return &dto.SentResult{
		ApplicationID:  app.ID,
		StudentID:      app.StudentID,
		Result:         result,
		SentAt:         sentAt,
		SentBy:         actor.UserID,
		EmailDelivered: &delivered,
	}, nil
}

// ViewSent recomputes an already released result without side effects.
func (s *FinalEvaluationService) ViewSent(ctx context.Context, actor *models.JWTClaims, applicationID string) (*dto.SentResult, error) {
	app, supEval, compEval, err := s.loadEvaluations(ctx, actor, applicationID)
	if err != nil {
		return nil, err
	}
	if supEval == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "supervisor evaluation not found")
	}
	if !supEval.FinalResultSent {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "final result has not been sent yet")
	}
	out := &dto.SentResult{
		ApplicationID: app.ID,
		StudentID:     app.StudentID,
		Result:        Aggregate(supEval, compEval),
	}
	if supEval.FinalResultSentAt != nil {
		out.SentAt = *supEval.FinalResultSentAt
	}
	if supEval.FinalResultSentBy != nil {
		out.SentBy = *supEval.FinalResultSentBy
	}
	return out, nil
}

// StudentView returns the student's result once released. Every other
// situation yields the same pending status, never an error.
func (s *FinalEvaluationService) StudentView(ctx context.Context, actor *models.JWTClaims) (*dto.StudentResultView, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	pending := &dto.StudentResultView{Status: dto.ResultStatusPending, Message: pendingResultMessage}

	app, err := s.apps.FindHiredByStudent(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pending, nil
		}
		return nil, appErrors.Internal(err, "failed to load internship")
	}
	if app.SupervisorID == nil {
		return pending, nil
	}
	supEval, err := s.evaluations.GetSupervisorEvaluation(ctx, app.StudentID, *app.SupervisorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pending, nil
		}
		return nil, appErrors.Internal(err, "failed to load result")
	}
	if !supEval.FinalResultSent {
		return pending, nil
	}
	compEval, err := s.companyEvaluation(ctx, supEval.ApplicationID)
	if err != nil {
		return nil, err
	}
	result := Aggregate(supEval, compEval)
	return &dto.StudentResultView{
		Status:     dto.ResultStatusReleased,
		Message:    "Your final result has been released.",
		Result:     &result,
		ReleasedAt: supEval.FinalResultSentAt,
	}, nil
}

// Export renders the supervisor's release list as csv or pdf.
func (s *FinalEvaluationService) Export(ctx context.Context, actor *models.JWTClaims, format string) (*ExportFile, error) {
	if format == "" {
		format = "csv"
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	list, err := s.List(ctx, actor)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{
		Title:    "Final Evaluations",
		Subtitle: fmt.Sprintf("Generated %s", s.now().UTC().Format("2006-01-02 15:04 MST")),
		Headers:  []string{"Student", "Email", "Roll Number", "Position", "Supervisor", "Company", "Total", "Grade", "Status"},
	}
	appendRows := func(items []dto.FinalEvaluationItem, status string) {
		for _, item := range items {
			row := map[string]string{
				"Student":     item.StudentName,
				"Email":       item.StudentEmail,
				"Roll Number": item.RollNumber,
				"Position":    item.JobTitle,
				"Status":      status,
			}
			if item.Result != nil {
				row["Supervisor"] = strconv.Itoa(item.Result.SupervisorMarks)
				row["Company"] = strconv.Itoa(item.Result.CompanyMarks)
				row["Total"] = strconv.Itoa(item.Result.TotalMarks)
				row["Grade"] = item.Result.Grade
			}
			data.Rows = append(data.Rows, row)
		}
	}
	appendRows(list.ReadyToSend, "ready")
	appendRows(list.AlreadySent, "sent")
	appendRows(list.AwaitingEvaluations, "awaiting")

	content, err := renderer.Render(data)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}
	contentType := "text/csv"
	if format == "pdf" {
		contentType = "application/pdf"
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("final-evaluations-%s.%s", s.now().UTC().Format("20060102"), format),
		ContentType: contentType,
		Content:     content,
	}, nil
}

func (s *FinalEvaluationService) loadEvaluations(ctx context.Context, actor *models.JWTClaims, applicationID string) (*models.Application, *models.SupervisorEvaluation, *models.CompanyEvaluation, error) {
	if actor == nil {
		return nil, nil, nil, appErrors.ErrUnauthorized
	}
	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, nil, nil, appErrors.Internal(err, "failed to load application")
	}
	if !app.AssignedTo(actor.UserID) {
		return nil, nil, nil, appErrors.Clone(appErrors.ErrForbidden, "only the assigned supervisor can release this result")
	}
	if !app.Hired() {
		return nil, nil, nil, appErrors.Clone(appErrors.ErrInvalidState, "final results exist only for hired applications")
	}

	supEval, err := s.evaluations.GetSupervisorEvaluation(ctx, app.StudentID, actor.UserID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil, appErrors.Internal(err, "failed to load supervisor evaluation")
		}
		return app, nil, nil, nil
	}
	if supEval.ApplicationID != app.ID {
		return nil, nil, nil, appErrors.Clone(appErrors.ErrNotFound, "supervisor evaluation not found for this application")
	}
	compEval, err := s.companyEvaluation(ctx, supEval.ApplicationID)
	if err != nil {
		return nil, nil, nil, err
	}
	return app, supEval, compEval, nil
}

func (s *FinalEvaluationService) companyEvaluation(ctx context.Context, applicationID string) (*models.CompanyEvaluation, error) {
	eval, err := s.evaluations.GetCompanyEvaluationByApplication(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Internal(err, "failed to load company evaluation")
	}
	return eval, nil
}

// notifyStudent makes a single delivery attempt and reports the outcome.
func (s *FinalEvaluationService) notifyStudent(ctx context.Context, app *models.Application, actor *models.JWTClaims, result dto.FinalResult) bool {
	if s.notifier == nil {
		return false
	}
	student, err := s.identities.Resolve(ctx, app.StudentID)
	if err != nil {
		s.logger.Warn("final result email skipped, student unresolved", zap.String("application_id", app.ID), zap.Error(err))
		return false
	}
	supervisor, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		s.logger.Warn("final result email without supervisor details", zap.String("application_id", app.ID), zap.Error(err))
		supervisor = &models.User{ID: actor.UserID, Email: actor.Email, FullName: actor.FullName}
	}
	info := InternshipInfo{}
	if job, err := s.jobs.GetByID(ctx, app.JobID); err == nil {
		info.JobTitle = job.Title
		info.StartDate = job.StartDate
		info.EndDate = job.EndDate
	}
	if company, err := s.users.FindByID(ctx, app.CompanyID); err == nil {
		info.CompanyName = company.FullName
	}
	if err := s.notifier.SendFinalEvaluationEmail(ctx, student, supervisor, result, info); err != nil {
		if errors.Is(err, ErrDeliveryDisabled) {
			s.logger.Info("final result email not sent, delivery disabled", zap.String("application_id", app.ID))
			return false
		}
		s.logger.Warn("final result email failed, release kept", zap.String("application_id", app.ID), zap.Error(err))
		return false
	}
	return true
}

func (s *FinalEvaluationService) fillStudent(ctx context.Context, item *dto.FinalEvaluationItem) {
	if s.identities == nil {
		return
	}
	identity, err := s.identities.Resolve(ctx, item.StudentID)
	if err != nil {
		s.logger.Debug("student identity unresolved", zap.String("student_id", item.StudentID), zap.Error(err))
		return
	}
	item.StudentName = identity.FullName
	item.StudentEmail = identity.Email
	item.RollNumber = identity.RollNumber
	item.Department = identity.Department
}

func (s *FinalEvaluationService) jobTitle(ctx context.Context, jobID string, cache map[string]string) string {
	if title, ok := cache[jobID]; ok {
		return title
	}
	title := ""
	if s.jobs != nil {
		if job, err := s.jobs.GetByID(ctx, jobID); err == nil {
			title = job.Title
		}
	}
	cache[jobID] = title
	return title
}

func (s *FinalEvaluationService) recordRelease(ctx context.Context, actor *models.JWTClaims, app *models.Application, result dto.FinalResult, sentAt time.Time) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"result": result,
		"sentAt": sentAt,
	})
	entry := &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionFinalResultRelease,
		Resource:   "application",
		ResourceID: &app.ID,
		NewValues:  payload,
		IPAddress:  "system",
		UserAgent:  "final-evaluation-service",
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.String("application_id", app.ID), zap.Error(err))
	}
}

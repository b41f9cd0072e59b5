package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/internship-portal-api/internal/dto"
	"github.com/noah-isme/internship-portal-api/internal/models"
	appErrors "github.com/noah-isme/internship-portal-api/pkg/errors"
)

type resultNotifierStub struct {
	calls  int
	err    error
	result dto.FinalResult
	info   InternshipInfo
}

func (s *resultNotifierStub) SendFinalEvaluationEmail(ctx context.Context, student *models.StudentIdentity, supervisor *models.User, result dto.FinalResult, info InternshipInfo) error {
	s.calls++
	s.result = result
	s.info = info
	return s.err
}

type releaseFixture struct {
	svc         *FinalEvaluationService
	evaluations *evaluationStoreStub
	notifier    *resultNotifierStub
	events      *eventRecorder
	audit       *auditStub
	now         time.Time
}

func newReleaseFixture(logger *zap.Logger, apps ...*models.Application) *releaseFixture {
	now := time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)
	fx := &releaseFixture{
		evaluations: newEvaluationStoreStub(),
		notifier:    &resultNotifierStub{},
		events:      &eventRecorder{},
		audit:       &auditStub{},
		now:         now,
	}
	fx.svc = NewFinalEvaluationService(FinalEvaluationDeps{
		Evaluations: fx.evaluations,
		Apps:        newApplicationStoreStub(apps...),
		Jobs: &jobStoreStub{jobs: map[string]*models.JobPosting{
			"job-1": {ID: "job-1", CompanyID: "com-1", Title: "Backend Intern", Active: true},
		}},
		Users: newAccountStoreStub(
			&models.User{ID: "sup-1", Role: models.RoleSupervisor, FullName: "Dr. Amal", Email: "amal@uni.edu", Active: true},
			&models.User{ID: "com-1", Role: models.RoleCompany, FullName: "Acme Corp", Active: true},
		),
		Identities: &identitiesStub{identities: map[string]*models.StudentIdentity{
			"stu-1": {ID: "stu-1", Email: "sara@uni.edu", FullName: "Sara Ali", RollNumber: "CS-042"},
		}},
		Notifier: fx.notifier,
		Events:   fx.events,
		Audit:    fx.audit,
		Metrics:  NewMetricsService(),
		Logger:   logger,
		Now:      func() time.Time { return now },
	})
	return fx
}

func (fx *releaseFixture) seedSupervisorEvaluation(total int) {
	fx.evaluations.supervisor[supervisorKey("stu-1", "sup-1")] = &models.SupervisorEvaluation{
		ID: "sup-eval-1", StudentID: "stu-1", SupervisorID: "sup-1", ApplicationID: "app-1", TotalMarks: total,
	}
}

func (fx *releaseFixture) seedCompanyEvaluation(total float64, maxMarks *float64) {
	fx.evaluations.company["app-1"] = &models.CompanyEvaluation{
		ID: "com-eval-1", ApplicationID: "app-1", StudentID: "stu-1", CompanyID: "com-1", TotalMarks: total, MaxMarks: maxMarks,
	}
}

func TestReleaseScenarioGatesStudentView(t *testing.T) {
	fx := newReleaseFixture(nil, hiredApplication())
	fx.seedSupervisorEvaluation(54)
	fx.seedCompanyEvaluation(30, floatPtr(40))
	ctx := context.Background()

	before, err := fx.svc.StudentView(ctx, studentClaims)
	require.NoError(t, err)
	assert.Equal(t, dto.ResultStatusPending, before.Status)
	assert.Nil(t, before.Result)

	list, err := fx.svc.List(ctx, supervisorClaims)
	require.NoError(t, err)
	require.Len(t, list.ReadyToSend, 1)
	assert.Empty(t, list.AlreadySent)
	ready := list.ReadyToSend[0]
	assert.Equal(t, "Sara Ali", ready.StudentName)
	assert.Equal(t, "Backend Intern", ready.JobTitle)
	require.NotNil(t, ready.Result)

	sent, err := fx.svc.Send(ctx, supervisorClaims, "app-1")
	require.NoError(t, err)
	expected := dto.FinalResult{SupervisorMarks: 54, CompanyMarks: 30, TotalMarks: 84, Grade: "A-"}
	assert.Equal(t, expected, sent.Result)
	assert.Equal(t, *ready.Result, sent.Result)
	assert.Equal(t, fx.now, sent.SentAt)
	require.NotNil(t, sent.EmailDelivered)
	assert.True(t, *sent.EmailDelivered)
	assert.Equal(t, expected, fx.notifier.result)
	assert.Equal(t, "Acme Corp", fx.notifier.info.CompanyName)
	assert.Equal(t, []string{EventFinalResultReleased}, fx.events.types)
	require.Len(t, fx.audit.logs, 1)
	assert.Equal(t, models.AuditActionFinalResultRelease, fx.audit.logs[0].Action)

	after, err := fx.svc.StudentView(ctx, studentClaims)
	require.NoError(t, err)
	assert.Equal(t, dto.ResultStatusReleased, after.Status)
	require.NotNil(t, after.Result)
	assert.Equal(t, 84, after.Result.TotalMarks)
	assert.Equal(t, "A-", after.Result.Grade)

	viewed, err := fx.svc.ViewSent(ctx, supervisorClaims, "app-1")
	require.NoError(t, err)
	assert.Equal(t, expected, viewed.Result)
	assert.Equal(t, "sup-1", viewed.SentBy)
}

func TestSendIsExactlyOnce(t *testing.T) {
	fx := newReleaseFixture(nil, hiredApplication())
	fx.seedSupervisorEvaluation(54)
	fx.seedCompanyEvaluation(30, nil)
	ctx := context.Background()

	_, err := fx.svc.Send(ctx, supervisorClaims, "app-1")
	require.NoError(t, err)
	first := fx.evaluations.supervisor[supervisorKey("stu-1", "sup-1")]
	sentAt := *first.FinalResultSentAt

	_, err = fx.svc.Send(ctx, supervisorClaims, "app-1")
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Equal(t, 1, fx.evaluations.marks)
	assert.Equal(t, 1, fx.notifier.calls)
	assert.Equal(t, sentAt, *fx.evaluations.supervisor[supervisorKey("stu-1", "sup-1")].FinalResultSentAt)
}

func TestSendRequiresBothEvaluations(t *testing.T) {
	fx := newReleaseFixture(nil, hiredApplication())
	fx.seedSupervisorEvaluation(54)

	_, err := fx.svc.Send(context.Background(), supervisorClaims, "app-1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Zero(t, fx.evaluations.marks)

	list, err := fx.svc.List(context.Background(), supervisorClaims)
	require.NoError(t, err)
	require.Len(t, list.AwaitingEvaluations, 1)
	assert.True(t, list.AwaitingEvaluations[0].HasSupervisorEvaluation)
	assert.False(t, list.AwaitingEvaluations[0].HasCompanyEvaluation)
	assert.Nil(t, list.AwaitingEvaluations[0].Result)
}

func TestSendRequiresAssignedSupervisor(t *testing.T) {
	fx := newReleaseFixture(nil, hiredApplication())
	fx.seedSupervisorEvaluation(54)
	fx.seedCompanyEvaluation(30, nil)

	_, err := fx.svc.Send(context.Background(), &models.JWTClaims{UserID: "sup-2", Role: models.RoleSupervisor}, "app-1")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = fx.svc.Send(context.Background(), supervisorClaims, "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestSendKeepsReleaseWhenEmailFails(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	fx := newReleaseFixture(zap.New(core), hiredApplication())
	fx.seedSupervisorEvaluation(40)
	fx.seedCompanyEvaluation(20, floatPtr(40))
	fx.notifier.err = errors.New("smtp timeout")

	sent, err := fx.svc.Send(context.Background(), supervisorClaims, "app-1")
	require.NoError(t, err)
	assert.False(t, *sent.EmailDelivered)
	assert.True(t, fx.evaluations.supervisor[supervisorKey("stu-1", "sup-1")].FinalResultSent)
	assert.Equal(t, 1, logs.FilterMessage("final result email failed, release kept").Len())
}

func TestViewSentRequiresRelease(t *testing.T) {
	fx := newReleaseFixture(nil, hiredApplication())
	fx.seedSupervisorEvaluation(54)
	fx.seedCompanyEvaluation(30, nil)

	_, err := fx.svc.ViewSent(context.Background(), supervisorClaims, "app-1")
	assert.ErrorIs(t, err, appErrors.ErrInvalidState)
	assert.Zero(t, fx.notifier.calls)
}

func TestStudentViewPendingWithoutInternship(t *testing.T) {
	fx := newReleaseFixture(nil, approvedApplication())

	view, err := fx.svc.StudentView(context.Background(), studentClaims)
	require.NoError(t, err)
	assert.Equal(t, dto.ResultStatusPending, view.Status)
	assert.Equal(t, pendingResultMessage, view.Message)
	assert.Nil(t, view.Result)
}

func TestExportRendersReleaseList(t *testing.T) {
	fx := newReleaseFixture(nil, hiredApplication())
	fx.seedSupervisorEvaluation(54)
	fx.seedCompanyEvaluation(30, floatPtr(40))
	ctx := context.Background()

	file, err := fx.svc.Export(ctx, supervisorClaims, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "final-evaluations-20260630.csv", file.Filename)
	lines := strings.Split(strings.TrimSpace(string(file.Content)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Sara Ali,sara@uni.edu,CS-042,Backend Intern,54,30,84,A-,ready", lines[1])

	pdf, err := fx.svc.Export(ctx, supervisorClaims, "pdf")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf.Content, []byte("%PDF-")))

	_, err = fx.svc.Export(ctx, supervisorClaims, "xlsx")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestReleaseFollowsEvaluatedApplication(t *testing.T) {
	first := hiredApplication()
	hiredFirst := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	first.HiredAt = &hiredFirst
	second := hiredApplication()
	second.ID = "app-2"
	hiredSecond := hiredFirst.AddDate(0, 3, 0)
	second.HiredAt = &hiredSecond

	fx := newReleaseFixture(nil, first, second)
	fx.seedSupervisorEvaluation(54)
	fx.seedCompanyEvaluation(30, floatPtr(40))
	ctx := context.Background()
	expected := dto.FinalResult{SupervisorMarks: 54, CompanyMarks: 30, TotalMarks: 84, Grade: "A-"}

	_, err := fx.svc.Send(ctx, supervisorClaims, "app-2")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	sent, err := fx.svc.Send(ctx, supervisorClaims, "app-1")
	require.NoError(t, err)
	assert.Equal(t, expected, sent.Result)

	_, err = fx.svc.ViewSent(ctx, supervisorClaims, "app-2")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	viewed, err := fx.svc.ViewSent(ctx, supervisorClaims, "app-1")
	require.NoError(t, err)
	assert.Equal(t, expected, viewed.Result)

	view, err := fx.svc.StudentView(ctx, studentClaims)
	require.NoError(t, err)
	assert.Equal(t, dto.ResultStatusReleased, view.Status)
	require.NotNil(t, view.Result)
	assert.Equal(t, expected, *view.Result)

	list, err := fx.svc.List(ctx, supervisorClaims)
	require.NoError(t, err)
	require.Len(t, list.AlreadySent, 1)
	assert.Equal(t, "app-1", list.AlreadySent[0].ApplicationID)
	assert.Equal(t, expected, *list.AlreadySent[0].Result)
	assert.Empty(t, list.ReadyToSend)
	assert.Empty(t, list.AwaitingEvaluations)
}

func TestSendRequiresHiredApplication(t *testing.T) {
	fx := newReleaseFixture(nil, approvedApplication())
	fx.seedSupervisorEvaluation(54)
	fx.seedCompanyEvaluation(30, nil)

	_, err := fx.svc.Send(context.Background(), supervisorClaims, "app-1")
	assert.ErrorIs(t, err, appErrors.ErrInvalidState)
	assert.Zero(t, fx.evaluations.marks)
}

func TestSendLosingConcurrentReleaseHasNoSideEffects(t *testing.T) {
	fx := newReleaseFixture(nil, hiredApplication())
	fx.seedSupervisorEvaluation(54)
	fx.seedCompanyEvaluation(30, nil)
	fx.evaluations.markErr = sql.ErrNoRows

	_, err := fx.svc.Send(context.Background(), supervisorClaims, "app-1")
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Zero(t, fx.notifier.calls)
	assert.Empty(t, fx.events.types)
	assert.Empty(t, fx.audit.logs)
}

func TestSendReportsUndeliveredWhenMailDisabled(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	fx := newReleaseFixture(zap.New(core), hiredApplication())
	fx.seedSupervisorEvaluation(54)
	fx.seedCompanyEvaluation(30, nil)
	fx.notifier.err = ErrDeliveryDisabled

	sent, err := fx.svc.Send(context.Background(), supervisorClaims, "app-1")
	require.NoError(t, err)
	require.NotNil(t, sent.EmailDelivered)
	assert.False(t, *sent.EmailDelivered)
	assert.Equal(t, 1, logs.FilterMessage("final result email not sent, delivery disabled").Len())
	assert.Zero(t, logs.FilterMessage("final result email failed, release kept").Len())
}

func TestStudentViewPendingForEveryUnreleasedState(t *testing.T) {
	cases := []struct {
		name string
		seed func(fx *releaseFixture)
	}{
		{name: "hired without evaluations", seed: func(fx *releaseFixture) {}},
		{name: "only company evaluation", seed: func(fx *releaseFixture) {
			fx.seedCompanyEvaluation(30, nil)
		}},
		{name: "supervisor evaluation without company evaluation", seed: func(fx *releaseFixture) {
			fx.seedSupervisorEvaluation(54)
		}},
		{name: "both evaluations unsent", seed: func(fx *releaseFixture) {
			fx.seedSupervisorEvaluation(54)
			fx.seedCompanyEvaluation(30, nil)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newReleaseFixture(nil, hiredApplication())
			tc.seed(fx)

			view, err := fx.svc.StudentView(context.Background(), studentClaims)
			require.NoError(t, err)
			assert.Equal(t, dto.ResultStatusPending, view.Status)
			assert.Equal(t, pendingResultMessage, view.Message)
			assert.Nil(t, view.Result)
			assert.Nil(t, view.ReleasedAt)
		})
	}
}

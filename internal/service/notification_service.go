package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/internship-portal-api/internal/dto"
	"github.com/noah-isme/internship-portal-api/internal/models"
	"github.com/noah-isme/internship-portal-api/pkg/mail"
)

// ErrDeliveryDisabled reports that no mail sender is configured and the
// message was only logged.
var ErrDeliveryDisabled = errors.New("mail delivery disabled")

type mailSender interface {
	Send(ctx context.Context, msg mail.Message) error
}

// InternshipInfo describes the internship a result refers to. Dates are
// reported only when recorded on the posting.
type InternshipInfo struct {
	CompanyName string
	JobTitle    string
	StartDate   *time.Time
	EndDate     *time.Time
}

// NotificationService renders and sends workflow emails. Without a sender it
// only logs what would have been sent.
type NotificationService struct {
	sender    mailSender
	portalURL string
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewNotificationService constructs the service. sender may be nil.
func NewNotificationService(sender mailSender, portalURL string, logger *zap.Logger, metrics *MetricsService) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{sender: sender, portalURL: strings.TrimRight(portalURL, "/"), logger: logger, metrics: metrics}
}

// SendFinalEvaluationEmail tells the student their final result is available.
func (s *NotificationService) SendFinalEvaluationEmail(ctx context.Context, student *models.StudentIdentity, supervisor *models.User, result dto.FinalResult, info InternshipInfo) error {
	if student == nil || student.Email == "" {
		return fmt.Errorf("final evaluation email: student email is missing")
	}
	var body strings.Builder
	fmt.Fprintf(&body, "Dear %s,\n\n", student.FullName)
	fmt.Fprintf(&body, "Your internship final evaluation has been released")
	if supervisor != nil {
		fmt.Fprintf(&body, " by %s", supervisor.FullName)
	}
	body.WriteString(".\n\n")
	writeInternship(&body, info)
	fmt.Fprintf(&body, "Supervisor marks: %d / 60\n", result.SupervisorMarks)
	fmt.Fprintf(&body, "Company marks:    %d / 40\n", result.CompanyMarks)
	fmt.Fprintf(&body, "Total marks:      %d / 100\n", result.TotalMarks)
	fmt.Fprintf(&body, "Grade:            %s\n\n", result.Grade)
	if s.portalURL != "" {
		fmt.Fprintf(&body, "View your result: %s/student/result\n", s.portalURL)
	}

	return s.deliver(ctx, "final_result", mail.Message{
		To:      []string{student.Email},
		Subject: "Your internship final evaluation is available",
		Body:    body.String(),
	})
}

// SendInterviewScheduled informs the student and, when known, the supervisor.
func (s *NotificationService) SendInterviewScheduled(ctx context.Context, student *models.StudentIdentity, supervisor *models.User, app *models.Application, info InternshipInfo) error {
	if student == nil || app == nil || app.InterviewAt == nil {
		return fmt.Errorf("interview email: incomplete interview details")
	}
	recipients := []string{student.Email}
	if supervisor != nil && supervisor.Email != "" {
		recipients = append(recipients, supervisor.Email)
	}

	var body strings.Builder
	fmt.Fprintf(&body, "An interview has been scheduled for %s.\n\n", student.FullName)
	writeInternship(&body, info)
	fmt.Fprintf(&body, "When:     %s\n", app.InterviewAt.UTC().Format(time.RFC1123))
	if app.InterviewMode != nil {
		fmt.Fprintf(&body, "Mode:     %s\n", *app.InterviewMode)
	}
	if app.InterviewLocation != nil {
		fmt.Fprintf(&body, "Location: %s\n", *app.InterviewLocation)
	}
	if app.InterviewNotes != nil && *app.InterviewNotes != "" {
		fmt.Fprintf(&body, "\n%s\n", *app.InterviewNotes)
	}

	return s.deliver(ctx, "interview", mail.Message{
		To:      recipients,
		Subject: "Internship interview scheduled",
		Body:    body.String(),
	})
}

func (s *NotificationService) deliver(ctx context.Context, kind string, msg mail.Message) error {
	if s.sender == nil {
		s.logger.Info("email delivery disabled, message logged only",
			zap.String("kind", kind),
			zap.Strings("to", msg.To),
			zap.String("subject", msg.Subject),
		)
		return ErrDeliveryDisabled
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.metrics.RecordNotificationFailure(kind)
		s.logger.Warn("email delivery failed", zap.String("kind", kind), zap.Strings("to", msg.To), zap.Error(err))
		return err
	}
	return nil
}

func writeInternship(body *strings.Builder, info InternshipInfo) {
	if info.CompanyName != "" {
		fmt.Fprintf(body, "Company:  %s\n", info.CompanyName)
	}
	if info.JobTitle != "" {
		fmt.Fprintf(body, "Position: %s\n", info.JobTitle)
	}
	if info.StartDate != nil && info.EndDate != nil {
		fmt.Fprintf(body, "Period:   %s to %s\n", info.StartDate.Format("2006-01-02"), info.EndDate.Format("2006-01-02"))
	}
	body.WriteString("\n")
}

package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/bimworks/portal-backend/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxRetries = 3

// LeaveNotice carries what the leave templates render.
type LeaveNotice struct {
	RecipientName string
	EmployeeName  string
	LeaveType     string
	StartDate     string
	EndDate       string
	Reason        string
	ReviewLink    string
}

type EmailService interface {
	// SendLeaveSubmitted asks the supervisor to review a new request.
	SendLeaveSubmitted(ctx context.Context, to string, notice LeaveNotice) error
	// SendLeaveFinalized tells the employee both approvals are in.
	SendLeaveFinalized(ctx context.Context, to string, notice LeaveNotice) error
	// SendLeaveRejected tells the employee the request was rejected; Reason
	// holds the reviewer's note.
	SendLeaveRejected(ctx context.Context, to string, notice LeaveNotice) error
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type emailServiceImpl struct {
	cfg       config.SMTPConfig
	templates *template.Template
	send      sendFunc
	backoff   time.Duration
}

func NewEmailService(cfg config.SMTPConfig) (EmailService, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &emailServiceImpl{
		cfg:       cfg,
		templates: tmpl,
		send:      smtp.SendMail,
		backoff:   time.Second,
	}, nil
}

func (s *emailServiceImpl) SendLeaveSubmitted(ctx context.Context, to string, notice LeaveNotice) error {
	return s.render(ctx, to, "Leave request from "+notice.EmployeeName, "leave_submitted.html", notice)
}

func (s *emailServiceImpl) SendLeaveFinalized(ctx context.Context, to string, notice LeaveNotice) error {
	return s.render(ctx, to, "Your leave request was approved", "leave_finalized.html", notice)
}

func (s *emailServiceImpl) SendLeaveRejected(ctx context.Context, to string, notice LeaveNotice) error {
	return s.render(ctx, to, "Your leave request was rejected", "leave_rejected.html", notice)
}

func (s *emailServiceImpl) render(ctx context.Context, to, subject, name string, data any) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, name, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return s.sendHTML(ctx, to, subject, body.String())
}

func (s *emailServiceImpl) sendHTML(ctx context.Context, to, subject, htmlBody string) error {
	if !s.cfg.Enabled() {
		slog.Warn("SMTP not configured, skipping email send", "to", to, "subject", subject)
		return nil
	}

	from := s.cfg.From

	headers := fmt.Sprintf("From: %s <%s>\r\n", s.cfg.FromName, from)
	headers += fmt.Sprintf("To: %s\r\n", to)
	headers += fmt.Sprintf("Subject: %s\r\n", subject)
	headers += "MIME-Version: 1.0\r\n"
	headers += "Content-Type: text/html; charset=\"UTF-8\"\r\n"
	headers += "\r\n"

	message := []byte(headers + htmlBody)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := s.send(addr, auth, from, []string{to}, message)
		if err == nil {
			slog.Info("Email sent", "to", to, "subject", subject, "attempt", attempt)
			return nil
		}

		lastErr = err
		slog.Error("Failed to send email", "to", to, "subject", subject, "attempt", attempt, "error", err)

		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.backoff << (attempt - 1)):
			}
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}

// LogOnlyEmailService stands in when SMTP is not configured; notices are
// written to the log instead of being mailed.
type LogOnlyEmailService struct{}

func (LogOnlyEmailService) SendLeaveSubmitted(_ context.Context, to string, notice LeaveNotice) error {
	slog.Info("smtp disabled, leave submitted notice not mailed", "to", to, "employee", notice.EmployeeName)
	return nil
}

func (LogOnlyEmailService) SendLeaveFinalized(_ context.Context, to string, notice LeaveNotice) error {
	slog.Info("smtp disabled, leave finalized notice not mailed", "to", to, "employee", notice.EmployeeName)
	return nil
}

func (LogOnlyEmailService) SendLeaveRejected(_ context.Context, to string, notice LeaveNotice) error {
	slog.Info("smtp disabled, leave rejected notice not mailed", "to", to, "employee", notice.EmployeeName)
	return nil
}

var _ EmailService = LogOnlyEmailService{}

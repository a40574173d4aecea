package emailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"meetnotes/internal/config"
	"meetnotes/internal/logging"
	"meetnotes/internal/services"
)

// SubjectPrefix starts every notes email subject.
const SubjectPrefix = "Meeting Notes — "

// Sender delivers finished meeting notes.
type Sender interface {
	Send(ctx context.Context, label, summary, transcriptPath string) error
}

// DeliverFunc hands a composed message to the transport. It is swapped in tests.
type DeliverFunc func(ctx context.Context, msg *mail.Msg) error

// SMTP sends notes through an authenticated SMTP relay (Gmail by default).
type SMTP struct {
	cfg     config.Email
	logger  *slog.Logger
	deliver DeliverFunc
}

// New builds an SMTP sender from the email config section.
func New(cfg config.Email, logger *slog.Logger) *SMTP {
	s := &SMTP{cfg: cfg, logger: logging.NewComponentLogger(logger, "emailer")}
	s.deliver = s.dial
	return s
}

// WithDeliver replaces the SMTP transport.
func (s *SMTP) WithDeliver(fn DeliverFunc) *SMTP {
	if fn != nil {
		s.deliver = fn
	}
	return s
}

// Send emails summary as the plain-text body with the transcript attached.
func (s *SMTP) Send(ctx context.Context, label, summary, transcriptPath string) error {
	if missing := s.missingSettings(); len(missing) > 0 {
		return services.Wrap(services.ErrConfiguration, "email", "credentials",
			"missing "+strings.Join(missing, ", "), nil)
	}
	msg, err := s.compose(label, summary, transcriptPath)
	if err != nil {
		return err
	}
	if err := s.deliver(ctx, msg); err != nil {
		return classify(err)
	}
	logging.WithContext(ctx, s.logger).Info("meeting notes emailed",
		logging.String("subject", SubjectPrefix+label),
		logging.Int("recipients", len(s.cfg.To)),
		logging.String(logging.FieldEventType, "email_sent"),
	)
	return nil
}

func (s *SMTP) missingSettings() []string {
	var missing []string
	if s.cfg.From == "" {
		missing = append(missing, "email.from")
	}
	if len(s.cfg.To) == 0 {
		missing = append(missing, "email.to")
	}
	if s.cfg.TLS != "none" && (s.cfg.Username == "" || s.cfg.Password == "") {
		missing = append(missing, "email.username/password")
	}
	return missing
}

func (s *SMTP) compose(label, summary, transcriptPath string) (*mail.Msg, error) {
	info, err := os.Stat(transcriptPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "email", "attach transcript", transcriptPath, err)
		}
		return nil, services.Wrap(services.ErrValidation, "email", "attach transcript", transcriptPath, err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "email", "attach transcript", transcriptPath+" is a directory", nil)
	}

	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "email", "from address", s.cfg.From, err)
	}
	if err := msg.To(s.cfg.To...); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "email", "to address", strings.Join(s.cfg.To, ", "), err)
	}
	msg.Subject(SubjectPrefix + label)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, summary)
	msg.AttachFile(transcriptPath, mail.WithFileContentType(mail.TypeAppOctetStream))
	return msg, nil
}

func (s *SMTP) dial(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{mail.WithPort(s.cfg.Port)}
	if s.cfg.TimeoutSeconds > 0 {
		opts = append(opts, mail.WithTimeout(time.Duration(s.cfg.TimeoutSeconds)*time.Second))
	}
	switch s.cfg.TLS {
	case "tls":
		opts = append(opts, mail.WithSSL())
	case "none":
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

func classify(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, "email", "smtp send", "", err)
	case strings.Contains(err.Error(), "535"), strings.Contains(strings.ToLower(err.Error()), "authentication"):
		return services.Wrap(services.ErrConfiguration, "email", "smtp auth", "credentials rejected", err)
	default:
		return services.Wrap(services.ErrTransient, "email", "smtp send", "", err)
	}
}

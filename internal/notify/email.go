package notify

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/wolfman30/carebook/pkg/logging"
)

const defaultFromName = "Carebook"

// ErrNoRecipient is returned when a message has no usable To address.
var ErrNoRecipient = errors.New("notify: recipient address is required")

// EmailSender delivers a single transactional email.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is one booking email. Body is plain text; HTML is optional.
type EmailMessage struct {
	To       string
	ToName   string
	ReplyTo  string
	Subject  string
	Body     string
	HTML     string
	Category string // provider-side tag for filtering, e.g. "appointment-confirmation"
}

func (m EmailMessage) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return ErrNoRecipient
	}
	if _, err := mail.ParseAddress(m.To); err != nil {
		return fmt.Errorf("notify: invalid recipient %q: %w", m.To, err)
	}
	return nil
}

// sender is the From identity shared by every provider.
type sender struct {
	email string
	name  string
}

func newSender(email, name string) sender {
	if strings.TrimSpace(name) == "" {
		name = defaultFromName
	}
	return sender{email: strings.TrimSpace(email), name: name}
}

func (s sender) address() string {
	return (&mail.Address{Name: s.name, Address: s.email}).String()
}

// StubEmailSender logs instead of sending. It is the development default.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
	if err := msg.validate(); err != nil {
		return err
	}
	s.logger.Info("stub email sender: would send email",
		"to", msg.To,
		"subject", msg.Subject,
		"category", msg.Category,
	)
	return nil
}

var _ EmailSender = (*StubEmailSender)(nil)

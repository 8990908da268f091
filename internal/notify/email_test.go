package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

func TestEmailMessageValidate(t *testing.T) {
	if err := (EmailMessage{}).validate(); !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("expected ErrNoRecipient, got %v", err)
	}
	if err := (EmailMessage{To: "not-an-address"}).validate(); err == nil {
		t.Fatal("expected invalid address error")
	}
	if err := (EmailMessage{To: "jane@example.com"}).validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewSenderDefaultsName(t *testing.T) {
	s := newSender(" no-reply@example.com ", "")
	if s.name != "Carebook" || s.email != "no-reply@example.com" {
		t.Fatalf("unexpected sender %+v", s)
	}
	if got := s.address(); got != `"Carebook" <no-reply@example.com>` {
		t.Fatalf("unexpected address %q", got)
	}
}

func TestStubEmailSender(t *testing.T) {
	stub := NewStubEmailSender(nil)
	if err := stub.Send(context.Background(), EmailMessage{To: "a@example.com", Subject: "hi"}); err != nil {
		t.Errorf("stub should accept a valid message: %v", err)
	}
	if err := stub.Send(context.Background(), EmailMessage{Subject: "hi"}); !errors.Is(err, ErrNoRecipient) {
		t.Errorf("stub should reject a message without recipient, got %v", err)
	}
}

func TestNewSendGridSenderNilWithoutAPIKey(t *testing.T) {
	if NewSendGridSender(SendGridConfig{FromEmail: "test@example.com"}, nil) != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

type fakeSendGrid struct {
	sent   *mail.SGMailV3
	status int
	err    error
}

func (f *fakeSendGrid) SendWithContext(_ context.Context, m *mail.SGMailV3) (*rest.Response, error) {
	f.sent = m
	if f.err != nil {
		return nil, f.err
	}
	return &rest.Response{StatusCode: f.status}, nil
}

func TestSendGridSenderSend(t *testing.T) {
	client := &fakeSendGrid{status: 202}
	sender := newSendGridSender(client, SendGridConfig{FromEmail: "no-reply@example.com"}, nil)

	err := sender.Send(context.Background(), EmailMessage{
		To: "p@example.com", ToName: "Pat", ReplyTo: "front@example.com",
		Subject: "Booked", Body: "text", Category: CategoryPatientConfirmation,
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if client.sent.From.Name != "Carebook" || client.sent.From.Address != "no-reply@example.com" {
		t.Errorf("unexpected from %+v", client.sent.From)
	}
	if client.sent.ReplyTo == nil || client.sent.ReplyTo.Address != "front@example.com" {
		t.Errorf("expected reply-to, got %+v", client.sent.ReplyTo)
	}
	if len(client.sent.Categories) != 1 || client.sent.Categories[0] != CategoryPatientConfirmation {
		t.Errorf("expected category, got %v", client.sent.Categories)
	}
	if len(client.sent.Content) != 2 {
		t.Errorf("expected text and html content, got %d parts", len(client.sent.Content))
	}
}

func TestSendGridSenderSendErrors(t *testing.T) {
	client := &fakeSendGrid{status: 400}
	sender := newSendGridSender(client, SendGridConfig{FromEmail: "no-reply@example.com"}, nil)
	if err := sender.Send(context.Background(), EmailMessage{To: "p@example.com"}); err == nil {
		t.Error("expected error on 4xx status")
	}

	client.err = errors.New("timeout")
	if err := sender.Send(context.Background(), EmailMessage{To: "p@example.com"}); err == nil {
		t.Error("expected transport error to surface")
	}

	if err := (&SendGridSender{}).Send(context.Background(), EmailMessage{To: "a@example.com"}); err == nil {
		t.Error("expected error when client is nil")
	}
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESSenderSend(t *testing.T) {
	client := &fakeSES{}
	sender := newSESSender(client, SESConfig{FromEmail: "no-reply@example.com"}, nil)

	err := sender.Send(context.Background(), EmailMessage{
		To: "p@example.com", ReplyTo: "front@example.com", Subject: "Booked",
		Body: "text", HTML: "<p>html</p>", Category: CategoryCenterBooking,
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := aws.ToString(client.input.FromEmailAddress); got != `"Carebook" <no-reply@example.com>` {
		t.Errorf("unexpected from %q", got)
	}
	if client.input.Content.Simple.Body.Html == nil || client.input.Content.Simple.Body.Text == nil {
		t.Errorf("expected both text and html bodies")
	}
	if len(client.input.ReplyToAddresses) != 1 || client.input.ReplyToAddresses[0] != "front@example.com" {
		t.Errorf("unexpected reply-to %v", client.input.ReplyToAddresses)
	}
	if len(client.input.EmailTags) != 1 || aws.ToString(client.input.EmailTags[0].Value) != CategoryCenterBooking {
		t.Errorf("expected category tag, got %+v", client.input.EmailTags)
	}

	client.err = errors.New("throttled")
	if err := sender.Send(context.Background(), EmailMessage{To: "p@example.com"}); err == nil {
		t.Errorf("expected SES error to surface")
	}
}

func TestSESSenderRejectsMissingRecipient(t *testing.T) {
	client := &fakeSES{}
	sender := newSESSender(client, SESConfig{FromEmail: "no-reply@example.com"}, nil)
	if err := sender.Send(context.Background(), EmailMessage{Subject: "x"}); !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("expected ErrNoRecipient, got %v", err)
	}
	if client.input != nil {
		t.Fatal("expected no SES call")
	}
}

func TestNewSESSenderNilClient(t *testing.T) {
	if NewSESSender(nil, SESConfig{}, nil) != nil {
		t.Error("expected nil sender without client")
	}
}

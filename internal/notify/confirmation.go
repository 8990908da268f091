package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/carebook/internal/centers"
	"github.com/wolfman30/carebook/internal/slots"
	"github.com/wolfman30/carebook/pkg/logging"
)

// CenterLookup resolves center names, contact and timezone.
type CenterLookup interface {
	Get(ctx context.Context, centerID string) (*centers.Center, error)
}

// Confirmation describes a freshly booked appointment.
type Confirmation struct {
	OrgID         string
	CenterID      string
	AppointmentID string
	PatientName   string
	PatientEmail  string
	TreatmentName string
	StartTime     time.Time
	EndTime       time.Time
}

// ConfirmationNotifier sends booking confirmations to patients and centers.
type ConfirmationNotifier struct {
	email   EmailSender
	centers CenterLookup
	logger  *logging.Logger
}

// Email categories used for provider-side filtering.
const (
	CategoryPatientConfirmation = "appointment-confirmation"
	CategoryCenterBooking       = "center-booking-notice"
)

// NewConfirmationNotifier creates a confirmation notifier. centers may be nil.
func NewConfirmationNotifier(email EmailSender, centerLookup CenterLookup, logger *logging.Logger) *ConfirmationNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &ConfirmationNotifier{email: email, centers: centerLookup, logger: logger}
}

// NotifyAppointmentConfirmed emails the patient and, when configured, the center.
// A patient without an email address is skipped silently.
func (s *ConfirmationNotifier) NotifyAppointmentConfirmed(ctx context.Context, c Confirmation) error {
	if s.email == nil {
		s.logger.Debug("notify: email sender not configured, skipping confirmation")
		return nil
	}

	var center *centers.Center
	if s.centers != nil && c.CenterID != "" {
		found, err := s.centers.Get(ctx, c.CenterID)
		if err != nil && !errors.Is(err, centers.ErrNotFound) {
			s.logger.Warn("notify: center lookup failed", "error", err, "center_id", c.CenterID)
		}
		center = found
	}

	when := describeWhen(c, center)
	centerName := "our clinic"
	if center != nil && center.Name != "" {
		centerName = center.Name
	}
	treatment := strings.TrimSpace(c.TreatmentName)
	if treatment == "" {
		treatment = "appointment"
	}

	var errs []error
	if strings.TrimSpace(c.PatientEmail) != "" {
		msg := EmailMessage{
			To:       c.PatientEmail,
			ToName:   c.PatientName,
			Category: CategoryPatientConfirmation,
			Subject:  fmt.Sprintf("Your %s is confirmed", treatment),
			Body: fmt.Sprintf("Hi %s,\n\nYour %s at %s is booked for %s.\nReference: %s\n\nSee you soon!",
				firstNonEmpty(c.PatientName, "there"), treatment, centerName, when, c.AppointmentID),
		}
		if center != nil {
			msg.ReplyTo = strings.TrimSpace(center.Email)
		}
		if err := s.email.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("notify: patient confirmation: %w", err))
		}
	}

	if center != nil && strings.TrimSpace(center.Email) != "" {
		msg := EmailMessage{
			To:       center.Email,
			ToName:   center.Name,
			ReplyTo:  strings.TrimSpace(c.PatientEmail),
			Category: CategoryCenterBooking,
			Subject:  fmt.Sprintf("New booking: %s, %s", treatment, when),
			Body: fmt.Sprintf("%s booked %s for %s.\nAppointment: %s",
				firstNonEmpty(c.PatientName, "A patient"), treatment, when, c.AppointmentID),
		}
		if err := s.email.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("notify: center notification: %w", err))
		}
	}

	return errors.Join(errs...)
}

func describeWhen(c Confirmation, center *centers.Center) string {
	loc := time.UTC
	if center != nil {
		loc = center.Location()
	}
	day := c.StartTime.In(loc).Format("Monday, January 2")
	return fmt.Sprintf("%s, %s (%s)", day, slots.FormatDisplayTime(c.StartTime, c.EndTime, loc), loc.String())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

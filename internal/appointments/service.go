package appointments

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/carebook/pkg/logging"
)

var appointmentsTracer = otel.Tracer("carebook.internal.appointments")

// Service books and cancels appointments.
type Service struct {
	repo   Repository
	logger *logging.Logger
}

// NewService constructs an appointments service.
func NewService(repo Repository, logger *logging.Logger) *Service {
	if repo == nil {
		panic("appointments: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Create books an appointment. A result without an id is reported as an error.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Appointment, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("carebook.org_id", req.OrgID),
		attribute.String("carebook.center_id", req.CenterID),
		attribute.String("carebook.consultant_id", req.ConsultantID),
	)

	appt, err := s.repo.Create(ctx, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if appt == nil || appt.ID == "" {
		err := fmt.Errorf("appointments: create returned no id")
		span.RecordError(err)
		return nil, err
	}
	s.logger.Info("appointment booked",
		"org_id", appt.OrgID,
		"appointment_id", appt.ID,
		"consultant_id", appt.ConsultantID,
		"start_time", appt.StartTime,
	)
	return appt, nil
}

// Get returns a single appointment.
func (s *Service) Get(ctx context.Context, orgID, id string) (*Appointment, error) {
	return s.repo.GetByID(ctx, orgID, id)
}

// Cancel releases the consultant's time.
func (s *Service) Cancel(ctx context.Context, orgID, id string) error {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.cancel")
	defer span.End()
	if err := s.repo.Cancel(ctx, orgID, id); err != nil {
		span.RecordError(err)
		return err
	}
	s.logger.Info("appointment cancelled", "org_id", orgID, "appointment_id", id)
	return nil
}

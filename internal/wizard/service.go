package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/carebook/internal/appointments"
	"github.com/wolfman30/carebook/internal/availability"
	"github.com/wolfman30/carebook/internal/centers"
	"github.com/wolfman30/carebook/internal/events"
	"github.com/wolfman30/carebook/internal/notify"
	"github.com/wolfman30/carebook/internal/observability/metrics"
	"github.com/wolfman30/carebook/internal/patients"
	"github.com/wolfman30/carebook/internal/slots"
	"github.com/wolfman30/carebook/pkg/logging"
)

var wizardTracer = otel.Tracer("carebook.internal.wizard")

var (
	ErrStepMismatch           = errors.New("wizard: step is not the current step")
	ErrWizardComplete         = errors.New("wizard: booking already confirmed")
	ErrBackDisabled           = errors.New("wizard: back is disabled once booking is confirmed")
	ErrMissingPatientDetails  = errors.New("wizard: patient details are required")
	ErrMissingPatient         = errors.New("wizard: patient id is required")
	ErrMissingCenter          = errors.New("wizard: center id is required")
	ErrCenterNotInOrg         = errors.New("wizard: center does not belong to this org")
	ErrMissingTreatment       = errors.New("wizard: treatment id is required")
	ErrInvalidDuration        = errors.New("wizard: treatment duration must be positive")
	ErrInvalidPrice           = errors.New("wizard: treatment price cannot be negative")
	ErrMissingSlot            = errors.New("wizard: slot start time is required")
	ErrSlotUnavailable        = errors.New("wizard: slot is not among the displayed slots")
	ErrSessionDetailsRequired = errors.New("wizard: session details must be completed first")
	ErrNotConfirmable         = errors.New("wizard: session is not ready for confirmation")
	ErrSubmitInFlight         = errors.New("wizard: booking submission already in progress")
	ErrAppointmentNotCreated  = errors.New("wizard: appointment was not created")
)

const availabilityFailedMessage = "availability temporarily unavailable"

// AvailabilityQuerier loads per-consultant availability.
type AvailabilityQuerier interface {
	Aggregate(ctx context.Context, req availability.Request) ([]availability.ConsultantAvailability, error)
	Location(ctx context.Context, scope availability.Scope) *time.Location
}

// AppointmentCreator books the appointment on confirmation.
type AppointmentCreator interface {
	Create(ctx context.Context, req *appointments.CreateRequest) (*appointments.Appointment, error)
}

// PatientRegistrar creates and looks up patients.
type PatientRegistrar interface {
	Create(ctx context.Context, req *patients.CreatePatientRequest) (*patients.Patient, error)
	GetByID(ctx context.Context, orgID, id string) (*patients.Patient, error)
	UpdateStatus(ctx context.Context, orgID, id string, status patients.Status) error
}

// CenterLookup resolves center profiles so a session cannot select another org's center.
type CenterLookup interface {
	Get(ctx context.Context, centerID string) (*centers.Center, error)
}

// ConfirmationSender delivers booking confirmations.
type ConfirmationSender interface {
	NotifyAppointmentConfirmed(ctx context.Context, c notify.Confirmation) error
}

// Config wires a Service. Store, Availability, Appointments and Patients are required.
type Config struct {
	Store         Store
	Availability  AvailabilityQuerier
	Appointments  AppointmentCreator
	Patients      PatientRegistrar
	Centers       CenterLookup
	Notifier      ConfirmationSender
	Tracker       events.Tracker
	Picker        slots.Picker
	Metrics       *metrics.BookingMetrics
	Logger        *logging.Logger
	SubmitLockTTL time.Duration
	Now           func() time.Time
}

// Service runs booking sessions.
type Service struct {
	store        Store
	availability AvailabilityQuerier
	appointments AppointmentCreator
	patients     PatientRegistrar
	centers      CenterLookup
	notifier     ConfirmationSender
	tracker      events.Tracker
	picker       slots.Picker
	metrics      *metrics.BookingMetrics
	logger       *logging.Logger
	lockTTL      time.Duration
	now          func() time.Time
}

func NewService(cfg Config) *Service {
	if cfg.Store == nil {
		panic("wizard: store required")
	}
	if cfg.Availability == nil {
		panic("wizard: availability querier required")
	}
	if cfg.Appointments == nil {
		panic("wizard: appointment creator required")
	}
	if cfg.Patients == nil {
		panic("wizard: patient registrar required")
	}
	if cfg.Tracker == nil {
		cfg.Tracker = events.NoopTracker{}
	}
	if cfg.Picker == nil {
		cfg.Picker = slots.NewRandomPicker(nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.SubmitLockTTL <= 0 {
		cfg.SubmitLockTTL = 30 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		store:        cfg.Store,
		availability: cfg.Availability,
		appointments: cfg.Appointments,
		patients:     cfg.Patients,
		centers:      cfg.Centers,
		notifier:     cfg.Notifier,
		tracker:      cfg.Tracker,
		picker:       cfg.Picker,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		lockTTL:      cfg.SubmitLockTTL,
		now:          cfg.Now,
	}
}

// Start opens a session at the first step of the handoff's flow.
func (s *Service) Start(ctx context.Context, orgID string, handoff Handoff) (*Session, error) {
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return nil, ErrMissingOrgID
	}
	m, err := NewMachine(handoff.Flow)
	if err != nil {
		return nil, err
	}
	handoff.PatientID = strings.TrimSpace(handoff.PatientID)
	if handoff.Flow == FlowReturningPatient {
		if handoff.PatientID == "" {
			return nil, ErrMissingPatient
		}
		if _, err := s.patients.GetByID(ctx, orgID, handoff.PatientID); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	sess := &Session{
		ID:    uuid.NewString(),
		OrgID: orgID,
		Flow:  handoff.Flow,
		Step:  m.Current(),
		Data: BookingData{
			PatientID: handoff.PatientID,
			CenterID:  strings.TrimSpace(handoff.CenterID),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Info("wizard started", "org_id", orgID, "session_id", sess.ID, "flow", sess.Flow)
	s.track(ctx, orgID, events.WizardStartedV1{
		SessionID: sess.ID,
		OrgID:     orgID,
		Flow:      string(sess.Flow),
		PatientID: sess.Data.PatientID,
		CenterID:  sess.Data.CenterID,
		StartedAt: now,
	})
	return sess, nil
}

// Get returns a session owned by orgID.
func (s *Service) Get(ctx context.Context, orgID, id string) (*Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.OrgID != orgID {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Abandon discards the session and everything collected in it.
func (s *Service) Abandon(ctx context.Context, orgID, id string) error {
	sess, err := s.Get(ctx, orgID, id)
	if err != nil {
		return err
	}
	return s.exit(ctx, sess)
}

func (s *Service) exit(ctx context.Context, sess *Session) error {
	if err := s.store.Delete(ctx, sess.ID); err != nil {
		return err
	}
	s.metrics.ObserveTransition(string(sess.Flow), string(sess.Step), "exit")
	s.track(ctx, sess.OrgID, events.WizardExitedV1{
		SessionID: sess.ID,
		OrgID:     sess.OrgID,
		Flow:      string(sess.Flow),
		Step:      string(sess.Step),
		ExitedAt:  s.now().UTC(),
	})
	return nil
}

// PatientDetails is collected by the new-patient flow.
type PatientDetails struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"date_of_birth"`
}

// StepInput is what a step's continue action submits. Each step reads only its fields.
type StepInput struct {
	Patient             *PatientDetails `json:"patient,omitempty"`
	PatientID           string          `json:"patient_id,omitempty"`
	CenterID            string          `json:"center_id,omitempty"`
	TreatmentID         string          `json:"treatment_id,omitempty"`
	TreatmentName       string          `json:"treatment_name,omitempty"`
	TreatmentDuration   int             `json:"treatment_duration,omitempty"`
	TreatmentPriceCents int64           `json:"treatment_price_cents,omitempty"`
	Designation         string          `json:"designation,omitempty"`
	SlotStart           time.Time       `json:"slot_start,omitempty"`
}

// Complete commits step's input into the booking data and then advances. Nothing
// is saved when the commit fails, so the user stays on the step with their data intact.
func (s *Service) Complete(ctx context.Context, orgID, id string, step Step, in StepInput) (*Session, error) {
	sess, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if sess.Step != step {
		return nil, fmt.Errorf("%w: at %q, got %q", ErrStepMismatch, sess.Step, step)
	}
	switch step {
	case StepConfirmation:
		return s.confirm(ctx, sess)
	case StepBookingConfirmed:
		return nil, ErrWizardComplete
	}

	ctx, span := wizardTracer.Start(ctx, "wizard.complete_step")
	defer span.End()
	span.SetAttributes(
		attribute.String("carebook.org_id", orgID),
		attribute.String("carebook.wizard.flow", string(sess.Flow)),
		attribute.String("carebook.wizard.step", string(step)),
	)

	patch, err := s.commit(ctx, sess, in)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	m, err := sess.machine()
	if err != nil {
		return nil, err
	}

	next := sess.clone()
	next.Data = sess.Data.Merge(patch)
	m.Advance()
	next.Step = m.Current()
	next.LastError = ""
	next.UpdatedAt = s.now().UTC()

	if step == StepSessionDetails {
		if err := s.clearAvailability(ctx, next.ID); err != nil {
			return nil, err
		}
		next.Availability = SlotView{}
	}
	if err := s.store.Save(ctx, next); err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.metrics.ObserveTransition(string(next.Flow), string(step), "forward")
	s.track(ctx, orgID, events.WizardStepCompletedV1{
		SessionID:   next.ID,
		OrgID:       orgID,
		Flow:        string(next.Flow),
		Step:        string(step),
		NextStep:    string(next.Step),
		CompletedAt: next.UpdatedAt,
	})
	return next, nil
}

// commit validates a step's input and returns the fields it contributes.
func (s *Service) commit(ctx context.Context, sess *Session, in StepInput) (Patch, error) {
	switch sess.Step {
	case StepPatientDetails:
		if in.Patient == nil {
			return Patch{}, ErrMissingPatientDetails
		}
		p, err := s.patients.Create(ctx, &patients.CreatePatientRequest{
			OrgID:       sess.OrgID,
			FirstName:   in.Patient.FirstName,
			LastName:    in.Patient.LastName,
			Email:       in.Patient.Email,
			Phone:       in.Patient.Phone,
			DateOfBirth: in.Patient.DateOfBirth,
		})
		if err != nil {
			return Patch{}, err
		}
		return Patch{PatientID: &p.ID}, nil

	case StepPatientSelection:
		patientID := strings.TrimSpace(in.PatientID)
		if patientID == "" {
			return Patch{}, ErrMissingPatient
		}
		if _, err := s.patients.GetByID(ctx, sess.OrgID, patientID); err != nil {
			return Patch{}, err
		}
		return Patch{PatientID: &patientID}, nil

	case StepSessionDetails:
		centerID := firstNonEmpty(in.CenterID, sess.Data.CenterID)
		switch {
		case centerID == "":
			return Patch{}, ErrMissingCenter
		case strings.TrimSpace(in.TreatmentID) == "":
			return Patch{}, ErrMissingTreatment
		case in.TreatmentDuration <= 0:
			return Patch{}, ErrInvalidDuration
		case in.TreatmentPriceCents < 0:
			return Patch{}, ErrInvalidPrice
		}
		if err := s.checkCenterOrg(ctx, sess.OrgID, centerID); err != nil {
			return Patch{}, err
		}
		treatmentID := strings.TrimSpace(in.TreatmentID)
		name := strings.TrimSpace(in.TreatmentName)
		designation := strings.TrimSpace(in.Designation)
		empty := ""
		return Patch{
			CenterID:            &centerID,
			TreatmentID:         &treatmentID,
			TreatmentName:       &name,
			TreatmentDuration:   &in.TreatmentDuration,
			TreatmentPriceCents: &in.TreatmentPriceCents,
			Designation:         &designation,
			SelectedDate:        &empty,
			SelectedSlot:        &SelectedSlot{},
		}, nil

	case StepSlotSelection:
		if in.SlotStart.IsZero() {
			return Patch{}, ErrMissingSlot
		}
		slot, ok := slots.Find(sess.Availability.Slots, in.SlotStart)
		if !ok {
			return Patch{}, ErrSlotUnavailable
		}
		date := sess.Availability.Date
		return Patch{
			SelectedDate: &date,
			SelectedSlot: &SelectedSlot{
				StartTime:     slot.StartTime,
				EndTime:       slot.EndTime,
				DisplayTime:   slot.DisplayTime,
				ConsultantIDs: slot.ConsultantIDs,
			},
		}, nil
	}
	return Patch{}, fmt.Errorf("%w: %q", ErrUnknownStep, sess.Step)
}

// checkCenterOrg rejects a center whose profile names a different org. Centers
// without a stored profile pass; availability is org-scoped regardless.
func (s *Service) checkCenterOrg(ctx context.Context, orgID, centerID string) error {
	if s.centers == nil {
		return nil
	}
	c, err := s.centers.Get(ctx, centerID)
	if errors.Is(err, centers.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("wizard: lookup center: %w", err)
	}
	if c.OrgID != "" && c.OrgID != orgID {
		return fmt.Errorf("%w: %q", ErrCenterNotInOrg, centerID)
	}
	return nil
}

// Back retreats one step. At the first step the session is discarded and exited is true.
func (s *Service) Back(ctx context.Context, orgID, id string) (sess *Session, exited bool, err error) {
	sess, err = s.Get(ctx, orgID, id)
	if err != nil {
		return nil, false, err
	}
	m, err := sess.machine()
	if err != nil {
		return nil, false, err
	}
	if m.AtTerminal() {
		return nil, false, ErrBackDisabled
	}
	if !m.Retreat() {
		if err := s.exit(ctx, sess); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	}

	from := sess.Step
	sess.Step = m.Current()
	sess.LastError = ""
	sess.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, false, err
	}
	s.metrics.ObserveTransition(string(sess.Flow), string(from), "back")
	return sess, false, nil
}

// LoadResult is the outcome of one availability load.
type LoadResult struct {
	View  SlotView `json:"availability"`
	Stale bool     `json:"stale"`
}

// LoadAvailability fetches and groups the slots for one local day. A load that was
// superseded by a newer one while in flight is reported as stale and not applied.
// Fetch failures are shown as an empty list with an error instead of failing the session.
func (s *Service) LoadAvailability(ctx context.Context, orgID, id, date string) (*LoadResult, error) {
	sess, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if sess.Data.CenterID == "" || sess.Data.TreatmentDuration <= 0 {
		return nil, ErrSessionDetailsRequired
	}

	ctx, span := wizardTracer.Start(ctx, "wizard.load_availability")
	defer span.End()
	span.SetAttributes(
		attribute.String("carebook.org_id", orgID),
		attribute.String("carebook.center_id", sess.Data.CenterID),
		attribute.String("carebook.wizard.date", date),
	)

	scope := availability.Scope{CenterID: sess.Data.CenterID, OrgID: orgID}
	loc := s.availability.Location(ctx, scope)
	start, end, err := availability.DayRange(date, 1, loc)
	if err != nil {
		return nil, err
	}

	gen, err := s.store.BeginAvailability(ctx, id)
	if err != nil {
		return nil, err
	}

	view := SlotView{Date: date, Slots: []slots.BookableSlot{}}
	avail, err := s.availability.Aggregate(ctx, availability.Request{
		Scope:           scope,
		Start:           start,
		End:             end,
		ServiceDuration: sess.Data.TreatmentDuration,
		Designation:     sess.Data.Designation,
	})
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("wizard availability load failed", "error", err, "session_id", id, "date", date)
		view.Error = availabilityFailedMessage
	} else {
		view.Slots = slots.Group(avail, loc)
	}

	applied, err := s.store.ApplyAvailability(ctx, id, gen, view)
	if err != nil {
		return nil, err
	}
	view.Generation = gen
	if applied {
		s.metrics.ObserveSlots(len(view.Slots))
	} else {
		s.logger.Debug("discarding superseded availability", "session_id", id, "date", date, "generation", gen)
	}

	s.track(ctx, orgID, events.AvailabilityLoadedV1{
		SessionID:   id,
		OrgID:       orgID,
		CenterID:    sess.Data.CenterID,
		Date:        date,
		SlotCount:   len(view.Slots),
		Failed:      view.Error != "",
		Stale:       !applied,
		LoadedAt:    s.now().UTC(),
		DurationMin: sess.Data.TreatmentDuration,
	})
	return &LoadResult{View: view, Stale: !applied}, nil
}

// clearAvailability supersedes any in-flight load and empties the slot view.
func (s *Service) clearAvailability(ctx context.Context, id string) error {
	gen, err := s.store.BeginAvailability(ctx, id)
	if err != nil {
		return err
	}
	_, err = s.store.ApplyAvailability(ctx, id, gen, SlotView{})
	return err
}

// Confirm books the appointment for the session's chosen slot. When booking fails
// the error wraps ErrAppointmentNotCreated and the returned session carries the
// recorded LastError.
func (s *Service) Confirm(ctx context.Context, orgID, id string) (*Session, error) {
	sess, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if sess.Step != StepConfirmation {
		return nil, fmt.Errorf("%w: at %q", ErrNotConfirmable, sess.Step)
	}
	return s.confirm(ctx, sess)
}

func (s *Service) confirm(ctx context.Context, sess *Session) (*Session, error) {
	data := sess.Data
	if data.PatientID == "" || data.CenterID == "" || data.TreatmentID == "" || data.SelectedSlot.IsZero() {
		return nil, ErrNotConfirmable
	}

	ok, err := s.store.AcquireSubmit(ctx, sess.ID, s.lockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSubmitInFlight
	}
	defer func() {
		if err := s.store.ReleaseSubmit(context.WithoutCancel(ctx), sess.ID); err != nil {
			s.logger.Warn("failed to release submit lock", "error", err, "session_id", sess.ID)
		}
	}()

	// Re-read under the lock; a concurrent submit may already have finished.
	sess, err = s.Get(ctx, sess.OrgID, sess.ID)
	if err != nil {
		return nil, err
	}
	if sess.Step != StepConfirmation {
		return nil, fmt.Errorf("%w: at %q", ErrNotConfirmable, sess.Step)
	}

	ctx, span := wizardTracer.Start(ctx, "wizard.confirm")
	defer span.End()
	span.SetAttributes(
		attribute.String("carebook.org_id", sess.OrgID),
		attribute.String("carebook.wizard.session_id", sess.ID),
	)

	appt, err := s.book(ctx, sess)
	if err != nil {
		span.RecordError(err)
		return sess, s.fail(ctx, sess, err)
	}

	m, err := sess.machine()
	if err != nil {
		return nil, err
	}
	sess.Data = sess.Data.Merge(Patch{ConsultantID: &appt.ConsultantID, AppointmentID: &appt.ID})
	m.Advance()
	sess.Step = m.Current()
	sess.LastError = ""
	sess.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, sess); err != nil {
		span.RecordError(err)
		s.logger.Error("appointment booked but session save failed", "error", err, "session_id", sess.ID, "appointment_id", appt.ID)
		return nil, err
	}

	s.metrics.ObserveAppointment("booked")
	s.metrics.ObserveTransition(string(sess.Flow), string(StepConfirmation), "forward")
	s.afterBooking(ctx, sess, appt)
	return sess, nil
}

func (s *Service) book(ctx context.Context, sess *Session) (*appointments.Appointment, error) {
	sel := sess.Data.SelectedSlot
	consultantID, err := s.picker.Pick(slots.BookableSlot{
		StartTime:     sel.StartTime,
		EndTime:       sel.EndTime,
		ConsultantIDs: sel.ConsultantIDs,
	})
	if err != nil {
		return nil, err
	}
	appt, err := s.appointments.Create(ctx, &appointments.CreateRequest{
		OrgID:        sess.OrgID,
		CenterID:     sess.Data.CenterID,
		PatientID:    sess.Data.PatientID,
		ConsultantID: consultantID,
		TreatmentID:  sess.Data.TreatmentID,
		StartTime:    sel.StartTime,
		EndTime:      sel.EndTime,
		PriceCents:   sess.Data.TreatmentPriceCents,
		// A retry after a lost session save gets the same appointment back.
		BookingRef:   sess.ID,
	})
	if err != nil {
		return nil, err
	}
	if appt == nil || strings.TrimSpace(appt.ID) == "" {
		return nil, errors.New("create returned no appointment id")
	}
	return appt, nil
}

// fail keeps the session on the confirmation step with the error recorded.
func (s *Service) fail(ctx context.Context, sess *Session, cause error) error {
	s.logger.Warn("appointment creation failed", "error", cause, "session_id", sess.ID, "org_id", sess.OrgID)
	s.metrics.ObserveAppointment("failed")

	sess.LastError = "We couldn't complete your booking. Please try again."
	if errors.Is(cause, appointments.ErrSlotTaken) {
		sess.LastError = "That time was just taken. Please pick another slot."
	}
	sess.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, sess); err != nil {
		s.logger.Error("failed to record booking error on session", "error", err, "session_id", sess.ID)
	}
	s.track(ctx, sess.OrgID, events.AppointmentFailedV1{
		SessionID: sess.ID,
		OrgID:     sess.OrgID,
		Reason:    cause.Error(),
		FailedAt:  sess.UpdatedAt,
	})
	return fmt.Errorf("%w: %w", ErrAppointmentNotCreated, cause)
}

// afterBooking runs the side effects of a confirmed booking. None of them can undo it.
func (s *Service) afterBooking(ctx context.Context, sess *Session, appt *appointments.Appointment) {
	s.track(ctx, sess.OrgID, events.AppointmentBookedV1{
		SessionID:     sess.ID,
		OrgID:         sess.OrgID,
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		ConsultantID:  appt.ConsultantID,
		CenterID:      appt.CenterID,
		TreatmentID:   appt.TreatmentID,
		PriceCents:    appt.PriceCents,
		StartTime:     appt.StartTime,
		BookedAt:      sess.UpdatedAt,
	})

	if err := s.patients.UpdateStatus(ctx, sess.OrgID, sess.Data.PatientID, patients.StatusBooked); err != nil {
		s.metrics.ObserveSideEffectFailure("patient_status")
		s.logger.Warn("failed to mark patient booked", "error", err, "patient_id", sess.Data.PatientID)
	}

	if s.notifier == nil {
		return
	}
	patient, err := s.patients.GetByID(ctx, sess.OrgID, sess.Data.PatientID)
	if err != nil {
		s.metrics.ObserveSideEffectFailure("notification")
		s.logger.Warn("failed to load patient for confirmation", "error", err, "patient_id", sess.Data.PatientID)
		return
	}
	err = s.notifier.NotifyAppointmentConfirmed(ctx, notify.Confirmation{
		OrgID:         sess.OrgID,
		CenterID:      appt.CenterID,
		AppointmentID: appt.ID,
		PatientName:   patient.FullName(),
		PatientEmail:  patient.Email,
		TreatmentName: sess.Data.TreatmentName,
		StartTime:     appt.StartTime,
		EndTime:       appt.EndTime,
	})
	if err != nil {
		s.metrics.ObserveSideEffectFailure("notification")
		s.logger.Warn("failed to send booking confirmation", "error", err, "appointment_id", appt.ID)
	}
}

func (s *Service) track(ctx context.Context, orgID string, evt events.Event) {
	if err := s.tracker.Track(ctx, orgID, evt); err != nil {
		s.metrics.ObserveSideEffectFailure("analytics")
		s.logger.Warn("failed to track analytics event", "error", err, "type", evt.EventType())
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/carebook/internal/appointments"
	"github.com/wolfman30/carebook/internal/availability"
	"github.com/wolfman30/carebook/internal/centers"
	"github.com/wolfman30/carebook/internal/events"
	"github.com/wolfman30/carebook/internal/notify"
	"github.com/wolfman30/carebook/internal/patients"
	"github.com/wolfman30/carebook/internal/slots"
)

type fakeAvailability struct {
	mu       sync.Mutex
	requests []availability.Request
	result   func(ctx context.Context, req availability.Request) ([]availability.ConsultantAvailability, error)
}

func (f *fakeAvailability) Aggregate(ctx context.Context, req availability.Request) ([]availability.ConsultantAvailability, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.result(ctx, req)
}

func (f *fakeAvailability) Location(context.Context, availability.Scope) *time.Location {
	return time.UTC
}

type fakeAppointments struct {
	mu       sync.Mutex
	requests []appointments.CreateRequest
	create   func(req *appointments.CreateRequest) (*appointments.Appointment, error)
}

func (f *fakeAppointments) Create(_ context.Context, req *appointments.CreateRequest) (*appointments.Appointment, error) {
	f.mu.Lock()
	f.requests = append(f.requests, *req)
	f.mu.Unlock()
	if f.create != nil {
		return f.create(req)
	}
	return &appointments.Appointment{
		ID:           "appt-1",
		OrgID:        req.OrgID,
		CenterID:     req.CenterID,
		PatientID:    req.PatientID,
		ConsultantID: req.ConsultantID,
		TreatmentID:  req.TreatmentID,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Status:       appointments.StatusBooked,
		PriceCents:   req.PriceCents,
	}, nil
}

func (f *fakeAppointments) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type recordingNotifier struct {
	sent []notify.Confirmation
	err  error
}

func (r *recordingNotifier) NotifyAppointmentConfirmed(_ context.Context, c notify.Confirmation) error {
	r.sent = append(r.sent, c)
	return r.err
}

type recordingTracker struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingTracker) Track(_ context.Context, _ string, evt events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *recordingTracker) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType())
	}
	return out
}

type centerProfiles map[string]*centers.Center

func (c centerProfiles) Get(_ context.Context, id string) (*centers.Center, error) {
	if p, ok := c[id]; ok {
		return p, nil
	}
	return nil, centers.ErrNotFound
}

// lossySaveStore fails the next failSaves calls to Save.
type lossySaveStore struct {
	*MemoryStore
	mu        sync.Mutex
	failSaves int
}

func (l *lossySaveStore) Save(ctx context.Context, s *Session) error {
	l.mu.Lock()
	if l.failSaves > 0 {
		l.failSaves--
		l.mu.Unlock()
		return errors.New("redis: connection reset")
	}
	l.mu.Unlock()
	return l.MemoryStore.Save(ctx, s)
}

var monday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

// twoConsultants returns A at 10:00 and 10:40, B at 10:00 and 10:20.
func twoConsultants(_ context.Context, req availability.Request) ([]availability.ConsultantAvailability, error) {
	at := func(h, m int) availability.TimeWindow {
		start := req.Start.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
		return availability.TimeWindow{Start: start, End: start.Add(time.Duration(req.ServiceDuration) * time.Minute)}
	}
	return []availability.ConsultantAvailability{
		{ConsultantID: "a", ConsultantName: "Dr. A", AvailableSlots: []availability.TimeWindow{at(10, 0), at(10, 40)}},
		{ConsultantID: "b", ConsultantName: "Dr. B", AvailableSlots: []availability.TimeWindow{at(10, 0), at(10, 20)}},
	}, nil
}

type harness struct {
	svc          *Service
	store        *MemoryStore
	avail        *fakeAvailability
	appointments *fakeAppointments
	patients     *patients.InMemoryRepository
	notifier     *recordingNotifier
	tracker      *recordingTracker
	patientID    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:        NewMemoryStore(),
		avail:        &fakeAvailability{result: twoConsultants},
		appointments: &fakeAppointments{},
		patients:     patients.NewInMemoryRepository(),
		notifier:     &recordingNotifier{},
		tracker:      &recordingTracker{},
	}
	p, err := h.patients.Create(context.Background(), &patients.CreatePatientRequest{
		OrgID: "org-1", FirstName: "Jane", LastName: "Doe", Email: "jane@example.com",
	})
	require.NoError(t, err)
	h.patientID = p.ID

	h.svc = NewService(Config{
		Store:        h.store,
		Availability: h.avail,
		Appointments: h.appointments,
		Patients:     h.patients,
		Notifier:     h.notifier,
		Tracker:      h.tracker,
		Picker:       slots.PickerFunc(func(s slots.BookableSlot) (string, error) { return s.ConsultantIDs[len(s.ConsultantIDs)-1], nil }),
		Now:          func() time.Time { return monday.Add(-24 * time.Hour) },
	})
	return h
}

func sessionDetails() StepInput {
	return StepInput{CenterID: "c-1", TreatmentID: "t-1", TreatmentName: "Facial", TreatmentDuration: 20, TreatmentPriceCents: 5000}
}

// toConfirmation drives a returning-patient session up to the confirmation step.
func (h *harness) toConfirmation(t *testing.T) *Session {
	t.Helper()
	ctx := context.Background()
	sess, err := h.svc.Start(ctx, "org-1", Handoff{Flow: FlowReturningPatient, PatientID: h.patientID, CenterID: "c-1"})
	require.NoError(t, err)
	sess, err = h.svc.Complete(ctx, "org-1", sess.ID, StepSessionDetails, sessionDetails())
	require.NoError(t, err)
	_, err = h.svc.LoadAvailability(ctx, "org-1", sess.ID, "2025-03-10")
	require.NoError(t, err)
	sess, err = h.svc.Complete(ctx, "org-1", sess.ID, StepSlotSelection, StepInput{SlotStart: monday.Add(10 * time.Hour)})
	require.NoError(t, err)
	require.Equal(t, StepConfirmation, sess.Step)
	return sess
}

func TestService_ReturningPatientHappyPath(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess := h.toConfirmation(t)

	assert.Equal(t, "2025-03-10", sess.Data.SelectedDate)
	assert.Equal(t, []string{"a", "b"}, sess.Data.SelectedSlot.ConsultantIDs)
	assert.Equal(t, "10:00 AM - 10:20 AM", sess.Data.SelectedSlot.DisplayTime)

	confirmed, err := h.svc.Confirm(ctx, "org-1", sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StepBookingConfirmed, confirmed.Step)
	assert.Equal(t, "appt-1", confirmed.Data.AppointmentID)
	assert.Equal(t, "b", confirmed.Data.ConsultantID)
	assert.Equal(t, h.patientID, confirmed.Data.PatientID, "earlier fields must survive the merge")
	assert.Equal(t, 20, confirmed.Data.TreatmentDuration)

	require.Len(t, h.appointments.requests, 1)
	req := h.appointments.requests[0]
	assert.Equal(t, monday.Add(10*time.Hour), req.StartTime)
	assert.Equal(t, monday.Add(10*time.Hour+20*time.Minute), req.EndTime)
	assert.Equal(t, int64(5000), req.PriceCents)

	p, err := h.patients.GetByID(ctx, "org-1", h.patientID)
	require.NoError(t, err)
	assert.Equal(t, patients.StatusBooked, p.Status)

	require.Len(t, h.notifier.sent, 1)
	assert.Equal(t, "jane@example.com", h.notifier.sent[0].PatientEmail)
	assert.Equal(t, "Facial", h.notifier.sent[0].TreatmentName)

	assert.Equal(t, []string{
		"wizard.started.v1",
		"wizard.step_completed.v1",
		"availability.loaded.v1",
		"wizard.step_completed.v1",
		"appointment.booked.v1",
	}, h.tracker.types())
}

func TestService_NewPatientFlowCreatesPatient(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sess, err := h.svc.Start(ctx, "org-1", Handoff{Flow: FlowNewPatient})
	require.NoError(t, err)
	assert.Equal(t, StepPatientDetails, sess.Step)

	_, err = h.svc.Complete(ctx, "org-1", sess.ID, StepPatientDetails, StepInput{Patient: &PatientDetails{FirstName: "Sam"}})
	assert.True(t, patients.IsValidation(err), "expected validation error, got %v", err)

	got, err := h.svc.Get(ctx, "org-1", sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StepPatientDetails, got.Step, "failed commit must not advance")

	sess, err = h.svc.Complete(ctx, "org-1", sess.ID, StepPatientDetails, StepInput{
		Patient: &PatientDetails{FirstName: "Sam", LastName: "Lee", Phone: "+15550001111"},
	})
	require.NoError(t, err)
	assert.Equal(t, StepSessionDetails, sess.Step)
	require.NotEmpty(t, sess.Data.PatientID)

	p, err := h.patients.GetByID(ctx, "org-1", sess.Data.PatientID)
	require.NoError(t, err)
	assert.Equal(t, "Sam Lee", p.FullName())
}

func TestService_StaffFlowRequiresExistingPatient(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sess, err := h.svc.Start(ctx, "org-1", Handoff{Flow: FlowStaffBooking})
	require.NoError(t, err)
	assert.Equal(t, StepPatientSelection, sess.Step)

	_, err = h.svc.Complete(ctx, "org-1", sess.ID, StepPatientSelection, StepInput{PatientID: "nobody"})
	assert.ErrorIs(t, err, patients.ErrPatientNotFound)

	sess, err = h.svc.Complete(ctx, "org-1", sess.ID, StepPatientSelection, StepInput{PatientID: h.patientID})
	require.NoError(t, err)
	assert.Equal(t, StepSessionDetails, sess.Step)
	assert.Equal(t, h.patientID, sess.Data.PatientID)
}

func TestService_StartValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Start(ctx, "", Handoff{Flow: FlowNewPatient})
	assert.ErrorIs(t, err, ErrMissingOrgID)
	_, err = h.svc.Start(ctx, "org-1", Handoff{Flow: "walk-in"})
	assert.ErrorIs(t, err, ErrUnknownFlow)
	_, err = h.svc.Start(ctx, "org-1", Handoff{Flow: FlowReturningPatient})
	assert.ErrorIs(t, err, ErrMissingPatient)
}

func TestService_SessionDetailsValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess, err := h.svc.Start(ctx, "org-1", Handoff{Flow: FlowReturningPatient, PatientID: h.patientID})
	require.NoError(t, err)

	cases := []struct {
		name string
		in   StepInput
		want error
	}{
		{"missing center", StepInput{TreatmentID: "t-1", TreatmentDuration: 20}, ErrMissingCenter},
		{"missing treatment", StepInput{CenterID: "c-1", TreatmentDuration: 20}, ErrMissingTreatment},
		{"zero duration", StepInput{CenterID: "c-1", TreatmentID: "t-1"}, ErrInvalidDuration},
		{"negative price", StepInput{CenterID: "c-1", TreatmentID: "t-1", TreatmentDuration: 20, TreatmentPriceCents: -1}, ErrInvalidPrice},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.Complete(ctx, "org-1", sess.ID, StepSessionDetails, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err = h.svc.Complete(ctx, "org-1", sess.ID, StepSlotSelection, StepInput{})
	assert.ErrorIs(t, err, ErrStepMismatch)
}

func TestService_SessionDetailsRejectsAnotherOrgsCenter(t *testing.T) {
	h := newHarness(t)
	h.svc.centers = centerProfiles{
		"c-1": {ID: "c-1", OrgID: "org-1"},
		"c-9": {ID: "c-9", OrgID: "org-2"},
	}
	ctx := context.Background()
	sess, err := h.svc.Start(ctx, "org-1", Handoff{Flow: FlowReturningPatient, PatientID: h.patientID})
	require.NoError(t, err)

	in := sessionDetails()
	in.CenterID = "c-9"
	_, err = h.svc.Complete(ctx, "org-1", sess.ID, StepSessionDetails, in)
	assert.ErrorIs(t, err, ErrCenterNotInOrg)

	got, err := h.svc.Get(ctx, "org-1", sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StepSessionDetails, got.Step)
	assert.Empty(t, got.Data.CenterID)

	next, err := h.svc.Complete(ctx, "org-1", sess.ID, StepSessionDetails, sessionDetails())
	require.NoError(t, err)
	assert.Equal(t, "c-1", next.Data.CenterID)

	unknown := sessionDetails()
	unknown.CenterID = "c-unlisted"
	_, _, err = h.svc.Back(ctx, "org-1", sess.ID)
	require.NoError(t, err)
	_, err = h.svc.Complete(ctx, "org-1", sess.ID, StepSessionDetails, unknown)
	assert.NoError(t, err, "centers without a stored profile are not rejected")
}

func TestService_SlotSelectionRequiresDisplayedSlot(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess, err := h.svc.Start(ctx, "org-1", Handoff{Flow: FlowReturningPatient, PatientID: h.patientID})
	require.NoError(t, err)
	sess, err = h.svc.Complete(ctx, "org-1", sess.ID, StepSessionDetails, sessionDetails())
	require.NoError(t, err)

	_, err = h.svc.Complete(ctx, "org-1", sess.ID, StepSlotSelection, StepInput{SlotStart: monday.Add(10 * time.Hour)})
	assert.ErrorIs(t, err, ErrSlotUnavailable, "nothing is displayed before availability loads")

	res, err := h.svc.LoadAvailability(ctx, "org-1", sess.ID, "2025-03-10")
	require.NoError(t, err)
	assert.False(t, res.Stale)
	require.Len(t, res.View.Slots, 3)

	_, err = h.svc.Complete(ctx, "org-1", sess.ID, StepSlotSelection, StepInput{SlotStart: monday.Add(11 * time.Hour)})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	_, err = h.svc.Complete(ctx, "org-1", sess.ID, StepSlotSelection, StepInput{})
	assert.ErrorIs(t, err, ErrMissingSlot)
}

func TestService_LoadAvailabilityQueriesLocalDay(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess, err := h.svc.Start(ctx, "org-1", Handoff{Flow: FlowReturningPatient, PatientID: h.patientID})
	require.NoError(t, err)

	_, err = h.svc.LoadAvailability(ctx, "org-1", sess.ID, "2025-03-10")
	assert.ErrorIs(t, err, ErrSessionDetailsRequired)

	in := sessionDetails()
	in.Designation = "Physiotherapist"
	sess, err = h.svc.Complete(ctx, "org-1", sess.ID, StepSessionDetails, in)
	require.NoError(t, err)

	_, err = h.svc.LoadAvailability(ctx, "org-1", sess.ID, "10/03/2025")
	assert.ErrorIs(t, err, availability.ErrInvalidDate)

	_, err = h.svc.LoadAvailability(ctx, "org-1", sess.ID, "2025-03-10")
	require.NoError(t, err)
	require.NotEmpty(t, h.avail.requests)
	req := h.avail.requests[len(h.avail.requests)-1]
	assert.Equal(t, monday, req.Start)
	assert.Equal(t, monday.AddDate(0, 0, 1), req.End)
	assert.Equal(t, 20, req.ServiceDuration)
	assert.Equal(t, "Physiotherapist", req.Designation)
	assert.Equal(t, availability.Scope{CenterID: "c-1", OrgID: "org-1"}, req.Scope)
}

func TestService_LoadAvailabilityFailureIsShownNotFatal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess := h.toConfirmation(t)
	_, _, err := h.svc.Back(ctx, "org-1", sess.ID)
	require.NoError(t, err)

	h.avail.result = func(context.Context, availability.Request) ([]availability.ConsultantAvailability, error) {
		return nil, errors.New("database unavailable")
	}
	res, err := h.svc.LoadAvailability(ctx, "org-1", sess.ID, "2025-03-11")
	require.NoError(t, err)
	assert.Empty(t, res.View.Slots)
	assert.Equal(t, availabilityFailedMessage, res.View.Error)

	got, err := h.svc.Get(ctx, "org-1", sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StepSlotSelection, got.Step)
	assert.Equal(t, "2025-03-11", got.Availability.Date)
	assert.Equal(t, availabilityFailedMessage, got.Availability.Error)
}

func TestService_StaleAvailabilityIsDiscarded(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess, err := h.svc.Start(ctx, "org-1", Handoff{Flow: FlowReturningPatient, PatientID: h.patientID})
	require.NoError(t, err)
	_, err = h.svc.Complete(ctx, "org-1", sess.ID, StepSessionDetails, sessionDetails())
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	h.avail.result = func(ctx context.Context, req availability.Request) ([]availability.ConsultantAvailability, error) {
		if req.Start.Equal(monday) {
			close(started)
			<-release
		}
		return twoConsultants(ctx, req)
	}

	slow := make(chan *LoadResult, 1)
	go func() {
		res, err := h.svc.LoadAvailability(ctx, "org-1", sess.ID, "2025-03-10")
		assert.NoError(t, err)
		slow <- res
	}()
	<-started

	fast, err := h.svc.LoadAvailability(ctx, "org-1", sess.ID, "2025-03-11")
	require.NoError(t, err)
	assert.False(t, fast.Stale)

	close(release)
	stale := <-slow
	assert.True(t, stale.Stale)

	got, err := h.svc.Get(ctx, "org-1", sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-11", got.Availability.Date, "slower response for the old date must not overwrite")
}

func TestService_ConfirmFailureStaysOnStep(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess := h.toConfirmation(t)

	h.appointments.create = func(*appointments.CreateRequest) (*appointments.Appointment, error) {
		return nil, appointments.ErrSlotTaken
	}
	_, err := h.svc.Confirm(ctx, "org-1", sess.ID)
	assert.ErrorIs(t, err, ErrAppointmentNotCreated)
	assert.ErrorIs(t, err, appointments.ErrSlotTaken)

	got, err := h.svc.Get(ctx, "org-1", sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StepConfirmation, got.Step)
	assert.Empty(t, got.Data.AppointmentID)
	assert.NotEmpty(t, got.LastError)
	assert.Equal(t, h.patientID, got.Data.PatientID, "entered data is preserved for retry")
	assert.Empty(t, h.notifier.sent)

	h.appointments.create = func(*appointments.CreateRequest) (*appointments.Appointment, error) {
		return &appointments.Appointment{}, nil
	}
	_, err = h.svc.Confirm(ctx, "org-1", sess.ID)
	assert.ErrorIs(t, err, ErrAppointmentNotCreated, "a result without an id is not a booking")

	h.appointments.create = nil
	confirmed, err := h.svc.Confirm(ctx, "org-1", sess.ID)
	require.NoError(t, err, "lock must be released after a failure so the user can retry")
	assert.Equal(t, StepBookingConfirmed, confirmed.Step)
	assert.Empty(t, confirmed.LastError)
	assert.Equal(t, 3, h.appointments.calls())
}

func TestService_ConfirmFailureReturnsSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess := h.toConfirmation(t)

	h.appointments.create = func(*appointments.CreateRequest) (*appointments.Appointment, error) {
		return nil, errors.New("database unavailable")
	}
	got, err := h.svc.Confirm(ctx, "org-1", sess.ID)
	require.ErrorIs(t, err, ErrAppointmentNotCreated)
	require.NotNil(t, got)
	assert.Equal(t, StepConfirmation, got.Step)
	assert.Equal(t, "We couldn't complete your booking. Please try again.", got.LastError)
}

func TestService_ConfirmRetryAfterLostSaveDoesNotRebook(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess := h.toConfirmation(t)

	repo := appointments.NewInMemoryRepository()
	var booked []string
	h.appointments.create = func(req *appointments.CreateRequest) (*appointments.Appointment, error) {
		appt, err := repo.Create(ctx, req)
		if err == nil {
			booked = append(booked, appt.ID)
		}
		return appt, err
	}
	lossy := &lossySaveStore{MemoryStore: h.store, failSaves: 1}
	h.svc.store = lossy

	_, err := h.svc.Confirm(ctx, "org-1", sess.ID)
	require.Error(t, err)
	got, err := h.svc.Get(ctx, "org-1", sess.ID)
	require.NoError(t, err)
	require.Equal(t, StepConfirmation, got.Step, "the lost save leaves the session on confirmation")

	confirmed, err := h.svc.Confirm(ctx, "org-1", sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StepBookingConfirmed, confirmed.Step)

	require.Len(t, booked, 2)
	assert.Equal(t, booked[0], booked[1], "the retry must get the first appointment back")
	assert.Equal(t, booked[0], confirmed.Data.AppointmentID)
	for _, req := range h.appointments.requests {
		assert.Equal(t, sess.ID, req.BookingRef)
	}
}

func TestService_ConcurrentConfirmBooksOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess := h.toConfirmation(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	h.appointments.create = func(req *appointments.CreateRequest) (*appointments.Appointment, error) {
		close(entered)
		<-release
		return &appointments.Appointment{ID: "appt-1", PatientID: req.PatientID, ConsultantID: req.ConsultantID, StartTime: req.StartTime, EndTime: req.EndTime}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := h.svc.Confirm(ctx, "org-1", sess.ID)
		done <- err
	}()
	<-entered

	_, err := h.svc.Confirm(ctx, "org-1", sess.ID)
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, h.appointments.calls())

	_, err = h.svc.Confirm(ctx, "org-1", sess.ID)
	assert.ErrorIs(t, err, ErrNotConfirmable, "a confirmed session cannot be submitted again")
}

func TestService_SideEffectFailuresDoNotUndoBooking(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess := h.toConfirmation(t)
	h.notifier.err = errors.New("smtp down")

	confirmed, err := h.svc.Confirm(ctx, "org-1", sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StepBookingConfirmed, confirmed.Step)
	assert.Len(t, h.notifier.sent, 1)
}

func TestService_BackNavigation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess := h.toConfirmation(t)

	back, exited, err := h.svc.Back(ctx, "org-1", sess.ID)
	require.NoError(t, err)
	assert.False(t, exited)
	assert.Equal(t, StepSlotSelection, back.Step)
	assert.Equal(t, h.patientID, back.Data.PatientID)

	back, _, err = h.svc.Back(ctx, "org-1", sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StepSessionDetails, back.Step)

	_, exited, err = h.svc.Back(ctx, "org-1", sess.ID)
	require.NoError(t, err)
	assert.True(t, exited)
	_, err = h.svc.Get(ctx, "org-1", sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound, "leaving the wizard discards the accumulator")
}

func TestService_BackDisabledAfterConfirmation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess := h.toConfirmation(t)
	_, err := h.svc.Confirm(ctx, "org-1", sess.ID)
	require.NoError(t, err)

	_, _, err = h.svc.Back(ctx, "org-1", sess.ID)
	assert.ErrorIs(t, err, ErrBackDisabled)
	_, err = h.svc.Complete(ctx, "org-1", sess.ID, StepBookingConfirmed, StepInput{})
	assert.ErrorIs(t, err, ErrWizardComplete)
}

func TestService_ChangingSessionDetailsClearsSelection(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess := h.toConfirmation(t)

	_, _, err := h.svc.Back(ctx, "org-1", sess.ID)
	require.NoError(t, err)
	_, _, err = h.svc.Back(ctx, "org-1", sess.ID)
	require.NoError(t, err)

	in := sessionDetails()
	in.TreatmentDuration = 40
	got, err := h.svc.Complete(ctx, "org-1", sess.ID, StepSessionDetails, in)
	require.NoError(t, err)
	assert.True(t, got.Data.SelectedSlot.IsZero())
	assert.Empty(t, got.Availability.Slots)
	assert.Equal(t, 40, got.Data.TreatmentDuration)
}

func TestService_OtherOrgCannotSeeSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess, err := h.svc.Start(ctx, "org-1", Handoff{Flow: FlowNewPatient})
	require.NoError(t, err)

	_, err = h.svc.Get(ctx, "org-2", sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, h.svc.Abandon(ctx, "org-2", sess.ID), ErrSessionNotFound)
	assert.NoError(t, h.svc.Abandon(ctx, "org-1", sess.ID))
}

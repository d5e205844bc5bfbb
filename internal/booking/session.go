// Package booking implements the two-step appointment booking flow: a
// patient picks a generated slot, enters contact details and submits. The
// session is a small state machine owned by exactly one wizard instance;
// submit outcomes are typed so callers branch exhaustively instead of
// inspecting HTTP status codes.
package booking

import (
	"context"
	"sync"
	"time"

	"github.com/turnosmed/booking-engine/internal/identity"
	"github.com/turnosmed/booking-engine/internal/slots"
	"github.com/turnosmed/booking-engine/internal/turnosmed"
	"github.com/turnosmed/booking-engine/pkg/logging"
)

// Step is the wizard position.
type Step string

const (
	// StepSelectingSlot is the initial state: the patient is browsing the
	// generated slot list.
	StepSelectingSlot Step = "selecting_slot"
	// StepEnteringPatientInfo follows slot selection.
	StepEnteringPatientInfo Step = "entering_patient_info"
)

// successRedirectDelay gives the UI time to show the success indicator
// before navigating away.
const successRedirectDelay = 2 * time.Second

// PatientInfo is the contact data collected by the wizard. Owned exclusively
// by the session and cleared on successful submission.
type PatientInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Reason    string `json:"reason"`
}

// Backend is the subset of the TurnosMed client the submit flow needs.
type Backend interface {
	CreatePatient(ctx context.Context, req turnosmed.CreatePatientRequest) (*turnosmed.Patient, error)
	CreateAppointment(ctx context.Context, req turnosmed.CreateAppointmentRequest) (*turnosmed.Appointment, error)
}

// Session is one booking wizard instance. All methods are safe for
// concurrent use; a submit already in flight makes further Submit calls
// no-ops rather than queueing them.
type Session struct {
	mu sync.Mutex

	id         string
	ident      identity.Identity
	step       Step
	slot       *slots.Slot
	patient    PatientInfo
	submitting bool

	// refreshRequested signals the caller to regenerate the slot list,
	// set after a booking conflict.
	refreshRequested bool

	createdAt time.Time
	touchedAt time.Time

	backend    Backend
	logger     *logging.Logger
	metrics    Recorder
	onConflict func()
	now        func() time.Time
}

// Recorder receives submit outcome observations. Satisfied by
// *metrics.BookingMetrics; nil is a no-op.
type Recorder interface {
	ObserveSubmission(outcome string, seconds float64)
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *logging.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) SessionOption {
	return func(s *Session) { s.metrics = r }
}

// WithConflictHook installs a callback fired after a 409 so the owner can
// invalidate cached slots and trigger regeneration.
func WithConflictHook(fn func()) SessionOption {
	return func(s *Session) { s.onConflict = fn }
}

// WithClock overrides the session clock.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// NewSession creates a fresh wizard session. Contact fields are prefilled
// from the authenticated identity's known defaults, blank for anonymous
// visitors.
func NewSession(id string, ident identity.Identity, backend Backend, opts ...SessionOption) *Session {
	if backend == nil {
		panic("booking: backend required")
	}
	s := &Session{
		id:      id,
		ident:   ident,
		step:    StepSelectingSlot,
		patient: defaultsFor(ident),
		backend: backend,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Default()
	}
	s.createdAt = s.now()
	s.touchedAt = s.createdAt
	return s
}

func defaultsFor(ident identity.Identity) PatientInfo {
	if !ident.Authenticated {
		return PatientInfo{}
	}
	return PatientInfo{
		FirstName: ident.FirstName,
		LastName:  ident.LastName,
		Email:     ident.Email,
		Phone:     ident.Phone,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// SelectSlot copies the chosen slot into the session and advances to the
// patient-info step. Local state only; no network call.
func (s *Session) SelectSlot(slot slots.Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := slot
	s.slot = &copied
	s.step = StepEnteringPatientInfo
	s.touchedAt = s.now()
}

// GoBack returns to slot selection. The selected slot and patient info are
// retained so the wizard can resume where it left off.
func (s *Session) GoBack() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step == StepEnteringPatientInfo {
		s.step = StepSelectingSlot
	}
	s.touchedAt = s.now()
}

// SetPatientInfo replaces the contact data.
func (s *Session) SetPatientInfo(info PatientInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patient = info
	s.touchedAt = s.now()
}

// ConsumeRefreshRequest reports and clears the pending slot-refresh signal.
func (s *Session) ConsumeRefreshRequest() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	requested := s.refreshRequested
	s.refreshRequested = false
	return requested
}

// State is a point-in-time snapshot of the session for API responses.
type State struct {
	ID               string      `json:"id"`
	Step             Step        `json:"step"`
	SelectedSlot     *slots.Slot `json:"selectedSlot,omitempty"`
	Patient          PatientInfo `json:"patientInfo"`
	Submitting       bool        `json:"submitting"`
	RefreshRequested bool        `json:"refreshRequested"`
}

// Snapshot returns the current session state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	var slot *slots.Slot
	if s.slot != nil {
		copied := *s.slot
		slot = &copied
	}
	return State{
		ID:               s.id,
		Step:             s.step,
		SelectedSlot:     slot,
		Patient:          s.patient,
		Submitting:       s.submitting,
		RefreshRequested: s.refreshRequested,
	}
}

// touched returns the last-activity time, used for store eviction.
func (s *Session) touched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touchedAt
}

// resetLocked returns the session to a fresh SelectingSlot state with
// contact defaults restored. Caller holds s.mu.
func (s *Session) resetLocked() {
	s.step = StepSelectingSlot
	s.slot = nil
	s.patient = defaultsFor(s.ident)
	s.refreshRequested = false
}

package booking

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/turnosmed/booking-engine/internal/identity"
	"github.com/turnosmed/booking-engine/internal/slots"
	"github.com/turnosmed/booking-engine/internal/turnosmed"
)

var bookingTracer = otel.Tracer("turnosmed.internal.booking")

// defaultReason is used when the patient leaves the free-text reason blank.
const defaultReason = "Consulta médica"

// appointmentDuration is fixed by the booking surface.
const appointmentDurationMinutes = 30

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern  = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// Outcome is the submit result class.
type Outcome string

const (
	// OutcomeBooked is the terminal success: the session has been reset and
	// the caller should navigate away after RedirectAfter.
	OutcomeBooked Outcome = "booked"
	// OutcomeIgnored means a submit was already in flight; nothing happened.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeValidationFailed is a local, pre-network rejection.
	OutcomeValidationFailed Outcome = "validation_failed"
	// OutcomeConflict means the slot was taken since selection; a slot
	// refresh has been requested.
	OutcomeConflict Outcome = "conflict"
	// OutcomeNotFound means a referenced doctor or clinic vanished.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeBadRequest carries the backend's joined field errors.
	OutcomeBadRequest Outcome = "bad_request"
	// OutcomeTransient covers timeouts, connection failures and 5xx.
	OutcomeTransient Outcome = "transient"
	// OutcomeAuth means the credential was rejected; global handling
	// discards it and re-routes to login.
	OutcomeAuth Outcome = "auth"
)

// SubmitResult is the typed outcome of a submit attempt. Exactly one
// user-facing message is produced per failed attempt.
type SubmitResult struct {
	Outcome     Outcome
	Appointment *turnosmed.Appointment

	// Field names the offending input for validation failures.
	Field   string
	Message string

	// RedirectAfter tells the caller how long to show the success state
	// before navigating. Zero unless Outcome is OutcomeBooked.
	RedirectAfter time.Duration
}

// Submit validates the session, resolves the patient identity and creates
// the appointment. It is a no-op when a submit is already in flight, and
// submitting is guaranteed to return to false on every exit path.
func (s *Session) Submit(ctx context.Context) SubmitResult {
	ctx, span := bookingTracer.Start(ctx, "booking.submit")
	defer span.End()
	span.SetAttributes(attribute.String("turnosmed.session_id", s.id))

	start := s.now()

	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		span.SetAttributes(attribute.String("turnosmed.outcome", string(OutcomeIgnored)))
		return SubmitResult{Outcome: OutcomeIgnored}
	}
	if res, ok := s.validateLocked(); !ok {
		s.mu.Unlock()
		s.observe(res.Outcome, start)
		span.SetAttributes(attribute.String("turnosmed.outcome", string(res.Outcome)))
		return res
	}
	s.submitting = true
	slot := *s.slot
	info := s.patient.trimmed()
	ident := s.ident
	s.mu.Unlock()

	res := s.doSubmit(ctx, slot, info, ident)

	s.mu.Lock()
	s.submitting = false
	s.touchedAt = s.now()
	switch res.Outcome {
	case OutcomeBooked:
		s.resetLocked()
		res.RedirectAfter = successRedirectDelay
	case OutcomeConflict:
		s.refreshRequested = true
	}
	s.mu.Unlock()

	if res.Outcome == OutcomeConflict && s.onConflict != nil {
		s.onConflict()
	}
	s.observe(res.Outcome, start)
	span.SetAttributes(attribute.String("turnosmed.outcome", string(res.Outcome)))
	return res
}

// validateLocked checks the local preconditions. Caller holds s.mu. The
// second return is false when validation failed.
func (s *Session) validateLocked() (SubmitResult, bool) {
	if s.slot == nil {
		return SubmitResult{
			Outcome: OutcomeValidationFailed,
			Field:   "slot",
			Message: "No hay ningún turno seleccionado",
		}, false
	}

	info := s.patient.trimmed()
	required := []struct {
		field, value, message string
	}{
		{"firstName", info.FirstName, "El nombre es requerido"},
		{"lastName", info.LastName, "El apellido es requerido"},
		{"email", info.Email, "El email es requerido"},
		{"phone", info.Phone, "El teléfono es requerido"},
	}
	for _, r := range required {
		if r.value == "" {
			return SubmitResult{Outcome: OutcomeValidationFailed, Field: r.field, Message: r.message}, false
		}
	}
	if !emailPattern.MatchString(info.Email) {
		return SubmitResult{Outcome: OutcomeValidationFailed, Field: "email", Message: "Email inválido"}, false
	}
	return SubmitResult{}, true
}

func (s *Session) doSubmit(ctx context.Context, slot slots.Slot, info PatientInfo, ident identity.Identity) SubmitResult {
	patientID, res, ok := s.resolvePatient(ctx, info, ident)
	if !ok {
		return res
	}

	// A malformed slot date/time indicates a generator bug, never a
	// user-correctable input. Fail locally, never send it.
	if !datePattern.MatchString(slot.Date) || !timePattern.MatchString(slot.Time) {
		s.logger.Error("selected slot has malformed date/time",
			"session_id", s.id, "date", slot.Date, "time", slot.Time)
		return SubmitResult{
			Outcome: OutcomeValidationFailed,
			Field:   "slot",
			Message: "El turno seleccionado es inválido, por favor elegí otro",
		}
	}

	reason := strings.TrimSpace(info.Reason)
	if reason == "" {
		reason = defaultReason
	}

	appointment, err := s.backend.CreateAppointment(ctx, turnosmed.CreateAppointmentRequest{
		PatientID:       patientID,
		DoctorID:        slot.DoctorID,
		ClinicID:        slot.ClinicID,
		AppointmentDate: slot.Date,
		AppointmentTime: slot.Time,
		Reason:          reason,
		DurationMinutes: appointmentDurationMinutes,
	})
	if err != nil {
		s.logger.Warn("appointment creation failed",
			"session_id", s.id, "doctor_id", slot.DoctorID, "error", err)
		return classify(err)
	}

	s.logger.Info("appointment booked",
		"session_id", s.id,
		"appointment_id", appointment.ID,
		"doctor_id", slot.DoctorID,
		"date", slot.Date,
		"time", slot.Time,
	)
	return SubmitResult{Outcome: OutcomeBooked, Appointment: appointment}
}

// resolvePatient returns the patient id to book against: the authenticated
// patient's own record when known, otherwise a newly created minimal record.
// A failure here aborts the submission before any appointment request.
func (s *Session) resolvePatient(ctx context.Context, info PatientInfo, ident identity.Identity) (int64, SubmitResult, bool) {
	if ident.IsPatient() {
		return ident.PatientID, SubmitResult{}, true
	}

	patient, err := s.backend.CreatePatient(ctx, turnosmed.CreatePatientRequest{
		FirstName: info.FirstName,
		LastName:  info.LastName,
		Email:     info.Email,
		Phone:     info.Phone,
		BirthDate: nil,
		Gender:    nil,
	})
	if err != nil {
		s.logger.Warn("patient resolution failed", "session_id", s.id, "error", err)
		res := classify(err)
		if res.Message == "" {
			res.Message = "No pudimos registrar tus datos, intentá nuevamente"
		}
		return 0, res, false
	}
	return patient.ID, SubmitResult{}, true
}

// classify maps a backend error to a submit outcome with its user-facing
// message.
func classify(err error) SubmitResult {
	switch turnosmed.Classify(err) {
	case turnosmed.KindConflict:
		return SubmitResult{
			Outcome: OutcomeConflict,
			Message: "El turno seleccionado ya no está disponible, elegí otro horario",
		}
	case turnosmed.KindNotFound:
		return SubmitResult{
			Outcome: OutcomeNotFound,
			Message: "El médico o la clínica ya no están disponibles, intentá nuevamente",
		}
	case turnosmed.KindBadRequest:
		res := SubmitResult{Outcome: OutcomeBadRequest}
		var apiErr *turnosmed.APIError
		if errors.As(err, &apiErr) {
			res.Message = apiErr.JoinFieldMessages()
		}
		if res.Message == "" {
			res.Message = "La solicitud fue rechazada por el servidor"
		}
		return res
	case turnosmed.KindAuth:
		return SubmitResult{
			Outcome: OutcomeAuth,
			Message: "Tu sesión expiró, iniciá sesión nuevamente",
		}
	default:
		return SubmitResult{
			Outcome: OutcomeTransient,
			Message: "No pudimos conectar con el servidor, intentá nuevamente en unos minutos",
		}
	}
}

func (s *Session) observe(outcome Outcome, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveSubmission(string(outcome), s.now().Sub(start).Seconds())
}

// trimmed returns a copy with all contact fields whitespace-trimmed.
func (p PatientInfo) trimmed() PatientInfo {
	return PatientInfo{
		FirstName: strings.TrimSpace(p.FirstName),
		LastName:  strings.TrimSpace(p.LastName),
		Email:     strings.TrimSpace(p.Email),
		Phone:     strings.TrimSpace(p.Phone),
		Reason:    strings.TrimSpace(p.Reason),
	}
}

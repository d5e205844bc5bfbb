package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/turnosmed/booking-engine/internal/booking"
	"github.com/turnosmed/booking-engine/internal/catalog"
	"github.com/turnosmed/booking-engine/internal/identity"
	"github.com/turnosmed/booking-engine/internal/slots"
	"github.com/turnosmed/booking-engine/internal/turnosmed"
	"github.com/turnosmed/booking-engine/pkg/logging"
)

// BookingHandler exposes the wizard state machine over HTTP. Each session is
// owned by the caller that created it and addressed by its id.
type BookingHandler struct {
	store   *booking.Store
	backend booking.Backend
	loader  *catalog.Loader
	metrics booking.Recorder
	logger  *logging.Logger
}

func NewBookingHandler(store *booking.Store, backend booking.Backend, loader *catalog.Loader, m booking.Recorder, logger *logging.Logger) *BookingHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingHandler{
		store:   store,
		backend: backend,
		loader:  loader,
		metrics: m,
		logger:  logger,
	}
}

// CreateSessionRequest optionally preselects a slot so deep links can land
// directly on the patient-info step.
type CreateSessionRequest struct {
	Slot *slots.Slot `json:"slot,omitempty"`
}

// Create handles POST /api/booking/sessions.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
			return
		}
	}

	ident := identity.FromContext(r.Context())
	session := booking.NewSession(h.store.NewID(), ident, h.backend,
		booking.WithLogger(h.logger),
		booking.WithRecorder(h.metrics),
		booking.WithConflictHook(func() {
			// A conflict means the generated availability is stale. The hook
			// outlives the creating request, so it cannot use its context.
			h.loader.Invalidate(context.Background())
		}),
	)
	if req.Slot != nil {
		session.SelectSlot(*req.Slot)
	}
	h.store.Put(session)

	h.logger.Info("booking session created",
		"session_id", session.ID(), "authenticated", ident.Authenticated)
	writeJSON(w, http.StatusCreated, session.Snapshot())
}

// Get handles GET /api/booking/sessions/{id}.
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

// SelectSlot handles POST /api/booking/sessions/{id}/slot.
func (h *BookingHandler) SelectSlot(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var slot slots.Slot
	if err := json.NewDecoder(r.Body).Decode(&slot); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	session.SelectSlot(slot)
	writeJSON(w, http.StatusOK, session.Snapshot())
}

// Back handles POST /api/booking/sessions/{id}/back.
func (h *BookingHandler) Back(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	session.GoBack()
	writeJSON(w, http.StatusOK, session.Snapshot())
}

// UpdatePatient handles PUT /api/booking/sessions/{id}/patient.
func (h *BookingHandler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var info booking.PatientInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	session.SetPatientInfo(info)
	writeJSON(w, http.StatusOK, session.Snapshot())
}

// SubmitResponse is the submit payload: the typed outcome plus the
// post-submit session state.
type SubmitResponse struct {
	Outcome         booking.Outcome        `json:"outcome"`
	Message         string                 `json:"message,omitempty"`
	Field           string                 `json:"field,omitempty"`
	Appointment     *turnosmed.Appointment `json:"appointment,omitempty"`
	RedirectAfterMS int64                  `json:"redirectAfterMs,omitempty"`
	Session         booking.State          `json:"session"`
}

// Submit handles POST /api/booking/sessions/{id}/submit.
func (h *BookingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	res := session.Submit(r.Context())

	writeJSON(w, statusForOutcome(res.Outcome), SubmitResponse{
		Outcome:         res.Outcome,
		Message:         res.Message,
		Field:           res.Field,
		Appointment:     res.Appointment,
		RedirectAfterMS: res.RedirectAfter.Milliseconds(),
		Session:         session.Snapshot(),
	})
}

func statusForOutcome(outcome booking.Outcome) int {
	switch outcome {
	case booking.OutcomeBooked:
		return http.StatusCreated
	case booking.OutcomeIgnored:
		return http.StatusAccepted
	case booking.OutcomeValidationFailed, booking.OutcomeBadRequest:
		return http.StatusUnprocessableEntity
	case booking.OutcomeConflict:
		return http.StatusConflict
	case booking.OutcomeNotFound:
		return http.StatusNotFound
	case booking.OutcomeAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}

func (h *BookingHandler) session(w http.ResponseWriter, r *http.Request) (*booking.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	session, ok := h.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "sesión no encontrada o expirada")
		return nil, false
	}
	return session, true
}

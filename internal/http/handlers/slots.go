package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/turnosmed/booking-engine/internal/catalog"
	"github.com/turnosmed/booking-engine/internal/observability/metrics"
	"github.com/turnosmed/booking-engine/internal/slots"
	"github.com/turnosmed/booking-engine/pkg/logging"
)

// SlotsHandler generates and filters the bookable slot list.
type SlotsHandler struct {
	loader    *catalog.Loader
	generator *slots.Generator
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
	now       func() time.Time
}

func NewSlotsHandler(loader *catalog.Loader, generator *slots.Generator, m *metrics.BookingMetrics, logger *logging.Logger) *SlotsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if generator == nil {
		generator = slots.NewGenerator(nil, nil)
	}
	return &SlotsHandler{
		loader:    loader,
		generator: generator,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// SlotsResponse is the slot listing payload.
type SlotsResponse struct {
	Slots    []slots.Slot `json:"slots"`
	Complete bool         `json:"complete"`
}

// List handles GET /api/slots. Query params: specialtyId, doctorId,
// clinicId narrow generation; date and search narrow the generated list.
func (h *SlotsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filters slots.Filters
	var err error
	if filters.SpecialtyID, err = parseIDParam(q.Get("specialtyId")); err != nil {
		writeFieldError(w, http.StatusBadRequest, "specialtyId", "specialtyId inválido")
		return
	}
	if filters.DoctorID, err = parseIDParam(q.Get("doctorId")); err != nil {
		writeFieldError(w, http.StatusBadRequest, "doctorId", "doctorId inválido")
		return
	}
	if filters.ClinicID, err = parseIDParam(q.Get("clinicId")); err != nil {
		writeFieldError(w, http.StatusBadRequest, "clinicId", "clinicId inválido")
		return
	}

	dateFilter, err := slots.ParseDateFilter(q.Get("date"))
	if err != nil {
		writeFieldError(w, http.StatusBadRequest, "date", "filtro de fecha inválido")
		return
	}

	snap := h.loader.Load(r.Context())
	generated := h.generator.Generate(snap.Doctors, snap.Clinics, filters)
	h.metrics.ObserveSlotsGenerated(len(generated))

	filtered := slots.Apply(generated, q.Get("search"), dateFilter, h.now())
	writeJSON(w, http.StatusOK, SlotsResponse{Slots: filtered, Complete: snap.Complete})
}

// parseIDParam returns 0 for an absent param, an error for a malformed one.
func parseIDParam(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

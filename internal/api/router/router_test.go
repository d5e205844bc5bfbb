package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turnosmed/booking-engine/internal/booking"
	"github.com/turnosmed/booking-engine/internal/catalog"
	"github.com/turnosmed/booking-engine/internal/http/handlers"
	"github.com/turnosmed/booking-engine/internal/turnosmed"
	"github.com/turnosmed/booking-engine/pkg/logging"
)

type routerBackend struct{}

func (routerBackend) ListSpecialties(ctx context.Context) ([]turnosmed.Specialty, error) {
	return []turnosmed.Specialty{{ID: 3, Name: "Cardiología"}}, nil
}

func (routerBackend) ListDoctors(ctx context.Context, opts turnosmed.ListDoctorsOptions) ([]turnosmed.Doctor, error) {
	return []turnosmed.Doctor{{ID: 7, FirstName: "Laura", LastName: "Pérez", SpecialtyID: 3, ClinicID: 2}}, nil
}

func (routerBackend) ListClinics(ctx context.Context) ([]turnosmed.Clinic, error) {
	return []turnosmed.Clinic{{ID: 2, Name: "Clínica Centro"}}, nil
}

func (routerBackend) CreatePatient(ctx context.Context, req turnosmed.CreatePatientRequest) (*turnosmed.Patient, error) {
	return &turnosmed.Patient{ID: 91}, nil
}

func (routerBackend) CreateAppointment(ctx context.Context, req turnosmed.CreateAppointmentRequest) (*turnosmed.Appointment, error) {
	return &turnosmed.Appointment{ID: 501}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.Default()
	backend := routerBackend{}
	loader := catalog.NewLoader(backend, nil, logger)
	store := booking.NewStore(30 * time.Minute)

	reg := prometheus.NewRegistry()
	cfg := &Config{
		Logger:         logger,
		CatalogHandler: handlers.NewCatalogHandler(loader, logger),
		SlotsHandler:   handlers.NewSlotsHandler(loader, nil, nil, logger),
		BookingHandler: handlers.NewBookingHandler(store, backend, loader, nil, logger),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
	return New(cfg)
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestRouterCatalogEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/catalog", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var snap catalog.Snapshot
	if err := json.NewDecoder(rr.Body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode catalog response: %v", err)
	}
	if !snap.Complete {
		t.Errorf("expected complete snapshot")
	}
	if len(snap.Doctors) != 1 {
		t.Errorf("expected 1 doctor, got %d", len(snap.Doctors))
	}
}

func TestRouterSlotsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/slots?date=next7Days", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestRouterBookingSessionLifecycle(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/booking/sessions", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, rr.Code)
	}

	var state booking.State
	if err := json.NewDecoder(rr.Body).Decode(&state); err != nil {
		t.Fatalf("failed to decode session: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/booking/sessions/"+state.ID, nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/unknown", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

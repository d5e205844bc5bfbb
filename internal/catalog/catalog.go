// Package catalog loads and caches the reference data (specialties, doctors,
// clinics) that slot generation runs against.
package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/turnosmed/booking-engine/internal/turnosmed"
	"github.com/turnosmed/booking-engine/pkg/logging"
)

// Backend is the subset of the TurnosMed client the loader needs.
type Backend interface {
	ListSpecialties(ctx context.Context) ([]turnosmed.Specialty, error)
	ListDoctors(ctx context.Context, opts turnosmed.ListDoctorsOptions) ([]turnosmed.Doctor, error)
	ListClinics(ctx context.Context) ([]turnosmed.Clinic, error)
}

// Snapshot is an immutable view of the reference data. Refreshing reference
// data means loading a new snapshot and regenerating slots, never patching a
// snapshot in place.
type Snapshot struct {
	Specialties []turnosmed.Specialty `json:"specialties"`
	Doctors     []turnosmed.Doctor    `json:"doctors"`
	Clinics     []turnosmed.Clinic    `json:"clinics"`
	LoadedAt    time.Time             `json:"loaded_at"`

	// Complete is false when any of the three loads failed and defaulted
	// to empty. Incomplete snapshots are served but never cached.
	Complete bool `json:"complete"`
}

// Recorder receives load observations. Satisfied by
// *metrics.BookingMetrics; nil is a no-op.
type Recorder interface {
	ObserveCatalogLoad(source string)
}

// Loader fetches reference data, consulting the cache first.
type Loader struct {
	backend Backend
	cache   *Cache
	logger  *logging.Logger
	metrics Recorder
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) LoaderOption {
	return func(l *Loader) { l.metrics = r }
}

// NewLoader constructs a catalog loader. cache may be nil.
func NewLoader(backend Backend, cache *Cache, logger *logging.Logger, opts ...LoaderOption) *Loader {
	if backend == nil {
		panic("catalog: backend required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	l := &Loader{backend: backend, cache: cache, logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns a reference-data snapshot. The three listings are fetched
// concurrently and the snapshot is only assembled once all three have
// resolved, so slot generation never runs against partial data. A failed
// listing degrades to an empty slice rather than failing the load.
func (l *Loader) Load(ctx context.Context) *Snapshot {
	if l.cache != nil {
		if snap, ok := l.cache.Get(ctx); ok {
			l.observe("cache")
			return snap
		}
	}

	snap := &Snapshot{LoadedAt: time.Now(), Complete: true}
	var mu sync.Mutex
	var wg sync.WaitGroup

	fail := func(what string, err error) {
		mu.Lock()
		snap.Complete = false
		mu.Unlock()
		l.logger.Warn("reference data load failed", "what", what, "error", err)
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		specialties, err := l.backend.ListSpecialties(ctx)
		if err != nil {
			fail("specialties", err)
			return
		}
		mu.Lock()
		snap.Specialties = specialties
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		doctors, err := l.backend.ListDoctors(ctx, turnosmed.ListDoctorsOptions{})
		if err != nil {
			fail("doctors", err)
			return
		}
		mu.Lock()
		snap.Doctors = doctors
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		clinics, err := l.backend.ListClinics(ctx)
		if err != nil {
			fail("clinics", err)
			return
		}
		mu.Lock()
		snap.Clinics = clinics
		mu.Unlock()
	}()
	wg.Wait()

	if snap.Complete && l.cache != nil {
		l.cache.Set(ctx, snap)
	}
	l.observe("backend")
	return snap
}

func (l *Loader) observe(source string) {
	if l.metrics == nil {
		return
	}
	l.metrics.ObserveCatalogLoad(source)
}

// Invalidate drops the cached snapshot so the next Load refetches. Used after
// a booking conflict to force a fresh slot-generation pass.
func (l *Loader) Invalidate(ctx context.Context) {
	if l.cache != nil {
		l.cache.Delete(ctx)
	}
}

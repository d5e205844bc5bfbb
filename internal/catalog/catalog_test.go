package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnosmed/booking-engine/internal/turnosmed"
)

type fakeBackend struct {
	specialties    []turnosmed.Specialty
	doctors        []turnosmed.Doctor
	clinics        []turnosmed.Clinic
	specialtiesErr error
	doctorsErr     error
	clinicsErr     error

	// The loader calls the three listings from concurrent goroutines.
	mu    sync.Mutex
	calls int
}

func (f *fakeBackend) bump() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeBackend) ListSpecialties(ctx context.Context) ([]turnosmed.Specialty, error) {
	f.bump()
	return f.specialties, f.specialtiesErr
}

func (f *fakeBackend) ListDoctors(ctx context.Context, opts turnosmed.ListDoctorsOptions) ([]turnosmed.Doctor, error) {
	f.bump()
	return f.doctors, f.doctorsErr
}

func (f *fakeBackend) ListClinics(ctx context.Context) ([]turnosmed.Clinic, error) {
	f.bump()
	return f.clinics, f.clinicsErr
}

func testBackend() *fakeBackend {
	return &fakeBackend{
		specialties: []turnosmed.Specialty{{ID: 3, Name: "Cardiología"}},
		doctors:     []turnosmed.Doctor{{ID: 7, FirstName: "Laura", LastName: "Pérez", SpecialtyID: 3, ClinicID: 2}},
		clinics:     []turnosmed.Clinic{{ID: 2, Name: "Clínica Centro"}},
	}
}

func TestLoadCompleteSnapshot(t *testing.T) {
	loader := NewLoader(testBackend(), nil, nil)
	snap := loader.Load(context.Background())

	require.NotNil(t, snap)
	assert.True(t, snap.Complete)
	assert.Len(t, snap.Specialties, 1)
	assert.Len(t, snap.Doctors, 1)
	assert.Len(t, snap.Clinics, 1)
}

func TestLoadDegradesToEmptyOnPartialFailure(t *testing.T) {
	backend := testBackend()
	backend.doctorsErr = errors.New("boom")
	loader := NewLoader(backend, nil, nil)

	snap := loader.Load(context.Background())
	require.NotNil(t, snap)
	assert.False(t, snap.Complete)
	assert.Empty(t, snap.Doctors)
	assert.Len(t, snap.Clinics, 1, "healthy listings still populate")
}

func TestLoadUsesCacheOnSecondCall(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(redisClient, time.Minute, nil)

	backend := testBackend()
	loader := NewLoader(backend, cache, nil)

	ctx := context.Background()
	first := loader.Load(ctx)
	require.True(t, first.Complete)
	callsAfterFirst := backend.callCount()

	second := loader.Load(ctx)
	assert.Equal(t, callsAfterFirst, backend.callCount(), "second load must be served from cache")
	assert.Equal(t, first.Doctors, second.Doctors)
}

func TestLoadNeverCachesIncompleteSnapshot(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(redisClient, time.Minute, nil)

	backend := testBackend()
	backend.clinicsErr = errors.New("backend down")
	loader := NewLoader(backend, cache, nil)

	ctx := context.Background()
	snap := loader.Load(ctx)
	require.False(t, snap.Complete)

	_, ok := cache.Get(ctx)
	assert.False(t, ok, "incomplete snapshot must not be cached")
}

func TestInvalidateForcesRefetch(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(redisClient, time.Minute, nil)

	backend := testBackend()
	loader := NewLoader(backend, cache, nil)

	ctx := context.Background()
	loader.Load(ctx)
	callsAfterFirst := backend.callCount()

	loader.Invalidate(ctx)
	loader.Load(ctx)
	assert.Greater(t, backend.callCount(), callsAfterFirst, "invalidate must force a backend refetch")
}

func TestCacheTTLExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(redisClient, time.Minute, nil)

	ctx := context.Background()
	cache.Set(ctx, &Snapshot{Complete: true, LoadedAt: time.Now()})

	_, ok := cache.Get(ctx)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)
	_, ok = cache.Get(ctx)
	assert.False(t, ok, "entry must expire after TTL")
}

type fakeRecorder struct {
	sources []string
}

func (f *fakeRecorder) ObserveCatalogLoad(source string) {
	f.sources = append(f.sources, source)
}

func TestLoadRecordsSource(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(redisClient, time.Minute, nil)

	recorder := &fakeRecorder{}
	loader := NewLoader(testBackend(), cache, nil, WithRecorder(recorder))

	ctx := context.Background()
	loader.Load(ctx)
	loader.Load(ctx)

	assert.Equal(t, []string{"backend", "cache"}, recorder.sources)
}

func TestNilCacheIsMiss(t *testing.T) {
	var cache *Cache
	_, ok := cache.Get(context.Background())
	assert.False(t, ok)
	cache.Set(context.Background(), &Snapshot{})
	cache.Delete(context.Background())
}

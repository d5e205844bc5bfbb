// Package slots derives the candidate bookable slots offered to patients
// from reference data and the active selection filters.
//
// The backend exposes a per-doctor availability feed, but the booking surface
// synthesizes its candidate list client-side: the contract is "an arbitrary,
// non-exhaustive subset of technically-bookable times", not an authoritative
// schedule. Randomness and the clock are injected so generation is
// deterministic under test.
package slots

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/turnosmed/booking-engine/internal/turnosmed"
)

const (
	// windowDays is the candidate calendar window starting at "today".
	windowDays = 14
	// inclusionProbability thins the candidate grid to model partial
	// availability.
	inclusionProbability = 0.7

	priceMin   = 3000
	priceRange = 4000
)

// Time-of-day candidates. Day offset 0 is restricted to the afternoon set.
var (
	afternoonHours = []int{14, 15, 16, 17, 18}
	fullDayHours   = []int{8, 9, 10, 11, 14, 15, 16, 17, 18}
)

// Rand is the source of randomness for generation. *math/rand.Rand
// satisfies it; tests inject deterministic fakes.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Slot is a single bookable candidate. Immutable once generated; selecting
// a slot copies it into the booking session.
type Slot struct {
	ID            string  `json:"id"`
	DoctorID      int64   `json:"doctorId"`
	DoctorName    string  `json:"doctorName"`
	Specialty     string  `json:"specialty"`
	ClinicID      int64   `json:"clinicId"`
	ClinicName    string  `json:"clinicName"`
	ClinicAddress string  `json:"clinicAddress,omitempty"`
	Date          string  `json:"date"` // YYYY-MM-DD
	Time          string  `json:"time"` // HH:MM
	IsToday       bool    `json:"isToday"`
	Price         int     `json:"price"`
	Rating        float64 `json:"rating"`
}

// Filters narrows generation to a specialty, doctor and/or clinic.
type Filters struct {
	SpecialtyID int64
	DoctorID    int64
	ClinicID    int64
}

// Generator produces candidate slots from reference data.
type Generator struct {
	rand Rand
	now  func() time.Time
}

// NewGenerator constructs a generator. A nil rand source falls back to a
// time-seeded math/rand source; a nil clock falls back to time.Now.
func NewGenerator(r Rand, now func() time.Time) *Generator {
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{rand: r, now: now}
}

// Generate derives the ordered candidate list for the given reference data
// and filters. Empty reference data degrades to an empty list, never an
// error: the caller owns retry of the reference load.
func (g *Generator) Generate(doctors []turnosmed.Doctor, clinics []turnosmed.Clinic, f Filters) []Slot {
	now := g.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var out []Slot
	for offset := 0; offset < windowDays; offset++ {
		day := today.AddDate(0, 0, offset)
		if day.Weekday() == time.Sunday {
			continue
		}

		hours := fullDayHours
		if offset == 0 {
			hours = afternoonHours
		}

		for _, hour := range hours {
			if offset == 0 {
				instant := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
				if !instant.After(now) {
					continue
				}
			}
			if g.rand.Float64() >= inclusionProbability {
				continue
			}

			doctor, ok := g.resolveDoctor(doctors, f)
			if !ok {
				continue
			}
			clinic, ok := g.resolveClinic(clinics, doctor, f)
			if !ok {
				continue
			}

			date := day.Format("2006-01-02")
			hhmm := fmt.Sprintf("%02d:00", hour)
			out = append(out, Slot{
				ID:            fmt.Sprintf("%d-%s-%s", doctor.ID, date, hhmm),
				DoctorID:      doctor.ID,
				DoctorName:    doctor.FullName(),
				Specialty:     doctor.SpecialtyName,
				ClinicID:      clinic.ID,
				ClinicName:    clinic.Name,
				ClinicAddress: clinic.Address,
				Date:          date,
				Time:          hhmm,
				IsToday:       offset == 0,
				Price:         priceMin + g.rand.Intn(priceRange),
				Rating:        math.Round((4.5+g.rand.Float64()*0.5)*10) / 10,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out
}

// resolveDoctor picks the doctor for a candidate pair: explicit filter first,
// then a random doctor within the specialty filter, then any doctor.
func (g *Generator) resolveDoctor(doctors []turnosmed.Doctor, f Filters) (turnosmed.Doctor, bool) {
	if f.DoctorID != 0 {
		for _, d := range doctors {
			if d.ID == f.DoctorID {
				return d, true
			}
		}
		return turnosmed.Doctor{}, false
	}
	if f.SpecialtyID != 0 {
		var matching []turnosmed.Doctor
		for _, d := range doctors {
			if d.SpecialtyID == f.SpecialtyID {
				matching = append(matching, d)
			}
		}
		if len(matching) == 0 {
			return turnosmed.Doctor{}, false
		}
		return matching[g.rand.Intn(len(matching))], true
	}
	if len(doctors) == 0 {
		return turnosmed.Doctor{}, false
	}
	return doctors[g.rand.Intn(len(doctors))], true
}

// resolveClinic picks the clinic: explicit filter, then the doctor's home
// clinic, then any clinic.
func (g *Generator) resolveClinic(clinics []turnosmed.Clinic, doctor turnosmed.Doctor, f Filters) (turnosmed.Clinic, bool) {
	if f.ClinicID != 0 {
		for _, c := range clinics {
			if c.ID == f.ClinicID {
				return c, true
			}
		}
	}
	if doctor.ClinicID != 0 {
		for _, c := range clinics {
			if c.ID == doctor.ClinicID {
				return c, true
			}
		}
	}
	if len(clinics) == 0 {
		return turnosmed.Clinic{}, false
	}
	return clinics[g.rand.Intn(len(clinics))], true
}

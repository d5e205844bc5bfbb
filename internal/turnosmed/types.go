// Package turnosmed contains the TurnosMed backend REST client and its
// wire types. All list and entity responses arrive enveloped as {"data": ...}.
package turnosmed

// Specialty is a medical specialty offered by at least one doctor.
type Specialty struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Doctor is the denormalized doctor record served by the backend: specialty
// and home clinic names are embedded so callers don't join reference data.
type Doctor struct {
	ID            int64  `json:"id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	SpecialtyID   int64  `json:"specialty_id"`
	SpecialtyName string `json:"specialty_name,omitempty"`
	ClinicID      int64  `json:"clinic_id"`
	ClinicName    string `json:"clinic_name,omitempty"`
}

// FullName returns the doctor's display name.
func (d Doctor) FullName() string {
	return d.FirstName + " " + d.LastName
}

// Clinic is a physical clinic location.
type Clinic struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// Patient is the backend patient record. Clinical fields are pointers so a
// booking-flow creation can send them explicitly null.
type Patient struct {
	ID        int64   `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	BirthDate *string `json:"birth_date,omitempty"`
	Gender    *string `json:"gender,omitempty"`
}

// CreatePatientRequest creates a minimal patient from booking contact info.
// BirthDate and Gender are always serialized (as null when unset) because the
// backend's validation layer expects the keys to be present.
type CreatePatientRequest struct {
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	BirthDate *string `json:"birthDate"`
	Gender    *string `json:"gender"`
}

// Appointment statuses used by the backend.
const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

// Appointment is a booked appointment as returned by the backend.
type Appointment struct {
	ID              int64  `json:"id"`
	PatientID       int64  `json:"patient_id"`
	DoctorID        int64  `json:"doctor_id"`
	ClinicID        int64  `json:"clinic_id"`
	AppointmentDate string `json:"appointment_date"` // YYYY-MM-DD
	AppointmentTime string `json:"appointment_time"` // HH:MM
	Reason          string `json:"reason,omitempty"`
	DurationMinutes int    `json:"duration,omitempty"`
	Status          string `json:"status,omitempty"`
}

// CreateAppointmentRequest is the appointment-creation payload.
type CreateAppointmentRequest struct {
	PatientID       int64  `json:"patientId"`
	DoctorID        int64  `json:"doctorId"`
	ClinicID        int64  `json:"clinicId"`
	AppointmentDate string `json:"appointmentDate"` // YYYY-MM-DD
	AppointmentTime string `json:"appointmentTime"` // HH:MM
	Reason          string `json:"reason"`
	DurationMinutes int    `json:"duration"`
}

// AvailableTime is one bookable time for a doctor on a given date.
type AvailableTime struct {
	Time string `json:"time"` // HH:MM
}

// Availability is the per-doctor, per-date availability feed.
type Availability struct {
	AvailableSlots []AvailableTime `json:"available_slots"`
}

// ListDoctorsOptions filters the doctor listing.
type ListDoctorsOptions struct {
	SpecialtyID int64
}

package scheduling

import (
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotFree     SlotStatus = "free"
	SlotBooked   SlotStatus = "booked"
	SlotCanceled SlotStatus = "canceled"
)

type AppointmentStatus string

const (
	StatusScheduled       AppointmentStatus = "scheduled"
	StatusCompleted       AppointmentStatus = "completed"
	StatusCanceled        AppointmentStatus = "canceled"
	StatusFollowUpPending AppointmentStatus = "follow_up_pending"
)

// IsTerminal reports whether the status blocks no further bookings
// between the same patient and doctor.
func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

type ConsultKind string

const (
	ConsultInPerson ConsultKind = "in_person"
	ConsultRemote   ConsultKind = "remote"
)

type BillingKind string

const (
	BillingPrivate   BillingKind = "private"
	BillingInsurance BillingKind = "insurance"
)

// RemoteFacility is the implicit facility recorded for remote consultations.
const RemoteFacility = "Remote consultation"

type Patient struct {
	ID        uuid.UUID
	Name      string
	Phone     *string
	BirthDate *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Doctor struct {
	ID        uuid.UUID
	Name      string
	Specialty *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Slot is one bookable (doctor, date, time) unit. Date is stored in the
// canonical DD-MM-YYYY form, Time as HH:MM.
type Slot struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	Date      string
	Time      string
	Status    SlotStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Appointment links a patient, a doctor and (usually) a slot.
// ScheduledAt is the combined "DD-MM-YYYY HH:MM" string.
type Appointment struct {
	ID          uuid.UUID
	PatientID   uuid.UUID
	DoctorID    uuid.UUID
	SlotID      *uuid.UUID
	ScheduledAt string
	Kind        ConsultKind
	Billing     BillingKind
	Insurance   *string
	Symptoms    *string
	Facility    string
	Status      AppointmentStatus
	BookingKey  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FollowUp is the single follow-up record attached to an appointment.
// Re-scheduling replaces it in place.
type FollowUp struct {
	AppointmentID uuid.UUID
	Date          string
	Time          string
	Notes         *string
	Kind          ConsultKind
	Facility      *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PatientSummary and DoctorSummary are the denormalized display blocks
// attached to listed appointments. Lookups that fail degrade to the
// placeholder name instead of aborting the list.
type PatientSummary struct {
	Name      string  `json:"name"`
	Phone     *string `json:"phone,omitempty"`
	BirthDate *string `json:"birth_date,omitempty"`
}

type DoctorSummary struct {
	Name      string  `json:"name"`
	Specialty *string `json:"specialty,omitempty"`
}

type AppointmentDetail struct {
	Appointment
	Patient  *PatientSummary
	Doctor   *DoctorSummary
	FollowUp *FollowUp
}

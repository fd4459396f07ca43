package scheduling

import (
	"context"

	"github.com/google/uuid"
)

// Repository contains all storage interactions needed by the scheduling
// services. Status-changing methods are conditional: they only apply when
// the row is currently in one of the given from-statuses, and report
// not-found when nothing matched. Services re-read to produce a precise
// error, so a lost race never turns into a silent overwrite.
type Repository interface {
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)

	CreateSlot(ctx context.Context, slot Slot) (*Slot, error)
	GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	// FindSlotByKey returns the slot at (doctor, date, time) regardless of
	// status, for duplicate detection and reactivation.
	FindSlotByKey(ctx context.Context, doctorID uuid.UUID, date, clock string) (*Slot, error)
	UpdateSlotStatus(ctx context.Context, id uuid.UUID, to SlotStatus, from ...SlotStatus) (*Slot, error)
	ListSlotsByDoctor(ctx context.Context, doctorID uuid.UUID, status SlotStatus) ([]Slot, error)
	ListFreeSlots(ctx context.Context) ([]Slot, error)

	CreateAppointment(ctx context.Context, appt Appointment) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAppointmentByBookingKey(ctx context.Context, patientID uuid.UUID, key string) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, to AppointmentStatus, from ...AppointmentStatus) (*Appointment, error)
	ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)
	ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error)
	ListAllAppointments(ctx context.Context) ([]Appointment, error)

	// Conflict-guard queries.
	FindNonTerminalBySlot(ctx context.Context, slotID uuid.UUID) ([]Appointment, error)
	FindDoctorTimeConflict(ctx context.Context, doctorID uuid.UUID, scheduledAt string) (*Appointment, error)
	FindOutstanding(ctx context.Context, patientID, doctorID uuid.UUID) (*Appointment, error)

	// FindStranded returns non-terminal appointments whose slot has been
	// canceled, for the reconciliation sweep.
	FindStranded(ctx context.Context) ([]Appointment, error)

	UpsertFollowUp(ctx context.Context, rec FollowUp) (*FollowUp, error)
	GetFollowUp(ctx context.Context, appointmentID uuid.UUID) (*FollowUp, error)
}

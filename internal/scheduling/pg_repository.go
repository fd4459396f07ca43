package scheduling

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgRepository implements Repository on Postgres. Every state transition
// is a single-row conditional UPDATE; no method opens a multi-row
// transaction, matching the document-store design the service was built
// against.
type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Scan helpers

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Phone, &p.BirthDate, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Specialty, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return &d, nil
}

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot
	err := row.Scan(&s.ID, &s.DoctorID, &s.Date, &s.Time, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return &s, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.SlotID,
		&a.ScheduledAt,
		&a.Kind,
		&a.Billing,
		&a.Insurance,
		&a.Symptoms,
		&a.Facility,
		&a.Status,
		&a.BookingKey,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func scanFollowUp(row pgx.Row) (*FollowUp, error) {
	var f FollowUp
	err := row.Scan(&f.AppointmentID, &f.Date, &f.Time, &f.Notes, &f.Kind, &f.Facility, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFollowUpNotFound
		}
		return nil, err
	}
	return &f, nil
}

const appointmentColumns = `
	id, patient_id, doctor_id, slot_id, scheduled_at, kind, billing,
	insurance, symptoms, facility, status, booking_key, created_at, updated_at`

func (r *PgRepository) collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) collectSlots(rows pgx.Rows) ([]Slot, error) {
	defer rows.Close()

	var result []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func statusStrings[S ~string](in []S) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}

// Profiles

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, phone, birth_date, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

// Slots

func (r *PgRepository) CreateSlot(ctx context.Context, slot Slot) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO availability_slots (id, doctor_id, slot_date, slot_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id, doctor_id, slot_date, slot_time, status, created_at, updated_at
	`, slot.ID, slot.DoctorID, slot.Date, slot.Time, slot.Status)
	return scanSlot(row)
}

func (r *PgRepository) GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, slot_date, slot_time, status, created_at, updated_at
		FROM availability_slots
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

func (r *PgRepository) FindSlotByKey(ctx context.Context, doctorID uuid.UUID, date, clock string) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, slot_date, slot_time, status, created_at, updated_at
		FROM availability_slots
		WHERE doctor_id = $1 AND slot_date = $2 AND slot_time = $3
		LIMIT 1
	`, doctorID, date, clock)
	return scanSlot(row)
}

func (r *PgRepository) UpdateSlotStatus(ctx context.Context, id uuid.UUID, to SlotStatus, from ...SlotStatus) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE availability_slots
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = ANY($3)
		RETURNING id, doctor_id, slot_date, slot_time, status, created_at, updated_at
	`, id, to, statusStrings(from))
	return scanSlot(row)
}

func (r *PgRepository) ListSlotsByDoctor(ctx context.Context, doctorID uuid.UUID, status SlotStatus) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, slot_date, slot_time, status, created_at, updated_at
		FROM availability_slots
		WHERE doctor_id = $1 AND status = $2
	`, doctorID, status)
	if err != nil {
		return nil, err
	}
	return r.collectSlots(rows)
}

func (r *PgRepository) ListFreeSlots(ctx context.Context) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, slot_date, slot_time, status, created_at, updated_at
		FROM availability_slots
		WHERE status = 'free'
	`)
	if err != nil {
		return nil, err
	}
	return r.collectSlots(rows)
}

// Appointments

func (r *PgRepository) CreateAppointment(ctx context.Context, appt Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (
			id, patient_id, doctor_id, slot_id, scheduled_at, kind, billing,
			insurance, symptoms, facility, status, booking_key, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())
		RETURNING`+appointmentColumns, appt.ID, appt.PatientID, appt.DoctorID, appt.SlotID,
		appt.ScheduledAt, appt.Kind, appt.Billing, appt.Insurance, appt.Symptoms,
		appt.Facility, appt.Status, appt.BookingKey)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentByBookingKey(ctx context.Context, patientID uuid.UUID, key string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1 AND booking_key = $2
		LIMIT 1
	`, patientID, key)
	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, to AppointmentStatus, from ...AppointmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = ANY($3)
		RETURNING`+appointmentColumns, id, to, statusStrings(from))
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
	`, patientID)
	if err != nil {
		return nil, err
	}
	return r.collectAppointments(rows)
}

func (r *PgRepository) ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
	`, doctorID)
	if err != nil {
		return nil, err
	}
	return r.collectAppointments(rows)
}

func (r *PgRepository) ListAllAppointments(ctx context.Context) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments
	`)
	if err != nil {
		return nil, err
	}
	return r.collectAppointments(rows)
}

func (r *PgRepository) FindNonTerminalBySlot(ctx context.Context, slotID uuid.UUID) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments
		WHERE slot_id = $1
		  AND status IN ('scheduled', 'follow_up_pending')
	`, slotID)
	if err != nil {
		return nil, err
	}
	return r.collectAppointments(rows)
}

func (r *PgRepository) FindDoctorTimeConflict(ctx context.Context, doctorID uuid.UUID, scheduledAt string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		  AND scheduled_at = $2
		  AND status IN ('scheduled', 'completed')
		LIMIT 1
	`, doctorID, scheduledAt)
	return scanAppointment(row)
}

func (r *PgRepository) FindOutstanding(ctx context.Context, patientID, doctorID uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		  AND doctor_id = $2
		  AND status IN ('scheduled', 'follow_up_pending')
		LIMIT 1
	`, patientID, doctorID)
	return scanAppointment(row)
}

func (r *PgRepository) FindStranded(ctx context.Context) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.patient_id, a.doctor_id, a.slot_id, a.scheduled_at, a.kind,
		       a.billing, a.insurance, a.symptoms, a.facility, a.status,
		       a.booking_key, a.created_at, a.updated_at
		FROM appointments a
		JOIN availability_slots s ON s.id = a.slot_id
		WHERE a.status IN ('scheduled', 'follow_up_pending')
		  AND s.status = 'canceled'
	`)
	if err != nil {
		return nil, err
	}
	return r.collectAppointments(rows)
}

// Follow-ups

func (r *PgRepository) UpsertFollowUp(ctx context.Context, rec FollowUp) (*FollowUp, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO follow_ups (appointment_id, fu_date, fu_time, notes, kind, facility, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (appointment_id) DO UPDATE SET
			fu_date = EXCLUDED.fu_date,
			fu_time = EXCLUDED.fu_time,
			notes = EXCLUDED.notes,
			kind = EXCLUDED.kind,
			facility = EXCLUDED.facility,
			updated_at = now()
		RETURNING appointment_id, fu_date, fu_time, notes, kind, facility, created_at, updated_at
	`, rec.AppointmentID, rec.Date, rec.Time, rec.Notes, rec.Kind, rec.Facility)
	return scanFollowUp(row)
}

func (r *PgRepository) GetFollowUp(ctx context.Context, appointmentID uuid.UUID) (*FollowUp, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT appointment_id, fu_date, fu_time, notes, kind, facility, created_at, updated_at
		FROM follow_ups
		WHERE appointment_id = $1
	`, appointmentID)
	return scanFollowUp(row)
}

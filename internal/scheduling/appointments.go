package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medagenda/clinic-scheduling/internal/auth"
	redisclient "github.com/medagenda/clinic-scheduling/internal/redis"
)

// AppointmentService owns the appointment state machine:
//
//	scheduled -> canceled | completed
//	completed -> follow_up_pending
//	follow_up_pending -> completed | canceled | follow_up_pending (re-schedule)
//
// Every other transition fails closed.
type AppointmentService struct {
	repo   Repository
	guard  *Guard
	locker redisclient.Locker
	log    zerolog.Logger
}

func NewAppointmentService(repo Repository, guard *Guard, locker redisclient.Locker, log zerolog.Logger) *AppointmentService {
	return &AppointmentService{
		repo:   repo,
		guard:  guard,
		locker: locker,
		log:    log.With().Str("component", "appointments").Logger(),
	}
}

// BookRequest carries everything a patient submits when booking.
// BookingKey is an optional client-generated idempotency token; repeating
// a book with the same key returns the appointment created the first time.
type BookRequest struct {
	DoctorID   uuid.UUID
	SlotID     uuid.UUID
	Kind       ConsultKind
	Billing    BillingKind
	Insurance  string
	Symptoms   string
	Facility   string
	BookingKey string
}

// Book reserves the slot and creates the appointment. The slot-state
// check, the conflict checks and the insert run under a per-slot lock, and
// the free->booked transition itself is a conditional update, so exactly
// one concurrent booking can win a slot.
func (s *AppointmentService) Book(ctx context.Context, p auth.Principal, req BookRequest) (*Appointment, error) {
	if p.Role != auth.RolePatient {
		return nil, ErrNotPatient
	}
	if !p.EmailVerified {
		return nil, ErrEmailNotVerified
	}
	if req.DoctorID == uuid.Nil || req.SlotID == uuid.Nil {
		return nil, ErrMissingField
	}

	kind := req.Kind
	if kind == "" {
		kind = ConsultInPerson
	}
	if kind != ConsultInPerson && kind != ConsultRemote {
		return nil, ErrBadKind
	}

	billing := req.Billing
	if billing == "" {
		billing = BillingPrivate
	}
	if billing != BillingPrivate && billing != BillingInsurance {
		return nil, ErrBadBilling
	}

	facility := req.Facility
	if kind == ConsultRemote {
		facility = RemoteFacility
	} else if facility == "" {
		return nil, ErrNoFacility
	}

	if req.BookingKey != "" {
		prior, err := s.repo.GetAppointmentByBookingKey(ctx, p.UserID, req.BookingKey)
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			return nil, fmt.Errorf("look up booking key: %w", err)
		}
		if prior != nil {
			return prior, nil
		}
	}

	slot, err := s.repo.GetSlotByID(ctx, req.SlotID)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load slot: %w", err)
	}
	if slot.DoctorID != req.DoctorID {
		return nil, ErrSlotDoctorMismatch
	}
	if slot.Status != SlotFree {
		return nil, ErrSlotNotFree
	}

	scheduledAt := CombineDateTime(slot.Date, slot.Time)

	var created *Appointment
	err = s.locker.WithSlotLock(ctx, req.SlotID, func(lockCtx context.Context) error {
		if err := s.guard.CheckSlotTime(lockCtx, req.DoctorID, scheduledAt); err != nil {
			return err
		}
		if err := s.guard.CheckOutstanding(lockCtx, p.UserID, req.DoctorID); err != nil {
			return err
		}

		// The conditional free->booked update is the real reservation;
		// a lost race surfaces here, never as an overwrite.
		if _, err := s.repo.UpdateSlotStatus(lockCtx, req.SlotID, SlotBooked, SlotFree); err != nil {
			if errors.Is(err, ErrSlotNotFound) {
				return ErrSlotNotFree
			}
			return fmt.Errorf("reserve slot: %w", err)
		}

		slotID := req.SlotID
		appt := Appointment{
			ID:          uuid.New(),
			PatientID:   p.UserID,
			DoctorID:    req.DoctorID,
			SlotID:      &slotID,
			ScheduledAt: scheduledAt,
			Kind:        kind,
			Billing:     billing,
			Facility:    facility,
			Status:      StatusScheduled,
		}
		if req.Symptoms != "" {
			appt.Symptoms = &req.Symptoms
		}
		if billing == BillingInsurance && req.Insurance != "" {
			appt.Insurance = &req.Insurance
		}
		if req.BookingKey != "" {
			appt.BookingKey = &req.BookingKey
		}

		created, err = s.repo.CreateAppointment(lockCtx, appt)
		if err != nil {
			// Hand the slot back so a failed insert does not strand it.
			if _, relErr := s.repo.UpdateSlotStatus(lockCtx, req.SlotID, SlotFree, SlotBooked); relErr != nil {
				s.log.Error().Err(relErr).Stringer("slot_id", req.SlotID).Msg("could not release slot after failed insert")
			}
			return fmt.Errorf("create appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotContended
		}
		return nil, err
	}

	s.log.Info().
		Stringer("appointment_id", created.ID).
		Stringer("patient_id", p.UserID).
		Stringer("doctor_id", req.DoctorID).
		Str("scheduled_at", scheduledAt).
		Msg("appointment booked")
	return created, nil
}

// Cancel moves a scheduled or follow-up-pending appointment to canceled
// and releases its slot. Only the patient or the doctor on the appointment
// may cancel.
func (s *AppointmentService) Cancel(ctx context.Context, p auth.Principal, appointmentID uuid.UUID) (*Appointment, error) {
	appt, err := s.load(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if p.UserID != appt.PatientID && p.UserID != appt.DoctorID {
		return nil, ErrNotInvolved
	}

	updated, err := s.transition(ctx, appt, StatusCanceled)
	if err != nil {
		return nil, err
	}

	if appt.SlotID != nil {
		// Whatever state the slot drifted into, cancellation leaves it free.
		if _, err := s.repo.UpdateSlotStatus(ctx, *appt.SlotID, SlotFree, SlotBooked, SlotCanceled); err != nil && !errors.Is(err, ErrSlotNotFound) {
			s.log.Warn().Err(err).Stringer("slot_id", *appt.SlotID).Msg("could not release slot on cancel")
		}
	}

	s.log.Info().Stringer("appointment_id", appointmentID).Msg("appointment canceled")
	return updated, nil
}

// Complete marks the appointment done. Only the assigned doctor may do
// this, and the slot is left untouched.
func (s *AppointmentService) Complete(ctx context.Context, p auth.Principal, appointmentID uuid.UUID) (*Appointment, error) {
	appt, err := s.load(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if p.Role != auth.RoleDoctor || p.UserID != appt.DoctorID {
		return nil, ErrNotAssigned
	}

	updated, err := s.transition(ctx, appt, StatusCompleted)
	if err != nil {
		return nil, err
	}

	s.log.Info().Stringer("appointment_id", appointmentID).Msg("appointment completed")
	return updated, nil
}

// List returns the appointments visible to the principal: patients and
// doctors see their own, admins see everything (optionally filtered by
// doctor). Display data is denormalized per row and degrades to
// placeholders when a lookup fails.
func (s *AppointmentService) List(ctx context.Context, p auth.Principal, doctorFilter *uuid.UUID) ([]AppointmentDetail, error) {
	var (
		appts []Appointment
		err   error
	)

	switch p.Role {
	case auth.RolePatient:
		appts, err = s.repo.ListAppointmentsByPatient(ctx, p.UserID)
	case auth.RoleDoctor:
		appts, err = s.repo.ListAppointmentsByDoctor(ctx, p.UserID)
	case auth.RoleAdmin:
		if doctorFilter != nil {
			appts, err = s.repo.ListAppointmentsByDoctor(ctx, *doctorFilter)
		} else {
			appts, err = s.repo.ListAllAppointments(ctx)
		}
	default:
		return nil, ErrRoleUnknown
	}
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	details := make([]AppointmentDetail, 0, len(appts))
	for _, appt := range appts {
		details = append(details, s.enrich(ctx, appt))
	}

	sort.SliceStable(details, func(i, j int) bool {
		di, ci, errI := SplitDateTime(details[i].ScheduledAt)
		dj, cj, errJ := SplitDateTime(details[j].ScheduledAt)
		if errI != nil || errJ != nil {
			return errJ != nil && errI == nil
		}
		return CompareDateTime(di, ci, dj, cj) < 0
	})

	return details, nil
}

// enrich attaches display data to one appointment. Each lookup fails
// independently: a missing profile becomes a placeholder, a missing
// follow-up stays nil, and a canceled slot under a still-live appointment
// masks the row as canceled until the reconcile sweep heals it.
func (s *AppointmentService) enrich(ctx context.Context, appt Appointment) AppointmentDetail {
	detail := AppointmentDetail{Appointment: appt}

	if patient, err := s.repo.GetPatientByID(ctx, appt.PatientID); err == nil {
		detail.Patient = &PatientSummary{Name: patient.Name, Phone: patient.Phone, BirthDate: patient.BirthDate}
	} else {
		if !errors.Is(err, ErrPatientNotFound) {
			s.log.Warn().Err(err).Stringer("appointment_id", appt.ID).Msg("patient lookup failed")
		}
		detail.Patient = &PatientSummary{Name: "unknown patient"}
	}

	if doctor, err := s.repo.GetDoctorByID(ctx, appt.DoctorID); err == nil {
		detail.Doctor = &DoctorSummary{Name: doctor.Name, Specialty: doctor.Specialty}
	} else {
		if !errors.Is(err, ErrDoctorNotFound) {
			s.log.Warn().Err(err).Stringer("appointment_id", appt.ID).Msg("doctor lookup failed")
		}
		detail.Doctor = &DoctorSummary{Name: "unknown doctor"}
	}

	if fu, err := s.repo.GetFollowUp(ctx, appt.ID); err == nil {
		detail.FollowUp = fu
	} else if !errors.Is(err, ErrFollowUpNotFound) {
		s.log.Warn().Err(err).Stringer("appointment_id", appt.ID).Msg("follow-up lookup failed")
	}

	if appt.SlotID != nil && !appt.Status.IsTerminal() {
		if slot, err := s.repo.GetSlotByID(ctx, *appt.SlotID); err == nil && slot.Status == SlotCanceled {
			detail.Status = StatusCanceled
		}
	}

	return detail
}

func (s *AppointmentService) load(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	if id == uuid.Nil {
		return nil, ErrMissingField
	}
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	return appt, nil
}

// transition applies a conditional status update from the two non-terminal
// states. A no-row result means the state changed underneath us; re-read
// to fail with the precise reason.
func (s *AppointmentService) transition(ctx context.Context, appt *Appointment, to AppointmentStatus) (*Appointment, error) {
	if appt.Status != StatusScheduled && appt.Status != StatusFollowUpPending {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, to, StatusScheduled, StatusFollowUpPending)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}
	return updated, nil
}

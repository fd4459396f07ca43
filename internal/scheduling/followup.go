package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medagenda/clinic-scheduling/internal/auth"
)

// FollowUpScheduler manages the single follow-up record attached to an
// appointment. Scheduling again replaces the record in place; there is
// never more than one live follow-up per appointment.
type FollowUpScheduler struct {
	repo Repository
	log  zerolog.Logger
}

func NewFollowUpScheduler(repo Repository, log zerolog.Logger) *FollowUpScheduler {
	return &FollowUpScheduler{
		repo: repo,
		log:  log.With().Str("component", "follow_up").Logger(),
	}
}

type FollowUpRequest struct {
	Date     string
	Time     string
	Notes    string
	Kind     ConsultKind
	Facility string
}

// Schedule attaches or replaces the follow-up for a completed appointment
// and moves it to follow_up_pending. The target must be strictly after the
// original appointment and on a different calendar day.
func (f *FollowUpScheduler) Schedule(ctx context.Context, p auth.Principal, appointmentID uuid.UUID, req FollowUpRequest) (*FollowUp, error) {
	if appointmentID == uuid.Nil || req.Date == "" || req.Time == "" {
		return nil, ErrMissingField
	}

	kind := req.Kind
	if kind == "" {
		kind = ConsultInPerson
	}
	if kind != ConsultInPerson && kind != ConsultRemote {
		return nil, ErrBadKind
	}
	if kind == ConsultInPerson && req.Facility == "" {
		return nil, ErrNoFacility
	}

	date, err := NormalizeDate(req.Date)
	if err != nil {
		return nil, err
	}
	clock, err := NormalizeTime(req.Time)
	if err != nil {
		return nil, err
	}

	appt, err := f.repo.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if p.Role != auth.RoleDoctor || p.UserID != appt.DoctorID {
		return nil, ErrNotAssigned
	}
	if appt.Status != StatusCompleted && appt.Status != StatusFollowUpPending {
		return nil, ErrInvalidTransition
	}

	if err := CheckFollowUpOrdering(appt.ScheduledAt, date, clock); err != nil {
		return nil, err
	}

	rec := FollowUp{
		AppointmentID: appointmentID,
		Date:          date,
		Time:          clock,
		Kind:          kind,
	}
	if req.Notes != "" {
		rec.Notes = &req.Notes
	}
	if kind == ConsultInPerson {
		rec.Facility = &req.Facility
	}

	saved, err := f.repo.UpsertFollowUp(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("save follow-up: %w", err)
	}

	if _, err := f.repo.UpdateAppointmentStatus(ctx, appointmentID, StatusFollowUpPending, StatusCompleted, StatusFollowUpPending); err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("mark follow-up pending: %w", err)
	}

	f.log.Info().
		Stringer("appointment_id", appointmentID).
		Str("date", date).
		Str("time", clock).
		Msg("follow-up scheduled")
	return saved, nil
}

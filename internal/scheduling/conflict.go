package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Guard holds the cross-cutting conflict rules consulted by the booking
// and follow-up paths.
type Guard struct {
	repo Repository
}

func NewGuard(repo Repository) *Guard {
	return &Guard{repo: repo}
}

// CheckSlotTime rejects when the doctor already has an appointment at the
// exact date+time in a state that occupies it (scheduled or completed).
func (g *Guard) CheckSlotTime(ctx context.Context, doctorID uuid.UUID, scheduledAt string) error {
	existing, err := g.repo.FindDoctorTimeConflict(ctx, doctorID, scheduledAt)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil
		}
		return fmt.Errorf("check time conflict: %w", err)
	}
	if existing != nil {
		return ErrTimeOccupied
	}
	return nil
}

// CheckOutstanding rejects when a non-terminal appointment already links
// the pair, distinguishing a pending follow-up from an active consultation
// so the caller can render the right message.
func (g *Guard) CheckOutstanding(ctx context.Context, patientID, doctorID uuid.UUID) error {
	existing, err := g.repo.FindOutstanding(ctx, patientID, doctorID)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil
		}
		return fmt.Errorf("check outstanding appointment: %w", err)
	}
	if existing == nil {
		return nil
	}
	if existing.Status == StatusFollowUpPending {
		return ErrPendingFollowUp
	}
	return ErrActiveConsult
}

// CheckFollowUpOrdering validates a proposed follow-up against the original
// appointment: strictly later, and never on the same calendar day.
func CheckFollowUpOrdering(originalScheduledAt, proposedDate, proposedClock string) error {
	origDate, origClock, err := SplitDateTime(originalScheduledAt)
	if err != nil {
		return err
	}
	if SameCalendarDay(origDate, proposedDate) {
		return ErrFollowUpSameDay
	}
	if CompareDateTime(proposedDate, proposedClock, origDate, origClock) <= 0 {
		return ErrFollowUpNotLater
	}
	return nil
}

package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medagenda/clinic-scheduling/internal/auth"
)

// SlotRegistry owns availability slots: creation, cancellation,
// reactivation and listing. Booking-time transitions (free <-> booked)
// belong to the appointment lifecycle and happen through conditional
// status updates on the repository.
type SlotRegistry struct {
	repo Repository
	log  zerolog.Logger
	now  func() time.Time
}

func NewSlotRegistry(repo Repository, log zerolog.Logger) *SlotRegistry {
	return &SlotRegistry{
		repo: repo,
		log:  log.With().Str("component", "slot_registry").Logger(),
		now:  time.Now,
	}
}

// CreateSlot opens a new free slot for the calling doctor. A canceled slot
// at the same (date, time) is reactivated instead of duplicated, so at most
// one non-canceled slot ever exists per key.
func (r *SlotRegistry) CreateSlot(ctx context.Context, p auth.Principal, date, clock string) (*Slot, error) {
	if p.Role != auth.RoleDoctor {
		return nil, ErrNotDoctor
	}
	if date == "" || clock == "" {
		return nil, ErrMissingField
	}

	normDate, err := NormalizeDate(date)
	if err != nil {
		return nil, err
	}
	normClock, err := NormalizeTime(clock)
	if err != nil {
		return nil, err
	}

	at, err := ParseDateTime(normDate, normClock)
	if err != nil {
		return nil, err
	}
	if !at.After(r.now()) {
		return nil, ErrSlotInPast
	}

	existing, err := r.repo.FindSlotByKey(ctx, p.UserID, normDate, normClock)
	if err != nil && !errors.Is(err, ErrSlotNotFound) {
		return nil, fmt.Errorf("find slot by key: %w", err)
	}
	if existing != nil {
		if existing.Status != SlotCanceled {
			return nil, ErrSlotTaken
		}
		reopened, err := r.repo.UpdateSlotStatus(ctx, existing.ID, SlotFree, SlotCanceled)
		if err != nil {
			return nil, fmt.Errorf("reactivate slot: %w", err)
		}
		r.log.Info().Stringer("slot_id", reopened.ID).Str("date", normDate).Str("time", normClock).Msg("slot reactivated")
		return reopened, nil
	}

	slot, err := r.repo.CreateSlot(ctx, Slot{
		ID:       uuid.New(),
		DoctorID: p.UserID,
		Date:     normDate,
		Time:     normClock,
		Status:   SlotFree,
	})
	if err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}

	r.log.Info().Stringer("slot_id", slot.ID).Str("date", normDate).Str("time", normClock).Msg("slot created")
	return slot, nil
}

// CancelSlot cancels one of the calling doctor's slots and cascades the
// cancellation to every non-terminal appointment referencing it. The
// cascade is best effort; the reconcile sweep picks up anything missed.
func (r *SlotRegistry) CancelSlot(ctx context.Context, p auth.Principal, slotID uuid.UUID) (*Slot, error) {
	slot, err := r.ownedSlot(ctx, p, slotID)
	if err != nil {
		return nil, err
	}
	if slot.Status == SlotCanceled {
		return slot, nil
	}

	canceled, err := r.repo.UpdateSlotStatus(ctx, slotID, SlotCanceled, SlotFree, SlotBooked)
	if err != nil {
		return nil, fmt.Errorf("cancel slot: %w", err)
	}

	dependents, err := r.repo.FindNonTerminalBySlot(ctx, slotID)
	if err != nil {
		r.log.Warn().Err(err).Stringer("slot_id", slotID).Msg("could not load dependent appointments, reconcile sweep will catch up")
		return canceled, nil
	}
	for _, appt := range dependents {
		if _, err := r.repo.UpdateAppointmentStatus(ctx, appt.ID, StatusCanceled, StatusScheduled, StatusFollowUpPending); err != nil {
			r.log.Warn().Err(err).Stringer("appointment_id", appt.ID).Msg("cascade cancel failed, reconcile sweep will catch up")
		}
	}

	r.log.Info().Stringer("slot_id", slotID).Int("cascaded", len(dependents)).Msg("slot canceled")
	return canceled, nil
}

// ReactivateSlot reopens a canceled slot. Reactivating a slot that is
// already free is a no-op success so retries are harmless; a booked slot
// cannot be reactivated.
func (r *SlotRegistry) ReactivateSlot(ctx context.Context, p auth.Principal, slotID uuid.UUID) (*Slot, error) {
	slot, err := r.ownedSlot(ctx, p, slotID)
	if err != nil {
		return nil, err
	}

	switch slot.Status {
	case SlotFree:
		return slot, nil
	case SlotCanceled:
	default:
		return nil, ErrSlotNotCanceled
	}

	reopened, err := r.repo.UpdateSlotStatus(ctx, slotID, SlotFree, SlotCanceled)
	if err != nil {
		return nil, fmt.Errorf("reactivate slot: %w", err)
	}

	r.log.Info().Stringer("slot_id", slotID).Msg("slot reactivated")
	return reopened, nil
}

// ListFreeSlotsForDoctor returns the doctor's free slots at or after
// notBefore, ascending by date and time.
func (r *SlotRegistry) ListFreeSlotsForDoctor(ctx context.Context, doctorID uuid.UUID, notBefore time.Time) ([]Slot, error) {
	slots, err := r.repo.ListSlotsByDoctor(ctx, doctorID, SlotFree)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	upcoming := slots[:0]
	for _, s := range slots {
		at, err := ParseDateTime(s.Date, s.Time)
		if err != nil {
			r.log.Warn().Stringer("slot_id", s.ID).Str("date", s.Date).Msg("skipping slot with malformed date")
			continue
		}
		if !at.Before(notBefore) {
			upcoming = append(upcoming, s)
		}
	}

	sortSlots(upcoming)
	return upcoming, nil
}

// ListOwnSlots is the doctor-facing listing: free upcoming slots only.
func (r *SlotRegistry) ListOwnSlots(ctx context.Context, p auth.Principal) ([]Slot, error) {
	if p.Role != auth.RoleDoctor {
		return nil, ErrNotDoctor
	}
	return r.ListFreeSlotsForDoctor(ctx, p.UserID, r.now())
}

// ListPublicSlots returns every free slot across all doctors. No
// authentication is required for this view.
func (r *SlotRegistry) ListPublicSlots(ctx context.Context) ([]Slot, error) {
	slots, err := r.repo.ListFreeSlots(ctx)
	if err != nil {
		return nil, fmt.Errorf("list free slots: %w", err)
	}
	sortSlots(slots)
	return slots, nil
}

func (r *SlotRegistry) ownedSlot(ctx context.Context, p auth.Principal, slotID uuid.UUID) (*Slot, error) {
	if p.Role != auth.RoleDoctor {
		return nil, ErrNotDoctor
	}
	if slotID == uuid.Nil {
		return nil, ErrMissingField
	}

	slot, err := r.repo.GetSlotByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load slot: %w", err)
	}
	if slot.DoctorID != p.UserID {
		return nil, ErrNotSlotOwner
	}
	return slot, nil
}

func sortSlots(slots []Slot) {
	sort.SliceStable(slots, func(i, j int) bool {
		return CompareDateTime(slots[i].Date, slots[i].Time, slots[j].Date, slots[j].Time) < 0
	})
}

package scheduling

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcilerHealsStranded(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	rec := NewReconciler(repo, zerolog.Nop())

	makeSlot := func(status SlotStatus) uuid.UUID {
		s, err := repo.CreateSlot(ctx, Slot{
			ID:       uuid.New(),
			DoctorID: uuid.New(),
			Date:     "10-03-2030",
			Time:     "14:00",
			Status:   status,
		})
		require.NoError(t, err)
		return s.ID
	}
	makeAppt := func(slotID uuid.UUID, status AppointmentStatus) uuid.UUID {
		id := slotID
		a, err := repo.CreateAppointment(ctx, Appointment{
			ID:          uuid.New(),
			PatientID:   uuid.New(),
			DoctorID:    uuid.New(),
			SlotID:      &id,
			ScheduledAt: "10-03-2030 14:00",
			Status:      status,
		})
		require.NoError(t, err)
		return a.ID
	}

	strandedScheduled := makeAppt(makeSlot(SlotCanceled), StatusScheduled)
	strandedPending := makeAppt(makeSlot(SlotCanceled), StatusFollowUpPending)
	healthy := makeAppt(makeSlot(SlotBooked), StatusScheduled)
	finished := makeAppt(makeSlot(SlotCanceled), StatusCompleted)

	healed, err := rec.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, healed)

	for _, id := range []uuid.UUID{strandedScheduled, strandedPending} {
		got, err := repo.GetAppointmentByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, StatusCanceled, got.Status)
	}

	got, err := repo.GetAppointmentByID(ctx, healthy)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, got.Status)

	got, err = repo.GetAppointmentByID(ctx, finished)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
}

func TestReconcilerNoWork(t *testing.T) {
	rec := NewReconciler(NewMemoryRepository(), zerolog.Nop())
	healed, err := rec.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, healed)
}

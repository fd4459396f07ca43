package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSlot(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	reg := newTestRegistry(repo)
	doctor := doctorPrincipal(uuid.New())

	slot, err := reg.CreateSlot(ctx, doctor, "2030-03-10", "14:00")
	require.NoError(t, err)
	assert.Equal(t, SlotFree, slot.Status)
	assert.Equal(t, "10-03-2030", slot.Date)
	assert.Equal(t, "14:00", slot.Time)
	assert.Equal(t, doctor.UserID, slot.DoctorID)
}

func TestCreateSlotRejectsNonDoctor(t *testing.T) {
	reg := newTestRegistry(NewMemoryRepository())

	_, err := reg.CreateSlot(context.Background(), patientPrincipal(uuid.New()), "2030-03-10", "14:00")
	assert.ErrorIs(t, err, ErrNotDoctor)
}

func TestCreateSlotRejectsPast(t *testing.T) {
	reg := newTestRegistry(NewMemoryRepository())
	doctor := doctorPrincipal(uuid.New())

	_, err := reg.CreateSlot(context.Background(), doctor, "2029-12-31", "14:00")
	assert.ErrorIs(t, err, ErrSlotInPast)

	// Exactly "now" is not strictly in the future either.
	_, err = reg.CreateSlot(context.Background(), doctor, testNow.Format("2006-01-02"), testNow.Format("15:04"))
	assert.ErrorIs(t, err, ErrSlotInPast)
}

func TestCreateSlotRejectsMissingAndMalformed(t *testing.T) {
	reg := newTestRegistry(NewMemoryRepository())
	doctor := doctorPrincipal(uuid.New())
	ctx := context.Background()

	_, err := reg.CreateSlot(ctx, doctor, "", "14:00")
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = reg.CreateSlot(ctx, doctor, "2030-03-10", "")
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = reg.CreateSlot(ctx, doctor, "2030-13-40", "14:00")
	assert.ErrorIs(t, err, ErrBadDate)

	_, err = reg.CreateSlot(ctx, doctor, "2030-03-10", "99:99")
	assert.ErrorIs(t, err, ErrBadTime)
}

func TestCreateSlotDuplicateConflict(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(NewMemoryRepository())
	doctor := doctorPrincipal(uuid.New())

	_, err := reg.CreateSlot(ctx, doctor, "2030-03-10", "14:00")
	require.NoError(t, err)

	// Same key in either encoding is a conflict.
	_, err = reg.CreateSlot(ctx, doctor, "2030-03-10", "14:00")
	assert.ErrorIs(t, err, ErrSlotTaken)
	_, err = reg.CreateSlot(ctx, doctor, "10-03-2030", "14:00")
	assert.ErrorIs(t, err, ErrSlotTaken)

	// Another doctor may hold the same date and time.
	_, err = reg.CreateSlot(ctx, doctorPrincipal(uuid.New()), "2030-03-10", "14:00")
	assert.NoError(t, err)
}

func TestCreateSlotReactivatesCanceledInstead(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	reg := newTestRegistry(repo)
	doctor := doctorPrincipal(uuid.New())

	slot, err := reg.CreateSlot(ctx, doctor, "2030-03-10", "14:00")
	require.NoError(t, err)
	_, err = reg.CancelSlot(ctx, doctor, slot.ID)
	require.NoError(t, err)

	reopened, err := reg.CreateSlot(ctx, doctor, "2030-03-10", "14:00")
	require.NoError(t, err)
	assert.Equal(t, slot.ID, reopened.ID, "canceled slot must be reactivated, not duplicated")
	assert.Equal(t, SlotFree, reopened.Status)

	slots, err := repo.ListSlotsByDoctor(ctx, doctor.UserID, SlotFree)
	require.NoError(t, err)
	assert.Len(t, slots, 1)
}

func TestCancelSlotCascadesToAppointments(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	reg := newTestRegistry(repo)
	doctor := doctorPrincipal(uuid.New())

	slot, err := reg.CreateSlot(ctx, doctor, "2030-03-10", "14:00")
	require.NoError(t, err)

	slotID := slot.ID
	appt, err := repo.CreateAppointment(ctx, Appointment{
		ID:          uuid.New(),
		PatientID:   uuid.New(),
		DoctorID:    doctor.UserID,
		SlotID:      &slotID,
		ScheduledAt: "10-03-2030 14:00",
		Status:      StatusScheduled,
	})
	require.NoError(t, err)
	_, err = repo.UpdateSlotStatus(ctx, slotID, SlotBooked, SlotFree)
	require.NoError(t, err)

	canceled, err := reg.CancelSlot(ctx, doctor, slotID)
	require.NoError(t, err)
	assert.Equal(t, SlotCanceled, canceled.Status)

	got, err := repo.GetAppointmentByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, got.Status)
}

func TestCancelSlotLeavesCompletedAlone(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	reg := newTestRegistry(repo)
	doctor := doctorPrincipal(uuid.New())

	slot, err := reg.CreateSlot(ctx, doctor, "2030-03-10", "14:00")
	require.NoError(t, err)

	slotID := slot.ID
	appt, err := repo.CreateAppointment(ctx, Appointment{
		ID:          uuid.New(),
		PatientID:   uuid.New(),
		DoctorID:    doctor.UserID,
		SlotID:      &slotID,
		ScheduledAt: "10-03-2030 14:00",
		Status:      StatusCompleted,
	})
	require.NoError(t, err)

	_, err = reg.CancelSlot(ctx, doctor, slotID)
	require.NoError(t, err)

	got, err := repo.GetAppointmentByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
}

func TestCancelSlotAuthorization(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(NewMemoryRepository())
	owner := doctorPrincipal(uuid.New())

	slot, err := reg.CreateSlot(ctx, owner, "2030-03-10", "14:00")
	require.NoError(t, err)

	_, err = reg.CancelSlot(ctx, doctorPrincipal(uuid.New()), slot.ID)
	assert.ErrorIs(t, err, ErrNotSlotOwner)

	_, err = reg.CancelSlot(ctx, owner, uuid.New())
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestCancelSlotIdempotent(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(NewMemoryRepository())
	doctor := doctorPrincipal(uuid.New())

	slot, err := reg.CreateSlot(ctx, doctor, "2030-03-10", "14:00")
	require.NoError(t, err)

	_, err = reg.CancelSlot(ctx, doctor, slot.ID)
	require.NoError(t, err)
	again, err := reg.CancelSlot(ctx, doctor, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, SlotCanceled, again.Status)
}

func TestReactivateSlot(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	reg := newTestRegistry(repo)
	doctor := doctorPrincipal(uuid.New())

	slot, err := reg.CreateSlot(ctx, doctor, "2030-03-10", "14:00")
	require.NoError(t, err)

	// Already free: no-op success.
	same, err := reg.ReactivateSlot(ctx, doctor, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, SlotFree, same.Status)

	// Booked: refused.
	_, err = repo.UpdateSlotStatus(ctx, slot.ID, SlotBooked, SlotFree)
	require.NoError(t, err)
	_, err = reg.ReactivateSlot(ctx, doctor, slot.ID)
	assert.ErrorIs(t, err, ErrSlotNotCanceled)

	// Canceled: reopened.
	_, err = repo.UpdateSlotStatus(ctx, slot.ID, SlotCanceled, SlotBooked)
	require.NoError(t, err)
	reopened, err := reg.ReactivateSlot(ctx, doctor, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, SlotFree, reopened.Status)
}

func TestListFreeSlotsForDoctorFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	reg := newTestRegistry(repo)
	doctor := doctorPrincipal(uuid.New())

	for _, s := range []struct{ date, clock string }{
		{"2030-03-12", "09:00"},
		{"2030-03-10", "14:00"},
		{"2030-03-10", "08:00"},
		{"2030-03-11", "16:00"},
	} {
		_, err := reg.CreateSlot(ctx, doctor, s.date, s.clock)
		require.NoError(t, err)
	}

	notBefore := time.Date(2030, time.March, 10, 12, 0, 0, 0, time.Local)
	slots, err := reg.ListFreeSlotsForDoctor(ctx, doctor.UserID, notBefore)
	require.NoError(t, err)

	require.Len(t, slots, 3, "the 08:00 slot is before the cutoff")
	assert.Equal(t, "14:00", slots[0].Time)
	assert.Equal(t, "16:00", slots[1].Time)
	assert.Equal(t, "09:00", slots[2].Time)
}

func TestListPublicSlotsOnlyFree(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	reg := newTestRegistry(repo)

	docA := doctorPrincipal(uuid.New())
	docB := doctorPrincipal(uuid.New())

	slotA, err := reg.CreateSlot(ctx, docA, "2030-03-10", "14:00")
	require.NoError(t, err)
	slotB, err := reg.CreateSlot(ctx, docB, "2030-03-11", "09:00")
	require.NoError(t, err)

	_, err = repo.UpdateSlotStatus(ctx, slotB.ID, SlotBooked, SlotFree)
	require.NoError(t, err)

	slots, err := reg.ListPublicSlots(ctx)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, slotA.ID, slots[0].ID)
}

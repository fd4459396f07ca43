package scheduling

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompletedAppointment(t *testing.T, repo *MemoryRepository, doctorID, patientID uuid.UUID) *Appointment {
	t.Helper()
	appt, err := repo.CreateAppointment(context.Background(), Appointment{
		ID:          uuid.New(),
		PatientID:   patientID,
		DoctorID:    doctorID,
		ScheduledAt: "10-03-2030 14:00",
		Status:      StatusCompleted,
	})
	require.NoError(t, err)
	return appt
}

func TestScheduleFollowUp(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	fus := newTestFollowUps(repo)

	doctorID := uuid.New()
	appt := newCompletedAppointment(t, repo, doctorID, uuid.New())

	fu, err := fus.Schedule(ctx, doctorPrincipal(doctorID), appt.ID, FollowUpRequest{
		Date:     "2030-03-11",
		Time:     "09:00",
		Kind:     ConsultInPerson,
		Facility: "Clinic downtown",
		Notes:    "review exam results",
	})
	require.NoError(t, err)
	assert.Equal(t, "11-03-2030", fu.Date)
	assert.Equal(t, "09:00", fu.Time)
	require.NotNil(t, fu.Notes)
	assert.Equal(t, "review exam results", *fu.Notes)

	got, err := repo.GetAppointmentByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFollowUpPending, got.Status)
}

func TestScheduleFollowUpReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	fus := newTestFollowUps(repo)

	doctorID := uuid.New()
	appt := newCompletedAppointment(t, repo, doctorID, uuid.New())
	doc := doctorPrincipal(doctorID)

	_, err := fus.Schedule(ctx, doc, appt.ID, FollowUpRequest{Date: "11-03-2030", Time: "09:00", Kind: ConsultRemote})
	require.NoError(t, err)

	// Re-scheduling while pending overwrites the record.
	fu, err := fus.Schedule(ctx, doc, appt.ID, FollowUpRequest{Date: "15-03-2030", Time: "16:00", Kind: ConsultRemote})
	require.NoError(t, err)
	assert.Equal(t, "15-03-2030", fu.Date)

	stored, err := repo.GetFollowUp(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, "15-03-2030", stored.Date)
	assert.Equal(t, "16:00", stored.Time)
}

func TestScheduleFollowUpAuthorization(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	fus := newTestFollowUps(repo)

	doctorID := uuid.New()
	patientID := uuid.New()
	appt := newCompletedAppointment(t, repo, doctorID, patientID)
	req := FollowUpRequest{Date: "11-03-2030", Time: "09:00", Kind: ConsultRemote}

	_, err := fus.Schedule(ctx, patientPrincipal(patientID), appt.ID, req)
	assert.ErrorIs(t, err, ErrNotAssigned)

	_, err = fus.Schedule(ctx, doctorPrincipal(uuid.New()), appt.ID, req)
	assert.ErrorIs(t, err, ErrNotAssigned)
}

func TestScheduleFollowUpValidation(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	fus := newTestFollowUps(repo)

	doctorID := uuid.New()
	appt := newCompletedAppointment(t, repo, doctorID, uuid.New())
	doc := doctorPrincipal(doctorID)

	_, err := fus.Schedule(ctx, doc, appt.ID, FollowUpRequest{Time: "09:00", Kind: ConsultRemote})
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = fus.Schedule(ctx, doc, appt.ID, FollowUpRequest{Date: "11-03-2030", Time: "09:00", Kind: "house-call"})
	assert.ErrorIs(t, err, ErrBadKind)

	_, err = fus.Schedule(ctx, doc, appt.ID, FollowUpRequest{Date: "11-03-2030", Time: "09:00", Kind: ConsultInPerson})
	assert.ErrorIs(t, err, ErrNoFacility)

	_, err = fus.Schedule(ctx, doc, appt.ID, FollowUpRequest{Date: "31-02-2030", Time: "09:00", Kind: ConsultRemote})
	assert.ErrorIs(t, err, ErrBadDate)

	_, err = fus.Schedule(ctx, doc, uuid.New(), FollowUpRequest{Date: "11-03-2030", Time: "09:00", Kind: ConsultRemote})
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestScheduleFollowUpOrderingRules(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	fus := newTestFollowUps(repo)

	doctorID := uuid.New()
	appt := newCompletedAppointment(t, repo, doctorID, uuid.New())
	doc := doctorPrincipal(doctorID)

	// Same day, even later in the day, is refused.
	_, err := fus.Schedule(ctx, doc, appt.ID, FollowUpRequest{Date: "10-03-2030", Time: "18:00", Kind: ConsultRemote})
	assert.ErrorIs(t, err, ErrFollowUpSameDay)

	_, err = fus.Schedule(ctx, doc, appt.ID, FollowUpRequest{Date: "09-03-2030", Time: "09:00", Kind: ConsultRemote})
	assert.ErrorIs(t, err, ErrFollowUpNotLater)
}

func TestScheduleFollowUpRequiresCompleted(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	fus := newTestFollowUps(repo)

	doctorID := uuid.New()
	req := FollowUpRequest{Date: "11-03-2030", Time: "09:00", Kind: ConsultRemote}

	for _, status := range []AppointmentStatus{StatusScheduled, StatusCanceled} {
		appt, err := repo.CreateAppointment(ctx, Appointment{
			ID:          uuid.New(),
			PatientID:   uuid.New(),
			DoctorID:    doctorID,
			ScheduledAt: "10-03-2030 14:00",
			Status:      status,
		})
		require.NoError(t, err)

		_, err = fus.Schedule(ctx, doctorPrincipal(doctorID), appt.ID, req)
		assert.ErrorIs(t, err, ErrInvalidTransition, "status %s", status)
	}
}

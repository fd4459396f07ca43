package scheduling

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Reconciler heals the gap left by the non-atomic slot-cancellation
// cascade: a crash between canceling a slot and canceling its dependents
// leaves appointments in a live state pointing at a canceled slot. The
// sweep forces those to canceled so reads stop having to mask them.
type Reconciler struct {
	repo Repository
	log  zerolog.Logger
}

func NewReconciler(repo Repository, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		repo: repo,
		log:  log.With().Str("component", "reconciler").Logger(),
	}
}

// Run performs one sweep and returns how many appointments were healed.
func (r *Reconciler) Run(ctx context.Context) (int, error) {
	stranded, err := r.repo.FindStranded(ctx)
	if err != nil {
		return 0, fmt.Errorf("find stranded appointments: %w", err)
	}

	healed := 0
	for _, appt := range stranded {
		if _, err := r.repo.UpdateAppointmentStatus(ctx, appt.ID, StatusCanceled, StatusScheduled, StatusFollowUpPending); err != nil {
			r.log.Warn().Err(err).Stringer("appointment_id", appt.ID).Msg("could not heal stranded appointment")
			continue
		}
		healed++
	}

	if healed > 0 {
		r.log.Info().Int("healed", healed).Msg("reconcile sweep complete")
	}
	return healed, nil
}

package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medagenda/clinic-scheduling/internal/auth"
)

// The suites pin "now" so slot-in-the-past checks are deterministic.
var testNow = time.Date(2030, time.January, 1, 10, 0, 0, 0, time.Local)

// passLocker runs the critical section inline, no Redis involved.
type passLocker struct{}

func (passLocker) WithSlotLock(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// failLocker simulates losing the lock race.
type failLocker struct{ err error }

func (l failLocker) WithSlotLock(context.Context, uuid.UUID, func(ctx context.Context) error) error {
	return l.err
}

func newTestRegistry(repo Repository) *SlotRegistry {
	reg := NewSlotRegistry(repo, zerolog.Nop())
	reg.now = func() time.Time { return testNow }
	return reg
}

func newTestAppointments(repo Repository) *AppointmentService {
	return NewAppointmentService(repo, NewGuard(repo), passLocker{}, zerolog.Nop())
}

func newTestFollowUps(repo Repository) *FollowUpScheduler {
	return NewFollowUpScheduler(repo, zerolog.Nop())
}

func doctorPrincipal(id uuid.UUID) auth.Principal {
	return auth.Principal{UserID: id, Role: auth.RoleDoctor, EmailVerified: true}
}

func patientPrincipal(id uuid.UUID) auth.Principal {
	return auth.Principal{UserID: id, Role: auth.RolePatient, EmailVerified: true}
}

func adminPrincipal(id uuid.UUID) auth.Principal {
	return auth.Principal{UserID: id, Role: auth.RoleAdmin, EmailVerified: true}
}

func patientPrincipalWithRole(role auth.Role) auth.Principal {
	return auth.Principal{UserID: uuid.New(), Role: role, EmailVerified: true}
}

func strptr(s string) *string { return &s }

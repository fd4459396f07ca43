package scheduling

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository with the same conditional
// update semantics as the Postgres implementation. The test suites run the
// services against it; it is not meant for production use.
type MemoryRepository struct {
	mu           sync.Mutex
	patients     map[uuid.UUID]Patient
	doctors      map[uuid.UUID]Doctor
	slots        map[uuid.UUID]Slot
	appointments map[uuid.UUID]Appointment
	followUps    map[uuid.UUID]FollowUp
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		patients:     make(map[uuid.UUID]Patient),
		doctors:      make(map[uuid.UUID]Doctor),
		slots:        make(map[uuid.UUID]Slot),
		appointments: make(map[uuid.UUID]Appointment),
		followUps:    make(map[uuid.UUID]FollowUp),
	}
}

// Seeding helpers for tests.

func (m *MemoryRepository) PutPatient(p Patient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patients[p.ID] = p
}

func (m *MemoryRepository) PutDoctor(d Doctor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doctors[d.ID] = d
}

func (m *MemoryRepository) GetPatientByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return &p, nil
}

func (m *MemoryRepository) GetDoctorByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return &d, nil
}

func (m *MemoryRepository) CreateSlot(_ context.Context, slot Slot) (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	slot.CreatedAt = now
	slot.UpdatedAt = now
	m.slots[slot.ID] = slot
	return &slot, nil
}

func (m *MemoryRepository) GetSlotByID(_ context.Context, id uuid.UUID) (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	return &s, nil
}

func (m *MemoryRepository) FindSlotByKey(_ context.Context, doctorID uuid.UUID, date, clock string) (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.slots {
		if s.DoctorID == doctorID && s.Date == date && s.Time == clock {
			found := s
			return &found, nil
		}
	}
	return nil, ErrSlotNotFound
}

func (m *MemoryRepository) UpdateSlotStatus(_ context.Context, id uuid.UUID, to SlotStatus, from ...SlotStatus) (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok || !slotStatusIn(s.Status, from) {
		return nil, ErrSlotNotFound
	}
	s.Status = to
	s.UpdatedAt = time.Now()
	m.slots[id] = s
	return &s, nil
}

func (m *MemoryRepository) ListSlotsByDoctor(_ context.Context, doctorID uuid.UUID, status SlotStatus) ([]Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Slot
	for _, s := range m.slots {
		if s.DoctorID == doctorID && s.Status == status {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryRepository) ListFreeSlots(_ context.Context) ([]Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Slot
	for _, s := range m.slots {
		if s.Status == SlotFree {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryRepository) CreateAppointment(_ context.Context, appt Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	appt.CreatedAt = now
	appt.UpdatedAt = now
	m.appointments[appt.ID] = appt
	return &appt, nil
}

func (m *MemoryRepository) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (m *MemoryRepository) GetAppointmentByBookingKey(_ context.Context, patientID uuid.UUID, key string) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appointments {
		if a.PatientID == patientID && a.BookingKey != nil && *a.BookingKey == key {
			found := a
			return &found, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (m *MemoryRepository) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, to AppointmentStatus, from ...AppointmentStatus) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok || !apptStatusIn(a.Status, from) {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	m.appointments[id] = a
	return &a, nil
}

func (m *MemoryRepository) ListAppointmentsByPatient(_ context.Context, patientID uuid.UUID) ([]Appointment, error) {
	return m.filterAppointments(func(a Appointment) bool { return a.PatientID == patientID })
}

func (m *MemoryRepository) ListAppointmentsByDoctor(_ context.Context, doctorID uuid.UUID) ([]Appointment, error) {
	return m.filterAppointments(func(a Appointment) bool { return a.DoctorID == doctorID })
}

func (m *MemoryRepository) ListAllAppointments(_ context.Context) ([]Appointment, error) {
	return m.filterAppointments(func(Appointment) bool { return true })
}

func (m *MemoryRepository) FindNonTerminalBySlot(_ context.Context, slotID uuid.UUID) ([]Appointment, error) {
	return m.filterAppointments(func(a Appointment) bool {
		return a.SlotID != nil && *a.SlotID == slotID && !a.Status.IsTerminal()
	})
}

func (m *MemoryRepository) FindDoctorTimeConflict(_ context.Context, doctorID uuid.UUID, scheduledAt string) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appointments {
		if a.DoctorID == doctorID && a.ScheduledAt == scheduledAt &&
			(a.Status == StatusScheduled || a.Status == StatusCompleted) {
			found := a
			return &found, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (m *MemoryRepository) FindOutstanding(_ context.Context, patientID, doctorID uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appointments {
		if a.PatientID == patientID && a.DoctorID == doctorID && !a.Status.IsTerminal() {
			found := a
			return &found, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (m *MemoryRepository) FindStranded(_ context.Context) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for _, a := range m.appointments {
		if a.Status.IsTerminal() || a.SlotID == nil {
			continue
		}
		if s, ok := m.slots[*a.SlotID]; ok && s.Status == SlotCanceled {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemoryRepository) UpsertFollowUp(_ context.Context, rec FollowUp) (*FollowUp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if existing, ok := m.followUps[rec.AppointmentID]; ok {
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	m.followUps[rec.AppointmentID] = rec
	return &rec, nil
}

func (m *MemoryRepository) GetFollowUp(_ context.Context, appointmentID uuid.UUID) (*FollowUp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.followUps[appointmentID]
	if !ok {
		return nil, ErrFollowUpNotFound
	}
	return &f, nil
}

func (m *MemoryRepository) filterAppointments(keep func(Appointment) bool) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for _, a := range m.appointments {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

func slotStatusIn(s SlotStatus, set []SlotStatus) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

func apptStatusIn(s AppointmentStatus, set []AppointmentStatus) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

package api

import (
	"github.com/google/uuid"

	"github.com/medagenda/clinic-scheduling/internal/scheduling"
)

type CreateSlotRequest struct {
	Date string `json:"date"` // YYYY-MM-DD
	Time string `json:"time"` // HH:MM
}

type SlotResponse struct {
	ID       uuid.UUID `json:"id"`
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     string    `json:"date"` // YYYY-MM-DD
	Time     string    `json:"time"`
	Status   string    `json:"status"`
}

type BookAppointmentRequest struct {
	DoctorID   string `json:"doctor_id"`
	SlotID     string `json:"slot_id"`
	Kind       string `json:"kind,omitempty"`
	Billing    string `json:"billing,omitempty"`
	Insurance  string `json:"insurance,omitempty"`
	Symptoms   string `json:"symptoms,omitempty"`
	Facility   string `json:"facility,omitempty"`
	BookingKey string `json:"booking_key,omitempty"`
}

type ScheduleFollowUpRequest struct {
	Date     string `json:"date"` // YYYY-MM-DD
	Time     string `json:"time"`
	Notes    string `json:"notes,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Facility string `json:"facility,omitempty"`
}

type FollowUpResponse struct {
	Date     string  `json:"date"`
	Time     string  `json:"time"`
	Notes    *string `json:"notes,omitempty"`
	Kind     string  `json:"kind"`
	Facility *string `json:"facility,omitempty"`
}

type AppointmentResponse struct {
	ID          uuid.UUID                   `json:"id"`
	PatientID   uuid.UUID                   `json:"patient_id"`
	DoctorID    uuid.UUID                   `json:"doctor_id"`
	SlotID      *uuid.UUID                  `json:"slot_id,omitempty"`
	ScheduledAt string                      `json:"scheduled_at"`
	Kind        string                      `json:"kind"`
	Billing     string                      `json:"billing"`
	Insurance   *string                     `json:"insurance,omitempty"`
	Symptoms    *string                     `json:"symptoms,omitempty"`
	Facility    string                      `json:"facility"`
	Status      string                      `json:"status"`
	Patient     *scheduling.PatientSummary  `json:"patient,omitempty"`
	Doctor      *scheduling.DoctorSummary   `json:"doctor,omitempty"`
	FollowUp    *FollowUpResponse           `json:"follow_up,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func slotResponse(s *scheduling.Slot) SlotResponse {
	date := s.Date
	if iso, err := scheduling.ISODate(s.Date); err == nil {
		date = iso
	}
	return SlotResponse{
		ID:       s.ID,
		DoctorID: s.DoctorID,
		Date:     date,
		Time:     s.Time,
		Status:   string(s.Status),
	}
}

func slotResponses(slots []scheduling.Slot) []SlotResponse {
	out := make([]SlotResponse, 0, len(slots))
	for i := range slots {
		out = append(out, slotResponse(&slots[i]))
	}
	return out
}

func appointmentResponse(a *scheduling.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.ID,
		PatientID:   a.PatientID,
		DoctorID:    a.DoctorID,
		SlotID:      a.SlotID,
		ScheduledAt: a.ScheduledAt,
		Kind:        string(a.Kind),
		Billing:     string(a.Billing),
		Insurance:   a.Insurance,
		Symptoms:    a.Symptoms,
		Facility:    a.Facility,
		Status:      string(a.Status),
	}
}

func detailResponse(d *scheduling.AppointmentDetail) AppointmentResponse {
	resp := appointmentResponse(&d.Appointment)
	resp.Status = string(d.Status)
	resp.Patient = d.Patient
	resp.Doctor = d.Doctor
	if d.FollowUp != nil {
		date := d.FollowUp.Date
		if iso, err := scheduling.ISODate(date); err == nil {
			date = iso
		}
		resp.FollowUp = &FollowUpResponse{
			Date:     date,
			Time:     d.FollowUp.Time,
			Notes:    d.FollowUp.Notes,
			Kind:     string(d.FollowUp.Kind),
			Facility: d.FollowUp.Facility,
		}
	}
	return resp
}

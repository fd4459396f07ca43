package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medagenda/clinic-scheduling/internal/auth"
	"github.com/medagenda/clinic-scheduling/internal/scheduling"
)

func principalOr401(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		writeDomainError(w, scheduling.ErrUnauthenticated)
		return auth.Principal{}, false
	}
	return p, true
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// Slots

func createSlotHandler(slots *scheduling.SlotRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principalOr401(w, r)
		if !ok {
			return
		}

		var req CreateSlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		slot, err := slots.CreateSlot(r.Context(), p, req.Date, req.Time)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, slotResponse(slot))
	}
}

func cancelSlotHandler(slots *scheduling.SlotRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principalOr401(w, r)
		if !ok {
			return
		}
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		slot, err := slots.CancelSlot(r.Context(), p, id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, slotResponse(slot))
	}
}

func reactivateSlotHandler(slots *scheduling.SlotRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principalOr401(w, r)
		if !ok {
			return
		}
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		slot, err := slots.ReactivateSlot(r.Context(), p, id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, slotResponse(slot))
	}
}

func listOwnSlotsHandler(slots *scheduling.SlotRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principalOr401(w, r)
		if !ok {
			return
		}

		result, err := slots.ListOwnSlots(r.Context(), p)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, slotResponses(result))
	}
}

func listPublicSlotsHandler(slots *scheduling.SlotRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := slots.ListPublicSlots(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, slotResponses(result))
	}
}

// Appointments

func bookAppointmentHandler(appts *scheduling.AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principalOr401(w, r)
		if !ok {
			return
		}

		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}
		slotID, err := uuid.Parse(req.SlotID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_slot_id", "slot_id must be a valid UUID")
			return
		}

		appt, err := appts.Book(r.Context(), p, scheduling.BookRequest{
			DoctorID:   doctorID,
			SlotID:     slotID,
			Kind:       scheduling.ConsultKind(req.Kind),
			Billing:    scheduling.BillingKind(req.Billing),
			Insurance:  req.Insurance,
			Symptoms:   req.Symptoms,
			Facility:   req.Facility,
			BookingKey: req.BookingKey,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, appointmentResponse(appt))
	}
}

func cancelAppointmentHandler(appts *scheduling.AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principalOr401(w, r)
		if !ok {
			return
		}
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		appt, err := appts.Cancel(r.Context(), p, id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, appointmentResponse(appt))
	}
}

func completeAppointmentHandler(appts *scheduling.AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principalOr401(w, r)
		if !ok {
			return
		}
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		appt, err := appts.Complete(r.Context(), p, id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, appointmentResponse(appt))
	}
}

func listAppointmentsHandler(appts *scheduling.AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principalOr401(w, r)
		if !ok {
			return
		}

		var doctorFilter *uuid.UUID
		if raw := r.URL.Query().Get("doctor_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
				return
			}
			doctorFilter = &id
		}

		details, err := appts.List(r.Context(), p, doctorFilter)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		out := make([]AppointmentResponse, 0, len(details))
		for i := range details {
			out = append(out, detailResponse(&details[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// Follow-ups

func scheduleFollowUpHandler(followUps *scheduling.FollowUpScheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principalOr401(w, r)
		if !ok {
			return
		}
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		var req ScheduleFollowUpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		rec, err := followUps.Schedule(r.Context(), p, id, scheduling.FollowUpRequest{
			Date:     req.Date,
			Time:     req.Time,
			Notes:    req.Notes,
			Kind:     scheduling.ConsultKind(req.Kind),
			Facility: req.Facility,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		date := rec.Date
		if iso, err := scheduling.ISODate(date); err == nil {
			date = iso
		}
		writeJSON(w, http.StatusOK, FollowUpResponse{
			Date:     date,
			Time:     rec.Time,
			Notes:    rec.Notes,
			Kind:     string(rec.Kind),
			Facility: rec.Facility,
		})
	}
}

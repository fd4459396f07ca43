package scheduling

import "errors"

// Kind classifies a failure the way the callable surface reports it.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthenticated
	KindPermissionDenied
	KindInvalidArgument
	KindFailedPrecondition
	KindAlreadyExists
	KindNotFound
	KindInternal
)

// Error is a domain failure with a stable machine code. All sentinel
// errors below are of this type so handlers can match with errors.Is
// and map the Kind to a transport status.
type Error struct {
	Kind Kind
	Code string
	msg  string
}

func (e *Error) Error() string { return e.msg }

func newErr(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, msg: msg}
}

// KindOf extracts the Kind from err, or KindInternal for anything that
// is not a domain error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var (
	ErrUnauthenticated  = newErr(KindUnauthenticated, "unauthenticated", "caller is not authenticated")
	ErrEmailNotVerified = newErr(KindFailedPrecondition, "email_not_verified", "email must be verified before booking")

	ErrNotPatient   = newErr(KindPermissionDenied, "patient_role_required", "only patients can book appointments")
	ErrNotDoctor    = newErr(KindPermissionDenied, "doctor_role_required", "only doctors can manage slots")
	ErrNotSlotOwner = newErr(KindPermissionDenied, "not_slot_owner", "slot belongs to another doctor")
	ErrNotAssigned  = newErr(KindPermissionDenied, "not_assigned_doctor", "only the assigned doctor can perform this action")
	ErrNotInvolved  = newErr(KindPermissionDenied, "not_involved", "only the patient or doctor on the appointment can cancel it")
	ErrRoleUnknown  = newErr(KindPermissionDenied, "role_unknown", "caller role cannot list appointments")

	ErrMissingField       = newErr(KindInvalidArgument, "missing_field", "a required field is missing")
	ErrBadKind            = newErr(KindInvalidArgument, "invalid_consult_kind", "consultation kind must be in_person or remote")
	ErrBadBilling         = newErr(KindInvalidArgument, "invalid_billing_kind", "billing kind must be private or insurance")
	ErrSlotDoctorMismatch = newErr(KindInvalidArgument, "slot_doctor_mismatch", "slot does not belong to the requested doctor")
	ErrBadDate            = newErr(KindInvalidArgument, "invalid_date", "date must be YYYY-MM-DD or DD-MM-YYYY")
	ErrBadTime            = newErr(KindInvalidArgument, "invalid_time", "time must be HH:MM")
	ErrNoFacility         = newErr(KindInvalidArgument, "facility_required", "facility is required for in-person consultations")

	ErrSlotInPast        = newErr(KindFailedPrecondition, "slot_in_past", "slot must be strictly in the future")
	ErrSlotNotCanceled   = newErr(KindFailedPrecondition, "slot_not_canceled", "only canceled slots can be reactivated")
	ErrInvalidTransition = newErr(KindFailedPrecondition, "invalid_status_transition", "appointment status does not allow this transition")
	ErrActiveConsult     = newErr(KindFailedPrecondition, "active_consultation", "an active consultation with this doctor already exists")
	ErrPendingFollowUp   = newErr(KindFailedPrecondition, "pending_follow_up", "a follow-up with this doctor is already pending")
	ErrFollowUpNotLater  = newErr(KindFailedPrecondition, "follow_up_not_later", "follow-up must be strictly after the original appointment")
	ErrFollowUpSameDay   = newErr(KindFailedPrecondition, "follow_up_same_day", "follow-up cannot fall on the same day as the original appointment")

	ErrSlotTaken     = newErr(KindAlreadyExists, "slot_taken", "a slot already exists for this date and time")
	ErrSlotContended = newErr(KindAlreadyExists, "slot_contended", "slot is currently being booked, retry shortly")
	ErrSlotNotFree   = newErr(KindAlreadyExists, "slot_not_free", "slot is not free")
	ErrTimeOccupied  = newErr(KindAlreadyExists, "time_occupied", "the doctor already has an appointment at this time")

	ErrSlotNotFound        = newErr(KindNotFound, "slot_not_found", "slot not found")
	ErrAppointmentNotFound = newErr(KindNotFound, "appointment_not_found", "appointment not found")
	ErrPatientNotFound     = newErr(KindNotFound, "patient_not_found", "patient not found")
	ErrDoctorNotFound      = newErr(KindNotFound, "doctor_not_found", "doctor not found")
	ErrFollowUpNotFound    = newErr(KindNotFound, "follow_up_not_found", "follow-up not found")
)

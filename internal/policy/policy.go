// Package policy decides which appointment operations a principal may perform.
// It is a pure function of the principal, the operation and (for per-row
// operations) the target appointment; it never touches the store.
package policy

import (
	"appointment-booking-server/internal/models"
)

// Operation identifies an appointment action subject to authorization.
type Operation string

const (
	OpList         Operation = "list"
	OpListAll      Operation = "list_all"
	OpView         Operation = "view"
	OpCreate       Operation = "create"
	OpUpdateStatus Operation = "update_status"
	OpDelete       Operation = "delete"
	OpMarkSeen     Operation = "mark_seen"
	OpMarkAllSeen  Operation = "mark_all_seen"
	OpListUnseen   Operation = "list_unseen"
)

// Decision is the outcome of Decide. Reason is set only on denial.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// Decide reports whether p may perform op. For per-row operations (view,
// update status, mark seen) a nil target asks whether p's role can perform op
// on any appointment at all; callers check again once the row is loaded.
func Decide(p models.Principal, op Operation, target *models.Appointment) Decision {
	if p.ID == "" {
		return deny("not authenticated")
	}

	switch op {
	case OpList:
		switch p.Role {
		case models.RolePatient, models.RoleDoctor:
			return allow()
		case models.RoleAdmin:
			return deny("admins list appointments through the list-all operation")
		}

	case OpListAll, OpDelete:
		if p.Role == models.RoleAdmin {
			return allow()
		}
		return deny("only admins can perform this operation")

	case OpCreate:
		if p.Role == models.RolePatient {
			return allow()
		}
		return deny("only patients can create appointments")

	case OpView:
		switch {
		case target == nil, p.Role == models.RoleAdmin:
			return allow()
		case p.Role == models.RolePatient && target.PatientID == p.ID:
			return allow()
		case p.Role == models.RoleDoctor && target.DoctorID == p.ID:
			return allow()
		}
		return deny("you are not a participant in this appointment")

	case OpUpdateStatus:
		switch p.Role {
		case models.RoleAdmin:
			return allow()
		case models.RoleDoctor:
			if target == nil || target.DoctorID == p.ID {
				return allow()
			}
			return deny("you can only update your own appointments")
		}
		return deny("only doctors and admins can update appointment status")

	case OpMarkSeen:
		if p.Role != models.RoleDoctor {
			return deny("only doctors can mark appointments as seen")
		}
		if target != nil && target.DoctorID != p.ID {
			return deny("you can only mark your own appointments as seen")
		}
		return allow()

	case OpMarkAllSeen, OpListUnseen:
		if p.Role == models.RoleDoctor {
			return allow()
		}
		return deny("only doctors can track seen appointments")
	}

	return deny("operation not permitted")
}

// Scope returns the listing filter applied to OpList for p. The second result
// is false when p may not use the scoped listing at all.
func Scope(p models.Principal) (models.AppointmentFilter, bool) {
	if !Decide(p, OpList, nil).Allowed {
		return models.AppointmentFilter{}, false
	}
	if p.Role == models.RoleDoctor {
		return models.AppointmentFilter{DoctorID: p.ID}, true
	}
	return models.AppointmentFilter{PatientID: p.ID}, true
}

// OwnerDoctorID returns the doctor id a conditional status update must
// re-assert for p: the principal's own id for doctors, empty for admins.
func OwnerDoctorID(p models.Principal) string {
	if p.Role == models.RoleDoctor {
		return p.ID
	}
	return ""
}

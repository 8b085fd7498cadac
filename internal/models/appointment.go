package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "PENDING"
	StatusConfirmed AppointmentStatus = "CONFIRMED"
	StatusCompleted AppointmentStatus = "COMPLETED"
	StatusCancelled AppointmentStatus = "CANCELLED"
	StatusRejected  AppointmentStatus = "REJECTED"
)

// ErrUnknownStatus is returned by ParseAppointmentStatus for values outside the enum.
var ErrUnknownStatus = errors.New("unknown appointment status")

// transitions is the complete state machine. Statuses without an entry are terminal.
var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusConfirmed, StatusRejected, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// ParseAppointmentStatus converts a client-supplied string into a status.
func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	switch st := AppointmentStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s AppointmentStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// NextStatuses lists the statuses reachable from s.
func (s AppointmentStatus) NextStatuses() []AppointmentStatus {
	out := make([]AppointmentStatus, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

// Appointment represents a booked consultation between a patient and a doctor.
type Appointment struct {
	BaseModel
	Date         time.Time         `gorm:"not null;index" json:"date"`
	Description  string            `gorm:"type:text" json:"description"`
	Status       AppointmentStatus `gorm:"size:20;not null;default:'PENDING'" json:"status"`
	PatientID    string            `gorm:"size:36;not null;index" json:"patientId"`
	DoctorID     string            `gorm:"size:36;not null;index" json:"doctorId"`
	SeenByDoctor bool              `gorm:"not null;default:false" json:"seenByDoctor"`

	// Relations
	Patient *User `gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE" json:"patient,omitempty"`
	Doctor  *User `gorm:"foreignKey:DoctorID;constraint:OnDelete:CASCADE" json:"doctor,omitempty"`
}

// AppointmentFilter narrows appointment listings. Empty fields do not filter.
type AppointmentFilter struct {
	PatientID  string
	DoctorID   string
	UnseenOnly bool
}

// Matches reports whether a satisfies the filter.
func (f AppointmentFilter) Matches(a *Appointment) bool {
	if f.PatientID != "" && a.PatientID != f.PatientID {
		return false
	}
	if f.DoctorID != "" && a.DoctorID != f.DoctorID {
		return false
	}
	if f.UnseenOnly && a.SeenByDoctor {
		return false
	}
	return true
}

// AppointmentEventType names what happened to an appointment.
type AppointmentEventType string

const (
	EventAppointmentCreated AppointmentEventType = "appointment.created"
	EventStatusChanged      AppointmentEventType = "appointment.status_changed"
	EventAppointmentSeen    AppointmentEventType = "appointment.seen"
	EventAppointmentDeleted AppointmentEventType = "appointment.deleted"
)

// AppointmentEvent is pushed to connected dashboards.
type AppointmentEvent struct {
	Type        AppointmentEventType `json:"type"`
	Appointment *Appointment         `json:"appointment"`
	At          time.Time            `json:"at"`
}

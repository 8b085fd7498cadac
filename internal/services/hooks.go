package services

import "appointment-booking-server/internal/models"

// Notifier delivers appointment events to a user's connected dashboards.
type Notifier interface {
	Publish(userID string, evt models.AppointmentEvent)
}

// Recorder receives domain metrics.
type Recorder interface {
	AppointmentCreated()
	StatusChanged(from, to models.AppointmentStatus)
	AppointmentsSeen(n int)
	AccessDenied(op string)
}

type nopNotifier struct{}

func (nopNotifier) Publish(string, models.AppointmentEvent) {}

type nopRecorder struct{}

func (nopRecorder) AppointmentCreated()                             {}
func (nopRecorder) StatusChanged(from, to models.AppointmentStatus) {}
func (nopRecorder) AppointmentsSeen(int)                            {}
func (nopRecorder) AccessDenied(string)                             {}

package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"appointment-booking-server/internal/models"
)

func (s *Store) joined(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Patient").Preload("Doctor")
}

// CreateAppointment inserts a, without touching the associated users.
func (s *Store) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error)
}

// GetAppointment loads one appointment with patient and doctor attached.
func (s *Store) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	var a models.Appointment
	if err := s.joined(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// ListAppointments returns matching appointments, newest date first.
func (s *Store) ListAppointments(ctx context.Context, f models.AppointmentFilter) ([]models.Appointment, error) {
	q := s.joined(ctx).Order("date desc")
	if f.PatientID != "" {
		q = q.Where("patient_id = ?", f.PatientID)
	}
	if f.DoctorID != "" {
		q = q.Where("doctor_id = ?", f.DoctorID)
	}
	if f.UnseenOnly {
		q = q.Where("seen_by_doctor = ?", false)
	}
	out := []models.Appointment{}
	if err := q.Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// UpdateAppointmentStatus moves an appointment from one status to another in
// a single conditional statement. When doctorID is set the row must also
// belong to that doctor. It reports whether a row was changed.
func (s *Store) UpdateAppointmentStatus(ctx context.Context, id string, from, to models.AppointmentStatus, doctorID string) (bool, error) {
	q := s.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ?", id).
		Where("status = ?", from)
	if doctorID != "" {
		q = q.Where("doctor_id = ?", doctorID)
	}
	res := q.Update("status", to)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkAppointmentSeen sets the seen flag on one of the doctor's appointments.
func (s *Store) MarkAppointmentSeen(ctx context.Context, id, doctorID string) error {
	res := s.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ?", id).
		Where("doctor_id = ?", doctorID).
		Update("seen_by_doctor", true)
	return translate(res.Error)
}

// MarkAllAppointmentsSeen flags every unseen appointment of the doctor and
// returns how many rows changed.
func (s *Store) MarkAllAppointmentsSeen(ctx context.Context, doctorID string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("doctor_id = ?", doctorID).
		Where("seen_by_doctor = ?", false).
		Update("seen_by_doctor", true)
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return res.RowsAffected, nil
}

// CountUnseen counts the doctor's appointments not yet marked seen.
func (s *Store) CountUnseen(ctx context.Context, doctorID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("doctor_id = ?", doctorID).
		Where("seen_by_doctor = ?", false).
		Count(&n).Error
	return n, translate(err)
}

// DeleteAppointment removes the row and reports whether it existed.
func (s *Store) DeleteAppointment(ctx context.Context, id string) (bool, error) {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Appointment{})
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

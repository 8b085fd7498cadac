package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"appointment-booking-server/internal/models"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{Conn: db, SkipInitializeWithVersion: true}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	return New(gdb), mock
}

func TestUpdateAppointmentStatusIsConditional(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE `appointments` SET `status`=\\?,`updated_at`=\\? WHERE id = \\? AND status = \\? AND doctor_id = \\?").
		WithArgs("CONFIRMED", sqlmock.AnyArg(), "apt-1", "PENDING", "d1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := s.UpdateAppointmentStatus(context.Background(), "apt-1", models.StatusPending, models.StatusConfirmed, "d1")
	if err != nil {
		t.Fatalf("UpdateAppointmentStatus: %v", err)
	}
	if !ok {
		t.Fatal("expected a row to be updated")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateAppointmentStatusNoMatch(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE `appointments` SET `status`=\\?,`updated_at`=\\? WHERE id = \\? AND status = \\?").
		WithArgs("COMPLETED", sqlmock.AnyArg(), "apt-1", "CONFIRMED").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := s.UpdateAppointmentStatus(context.Background(), "apt-1", models.StatusConfirmed, models.StatusCompleted, "")
	if err != nil {
		t.Fatalf("UpdateAppointmentStatus: %v", err)
	}
	if ok {
		t.Fatal("expected no row to be updated")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMarkAllAppointmentsSeen(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE `appointments` SET `seen_by_doctor`=\\?,`updated_at`=\\? WHERE doctor_id = \\? AND seen_by_doctor = \\?").
		WithArgs(true, sqlmock.AnyArg(), "d1", false).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := s.MarkAllAppointmentsSeen(context.Background(), "d1")
	if err != nil {
		t.Fatalf("MarkAllAppointmentsSeen: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rows, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCountUnseen(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `appointments` WHERE doctor_id = \\? AND seen_by_doctor = \\?").
		WithArgs("d1", false).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(2))

	n, err := s.CountUnseen(context.Background(), "d1")
	if err != nil {
		t.Fatalf("CountUnseen: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2, got %d", n)
	}
}

func TestDeleteAppointment(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM `appointments` WHERE id = \\?").
		WithArgs("apt-7").
		WillReturnResult(sqlmock.NewResult(0, 0))

	found, err := s.DeleteAppointment(context.Background(), "apt-7")
	if err != nil {
		t.Fatalf("DeleteAppointment: %v", err)
	}
	if found {
		t.Fatal("expected missing appointment to report not found")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetUserByEmailNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT \\* FROM `users` WHERE email = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role"}))

	_, err := s.GetUserByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO `users`").
		WillReturnError(&mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry 'a@b.com' for key 'idx_users_email'"})

	u := &models.User{Name: "A", Email: "a@b.com", PasswordHash: "x", Role: models.RolePatient}
	err := s.CreateUser(context.Background(), u)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if u.ID == "" {
		t.Fatal("expected BeforeCreate to assign an id")
	}
}

func TestGetAppointmentPreloadsParticipants(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT \\* FROM `appointments` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at", "date", "description", "status", "patient_id", "doctor_id", "seen_by_doctor"}).
			AddRow("apt-1", now, now, now, "checkup", "PENDING", "p1", "d1", false))

	// Preloads run in name order: Doctor, then Patient.
	userCols := []string{"id", "created_at", "updated_at", "name", "email", "password_hash", "role"}
	mock.ExpectQuery("SELECT \\* FROM `users`").
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("d1", now, now, "Doc", "doc@example.com", "hash", "DOCTOR"))
	mock.ExpectQuery("SELECT \\* FROM `users`").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("p1", now, now, "Pat", "pat@example.com", "hash", "PATIENT"))

	a, err := s.GetAppointment(context.Background(), "apt-1")
	if err != nil {
		t.Fatalf("GetAppointment: %v", err)
	}
	if a.Patient == nil || a.Patient.Name != "Pat" {
		t.Fatalf("patient not preloaded: %+v", a.Patient)
	}
	if a.Doctor == nil || a.Doctor.Name != "Doc" || a.Doctor.Role != models.RoleDoctor {
		t.Fatalf("doctor not preloaded: %+v", a.Doctor)
	}
	if a.Status != models.StatusPending || a.SeenByDoctor {
		t.Fatalf("unexpected row: %+v", a)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListAppointmentsScopedToPatient(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT \\* FROM `appointments` WHERE patient_id = \\? ORDER BY date desc").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	out, err := s.ListAppointments(context.Background(), models.AppointmentFilter{PatientID: "p1"})
	if err != nil {
		t.Fatalf("ListAppointments: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

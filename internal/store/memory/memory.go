// Package memory is an in-process implementation of the user and appointment
// repositories. It backs DB_DRIVER=memory and the service and handler tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"appointment-booking-server/internal/models"
	"appointment-booking-server/internal/store"
)

// Store keeps users and appointments in maps guarded by one lock.
type Store struct {
	mu           sync.RWMutex
	users        map[string]models.User
	emails       map[string]string
	appointments map[string]models.Appointment
	now          func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:        make(map[string]models.User),
		emails:       make(map[string]string),
		appointments: make(map[string]models.Appointment),
		now:          time.Now,
	}
}

// Ping reports whether ctx is still live.
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// CreateUser stores u. Emails are unique regardless of case.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, exists := s.emails[key]; exists {
		return store.ErrDuplicate
	}
	u.EnsureID()
	now := s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = *u
	s.emails[key] = u.ID
	return nil
}

// GetUser returns a copy of the user with id.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

// GetUserByEmail looks a user up by email, ignoring case.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return nil, store.ErrNotFound
	}
	u := s.users[id]
	return &u, nil
}

// ListUsers returns users with role, or all users when role is empty, ordered by name.
func (s *Store) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.User{}
	for _, u := range s.users {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreateAppointment stores a. Both participants must exist.
func (s *Store) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[a.PatientID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := s.users[a.DoctorID]; !ok {
		return store.ErrNotFound
	}
	a.EnsureID()
	now := s.now()
	a.CreatedAt, a.UpdatedAt = now, now
	row := *a
	row.Patient, row.Doctor = nil, nil
	s.appointments[a.ID] = row
	return nil
}

// join returns a copy of a with participant summaries attached. Callers hold the lock.
func (s *Store) join(a models.Appointment) models.Appointment {
	if u, ok := s.users[a.PatientID]; ok {
		a.Patient = &u
	}
	if u, ok := s.users[a.DoctorID]; ok {
		a.Doctor = &u
	}
	return a
}

// GetAppointment returns the appointment with participants attached.
func (s *Store) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.appointments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	joined := s.join(a)
	return &joined, nil
}

// ListAppointments returns matching rows, newest date first.
func (s *Store) ListAppointments(ctx context.Context, f models.AppointmentFilter) ([]models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Appointment{}
	for _, a := range s.appointments {
		if f.Matches(&a) {
			out = append(out, s.join(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

// UpdateAppointmentStatus moves the row from one status to another. It reports false if the row is gone, has left from, or belongs to a doctor other than a non-empty doctorID.
func (s *Store) UpdateAppointmentStatus(ctx context.Context, id string, from, to models.AppointmentStatus, doctorID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.appointments[id]
	if !ok || a.Status != from || (doctorID != "" && a.DoctorID != doctorID) {
		return false, nil
	}
	a.Status = to
	a.UpdatedAt = s.now()
	s.appointments[id] = a
	return true, nil
}

// MarkAppointmentSeen flags the appointment if doctorID owns it.
func (s *Store) MarkAppointmentSeen(ctx context.Context, id, doctorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.appointments[id]
	if !ok || a.DoctorID != doctorID || a.SeenByDoctor {
		return nil
	}
	a.SeenByDoctor = true
	a.UpdatedAt = s.now()
	s.appointments[id] = a
	return nil
}

// MarkAllAppointmentsSeen flags every unseen appointment of the doctor and returns how many changed.
func (s *Store) MarkAllAppointmentsSeen(ctx context.Context, doctorID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	now := s.now()
	for id, a := range s.appointments {
		if a.DoctorID == doctorID && !a.SeenByDoctor {
			a.SeenByDoctor = true
			a.UpdatedAt = now
			s.appointments[id] = a
			n++
		}
	}
	return n, nil
}

// CountUnseen counts the doctor's unseen appointments.
func (s *Store) CountUnseen(ctx context.Context, doctorID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, a := range s.appointments {
		if a.DoctorID == doctorID && !a.SeenByDoctor {
			n++
		}
	}
	return n, nil
}

// DeleteAppointment removes a row and reports whether it existed.
func (s *Store) DeleteAppointment(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.appointments[id]; !ok {
		return false, nil
	}
	delete(s.appointments, id)
	return true, nil
}

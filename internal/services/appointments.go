package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"appointment-booking-server/internal/models"
	"appointment-booking-server/internal/policy"
)

// AppointmentStore persists appointments. Reads return rows with Patient and
// Doctor attached.
type AppointmentStore interface {
	CreateAppointment(ctx context.Context, a *models.Appointment) error
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	ListAppointments(ctx context.Context, f models.AppointmentFilter) ([]models.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id string, from, to models.AppointmentStatus, doctorID string) (bool, error)
	MarkAppointmentSeen(ctx context.Context, id, doctorID string) error
	MarkAllAppointmentsSeen(ctx context.Context, doctorID string) (int64, error)
	CountUnseen(ctx context.Context, doctorID string) (int64, error)
	DeleteAppointment(ctx context.Context, id string) (bool, error)
}

const maxDescriptionLength = 1000

// AppointmentService applies the access policy and status rules on top of
// the appointment store.
type AppointmentService struct {
	appointments AppointmentStore
	users        UserStore
	notifier     Notifier
	metrics      Recorder
	logger       *slog.Logger
	now          func() time.Time
}

// AppointmentOption configures an AppointmentService.
type AppointmentOption func(*AppointmentService)

// WithNotifier sets where appointment events are published.
func WithNotifier(n Notifier) AppointmentOption {
	return func(s *AppointmentService) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) AppointmentOption {
	return func(s *AppointmentService) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) AppointmentOption {
	return func(s *AppointmentService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now for event timestamps.
func WithClock(now func() time.Time) AppointmentOption {
	return func(s *AppointmentService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewAppointmentService wires dependencies for appointment operations.
func NewAppointmentService(appointments AppointmentStore, users UserStore, opts ...AppointmentOption) *AppointmentService {
	s := &AppointmentService{
		appointments: appointments,
		users:        users,
		notifier:     nopNotifier{},
		metrics:      nopRecorder{},
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("service", "appointments")
	return s
}

// CreateAppointmentInput is what a patient submits when booking.
type CreateAppointmentInput struct {
	Date        string
	Description string
	DoctorID    string
}

// AppointmentList is a listing together with its size.
type AppointmentList struct {
	Appointments []models.Appointment `json:"appointments"`
	Count        int                  `json:"count"`
}

func newList(items []models.Appointment) AppointmentList {
	if items == nil {
		items = []models.Appointment{}
	}
	return AppointmentList{Appointments: items, Count: len(items)}
}

func (s *AppointmentService) authorize(ctx context.Context, p models.Principal, op policy.Operation, target *models.Appointment) error {
	d := policy.Decide(p, op, target)
	if d.Allowed {
		return nil
	}
	s.metrics.AccessDenied(string(op))
	attrs := []any{"operation", op, "user_id", p.ID, "role", p.Role, "reason", d.Reason}
	if target != nil {
		attrs = append(attrs, "appointment_id", target.ID)
	}
	s.logger.WarnContext(ctx, "access denied", attrs...)
	return denied(d)
}

// publish sends evt to both participants except the one who caused it.
func (s *AppointmentService) publish(typ models.AppointmentEventType, a *models.Appointment, actorID string) {
	evt := models.AppointmentEvent{Type: typ, Appointment: a, At: s.now().UTC()}
	for _, uid := range []string{a.PatientID, a.DoctorID} {
		if uid != actorID {
			s.notifier.Publish(uid, evt)
		}
	}
}

func (s *AppointmentService) load(ctx context.Context, id string) (*models.Appointment, error) {
	a, err := s.appointments.GetAppointment(ctx, id)
	if err != nil {
		return nil, notFound(err, "appointment", id)
	}
	return a, nil
}

// Create books an appointment for the calling patient. The patient id always
// comes from the principal, never from the request.
func (s *AppointmentService) Create(ctx context.Context, p models.Principal, in CreateAppointmentInput) (*models.Appointment, error) {
	if err := s.authorize(ctx, p, policy.OpCreate, nil); err != nil {
		return nil, err
	}

	date, err := time.Parse(time.RFC3339, strings.TrimSpace(in.Date))
	if err != nil {
		return nil, validationf("date must be an RFC 3339 timestamp")
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, validationf("description is required")
	}
	if len(description) > maxDescriptionLength {
		return nil, validationf("description must be at most %d characters", maxDescriptionLength)
	}
	doctorID := strings.TrimSpace(in.DoctorID)
	if doctorID == "" {
		return nil, validationf("doctorId is required")
	}

	doctor, err := s.users.GetUser(ctx, doctorID)
	if err != nil {
		return nil, notFound(err, "doctor", doctorID)
	}
	if doctor.Role != models.RoleDoctor {
		return nil, validationf("user %s is not a doctor", doctorID)
	}

	a := &models.Appointment{
		Date:         date.UTC(),
		Description:  description,
		Status:       models.StatusPending,
		PatientID:    p.ID,
		DoctorID:     doctor.ID,
		SeenByDoctor: false,
	}
	if err := s.appointments.CreateAppointment(ctx, a); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	created, err := s.load(ctx, a.ID)
	if err != nil {
		return nil, err
	}

	s.metrics.AppointmentCreated()
	s.logger.InfoContext(ctx, "appointment created",
		"appointment_id", created.ID, "patient_id", created.PatientID, "doctor_id", created.DoctorID)
	s.publish(models.EventAppointmentCreated, created, p.ID)
	return created, nil
}

// ListForPrincipal returns the caller's own appointments: by patient for
// patients, by doctor for doctors. Admins must use ListAll.
func (s *AppointmentService) ListForPrincipal(ctx context.Context, p models.Principal) (AppointmentList, error) {
	filter, ok := policy.Scope(p)
	if !ok {
		return AppointmentList{}, s.authorize(ctx, p, policy.OpList, nil)
	}
	items, err := s.appointments.ListAppointments(ctx, filter)
	if err != nil {
		return AppointmentList{}, fmt.Errorf("list appointments: %w", err)
	}
	return newList(items), nil
}

// ListAll returns every appointment. Admin only.
func (s *AppointmentService) ListAll(ctx context.Context, p models.Principal) (AppointmentList, error) {
	if err := s.authorize(ctx, p, policy.OpListAll, nil); err != nil {
		return AppointmentList{}, err
	}
	items, err := s.appointments.ListAppointments(ctx, models.AppointmentFilter{})
	if err != nil {
		return AppointmentList{}, fmt.Errorf("list appointments: %w", err)
	}
	return newList(items), nil
}

// Get returns a single appointment visible to p.
func (s *AppointmentService) Get(ctx context.Context, p models.Principal, id string) (*models.Appointment, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, p, policy.OpView, a); err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateStatus moves an appointment along the transition table. The write is
// conditional on the status and owner observed here, so a concurrent change
// surfaces as ErrConflict instead of being overwritten.
func (s *AppointmentService) UpdateStatus(ctx context.Context, p models.Principal, id, status string) (*models.Appointment, error) {
	if err := s.authorize(ctx, p, policy.OpUpdateStatus, nil); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, p, policy.OpUpdateStatus, current); err != nil {
		return nil, err
	}

	next, err := models.ParseAppointmentStatus(status)
	if err != nil {
		return nil, validationf("status must be one of PENDING, CONFIRMED, COMPLETED, CANCELLED, REJECTED")
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, next)
	}

	ok, err := s.appointments.UpdateAppointmentStatus(ctx, id, current.Status, next, policy.OwnerDoctorID(p))
	if err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: appointment %s was modified concurrently", ErrConflict, id)
	}

	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	s.metrics.StatusChanged(current.Status, next)
	s.logger.InfoContext(ctx, "appointment status changed",
		"appointment_id", id, "from", current.Status, "to", next, "user_id", p.ID, "role", p.Role)
	s.publish(models.EventStatusChanged, updated, p.ID)
	return updated, nil
}

// Delete removes an appointment. Admin only.
func (s *AppointmentService) Delete(ctx context.Context, p models.Principal, id string) error {
	if err := s.authorize(ctx, p, policy.OpDelete, nil); err != nil {
		return err
	}
	a, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	found, err := s.appointments.DeleteAppointment(ctx, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: appointment %s", ErrNotFound, id)
	}

	s.logger.InfoContext(ctx, "appointment deleted", "appointment_id", id, "user_id", p.ID)
	s.publish(models.EventAppointmentDeleted, a, p.ID)
	return nil
}

// ListUnseen returns the calling doctor's appointments not yet marked seen.
func (s *AppointmentService) ListUnseen(ctx context.Context, p models.Principal) (AppointmentList, error) {
	if err := s.authorize(ctx, p, policy.OpListUnseen, nil); err != nil {
		return AppointmentList{}, err
	}
	items, err := s.appointments.ListAppointments(ctx, models.AppointmentFilter{DoctorID: p.ID, UnseenOnly: true})
	if err != nil {
		return AppointmentList{}, fmt.Errorf("list unseen appointments: %w", err)
	}
	return newList(items), nil
}

// UnseenCount returns how many of the calling doctor's appointments are unseen.
func (s *AppointmentService) UnseenCount(ctx context.Context, p models.Principal) (int64, error) {
	if err := s.authorize(ctx, p, policy.OpListUnseen, nil); err != nil {
		return 0, err
	}
	n, err := s.appointments.CountUnseen(ctx, p.ID)
	if err != nil {
		return 0, fmt.Errorf("count unseen appointments: %w", err)
	}
	return n, nil
}

// MarkAllSeen flags every unseen appointment of the calling doctor and
// returns how many changed. Calling it again changes nothing.
func (s *AppointmentService) MarkAllSeen(ctx context.Context, p models.Principal) (int64, error) {
	if err := s.authorize(ctx, p, policy.OpMarkAllSeen, nil); err != nil {
		return 0, err
	}
	n, err := s.appointments.MarkAllAppointmentsSeen(ctx, p.ID)
	if err != nil {
		return 0, fmt.Errorf("mark appointments seen: %w", err)
	}
	if n > 0 {
		s.metrics.AppointmentsSeen(int(n))
		s.logger.InfoContext(ctx, "appointments marked seen", "doctor_id", p.ID, "count", n)
	}
	return n, nil
}

// MarkSeen flags one of the calling doctor's appointments as seen.
func (s *AppointmentService) MarkSeen(ctx context.Context, p models.Principal, id string) (*models.Appointment, error) {
	if err := s.authorize(ctx, p, policy.OpMarkSeen, nil); err != nil {
		return nil, err
	}
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, p, policy.OpMarkSeen, a); err != nil {
		return nil, err
	}
	if a.SeenByDoctor {
		return a, nil
	}

	if err := s.appointments.MarkAppointmentSeen(ctx, id, p.ID); err != nil {
		return nil, fmt.Errorf("mark appointment seen: %w", err)
	}
	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	s.metrics.AppointmentsSeen(1)
	s.logger.InfoContext(ctx, "appointment marked seen", "appointment_id", id, "doctor_id", p.ID)
	s.publish(models.EventAppointmentSeen, updated, p.ID)
	return updated, nil
}

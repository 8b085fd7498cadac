package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"appointment-booking-server/internal/middleware"
	"appointment-booking-server/internal/models"
	"appointment-booking-server/internal/notify"
	"appointment-booking-server/internal/services"
	"appointment-booking-server/internal/utils"
)

// AppointmentHandler handles appointment-related requests.
type AppointmentHandler struct {
	appointments *services.AppointmentService
	hub          *notify.Hub
}

// NewAppointmentHandler creates a new AppointmentHandler. hub may be nil,
// in which case the event stream is unavailable.
func NewAppointmentHandler(appointments *services.AppointmentService, hub *notify.Hub) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments, hub: hub}
}

// CreateAppointmentRequest represents the request body for creating an appointment.
// The patient is always the caller; a patientId in the body is ignored.
type CreateAppointmentRequest struct {
	Date        string `json:"date" binding:"required"`
	Description string `json:"description" binding:"required,max=1000"`
	DoctorID    string `json:"doctorId" binding:"required"`
}

// UpdateAppointmentStatusRequest represents the request body for updating status.
// Status is kept raw; the service validates it after authorization.
type UpdateAppointmentStatusRequest struct {
	Status json.RawMessage `json:"status"`
}

// requestedStatus extracts the status from the body without rejecting the
// request, so a malformed body still reaches the access policy.
func requestedStatus(c *gin.Context) string {
	var req UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return ""
	}
	var status string
	if err := json.Unmarshal(req.Status, &status); err != nil {
		return string(req.Status)
	}
	return status
}

// AppointmentResponse wraps a single appointment.
type AppointmentResponse struct {
	Message     string              `json:"message,omitempty"`
	Appointment *models.Appointment `json:"appointment"`
}

// MarkAllSeenResponse reports how many appointments were flagged.
type MarkAllSeenResponse struct {
	Message string `json:"message"`
	Updated int64  `json:"updated"`
}

// CountResponse carries a bare count.
type CountResponse struct {
	Count int64 `json:"count"`
}

// CreateAppointment books an appointment for the calling patient.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appt, err := h.appointments.Create(c.Request.Context(), p, services.CreateAppointmentInput{
		Date:        req.Date,
		Description: req.Description,
		DoctorID:    req.DoctorID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Created(c, AppointmentResponse{Message: "Appointment created successfully", Appointment: appt})
}

// GetAppointmentsForUser lists the caller's own appointments.
func (h *AppointmentHandler) GetAppointmentsForUser(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	list, err := h.appointments.ListForPrincipal(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, list)
}

// GetAllAppointments lists every appointment.
func (h *AppointmentHandler) GetAllAppointments(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	list, err := h.appointments.ListAll(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, list)
}

// GetAppointmentByID returns one appointment the caller may see.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	appt, err := h.appointments.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, AppointmentResponse{Appointment: appt})
}

// UpdateAppointmentStatus moves an appointment to a new status.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	appt, err := h.appointments.UpdateStatus(c.Request.Context(), p, c.Param("id"), requestedStatus(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, AppointmentResponse{Message: "Appointment status updated successfully", Appointment: appt})
}

// DeleteAppointment removes an appointment.
func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	if err := h.appointments.Delete(c.Request.Context(), p, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, utils.MessageResponse{Message: "Appointment deleted successfully"})
}

// GetUnseenAppointments lists the calling doctor's unseen appointments.
func (h *AppointmentHandler) GetUnseenAppointments(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	list, err := h.appointments.ListUnseen(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, list)
}

// GetUnseenCount returns how many appointments the calling doctor has not seen.
func (h *AppointmentHandler) GetUnseenCount(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	n, err := h.appointments.UnseenCount(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, CountResponse{Count: n})
}

// MarkAllSeen flags every appointment of the calling doctor as seen.
func (h *AppointmentHandler) MarkAllSeen(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	n, err := h.appointments.MarkAllSeen(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, MarkAllSeenResponse{Message: "Appointments marked as seen", Updated: n})
}

// MarkSeen flags one of the calling doctor's appointments as seen.
func (h *AppointmentHandler) MarkSeen(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	appt, err := h.appointments.MarkSeen(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, AppointmentResponse{Message: "Appointment marked as seen", Appointment: appt})
}

// Stream upgrades to a websocket that receives the caller's appointment events.
func (h *AppointmentHandler) Stream(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	if h.hub == nil {
		utils.Error(c, http.StatusServiceUnavailable, "Event stream is not available")
		return
	}
	if err := h.hub.Serve(c.Writer, c.Request, p.ID); err != nil {
		middleware.LoggerFrom(c).Debug("stream upgrade failed", "error", err)
	}
}

package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"appointment-service/internal/middleware"
	"appointment-service/internal/models"
	"appointment-service/internal/scheduling"
	"appointment-service/internal/utils"
)

// AppointmentHandler handles appointment related requests.
type AppointmentHandler struct {
	Service *scheduling.Service
	Log     *zap.Logger
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(svc *scheduling.Service, log *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{Service: svc, Log: log}
}

// BookAppointmentRequest represents the request body for booking an appointment.
type BookAppointmentRequest struct {
	DoctorID        string                   `json:"doctorId" binding:"required"`
	PatientID       string                   `json:"patientId" binding:"required"`
	AppointmentDate string                   `json:"appointmentDate" binding:"required"`
	StartTime       string                   `json:"startTime"`
	EndTime         string                   `json:"endTime"`
	Status          models.AppointmentStatus `json:"status" validate:"omitempty,oneof=scheduled confirmed completed cancelled rescheduled"`
}

// UpdateStatusRequest represents the request body for a status change.
type UpdateStatusRequest struct {
	Status    models.AppointmentStatus `json:"status" binding:"required" validate:"oneof=scheduled confirmed completed cancelled rescheduled"`
	StartTime string                   `json:"startTime"`
	EndTime   string                   `json:"endTime"`
	Reason    string                   `json:"reason"`
	ChangedBy *string                  `json:"changedBy"`
}

// CancelRequest is the optional body of a cancellation.
type CancelRequest struct {
	Reason      string  `json:"reason"`
	CancelledBy *string `json:"cancelledBy"`
}

// ConfirmRequest is the optional body of a confirmation.
type ConfirmRequest struct {
	ConfirmedBy *string `json:"confirmedBy"`
}

// CompleteRequest is the optional body of a completion.
type CompleteRequest struct {
	Notes       string  `json:"notes"`
	CompletedBy *string `json:"completedBy"`
}

// RescheduleRequest carries the reason for a reschedule.
type RescheduleRequest struct {
	StartTime     string  `json:"startTime" binding:"required"`
	EndTime       string  `json:"endTime" binding:"required"`
	Reason        string  `json:"reason"`
	RescheduledBy *string `json:"rescheduledBy"`
}

// BookAppointment handles booking a new appointment.
func (h *AppointmentHandler) BookAppointment(c *gin.Context) {
	var req BookAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	date, err := models.ParseDate(req.AppointmentDate)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	apt, err := h.Service.BookAppointment(c.Request.Context(), scheduling.BookRequest{
		DoctorID:  req.DoctorID,
		PatientID: req.PatientID,
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    req.Status,
	})
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Created(c, "Appointment booked successfully", apt)
}

// GetAppointments lists a patient's appointments or a doctor's upcoming ones.
func (h *AppointmentHandler) GetAppointments(c *gin.Context) {
	if patientID := c.Query("patientId"); patientID != "" {
		list, err := h.Service.GetAppointmentsByPatient(c.Request.Context(), patientID)
		if err != nil {
			respondError(c, h.Log, err)
			return
		}
		utils.Success(c, "Appointments retrieved successfully", list)
		return
	}
	if doctorID := c.Query("doctorId"); doctorID != "" {
		h.respondUpcoming(c, doctorID)
		return
	}
	utils.BadRequest(c, "patientId or doctorId query parameter is required")
}

// GetUpcomingAppointments handles fetching a doctor's upcoming appointments.
func (h *AppointmentHandler) GetUpcomingAppointments(c *gin.Context) {
	h.respondUpcoming(c, c.Param("doctorId"))
}

func (h *AppointmentHandler) respondUpcoming(c *gin.Context, doctorID string) {
	list, err := h.Service.GetUpcomingAppointments(c.Request.Context(), doctorID)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Upcoming appointments retrieved successfully", list)
}

// GetDoctorAvailability reports the free windows of a doctor on ?date=YYYY-MM-DD.
func (h *AppointmentHandler) GetDoctorAvailability(c *gin.Context) {
	raw := c.Query("date")
	if raw == "" {
		utils.BadRequest(c, "date query parameter is required")
		return
	}
	date, err := models.ParseDate(raw)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	availability, err := h.Service.GetDoctorAvailability(c.Request.Context(), c.Param("doctorId"), date)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Doctor availability retrieved successfully", availability)
}

// UpdateAppointmentStatus handles a generic status change, optionally moving the window.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	apt, err := h.Service.UpdateAppointmentStatus(c.Request.Context(), scheduling.TransitionRequest{
		AppointmentID: c.Param("appointmentId"),
		Status:        req.Status,
		Reason:        req.Reason,
		ChangedBy:     actorOr(c, req.ChangedBy),
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	})
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Appointment status updated successfully", apt)
}

// CancelAppointment handles cancelling an appointment.
func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	var req CancelRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	apt, err := h.Service.Cancel(c.Request.Context(), c.Param("appointmentId"), req.Reason, actorOr(c, req.CancelledBy))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Appointment cancelled successfully", apt)
}

// ConfirmAppointment handles confirming a scheduled appointment.
func (h *AppointmentHandler) ConfirmAppointment(c *gin.Context) {
	var req ConfirmRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	apt, err := h.Service.Confirm(c.Request.Context(), c.Param("appointmentId"), actorOr(c, req.ConfirmedBy))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Appointment confirmed successfully", apt)
}

// CompleteAppointment handles marking an appointment as completed.
func (h *AppointmentHandler) CompleteAppointment(c *gin.Context) {
	var req CompleteRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	apt, err := h.Service.Complete(c.Request.Context(), c.Param("appointmentId"), req.Notes, actorOr(c, req.CompletedBy))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Appointment completed successfully", apt)
}

// RescheduleAppointment handles marking an appointment as rescheduled.
func (h *AppointmentHandler) RescheduleAppointment(c *gin.Context) {
	var req RescheduleRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	apt, err := h.Service.Reschedule(c.Request.Context(), c.Param("appointmentId"),
		req.StartTime, req.EndTime, req.Reason, actorOr(c, req.RescheduledBy))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Appointment rescheduled successfully", apt)
}

// GetAppointmentHistory returns the audit trail newest first.
func (h *AppointmentHandler) GetAppointmentHistory(c *gin.Context) {
	history, err := h.Service.GetAppointmentHistory(c.Request.Context(), c.Param("appointmentId"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Appointment history retrieved successfully", history)
}

// GetAppointmentCounts handles fetching a patient's appointment counts.
func (h *AppointmentHandler) GetAppointmentCounts(c *gin.Context) {
	counts, err := h.Service.GetAppointmentCounts(c.Request.Context(), c.Param("patientId"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Appointment counts retrieved successfully", counts)
}

// GetDoctorAppointmentCounts handles fetching a doctor's appointment counts.
func (h *AppointmentHandler) GetDoctorAppointmentCounts(c *gin.Context) {
	counts, err := h.Service.GetDoctorAppointmentCounts(c.Request.Context(), c.Param("doctorId"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Doctor appointment counts retrieved successfully", counts)
}

// actorOr prefers an explicit actor from the body over the one asserted by the gateway.
func actorOr(c *gin.Context, explicit *string) *string {
	if explicit != nil && *explicit != "" {
		return explicit
	}
	if id, ok := middleware.GetActorFromContext(c); ok {
		return &id
	}
	return nil
}

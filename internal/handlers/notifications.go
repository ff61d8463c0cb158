package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"appointment-service/internal/notification"
	"appointment-service/internal/utils"
)

// NotificationHandler handles notification related requests.
type NotificationHandler struct {
	Service *notification.Service
	Log     *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(svc *notification.Service, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{Service: svc, Log: log}
}

// CreateNotificationRequest represents the request body for creating a notification.
type CreateNotificationRequest struct {
	UserID        string  `json:"userId" binding:"required"`
	Title         string  `json:"title" binding:"required" validate:"max=255"`
	Message       string  `json:"message" binding:"required"`
	AppointmentID *string `json:"appointmentId"`
}

// CreateNotification handles creating a notification for a user.
func (h *NotificationHandler) CreateNotification(c *gin.Context) {
	var req CreateNotificationRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	n, err := h.Service.Create(c.Request.Context(), req.UserID, req.Title, req.Message, req.AppointmentID)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Created(c, "Notification created successfully", n)
}

// GetAllNotifications handles listing every notification.
func (h *NotificationHandler) GetAllNotifications(c *gin.Context) {
	list, err := h.Service.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Notifications retrieved successfully", list)
}

// GetUserNotifications handles listing a user's notifications.
func (h *NotificationHandler) GetUserNotifications(c *gin.Context) {
	list, err := h.Service.ListByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Notifications retrieved successfully", list)
}

// MarkAsRead handles marking one notification as read.
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	n, err := h.Service.MarkAsRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Notification marked as read", n)
}

// MarkAllAsRead handles marking all of a user's notifications as read.
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	updated, err := h.Service.MarkAllAsRead(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Notifications marked as read", gin.H{"updated": updated})
}

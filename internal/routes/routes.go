package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"appointment-service/internal/handlers"
	"appointment-service/internal/metrics"
)

// Handlers groups the HTTP handlers mounted by SetupRoutes.
type Handlers struct {
	Appointments  *handlers.AppointmentHandler
	Notifications *handlers.NotificationHandler
	// Metrics is optional. When nil, /metrics is not mounted.
	Metrics *metrics.Collector
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, h Handlers) {
	api := router.Group("/api/v1")
	{
		apt := h.Appointments
		appointmentRoutes := api.Group("/appointments")
		{
			appointmentRoutes.POST("/book", apt.BookAppointment)
			appointmentRoutes.GET("", apt.GetAppointments)
			appointmentRoutes.GET("/upcoming/:doctorId", apt.GetUpcomingAppointments)
			appointmentRoutes.GET("/doctor-availability/:doctorId", apt.GetDoctorAvailability)
			appointmentRoutes.GET("/history/:appointmentId", apt.GetAppointmentHistory)
			appointmentRoutes.GET("/counts/:patientId", apt.GetAppointmentCounts)
			appointmentRoutes.GET("/doctor-counts/:doctorId", apt.GetDoctorAppointmentCounts)

			appointmentRoutes.PATCH("/update/:appointmentId", apt.UpdateAppointmentStatus)
			appointmentRoutes.PATCH("/cancel/:appointmentId", apt.CancelAppointment)
			appointmentRoutes.PATCH("/confirm/:appointmentId", apt.ConfirmAppointment)
			appointmentRoutes.PATCH("/complete/:appointmentId", apt.CompleteAppointment)
			appointmentRoutes.PATCH("/reschedule/:appointmentId", apt.RescheduleAppointment)
		}

		n := h.Notifications
		notificationRoutes := api.Group("/notifications")
		{
			notificationRoutes.POST("", n.CreateNotification)
			notificationRoutes.GET("", n.GetAllNotifications)
			notificationRoutes.GET("/user/:userId", n.GetUserNotifications)
			notificationRoutes.PATCH("/:id/read", n.MarkAsRead)
			notificationRoutes.PATCH("/user/:userId/read-all", n.MarkAllAsRead)
		}
	}

	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})
}

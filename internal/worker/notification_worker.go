package worker

import (
	"github.com/boon-market/support-router/internal/service"
)

// StartNotificationWorker registers lifecycle event handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

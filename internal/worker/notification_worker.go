package worker

import (
	"github.com/spec-kit/asset-tracker/internal/service"
)

// Start registers the notification and stock cache invalidation handlers.
func Start(notifications *service.NotificationService, stock *service.StockService) {
	if notifications != nil {
		notifications.RegisterHandlers()
	}
	if stock != nil {
		stock.RegisterHandlers()
	}
}

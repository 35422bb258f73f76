package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/semprecheio/auth-api/internal/service"
)

// StartNotificationWorker registers notification handlers and returns a channel
// closed once ctx is done and pending webhook deliveries have drained.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if notificationService == nil {
		close(done)
		return done
	}
	notificationService.RegisterHandlers()

	go func() {
		defer close(done)
		<-ctx.Done()
		notificationService.Wait()
		logger.Info("notification worker drained")
	}()
	return done
}

package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/coffeeshop-service/internal/events"
	"github.com/spec-kit/coffeeshop-service/internal/service"
)

// StartMenuCacheWorker subscribes cache invalidation and audit logging to
// drink mutation events.
func StartMenuCacheWorker(dispatcher events.Dispatcher, cache *service.MenuCache, logger *zap.Logger) {
	if dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventDrinkCreated,
		events.EventDrinkUpdated,
		events.EventDrinkDeleted,
	} {
		dispatcher.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
			cache.Invalidate(ctx)
			logger.Info("drink menu changed",
				zap.String("event", string(event.Type)),
				zap.Int64("drink_id", event.DrinkID),
				zap.String("subject", event.Subject),
			)
			return nil
		})
	}
}

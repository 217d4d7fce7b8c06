package eventbus

import (
	"context"

	"github.com/dustin/go-humanize"

	"github.com/annel0/voxelworld/internal/logging"
)

// StartLoggingListener подписывается на все события и пишет их в лог компонента.
// Функция неблокирующая.
func StartLoggingListener(ctx context.Context, bus EventBus, logger *logging.Logger) (Subscription, error) {
	sub, err := bus.Subscribe(ctx, Filter{}, func(ctx context.Context, ev *Envelope) {
		logger.Trace("[EventBus] %s %s src=%s prio=%d coords=%s size=%s",
			ev.ID, ev.EventType, ev.Source, ev.Priority, ev.Metadata[MetaCoords], humanize.Bytes(uint64(len(ev.Payload))))
	})
	if err != nil {
		return nil, err
	}
	logger.Info("🪵 LoggingListener: подписка на все события активирована")
	return sub, nil
}

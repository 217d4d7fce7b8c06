package eventbus

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Envelope конверт события мира на шине.
// Формат стабилен: новые поля добавляются только с повышением Version.
type Envelope struct {
	ID            string            `json:"id"`             // UUID, он же Nats-Msg-Id
	Timestamp     time.Time         `json:"timestamp"`      // UTC
	Source        string            `json:"source"`         // сервис-источник
	EventType     string            `json:"event_type"`     // ChunkLoaded, BlockHovered…
	Version       int               `json:"version"`        // версия полезной нагрузки
	CorrelationID string            `json:"correlation_id"` // связывает цепочки событий
	Priority      int               `json:"priority"`       // 0..9, ниже 5 может быть отброшено
	Payload       []byte            `json:"payload"`        // сжатый снимок чанка или пусто
	Metadata      map[string]string `json:"metadata"`
}

// NewEnvelope создаёт конверт с новым UUID и текущим временем
func NewEnvelope(source, eventType string, priority int) *Envelope {
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Version:   1,
		Priority:  priority,
		Metadata:  make(map[string]string),
	}
}

// Filter отбирает события по типу и источнику; пустой список пропускает всё
type Filter struct {
	Types   []string
	Sources []string
}

// Subscription подписка на шину
type Subscription interface {
	Unsubscribe()
}

// Handler обработчик событий подписки
type Handler func(ctx context.Context, ev *Envelope)

// Stats счётчики шины
type Stats struct {
	Published uint64 `json:"published"`
	Consumed  uint64 `json:"consumed"`
	Dropped   uint64 `json:"dropped"`
	InFlight  int    `json:"in_flight"`
}

// EventBus шина событий: в памяти процесса или NATS JetStream
type EventBus interface {
	// Publish ставит событие в очередь доставки
	Publish(ctx context.Context, ev *Envelope) error
	// Subscribe вызывает h для каждого подходящего под f события
	Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error)
	Metrics() Stats
	Close() error
}

func matchFilter(ev *Envelope, f Filter) bool {
	return (len(f.Types) == 0 || slices.Contains(f.Types, ev.EventType)) &&
		(len(f.Sources) == 0 || slices.Contains(f.Sources, ev.Source))
}

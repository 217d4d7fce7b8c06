package eventbus

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"go.uber.org/atomic"

	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/world"
)

// Ключи метаданных конверта
const (
	MetaCoords      = "coords"
	MetaFingerprint = "fingerprint"
	MetaBlocks      = "blocks"
	MetaNormal      = "normal"
	MetaBrightness  = "brightness"
)

// Приоритеты событий мира
const (
	priorityHover  = 3
	priorityChunk  = 5
	priorityUpdate = 7
)

// WorldSource источник событий мира в конвертах
const WorldSource = "world"

// WorldPublisher переводит исходящие события мира в конверты шины
type WorldPublisher struct {
	bus    EventBus
	logger *logging.Logger

	published atomic.Uint64
	failed    atomic.Uint64
	bytes     atomic.Uint64
}

// NewWorldPublisher создаёт издателя поверх шины
func NewWorldPublisher(bus EventBus) *WorldPublisher {
	return &WorldPublisher{
		bus:    bus,
		logger: logging.GetComponentLogger("eventbus"),
	}
}

// Envelope строит конверт для события мира
func (p *WorldPublisher) Envelope(event world.ServerEvent) (*Envelope, error) {
	eventType := event.GetType().String()

	switch ev := event.(type) {
	case world.ChunkLoaded:
		return chunkEnvelope(eventType, priorityChunk, ev.Data)
	case world.ChunkUpdated:
		return chunkEnvelope(eventType, priorityUpdate, ev.Data)
	case world.ChunkUnloaded:
		env := NewEnvelope(WorldSource, eventType, priorityChunk)
		env.Metadata[MetaCoords] = ev.Coords.String()
		return env, nil
	case world.BlockHovered:
		env := NewEnvelope(WorldSource, eventType, priorityHover)
		if ev.Coords != nil {
			env.Metadata[MetaCoords] = ev.Coords.String()
			env.Metadata[MetaNormal] = ev.Normal.String()
		}
		env.Metadata[MetaBrightness] = ev.Brightness.String()
		return env, nil
	default:
		return nil, fmt.Errorf("eventbus: unsupported world event %s", eventType)
	}
}

func chunkEnvelope(eventType string, priority int, data *world.ChunkData) (*Envelope, error) {
	payload, err := EncodeSnapshot(data)
	if err != nil {
		return nil, err
	}
	env := NewEnvelope(WorldSource, eventType, priority)
	env.Payload = payload
	env.Metadata[MetaCoords] = data.Coords.String()
	env.Metadata[MetaFingerprint] = strconv.FormatUint(data.Chunk.Fingerprint(), 16)
	env.Metadata[MetaBlocks] = strconv.Itoa(data.Chunk.BlockCount())
	return env, nil
}

// Handle публикует одно событие мира
func (p *WorldPublisher) Handle(ctx context.Context, event world.ServerEvent) error {
	env, err := p.Envelope(event)
	if err != nil {
		p.failed.Inc()
		return err
	}
	if err := p.bus.Publish(ctx, env); err != nil {
		p.failed.Inc()
		return fmt.Errorf("publish %s: %w", env.EventType, err)
	}
	p.published.Inc()
	p.bytes.Add(uint64(len(env.Payload)))
	return nil
}

// Run публикует события, пока канал открыт или контекст не отменён.
// Ошибки публикации логируются и не останавливают цикл.
func (p *WorldPublisher) Run(ctx context.Context, events <-chan world.ServerEvent) error {
	defer func() {
		p.logger.Info("📤 Издатель мира остановлен: %d событий, %s, ошибок %d",
			p.published.Load(), humanize.Bytes(p.bytes.Load()), p.failed.Load())
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := p.Handle(ctx, event); err != nil {
				p.logger.Warn("⚠️ Не удалось опубликовать %s: %v", event.GetType(), err)
			}
		}
	}
}

// Published число успешно опубликованных событий
func (p *WorldPublisher) Published() uint64 {
	return p.published.Load()
}

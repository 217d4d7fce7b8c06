package eventbus

import (
	"context"
	"errors"
	"sync"
)

// ErrBusClosed возвращается при публикации в закрытую шину
var ErrBusClosed = errors.New("eventbus: bus closed")

const (
	// subscriberQueue размер очереди одного подписчика
	subscriberQueue = 1024
	// dropBelow события с меньшим приоритетом отбрасываются при полном буфере
	dropBelow = 5
)

// memoryBus шина в памяти процесса. Общий буфер разбирает одна горутина,
// у каждого подписчика своя очередь и своя горутина, поэтому порядок
// событий для подписчика совпадает с порядком публикации.
type memoryBus struct {
	input chan *Envelope
	done  chan struct{}

	closeMu sync.RWMutex
	closed  bool

	mu     sync.Mutex
	subs   map[int]*subscriber
	nextID int
	stats  Stats
}

type subscriber struct {
	filter  Filter
	handler Handler
	queue   chan *Envelope
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewMemoryBus создаёт шину в памяти с общим буфером capacity
func NewMemoryBus(capacity int) EventBus {
	mb := &memoryBus{
		input: make(chan *Envelope, capacity),
		done:  make(chan struct{}),
		subs:  make(map[int]*subscriber),
	}
	go mb.dispatch()
	return mb
}

func (mb *memoryBus) Publish(ctx context.Context, ev *Envelope) error {
	mb.closeMu.RLock()
	defer mb.closeMu.RUnlock()
	if mb.closed {
		return ErrBusClosed
	}

	select {
	case mb.input <- ev:
		mb.count(func(s *Stats) { s.Published++ })
		return nil
	default:
	}

	if ev.Priority < dropBelow {
		mb.count(func(s *Stats) { s.Dropped++ })
		return nil
	}
	select {
	case mb.input <- ev:
		mb.count(func(s *Stats) { s.Published++ })
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (mb *memoryBus) count(fn func(s *Stats)) {
	mb.mu.Lock()
	fn(&mb.stats)
	mb.mu.Unlock()
}

func (mb *memoryBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscriber{
		filter:  f,
		handler: h,
		queue:   make(chan *Envelope, subscriberQueue),
		ctx:     subCtx,
		cancel:  cancel,
	}

	mb.mu.Lock()
	id := mb.nextID
	mb.nextID++
	mb.subs[id] = sub
	mb.mu.Unlock()

	go mb.consume(sub)
	return &memSub{bus: mb, id: id}, nil
}

func (mb *memoryBus) consume(sub *subscriber) {
	for {
		select {
		case <-sub.ctx.Done():
			return
		case ev := <-sub.queue:
			sub.handler(sub.ctx, ev)
			mb.count(func(s *Stats) { s.Consumed++ })
		}
	}
}

func (mb *memoryBus) Metrics() Stats {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	s := mb.stats
	s.InFlight = len(mb.input)
	for _, sub := range mb.subs {
		s.InFlight += len(sub.queue)
	}
	return s
}

// Close дожидается раздачи буфера по очередям и останавливает подписчиков
func (mb *memoryBus) Close() error {
	mb.closeMu.Lock()
	if mb.closed {
		mb.closeMu.Unlock()
		return nil
	}
	mb.closed = true
	close(mb.input)
	mb.closeMu.Unlock()

	<-mb.done
	mb.mu.Lock()
	for id, sub := range mb.subs {
		sub.cancel()
		delete(mb.subs, id)
	}
	mb.mu.Unlock()
	return nil
}

func (mb *memoryBus) snapshot() []*subscriber {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	subs := make([]*subscriber, 0, len(mb.subs))
	for _, sub := range mb.subs {
		subs = append(subs, sub)
	}
	return subs
}

func (mb *memoryBus) dispatch() {
	defer close(mb.done)
	for ev := range mb.input {
		for _, sub := range mb.snapshot() {
			if !matchFilter(ev, sub.filter) {
				continue
			}
			select {
			case sub.queue <- ev:
			case <-sub.ctx.Done():
			default:
				mb.count(func(s *Stats) { s.Dropped++ })
			}
		}
	}
}

type memSub struct {
	bus *memoryBus
	id  int
}

func (s *memSub) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	if sub, ok := s.bus.subs[s.id]; ok {
		sub.cancel()
		delete(s.bus.subs, s.id)
	}
}

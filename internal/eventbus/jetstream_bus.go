package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	nats "github.com/nats-io/nats.go"
	"go.uber.org/atomic"
)

// DefaultStream стрим событий мира по умолчанию
const DefaultStream = "WORLD"

const (
	dedupWindow = time.Minute
	ackWait     = 30 * time.Second
)

// JetStreamBus шина поверх NATS JetStream. Конверт уходит в subject
// <stream в нижнем регистре>.<EventType> JSON-документом.
type JetStreamBus struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	prefix string

	published, consumed, dropped atomic.Uint64

	mu   sync.Mutex
	subs []*nats.Subscription
}

// NewJetStreamBus подключается к url и создаёт стрим, если его нет.
// retention ограничивает возраст сообщений в стриме.
func NewJetStreamBus(url, stream string, retention time.Duration) (*JetStreamBus, error) {
	if stream == "" {
		stream = DefaultStream
	}

	conn, err := nats.Connect(url, nats.Name("voxelworld"))
	if err != nil {
		return nil, fmt.Errorf("eventbus: connect %s: %w", url, err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("eventbus: jetstream context: %w", err)
	}

	prefix := subjectPrefix(stream)
	if err := ensureStream(js, stream, prefix, retention); err != nil {
		conn.Close()
		return nil, err
	}
	return &JetStreamBus{conn: conn, js: js, prefix: prefix}, nil
}

func ensureStream(js nats.JetStreamContext, name, prefix string, retention time.Duration) error {
	if _, err := js.StreamInfo(name); err == nil {
		return nil
	}
	cfg := &nats.StreamConfig{
		Name:       name,
		Subjects:   []string{prefix + ".*"},
		Retention:  nats.LimitsPolicy,
		Storage:    nats.FileStorage,
		MaxAge:     retention,
		Duplicates: dedupWindow,
	}
	if _, err := js.AddStream(cfg); err != nil {
		return fmt.Errorf("eventbus: create stream %s: %w", name, err)
	}
	return nil
}

func subjectPrefix(stream string) string {
	return strings.ToLower(stream)
}

func (jb *JetStreamBus) subject(eventType string) string {
	return jb.prefix + "." + eventType
}

// Publish ждёт подтверждения стрима. ID конверта идёт в Nats-Msg-Id,
// поэтому повтор в окне дедупликации не создаёт дубль.
func (jb *JetStreamBus) Publish(ctx context.Context, ev *Envelope) error {
	body, err := json.Marshal(ev)
	if err == nil {
		_, err = jb.js.Publish(jb.subject(ev.EventType), body, nats.Context(ctx), nats.MsgId(ev.ID))
	}
	if err != nil {
		jb.dropped.Inc()
		return fmt.Errorf("eventbus: publish %s: %w", ev.EventType, err)
	}
	jb.published.Inc()
	return nil
}

// Subscribe создаёт эфемерного потребителя, который получает только новые
// сообщения. Фильтр по одному типу сужается до subject.
func (jb *JetStreamBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	subj := jb.prefix + ".*"
	if len(f.Types) == 1 {
		subj = jb.subject(f.Types[0])
	}

	sub, err := jb.js.Subscribe(subj, func(msg *nats.Msg) {
		ev := new(Envelope)
		if err := json.Unmarshal(msg.Data, ev); err != nil {
			jb.dropped.Inc()
			_ = msg.Term()
			return
		}
		if matchFilter(ev, f) {
			h(ctx, ev)
			jb.consumed.Inc()
		}
		_ = msg.Ack()
	}, nats.DeliverNew(), nats.ManualAck(), nats.AckWait(ackWait))
	if err != nil {
		return nil, fmt.Errorf("eventbus: subscribe %s: %w", subj, err)
	}

	jb.mu.Lock()
	jb.subs = append(jb.subs, sub)
	jb.mu.Unlock()
	return &jetSub{bus: jb, sub: sub}, nil
}

type jetSub struct {
	bus *JetStreamBus
	sub *nats.Subscription
}

func (j *jetSub) Unsubscribe() {
	_ = j.sub.Unsubscribe()
	j.bus.mu.Lock()
	defer j.bus.mu.Unlock()
	for i, s := range j.bus.subs {
		if s == j.sub {
			j.bus.subs = append(j.bus.subs[:i], j.bus.subs[i+1:]...)
			break
		}
	}
}

// Metrics считает InFlight как сообщения, принятые клиентом и ещё не
// переданные обработчикам.
func (jb *JetStreamBus) Metrics() Stats {
	s := Stats{
		Published: jb.published.Load(),
		Consumed:  jb.consumed.Load(),
		Dropped:   jb.dropped.Load(),
	}
	jb.mu.Lock()
	for _, sub := range jb.subs {
		if n, _, err := sub.Pending(); err == nil {
			s.InFlight += n
		}
	}
	jb.mu.Unlock()
	return s
}

// Close дожидается отправки буфера и закрывает соединение.
func (jb *JetStreamBus) Close() error {
	return jb.conn.Drain()
}

package eventbus

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Метки исхода сообщения в eventbus_messages_total
const (
	outcomePublished = "published"
	outcomeConsumed  = "consumed"
	outcomeDropped   = "dropped"
)

// MetricsExporter раз в секунду снимает Stats шины и переносит их в Prometheus.
type MetricsExporter struct {
	bus    EventBus
	period time.Duration

	messages *prometheus.CounterVec
	inflight prometheus.Gauge

	mu   sync.Mutex
	last Stats

	stop    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewMetricsExporter регистрирует eventbus_messages_total{outcome} и
// eventbus_messages_inflight в reg (nil допустим).
func NewMetricsExporter(bus EventBus, reg prometheus.Registerer) *MetricsExporter {
	m := &MetricsExporter{
		bus:    bus,
		period: time.Second,
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventbus",
			Name:      "messages_total",
			Help:      "Сообщения шины по исходу: published, consumed, dropped.",
		}, []string{"outcome"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eventbus",
			Name:      "messages_inflight",
			Help:      "Сообщения в буферах шины.",
		}),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	if reg != nil {
		reg.MustRegister(m.messages, m.inflight)
	}
	return m
}

func (m *MetricsExporter) Start() {
	go func() {
		defer close(m.stopped)
		t := time.NewTicker(m.period)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				m.Collect()
			case <-m.stop:
				m.Collect()
				return
			}
		}
	}()
}

// Stop делает последний съём и ждёт остановки. Вызывать только после Start.
func (m *MetricsExporter) Stop() {
	m.once.Do(func() { close(m.stop) })
	<-m.stopped
}

// Collect добавляет к счётчикам прирост с прошлого съёма.
func (m *MetricsExporter) Collect() {
	cur := m.bus.Metrics()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.add(outcomePublished, m.last.Published, cur.Published)
	m.add(outcomeConsumed, m.last.Consumed, cur.Consumed)
	m.add(outcomeDropped, m.last.Dropped, cur.Dropped)
	m.inflight.Set(float64(cur.InFlight))
	m.last = cur
}

func (m *MetricsExporter) add(outcome string, prev, cur uint64) {
	if cur > prev {
		m.messages.WithLabelValues(outcome).Add(float64(cur - prev))
	}
}

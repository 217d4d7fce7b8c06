package world

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics Prometheus-метрики симуляции мира.
// nil-значение допустимо: все методы тогда ничего не делают.
type Metrics struct {
	events       *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	edits        *prometheus.CounterVec
	outbound     *prometheus.CounterVec
	loadedChunks prometheus.Gauge
	actions      prometheus.Gauge
	lightGrids   prometheus.Gauge
}

// NewMetrics создаёт метрики и регистрирует их в reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "world",
			Name:      "events_total",
			Help:      "Обработанные входящие события по типам.",
		}, []string{"type"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "world",
			Name:      "event_duration_seconds",
			Help:      "Время обработки входящего события.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"type"}),
		edits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "world",
			Name:      "edits_total",
			Help:      "Правки блоков по результату.",
		}, []string{"result"}),
		outbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "world",
			Name:      "outbound_events_total",
			Help:      "Отправленные исходящие события по типам.",
		}, []string{"type"}),
		loadedChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "world",
			Name:      "loaded_chunks",
			Help:      "Количество загруженных чанков.",
		}),
		actions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "world",
			Name:      "recorded_actions",
			Help:      "Количество позиций в журнале правок.",
		}),
		lightGrids: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "world",
			Name:      "light_grids",
			Help:      "Количество созданных сеток света.",
		}),
	}
	reg.MustRegister(m.events, m.duration, m.edits, m.outbound, m.loadedChunks, m.actions, m.lightGrids)
	return m
}

func (m *Metrics) observeEvent(t EventType, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(t.String()).Inc()
	m.duration.WithLabelValues(t.String()).Observe(elapsed.Seconds())
}

func (m *Metrics) observeEdit(accepted bool) {
	if m == nil {
		return
	}
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	m.edits.WithLabelValues(result).Inc()
}

func (m *Metrics) observeOutbound(t EventType) {
	if m == nil {
		return
	}
	m.outbound.WithLabelValues(t.String()).Inc()
}

func (m *Metrics) observeState(s Stats) {
	if m == nil {
		return
	}
	m.loadedChunks.Set(float64(s.LoadedChunks))
	m.actions.Set(float64(s.Actions))
	m.lightGrids.Set(float64(s.LightGrids))
}

// Package app собирает компоненты сервера мира и управляет их жизненным циклом.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/annel0/voxelworld/internal/api"
	"github.com/annel0/voxelworld/internal/config"
	"github.com/annel0/voxelworld/internal/eventbus"
	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/mesh"
	"github.com/annel0/voxelworld/internal/world"
)

// FrameInterval период применения готовых мешей
const FrameInterval = 16 * time.Millisecond

// SpawnPosition точка появления игрока при старте
var SpawnPosition = mgl32.Vec3{0.5, 96.5, 0.5}

// App сервер мира целиком
type App struct {
	cfg      *config.Config
	registry *prometheus.Registry
	logger   *logging.Logger

	cache   *world.CachedGenerator
	world   *world.WorldManager
	pool    *mesh.WorkerPool
	display *mesh.Display

	bus        eventbus.EventBus
	publisher  *eventbus.WorldPublisher
	busMetrics *eventbus.MetricsExporter

	rest    *api.RestServer
	metrics *http.Server
}

// New создаёт все компоненты, но ничего не запускает
func New(cfg *config.Config) (*App, error) {
	a := &App{
		cfg:      cfg,
		registry: prometheus.NewRegistry(),
		logger:   logging.GetComponentLogger("app"),
	}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var generator world.Generator = world.NewWorldGenerator(cfg.World.Seed)
	if cfg.World.CacheChunks > 0 {
		cache, err := world.NewCachedGenerator(generator, cfg.World.CacheChunks)
		if err != nil {
			return nil, fmt.Errorf("кэш генератора: %w", err)
		}
		a.cache = cache
		generator = cache
	}

	a.world = world.NewWorldManager(world.Options{
		Generator:      generator,
		Reach:          world.Reach{Min: cfg.World.ReachMin, Max: cfg.World.ReachMax},
		Parallelism:    cfg.World.Parallelism,
		InboundBuffer:  cfg.World.InboundBuffer,
		OutboundBuffer: cfg.World.OutboundBuffer,
		Metrics:        world.NewMetrics(a.registry),
	})

	if cfg.Mesh.Enabled {
		workers := cfg.Mesh.Workers
		if workers <= 0 {
			workers = mesh.DefaultWorkers()
		}
		a.pool = mesh.NewWorkerPool(workers)
		a.display = mesh.NewDisplay(a.pool)
	}

	bus, err := newBus(cfg.EventBus)
	if err != nil {
		a.closeResources()
		return nil, err
	}
	a.bus = bus
	a.publisher = eventbus.NewWorldPublisher(bus)
	a.busMetrics = eventbus.NewMetricsExporter(bus, a.registry)

	restCfg := api.Config{
		Port:     ":" + strconv.Itoa(cfg.Server.GetRESTPort()),
		World:    a.world,
		Registry: a.registry,
	}
	if a.pool != nil {
		restCfg.Mesh = a.pool
	}
	a.rest = api.NewRestServer(restCfg)

	a.metrics = &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.GetMetricsPort()),
		Handler:           promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return a, nil
}

func newBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	if cfg.URL == "" {
		return eventbus.NewMemoryBus(1024), nil
	}
	bus, err := eventbus.NewJetStreamBus(cfg.URL, cfg.Stream, time.Duration(cfg.Retention)*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("шина событий: %w", err)
	}
	return bus, nil
}

// Registry регистр метрик процесса
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}

// Run запускает все компоненты и блокируется до отмены ctx или первой ошибки
func (a *App) Run(ctx context.Context) error {
	defer a.closeResources()

	g, ctx := errgroup.WithContext(ctx)
	published := make(chan world.ServerEvent, a.cfg.World.OutboundBuffer)

	if _, err := eventbus.StartLoggingListener(ctx, a.bus, logging.GetComponentLogger("eventbus")); err != nil {
		return fmt.Errorf("подписка на шину: %w", err)
	}
	a.busMetrics.Start()
	defer a.busMetrics.Stop()

	g.Go(func() error { return a.world.Run(ctx) })
	g.Go(func() error { return a.tick(ctx) })
	g.Go(func() error { return a.fanOut(ctx, published) })
	g.Go(func() error { return a.publisher.Run(ctx, published) })
	g.Go(a.rest.Start)
	g.Go(func() error {
		a.logger.Info("📈 Prometheus /metrics доступен по адресу %s", a.metrics.Addr)
		if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return errors.Join(a.rest.Stop(shutdownCtx), a.metrics.Shutdown(shutdownCtx))
	})

	if a.cfg.World.RenderRadius > 0 {
		err := a.world.Send(ctx, world.InitialRenderRequested{
			Position:     SpawnPosition,
			Direction:    mgl32.Vec3{1, 0, 0},
			RenderRadius: a.cfg.World.RenderRadius,
		})
		if err != nil {
			a.logger.Warn("⚠️ Первичная отрисовка не отправлена: %v", err)
		}
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// tick отправляет Tick с периодом из конфигурации
func (a *App) tick(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.World.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := a.world.Send(ctx, world.Tick{}); err != nil && ctx.Err() == nil {
				return err
			}
		}
	}
}

// fanOut раздаёт исходящие события мира потребителю мешей и издателю.
// Меши применяются здесь же раз в кадр, Display используется из одной горутины.
func (a *App) fanOut(ctx context.Context, published chan<- world.ServerEvent) error {
	defer close(published)

	frame := time.NewTicker(FrameInterval)
	defer frame.Stop()

	updates := a.world.Updates()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-frame.C:
			if a.display != nil {
				if n := a.display.Frame(); n > 0 {
					a.logger.Trace("🧱 Применено мешей: %d", n)
				}
			}
		case event, ok := <-updates:
			if !ok {
				return nil
			}
			if a.display != nil {
				if err := a.display.Handle(event); err != nil {
					return fmt.Errorf("меш %s: %w", event.GetType(), err)
				}
			}
			select {
			case published <- event:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func (a *App) closeResources() {
	if a.pool != nil {
		a.pool.Close()
	}
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			a.logger.Warn("⚠️ Ошибка закрытия шины: %v", err)
		}
	}
	if a.cache != nil {
		a.cache.Close()
	}
}

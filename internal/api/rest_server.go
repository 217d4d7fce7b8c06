package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/mesh"
	"github.com/annel0/voxelworld/internal/middleware"
	"github.com/annel0/voxelworld/internal/world"
)

// WorldClient принимает входящие события мира
type WorldClient interface {
	Send(ctx context.Context, event world.ClientEvent) error
}

// MeshStats источник счётчиков пула мешей
type MeshStats interface {
	Stats() mesh.PoolStats
}

// RestServer представляет отладочный REST API сервер мира
type RestServer struct {
	router  *gin.Engine
	world   WorldClient
	mesh    MeshStats
	port    string
	timeout time.Duration
	probe   *processProbe
	server  *http.Server
	logger  *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port     string               // порт для запуска сервера
	World    WorldClient          // актор мира
	Mesh     MeshStats            // пул мешей, может быть nil
	Registry *prometheus.Registry // регистр для /metrics и HTTP-метрик
	Timeout  time.Duration        // ожидание ответа актора
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Second
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware("voxelworld_api"))
	router.Use(middleware.NewRequestLogger().Handler())

	promMw := middleware.NewPrometheusMiddleware("rest_api", config.Registry)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, config.Registry)

	server := &RestServer{
		router:  router,
		world:   config.World,
		mesh:    config.Mesh,
		port:    config.Port,
		timeout: config.Timeout,
		probe:   newProcessProbe(),
		logger:  logging.GetComponentLogger("api"),
	}
	server.server = &http.Server{
		Addr:              config.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	server.setupRoutes()
	return server
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	{
		api.GET("/server", rs.handleServerInfo)
		api.GET("/world/stats", rs.handleWorldStats)
	}

	player := api.Group("/player")
	{
		player.POST("/render", rs.handleRender)
		player.POST("/position", rs.handlePosition)
		player.POST("/orientation", rs.handleOrientation)
		player.POST("/place", rs.handlePlace)
		player.POST("/destroy", rs.handleDestroy)
	}
}

// Handler возвращает http.Handler сервера
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// Start запускает сервер; блокируется до Stop
func (rs *RestServer) Start() error {
	rs.logger.Info("🌐 REST API доступен по адресу %s", rs.port)
	if err := rs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop корректно останавливает сервер
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.server.Shutdown(ctx)
}

package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/voxelworld/internal/logging"
)

// TraceIDKey ключ trace-id в gin.Context
const TraceIDKey = "trace_id"

const traceHeader = "X-Trace-Id"

// RequestLogger пишет каждый запрос в лог компонента "http" и отдаёт
// клиенту trace-id в заголовке X-Trace-Id.
type RequestLogger struct {
	logger *logging.Logger
}

func NewRequestLogger() *RequestLogger {
	return &RequestLogger{logger: logging.GetComponentLogger("http")}
}

// traceIDOf берёт trace-id span'а otelgin, без него генерирует UUID
func traceIDOf(c *gin.Context) string {
	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return uuid.NewString()
}

func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := traceIDOf(c)
		c.Set(TraceIDKey, id)
		c.Header(traceHeader, id)

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		began := time.Now()
		rl.logger.Debug("[HTTP] ▶ %s %s ip=%s trace=%s", c.Request.Method, route, c.ClientIP(), id)

		c.Next()

		code, took := c.Writer.Status(), time.Since(began)
		switch {
		case code >= 500:
			rl.logger.Error("[HTTP] ◀ %s %s %d %s trace=%s errors=%s", c.Request.Method, route, code, took, id, c.Errors.String())
		case code >= 400:
			rl.logger.Warn("[HTTP] ◀ %s %s %d %s trace=%s", c.Request.Method, route, code, took, id)
		default:
			rl.logger.Info("[HTTP] ◀ %s %s %d %s trace=%s", c.Request.Method, route, code, took, id)
		}
	}
}

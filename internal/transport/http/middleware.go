package http

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"taskmanager/internal/pkg/log"
	"taskmanager/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	ctxKeyRequestID = "request_id"
	ctxKeyIdentity  = "identity"
)

// requestID возвращает корреляционный идентификатор текущего запроса.
func requestID(c *gin.Context) string {
	return c.GetString(ctxKeyRequestID)
}

// identityFrom достаёт личность вызывающего, положенную authMiddleware.
func identityFrom(c *gin.Context) (service.Identity, bool) {
	v, ok := c.Get(ctxKeyIdentity)
	if !ok {
		return service.Identity{}, false
	}

	ident, ok := v.(service.Identity)
	return ident, ok
}

// requestLogMiddleware присваивает запросу корреляционный идентификатор,
// кладёт обогащённый логгер в контекст запроса и пишет access-лог.
func requestLogMiddleware(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-Id")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(ctxKeyRequestID, rid)
		c.Header("X-Request-Id", rid)

		lg := base.With(slog.String("request_id", rid))
		c.Request = c.Request.WithContext(log.Into(c.Request.Context(), lg))

		start := time.Now()
		c.Next()

		lg.Info("http_request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	}
}

// recoveryMiddleware перехватывает панику обработчика и возвращает
// конверт ServerError без внутренних деталей.
func recoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.From(c.Request.Context()).Error("handler_panic",
					slog.Any("panic", r),
					slog.String("path", c.FullPath()),
				)
				c.Abort()
				writeCode(c, CodeServerError, "Something went wrong on our end. Please try again later.")
			}
		}()

		c.Next()
	}
}

// authMiddleware проверяет bearer-токен и кладёт разрешённую личность
// в контекст gin. Дальше по стеку личность передаётся явным аргументом.
func authMiddleware(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.Abort()
			writeCode(c, CodeUnauthenticated, "Authentication required. Please log in.")
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")

		ident, err := svc.ValidateAccessToken(c.Request.Context(), tokenStr)
		if err != nil {
			c.Abort()
			writeCode(c, CodeUnauthenticated, "Authentication required. Please log in.")
			return
		}

		c.Set(ctxKeyIdentity, ident)
		c.Next()
	}
}

// Metrics — счётчики HTTP-слоя.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics регистрирует метрики HTTP-слоя в reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(m.requests, m.duration)

	return m
}

// middleware снимает счётчик и латентность по каждому запросу.
func (m *Metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		m.requests.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

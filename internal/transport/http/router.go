package http

import (
	"log/slog"
	"net/http"

	"taskmanager/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server инкапсулирует gin-движок и зависимости обработчиков.
type Server struct {
	svc    *service.Service
	engine *gin.Engine
}

// NewServer собирает маршруты и middleware поверх svc.
// reg и gatherer обычно указывают на один prometheus.Registry.
func NewServer(svc *service.Service, lg *slog.Logger, reg *prometheus.Registry) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		svc:    svc,
		engine: gin.New(),
	}

	metrics := NewMetrics(reg)

	s.engine.Use(
		requestLogMiddleware(lg),
		recoveryMiddleware(),
		metrics.middleware(),
	)

	// Служебные эндпоинты.
	s.engine.GET("/livez", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := s.engine.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", s.handleRegister)
		auth.POST("/login", s.handleLogin)
		auth.POST("/verify-otp", s.handleVerifyOTP)
		auth.POST("/refresh", s.handleRefresh)
		auth.POST("/logout", s.handleLogout)
	}

	authorized := api.Group("", authMiddleware(svc))
	{
		authorized.POST("/tenants", s.handleCreateTenant)
		authorized.GET("/tenants", s.handleListTenants)

		authorized.POST("/tasks", s.handleCreateTask)
		authorized.GET("/tasks", s.handleListTasks)
		authorized.GET("/tasks/:id", s.handleGetTask)
		authorized.PUT("/tasks/:id", s.handleUpdateTask)
		authorized.DELETE("/tasks/:id", s.handleDeleteTask)
		authorized.PATCH("/tasks/:id/complete", s.handleCompleteTask)

		authorized.GET("/dashboard", s.handleDashboard)
		authorized.POST("/chat", s.handleChat)
	}

	return s
}

// Handler возвращает http.Handler для запуска через http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

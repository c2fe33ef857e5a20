package http

import "github.com/gin-gonic/gin"

type dashboardResponse struct {
	TotalTasks     int64 `json:"total_tasks"`
	CompletedTasks int64 `json:"completed_tasks"`
	PendingTasks   int64 `json:"pending_tasks"`
}

func (s *Server) handleDashboard(c *gin.Context) {
	ident, ok := identityFrom(c)
	if !ok {
		writeCode(c, CodeUnauthenticated, "Authentication required. Please log in.")
		return
	}

	stats, err := s.svc.DashboardStats(c.Request.Context(), ident)
	if err != nil {
		writeError(c, err)
		return
	}

	writeSuccess(c, dashboardResponse{
		TotalTasks:     stats.TotalTasks,
		CompletedTasks: stats.CompletedTasks,
		PendingTasks:   stats.PendingTasks,
	}, "")
}

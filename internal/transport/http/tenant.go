package http

import (
	"time"

	"github.com/gin-gonic/gin"
)

type createTenantRequest struct {
	Name string `json:"name" binding:"required"`
}

type tenantResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleCreateTenant(c *gin.Context) {
	ident, ok := identityFrom(c)
	if !ok {
		writeCode(c, CodeUnauthenticated, "Authentication required. Please log in.")
		return
	}

	var req createTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeCode(c, CodeBadRequest, "Oops! Something seems off with your request. Please check and try again.")
		return
	}

	tenant, err := s.svc.CreateTenant(c.Request.Context(), ident, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}

	writeSuccess(c, tenantResponse{
		ID:        tenant.ID,
		Name:      tenant.Name,
		CreatedAt: tenant.CreatedAt,
	}, "Tenant created.")
}

func (s *Server) handleListTenants(c *gin.Context) {
	ident, ok := identityFrom(c)
	if !ok {
		writeCode(c, CodeUnauthenticated, "Authentication required. Please log in.")
		return
	}

	tenants, err := s.svc.Tenants(c.Request.Context(), ident)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]tenantResponse, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, tenantResponse{
			ID:        t.ID,
			Name:      t.Name,
			CreatedAt: t.CreatedAt,
		})
	}

	writeSuccess(c, out, "")
}

package http

import "github.com/gin-gonic/gin"

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

func (s *Server) handleChat(c *gin.Context) {
	ident, ok := identityFrom(c)
	if !ok {
		writeCode(c, CodeUnauthenticated, "Authentication required. Please log in.")
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeCode(c, CodeBadRequest, "Oops! Something seems off with your request. Please check and try again.")
		return
	}

	reply, err := s.svc.Chat(c.Request.Context(), ident, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}

	writeSuccess(c, gin.H{"reply": reply}, "")
}

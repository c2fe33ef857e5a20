package http

import (
	"time"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Email    string   `json:"email" binding:"required"`
	Password string   `json:"password" binding:"required"`
	TenantID string   `json:"tenant_id"`
	Roles    []string `json:"roles"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type verifyOTPRequest struct {
	Email string `json:"email" binding:"required"`
	OTP   string `json:"otp" binding:"required"`
}

type refreshRequest struct {
	AccessToken  string `json:"access_token" binding:"required"`
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
	AccessToken  string `json:"access_token"`
}

type userSummary struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	TenantID string   `json:"tenant_id"`
	Roles    []string `json:"roles"`
}

type tokenPairResponse struct {
	AccessToken     string      `json:"access_token"`
	RefreshToken    string      `json:"refresh_token"`
	AccessExpiresAt time.Time   `json:"access_expires_at"`
	User            userSummary `json:"user"`
}

// handleRegister регистрирует пользователя. Токены не выдаются:
// регистрация не аутентифицирует.
func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeCode(c, CodeBadRequest, "Oops! Something seems off with your request. Please check and try again.")
		return
	}

	user, err := s.svc.Register(c.Request.Context(), req.Email, req.Password, req.TenantID, req.Roles)
	if err != nil {
		writeError(c, err)
		return
	}

	writeSuccess(c, userSummary{
		ID:       user.ID.String(),
		Email:    user.Email,
		TenantID: user.TenantID,
		Roles:    user.Roles,
	}, "User registered successfully.")
}

// handleLogin проверяет пароль и инициирует OTP-челлендж.
// Токенов в ответе нет — сессия в состоянии ожидания кода.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeCode(c, CodeBadRequest, "Oops! Something seems off with your request. Please check and try again.")
		return
	}

	if err := s.svc.Login(c.Request.Context(), req.Email, req.Password); err != nil {
		writeError(c, err)
		return
	}

	writeSuccess(c, nil, "OTP sent to registered address.")
}

// handleVerifyOTP обменивает одноразовый код на первую пару токенов.
func (s *Server) handleVerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeCode(c, CodeBadRequest, "Oops! Something seems off with your request. Please check and try again.")
		return
	}

	pair, user, err := s.svc.VerifyOTP(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		writeError(c, err)
		return
	}

	writeSuccess(c, tokenPairResponse{
		AccessToken:     pair.AccessToken,
		RefreshToken:    pair.RefreshToken,
		AccessExpiresAt: pair.AccessExpiresAt,
		User: userSummary{
			ID:       user.ID.String(),
			Email:    user.Email,
			TenantID: user.TenantID,
			Roles:    user.Roles,
		},
	}, "Authenticated.")
}

// handleRefresh ротирует пару токенов.
func (s *Server) handleRefresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeCode(c, CodeBadRequest, "Oops! Something seems off with your request. Please check and try again.")
		return
	}

	pair, err := s.svc.Refresh(c.Request.Context(), req.AccessToken, req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}

	writeSuccess(c, gin.H{
		"access_token":      pair.AccessToken,
		"refresh_token":     pair.RefreshToken,
		"access_expires_at": pair.AccessExpiresAt,
	}, "Token pair rotated.")
}

// handleLogout отзывает refresh-токен (идемпотентно).
func (s *Server) handleLogout(c *gin.Context) {
	var req logoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeCode(c, CodeBadRequest, "Oops! Something seems off with your request. Please check and try again.")
		return
	}

	if err := s.svc.Logout(c.Request.Context(), req.RefreshToken, req.AccessToken); err != nil {
		writeError(c, err)
		return
	}

	writeSuccess(c, nil, "Logged out.")
}

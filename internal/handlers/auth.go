package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/guildpulse/guildpulse-go/internal/config"
	"github.com/guildpulse/guildpulse-go/internal/middleware"
	"github.com/guildpulse/guildpulse-go/internal/pkg/logger"
	"github.com/guildpulse/guildpulse-go/internal/storage/redis"
	"github.com/guildpulse/guildpulse-go/pkg/types"
)

// CodeSender delivers a one-time code to an email address. cmd/dashboard
// provides the transport; the fallback only logs that no mailer is wired.
type CodeSender func(email, code string) error

// AuthHandler implements the email-OTP login flow and session lifecycle.
type AuthHandler struct {
	redis *redis.Client
	auth  *middleware.AuthMiddleware
	cfg   config.DashboardConfig
	send  CodeSender
}

func NewAuthHandler(redisClient *redis.Client, auth *middleware.AuthMiddleware, cfg config.DashboardConfig, send CodeSender) *AuthHandler {
	if send == nil {
		send = func(email, _ string) error {
			logger.Warn("No OTP mailer configured, code not delivered", zap.String("email", email))
			return nil
		}
	}
	return &AuthHandler{redis: redisClient, auth: auth, cfg: cfg, send: send}
}

// RequestOTP issues a 6-digit code. The response does not reveal whether
// the address was rate-limited.
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("valid email is required", ""))
		return
	}

	ctx := c.Request.Context()
	code, err := h.redis.IssueOTP(ctx, req.Email, h.cfg.OTPTTL, h.cfg.OTPSendWindow, h.cfg.OTPMaxSends)
	if err != nil {
		logger.Error("Failed to issue OTP", zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("internal error", ""))
		return
	}
	if code != "" {
		if err := h.send(req.Email, code); err != nil {
			logger.Error("Failed to deliver OTP", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, types.NewSuccessResponse(nil, "If the address is known, a code was sent"))
}

// VerifyOTP exchanges a valid code for a server-side session and sets the
// signed cookie.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Email   string `json:"email" binding:"required,email"`
		Code    string `json:"code" binding:"required"`
		GuildID string `json:"guild_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("email and code are required", ""))
		return
	}

	ctx := c.Request.Context()
	valid, err := h.redis.VerifyOTP(ctx, req.Email, req.Code, h.cfg.OTPMaxTries)
	if err != nil {
		logger.Error("Failed to verify OTP", zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("internal error", ""))
		return
	}
	if !valid {
		c.JSON(http.StatusUnauthorized, types.NewErrorResponse("invalid or expired code", ""))
		return
	}

	h.createSession(c, redis.Session{Email: req.Email, Role: redis.RoleGuest}, req.GuildID)
}

// LoginIdentity accepts an identity already authenticated upstream (the
// OAuth shell) and mints a session for it. The caller must present the
// shared internal token; this route is never exposed past the proxy.
func (h *AuthHandler) LoginIdentity(c *gin.Context) {
	if c.GetHeader("X-Internal-Token") != h.cfg.SessionSecret {
		c.JSON(http.StatusForbidden, types.NewErrorResponse("forbidden", ""))
		return
	}

	var req struct {
		UserID   string `json:"user_id" binding:"required"`
		Username string `json:"username"`
		GuildID  string `json:"guild_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("user_id is required", ""))
		return
	}

	s := redis.Session{UserID: req.UserID, Username: req.Username, Role: redis.RoleGuest}
	if req.GuildID != "" {
		if role, err := h.redis.ResolveRole(c.Request.Context(), req.GuildID, req.UserID); err == nil {
			s.Role = role
		}
	}
	h.createSession(c, s, req.GuildID)
}

func (h *AuthHandler) createSession(c *gin.Context, s redis.Session, guildID string) {
	ctx := c.Request.Context()
	if guildID != "" && s.UserID != "" {
		if role, err := h.redis.ResolveRole(ctx, guildID, s.UserID); err == nil {
			s.Role = role
		}
	}

	ref, err := h.redis.CreateSession(ctx, s, h.cfg.SessionTTL)
	if err != nil {
		logger.Error("Failed to create session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("internal error", ""))
		return
	}

	cookie, err := h.auth.SignRef(ref, h.cfg.SessionTTL)
	if err != nil {
		logger.Error("Failed to sign session cookie", zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("internal error", ""))
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.CookieName, cookie, int(h.cfg.SessionTTL.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{"role": s.Role}, "Logged in"))
}

// Logout deletes the server-side session and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	if s := middleware.SessionFrom(c); s != nil {
		if err := h.redis.DeleteSession(c.Request.Context(), s.Ref); err != nil {
			logger.Error("Failed to delete session", zap.Error(err))
		}
	}
	c.SetCookie(middleware.CookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, types.NewSuccessResponse(nil, "Logged out"))
}

// Me reports the authenticated identity and resolved role.
func (h *AuthHandler) Me(c *gin.Context) {
	s := middleware.SessionFrom(c)
	if s == nil {
		c.JSON(http.StatusUnauthorized, types.NewErrorResponse("not authenticated", ""))
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{
		"user_id":  s.UserID,
		"username": s.Username,
		"email":    s.Email,
		"role":     c.GetString(middleware.ContextKeyRole),
	}, ""))
}

package api

import (
	"net/http"
	"time"

	"github.com/fame-api/internal/auth"
	"github.com/fame-api/internal/config"
	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AuthHandler handles login, sessions and account administration
type AuthHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "auth").Logger(),
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "email and password are required")
		return
	}

	user, token, expires, err := h.services.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.setSessionCookie(c, token, time.Until(expires))
	respondOK(c, http.StatusOK, gin.H{
		"user":       user,
		"token":      token,
		"expires_at": expires,
	})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -time.Second)
	respondOK(c, http.StatusOK, gin.H{"logged_out": true})
}

// Session handles GET /api/auth/session
func (h *AuthHandler) Session(c *gin.Context) {
	respondOK(c, http.StatusOK, currentSession(c))
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, int(ttl.Seconds()), "/", "", h.cfg.Auth.CookieSecure, true)
}

// RegisterStageManager handles POST /api/auth/register/stage-manager
func (h *AuthHandler) RegisterStageManager(c *gin.Context) {
	var req models.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid request body")
		return
	}

	reg, err := h.services.Auth.RegisterStageManager(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusCreated, reg)
}

// ListRegistrations handles GET /api/admin/registrations
func (h *AuthHandler) ListRegistrations(c *gin.Context) {
	regs, err := h.services.Auth.ListPendingRegistrations(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if regs == nil {
		regs = []models.StageManagerRegistration{}
	}
	respondOK(c, http.StatusOK, regs)
}

// ApproveRegistration handles POST /api/admin/registrations/:id/approve
func (h *AuthHandler) ApproveRegistration(c *gin.Context) {
	user, err := h.services.Auth.ApproveRegistration(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("Stage manager approved")
	respondOK(c, http.StatusOK, user)
}

// RejectRegistration handles POST /api/admin/registrations/:id/reject
func (h *AuthHandler) RejectRegistration(c *gin.Context) {
	id := c.Param("id")
	if err := h.services.Auth.RejectRegistration(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"id": id, "rejected": true})
}

// CreateUser handles POST /api/admin/users
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.services.Auth.CreateUser(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusCreated, user)
}

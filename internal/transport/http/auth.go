package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmhouse/user-service/internal/domain"
	"github.com/dmhouse/user-service/internal/repository/postgres"
	"github.com/dmhouse/user-service/internal/service/registration"
	"github.com/dmhouse/user-service/internal/service/session"
	"github.com/dmhouse/user-service/pkg/auth"
	"github.com/dmhouse/user-service/pkg/httputil"
	"github.com/dmhouse/user-service/pkg/useragent"
)

type AuthHandler struct {
	Users        *postgres.UserRepo
	Registration *registration.Service
	Sessions     *session.Registry
}

func NewAuthHandler(users *postgres.UserRepo, reg *registration.Service, sessions *session.Registry) *AuthHandler {
	return &AuthHandler{
		Users:        users,
		Registration: reg,
		Sessions:     sessions,
	}
}

type registerRequest struct {
	Nombre   string `json:"nombre"`
	Apellido string `json:"apellido"`
	DNI      string `json:"dni"`
	Email    string `json:"email"`
	Telefono string `json:"telefono"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.Registration.Register(c.Request.Context(), registration.Input{
		Nombre:   req.Nombre,
		Apellido: req.Apellido,
		DNI:      req.DNI,
		Email:    req.Email,
		Telefono: req.Telefono,
		Password: req.Password,
	})
	if err != nil {
		writeRegistrationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":    user.ID,
		"email": user.Email,
		"cvu":   user.CVU,
		"alias": user.Alias,
	})
}

// writeRegistrationError maps workflow failures to the response contract:
// validation and duplicate errors are client-correctable (400), anything
// else is a generic 500 with no internal detail leaked.
func writeRegistrationError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, domain.ErrDuplicateEmail), errors.Is(err, domain.ErrDuplicateDNI):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("[AUTH] Registration failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.Users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		log.Printf("[AUTH] Login lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if !user.CanLogin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "account is deactivated"})
		return
	}

	token, expiresAt, err := auth.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	// The session row mirrors the token's own encoded expiry exactly.
	_, err = h.Sessions.Create(
		c.Request.Context(),
		user.ID,
		auth.HashToken(token),
		expiresAt,
		useragent.ClientIP(c.Request),
		c.Request.UserAgent(),
	)
	if err != nil {
		log.Printf("[AUTH] Failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	httputil.SetAuthCookie(c.Writer, token)
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"user":       user,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	sess := c.MustGet("session").(*domain.Session)

	if err := h.Sessions.Invalidate(c.Request.Context(), sess); err != nil {
		log.Printf("[AUTH] Failed to invalidate session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	httputil.ClearAuthCookie(c.Writer)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) LogoutAll(c *gin.Context) {
	userID := c.MustGet("user_id").(int64)

	if err := h.Sessions.InvalidateAllForUser(c.Request.Context(), userID); err != nil {
		log.Printf("[AUTH] Failed to invalidate user sessions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	httputil.ClearAuthCookie(c.Writer)
	c.JSON(http.StatusOK, gin.H{"message": "logged out everywhere"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.MustGet("user_id").(int64)

	user, err := h.Users.GetByID(c.Request.Context(), userID)
	if err != nil || user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) UpdateTelefono(c *gin.Context) {
	userID := c.MustGet("user_id").(int64)

	var req struct {
		Telefono string `json:"telefono"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.Registration.UpdateTelefono(c.Request.Context(), userID, req.Telefono); err != nil {
		writeRegistrationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "telefono updated"})
}

// Deactivate soft-deletes the caller's account and logs it out everywhere.
// The user row and its session history are retained for audit.
func (h *AuthHandler) Deactivate(c *gin.Context) {
	userID := c.MustGet("user_id").(int64)

	if err := h.Registration.Deactivate(c.Request.Context(), userID); err != nil {
		log.Printf("[AUTH] Failed to deactivate user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if err := h.Sessions.InvalidateAllForUser(c.Request.Context(), userID); err != nil {
		log.Printf("[AUTH] Failed to invalidate sessions for deactivated user %d: %v", userID, err)
	}

	httputil.ClearAuthCookie(c.Writer)
	c.JSON(http.StatusOK, gin.H{"message": "account deactivated"})
}

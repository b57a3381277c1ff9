package http

import (
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/dmhouse/user-service/internal/config"
	"github.com/dmhouse/user-service/internal/repository/postgres"
	"github.com/dmhouse/user-service/internal/service/registration"
	"github.com/dmhouse/user-service/internal/service/session"
	"github.com/dmhouse/user-service/pkg/auth"
	"github.com/dmhouse/user-service/pkg/httputil"
	"github.com/dmhouse/user-service/pkg/useragent"
)

type OAuthHandler struct {
	Users        *postgres.UserRepo
	Registration *registration.Service
	Sessions     *session.Registry
	Config       *config.OAuthConfig
}

func NewOAuthHandler(users *postgres.UserRepo, reg *registration.Service, sessions *session.Registry, cfg *config.OAuthConfig) *OAuthHandler {
	return &OAuthHandler{
		Users:        users,
		Registration: reg,
		Sessions:     sessions,
		Config:       cfg,
	}
}

// GoogleLogin redirects the user to Google
func (h *OAuthHandler) GoogleLogin(c *gin.Context) {
	url := h.Config.GoogleLoginConfig.AuthCodeURL("state")
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// GoogleCallback handles the response from Google. A known email logs in
// with a fresh session; an unknown one gets a short-lived setup token and
// must complete registration (dni, telefono, password) before any record
// is created.
func (h *OAuthHandler) GoogleCallback(c *gin.Context) {
	frontend := config.AppConfig.FrontendURL

	code := c.Query("code")
	token, err := h.Config.GoogleLoginConfig.Exchange(c.Request.Context(), code)
	if err != nil {
		log.Printf("[OAUTH] Failed to exchange token: %v", err)
		c.Redirect(http.StatusTemporaryRedirect, frontend+"/login?error=auth_failed")
		return
	}

	userInfo, err := config.GetGoogleUserInfo(token.AccessToken)
	if err != nil {
		log.Printf("[OAUTH] Failed to get user info: %v", err)
		c.Redirect(http.StatusTemporaryRedirect, frontend+"/login?error=user_info_failed")
		return
	}

	user, err := h.Users.GetByEmail(c.Request.Context(), userInfo.Email)
	if err != nil {
		log.Printf("[OAUTH] User lookup failed: %v", err)
		c.Redirect(http.StatusTemporaryRedirect, frontend+"/login?error=server_error")
		return
	}

	if user == nil {
		setupToken, err := auth.GenerateSetupToken(userInfo.Email, userInfo.ID, userInfo.Name)
		if err != nil {
			log.Printf("[OAUTH] Failed to generate setup token: %v", err)
			c.Redirect(http.StatusTemporaryRedirect, frontend+"/login?error=setup_failed")
			return
		}

		redirectURL := fmt.Sprintf("%s/complete-signup?token=%s&email=%s",
			frontend, setupToken, url.QueryEscape(userInfo.Email))
		c.Redirect(http.StatusTemporaryRedirect, redirectURL)
		return
	}

	if !user.CanLogin() {
		c.Redirect(http.StatusTemporaryRedirect, frontend+"/login?error=account_deactivated")
		return
	}

	// Security: a Google login supersedes any previous sessions.
	if err := h.Sessions.InvalidateAllForUser(c.Request.Context(), user.ID); err != nil {
		log.Printf("[OAUTH] Failed to invalidate old sessions: %v", err)
	}

	accessToken, expiresAt, err := auth.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		c.Redirect(http.StatusTemporaryRedirect, frontend+"/login?error=token_error")
		return
	}

	_, err = h.Sessions.Create(
		c.Request.Context(),
		user.ID,
		auth.HashToken(accessToken),
		expiresAt,
		useragent.ClientIP(c.Request),
		c.Request.UserAgent(),
	)
	if err != nil {
		log.Printf("[OAUTH] Failed to create session: %v", err)
		c.Redirect(http.StatusTemporaryRedirect, frontend+"/login?error=server_error")
		return
	}

	httputil.SetAuthCookie(c.Writer, accessToken)
	c.Redirect(http.StatusTemporaryRedirect, frontend+"/dashboard")
}

// CompleteSignup finishes a Google-initiated registration. The email comes
// from the validated setup token, never from the request body.
func (h *OAuthHandler) CompleteSignup(c *gin.Context) {
	var req struct {
		SetupToken string `json:"setup_token"`
		Nombre     string `json:"nombre"`
		Apellido   string `json:"apellido"`
		DNI        string `json:"dni"`
		Telefono   string `json:"telefono"`
		Password   string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	claims, err := auth.ValidateSetupToken(req.SetupToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired setup token"})
		return
	}

	user, err := h.Registration.Register(c.Request.Context(), registration.Input{
		Nombre:   req.Nombre,
		Apellido: req.Apellido,
		DNI:      req.DNI,
		Email:    claims.Email,
		Telefono: req.Telefono,
		Password: req.Password,
	})
	if err != nil {
		writeRegistrationError(c, err)
		return
	}

	accessToken, expiresAt, err := auth.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	_, err = h.Sessions.Create(
		c.Request.Context(),
		user.ID,
		auth.HashToken(accessToken),
		expiresAt,
		useragent.ClientIP(c.Request),
		c.Request.UserAgent(),
	)
	if err != nil {
		log.Printf("[OAUTH] Failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	httputil.SetAuthCookie(c.Writer, accessToken)
	c.JSON(http.StatusOK, gin.H{
		"token": accessToken,
		"id":    user.ID,
		"email": user.Email,
		"cvu":   user.CVU,
		"alias": user.Alias,
	})
}

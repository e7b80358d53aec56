package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"stockwizard/internal/delivery/http/dto"
	"stockwizard/internal/domain"
	"stockwizard/internal/middleware"
	"stockwizard/internal/service"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	authService  *service.AuthService
	jwt          *middleware.JWTManager
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler. secureCookie marks the session
// cookie HTTPS-only.
func NewAuthHandler(authService *service.AuthService, jwt *middleware.JWTManager, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		jwt:          jwt,
		secureCookie: secureCookie,
	}
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.authService.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return DomainErrorResponse(c, err, "Failed to sign in")
	}

	return h.issue(c, user, http.StatusOK)
}

// Register handles user registration
// POST /api/auth/register
func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.authService.SignUp(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		return DomainErrorResponse(c, err, "Failed to create account")
	}

	return h.issue(c, user, http.StatusCreated)
}

// Logout clears the session cookie and ends the server-side session of a
// still valid token.
// POST /api/auth/logout
func (h *AuthHandler) Logout(c echo.Context) error {
	if token := requestToken(c); token != "" {
		if claims, err := h.jwt.Parse(token); err == nil {
			h.authService.SignOut(claims.UserID)
		}
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1, // Delete cookie
	})

	return SuccessMessageResponse(c, "Signed out", nil)
}

func (h *AuthHandler) issue(c echo.Context, user *domain.UserProfile, status int) error {
	token, err := h.jwt.Generate(user.UID, user.Email)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to generate token", err)
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(h.jwt.TTL().Seconds()),
	})

	return c.JSON(status, Response{
		Status: "success",
		Data: dto.LoginResponse{
			Token: token,
			User:  dto.NewUserOutput(user),
		},
	})
}

func requestToken(c echo.Context) string {
	if h := c.Request().Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return token
		}
		return ""
	}
	if cookie, err := c.Cookie(middleware.TokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

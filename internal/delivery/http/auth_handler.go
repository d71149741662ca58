package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"copydesk/internal/delivery/http/dto"
	"copydesk/internal/domain"
	"copydesk/internal/middleware"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userRepo domain.UserRepository
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userRepo domain.UserRepository) *AuthHandler {
	return &AuthHandler{
		userRepo: userRepo,
	}
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	// Validate input
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return BadRequestResponse(c, "Email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.userRepo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return UnauthorizedResponse(c, "Invalid credentials")
	}
	if user.Status == domain.UserStatusDeleted {
		return UnauthorizedResponse(c, "Invalid credentials")
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return UnauthorizedResponse(c, "Invalid credentials")
	}

	token, err := middleware.GenerateJWT(user.ID, user.Role)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to generate token", err)
	}

	// Set HTTP-only cookie
	c.SetCookie(&http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Scheme() == "https",
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(middleware.TokenTTL.Seconds()),
	})

	return SuccessResponse(c, dto.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        dto.NewUserOutput(user),
	})
}

// Logout clears the auth cookie
// POST /api/auth/logout
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1, // Delete cookie
	})

	return SuccessMessageResponse(c, "Logged out", nil)
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking-api/internal/middleware"
	"github.com/iliyamo/travel-booking-api/internal/model"
	"github.com/iliyamo/travel-booking-api/internal/service"
)

// AuthHandler serves sign-up, login and the caller's own profile.
type AuthHandler struct {
	Auth *service.AuthService
}

// NewAuthHandler returns an AuthHandler backed by auth.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

func authResponse(c echo.Context, status int, msg string, res service.AuthResult) error {
	return c.JSON(status, envelope{Success: true, Message: msg, Data: res.User, Token: res.Token})
}

// Register creates a regular user and returns a token right away.
func (h *AuthHandler) Register(c echo.Context) error {
	var in model.RegisterInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	res, err := h.Auth.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return authResponse(c, http.StatusCreated, "successfully registered", res)
}

// Login accepts an email or username in identifier, email or username.
func (h *AuthHandler) Login(c echo.Context) error {
	var in model.LoginInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	res, err := h.Auth.Login(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return authResponse(c, http.StatusOK, "successfully logged in", res)
}

// Me returns the caller's own user record.
func (h *AuthHandler) Me(c echo.Context) error {
	who, _ := middleware.CurrentIdentity(c)
	u, err := h.Auth.Me(c.Request().Context(), who)
	if err != nil {
		return err
	}
	return ok(c, "", u)
}

// Logout exists for clients that expect it. Tokens are stateless, so the
// client discarding its token is the whole logout.
func (h *AuthHandler) Logout(c echo.Context) error {
	return ok(c, "successfully logged out", nil)
}

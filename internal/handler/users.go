package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking-api/internal/model"
	"github.com/iliyamo/travel-booking-api/internal/service"
)

// UserHandler is the admin and self-service user API.
type UserHandler struct {
	Users *service.UserService
	Auth  *service.AuthService
}

// NewUserHandler returns a UserHandler.
func NewUserHandler(users *service.UserService, auth *service.AuthService) *UserHandler {
	return &UserHandler{Users: users, Auth: auth}
}

// Create lets an admin add a user with any role.
func (h *UserHandler) Create(c echo.Context) error {
	var in model.CreateUserInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	u, err := h.Auth.CreateUser(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return created(c, "user created", u)
}

// List pages through all users. Admin only.
func (h *UserHandler) List(c echo.Context) error {
	p, err := listParams(c)
	if err != nil {
		return err
	}
	page, err := h.Users.List(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return paged(c, "", page)
}

// Get returns the user named by :id.
func (h *UserHandler) Get(c echo.Context) error {
	u, err := h.Users.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, "", u)
}

// Update applies a partial update; password and role in the body are
// ignored.
func (h *UserHandler) Update(c echo.Context) error {
	var patch model.UserPatch
	if err := bindJSON(c, &patch); err != nil {
		return err
	}
	u, err := h.Users.Update(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return err
	}
	return ok(c, "user updated", u)
}

// Delete removes the user named by :id.
func (h *UserHandler) Delete(c echo.Context) error {
	u, err := h.Users.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, "user deleted", u)
}

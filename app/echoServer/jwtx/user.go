// Package jwtx reads the identity the auth middleware stored on the request
// context.
package jwtx

import (
	"errors"

	"github.com/labstack/echo/v4"
)

func UserIDFromContext(c echo.Context) (int64, error) {
	id, ok := c.Get("user_id").(int64)
	if !ok || id <= 0 {
		return 0, errors.New("no user id in context")
	}
	return id, nil
}

func RoleFromContext(c echo.Context) string {
	role, _ := c.Get("role").(string)
	return role
}

func IsAdmin(c echo.Context) bool {
	return RoleFromContext(c) == "admin"
}

package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rideshare-inventory/internal/utils"
)

// Context keys set by JWTAuth.
const (
	KeyUserID = "user_id" // uint64
	KeyRole   = "role"    // string
)

// JWTAuth validates a Bearer access token and stores the caller's id and
// role in the context under KeyUserID and KeyRole.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			uid, _ := claims.UserID() // checked by ParseAccessToken
			c.Set(KeyUserID, uid)
			c.Set(KeyRole, claims.Role)
			return next(c)
		}
	}
}

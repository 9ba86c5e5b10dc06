package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequireMasterKey guards a route group with a bearer master key. With no
// key configured the group stays open, matching the service's default
// single-operator deployment.
func RequireMasterKey(masterKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if masterKey == "" {
				return next(c)
			}

			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return errorResponse(c, http.StatusUnauthorized,
					"authentication_error", "missing authorization header")
			}
			token, ok := bearerToken(header)
			if !ok {
				return errorResponse(c, http.StatusUnauthorized,
					"authentication_error", "invalid authorization header format, expected 'Bearer <token>'")
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(masterKey)) != 1 {
				return errorResponse(c, http.StatusUnauthorized,
					"authentication_error", "invalid master key")
			}
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	return strings.TrimPrefix(header, prefix), true
}

package middleware // middleware provides shared request processing for handlers

import (
	"context"  // context bounds the role lookup
	"errors"   // errors detects an expired lookup deadline
	"net/http" // http package defines standard HTTP status codes
	"time"     // time holds the default lookup timeout

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context

	"github.com/iliyamo/summer-camp-booking/internal/model"   // role values
	"github.com/iliyamo/summer-camp-booking/internal/service" // role resolution
)

// DefaultLookupTimeout bounds a role lookup when RequireRole is given no
// timeout.
const DefaultLookupTimeout = 5 * time.Second

// RequireRole returns a middleware that admits the request only when the
// authenticated identity currently holds role.  The role is resolved
// through provider on every request rather than read from the token, so a
// role change takes effect without reissuing tokens.  It must run after
// JWTAuth; without an identity the request is treated as unauthenticated.
//
// The lookup runs under timeout (DefaultLookupTimeout when not positive).
// A mismatch is answered with 403 "forbidden access".  A lookup past its
// deadline yields 504 "database timeout" and any other failed lookup 500.
func RequireRole(provider service.RoleProvider, role model.Role, timeout time.Duration) echo.MiddlewareFunc {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return reject(c, http.StatusUnauthorized, MsgUnauthorized)
			}
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			got, err := provider.Role(ctx, id.Email)
			cancel()
			if errors.Is(err, context.DeadlineExceeded) {
				c.Logger().Errorf("role lookup for %s: %v", id.Email, err)
				return reject(c, http.StatusGatewayTimeout, MsgTimeout)
			}
			if err != nil {
				c.Logger().Errorf("role lookup for %s: %v", id.Email, err)
				return reject(c, http.StatusInternalServerError, MsgInternal)
			}
			if got != role {
				return reject(c, http.StatusForbidden, MsgForbidden)
			}
			return next(c)
		}
	}
}

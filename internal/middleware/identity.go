package middleware

// identity.go holds the context plumbing shared by the guards: where the
// verified Identity lives in the echo context and how rejections are
// rendered.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/summer-camp-booking/internal/utils"
)

// Rejection messages.  Clients match on these strings, so they are part of
// the API contract.
const (
	MsgUnauthorized   = "unauthorized access"
	MsgForbidden      = "forbidden access"
	MsgForbiddenToken = "forbidden access token"
	MsgInternal       = "internal server error"
	MsgTimeout        = "database timeout"
)

const identityKey = "identity"

// SetIdentity stores a verified identity on the request context.
func SetIdentity(c echo.Context, id utils.Identity) {
	c.Set(identityKey, id)
}

// IdentityFrom returns the identity stored by JWTAuth, if any.
func IdentityFrom(c echo.Context) (utils.Identity, bool) {
	id, ok := c.Get(identityKey).(utils.Identity)
	return id, ok
}

// userID extracts a user key for rate limiting.  It returns "anon" when no
// identity has been established yet.
func userID(c echo.Context) string {
	if id, ok := IdentityFrom(c); ok && id.Email != "" {
		return id.Email
	}
	return "anon"
}

// reject writes the {"error": true, "message": ...} body used by every
// guard and stops the chain.
func reject(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": true, "message": msg})
}

package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for splitting the Authorization header

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/summer-camp-booking/internal/utils" // token verification
)

// Verifier turns a raw bearer token into an Identity.  Any error means the
// token is unusable; the reason is never shown to the client.
type Verifier func(raw string) (utils.Identity, error)

// JWTAuth returns an Echo middleware that validates a Bearer token signed
// with secret and stores the caller's Identity in the request context.  It
// should wrap every route that needs to know who is calling; handlers and
// later guards read the identity via IdentityFrom.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return Authenticate(func(raw string) (utils.Identity, error) {
		return utils.ParseAccessToken(secret, raw)
	})
}

// Authenticate is JWTAuth with a pluggable verifier.
func Authenticate(verify Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return reject(c, http.StatusUnauthorized, MsgUnauthorized)
			}
			// Missing, malformed, expired and badly signed tokens all get
			// the same answer.
			id, err := verify(raw)
			if err != nil {
				return reject(c, http.StatusUnauthorized, MsgUnauthorized)
			}
			SetIdentity(c, id)
			return next(c)
		}
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.  The scheme is matched case-insensitively; an empty token
// segment is reported as missing.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

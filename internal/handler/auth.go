package handler

import (
	"net/http" // HTTP status codes
	"time"     // token lifetime

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/summer-camp-booking/internal/model" // document helpers
	"github.com/iliyamo/summer-camp-booking/internal/utils" // token issuing
)

// AuthHandler issues bearer tokens.
type AuthHandler struct {
	Secret string        // HS256 signing secret shared with JWTAuth
	TTL    time.Duration // token lifetime, one hour by default
}

func NewAuthHandler(secret string, ttl time.Duration) *AuthHandler {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AuthHandler{Secret: secret, TTL: ttl}
}

type tokenResp struct {
	Token string `json:"token"`
}

// IssueJWT handles POST /jwt.  The whole JSON body becomes the token's
// claims; it must carry an email because that claim is the identity every
// guard checks.  The server controls exp, iat and jti.
func (h *AuthHandler) IssueJWT(c echo.Context) error {
	claims, err := bindDocument(c) // decode the body into an opaque claims map
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	email := model.NormalizeEmail(model.StringField(claims, model.FieldEmail))
	if email == "" {
		return errorJSON(c, http.StatusBadRequest, "email is required")
	}
	claims[model.FieldEmail] = email

	tok, err := utils.NewAccessToken(h.Secret, claims, h.TTL)
	if err != nil {
		c.Logger().Errorf("sign token: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "issue token failed")
	}
	return c.JSON(http.StatusOK, tokenResp{Token: tok.Token})
}

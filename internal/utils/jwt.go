package utils // package utils provides helpers for issuing and verifying bearer tokens

import (
	"errors" // errors defines the sentinel returned for every verification failure
	"time"   // time utilities for expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
	"github.com/google/uuid"       // uuid generates the per-token jti claim
)

// ErrInvalidToken is returned for any token that fails verification: bad
// signature, unexpected algorithm, expired, malformed or missing the email
// claim.  Callers must not reveal which of these happened.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed JWT along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// Identity is what a verified token proves about the caller.  Email is the
// only claim the authorization gate relies on; Claims keeps the full
// decoded payload for handlers that want more.
type Identity struct {
	Email  string
	Claims jwt.MapClaims
}

// NewAccessToken signs the caller-supplied claims as an HS256 JWT.  The
// server always sets exp, iat and jti, overriding any values in claims, so
// a client cannot mint a token that outlives ttl.
func NewAccessToken(secret string, claims map[string]any, ttl time.Duration) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)

	mc := make(jwt.MapClaims, len(claims)+3)
	for k, v := range claims {
		mc[k] = v
	}
	mc["exp"] = exp.Unix()
	mc["iat"] = now.Unix()
	mc["jti"] = uuid.NewString()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw against secret and returns the Identity it
// carries.  Every failure collapses to ErrInvalidToken.
func ParseAccessToken(secret, raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, ErrInvalidToken
	}
	tok, err := jwt.Parse(raw,
		func(t *jwt.Token) (interface{}, error) {
			// Reject anything that is not HMAC before handing out the key.
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		return Identity{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{Email: email, Claims: claims}, nil
}

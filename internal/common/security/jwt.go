package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// ClaimUserID carries the opaque id of the authenticated user.
const ClaimUserID = "user_id"

var ErrInvalidToken = errors.New("invalid token")

var supportedAlgorithms = map[string]bool{"HS256": true, "HS384": true, "HS512": true}

// TokenCodec signs and verifies compact credential tokens with a server-held
// secret. It checks signature, algorithm and expiry; nothing else.
type TokenCodec struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
}

// NewTokenCodec returns a codec for an HMAC algorithm. A zero ttl issues
// tokens without an exp claim.
func NewTokenCodec(algorithm string, secret []byte, ttl time.Duration) (*TokenCodec, error) {
	if !supportedAlgorithms[algorithm] {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	if len(secret) == 0 {
		return nil, errors.New("empty signing secret")
	}
	return &TokenCodec{auth: jwtauth.New(algorithm, secret, nil), ttl: ttl}, nil
}

func (c *TokenCodec) Issue(claims jwt.MapClaims) (string, error) {
	payload := make(map[string]interface{}, len(claims)+2)
	for k, v := range claims {
		payload[k] = v
	}
	jwtauth.SetIssuedNow(payload)
	if c.ttl > 0 {
		jwtauth.SetExpiry(payload, time.Now().Add(c.ttl))
	}
	_, tokenString, err := c.auth.Encode(payload)
	if err != nil {
		return "", fmt.Errorf("encode token: %w", err)
	}
	return tokenString, nil
}

// IssueForUser is Issue with the standard user claim.
func (c *TokenCodec) IssueForUser(userID string) (string, error) {
	return c.Issue(jwt.MapClaims{ClaimUserID: userID})
}

func (c *TokenCodec) Verify(raw string) (jwt.MapClaims, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}
	token, err := jwtauth.VerifyToken(c.auth, raw)
	if err != nil || token == nil {
		return nil, ErrInvalidToken
	}
	claims, err := token.AsMap(context.Background())
	if err != nil {
		return nil, ErrInvalidToken
	}
	return jwt.MapClaims(claims), nil
}

func GetUserIDFromClaims(claims jwt.MapClaims) (string, error) {
	id, ok := claims[ClaimUserID].(string)
	if !ok || id == "" {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}

package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

const tokenIssuer = "mudauth"

// TokenService issues and validates the host's session tokens.
//
// Sessions are a host concern, not a backend one: the auth backend is
// stateless and fail-closed, while the host keeps a signed JWT per
// logged-in user. Because the backend advertises the logout capability,
// the service also tracks revoked token IDs so a logged-out session
// cannot be replayed until its natural expiry.
type TokenService struct {
	secret []byte
	ttl    time.Duration

	mu      sync.Mutex
	revoked map[string]time.Time // token ID → expiry, for pruning
}

// NewTokenService creates a TokenService with the given HMAC secret and
// session lifetime. The secret should be at least 32 bytes of random
// data in production (e.g. openssl rand -hex 32).
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &TokenService{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: make(map[string]time.Time),
	}, nil
}

// claims embeds jwt.RegisteredClaims: "sub" carries the username, "jti"
// a unique token ID used for revocation.
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for username. HS256 —
// symmetric, single secret for signing and verifying.
func (s *TokenService) Generate(username string) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        xid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a session token and returns the username
// it was issued for. Revoked tokens fail validation even before expiry.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	c, err := s.parse(tokenStr)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	_, isRevoked := s.revoked[c.ID]
	s.mu.Unlock()
	if isRevoked {
		return "", errors.New("auth: token revoked")
	}

	return c.Subject, nil
}

// Revoke invalidates a session token for the remainder of its lifetime.
// Revoking an already-invalid token is not an error: logout must always
// succeed from the caller's point of view.
func (s *TokenService) Revoke(tokenStr string) {
	c, err := s.parse(tokenStr)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Drop entries whose tokens have expired on their own — the map
	// stays bounded by the number of logouts per session lifetime.
	now := time.Now()
	for id, exp := range s.revoked {
		if exp.Before(now) {
			delete(s.revoked, id)
		}
	}

	s.revoked[c.ID] = c.ExpiresAt.Time
}

func (s *TokenService) parse(tokenStr string) (*claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		// Pinning the algorithm prevents "alg confusion" — a token
		// claiming alg=none or an asymmetric scheme is rejected outright.
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, errors.New("auth: invalid token claims")
	}
	if c.Subject == "" || c.ID == "" {
		return nil, errors.New("auth: token missing subject or id")
	}

	return c, nil
}

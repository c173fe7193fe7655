package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

const (
	sessionCookieName = "ourSimpleApp"
	sessionDuration   = 24 * time.Hour
)

// ErrMissingSecret is returned when no signing key is configured.
var ErrMissingSecret = errors.New("session signing secret is not set")

type sessionClaims struct {
	UserID   int64  `json:"userid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Sessions issues and verifies signed session tokens. Nothing is stored
// server side: a token is valid while its signature checks out and it has
// not expired.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessions creates a Sessions signing with secret. A zero ttl means
// sessionDuration.
func NewSessions(secret []byte, ttl time.Duration) (*Sessions, error) {
	if len(secret) == 0 {
		return nil, oops.Code("CONFIG_MISSING_SECRET").Wrap(ErrMissingSecret)
	}
	if ttl <= 0 {
		ttl = sessionDuration
	}
	return &Sessions{secret: secret, ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for user that expires after the session ttl.
func (s *Sessions) Issue(user Identity) (string, time.Time, error) {
	expires := s.now().Add(s.ttl)
	claims := sessionClaims{
		UserID:   user.UserID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, oops.Code("SESSION_SIGN_FAILED").
			With("user_id", user.UserID).
			Wrap(err)
	}
	return token, expires, nil
}

// Verify returns the identity carried by token. Any problem with the token
// (empty, bad signature, wrong algorithm, malformed claims, expired) yields
// false; it is never reported as an error.
func (s *Sessions) Verify(token string) (Identity, bool) {
	if token == "" {
		return Identity{}, false
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	var claims sessionClaims
	parsed, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, false
	}
	if claims.UserID <= 0 || claims.Username == "" {
		return Identity{}, false
	}

	return Identity{UserID: claims.UserID, Username: claims.Username}, true
}

func (s *Sessions) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(s.ttl.Seconds()),
	})
}

func (s *Sessions) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}

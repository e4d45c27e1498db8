package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	jw "github.com/golang-jwt/jwt/v5"
)

const defaultSecret = "replace-this-with-a-strong-secret"

var ErrInvalidToken = errors.New("invalid token")

// Manager signs and verifies HS256 tokens whose sub claim is the numeric user id.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	if secret == "" {
		secret = defaultSecret
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl}
}

func (m *Manager) Make(userID uint64) (string, error) {
	now := time.Now()
	claims := jw.MapClaims{
		"sub": strconv.FormatUint(userID, 10),
		"iat": now.Unix(),
		"exp": now.Add(m.ttl).Unix(),
	}
	return jw.NewWithClaims(jw.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *Manager) Parse(tok string) (uint64, error) {
	t, err := jw.Parse(tok, func(t *jw.Token) (any, error) { return m.secret, nil },
		jw.WithValidMethods([]string{jw.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return 0, ErrInvalidToken
	}
	mc, ok := t.Claims.(jw.MapClaims)
	if !ok {
		return 0, errors.New("bad claims")
	}
	var uid uint64
	switch sub := mc["sub"].(type) {
	case string:
		uid, err = strconv.ParseUint(sub, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("sub %q: %w", sub, ErrInvalidToken)
		}
	case float64:
		uid = uint64(sub)
	default:
		return 0, fmt.Errorf("missing sub: %w", ErrInvalidToken)
	}
	if uid == 0 {
		return 0, ErrInvalidToken
	}
	return uid, nil
}

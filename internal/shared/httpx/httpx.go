package httpx

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"restaurant-service/internal/shared/apperr"
	"restaurant-service/internal/shared/jwt"
	"restaurant-service/internal/shared/logging"
)

type HandlerFunc func(http.ResponseWriter, *http.Request) error

type ctxKey string

const ctxUserIDKey ctxKey = "httpx.user_id"

var ErrUnauthorized = errors.New("unauthorized")

// Wrap turns a HandlerFunc into an http.Handler and maps returned errors to status codes.
func Wrap(fn HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}
		code, reason := Status(err)
		if code >= http.StatusInternalServerError {
			logging.Ctx(r.Context()).Error().Err(err).
				Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
			WriteError(w, code, errors.New("internal error"), reason)
			return
		}
		WriteError(w, code, err, reason)
	})
}

// Status maps an error to its HTTP status and a short machine-readable reason.
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case apperr.IsValidation(err):
		return http.StatusBadRequest, "validation"
	case apperr.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case apperr.IsConflict(err):
		return http.StatusConflict, "conflict"
	case errors.Is(err, context.Canceled):
		return 499, "canceled"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func Decode[T any](r *http.Request) (T, error) {
	var t T
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		return t, apperr.Invalid("bad json: %v", err)
	}
	return t, nil
}

func WriteJSON(w http.ResponseWriter, v any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, code int, err error, reason string) {
	WriteJSON(w, map[string]any{"error": err.Error(), "reason": reason}, code)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	return strings.TrimSpace(h[7:]), true
}

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(tm *jwt.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := bearer(r)
			if !ok {
				WriteError(w, http.StatusUnauthorized, ErrUnauthorized, "missing bearer")
				return
			}
			uid, err := tm.Parse(tok)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, ErrUnauthorized, "bad token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), uid)))
		})
	}
}

// OptionalAuth resolves the viewer when a valid token is present and otherwise
// lets the request through anonymously.
func OptionalAuth(tm *jwt.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok, ok := bearer(r); ok {
				if uid, err := tm.Parse(tok); err == nil {
					r = r.WithContext(WithUser(r.Context(), uid))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithUser(ctx context.Context, uid uint64) context.Context {
	return context.WithValue(ctx, ctxUserIDKey, uid)
}

func UserFromCtx(r *http.Request) (uint64, error) {
	uid, _ := r.Context().Value(ctxUserIDKey).(uint64)
	if uid == 0 {
		return 0, ErrUnauthorized
	}
	return uid, nil
}

// ViewerID returns the authenticated user or 0 for anonymous requests.
func ViewerID(r *http.Request) uint64 {
	uid, _ := r.Context().Value(ctxUserIDKey).(uint64)
	return uid
}

func QueryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// PathID parses a positive numeric path value.
func PathID(r *http.Request, name string) (uint64, error) {
	s := r.PathValue(name)
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Invalid("invalid %s %q", name, s)
	}
	return id, nil
}

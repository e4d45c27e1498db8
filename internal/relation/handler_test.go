package relation

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"restaurant-service/internal/shared/httpx"
	"restaurant-service/internal/shared/jwt"
)

func TestHandlerRoutes(t *testing.T) {
	f := newFixture(t, 2, 1)
	tm := jwt.NewManager("test-secret", time.Hour)
	mux := http.NewServeMux()
	NewHandler(newService(f, nil)).Register(mux, httpx.AuthMiddleware(tm))

	tok, _ := tm.Make(f.us[0].ID)
	r, other := f.rs[0].ID, f.us[1].ID

	tests := []struct {
		name   string
		method string
		path   string
		auth   bool
		want   int
	}{
		{"favorite", http.MethodPost, fmt.Sprintf("/favorites/%d", r), true, http.StatusNoContent},
		{"favorite again", http.MethodPost, fmt.Sprintf("/favorites/%d", r), true, http.StatusConflict},
		{"unfavorite", http.MethodDelete, fmt.Sprintf("/favorites/%d", r), true, http.StatusNoContent},
		{"unfavorite again", http.MethodDelete, fmt.Sprintf("/favorites/%d", r), true, http.StatusNotFound},
		{"like", http.MethodPost, fmt.Sprintf("/likes/%d", r), true, http.StatusNoContent},
		{"unlike", http.MethodDelete, fmt.Sprintf("/likes/%d", r), true, http.StatusNoContent},
		{"like missing restaurant", http.MethodPost, "/likes/999", true, http.StatusNotFound},
		{"bad id", http.MethodPost, "/likes/abc", true, http.StatusBadRequest},
		{"follow", http.MethodPost, fmt.Sprintf("/following/%d", other), true, http.StatusNoContent},
		{"follow self", http.MethodPost, fmt.Sprintf("/following/%d", f.us[0].ID), true, http.StatusBadRequest},
		{"unfollow", http.MethodDelete, fmt.Sprintf("/following/%d", other), true, http.StatusNoContent},
		{"anonymous", http.MethodPost, fmt.Sprintf("/likes/%d", r), false, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth {
				req.Header.Set("Authorization", "Bearer "+tok)
			}
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("%s %s = %d, want %d (%s)", tt.method, tt.path, rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

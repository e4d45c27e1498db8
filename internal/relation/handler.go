package relation

import (
	"context"
	"net/http"

	"restaurant-service/internal/shared/httpx"
)

type Handler struct{ svc Service }

func NewHandler(s Service) *Handler { return &Handler{svc: s} }

type toggleFunc func(ctx context.Context, subject, target uint64, add bool) error

func (h *Handler) toggle(fn toggleFunc, param string, add bool) httpx.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		uid, err := httpx.UserFromCtx(r)
		if err != nil {
			return err
		}
		target, err := httpx.PathID(r, param)
		if err != nil {
			return err
		}
		if err := fn(r.Context(), uid, target, add); err != nil {
			return err
		}
		httpx.NoContent(w)
		return nil
	}
}

func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) error {
	return h.toggle(h.svc.ToggleFavorite, "restaurant_id", true)(w, r)
}

func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) error {
	return h.toggle(h.svc.ToggleFavorite, "restaurant_id", false)(w, r)
}

func (h *Handler) AddLike(w http.ResponseWriter, r *http.Request) error {
	return h.toggle(h.svc.ToggleLike, "restaurant_id", true)(w, r)
}

func (h *Handler) RemoveLike(w http.ResponseWriter, r *http.Request) error {
	return h.toggle(h.svc.ToggleLike, "restaurant_id", false)(w, r)
}

func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) error {
	return h.toggle(h.svc.ToggleFollow, "user_id", true)(w, r)
}

func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) error {
	return h.toggle(h.svc.ToggleFollow, "user_id", false)(w, r)
}

// Register mounts the toggle routes. protect wraps a handler with authentication
// and rate limiting.
func (h *Handler) Register(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	mux.Handle("POST /favorites/{restaurant_id}", protect(httpx.Wrap(h.AddFavorite)))
	mux.Handle("DELETE /favorites/{restaurant_id}", protect(httpx.Wrap(h.RemoveFavorite)))
	mux.Handle("POST /likes/{restaurant_id}", protect(httpx.Wrap(h.AddLike)))
	mux.Handle("DELETE /likes/{restaurant_id}", protect(httpx.Wrap(h.RemoveLike)))
	mux.Handle("POST /following/{user_id}", protect(httpx.Wrap(h.Follow)))
	mux.Handle("DELETE /following/{user_id}", protect(httpx.Wrap(h.Unfollow)))
}

package ranking

import (
	"net/http"

	"restaurant-service/internal/shared/httpx"
)

type Handler struct{ asm Assembler }

func NewHandler(a Assembler) *Handler { return &Handler{asm: a} }

func (h *Handler) Browse(w http.ResponseWriter, r *http.Request) error {
	catID := httpx.QueryInt(r, "category_id", 0)
	if catID < 0 {
		catID = 0
	}
	page, err := h.asm.Browse(r.Context(), httpx.ViewerID(r), BrowseQuery{
		CategoryID: uint64(catID),
		Page:       httpx.QueryInt(r, "page", 1),
		Limit:      httpx.QueryInt(r, "limit", DefaultBrowseLimit),
	})
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, page, http.StatusOK)
	return nil
}

func (h *Handler) TopRestaurants(w http.ResponseWriter, r *http.Request) error {
	items, err := h.asm.TopRestaurants(r.Context(), httpx.ViewerID(r), httpx.QueryInt(r, "limit", DefaultTopLimit))
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, map[string]any{"restaurants": items}, http.StatusOK)
	return nil
}

func (h *Handler) Feeds(w http.ResponseWriter, r *http.Request) error {
	feed, err := h.asm.Feed(r.Context(), httpx.QueryInt(r, "limit", DefaultFeedLimit))
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, feed, http.StatusOK)
	return nil
}

func (h *Handler) Restaurant(w http.ResponseWriter, r *http.Request) error {
	uid, err := httpx.UserFromCtx(r)
	if err != nil {
		return err
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		return err
	}
	detail, err := h.asm.RestaurantDetail(r.Context(), id, uid)
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, detail, http.StatusOK)
	return nil
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) error {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		return err
	}
	d, err := h.asm.Dashboard(r.Context(), id)
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, d, http.StatusOK)
	return nil
}

// TopUsers returns every user unless ?limit is given.
func (h *Handler) TopUsers(w http.ResponseWriter, r *http.Request) error {
	uid, err := httpx.UserFromCtx(r)
	if err != nil {
		return err
	}
	items, err := h.asm.TopUsers(r.Context(), uid, httpx.QueryInt(r, "limit", 0))
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, map[string]any{"users": items}, http.StatusOK)
	return nil
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) error {
	uid, err := httpx.UserFromCtx(r)
	if err != nil {
		return err
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		return err
	}
	p, err := h.asm.UserProfile(r.Context(), id, uid)
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, p, http.StatusOK)
	return nil
}

func (h *Handler) Followers(w http.ResponseWriter, r *http.Request) error {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		return err
	}
	l, err := h.asm.Followers(r.Context(), id)
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, l, http.StatusOK)
	return nil
}

func (h *Handler) Followings(w http.ResponseWriter, r *http.Request) error {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		return err
	}
	l, err := h.asm.Followings(r.Context(), id)
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, l, http.StatusOK)
	return nil
}

// Register mounts the read routes. required rejects anonymous callers; optional
// resolves the viewer when a token is present.
func (h *Handler) Register(mux *http.ServeMux, required, optional func(http.Handler) http.Handler) {
	mux.Handle("GET /restaurants", optional(httpx.Wrap(h.Browse)))
	mux.Handle("GET /restaurants/top", optional(httpx.Wrap(h.TopRestaurants)))
	mux.Handle("GET /restaurants/feeds", optional(httpx.Wrap(h.Feeds)))
	mux.Handle("GET /restaurants/{id}", required(httpx.Wrap(h.Restaurant)))
	mux.Handle("GET /restaurants/{id}/dashboard", required(httpx.Wrap(h.Dashboard)))
	mux.Handle("GET /users/top", required(httpx.Wrap(h.TopUsers)))
	mux.Handle("GET /users/{id}", required(httpx.Wrap(h.Profile)))
	mux.Handle("GET /users/{id}/followers", optional(httpx.Wrap(h.Followers)))
	mux.Handle("GET /users/{id}/followings", optional(httpx.Wrap(h.Followings)))
}

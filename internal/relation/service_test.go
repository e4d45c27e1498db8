package relation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"restaurant-service/internal/events"
	"restaurant-service/internal/shared/apperr"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.RelationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.RelationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func newService(f *fixture, pub events.Publisher) Service {
	return NewService(f.store, f.users, f.restaurants, pub)
}

func TestToggleFavoriteLifecycle(t *testing.T) {
	f := newFixture(t, 2, 1)
	pub := &recordingPublisher{}
	svc := newService(f, pub)
	ctx := context.Background()
	u, other, r := f.us[0].ID, f.us[1].ID, f.rs[0].ID

	if err := svc.ToggleFavorite(ctx, other, r, true); err != nil {
		t.Fatalf("other add: %v", err)
	}
	if err := svc.ToggleFavorite(ctx, u, r, true); err != nil {
		t.Fatalf("add: %v", err)
	}
	before, _ := f.store.CountByTarget(ctx, KindFavorite, r)

	if err := svc.ToggleFavorite(ctx, u, r, true); !apperr.IsConflict(err) {
		t.Fatalf("duplicate add err = %v, want conflict", err)
	}
	if err := svc.ToggleFavorite(ctx, u, r, false); err != nil {
		t.Fatalf("remove: %v", err)
	}
	after, _ := f.store.CountByTarget(ctx, KindFavorite, r)
	if after != before-1 {
		t.Errorf("count after remove = %d, want %d", after, before-1)
	}

	if len(pub.events) != 3 {
		t.Fatalf("published = %d, want 3", len(pub.events))
	}
	last := pub.events[2]
	if last.Kind != "favorite" || last.Op != events.OpRemoved || last.SubjectID != u || last.TargetID != r {
		t.Errorf("last event = %+v", last)
	}
}

func TestRemoveMissingFavoriteLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t, 2, 1)
	svc := newService(f, nil)
	ctx := context.Background()
	r := f.rs[0].ID
	if err := svc.ToggleFavorite(ctx, f.us[1].ID, r, true); err != nil {
		t.Fatalf("seed favorite: %v", err)
	}

	err := svc.ToggleFavorite(ctx, f.us[0].ID, r, false)
	if !apperr.IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
	if n := f.rows(t, &Favorite{}); n != 1 {
		t.Errorf("favorites = %d, want 1", n)
	}
}

func TestToggleValidation(t *testing.T) {
	f := newFixture(t, 2, 1)
	svc := newService(f, nil)
	ctx := context.Background()
	u, v, r := f.us[0].ID, f.us[1].ID, f.rs[0].ID

	tests := []struct {
		name  string
		call  func() error
		check func(error) bool
	}{
		{"self follow", func() error { return svc.ToggleFollow(ctx, u, u, true) }, apperr.IsValidation},
		{"self unfollow", func() error { return svc.ToggleFollow(ctx, u, u, false) }, apperr.IsValidation},
		{"self follow unknown user", func() error { return svc.ToggleFollow(ctx, 999, 999, true) }, apperr.IsValidation},
		{"zero user", func() error { return svc.ToggleLike(ctx, 0, r, true) }, apperr.IsValidation},
		{"zero restaurant", func() error { return svc.ToggleFavorite(ctx, u, 0, true) }, apperr.IsValidation},
		{"missing restaurant add", func() error { return svc.ToggleLike(ctx, u, 999, true) }, apperr.IsNotFound},
		{"missing restaurant remove", func() error { return svc.ToggleFavorite(ctx, u, 999, false) }, apperr.IsNotFound},
		{"missing user follow", func() error { return svc.ToggleFollow(ctx, u, 999, true) }, apperr.IsNotFound},
		{"unfollow never followed", func() error { return svc.ToggleFollow(ctx, u, v, false) }, apperr.IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !tt.check(err) {
				t.Errorf("err = %v", err)
			}
		})
	}
	if n := f.rows(t, &Followship{}) + f.rows(t, &Like{}) + f.rows(t, &Favorite{}); n != 0 {
		t.Errorf("rows created by failed toggles = %d", n)
	}
}

func TestToggleFollow(t *testing.T) {
	f := newFixture(t, 2, 0)
	svc := newService(f, nil)
	ctx := context.Background()
	a, b := f.us[0].ID, f.us[1].ID

	if err := svc.ToggleFollow(ctx, a, b, true); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if err := svc.ToggleFollow(ctx, b, a, true); err != nil {
		t.Fatalf("follow back: %v", err)
	}
	if err := svc.ToggleFollow(ctx, a, b, true); !apperr.IsConflict(err) {
		t.Errorf("duplicate follow err = %v, want conflict", err)
	}
	if err := svc.ToggleFollow(ctx, a, b, false); err != nil {
		t.Fatalf("unfollow: %v", err)
	}
	followers, _ := f.store.ListFollowers(ctx, b)
	if len(followers) != 0 {
		t.Errorf("followers of b = %v, want none", followers)
	}
}

func TestConcurrentDuplicateLikes(t *testing.T) {
	f := newFixture(t, 1, 1)
	svc := newService(f, nil)
	ctx := context.Background()
	u, r := f.us[0].ID, f.rs[0].ID

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = svc.ToggleLike(ctx, u, r, true)
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperr.IsConflict(err):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != n-1 {
		t.Errorf("ok = %d, conflicts = %d; want 1 and %d", ok, conflicts, n-1)
	}
	if rows := f.rows(t, &Like{}); rows != 1 {
		t.Errorf("like rows = %d, want 1", rows)
	}
}

func TestPublishFailureDoesNotFailToggle(t *testing.T) {
	f := newFixture(t, 1, 1)
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newService(f, pub)

	if err := svc.ToggleLike(context.Background(), f.us[0].ID, f.rs[0].ID, true); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if len(pub.events) != 1 {
		t.Errorf("publish attempts = %d, want 1", len(pub.events))
	}
	if rows := f.rows(t, &Like{}); rows != 1 {
		t.Errorf("like rows = %d, want 1", rows)
	}
}

func TestToggleWithMissingSubject(t *testing.T) {
	f := newFixture(t, 1, 1)
	pub := &recordingPublisher{}
	svc := newService(f, pub)
	ctx := context.Background()
	u, r := f.us[0].ID, f.rs[0].ID
	const ghost = 424242

	tests := []struct {
		name string
		call func() error
	}{
		{"favorite", func() error { return svc.ToggleFavorite(ctx, ghost, r, true) }},
		{"like", func() error { return svc.ToggleLike(ctx, ghost, r, true) }},
		{"follow", func() error { return svc.ToggleFollow(ctx, ghost, u, true) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !apperr.IsNotFound(err) {
				t.Errorf("err = %v, want not found", err)
			}
		})
	}
	if n := f.rows(t, &Followship{}) + f.rows(t, &Like{}) + f.rows(t, &Favorite{}); n != 0 {
		t.Errorf("rows for a missing user = %d, want 0", n)
	}
	if followers, _ := f.store.ListFollowers(ctx, u); len(followers) != 0 {
		t.Errorf("followers = %v, want none", followers)
	}
	if len(pub.events) != 0 {
		t.Errorf("events published = %d, want 0", len(pub.events))
	}
}

type blockingPublisher struct{}

func (blockingPublisher) Publish(ctx context.Context, _ events.RelationEvent) error {
	<-ctx.Done()
	return ctx.Err()
}

func (blockingPublisher) Close() error { return nil }

func TestSlowPublisherDoesNotHoldToggle(t *testing.T) {
	f := newFixture(t, 1, 1)
	svc := newService(f, blockingPublisher{}).(*service)
	svc.publishTimeout = 20 * time.Millisecond

	start := time.Now()
	if err := svc.ToggleLike(context.Background(), f.us[0].ID, f.rs[0].ID, true); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("toggle took %s with a stuck broker", elapsed)
	}
	if rows := f.rows(t, &Like{}); rows != 1 {
		t.Errorf("like rows = %d, want 1", rows)
	}
}

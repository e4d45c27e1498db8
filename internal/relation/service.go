package relation

import (
	"context"
	"time"

	"restaurant-service/internal/events"
	"restaurant-service/internal/metrics"
	"restaurant-service/internal/shared/apperr"
	"restaurant-service/internal/shared/logging"
)

// Checker reports whether an entity exists. user.Repository and
// restaurant.Repository both satisfy it.
type Checker interface {
	Exists(ctx context.Context, id uint64) (bool, error)
}

type Service interface {
	ToggleFavorite(ctx context.Context, userID, restaurantID uint64, add bool) error
	ToggleLike(ctx context.Context, userID, restaurantID uint64, add bool) error
	ToggleFollow(ctx context.Context, followerID, followingID uint64, add bool) error
}

// publishTimeout bounds how long a committed toggle waits on the broker.
const publishTimeout = 2 * time.Second

type service struct {
	store          Store
	users          Checker
	restaurants    Checker
	pub            events.Publisher
	publishTimeout time.Duration
}

func NewService(st Store, users, restaurants Checker, pub events.Publisher) Service {
	if pub == nil {
		pub = events.Noop()
	}
	return &service{store: st, users: users, restaurants: restaurants, pub: pub, publishTimeout: publishTimeout}
}

func (s *service) ToggleFavorite(ctx context.Context, userID, restaurantID uint64, add bool) error {
	err := s.toggle(ctx, KindFavorite, s.restaurants, "restaurant", userID, restaurantID, add)
	metrics.RecordToggle(string(KindFavorite), add, err)
	return err
}

func (s *service) ToggleLike(ctx context.Context, userID, restaurantID uint64, add bool) error {
	err := s.toggle(ctx, KindLike, s.restaurants, "restaurant", userID, restaurantID, add)
	metrics.RecordToggle(string(KindLike), add, err)
	return err
}

func (s *service) ToggleFollow(ctx context.Context, followerID, followingID uint64, add bool) error {
	var err error
	if followerID != 0 && followerID == followingID {
		err = apperr.Invalid("cannot follow yourself")
	} else {
		err = s.toggle(ctx, KindFollow, s.users, "user", followerID, followingID, add)
	}
	metrics.RecordToggle(string(KindFollow), add, err)
	return err
}

// toggle validates ids, checks the target exists and then performs exactly one
// insert or delete. Duplicate adds are caught by the store's primary key rather
// than a prior read, so concurrent adds of the same pair leave a single row.
// The foreign keys reject a subject or target that is missing at insert time.
func (s *service) toggle(ctx context.Context, kind Kind, targets Checker, what string, subjectID, targetID uint64, add bool) error {
	if subjectID == 0 {
		return apperr.Invalid("%s: missing user id", kind)
	}
	if targetID == 0 {
		return apperr.Invalid("%s: missing %s id", kind, what)
	}
	ok, err := targets.Exists(ctx, targetID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("%s %d not found", what, targetID)
	}

	if add {
		if _, err := s.store.Create(ctx, kind, subjectID, targetID); err != nil {
			return err
		}
	} else if err := s.store.Delete(ctx, kind, subjectID, targetID); err != nil {
		return err
	}

	s.publish(ctx, events.NewRelationEvent(string(kind), add, subjectID, targetID))
	return nil
}

// publish runs after the row change is committed, so a broker failure is logged
// and counted but never reported to the caller.
func (s *service) publish(ctx context.Context, ev events.RelationEvent) {
	pctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()
	err := s.pub.Publish(pctx, ev)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("event_id", ev.ID).Str("kind", ev.Kind).Str("op", ev.Op).
			Uint64("subject_id", ev.SubjectID).Uint64("target_id", ev.TargetID).
			Msg("relation event not published")
		metrics.RelationEvents.WithLabelValues("error").Inc()
		return
	}
	metrics.RelationEvents.WithLabelValues("ok").Inc()
}

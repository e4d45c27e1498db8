// Package events publishes relation changes for downstream consumers such as
// feed fan-out and notifications.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	OpAdded   = "added"
	OpRemoved = "removed"
)

type RelationEvent struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Op         string    `json:"op"`
	SubjectID  uint64    `json:"subject_id"`
	TargetID   uint64    `json:"target_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewRelationEvent(kind string, add bool, subjectID, targetID uint64) RelationEvent {
	op := OpRemoved
	if add {
		op = OpAdded
	}
	return RelationEvent{
		ID:         uuid.NewString(),
		Kind:       kind,
		Op:         op,
		SubjectID:  subjectID,
		TargetID:   targetID,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev RelationEvent) error
	Close() error
}

type noop struct{}

// Noop drops every event. Used when no broker is configured.
func Noop() Publisher { return noop{} }

func (noop) Publish(context.Context, RelationEvent) error { return nil }
func (noop) Close() error                                 { return nil }

package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kgo "github.com/segmentio/kafka-go"
	gobreaker "github.com/sony/gobreaker/v2"

	"restaurant-service/internal/metrics"
)

type captureWriter struct {
	mu   sync.Mutex
	msgs []kgo.Message
	err  error
}

func (c *captureWriter) WriteMessages(_ context.Context, msgs ...kgo.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, msgs...)
	return nil
}

func (c *captureWriter) Close() error { return nil }

func TestKafkaPublisherEncodesEvent(t *testing.T) {
	w := &captureWriter{}
	p := &kafkaPublisher{w: w}
	ev := NewRelationEvent("follow", true, 3, 9)

	if err := p.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "3" {
		t.Errorf("key = %q, want 3", msg.Key)
	}
	var got RelationEvent
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != ev.ID || got.Op != OpAdded || got.Kind != "follow" || got.TargetID != 9 {
		t.Errorf("decoded = %+v, want %+v", got, ev)
	}
	if len(msg.Headers) != 2 || string(msg.Headers[1].Value) != OpAdded {
		t.Errorf("headers = %+v", msg.Headers)
	}
}

func TestNewRelationEvent(t *testing.T) {
	a := NewRelationEvent("like", false, 1, 2)
	b := NewRelationEvent("like", false, 1, 2)
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("event ids should be unique, got %q and %q", a.ID, b.ID)
	}
	if a.Op != OpRemoved {
		t.Errorf("op = %q, want %q", a.Op, OpRemoved)
	}
}

type flakyPublisher struct {
	calls int
	err   error
}

func (f *flakyPublisher) Publish(context.Context, RelationEvent) error {
	f.calls++
	return f.err
}

func (f *flakyPublisher) Close() error { return nil }

func TestBreakerOpensAfterFailures(t *testing.T) {
	next := &flakyPublisher{err: errors.New("broker down")}
	p := WithBreaker(next, BreakerConfig{FailureThreshold: 3, Timeout: time.Minute})
	ctx := context.Background()
	ev := NewRelationEvent("favorite", true, 1, 1)

	for i := 0; i < 3; i++ {
		if err := p.Publish(ctx, ev); err == nil || errors.Is(err, gobreaker.ErrOpenState) {
			t.Fatalf("call %d: err = %v, want broker error", i, err)
		}
	}
	if err := p.Publish(ctx, ev); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("err = %v, want ErrOpenState", err)
	}
	if next.calls != 3 {
		t.Errorf("underlying calls = %d, want 3", next.calls)
	}
}

func TestNoop(t *testing.T) {
	p := Noop()
	if err := p.Publish(context.Background(), NewRelationEvent("like", true, 1, 2)); err != nil {
		t.Errorf("Publish: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestKafkaWriterIsAsync(t *testing.T) {
	p := NewKafkaPublisher("localhost:9092", "relations.changed", "one").(*kafkaPublisher)
	defer p.Close()
	w, ok := p.w.(*kgo.Writer)
	if !ok {
		t.Fatalf("writer type = %T", p.w)
	}
	if !w.Async || w.Completion == nil {
		t.Errorf("Async = %v, Completion set = %v; want async with completion", w.Async, w.Completion != nil)
	}
}

func TestCompletionCountsDroppedMessages(t *testing.T) {
	dropped := metrics.RelationEvents.WithLabelValues("dropped")
	before := testutil.ToFloat64(dropped)

	completion([]kgo.Message{{}, {}}, nil)
	if got := testutil.ToFloat64(dropped) - before; got != 0 {
		t.Errorf("dropped after success = %v, want 0", got)
	}
	completion([]kgo.Message{{}, {}}, errors.New("leader not available"))
	if got := testutil.ToFloat64(dropped) - before; got != 2 {
		t.Errorf("dropped after failure = %v, want 2", got)
	}
}

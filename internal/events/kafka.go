package events

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	kgo "github.com/segmentio/kafka-go"

	"restaurant-service/internal/metrics"
	"restaurant-service/internal/shared/logging"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kgo.Message) error
	Close() error
}

type kafkaPublisher struct {
	w messageWriter
}

// NewKafkaPublisher writes events to topic, keyed by subject id so one user's
// changes stay ordered within a partition. Writes are async: Publish returns once
// the message is queued and delivery failures are reported by completion.
func NewKafkaPublisher(bootstrapServers, topic, acks string) Publisher {
	var requiredAcks kgo.RequiredAcks
	switch strings.ToLower(strings.TrimSpace(acks)) {
	case "none":
		requiredAcks = kgo.RequireNone
	case "all":
		requiredAcks = kgo.RequireAll
	default:
		requiredAcks = kgo.RequireOne
	}
	var addrs []string
	for _, a := range strings.Split(bootstrapServers, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	w := &kgo.Writer{
		Addr:                   kgo.TCP(addrs...),
		Topic:                  topic,
		Balancer:               &kgo.Hash{},
		RequiredAcks:           requiredAcks,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion:             completion,
	}
	return &kafkaPublisher{w: w}
}

func (p *kafkaPublisher) Publish(ctx context.Context, ev RelationEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kgo.Message{
		Key:   []byte(strconv.FormatUint(ev.SubjectID, 10)),
		Value: b,
		Time:  ev.OccurredAt,
		Headers: []kgo.Header{
			{Key: "kind", Value: []byte(ev.Kind)},
			{Key: "op", Value: []byte(ev.Op)},
		},
	})
}

func completion(msgs []kgo.Message, err error) {
	if err == nil {
		return
	}
	metrics.RelationEvents.WithLabelValues("dropped").Add(float64(len(msgs)))
	logging.Warn().Err(err).Int("messages", len(msgs)).Msg("relation events not delivered")
}

func (p *kafkaPublisher) Close() error { return p.w.Close() }

package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/hydrogen-tracker/internal/config"
	"github.com/couchcryptid/hydrogen-tracker/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Notifier produces snapshot-published events to the notification topic.
// It implements pipeline.Publisher.
type Notifier struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewNotifier creates a Kafka producer for the configured topic.
func NewNotifier(cfg *config.Config, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Notifier{writer: w, logger: logger}
}

// Publish sends one event and waits for the broker acknowledgement.
func (n *Notifier) Publish(ctx context.Context, event domain.SnapshotPublished) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish snapshot event: %w", err)
	}
	n.logger.Info("snapshot event published", "run_id", event.RunID, "topic", n.writer.Topic)
	return nil
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// serializeToMessage marshals a SnapshotPublished event into a Kafka message
// keyed by run ID.
func serializeToMessage(event domain.SnapshotPublished) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize snapshot event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.RunID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte("snapshot_published")},
			{Key: "rows", Value: []byte(strconv.Itoa(event.Rows))},
			{Key: "published_at", Value: []byte(event.PublishedAt.Format(time.RFC3339))},
		},
	}, nil
}

package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/hydrogen-tracker/internal/config"
	"github.com/couchcryptid/hydrogen-tracker/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Listener consumes snapshot-published events, e.g. to drop a dashboard
// cache as soon as a new snapshot lands.
type Listener struct {
	reader *kafkago.Reader
	logger *slog.Logger
}

// NewListener creates a consumer-group reader for the notification topic.
func NewListener(cfg *config.Config, logger *slog.Logger) *Listener {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 1 << 20,
		MaxWait:  time.Second,
	})
	return &Listener{reader: r, logger: logger}
}

// Listen calls handle for every event until ctx is cancelled. Messages that
// do not decode are logged and skipped. Returns nil on cancellation.
func (l *Listener) Listen(ctx context.Context, handle func(domain.SnapshotPublished)) error {
	l.logger.Info("snapshot listener started", "topic", l.reader.Config().Topic)
	for {
		msg, err := l.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("read snapshot event: %w", err)
		}
		event, err := parseMessage(msg)
		if err != nil {
			l.logger.Warn("skipping undecodable snapshot event",
				"error", err,
				"partition", msg.Partition,
				"offset", msg.Offset,
			)
			continue
		}
		l.logger.Info("snapshot event received", "run_id", event.RunID, "rows", event.Rows)
		handle(event)
	}
}

func (l *Listener) Close() error {
	return l.reader.Close()
}

// parseMessage decodes a message produced by serializeToMessage.
func parseMessage(msg kafkago.Message) (domain.SnapshotPublished, error) {
	var event domain.SnapshotPublished
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return domain.SnapshotPublished{}, fmt.Errorf("decode snapshot event: %w", err)
	}
	if event.RunID == "" {
		event.RunID = string(msg.Key)
	}
	return event, nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shortloop-dev/shortloop/internal/config"
	"github.com/shortloop-dev/shortloop/internal/events"
	"github.com/shortloop-dev/shortloop/internal/infrastructure/db"
	"github.com/shortloop-dev/shortloop/internal/infrastructure/logger"
	mongoStorage "github.com/shortloop-dev/shortloop/internal/storage/mongo"
	"go.uber.org/zap"
)

// click_consumer reads ClickRecorded events from Kafka and folds them into
// the per-link daily aggregates served by the stats endpoint. Offsets are
// committed only after the upsert succeeds, so delivery is at-least-once and
// the $inc-based aggregate tolerates the occasional replay.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.App.Env, cfg.App.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoConn, err := db.ConnectMongo(cfg.Store.MongoURI, cfg.Store.MongoDB)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() { _ = mongoConn.Disconnect() }()

	statsStore, err := mongoStorage.NewClickStatsRepository(mongoConn)
	if err != nil {
		logger.Fatal("Failed to initialize click stats repository", zap.Error(err))
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          cfg.Kafka.ClickTopic,
		GroupID:        cfg.Kafka.GroupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // synchronous commits
	})
	defer func() { _ = reader.Close() }()

	logger.Info("Click consumer starting",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.ClickTopic),
		zap.String("group_id", cfg.Kafka.GroupID),
	)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			logger.Error("Failed to fetch message", zap.Error(err))
			continue
		}

		if err := handleMessage(ctx, statsStore, msg); err != nil {
			logger.Error("Failed to apply click event, leaving offset uncommitted",
				zap.Error(err),
				zap.Int64("offset", msg.Offset),
				zap.Int("partition", msg.Partition),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			logger.Error("Failed to commit offset", zap.Error(err))
		}
	}

	logger.Info("Click consumer stopped")
}

func handleMessage(ctx context.Context, stats *mongoStorage.ClickStatsRepository, msg kafka.Message) error {
	var event events.ClickRecorded
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		// A malformed payload will never become parseable; log and move on.
		logger.Warn("Dropping undecodable click event",
			zap.Error(err),
			zap.Int64("offset", msg.Offset),
		)
		return nil
	}

	occurredAt, err := time.Parse(time.RFC3339, event.OccurredAt)
	if err != nil {
		logger.Warn("Dropping click event with invalid timestamp",
			zap.String("event_id", event.EventID),
			zap.String("occurred_at", event.OccurredAt),
		)
		return nil
	}

	applyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := stats.IncDaily(applyCtx, event.Code, occurredAt); err != nil {
		return fmt.Errorf("incrementing daily count for %q: %w", event.Code, err)
	}

	logger.Debug("Click event applied",
		zap.String("event_id", event.EventID),
		zap.String("code", event.Code),
	)
	return nil
}

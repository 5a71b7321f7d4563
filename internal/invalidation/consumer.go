package invalidation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"github.com/marisklase/darkwatch/internal/config"
)

// Invalidator is implemented by cache.Responses.
type Invalidator interface {
	Invalidate(ctx context.Context, eezIDs []string) error
}

type Consumer struct {
	cfg    config.InvalidationCfg
	logger *slog.Logger
	cache  Invalidator
}

func NewConsumer(cfg config.InvalidationCfg, logger *slog.Logger, cache Invalidator) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{cfg: cfg, logger: logger, cache: cache}
}

// Start joins the consumer group and processes events until ctx is done.
func (c *Consumer) Start(ctx context.Context) error {
	if c.cache == nil {
		return errors.New("invalidation: missing cache")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	group, err := sarama.NewConsumerGroup(strings.Split(c.cfg.Brokers, ","), c.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	handler := &groupHandler{process: c.ProcessOne}

	c.logger.Info("invalidation consumer starting",
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "group", c.cfg.GroupID)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("invalidation consumer shutting down")
			return nil
		default:
			if err := group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil {
				c.logger.Error("consumer error", "err", err)
				time.Sleep(2 * time.Second)
			}
		}
	}
}

// ProcessOne handles a single batch event. Malformed events are logged and
// skipped so one bad producer cannot wedge the partition.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		c.logger.Warn("skipping undecodable event", "offset", msg.Offset, "err", err)
		return nil
	}
	if err := ev.Validate(); err != nil {
		c.logger.Warn("skipping invalid event", "offset", msg.Offset, "err", err)
		return nil
	}

	if err := c.cache.Invalidate(ctx, ev.EEZIDs); err != nil {
		return fmt.Errorf("invalidate %d eez entries: %w", len(ev.EEZIDs), err)
	}
	c.logger.Info("flushed cache for detection batch",
		"eez_count", len(ev.EEZIDs), "start", ev.StartDate, "end", ev.EndDate, "source", ev.Source)
	return nil
}

type groupHandler struct {
	process func(ctx context.Context, msg *sarama.ConsumerMessage) error
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := h.process(sess.Context(), msg); err != nil {
			return err
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}

package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/pm/patient-system/internal/core/ports"
	"github.com/pm/patient-system/internal/infrastructure/protoschema"
	"github.com/pm/patient-system/internal/pkg/metrics"
)

const (
	defaultBlock         = 5 * time.Second
	defaultCount         = 64
	defaultClaimMinIdle  = time.Minute
	defaultClaimInterval = 30 * time.Second
	retryBackoff         = time.Second

	// maxClaimRounds bounds one reclaim pass over a large pending list.
	maxClaimRounds = 16
)

type streamReader interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAutoClaim(ctx context.Context, a *redis.XAutoClaimArgs) *redis.XAutoClaimCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

// Sink receives decoded events. queue.Dispatcher satisfies it.
type Sink interface {
	Enqueue(ctx context.Context, in ports.PatientEventInput) error
}

type ConsumerConfig struct {
	Stream   string
	Group    string
	Consumer string
	Block    time.Duration
	Count    int64
	// ClaimMinIdle is how long an entry must sit unacked, in any consumer's
	// pending list, before this consumer takes it over.
	ClaimMinIdle time.Duration
	// ClaimInterval is the pause between reclaim passes.
	ClaimInterval time.Duration
}

// Consumer reads a stream as a member of a consumer group. Entries are acked
// by the sink's processor through Ack. Entries left unacked, by a failed
// processor or a crashed consumer, are read again: this consumer's own
// backlog on start, and idle entries of the whole group on every reclaim
// pass. Delivery is at-least-once.
type Consumer struct {
	rdb       streamReader
	cfg       ConsumerConfig
	sink      Sink
	log       zerolog.Logger
	lastClaim time.Time
}

func NewConsumer(rdb streamReader, cfg ConsumerConfig, sink Sink, log zerolog.Logger) *Consumer {
	if cfg.Stream == "" {
		cfg.Stream = DefaultStream
	}
	if cfg.Block <= 0 {
		cfg.Block = defaultBlock
	}
	if cfg.Count <= 0 {
		cfg.Count = defaultCount
	}
	if cfg.ClaimMinIdle <= 0 {
		cfg.ClaimMinIdle = defaultClaimMinIdle
	}
	if cfg.ClaimInterval <= 0 {
		cfg.ClaimInterval = defaultClaimInterval
	}
	return &Consumer{rdb: rdb, cfg: cfg, sink: sink, log: log}
}

// EnsureGroup creates the consumer group, and the stream if missing.
func (c *Consumer) EnsureGroup(ctx context.Context) error {
	err := c.rdb.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create group %s on %s: %w", c.cfg.Group, c.cfg.Stream, err)
	}
	return nil
}

// Run drains this consumer's backlog, then reads new entries until ctx is
// cancelled, reclaiming idle ones every ClaimInterval.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.drainBacklog(ctx); err != nil && ctx.Err() == nil {
		c.log.Error().Err(err).Str("stream", c.cfg.Stream).Msg("backlog drain failed")
	}
	c.lastClaim = time.Now()

	for {
		if ctx.Err() != nil {
			return nil
		}
		if time.Since(c.lastClaim) >= c.cfg.ClaimInterval {
			if err := c.reclaim(ctx); err != nil && ctx.Err() == nil {
				metrics.AnalyticsEventsErrorsTotal.WithLabelValues("claim").Inc()
				c.log.Error().Err(err).Str("stream", c.cfg.Stream).Msg("reclaim failed")
			}
			c.lastClaim = time.Now()
		}
		if err := c.poll(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Error().Err(err).Str("stream", c.cfg.Stream).Msg("stream read failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryBackoff):
			}
		}
	}
}

func (c *Consumer) poll(ctx context.Context) error {
	streams, err := c.read(ctx, ">", c.cfg.Block)
	if err != nil {
		return err
	}
	for _, s := range streams {
		for _, msg := range s.Messages {
			c.handle(ctx, msg)
		}
	}
	return nil
}

// drainBacklog re-reads entries already delivered to this consumer and never
// acked, walking its pending list from the start.
func (c *Consumer) drainBacklog(ctx context.Context) error {
	cursor := "0"
	for {
		// A negative block omits BLOCK; history reads return at once.
		streams, err := c.read(ctx, cursor, -1)
		if err != nil {
			return err
		}
		n := 0
		for _, s := range streams {
			for _, msg := range s.Messages {
				c.handle(ctx, msg)
				cursor = msg.ID
				n++
			}
		}
		if n == 0 || ctx.Err() != nil {
			return nil
		}
	}
}

// reclaim takes over entries idle for ClaimMinIdle, including this
// consumer's own failed ones, and hands them to the sink again.
func (c *Consumer) reclaim(ctx context.Context) error {
	start := "0-0"
	for i := 0; i < maxClaimRounds; i++ {
		msgs, next, err := c.rdb.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   c.cfg.Stream,
			Group:    c.cfg.Group,
			Consumer: c.cfg.Consumer,
			MinIdle:  c.cfg.ClaimMinIdle,
			Start:    start,
			Count:    c.cfg.Count,
		}).Result()
		if err != nil {
			return fmt.Errorf("autoclaim %s: %w", c.cfg.Stream, err)
		}
		for _, msg := range msgs {
			c.handle(ctx, msg)
		}
		if next == "0-0" || next == "" || ctx.Err() != nil {
			return nil
		}
		start = next
	}
	return nil
}

func (c *Consumer) read(ctx context.Context, id string, block time.Duration) ([]redis.XStream, error) {
	streams, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		Streams:  []string{c.cfg.Stream, id},
		Count:    c.cfg.Count,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return streams, err
}

func (c *Consumer) handle(ctx context.Context, msg redis.XMessage) {
	raw, ok := msg.Values[payloadField].(string)
	if !ok {
		c.drop(ctx, msg.ID, "decode", errors.New("missing payload field"))
		return
	}
	ev, err := protoschema.UnmarshalPatientEvent([]byte(raw))
	if err != nil {
		c.drop(ctx, msg.ID, "decode", err)
		return
	}
	if err := ev.Validate(); err != nil {
		c.drop(ctx, msg.ID, "invalid", err)
		return
	}
	if err := c.sink.Enqueue(ctx, ports.PatientEventInput{MessageID: msg.ID, Event: ev}); err != nil {
		c.log.Debug().Err(err).Str("message_id", msg.ID).Msg("entry left pending")
	}
}

// drop acknowledges an entry that can never be processed.
func (c *Consumer) drop(ctx context.Context, id, reason string, cause error) {
	metrics.AnalyticsEventsErrorsTotal.WithLabelValues(reason).Inc()
	c.log.Error().Err(cause).Str("message_id", id).Str("reason", reason).Msg("unprocessable stream entry dropped")
	if err := c.Ack(ctx, id); err != nil {
		c.log.Warn().Err(err).Str("message_id", id).Msg("failed to ack dropped entry")
	}
}

// Ack removes id from the group's pending list.
func (c *Consumer) Ack(ctx context.Context, id string) error {
	if err := c.rdb.XAck(ctx, c.cfg.Stream, c.cfg.Group, id).Err(); err != nil {
		metrics.AnalyticsEventsErrorsTotal.WithLabelValues("ack").Inc()
		return fmt.Errorf("ack %s: %w", id, err)
	}
	return nil
}

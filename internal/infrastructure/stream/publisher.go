// Package stream carries patient events over Redis Streams. Each entry holds
// the protobuf payload and the schema version it was encoded with.
package stream

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pm/patient-system/internal/core/domain"
	"github.com/pm/patient-system/internal/infrastructure/protoschema"
)

const (
	DefaultStream = "patient"

	payloadField = "payload"
	schemaField  = "schema"
)

type streamWriter interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Publisher appends patient events to a stream.
type Publisher struct {
	rdb    streamWriter
	stream string
	maxLen int64
}

// NewPublisher returns a Publisher for stream. A positive maxLen caps the
// stream approximately at that many entries.
func NewPublisher(rdb streamWriter, stream string, maxLen int64) *Publisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &Publisher{rdb: rdb, stream: stream, maxLen: maxLen}
}

// Publish returns once Redis has accepted the entry.
func (p *Publisher) Publish(ctx context.Context, ev domain.PatientEvent) error {
	payload, err := protoschema.MarshalPatientEvent(ev)
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			payloadField: payload,
			schemaField:  protoschema.PatientEventSchemaVersion,
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("publish %s to %s: %w", ev.EventType, p.stream, err)
	}
	return nil
}

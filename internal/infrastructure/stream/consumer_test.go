package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/pm/patient-system/internal/core/domain"
	"github.com/pm/patient-system/internal/core/ports"
	"github.com/pm/patient-system/internal/infrastructure/protoschema"
	"github.com/pm/patient-system/internal/pkg/metrics"
)

type fakeReader struct {
	groupErr error
	batches  [][]redis.XStream
	pending  [][]redis.XStream
	readErr  error
	onRead   func()
	acked    []string
	reads    []*redis.XReadGroupArgs

	claimable [][]redis.XMessage
	claimErr  error
	claims    []*redis.XAutoClaimArgs
}

func (f *fakeReader) XGroupCreateMkStream(_ context.Context, _, _, _ string) *redis.StatusCmd {
	if f.groupErr != nil {
		return redis.NewStatusResult("", f.groupErr)
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeReader) XReadGroup(_ context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	f.reads = append(f.reads, a)
	if f.onRead != nil {
		f.onRead()
	}
	if f.readErr != nil {
		return redis.NewXStreamSliceCmdResult(nil, f.readErr)
	}
	if a.Streams[1] != ">" {
		// History reads answer with an empty stream once the pending list is exhausted.
		if len(f.pending) == 0 {
			return redis.NewXStreamSliceCmdResult([]redis.XStream{{Stream: a.Streams[0]}}, nil)
		}
		next := f.pending[0]
		f.pending = f.pending[1:]
		return redis.NewXStreamSliceCmdResult(next, nil)
	}
	if len(f.batches) == 0 {
		return redis.NewXStreamSliceCmdResult(nil, redis.Nil)
	}
	next := f.batches[0]
	f.batches = f.batches[1:]
	return redis.NewXStreamSliceCmdResult(next, nil)
}

func (f *fakeReader) XAutoClaim(ctx context.Context, a *redis.XAutoClaimArgs) *redis.XAutoClaimCmd {
	f.claims = append(f.claims, a)
	cmd := redis.NewXAutoClaimCmd(ctx)
	if f.claimErr != nil {
		cmd.SetErr(f.claimErr)
		return cmd
	}
	if len(f.claimable) == 0 {
		cmd.SetVal(nil, "0-0")
		return cmd
	}
	next := f.claimable[0]
	f.claimable = f.claimable[1:]
	cursor := "0-0"
	if len(f.claimable) > 0 {
		cursor = next[len(next)-1].ID
	}
	cmd.SetVal(next, cursor)
	return cmd
}

func (f *fakeReader) XAck(_ context.Context, _, _ string, ids ...string) *redis.IntCmd {
	f.acked = append(f.acked, ids...)
	return redis.NewIntResult(int64(len(ids)), nil)
}

type recordingSink struct {
	got []ports.PatientEventInput
	err error
}

func (s *recordingSink) Enqueue(_ context.Context, in ports.PatientEventInput) error {
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, in)
	return nil
}

func encoded(t *testing.T, ev domain.PatientEvent) string {
	t.Helper()
	b, err := protoschema.MarshalPatientEvent(ev)
	require.NoError(t, err)
	return string(b)
}

func newTestConsumer(r *fakeReader, sink Sink) *Consumer {
	return NewConsumer(r, ConsumerConfig{Group: "analytics", Consumer: "analytics-1"}, sink, zerolog.Nop())
}

func TestConsumer_Poll_DispatchesAndDropsPoison(t *testing.T) {
	ev := domain.PatientEvent{PatientID: "p-1", Name: "Jane Doe", Email: "jane@example.com", EventType: domain.EventTypePatientCreated}
	r := &fakeReader{batches: [][]redis.XStream{{{
		Stream: DefaultStream,
		Messages: []redis.XMessage{
			{ID: "1-0", Values: map[string]any{payloadField: encoded(t, ev)}},
			{ID: "2-0", Values: map[string]any{payloadField: "\xff"}},
			{ID: "3-0", Values: map[string]any{"other": "x"}},
			{ID: "4-0", Values: map[string]any{payloadField: encoded(t, domain.PatientEvent{Name: "No Id"})}},
		},
	}}}}
	sink := &recordingSink{}
	c := newTestConsumer(r, sink)
	invalidBefore := testutil.ToFloat64(metrics.AnalyticsEventsErrorsTotal.WithLabelValues("invalid"))

	require.NoError(t, c.poll(context.Background()))

	require.Len(t, sink.got, 1)
	require.Equal(t, "1-0", sink.got[0].MessageID)
	require.Equal(t, ev, sink.got[0].Event)
	// Valid entries are acked after processing, unprocessable ones immediately.
	require.Equal(t, []string{"2-0", "3-0", "4-0"}, r.acked)
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.AnalyticsEventsErrorsTotal.WithLabelValues("invalid"))-invalidBefore)

	args := r.reads[0]
	require.Equal(t, []string{DefaultStream, ">"}, args.Streams)
	require.Equal(t, "analytics", args.Group)
	require.Equal(t, "analytics-1", args.Consumer)
}

func TestConsumer_Poll_EmptyBlockIsNotAnError(t *testing.T) {
	c := newTestConsumer(&fakeReader{}, &recordingSink{})

	require.NoError(t, c.poll(context.Background()))
}

func TestConsumer_EnsureGroup(t *testing.T) {
	busy := newTestConsumer(&fakeReader{groupErr: errors.New("BUSYGROUP Consumer Group name already exists")}, &recordingSink{})
	require.NoError(t, busy.EnsureGroup(context.Background()))

	broken := newTestConsumer(&fakeReader{groupErr: errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")}, &recordingSink{})
	require.Error(t, broken.EnsureGroup(context.Background()))
}

func TestConsumer_Run_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &fakeReader{}
	r.onRead = func() {
		if len(r.reads) == 3 {
			cancel()
		}
	}
	c := newTestConsumer(r, &recordingSink{})

	require.NoError(t, c.Run(ctx))
	require.Len(t, r.reads, 3)
}

func TestConsumer_Ack(t *testing.T) {
	r := &fakeReader{}
	c := newTestConsumer(r, &recordingSink{})

	require.NoError(t, c.Ack(context.Background(), "9-0"))
	require.Equal(t, []string{"9-0"}, r.acked)
}

func TestConsumer_DrainBacklog_ReprocessesPendingEntries(t *testing.T) {
	ev := domain.PatientEvent{PatientID: "p-7", EventType: domain.EventTypePatientCreated}
	r := &fakeReader{pending: [][]redis.XStream{
		{{Stream: DefaultStream, Messages: []redis.XMessage{
			{ID: "5-0", Values: map[string]any{payloadField: encoded(t, ev)}},
			{ID: "6-0", Values: nil}, // trimmed from the stream while pending
		}}},
		{{Stream: DefaultStream, Messages: []redis.XMessage{
			{ID: "8-0", Values: map[string]any{payloadField: encoded(t, ev)}},
		}}},
	}}
	sink := &recordingSink{}
	c := newTestConsumer(r, sink)

	require.NoError(t, c.drainBacklog(context.Background()))

	require.Len(t, sink.got, 2)
	require.Equal(t, "5-0", sink.got[0].MessageID)
	require.Equal(t, "8-0", sink.got[1].MessageID)
	require.Equal(t, []string{"6-0"}, r.acked)

	require.Len(t, r.reads, 3)
	require.Equal(t, []string{DefaultStream, "0"}, r.reads[0].Streams)
	require.Equal(t, []string{DefaultStream, "6-0"}, r.reads[1].Streams)
	require.Equal(t, []string{DefaultStream, "8-0"}, r.reads[2].Streams)
	require.True(t, r.reads[0].Block < 0, "history reads must not block")
}

func TestConsumer_Reclaim_HandsIdleEntriesToSink(t *testing.T) {
	ev := domain.PatientEvent{PatientID: "p-9", EventType: domain.EventTypePatientCreated}
	r := &fakeReader{claimable: [][]redis.XMessage{
		{{ID: "10-0", Values: map[string]any{payloadField: encoded(t, ev)}}},
		{{ID: "11-0", Values: map[string]any{payloadField: encoded(t, ev)}}},
	}}
	sink := &recordingSink{}
	c := NewConsumer(r, ConsumerConfig{Group: "analytics", Consumer: "analytics-2", ClaimMinIdle: 90 * time.Second}, sink, zerolog.Nop())

	require.NoError(t, c.reclaim(context.Background()))

	require.Len(t, sink.got, 2)
	require.Equal(t, "10-0", sink.got[0].MessageID)
	require.Equal(t, "11-0", sink.got[1].MessageID)

	require.Len(t, r.claims, 2)
	require.Equal(t, "0-0", r.claims[0].Start)
	require.Equal(t, "10-0", r.claims[1].Start)
	require.Equal(t, "analytics-2", r.claims[0].Consumer)
	require.Equal(t, 90*time.Second, r.claims[0].MinIdle)
}

func TestConsumer_Reclaim_Error(t *testing.T) {
	r := &fakeReader{claimErr: errors.New("NOGROUP")}
	c := newTestConsumer(r, &recordingSink{})

	require.Error(t, c.reclaim(context.Background()))
}

func TestConsumer_Run_DrainsBacklogBeforeNewEntries(t *testing.T) {
	ev := domain.PatientEvent{PatientID: "p-3", EventType: domain.EventTypePatientCreated}
	ctx, cancel := context.WithCancel(context.Background())
	r := &fakeReader{
		pending: [][]redis.XStream{{{Stream: DefaultStream, Messages: []redis.XMessage{
			{ID: "1-0", Values: map[string]any{payloadField: encoded(t, ev)}},
		}}}},
		batches: [][]redis.XStream{{{Stream: DefaultStream, Messages: []redis.XMessage{
			{ID: "2-0", Values: map[string]any{payloadField: encoded(t, ev)}},
		}}}},
	}
	r.onRead = func() {
		if len(r.reads) == 4 {
			cancel()
		}
	}
	sink := &recordingSink{}
	c := newTestConsumer(r, sink)

	require.NoError(t, c.Run(ctx))

	require.Len(t, sink.got, 2)
	require.Equal(t, "1-0", sink.got[0].MessageID)
	require.Equal(t, "2-0", sink.got[1].MessageID)
}

func TestConsumer_Handle_SinkRefusalLeavesEntryPending(t *testing.T) {
	ev := domain.PatientEvent{PatientID: "p-4", EventType: domain.EventTypePatientCreated}
	r := &fakeReader{}
	c := newTestConsumer(r, &recordingSink{err: context.Canceled})

	c.handle(context.Background(), redis.XMessage{ID: "12-0", Values: map[string]any{payloadField: encoded(t, ev)}})

	require.Empty(t, r.acked)
}

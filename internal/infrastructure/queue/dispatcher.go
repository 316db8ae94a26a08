package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/pm/patient-system/internal/core/domain"
	"github.com/pm/patient-system/internal/core/ports"
	"github.com/pm/patient-system/internal/pkg/metrics"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Acker confirms a stream entry once it has been processed.
type Acker interface {
	Ack(ctx context.Context, messageID string) error
}

// Dispatcher routes patient events to a fixed set of workers using consistent
// hashing on the patient id, guaranteeing per-patient ordering.
type Dispatcher struct {
	workers []chan ports.PatientEventInput
	service ports.AnalyticsService
	acker   Acker
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.AnalyticsService, acker Acker, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.PatientEventInput, numWorkers),
		service: service,
		acker:   acker,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.PatientEventInput, channelBuffer)
	}
	return d
}

// SetAcker wires the acknowledger. Call it before Start.
func (d *Dispatcher) SetAcker(acker Acker) {
	d.acker = acker
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends an event to the worker responsible for its patient. It blocks
// once that worker's buffer is full, and gives up with ctx's error when ctx
// ends first.
func (d *Dispatcher) Enqueue(ctx context.Context, in ports.PatientEventInput) error {
	idx := d.shardIndex(in.Event.PatientID)
	select {
	case d.workers[idx] <- in:
	case <-ctx.Done():
		return ctx.Err()
	}
	metrics.AnalyticsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	return nil
}

// shardIndex maps a patient id deterministically to a worker index.
func (d *Dispatcher) shardIndex(patientID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(patientID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.PatientEventInput) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case in, ok := <-ch:
			if !ok {
				return
			}
			metrics.AnalyticsQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.process(ctx, id, in)
		}
	}
}

// process acks events that were handled or can never be handled. Other
// failures stay pending until the consumer reclaims them.
func (d *Dispatcher) process(ctx context.Context, worker int, in ports.PatientEventInput) {
	err := d.service.Process(ctx, in)
	switch {
	case err == nil:
	case domain.KindOf(err) == domain.KindInvalid:
		metrics.AnalyticsEventsErrorsTotal.WithLabelValues("invalid").Inc()
		d.log.Error().Err(err).
			Str("patient_id", in.Event.PatientID).
			Str("message_id", in.MessageID).
			Msg("invalid event dropped")
	default:
		metrics.AnalyticsEventsErrorsTotal.WithLabelValues("process").Inc()
		d.log.Error().Err(err).
			Str("patient_id", in.Event.PatientID).
			Str("message_id", in.MessageID).
			Int("worker_id", worker).
			Msg("event processing failed, left pending")
		return
	}

	if d.acker == nil || in.MessageID == "" {
		return
	}
	if err := d.acker.Ack(ctx, in.MessageID); err != nil {
		d.log.Warn().Err(err).Str("message_id", in.MessageID).Msg("ack failed, entry will be redelivered")
	}
}

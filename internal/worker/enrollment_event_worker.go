package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/learnnav/learning-navigator/internal/config"
	"github.com/learnnav/learning-navigator/internal/event"
	"github.com/learnnav/learning-navigator/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	retryDelay   = 5 * time.Second
	errorBackoff = time.Second
)

// RedisEventQueue pushes enrollment events onto enrollment_events_queue.
type RedisEventQueue struct {
	rdb redis.Cmdable
}

// NewRedisEventQueue creates a new RedisEventQueue.
func NewRedisEventQueue(rdb redis.Cmdable) *RedisEventQueue {
	return &RedisEventQueue{rdb: rdb}
}

// Enqueue appends evt to the tail of the queue.
func (q *RedisEventQueue) Enqueue(ctx context.Context, evt model.EnrollmentEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := q.rdb.RPush(ctx, config.WorkerKey.EnrollmentEventsQueue, body).Err(); err != nil {
		return fmt.Errorf("push event: %w", err)
	}
	return nil
}

// InlineQueue publishes straight away. Used when Redis is not configured.
type InlineQueue struct {
	publisher event.Publisher
}

func NewInlineQueue(publisher event.Publisher) *InlineQueue {
	return &InlineQueue{publisher: publisher}
}

func (q *InlineQueue) Enqueue(ctx context.Context, evt model.EnrollmentEvent) error {
	return q.publisher.Publish(ctx, evt)
}

// EnrollmentEventWorker consumes enrollment_events_queue and publishes each event.
// Events are removed from the list only after they were published or put back,
// so delivery is at least once.
type EnrollmentEventWorker struct {
	rdb          redis.Cmdable
	publisher    event.Publisher
	log          zerolog.Logger
	retryDelay   time.Duration
	errorBackoff time.Duration
}

// NewEnrollmentEventWorker creates a new EnrollmentEventWorker.
func NewEnrollmentEventWorker(rdb redis.Cmdable, publisher event.Publisher, log zerolog.Logger) *EnrollmentEventWorker {
	return &EnrollmentEventWorker{
		rdb:          rdb,
		publisher:    publisher,
		log:          log.With().Str("component", "enrollment_event_worker").Logger(),
		retryDelay:   retryDelay,
		errorBackoff: errorBackoff,
	}
}

// Start runs the worker loop until ctx is cancelled. Call in a goroutine.
func (w *EnrollmentEventWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *EnrollmentEventWorker) processNext(ctx context.Context) {
	// BLPop blocks for at most one second so cancellation is noticed promptly.
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.EnrollmentEventsQueue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
			// Redis is unreachable; back off instead of spinning.
			sleep(ctx, w.errorBackoff)
		}
		return
	}
	if len(result) < 2 {
		return
	}

	if err := w.handle(ctx, result[1]); err != nil {
		w.log.Error().Err(err).Dur("retry_in", w.retryDelay).Msg("Publish error, requeueing")
		// The payload is only in memory now. Put it back even if ctx was cancelled.
		w.requeue(context.WithoutCancel(ctx), result[1], false)
		sleep(ctx, w.retryDelay)
	}
}

// requeue puts raw back at the tail, or at the head when front is set.
func (w *EnrollmentEventWorker) requeue(ctx context.Context, raw string, front bool) {
	var err error
	if front {
		err = w.rdb.LPush(ctx, config.WorkerKey.EnrollmentEventsQueue, raw).Err()
	} else {
		err = w.rdb.RPush(ctx, config.WorkerKey.EnrollmentEventsQueue, raw).Err()
	}
	if err != nil {
		w.log.Error().Err(err).Str("payload", raw).Msg("Failed to requeue event, event lost")
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// handle decodes and publishes one queued payload. Malformed payloads are
// logged and dropped so they cannot block the queue.
func (w *EnrollmentEventWorker) handle(ctx context.Context, raw string) error {
	var evt model.EnrollmentEvent
	if err := json.Unmarshal([]byte(raw), &evt); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error, dropping event")
		return nil
	}
	return w.publisher.Publish(ctx, evt)
}

// drain publishes everything left in the queue before shutdown.
func (w *EnrollmentEventWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raw, err := w.rdb.LPop(ctx, config.WorkerKey.EnrollmentEventsQueue).Result()
		if err != nil {
			break
		}
		if err := w.handle(ctx, raw); err != nil {
			w.log.Error().Err(err).Msg("Drain publish error")
			w.requeue(ctx, raw, true)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining events")
	}
}

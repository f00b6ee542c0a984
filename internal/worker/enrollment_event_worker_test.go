package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/learnnav/learning-navigator/internal/config"
	"github.com/learnnav/learning-navigator/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu        sync.Mutex
	published []model.EnrollmentEvent
	err       error
	before    func()
}

func (p *fakePublisher) Publish(_ context.Context, evt model.EnrollmentEvent) error {
	if p.before != nil {
		p.before()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, evt)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) events() []model.EnrollmentEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.EnrollmentEvent(nil), p.published...)
}

// fakeRedis keeps lists in memory and implements the list commands the
// worker uses. Any other command panics on the nil embedded Cmdable.
type fakeRedis struct {
	redis.Cmdable

	mu       sync.Mutex
	lists    map[string][]string
	blpopErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{lists: make(map[string][]string)}
}

func asString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func (f *fakeRedis) RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	if err := ctx.Err(); err != nil {
		return redis.NewIntResult(0, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range values {
		f.lists[key] = append(f.lists[key], asString(v))
	}
	return redis.NewIntResult(int64(len(f.lists[key])), nil)
}

func (f *fakeRedis) LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	if err := ctx.Err(); err != nil {
		return redis.NewIntResult(0, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range values {
		f.lists[key] = append([]string{asString(v)}, f.lists[key]...)
	}
	return redis.NewIntResult(int64(len(f.lists[key])), nil)
}

func (f *fakeRedis) pop(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.lists[key]
	if len(list) == 0 {
		return "", false
	}
	f.lists[key] = list[1:]
	return list[0], true
}

func (f *fakeRedis) LPop(ctx context.Context, key string) *redis.StringCmd {
	if err := ctx.Err(); err != nil {
		return redis.NewStringResult("", err)
	}
	if v, ok := f.pop(key); ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeRedis) BLPop(ctx context.Context, _ time.Duration, keys ...string) *redis.StringSliceCmd {
	if err := ctx.Err(); err != nil {
		return redis.NewStringSliceResult(nil, err)
	}
	f.mu.Lock()
	err := f.blpopErr
	f.mu.Unlock()
	if err != nil {
		return redis.NewStringSliceResult(nil, err)
	}
	if v, ok := f.pop(keys[0]); ok {
		return redis.NewStringSliceResult([]string{keys[0], v}, nil)
	}

	// Short block so tests stay fast.
	select {
	case <-ctx.Done():
		return redis.NewStringSliceResult(nil, ctx.Err())
	case <-time.After(5 * time.Millisecond):
		return redis.NewStringSliceResult(nil, redis.Nil)
	}
}

func (f *fakeRedis) queued() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lists[config.WorkerKey.EnrollmentEventsQueue]...)
}

func newTestWorker(rdb redis.Cmdable, pub *fakePublisher) *EnrollmentEventWorker {
	w := NewEnrollmentEventWorker(rdb, pub, zerolog.New(io.Discard))
	w.retryDelay = 10 * time.Millisecond
	w.errorBackoff = 50 * time.Millisecond
	return w
}

func subjectEvent(studentID, subjectID int64) model.EnrollmentEvent {
	return model.EnrollmentEvent{ID: uuid.New(), Kind: model.EnrollmentKindSubject, StudentID: studentID, SubjectID: subjectID}
}

func TestInlineQueue_Publishes(t *testing.T) {
	pub := &fakePublisher{}
	q := NewInlineQueue(pub)

	evt := subjectEvent(1, 2)
	require.NoError(t, q.Enqueue(context.Background(), evt))
	require.Len(t, pub.events(), 1)
	assert.Equal(t, evt.ID, pub.events()[0].ID)

	pub.err = errors.New("broker down")
	assert.Error(t, q.Enqueue(context.Background(), evt))
}

func TestEnrollmentEventWorker_Handle(t *testing.T) {
	pub := &fakePublisher{}
	w := NewEnrollmentEventWorker(nil, pub, zerolog.New(io.Discard))

	evt := model.EnrollmentEvent{ID: uuid.New(), Kind: model.EnrollmentKindExam, StudentID: 1, SubjectID: 2, ExamID: 3}
	raw, err := json.Marshal(evt)
	require.NoError(t, err)

	require.NoError(t, w.handle(context.Background(), string(raw)))
	require.Len(t, pub.events(), 1)
	assert.Equal(t, int64(3), pub.events()[0].ExamID)
	assert.Equal(t, "enrollment.exam.created", pub.events()[0].RoutingKey())

	// Garbage is dropped, not retried.
	require.NoError(t, w.handle(context.Background(), "{not json"))
	assert.Len(t, pub.events(), 1)

	pub.err = errors.New("broker down")
	assert.Error(t, w.handle(context.Background(), string(raw)))
}

func TestRedisEventQueue_Enqueue(t *testing.T) {
	rdb := newFakeRedis()
	q := NewRedisEventQueue(rdb)

	evt := subjectEvent(4, 5)
	require.NoError(t, q.Enqueue(context.Background(), evt))

	queued := rdb.queued()
	require.Len(t, queued, 1)
	var got model.EnrollmentEvent
	require.NoError(t, json.Unmarshal([]byte(queued[0]), &got))
	assert.Equal(t, evt.ID, got.ID)
	assert.Equal(t, int64(5), got.SubjectID)
}

func TestRedisEventQueue_EnqueueError(t *testing.T) {
	q := NewRedisEventQueue(newFakeRedis())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := q.Enqueue(ctx, subjectEvent(1, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnrollmentEventWorker_PublishesEnqueuedEvents(t *testing.T) {
	rdb := newFakeRedis()
	pub := &fakePublisher{}
	w := newTestWorker(rdb, pub)
	q := NewRedisEventQueue(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	first, second := subjectEvent(1, 1), subjectEvent(1, 2)
	require.NoError(t, q.Enqueue(context.Background(), first))
	require.NoError(t, q.Enqueue(context.Background(), second))

	require.Eventually(t, func() bool { return len(pub.events()) == 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	events := pub.events()
	assert.Equal(t, first.ID, events[0].ID)
	assert.Equal(t, second.ID, events[1].ID)
	assert.Empty(t, rdb.queued())
}

func TestEnrollmentEventWorker_RequeuesOnPublishFailure(t *testing.T) {
	rdb := newFakeRedis()
	pub := &fakePublisher{err: errors.New("broker down")}
	w := newTestWorker(rdb, pub)

	evt := subjectEvent(2, 3)
	require.NoError(t, NewRedisEventQueue(rdb).Enqueue(context.Background(), evt))

	w.processNext(context.Background())
	assert.Empty(t, pub.events())
	require.Len(t, rdb.queued(), 1, "failed event goes back on the queue")

	pub.mu.Lock()
	pub.err = nil
	pub.mu.Unlock()

	w.processNext(context.Background())
	require.Len(t, pub.events(), 1)
	assert.Equal(t, evt.ID, pub.events()[0].ID)
	assert.Empty(t, rdb.queued())
}

func TestEnrollmentEventWorker_RequeuesWhenCancelledDuringPublish(t *testing.T) {
	rdb := newFakeRedis()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Shutdown arrives while the broker call is in flight.
	pub := &fakePublisher{err: errors.New("broker down"), before: cancel}
	w := newTestWorker(rdb, pub)

	evt := subjectEvent(2, 3)
	require.NoError(t, NewRedisEventQueue(rdb).Enqueue(context.Background(), evt))

	w.processNext(ctx)
	require.Len(t, rdb.queued(), 1)

	var got model.EnrollmentEvent
	require.NoError(t, json.Unmarshal([]byte(rdb.queued()[0]), &got))
	assert.Equal(t, evt.ID, got.ID)
}

func TestEnrollmentEventWorker_DrainsOnShutdown(t *testing.T) {
	rdb := newFakeRedis()
	pub := &fakePublisher{}
	w := newTestWorker(rdb, pub)
	q := NewRedisEventQueue(rdb)

	var want []uuid.UUID
	for i := int64(1); i <= 3; i++ {
		evt := subjectEvent(i, 1)
		want = append(want, evt.ID)
		require.NoError(t, q.Enqueue(context.Background(), evt))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Start(ctx)

	var got []uuid.UUID
	for _, evt := range pub.events() {
		got = append(got, evt.ID)
	}
	assert.Equal(t, want, got)
	assert.Empty(t, rdb.queued())
}

func TestEnrollmentEventWorker_DrainKeepsEventOnFailure(t *testing.T) {
	rdb := newFakeRedis()
	pub := &fakePublisher{err: errors.New("broker down")}
	w := newTestWorker(rdb, pub)
	q := NewRedisEventQueue(rdb)

	first, second := subjectEvent(1, 1), subjectEvent(2, 1)
	require.NoError(t, q.Enqueue(context.Background(), first))
	require.NoError(t, q.Enqueue(context.Background(), second))

	w.drain(context.Background())

	queued := rdb.queued()
	require.Len(t, queued, 2)
	var head model.EnrollmentEvent
	require.NoError(t, json.Unmarshal([]byte(queued[0]), &head))
	assert.Equal(t, first.ID, head.ID, "failed event is put back at the head")
}

func TestEnrollmentEventWorker_BacksOffOnRedisError(t *testing.T) {
	rdb := newFakeRedis()
	rdb.blpopErr = errors.New("connection refused")
	w := newTestWorker(rdb, &fakePublisher{})

	start := time.Now()
	w.processNext(context.Background())
	assert.GreaterOrEqual(t, time.Since(start), w.errorBackoff)

	// Cancellation cuts the backoff short.
	w.errorBackoff = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start = time.Now()
	w.processNext(ctx)
	assert.Less(t, time.Since(start), time.Second)
}

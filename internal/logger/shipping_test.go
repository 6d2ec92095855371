package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler captures records for assertions.
type recordingHandler struct {
	mu      sync.Mutex
	level   slog.Level
	records []slog.Record
	attrs   []slog.Attr
	err     error
	delay   time.Duration
}

func (h *recordingHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= h.level }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	if h.delay > 0 {
		time.Sleep(h.delay)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return h.err
}

func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attrs = append(h.attrs, attrs...)
	return h
}

func (h *recordingHandler) WithGroup(string) slog.Handler { return h }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

func TestMultiHandler_FanOut(t *testing.T) {
	t.Parallel()
	var a, b bytes.Buffer
	log := slog.New(NewMultiHandler(
		slog.NewJSONHandler(&a, nil),
		nil,
		slog.NewJSONHandler(&b, nil),
	))

	log.Info("both")
	assert.Contains(t, a.String(), `"msg":"both"`)
	assert.Contains(t, b.String(), `"msg":"both"`)
}

func TestMultiHandler_LevelsPerHandler(t *testing.T) {
	t.Parallel()
	debug := &recordingHandler{level: slog.LevelDebug}
	errorsOnly := &recordingHandler{level: slog.LevelError}
	h := NewMultiHandler(debug, errorsOnly)

	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))

	log := slog.New(h)
	log.Debug("d")
	log.Error("e")
	assert.Equal(t, 2, debug.count())
	assert.Equal(t, 1, errorsOnly.count())
}

func TestMultiHandler_JoinsErrors(t *testing.T) {
	t.Parallel()
	errA := errors.New("a")
	errB := errors.New("b")
	h := NewMultiHandler(&recordingHandler{err: errA}, &recordingHandler{err: errB})

	err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "x", 0))
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestMultiHandler_WithAttrs(t *testing.T) {
	t.Parallel()
	inner := &recordingHandler{}
	NewMultiHandler(inner).WithAttrs([]slog.Attr{slog.String("k", "v")})
	require.Len(t, inner.attrs, 1)
	assert.Equal(t, "k", inner.attrs[0].Key)
}

func TestAsyncHandler_DeliversOnShutdown(t *testing.T) {
	t.Parallel()
	inner := &recordingHandler{}
	h := NewAsyncHandler(inner, AsyncOptions{BufferSize: 16})
	log := slog.New(h)

	for range 5 {
		log.Info("queued")
	}
	require.NoError(t, h.Shutdown(context.Background()))
	assert.Equal(t, 5, inner.count())

	log.Info("after shutdown")
	assert.Equal(t, 5, inner.count())
	require.NoError(t, h.Shutdown(context.Background()))
}

func TestAsyncHandler_DropsWhenFull(t *testing.T) {
	t.Parallel()
	inner := &recordingHandler{delay: 50 * time.Millisecond}
	h := NewAsyncHandler(inner, AsyncOptions{BufferSize: 1})
	log := slog.New(h)

	for range 20 {
		log.Info("burst")
	}
	assert.Positive(t, h.Dropped())
	require.NoError(t, h.Shutdown(context.Background()))
	assert.Equal(t, uint64(20), h.Dropped()+uint64(inner.count()))
}

func TestAsyncHandler_ShutdownTimeout(t *testing.T) {
	t.Parallel()
	inner := &recordingHandler{delay: time.Second}
	h := NewAsyncHandler(inner, AsyncOptions{BufferSize: 4, FlushTimeout: 20 * time.Millisecond})
	slog.New(h).Info("slow")
	slog.New(h).Info("slow")

	err := h.Shutdown(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAsyncHandler_DerivedSharesQueue(t *testing.T) {
	t.Parallel()
	inner := &recordingHandler{}
	h := NewAsyncHandler(inner, AsyncOptions{})
	derived := h.WithAttrs([]slog.Attr{slog.Int("n", 1)}).WithGroup("g")

	require.NoError(t, derived.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "d", 0)))
	require.NoError(t, h.Shutdown(context.Background()))
	assert.Equal(t, 1, inner.count())
}

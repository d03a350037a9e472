package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bybitalert/internal/bybit/alert"
	"bybitalert/pkg/bybit"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSource struct {
	tickers []bybit.Ticker
	err     error
	calls   int
}

func (f *fakeSource) GetTickers(ctx context.Context) ([]bybit.Ticker, error) {
	f.calls++
	return f.tickers, f.err
}

type fakeNotifier struct {
	mu      sync.Mutex
	ok      bool
	subject []string
}

func (f *fakeNotifier) Notify(ctx context.Context, ev alert.Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subject = append(f.subject, ev.Subject)
	return f.ok
}

func (f *fakeNotifier) subjects() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.subject...)
}

// blockingStreamer runs until ctx is done.
type blockingStreamer struct {
	mu   sync.Mutex
	runs int
}

func (b *blockingStreamer) Run(ctx context.Context) error {
	b.mu.Lock()
	b.runs++
	b.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (b *blockingStreamer) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.runs
}

// failingStreamer exits immediately as if hit by a fatal error.
type failingStreamer struct{ panics bool }

func (f failingStreamer) Run(ctx context.Context) error {
	if f.panics {
		panic("boom")
	}
	return errors.New("fatal")
}

type fakeRecorder struct {
	delivered []bool
	err       error
}

func (f *fakeRecorder) RecordAlert(ctx context.Context, ev alert.Event, delivered bool) error {
	f.delivered = append(f.delivered, delivered)
	return f.err
}

func ticker(symbol string, last, high, low int64) bybit.Ticker {
	return bybit.Ticker{
		Symbol:    symbol,
		LastPrice: decimal.NewFromInt(last),
		HighPrice: decimal.NewFromInt(high),
		LowPrice:  decimal.NewFromInt(low),
	}
}

var testOptions = Options{
	RequestInterval: 20 * time.Millisecond,
	CyclePeriod:     80 * time.Millisecond,
}

// go test -v --run TestRunCycleDispatchesEvents
func TestRunCycleDispatchesEvents(t *testing.T) {
	source := &fakeSource{tickers: []bybit.Ticker{
		ticker("BTCUSDT", 70000, 70000, 60000),
		ticker("DOGEUSDT", 1, 1, 1),
		ticker("ETHUSDT", 1000, 5000, 1000),
		ticker("XRPUSDT", 2, 3, 1),
	}}
	notifier := &fakeNotifier{ok: true}
	streamer := &blockingStreamer{}

	s := New(source, notifier, streamer, bybit.TrackedSymbols(), testOptions, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		s.waitStream()
	}()

	start := time.Now()
	n := s.RunCycle(ctx)

	assert.Equal(t, 2, n)
	assert.Equal(t, []string{
		"BTCUSDT reached an all-time high!",
		"ETHUSDT hit an all-time low!",
	}, notifier.subjects())
	assert.GreaterOrEqual(t, time.Since(start), testOptions.CyclePeriod)
	assert.Eventually(t, func() bool { return streamer.count() == 1 }, time.Second, 5*time.Millisecond)
}

// go test -v --run TestRunCycleFetchError
func TestRunCycleFetchError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	source := &fakeSource{err: bybit.ErrFetch}
	notifier := &fakeNotifier{ok: true}

	s := New(source, notifier, &blockingStreamer{}, bybit.TrackedSymbols(), testOptions, zap.New(core))

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		s.waitStream()
	}()

	var n int
	require.NotPanics(t, func() { n = s.RunCycle(ctx) })

	assert.Equal(t, 0, n)
	assert.Empty(t, notifier.subjects())
	assert.Equal(t, 1, logs.FilterMessage("failed to fetch tickers").Len())
	assert.Equal(t, 1, s.StreamStarts())
}

// go test -v --run TestRequestIntervalPadding
func TestRequestIntervalPadding(t *testing.T) {
	s := New(&fakeSource{}, &fakeNotifier{}, &blockingStreamer{}, bybit.TrackedSymbols(),
		Options{RequestInterval: 50 * time.Millisecond}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		s.waitStream()
	}()

	start := time.Now()
	s.RunCycle(ctx)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

// go test -v --run TestStreamStartedOnce
func TestStreamStartedOnce(t *testing.T) {
	streamer := &blockingStreamer{}
	s := New(&fakeSource{}, &fakeNotifier{}, streamer, bybit.TrackedSymbols(), testOptions, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < 3; i++ {
		s.RunCycle(ctx)
	}
	cancel()
	s.waitStream()

	assert.Equal(t, 1, s.StreamStarts())
	assert.Equal(t, 1, streamer.count())
}

// go test -v --run TestStreamRestartedAfterExit
func TestStreamRestartedAfterExit(t *testing.T) {
	for _, panics := range []bool{false, true} {
		core, logs := observer.New(zapcore.DebugLevel)
		s := New(&fakeSource{}, &fakeNotifier{}, failingStreamer{panics: panics}, bybit.TrackedSymbols(),
			testOptions, zap.New(core))

		ctx := context.Background()
		s.RunCycle(ctx)
		s.waitStream()
		s.RunCycle(ctx)
		s.waitStream()

		assert.Equal(t, 2, s.StreamStarts(), "panics=%v", panics)
		assert.Equal(t, 2, logs.FilterMessage("stream subscriber exited").Len(), "panics=%v", panics)
	}
}

// go test -v --run TestRecorder
func TestRecorder(t *testing.T) {
	source := &fakeSource{tickers: []bybit.Ticker{
		ticker("BTCUSDT", 70000, 70000, 60000),
		ticker("ADAUSDT", 1, 2, 1),
	}}
	recorder := &fakeRecorder{err: errors.New("db down")}

	core, logs := observer.New(zapcore.DebugLevel)
	s := New(source, &fakeNotifier{ok: false}, &blockingStreamer{}, bybit.TrackedSymbols(), testOptions, zap.New(core))
	s.SetRecorder(recorder)

	events := s.DetectOnce(context.Background())

	require.Len(t, events, 2)
	assert.Equal(t, []bool{false, false}, recorder.delivered)
	assert.Equal(t, 2, logs.FilterMessage("failed to record alert").Len())
}

// go test -v --run TestRunStopsOnCancel
func TestRunStopsOnCancel(t *testing.T) {
	source := &fakeSource{}
	streamer := &blockingStreamer{}
	s := New(source, &fakeNotifier{}, streamer, bybit.TrackedSymbols(), testOptions, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return streamer.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(2 * testOptions.CyclePeriod)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 1, s.StreamStarts())
	assert.GreaterOrEqual(t, source.calls, 2)
}

// Package scheduler drives the detection cycle and keeps the stream
// subscriber running alongside it.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bybitalert/internal/bybit/alert"
	"bybitalert/pkg/bybit"

	"go.uber.org/zap"
)

// TickerSource fetches the current ticker snapshot.
type TickerSource interface {
	GetTickers(ctx context.Context) ([]bybit.Ticker, error)
}

// Notifier delivers one event and reports success. It must not fail loudly.
type Notifier interface {
	Notify(ctx context.Context, ev alert.Event) bool
}

// Streamer runs the streaming subscription until ctx is done.
type Streamer interface {
	Run(ctx context.Context) error
}

// AlertRecorder persists dispatched events.
type AlertRecorder interface {
	RecordAlert(ctx context.Context, ev alert.Event, delivered bool) error
}

// Options holds the cycle timings.
type Options struct {
	RequestInterval time.Duration // minimum spacing of the detection request
	CyclePeriod     time.Duration // wall-clock length of one cycle
}

// DefaultOptions returns the exchange budget and five minute cycle.
func DefaultOptions() Options {
	return Options{
		RequestInterval: bybit.RequestInterval,
		CyclePeriod:     bybit.CyclePeriod,
	}
}

type Scheduler struct {
	source   TickerSource
	notifier Notifier
	streamer Streamer
	recorder AlertRecorder
	symbols  bybit.SymbolSet
	opts     Options
	logger   *zap.Logger

	mu           sync.Mutex
	streamDone   chan struct{}
	streamStarts int

	now func() time.Time
}

func New(source TickerSource, notifier Notifier, streamer Streamer, symbols bybit.SymbolSet,
	opts Options, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		source:   source,
		notifier: notifier,
		streamer: streamer,
		symbols:  symbols,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// SetRecorder enables the alert log. A nil recorder disables it.
func (s *Scheduler) SetRecorder(r AlertRecorder) {
	s.recorder = r
}

// Run repeats RunCycle until ctx is done, then waits for the stream worker.
func (s *Scheduler) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		s.RunCycle(ctx)
	}
	s.waitStream()
	return ctx.Err()
}

// RunCycle runs one detection pass paced to RequestInterval, makes sure the
// stream worker is running, then pads the cycle to CyclePeriod. It returns
// the number of events dispatched.
func (s *Scheduler) RunCycle(ctx context.Context) int {
	start := s.now()

	events := s.DetectOnce(ctx)
	s.padUntil(ctx, start, s.opts.RequestInterval)

	s.ensureStream(ctx)

	s.padUntil(ctx, start, s.opts.CyclePeriod)
	s.logger.Debug("cycle finished",
		zap.Int("events", len(events)),
		zap.Duration("elapsed", s.now().Sub(start)),
	)
	return len(events)
}

// DetectOnce fetches tickers, evaluates them and notifies every resulting
// event in order. A failed fetch yields no events.
func (s *Scheduler) DetectOnce(ctx context.Context) []alert.Event {
	tickers, err := s.source.GetTickers(ctx)
	if err != nil {
		s.logger.Warn("failed to fetch tickers", zap.Error(err))
		return nil
	}

	events := alert.Evaluate(tickers, s.symbols)
	for _, ev := range events {
		s.logger.Info("threshold reached",
			zap.String("symbol", ev.Symbol),
			zap.String("kind", string(ev.Kind)),
			zap.String("last_price", ev.LastPrice.String()),
		)

		delivered := s.notifier.Notify(ctx, ev)

		if s.recorder != nil {
			if err := s.recorder.RecordAlert(ctx, ev, delivered); err != nil {
				s.logger.Warn("failed to record alert", zap.String("symbol", ev.Symbol), zap.Error(err))
			}
		}
	}
	return events
}

// StreamStarts reports how many times the stream worker has been started.
func (s *Scheduler) StreamStarts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamStarts
}

// ensureStream starts the stream worker unless one is still running.
func (s *Scheduler) ensureStream(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamDone != nil {
		select {
		case <-s.streamDone:
		default:
			return
		}
	}

	done := make(chan struct{})
	s.streamDone = done
	s.streamStarts++

	go func() {
		defer close(done)
		err := s.runStream(ctx)
		if ctx.Err() == nil {
			s.logger.Error("stream subscriber exited", zap.Error(err))
		}
	}()
}

func (s *Scheduler) runStream(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stream subscriber panic: %v", r)
		}
	}()
	return s.streamer.Run(ctx)
}

func (s *Scheduler) waitStream() {
	s.mu.Lock()
	done := s.streamDone
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

// padUntil sleeps until d has passed since start, or ctx is done.
func (s *Scheduler) padUntil(ctx context.Context, start time.Time, d time.Duration) {
	remaining := d - s.now().Sub(start)
	if remaining <= 0 {
		return
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

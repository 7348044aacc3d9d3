// Package bridge drives the display: one frame per tick, reconnecting
// the link whenever a write fails.
package bridge

import (
	"context"
	"time"

	"codeberg.org/mutker/serialstat/internal/errors"
	"codeberg.org/mutker/serialstat/internal/frame"
	"codeberg.org/mutker/serialstat/internal/link"
	"codeberg.org/mutker/serialstat/internal/logger"
	"codeberg.org/mutker/serialstat/internal/screen"
	"codeberg.org/mutker/serialstat/internal/telemetry"
	"github.com/jonboulle/clockwork"
)

// Outcome of a single tick.
type Outcome int

const (
	Sent Outcome = iota
	LinkFailed
)

func (o Outcome) String() string {
	if o == Sent {
		return "sent"
	}
	return "link_failed"
}

type Scheduler interface {
	NextFrame(ctx context.Context, tick int) screen.Rendered
}

type Link interface {
	Send(f frame.Frame) error
	AttemptReconnect(ctx context.Context) error
	State() link.State
}

type Loop struct {
	scheduler Scheduler
	link      Link
	interval  time.Duration
	clock     clockwork.Clock
	recorder  telemetry.Recorder
	log       logger.Logger
	tick      int
}

type Option func(*Loop)

func WithClock(clock clockwork.Clock) Option {
	return func(l *Loop) {
		l.clock = clock
	}
}

func WithRecorder(recorder telemetry.Recorder) Option {
	return func(l *Loop) {
		l.recorder = recorder
	}
}

func WithLogger(log logger.Logger) Option {
	return func(l *Loop) {
		l.log = log
	}
}

func New(scheduler Scheduler, lnk Link, interval time.Duration, opts ...Option) *Loop {
	l := &Loop{
		scheduler: scheduler,
		link:      lnk,
		interval:  interval,
		clock:     clockwork.NewRealClock(),
		recorder:  telemetry.NoopRecorder{},
		log:       logger.Global(),
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Tick is the index of the next tick.
func (l *Loop) Tick() int {
	return l.tick
}

// RunTick renders and sends one frame. A failed send loses that frame.
func (l *Loop) RunTick(ctx context.Context) Outcome {
	r := l.scheduler.NextFrame(ctx, l.tick)
	l.tick++

	if r.Fallback {
		l.recorder.FallbackShown(r.Screen)
	}

	if err := l.link.Send(r.Frame); err != nil {
		var coded errors.Error
		if errors.As(err, &coded) {
			l.log.WarnWithCode(coded).Str("screen", r.Screen).Msg("Lost serial link")
		} else {
			l.log.Warn().Err(err).Str("screen", r.Screen).Msg("Lost serial link")
		}
		return LinkFailed
	}

	l.recorder.FrameSent(r.Screen)
	l.log.Debug().
		Int("tick", l.tick-1).
		Str("screen", r.Screen).
		Str("frame", r.Frame.String()).
		Msg("Frame sent")

	return Sent
}

// Run ticks every interval until ctx is cancelled. The link is
// reconnected before the first tick and after every failed send. Run
// returns nil on cancellation and the locator's error when the operator
// aborts rediscovery.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.reconnect(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.clock.After(l.interval):
		}

		if l.RunTick(ctx) == LinkFailed {
			if err := l.reconnect(ctx); err != nil {
				return err
			}
		}
	}
}

func (l *Loop) reconnect(ctx context.Context) error {
	if l.link.State() == link.Connected {
		return nil
	}

	err := l.link.AttemptReconnect(ctx)
	if err != nil && ctx.Err() != nil {
		return nil
	}

	return err
}

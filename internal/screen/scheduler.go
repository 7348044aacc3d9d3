// Package screen rotates the display between metric screens and renders
// the active one into a frame every tick.
package screen

import (
	"context"

	"codeberg.org/mutker/serialstat/internal/errors"
	"codeberg.org/mutker/serialstat/internal/frame"
	"codeberg.org/mutker/serialstat/internal/logger"
)

// Provider reads the snapshot for a screen. position is the zero-based
// tick within the screen's current dwell. An error means the data is
// transiently unavailable and the default screen is shown instead.
type Provider func(ctx context.Context, position int) (frame.Snapshot, error)

// Screen is one entry of the rotation.
type Screen struct {
	Name  string
	Dwell int
	// Available is checked each time the screen would become active;
	// nil means always available.
	Available func() bool
	Content   Provider
}

func (s Screen) dwell() int {
	if s.Dwell < 1 {
		return 1
	}

	return s.Dwell
}

func (s Screen) available() bool {
	return s.Available == nil || s.Available()
}

// State is the rotation position: the active screen and how many ticks
// it has been shown.
type State struct {
	Index int
	Ticks int
}

// Advance returns the state for the next tick. Once the active screen has
// been shown for its dwell, the next available screen in cyclic order
// becomes active; when none is available the default screen (index 0) is
// used regardless of its predicate.
func Advance(st State, screens []Screen) State {
	if st.Ticks < screens[st.Index].dwell() {
		return st
	}

	n := len(screens)
	for step := 1; step <= n; step++ {
		i := (st.Index + step) % n
		if screens[i].available() {
			return State{Index: i}
		}
	}

	return State{Index: 0}
}

// Rendered is the outcome of one scheduler tick.
type Rendered struct {
	Frame frame.Frame
	// Screen is the name of the screen whose content was sent
	Screen string
	// Fallback is set when the active screen's content was unavailable
	Fallback bool
}

type Scheduler struct {
	screens []Screen
	encoder *frame.Encoder
	state   State
	log     logger.Logger
}

type Option func(*Scheduler)

func WithLogger(log logger.Logger) Option {
	return func(s *Scheduler) {
		s.log = log
	}
}

// NewScheduler builds a scheduler over an ordered, non-empty set of
// screens. The first screen is the default.
func NewScheduler(encoder *frame.Encoder, screens []Screen, opts ...Option) (*Scheduler, error) {
	if len(screens) == 0 {
		return nil, errors.New().WithData(errors.ErrInvalidArgument, "at least one screen is required")
	}

	s := &Scheduler{
		screens: screens,
		encoder: encoder,
		log:     logger.Global(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// State returns a copy of the rotation state.
func (s *Scheduler) State() State {
	return s.state
}

// NextFrame advances the rotation and renders the active screen. tick is
// the loop's global tick index and is only used for reporting.
func (s *Scheduler) NextFrame(ctx context.Context, tick int) Rendered {
	s.state = Advance(s.state, s.screens)
	s.state.Ticks++
	position := s.state.Ticks - 1

	active := s.screens[s.state.Index]
	snap, err := active.Content(ctx, position)
	if err == nil {
		return Rendered{Frame: s.encoder.Encode(snap), Screen: active.Name}
	}

	s.log.WarnWithCode(errors.New().Wrap(errors.ErrSensorUnavailable, err)).
		Str("screen", active.Name).
		Int("tick", tick).
		Msg("Screen data unavailable, showing default screen for this tick")

	def := s.screens[0]
	if s.state.Index != 0 {
		if snap, err = def.Content(ctx, position); err == nil {
			return Rendered{Frame: s.encoder.Encode(snap), Screen: def.Name, Fallback: true}
		}
	}

	return Rendered{Frame: s.encoder.Unavailable(), Screen: def.Name, Fallback: true}
}

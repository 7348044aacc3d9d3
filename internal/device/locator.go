// Package device resolves which serial endpoint the display is attached
// to: an explicit name, automatic discovery, or an operator prompt.
package device

import (
	"context"
	"strings"
	"time"

	"codeberg.org/mutker/serialstat/internal/devicestore"
	"codeberg.org/mutker/serialstat/internal/errors"
	"codeberg.org/mutker/serialstat/internal/logger"
	"github.com/jonboulle/clockwork"
)

const (
	defaultDelay   = 5 * time.Second
	defaultRetries = 3
)

type Locator struct {
	enumerator Enumerator
	prompter   Prompter
	store      devicestore.Store
	vendors    map[string]struct{}
	delay      time.Duration
	retries    int
	clock      clockwork.Clock
	log        logger.Logger
}

type Option func(*Locator)

// WithVendors sets the preferred USB vendor IDs (hex, any case).
func WithVendors(ids []string) Option {
	return func(l *Locator) {
		l.vendors = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			l.vendors[strings.ToUpper(strings.TrimPrefix(strings.ToLower(id), "0x"))] = struct{}{}
		}
	}
}

// WithStore makes discovery prefer devices the bridge connected to
// before.
func WithStore(store devicestore.Store) Option {
	return func(l *Locator) {
		l.store = store
	}
}

// WithRetry sets how often a failed enumeration is retried, and the delay
// between retries, before the operator is asked.
func WithRetry(delay time.Duration, retries int) Option {
	return func(l *Locator) {
		l.delay = delay
		l.retries = retries
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(l *Locator) {
		l.clock = clock
	}
}

func WithLogger(log logger.Logger) Option {
	return func(l *Locator) {
		l.log = log
	}
}

func NewLocator(enumerator Enumerator, prompter Prompter, opts ...Option) *Locator {
	l := &Locator{
		enumerator: enumerator,
		prompter:   prompter,
		vendors:    map[string]struct{}{},
		delay:      defaultDelay,
		retries:    defaultRetries,
		clock:      clockwork.NewRealClock(),
		log:        logger.Global(),
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Locate returns explicit unchanged when set. Otherwise it enumerates
// the host's ports and picks, in order: a remembered device, the first
// port from a preferred vendor, the first USB port. When nothing fits
// the operator is prompted. Locate only fails when ctx ends or the
// operator aborts.
func (l *Locator) Locate(ctx context.Context, explicit string) (Endpoint, error) {
	if explicit != "" {
		return Endpoint{Name: explicit}, nil
	}

	for {
		if ep, ok := l.discover(ctx); ok {
			l.log.Info().
				Str("device", ep.Name).
				Str("vid", ep.VID).
				Str("pid", ep.PID).
				Msg("Discovered serial device")
			return ep, nil
		}
		if err := ctx.Err(); err != nil {
			return Endpoint{}, err
		}

		name, err := l.prompter.Prompt(ctx)
		if err == nil {
			return Endpoint{Name: name}, nil
		}
		if errors.HasCode(err, errors.ErrOperatorAbort) || ctx.Err() != nil {
			return Endpoint{}, err
		}

		l.warn(err, "Device prompt failed, retrying discovery")
		if err := l.sleep(ctx); err != nil {
			return Endpoint{}, err
		}
	}
}

// discover enumerates until a candidate is chosen or the retries for
// enumeration errors are used up.
func (l *Locator) discover(ctx context.Context) (Endpoint, bool) {
	for failures := 0; ; {
		endpoints, err := l.enumerator.List()
		if err == nil {
			return l.choose(ctx, endpoints)
		}

		failures++
		l.warn(err, "Serial port enumeration failed")
		if failures > l.retries {
			return Endpoint{}, false
		}
		if l.sleep(ctx) != nil {
			return Endpoint{}, false
		}
	}
}

func (l *Locator) choose(ctx context.Context, endpoints []Endpoint) (Endpoint, bool) {
	if len(endpoints) == 0 {
		l.log.Warn().Msg("No serial ports found")
		return Endpoint{}, false
	}

	if ep, ok := l.remembered(ctx, endpoints); ok {
		return ep, true
	}

	for _, ep := range endpoints {
		if _, ok := l.vendors[ep.VID]; ok && ep.VID != "" {
			return ep, true
		}
	}

	for _, ep := range endpoints {
		if ep.IsUSB {
			return ep, true
		}
	}

	l.log.Warn().Int("ports", len(endpoints)).Msg("No USB serial port found")
	return Endpoint{}, false
}

func (l *Locator) remembered(ctx context.Context, endpoints []Endpoint) (Endpoint, bool) {
	if l.store == nil {
		return Endpoint{}, false
	}

	known, err := l.store.Recent(ctx)
	if err != nil {
		l.log.Debug().Err(err).Msg("Failed to read remembered devices")
		return Endpoint{}, false
	}

	for _, dev := range known {
		for _, ep := range endpoints {
			if dev.Matches(ep.Name, ep.SerialNumber) {
				return ep, true
			}
		}
	}

	return Endpoint{}, false
}

func (l *Locator) sleep(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.clock.After(l.delay):
		return nil
	}
}

func (l *Locator) warn(err error, msg string) {
	var coded errors.Error
	if errors.As(err, &coded) {
		l.log.WarnWithCode(coded).Msg(msg)
		return
	}
	l.log.Warn().Err(err).Msg(msg)
}

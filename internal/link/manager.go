// Package link owns the serial connection to the display: opening it,
// writing frames, and reconnecting or rediscovering the device when the
// connection drops.
package link

import (
	"context"
	"time"

	"codeberg.org/mutker/serialstat/internal/device"
	"codeberg.org/mutker/serialstat/internal/devicestore"
	"codeberg.org/mutker/serialstat/internal/errors"
	"codeberg.org/mutker/serialstat/internal/frame"
	"codeberg.org/mutker/serialstat/internal/logger"
	"codeberg.org/mutker/serialstat/internal/telemetry"
	"github.com/jonboulle/clockwork"
)

type State int

const (
	Disconnected State = iota
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// Locator resolves a device endpoint. An empty explicit name requests
// discovery.
type Locator interface {
	Locate(ctx context.Context, explicit string) (device.Endpoint, error)
}

// Policy controls reconnection. AttemptLimit 0 retries the same device
// forever; otherwise the device is rediscovered after that many
// consecutive failed opens.
type Policy struct {
	AttemptLimit int
	Backoff      time.Duration
}

// PolicyFor picks the policy for a run: explicitly named devices are
// never rediscovered.
func PolicyFor(explicit bool, attemptLimit int, backoff time.Duration) Policy {
	if explicit {
		return Policy{Backoff: backoff}
	}
	return Policy{AttemptLimit: attemptLimit, Backoff: backoff}
}

func (p Policy) Bounded() bool {
	return p.AttemptLimit > 0
}

type Manager struct {
	opener   Opener
	locator  Locator
	policy   Policy
	clock    clockwork.Clock
	recorder telemetry.Recorder
	store    devicestore.Store
	log      logger.Logger

	endpoint device.Endpoint
	port     Port
	state    State
}

type Option func(*Manager)

func WithClock(clock clockwork.Clock) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

func WithRecorder(recorder telemetry.Recorder) Option {
	return func(m *Manager) {
		m.recorder = recorder
	}
}

// WithStore remembers every device the manager connects to.
func WithStore(store devicestore.Store) Option {
	return func(m *Manager) {
		m.store = store
	}
}

func WithLogger(log logger.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

func NewManager(opener Opener, locator Locator, policy Policy, opts ...Option) *Manager {
	m := &Manager{
		opener:   opener,
		locator:  locator,
		policy:   policy,
		clock:    clockwork.NewRealClock(),
		recorder: telemetry.NoopRecorder{},
		log:      logger.Global(),
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *Manager) State() State {
	return m.state
}

// Device is the current endpoint, zero before the first Connect.
func (m *Manager) Device() device.Endpoint {
	return m.endpoint
}

// Connect resolves the initial device and blocks until it is open.
func (m *Manager) Connect(ctx context.Context, explicit string) error {
	ep, err := m.locator.Locate(ctx, explicit)
	if err != nil {
		return err
	}
	m.endpoint = ep

	return m.AttemptReconnect(ctx)
}

// Open makes a single attempt at opening ep.
func (m *Manager) Open(ctx context.Context, ep device.Endpoint) error {
	m.closePort()
	m.endpoint = ep

	port, err := m.opener.Open(ep.Name)
	m.recorder.OpenAttempt(err == nil)
	if err != nil {
		m.setState(Disconnected)
		if !errors.HasCode(err, errors.ErrOpen) {
			err = errors.New().Wrap(errors.ErrOpen, err)
		}
		return err
	}

	m.port = port
	m.setState(Connected)
	m.log.Info().Str("device", ep.Name).Msg("Serial link connected")

	if m.store != nil {
		dev := devicestore.Device{
			Port:         ep.Name,
			SerialNumber: ep.SerialNumber,
			VID:          ep.VID,
			PID:          ep.PID,
			ConnectedAt:  m.clock.Now(),
		}
		if err := m.store.Remember(ctx, dev); err != nil {
			m.log.Debug().Err(err).Msg("Failed to remember device")
		}
	}

	return nil
}

// Send writes one frame. A failed write drops the link; the frame is not
// retried.
func (m *Manager) Send(f frame.Frame) error {
	errFactory := errors.New()

	if m.state != Connected {
		return errFactory.New(errors.ErrNotConnected)
	}

	if _, err := m.port.Write(f.Bytes()); err != nil {
		m.recorder.WriteFailed()
		m.closePort()
		m.setState(Disconnected)
		return errFactory.Wrap(errors.ErrWrite, err)
	}

	return nil
}

// AttemptReconnect opens the current device, sleeping the policy backoff
// between failed attempts. With a bounded policy the device is
// rediscovered once the attempt limit is reached and the count starts
// over. It returns only when connected, when ctx ends, or when the
// operator aborts rediscovery.
func (m *Manager) AttemptReconnect(ctx context.Context) error {
	if m.state == Connected {
		return nil
	}

	failures := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := m.Open(ctx, m.endpoint)
		if err == nil {
			return nil
		}

		failures++
		var coded errors.Error
		if errors.As(err, &coded) {
			m.log.WarnWithCode(coded).
				Str("device", m.endpoint.Name).
				Int("attempt", failures).
				Msg("Failed to open serial link")
		}

		if m.policy.Bounded() && failures >= m.policy.AttemptLimit {
			m.log.Warn().
				Int("attempts", failures).
				Msg("Reconnect attempts exhausted, rediscovering device")
			m.recorder.Rediscovered()

			ep, err := m.locator.Locate(ctx, "")
			if err != nil {
				return err
			}
			m.endpoint = ep
			failures = 0
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.clock.After(m.policy.Backoff):
		}
	}
}

// Close releases the port.
func (m *Manager) Close() error {
	if m.port == nil {
		return nil
	}

	err := m.port.Close()
	m.port = nil
	m.setState(Disconnected)
	if err != nil {
		return errors.New().Wrap(errors.ErrShutdownFailed, err)
	}

	return nil
}

func (m *Manager) closePort() {
	if m.port == nil {
		return
	}
	if err := m.port.Close(); err != nil {
		m.log.Debug().Err(err).Msg("Failed to close serial port")
	}
	m.port = nil
}

func (m *Manager) setState(s State) {
	m.state = s
	m.recorder.SetConnected(s == Connected)
}

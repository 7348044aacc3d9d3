package link

import (
	"bytes"
	"context"
	stderrors "errors"
	"testing"
	"time"

	"codeberg.org/mutker/serialstat/internal/device"
	"codeberg.org/mutker/serialstat/internal/devicestore"
	"codeberg.org/mutker/serialstat/internal/errors"
	"codeberg.org/mutker/serialstat/internal/frame"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePort struct {
	buf      bytes.Buffer
	writeErr error
	closed   bool
}

func (p *fakePort) Write(b []byte) (int, error) {
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	return p.buf.Write(b)
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

// fakeOpener fails the first failUntil opens.
type fakeOpener struct {
	failUntil int
	calls     int
	names     []string
	ports     []*fakePort
}

func (o *fakeOpener) Open(name string) (Port, error) {
	o.calls++
	o.names = append(o.names, name)
	if o.calls <= o.failUntil {
		return nil, stderrors.New("no such device")
	}
	p := &fakePort{}
	o.ports = append(o.ports, p)
	return p, nil
}

type fakeLocator struct {
	opener *fakeOpener
	// openCalls records how many opens had happened at each rediscovery
	openCalls []int
	endpoint  device.Endpoint
}

func (l *fakeLocator) Locate(_ context.Context, explicit string) (device.Endpoint, error) {
	if explicit != "" {
		return device.Endpoint{Name: explicit}, nil
	}
	l.openCalls = append(l.openCalls, l.opener.calls)
	return l.endpoint, nil
}

type recordingStore struct {
	devices []devicestore.Device
}

func (s *recordingStore) Remember(_ context.Context, dev devicestore.Device) error {
	s.devices = append(s.devices, dev)
	return nil
}

func (s *recordingStore) Recent(context.Context) ([]devicestore.Device, error) { return s.devices, nil }

func (s *recordingStore) Close() error { return nil }

// advanceEach releases n backoff sleeps of d on the fake clock.
func advanceEach(ctx context.Context, clock *clockwork.FakeClock, n int, d time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < n; i++ {
			if clock.BlockUntilContext(ctx, 1) != nil {
				return
			}
			clock.Advance(d)
		}
	}()
	return done
}

func TestExplicitDeviceRetriesWithoutRediscovery(t *testing.T) {
	clock := clockwork.NewFakeClock()
	opener := &fakeOpener{failUntil: 2}
	locator := &fakeLocator{opener: opener}
	m := NewManager(opener, locator, PolicyFor(true, 5, 5*time.Second), WithClock(clock))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := clock.Now()
	done := advanceEach(ctx, clock, 2, 5*time.Second)

	require.NoError(t, m.Connect(ctx, "COM7"))
	<-done

	assert.Equal(t, Connected, m.State())
	assert.Equal(t, 3, opener.calls)
	assert.Equal(t, []string{"COM7", "COM7", "COM7"}, opener.names)
	assert.Equal(t, 10*time.Second, clock.Since(start))
	assert.Empty(t, locator.openCalls, "explicit devices are never rediscovered")
}

func TestBoundedPolicyRediscoversAfterLimit(t *testing.T) {
	clock := clockwork.NewFakeClock()
	opener := &fakeOpener{failUntil: 6}
	locator := &fakeLocator{opener: opener, endpoint: device.Endpoint{Name: "/dev/ttyUSB1"}}
	m := NewManager(opener, locator, Policy{AttemptLimit: 3, Backoff: 5 * time.Second}, WithClock(clock))
	m.endpoint = device.Endpoint{Name: "/dev/ttyUSB0"}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Two backoffs before each rediscovery, none after
	done := advanceEach(ctx, clock, 4, 5*time.Second)

	require.NoError(t, m.AttemptReconnect(ctx))
	<-done

	assert.Equal(t, []int{3, 6}, locator.openCalls, "rediscovery runs exactly after every third failure")
	assert.Equal(t, 7, opener.calls)
	assert.Equal(t, "/dev/ttyUSB1", m.Device().Name)
	assert.Equal(t, "/dev/ttyUSB0", opener.names[0])
	assert.Equal(t, "/dev/ttyUSB1", opener.names[3])
}

func TestRediscoveryNotBeforeLimit(t *testing.T) {
	clock := clockwork.NewFakeClock()
	opener := &fakeOpener{failUntil: 2}
	locator := &fakeLocator{opener: opener}
	m := NewManager(opener, locator, Policy{AttemptLimit: 3, Backoff: 5 * time.Second}, WithClock(clock))
	m.endpoint = device.Endpoint{Name: "/dev/ttyACM0"}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := advanceEach(ctx, clock, 2, 5*time.Second)

	require.NoError(t, m.AttemptReconnect(ctx))
	<-done

	assert.Empty(t, locator.openCalls)
}

func TestSendWritesEncodedFrame(t *testing.T) {
	opener := &fakeOpener{}
	m := NewManager(opener, &fakeLocator{opener: opener}, Policy{})

	require.NoError(t, m.Open(context.Background(), device.Endpoint{Name: "/dev/ttyUSB0"}))
	require.NoError(t, m.Send(frame.Frame{Top: "CPU 12% 40^C", Bottom: "RAM 50% Swp 0%"}))

	assert.Equal(t, "CPU 12% 40^C;RAM 50% Swp 0%\n", opener.ports[0].buf.String())
}

func TestSendFailureDisconnects(t *testing.T) {
	opener := &fakeOpener{}
	m := NewManager(opener, &fakeLocator{opener: opener}, Policy{})

	require.NoError(t, m.Open(context.Background(), device.Endpoint{Name: "/dev/ttyUSB0"}))
	opener.ports[0].writeErr = stderrors.New("device unplugged")

	err := m.Send(frame.Frame{Top: "a", Bottom: "b"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrWrite))
	assert.Equal(t, Disconnected, m.State())
	assert.True(t, opener.ports[0].closed)

	err = m.Send(frame.Frame{Top: "a", Bottom: "b"})
	assert.True(t, errors.HasCode(err, errors.ErrNotConnected))
}

func TestOpenFailureIsOpenError(t *testing.T) {
	opener := &fakeOpener{failUntil: 1}
	m := NewManager(opener, &fakeLocator{opener: opener}, Policy{})

	err := m.Open(context.Background(), device.Endpoint{Name: "/dev/ttyUSB9"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrOpen))
	assert.Equal(t, Disconnected, m.State())
}

func TestConnectedDeviceIsRemembered(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := &recordingStore{}
	opener := &fakeOpener{}
	m := NewManager(opener, &fakeLocator{opener: opener}, Policy{}, WithStore(store), WithClock(clock))

	ep := device.Endpoint{Name: "/dev/ttyUSB0", IsUSB: true, VID: "1A86", PID: "7523", SerialNumber: "S1"}
	require.NoError(t, m.Open(context.Background(), ep))

	require.Len(t, store.devices, 1)
	assert.Equal(t, devicestore.Device{
		Port:         "/dev/ttyUSB0",
		SerialNumber: "S1",
		VID:          "1A86",
		PID:          "7523",
		ConnectedAt:  clock.Now(),
	}, store.devices[0])
}

func TestReconnectStopsOnCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	opener := &fakeOpener{failUntil: 100}
	m := NewManager(opener, &fakeLocator{opener: opener}, Policy{Backoff: time.Second}, WithClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = clock.BlockUntilContext(context.Background(), 1)
		cancel()
	}()

	err := m.AttemptReconnect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, opener.calls)
}

package device

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"codeberg.org/mutker/serialstat/internal/devicestore"
	"codeberg.org/mutker/serialstat/internal/errors"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnumerator struct {
	results []enumResult
	calls   int
}

type enumResult struct {
	endpoints []Endpoint
	err       error
}

func (f *fakeEnumerator) List() ([]Endpoint, error) {
	r := f.results[min(f.calls, len(f.results)-1)]
	f.calls++
	return r.endpoints, r.err
}

type fakePrompter struct {
	answers []promptAnswer
	calls   int
}

type promptAnswer struct {
	name string
	err  error
}

func (f *fakePrompter) Prompt(context.Context) (string, error) {
	a := f.answers[min(f.calls, len(f.answers)-1)]
	f.calls++
	return a.name, a.err
}

type fakeStore struct {
	devices []devicestore.Device
}

func (s *fakeStore) Remember(context.Context, devicestore.Device) error { return nil }

func (s *fakeStore) Recent(context.Context) ([]devicestore.Device, error) { return s.devices, nil }

func (s *fakeStore) Close() error { return nil }

func abort() promptAnswer {
	return promptAnswer{err: errors.New().New(errors.ErrOperatorAbort)}
}

func TestExplicitIdentifierReturnedUnchanged(t *testing.T) {
	enum := &fakeEnumerator{}
	prompt := &fakePrompter{}
	l := NewLocator(enum, prompt)

	ep, err := l.Locate(context.Background(), "COM7")
	require.NoError(t, err)
	assert.Equal(t, "COM7", ep.Name)
	assert.Zero(t, enum.calls)
	assert.Zero(t, prompt.calls)
}

func TestVendorMatchPreferredOverEnumerationOrder(t *testing.T) {
	enum := &fakeEnumerator{results: []enumResult{{endpoints: []Endpoint{
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "067B"},
		{Name: "/dev/ttyUSB1", IsUSB: true, VID: "1A86"},
		{Name: "/dev/ttyUSB2", IsUSB: true, VID: "05AC"},
	}}}}
	l := NewLocator(enum, &fakePrompter{}, WithVendors([]string{"2341", "0x1a86"}))

	ep, err := l.Locate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB1", ep.Name)
}

func TestFirstUSBPortWithoutVendorMatch(t *testing.T) {
	enum := &fakeEnumerator{results: []enumResult{{endpoints: []Endpoint{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "FFFF"},
		{Name: "/dev/ttyACM1", IsUSB: true, VID: "EEEE"},
	}}}}
	l := NewLocator(enum, &fakePrompter{}, WithVendors([]string{"2341"}))

	ep, err := l.Locate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", ep.Name)
}

func TestRememberedDevicePreferred(t *testing.T) {
	enum := &fakeEnumerator{results: []enumResult{{endpoints: []Endpoint{
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "2341"},
		{Name: "/dev/ttyUSB1", IsUSB: true, VID: "0403", SerialNumber: "FT123"},
	}}}}
	store := &fakeStore{devices: []devicestore.Device{{Port: "/dev/ttyUSB3", SerialNumber: "FT123"}}}
	l := NewLocator(enum, &fakePrompter{}, WithVendors([]string{"2341"}), WithStore(store))

	ep, err := l.Locate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB1", ep.Name)
}

func TestEmptyEnumerationPromptsOperator(t *testing.T) {
	enum := &fakeEnumerator{results: []enumResult{{}}}
	prompt := &fakePrompter{answers: []promptAnswer{{name: "/dev/rfcomm0"}}}
	l := NewLocator(enum, prompt)

	ep, err := l.Locate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "/dev/rfcomm0", ep.Name)
	assert.Equal(t, 1, prompt.calls)
}

func TestOperatorAbort(t *testing.T) {
	enum := &fakeEnumerator{results: []enumResult{{}}}
	l := NewLocator(enum, &fakePrompter{answers: []promptAnswer{abort()}})

	_, err := l.Locate(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrOperatorAbort))
}

func TestEnumerationErrorRetriedAfterDelay(t *testing.T) {
	clock := clockwork.NewFakeClock()
	denied := enumResult{err: errors.New().Wrap(errors.ErrDiscovery, stderrors.New("permission denied"))}
	enum := &fakeEnumerator{results: []enumResult{
		denied,
		denied,
		{endpoints: []Endpoint{{Name: "/dev/ttyACM0", IsUSB: true}}},
	}}
	prompt := &fakePrompter{}
	l := NewLocator(enum, prompt, WithClock(clock), WithRetry(5*time.Second, 3))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := clock.Now()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2; i++ {
			if clock.BlockUntilContext(ctx, 1) != nil {
				return
			}
			clock.Advance(5 * time.Second)
		}
	}()

	ep, err := l.Locate(ctx, "")
	<-done
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", ep.Name)
	assert.Equal(t, 3, enum.calls)
	assert.Zero(t, prompt.calls)
	assert.Equal(t, 10*time.Second, clock.Since(start))
}

func TestPersistentEnumerationErrorFallsBackToPrompt(t *testing.T) {
	clock := clockwork.NewFakeClock()
	enum := &fakeEnumerator{results: []enumResult{{err: stderrors.New("permission denied")}}}
	prompt := &fakePrompter{answers: []promptAnswer{{name: "COM3"}}}
	l := NewLocator(enum, prompt, WithClock(clock), WithRetry(time.Second, 1))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		if clock.BlockUntilContext(ctx, 1) == nil {
			clock.Advance(time.Second)
		}
	}()

	ep, err := l.Locate(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "COM3", ep.Name)
	assert.Equal(t, 2, enum.calls)
}

func TestCancelledWhileWaiting(t *testing.T) {
	clock := clockwork.NewFakeClock()
	enum := &fakeEnumerator{results: []enumResult{{err: stderrors.New("busy")}}}
	l := NewLocator(enum, &fakePrompter{}, WithClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = clock.BlockUntilContext(context.Background(), 1)
		cancel()
	}()

	_, err := l.Locate(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

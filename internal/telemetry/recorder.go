// Package telemetry exposes bridge health counters to Prometheus.
package telemetry

// Recorder receives link and frame events. Implementations must be safe
// to call from the tick loop without blocking.
type Recorder interface {
	FrameSent(screen string)
	FallbackShown(screen string)
	WriteFailed()
	OpenAttempt(success bool)
	Rediscovered()
	SetConnected(connected bool)
}

// NoopRecorder is used when no metrics listener is configured.
type NoopRecorder struct{}

func (NoopRecorder) FrameSent(string)     {}
func (NoopRecorder) FallbackShown(string) {}
func (NoopRecorder) WriteFailed()         {}
func (NoopRecorder) OpenAttempt(bool)     {}
func (NoopRecorder) Rediscovered()        {}
func (NoopRecorder) SetConnected(bool)    {}

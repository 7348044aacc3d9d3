package telemetry

import (
	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "serialstat"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	framesSent    *prom.CounterVec
	fallbacks     *prom.CounterVec
	writeFailures prom.Counter
	openAttempts  *prom.CounterVec
	rediscoveries prom.Counter
	connected     prom.Gauge
}

// NewPrometheusRecorder constructs the bridge metrics and registers them
// with reg, or with a fresh registry when reg is nil.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}

	pr := &PrometheusRecorder{
		framesSent: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "frames_sent_total",
			Help:      "Frames written to the display, by screen",
		}, []string{"screen"}),
		fallbacks: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_frames_total",
			Help:      "Ticks where a screen's data was unavailable and the default screen was shown, by screen",
		}, []string{"screen"}),
		writeFailures: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "write_failures_total",
			Help:      "Frame writes that failed and dropped the link",
		}),
		openAttempts: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "open_attempts_total",
			Help:      "Serial port open attempts by result",
		}, []string{"result"}),
		rediscoveries: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "rediscoveries_total",
			Help:      "Times the device was rediscovered after exhausting reconnect attempts",
		}),
		connected: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "link_connected",
			Help:      "1 while the serial link is connected",
		}),
	}

	reg.MustRegister(pr.framesSent, pr.fallbacks, pr.writeFailures, pr.openAttempts, pr.rediscoveries, pr.connected)

	return pr
}

func (p *PrometheusRecorder) FrameSent(screen string) {
	p.framesSent.WithLabelValues(screen).Inc()
}

func (p *PrometheusRecorder) FallbackShown(screen string) {
	p.fallbacks.WithLabelValues(screen).Inc()
}

func (p *PrometheusRecorder) WriteFailed() {
	p.writeFailures.Inc()
}

func (p *PrometheusRecorder) OpenAttempt(success bool) {
	res := "failed"
	if success {
		res = "success"
	}
	p.openAttempts.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) Rediscovered() {
	p.rediscoveries.Inc()
}

func (p *PrometheusRecorder) SetConnected(connected bool) {
	if connected {
		p.connected.Set(1)
		return
	}
	p.connected.Set(0)
}

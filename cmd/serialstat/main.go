package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"codeberg.org/mutker/serialstat/internal/bridge"
	"codeberg.org/mutker/serialstat/internal/config"
	"codeberg.org/mutker/serialstat/internal/device"
	"codeberg.org/mutker/serialstat/internal/devicestore"
	"codeberg.org/mutker/serialstat/internal/errors"
	"codeberg.org/mutker/serialstat/internal/frame"
	"codeberg.org/mutker/serialstat/internal/gpu"
	"codeberg.org/mutker/serialstat/internal/link"
	"codeberg.org/mutker/serialstat/internal/logger"
	"codeberg.org/mutker/serialstat/internal/pid"
	"codeberg.org/mutker/serialstat/internal/screen"
	"codeberg.org/mutker/serialstat/internal/sensors"
	"codeberg.org/mutker/serialstat/internal/telemetry"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/pflag"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	level, _ := logger.ParseLevel(cfg.LogLevel)
	logger.Init(level, logger.IsService())
	logger.Debug().Msg("Config loaded")

	pidPath := pid.DefaultPath()
	if err := pid.Write(pidPath); err != nil {
		logError(err, "Failed to write PID file")
		return 1
	}
	defer func() {
		if err := pid.Remove(pidPath); err != nil {
			logger.Debug().Err(err).Msg("Failed to remove PID file")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	recorder := startTelemetry(ctx, cfg)

	storeCfg := devicestore.DefaultConfig()
	storeCfg.DBPath = cfg.DeviceDB
	store, err := devicestore.New(storeCfg, logger.Global())
	if err != nil {
		logError(err, "Failed to open device store")
		return 1
	}
	defer store.Close()

	src, shutdown, err := openSources(cfg)
	if err != nil {
		logError(err, "Failed to initialize sensors")
		return 1
	}
	defer shutdown()

	encoder := frame.NewEncoder(frame.Glyphs(cfg.Glyphs))
	scheduler, err := screen.NewScheduler(encoder, screen.FromConfig(cfg, src), screen.WithLogger(logger.Global()))
	if err != nil {
		logError(err, "Failed to build screen rotation")
		return 1
	}

	locator := device.NewLocator(device.SerialEnumerator{}, device.NewHuhPrompter(),
		device.WithVendors(cfg.VendorIDs),
		device.WithStore(store),
		device.WithRetry(cfg.DiscoveryDelay, cfg.DiscoveryRetries),
	)

	policy := link.PolicyFor(cfg.Device != "", cfg.AttemptLimit, cfg.Backoff)
	manager := link.NewManager(link.SerialOpener{Baud: cfg.Baud}, locator, policy,
		link.WithRecorder(recorder),
		link.WithStore(store),
	)
	defer manager.Close()

	logger.Info().
		Str("device", cfg.Device).
		Int("baud", cfg.Baud).
		Dur("interval", cfg.Interval).
		Int("attempt_limit", policy.AttemptLimit).
		Msg("Starting serialstat")

	if err := manager.Connect(ctx, cfg.Device); err != nil {
		return exitCode(err)
	}

	loop := bridge.New(scheduler, manager, cfg.Interval, bridge.WithRecorder(recorder))

	return exitCode(loop.Run(ctx))
}

// openSources creates the metric readers. A missing GPU only disables
// the GPU screen.
func openSources(cfg *config.Config) (screen.Sources, func(), error) {
	cores, err := sensors.NewCoreClassifier(cfg.CoreSensors)
	if err != nil {
		return screen.Sources{}, nil, err
	}

	host := sensors.NewHost(cores)
	media := sensors.NewMPRIS()
	src := screen.Sources{
		Host:       host,
		Network:    host,
		Battery:    sensors.NewBatteries(),
		Media:      media,
		Throughput: sensors.NewThroughput(clockwork.NewRealClock()),
		Identity:   sensors.CurrentIdentity(),
	}

	var gpuDevice *gpu.GPU
	if slices.Contains(cfg.Screens, config.ScreenGPU) {
		gpuDevice, err = gpu.New()
		if err != nil {
			logger.Info().Err(err).Msg("No usable GPU, GPU screen disabled")
		} else {
			src.GPU = gpuDevice
		}
	}

	shutdown := func() {
		if err := media.Close(); err != nil {
			logger.Debug().Err(err).Msg("Failed to close session bus")
		}
		if gpuDevice != nil {
			if err := gpuDevice.Shutdown(); err != nil {
				logger.Debug().Err(err).Msg("Failed to shut down NVML")
			}
		}
	}

	return src, shutdown, nil
}

// startTelemetry serves Prometheus metrics when a listen address is set.
func startTelemetry(ctx context.Context, cfg *config.Config) telemetry.Recorder {
	if cfg.MetricsListen == "" {
		return telemetry.NoopRecorder{}
	}

	reg := telemetry.NewRegistry()
	recorder := telemetry.NewPrometheusRecorder(reg)

	srv, err := telemetry.Listen(cfg.MetricsListen, reg)
	if err != nil {
		logError(err, "Metrics endpoint disabled")
		return recorder
	}

	go func() {
		if err := srv.Serve(ctx); err != nil {
			logError(err, "Metrics endpoint stopped")
		}
	}()

	return recorder
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

// exitCode maps the loop result to a process exit status. Operator aborts
// and signals are clean exits.
func exitCode(err error) int {
	switch {
	case err == nil:
		logger.Info().Msg("Exiting...")
		return 0
	case errors.HasCode(err, errors.ErrOperatorAbort):
		logger.Info().Msg("No device selected, exiting")
		return 0
	case errors.Is(err, context.Canceled):
		logger.Info().Msg("Exiting...")
		return 0
	default:
		logError(err, "Bridge stopped")
		return 1
	}
}

func logError(err error, msg string) {
	var coded errors.Error
	if errors.As(err, &coded) {
		logger.ErrorWithCode(coded).Msg(msg)
		return
	}
	logger.Error().Err(err).Msg(msg)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/camcap/cmd"
	"github.com/smazurov/camcap/internal/capture"
	"github.com/smazurov/camcap/internal/config"
	"github.com/smazurov/camcap/internal/devices"
	"github.com/smazurov/camcap/internal/events"
	"github.com/smazurov/camcap/internal/logging"
	"github.com/smazurov/camcap/internal/metrics"
	"github.com/smazurov/camcap/internal/sink"
	"github.com/smazurov/camcap/internal/systemd"
	"github.com/smazurov/camcap/internal/version"
	"github.com/smazurov/camcap/pkg/linuxav/v4l2"
	"golang.org/x/sync/errgroup"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"camcap.toml"`

	// Capture settings
	Device  string `help:"Device path or stable ID" short:"d" default:"/dev/video0" toml:"capture.device" env:"CAPTURE_DEVICE"`
	Format  string `help:"Pixel format name or FourCC (see pixfmts)" short:"f" default:"YUYV" toml:"capture.format" env:"CAPTURE_FORMAT"`
	Width   int    `help:"Frame width" short:"W" default:"640" toml:"capture.width" env:"CAPTURE_WIDTH" validate:"positive"`
	Height  int    `help:"Frame height" short:"H" default:"480" toml:"capture.height" env:"CAPTURE_HEIGHT" validate:"positive"`
	Count   int    `help:"Number of frames to capture" short:"n" default:"1" toml:"capture.count" env:"CAPTURE_COUNT" validate:"positive"`
	Output  string `help:"Output file, - for standard output" short:"o" default:"-" toml:"capture.output" env:"CAPTURE_OUTPUT"`
	Buffers int    `help:"Number of driver buffers to map" default:"4" toml:"capture.buffers" env:"CAPTURE_BUFFERS" validate:"positive"`
	Timeout string `help:"Maximum wait for each frame" default:"2s" toml:"capture.timeout" env:"CAPTURE_TIMEOUT" validate:"duration,positive"`

	// Device settings
	WaitDevice string `help:"Wait this long for the device node to appear (0 disables)" default:"0s" toml:"devices.wait" env:"DEVICES_WAIT" validate:"duration"`

	// Metrics settings
	MetricsFile     string `help:"Write Prometheus metrics to this file" default:"" toml:"metrics.textfile" env:"METRICS_TEXTFILE"`
	MetricsInterval string `help:"Rewrite the metrics file this often during the run (0 writes once at the end)" default:"0s" toml:"metrics.interval" env:"METRICS_INTERVAL" validate:"duration"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingOutput  string `help:"Log destination (stdout, stderr)" default:"stdout" toml:"logging.output" env:"LOGGING_OUTPUT"`
	LoggingCapture string `help:"Capture logging level" default:"info" toml:"logging.capture" env:"LOGGING_CAPTURE"`
	LoggingDevices string `help:"Devices logging level" default:"info" toml:"logging.devices" env:"LOGGING_DEVICES"`
	LoggingMain    string `help:"Main logging level" default:"info" toml:"logging.main" env:"LOGGING_MAIN"`
}

func main() {
	var cli humacli.CLI
	var loaded *Options

	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			if errors.Is(loadErr, config.ErrInvalidConfig) {
				slog.Error("Invalid configuration", "error", loadErr)
				os.Exit(2)
			}
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// Frames on stdout leave stderr as the only place for logs
		logOutput := opts.LoggingOutput
		if sink.IsStdout(opts.Output) {
			logOutput = "stderr"
		}

		loggingConfig := logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Output: logOutput,
			Modules: map[string]string{
				"capture": opts.LoggingCapture,
				"devices": opts.LoggingDevices,
				"main":    opts.LoggingMain,
			},
		}
		logging.Initialize(loggingConfig)

		logger := logging.GetLogger("main")
		loaded = opts

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

		hooks.OnStart(func() {
			defer cancel()

			if _, statErr := os.Stat(opts.Config); statErr == nil {
				watchErr := config.WatchLogging(ctx, opts.Config, config.DefaultReloadDebounce, loggingConfig, logger, func(cfg logging.Config) {
					if sink.IsStdout(opts.Output) {
						cfg.Output = "stderr"
					}
					logging.Initialize(cfg)
				})
				if watchErr != nil {
					logger.Warn("Logging config reload disabled", "error", watchErr)
				}
			}

			err := runWithMetrics(ctx, opts, logger)
			if err == nil {
				return
			}

			if cmd.PrintCandidates(os.Stderr, err) {
				os.Exit(2)
			}
			if errors.Is(err, context.Canceled) {
				logger.Info("Capture interrupted")
				os.Exit(130)
			}
			logger.Error("Capture failed", "error", err, "kind", capture.KindOf(err))
			os.Exit(1)
		})

		hooks.OnStop(func() {
			cancel()
		})
	})

	cli.Root().Use = "camcap"
	cli.Root().Short = "Capture raw frames from a V4L2 device"
	cli.Root().Version = version.Get().String()

	// Subcommands share the root --device flag and its config/env sources
	device := func() string {
		if loaded != nil {
			return loaded.Device
		}
		value, _ := cli.Root().PersistentFlags().GetString("device")
		return value
	}

	cli.Root().AddCommand(cmd.CreateFormatsCmd(device))
	cli.Root().AddCommand(cmd.CreateCapsCmd(device))
	cli.Root().AddCommand(cmd.CreatePixfmtsCmd())
	cli.Root().AddCommand(cmd.CreateDevicesCmd())
	cli.Root().AddCommand(cmd.CreateVersionCmd())

	// Run the CLI
	cli.Run()
}

// runWithMetrics runs the capture alongside the metrics textfile writer.
func runWithMetrics(ctx context.Context, opts *Options, logger *slog.Logger) error {
	if opts.MetricsFile == "" {
		return run(ctx, opts, logger)
	}

	interval, err := time.ParseDuration(opts.MetricsInterval)
	if err != nil {
		return fmt.Errorf("invalid metrics interval %q: %w", opts.MetricsInterval, err)
	}
	if interval <= 0 {
		err := run(ctx, opts, logger)
		if writeErr := metrics.WriteTextfile(opts.MetricsFile); writeErr != nil {
			logger.Warn("Failed to write metrics", "path", opts.MetricsFile, "error", writeErr)
		}
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	writerCtx, stopWriter := context.WithCancel(gctx)

	g.Go(func() error {
		defer stopWriter()
		return run(gctx, opts, logger)
	})
	g.Go(func() error {
		return metrics.RunTextfileWriter(writerCtx, opts.MetricsFile, interval, logger)
	})

	return g.Wait()
}

// run opens the device and sink named by opts and captures opts.Count frames.
func run(ctx context.Context, opts *Options, logger *slog.Logger) error {
	req, timeout, err := parseRequest(opts)
	if err != nil {
		return err
	}

	eventBus := events.New()
	unsubscribe := eventBus.Subscribe(func(e events.FrameCapturedEvent) {
		logger.Info("Written frame", "frame", e.Sequence, "bytes", e.BytesUsed)
	})
	defer unsubscribe()

	notifier := systemd.NewNotifier(eventBus, logger)
	notifier.Start()
	defer notifier.Stop()

	path, err := resolveDevice(ctx, opts, eventBus)
	if err != nil {
		return err
	}

	dev, err := devices.OpenV4L2(path)
	if err != nil {
		return fmt.Errorf("unable to open %s: %w", path, err)
	}
	defer func() {
		if closeErr := dev.Close(); closeErr != nil {
			logger.Warn("Failed to close device", "path", path, "error", closeErr)
		}
	}()

	out, err := sink.Open(opts.Output)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil {
			logger.Warn("Failed to close output", "output", out.Name(), "error", closeErr)
		}
	}()

	logger.Info("Capturing",
		"device", path,
		"format", req.PixelFormat.Name(),
		"width", req.Width,
		"height", req.Height,
		"frames", opts.Count,
		"output", out.Name())

	cfg := capture.Config{
		Buffers: opts.Buffers,
		Timeout: timeout,
		Bus:     eventBus,
		Logger:  logging.GetLogger("capture"),
	}
	return capture.Capture(ctx, dev, out, req, opts.Count, cfg)
}

// parseRequest validates the flag values that do not need a device.
func parseRequest(opts *Options) (capture.Request, time.Duration, error) {
	pf, ok := v4l2.ParsePixelFormat(opts.Format)
	if !ok {
		return capture.Request{}, 0, fmt.Errorf("unable to parse pixel format %q", opts.Format)
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return capture.Request{}, 0, fmt.Errorf("frame size must be positive, got %dx%d", opts.Width, opts.Height)
	}
	if opts.Count <= 0 {
		return capture.Request{}, 0, fmt.Errorf("frame count must be positive, got %d", opts.Count)
	}
	if opts.Buffers < capture.MinBuffers {
		return capture.Request{}, 0, fmt.Errorf("at least %d buffers are needed, got %d", capture.MinBuffers, opts.Buffers)
	}

	timeout, err := time.ParseDuration(opts.Timeout)
	if err != nil || timeout <= 0 {
		return capture.Request{}, 0, fmt.Errorf("invalid frame timeout %q", opts.Timeout)
	}

	return capture.Request{
		PixelFormat: capture.PixelFormat(pf),
		Width:       uint32(opts.Width),
		Height:      uint32(opts.Height),
	}, timeout, nil
}

// resolveDevice turns --device into a node path, waiting for it when
// --wait-device is set.
func resolveDevice(ctx context.Context, opts *Options, bus *events.Bus) (string, error) {
	wait, err := time.ParseDuration(opts.WaitDevice)
	if err != nil {
		return "", fmt.Errorf("invalid device wait %q: %w", opts.WaitDevice, err)
	}

	if wait > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()
		if err := devices.WaitForDevice(waitCtx, devices.ExpectedDevicePath(opts.Device), bus); err != nil {
			return "", err
		}
	}

	return devices.ResolveDevicePath(opts.Device)
}

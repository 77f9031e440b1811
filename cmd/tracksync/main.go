package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/OCAP2/tracksync/internal/colormap"
	"github.com/OCAP2/tracksync/internal/config"
	"github.com/OCAP2/tracksync/internal/control"
	"github.com/OCAP2/tracksync/internal/dispatcher"
	"github.com/OCAP2/tracksync/internal/engine"
	"github.com/OCAP2/tracksync/internal/export"
	"github.com/OCAP2/tracksync/internal/ingest"
	"github.com/OCAP2/tracksync/internal/logging"
	intOtel "github.com/OCAP2/tracksync/internal/otel"
	"github.com/OCAP2/tracksync/internal/queue"

	"github.com/peterbourgon/ff"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// BuildVersion can be set at build time via ldflags
var BuildVersion = "0.0.1"

var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	SessionStartTime = time.Now()

	session         *engine.Session
	eventDispatcher *dispatcher.Dispatcher
	events          = queue.New[dispatcher.Event]()
)

func main() {
	fs := flag.NewFlagSet("tracksync", flag.ExitOnError)
	var (
		configDir  = fs.String("config", ".", "directory holding "+config.FileName)
		tracksPath = fs.String("tracks", "", "GeoJSON file with the tracks to synchronize")
		scriptPath = fs.String("script", "", "command script to run, - for stdin")
		exportName = fs.String("export", "", "write a playback export with this name")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("TRACKSYNC")); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(*configDir, *tracksPath, *scriptPath, *exportName); err != nil {
		if Logger != nil {
			Logger.Error("tracksync failed", "error", err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		shutdown()
		os.Exit(1)
	}
	shutdown()
}

func run(configDir, tracksPath, scriptPath, exportName string) error {
	if tracksPath == "" {
		return fmt.Errorf("no tracks file given, use -tracks")
	}

	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, viper.GetString("logLevel"), nil, nil)
	Logger = SlogManager.Logger()

	if err := config.Load(configDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		Logger.Error("Failed to create logs directory", "error", err, "path", logsDir)
	}
	logFilePath := logging.LogFilePath(logsDir, logging.ServiceName, SessionStartTime)
	logFile, err := os.OpenFile(logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", logFilePath)
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		cfg := intOtel.Config{
			Enabled:      true,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		}
		if logFile != nil {
			cfg.LogWriter = logFile
		}
		OTelProvider, err = intOtel.New(cfg)
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		} else {
			Logger.Info("OTel provider initialized", "file", logFilePath, "endpoint", otelCfg.Endpoint)
		}
	}

	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	level := config.GetString("logLevel")
	if logFile != nil {
		SlogManager.Setup(logFile, level, otelLogProvider, sessionAttrs)
	} else {
		SlogManager.Setup(nil, level, otelLogProvider, sessionAttrs)
	}
	Logger = SlogManager.Logger()
	Logger.Info("Starting tracksync", "version", BuildVersion, "log", logFilePath)

	journalPath := filepath.Join(logsDir, logging.JournalFileName)
	journalFile, err := os.OpenFile(journalPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open command journal: %w", err)
	}
	defer journalFile.Close()

	eventDispatcher, err = dispatcher.New(logging.NewDispatcherLogger(logging.NewJournal(journalFile, level)))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}

	session, err = newSession()
	if err != nil {
		return err
	}
	control.NewService(session).Register(eventDispatcher)
	Logger.Debug("Registered commands", "commands", eventDispatcher.Commands())

	tracks, err := ingest.ReadFile(tracksPath)
	if err != nil {
		return err
	}
	for _, t := range tracks {
		if _, err := session.AddTrack(t); err != nil {
			Logger.Warn("Skipping track", "name", t.Name, "error", err)
		}
	}
	Logger.Info("Loaded tracks", "path", tracksPath, "count", session.TrackCount())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch scriptPath {
	case "":
		err = runDefault(ctx)
	case "-":
		err = runInteractive(ctx, os.Stdin)
	default:
		err = runScript(scriptPath)
	}
	if err != nil {
		return err
	}

	if exportName != "" {
		path, err := export.New(config.GetExportConfig()).Export(session, exportName, time.Now())
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		Logger.Info("Exported playback", "path", path)
	}
	return nil
}

func newSession() (*engine.Session, error) {
	colorCfg := config.GetColorConfig()
	mode, err := colormap.ParseMode(colorCfg.Mode)
	if err != nil {
		Logger.Warn("Unknown color mode, using speed", "mode", colorCfg.Mode)
		mode = colormap.ModeSpeed
	}
	units, err := colormap.ParseSpeedUnits(colorCfg.SpeedUnits)
	if err != nil {
		Logger.Warn("Unknown speed units, using mph", "units", colorCfg.SpeedUnits)
		units = colormap.Mph
	}

	opts := []engine.Option{
		engine.WithColors(colormap.Mapper{
			Mode:       mode,
			Units:      units,
			Min:        colorCfg.LegendMin,
			Max:        colorCfg.LegendMax,
			Continuous: colorCfg.Continuous,
		}),
		engine.WithLegendSteps(colorCfg.LegendSteps),
	}
	if OTelProvider != nil {
		opts = append(opts, engine.WithMeter(OTelProvider.Meter("github.com/OCAP2/tracksync/internal/engine")))
	}

	s, err := engine.New(Logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if err := s.SetSpeed(config.GetPlaybackConfig().Speed); err != nil {
		Logger.Warn("Ignoring playback speed", "error", err)
	}
	return s, nil
}

// sessionAttrs feeds live session state into every log record.
func sessionAttrs() []slog.Attr {
	if session == nil {
		return nil
	}
	return session.LogAttrs()
}

func shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if SlogManager != nil {
		if err := SlogManager.Flush(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "flush logs:", err)
		}
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "shutdown otel:", err)
		}
	}
}

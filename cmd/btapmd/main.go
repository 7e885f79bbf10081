package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"codeberg.org/mutker/btapmd/internal/airplane"
	"codeberg.org/mutker/btapmd/internal/api"
	"codeberg.org/mutker/btapmd/internal/bluetooth"
	"codeberg.org/mutker/btapmd/internal/config"
	"codeberg.org/mutker/btapmd/internal/errors"
	"codeberg.org/mutker/btapmd/internal/logger"
	"codeberg.org/mutker/btapmd/internal/notify"
	"codeberg.org/mutker/btapmd/internal/pid"
	"codeberg.org/mutker/btapmd/internal/radio"
	"codeberg.org/mutker/btapmd/internal/settings"
	"codeberg.org/mutker/btapmd/internal/telemetry"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

type app struct {
	cfg        *config.Config
	pidFile    *pid.File
	store      settings.Store
	telemetry  telemetry.Service
	dispatcher *notify.Dispatcher
	adapter    *bluetooth.Adapter
	controller *airplane.Controller
	listener   *radio.ModeListener
	server     *api.Server
}

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	logger.Debug().Str("file", cfg.ConfigFile).Msg("Config loaded")
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	a, err := newApp(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize")
	}

	if err := a.run(ctx); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
	}
	a.cleanup()
}

func newApp(cfg *config.Config) (*app, error) {
	errFactory := errors.New()
	a := &app{cfg: cfg}

	a.pidFile = pid.New(cfg.PIDDir)
	if err := a.pidFile.Write(); err != nil {
		return nil, err
	}

	if cfg.Ephemeral {
		logger.Warn().Msg("Ephemeral mode, settings are not persisted")
		a.store = settings.NewMemoryStore()
	} else {
		store, err := settings.NewSQLiteStore(cfg.SettingsDB, logger.New("settings"))
		if err != nil {
			a.cleanup()
			return nil, errFactory.Wrap(errors.ErrOpenSettings, err)
		}
		a.store = store
	}

	svc, err := telemetry.NewService(telemetry.Config{
		DBPath:       cfg.TelemetryDB,
		BackupDir:    cfg.TelemetryBackupDir,
		Enabled:      cfg.Telemetry,
		BatchSize:    cfg.TelemetryBatchSize,
		BatchTimeout: cfg.TelemetryBatchTimeout,
	}, logger.New("telemetry"))
	if err != nil {
		a.cleanup()
		return nil, errFactory.Wrap(errors.ErrInitTelemetry, err)
	}
	a.telemetry = svc

	a.dispatcher = notify.NewDispatcher(newSink(cfg.NotifyCommand), cfg.NotifyQueue, logger.New("notify"))
	a.adapter = bluetooth.NewAdapter(bluetooth.StateOn, logger.New("bluetooth"))

	reader := settings.NewReader(a.store, logger.New("settings"))
	engine := airplane.NewEngine(reader, airplane.NewToastThrottle(a.store, logger.New("toast")), a.dispatcher, logger.New("engine"))
	tracker := airplane.NewSessionTracker(cfg.User, reader, a.dispatcher, a.telemetry, logger.New("session"))

	a.controller, err = airplane.NewController(airplane.Options{
		User:      cfg.User,
		QueueSize: cfg.EventQueue,
	}, engine, tracker, a.adapter, reader, logger.New("controller"), a.adapter)
	if err != nil {
		a.cleanup()
		return nil, errFactory.Wrap(errors.ErrInitApp, err)
	}

	a.listener, err = radio.NewModeListener(cfg.RadioState, radio.DefaultDebounce, logger.New("radio"))
	if err != nil {
		a.cleanup()
		return nil, errFactory.Wrap(errors.ErrInitApp, err)
	}

	if cfg.Listen != "" {
		a.server = api.NewServer(api.Deps{
			Controller: a.controller,
			Adapter:    a.adapter,
			Settings:   a.store,
			Sessions:   a.telemetry,
			RadioState: cfg.RadioState,
		}, api.ServerOptions{Addr: cfg.Listen}, logger.New("api"))
	}

	return a, nil
}

func newSink(command string) notify.Sink {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notify.LogSink{Logger: logger.New("notify")}
	}

	return notify.CommandSink{Command: fields[0], Args: fields[1:]}
}

func (a *app) run(ctx context.Context) error {
	airplaneOn, err := a.listener.Initial()
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read radio state, assuming airplane mode off")
	}

	a.controller.Init(ctx, airplaneOn)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.controller.Run(gctx)
	})

	g.Go(func() error {
		return a.listener.Run(gctx, func(on bool) {
			if err := a.controller.ModeChanged(on); err != nil {
				logger.Warn().Err(err).Bool("airplane", on).Msg("Airplane event rejected")
			}
		})
	})

	if a.server != nil {
		g.Go(func() error {
			return a.server.Run(gctx)
		})
	}

	logger.Info().
		Int("user", a.cfg.User).
		Bool("airplane", airplaneOn).
		Str("radio_state", a.cfg.RadioState).
		Str("listen", a.cfg.Listen).
		Msg("btapmd started")

	if err := g.Wait(); err != nil {
		return errors.New().Wrap(errors.ErrMainLoop, err)
	}

	return nil
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

// cleanup releases whatever newApp managed to open.
func (a *app) cleanup() {
	if a.dispatcher != nil {
		a.dispatcher.Close()
	}
	if a.telemetry != nil {
		if err := a.telemetry.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close telemetry")
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close settings store")
		}
	}
	if err := a.pidFile.Remove(); err != nil {
		logger.Error().Err(err).Msg("failed to remove PID file")
	}
	logger.Info().Msg("Exiting...")
}

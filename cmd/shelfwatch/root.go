package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/shelfwatch/shelfwatch/internal/alerting"
	"github.com/shelfwatch/shelfwatch/internal/api"
	"github.com/shelfwatch/shelfwatch/internal/conf"
	"github.com/shelfwatch/shelfwatch/internal/datastore"
	"github.com/shelfwatch/shelfwatch/internal/logger"
	"github.com/shelfwatch/shelfwatch/internal/notification"
	"github.com/shelfwatch/shelfwatch/internal/observability/metrics"
	"github.com/shelfwatch/shelfwatch/internal/sensor"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:     "shelfwatch",
		Short:   "Store-monitoring alert pipeline",
		Version: version,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")

	var simulate bool
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the alert pipeline and HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := conf.Load(configPath)
			if err != nil {
				return err
			}
			if simulate {
				settings.Sensor.Simulate = true
			}
			return runServe(settings)
		},
	}
	serve.Flags().BoolVar(&simulate, "simulate", false, "use the built-in simulated sensor source")
	root.AddCommand(serve)
	return root
}

func runServe(settings *conf.Settings) error {
	log := logger.NewSlogLogger(os.Stdout, parseLogLevel(settings.LogLevel), nil)
	m := metrics.New()

	kv, err := openKV(settings, log)
	if err != nil {
		return err
	}

	store := alerting.NewStore(kv, settings.Store.MaxAlerts, log, m)

	suppressor := alerting.NewSuppressor(log, m)
	for name, window := range settings.Suppression.Windows {
		suppressor.SetRule(alerting.AlertType(name), window.Std())
	}

	provider, err := buildProvider(settings, log)
	if err != nil {
		return err
	}
	dispatcher := notification.NewDispatcher(provider, &notification.TerminalChimer{W: os.Stdout},
		settings.Dispatch.Interval.Std(), log, m)
	dispatcher.Start()
	defer dispatcher.Stop()

	var source sensor.Source
	if settings.Sensor.Simulate {
		source = sensor.NewSimulatedSource(1)
	}
	manager := alerting.NewManager(store, suppressor, dispatcher, source,
		settings.BusinessHours, settings.Sensor.PollInterval.Std(), log)
	manager.Start()
	defer manager.Stop()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	api.NewController(e, store, manager, m, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(settings.Listen)
	}()

	log.Info("shelfwatch started",
		logger.String("listen", settings.Listen),
		logger.String("version", version))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info("shutting down", logger.String("signal", sig.String()))
		return e.Close()
	case err := <-errCh:
		return err
	}
}

// openKV selects durable SQLite storage when a path is configured,
// in-memory otherwise. A storage open failure degrades to memory so a
// failure to persist never stops monitoring.
func openKV(settings *conf.Settings, log logger.Logger) (datastore.KV, error) {
	if settings.Store.DBPath == "" {
		return datastore.NewMemoryKV(), nil
	}
	kv, err := datastore.OpenSQLite(settings.Store.DBPath)
	if err != nil {
		log.Error("falling back to in-memory alert storage", logger.Error(err))
		return datastore.NewMemoryKV(), nil
	}
	return kv, nil
}

func buildProvider(settings *conf.Settings, log logger.Logger) (notification.Provider, error) {
	if len(settings.Dispatch.URLs) > 0 {
		return notification.NewShoutrrrProvider("push", true, settings.Dispatch.URLs, log)
	}
	if settings.Dispatch.WebhookURL != "" {
		return notification.NewWebhookProvider(settings.Dispatch.WebhookURL, 0), nil
	}
	return nil, nil
}

func parseLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		return logger.LogLevelDebug
	case "warn":
		return logger.LogLevelWarn
	case "error":
		return logger.LogLevelError
	case "info", "":
		return logger.LogLevelInfo
	default:
		fmt.Fprintf(os.Stderr, "unknown log level %q, using info\n", level)
		return logger.LogLevelInfo
	}
}

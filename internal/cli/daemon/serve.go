package daemon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/tastyfind/internal/api/handlers"
	"github.com/cloo-solutions/tastyfind/internal/api/middleware"
	"github.com/cloo-solutions/tastyfind/internal/config"
	"github.com/cloo-solutions/tastyfind/internal/jobs"
	"github.com/cloo-solutions/tastyfind/internal/logger"
	"github.com/cloo-solutions/tastyfind/internal/server"
	"github.com/cloo-solutions/tastyfind/internal/service"
	"github.com/cloo-solutions/tastyfind/internal/session"
	"github.com/cloo-solutions/tastyfind/internal/telemetry"
	"github.com/cloo-solutions/tastyfind/internal/transport"
	"github.com/cloo-solutions/tastyfind/internal/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long:  "Start the tastyfind web frontend, proxying searches to the restaurant backend",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "", "Port to listen on (overrides TASTYFIND_PORT)")

	return cmd
}

// App is a fully wired server with its background workers.
type App struct {
	Server   *http.Server
	Sessions *session.Registry
	Sweeper  *jobs.Worker
}

// NewApp wires the transport, session registry and HTTP router from cfg.
func NewApp(cfg *config.Config, log *zap.Logger, reg *prometheus.Registry) (*App, error) {
	policy, err := service.ParseStalePolicy(cfg.StaleResponses)
	if err != nil {
		return nil, err
	}

	opts := []transport.Option{
		transport.WithLogger(log.Named("transport")),
		transport.WithMetrics(reg),
	}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, transport.WithTimeout(cfg.RequestTimeout))
	}
	client, err := transport.New(cfg.APIURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	coordLog := log.Named("coordinator")
	sessions := session.NewRegistry(func() *service.Coordinator {
		return service.NewCoordinator(client,
			service.WithStalePolicy(policy),
			service.WithDefaultPageSize(cfg.DefaultPageSize),
			service.WithLogger(coordLog),
		)
	}, cfg.SessionIdleTimeout, log.Named("sessions"), reg)

	sweeper := jobs.NewWorker("session-sweeper", jobs.TaskFunc(sessions.Sweep), cfg.SessionSweepInterval, log)

	metrics, err := middleware.NewMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to register http metrics: %w", err)
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	searchHandler := handlers.NewSearchHandler(sessions, renderer,
		handlers.WithMaxUploadBytes(cfg.MaxUploadBytes),
		handlers.WithSecureCookie(cfg.Env == "prod" || cfg.Env == "production"),
	)

	router := server.NewRouter(server.RouterConfig{
		SearchHandler:  searchHandler,
		Logger:         log,
		Metrics:        metrics,
		Gatherer:       reg,
		CORSOrigins:    cfg.CORSOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	return &App{
		Server: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		Sessions: sessions,
		Sweeper:  sweeper,
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	environment := cfg.SentryEnvironment
	if environment == "" {
		environment = cfg.Env
	}
	shutdownTelemetry, err := telemetry.Init(telemetry.Config{
		DSN:         cfg.SentryDSN,
		Environment: environment,
	}, log)
	if err != nil {
		log.Warn("telemetry init failed, continuing without tracing", zap.Error(err))
	} else {
		defer shutdownTelemetry()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app, err := NewApp(cfg, log, reg)
	if err != nil {
		return err
	}

	go app.Sweeper.Start(ctx)

	go func() {
		log.Info("starting server",
			zap.String("port", cfg.Port),
			zap.String("backend", cfg.APIURL),
			zap.String("stale_responses", cfg.StaleResponses),
		)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	app.Sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server exited")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	// TLS roots for scratch containers.
	_ "golang.org/x/crypto/x509roots/fallback"

	"github.com/lantern-dev/lantern/internal/adapters/buildmodel"
	"github.com/lantern-dev/lantern/internal/adapters/notifier"
	"github.com/lantern-dev/lantern/internal/adapters/statestore"
	"github.com/lantern-dev/lantern/internal/app"
	"github.com/lantern-dev/lantern/internal/classpath"
	"github.com/lantern-dev/lantern/internal/config"
	"github.com/lantern-dev/lantern/internal/jobs"
	"github.com/lantern-dev/lantern/internal/ports"
	"github.com/lantern-dev/lantern/internal/reporting"
	"github.com/lantern-dev/lantern/internal/telemetry"
)

const SCHEDULER_WORKERS = 4

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	instanceID := uuid.New().String()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("instanceID", instanceID)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	config, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}

	logLevel := slog.LevelDebug
	if config.IsProduction() {
		logLevel = slog.LevelInfo
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})).With("instanceID", instanceID)
	logger.Info("Loaded config", "config", config.NonSensitiveString())

	otelShutdown, err := telemetry.SetupOTelSDK(ctx, "lantern")
	if err != nil {
		fail("Failed to initialize OpenTelemetry", "error", err.Error())
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			logger.Error("Failed to shut down OpenTelemetry", "error", err.Error())
		}
	}()

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(config)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	store, err := statestore.NewPostgresStoreOrMemory(ctx, config, logger)
	if err != nil {
		fail("Failed to initialize state store", "error", err.Error())
	}
	logger.Info("Initialized state store")

	toolingAPI, err := buildmodel.NewToolingAPIOrMock(config, buildmodel.NewRetryingHTTPClient())
	if err != nil {
		fail("Failed to initialize tooling API", "error", err.Error())
	}
	logger.Info("Initialized tooling API")

	modelProvider, stopProvider, err := buildmodel.NewProvider(toolingAPI, config.ModelCacheTTL())
	if err != nil {
		fail("Failed to initialize build model provider", "error", err.Error())
	}
	defer stopProvider()

	staleNotifier := notifier.NewWebhookNotifierOrLog(config, notifier.NewRetryingHTTPClient(), logger)

	scheduler := jobs.NewScheduler(SCHEDULER_WORKERS, logger)

	registry := classpath.NewRegistry(modelProvider, store, staleNotifier, scheduler)

	getClasspath := app.BuildGetClasspath(registry)
	refreshClasspath := app.BuildRefreshClasspath(registry)
	requestClasspathUpdate := app.BuildRequestClasspathUpdate(registry)
	openProject := app.BuildOpenProject(registry)
	closeProject := app.BuildCloseProject(registry)

	http.HandleFunc(
		"GET /v1/classpath/{project}",
		ports.MakeGetClasspathHandler(
			getClasspath,
			logger.With("port", "get_classpath"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"POST /v1/classpath/{project}/refresh",
		ports.MakeRefreshClasspathHandler(
			refreshClasspath,
			logger.With("port", "refresh_classpath"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"POST /v1/classpath/{project}/update",
		ports.MakeRequestClasspathUpdateHandler(
			requestClasspathUpdate,
			logger.With("port", "request_classpath_update"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"PUT /v1/projects/{project}",
		ports.MakeOpenProjectHandler(
			openProject,
			logger.With("port", "open_project"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"DELETE /v1/projects/{project}",
		ports.MakeCloseProjectHandler(
			closeProject,
			logger.With("port", "close_project"),
			sentryMiddleware,
		),
	)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.Port()),
		Handler: otelhttp.NewHandler(http.DefaultServeMux, "lantern"),
	}

	logger.Info("Init complete")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			fail("Server error", "error", err.Error())
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shut down server cleanly", "error", err.Error())
		}
	}

	// Drain in-flight refresh jobs before the provider and exporters go away.
	scheduler.Close()

	logger.Info("Server shutdown")
}

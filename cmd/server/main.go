package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/weekwise/weekwise/internal/analytics"
	"github.com/weekwise/weekwise/internal/auth"
	"github.com/weekwise/weekwise/internal/cache"
	"github.com/weekwise/weekwise/internal/calendar"
	"github.com/weekwise/weekwise/internal/config"
	"github.com/weekwise/weekwise/internal/database"
	"github.com/weekwise/weekwise/internal/handlers"
	"github.com/weekwise/weekwise/internal/logger"
	"github.com/weekwise/weekwise/internal/middleware"
	"github.com/weekwise/weekwise/internal/queue"
	"github.com/weekwise/weekwise/internal/scheduling"
	"github.com/weekwise/weekwise/internal/telemetry"
	"github.com/weekwise/weekwise/internal/templates"
	"github.com/weekwise/weekwise/internal/timeutil"
	"github.com/weekwise/weekwise/internal/tracker"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/gorilla/mux"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync(zapLogger)

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("default_timezone", cfg.DefaultTimezone),
		zap.Bool("calendar_configured", cfg.CalendarConfigured()),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// OpenTelemetry tracing, optional
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					if err := telemetry.Shutdown(context.Background(), tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	// Redis backs both the read cache and the shared rate limit store. A
	// failed connection downgrades to an in-process fallback.
	store, err := cache.New(cfg.RedisURL, zapLogger)
	if err != nil {
		zapLogger.Warn("failed_to_connect_to_redis_cache_disabled", zap.Error(err))
		store = cache.Disabled(zapLogger)
	} else if store.Enabled() {
		zapLogger.Info("connected_to_redis")
		defer func() {
			if err := store.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
	}

	// RabbitMQ is optional; without it reminder jobs are simply not enqueued.
	var reminders queue.JobQueue
	if cfg.RabbitMQURL != "" {
		rq, err := connectQueue(cfg.RabbitMQURL, zapLogger)
		if err != nil {
			zapLogger.Warn("failed_to_connect_to_rabbitmq_reminders_disabled", zap.Error(err))
		} else {
			reminders = rq
			zapLogger.Info("connected_to_rabbitmq")
			defer func() {
				if err := reminders.Close(); err != nil {
					zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
				}
			}()
		}
	}

	// Repositories
	taskRepo := database.NewTaskRepository(db)
	templateRepo := database.NewTemplateRepository(db)
	todoRepo := database.NewTodoRepository(db)
	sleepRepo := database.NewSleepRepository(db)
	categoryRepo := database.NewCategoryRepository(db)
	userRepo := database.NewUserRepository(db)

	// Domain services
	clock := timeutil.SystemClock{}
	autoCompleter := scheduling.NewService(taskRepo, clock, zapLogger)
	trackerSvc := tracker.NewService(taskRepo, clock, zapLogger)
	analyticsSvc := analytics.NewService(taskRepo, sleepRepo, store, clock, zapLogger)

	var calendarSvc calendar.Service = calendar.Disabled{}
	var connector handlers.CalendarConnector
	if cfg.CalendarConfigured() {
		google := calendar.NewGoogleService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI, userRepo, zapLogger)
		calendarSvc = google
		connector = google
		zapLogger.Info("calendar_integration_enabled")
	}
	applier := templates.NewService(templateRepo, taskRepo, autoCompleter, calendarSvc, clock, zapLogger)

	// Auth
	jwksManager := auth.NewJWKSManager()
	verifier := auth.NewVerifier(jwksManager, cfg.JWTIssuer, cfg.JWKSURL)

	// Handlers
	authHandler := handlers.NewAuthHandler(zapLogger)
	taskHandler := handlers.NewTaskHandler(taskRepo, categoryRepo, autoCompleter, trackerSvc, store, reminders, clock, zapLogger)
	templateHandler := handlers.NewTemplateHandler(templateRepo, applier, store, zapLogger)
	todoHandler := handlers.NewTodoHandler(todoRepo, store, clock, zapLogger)
	sleepHandler := handlers.NewSleepHandler(sleepRepo, clock, zapLogger)
	categoryHandler := handlers.NewCategoryHandler(categoryRepo, store, zapLogger)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsSvc, clock, zapLogger)
	calendarHandler := handlers.NewCalendarHandler(connector, calendarSvc, taskRepo, store, zapLogger)
	healthChecker := handlers.NewHealthChecker(db, store, reminders)

	r := mux.NewRouter()

	if cfg.OTELEnabled {
		r.Use(otelmux.Middleware(telemetry.ServiceName))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.FrontendURL))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	rateLimitMW, err := middleware.RateLimit(store.Client(), cfg.RateLimit)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	// Public routes
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")

	openAPIHandler := handlers.NewOpenAPIHandler(filepath.Join("api", "openapi", "openapi.yaml"))
	openAPIHandler.RegisterRoutes(r)

	// API v1 routes, all authenticated and rate limited
	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(rateLimitMW)
	apiRouter.Use(middleware.Auth(verifier, userRepo, zapLogger))
	apiRouter.Use(middleware.Timezone(cfg.DefaultTimezone))

	authHandler.RegisterRoutes(apiRouter.PathPrefix("/auth").Subrouter())
	taskHandler.RegisterRoutes(apiRouter.PathPrefix("/tasks").Subrouter())
	templateHandler.RegisterRoutes(apiRouter.PathPrefix("/templates").Subrouter())
	todoHandler.RegisterRoutes(apiRouter.PathPrefix("/todos").Subrouter())
	sleepHandler.RegisterRoutes(apiRouter.PathPrefix("/sleep").Subrouter())
	categoryHandler.RegisterRoutes(apiRouter.PathPrefix("/categories").Subrouter())
	analyticsHandler.RegisterRoutes(apiRouter.PathPrefix("/analytics").Subrouter())
	calendarHandler.RegisterRoutes(apiRouter.PathPrefix("/calendar").Subrouter())

	// Preflight requests short-circuit after the CORS middleware has set
	// its headers.
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// connectQueue dials RabbitMQ with exponential backoff so a broker that is
// still starting does not take the API down with it.
func connectQueue(amqpURL string, zapLogger *zap.Logger) (queue.JobQueue, error) {
	const maxRetries = 5
	const initialDelay = 2 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		q, err := queue.NewRabbitMQQueue(amqpURL, zapLogger)
		if err == nil {
			return q, nil
		}
		lastErr = err

		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)
		time.Sleep(delay)
	}
	return nil, lastErr
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprintf(w, `{"version":"1.0.0","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339)); err != nil {
		_ = err
	}
}

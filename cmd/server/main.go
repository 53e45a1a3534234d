package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"twstock-advisor/internal/bootstrap"
	"twstock-advisor/internal/bot"
	"twstock-advisor/internal/cache"
	"twstock-advisor/internal/config"
	"twstock-advisor/internal/db"
	"twstock-advisor/internal/handler"
	"twstock-advisor/internal/job"
	"twstock-advisor/internal/metrics"
	"twstock-advisor/internal/provider"
	"twstock-advisor/internal/repository"
	"twstock-advisor/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "twstock-advisor/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	runMigrationsFunc      = repository.RunMigrations
	newMetricsFunc         = metrics.New
	newAnalysisServiceFunc = bootstrap.NewAnalysisService
	startTelegramBotFunc   = bot.StartTelegramBot
	newRefresherFunc       = job.NewWatchlistRefresher
	startRefresherFunc     = func(r *job.WatchlistRefresher, ctx context.Context) {
		go func() {
			if err := r.Start(ctx); err != nil {
				log.Printf("watchlist refresher stopped: %v", err)
			}
		}()
	}
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           twstock-advisor API
// @version         1.0
// @description     Technical analysis and buy/sell/hold recommendations for Taiwan-listed stocks.

// @host      localhost:8080
// @BasePath  /
func main() {
	_ = loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis; both are optional.
	if err := initPostgresFunc(ctx, cfg.DatabaseURL); err != nil {
		log.Printf("Warning: %v, continuing without price archive", err)
	}
	defer db.Close()
	if err := initRedisFunc(ctx, cfg.RedisURL); err != nil {
		log.Printf("Warning: %v, using in-process series cache", err)
	}

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	deps := bootstrap.Deps{Tracer: tracer, Redis: cache.Client, Metrics: newMetricsFunc(nil)}
	if db.Pool != nil {
		deps.Pool = db.Pool
		if err := runMigrationsFunc(ctx, deps.Pool); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	analysisService, err := newAnalysisServiceFunc(cfg, deps)
	if err != nil {
		log.Fatalf("failed to build analysis service: %v", err)
	}

	// Telegram bot and the scheduled watchlist refresh share the alert dispatcher.
	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	var subscribers bot.SubscriberStore
	if cache.Client != nil {
		subscribers = cache.NewRedisSubscriberSet(cache.Client)
	}
	var notifier job.SummaryNotifier
	if alerts := startTelegramBotFunc(analysisService, subscribers); alerts != nil {
		notifier = alerts
	}
	refresher := newRefresherFunc(tracer, analysisService, notifier, cfg.Watchlist, cfg.DefaultMonths,
		cfg.WatchlistCron, provider.LoadLocation(cfg.Timezone))
	startRefresherFunc(refresher, ctx)

	// Create handlers and routes
	h := newHandlerFunc(tracer, analysisService, deps.Metrics)

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:          12 * time.Hour,
	}))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    httpAddr(cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

// httpAddr accepts a bare port or a PORT value that already carries the colon.
func httpAddr(port int) string {
	if raw := strings.TrimSpace(os.Getenv("PORT")); strings.HasPrefix(raw, ":") {
		return raw
	}
	if port <= 0 {
		port = 8080
	}
	return fmt.Sprintf(":%d", port)
}

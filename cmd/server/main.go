package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/cleo-api/internal/catalog"
	"github.com/yourusername/cleo-api/internal/config"
	"github.com/yourusername/cleo-api/internal/handler"
	"github.com/yourusername/cleo-api/internal/llm"
	"github.com/yourusername/cleo-api/internal/middleware"
	"github.com/yourusername/cleo-api/internal/repository"
	"github.com/yourusername/cleo-api/internal/service"
)

func main() {
	// ── Logging ──────────────────────────────────────────
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// ── Config ───────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	log.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("Starting Cleo API")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// ── LLM ──────────────────────────────────────────────
	provider, err := llm.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize LLM provider")
	}
	if !llm.Configured(provider) {
		log.Warn().Str("provider", provider.Name()).Msg("No API key set; AI endpoints will return 500")
	}

	cat, err := catalog.Default()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load catalog")
	}

	// ── Sessions ─────────────────────────────────────────
	sessions, sweep, closeStore, err := openSessionStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.SessionStore).Msg("Failed to open session store")
	}
	defer closeStore()
	log.Info().Str("store", cfg.SessionStore).Msg("Session store ready")

	// ── Services ─────────────────────────────────────────
	fetcher := service.NewPageFetcher(cfg.CrawlTimeout)
	logos := service.NewLogoService(service.LogoConfig{
		BrandfetchBaseURL: cfg.BrandfetchBaseURL,
		BrandfetchAPIKey:  cfg.BrandfetchAPIKey,
		ClearbitBaseURL:   cfg.ClearbitBaseURL,
		Timeout:           cfg.LogoTimeout,
		ProbeTimeout:      cfg.LogoProbeTimeout,
		CacheTTL:          cfg.LogoCacheTTL,
	})
	analyzer := service.NewContentAnalyzer(provider)
	crawler := service.NewSiteCrawler(fetcher, logos, analyzer)
	emails := service.NewEmailGenerator(provider, cat)
	chat := service.NewChatService(provider, cfg.ProfileExtraction)

	go runJanitor(ctx, cfg.LogoCacheTTL, logos, sweep)

	// ── Handlers ─────────────────────────────────────────
	contentHandler := handler.NewContentHandler(fetcher, logos, crawler)
	aiHandler := handler.NewAIHandler(analyzer, emails)
	chatHandler := handler.NewChatHandler(chat, sessions, cfg.AllowedOrigins)
	sessionHandler := handler.NewSessionHandler(sessions, cat)
	backendHandler := handler.NewBackendHandler(cat)
	resumeHandler := handler.NewResumeHandler(service.NewResumeExtractor())

	// ── Middleware ────────────────────────────────────────
	rateLimiter := middleware.NewRateLimiter(ctx, cfg.RateLimitRPS)

	// ── Router ───────────────────────────────────────────
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(requestLogger())

	// CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	api.GET("/health", handler.Health)

	api.Use(rateLimiter.Limit())
	{
		// Company research
		api.GET("/crawl", contentHandler.Crawl)
		api.GET("/logo", contentHandler.Logo)
		api.POST("/crawl/site", contentHandler.CrawlSite)

		// AI
		api.POST("/analyze-content", aiHandler.AnalyzeContent)
		api.POST("/generate-email", aiHandler.GenerateEmail)

		// Chat
		api.POST("/chat", chatHandler.Chat)
		api.POST("/chat/start", chatHandler.Start)
		api.GET("/chat/ws", chatHandler.WebSocket)

		// Demo sessions
		api.POST("/sessions", sessionHandler.Create)
		api.GET("/sessions/:id", sessionHandler.Get)
		api.PATCH("/sessions/:id", sessionHandler.Update)
		api.DELETE("/sessions/:id", sessionHandler.Delete)
		api.POST("/sessions/:id/restart", sessionHandler.Restart)
		api.POST("/sessions/:id/candidate", sessionHandler.SetCandidate)

		// Catalog
		api.GET("/backends", backendHandler.List)
		api.GET("/backends/:name", backendHandler.Get)

		// Candidates
		api.POST("/candidates/resume", resumeHandler.Upload)
	}

	// ── Server ───────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("llm", provider.Name()).Msg("Cleo API server running")

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// openSessionStore builds the store named by cfg.SessionStore. sweep removes
// expired sessions for stores that don't expire them on their own.
func openSessionStore(ctx context.Context, cfg *config.Config) (store repository.SessionStore, sweep func(context.Context), closeFn func(), err error) {
	switch cfg.SessionStore {
	case "postgres":
		pool, err := repository.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := repository.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		pg := repository.NewPostgresSessionStore(pool, cfg.SessionTTL)
		sweep = func(ctx context.Context) {
			n, err := pg.PurgeExpired(ctx)
			if err != nil {
				log.Error().Err(err).Msg("Failed to purge expired sessions")
				return
			}
			if n > 0 {
				log.Info().Int64("sessions", n).Msg("Purged expired sessions")
			}
		}
		return pg, sweep, pool.Close, nil

	case "redis":
		client, err := repository.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn = func() {
			if err := client.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close Redis client")
			}
		}
		// Redis expires keys itself.
		return repository.NewRedisSessionStore(client, cfg.SessionTTL), func(context.Context) {}, closeFn, nil

	default:
		mem := repository.NewMemorySessionStore(cfg.SessionTTL)
		sweep = func(context.Context) {
			if n := mem.Sweep(); n > 0 {
				log.Debug().Int("sessions", n).Msg("Swept expired sessions")
			}
		}
		return mem, sweep, func() {}, nil
	}
}

// runJanitor periodically drops the logo cache and expired sessions until
// ctx is cancelled.
func runJanitor(ctx context.Context, every time.Duration, logos *service.LogoService, sweep func(context.Context)) {
	if every <= 0 {
		every = time.Hour
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logos.ClearCache()
			sweep(ctx)
		}
	}
}

// requestLogger logs every request with zerolog
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= 400 {
			event = log.Warn()
		}
		if status >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Str("request_id", middleware.GetRequestID(c)).
			Msg(fmt.Sprintf("%s %s", c.Request.Method, path))
	}
}

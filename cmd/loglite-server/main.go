package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edirooss/loglite-server/internal/config"
	"github.com/edirooss/loglite-server/internal/env"
	"github.com/edirooss/loglite-server/internal/http/handler"
	mw "github.com/edirooss/loglite-server/internal/http/middleware"
	"github.com/edirooss/loglite-server/internal/idgen"
	"github.com/edirooss/loglite-server/internal/postgres"
	"github.com/edirooss/loglite-server/internal/search"
	"github.com/edirooss/loglite-server/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func init() {
	// Handle version display
	handleVersion()
}

func main() {
	_ = godotenv.Load() // best-effort .env for local runs
	cfg := env.Load()

	// Create Zap logger
	log := buildLogger()
	defer log.Sync()
	log = log.Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage backends: Postgres is authoritative, bleve serves candidates.
	store, err := postgres.Open(ctx, log, cfg.DBURL)
	if err != nil {
		log.Fatal("postgres open failed", zap.Error(err))
	}
	defer store.Close()

	index, err := search.Open(log, cfg.IndexDir)
	if err != nil {
		log.Fatal("search index open failed", zap.Error(err))
	}
	defer index.Close()

	ids := idgen.New(cfg.NodeID)

	ingestsvc := service.NewIngestService(log, store.Events, index, ids)
	searchsvc := service.NewSearchService(log, store.Events, index)
	reaper := service.NewReaper(log, store.Events, index, cfg.RetentionDays, cfg.TTLInterval)
	tailer := service.NewTailer(log, store.Sources, store.TailOffsets, ingestsvc, cfg.TailInterval)

	// Create Gin router
	if !cfg.Dev {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = zap.NewStdLog(log.Named("gin")).Writer() // Configure Gin's logger to use Zap
	r := gin.New()

	// Apply Gin middlewares
	{
		r.Use(gin.Recovery()) // Recovery first (outermost)
		r.Use(mw.RequestID()) // Attach request ID for tracing; early in the chain so it's available everywhere

		if cfg.Dev { // Enable CORS for local UI dev
			r.Use(cors.New(cors.Config{
				AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000", "http://127.0.0.1:3000"},
				AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowHeaders:     []string{"X-Request-ID", "Content-Type"},
				ExposeHeaders:    []string{"X-Request-ID"},
				AllowCredentials: true,
				MaxAge:           12 * time.Hour,
			}))
		}

		r.Use(accessLog(log))

		r.Use(func(c *gin.Context) {
			// Enforce a hard 10MB max request body.
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 10<<20)
			c.Next()
		})
	}

	// Register route handlers
	{
		r.GET("/api/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))

		{
			appshndlr := handler.NewAppsHandler(log, store.Apps)
			r.POST("/api/apps", appshndlr.CreateApp)
			r.GET("/api/apps", appshndlr.GetAppList)
		}

		{
			srcshndlr := handler.NewSourcesHandler(log, store.Sources)
			r.POST("/api/sources", srcshndlr.CreateSource)
			r.GET("/api/sources", srcshndlr.GetSourceList)
			r.GET("/api/sources/:id", srcshndlr.GetSource)
			r.PUT("/api/sources/:id", srcshndlr.UpdateSource)
			r.DELETE("/api/sources/:id", srcshndlr.DeleteSource)
		}

		{
			ingesthndlr := handler.NewIngestHandler(log, ingestsvc)
			r.POST("/api/ingest", ingesthndlr.Ingest)
			r.POST("/api/ingest/:format", ingesthndlr.IngestRaw)
		}

		{
			searchhndlr := handler.NewSearchHandler(log, searchsvc)
			r.POST("/api/search", searchhndlr.Search)
		}
	}

	httpsrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("running HTTP server", zap.String("addr", httpsrv.Addr))
		if err := httpsrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		reaper.Run(ctx)
		return nil
	})
	g.Go(func() error {
		tailer.Run(ctx)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpsrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
	log.Info("server closed")
}

// handleVersion prints build metadata and exits when -v/--version is provided.
func handleVersion() {
	v := flag.Bool("v", false, "print version and exit")
	flag.BoolVar(v, "version", false, "print version and exit")
	flag.Parse()

	if *v {
		fmt.Printf("loglite-server %s (commit %s, built %s)\n", config.Version, config.GitCommit, config.BuildDate)
		os.Exit(0)
	}
}

// accessLog is a Gin middleware that records HTTP request/response details with Zap after handling.
func accessLog(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("access")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		// collect all errors from Gin context
		var errs []error
		for _, ge := range c.Errors {
			if ge.Err != nil {
				errs = append(errs, ge.Err)
			}
		}
		joinedErr := errors.Join(errs...) // nil if errs is empty

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.String("client_ip", c.ClientIP()),
			zap.Duration("latency", latency),
			zap.String("request_id", mw.GetRequestID(c)),
		}
		if joinedErr != nil {
			fields = append(fields, zap.Error(joinedErr))
		}

		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

// helpers

func buildLogger() *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	logConfig.Level.SetLevel(zap.DebugLevel)
	return zap.Must(logConfig.Build())
}

package server

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soitgoes511/graph-network-visualizer/internal/config"
	"github.com/soitgoes511/graph-network-visualizer/internal/metrics"
	"github.com/soitgoes511/graph-network-visualizer/internal/queue"
	mid "github.com/soitgoes511/graph-network-visualizer/internal/server/middleware"
	"github.com/soitgoes511/graph-network-visualizer/pkg/analytics"
	"github.com/soitgoes511/graph-network-visualizer/pkg/annotate/remote"
	"github.com/soitgoes511/graph-network-visualizer/pkg/cache"
	"github.com/soitgoes511/graph-network-visualizer/pkg/extract"
	"github.com/soitgoes511/graph-network-visualizer/pkg/graph"
	"github.com/soitgoes511/graph-network-visualizer/pkg/loader"
	"github.com/soitgoes511/graph-network-visualizer/pkg/loader/text"
	"github.com/soitgoes511/graph-network-visualizer/pkg/loader/web"
	"github.com/soitgoes511/graph-network-visualizer/pkg/logger"
	"github.com/soitgoes511/graph-network-visualizer/pkg/logger/stream"
	"github.com/soitgoes511/graph-network-visualizer/pkg/progress"

	"github.com/go-playground/validator"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// NewServer wires middleware and routes for app.
func NewServer(app *mid.App, bodyLimit string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	if bodyLimit == "" {
		bodyLimit = "64M"
	}
	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(bodyLimit))

	RegisterRoutes(e, app)
	return e
}

// Init builds every component from cfg and serves until SIGINT or SIGTERM.
func Init(cfg *config.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	forwardBuffer := 0
	if cfg.Progress.AMQPURL != "" {
		forwardBuffer = cfg.Progress.Buffer
	}
	hub := progress.NewHub(forwardBuffer)
	logger.Attach(stream.NewStreamLogger(hub))

	if cfg.Progress.AMQPURL != "" {
		conn, ch, err := queue.Init(cfg.Progress.AMQPURL)
		if err != nil {
			logger.Fatal("Failed to connect to message broker", "err", err)
		}
		defer conn.Close()
		defer ch.Close()
		fwd, err := queue.NewProgressForwarder(ch, cfg.Progress.Exchange, cfg.Progress.Topic)
		if err != nil {
			logger.Fatal("Failed to declare progress exchange", "err", err)
		}
		go hub.Run(ctx, fwd, func(err error) {
			logger.Debug("[Queue] Failed to forward progress event", "err", err)
		})
	}

	snapshots, closeSnapshots, err := OpenSnapshotStore(ctx, cfg.Snapshots)
	if err != nil {
		logger.Fatal("Failed to open snapshot store", "backend", cfg.Snapshots.Backend, "err", err)
	}
	defer closeSnapshots()

	queryCache := cache.New(cache.NewCacheParams{Options: cfg.Cache, Metrics: m})
	go queryCache.Run(ctx)

	annotator, err := remote.NewAnnotatorClient(remote.NewAnnotatorClientParams{
		BaseURL:               cfg.Annotator.URL,
		ApiKey:                cfg.Annotator.APIKey,
		Timeout:               cfg.Annotator.Timeout,
		MaxRetries:            cfg.Annotator.MaxRetries,
		Backoff:               cfg.Annotator.Backoff,
		MaxChars:              cfg.Annotator.MaxChars,
		MaxSentences:          cfg.Annotator.MaxSentences,
		MaxConcurrentRequests: cfg.Annotator.MaxConcurrentRequests,
	})
	if err != nil {
		logger.Fatal("Failed to create annotator client", "err", err)
	}

	decoders := loader.NewRegistry()
	decoders.Register(text.NewTextDecoder(cfg.Extraction.UploadMaxChars), text.Extensions...)

	var fetcher loader.Fetcher
	if cfg.Crawl.Enabled {
		fetcher = web.NewWebFetcher(web.NewWebFetcherParams{
			Timeout:   cfg.Crawl.Timeout,
			UserAgent: cfg.Crawl.UserAgent,
			MaxPages:  cfg.Crawl.MaxPages,
			MaxChars:  cfg.Crawl.MaxChars,
		})
	}

	graphClient, err := graph.NewGraphClient(graph.NewGraphClientParams{
		Annotator:         annotator,
		Fetcher:           fetcher,
		Decoders:          decoders,
		Extractor:         extract.NewExtractor(cfg.Extraction.Options()),
		Analytics:         analytics.NewEngine(cfg.Analytics),
		Cache:             queryCache,
		View:              cfg.View,
		Metrics:           m,
		ParallelDocuments: cfg.Workers.ParallelDocuments,
		AnalyticsWorkers:  cfg.Workers.Analytics,
	})
	if err != nil {
		logger.Fatal("Failed to create graph client", "err", err)
	}

	e := NewServer(&mid.App{
		Graph:     graphClient,
		Snapshots: snapshots,
		Hub:       hub,
		Metrics:   m,
		APIKey:    cfg.Server.APIKey,
	}, cfg.Server.BodyLimit)
	// open /logs streams end with the signal context
	e.Server.BaseContext = func(net.Listener) context.Context { return ctx }

	go func() {
		logger.Info("Starting server", "port", cfg.Server.Port, "snapshots", cfg.Snapshots.Backend, "crawl", cfg.Crawl.Enabled)
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}

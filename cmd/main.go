package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amalkrishna0123/Chinju-StoreOrg/config"
	"github.com/amalkrishna0123/Chinju-StoreOrg/internal/delivery"
	grpcdelivery "github.com/amalkrishna0123/Chinju-StoreOrg/internal/delivery/grpc"
	"github.com/amalkrishna0123/Chinju-StoreOrg/internal/domain"
	"github.com/amalkrishna0123/Chinju-StoreOrg/internal/repository"
	"github.com/amalkrishna0123/Chinju-StoreOrg/internal/usecase"
	"github.com/amalkrishna0123/Chinju-StoreOrg/pkg/db"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// HTML content for the test page
const htmlTestPageContent = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Product Edit Service API Test Page</title>
    <style>
        body { font-family: Helvetica, Arial, sans-serif; line-height: 1.6; padding: 20px; background-color: #f9f9f9; color: #333; }
        h1, h2 { border-bottom: 1px solid #ccc; padding-bottom: 5px; }
        ul { list-style: none; padding-left: 0; }
        li { margin-bottom: 15px; background-color: #fff; padding: 10px; border: 1px solid #eee; border-radius: 4px; }
        code { background-color: #e8e8e8; padding: 3px 6px; border-radius: 3px; font-family: Consolas, Monaco, monospace; }
        .method { font-weight: bold; display: inline-block; width: 60px; }
        .method-post { color: #49cc90; }
        .method-get { color: #61affe; }
        .method-put { color: #9012fe; }
        .method-patch { color: #fca130; }
        .method-delete { color: #f93e3e; }
    </style>
</head>
<body>
    <h1>Product Edit Service API Endpoints</h1>

    <h2>Catalog</h2>
    <ul>
        <li><span class="method method-get">GET</span> <code><a href="/categories">/categories</a></code> - Sub-categories a product can be filed under, labelled <code>Main → Sub</code>.</li>
        <li><span class="method method-get">GET</span> <code>/products/{id}</code> - The stored product record.</li>
    </ul>

    <h2>Edit sessions</h2>
    <ul>
        <li><span class="method method-post">POST</span> <code>/products/{id}/edit-sessions</code> - Load a product for editing. Returns <code>sessionId</code>.</li>
        <li><span class="method method-get">GET</span> <code>/edit-sessions/{sid}</code> - Current form state.</li>
        <li><span class="method method-patch">PATCH</span> <code>/edit-sessions/{sid}/fields</code> - Edit one field. JSON body: <code>{"name": "offer", "value": "10"}</code>. Editing <code>originalPrice</code> or <code>offer</code> recomputes <code>salePrice</code>.</li>
        <li><span class="method method-put">PUT</span> <code>/edit-sessions/{sid}/image</code> - Replace the primary image. Multipart field <code>image</code>.</li>
        <li><span class="method method-post">POST</span> <code>/edit-sessions/{sid}/sub-images</code> - Append sub-images. Multipart field <code>images</code> (repeatable).</li>
        <li><span class="method method-delete">DELETE</span> <code>/edit-sessions/{sid}/sub-images/{index}</code> - Remove a sub-image.</li>
        <li><span class="method method-post">POST</span> <code>/edit-sessions/{sid}/submit</code> - Validate and save the product.</li>
        <li><span class="method method-get">GET</span> <code>/edit-sessions/{sid}/events</code> - WebSocket stream of message and navigation events.</li>
        <li><span class="method method-delete">DELETE</span> <code>/edit-sessions/{sid}</code> - Abandon the session.</li>
    </ul>
</body>
</html>
`

func serveTestPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(htmlTestPageContent))
}

func main() {
	//  Configuration and Logging Setup
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.LoadConfig(logger)
	setupLogger(logger, cfg)

	logger.Info("Starting Product Edit Service...")

	// --- Document Store ---
	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatalf("FATAL: Failed to open %s document store: %v", cfg.StoreDriver, err)
	}
	defer closeStore()
	logger.Infof("Document store (%s) ready.", cfg.StoreDriver)

	// --- Dependency Injection ---
	// Repository Layer
	productRepo := repository.NewDocumentProductRepository(store, logger)
	categoryRepo := repository.NewDocumentCategoryRepository(store, logger)
	logger.Info("Repositories initialized.")

	// Usecase Layer
	editUseCase := usecase.NewProductEditUseCase(productRepo, categoryRepo, usecase.EditOptions{
		RedirectDelay: cfg.SaveRedirectDelay,
		RedirectPath:  cfg.SaveRedirectPath,
		StoreTimeout:  cfg.StoreTimeout,
	}, logger)
	catalogUseCase := usecase.NewCatalogUseCase(productRepo, categoryRepo, logger)
	sessions := usecase.NewSessionRegistry(editUseCase, cfg.SessionIdleTimeout, logger)
	defer sessions.CloseAll()
	logger.Info("Use cases initialized.")

	editHandler := delivery.NewEditHandler(sessions, editUseCase, logger)
	categoryHandler := delivery.NewCategoryHandler(catalogUseCase, logger)
	productHandler := delivery.NewProductHandler(catalogUseCase, logger)
	logger.Info("Handlers initialized.")

	// --- Scheduler ---
	sched := cron.New()
	if _, err := sched.AddFunc(cfg.SessionSweepSchedule, func() { sessions.SweepIdle() }); err != nil {
		logger.Fatalf("FATAL: Invalid SESSION_SWEEP_SCHEDULE %q: %v", cfg.SessionSweepSchedule, err)
	}
	sched.Start()
	defer sched.Stop()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(delivery.RequestLogger(logger))

	//Route Registration
	router.GET("/", serveTestPage)
	logger.Info("Registered HTML test page route at /")

	categoryHandler.RegisterRoutes(router)
	productHandler.RegisterRoutes(router)
	editHandler.RegisterRoutes(router)
	logger.Info("API Routes registered.")

	// --- gRPC health ---
	healthServer := grpcdelivery.NewHealthServer(logger)
	lis, err := net.Listen("tcp", cfg.GrpcPort)
	if err != nil {
		logger.Fatalf("Failed to listen on port %s: %v", cfg.GrpcPort, err)
	}
	go func() {
		logger.Infof("gRPC health server listening on %s", cfg.GrpcPort)
		if err := healthServer.Server.Serve(lis); err != nil {
			logger.Errorf("gRPC server stopped: %v", err)
		}
	}()

	//  Start Server
	srv := &http.Server{
		Addr:    cfg.HTTPPort,
		Handler: router,
	}
	go func() {
		logger.Infof("Starting server on port %s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()
	healthServer.SetServing(true)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Warn("Shutdown signal received...")

	healthServer.Shutdown()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("HTTP server shutdown error: %v", err)
	}
	logger.Info("Product Edit Service shut down gracefully.")
}

func setupLogger(logger *logrus.Logger, cfg *config.Config) {
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warnf("Invalid log level '%s', using default 'info'. Error: %v", cfg.LogLevel, err)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	if logLevel < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.LogFile != "" {
		logger.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
		}))
		logger.Infof("Logging to %s", cfg.LogFile)
	}
}

func openStore(cfg *config.Config, logger *logrus.Logger) (domain.DocumentStore, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
	defer cancel()

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store := repository.NewPostgresDocumentStore(database, logger)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = database.Close()
			return nil, nil, err
		}
		return store, func() { _ = database.Close() }, nil
	case config.DriverRedis:
		client, err := db.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisDocumentStore(client, logger), func() { _ = client.Close() }, nil
	case config.DriverBolt:
		database, err := db.OpenBolt(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewBoltDocumentStore(database, logger), func() { _ = database.Close() }, nil
	case config.DriverMemory:
		logger.Warn("Using in-memory document store; edits are lost on restart")
		return repository.NewMemoryDocumentStore(logger), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

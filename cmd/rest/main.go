package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rag-chat-be/internal/bootstrap"
	"rag-chat-be/internal/config"
	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/internal/server"
	"rag-chat-be/internal/tracer"
	"rag-chat-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	isProd := cfg.App.Environment == "production"

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, isProd)
	defer func() { _ = sysLogger.Sync() }()

	// 2. Initialize Tracer
	shutdownTracer := tracer.InitTracer(cfg.Tracing, sysLogger)
	defer func() { _ = shutdownTracer(context.Background()) }()

	// 3. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, isProd)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 4. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(gormDB, cfg, sysLogger)
	if err != nil {
		log.Panicf("Invalid configuration: %v", err)
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Start Background Services
	go func() {
		sysLogger.Info("main", "Starting ingestion consumer", nil)
		if err := container.ConsumerService.Consume(ctx); err != nil {
			sysLogger.Error("main", "Ingestion consumer stopped", map[string]interface{}{"error": err})
		}
	}()

	// 6. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(); err != nil {
			sysLogger.Error("main", "Server shutdown failed", map[string]interface{}{"error": err})
		}
	}()

	// 7. Run Server
	if err := srv.Run(); err != nil {
		sysLogger.Error("main", "Server exited", map[string]interface{}{"error": err})
	}
}

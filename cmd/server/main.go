package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"voice-intake/internal/backup"
	"voice-intake/internal/cleanup"
	"voice-intake/internal/config"
	"voice-intake/internal/handlers"
	"voice-intake/internal/logger"
	"voice-intake/internal/pipeline"
	"voice-intake/internal/sheets"
	"voice-intake/internal/storage"
	"voice-intake/internal/transcription"
	"voice-intake/internal/watcher"
	"voice-intake/internal/webhook"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	if err := cfg.MaterializeCredentials(); err != nil {
		log.WithError(err).Fatal("failed to materialize credentials")
	}

	if err := os.MkdirAll(cfg.Storage.UploadDir, 0755); err != nil {
		log.WithError(err).Fatal("failed to create upload directory")
	}

	bw, err := backup.NewWriter(cfg.Storage.TranscriptDir, cfg.Storage.WebhookDir)
	if err != nil {
		log.WithError(err).Fatal("failed to create backup directories")
	}

	db, err := storage.NewMetadataDB(cfg.Storage.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer db.Close()

	engine := transcription.NewWhisperEngine(
		cfg.Whisper.Model, cfg.Whisper.Device, cfg.Whisper.Threads, cfg.Storage.UploadDir, log)

	store := sheets.NewGoogleStore(cfg.Sheets.CredentialsFile)

	transcribePipe := pipeline.New(engine, store,
		cfg.Sheets.TranscriptSheetID, cfg.Sheets.TranscriptWorksheet,
		cfg.Storage.UploadDir, bw, db, log)
	webhookPipe := webhook.NewPipeline(store,
		cfg.Sheets.VideoAskSheetID, cfg.Sheets.VideoAskWorksheet, bw, db, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := cleanup.NewScheduler(cfg.Storage.UploadDir,
		cfg.Cleanup.IntervalMinutes, cfg.Cleanup.MaxAgeHours, log)
	scheduler.Start()
	defer scheduler.Stop()

	if cfg.Storage.WatchDir != "" {
		w := watcher.New(cfg.Storage.WatchDir, transcribePipe, log)
		if err := w.Start(ctx); err != nil {
			log.WithError(err).Fatal("failed to start drop directory watcher")
		}
	}

	app := fiber.New(fiber.Config{
		BodyLimit: cfg.Limits.MaxFileSizeMB * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	transcribeHandler := handlers.NewTranscribeHandler(transcribePipe, log)
	webhookHandler := handlers.NewWebhookHandler(webhookPipe, store,
		cfg.Sheets.VideoAskSheetID, bw.WebhookDir(), log)
	streamHandler := handlers.NewStreamHandler(transcribePipe, cfg.Storage.UploadDir, log)
	statusHandler := handlers.NewStatusHandler(db, log)

	app.Get("/health", statusHandler.Health)
	app.Get("/status", statusHandler.Status)
	app.Get("/metrics", statusHandler.Metrics)

	app.Post("/transcribe", transcribeHandler.Handle)
	app.Get("/ws/stream", websocket.New(streamHandler.Handle))

	app.Post("/webhook/test", webhookHandler.HandleTest)
	app.Get("/webhook/validate", webhookHandler.HandleValidate)
	app.Post("/webhook/:provider", webhookHandler.Handle)

	app.Get("/transcripts", statusHandler.ListTranscripts)
	app.Get("/transcripts/:id/text", statusHandler.TranscriptText)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.WithField("addr", addr).Info("server starting")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info("shutting down gracefully")
		cancel()
		if err := app.Shutdown(); err != nil {
			log.WithError(err).Error("shutdown error")
		}
	}()

	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("server failed")
	}
}

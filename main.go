// Package main implements a scheduled notifier that watches an Instagram
// profile for new motivational designs and emails them to a subscriber list.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"stoic-notifier/email"
	"stoic-notifier/job"
	"stoic-notifier/ocr"
	"stoic-notifier/schedule"
	"stoic-notifier/scraper"
	"stoic-notifier/sheets"
	"stoic-notifier/storage"
)

const (
	smtpHost = "smtp.gmail.com"
	smtpPort = 465

	morningTrigger = "0 9 * * *"
	eveningTrigger = "0 20 * * *"
)

func main() {
	ctx := context.Background()

	// A .env file is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.DBPath, logger)
	if err != nil {
		logger.Error("Failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close database", "error", err)
		}
	}()

	// The job is useless without its dedupe store.
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Error("Failed to apply database schema", "error", err)
		os.Exit(1)
	}

	syncer := sheets.New(store, cfg.SheetID, cfg.CredentialsFile, cfg.CredentialsJSON, logger)
	reader := ocr.New(ctx, cfg.CredentialsFile, cfg.CredentialsJSON, logger)
	fetcher := scraper.New(&http.Client{Timeout: 30 * time.Second}, reader, cfg.ScratchDir, logger)

	var provider email.Provider
	if cfg.SenderPassword == "" {
		logger.Info("Mock email mode enabled (no EMAIL_PASSWORD)")
		provider = email.NewMockProvider(logger)
	} else {
		provider = email.NewSMTPProvider(smtpHost, smtpPort, cfg.SenderAddr, cfg.SenderPassword, logger)
	}
	sender := email.New(provider, cfg.SenderAddr, logger)

	runner := job.New(syncer, store, fetcher, sender, cfg.Handle, logger)

	sched := schedule.New(logger)
	for _, trigger := range []string{morningTrigger, eveningTrigger} {
		if err := sched.Add(trigger, func() { runner.RunOnce(ctx) }); err != nil {
			logger.Error("Failed to register schedule", "spec", trigger, "error", err)
			os.Exit(1)
		}
	}

	logger.Info("Automation live",
		"handle", cfg.Handle,
		"db_path", cfg.DBPath,
		"morning", morningTrigger,
		"evening", eveningTrigger)

	// Run immediately so a fresh deploy does not sit idle until the
	// next trigger.
	runner.RunOnce(ctx)

	sched.Run()
}

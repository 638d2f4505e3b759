package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"ollama-chatter/internal/config"
	"ollama-chatter/internal/logger"
	"ollama-chatter/internal/ollama"
	"ollama-chatter/internal/scheduler"
	"ollama-chatter/internal/storage"
	"ollama-chatter/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	zl := logger.New(cfg.Debug)
	defer func() { _ = zl.Sync() }()

	store, err := storage.NewSQLiteRecorder(cfg.DBPath, zl)
	if err != nil {
		zl.Fatal("failed to init audit store", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	llmClient := ollama.NewClient(&ollama.ClientConfig{
		URL:     cfg.OllamaURL,
		Model:   cfg.OllamaModel,
		Timeout: time.Duration(cfg.OllamaTimeoutSeconds) * time.Second,
	}, zl)

	bot, err := telegram.New(
		cfg.TelegramBotToken,
		llmClient,
		store,
		cfg.AdminChatID,
		cfg.DisclaimerMessage,
		time.Duration(cfg.DisclaimerIntervalSeconds)*time.Second,
		zl,
	)
	if err != nil {
		zl.Fatal("failed to create bot", zap.Error(err))
	}

	sched := scheduler.New(zl)
	sched.SetReportFunction(bot.DailyReport)
	if err := sched.Start(cfg.ReportCron); err != nil {
		zl.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	zl.Info("bot starting",
		zap.String("model", cfg.OllamaModel),
		zap.String("ollama_url", cfg.OllamaURL))
	bot.Start(context.Background())
}

package config

import (
	"log"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN,required"`
	AdminChatID      int64  `env:"ADMIN_CHAT_ID"`

	// Ollama settings
	OllamaURL            string `env:"OLLAMA_URL" envDefault:"http://localhost:11434/api/generate"`
	OllamaModel          string `env:"OLLAMA_MODEL" envDefault:"llama2-uncensored"`
	OllamaTimeoutSeconds int    `env:"OLLAMA_TIMEOUT"` // 0 = unbounded, matching the backend's own limits

	// Disclaimer gate
	DisclaimerMessage         string `env:"DISCLAIMER_MESSAGE"`
	DisclaimerIntervalSeconds int64  `env:"DISCLAIMER_INTERVAL" envDefault:"3600"`

	// Storage
	DBPath string `env:"DB_PATH" envDefault:"data/ollama_chatbot.db"`

	// Daily admin report (UTC cron spec)
	ReportCron string `env:"REPORT_CRON" envDefault:"0 9 * * *"`

	Debug bool `env:"DEBUG"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}

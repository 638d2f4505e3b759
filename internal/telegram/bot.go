package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"ollama-chatter/internal/ollama"
	"ollama-chatter/internal/storage"
)

type generator interface {
	Generate(ctx context.Context, prompt string) *ollama.Stream
}

type Bot struct {
	api    *tgbotapi.BotAPI
	s      sender
	llm    generator
	store  storage.Recorder
	logger *zap.Logger

	adminChatID     int64
	disclaimer      string
	disclaimerEvery time.Duration

	// sleep is the reconciler's clock; replaced in tests.
	sleep func(time.Duration)
}

func New(botToken string, llm generator, store storage.Recorder, adminChatID int64, disclaimer string, disclaimerEvery time.Duration, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:             api,
		s:               botAPISender{api: api},
		llm:             llm,
		store:           store,
		logger:          logger,
		adminChatID:     adminChatID,
		disclaimer:      disclaimer,
		disclaimerEvery: disclaimerEvery,
		sleep:           time.Sleep,
	}, nil
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}
		b.handleIncomingMessage(ctx, update.Message)
	}
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}
	if msg.Text == "" {
		return
	}

	b.logger.Info("incoming question",
		zap.Int64("user_id", msg.From.ID),
		zap.String("username", msg.From.UserName),
		zap.String("question", msg.Text))

	// Each question runs independently; two users' questions proceed fully
	// in parallel with no shared state beyond their own streams.
	go b.handleQuestion(ctx, msg)
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		text := b.disclaimer
		if text == "" {
			text = "Hi! Send me a question and I will answer it."
		}
		b.sendMessage(msg.Chat.ID, text, tgbotapi.ModeHTML)
	default:
		b.sendMessage(msg.Chat.ID, "Unknown command.", "")
	}
}

// maybeSendDisclaimer resends the configured disclaimer when the user has
// been silent for longer than the configured interval. A zero interval means
// the disclaimer accompanies every question.
func (b *Bot) maybeSendDisclaimer(ctx context.Context, chatID, userID int64) {
	if b.disclaimer == "" {
		return
	}
	if b.disclaimerEvery > 0 {
		last, err := b.store.LastContact(ctx, userID)
		if err != nil {
			b.logger.Warn("failed to read last contact", zap.Error(err))
		} else if time.Since(last) <= b.disclaimerEvery {
			return
		}
	}
	b.sendMessage(chatID, b.disclaimer, tgbotapi.ModeHTML)
}

func (b *Bot) sendMessage(chatID int64, text, parseMode string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode
	if _, err := b.s.Send(msg); err != nil {
		b.logger.Error("failed to send message", zap.Error(err))
	}
}

package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"ollama-chatter/internal/format"
	"ollama-chatter/internal/storage"
)

const errorReply = "❌ <b>An error occurred. Please try again.</b>"

// handleQuestion runs one end-to-end exchange: disclaimer gate, streaming
// generation with throttled display updates, terminal edit, audit record and
// admin notification.
func (b *Bot) handleQuestion(ctx context.Context, msg *tgbotapi.Message) {
	user := storage.User{
		ID:        msg.From.ID,
		Username:  msg.From.UserName,
		FirstName: msg.From.FirstName,
		LastName:  msg.From.LastName,
	}
	question := msg.Text
	chatID := msg.Chat.ID

	b.maybeSendDisclaimer(ctx, chatID, user.ID)

	start := time.Now()
	st := b.llm.Generate(ctx, question)

	var messageID int
	created := false
	rec := &reconciler{
		stream: st,
		sleep:  b.sleep,
		logger: b.logger,
		onFirstSend: func(text, parseMode string) error {
			m := tgbotapi.NewMessage(chatID, text)
			m.ParseMode = parseMode
			sent, err := b.s.Send(m)
			if err != nil {
				return err
			}
			messageID = sent.MessageID
			created = true
			return nil
		},
		onEdit: func(text, parseMode string) error {
			e := tgbotapi.NewEditMessageText(chatID, messageID, text)
			e.ParseMode = parseMode
			_, err := b.s.Send(e)
			return err
		},
	}
	rec.run()

	// Join the reader goroutine; the handle is dead after this.
	snap, err := st.Wait(ctx)
	if err != nil {
		b.logger.Warn("wait for generation interrupted", zap.Error(err))
	}
	elapsed := time.Since(start).Seconds()

	answer := snap.Text
	if snap.Err {
		b.logger.Error("generation failed",
			zap.Int64("user_id", user.ID),
			zap.Int("status", snap.StatusCode),
			zap.String("detail", snap.Detail))
		b.deliver(chatID, messageID, created, []format.Segment{
			{Kind: format.Prose, ParseMode: format.ParseModeHTML, Text: errorReply},
		})
		answer = snap.Detail
	} else {
		b.deliver(chatID, messageID, created, format.Render(snap.Text, elapsed))
	}

	b.audit(ctx, storage.Exchange{
		User:          user,
		Question:      question,
		Answer:        answer,
		ExecutionTime: elapsed,
		Error:         snap.Err,
		Timestamp:     start.UTC(),
	})
	go b.notifyAdmin(user, question, answer, elapsed, snap.Err)
}

// deliver performs the terminal display update. The placeholder message is
// edited to the first segment; any further segments go out as follow-up
// messages, since a Telegram message carries a single parse mode. When no
// placeholder was ever created, all segments are sent as fresh messages.
func (b *Bot) deliver(chatID int64, messageID int, created bool, segments []format.Segment) {
	for i, seg := range segments {
		if i == 0 && created {
			e := tgbotapi.NewEditMessageText(chatID, messageID, seg.Text)
			e.ParseMode = seg.ParseMode
			if _, err := b.s.Send(e); err != nil {
				b.logger.Error("failed to send terminal edit", zap.Error(err))
				// The provisional text must not stay up looking final;
				// retry without markup.
				e.ParseMode = ""
				if _, err := b.s.Send(e); err != nil {
					b.logger.Error("plain terminal edit failed too", zap.Error(err))
				}
			}
			continue
		}
		b.sendMessage(chatID, seg.Text, seg.ParseMode)
	}
}

func (b *Bot) audit(ctx context.Context, e storage.Exchange) {
	if b.store == nil {
		return
	}
	if err := b.store.UpsertUser(ctx, e.User); err != nil {
		b.logger.Error("failed to upsert user", zap.Error(err))
	}
	if err := b.store.RecordExchange(ctx, e); err != nil {
		b.logger.Error("failed to record exchange", zap.Error(err))
	}
}

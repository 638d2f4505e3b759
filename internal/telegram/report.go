package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ollama-chatter/internal/storage"
)

// DailyReport sends the admin chat a usage summary over the trailing 24h.
// Wired into the cron scheduler from cmd/bot.
func (b *Bot) DailyReport(ctx context.Context) error {
	if b.adminChatID == 0 || b.store == nil {
		return nil
	}
	stats, err := b.store.Stats(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		return fmt.Errorf("collect stats: %w", err)
	}
	b.sendMessage(b.adminChatID, buildReport(stats), tgbotapi.ModeHTML)
	return nil
}

func buildReport(s storage.Stats) string {
	return fmt.Sprintf(
		"<b>Daily report</b>\n"+
			"💬 exchanges: %d\n"+
			"👥 users: %d\n"+
			"❌ errors: %d\n"+
			"🕒 avg execution: %.2fs",
		s.Exchanges, s.DistinctUsers, s.Errors, s.AvgExecution)
}

package telegram

import (
	"fmt"

	"ollama-chatter/internal/storage"
)

const notifyAnswerLimit = 300

// notifyAdmin reports a completed exchange to the admin chat. Best effort:
// it runs off the exchange path and a failure only produces a log line.
func (b *Bot) notifyAdmin(user storage.User, question, answer string, elapsed float64, failed bool) {
	if b.adminChatID == 0 {
		return
	}

	name := user.Username
	if name == "" {
		name = fmt.Sprintf("%s %s", user.FirstName, user.LastName)
	}
	text := fmt.Sprintf("👤 %s (id %d)\n❓ %s\n", name, user.ID, question)
	if failed {
		text += fmt.Sprintf("❌ failed: %s", truncate(answer, notifyAnswerLimit))
	} else {
		text += fmt.Sprintf("💬 %s\n🕒 %.2fs", truncate(answer, notifyAnswerLimit), elapsed)
	}

	b.sendMessage(b.adminChatID, text, "")
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "…"
}

package telegram

import (
	"html"
	"math"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"ollama-chatter/internal/ollama"
)

type snapshotter interface {
	Snapshot() ollama.Snapshot
}

// backoff returns the sleep before display tick i (1-based). It is
// monotonically non-decreasing, so early updates are frequent and later ones
// throttle down as the answer grows.
func backoff(i int) time.Duration {
	return time.Duration(math.Floor(math.Log2(1+float64(i)/10)+1)) * time.Second
}

// reconciler converts a live generation stream into a bounded sequence of
// display updates. Editing on every token would exceed Telegram's rate
// limits, so it polls the stream between growing sleeps and skips edits that
// would not change the visible text.
type reconciler struct {
	stream      snapshotter
	onFirstSend func(text, parseMode string) error
	onEdit      func(text, parseMode string) error
	sleep       func(time.Duration)
	logger      *zap.Logger

	// plain is set after a send failure: rich markup is dropped for the rest
	// of the exchange so a corrupt partial tag is never left visible.
	plain bool
}

// provisional renders the accumulated text as an in-progress display string.
// The HTML form escapes the model text because it wraps it in an italic tag.
func (r *reconciler) provisional(text string) (string, string) {
	if r.plain {
		return text + "…", ""
	}
	return "<i>" + html.EscapeString(text) + "…</i>", tgbotapi.ModeHTML
}

// run drives the display loop until the stream reaches a terminal state.
// On finished it exits without a transitional edit; the terminal edit belongs
// to the caller. On error it never attempts a further edit.
func (r *reconciler) run() {
	created := false
	var lastSent string
	for i := 1; ; i++ {
		if r.stream.Snapshot().Terminal() {
			return
		}
		r.sleep(backoff(i))

		snap := r.stream.Snapshot()
		if snap.Err {
			return
		}
		text, mode := r.provisional(snap.Text)
		switch {
		case !created:
			if err := r.onFirstSend(text, mode); err != nil {
				r.degrade("failed to send placeholder message", err)
				continue // retry creation, degraded, on the next tick
			}
			created = true
		case text != lastSent:
			if err := r.onEdit(text, mode); err != nil {
				r.degrade("failed to edit placeholder message", err)
				continue
			}
		default:
			continue // redundant edit skipped
		}
		lastSent = text
	}
}

func (r *reconciler) degrade(msg string, err error) {
	r.logger.Warn(msg+", degrading to plain text", zap.Error(err))
	r.plain = true
}

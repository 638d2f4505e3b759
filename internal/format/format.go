// Package format converts a finished answer into ordered, render-ready
// segments. Telegram accepts one parse mode per message, so prose and code
// runs have to travel separately: prose goes out as HTML, code blocks as
// MarkdownV2 with the backtick fences restored.
package format

import (
	"fmt"
	"strings"
)

const fence = "```"

type Kind int

const (
	Prose Kind = iota
	Code
)

// Telegram parse modes carried by a segment. Kept as plain strings so this
// package stays free of the bot API dependency.
const (
	ParseModeHTML       = "HTML"
	ParseModeMarkdownV2 = "MarkdownV2"
)

type Segment struct {
	Kind      Kind
	ParseMode string
	Text      string
}

// Render splits the answer on triple-backtick fences and classifies the
// pieces by index parity: even pieces are prose, odd pieces are code. An
// unterminated fence is not repaired; the dangling piece is still classified
// by its index, so it becomes a code segment running to the end of the text.
// Empty pieces are dropped. A trailing execution-time segment is always
// appended, even when the answer itself produced nothing.
func Render(answer string, execSeconds float64) []Segment {
	pieces := strings.Split(answer, fence)
	segments := make([]Segment, 0, len(pieces)+1)
	for i, piece := range pieces {
		if piece == "" {
			continue
		}
		if i%2 == 0 {
			segments = append(segments, Segment{Kind: Prose, ParseMode: ParseModeHTML, Text: piece})
		} else {
			segments = append(segments, Segment{Kind: Code, ParseMode: ParseModeMarkdownV2, Text: fence + piece + fence})
		}
	}
	segments = append(segments, Segment{
		Kind:      Prose,
		ParseMode: ParseModeHTML,
		Text:      fmt.Sprintf("🕒 <i>Execution time: %.2fs</i>", execSeconds),
	})
	return segments
}

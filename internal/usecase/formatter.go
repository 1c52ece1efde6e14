// File: internal/usecase/formatter.go
package usecase

import (
	"fmt"
	"strings"
	"time"

	"telegram-crm-relay/internal/domain/model"
)

const (
	noteDateLayout = "Jan 2, 2006, 03:04 PM"
	noteTimeLayout = "03:04 PM"
)

// Note is a formatted title+content pair ready for the note store.
type Note struct {
	Title   string
	Content string
}

// FormatMessagesForSingleNote renders the whole queue as one chat-transcript
// note. The title carries the first message's origin chat and the generation
// timestamp. Pure and deterministic for fixed inputs and a fixed now.
func FormatMessagesForSingleNote(msgs []model.QueuedMessage, now time.Time) Note {
	chatName := "Unknown"
	if len(msgs) > 0 {
		chatName = msgs[0].ChatName
	}
	title := fmt.Sprintf("Telegram conversation with %s - %s", chatName, now.UTC().Format(noteDateLayout))

	var b strings.Builder
	for i, m := range msgs {
		ts := time.Unix(m.Date, 0).UTC().Format(noteTimeLayout)
		fmt.Fprintf(&b, "**[%s] %s:**\n", ts, senderName(m))
		switch {
		case m.Text != "":
			b.WriteString(m.Text)
			b.WriteByte('\n')
		case m.HasMedia && m.MediaType != "":
			fmt.Fprintf(&b, "*[sent a %s]*\n", m.MediaType)
		default:
			b.WriteString("*[empty message]*\n")
		}
		if i < len(msgs)-1 {
			b.WriteByte('\n')
		}
	}

	return Note{Title: title, Content: b.String()}
}

// senderName resolves the display name for a queued message: username wins
// over first+last, with "Unknown" as the last resort.
func senderName(m model.QueuedMessage) string {
	if m.SenderUsername != "" {
		return "@" + m.SenderUsername
	}
	parts := make([]string, 0, 2)
	if m.SenderFirstName != "" {
		parts = append(parts, m.SenderFirstName)
	}
	if m.SenderLastName != "" {
		parts = append(parts, m.SenderLastName)
	}
	if len(parts) == 0 {
		return "Unknown"
	}
	return strings.Join(parts, " ")
}

var markdownEscaper = strings.NewReplacer(
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(", ")", "\\)",
	"~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#", "+", "\\+", "=", "\\=",
	"|", "\\|", "{", "\\{", "}", "\\}", ".", "\\.", "!", "\\!", "-", "\\-",
)

// previewText returns an escaped preview of at most max runes of s.
func previewText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return markdownEscaper.Replace(s)
	}
	return markdownEscaper.Replace(string(runes[:max])) + "..."
}

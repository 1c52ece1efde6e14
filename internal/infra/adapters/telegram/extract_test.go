package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestExtractNotForwarded(t *testing.T) {
	m := &tgbotapi.Message{Text: "plain message", Date: 1700000000}
	if _, ok := extractForwardedMessage(m); ok {
		t.Error("message without forward origin must not be extracted")
	}
}

func TestExtractForwardFromUser(t *testing.T) {
	m := &tgbotapi.Message{
		Text:        "hello",
		Date:        1700000000,
		MessageID:   7,
		ForwardDate: 1699999000,
		ForwardFrom: &tgbotapi.User{UserName: "bob", FirstName: "Bob", LastName: "Jones"},
	}

	q, ok := extractForwardedMessage(m)
	if !ok {
		t.Fatal("expected extraction")
	}
	if q.SenderUsername != "bob" || q.SenderFirstName != "Bob" || q.SenderLastName != "Jones" {
		t.Errorf("sender fields: %+v", q)
	}
	if q.ChatName != "Bob Jones" {
		t.Errorf("chatName = %q, want %q", q.ChatName, "Bob Jones")
	}
	if q.Text != "hello" || q.Date != 1700000000 || q.MessageID != 7 {
		t.Errorf("message fields: %+v", q)
	}
}

func TestExtractForwardFromChat(t *testing.T) {
	cases := []struct {
		name string
		chat *tgbotapi.Chat
		want string
	}{
		{"titled channel", &tgbotapi.Chat{Title: "Acme News", Type: "channel"}, "Acme News"},
		{"untitled channel", &tgbotapi.Chat{Type: "channel"}, "Unknown Channel"},
		{"untitled group", &tgbotapi.Chat{Type: "group"}, "Unknown Chat"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := &tgbotapi.Message{Text: "x", Date: 1700000000, ForwardFromChat: tc.chat}
			q, ok := extractForwardedMessage(m)
			if !ok {
				t.Fatal("expected extraction")
			}
			if q.ChatName != tc.want {
				t.Errorf("chatName = %q, want %q", q.ChatName, tc.want)
			}
		})
	}
}

func TestExtractHiddenSender(t *testing.T) {
	m := &tgbotapi.Message{Text: "x", Date: 1700000000, ForwardSenderName: "Hidden Person"}
	q, ok := extractForwardedMessage(m)
	if !ok {
		t.Fatal("expected extraction")
	}
	if q.ChatName != "Hidden Person" {
		t.Errorf("chatName = %q", q.ChatName)
	}
	if q.SenderUsername != "" || q.SenderFirstName != "" {
		t.Errorf("hidden senders carry no identity: %+v", q)
	}
}

func TestExtractCaptionFallback(t *testing.T) {
	m := &tgbotapi.Message{
		Caption:     "photo caption",
		Date:        1700000000,
		ForwardDate: 1699999000,
		Photo:       []tgbotapi.PhotoSize{{FileID: "f1"}},
	}
	q, ok := extractForwardedMessage(m)
	if !ok {
		t.Fatal("expected extraction")
	}
	if q.Text != "photo caption" {
		t.Errorf("text = %q, want caption fallback", q.Text)
	}
	if !q.HasMedia || q.MediaType != "photo" {
		t.Errorf("media fields: hasMedia=%v mediaType=%q", q.HasMedia, q.MediaType)
	}
}

func TestExtractMediaTypePrecedence(t *testing.T) {
	m := &tgbotapi.Message{
		Date:        1700000000,
		ForwardDate: 1699999000,
		Photo:       []tgbotapi.PhotoSize{{FileID: "f1"}},
		Video:       &tgbotapi.Video{FileID: "v1"},
	}
	q, ok := extractForwardedMessage(m)
	if !ok {
		t.Fatal("expected extraction")
	}
	if q.MediaType != "photo" {
		t.Errorf("mediaType = %q, want photo to win", q.MediaType)
	}

	m = &tgbotapi.Message{
		Date:        1700000000,
		ForwardDate: 1699999000,
		Voice:       &tgbotapi.Voice{FileID: "vo1"},
	}
	q, _ = extractForwardedMessage(m)
	if q.MediaType != "voice" || q.HasMedia {
		t.Errorf("voice message: hasMedia=%v mediaType=%q", q.HasMedia, q.MediaType)
	}
}

func TestJoinName(t *testing.T) {
	cases := []struct{ first, last, want string }{
		{"Bob", "Jones", "Bob Jones"},
		{"Bob", "", "Bob"},
		{"", "Jones", "Jones"},
		{"", "", "Unknown"},
	}
	for _, tc := range cases {
		if got := joinName(tc.first, tc.last); got != tc.want {
			t.Errorf("joinName(%q, %q) = %q, want %q", tc.first, tc.last, got, tc.want)
		}
	}
}

package telegram

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-crm-relay/internal/domain/ports/adapter"
	"telegram-crm-relay/internal/usecase"
)

func TestBuildKeyboard(t *testing.T) {
	rows := [][]adapter.InlineButton{
		{{Text: "🏢 Acme", Data: "select:c1"}, {Text: "❌ Cancel", Data: "cancel"}},
		{},
		{{Text: "", Data: "noop"}},
		{{Text: "Docs", URL: "https://example.com"}},
	}
	kb := buildKeyboard(rows)

	if len(kb.InlineKeyboard) != 3 {
		t.Fatalf("rows = %d, want 3 (empty row skipped)", len(kb.InlineKeyboard))
	}
	first := kb.InlineKeyboard[0]
	if len(first) != 2 || first[0].CallbackData == nil || *first[0].CallbackData != "select:c1" {
		t.Errorf("first row: %+v", first)
	}
	if kb.InlineKeyboard[1][0].Text != "•" {
		t.Errorf("blank label should fall back to a bullet, got %q", kb.InlineKeyboard[1][0].Text)
	}
	last := kb.InlineKeyboard[2][0]
	if last.URL == nil || *last.URL != "https://example.com" {
		t.Errorf("url button: %+v", last)
	}
}

func TestUpdateChatID(t *testing.T) {
	msg := tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 10}}}
	if got := updateChatID(msg); got != 10 {
		t.Errorf("message update chat id = %d", got)
	}

	cq := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 20}},
	}}
	if got := updateChatID(cq); got != 20 {
		t.Errorf("callback update chat id = %d", got)
	}

	if got := updateChatID(tgbotapi.Update{}); got != 0 {
		t.Errorf("empty update chat id = %d, want 0", got)
	}
}

func TestDeliverIgnoresEmptyReply(t *testing.T) {
	// A zero Reply must short-circuit before any API call, so a zero-struct
	// adapter with no bot client is safe here.
	r := &RealTelegramBotAdapter{}
	if err := r.deliver(context.Background(), 1, 0, usecase.Reply{}); err != nil {
		t.Fatalf("deliver(zero reply) = %v", err)
	}
}

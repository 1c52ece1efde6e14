// File: internal/infra/adapters/telegram/real_bot.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-crm-relay/internal/application"
	"telegram-crm-relay/internal/config"
	"telegram-crm-relay/internal/domain"
	"telegram-crm-relay/internal/domain/model"
	"telegram-crm-relay/internal/domain/ports/adapter"
	"telegram-crm-relay/internal/infra/logging"
	red "telegram-crm-relay/internal/infra/redis"
	"telegram-crm-relay/internal/usecase"
)

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// RealTelegramBotAdapter polls Telegram for updates and delegates to the
// BotFacade. Updates are processed by a worker pool; a per-user Redis lock
// serializes events for one user since the pool itself does not.
type RealTelegramBotAdapter struct {
	bot         *tgbotapi.BotAPI
	cfg         *config.BotConfig
	facade      *application.BotFacade
	rateLimiter *red.RateLimiter
	locker      red.Locker
	log         *zerolog.Logger

	adminIDsMap   map[int64]struct{}
	updateWorkers int
	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(
	cfg *config.BotConfig,
	facade *application.BotFacade,
	rateLimiter *red.RateLimiter,
	locker red.Locker,
	log *zerolog.Logger,
) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if facade == nil {
		return nil, errors.New("bot facade is nil")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	adminMap := map[int64]struct{}{}
	for _, id := range cfg.AdminIDs {
		adminMap[id] = struct{}{}
	}

	return &RealTelegramBotAdapter{
		bot:           bot,
		cfg:           cfg,
		facade:        facade,
		rateLimiter:   rateLimiter,
		locker:        locker,
		log:           log,
		adminIDsMap:   adminMap,
		updateWorkers: workers,
	}, nil
}

func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up := <-updateChan:
					r.process(ctx, up)
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			updateChan <- up
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// process runs one update to completion and reports failures back to the
// user without ever taking the poller down.
func (r *RealTelegramBotAdapter) process(ctx context.Context, up tgbotapi.Update) {
	ctx = logging.WithUpdateID(ctx, up.UpdateID)
	if err := r.handleUpdate(ctx, up); err != nil {
		logging.With(ctx, r.log).Error().Err(err).Msg("update handling failed")
		if chatID := updateChatID(up); chatID != 0 {
			text := "❌ An error occurred while processing your request. Please try again or use /cancel to reset."
			if errors.Is(err, domain.ErrLocked) {
				text = "⏳ Still processing your previous message. Please try again in a moment."
			}
			_ = r.SendMessage(ctx, chatID, text)
		}
	}
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, up tgbotapi.Update) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in update handler: %v", p)
		}
	}()

	if up.CallbackQuery != nil {
		return r.handleQuery(ctx, up.CallbackQuery)
	}
	if up.Message == nil || up.Message.From == nil {
		return nil
	}
	return r.handleMessage(ctx, up.Message)
}

func (r *RealTelegramBotAdapter) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	tgID := msg.From.ID
	chatID := msg.Chat.ID
	ctx = logging.WithTgID(logging.WithChatID(ctx, chatID), tgID)

	command := "message"
	if msg.IsCommand() {
		command = "/" + msg.Command()
	}
	if r.rateLimiter != nil {
		allowed, err := r.rateLimiter.Allow(ctx, red.UserCommandKey(tgID, command), 20, time.Minute)
		if err != nil {
			logging.With(ctx, r.log).Warn().Err(err).Msg("rate limit check failed")
		} else if !allowed {
			return r.SendMessage(ctx, chatID, "Rate limit exceeded. Please try again later.")
		}
	}

	unlock, err := r.lockUser(ctx, tgID)
	if err != nil {
		return err
	}
	defer unlock()

	// Forwarded content takes priority over everything, including commands
	// embedded in the forwarded text.
	if isForwarded(msg) {
		queued, ok := extractForwardedMessage(msg)
		if !ok {
			return nil
		}
		return r.deliver(ctx, chatID, 0, r.facade.HandleForwarded(ctx, tgID, queued))
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			return r.deliver(ctx, chatID, 0, r.facade.HandleStart(ctx, tgID))
		case "help":
			return r.deliver(ctx, chatID, 0, r.facade.HandleHelp(ctx, tgID))
		case "done":
			return r.deliver(ctx, chatID, 0, r.facade.HandleDone(ctx, tgID))
		case "clear":
			return r.deliver(ctx, chatID, 0, r.facade.HandleClear(ctx, tgID))
		case "cancel":
			return r.deliver(ctx, chatID, 0, r.facade.HandleCancel(ctx, tgID))
		case "stats":
			if _, ok := r.adminIDsMap[tgID]; !ok {
				return nil
			}
			return r.deliver(ctx, chatID, 0, r.facade.HandleStats(ctx))
		default:
			return nil
		}
	}

	if msg.Text != "" {
		return r.deliver(ctx, chatID, 0, r.facade.HandleText(ctx, tgID, msg.Text))
	}
	return nil
}

func (r *RealTelegramBotAdapter) handleQuery(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	// Acknowledge every button press up front so the client never hangs on
	// a spinner, whatever happens next.
	if _, err := r.bot.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		r.log.Warn().Err(err).Msg("callback ack failed")
	}
	if cq.From == nil || cq.Message == nil {
		return nil
	}

	tgID := cq.From.ID
	chatID := cq.Message.Chat.ID
	ctx = logging.WithTgID(logging.WithChatID(ctx, chatID), tgID)

	unlock, err := r.lockUser(ctx, tgID)
	if err != nil {
		return err
	}
	defer unlock()

	ev := model.ParseCallback(cq.Data)
	return r.deliver(ctx, chatID, cq.Message.MessageID, r.facade.HandleCallback(ctx, tgID, ev))
}

// lockUser serializes event processing for one user across the worker pool.
func (r *RealTelegramBotAdapter) lockUser(ctx context.Context, tgID int64) (func(), error) {
	if r.locker == nil {
		return func() {}, nil
	}
	key := red.UserLockKey(tgID)
	token, err := r.locker.TryLock(ctx, key, 30*time.Second)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := r.locker.Unlock(ctx, key, token); err != nil {
			r.log.Warn().Err(err).Int64("tg_id", tgID).Msg("lock release failed")
		}
	}, nil
}

// deliver sends a Reply. messageID is the button-carrying message for edits;
// zero means edits fall back to a plain send.
func (r *RealTelegramBotAdapter) deliver(ctx context.Context, chatID int64, messageID int, rep usecase.Reply) error {
	if rep.Text == "" {
		return nil
	}
	if rep.Edit && messageID != 0 {
		return r.editMessage(ctx, chatID, messageID, rep.Text, rep.Buttons, rep.Markdown)
	}
	if len(rep.Buttons) > 0 {
		return r.sendButtons(ctx, chatID, rep.Text, rep.Buttons, rep.Markdown)
	}
	return r.sendText(ctx, chatID, rep.Text, rep.Markdown)
}

func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, telegramID int64, text string) error {
	return r.sendText(ctx, telegramID, text, false)
}

func (r *RealTelegramBotAdapter) SendButtons(ctx context.Context, telegramID int64, text string, rows [][]adapter.InlineButton) error {
	return r.sendButtons(ctx, telegramID, text, rows, false)
}

func (r *RealTelegramBotAdapter) EditMessage(ctx context.Context, telegramID int64, messageID int, text string, rows [][]adapter.InlineButton) error {
	return r.editMessage(ctx, telegramID, messageID, text, rows, false)
}

func (r *RealTelegramBotAdapter) sendText(ctx context.Context, chatID int64, text string, markdown bool) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	_, err := r.bot.Send(msg)
	return err
}

func (r *RealTelegramBotAdapter) sendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton, markdown bool) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	msg.ReplyMarkup = buildKeyboard(rows)
	_, err := r.bot.Send(msg)
	return err
}

func (r *RealTelegramBotAdapter) editMessage(ctx context.Context, chatID int64, messageID int, text string, rows [][]adapter.InlineButton, markdown bool) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	var cfg tgbotapi.EditMessageTextConfig
	if len(rows) > 0 {
		cfg = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, buildKeyboard(rows))
	} else {
		cfg = tgbotapi.NewEditMessageText(chatID, messageID, text)
	}
	if markdown {
		cfg.ParseMode = tgbotapi.ModeMarkdown
	}
	_, err := r.bot.Send(cfg)
	return err
}

func buildKeyboard(rows [][]adapter.InlineButton) tgbotapi.InlineKeyboardMarkup {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		kbRow := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			var kb tgbotapi.InlineKeyboardButton
			switch {
			case btn.URL != "":
				kb = tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL)
			case btn.Data != "":
				kb = tgbotapi.NewInlineKeyboardButtonData(label, btn.Data)
			default:
				kb = tgbotapi.NewInlineKeyboardButtonData(label, label)
			}
			kbRow = append(kbRow, kb)
		}
		kbRows = append(kbRows, kbRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(kbRows...)
}

func updateChatID(up tgbotapi.Update) int64 {
	if up.Message != nil {
		return up.Message.Chat.ID
	}
	if up.CallbackQuery != nil && up.CallbackQuery.Message != nil {
		return up.CallbackQuery.Message.Chat.ID
	}
	return 0
}

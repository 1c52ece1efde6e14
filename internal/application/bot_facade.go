package application

import (
	"context"
	"fmt"

	"telegram-crm-relay/internal/domain/model"
	"telegram-crm-relay/internal/infra/logging"
	"telegram-crm-relay/internal/usecase"

	"github.com/rs/zerolog"
)

const genericErrorText = "❌ An error occurred while processing your request. Please try again or use /cancel to reset."

// BotFacade is the top-level dispatch and error boundary between the
// transport adapter and the state machine. Handlers never return errors to
// the adapter; anything unexpected degrades to a generic reply here.
type BotFacade struct {
	Relay   usecase.RelayUseCase
	StatsUC *usecase.StatsUseCase // optional; nil when no audit backend

	log *zerolog.Logger
}

func NewBotFacade(relay usecase.RelayUseCase, statsUC *usecase.StatsUseCase, log *zerolog.Logger) *BotFacade {
	return &BotFacade{Relay: relay, StatsUC: statsUC, log: log}
}

func (b *BotFacade) HandleStart(ctx context.Context, tgID int64) usecase.Reply {
	logging.With(ctx, b.log).Info().Int64("tg_id", tgID).Msg("user started bot")
	return usecase.Reply{
		Text: `👋 Welcome to the Attio CRM relay!

📋 **How it works:**

1️⃣ Forward me messages from your customer conversations (forward as many as you need)

2️⃣ When you're done forwarding, send /done

3️⃣ Select which company they belong to

4️⃣ The whole batch is added to that company in Attio as one note

**Commands:**
/done - Process queued messages
/clear - Clear message queue
/cancel - Cancel current operation
/help - Show this help message

Ready to get started? Forward me your first message! 🚀`,
		Markdown: true,
	}
}

func (b *BotFacade) HandleHelp(ctx context.Context, tgID int64) usecase.Reply {
	return usecase.Reply{
		Text: `📚 **Help & Commands**

**Workflow:**
1. Forward messages to me (one or many)
2. Send /done when finished
3. Choose a company
4. Messages are saved to Attio as a single note

**Commands:**
/start - Welcome message
/help - Show this help
/done - Process queued messages
/clear - Clear message queue
/cancel - Cancel operation

**Tips:**
• You can forward multiple messages before using /done
• Recent companies are saved for quick access
• All messages in a batch go to the same company`,
		Markdown: true,
	}
}

func (b *BotFacade) HandleForwarded(ctx context.Context, tgID int64, msg model.QueuedMessage) usecase.Reply {
	return b.guard(ctx, func() (usecase.Reply, error) {
		return b.Relay.QueueForwarded(ctx, tgID, msg)
	})
}

func (b *BotFacade) HandleDone(ctx context.Context, tgID int64) usecase.Reply {
	return b.guard(ctx, func() (usecase.Reply, error) {
		return b.Relay.Done(ctx, tgID)
	})
}

func (b *BotFacade) HandleText(ctx context.Context, tgID int64, text string) usecase.Reply {
	return b.guard(ctx, func() (usecase.Reply, error) {
		return b.Relay.HandleText(ctx, tgID, text)
	})
}

func (b *BotFacade) HandleCallback(ctx context.Context, tgID int64, ev model.CallbackEvent) usecase.Reply {
	return b.guard(ctx, func() (usecase.Reply, error) {
		return b.Relay.HandleCallback(ctx, tgID, ev)
	})
}

func (b *BotFacade) HandleClear(ctx context.Context, tgID int64) usecase.Reply {
	return b.guard(ctx, func() (usecase.Reply, error) {
		return b.Relay.Clear(ctx, tgID)
	})
}

func (b *BotFacade) HandleCancel(ctx context.Context, tgID int64) usecase.Reply {
	return b.guard(ctx, func() (usecase.Reply, error) {
		return b.Relay.Cancel(ctx, tgID)
	})
}

// HandleStats renders the audit summary for admins.
func (b *BotFacade) HandleStats(ctx context.Context) usecase.Reply {
	if b.StatsUC == nil {
		return usecase.Reply{Text: "Stats are not available (no audit backend configured)."}
	}
	stats, err := b.StatsUC.Summary(ctx)
	if err != nil {
		logging.With(ctx, b.log).Error().Err(err).Msg("stats query failed")
		return usecase.Reply{Text: "Failed to load stats."}
	}
	return usecase.Reply{
		Text: fmt.Sprintf("📈 Relay stats\n\nNotes created: %d\nMessages relayed: %d\nUsers served: %d",
			stats.Notes, stats.Messages, stats.Users),
	}
}

// guard is the unhandled-error boundary: log with context, keep the process
// alive and hand the user a recoverable reply.
func (b *BotFacade) guard(ctx context.Context, fn func() (usecase.Reply, error)) (rep usecase.Reply) {
	defer func() {
		if p := recover(); p != nil {
			logging.With(ctx, b.log).Error().Interface("panic", p).Msg("handler panicked")
			rep = usecase.Reply{Text: genericErrorText}
		}
	}()

	rep, err := fn()
	if err != nil {
		logging.With(ctx, b.log).Error().Err(err).Msg("handler failed")
		return usecase.Reply{Text: genericErrorText}
	}
	return rep
}

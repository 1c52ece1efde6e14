// File: internal/usecase/relay_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"telegram-crm-relay/internal/domain"
	"telegram-crm-relay/internal/domain/model"
	"telegram-crm-relay/internal/domain/ports/adapter"
	"telegram-crm-relay/internal/domain/ports/repository"
	"telegram-crm-relay/internal/infra/metrics"

	"github.com/rs/zerolog"
)

const previewLen = 100

// Reply is what an event handler wants said back to the user. A zero Reply
// means "say nothing". Edit replaces the message that carried the pressed
// button instead of sending a new one.
type Reply struct {
	Text     string
	Buttons  [][]adapter.InlineButton
	Markdown bool
	Edit     bool
}

// Compile-time check
var _ RelayUseCase = (*relayUC)(nil)

// RelayUseCase is the session state machine: it owns per-user workflow
// state, the pending message queue and the selection/flush lifecycle.
type RelayUseCase interface {
	QueueForwarded(ctx context.Context, tgID int64, msg model.QueuedMessage) (Reply, error)
	Done(ctx context.Context, tgID int64) (Reply, error)
	HandleText(ctx context.Context, tgID int64, text string) (Reply, error)
	HandleCallback(ctx context.Context, tgID int64, ev model.CallbackEvent) (Reply, error)
	Clear(ctx context.Context, tgID int64) (Reply, error)
	Cancel(ctx context.Context, tgID int64) (Reply, error)
}

type relayUC struct {
	sessions   repository.SessionRepository
	recents    repository.RecentCompaniesRepository
	crm        adapter.CRMAdapter
	audit      repository.NoteAuditRepository // optional
	maxDisplay int
	log        zerolog.Logger
}

func NewRelayUseCase(
	sessions repository.SessionRepository,
	recents repository.RecentCompaniesRepository,
	crm adapter.CRMAdapter,
	audit repository.NoteAuditRepository,
	maxDisplay int,
	log *zerolog.Logger,
) *relayUC {
	return &relayUC{
		sessions:   sessions,
		recents:    recents,
		crm:        crm,
		audit:      audit,
		maxDisplay: maxDisplay,
		log:        log.With().Str("usecase", "relay").Logger(),
	}
}

// load reads the user's session, degrading any read failure to a fresh idle
// session. Session loss is an accepted boundary, never a user-facing error.
func (u *relayUC) load(ctx context.Context, tgID int64) *model.Session {
	s, err := u.sessions.Get(ctx, tgID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			u.log.Warn().Err(err).Int64("tg_id", tgID).Msg("session read failed, starting fresh")
		}
		return model.NewSession()
	}
	return s
}

// store writes the session back. Write failures are logged and swallowed.
func (u *relayUC) store(ctx context.Context, tgID int64, s *model.Session) {
	if err := u.sessions.Put(ctx, tgID, s); err != nil {
		u.log.Error().Err(err).Int64("tg_id", tgID).Msg("session write failed")
	}
}

func (u *relayUC) QueueForwarded(ctx context.Context, tgID int64, msg model.QueuedMessage) (Reply, error) {
	s := u.load(ctx, tgID)
	s.Enqueue(msg)
	u.store(ctx, tgID, s)

	metrics.MessageQueued()
	u.log.Info().
		Int64("tg_id", tgID).
		Int("queue_count", len(s.MessageQueue)).
		Str("chat_name", msg.ChatName).
		Msg("message queued")

	return Reply{
		Text: fmt.Sprintf("📥 Message queued (%d)\n\nSend more messages or use /done to process them.", len(s.MessageQueue)),
	}, nil
}

func (u *relayUC) Done(ctx context.Context, tgID int64) (Reply, error) {
	s := u.load(ctx, tgID)
	if len(s.MessageQueue) == 0 {
		return Reply{Text: "📭 No messages in queue. Forward some messages first!"}, nil
	}

	// Fetched once per /done and cached in the session for id resolution.
	recents, err := u.recents.List(ctx, tgID)
	if err != nil {
		u.log.Warn().Err(err).Int64("tg_id", tgID).Msg("recent companies lookup failed")
		recents = nil
	}
	s.RecentCompanies = recents
	s.State = model.StateAwaitingCompanySelection
	u.store(ctx, tgID, s)

	u.log.Info().Int64("tg_id", tgID).Int("queue_count", len(s.MessageQueue)).Msg("selection started")
	return Reply{
		Text:     donePreview(s.MessageQueue),
		Buttons:  selectionKeyboard(recents),
		Markdown: true,
	}, nil
}

// HandleText is only meaningful while awaiting a search query; free text in
// any other state is dropped without a reply.
func (u *relayUC) HandleText(ctx context.Context, tgID int64, text string) (Reply, error) {
	s := u.load(ctx, tgID)
	if s.State != model.StateAwaitingCompanySearch {
		u.log.Debug().Int64("tg_id", tgID).Str("state", string(s.State)).Msg("ignoring text message")
		return Reply{}, nil
	}

	results, err := u.crm.SearchCompanies(ctx, text)
	if err != nil {
		metrics.CompanySearch("error")
		u.log.Error().Err(err).Str("query", text).Msg("company search failed")
		return Reply{Text: "❌ Search failed. Please try again or use /cancel to exit."}, nil
	}

	// Each search supersedes the previous results, even an empty one.
	s.SearchResults = results

	if len(results) == 0 {
		metrics.CompanySearch("miss")
		u.store(ctx, tgID, s)
		return Reply{
			Text:    fmt.Sprintf("No companies found for %q. Try different terms.", text),
			Buttons: backCancelRow(),
		}, nil
	}

	metrics.CompanySearch("hit")
	s.State = model.StateAwaitingCompanySelection
	u.store(ctx, tgID, s)

	u.log.Info().Int64("tg_id", tgID).Str("query", text).Int("count", len(results)).Msg("company search completed")
	return Reply{
		Text:    "Select a company:",
		Buttons: searchResultsKeyboard(results, u.maxDisplay),
	}, nil
}

func (u *relayUC) HandleCallback(ctx context.Context, tgID int64, ev model.CallbackEvent) (Reply, error) {
	switch ev.Kind {
	case model.CallbackCancel:
		return u.cancel(ctx, tgID, true)
	case model.CallbackSearch:
		return u.startSearch(ctx, tgID)
	case model.CallbackSelect:
		return u.selectCompany(ctx, tgID, ev.CompanyID)
	case model.CallbackBack:
		return u.back(ctx, tgID)
	case model.CallbackConfirm:
		return u.flush(ctx, tgID)
	case model.CallbackNoop, model.CallbackUnknown:
		// Acknowledged by the transport; nothing to do.
		return Reply{}, nil
	}
	u.log.Debug().Int64("tg_id", tgID).Str("kind", string(ev.Kind)).Msg("unhandled callback kind")
	return Reply{}, nil
}

func (u *relayUC) startSearch(ctx context.Context, tgID int64) (Reply, error) {
	s := u.load(ctx, tgID)
	if s.State != model.StateAwaitingCompanySelection {
		u.log.Debug().Int64("tg_id", tgID).Str("state", string(s.State)).Msg("ignoring stale search button")
		return Reply{}, nil
	}
	s.State = model.StateAwaitingCompanySearch
	u.store(ctx, tgID, s)
	return Reply{Text: "🔍 Type the company name to search:", Edit: true}, nil
}

func (u *relayUC) selectCompany(ctx context.Context, tgID int64, companyID string) (Reply, error) {
	s := u.load(ctx, tgID)
	if s.State != model.StateAwaitingCompanySelection {
		u.log.Debug().Int64("tg_id", tgID).Str("state", string(s.State)).Msg("ignoring stale select button")
		return Reply{}, nil
	}

	company, ok := s.FindCompany(companyID)
	if !ok {
		return Reply{Text: "❌ Company not found. Please try again or use /cancel", Edit: true}, nil
	}

	s.Select(company)
	u.store(ctx, tgID, s)

	u.log.Info().
		Int64("tg_id", tgID).
		Str("company_id", company.ID).
		Str("company_name", company.Name).
		Msg("company selected")

	return Reply{
		Text: fmt.Sprintf("Add %d message(s) to **%s**?\n\nThey will be saved as one note in Attio.",
			len(s.MessageQueue), company.Name),
		Buttons: [][]adapter.InlineButton{{
			callbackButton("✓ Confirm", model.CallbackEvent{Kind: model.CallbackConfirm}),
			callbackButton("← Back", model.CallbackEvent{Kind: model.CallbackBack}),
			callbackButton("❌ Cancel", model.CallbackEvent{Kind: model.CallbackCancel}),
		}},
		Markdown: true,
		Edit:     true,
	}, nil
}

// back drops the selection and lands on the selection step without
// rebuilding the keyboard; the user reissues /done to see choices again.
func (u *relayUC) back(ctx context.Context, tgID int64) (Reply, error) {
	s := u.load(ctx, tgID)
	if s.State != model.StateAwaitingConfirmation && s.State != model.StateAwaitingCompanySearch {
		u.log.Debug().Int64("tg_id", tgID).Str("state", string(s.State)).Msg("ignoring stale back button")
		return Reply{}, nil
	}
	s.ClearSelection()
	u.store(ctx, tgID, s)
	return Reply{Text: "Going back... Please use /done again to select a company.", Edit: true}, nil
}

// flush formats the whole queue into exactly one note and submits it. On
// failure the session and queue stay untouched so confirm can be retried;
// the resulting at-least-once delivery is the accepted semantics.
func (u *relayUC) flush(ctx context.Context, tgID int64) (Reply, error) {
	s := u.load(ctx, tgID)
	if s.State != model.StateAwaitingConfirmation || s.SelectedCompanyID == "" || len(s.MessageQueue) == 0 {
		return Reply{Text: "❌ Missing required data. Please try again with /done", Edit: true}, nil
	}

	note := FormatMessagesForSingleNote(s.MessageQueue, time.Now())
	noteID, err := u.crm.CreateNote(ctx, adapter.CreateNoteInput{
		ParentObject:   "companies",
		ParentRecordID: s.SelectedCompanyID,
		Title:          note.Title,
		Format:         "markdown",
		Content:        note.Content,
	})
	if err != nil {
		metrics.FlushFailed()
		u.log.Error().Err(err).
			Int64("tg_id", tgID).
			Str("company_id", s.SelectedCompanyID).
			Msg("flush failed")
		return Reply{Text: "❌ Failed to save messages. Please try again or contact support.", Edit: true}, nil
	}

	if err := u.recents.Touch(ctx, tgID, model.CompanyRef{ID: s.SelectedCompanyID, Name: s.SelectedCompanyName}); err != nil {
		u.log.Warn().Err(err).Int64("tg_id", tgID).Msg("recent companies update failed")
	}
	if u.audit != nil {
		entry := &repository.NoteAudit{
			TgID:         tgID,
			CompanyID:    s.SelectedCompanyID,
			CompanyName:  s.SelectedCompanyName,
			NoteID:       noteID,
			MessageCount: len(s.MessageQueue),
			CreatedAt:    time.Now(),
		}
		if err := u.audit.Record(ctx, entry); err != nil {
			u.log.Warn().Err(err).Int64("tg_id", tgID).Msg("note audit write failed")
		}
	}

	count := len(s.MessageQueue)
	name := s.SelectedCompanyName
	u.log.Info().
		Int64("tg_id", tgID).
		Str("company_name", name).
		Int("message_count", count).
		Str("note_id", noteID).
		Msg("messages saved to company")

	metrics.NoteCreated()
	metrics.SessionReset("flush")
	s.Reset()
	u.store(ctx, tgID, s)

	return Reply{
		Text:     fmt.Sprintf("✅ Successfully added %d message(s) to **%s**!", count, name),
		Markdown: true,
		Edit:     true,
	}, nil
}

func (u *relayUC) Clear(ctx context.Context, tgID int64) (Reply, error) {
	s := u.load(ctx, tgID)
	if len(s.MessageQueue) == 0 {
		return Reply{Text: "✨ Queue is already empty."}, nil
	}

	cleared := len(s.MessageQueue)
	s.Reset()
	u.store(ctx, tgID, s)

	metrics.SessionReset("clear")
	u.log.Info().Int64("tg_id", tgID).Int("cleared_count", cleared).Msg("queue cleared")
	return Reply{Text: fmt.Sprintf("🗑️ Cleared %d message(s) from queue.", cleared)}, nil
}

func (u *relayUC) Cancel(ctx context.Context, tgID int64) (Reply, error) {
	return u.cancel(ctx, tgID, false)
}

func (u *relayUC) cancel(ctx context.Context, tgID int64, viaButton bool) (Reply, error) {
	s := u.load(ctx, tgID)
	s.Reset()
	u.store(ctx, tgID, s)

	metrics.SessionReset("cancel")
	u.log.Info().Int64("tg_id", tgID).Bool("via_button", viaButton).Msg("operation cancelled")
	if viaButton {
		return Reply{Text: "❌ Operation cancelled. Message queue cleared.", Edit: true}, nil
	}
	return Reply{Text: "❌ Operation cancelled. All data cleared."}, nil
}

// ---- keyboards & previews ----

func callbackButton(text string, ev model.CallbackEvent) adapter.InlineButton {
	return adapter.InlineButton{Text: text, Data: ev.Encode()}
}

// donePreview summarizes the queue before company selection.
func donePreview(queue []model.QueuedMessage) string {
	first := queue[0]
	last := queue[len(queue)-1]

	const dateLayout = "Jan 2, 03:04 PM"
	firstDate := time.Unix(first.Date, 0).UTC().Format(dateLayout)
	lastDate := time.Unix(last.Date, 0).UTC().Format(dateLayout)

	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Total:* %d message(s)\n", len(queue))
	fmt.Fprintf(&b, "📤 *From:* %s\n", markdownEscaper.Replace(first.ChatName))
	fmt.Fprintf(&b, "📅 *First:* %s\n", firstDate)
	fmt.Fprintf(&b, "📅 *Last:* %s\n\n", lastDate)
	fmt.Fprintf(&b, "*First message:* %s\n", previewText(first.Text, previewLen))
	if len(queue) > 1 {
		fmt.Fprintf(&b, "*Last message:* %s\n", previewText(last.Text, previewLen))
	}
	b.WriteString("\nWhich company are these messages for?")
	return b.String()
}

// selectionKeyboard offers up to four recent companies two per row, then
// search and cancel rows.
func selectionKeyboard(recents []model.CompanyRef) [][]adapter.InlineButton {
	var rows [][]adapter.InlineButton
	var row []adapter.InlineButton
	for i, c := range recents {
		if i == 4 {
			break
		}
		row = append(row, callbackButton("🏢 "+c.Name, model.CallbackEvent{Kind: model.CallbackSelect, CompanyID: c.ID}))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []adapter.InlineButton{callbackButton("🔍 Search company", model.CallbackEvent{Kind: model.CallbackSearch})})
	rows = append(rows, []adapter.InlineButton{callbackButton("❌ Cancel", model.CallbackEvent{Kind: model.CallbackCancel})})
	return rows
}

// searchResultsKeyboard shows at most maxDisplay results, one per row, with
// an inert truncation row when the directory returned more.
func searchResultsKeyboard(results []model.CompanyRef, maxDisplay int) [][]adapter.InlineButton {
	var rows [][]adapter.InlineButton
	display := results
	if len(display) > maxDisplay {
		display = display[:maxDisplay]
	}
	for _, c := range display {
		label := c.Name
		if c.Location != "" {
			label = c.Name + " - " + c.Location
		}
		rows = append(rows, []adapter.InlineButton{
			callbackButton(label, model.CallbackEvent{Kind: model.CallbackSelect, CompanyID: c.ID}),
		})
	}
	if len(results) > maxDisplay {
		rows = append(rows, []adapter.InlineButton{
			callbackButton(fmt.Sprintf("Showing %d of %d results", maxDisplay, len(results)),
				model.CallbackEvent{Kind: model.CallbackNoop}),
		})
	}
	rows = append(rows, backCancelRow()...)
	return rows
}

func backCancelRow() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{{
		callbackButton("← Back", model.CallbackEvent{Kind: model.CallbackBack}),
		callbackButton("❌ Cancel", model.CallbackEvent{Kind: model.CallbackCancel}),
	}}
}

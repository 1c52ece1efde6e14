package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-crm-relay/internal/domain/model"
)

// isForwarded reports whether the message carries any forward origin.
func isForwarded(m *tgbotapi.Message) bool {
	return m.ForwardDate != 0 || m.ForwardFrom != nil || m.ForwardFromChat != nil || m.ForwardSenderName != ""
}

// extractForwardedMessage maps a forwarded Telegram message onto a
// QueuedMessage. Returns false when the message has no forward origin;
// such messages are never queued.
func extractForwardedMessage(m *tgbotapi.Message) (model.QueuedMessage, bool) {
	if !isForwarded(m) {
		return model.QueuedMessage{}, false
	}

	var senderUsername, senderFirstName, senderLastName string
	chatName := "Unknown"

	switch {
	case m.ForwardFrom != nil:
		senderUsername = m.ForwardFrom.UserName
		senderFirstName = m.ForwardFrom.FirstName
		senderLastName = m.ForwardFrom.LastName
		chatName = joinName(senderFirstName, senderLastName)
	case m.ForwardFromChat != nil:
		if m.ForwardFromChat.Title != "" {
			chatName = m.ForwardFromChat.Title
		} else if m.ForwardFromChat.IsChannel() {
			chatName = "Unknown Channel"
		} else {
			chatName = "Unknown Chat"
		}
	case m.ForwardSenderName != "":
		chatName = m.ForwardSenderName
	}

	text := m.Text
	if text == "" {
		text = m.Caption
	}

	hasMedia := len(m.Photo) > 0 || m.Video != nil || m.Document != nil || m.Audio != nil
	var mediaType string
	switch {
	case len(m.Photo) > 0:
		mediaType = "photo"
	case m.Video != nil:
		mediaType = "video"
	case m.Document != nil:
		mediaType = "document"
	case m.Audio != nil:
		mediaType = "audio"
	case m.Voice != nil:
		mediaType = "voice"
	case m.VideoNote != nil:
		mediaType = "video_note"
	}

	return model.QueuedMessage{
		Text:            text,
		SenderUsername:  senderUsername,
		SenderFirstName: senderFirstName,
		SenderLastName:  senderLastName,
		ChatName:        chatName,
		Date:            int64(m.Date),
		MessageID:       m.MessageID,
		HasMedia:        hasMedia,
		MediaType:       mediaType,
	}, true
}

func joinName(first, last string) string {
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	}
	return "Unknown"
}

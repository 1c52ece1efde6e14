package model

import "strings"

// CallbackKind tags a decoded button press.
type CallbackKind string

const (
	CallbackSearch  CallbackKind = "search"
	CallbackSelect  CallbackKind = "select"
	CallbackConfirm CallbackKind = "confirm"
	CallbackBack    CallbackKind = "back"
	CallbackCancel  CallbackKind = "cancel"
	CallbackNoop    CallbackKind = "noop"
	CallbackUnknown CallbackKind = "unknown"
)

// CallbackEvent is the tagged form of a button payload. Decoding happens at
// the transport boundary; the state machine switches over Kind only.
type CallbackEvent struct {
	Kind      CallbackKind
	CompanyID string
}

const selectPrefix = "select:"

// ParseCallback decodes an opaque callback payload into a CallbackEvent.
// Anything unrecognized maps to CallbackUnknown.
func ParseCallback(data string) CallbackEvent {
	switch data {
	case "search":
		return CallbackEvent{Kind: CallbackSearch}
	case "confirm":
		return CallbackEvent{Kind: CallbackConfirm}
	case "back":
		return CallbackEvent{Kind: CallbackBack}
	case "cancel":
		return CallbackEvent{Kind: CallbackCancel}
	case "noop":
		return CallbackEvent{Kind: CallbackNoop}
	}
	if id, ok := strings.CutPrefix(data, selectPrefix); ok && id != "" {
		return CallbackEvent{Kind: CallbackSelect, CompanyID: id}
	}
	return CallbackEvent{Kind: CallbackUnknown}
}

// Encode renders the event back to its wire payload.
func (e CallbackEvent) Encode() string {
	if e.Kind == CallbackSelect {
		return selectPrefix + e.CompanyID
	}
	return string(e.Kind)
}

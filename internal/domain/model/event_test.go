package model

import "testing"

func TestParseCallback(t *testing.T) {
	cases := []struct {
		data string
		want CallbackEvent
	}{
		{"search", CallbackEvent{Kind: CallbackSearch}},
		{"confirm", CallbackEvent{Kind: CallbackConfirm}},
		{"back", CallbackEvent{Kind: CallbackBack}},
		{"cancel", CallbackEvent{Kind: CallbackCancel}},
		{"noop", CallbackEvent{Kind: CallbackNoop}},
		{"select:abc-123", CallbackEvent{Kind: CallbackSelect, CompanyID: "abc-123"}},
		{"select:", CallbackEvent{Kind: CallbackUnknown}},
		{"", CallbackEvent{Kind: CallbackUnknown}},
		{"SELECT:abc", CallbackEvent{Kind: CallbackUnknown}},
		{"gibberish", CallbackEvent{Kind: CallbackUnknown}},
	}
	for _, tc := range cases {
		if got := ParseCallback(tc.data); got != tc.want {
			t.Errorf("ParseCallback(%q) = %+v, want %+v", tc.data, got, tc.want)
		}
	}
}

func TestCallbackEventRoundTrip(t *testing.T) {
	events := []CallbackEvent{
		{Kind: CallbackSearch},
		{Kind: CallbackConfirm},
		{Kind: CallbackBack},
		{Kind: CallbackCancel},
		{Kind: CallbackNoop},
		{Kind: CallbackSelect, CompanyID: "rec_01"},
	}
	for _, ev := range events {
		if got := ParseCallback(ev.Encode()); got != ev {
			t.Errorf("round trip %+v -> %q -> %+v", ev, ev.Encode(), got)
		}
	}
}

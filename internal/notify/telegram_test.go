package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTelegram_Disabled(t *testing.T) {
	if NewTelegram("", "").Enabled() {
		t.Error("empty token must disable the notifier")
	}
	// Notify on a disabled notifier is a no-op, not an error.
	if err := NewTelegram("", "123").Notify(context.Background(), "hi"); err != nil {
		t.Errorf("disabled Notify: %v", err)
	}
}

func TestTelegram_SendsMessage(t *testing.T) {
	var gotPath, gotChatID, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		r.ParseForm()
		gotChatID = r.PostFormValue("chat_id")
		gotText = r.PostFormValue("text")
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	tg := NewTelegram("bot-token", "42")
	tg.baseURL = srv.URL

	if err := tg.Notify(context.Background(), "hr fetch failed"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if gotPath != "/botbot-token/sendMessage" {
		t.Errorf("path: got %q", gotPath)
	}
	if gotChatID != "42" || gotText != "hr fetch failed" {
		t.Errorf("form values: chat_id=%q text=%q", gotChatID, gotText)
	}
}

func TestTelegram_Non200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tg := NewTelegram("bot-token", "42")
	tg.baseURL = srv.URL

	if err := tg.Notify(context.Background(), "x"); err == nil {
		t.Error("non-200 response should surface as an error")
	}
}

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeNotifier struct {
	ch   Channel
	err  error
	sent []Message
}

func (f *fakeNotifier) Channel() Channel { return f.ch }

func (f *fakeNotifier) Send(_ context.Context, msg Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}

func TestDispatcher_SendAll(t *testing.T) {
	d := NewDispatcher(nil)
	ok := &fakeNotifier{ch: ChannelWebhook}
	bad := &fakeNotifier{ch: ChannelTelegram, err: errors.New("boom")}
	d.Register(ok)
	d.Register(bad)

	err := d.SendAll(context.Background(), Message{Title: "t"})
	if err == nil {
		t.Fatal("expected error from failing channel")
	}
	if !strings.Contains(err.Error(), "1/2") {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ok.sent) != 1 || len(bad.sent) != 1 {
		t.Fatalf("every channel should be attempted, got %d and %d", len(ok.sent), len(bad.sent))
	}
}

func TestDispatcher_UnregisteredChannel(t *testing.T) {
	d := NewDispatcher(nil)
	if err := d.Dispatch(context.Background(), []Channel{ChannelTelegram}, Message{}); err != nil {
		t.Fatalf("unregistered channel should be skipped: %v", err)
	}
}

func TestWebhookNotifier(t *testing.T) {
	var got Message
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(WebhookConfig{URL: srv.URL, Headers: map[string]string{"Authorization": "Bearer x"}})
	msg := Message{Title: "Draft ready", Body: "body", Format: "plain", URL: "file:///tmp/a.json"}
	if err := n.Send(context.Background(), msg); err != nil {
		t.Fatal(err)
	}
	if got != msg {
		t.Fatalf("payload mismatch: %+v", got)
	}
	if auth != "Bearer x" {
		t.Fatalf("header not forwarded: %q", auth)
	}
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(WebhookConfig{URL: srv.URL}).Send(context.Background(), Message{})
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestTelegramNotifier(t *testing.T) {
	var path string
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewDecoder(r.Body).Decode(&payload)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier(TelegramConfig{BotToken: "123:abc", ChannelID: "@review", APIBase: srv.URL + "/"})
	err := n.Send(context.Background(), Message{Title: "Week of Dec. 8", Body: "3 sources (draft)", Format: "plain"})
	if err != nil {
		t.Fatal(err)
	}
	if path != "/bot123:abc/sendMessage" {
		t.Fatalf("unexpected path %q", path)
	}
	if payload["chat_id"] != "@review" || payload["parse_mode"] != "MarkdownV2" {
		t.Fatalf("unexpected payload %v", payload)
	}
	want := "*Week of Dec\\. 8*\n\n3 sources \\(draft\\)"
	if payload["text"] != want {
		t.Fatalf("text = %q, want %q", payload["text"], want)
	}
}

func TestTelegramNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false,"description":"chat not found"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewTelegramNotifier(TelegramConfig{BotToken: "t", APIBase: srv.URL})
	err := n.Send(context.Background(), Message{Body: "x"})
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("expected API error, got %v", err)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	if got := EscapeMarkdown("a_b*c.d!"); got != `a\_b\*c\.d\!` {
		t.Fatalf("got %q", got)
	}
}

package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/draana/whatsbot/internal/history"
	"github.com/draana/whatsbot/internal/model/conversation"
	relayService "github.com/draana/whatsbot/internal/service/relay"
)

type fakeCompleter struct {
	reply  string
	err    error
	called bool
}

func (c *fakeCompleter) Generate(_ context.Context, _ []conversation.Turn, _ string) (string, error) {
	c.called = true
	return c.reply, c.err
}

type sent struct {
	phone   string
	message string
}

type fakeDispatcher struct {
	sent []sent
}

func (d *fakeDispatcher) SendText(_ context.Context, phone, message string) error {
	d.sent = append(d.sent, sent{phone, message})
	return nil
}

func setupRouter(completer *fakeCompleter, dispatcher *fakeDispatcher) (*chi.Mux, *history.MemoryStore) {
	store := history.NewMemoryStore()
	relaySvc := relayService.NewService(store, completer, dispatcher, 10)
	handler := New(relaySvc)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, store
}

func postJSON(t *testing.T, r http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeStatus(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body["status"]
}

func TestWebhookEndToEnd(t *testing.T) {
	completer := &fakeCompleter{reply: "Olá!"}
	dispatcher := &fakeDispatcher{}
	r, store := setupRouter(completer, dispatcher)

	resp := postJSON(t, r, "/webhook",
		`{"texto":{"mensagem":"Oi"},"telefone":"5511999999999","fromMe":false}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if status := decodeStatus(t, resp); status != "ok" {
		t.Fatalf("expected status ok, got %q", status)
	}

	turns, err := store.Recent(context.Background(), "5511999999999", 10)
	if err != nil {
		t.Fatalf("Recent err: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 persisted turns, got %d", len(turns))
	}
	if turns[0].Role != conversation.RoleUser || turns[0].Content != "Oi" {
		t.Fatalf("unexpected first turn %+v", turns[0])
	}
	if turns[1].Role != conversation.RoleAssistant || turns[1].Content != "Olá!" {
		t.Fatalf("unexpected second turn %+v", turns[1])
	}

	if len(dispatcher.sent) != 1 || dispatcher.sent[0] != (sent{"5511999999999", "Olá!"}) {
		t.Fatalf("unexpected dispatches %+v", dispatcher.sent)
	}
}

func TestWebhookIgnoredEcho(t *testing.T) {
	completer := &fakeCompleter{reply: "Olá!"}
	dispatcher := &fakeDispatcher{}
	r, store := setupRouter(completer, dispatcher)

	resp := postJSON(t, r, "/webhook",
		`{"fromMe":true,"texto":{"mensagem":"eco"},"telefone":"555"}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if status := decodeStatus(t, resp); status != "ignored" {
		t.Fatalf("expected status ignored, got %q", status)
	}

	turns, _ := store.Recent(context.Background(), "555", 10)
	if len(turns) != 0 || completer.called || len(dispatcher.sent) != 0 {
		t.Fatal("expected no side effects for echo payload")
	}
}

func TestWebhookMalformedBody(t *testing.T) {
	r, _ := setupRouter(&fakeCompleter{}, &fakeDispatcher{})

	resp := postJSON(t, r, "/webhook", "not-json")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestWebhookCompletionFailure(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("upstream down")}
	dispatcher := &fakeDispatcher{}
	r, _ := setupRouter(completer, dispatcher)

	resp := postJSON(t, r, "/webhook",
		`{"texto":{"mensagem":"Oi"},"telefone":"555"}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 despite completion failure, got %d", resp.Code)
	}
	if status := decodeStatus(t, resp); status != "received" {
		t.Fatalf("expected status received, got %q", status)
	}
	if len(dispatcher.sent) != 0 {
		t.Fatal("expected no dispatch after completion failure")
	}
}

func TestWebhookAliasRoute(t *testing.T) {
	completer := &fakeCompleter{reply: "Olá!"}
	r, _ := setupRouter(completer, &fakeDispatcher{})

	resp := postJSON(t, r, "/on-new-message",
		`{"text":{"message":"Oi"},"phone":"555"}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if status := decodeStatus(t, resp); status != "ok" {
		t.Fatalf("expected status ok, got %q", status)
	}
}

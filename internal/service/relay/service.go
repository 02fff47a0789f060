// Package relay runs the per-message pipeline: normalize the webhook payload,
// read recent history, persist the user turn, generate a completion, persist
// the assistant turn, and dispatch the reply.
package relay

import (
	"context"
	"log"

	"github.com/draana/whatsbot/internal/history"
	"github.com/draana/whatsbot/internal/model/conversation"
	"github.com/draana/whatsbot/internal/payload"
)

// Completer produces an assistant reply for the current conversation window.
type Completer interface {
	Generate(ctx context.Context, history []conversation.Turn, userMessage string) (string, error)
}

// Dispatcher delivers generated text back to the sender's channel.
type Dispatcher interface {
	SendText(ctx context.Context, phone, message string) error
}

// Outcome is the terminal state of one webhook invocation. Every outcome is
// acknowledged with 200 at the transport layer; the distinction exists for the
// response body and the logs.
type Outcome int

const (
	// OutcomeIgnored means the payload was not an actionable user message.
	OutcomeIgnored Outcome = iota
	// OutcomeFailed means completion failed and no reply was produced.
	OutcomeFailed
	// OutcomeReplied means a reply was generated; delivery and persistence
	// are best effort.
	OutcomeReplied
)

// Service orchestrates one inbound message through to a terminal state.
type Service struct {
	store        history.Store
	completer    Completer
	dispatcher   Dispatcher
	historyLimit int
}

// NewService wires the pipeline collaborators.
func NewService(store history.Store, completer Completer, dispatcher Dispatcher, historyLimit int) *Service {
	if historyLimit <= 0 {
		historyLimit = history.DefaultLimit
	}
	return &Service{
		store:        store,
		completer:    completer,
		dispatcher:   dispatcher,
		historyLimit: historyLimit,
	}
}

// Process handles one decoded webhook payload. Store and dispatch failures
// are logged and absorbed so the provider never sees an error for them; only
// a failed completion aborts the pipeline, leaving the sender without a reply.
//
// Concurrent messages from the same sender are not serialized: both may read
// history before either user turn lands, so one can miss the other in its
// completion window. Accepted limitation, the store stays consistent either way.
func (s *Service) Process(ctx context.Context, raw map[string]any) Outcome {
	msg, ok := payload.Normalize(raw)
	if !ok {
		log.Printf("[relay] payload ignored: no message text, no sender identity, or echo")
		return OutcomeIgnored
	}

	log.Printf("[relay] inbound message from session=%s, length=%d", msg.SessionID, len(msg.Text))

	// History is read before the inbound turn is persisted so the current
	// message cannot appear twice in the completion window.
	turns, err := s.store.Recent(ctx, msg.SessionID, s.historyLimit)
	if err != nil {
		log.Printf("[relay] history read failed for session=%s, continuing with empty history: %v", msg.SessionID, err)
		turns = nil
	}

	if err := s.store.Append(ctx, msg.SessionID, conversation.RoleUser, msg.Text); err != nil {
		log.Printf("[relay] failed to persist user turn for session=%s: %v", msg.SessionID, err)
	}

	reply, err := s.completer.Generate(ctx, turns, msg.Text)
	if err != nil {
		log.Printf("[relay] completion failed for session=%s: %v", msg.SessionID, err)
		return OutcomeFailed
	}

	if err := s.store.Append(ctx, msg.SessionID, conversation.RoleAssistant, reply); err != nil {
		log.Printf("[relay] failed to persist assistant turn for session=%s: %v", msg.SessionID, err)
	}

	if err := s.dispatcher.SendText(ctx, msg.SessionID, reply); err != nil {
		log.Printf("[relay] dispatch failed for session=%s: %v", msg.SessionID, err)
	} else {
		log.Printf("[relay] reply dispatched to session=%s, length=%d", msg.SessionID, len(reply))
	}

	return OutcomeReplied
}

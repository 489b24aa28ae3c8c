// Package turn reconciles asynchronous completion replies back into the
// session store while the user may have switched, renamed or deleted the
// target session.
package turn

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"parley/internal/chat"
)

var (
	ErrStoreRequired     = errors.New("session store is required")
	ErrCompleterRequired = errors.New("completer is required")
)

// Status is the terminal state of one submitted turn.
type Status string

const (
	// StatusNoop: the submission was rejected up front (blank text or the
	// session was already gone) and the store is untouched.
	StatusNoop Status = "noop"
	// StatusReconciled: the reply was appended to the target session.
	StatusReconciled Status = "reconciled"
	// StatusDiscarded: the reply arrived but was dropped, either because
	// the session was deleted mid-flight or because it duplicated the
	// session's last message.
	StatusDiscarded Status = "discarded"
	// StatusFailed: the completion call failed; the user message stays.
	StatusFailed Status = "failed"
)

// Result reports how one turn ended.
type Result struct {
	Status    Status
	SessionID string
	Reply     string
	Err       error
}

// Completer executes one completion request for a session history.
type Completer interface {
	Complete(ctx context.Context, history []chat.Message) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, history []chat.Message) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, history []chat.Message) (string, error) {
	return f(ctx, history)
}

// Config configures one Coordinator.
type Config struct {
	Store     *chat.Store
	Completer Completer
	Logger    zerolog.Logger
}

// Coordinator drives the turn pipeline: append the user message, request a
// completion over the current history, and merge the reply back in. Turns
// on different sessions may run concurrently; turns on one session are
// expected to be sequential, with the duplicate-append guard as the safety
// net when a reply would otherwise land twice.
type Coordinator struct {
	store     *chat.Store
	completer Completer
	log       zerolog.Logger
}

// New constructs a Coordinator.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Store == nil {
		return nil, ErrStoreRequired
	}
	if cfg.Completer == nil {
		return nil, ErrCompleterRequired
	}
	return &Coordinator{
		store:     cfg.Store,
		completer: cfg.Completer,
		log:       cfg.Logger,
	}, nil
}

// SubmitTurn runs one full turn against sessionID. It blocks for the
// completion call; callers wanting asynchrony run it on their own
// goroutine. Every outcome is a Result, never a panic or a propagated
// hard failure.
func (c *Coordinator) SubmitTurn(ctx context.Context, sessionID, text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Status: StatusNoop, SessionID: sessionID}
	}
	if _, err := c.store.GetSession(sessionID); err != nil {
		return Result{Status: StatusNoop, SessionID: sessionID}
	}

	// The user message lands synchronously so the conversation reflects
	// the submission before any network wait.
	if _, err := c.store.AppendMessage(sessionID, chat.Message{Sender: chat.SenderUser, Text: text}); err != nil {
		return Result{Status: StatusNoop, SessionID: sessionID}
	}

	session, err := c.store.GetSession(sessionID)
	if err != nil {
		return Result{Status: StatusDiscarded, SessionID: sessionID}
	}

	reply, err := c.completer.Complete(ctx, session.Messages)
	if err != nil {
		c.log.Warn().Err(err).Str("session", sessionID).Msg("completion failed")
		return Result{Status: StatusFailed, SessionID: sessionID, Err: err}
	}

	return c.reconcile(sessionID, reply)
}

// reconcile appends the reply unless the session disappeared while the
// request was in flight, or the session's last message is already this
// exact reply. The duplicate check looks at the last message only; a
// coincidentally repeated reply back-to-back is suppressed as well, which
// matches the idempotent-resend guard this exists for.
func (c *Coordinator) reconcile(sessionID, reply string) Result {
	current, err := c.store.GetSession(sessionID)
	if err != nil {
		c.log.Debug().Str("session", sessionID).Msg("session deleted mid-flight, reply discarded")
		return Result{Status: StatusDiscarded, SessionID: sessionID, Reply: reply}
	}

	if n := len(current.Messages); n > 0 {
		last := current.Messages[n-1]
		if last.Sender == chat.SenderAssistant && last.Text == reply {
			return Result{Status: StatusDiscarded, SessionID: sessionID, Reply: reply}
		}
	}

	if _, err := c.store.AppendMessage(sessionID, chat.Message{Sender: chat.SenderAssistant, Text: reply}); err != nil {
		return Result{Status: StatusDiscarded, SessionID: sessionID, Reply: reply}
	}
	return Result{Status: StatusReconciled, SessionID: sessionID, Reply: reply}
}

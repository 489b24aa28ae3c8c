package turn

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"parley/internal/chat"
	"parley/internal/completion"
)

func newCoordinator(t *testing.T, store *chat.Store, completer Completer) *Coordinator {
	t.Helper()

	coordinator, err := New(Config{
		Store:     store,
		Completer: completer,
		Logger:    zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return coordinator
}

func staticReply(reply string) Completer {
	return CompleterFunc(func(context.Context, []chat.Message) (string, error) {
		return reply, nil
	})
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Completer: staticReply("x")}); !errors.Is(err, ErrStoreRequired) {
		t.Fatalf("New() error = %v, want ErrStoreRequired", err)
	}
	if _, err := New(Config{Store: chat.NewStore(nil)}); !errors.Is(err, ErrCompleterRequired) {
		t.Fatalf("New() error = %v, want ErrCompleterRequired", err)
	}
}

func TestSubmitTurnAppendsUserAndReply(t *testing.T) {
	t.Parallel()

	store := chat.NewStore(nil)
	created := store.CreateSession()
	if created.Name != "Chat 1" {
		t.Fatalf("CreateSession() name = %q, want %q", created.Name, "Chat 1")
	}

	var gotHistory []chat.Message
	coordinator := newCoordinator(t, store, CompleterFunc(func(_ context.Context, history []chat.Message) (string, error) {
		gotHistory = append([]chat.Message(nil), history...)
		return "hello", nil
	}))

	result := coordinator.SubmitTurn(context.Background(), created.ID, "hi")
	if result.Status != StatusReconciled {
		t.Fatalf("Status = %q, want %q", result.Status, StatusReconciled)
	}
	if result.Reply != "hello" {
		t.Fatalf("Reply = %q, want %q", result.Reply, "hello")
	}

	// The request history already contains the just-appended user message.
	if len(gotHistory) != 1 || gotHistory[0].Sender != chat.SenderUser || gotHistory[0].Text != "hi" {
		t.Fatalf("request history = %#v, want [user hi]", gotHistory)
	}

	session, err := store.GetSession(created.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if len(session.Messages) != 2 {
		t.Fatalf("Messages len = %d, want 2", len(session.Messages))
	}
	if session.Messages[0] != (chat.Message{Sender: chat.SenderUser, Text: "hi"}) {
		t.Fatalf("Messages[0] = %#v, want user hi", session.Messages[0])
	}
	if session.Messages[1] != (chat.Message{Sender: chat.SenderAssistant, Text: "hello"}) {
		t.Fatalf("Messages[1] = %#v, want assistant hello", session.Messages[1])
	}
}

func TestSubmitTurnBlankTextIsNoop(t *testing.T) {
	t.Parallel()

	store := chat.NewStore(nil)
	created := store.CreateSession()
	coordinator := newCoordinator(t, store, staticReply("never"))

	result := coordinator.SubmitTurn(context.Background(), created.ID, "   \t  ")
	if result.Status != StatusNoop {
		t.Fatalf("Status = %q, want %q", result.Status, StatusNoop)
	}

	session, err := store.GetSession(created.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if len(session.Messages) != 0 {
		t.Fatalf("Messages len = %d, want 0", len(session.Messages))
	}
}

func TestSubmitTurnUnknownSessionIsNoop(t *testing.T) {
	t.Parallel()

	store := chat.NewStore(nil)
	store.CreateSession()

	called := false
	coordinator := newCoordinator(t, store, CompleterFunc(func(context.Context, []chat.Message) (string, error) {
		called = true
		return "never", nil
	}))

	result := coordinator.SubmitTurn(context.Background(), "missing", "hi")
	if result.Status != StatusNoop {
		t.Fatalf("Status = %q, want %q", result.Status, StatusNoop)
	}
	if called {
		t.Fatalf("completer was called for a missing session")
	}

	summaries := store.ListSessions()
	if len(summaries) != 1 || summaries[0].MessageCount != 0 {
		t.Fatalf("store changed by no-op submit: %#v", summaries)
	}
}

func TestSubmitTurnFailureKeepsUserMessage(t *testing.T) {
	t.Parallel()

	store := chat.NewStore(nil)
	created := store.CreateSession()

	wantErr := &completion.ServiceError{StatusCode: 503}
	coordinator := newCoordinator(t, store, CompleterFunc(func(context.Context, []chat.Message) (string, error) {
		return "", wantErr
	}))

	result := coordinator.SubmitTurn(context.Background(), created.ID, "hi")
	if result.Status != StatusFailed {
		t.Fatalf("Status = %q, want %q", result.Status, StatusFailed)
	}
	var svcErr *completion.ServiceError
	if !errors.As(result.Err, &svcErr) {
		t.Fatalf("Err = %v, want *completion.ServiceError", result.Err)
	}

	session, err := store.GetSession(created.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if len(session.Messages) != 1 || session.Messages[0].Sender != chat.SenderUser {
		t.Fatalf("Messages = %#v, want only the user message", session.Messages)
	}
}

func TestReplyDiscardedWhenSessionDeletedMidFlight(t *testing.T) {
	t.Parallel()

	store := chat.NewStore(nil)
	doomed := store.CreateSession()
	bystander := store.CreateSession()
	if _, err := store.AppendMessage(bystander.ID, chat.Message{Sender: chat.SenderUser, Text: "unrelated"}); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}

	coordinator := newCoordinator(t, store, CompleterFunc(func(context.Context, []chat.Message) (string, error) {
		// Delete the target while the request is in flight.
		store.DeleteSession(doomed.ID)
		return "too late", nil
	}))

	result := coordinator.SubmitTurn(context.Background(), doomed.ID, "x")
	if result.Status != StatusDiscarded {
		t.Fatalf("Status = %q, want %q", result.Status, StatusDiscarded)
	}

	if _, err := store.GetSession(doomed.ID); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("GetSession(doomed) error = %v, want ErrSessionNotFound (never resurrect)", err)
	}
	other, err := store.GetSession(bystander.ID)
	if err != nil {
		t.Fatalf("GetSession(bystander) error = %v", err)
	}
	if len(other.Messages) != 1 || other.Messages[0].Text != "unrelated" {
		t.Fatalf("bystander messages = %#v, want untouched", other.Messages)
	}
}

func TestDuplicateReplyIsDiscarded(t *testing.T) {
	t.Parallel()

	store := chat.NewStore(nil)
	created := store.CreateSession()
	if _, err := store.AppendMessage(created.ID, chat.Message{Sender: chat.SenderUser, Text: "hi"}); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}
	if _, err := store.AppendMessage(created.ID, chat.Message{Sender: chat.SenderAssistant, Text: "hello"}); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}

	coordinator := newCoordinator(t, store, staticReply("hello"))

	// Simulate a resend landing on a log whose last message is already
	// this exact reply.
	result := coordinator.reconcile(created.ID, "hello")
	if result.Status != StatusDiscarded {
		t.Fatalf("Status = %q, want %q", result.Status, StatusDiscarded)
	}

	session, err := store.GetSession(created.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if len(session.Messages) != 2 {
		t.Fatalf("Messages len = %d, want 2 (duplicate must not append)", len(session.Messages))
	}
}

func TestDuplicateGuardComparesLastMessageOnly(t *testing.T) {
	t.Parallel()

	store := chat.NewStore(nil)
	created := store.CreateSession()
	if _, err := store.AppendMessage(created.ID, chat.Message{Sender: chat.SenderAssistant, Text: "hello"}); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}
	if _, err := store.AppendMessage(created.ID, chat.Message{Sender: chat.SenderUser, Text: "again"}); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}

	coordinator := newCoordinator(t, store, staticReply("hello"))

	// "hello" exists earlier in the log but is not the last message, so
	// the reply appends.
	result := coordinator.reconcile(created.ID, "hello")
	if result.Status != StatusReconciled {
		t.Fatalf("Status = %q, want %q", result.Status, StatusReconciled)
	}

	session, err := store.GetSession(created.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if len(session.Messages) != 3 {
		t.Fatalf("Messages len = %d, want 3", len(session.Messages))
	}
}

func TestTurnsOnDifferentSessionsAreIndependent(t *testing.T) {
	t.Parallel()

	store := chat.NewStore(nil)
	first := store.CreateSession()
	second := store.CreateSession()

	firstStarted := make(chan struct{})
	firstRelease := make(chan struct{})
	coordinator := newCoordinator(t, store, CompleterFunc(func(_ context.Context, history []chat.Message) (string, error) {
		if history[len(history)-1].Text == "slow" {
			close(firstStarted)
			<-firstRelease
			return "slow reply", nil
		}
		return "fast reply", nil
	}))

	firstDone := make(chan Result, 1)
	go func() {
		firstDone <- coordinator.SubmitTurn(context.Background(), first.ID, "slow")
	}()
	<-firstStarted

	result := coordinator.SubmitTurn(context.Background(), second.ID, "fast")
	if result.Status != StatusReconciled || result.Reply != "fast reply" {
		t.Fatalf("second session result = %#v, want reconciled fast reply", result)
	}

	close(firstRelease)
	if result := <-firstDone; result.Status != StatusReconciled || result.Reply != "slow reply" {
		t.Fatalf("first session result = %#v, want reconciled slow reply", result)
	}

	session, err := store.GetSession(first.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if len(session.Messages) != 2 || session.Messages[1].Text != "slow reply" {
		t.Fatalf("first session messages = %#v, want its own reply", session.Messages)
	}
}

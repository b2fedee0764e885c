package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/intentlab/intent-backend/internal/types"
)

func TestChat_AppendsBothConversationRows(t *testing.T) {
	gdb := newTestDB(t)
	r := newTestRepos(t, gdb)
	user := seedUser(t, r, "chat@example.com")
	intent := seedIntent(t, r, user.ID, "write daily")

	ark := &fakeArk{reply: "What did you actually write today?"}
	svc := NewChatService(gdb, testLogger(t), ark, r.intent, r.convo)

	reply, err := svc.Chat(context.Background(), intent.ID, "I wrote a page")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != "What did you actually write today?" {
		t.Fatalf("unexpected reply %q", reply)
	}

	turns, err := r.convo.GetRecentByIntentID(context.Background(), nil, intent.ID, 10)
	if err != nil {
		t.Fatalf("load turns: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(turns))
	}
	// Newest first: assistant row sorts after the user row.
	if turns[0].Role != types.ConversationRoleAssistant || turns[1].Role != types.ConversationRoleUser {
		t.Fatalf("unexpected row order: %q then %q", turns[0].Role, turns[1].Role)
	}
	if turns[1].Content != "I wrote a page" {
		t.Fatalf("user turn not persisted: %q", turns[1].Content)
	}
}

func TestChat_ReplaysHistoryChronologically(t *testing.T) {
	gdb := newTestDB(t)
	r := newTestRepos(t, gdb)
	user := seedUser(t, r, "history@example.com")
	intent := seedIntent(t, r, user.ID, "save money")

	base := time.Now().Add(-time.Hour)
	history := []*types.AIConversation{
		{ID: uuid.New(), IntentID: intent.ID, Role: types.ConversationRoleUser, Content: "first", CreatedAt: base},
		{ID: uuid.New(), IntentID: intent.ID, Role: types.ConversationRoleAssistant, Content: "second", CreatedAt: base.Add(time.Minute)},
	}
	if _, err := r.convo.Create(context.Background(), nil, history); err != nil {
		t.Fatalf("seed history: %v", err)
	}

	ark := &fakeArk{reply: "noted"}
	svc := NewChatService(gdb, testLogger(t), ark, r.intent, r.convo)
	if _, err := svc.Chat(context.Background(), intent.ID, "third"); err != nil {
		t.Fatalf("Chat: %v", err)
	}

	// system + 2 history turns + new user message
	if len(ark.last) != 4 {
		t.Fatalf("expected 4 outbound messages, got %d", len(ark.last))
	}
	if ark.last[0].Role != "system" {
		t.Fatalf("first message must be the persona prompt")
	}
	if ark.last[1].Content != "first" || ark.last[2].Content != "second" || ark.last[3].Content != "third" {
		t.Fatalf("history not replayed chronologically: %+v", ark.last[1:])
	}
}

func TestChat_GatewayFailureAppendsNothing(t *testing.T) {
	gdb := newTestDB(t)
	r := newTestRepos(t, gdb)
	user := seedUser(t, r, "chatfail@example.com")
	intent := seedIntent(t, r, user.ID, "meditate")

	ark := &fakeArk{err: &GatewayError{StatusCode: 503, Message: "unavailable"}}
	svc := NewChatService(gdb, testLogger(t), ark, r.intent, r.convo)

	_, err := svc.Chat(context.Background(), intent.ID, "hello")
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	turns, _ := r.convo.GetRecentByIntentID(context.Background(), nil, intent.ID, 10)
	if len(turns) != 0 {
		t.Fatalf("failed turn must not persist rows, got %d", len(turns))
	}
}

func TestChat_UnknownIntent(t *testing.T) {
	gdb := newTestDB(t)
	r := newTestRepos(t, gdb)
	svc := NewChatService(gdb, testLogger(t), &fakeArk{reply: "x"}, r.intent, r.convo)

	if _, err := svc.Chat(context.Background(), uuid.New(), "hi"); !errors.Is(err, ErrIntentNotFound) {
		t.Fatalf("expected ErrIntentNotFound, got %v", err)
	}
}

package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestVerify_ReturnsParsedJudgment(t *testing.T) {
	gdb := newTestDB(t)
	r := newTestRepos(t, gdb)
	user := seedUser(t, r, "judge@example.com")
	intent := seedIntent(t, r, user.ID, "learn violin")

	ark := &fakeArk{reply: `{"passed":true,"credibility_score":75,"analysis":"clear signs of action","concerns":["pace may slip"]}`}
	svc := NewVerificationService(gdb, testLogger(t), ark, r.intent, r.record, r.convo, r.progress)

	result, err := svc.Verify(context.Background(), intent.ID)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !result.Passed || result.CredibilityScore != 75 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.Concerns) != 1 {
		t.Fatalf("concerns not parsed: %+v", result.Concerns)
	}
	// The engine itself never writes.
	records, _ := r.record.GetRecentByIntentID(context.Background(), nil, intent.ID, 5)
	if len(records) != 0 {
		t.Fatalf("Verify must not persist records, got %d", len(records))
	}
}

func TestVerify_PromptCarriesIntentFields(t *testing.T) {
	gdb := newTestDB(t)
	r := newTestRepos(t, gdb)
	user := seedUser(t, r, "prompt@example.com")
	intent := seedIntent(t, r, user.ID, "open a bakery")

	ark := &fakeArk{reply: `{"passed":false,"credibility_score":20,"analysis":"a","concerns":[]}`}
	svc := NewVerificationService(gdb, testLogger(t), ark, r.intent, r.record, r.convo, r.progress)
	if _, err := svc.Verify(context.Background(), intent.ID); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(ark.last) != 2 {
		t.Fatalf("expected system + context messages, got %d", len(ark.last))
	}
	if !strings.Contains(ark.last[0].Content, "open a bakery") {
		t.Fatalf("system prompt missing intent title")
	}
}

func TestVerify_UnknownIntent(t *testing.T) {
	gdb := newTestDB(t)
	r := newTestRepos(t, gdb)
	svc := NewVerificationService(gdb, testLogger(t), &fakeArk{}, r.intent, r.record, r.convo, r.progress)

	if _, err := svc.Verify(context.Background(), uuid.New()); !errors.Is(err, ErrIntentNotFound) {
		t.Fatalf("expected ErrIntentNotFound, got %v", err)
	}
}

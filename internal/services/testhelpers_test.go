package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/intentlab/intent-backend/internal/repos"
	"github.com/intentlab/intent-backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = gdb.AutoMigrate(
		&types.User{},
		&types.Intent{},
		&types.IntentStage{},
		&types.VerificationRecord{},
		&types.AIConversation{},
		&types.IntentProgress{},
		&types.IntentMarketplace{},
		&types.ArkCallLog{},
	)
	if err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return gdb
}

type testRepos struct {
	user        repos.UserRepo
	intent      repos.IntentRepo
	stage       repos.IntentStageRepo
	record      repos.VerificationRecordRepo
	convo       repos.AIConversationRepo
	progress    repos.IntentProgressRepo
	marketplace repos.MarketplaceRepo
}

func newTestRepos(t *testing.T, gdb *gorm.DB) testRepos {
	t.Helper()
	log := testLogger(t)
	return testRepos{
		user:        repos.NewUserRepo(gdb, log),
		intent:      repos.NewIntentRepo(gdb, log),
		stage:       repos.NewIntentStageRepo(gdb, log),
		record:      repos.NewVerificationRecordRepo(gdb, log),
		convo:       repos.NewAIConversationRepo(gdb, log),
		progress:    repos.NewIntentProgressRepo(gdb, log),
		marketplace: repos.NewMarketplaceRepo(gdb, log),
	}
}

func seedUser(t *testing.T, r testRepos, email string) *types.User {
	t.Helper()
	user := &types.User{ID: uuid.New(), Email: email, Password: "x", Name: "Test User"}
	if _, err := r.user.Create(context.Background(), nil, []*types.User{user}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedIntent(t *testing.T, r testRepos, userID uuid.UUID, title string) *types.Intent {
	t.Helper()
	intent := &types.Intent{
		ID:             uuid.New(),
		UserID:         userID,
		Title:          title,
		Description:    "desc for " + title,
		Category:       "学习成长",
		TimeWindowDays: 90,
		Status:         types.IntentStatusActive,
		Stage:          "initial",
	}
	if _, err := r.intent.Create(context.Background(), nil, []*types.Intent{intent}); err != nil {
		t.Fatalf("seed intent: %v", err)
	}
	return intent
}

// Fake pipeline collaborators. Each returns its configured result or error
// and counts invocations.

type fakeMiner struct {
	result *MinedIntent
	err    error
	calls  int
}

func (f *fakeMiner) MineIntent(ctx context.Context, userInput string, history []*types.AIConversation) (*MinedIntent, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakePlanner struct {
	result []PlannedStage
	err    error
	calls  int
}

func (f *fakePlanner) PlanStages(ctx context.Context, intent *types.Intent) ([]PlannedStage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeVerifier struct {
	result *VerificationResult
	err    error
	calls  int
}

func (f *fakeVerifier) Verify(ctx context.Context, intentID uuid.UUID) (*VerificationResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeTracker struct {
	result *EvolutionResult
	err    error
	calls  int
}

func (f *fakeTracker) TrackEvolution(ctx context.Context, intentID uuid.UUID) (*EvolutionResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeArk scripts gateway replies for services that talk to the model
// directly.
type fakeArk struct {
	reply string
	err   error
	last  []ArkMessage
	calls int
}

func (f *fakeArk) Complete(ctx context.Context, callType string, intentID *uuid.UUID, messages []ArkMessage, opts ArkOptions) (string, error) {
	f.calls++
	f.last = messages
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeArk) CompleteJSON(ctx context.Context, callType string, intentID *uuid.UUID, messages []ArkMessage, temperature float64, out any) error {
	content, err := f.Complete(ctx, callType, intentID, messages, ArkOptions{Temperature: temperature, StrictJSON: true})
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return &MalformedReplyError{Raw: content, Err: err}
	}
	return nil
}

func newTestIntentService(t *testing.T, gdb *gorm.DB, r testRepos, miner IntentMinerService, planner StagePlannerService, verifier VerificationService, tracker EvolutionService) IntentService {
	t.Helper()
	return NewIntentService(
		gdb, testLogger(t),
		miner, planner, verifier, tracker,
		r.intent, r.stage, r.record, r.convo, r.progress, r.marketplace,
	)
}

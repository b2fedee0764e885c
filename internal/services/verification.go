package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/intentlab/intent-backend/internal/logger"
	"github.com/intentlab/intent-backend/internal/repos"
)

const (
	verificationRecordWindow  = 5
	verificationConvoWindow   = 10
	verificationProgressWindow = 5
)

type VerificationResult struct {
	Passed           bool     `json:"passed"`
	CredibilityScore float64  `json:"credibility_score"`
	Analysis         string   `json:"analysis"`
	Concerns         []string `json:"concerns"`
}

// VerificationService produces a credibility judgment for an intent from its
// accumulated history. It never writes: persisting the score and the
// verification record is the caller's side effect.
type VerificationService interface {
	Verify(ctx context.Context, intentID uuid.UUID) (*VerificationResult, error)
}

type verificationService struct {
	db            *gorm.DB
	log           *logger.Logger
	ark           ArkClient
	intentRepo    repos.IntentRepo
	recordRepo    repos.VerificationRecordRepo
	conversations repos.AIConversationRepo
	progressRepo  repos.IntentProgressRepo
}

func NewVerificationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	ark ArkClient,
	intentRepo repos.IntentRepo,
	recordRepo repos.VerificationRecordRepo,
	conversations repos.AIConversationRepo,
	progressRepo repos.IntentProgressRepo,
) VerificationService {
	return &verificationService{
		db:            db,
		log:           baseLog.With("service", "VerificationService"),
		ark:           ark,
		intentRepo:    intentRepo,
		recordRepo:    recordRepo,
		conversations: conversations,
		progressRepo:  progressRepo,
	}
}

const verifyIntentPromptTemplate = `You are a strict intent auditor. Your task is to verify whether the user is actually executing their intent, or still stuck at the idea stage.

Intent:
Title: %s
Description: %s
Time window: %d days
Current stage: %s

Analyze:
1. Does the user show real signs of action?
2. Are there signs of procrastination, hesitation or drift?
3. Credibility score (0-100)
4. Concerns worth watching

Reply in JSON:
{
  "passed": true,
  "credibility_score": 75,
  "analysis": "detailed analysis",
  "concerns": ["concern 1", "concern 2"]
}`

func (s *verificationService) Verify(ctx context.Context, intentID uuid.UUID) (*VerificationResult, error) {
	intents, err := s.intentRepo.GetByIDs(ctx, nil, []uuid.UUID{intentID})
	if err != nil {
		return nil, fmt.Errorf("load intent: %w", err)
	}
	if len(intents) == 0 {
		return nil, ErrIntentNotFound
	}
	intent := intents[0]

	recentRecords, err := s.recordRepo.GetRecentByIntentID(ctx, nil, intentID, verificationRecordWindow)
	if err != nil {
		return nil, fmt.Errorf("load verification records: %w", err)
	}
	recentTurns, err := s.conversations.GetRecentByIntentID(ctx, nil, intentID, verificationConvoWindow)
	if err != nil {
		return nil, fmt.Errorf("load conversations: %w", err)
	}
	recentProgress, err := s.progressRepo.GetRecentByIntentID(ctx, nil, intentID, verificationProgressWindow)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}

	recordsJSON, _ := json.Marshal(recentRecords)
	turnsJSON, _ := json.Marshal(recentTurns)
	progressJSON, _ := json.Marshal(recentProgress)
	contextMsg := fmt.Sprintf("Recent verification records: %s\nRecent conversations: %s\nProgress records: %s",
		recordsJSON, turnsJSON, progressJSON)

	messages := []ArkMessage{
		{Role: "system", Content: fmt.Sprintf(verifyIntentPromptTemplate, intent.Title, intent.Description, intent.TimeWindowDays, intent.Stage)},
		{Role: "user", Content: contextMsg},
	}

	var result VerificationResult
	if err := s.ark.CompleteJSON(ctx, "verify_intent", &intentID, messages, 0.5, &result); err != nil {
		return nil, fmt.Errorf("verify intent: %w", err)
	}
	// The score is trusted as returned; an out-of-range value is an
	// upstream reply defect, not something to clamp here.
	return &result, nil
}

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

const evolutionProgressWindow = 10

type EvolutionResult struct {
	CurrentStage       string   `json:"current_stage"`
	ProgressPercentage float64  `json:"progress_percentage"`
	NextMilestone      string   `json:"next_milestone"`
	Recommendations    []string `json:"recommendations"`
}

// EvolutionService classifies where an intent currently sits in its staged
// plan. The classification is trusted verbatim; current_stage is not checked
// against the persisted stage names.
type EvolutionService interface {
	TrackEvolution(ctx context.Context, intentID uuid.UUID) (*EvolutionResult, error)
}

type evolutionService struct {
	db           *gorm.DB
	log          *logger.Logger
	ark          ArkClient
	intentRepo   repos.IntentRepo
	stageRepo    repos.IntentStageRepo
	progressRepo repos.IntentProgressRepo
}

func NewEvolutionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	ark ArkClient,
	intentRepo repos.IntentRepo,
	stageRepo repos.IntentStageRepo,
	progressRepo repos.IntentProgressRepo,
) EvolutionService {
	return &evolutionService{
		db:           db,
		log:          baseLog.With("service", "EvolutionService"),
		ark:          ark,
		intentRepo:   intentRepo,
		stageRepo:    stageRepo,
		progressRepo: progressRepo,
	}
}

const trackEvolutionPromptTemplate = `Analyze how this intent has evolved, decide which stage it is currently in, and suggest next steps.

Intent: %s
Staged plan: %s
Progress records: %s

Reply in JSON:
{
  "current_stage": "stage name",
  "progress_percentage": 45,
  "next_milestone": "next milestone",
  "recommendations": ["recommendation 1", "recommendation 2"]
}`

func (s *evolutionService) TrackEvolution(ctx context.Context, intentID uuid.UUID) (*EvolutionResult, error) {
	intents, err := s.intentRepo.GetByIDs(ctx, nil, []uuid.UUID{intentID})
	if err != nil {
		return nil, fmt.Errorf("load intent: %w", err)
	}
	if len(intents) == 0 {
		return nil, ErrIntentNotFound
	}
	intent := intents[0]

	stages, err := s.stageRepo.GetByIntentID(ctx, nil, intentID)
	if err != nil {
		return nil, fmt.Errorf("load stages: %w", err)
	}
	recentProgress, err := s.progressRepo.GetRecentByIntentID(ctx, nil, intentID, evolutionProgressWindow)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}

	stagesJSON, _ := json.Marshal(stages)
	progressJSON, _ := json.Marshal(recentProgress)
	messages := []ArkMessage{{
		Role:    "system",
		Content: fmt.Sprintf(trackEvolutionPromptTemplate, intent.Title, stagesJSON, progressJSON),
	}}

	var result EvolutionResult
	if err := s.ark.CompleteJSON(ctx, "track_evolution", &intentID, messages, 0.6, &result); err != nil {
		return nil, fmt.Errorf("track evolution: %w", err)
	}
	return &result, nil
}

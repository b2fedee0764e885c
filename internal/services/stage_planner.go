package services

import (
	"context"
	"fmt"

	"github.com/intentlab/intent-backend/internal/logger"
	"github.com/intentlab/intent-backend/internal/types"
)

type PlannedStage struct {
	StageName          string `json:"stage_name"`
	StageOrder         int    `json:"stage_order"`
	Description        string `json:"description"`
	VerificationPoints string `json:"verification_points"`
}

// StagePlannerService decomposes a freshly mined intent into an ordered
// execution plan. Planning is advisory: an empty plan is a valid outcome and
// the ordinals in the reply are persisted verbatim, collisions included.
type StagePlannerService interface {
	PlanStages(ctx context.Context, intent *types.Intent) ([]PlannedStage, error)
}

type stagePlannerService struct {
	log *logger.Logger
	ark ArkClient
}

func NewStagePlannerService(baseLog *logger.Logger, ark ArkClient) StagePlannerService {
	return &stagePlannerService{
		log: baseLog.With("service", "StagePlannerService"),
		ark: ark,
	}
}

const planStagesPromptTemplate = `Decompose an intent into a detailed staged plan.

Intent: %s
Description: %s
Time window: %d days

Break the intent into 3-6 stages. Each stage needs:
- a stage name
- a stage description
- verification points (how to verify the user is actually executing this stage)

Reply in JSON:
{
  "stages": [
    {
      "stage_name": "stage 1 name",
      "stage_order": 1,
      "description": "stage description",
      "verification_points": "point 1,point 2"
    }
  ]
}`

func (s *stagePlannerService) PlanStages(ctx context.Context, intent *types.Intent) ([]PlannedStage, error) {
	messages := []ArkMessage{{
		Role:    "system",
		Content: fmt.Sprintf(planStagesPromptTemplate, intent.Title, intent.Description, intent.TimeWindowDays),
	}}

	var reply struct {
		Stages []PlannedStage `json:"stages"`
	}
	if err := s.ark.CompleteJSON(ctx, "plan_stages", &intent.ID, messages, 0.7, &reply); err != nil {
		return nil, fmt.Errorf("plan stages: %w", err)
	}
	return reply.Stages, nil
}

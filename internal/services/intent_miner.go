package services

import (
	"context"
	"fmt"

	"github.com/intentlab/intent-backend/internal/logger"
	"github.com/intentlab/intent-backend/internal/types"
)

// MinedIntent is the structured record distilled from a user's free-text
// statement of intent.
type MinedIntent struct {
	Title                 string   `json:"title"`
	Description           string   `json:"description"`
	Category              string   `json:"category"`
	TimeWindowDays        int      `json:"time_window_days"`
	CredibilityIndicators []string `json:"credibility_indicators"`
}

type IntentMinerService interface {
	MineIntent(ctx context.Context, userInput string, history []*types.AIConversation) (*MinedIntent, error)
}

type intentMinerService struct {
	log *logger.Logger
	ark ArkClient
}

func NewIntentMinerService(baseLog *logger.Logger, ark ArkClient) IntentMinerService {
	return &intentMinerService{
		log: baseLog.With("service", "IntentMinerService"),
		ark: ark,
	}
}

const mineIntentSystemPrompt = `You are an expert intent miner. Your task is to surface the user's real intent, not their surface-level request.

From the user's input identify:
1. The real intent (a concrete plan of action, not a vague wish)
2. The intent category (career transition / medical decision / major purchase / relationship decision / learning growth, etc.)
3. A reasonable time window in days
4. Credibility indicators (signs of resolve, preparation and concrete action)

Reply in JSON:
{
  "title": "intent title",
  "description": "detailed description",
  "category": "category",
  "time_window_days": 90,
  "credibility_indicators": ["indicator 1", "indicator 2"]
}`

func (s *intentMinerService) MineIntent(ctx context.Context, userInput string, history []*types.AIConversation) (*MinedIntent, error) {
	messages := []ArkMessage{{Role: "system", Content: mineIntentSystemPrompt}}
	if len(history) > 10 {
		history = history[len(history)-10:]
	}
	for _, turn := range history {
		role := types.ConversationRoleUser
		if turn.Role == types.ConversationRoleAssistant {
			role = types.ConversationRoleAssistant
		}
		messages = append(messages, ArkMessage{Role: role, Content: turn.Content})
	}
	messages = append(messages, ArkMessage{Role: "user", Content: userInput})

	var mined MinedIntent
	if err := s.ark.CompleteJSON(ctx, "mine_intent", nil, messages, 0.7, &mined); err != nil {
		return nil, fmt.Errorf("mine intent: %w", err)
	}
	if mined.Title == "" || mined.Description == "" || mined.Category == "" {
		raw := fmt.Sprintf("title=%q description=%q category=%q", mined.Title, mined.Description, mined.Category)
		return nil, &MalformedReplyError{Raw: raw, Err: fmt.Errorf("missing required fields in mined intent")}
	}
	return &mined, nil
}

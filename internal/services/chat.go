package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/intentlab/intent-backend/internal/logger"
	"github.com/intentlab/intent-backend/internal/repos"
	"github.com/intentlab/intent-backend/internal/types"
)

const chatHistoryWindow = 20

// ChatService runs one auditor-persona chat turn against an intent. Each
// successful turn appends two conversation rows (user, then assistant) that
// feed back into future verification context.
type ChatService interface {
	Chat(ctx context.Context, intentID uuid.UUID, message string) (string, error)
}

type chatService struct {
	db            *gorm.DB
	log           *logger.Logger
	ark           ArkClient
	intentRepo    repos.IntentRepo
	conversations repos.AIConversationRepo
}

func NewChatService(
	db *gorm.DB,
	baseLog *logger.Logger,
	ark ArkClient,
	intentRepo repos.IntentRepo,
	conversations repos.AIConversationRepo,
) ChatService {
	return &chatService{
		db:            db,
		log:           baseLog.With("service", "ChatService"),
		ark:           ark,
		intentRepo:    intentRepo,
		conversations: conversations,
	}
}

const chatPersonaPromptTemplate = `You are a strict intent auditor and progress witness. Your role:

1. Repeatedly question the user's motivation to make sure they are actually going to do this
2. Catch signs of hesitation, procrastination and drift
3. Dynamically adjust what counts as the "real intent"
4. Be supportive without letting the user feel attacked

Current intent: %s
Description: %s

Your tone: professional, skeptical but supportive, direct but never cruel.`

func (s *chatService) Chat(ctx context.Context, intentID uuid.UUID, message string) (string, error) {
	intents, err := s.intentRepo.GetByIDs(ctx, nil, []uuid.UUID{intentID})
	if err != nil {
		return "", fmt.Errorf("load intent: %w", err)
	}
	if len(intents) == 0 {
		return "", ErrIntentNotFound
	}
	intent := intents[0]

	history, err := s.conversations.GetRecentByIntentID(ctx, nil, intentID, chatHistoryWindow)
	if err != nil {
		return "", fmt.Errorf("load conversation history: %w", err)
	}

	messages := []ArkMessage{{
		Role:    "system",
		Content: fmt.Sprintf(chatPersonaPromptTemplate, intent.Title, intent.Description),
	}}
	// History arrives newest-first; replay it in chronological order.
	for i := len(history) - 1; i >= 0; i-- {
		role := types.ConversationRoleUser
		if history[i].Role == types.ConversationRoleAssistant {
			role = types.ConversationRoleAssistant
		}
		messages = append(messages, ArkMessage{Role: role, Content: history[i].Content})
	}
	messages = append(messages, ArkMessage{Role: "user", Content: message})

	reply, err := s.ark.Complete(ctx, "chat", &intentID, messages, ArkOptions{Temperature: 0.8})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	now := time.Now()
	rows := []*types.AIConversation{
		{
			ID:        uuid.New(),
			IntentID:  intentID,
			Role:      types.ConversationRoleUser,
			Content:   message,
			CreatedAt: now,
		},
		{
			ID:        uuid.New(),
			IntentID:  intentID,
			Role:      types.ConversationRoleAssistant,
			Content:   reply,
			// Keeps the assistant row sorting after the user row even
			// when the clock reads the same instant for both.
			CreatedAt: now.Add(time.Millisecond),
		},
	}
	if _, err := s.conversations.Create(ctx, nil, rows); err != nil {
		return "", fmt.Errorf("append conversation rows: %w", err)
	}
	return reply, nil
}

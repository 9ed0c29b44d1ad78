package conversation

import (
	"context"
	"errors"
	"strings"

	"github.com/aescanero/dago-inquiry-router/internal/domain"
)

var (
	// ErrStateNotFound is returned when no state is stored for a conversation
	ErrStateNotFound = errors.New("conversation state not found")

	// ErrInvalidConversation is returned for empty or malformed conversation ids
	ErrInvalidConversation = errors.New("invalid conversation id")
)

// Store persists conversation state between messages
type Store interface {
	// Load returns ErrStateNotFound when nothing is stored
	Load(ctx context.Context, conversationID string) (*domain.ConversationState, error)
	Save(ctx context.Context, state *domain.ConversationState) error
	Delete(ctx context.Context, conversationID string) error
	Exists(ctx context.Context, conversationID string) (bool, error)
	List(ctx context.Context) ([]string, error)
}

// LoadOrNew loads a conversation state, starting a fresh one when none is stored
func LoadOrNew(ctx context.Context, store Store, conversationID string, newState func() *domain.ConversationState) (*domain.ConversationState, error) {
	st, err := store.Load(ctx, conversationID)
	if errors.Is(err, ErrStateNotFound) {
		return newState(), nil
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

func validateID(conversationID string) error {
	if strings.TrimSpace(conversationID) == "" {
		return ErrInvalidConversation
	}
	if strings.ContainsAny(conversationID, "*?[] \t\n") {
		return ErrInvalidConversation
	}
	return nil
}

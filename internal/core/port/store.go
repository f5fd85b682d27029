package port

import (
	"context"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
)

type CommandStore interface {
	// UpsertCommand creates or replaces the command row matched by name.
	UpsertCommand(ctx context.Context, record domain.CommandRecord) (domain.CommandRecord, error)
	// DeleteCommand removes the row and reports whether it existed.
	DeleteCommand(ctx context.Context, name string) (bool, error)
	ListEnabledCommands(ctx context.Context) ([]domain.CommandRecord, error)
}

type RewardStore interface {
	// UpsertReward creates or replaces the reward row keyed by id, or by title for title-only rewards.
	UpsertReward(ctx context.Context, record domain.RewardRecord) (domain.RewardRecord, error)
	// DeleteReward removes the rows matching key and reports whether any existed.
	DeleteReward(ctx context.Context, key domain.RewardKey) (bool, error)
	ListEnabledRewards(ctx context.Context) ([]domain.RewardRecord, error)
}

type MessageStore interface {
	// UpsertMessage stores a chat message keyed by its id. Re-delivery updates the existing row.
	UpsertMessage(ctx context.Context, message *domain.ChatMessage) error
}

type MessageCounter interface {
	CountMessages(ctx context.Context) (int64, error)
}

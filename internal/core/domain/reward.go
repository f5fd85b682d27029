package domain

import (
	"context"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
)

type RewardHandler interface {
	// Execute runs the reward for a single redemption.
	Execute(ctx context.Context, rc *RewardContext) error
}

// RewardHandlerFunc adapts a plain function to RewardHandler.
type RewardHandlerFunc func(ctx context.Context, rc *RewardContext) error

func (f RewardHandlerFunc) Execute(ctx context.Context, rc *RewardContext) error {
	return f(ctx, rc)
}

// TwitchReward is a channel-point reward. ID is uuid.Nil for rewards registered by title only.
type TwitchReward struct {
	ID          uuid.UUID
	Title       string
	Permission  Role
	Description string
	Handler     RewardHandler
	Storage     map[string]any
}

// TitleKey is the lower-cased title index key, empty when the reward has no title.
func (r TwitchReward) TitleKey() string {
	return strings.ToLower(strings.TrimSpace(r.Title))
}

// RewardKey selects a reward either by platform id or by title. Lookups try the id first.
type RewardKey struct {
	ID    uuid.UUID
	Title string
}

func RewardKeyFromID(id uuid.UUID) RewardKey {
	return RewardKey{ID: id}
}

func RewardKeyFromTitle(title string) RewardKey {
	return RewardKey{Title: title}
}

// ParseRewardKey treats GUID-shaped input as an id and everything else as a title.
func ParseRewardKey(s string) RewardKey {
	s = strings.TrimSpace(s)
	if id, err := uuid.FromString(s); err == nil {
		return RewardKey{ID: id}
	}

	return RewardKey{Title: s}
}

// RedemptionKey builds the lookup key for a redemption: its reward id when parseable, plus its title.
func RedemptionKey(r Redemption) RewardKey {
	key := RewardKey{Title: r.RewardTitle}
	if id, err := uuid.FromString(strings.TrimSpace(r.RewardID)); err == nil {
		key.ID = id
	}

	return key
}

func (k RewardKey) HasID() bool {
	return k.ID != uuid.Nil
}

func (k RewardKey) TitleKey() string {
	return strings.ToLower(strings.TrimSpace(k.Title))
}

func (k RewardKey) IsZero() bool {
	return !k.HasID() && k.TitleKey() == ""
}

func (k RewardKey) String() string {
	if k.HasID() {
		return k.ID.String()
	}

	return k.Title
}

// RewardRecord is the persisted form of a reward. ID may be empty for title-only rewards.
type RewardRecord struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Response    string    `json:"response"`
	Permission  Role      `json:"permission"`
	Enabled     bool      `json:"enabled"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Key returns the persistence key: the id when present, else the lower-cased title.
func (r RewardRecord) Key() string {
	if id := strings.TrimSpace(r.ID); id != "" {
		return strings.ToLower(id)
	}

	return "title:" + strings.ToLower(strings.TrimSpace(r.Title))
}

// RewardContext is built per redemption and never persisted.
type RewardContext struct {
	Redemption  Redemption
	Reward      TwitchReward
	User        User
	Broadcaster User
	Role        Role
	Reply       func(ctx context.Context, text string) error
	Refund      func(ctx context.Context) error
	Fulfill     func(ctx context.Context) error
}

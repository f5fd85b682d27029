package handler

import (
	"context"
	"time"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/port"
)

const EventRewardOverlay = "reward.overlay"

// OverlayEvent is what browser overlays receive when an overlay reward is redeemed.
type OverlayEvent struct {
	Reward     string    `json:"reward"`
	RewardID   string    `json:"reward_id"`
	User       string    `json:"user"`
	Input      string    `json:"input"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

// Overlay forwards a redemption to the stream overlays and fulfills it.
type Overlay struct {
	publisher port.EventPublisher
}

func NewOverlay(publisher port.EventPublisher) *Overlay {
	return &Overlay{publisher: publisher}
}

func (o *Overlay) Execute(ctx context.Context, rc *domain.RewardContext) error {
	o.publisher.Publish(EventRewardOverlay, OverlayEvent{
		Reward:     rc.Reward.Title,
		RewardID:   rc.Redemption.RewardID,
		User:       userName(rc.User),
		Input:      rc.Redemption.UserInput,
		RedeemedAt: rc.Redemption.RedeemedAt,
	})

	return rc.Fulfill(ctx)
}

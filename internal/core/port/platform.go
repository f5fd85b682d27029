package port

import (
	"context"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
)

type RedemptionUpdater interface {
	// UpdateRedemptionStatus marks a redemption FULFILLED or CANCELED on the platform.
	UpdateRedemptionStatus(ctx context.Context, broadcasterID, rewardID, redemptionID string,
		status domain.RedemptionStatus) error
}

type UserDirectory interface {
	// FetchOrGetUser returns the user with the given id, from cache when possible.
	FetchOrGetUser(ctx context.Context, id string) (domain.User, error)
}

type RoleResolver interface {
	// ResolveRole determines the role user holds in broadcaster's channel.
	ResolveRole(ctx context.Context, user, broadcaster domain.User) domain.Role
}

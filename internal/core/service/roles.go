package service

import (
	"context"
	"errors"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// ChannelRoleResolver decides the role of a redeeming user. The broadcaster is detected by id;
// moderators and VIPs are only known when listed in config. Everyone else is RoleEveryone.
// The zero value resolves the broadcaster only.
type ChannelRoleResolver struct {
	moderators map[string]struct{}
	vips       map[string]struct{}
}

// NewChannelRoleResolver reads the rewards.moderator_ids and rewards.vip_ids lists.
func NewChannelRoleResolver() (*ChannelRoleResolver, error) {
	var moderators, vips []string

	if err := viper.UnmarshalKey("rewards.moderator_ids", &moderators); err != nil {
		return nil, errors.New("failed to load moderator IDs")
	}
	if err := viper.UnmarshalKey("rewards.vip_ids", &vips); err != nil {
		return nil, errors.New("failed to load VIP IDs")
	}

	return &ChannelRoleResolver{
		moderators: toSet(moderators),
		vips:       toSet(vips),
	}, nil
}

func (c *ChannelRoleResolver) ResolveRole(_ context.Context, user, broadcaster domain.User) domain.Role {
	if user.ID != "" && user.ID == broadcaster.ID {
		return domain.RoleBroadcaster
	}

	if _, ok := c.moderators[user.ID]; ok {
		return domain.RoleModerator
	}

	if _, ok := c.vips[user.ID]; ok {
		return domain.RoleVIP
	}

	log.Trace().Str("userId", user.ID).Msg("role unknown, treating as everyone")
	return domain.RoleEveryone
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}

	return set
}

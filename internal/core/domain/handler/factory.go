package handler

import (
	"fmt"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
	"github.com/gofrs/uuid/v5"
)

// FromCommandRecord hydrates a persisted command into a text responder.
func FromCommandRecord(record domain.CommandRecord) domain.ChatCommand {
	return domain.ChatCommand{
		Name:        record.Name,
		Permission:  permissionOf(record.Permission),
		Type:        domain.ParseCommandType(string(record.Type)),
		Description: record.Description,
		Handler:     NewTextResponse(record.Response),
		Storage:     map[string]any{"response": record.Response},
	}
}

// FromRewardRecord hydrates a persisted reward into a text responder that fulfills on success.
func FromRewardRecord(record domain.RewardRecord) (domain.TwitchReward, error) {
	reward := domain.TwitchReward{
		Title:       record.Title,
		Permission:  permissionOf(record.Permission),
		Description: record.Description,
		Handler:     NewRewardTextResponse(record.Response),
		Storage:     map[string]any{"response": record.Response},
	}

	if record.ID != "" {
		id, err := uuid.FromString(record.ID)
		if err != nil {
			return domain.TwitchReward{}, fmt.Errorf("%w: %s", domain.ErrInvalidRewardKey, err)
		}
		reward.ID = id
	}

	return reward, nil
}

func permissionOf(r domain.Role) domain.Role {
	if r == "" {
		return domain.RoleEveryone
	}

	return domain.ParseRole(string(r))
}

package domain

import (
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
)

func TestParseRewardKey(t *testing.T) {
	id := uuid.Must(uuid.FromString("0f8b9c3e-2c4a-4f7e-9a51-3d2b1c0e4a77"))

	key := ParseRewardKey("0F8B9C3E-2C4A-4F7E-9A51-3D2B1C0E4A77")
	assert.True(t, key.HasID())
	assert.Equal(t, id, key.ID)

	key = ParseRewardKey("  Hydrate ")
	assert.False(t, key.HasID())
	assert.Equal(t, "hydrate", key.TitleKey())

	assert.True(t, ParseRewardKey("").IsZero())
}

func TestRedemptionKey(t *testing.T) {
	key := RedemptionKey(Redemption{RewardID: "not-a-guid", RewardTitle: "Hydrate"})
	assert.False(t, key.HasID())
	assert.Equal(t, "hydrate", key.TitleKey())

	key = RedemptionKey(Redemption{RewardID: "0f8b9c3e-2c4a-4f7e-9a51-3d2b1c0e4a77", RewardTitle: "Hydrate"})
	assert.True(t, key.HasID())
	assert.Equal(t, "hydrate", key.TitleKey())
}

func TestRewardRecordKey(t *testing.T) {
	assert.Equal(t, "abc", RewardRecord{ID: "ABC", Title: "Hydrate"}.Key())
	assert.Equal(t, "title:hydrate", RewardRecord{Title: " Hydrate"}.Key())
}

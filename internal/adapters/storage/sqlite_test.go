package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()

	store, err := OpenSQLite(t.Context(), filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

// clock returns a deterministic, advancing time source.
func clock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func TestSQLite_Commands(t *testing.T) {
	store := openTestStore(t)
	store.now = clock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))

	first, err := store.UpsertCommand(t.Context(), domain.CommandRecord{Name: " Discord ", Response: "v1", Enabled: true})
	require.NoError(t, err)
	assert.Equal(t, "discord", first.Name)
	assert.Equal(t, domain.RoleEveryone, first.Permission)
	assert.Equal(t, domain.CommandTypeCommand, first.Type)

	second, err := store.UpsertCommand(t.Context(), domain.CommandRecord{
		Name: "discord", Response: "v2", Permission: domain.RoleVIP, Enabled: true,
	})
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

	_, err = store.UpsertCommand(t.Context(), domain.CommandRecord{Name: "hidden", Response: "x", Enabled: false})
	require.NoError(t, err)

	records, err := store.ListEnabledCommands(t.Context())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "v2", records[0].Response)
	assert.Equal(t, domain.RoleVIP, records[0].Permission)
	assert.True(t, records[0].Enabled)

	existed, err := store.DeleteCommand(t.Context(), "DISCORD")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = store.DeleteCommand(t.Context(), "discord")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestSQLite_Rewards(t *testing.T) {
	store := openTestStore(t)
	id := uuid.Must(uuid.NewV4())

	_, err := store.UpsertReward(t.Context(), domain.RewardRecord{ID: id.String(), Title: "Hydrate", Enabled: true})
	require.NoError(t, err)
	_, err = store.UpsertReward(t.Context(), domain.RewardRecord{ID: id.String(), Title: "Drink Water", Enabled: true})
	require.NoError(t, err)
	_, err = store.UpsertReward(t.Context(), domain.RewardRecord{Title: "Shoutout", Response: "hi", Enabled: true})
	require.NoError(t, err)

	records, err := store.ListEnabledRewards(t.Context())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Drink Water", records[0].Title)
	assert.Equal(t, id.String(), records[0].ID)
	assert.Equal(t, "Shoutout", records[1].Title)
	assert.Empty(t, records[1].ID)

	existed, err := store.DeleteReward(t.Context(), domain.RewardKeyFromTitle("SHOUTOUT"))
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = store.DeleteReward(t.Context(), domain.RewardKeyFromID(id))
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = store.DeleteReward(t.Context(), domain.RewardKeyFromID(id))
	require.NoError(t, err)
	assert.False(t, existed)

	records, err = store.ListEnabledRewards(t.Context())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSQLite_UpsertMessageIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	store.now = clock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))

	created := time.Date(2026, 1, 1, 11, 0, 0, 0, time.UTC)
	msg := &domain.ChatMessage{
		ID:        "abc",
		Channel:   "nomercy_tv",
		Chatter:   domain.Chatter{ID: "42", Login: "viewer", Role: domain.RoleSubscriber},
		Text:      "hello Kappa",
		CreatedAt: created,
		Fragments: []domain.Fragment{
			{Type: domain.FragmentText, Text: "hello "},
			{Type: domain.FragmentEmote, Text: "Kappa", Emote: &domain.Emote{ID: "25", Provider: domain.ProviderTwitch}},
		},
	}

	require.NoError(t, store.UpsertMessage(t.Context(), msg))

	msg.Text = "hello Kappa edited"
	require.NoError(t, store.UpsertMessage(t.Context(), msg))

	n, err := store.CountMessages(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := store.GetMessage(t.Context(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "hello Kappa edited", got.Text)
	assert.Equal(t, created, got.CreatedAt)
	assert.True(t, got.UpdatedAt.After(created))
	assert.Equal(t, domain.RoleSubscriber, got.Chatter.Role)
	require.Len(t, got.Fragments, 2)
	assert.Equal(t, "25", got.Fragments[1].Emote.ID)

	assert.Error(t, store.UpsertMessage(t.Context(), &domain.ChatMessage{}))
}

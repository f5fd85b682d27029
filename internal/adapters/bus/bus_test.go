package bus

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishFiltersByPrefix(t *testing.T) {
	b := New(4)

	rewards, cancelRewards := b.Subscribe("reward.")
	defer cancelRewards()
	all, cancelAll := b.Subscribe()
	defer cancelAll()

	b.Publish("chat.message", "hi")
	b.Publish("reward.redeemed", 1)

	ev := <-rewards
	assert.Equal(t, "reward.redeemed", ev.Name)
	assert.Equal(t, 1, ev.Payload)

	assert.Equal(t, "chat.message", (<-all).Name)
	assert.Equal(t, "reward.redeemed", (<-all).Name)
}

func TestBus_DropsWhenFull(t *testing.T) {
	b := New(1)
	ch, cancel := b.Subscribe()

	b.Publish("a", nil)
	assert.NotPanics(t, func() { b.Publish("b", nil) })

	assert.Equal(t, "a", (<-ch).Name)
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %s", ev.Name)
	default:
	}

	cancel()
	cancel()
	assert.Equal(t, 0, b.Subscribers())

	_, ok := <-ch
	assert.False(t, ok)
	assert.NotPanics(t, func() { b.Publish("c", nil) })
}

func TestOverlayHub_StreamsEvents(t *testing.T) {
	b := New(8)
	srv := httptest.NewServer(NewOverlayHub(b, nil, "reward."))
	defer srv.Close()

	conn, _, err := websocket.Dial(t.Context(), "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return b.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	b.Publish("chat.message", "skip me")
	b.Publish("reward.overlay", map[string]string{"user": "Viewer"})

	typ, data, err := conn.Read(t.Context())
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, typ)

	var ev struct {
		Event   string            `json:"event"`
		Payload map[string]string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, "reward.overlay", ev.Event)
	assert.Equal(t, "Viewer", ev.Payload["user"])
}

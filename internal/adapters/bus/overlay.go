package bus

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const writeTimeout = 5 * time.Second

// OverlayHub streams bus events to browser overlays over websocket.
type OverlayHub struct {
	bus      *Bus
	prefixes []string
	origins  []string
	l        *zerolog.Logger
}

// NewOverlayHub forwards events matching prefixes. Origins lists the accepted browser origins, all when empty.
func NewOverlayHub(bus *Bus, origins []string, prefixes ...string) *OverlayHub {
	logger := log.With().Str("component", "overlay").Logger()

	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return &OverlayHub{bus: bus, prefixes: prefixes, origins: origins, l: &logger}
}

func (h *OverlayHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		h.l.Warn().Err(err).Str("ip", r.RemoteAddr).Msg("failed to accept overlay websocket")
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "overlay closed"); closeErr != nil {
			h.l.Debug().Err(closeErr).Msg("failed to close overlay websocket")
		}
	}()

	events, unsubscribe := h.bus.Subscribe(h.prefixes...)
	defer unsubscribe()

	h.l.Info().Str("ip", r.RemoteAddr).Msg("overlay connected")

	ctx := ws.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			h.l.Info().Str("ip", r.RemoteAddr).Msg("overlay disconnected")
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := h.write(ctx, ws, ev); err != nil {
				h.l.Debug().Err(err).Msg("overlay write failed")
				return
			}
		}
	}
}

func (h *OverlayHub) write(ctx context.Context, ws *websocket.Conn, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	return ws.Write(ctx, websocket.MessageText, data)
}

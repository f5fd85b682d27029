package handler

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"runtime/metrics"
	"time"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/port"
	"github.com/rs/zerolog/log"
)

const kb = 1024
const debugTemplate = "mem: %d KB | goroutines: %d | heap: %d KB | stack: %d KB | up %s | %s %s-%s"
const metricCount = 3

// Debug reports runtime statistics of the bot process.
type Debug struct {
	started  time.Time
	messages port.MessageCounter
}

// NewDebug builds the stats command. messages may be nil.
func NewDebug(started time.Time, messages port.MessageCounter) *Debug {
	return &Debug{started: started, messages: messages}
}

func (d *Debug) Execute(ctx context.Context, cc *domain.CommandContext) error {
	l := log.With().
		Str("messageId", cc.Message.ID).
		Str("command", cc.Name).
		Logger()

	data := make([]metrics.Sample, metricCount)
	data[0] = metrics.Sample{Name: "/memory/classes/heap/objects:bytes"}
	data[1] = metrics.Sample{Name: "/memory/classes/heap/stacks:bytes"}
	data[2] = metrics.Sample{Name: "/memory/classes/total:bytes"}

	metrics.Read(data)

	for _, sample := range data {
		l.Trace().Str("name", sample.Name).Msgf("%d", sample.Value.Uint64())
	}

	goos, goarch := runtime.GOOS, runtime.GOARCH
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "GOOS":
				goos = setting.Value
			case "GOARCH":
				goarch = setting.Value
			}
		}
	}

	text := fmt.Sprintf(
		debugTemplate,
		data[2].Value.Uint64()/kb,
		runtime.NumGoroutine(),
		data[0].Value.Uint64()/kb,
		data[1].Value.Uint64()/kb,
		time.Since(d.started).Truncate(time.Second),
		runtime.Version(), goos, goarch,
	)

	if d.messages != nil {
		count, err := d.messages.CountMessages(ctx)
		if err != nil {
			l.Warn().Err(err).Msg("failed to count messages")
		} else {
			text += fmt.Sprintf(" | messages: %d", count)
		}
	}

	return cc.Reply(ctx, text)
}

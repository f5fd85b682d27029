package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Tracker interface {
	AddTokens(channel string, tokens int)
	// CheckLimit reports whether the channel still has budget left today.
	CheckLimit(channel string) bool
	GetUsed(channel string) int
}

// UsageTracker keeps a daily per-channel token budget for generated replies.
type UsageTracker struct {
	channels   map[string]int
	dailyLimit int
	mutex      *sync.Mutex
}

func NewUsageTracker(ctx context.Context) *UsageTracker {
	ut := &UsageTracker{
		channels:   make(map[string]int),
		dailyLimit: viper.GetInt("ai.daily_token_limit"),
		mutex:      &sync.Mutex{},
	}

	go ut.ResetDailyLimit(ctx)

	return ut
}

func (t *UsageTracker) AddTokens(channel string, tokens int) {
	t.mutex.Lock()
	t.channels[channel] += tokens
	t.mutex.Unlock()
}

func (t *UsageTracker) GetUsed(channel string) int {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return t.channels[channel]
}

// CheckLimit treats a non-positive limit as unlimited.
func (t *UsageTracker) CheckLimit(channel string) bool {
	if t.dailyLimit <= 0 {
		return true
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	return t.channels[channel] < t.dailyLimit
}

func (t *UsageTracker) ResetDailyLimit(ctx context.Context) {
	reset := getNextResetTime()

	for {
		log.Debug().Time("reset", reset).Msg("running reset timer")
		select {
		case <-time.After(time.Until(reset)):
			log.Debug().Msg("resetting daily token usage")
			t.mutex.Lock()
			t.channels = make(map[string]int)
			t.mutex.Unlock()
			time.Sleep(time.Second)
			reset = getNextResetTime()
		case <-ctx.Done():
			log.Debug().Msg("stopping daily token reset")
			return
		}
	}
}

func getNextResetTime() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
}

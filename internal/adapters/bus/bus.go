package bus

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultBuffer = 64

type Event struct {
	Name    string    `json:"event"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

type subscription struct {
	ch       chan Event
	prefixes []string
}

func (s *subscription) wants(name string) bool {
	if len(s.prefixes) == 0 {
		return true
	}
	for _, p := range s.prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// Bus fans events out to in-process subscribers. Publish never blocks: a subscriber whose buffer
// is full misses the event.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]*subscription
	next   int
	buffer int
	now    func() time.Time
	l      *zerolog.Logger
}

func New(buffer int) *Bus {
	logger := log.With().Str("component", "bus").Logger()

	if buffer <= 0 {
		buffer = defaultBuffer
	}

	return &Bus{
		subs:   map[int]*subscription{},
		buffer: buffer,
		now:    time.Now,
		l:      &logger,
	}
}

func (b *Bus) Publish(event string, payload any) {
	ev := Event{Name: event, Payload: payload, At: b.now()}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, sub := range b.subs {
		if !sub.wants(event) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			b.l.Warn().Int("subscriber", id).Str("event", event).Msg("subscriber full, dropping event")
		}
	}
}

// Subscribe returns a channel receiving events whose name starts with one of prefixes, or every
// event when none are given. The returned func unsubscribes and closes the channel.
func (b *Bus) Subscribe(prefixes ...string) (<-chan Event, func()) {
	sub := &subscription{ch: make(chan Event, b.buffer), prefixes: prefixes}

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(sub.ch)
		})
	}
}

func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

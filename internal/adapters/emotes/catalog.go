package emotes

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var sizes = map[domain.EmoteProvider]map[string]string{
	domain.ProviderFrankerFaceZ: {"1x": "1", "2x": "2", "4x": "4"},
	domain.ProviderBTTV:         {"1x": "1x", "2x": "2x", "3x": "3x"},
	domain.ProviderSevenTV:      {"1x": "1x.webp", "2x": "2x.webp", "3x": "3x.webp", "4x": "4x.webp"},
}

var templates = map[domain.EmoteProvider]string{
	domain.ProviderFrankerFaceZ: "https://cdn.frankerfacez.com/emote/%s/%s",
	domain.ProviderBTTV:         "https://cdn.betterttv.net/emote/%s/%s",
	domain.ProviderSevenTV:      "https://cdn.7tv.app/emote/%s/%s",
}

// Entry is one emote of a snapshot file.
type Entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Catalog is the in-memory emote table of one third-party provider. Lookups are exact and
// case-insensitive. The table is swapped as a whole on Replace.
type Catalog struct {
	provider domain.EmoteProvider

	mu     sync.RWMutex
	byName map[string]domain.Emote

	l *zerolog.Logger
}

func NewCatalog(provider domain.EmoteProvider) *Catalog {
	logger := log.With().Str("component", "emotes").Str("provider", string(provider)).Logger()

	return &Catalog{
		provider: provider,
		byName:   map[string]domain.Emote{},
		l:        &logger,
	}
}

func (c *Catalog) Provider() domain.EmoteProvider {
	return c.provider
}

func (c *Catalog) Lookup(name string) (domain.Emote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	emote, ok := c.byName[strings.ToLower(name)]
	return emote, ok
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.byName)
}

// Replace swaps the whole table. When two names differ only by case, the first one wins.
func (c *Catalog) Replace(entries []Entry) {
	table := make(map[string]domain.Emote, len(entries))

	for _, e := range entries {
		key := strings.ToLower(strings.TrimSpace(e.Name))
		if key == "" || e.ID == "" {
			continue
		}
		if _, ok := table[key]; ok {
			continue
		}

		table[key] = domain.Emote{
			ID:       e.ID,
			Provider: c.provider,
			URLs:     URLs(c.provider, e.ID),
		}
	}

	c.mu.Lock()
	c.byName = table
	c.mu.Unlock()

	c.l.Info().Int("count", len(table)).Msg("replaced emote table")
}

// LoadFile replaces the table with the JSON snapshot at path.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read emote snapshot: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse emote snapshot %s: %w", path, err)
	}

	c.Replace(entries)
	return nil
}

// URLs builds the size to image URL map of a provider emote.
func URLs(provider domain.EmoteProvider, id string) map[string]string {
	template, ok := templates[provider]
	if !ok {
		return map[string]string{}
	}

	urls := make(map[string]string, len(sizes[provider]))
	for size, suffix := range sizes[provider] {
		urls[size] = fmt.Sprintf(template, id, suffix)
	}

	return urls
}

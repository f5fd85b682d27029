package emotes

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Lookup(t *testing.T) {
	c := NewCatalog(domain.ProviderBTTV)
	c.Replace([]Entry{
		{ID: "b1", Name: "catJAM"},
		{ID: "b2", Name: "CATJAM"},
		{ID: "", Name: "broken"},
		{ID: "b3", Name: " "},
	})

	assert.Equal(t, 1, c.Len())

	tests := []struct {
		name  string
		input string
		found bool
	}{
		{name: "same case", input: "catJAM", found: true},
		{name: "lower case", input: "catjam", found: true},
		{name: "prefix only", input: "catJAM2", found: false},
		{name: "no id", input: "broken", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emote, ok := c.Lookup(tt.input)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, "b1", emote.ID)
				assert.Equal(t, domain.ProviderBTTV, emote.Provider)
			}
		})
	}
}

func TestURLs(t *testing.T) {
	tests := []struct {
		provider domain.EmoteProvider
		size     string
		want     string
		count    int
	}{
		{domain.ProviderFrankerFaceZ, "4x", "https://cdn.frankerfacez.com/emote/9/4", 3},
		{domain.ProviderBTTV, "2x", "https://cdn.betterttv.net/emote/9/2x", 3},
		{domain.ProviderSevenTV, "4x", "https://cdn.7tv.app/emote/9/4x.webp", 4},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			urls := URLs(tt.provider, "9")
			assert.Len(t, urls, tt.count)
			assert.Equal(t, tt.want, urls[tt.size])
		})
	}

	assert.Empty(t, URLs(domain.ProviderTwitch, "9"))
}

func TestCatalog_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "7tv.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"s1","name":"EZ"},{"id":"s2","name":"Clap"}]`), 0o600))

	c := NewCatalog(domain.ProviderSevenTV)
	require.NoError(t, c.LoadFile(path))
	assert.Equal(t, 2, c.Len())

	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o600))
	assert.Error(t, c.LoadFile(path))
	assert.Equal(t, 2, c.Len())

	assert.Error(t, c.LoadFile(filepath.Join(t.TempDir(), "missing.json")))
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ffz.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"f1","name":"LUL"}]`), 0o600))

	c := NewCatalog(domain.ProviderFrankerFaceZ)
	require.NoError(t, c.LoadFile(path))

	require.NoError(t, Watch(t.Context(), map[string]*Catalog{path: c, "": NewCatalog(domain.ProviderBTTV)}))

	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"f1","name":"LUL"},{"id":"f2","name":"OMEGALUL"}]`), 0o600))

	assert.Eventually(t, func() bool {
		_, ok := c.Lookup("omegalul")
		return ok
	}, 5*time.Second, 20*time.Millisecond)
}

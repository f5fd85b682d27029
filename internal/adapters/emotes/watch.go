package emotes

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const reloadDebounce = 250 * time.Millisecond

// Watch reloads each catalog whenever its snapshot file changes. Catalogs with an empty path are skipped.
// The watcher stops with ctx.
func Watch(ctx context.Context, snapshots map[string]*Catalog) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	watched := map[string]*Catalog{}
	for path, catalog := range snapshots {
		if path == "" {
			continue
		}
		if err := w.Add(path); err != nil {
			log.Error().Err(err).Str("path", path).Msg("failed to watch emote snapshot")
			continue
		}
		watched[path] = catalog
	}
	if len(watched) == 0 {
		return w.Close()
	}

	go func() {
		defer w.Close()

		pending := map[string]struct{}{}
		debounce := time.NewTimer(0)
		if !debounce.Stop() {
			<-debounce.C
		}

		for {
			select {
			case <-ctx.Done():
				debounce.Stop()
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if _, ok := watched[ev.Name]; !ok {
					continue
				}
				if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					if err := w.Add(ev.Name); err != nil {
						log.Warn().Err(err).Str("path", ev.Name).Msg("failed to re-watch emote snapshot")
					}
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					pending[ev.Name] = struct{}{}
					if !debounce.Stop() {
						select {
						case <-debounce.C:
						default:
						}
					}
					debounce.Reset(reloadDebounce)
				}
			case <-debounce.C:
				for path := range pending {
					if err := watched[path].LoadFile(path); err != nil {
						log.Error().Err(err).Str("path", path).Msg("emote snapshot reload failed")
					}
				}
				clear(pending)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Error().Err(err).Msg("emote snapshot watch error")
			}
		}
	}()

	return nil
}

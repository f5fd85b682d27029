package port

import (
	"context"
	"net/url"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
)

type EmoteCatalog interface {
	// Provider names the catalog.
	Provider() domain.EmoteProvider
	// Lookup finds an emote by its exact name, ignoring case.
	Lookup(name string) (domain.Emote, bool)
}

type URLMetadataFetcher interface {
	// Fetch returns what it could learn about the page. It never fails; unknown fields stay empty.
	Fetch(ctx context.Context, u *url.URL) domain.URLPreview
}

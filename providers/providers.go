// Package providers defines the canonical shape external release metadata is
// normalized into, and the gateway interface every metadata provider adapter
// implements. The rest of the server only ever sees ReleaseMetadata - all
// provider quirks (field naming, pagination, rate limits) stay behind the
// Gateway.
package providers

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable means the provider could not be reached or answered
	// with a non-2xx status. Callers should suggest a retry.
	ErrUnavailable = errors.New("metadata provider unavailable")
	// ErrNotFound means the external id does not exist at the provider.
	ErrNotFound = errors.New("release not found at provider")
)

// SearchBy is the dimension a free-text search runs against.
type SearchBy string

const (
	SearchByBarcode SearchBy = "barcode"
	SearchByTitle   SearchBy = "title"
	SearchByArtist  SearchBy = "artist"
	SearchByGenre   SearchBy = "genre"
	SearchByAny     SearchBy = ""
)

// ReleaseMetadata is the provider-agnostic release shape. Fields already
// carry the normalization rules applied: implausible years are nil and
// artist names have numbered disambiguation suffixes stripped.
type ReleaseMetadata struct {
	Title       string
	Year        *int
	Artists     []string
	Genres      []string
	Format      string // "" when the provider gave none
	ImageURL    string // primary image, "" when none
	ExternalID  string
	ExternalURL string
}

// RawRelease is one provider-native release representation. Adapters keep
// their raw payload and convert on demand.
type RawRelease interface {
	Metadata() ReleaseMetadata
}

// SearchPage carries the provider's own pagination fields, unmodified, so
// callers can re-page with the same semantics the provider uses.
type SearchPage struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Pages   int `json:"pages"`
	Items   int `json:"items"`
}

type Gateway interface {
	// SearchReleases returns provider-native results plus the provider's
	// pagination metadata. Fails with ErrUnavailable on transport errors.
	SearchReleases(ctx context.Context, by SearchBy, query string, page, perPage int) ([]RawRelease, SearchPage, error)
	// FetchRelease hydrates one release by its external id.
	FetchRelease(ctx context.Context, externalID string) (RawRelease, error)
}

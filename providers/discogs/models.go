package discogs

// Wire types for the Discogs REST API (https://api.discogs.com).
// Only the fields the catalog cares about are mapped.

type searchResponse struct {
	Pagination pagination     `json:"pagination"`
	Results    []searchResult `json:"results"`
}

type pagination struct {
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	PerPage int `json:"per_page"`
	Items   int `json:"items"`
}

type searchResult struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"` // "Artist - Title" in search results
	Year        string   `json:"year"`  // string here, int on the release resource
	Format      []string `json:"format"`
	Genre       []string `json:"genre"`
	Style       []string `json:"style"`
	CoverImage  string   `json:"cover_image"`
	Thumb       string   `json:"thumb"`
	ResourceURL string   `json:"resource_url"`
	URI         string   `json:"uri"`
}

// Release is the full release resource. It implements providers.RawRelease.
type Release struct {
	ID      int64           `json:"id"`
	Title   string          `json:"title"`
	Year    int             `json:"year"`
	Artists []releaseArtist `json:"artists"`
	Genres  []string        `json:"genres"`
	Styles  []string        `json:"styles"`
	Formats []releaseFormat `json:"formats"`
	Images  []releaseImage  `json:"images"`
	URI     string          `json:"uri"`
}

type releaseArtist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type releaseFormat struct {
	Name         string   `json:"name"`
	Qty          string   `json:"qty"`
	Descriptions []string `json:"descriptions"`
}

type releaseImage struct {
	Type string `json:"type"` // "primary" or "secondary"
	URI  string `json:"uri"`
}

package discogs

import (
	"strconv"
	"vinylcat/providers"
)

// Metadata converts a full Discogs release into the canonical shape.
func (r *Release) Metadata() providers.ReleaseMetadata {
	artists := make([]string, 0, len(r.Artists))
	for _, a := range r.Artists {
		if name := providers.NormalizeArtistName(a.Name); name != "" {
			artists = append(artists, name)
		}
	}
	// Discogs splits genre ("Rock") from style ("Prog Rock"); the catalog
	// treats both as genres.
	genres := append(append([]string{}, r.Genres...), r.Styles...)

	format := ""
	if len(r.Formats) > 0 {
		format = r.Formats[0].Name
	}

	return providers.ReleaseMetadata{
		Title:       r.Title,
		Year:        providers.NormalizeYear(r.Year),
		Artists:     artists,
		Genres:      genres,
		Format:      format,
		ImageURL:    r.primaryImage(),
		ExternalID:  strconv.FormatInt(r.ID, 10),
		ExternalURL: r.URI,
	}
}

// primaryImage prefers the image Discogs tags as primary, falling back to
// the first one available.
func (r *Release) primaryImage() string {
	for _, img := range r.Images {
		if img.Type == "primary" && img.URI != "" {
			return img.URI
		}
	}
	for _, img := range r.Images {
		if img.URI != "" {
			return img.URI
		}
	}
	return ""
}

// Metadata converts a search hit. Search results are shallow - no artist
// breakdown, stringly-typed year - so scan flows hydrate the full release
// by id before ingesting.
func (s *searchResult) Metadata() providers.ReleaseMetadata {
	year := 0
	if y, err := strconv.Atoi(s.Year); err == nil {
		year = y
	}
	format := ""
	if len(s.Format) > 0 {
		format = s.Format[0]
	}
	image := s.CoverImage
	if image == "" {
		image = s.Thumb
	}
	return providers.ReleaseMetadata{
		Title:       s.Title,
		Year:        providers.NormalizeYear(year),
		Genres:      append(append([]string{}, s.Genre...), s.Style...),
		Format:      format,
		ImageURL:    image,
		ExternalID:  strconv.FormatInt(s.ID, 10),
		ExternalURL: s.URI,
	}
}

package ingest

import (
	"strings"
	"vinylcat/models"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Candidate is the assembled release about to be persisted, with all
// references already reconciled to real records.
type Candidate struct {
	Title    string `validate:"max=150"`
	Slug     string // optional; derived from the title when empty
	Year     *int
	Barcode  *string
	Cover    string
	Note     string
	Featured bool

	ExternalID  string
	ExternalURL string
	ImageURL    string

	Artists []models.Artist
	Genres  []models.Genre
	Format  *models.Format
	Shelf   *models.Shelf
}

// Normalize applies the canonicalization rules that run before validation:
// whitespace trimming, empty barcode to absent, implausible year to absent.
func (c *Candidate) Normalize() {
	c.Title = strings.TrimSpace(c.Title)
	if c.Barcode != nil {
		b := strings.TrimSpace(*c.Barcode)
		if b == "" {
			c.Barcode = nil
		} else {
			c.Barcode = &b
		}
	}
	if c.Year != nil && *c.Year <= 1000 {
		c.Year = nil
	}
}

// Validate checks the candidate and returns a field-keyed error map, or nil
// when the candidate is persistable. Rules: non-empty title of at most 150
// characters, digits-only barcode, year absent or above 1000, at least one
// artist.
func (c *Candidate) Validate() *ValidationError {
	fields := map[string]string{}

	if c.Title == "" {
		fields["title"] = "title is required"
	} else if err := validate.Var(c.Title, "max=150"); err != nil {
		fields["title"] = "title must be at most 150 characters"
	}
	if c.Barcode != nil {
		if err := validate.Var(*c.Barcode, "numeric"); err != nil {
			fields["barcode"] = "barcode must contain digits only"
		}
	}
	if c.Year != nil && *c.Year <= 1000 {
		fields["year"] = "release year must be after 1000"
	}
	if len(c.Artists) == 0 {
		fields["artists"] = "at least one artist is required"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

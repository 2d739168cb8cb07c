// Package catalog is the reconciliation engine: it maps raw reference names
// coming out of the provider gateway (or user input) onto persisted Artist,
// Genre, Format and Shelf records, creating them when absent. All lookups go
// through normalized identity so near-duplicates collapse onto one record.
package catalog

import (
	"strings"
	"vinylcat/models"
	"vinylcat/providers"

	"errors"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

var logger = log.WithPrefix("catalog")

// Reconciler resolves reference entities against one database handle.
// Safe for concurrent use across requests: duplicate creates racing each
// other are settled by the unique name index plus a retry lookup, not by
// locking.
type Reconciler struct {
	db *gorm.DB
}

func NewReconciler(db *gorm.DB) *Reconciler {
	return &Reconciler{db: db}
}

// ResolveArtist finds the artist with the given raw name, creating it when
// absent. Numbered disambiguation suffixes ("Genesis (2)") are stripped
// first, so provider-specific duplicates resolve to the one real artist.
//
// Contract for concurrent callers: if the insert loses a race and hits the
// unique name index, the lookup is retried once and the winner's record is
// returned.
func (r *Reconciler) ResolveArtist(rawName string) (models.Artist, error) {
	name := providers.NormalizeArtistName(rawName)
	if name == "" {
		return models.Artist{}, errors.New("empty artist name")
	}
	if artist, err := models.ArtistFindByName(r.db, name); err == nil {
		return artist, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Artist{}, err
	}

	slug, err := EnsureUniqueSlug(name, r.slugTaken(&models.Artist{}))
	if err != nil {
		return models.Artist{}, err
	}
	artist := models.Artist{Name: name, Slug: slug}
	if createErr := r.db.Create(&artist).Error; createErr != nil {
		// Likely a concurrent resolver won the insert; trust the unique
		// index and look the name up once more.
		logger.Debug("artist create failed, retrying lookup", "name", name, "err", createErr)
		if artist, err := models.ArtistFindByName(r.db, name); err == nil {
			return artist, nil
		}
		return models.Artist{}, createErr
	}
	logger.Info("created artist", "name", name, "slug", slug)
	return artist, nil
}

// ResolveGenre is the genre counterpart of ResolveArtist, same contract.
func (r *Reconciler) ResolveGenre(rawName string) (models.Genre, error) {
	name := strings.TrimSpace(rawName)
	if name == "" {
		return models.Genre{}, errors.New("empty genre name")
	}
	if genre, err := models.GenreFindByName(r.db, name); err == nil {
		return genre, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Genre{}, err
	}

	slug, err := EnsureUniqueSlug(name, r.slugTaken(&models.Genre{}))
	if err != nil {
		return models.Genre{}, err
	}
	genre := models.Genre{Name: name, Slug: slug}
	if createErr := r.db.Create(&genre).Error; createErr != nil {
		logger.Debug("genre create failed, retrying lookup", "name", name, "err", createErr)
		if genre, err := models.GenreFindByName(r.db, name); err == nil {
			return genre, nil
		}
		return models.Genre{}, createErr
	}
	logger.Info("created genre", "name", name, "slug", slug)
	return genre, nil
}

// Provider format names mapped onto the seeded format table. Metadata
// completeness is best-effort: unknown names resolve to no format at all
// rather than failing the ingestion.
var formatNames = map[string]uint64{
	"cd":       1,
	"vinyl":    2,
	"lp":       2,
	"cassette": 3,
	"tape":     3,
}

// ResolveFormat maps a provider format name to a seeded Format record, or
// nil when the name is unrecognized.
func (r *Reconciler) ResolveFormat(name string) *models.Format {
	id, ok := formatNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil
	}
	var format models.Format
	if err := r.db.First(&format, id).Error; err != nil {
		return nil
	}
	return &format
}

// ArtistByID returns nil (not an error) when the id does not resolve -
// whether a dangling reference is fatal is the caller's policy.
func (r *Reconciler) ArtistByID(id uint64) (*models.Artist, error) {
	return refByID[models.Artist](r.db, id)
}

func (r *Reconciler) GenreByID(id uint64) (*models.Genre, error) {
	return refByID[models.Genre](r.db, id)
}

func (r *Reconciler) FormatByID(id uint64) (*models.Format, error) {
	return refByID[models.Format](r.db, id)
}

func (r *Reconciler) ShelfByID(id uint64) (*models.Shelf, error) {
	return refByID[models.Shelf](r.db, id)
}

func refByID[T any](db *gorm.DB, id uint64) (*T, error) {
	var entity T
	err := db.First(&entity, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// slugTaken builds the collision probe for EnsureUniqueSlug over the given
// model's table.
func (r *Reconciler) slugTaken(model any) func(string) (bool, error) {
	return func(slug string) (bool, error) {
		var count int64
		if err := r.db.Model(model).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return false, err
		}
		return count > 0, nil
	}
}

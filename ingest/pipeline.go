// Package ingest orchestrates turning provider metadata (or manual input)
// into a persisted release aggregate: fetch, normalize, reconcile, validate,
// conflict-check, persist, and finally a best-effort cover download. One
// pass, request-scoped, no intermediate state survives a failure - except
// reference entities created during reconciliation, which are independently
// valid catalog data and deliberately kept.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"vinylcat/catalog"
	"vinylcat/models"
	"vinylcat/providers"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// State names one step of an ingestion attempt. Attempts move strictly
// forward; Aborted is reachable from every state except CoverFetch, whose
// failures degrade to "no cover" instead.
type State string

const (
	StateRequested     State = "requested"
	StateFetching      State = "fetching"
	StateNormalizing   State = "normalizing"
	StateReconciling   State = "reconciling"
	StateValidating    State = "validating"
	StateConflictCheck State = "conflict_check"
	StatePersisting    State = "persisting"
	StateCoverFetch    State = "cover_fetch"
	StateCompleted     State = "completed"
	StateAborted       State = "aborted"
)

// CoverFetcher is the cover acquisition collaborator. Download returns the
// stored filename or "" - it never fails the pipeline.
type CoverFetcher interface {
	Download(ctx context.Context, url, key string) string
	Remove(filename string)
}

// ProgressFunc observes state transitions (used by the scan websocket feed).
type ProgressFunc func(attemptID string, state State)

var logger = log.WithPrefix("ingest")

type Pipeline struct {
	db      *gorm.DB
	gateway providers.Gateway
	covers  CoverFetcher
}

func NewPipeline(db *gorm.DB, gateway providers.Gateway, covers CoverFetcher) *Pipeline {
	return &Pipeline{db: db, gateway: gateway, covers: covers}
}

// IngestExternal runs the full scan/add pipeline: hydrate the release from
// the provider, reconcile its references, and persist it into the user's
// collection. barcode is the scanned code (may be empty for add-by-id),
// shelfID the user's chosen shelf (optional).
func (p *Pipeline) IngestExternal(ctx context.Context, user *models.User, externalID, barcode string, shelfID *uint64, progress ProgressFunc) (*models.Release, error) {
	attempt := uuid.New().String()
	alog := logger.With("attempt", attempt, "user", user.ID, "external_id", externalID)
	step := func(s State) {
		alog.Debug("pipeline step", "state", s)
		if progress != nil {
			progress(attempt, s)
		}
	}
	abort := func(err error) (*models.Release, error) {
		step(StateAborted)
		return nil, err
	}
	step(StateRequested)

	step(StateFetching)
	raw, err := p.gateway.FetchRelease(ctx, externalID)
	if errors.Is(err, providers.ErrNotFound) {
		return abort(fmt.Errorf("%w: release %s", ErrNotFound, externalID))
	}
	if err != nil {
		return abort(fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err))
	}

	step(StateNormalizing)
	meta := raw.Metadata()
	candidate := Candidate{
		Title:       meta.Title,
		Year:        meta.Year,
		Note:        "",
		ExternalID:  meta.ExternalID,
		ExternalURL: meta.ExternalURL,
		ImageURL:    meta.ImageURL,
	}
	if barcode != "" {
		candidate.Barcode = &barcode
	}
	candidate.Normalize()

	step(StateReconciling)
	if err := p.reconcileMetadata(&candidate, meta, shelfID); err != nil {
		return abort(err)
	}

	release, err := p.assemble(user, &candidate, 0, step)
	if err != nil {
		return nil, err
	}

	// Outside the transaction, tolerant of any failure. The external id is
	// the stable key so a re-download overwrites rather than duplicates.
	step(StateCoverFetch)
	p.fetchCover(ctx, release, candidate.ImageURL)

	step(StateCompleted)
	alog.Info("ingested release", "release", release.ID, "title", release.Title)
	return release, nil
}

// CreateManual runs the pipeline for caller-supplied input: same
// reconcile/validate/conflict/persist steps, no provider fetch and no cover
// download (covers are set explicitly in manual flows).
func (p *Pipeline) CreateManual(ctx context.Context, user *models.User, in ManualInput, progress ProgressFunc) (*models.Release, error) {
	attempt := uuid.New().String()
	step := func(s State) {
		logger.Debug("pipeline step", "attempt", attempt, "state", s)
		if progress != nil {
			progress(attempt, s)
		}
	}
	step(StateRequested)

	candidate, err := p.reconcileManual(in)
	if err != nil {
		step(StateAborted)
		return nil, err
	}
	release, err := p.assemble(user, candidate, 0, step)
	if err != nil {
		return nil, err
	}
	step(StateCompleted)
	return release, nil
}

// UpdateManual edits an existing release through the same steps. The
// conflict check ignores the release itself.
func (p *Pipeline) UpdateManual(ctx context.Context, user *models.User, releaseID uint64, in ManualInput) (*models.Release, error) {
	var existing models.Release
	if err := p.db.First(&existing, releaseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: release %d", ErrNotFound, releaseID)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !existing.OwnedBy(user.ID) {
		return nil, fmt.Errorf("%w: release %d", ErrNotFound, releaseID)
	}

	candidate, err := p.reconcileManual(in)
	if err != nil {
		return nil, err
	}
	if candidate.Cover == "" {
		candidate.Cover = existing.Cover
	}
	return p.persistUpdate(user, &existing, candidate)
}

// ManualInput is the direct create/edit shape: references come as ids, the
// canonical metadata fields are given by the caller.
type ManualInput struct {
	Title     string
	Slug      string
	Year      *int
	Barcode   *string
	Cover     string // stored cover filename; empty keeps the current one on edit
	Note      string
	Featured  bool
	ArtistIDs []uint64
	GenreIDs  []uint64
	FormatID  *uint64
	ShelfID   *uint64
}

// reconcileMetadata resolves provider names into records. Reference
// entities created here stay created even if a later step aborts.
func (p *Pipeline) reconcileMetadata(c *Candidate, meta providers.ReleaseMetadata, shelfID *uint64) error {
	rec := catalog.NewReconciler(p.db)
	seenArtists := map[uint64]bool{}
	for _, name := range meta.Artists {
		artist, err := rec.ResolveArtist(name)
		if err != nil {
			return fmt.Errorf("%w: resolving artist %q: %v", ErrPersistence, name, err)
		}
		if !seenArtists[artist.ID] {
			seenArtists[artist.ID] = true
			c.Artists = append(c.Artists, artist)
		}
	}
	seenGenres := map[uint64]bool{}
	for _, name := range meta.Genres {
		genre, err := rec.ResolveGenre(name)
		if err != nil {
			return fmt.Errorf("%w: resolving genre %q: %v", ErrPersistence, name, err)
		}
		if !seenGenres[genre.ID] {
			seenGenres[genre.ID] = true
			c.Genres = append(c.Genres, genre)
		}
	}
	c.Format = rec.ResolveFormat(meta.Format)
	if shelfID != nil {
		shelf, err := rec.ShelfByID(*shelfID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if shelf == nil {
			return &ValidationError{Fields: map[string]string{"shelf": "unknown shelf"}}
		}
		c.Shelf = shelf
	}
	return nil
}

// reconcileManual resolves id references from direct input. An id that does
// not resolve is a field error - the caller named a record, so its absence
// is fatal here (unlike provider metadata, which is best-effort).
func (p *Pipeline) reconcileManual(in ManualInput) (*Candidate, error) {
	rec := catalog.NewReconciler(p.db)
	c := &Candidate{
		Title:    in.Title,
		Slug:     in.Slug,
		Year:     in.Year,
		Barcode:  in.Barcode,
		Cover:    in.Cover,
		Note:     in.Note,
		Featured: in.Featured,
	}
	fields := map[string]string{}
	if strings.ContainsAny(in.Cover, "/\\") || strings.Contains(in.Cover, "..") {
		fields["cover"] = "cover must be a plain filename"
	}
	seen := map[uint64]bool{}
	for _, id := range in.ArtistIDs {
		artist, err := rec.ArtistByID(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if artist == nil {
			fields["artists"] = "unknown artist id " + strconv.FormatUint(id, 10)
			continue
		}
		if !seen[artist.ID] {
			seen[artist.ID] = true
			c.Artists = append(c.Artists, *artist)
		}
	}
	seenGenre := map[uint64]bool{}
	for _, id := range in.GenreIDs {
		genre, err := rec.GenreByID(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if genre == nil {
			fields["genres"] = "unknown genre id " + strconv.FormatUint(id, 10)
			continue
		}
		if !seenGenre[genre.ID] {
			seenGenre[genre.ID] = true
			c.Genres = append(c.Genres, *genre)
		}
	}
	if in.FormatID != nil {
		format, err := rec.FormatByID(*in.FormatID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if format == nil {
			fields["format"] = "unknown format"
		}
		c.Format = format
	}
	if in.ShelfID != nil {
		shelf, err := rec.ShelfByID(*in.ShelfID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if shelf == nil {
			fields["shelf"] = "unknown shelf"
		}
		c.Shelf = shelf
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	c.Normalize()
	return c, nil
}

// assemble runs Validating -> ConflictCheck -> Persisting for a new release.
func (p *Pipeline) assemble(user *models.User, c *Candidate, selfID uint64, step func(State)) (*models.Release, error) {
	abort := func(err error) (*models.Release, error) {
		step(StateAborted)
		return nil, err
	}

	step(StateValidating)
	if verr := c.Validate(); verr != nil {
		return abort(verr)
	}

	step(StateConflictCheck)
	if c.Barcode != nil {
		existing, err := models.ReleaseFindByBarcodeAndUser(p.db, *c.Barcode, user.ID)
		if err == nil && existing.ID != selfID {
			return abort(&ConflictError{Existing: existing})
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return abort(fmt.Errorf("%w: %v", ErrPersistence, err))
		}
	}

	step(StatePersisting)
	release, err := p.persistNew(user, c)
	if err != nil {
		step(StateAborted)
		return nil, err
	}
	return release, nil
}

// persistNew writes the release, its associations and the owner link as one
// transaction. The (user, barcode) unique index is the final arbiter for
// scans racing each other - a loser here surfaces Conflict, not a dup.
func (p *Pipeline) persistNew(user *models.User, c *Candidate) (*models.Release, error) {
	slugSource := c.Slug
	if slugSource == "" {
		slugSource = c.Title
	}
	slug, err := catalog.EnsureUniqueSlug(slugSource, func(s string) (bool, error) {
		var count int64
		if err := p.db.Model(&models.Release{}).Where("slug = ?", s).Count(&count).Error; err != nil {
			return false, err
		}
		return count > 0, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	release := models.Release{
		Title:       c.Title,
		Slug:        slug,
		Year:        c.Year,
		Barcode:     c.Barcode,
		Cover:       c.Cover,
		Note:        c.Note,
		Featured:    c.Featured,
		ExternalID:  c.ExternalID,
		ExternalURL: c.ExternalURL,
		Artists:     c.Artists,
		Genres:      c.Genres,
	}
	if c.Format != nil {
		release.FormatID = &c.Format.ID
	}
	if c.Shelf != nil {
		release.ShelfID = &c.Shelf.ID
	}

	err = p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Artists.*", "Genres.*").Create(&release).Error; err != nil {
			return err
		}
		owner := models.UserRelease{
			UserID:    user.ID,
			ReleaseID: release.ID,
			Barcode:   c.Barcode,
		}
		return tx.Create(&owner).Error
	})
	if err != nil {
		// The insert may have lost a same-user same-barcode race to a
		// concurrent scan; if so this is a conflict, not a storage bug.
		if c.Barcode != nil {
			if existing, lookupErr := models.ReleaseFindByBarcodeAndUser(p.db, *c.Barcode, user.ID); lookupErr == nil {
				return nil, &ConflictError{Existing: existing}
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &release, nil
}

// persistUpdate applies an edit. Runs the same Validate/ConflictCheck steps
// with the release itself excluded from the barcode conflict.
func (p *Pipeline) persistUpdate(user *models.User, existing *models.Release, c *Candidate) (*models.Release, error) {
	if verr := c.Validate(); verr != nil {
		return nil, verr
	}
	if c.Barcode != nil {
		if other, err := models.ReleaseFindByBarcodeAndUser(p.db, *c.Barcode, user.ID); err == nil && other.ID != existing.ID {
			return nil, &ConflictError{Existing: other}
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}

	existing.Title = c.Title
	existing.Year = c.Year
	existing.Barcode = c.Barcode
	existing.Note = c.Note
	existing.Featured = c.Featured
	existing.Cover = c.Cover
	if c.Slug != "" && c.Slug != existing.Slug {
		slug, err := catalog.EnsureUniqueSlug(c.Slug, func(s string) (bool, error) {
			var count int64
			if err := p.db.Model(&models.Release{}).Where("slug = ? AND id <> ?", s, existing.ID).Count(&count).Error; err != nil {
				return false, err
			}
			return count > 0, nil
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		existing.Slug = slug
	}
	existing.FormatID = nil
	if c.Format != nil {
		existing.FormatID = &c.Format.ID
	}
	existing.ShelfID = nil
	if c.Shelf != nil {
		existing.ShelfID = &c.Shelf.ID
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Artists", "Genres", "Users").Save(existing).Error; err != nil {
			return err
		}
		if err := tx.Model(existing).Association("Artists").Replace(c.Artists); err != nil {
			return err
		}
		if err := tx.Model(existing).Association("Genres").Replace(c.Genres); err != nil {
			return err
		}
		// Keep the denormalized barcode on the ownership rows in sync -
		// it backs the per-user uniqueness index.
		return tx.Model(&models.UserRelease{}).
			Where("release_id = ?", existing.ID).
			Update("barcode", c.Barcode).Error
	})
	if err != nil {
		if c.Barcode != nil {
			if other, lookupErr := models.ReleaseFindByBarcodeAndUser(p.db, *c.Barcode, user.ID); lookupErr == nil && other.ID != existing.ID {
				return nil, &ConflictError{Existing: other}
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return existing, nil
}

// SetCover downloads a caller-supplied image URL for the release (the
// manual counterpart of the pipeline's CoverFetch step).
func (p *Pipeline) SetCover(ctx context.Context, release *models.Release, url string) error {
	p.fetchCover(ctx, release, url)
	if release.Cover == "" {
		return fmt.Errorf("%w: could not fetch cover", ErrUpstreamUnavailable)
	}
	return nil
}

// Delete removes the release, its association rows and - best effort - its
// cover file. A missing cover file is logged, never fatal.
func (p *Pipeline) Delete(user *models.User, releaseID uint64) error {
	var release models.Release
	if err := p.db.First(&release, releaseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: release %d", ErrNotFound, releaseID)
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !release.OwnedBy(user.ID) {
		return fmt.Errorf("%w: release %d", ErrNotFound, releaseID)
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&release).Association("Artists").Clear(); err != nil {
			return err
		}
		if err := tx.Model(&release).Association("Genres").Clear(); err != nil {
			return err
		}
		if err := tx.Where("release_id = ?", release.ID).Delete(&models.UserRelease{}).Error; err != nil {
			return err
		}
		return tx.Delete(&release).Error
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if release.Cover != "" && p.covers != nil {
		p.covers.Remove(release.Cover)
	}
	return nil
}

// fetchCover stores the downloaded cover name on the release. Failure only
// logs - a release without a cover is still a complete ingestion.
func (p *Pipeline) fetchCover(ctx context.Context, release *models.Release, url string) {
	if url == "" || p.covers == nil {
		return
	}
	key := release.ExternalID
	if key == "" {
		key = strconv.FormatUint(release.ID, 10)
	}
	filename := p.covers.Download(ctx, url, key)
	if filename == "" {
		logger.Warn("cover fetch failed, keeping release without cover", "release", release.ID, "url", url)
		return
	}
	if err := p.db.Model(release).Update("cover", filename).Error; err != nil {
		logger.Warn("could not record cover filename", "release", release.ID, "err", err)
		return
	}
	release.Cover = filename
}

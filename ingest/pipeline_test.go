package ingest

import (
	"context"
	"fmt"
	"testing"
	"vinylcat/db"
	"vinylcat/models"
	"vinylcat/providers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeRelease is a canned provider payload.
type fakeRelease struct {
	meta providers.ReleaseMetadata
}

func (f *fakeRelease) Metadata() providers.ReleaseMetadata { return f.meta }

// fakeGateway serves releases from a map; missing ids are ErrNotFound and a
// non-nil err fails every call.
type fakeGateway struct {
	releases map[string]providers.ReleaseMetadata
	err      error
}

func (f *fakeGateway) SearchReleases(ctx context.Context, by providers.SearchBy, query string, page, perPage int) ([]providers.RawRelease, providers.SearchPage, error) {
	return nil, providers.SearchPage{}, providers.ErrNotFound
}

func (f *fakeGateway) FetchRelease(ctx context.Context, externalID string) (providers.RawRelease, error) {
	if f.err != nil {
		return nil, f.err
	}
	meta, ok := f.releases[externalID]
	if !ok {
		return nil, providers.ErrNotFound
	}
	return &fakeRelease{meta: meta}, nil
}

// fakeCovers records download attempts; fail makes every download come back
// empty the way a dead image host would.
type fakeCovers struct {
	fail       bool
	downloaded []string
	removed    []string
}

func (f *fakeCovers) Download(ctx context.Context, url, key string) string {
	f.downloaded = append(f.downloaded, url)
	if f.fail {
		return ""
	}
	return key + ".jpg"
}

func (f *fakeCovers) Remove(filename string) {
	f.removed = append(f.removed, filename)
}

func headlessCross() providers.ReleaseMetadata {
	year := 1989
	return providers.ReleaseMetadata{
		Title:       "Headless Cross",
		Year:        &year,
		Artists:     []string{"Black Sabbath"},
		Genres:      []string{"Rock", "Heavy Metal"},
		Format:      "Vinyl",
		ImageURL:    "https://img.example/headless.jpg",
		ExternalID:  "1477251",
		ExternalURL: "https://www.discogs.com/release/1477251",
	}
}

type pipelineFixture struct {
	db       *gorm.DB
	gateway  *fakeGateway
	covers   *fakeCovers
	pipeline *Pipeline
	user     *models.User
}

func newFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	db.Init("", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	models.Init()

	gateway := &fakeGateway{releases: map[string]providers.ReleaseMetadata{
		"1477251": headlessCross(),
	}}
	covers := &fakeCovers{}
	user, err := models.UserCreate("Tony", "tony@example.com", "ironman")
	require.NoError(t, err)
	return &pipelineFixture{
		db:       db.Instance,
		gateway:  gateway,
		covers:   covers,
		pipeline: NewPipeline(db.Instance, gateway, covers),
		user:     &user,
	}
}

func (f *pipelineFixture) secondUser(t *testing.T) *models.User {
	t.Helper()
	user, err := models.UserCreate("Geezer", "geezer@example.com", "bassist")
	require.NoError(t, err)
	return &user
}

func TestIngestExternalPersistsFullAggregate(t *testing.T) {
	f := newFixture(t)

	var states []State
	release, err := f.pipeline.IngestExternal(context.Background(), f.user, "1477251", "5012981024529", nil, func(_ string, s State) {
		states = append(states, s)
	})
	require.NoError(t, err)

	assert.Equal(t, "Headless Cross", release.Title)
	assert.Equal(t, "headless-cross", release.Slug)
	require.NotNil(t, release.Year)
	assert.Equal(t, 1989, *release.Year)
	require.NotNil(t, release.Barcode)
	assert.Equal(t, "5012981024529", *release.Barcode)
	assert.Equal(t, "1477251.jpg", release.Cover, "cover named after the external id")
	assert.True(t, release.OwnedBy(f.user.ID))

	loaded, err := models.ReleaseFindByID(f.db, release.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Artists, 1)
	assert.Equal(t, "Black Sabbath", loaded.Artists[0].Name)
	assert.Len(t, loaded.Genres, 2)
	require.NotNil(t, loaded.Format)
	assert.Equal(t, "Vinyl", loaded.Format.Name)

	assert.Equal(t, []State{
		StateRequested, StateFetching, StateNormalizing, StateReconciling,
		StateValidating, StateConflictCheck, StatePersisting,
		StateCoverFetch, StateCompleted,
	}, states)
}

func TestIngestExternalSameUserBarcodeConflict(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline.IngestExternal(context.Background(), f.user, "1477251", "5012981024529", nil, nil)
	require.NoError(t, err)

	_, err = f.pipeline.IngestExternal(context.Background(), f.user, "1477251", "5012981024529", nil, nil)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "Headless Cross", conflict.Existing.Title)
}

func TestIngestExternalDifferentUsersShareBarcodeAndArtist(t *testing.T) {
	f := newFixture(t)
	other := f.secondUser(t)

	first, err := f.pipeline.IngestExternal(context.Background(), f.user, "1477251", "5012981024529", nil, nil)
	require.NoError(t, err)
	second, err := f.pipeline.IngestExternal(context.Background(), other, "1477251", "5012981024529", nil, nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "headless-cross-2", second.Slug)

	var artistCount int64
	require.NoError(t, f.db.Model(&models.Artist{}).Count(&artistCount).Error)
	assert.Equal(t, int64(1), artistCount, "both ingestions reconcile to the same artist")
}

func TestIngestExternalCollapsesDuplicateArtists(t *testing.T) {
	f := newFixture(t)
	meta := headlessCross()
	meta.Artists = []string{"Black Sabbath", "Black Sabbath (2)", "black sabbath"}
	f.gateway.releases["1477251"] = meta

	release, err := f.pipeline.IngestExternal(context.Background(), f.user, "1477251", "", nil, nil)
	require.NoError(t, err)

	loaded, err := models.ReleaseFindByID(f.db, release.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Artists, 1)
}

func TestIngestExternalCompletesWithoutCover(t *testing.T) {
	f := newFixture(t)
	f.covers.fail = true

	release, err := f.pipeline.IngestExternal(context.Background(), f.user, "1477251", "", nil, nil)
	require.NoError(t, err, "a dead image host must not fail the ingestion")
	assert.Empty(t, release.Cover)
	assert.Len(t, f.covers.downloaded, 1)
}

func TestIngestExternalUpstreamDown(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = fmt.Errorf("%w: connection refused", providers.ErrUnavailable)

	var last State
	_, err := f.pipeline.IngestExternal(context.Background(), f.user, "1477251", "", nil, func(_ string, s State) { last = s })
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Equal(t, StateAborted, last)

	var count int64
	require.NoError(t, f.db.Model(&models.Release{}).Count(&count).Error)
	assert.Zero(t, count, "nothing persisted after an aborted fetch")
}

func TestIngestExternalUnknownID(t *testing.T) {
	f := newFixture(t)
	_, err := f.pipeline.IngestExternal(context.Background(), f.user, "42", "", nil, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIngestExternalUnknownShelf(t *testing.T) {
	f := newFixture(t)
	shelfID := uint64(77)
	_, err := f.pipeline.IngestExternal(context.Background(), f.user, "1477251", "", &shelfID, nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "shelf")
}

func TestIngestAbortKeepsReconciledReferences(t *testing.T) {
	f := newFixture(t)
	meta := headlessCross()
	meta.Title = "" // fails validation after reconciliation
	f.gateway.releases["1477251"] = meta

	_, err := f.pipeline.IngestExternal(context.Background(), f.user, "1477251", "", nil, nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	// Reference entities created along the way are valid catalog data and
	// survive the aborted attempt.
	var artistCount, releaseCount int64
	require.NoError(t, f.db.Model(&models.Artist{}).Count(&artistCount).Error)
	require.NoError(t, f.db.Model(&models.Release{}).Count(&releaseCount).Error)
	assert.Equal(t, int64(1), artistCount)
	assert.Zero(t, releaseCount)
}

func TestCreateManual(t *testing.T) {
	f := newFixture(t)
	artist := models.Artist{Name: "Candlemass", Slug: "candlemass"}
	require.NoError(t, f.db.Create(&artist).Error)

	year := 1986
	release, err := f.pipeline.CreateManual(context.Background(), f.user, ManualInput{
		Title:     "Epicus Doomicus Metallicus",
		Year:      &year,
		ArtistIDs: []uint64{artist.ID},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "epicus-doomicus-metallicus", release.Slug)
	assert.True(t, release.OwnedBy(f.user.ID))
	assert.Empty(t, f.covers.downloaded, "manual creation never fetches covers")
}

func TestCreateManualUnknownArtistID(t *testing.T) {
	f := newFixture(t)
	_, err := f.pipeline.CreateManual(context.Background(), f.user, ManualInput{
		Title:     "Ghost Album",
		ArtistIDs: []uint64{12345},
	}, nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "artists")
}

func TestUpdateManual(t *testing.T) {
	f := newFixture(t)
	release, err := f.pipeline.IngestExternal(context.Background(), f.user, "1477251", "5012981024529", nil, nil)
	require.NoError(t, err)

	artist := models.Artist{Name: "Candlemass", Slug: "candlemass"}
	require.NoError(t, f.db.Create(&artist).Error)

	note := "first pressing"
	updated, err := f.pipeline.UpdateManual(context.Background(), f.user, release.ID, ManualInput{
		Title:     "Headless Cross",
		Year:      release.Year,
		Barcode:   release.Barcode,
		Note:      note,
		ArtistIDs: []uint64{artist.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, note, updated.Note)
	assert.Equal(t, release.Cover, updated.Cover, "absent cover field keeps the stored one")

	loaded, err := models.ReleaseFindByID(f.db, release.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Artists, 1)
	assert.Equal(t, "Candlemass", loaded.Artists[0].Name)
}

func TestUpdateManualNotOwned(t *testing.T) {
	f := newFixture(t)
	other := f.secondUser(t)
	release, err := f.pipeline.IngestExternal(context.Background(), f.user, "1477251", "", nil, nil)
	require.NoError(t, err)

	_, err = f.pipeline.UpdateManual(context.Background(), other, release.ID, ManualInput{Title: "Hijacked"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateManualBarcodeConflict(t *testing.T) {
	f := newFixture(t)
	first, err := f.pipeline.IngestExternal(context.Background(), f.user, "1477251", "5012981024529", nil, nil)
	require.NoError(t, err)

	artist := models.Artist{Name: "Candlemass", Slug: "candlemass"}
	require.NoError(t, f.db.Create(&artist).Error)
	second, err := f.pipeline.CreateManual(context.Background(), f.user, ManualInput{
		Title:     "Epicus Doomicus Metallicus",
		ArtistIDs: []uint64{artist.ID},
	}, nil)
	require.NoError(t, err)

	barcode := "5012981024529"
	_, err = f.pipeline.UpdateManual(context.Background(), f.user, second.ID, ManualInput{
		Title:     second.Title,
		Barcode:   &barcode,
		ArtistIDs: []uint64{artist.ID},
	})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, first.ID, conflict.Existing.ID)
}

func TestDeleteRemovesReleaseAndCover(t *testing.T) {
	f := newFixture(t)
	release, err := f.pipeline.IngestExternal(context.Background(), f.user, "1477251", "5012981024529", nil, nil)
	require.NoError(t, err)

	require.NoError(t, f.pipeline.Delete(f.user, release.ID))
	assert.Equal(t, []string{"1477251.jpg"}, f.covers.removed)

	var count int64
	require.NoError(t, f.db.Model(&models.Release{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, f.db.Model(&models.UserRelease{}).Count(&count).Error)
	assert.Zero(t, count, "ownership rows go with the release")
}

func TestDeleteNotOwned(t *testing.T) {
	f := newFixture(t)
	other := f.secondUser(t)
	release, err := f.pipeline.IngestExternal(context.Background(), f.user, "1477251", "", nil, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, f.pipeline.Delete(other, release.ID), ErrNotFound)
}

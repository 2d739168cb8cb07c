package catalog

import (
	"errors"
	"fmt"
	"testing"
	"vinylcat/db"
	"vinylcat/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db.Init("", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	models.Init()
	return db.Instance
}

func TestResolveArtistCreatesOnce(t *testing.T) {
	rec := NewReconciler(testDB(t))

	first, err := rec.ResolveArtist("Black Sabbath")
	require.NoError(t, err)
	assert.Equal(t, "Black Sabbath", first.Name)
	assert.Equal(t, "black-sabbath", first.Slug)

	again, err := rec.ResolveArtist("Black Sabbath")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestResolveArtistCollapsesDisambiguation(t *testing.T) {
	rec := NewReconciler(testDB(t))

	plain, err := rec.ResolveArtist("Genesis")
	require.NoError(t, err)
	numbered, err := rec.ResolveArtist("Genesis (2)")
	require.NoError(t, err)
	assert.Equal(t, plain.ID, numbered.ID, "provider duplicates must resolve to one artist")
}

func TestResolveArtistCaseInsensitive(t *testing.T) {
	rec := NewReconciler(testDB(t))

	lower, err := rec.ResolveArtist("black sabbath")
	require.NoError(t, err)
	upper, err := rec.ResolveArtist("BLACK SABBATH")
	require.NoError(t, err)
	assert.Equal(t, lower.ID, upper.ID)
}

func TestResolveArtistEmptyName(t *testing.T) {
	rec := NewReconciler(testDB(t))
	_, err := rec.ResolveArtist("   ")
	assert.Error(t, err)
}

func TestResolveArtistSurvivesLostInsertRace(t *testing.T) {
	database := testDB(t)
	rec := NewReconciler(database)

	// Simulate losing the insert race: a competing writer lands the row
	// between our lookup miss and our create, which then hits the unique
	// name index.
	winner := models.Artist{Name: "Electric Wizard", Slug: "electric-wizard"}
	raced := false
	err := database.Callback().Create().Before("gorm:create").Register("test:lose_race", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Dest.(*models.Artist); !ok || raced {
			return
		}
		raced = true
		require.NoError(t, database.Create(&winner).Error)
		tx.AddError(errors.New("UNIQUE constraint failed: artists.name"))
	})
	require.NoError(t, err)

	resolved, err := rec.ResolveArtist("Electric Wizard")
	require.NoError(t, err)
	assert.True(t, raced)
	assert.Equal(t, winner.ID, resolved.ID)
}

func TestResolveGenre(t *testing.T) {
	rec := NewReconciler(testDB(t))

	rock, err := rec.ResolveGenre("Rock")
	require.NoError(t, err)
	assert.Equal(t, "rock", rock.Slug)

	again, err := rec.ResolveGenre("  Rock ")
	require.NoError(t, err)
	assert.Equal(t, rock.ID, again.ID)
}

func TestResolveFormat(t *testing.T) {
	rec := NewReconciler(testDB(t))

	vinyl := rec.ResolveFormat("Vinyl")
	require.NotNil(t, vinyl)
	assert.Equal(t, uint64(2), vinyl.ID)

	lp := rec.ResolveFormat("LP")
	require.NotNil(t, lp)
	assert.Equal(t, vinyl.ID, lp.ID, "LP is an alias for vinyl")

	tape := rec.ResolveFormat("tape")
	require.NotNil(t, tape)
	assert.Equal(t, uint64(3), tape.ID)

	assert.Nil(t, rec.ResolveFormat("8-Track"), "unknown format names resolve to nothing")
}

func TestRefByIDMissing(t *testing.T) {
	rec := NewReconciler(testDB(t))

	artist, err := rec.ArtistByID(9999)
	require.NoError(t, err)
	assert.Nil(t, artist, "a dangling id is not an error here")

	shelf, err := rec.ShelfByID(1)
	require.NoError(t, err)
	assert.Nil(t, shelf)
}

func TestResolveArtistSlugCollision(t *testing.T) {
	database := testDB(t)
	rec := NewReconciler(database)

	// Two genuinely distinct names can normalize to the same slug.
	require.NoError(t, database.Create(&models.Artist{Name: "AC-DC Tribute", Slug: "ac-dc"}).Error)

	artist, err := rec.ResolveArtist("AC/DC")
	require.NoError(t, err)
	assert.Equal(t, "ac-dc-2", artist.Slug)
}

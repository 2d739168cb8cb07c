package models

import (
	"fmt"
	"testing"
	"vinylcat/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db.Init("", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	Init()
	return db.Instance
}

func barcode(s string) *string { return &s }

func TestBarcodeUniquePerUserOnly(t *testing.T) {
	database := testDB(t)

	tony, err := UserCreate("Tony", "tony@example.com", "ironman")
	require.NoError(t, err)
	geezer, err := UserCreate("Geezer", "geezer@example.com", "bassist")
	require.NoError(t, err)

	first := Release{Title: "Headless Cross", Slug: "headless-cross", Barcode: barcode("5012981024529")}
	require.NoError(t, database.Create(&first).Error)
	second := Release{Title: "Headless Cross", Slug: "headless-cross-2", Barcode: barcode("5012981024529")}
	require.NoError(t, database.Create(&second).Error)

	require.NoError(t, database.Create(&UserRelease{UserID: tony.ID, ReleaseID: first.ID, Barcode: first.Barcode}).Error)
	// Another user owning the same barcode is fine.
	require.NoError(t, database.Create(&UserRelease{UserID: geezer.ID, ReleaseID: second.ID, Barcode: second.Barcode}).Error)
	// The same user owning it twice is not.
	err = database.Create(&UserRelease{UserID: tony.ID, ReleaseID: second.ID, Barcode: second.Barcode}).Error
	assert.Error(t, err)

	found, err := ReleaseFindByBarcodeAndUser(database, "5012981024529", tony.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
	found, err = ReleaseFindByBarcodeAndUser(database, "5012981024529", geezer.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, found.ID)
}

func TestReleaseFindBySlugPreloads(t *testing.T) {
	database := testDB(t)

	artist := Artist{Name: "Black Sabbath", Slug: "black-sabbath"}
	require.NoError(t, database.Create(&artist).Error)
	formatID := uint64(2)
	release := Release{
		Title:    "Headless Cross",
		Slug:     "headless-cross",
		FormatID: &formatID,
		Artists:  []Artist{artist},
	}
	require.NoError(t, database.Omit("Artists.*").Create(&release).Error)

	loaded, err := ReleaseFindBySlug(database, "headless-cross")
	require.NoError(t, err)
	require.Len(t, loaded.Artists, 1)
	assert.Equal(t, "Black Sabbath", loaded.Artists[0].Name)
	require.NotNil(t, loaded.Format)
	assert.Equal(t, "Vinyl", loaded.Format.Name)

	_, err = ReleaseFindBySlug(database, "no-such-slug")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserLoginAndPermissions(t *testing.T) {
	database := testDB(t)

	user, err := UserCreate("Tony", "tony@example.com", "ironman")
	require.NoError(t, err)
	require.NoError(t, database.Omit("Grantor", "User").Create(&Grant{UserID: user.ID, Permission: PermissionCatalog}).Error)

	loggedIn, ok := UserLogin("tony@example.com", "ironman")
	require.True(t, ok)
	assert.True(t, loggedIn.HasPermission(PermissionCatalog))
	assert.False(t, loggedIn.HasPermission(PermissionAdmin))

	_, ok = UserLogin("tony@example.com", "wrong")
	assert.False(t, ok)
	_, ok = UserLogin("nobody@example.com", "ironman")
	assert.False(t, ok)
}

func TestArtistFindByNameNormalizes(t *testing.T) {
	database := testDB(t)
	require.NoError(t, database.Create(&Artist{Name: "Black Sabbath", Slug: "black-sabbath"}).Error)

	found, err := ArtistFindByName(database, "  BLACK sabbath ")
	require.NoError(t, err)
	assert.Equal(t, "Black Sabbath", found.Name)

	_, err = ArtistFindByName(database, "Dio")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

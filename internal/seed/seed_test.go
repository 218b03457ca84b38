package seed

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/handmade_market/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func TestRunSeedsEmptyStore(t *testing.T) {
	db := testDB(t)
	require.NoError(t, Run(db))

	var categories []models.Category
	require.NoError(t, db.Find(&categories).Error)
	require.Len(t, categories, len(categoryFixtures))

	var products []models.Product
	require.NoError(t, db.Find(&products).Error)
	require.Len(t, products, len(productFixtures))

	// Every product resolves to a seeded category and carries a price.
	catIDs := map[uint]bool{}
	for _, c := range categories {
		catIDs[c.ID] = true
	}
	for _, p := range products {
		require.True(t, catIDs[p.CategoryID], "product %q has dangling category", p.Name)
		require.True(t, p.Price.IsPositive())
	}
}

func TestRunIsIdempotent(t *testing.T) {
	db := testDB(t)
	require.NoError(t, Run(db))
	require.NoError(t, Run(db))

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	require.EqualValues(t, len(productFixtures), count)
}

func TestRunSkipsNonEmptyStore(t *testing.T) {
	db := testDB(t)
	existing := models.Product{
		Name:        "Pre-existing",
		Description: "already here",
		ImageURL:    "/x.jpg",
		CategoryID:  1,
	}
	require.NoError(t, db.Create(&existing).Error)

	require.NoError(t, Run(db))

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestAdditionalImagesDecode(t *testing.T) {
	db := testDB(t)
	require.NoError(t, Run(db))

	var p models.Product
	require.NoError(t, db.First(&p).Error)
	require.NotEmpty(t, p.AdditionalImageURLs())
}

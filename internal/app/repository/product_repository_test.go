package repository

import (
	"testing"

	"github.com/ikkim/cosmetica-backend/internal/app/model"
	"github.com/ikkim/cosmetica-backend/internal/db"
	"github.com/ikkim/cosmetica-backend/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupProductTest(t *testing.T) (*gorm.DB, ProductRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	products := []model.Product{
		{ID: "acr-01", Name: "Acrylic Powder", Category: model.CategoryAcrylic, Price: money.FromMajor(450), Variants: []string{"Clear", "Pink"}, StockQuantity: 10, Active: true},
		{ID: "brush-01", Name: "Kolinsky Brush", Category: model.CategoryTools, Price: money.FromMajor(650), StockQuantity: 5, Active: true},
		{ID: "old-01", Name: "Discontinued Primer", Category: model.CategoryCare, Price: money.FromMajor(80), Active: false},
	}
	for i := range products {
		require.NoError(t, testDB.Create(&products[i]).Error)
	}

	return testDB, NewProductRepository(testDB)
}

func TestProductRepository_FindWithFilter(t *testing.T) {
	_, repo := setupProductTest(t)

	all, err := repo.FindWithFilter(ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	withInactive, err := repo.FindWithFilter(ProductFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, withInactive, 3)

	tools := model.CategoryTools
	filtered, err := repo.FindWithFilter(ProductFilter{Category: &tools})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "brush-01", filtered[0].ID)

	searched, err := repo.FindWithFilter(ProductFilter{Search: "acrylic"})
	require.NoError(t, err)
	require.Len(t, searched, 1)

	byPrice, err := repo.FindWithFilter(ProductFilter{SortBy: ProductSortPrice, SortAscending: true})
	require.NoError(t, err)
	assert.Equal(t, "acr-01", byPrice[0].ID)
}

func TestProductRepository_FindByID_DecodesVariants(t *testing.T) {
	_, repo := setupProductTest(t)

	product, err := repo.FindByID("acr-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"Clear", "Pink"}, product.Variants)
	assert.Equal(t, money.FromMajor(450), product.Price)
	assert.True(t, product.HasVariant("Pink"))
	assert.False(t, product.HasVariant("pink"))
	assert.False(t, product.HasVariant(""))

	_, err = repo.FindByID("missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProductRepository_Upsert(t *testing.T) {
	_, repo := setupProductTest(t)

	require.NoError(t, repo.Upsert(&model.Product{ID: "brush-01", Name: "Kolinsky Brush #10", Price: money.FromMajor(700), Active: true}))
	require.NoError(t, repo.Upsert(&model.Product{ID: "new-01", Name: "Nail Forms", Price: money.FromMajor(60), Active: true}))

	updated, err := repo.FindByID("brush-01")
	require.NoError(t, err)
	assert.Equal(t, "Kolinsky Brush #10", updated.Name)
	assert.Equal(t, money.FromMajor(700), updated.Price)

	_, err = repo.FindByID("new-01")
	assert.NoError(t, err)
}

func TestProductRepository_UpdateStock(t *testing.T) {
	_, repo := setupProductTest(t)

	require.NoError(t, repo.UpdateStock("acr-01", -3))
	require.NoError(t, repo.UpdateStock("acr-01", 1))

	product, err := repo.FindByID("acr-01")
	require.NoError(t, err)
	assert.Equal(t, 8, product.StockQuantity)
}

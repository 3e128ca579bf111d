package sync

import (
	"testing"

	"kibo-catalog-sync/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func sampleProduct() *models.Product {
	return &models.Product{
		ProductCode:     "SKU-1",
		ProductSequence: 100,
		ProductInCatalogs: []*models.ProductInCatalog{
			{
				CatalogID: 1,
				IsActive:  boolPtr(true),
				Content: &models.ProductContent{
					ProductName: "商品一",
					ProductImages: []models.ProductImage{
						{ImageURL: "https://cdn/img-a.jpg", Sequence: 1},
						{ImageURL: "https://cdn/img-b.jpg", Sequence: 2},
					},
				},
				Price:                  &models.ProductPrice{Price: 10, IsoCurrencyCode: "USD"},
				PrimaryProductCategory: &models.CategoryRef{CategoryID: 11},
				ProductCategories: []models.CategoryRef{
					{CategoryID: 11},
					{CategoryID: 12},
				},
			},
			{
				CatalogID:         2,
				Price:             &models.ProductPrice{Price: 9, IsoCurrencyCode: "EUR"},
				ProductCategories: []models.CategoryRef{{CategoryID: 21}},
			},
		},
	}
}

func TestProductChangedIdentical(t *testing.T) {
	before := sampleProduct()
	after := sampleProduct()

	changed, err := ProductChanged(before, after)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestProductChangedOrderInsensitive(t *testing.T) {
	before := sampleProduct()
	after := sampleProduct()

	// 目录顺序和类目顺序都打乱，不应视为变更
	after.ProductInCatalogs[0], after.ProductInCatalogs[1] = after.ProductInCatalogs[1], after.ProductInCatalogs[0]
	pic := after.InCatalog(1)
	pic.ProductCategories[0], pic.ProductCategories[1] = pic.ProductCategories[1], pic.ProductCategories[0]

	changed, err := ProductChanged(before, after)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestProductChangedDetectsValueChange(t *testing.T) {
	before := sampleProduct()
	after := sampleProduct()
	after.InCatalog(2).Price.Price = 8

	changed, err := ProductChanged(before, after)
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestProductChangedDetectsAddedCatalog(t *testing.T) {
	before := sampleProduct()
	after := sampleProduct()
	after.ProductInCatalogs = append(after.ProductInCatalogs, &models.ProductInCatalog{
		CatalogID: 3,
		Price:     &models.ProductPrice{Price: 1, IsoCurrencyCode: "KWD"},
	})

	changed, err := ProductChanged(before, after)
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestProductChangedDetectsCategoryDiff(t *testing.T) {
	before := sampleProduct()
	after := sampleProduct()
	after.InCatalog(2).ProductCategories = []models.CategoryRef{{CategoryID: 22}}

	changed, err := ProductChanged(before, after)
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestProductChangedEmptyEqualsMissing(t *testing.T) {
	before := sampleProduct()
	after := sampleProduct()

	// 空集合序列化时整个字段缺失，和 nil 等价
	before.InCatalog(2).ProductCategories = nil
	after.InCatalog(2).ProductCategories = []models.CategoryRef{}

	changed, err := ProductChanged(before, after)
	require.NoError(t, err)
	assert.False(t, changed)
}

package sync

import (
	"context"
	"testing"

	"kibo-catalog-sync/pkg/kibo"
	"kibo-catalog-sync/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCategoryLister struct {
	categories map[int][]*models.Category
	calls      int
}

func (f *fakeCategoryLister) ListCategories(ctx context.Context, catalogID, startIndex, pageSize int) (*kibo.CategoryCollection, error) {
	f.calls++
	all := f.categories[catalogID]
	end := min(startIndex+pageSize, len(all))
	if startIndex > end {
		startIndex = end
	}
	pageCount := (len(all) + pageSize - 1) / pageSize
	if pageCount == 0 {
		pageCount = 1
	}
	return &kibo.CategoryCollection{
		StartIndex: startIndex,
		PageSize:   pageSize,
		PageCount:  pageCount,
		TotalCount: len(all),
		Items:      all[startIndex:end],
	}, nil
}

func TestFetchAllCategoriesPaging(t *testing.T) {
	lister := &fakeCategoryLister{categories: map[int][]*models.Category{
		1: {
			{ID: 1, CategoryCode: "A"},
			{ID: 2, CategoryCode: "B"},
			{ID: 3, CategoryCode: "C"},
			{ID: 4, CategoryCode: "D"},
			{ID: 5, CategoryCode: "E"},
		},
	}}

	categories, err := FetchAllCategories(context.Background(), lister, 1, 2)
	require.NoError(t, err)
	assert.Len(t, categories, 5)
	assert.Equal(t, 3, lister.calls)
}

func TestBuildCategoryIndexLastWriteWins(t *testing.T) {
	lister := &fakeCategoryLister{categories: map[int][]*models.Category{
		1: {
			{ID: 1, CategoryCode: "A"},
			{ID: 2, CategoryCode: "A"}, // 重复编码，后出现者为准
		},
	}}

	index, err := BuildCategoryIndex(context.Background(), lister, 1, 200)
	require.NoError(t, err)
	assert.Equal(t, 2, index.ByCode["A"].ID)
	assert.Len(t, index.ByID, 2)
}

func TestBuildCategoryIndexesCoversAllCatalogs(t *testing.T) {
	lister := &fakeCategoryLister{categories: map[int][]*models.Category{
		1: {{ID: 11, CategoryCode: "K1"}},
		2: {{ID: 21, CategoryCode: "K1"}},
	}}
	tenant := &models.Tenant{
		Sites: []*models.Site{
			{ID: 100, CatalogID: 1},
			{ID: 101, CatalogID: 2},
			{ID: 102, CatalogID: 1}, // 目录去重
		},
	}

	indexes, err := BuildCategoryIndexes(context.Background(), lister, tenant, 200)
	require.NoError(t, err)
	assert.Len(t, indexes, 2)
	assert.Equal(t, 11, indexes[1].ByCode["K1"].ID)
	assert.Equal(t, 21, indexes[2].ByCode["K1"].ID)
}

package sync

import (
	"context"
	"testing"

	"kibo-catalog-sync/pkg/kibo"
	"kibo-catalog-sync/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCategoryAPI struct {
	*fakeCategoryLister

	nextID  int
	created map[int][]*models.Category
	updated map[int][]*models.Category
}

func (f *fakeCategoryAPI) GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error) {
	return &models.Tenant{}, nil
}

func (f *fakeCategoryAPI) CreateCategory(ctx context.Context, catalogID int, category *models.Category) (*models.Category, error) {
	f.nextID++
	saved := *category
	saved.ID = f.nextID
	f.created[catalogID] = append(f.created[catalogID], &saved)
	f.categories[catalogID] = append(f.categories[catalogID], &saved)
	return &saved, nil
}

func (f *fakeCategoryAPI) SaveCategory(ctx context.Context, catalogID int, category *models.Category) (*models.Category, error) {
	f.updated[catalogID] = append(f.updated[catalogID], category)
	return category, nil
}

func newCategoryFixture() (*Config, *fakeCategoryAPI) {
	cfg := &Config{
		Kibo: &kibo.Config{
			APIRoot:       "https://t12345.sandbox.mozu.com/api",
			ClientID:      "app",
			ClientSecret:  "0123456789abcdef0123456789abcdef",
			MasterCatalog: 1,
		},
		PrimeCatalog: 1,
		CatalogPairs: []Pair{{Source: 1, Destination: 2}},
		PageSize:     200,
	}

	// 源目录：A 是根，B 挂在 A 下，C 挂在 A 下
	// 目标目录：只有 A 和 C，且 C 错挂在根上
	api := &fakeCategoryAPI{
		fakeCategoryLister: &fakeCategoryLister{categories: map[int][]*models.Category{
			1: {
				{ID: 1, CategoryCode: "A"},
				{ID: 2, CategoryCode: "B", ParentCategoryID: 1},
				{ID: 3, CategoryCode: "C", ParentCategoryID: 1},
			},
			2: {
				{ID: 10, CategoryCode: "A"},
				{ID: 30, CategoryCode: "C"},
			},
		}},
		nextID:  100,
		created: make(map[int][]*models.Category),
		updated: make(map[int][]*models.Category),
	}
	return cfg, api
}

func TestCategorySyncCreatesMissing(t *testing.T) {
	cfg, api := newCategoryFixture()
	service := NewCategorySyncService(cfg, api)

	require.NoError(t, service.Sync(context.Background()))

	created := api.created[2]
	require.Len(t, created, 1)
	assert.Equal(t, "B", created[0].CategoryCode)
	// 新建的 B 必须挂在目标目录的 A 下
	assert.Equal(t, 10, created[0].ParentCategoryID)
}

func TestCategorySyncReparentsDrifted(t *testing.T) {
	cfg, api := newCategoryFixture()
	service := NewCategorySyncService(cfg, api)

	require.NoError(t, service.Sync(context.Background()))

	updated := api.updated[2]
	require.Len(t, updated, 1)
	assert.Equal(t, "C", updated[0].CategoryCode)
	assert.Equal(t, 10, updated[0].ParentCategoryID)
}

func TestCategorySyncIdempotent(t *testing.T) {
	cfg, api := newCategoryFixture()
	service := NewCategorySyncService(cfg, api)
	require.NoError(t, service.Sync(context.Background()))

	api.created = make(map[int][]*models.Category)
	api.updated = make(map[int][]*models.Category)

	again := NewCategorySyncService(cfg, api)
	require.NoError(t, again.Sync(context.Background()))
	assert.Empty(t, api.created[2])
	assert.Empty(t, api.updated[2])
}

func TestOrderParentsFirst(t *testing.T) {
	categories := []*models.Category{
		{ID: 3, CategoryCode: "C", ParentCategoryID: 2},
		{ID: 1, CategoryCode: "A"},
		{ID: 2, CategoryCode: "B", ParentCategoryID: 1},
	}
	byID := map[int]*models.Category{1: categories[1], 2: categories[2], 3: categories[0]}

	ordered := orderParentsFirst(categories, byID)
	require.Len(t, ordered, 3)
	assert.Equal(t, "A", ordered[0].CategoryCode)
	assert.Equal(t, "B", ordered[1].CategoryCode)
	assert.Equal(t, "C", ordered[2].CategoryCode)
}

package sync

import (
	"context"
	"fmt"
	"testing"

	"kibo-catalog-sync/pkg/kibo"
	"kibo-catalog-sync/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSiteAPI struct {
	*fakeCategoryLister
	tenant *models.Tenant

	settings      map[int]map[string]kibo.Document
	savedSettings map[string]kibo.Document

	facets      map[int][]*kibo.Facet
	savedFacets []*kibo.Facet
	nextFacetID int

	redirects      map[int][]kibo.Document
	savedRedirects []kibo.Document

	merchRules []kibo.Document
	savedMerch []kibo.Document

	searchSettings      []kibo.Document
	savedSearchSettings map[string]kibo.Document

	entityLists   []kibo.Document
	entities      map[string][]kibo.Document
	savedEntities map[string][]kibo.Document
}

func (f *fakeSiteAPI) GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error) {
	return f.tenant, nil
}

func (f *fakeSiteAPI) GetSetting(ctx context.Context, scope kibo.SiteScope, name string) (kibo.Document, error) {
	return f.settings[scope.SiteID][name], nil
}

func (f *fakeSiteAPI) SaveSetting(ctx context.Context, scope kibo.SiteScope, name string, setting kibo.Document) error {
	f.savedSettings[name] = setting
	return nil
}

func (f *fakeSiteAPI) ListFacets(ctx context.Context, scope kibo.SiteScope) (*kibo.FacetCollection, error) {
	items := f.facets[scope.SiteID]
	return &kibo.FacetCollection{TotalCount: len(items), Items: items}, nil
}

func (f *fakeSiteAPI) SaveFacet(ctx context.Context, scope kibo.SiteScope, facet *kibo.Facet) error {
	if facet.FacetID == 0 {
		f.nextFacetID++
		facet.FacetID = f.nextFacetID
	}
	f.savedFacets = append(f.savedFacets, facet)
	f.facets[scope.SiteID] = append(f.facets[scope.SiteID], facet)
	return nil
}

func (f *fakeSiteAPI) ListSearchRedirects(ctx context.Context, scope kibo.SiteScope) (*kibo.DocumentCollection, error) {
	items := f.redirects[scope.SiteID]
	return &kibo.DocumentCollection{TotalCount: len(items), Items: items}, nil
}

func (f *fakeSiteAPI) SaveSearchRedirect(ctx context.Context, scope kibo.SiteScope, item kibo.Document) error {
	f.savedRedirects = append(f.savedRedirects, item)
	return nil
}

func (f *fakeSiteAPI) ListMerchRules(ctx context.Context, scope kibo.SiteScope) (*kibo.DocumentCollection, error) {
	return &kibo.DocumentCollection{TotalCount: len(f.merchRules), Items: f.merchRules}, nil
}

func (f *fakeSiteAPI) SaveMerchRule(ctx context.Context, scope kibo.SiteScope, rule kibo.Document) error {
	f.savedMerch = append(f.savedMerch, rule)
	return nil
}

func (f *fakeSiteAPI) GetSearchSettings(ctx context.Context, scope kibo.SiteScope) (*kibo.DocumentCollection, error) {
	return &kibo.DocumentCollection{TotalCount: len(f.searchSettings), Items: f.searchSettings}, nil
}

func (f *fakeSiteAPI) SaveSearchSetting(ctx context.Context, scope kibo.SiteScope, name string, setting kibo.Document) error {
	f.savedSearchSettings[name] = setting
	return nil
}

func (f *fakeSiteAPI) ListEntityLists(ctx context.Context) (*kibo.DocumentCollection, error) {
	return &kibo.DocumentCollection{TotalCount: len(f.entityLists), Items: f.entityLists}, nil
}

func (f *fakeSiteAPI) ListEntities(ctx context.Context, scope kibo.SiteScope, listFQN string, startIndex int) (*kibo.DocumentCollection, error) {
	items := f.entities[listFQN]
	if startIndex >= len(items) {
		return &kibo.DocumentCollection{TotalCount: len(items)}, nil
	}
	return &kibo.DocumentCollection{TotalCount: len(items), Items: items[startIndex:]}, nil
}

func (f *fakeSiteAPI) SaveEntity(ctx context.Context, scope kibo.SiteScope, listFQN string, entity kibo.Document) error {
	f.savedEntities[listFQN] = append(f.savedEntities[listFQN], entity)
	return nil
}

func newSiteFixture() (*Config, *fakeSiteAPI) {
	cfg := &Config{
		Kibo: &kibo.Config{
			APIRoot:       "https://t12345.sandbox.mozu.com/api",
			ClientID:      "app",
			ClientSecret:  "0123456789abcdef0123456789abcdef",
			MasterCatalog: 1,
		},
		PrimeCatalog: 1,
		CatalogPairs: []Pair{{Source: 1, Destination: 2}},
		SitePairs:    []Pair{{Source: 100, Destination: 101}},
		PageSize:     200,
	}

	api := &fakeSiteAPI{
		fakeCategoryLister: &fakeCategoryLister{categories: map[int][]*models.Category{
			1: {{ID: 11, CategoryCode: "K1"}},
			2: {{ID: 21, CategoryCode: "K1"}},
		}},
		tenant: &models.Tenant{
			Sites: []*models.Site{
				{ID: 100, CatalogID: 1},
				{ID: 101, CatalogID: 2},
			},
		},
		settings: map[int]map[string]kibo.Document{
			100: {"general": {"siteName": "源站点"}},
		},
		savedSettings: make(map[string]kibo.Document),
		facets: map[int][]*kibo.Facet{
			100: {
				{FacetID: 1, CatalogID: 1, CategoryID: 11, FacetType: "Value", Source: kibo.FacetSource{ID: "tenant~color", Type: "Attribute"}},
				{FacetID: 2, CatalogID: 1, CategoryID: 11, OverrideFacetID: 1, FacetType: "Value", Source: kibo.FacetSource{ID: "tenant~color", Type: "Attribute"}},
			},
		},
		nextFacetID: 1000,
		redirects: map[int][]kibo.Document{
			100: {{"redirectId": float64(7), "searchTerm": "tv", "url": "/electronics"}},
		},
		merchRules:          []kibo.Document{{"code": "boost-new", "searchTerm": "new"}},
		searchSettings:      []kibo.Document{{"settingsName": "default", "isDefault": true}, {"settingsName": "experiment", "isDefault": false}},
		savedSearchSettings: make(map[string]kibo.Document),
		entityLists: []kibo.Document{
			{"name": "sizeCharts", "nameSpace": "acme", "contextLevel": "catalog"},
			{"name": "globals", "nameSpace": "acme", "contextLevel": "tenant"},
		},
		entities: map[string][]kibo.Document{
			"sizeCharts@acme": {{"id": "sc1"}, {"id": "sc2"}},
			"globals@acme":    {{"id": "g1"}},
		},
		savedEntities: make(map[string][]kibo.Document),
	}
	return cfg, api
}

func TestSiteSyncSettings(t *testing.T) {
	cfg, api := newSiteFixture()
	service := NewSiteSyncService(cfg, api)

	require.NoError(t, service.Sync(context.Background(), SiteKindSettings))
	require.Len(t, api.savedSettings, 1)
	assert.Equal(t, "源站点", api.savedSettings["general"]["siteName"])
}

func TestSiteSyncFacetsRemapsCategories(t *testing.T) {
	cfg, api := newSiteFixture()
	service := NewSiteSyncService(cfg, api)

	require.NoError(t, service.Sync(context.Background(), SiteKindFacets))
	require.Len(t, api.savedFacets, 2)

	original := api.savedFacets[0]
	assert.Equal(t, 2, original.CatalogID)
	assert.Equal(t, 21, original.CategoryID)
	assert.Zero(t, original.OverrideFacetID)

	// 覆盖型分面引用的是目标侧新建的原始分面ID
	override := api.savedFacets[1]
	assert.Equal(t, original.FacetID, override.OverrideFacetID)
	assert.Equal(t, 21, override.CategoryID)
}

func TestSiteSyncRedirectsAndMerchRules(t *testing.T) {
	cfg, api := newSiteFixture()
	service := NewSiteSyncService(cfg, api)

	require.NoError(t, service.Sync(context.Background(), SiteKindRedirects, SiteKindMerchRules))
	require.Len(t, api.savedRedirects, 1)
	assert.Equal(t, "tv", api.savedRedirects[0]["searchTerm"])
	require.Len(t, api.savedMerch, 1)
	assert.Equal(t, "boost-new", api.savedMerch[0]["code"])
}

func TestSiteSyncSearchSettingsDefaultOnly(t *testing.T) {
	cfg, api := newSiteFixture()
	service := NewSiteSyncService(cfg, api)

	require.NoError(t, service.Sync(context.Background(), SiteKindSearchSettings))
	require.Len(t, api.savedSearchSettings, 1)
	assert.Contains(t, api.savedSearchSettings, "default")
}

func TestSiteSyncEntitiesCatalogLevelOnly(t *testing.T) {
	cfg, api := newSiteFixture()
	service := NewSiteSyncService(cfg, api)

	require.NoError(t, service.Sync(context.Background(), SiteKindEntities))
	assert.Len(t, api.savedEntities["sizeCharts@acme"], 2)
	assert.NotContains(t, api.savedEntities, "globals@acme")
}

func TestSiteSyncRejectsUnknownKind(t *testing.T) {
	cfg, api := newSiteFixture()
	service := NewSiteSyncService(cfg, api)

	err := service.Sync(context.Background(), "nope")
	assert.Error(t, err)
	assert.Equal(t, fmt.Sprintf("未知的站点同步子任务: %s", "nope"), err.Error())
}

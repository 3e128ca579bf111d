package sync

import (
	"context"

	"kibo-catalog-sync/pkg/kibo"
	"kibo-catalog-sync/pkg/models"
)

// Pair 一条传播边：源目录/站点 -> 目标目录/站点
type Pair struct {
	Source      int `json:"source" yaml:"source"`
	Destination int `json:"destination" yaml:"destination"`
}

// CategoryIndex 单个目录的类目索引，每次运行开始时重建，构建后只读
type CategoryIndex struct {
	CatalogID int
	ByID      map[int]*models.Category
	ByCode    map[string]*models.Category
}

// CategoryIndexes 目录ID -> 类目索引
type CategoryIndexes map[int]*CategoryIndex

// CategoryLister 类目分页读取接口
type CategoryLister interface {
	ListCategories(ctx context.Context, catalogID, startIndex, pageSize int) (*kibo.CategoryCollection, error)
}

// ProductPager 商品分页读取接口（首页按偏移量，后续按序列号游标）
type ProductPager interface {
	RefreshAuth(ctx context.Context) error
	ListProductsByOffset(ctx context.Context, startIndex, pageSize int) (*kibo.ProductCollection, error)
	ListProductsAfter(ctx context.Context, lastSequence int64, pageSize int) (*kibo.ProductCollection, error)
}

// ProductAPI 商品同步所需的远端操作
type ProductAPI interface {
	ProductPager
	CategoryLister
	GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error)
	SaveProduct(ctx context.Context, product *models.Product) (*models.Product, error)
}

// CategoryAPI 类目结构同步所需的远端操作
type CategoryAPI interface {
	CategoryLister
	GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error)
	CreateCategory(ctx context.Context, catalogID int, category *models.Category) (*models.Category, error)
	SaveCategory(ctx context.Context, catalogID int, category *models.Category) (*models.Category, error)
}

// SiteAPI 站点级同步所需的远端操作
type SiteAPI interface {
	CategoryLister
	GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error)
	GetSetting(ctx context.Context, scope kibo.SiteScope, name string) (kibo.Document, error)
	SaveSetting(ctx context.Context, scope kibo.SiteScope, name string, setting kibo.Document) error
	ListFacets(ctx context.Context, scope kibo.SiteScope) (*kibo.FacetCollection, error)
	SaveFacet(ctx context.Context, scope kibo.SiteScope, facet *kibo.Facet) error
	ListSearchRedirects(ctx context.Context, scope kibo.SiteScope) (*kibo.DocumentCollection, error)
	SaveSearchRedirect(ctx context.Context, scope kibo.SiteScope, item kibo.Document) error
	ListMerchRules(ctx context.Context, scope kibo.SiteScope) (*kibo.DocumentCollection, error)
	SaveMerchRule(ctx context.Context, scope kibo.SiteScope, rule kibo.Document) error
	GetSearchSettings(ctx context.Context, scope kibo.SiteScope) (*kibo.DocumentCollection, error)
	SaveSearchSetting(ctx context.Context, scope kibo.SiteScope, name string, setting kibo.Document) error
	ListEntityLists(ctx context.Context) (*kibo.DocumentCollection, error)
	ListEntities(ctx context.Context, scope kibo.SiteScope, listFQN string, startIndex int) (*kibo.DocumentCollection, error)
	SaveEntity(ctx context.Context, scope kibo.SiteScope, listFQN string, entity kibo.Document) error
}

// CheckpointStore 游标断点存储，允许中断后续传
type CheckpointStore interface {
	SaveSequence(key string, lastSequence int64) error
	LoadSequence(key string) (int64, bool, error)
	ClearSequence(key string) error
}

// Publisher 同步事件发布接口
type Publisher interface {
	Publish(subject string, payload interface{}) error
}

// Recorder 运行审计记录接口
type Recorder interface {
	RunStarted(kind string) (int64, error)
	ProductFailed(runID int64, productCode string, reason string) error
	WriteFailed(runID int64, productCode string, reason string) error
	RunFinished(runID int64, status *RunStatus) error
}

const (
	SubjectRun     = "catalog.sync.run"     // 运行级事件
	SubjectProduct = "catalog.sync.product" // 商品级事件
)

// RunEvent 运行级事件载荷
type RunEvent struct {
	Kind      string `json:"kind"`
	Status    string `json:"status"` // started / finished / failed
	Processed int    `json:"processed,omitempty"`
	Saved     int    `json:"saved,omitempty"`
	Skipped   int    `json:"skipped,omitempty"`
	Failed    int    `json:"failed,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

// ProductEvent 商品级事件载荷
type ProductEvent struct {
	ProductCode string `json:"productCode"`
	Status      string `json:"status"` // saved / save-failed
	Error       string `json:"error,omitempty"`
}

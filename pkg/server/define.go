package server

import (
	"kibo-catalog-sync/pkg/report"
	"kibo-catalog-sync/pkg/sync"
)

// Handler 管理接口处理器，持有各同步服务
type Handler struct {
	products   *sync.ProductSyncService
	categories *sync.CategorySyncService
	sites      *sync.SiteSyncService
	recorder   *report.GormRecorder // 可选，没有审计库时为 nil
}

// NewHandler 创建管理接口处理器
func NewHandler(products *sync.ProductSyncService, categories *sync.CategorySyncService,
	sites *sync.SiteSyncService, recorder *report.GormRecorder) *Handler {
	return &Handler{
		products:   products,
		categories: categories,
		sites:      sites,
		recorder:   recorder,
	}
}

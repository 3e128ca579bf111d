package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// APIHandler 定义API处理器接口
type APIHandler interface {
	GetStatus(c *gin.Context)
	GetVersion(c *gin.Context)
	SyncProducts(c *gin.Context)
	SyncCategories(c *gin.Context)
	SyncSites(c *gin.Context)
	GetRuns(c *gin.Context)
	GetRunFailures(c *gin.Context)
}

// InitRouter 初始化路由配置
func InitRouter(engine *gin.Engine, handler APIHandler) *gin.RouterGroup {
	// API路由组
	apiGroup := engine.Group("/api/v1")
	if handler != nil {
		catalog := apiGroup.Group("/catalog")
		{
			catalog.GET("/status", handler.GetStatus)
			catalog.GET("/version", handler.GetVersion)
			catalog.POST("/sync/products", handler.SyncProducts)
			catalog.POST("/sync/categories", handler.SyncCategories)
			catalog.POST("/sync/sites", handler.SyncSites)
			catalog.GET("/runs", handler.GetRuns)
			catalog.GET("/runs/:id/failures", handler.GetRunFailures)
			zap.S().Info("路由注册成功: /api/v1/catalog")
		}
	} else {
		zap.S().Warn("Handler为nil，路由未注册")
	}

	return apiGroup
}

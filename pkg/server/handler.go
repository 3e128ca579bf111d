package server

import (
	"context"
	"net/http"
	"strings"

	"kibo-catalog-sync/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// GetStatus 各同步服务的当前运行状态
func (h *Handler) GetStatus(c *gin.Context) {
	util.Ok(c, gin.H{
		"products":   h.products.Tracker().Snapshot(),
		"categories": h.categories.Tracker().Snapshot(),
		"sites":      h.sites.Tracker().Snapshot(),
	})
}

// GetVersion 版本信息
func (h *Handler) GetVersion(c *gin.Context) {
	util.Ok(c, util.GetVersion())
}

// SyncProducts 触发一次商品同步（异步执行，立即返回）
func (h *Handler) SyncProducts(c *gin.Context) {
	if h.products.Tracker().Snapshot().Running {
		util.ErrStatus(c, http.StatusConflict, "商品同步正在运行中")
		return
	}
	go func() {
		if err := h.products.Sync(context.Background()); err != nil {
			zap.S().Errorf("接口触发的商品同步失败: %v", err)
		}
	}()
	util.Ok(c, gin.H{"triggered": "products"})
}

// SyncCategories 触发一次类目结构同步（异步执行，立即返回）
func (h *Handler) SyncCategories(c *gin.Context) {
	if h.categories.Tracker().Snapshot().Running {
		util.ErrStatus(c, http.StatusConflict, "类目同步正在运行中")
		return
	}
	go func() {
		if err := h.categories.Sync(context.Background()); err != nil {
			zap.S().Errorf("接口触发的类目同步失败: %v", err)
		}
	}()
	util.Ok(c, gin.H{"triggered": "categories"})
}

// SyncSites 触发一次站点级同步。kinds 参数为逗号分隔的子任务名，空则全部。
func (h *Handler) SyncSites(c *gin.Context) {
	if h.sites.Tracker().Snapshot().Running {
		util.ErrStatus(c, http.StatusConflict, "站点同步正在运行中")
		return
	}
	var kinds []string
	if raw := util.GetParam(c, "kinds"); raw != "" {
		for _, kind := range strings.Split(raw, ",") {
			if kind = strings.TrimSpace(kind); kind != "" {
				kinds = append(kinds, kind)
			}
		}
	}
	go func() {
		if err := h.sites.Sync(context.Background(), kinds...); err != nil {
			zap.S().Errorf("接口触发的站点同步失败: %v", err)
		}
	}()
	util.Ok(c, gin.H{"triggered": "sites", "kinds": kinds})
}

// GetRuns 最近的运行审计记录
func (h *Handler) GetRuns(c *gin.Context) {
	if h.recorder == nil {
		util.ErrStatus(c, http.StatusNotFound, "未配置审计库")
		return
	}
	limit := cast.ToInt(util.GetParam(c, "limit"))
	runs, err := h.recorder.RecentRuns(limit)
	if err != nil {
		util.Err(c, err)
		return
	}
	util.Ok(c, runs)
}

// GetRunFailures 指定运行的失败明细
func (h *Handler) GetRunFailures(c *gin.Context) {
	if h.recorder == nil {
		util.ErrStatus(c, http.StatusNotFound, "未配置审计库")
		return
	}
	runID := cast.ToInt64(c.Param("id"))
	if runID <= 0 {
		util.ErrStatus(c, http.StatusBadRequest, "非法的运行ID")
		return
	}
	failures, err := h.recorder.RunFailures(runID)
	if err != nil {
		util.Err(c, err)
		return
	}
	util.Ok(c, failures)
}

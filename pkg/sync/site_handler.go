package sync

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"kibo-catalog-sync/pkg/kibo"

	"github.com/samber/lo"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// 站点级同步的子任务名
const (
	SiteKindSettings       = "settings"
	SiteKindFacets         = "facets"
	SiteKindRedirects      = "redirects"
	SiteKindMerchRules     = "merchrules"
	SiteKindSearchSettings = "searchsettings"
	SiteKindEntities       = "entities"
)

// AllSiteKinds 全部站点级子任务（执行顺序固定）
func AllSiteKinds() []string {
	return []string{
		SiteKindSettings,
		SiteKindFacets,
		SiteKindRedirects,
		SiteKindMerchRules,
		SiteKindSearchSettings,
		SiteKindEntities,
	}
}

// SiteSyncService 站点级配置同步服务。
// 按配置的站点对把通用设置、搜索分面、搜索跳转、陈列规则、
// 搜索设置和目录级实体从源站点传播到目标站点。
type SiteSyncService struct {
	cfg *Config
	api SiteAPI

	mu      sync.Mutex
	running bool

	tracker *Tracker
}

// NewSiteSyncService 创建站点同步服务实例
func NewSiteSyncService(cfg *Config, api SiteAPI) *SiteSyncService {
	return &SiteSyncService{
		cfg:     cfg,
		api:     api,
		tracker: NewTracker(),
	}
}

// Tracker 运行状态（状态查询接口共享用）
func (s *SiteSyncService) Tracker() *Tracker {
	return s.tracker
}

// Sync 对所有配置的站点对执行站点级同步。
// kinds 为空时执行全部子任务，否则只执行指定的子任务。
func (s *SiteSyncService) Sync(ctx context.Context, kinds ...string) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("同步任务正在运行中，请稍后再试")
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if len(kinds) == 0 {
		kinds = AllSiteKinds()
	}
	for _, kind := range kinds {
		if !lo.Contains(AllSiteKinds(), kind) {
			return fmt.Errorf("未知的站点同步子任务: %s", kind)
		}
	}

	zap.S().Infof("开始站点级同步，子任务: %v ...", kinds)
	startTime := time.Now()
	s.tracker.Begin("sites", 0)

	tenantID, err := s.cfg.Kibo.TenantID()
	if err != nil {
		err = WrapFatal(err, "解析租户ID失败")
		s.tracker.Finish(err)
		return err
	}
	tenant, err := s.api.GetTenant(ctx, tenantID)
	if err != nil {
		err = WrapFatal(err, "读取租户信息失败")
		s.tracker.Finish(err)
		return err
	}

	var lastErr error
	for _, pair := range s.cfg.SitePairs {
		if pair.Source == pair.Destination {
			continue
		}
		sourceSite := tenant.SiteByID(pair.Source)
		destSite := tenant.SiteByID(pair.Destination)
		if sourceSite == nil || destSite == nil {
			zap.S().Errorf("站点对 %d -> %d 中有站点不存在，跳过", pair.Source, pair.Destination)
			s.tracker.IncrFailed()
			continue
		}
		src := kibo.SiteScope{CatalogID: sourceSite.CatalogID, SiteID: sourceSite.ID}
		dst := kibo.SiteScope{CatalogID: destSite.CatalogID, SiteID: destSite.ID}

		for _, kind := range kinds {
			var kerr error
			switch kind {
			case SiteKindSettings:
				kerr = s.syncSettings(ctx, src, dst)
			case SiteKindFacets:
				kerr = s.syncFacets(ctx, src, dst)
			case SiteKindRedirects:
				kerr = s.syncSearchRedirects(ctx, src, dst)
			case SiteKindMerchRules:
				kerr = s.syncMerchRules(ctx, src, dst)
			case SiteKindSearchSettings:
				kerr = s.syncSearchSettings(ctx, src, dst)
			case SiteKindEntities:
				kerr = s.syncEntities(ctx, src, dst)
			}
			if kerr != nil {
				lastErr = kerr
				zap.S().Errorf("站点对 %d -> %d 子任务 %s 失败: %v", pair.Source, pair.Destination, kind, kerr)
			}
		}
	}

	s.tracker.Finish(lastErr)
	status := s.tracker.Snapshot()
	zap.S().Infof("站点级同步完成 - 处理: %d, 回写: %d, 跳过: %d, 失败: %d, 耗时: %v",
		status.Processed, status.Saved, status.Skipped, status.Failed, time.Since(startTime))
	return lastErr
}

// syncSettings 逐项复制通用站点设置（综合、配送、结算、退货）
func (s *SiteSyncService) syncSettings(ctx context.Context, src, dst kibo.SiteScope) error {
	for _, name := range kibo.GeneralSettingNames() {
		s.tracker.IncrProcessed()
		setting, err := s.api.GetSetting(ctx, src, name)
		if err != nil {
			s.tracker.IncrFailed()
			zap.S().Errorf("读取站点 %d 设置 %s 失败: %v", src.SiteID, name, err)
			continue
		}
		if setting == nil {
			s.tracker.IncrSkipped()
			continue
		}
		if err := s.api.SaveSetting(ctx, dst, name, setting); err != nil {
			s.tracker.IncrFailed()
			zap.S().Errorf("写入站点 %d 设置 %s 失败: %v", dst.SiteID, name, err)
			continue
		}
		s.tracker.IncrSaved()
	}
	return nil
}

// syncFacets 复制搜索分面。类目级分面的 categoryId 经编码翻译到目标目录；
// 覆盖型分面排在原始分面之后处理，保证被覆盖的分面先就位。
func (s *SiteSyncService) syncFacets(ctx context.Context, src, dst kibo.SiteScope) error {
	srcIndex, err := BuildCategoryIndex(ctx, s.api, src.CatalogID, s.cfg.PageSize)
	if err != nil {
		return err
	}
	dstIndex, err := BuildCategoryIndex(ctx, s.api, dst.CatalogID, s.cfg.PageSize)
	if err != nil {
		return err
	}
	indexes := CategoryIndexes{src.CatalogID: srcIndex, dst.CatalogID: dstIndex}

	sourceFacets, err := s.api.ListFacets(ctx, src)
	if err != nil {
		return err
	}
	destFacets, err := s.api.ListFacets(ctx, dst)
	if err != nil {
		return err
	}

	ordered := make([]*kibo.Facet, len(sourceFacets.Items))
	copy(ordered, sourceFacets.Items)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OverrideFacetID == 0 && ordered[j].OverrideFacetID != 0
	})

	refreshed := false
	for _, facet := range ordered {
		// 进入覆盖型分面前重取目标列表，拿到刚新建的原始分面ID
		if facet.OverrideFacetID != 0 && !refreshed {
			current, rerr := s.api.ListFacets(ctx, dst)
			if rerr != nil {
				return rerr
			}
			destFacets = current
			refreshed = true
		}

		s.tracker.IncrProcessed()

		mapped := *facet
		mapped.CatalogID = dst.CatalogID
		if facet.CategoryID != 0 {
			id, ok := translateRef(indexes[src.CatalogID], indexes[dst.CatalogID], facet.CategoryID)
			if !ok {
				s.tracker.IncrSkipped()
				zap.S().Debugf("分面 %d 的类目 %d 在目标目录中不存在，跳过", facet.FacetID, facet.CategoryID)
				continue
			}
			mapped.CategoryID = id
		}

		// 覆盖型分面：被覆盖的原始分面ID也要翻译到目标侧
		if facet.OverrideFacetID != 0 {
			overridden, ok := lo.Find(sourceFacets.Items, func(f *kibo.Facet) bool {
				return f.FacetID == facet.OverrideFacetID
			})
			if !ok {
				s.tracker.IncrSkipped()
				continue
			}
			target := matchFacet(destFacets.Items, overridden, 0)
			if target == nil {
				s.tracker.IncrSkipped()
				zap.S().Debugf("分面 %d 覆盖的原始分面在目标站点中不存在，跳过", facet.FacetID)
				continue
			}
			mapped.OverrideFacetID = target.FacetID
		}

		if existing := matchFacet(destFacets.Items, facet, mapped.CategoryID); existing != nil {
			mapped.FacetID = existing.FacetID
		} else {
			mapped.FacetID = 0
		}

		if err := s.api.SaveFacet(ctx, dst, &mapped); err != nil {
			s.tracker.IncrFailed()
			zap.S().Errorf("写入站点 %d 分面失败 (source=%s): %v", dst.SiteID, facet.Source.ID, err)
			continue
		}
		s.tracker.IncrSaved()
	}
	return nil
}

// matchFacet 在目标分面列表中按取值来源和类型匹配同一业务分面。
// categoryID 非零时还要求类目一致（传 0 表示按源分面自身的类目语义匹配）。
func matchFacet(items []*kibo.Facet, facet *kibo.Facet, categoryID int) *kibo.Facet {
	matched, _ := lo.Find(items, func(f *kibo.Facet) bool {
		if f.Source.ID != facet.Source.ID || f.Source.Type != facet.Source.Type {
			return false
		}
		if f.FacetType != facet.FacetType {
			return false
		}
		// 覆盖型分面和它覆盖的原始分面共享取值来源，不能互相匹配
		if (f.OverrideFacetID != 0) != (facet.OverrideFacetID != 0) {
			return false
		}
		if categoryID != 0 && f.CategoryID != categoryID {
			return false
		}
		return true
	})
	return matched
}

// syncSearchRedirects 复制搜索跳转规则
func (s *SiteSyncService) syncSearchRedirects(ctx context.Context, src, dst kibo.SiteScope) error {
	redirects, err := s.api.ListSearchRedirects(ctx, src)
	if err != nil {
		return err
	}
	for _, item := range redirects.Items {
		s.tracker.IncrProcessed()
		if err := s.api.SaveSearchRedirect(ctx, dst, item); err != nil {
			s.tracker.IncrFailed()
			zap.S().Errorf("写入站点 %d 搜索跳转 %s 失败: %v", dst.SiteID, cast.ToString(item["redirectId"]), err)
			continue
		}
		s.tracker.IncrSaved()
	}
	return nil
}

// syncMerchRules 复制搜索陈列规则
func (s *SiteSyncService) syncMerchRules(ctx context.Context, src, dst kibo.SiteScope) error {
	rules, err := s.api.ListMerchRules(ctx, src)
	if err != nil {
		return err
	}
	for _, rule := range rules.Items {
		s.tracker.IncrProcessed()
		if err := s.api.SaveMerchRule(ctx, dst, rule); err != nil {
			s.tracker.IncrFailed()
			zap.S().Errorf("写入站点 %d 陈列规则 %s 失败: %v", dst.SiteID, cast.ToString(rule["code"]), err)
			continue
		}
		s.tracker.IncrSaved()
	}
	return nil
}

// syncSearchSettings 复制搜索设置。只同步默认设置，
// 站点自建的实验性设置留在源站点。
func (s *SiteSyncService) syncSearchSettings(ctx context.Context, src, dst kibo.SiteScope) error {
	settings, err := s.api.GetSearchSettings(ctx, src)
	if err != nil {
		return err
	}
	for _, setting := range settings.Items {
		s.tracker.IncrProcessed()
		if !cast.ToBool(setting["isDefault"]) {
			s.tracker.IncrSkipped()
			continue
		}
		name := cast.ToString(setting["settingsName"])
		if name == "" {
			s.tracker.IncrSkipped()
			continue
		}
		if err := s.api.SaveSearchSetting(ctx, dst, name, setting); err != nil {
			s.tracker.IncrFailed()
			zap.S().Errorf("写入站点 %d 搜索设置 %s 失败: %v", dst.SiteID, name, err)
			continue
		}
		s.tracker.IncrSaved()
	}
	return nil
}

// syncEntities 复制目录级实体列表的内容。
// 只处理 contextLevel 为 catalog 的列表，租户级和站点级实体不动。
func (s *SiteSyncService) syncEntities(ctx context.Context, src, dst kibo.SiteScope) error {
	lists, err := s.api.ListEntityLists(ctx)
	if err != nil {
		return err
	}
	for _, list := range lists.Items {
		if cast.ToString(list["contextLevel"]) != "catalog" {
			continue
		}
		listFQN := fmt.Sprintf("%s@%s", cast.ToString(list["name"]), cast.ToString(list["nameSpace"]))

		startIndex := 0
		for {
			page, err := s.api.ListEntities(ctx, src, listFQN, startIndex)
			if err != nil {
				s.tracker.IncrFailed()
				zap.S().Errorf("读取实体列表 %s 失败: %v", listFQN, err)
				break
			}
			for _, entity := range page.Items {
				s.tracker.IncrProcessed()
				if err := s.api.SaveEntity(ctx, dst, listFQN, entity); err != nil {
					s.tracker.IncrFailed()
					zap.S().Errorf("写入实体列表 %s 记录失败: %v", listFQN, err)
					continue
				}
				s.tracker.IncrSaved()
			}
			startIndex += len(page.Items)
			if len(page.Items) == 0 || startIndex >= page.TotalCount {
				break
			}
		}
	}
	return nil
}

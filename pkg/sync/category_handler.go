package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kibo-catalog-sync/pkg/models"

	"go.uber.org/zap"
)

// CategorySyncService 类目结构同步服务。
// 按配置的目录对把源目录的类目树补齐到目标目录：
// 目标缺失的类目按编码新建，父子关系漂移的类目调整挂载点。
// 只增不删，目标目录专属的类目保持不动。
type CategorySyncService struct {
	cfg *Config
	api CategoryAPI

	mu      sync.Mutex
	running bool

	tracker *Tracker
}

// NewCategorySyncService 创建类目结构同步服务实例
func NewCategorySyncService(cfg *Config, api CategoryAPI) *CategorySyncService {
	return &CategorySyncService{
		cfg:     cfg,
		api:     api,
		tracker: NewTracker(),
	}
}

// Tracker 运行状态（状态查询接口共享用）
func (s *CategorySyncService) Tracker() *Tracker {
	return s.tracker
}

// Sync 对所有配置的目录对执行一次类目结构同步
func (s *CategorySyncService) Sync(ctx context.Context) error {
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

	zap.S().Info("开始类目结构同步...")
	startTime := time.Now()
	s.tracker.Begin("categories", 0)

	var created, updated, failed int
	var lastErr error
	for _, pair := range s.cfg.CatalogPairs {
		c, u, f, err := s.syncPair(ctx, pair)
		created += c
		updated += u
		failed += f
		if err != nil {
			lastErr = err
			zap.S().Errorf("目录对 %d -> %d 类目同步失败: %v", pair.Source, pair.Destination, err)
			if IsFatal(err) {
				break
			}
		}
	}

	s.tracker.Finish(lastErr)
	duration := time.Since(startTime)
	zap.S().Infof("类目结构同步完成 - 新增: %d, 调整: %d, 失败: %d, 耗时: %v",
		created, updated, failed, duration)
	return lastErr
}

// syncPair 同步单个目录对的类目树
func (s *CategorySyncService) syncPair(ctx context.Context, pair Pair) (created, updated, failed int, err error) {
	if pair.Source == pair.Destination {
		return 0, 0, 0, nil
	}

	sourceCategories, err := FetchAllCategories(ctx, s.api, pair.Source, s.cfg.PageSize)
	if err != nil {
		return 0, 0, 0, WrapFatal(err, fmt.Sprintf("读取源目录 %d 类目失败", pair.Source))
	}
	destCategories, err := FetchAllCategories(ctx, s.api, pair.Destination, s.cfg.PageSize)
	if err != nil {
		return 0, 0, 0, WrapFatal(err, fmt.Sprintf("读取目标目录 %d 类目失败", pair.Destination))
	}

	sourceByID := make(map[int]*models.Category, len(sourceCategories))
	for _, category := range sourceCategories {
		sourceByID[category.ID] = category
	}
	destByCode := make(map[string]*models.Category, len(destCategories))
	for _, category := range destCategories {
		destByCode[category.CategoryCode] = category
	}

	// 先父后子遍历，保证新建子类目时父类目已经在目标目录中
	for _, src := range orderParentsFirst(sourceCategories, sourceByID) {
		s.tracker.IncrProcessed()

		// 目标侧期望的父类目ID：源父ID -> 编码 -> 目标ID，解析不到按根处理
		parentID := 0
		if src.ParentCategoryID != 0 {
			if srcParent, ok := sourceByID[src.ParentCategoryID]; ok {
				if dstParent, ok := destByCode[srcParent.CategoryCode]; ok {
					parentID = dstParent.ID
				}
			}
		}

		dst, exists := destByCode[src.CategoryCode]
		if !exists {
			create := &models.Category{
				CategoryCode:     src.CategoryCode,
				ParentCategoryID: parentID,
				IsDisplayed:      src.IsDisplayed,
				Content:          src.Content,
			}
			saved, cerr := s.api.CreateCategory(ctx, pair.Destination, create)
			if cerr != nil {
				failed++
				s.tracker.IncrFailed()
				zap.S().Errorf("目录 %d 新建类目 %s 失败: %v", pair.Destination, src.CategoryCode, cerr)
				continue
			}
			destByCode[saved.CategoryCode] = saved
			created++
			s.tracker.IncrSaved()
			continue
		}

		if dst.ParentCategoryID != parentID {
			dst.ParentCategoryID = parentID
			if _, serr := s.api.SaveCategory(ctx, pair.Destination, dst); serr != nil {
				failed++
				s.tracker.IncrFailed()
				zap.S().Errorf("目录 %d 调整类目 %s 挂载失败: %v", pair.Destination, dst.CategoryCode, serr)
				continue
			}
			updated++
			s.tracker.IncrSaved()
			continue
		}

		s.tracker.IncrSkipped()
	}
	return created, updated, failed, nil
}

// orderParentsFirst 把类目列表按树层级排序（根在前，子在后）。
// 父类目缺失或成环的节点按根处理，追加在末尾。
func orderParentsFirst(categories []*models.Category, byID map[int]*models.Category) []*models.Category {
	children := make(map[int][]*models.Category)
	var roots []*models.Category
	for _, category := range categories {
		if category.ParentCategoryID == 0 || byID[category.ParentCategoryID] == nil {
			roots = append(roots, category)
			continue
		}
		children[category.ParentCategoryID] = append(children[category.ParentCategoryID], category)
	}

	ordered := make([]*models.Category, 0, len(categories))
	queue := roots
	for len(queue) > 0 {
		category := queue[0]
		queue = queue[1:]
		ordered = append(ordered, category)
		queue = append(queue, children[category.ID]...)
		delete(children, category.ID)
	}
	// 剩下的都在环里，原样追加
	for _, orphans := range children {
		ordered = append(ordered, orphans...)
	}
	return ordered
}

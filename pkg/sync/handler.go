package sync

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"kibo-catalog-sync/pkg/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ProductSyncService 商品传播同步服务。
// 以权威目录为基准，按配置的目录对把商品内容、图片和类目引用
// 传播到各目标目录，只回写发生了实质变更的商品。
type ProductSyncService struct {
	cfg *Config
	api ProductAPI

	mu      sync.Mutex
	running bool

	tracker     *Tracker
	recorder    Recorder
	publisher   Publisher
	progress    Progress
	checkpoints CheckpointStore
	resume      bool
}

// NewProductSyncService 创建商品同步服务实例
func NewProductSyncService(cfg *Config, api ProductAPI) *ProductSyncService {
	return &ProductSyncService{
		cfg:      cfg,
		api:      api,
		tracker:  NewTracker(),
		progress: LogProgress{},
	}
}

// UseRecorder 接入运行审计记录
func (s *ProductSyncService) UseRecorder(recorder Recorder) {
	s.recorder = recorder
}

// UsePublisher 接入同步事件发布
func (s *ProductSyncService) UsePublisher(publisher Publisher) {
	s.publisher = publisher
}

// UseProgress 替换进度上报实现
func (s *ProductSyncService) UseProgress(progress Progress) {
	s.progress = progress
}

// UseCheckpoints 接入断点存储。resume 为真时从上次中断处续传。
func (s *ProductSyncService) UseCheckpoints(store CheckpointStore, resume bool) {
	s.checkpoints = store
	s.resume = resume
}

// Tracker 运行状态（状态查询接口共享用）
func (s *ProductSyncService) Tracker() *Tracker {
	return s.tracker
}

// Sync 执行一次完整的商品传播同步
func (s *ProductSyncService) Sync(ctx context.Context) error {
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

	zap.S().Info("开始商品传播同步...")
	startTime := time.Now()
	s.tracker.Begin("products", 0)

	var runID int64
	if s.recorder != nil {
		id, err := s.recorder.RunStarted("products")
		if err != nil {
			zap.S().Warnf("创建审计记录失败: %v", err)
		} else {
			runID = id
		}
	}
	s.publishRun(&RunEvent{Kind: "products", Status: "started"})

	err := s.syncProducts(ctx, runID)
	s.tracker.Finish(err)
	status := s.tracker.Snapshot()
	duration := time.Since(startTime)

	if s.recorder != nil && runID > 0 {
		if rerr := s.recorder.RunFinished(runID, &status); rerr != nil {
			zap.S().Warnf("收尾审计记录失败: %v", rerr)
		}
	}

	event := &RunEvent{
		Kind:      "products",
		Status:    "finished",
		Processed: status.Processed,
		Saved:     status.Saved,
		Skipped:   status.Skipped,
		Failed:    status.Failed,
		Duration:  duration.String(),
	}
	if err != nil {
		event.Status = "failed"
		s.publishRun(event)
		zap.S().Errorf("商品同步失败: %v", err)
		return err
	}
	s.publishRun(event)

	zap.S().Infof("商品同步完成 - 处理: %d, 回写: %d, 跳过: %d, 失败: %d, 耗时: %v",
		status.Processed, status.Saved, status.Skipped, status.Failed, duration)
	return nil
}

func (s *ProductSyncService) syncProducts(ctx context.Context, runID int64) error {
	tenantID, err := s.cfg.Kibo.TenantID()
	if err != nil {
		return WrapFatal(err, "解析租户ID失败")
	}
	tenant, err := s.api.GetTenant(ctx, tenantID)
	if err != nil {
		return WrapFatal(err, "读取租户信息失败")
	}
	catalogMap := tenant.CatalogMap()

	indexes, err := BuildCategoryIndexes(ctx, s.api, tenant, s.cfg.PageSize)
	if err != nil {
		return err
	}

	queue := NewWriteQueue(s.cfg.MaxInflightWrites)
	queue.OnError(func(label string, err error) {
		s.tracker.IncrFailed()
		if s.recorder != nil {
			if rerr := s.recorder.WriteFailed(runID, label, err.Error()); rerr != nil {
				zap.S().Warnf("记录回写失败审计失败: %v", rerr)
			}
		}
		s.publishProduct(&ProductEvent{ProductCode: label, Status: "save-failed", Error: err.Error()})
	})

	walker := NewProductWalker(s.api, s.cfg.PageSize)
	if s.checkpoints != nil {
		walker.UseCheckpoints(s.checkpoints, fmt.Sprintf("products:%d", s.cfg.PrimeCatalog))
		if s.resume {
			if rerr := walker.Resume(); rerr != nil {
				zap.S().Warnf("读取断点失败，从头开始: %v", rerr)
			}
		}
	}

	processed := 0
	for !walker.Done() {
		page, err := walker.NextPage(ctx)
		if err != nil {
			// 致命错误退出前先等在途写入结束，避免写一半
			if derr := queue.Drain(context.Background()); derr != nil {
				zap.S().Warnf("等待在途写入结束失败: %v", derr)
			}
			return err
		}
		if processed == 0 {
			s.tracker.SetTotal(walker.GrandTotal())
		}
		for _, product := range page {
			if cerr := ctx.Err(); cerr != nil {
				walker.SaveCheckpoint()
				if derr := queue.Drain(context.Background()); derr != nil {
					zap.S().Warnf("等待在途写入结束失败: %v", derr)
				}
				return cerr
			}
			s.processProduct(ctx, product, catalogMap, indexes, queue, runID)
			walker.MarkProcessed(product)
			processed++
			s.tracker.IncrProcessed()
			if s.progress != nil {
				s.progress.Report(processed, walker.GrandTotal())
			}
		}
		walker.SaveCheckpoint()
	}

	if err := queue.Drain(ctx); err != nil {
		return WrapFatal(err, "等待在途写入结束失败")
	}
	walker.ClearCheckpoint()
	return nil
}

// processProduct 处理单个商品：快照、图片回填、合成缺失的目录记录、
// 类目映射，最后比较快照，发生实质变更才回写。
// 单个商品的异常只记录不中止，运行继续处理后面的商品。
func (s *ProductSyncService) processProduct(ctx context.Context, product *models.Product,
	catalogMap map[int]*models.Catalog, indexes CategoryIndexes, queue *WriteQueue, runID int64) {
	defer func() {
		if r := recover(); r != nil {
			zap.S().Errorf("商品 %s 处理发生 panic: %v", product.ProductCode, r)
			s.recordFailure(runID, product.ProductCode, fmt.Sprintf("panic: %v", r))
		}
	}()

	prime := product.InCatalog(s.cfg.PrimeCatalog)
	if prime == nil {
		zap.S().Debugf("商品 %s 不在权威目录 %d 中，跳过", product.ProductCode, s.cfg.PrimeCatalog)
		s.tracker.IncrSkipped()
		return
	}

	snapshot := product.Clone()
	if snapshot == nil {
		s.recordFailure(runID, product.ProductCode, "生成比较快照失败")
		return
	}

	for _, pair := range s.cfg.CatalogPairs {
		source := product.InCatalog(pair.Source)
		if source == nil {
			continue
		}
		backfillImages(prime, source)

		destination := product.InCatalog(pair.Destination)
		if destination == nil {
			destination = source.Clone()
			if destination == nil {
				continue
			}
			destination.CatalogID = pair.Destination
			// 新合成的目录记录用占位价格，货币取目标目录的默认货币
			price := &models.ProductPrice{Price: 1}
			if catalog, ok := catalogMap[pair.Destination]; ok {
				price.IsoCurrencyCode = catalog.DefaultCurrencyCode
			}
			destination.Price = price
			product.ProductInCatalogs = append(product.ProductInCatalogs, destination)
		} else {
			backfillImages(prime, destination)
		}

		MapCategoryRefs(indexes, prime, source)
		MapCategoryRefs(indexes, prime, destination)
	}

	changed, err := ProductChanged(snapshot, product)
	if err != nil {
		s.recordFailure(runID, product.ProductCode, err.Error())
		return
	}
	if !changed {
		s.tracker.IncrSkipped()
		return
	}

	code := product.ProductCode
	if err := queue.Submit(ctx, code, func(ctx context.Context) error {
		if _, serr := s.api.SaveProduct(ctx, product); serr != nil {
			return &WriteError{ProductCode: code, Err: serr}
		}
		s.tracker.IncrSaved()
		s.publishProduct(&ProductEvent{ProductCode: code, Status: "saved"})
		return nil
	}); err != nil {
		s.recordFailure(runID, code, err.Error())
	}
}

// backfillImages 权威目录的图片比目标侧多时，用权威目录的图片整体覆盖
func backfillImages(prime, target *models.ProductInCatalog) {
	if prime == nil || target == nil || prime == target {
		return
	}
	if prime.Content == nil || target.Content == nil {
		return
	}
	if len(prime.Content.ProductImages) <= len(target.Content.ProductImages) {
		return
	}
	images := make([]models.ProductImage, len(prime.Content.ProductImages))
	copy(images, prime.Content.ProductImages)
	target.Content.ProductImages = images
}

func (s *ProductSyncService) recordFailure(runID int64, productCode, reason string) {
	s.tracker.IncrFailed()
	zap.S().Errorf("商品 %s 处理失败: %s", productCode, reason)
	if s.recorder != nil {
		if err := s.recorder.ProductFailed(runID, productCode, reason); err != nil {
			zap.S().Warnf("记录商品失败审计失败: %v", err)
		}
	}
}

func (s *ProductSyncService) publishRun(event *RunEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(SubjectRun, event); err != nil {
		zap.S().Warnf("发布运行事件失败: %v", err)
	}
}

func (s *ProductSyncService) publishProduct(event *ProductEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(SubjectProduct, event); err != nil {
		zap.S().Warnf("发布商品事件失败: %v", err)
	}
}

// SyncNow 立即执行一次同步
func (s *ProductSyncService) SyncNow(ctx context.Context) error {
	return s.Sync(ctx)
}

// StartDailySync 启动每日定时同步
func (s *ProductSyncService) StartDailySync(ctx context.Context) error {
	go func() {
		now := time.Now()
		loc, _ := time.LoadLocation("Asia/Shanghai")
		today := now.In(loc)
		nextNoon := time.Date(today.Year(), today.Month(), today.Day(), 12, 0, 0, 0, loc)
		if now.After(nextNoon) {
			nextNoon = nextNoon.Add(24 * time.Hour)
		}

		waitDuration := nextNoon.Sub(now)
		zap.S().Infof("商品同步任务将在 %v 后首次执行（%s）", waitDuration, nextNoon.Format("2006-01-02 15:04:05"))

		select {
		case <-time.After(waitDuration):
			if err := s.Sync(ctx); err != nil {
				zap.S().Errorf("首次同步失败: %v", err)
			}
		case <-ctx.Done():
			return
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.Sync(ctx); err != nil {
					zap.S().Errorf("定时同步失败: %v", err)
				}
			case <-ctx.Done():
				zap.S().Info("商品同步任务已停止")
				return
			}
		}
	}()

	return nil
}

// StartCronSync 启动基于 cron 表达式的定时同步
func (s *ProductSyncService) StartCronSync(ctx context.Context) error {
	if s.cfg.Schedule == nil {
		return fmt.Errorf("缺少 schedule 配置")
	}
	expr := strings.TrimSpace(s.cfg.Schedule.Cron)
	if expr == "" {
		return fmt.Errorf("cron 表达式不能为空")
	}

	parts := strings.Fields(expr)
	var c *cron.Cron
	if len(parts) == 6 {
		c = cron.New(cron.WithSeconds())
	} else if len(parts) == 5 {
		c = cron.New()
	} else {
		return fmt.Errorf("无效的 cron 表达式格式，应为5位或6位: %s", expr)
	}

	entryID, err := c.AddFunc(expr, func() {
		zap.S().Info("CRON 触发商品同步任务...")
		if err := s.Sync(ctx); err != nil {
			zap.S().Errorf("CRON 调度执行失败: %v", err)
		} else {
			zap.S().Info("CRON 调度执行成功")
		}
	})
	if err != nil {
		return fmt.Errorf("解析 CRON 表达式失败: %w", err)
	}

	zap.S().Infof("CRON 任务已注册 (EntryID: %d, 表达式: %s)", entryID, expr)

	c.Start()
	zap.S().Info("CRON 调度器已启动")

	go func() {
		<-ctx.Done()
		zap.S().Info("接收到停止信号，正在停止 CRON 调度器...")
		stopCtx := c.Stop()
		<-stopCtx.Done()
		zap.S().Info("CRON 调度器已停止")
	}()

	return nil
}

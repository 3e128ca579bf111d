package sync

import (
	"context"

	"kibo-catalog-sync/pkg/kibo"
	"kibo-catalog-sync/pkg/models"

	"go.uber.org/zap"
)

// ProductWalker 按 productSequence 游标遍历商品集合。
//
// 偏移量分页在边读边写的场景下不安全：前一页写回导致记录在排序中
// 前移后，按偏移量取下一页会漏读或重读。productSequence 严格递增且
// 商品更新时不变，以它做续传键不受并发写入影响。偏移量只用于首页，
// 之后仅作为监控计数保留。
type ProductWalker struct {
	api      ProductPager
	pageSize int

	startIndex   int   // 监控计数，游标模式下不参与取数
	lastSequence int64 // 最近处理完的商品序列号
	started      bool  // 游标是否已建立
	totalCount   int   // 最近一次请求报告的剩余数，初始哨兵值 1 保证至少取一次
	grandTotal   int   // 首次请求报告的总数（进度展示用）
	fetched      bool

	checkpoints   CheckpointStore
	checkpointKey string
}

func NewProductWalker(api ProductPager, pageSize int) *ProductWalker {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &ProductWalker{
		api:        api,
		pageSize:   pageSize,
		totalCount: 1,
	}
}

// UseCheckpoints 启用断点存储：每处理完一页落一次游标
func (w *ProductWalker) UseCheckpoints(store CheckpointStore, key string) {
	w.checkpoints = store
	w.checkpointKey = key
}

// Resume 从断点恢复游标。没有断点时从头开始，不算错误。
func (w *ProductWalker) Resume() error {
	if w.checkpoints == nil {
		return nil
	}
	seq, ok, err := w.checkpoints.LoadSequence(w.checkpointKey)
	if err != nil {
		return err
	}
	if ok {
		w.lastSequence = seq
		w.started = true
		zap.S().Infof("从断点恢复，productSequence > %d", seq)
	}
	return nil
}

// Done 集合是否已遍历完（最近一次请求报告的剩余数为 0）
func (w *ProductWalker) Done() bool {
	return w.totalCount <= 0
}

// NextPage 取下一页商品。每次取页前刷新认证，防止大目录长跑中 token 过期。
func (w *ProductWalker) NextPage(ctx context.Context) ([]*models.Product, error) {
	if w.Done() {
		return nil, nil
	}
	if err := w.api.RefreshAuth(ctx); err != nil {
		return nil, WrapFatal(err, "刷新认证失败")
	}

	var coll *kibo.ProductCollection
	var err error
	if w.started {
		coll, err = w.api.ListProductsAfter(ctx, w.lastSequence, w.pageSize)
		if err != nil {
			return nil, WrapFatal(err, "按游标取商品页失败")
		}
	} else {
		coll, err = w.api.ListProductsByOffset(ctx, w.startIndex, w.pageSize)
		if err != nil {
			return nil, WrapFatal(err, "按偏移量取商品页失败")
		}
	}

	w.totalCount = coll.TotalCount
	if !w.fetched {
		w.grandTotal = coll.TotalCount
		w.fetched = true
	}
	w.startIndex += w.pageSize
	// 剩余数非零却返回空页说明远端计数不一致，按结束处理，避免死循环
	if len(coll.Items) == 0 {
		w.totalCount = 0
	}
	return coll.Items, nil
}

// MarkProcessed 记录商品已处理，推进游标。
// 逐个商品推进：即使一页中途失败，续传也不会漏掉未处理的商品。
func (w *ProductWalker) MarkProcessed(product *models.Product) {
	w.lastSequence = product.ProductSequence
	w.started = true
}

// SaveCheckpoint 落盘当前游标（一页处理完后调用）
func (w *ProductWalker) SaveCheckpoint() {
	if w.checkpoints == nil || !w.started {
		return
	}
	if err := w.checkpoints.SaveSequence(w.checkpointKey, w.lastSequence); err != nil {
		zap.S().Warnf("保存断点失败: %v", err)
	}
}

// ClearCheckpoint 运行完整结束后清除断点
func (w *ProductWalker) ClearCheckpoint() {
	if w.checkpoints == nil {
		return
	}
	if err := w.checkpoints.ClearSequence(w.checkpointKey); err != nil {
		zap.S().Warnf("清除断点失败: %v", err)
	}
}

// GrandTotal 首次请求报告的商品总数
func (w *ProductWalker) GrandTotal() int {
	return w.grandTotal
}

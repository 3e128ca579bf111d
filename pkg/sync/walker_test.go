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

// fakePager 模拟远端商品分页：游标请求按 productSequence 过滤
type fakePager struct {
	products    []*models.Product // 按序列号升序
	authCalls   int
	offsetCalls int
	cursorCalls int
}

func newFakePager(count int) *fakePager {
	pager := &fakePager{}
	for i := 0; i < count; i++ {
		pager.products = append(pager.products, &models.Product{
			ProductCode:     fmt.Sprintf("SKU-%04d", i),
			ProductSequence: int64(1000 + i),
		})
	}
	return pager
}

func (f *fakePager) RefreshAuth(ctx context.Context) error {
	f.authCalls++
	return nil
}

func (f *fakePager) ListProductsByOffset(ctx context.Context, startIndex, pageSize int) (*kibo.ProductCollection, error) {
	f.offsetCalls++
	end := min(startIndex+pageSize, len(f.products))
	if startIndex > end {
		startIndex = end
	}
	return &kibo.ProductCollection{
		StartIndex: startIndex,
		PageSize:   pageSize,
		TotalCount: len(f.products),
		Items:      f.products[startIndex:end],
	}, nil
}

func (f *fakePager) ListProductsAfter(ctx context.Context, lastSequence int64, pageSize int) (*kibo.ProductCollection, error) {
	f.cursorCalls++
	var matching []*models.Product
	for _, product := range f.products {
		if product.ProductSequence > lastSequence {
			matching = append(matching, product)
		}
	}
	end := min(pageSize, len(matching))
	return &kibo.ProductCollection{
		PageSize:   pageSize,
		TotalCount: len(matching),
		Items:      matching[:end],
	}, nil
}

type memCheckpoints struct {
	sequences map[string]int64
}

func newMemCheckpoints() *memCheckpoints {
	return &memCheckpoints{sequences: make(map[string]int64)}
}

func (m *memCheckpoints) SaveSequence(key string, lastSequence int64) error {
	m.sequences[key] = lastSequence
	return nil
}

func (m *memCheckpoints) LoadSequence(key string) (int64, bool, error) {
	seq, ok := m.sequences[key]
	return seq, ok, nil
}

func (m *memCheckpoints) ClearSequence(key string) error {
	delete(m.sequences, key)
	return nil
}

func TestProductWalkerVisitsAllOnce(t *testing.T) {
	pager := newFakePager(450)
	walker := NewProductWalker(pager, 200)

	seen := make(map[string]int)
	var lastSequence int64
	for !walker.Done() {
		page, err := walker.NextPage(context.Background())
		require.NoError(t, err)
		for _, product := range page {
			seen[product.ProductCode]++
			// 游标保证序列号严格递增
			assert.Greater(t, product.ProductSequence, lastSequence)
			lastSequence = product.ProductSequence
			walker.MarkProcessed(product)
		}
	}

	assert.Len(t, seen, 450)
	for code, count := range seen {
		assert.Equal(t, 1, count, "商品 %s 被重复访问", code)
	}
	assert.Equal(t, 450, walker.GrandTotal())
	assert.Equal(t, 1, pager.offsetCalls)
	assert.GreaterOrEqual(t, pager.cursorCalls, 2)
	assert.Equal(t, pager.offsetCalls+pager.cursorCalls, pager.authCalls)
}

func TestProductWalkerEmptyCollection(t *testing.T) {
	pager := newFakePager(0)
	walker := NewProductWalker(pager, 200)

	page, err := walker.NextPage(context.Background())
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.True(t, walker.Done())
}

func TestProductWalkerResumeFromCheckpoint(t *testing.T) {
	pager := newFakePager(450)
	checkpoints := newMemCheckpoints()

	walker := NewProductWalker(pager, 200)
	walker.UseCheckpoints(checkpoints, "products:1")

	page, err := walker.NextPage(context.Background())
	require.NoError(t, err)
	require.Len(t, page, 200)
	for _, product := range page {
		walker.MarkProcessed(product)
	}
	walker.SaveCheckpoint()

	// 中断后从断点续传，剩余 250 个不重不漏
	resumed := NewProductWalker(pager, 200)
	resumed.UseCheckpoints(checkpoints, "products:1")
	require.NoError(t, resumed.Resume())

	seen := make(map[string]bool)
	for !resumed.Done() {
		page, err := resumed.NextPage(context.Background())
		require.NoError(t, err)
		for _, product := range page {
			seen[product.ProductCode] = true
			resumed.MarkProcessed(product)
		}
	}
	assert.Len(t, seen, 250)
	assert.False(t, seen["SKU-0199"])
	assert.True(t, seen["SKU-0200"])

	resumed.ClearCheckpoint()
	_, found, err := checkpoints.LoadSequence("products:1")
	require.NoError(t, err)
	assert.False(t, found)
}

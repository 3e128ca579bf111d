package sync

import (
	"context"
	"fmt"

	"kibo-catalog-sync/pkg/models"

	"go.uber.org/zap"
)

// FetchAllCategories 翻页取回目录下的全部类目，直到声明的页数耗尽
func FetchAllCategories(ctx context.Context, api CategoryLister, catalogID, pageSize int) ([]*models.Category, error) {
	var categories []*models.Category
	startIndex := 0
	pageCount := 1
	for startIndex < pageCount*pageSize {
		page, err := api.ListCategories(ctx, catalogID, startIndex, pageSize)
		if err != nil {
			return nil, err
		}
		categories = append(categories, page.Items...)
		pageCount = page.PageCount
		startIndex += pageSize
	}
	return categories, nil
}

// BuildCategoryIndex 构建单个目录的类目索引。
// 同一目录内重复的 id/categoryCode 以后出现者为准。
func BuildCategoryIndex(ctx context.Context, api CategoryLister, catalogID, pageSize int) (*CategoryIndex, error) {
	categories, err := FetchAllCategories(ctx, api, catalogID, pageSize)
	if err != nil {
		return nil, err
	}
	index := &CategoryIndex{
		CatalogID: catalogID,
		ByID:      make(map[int]*models.Category, len(categories)),
		ByCode:    make(map[string]*models.Category, len(categories)),
	}
	for _, category := range categories {
		index.ByID[category.ID] = category
		index.ByCode[category.CategoryCode] = category
	}
	zap.S().Infof("目录 %d 类目索引构建完成，共 %d 条", catalogID, len(categories))
	return index, nil
}

// BuildCategoryIndexes 为租户所有站点引用的目录构建类目索引。
// 任一目录失败都视为致命：缺了索引就无法做类目映射。
func BuildCategoryIndexes(ctx context.Context, api CategoryLister, tenant *models.Tenant, pageSize int) (CategoryIndexes, error) {
	indexes := make(CategoryIndexes)
	for _, catalogID := range tenant.UniqueCatalogIDs() {
		index, err := BuildCategoryIndex(ctx, api, catalogID, pageSize)
		if err != nil {
			return nil, WrapFatal(err, fmt.Sprintf("构建目录 %d 的类目索引失败", catalogID))
		}
		indexes[catalogID] = index
	}
	return indexes, nil
}

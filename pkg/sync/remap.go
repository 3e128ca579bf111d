package sync

import (
	"kibo-catalog-sync/pkg/models"

	"github.com/samber/lo"
)

// translateRef 把源目录内的类目ID翻译为目标目录内的ID：
// 源 id -> categoryCode -> 目标 id。任一步查不到即不可翻译。
func translateRef(srcIndex, dstIndex *CategoryIndex, categoryID int) (int, bool) {
	if srcIndex == nil || dstIndex == nil {
		return 0, false
	}
	srcCategory, ok := srcIndex.ByID[categoryID]
	if !ok {
		return 0, false
	}
	dstCategory, ok := dstIndex.ByCode[srcCategory.CategoryCode]
	if !ok {
		return 0, false
	}
	return dstCategory.ID, true
}

// MapCategoryRefs 把 source 的类目引用翻译到 destination 的ID空间并就地更新。
// source 与 destination 为同一条记录时不做任何事。
//
// 目标侧的替换是不对称的：仅当翻译结果数量不同、或包含目标现有集合之外的ID时
// 才整体替换——目标目录允许保有源之外的本目录专属类目，但真实漂移必须纠正。
func MapCategoryRefs(indexes CategoryIndexes, source, destination *models.ProductInCatalog) {
	if source == nil || destination == nil || source == destination {
		return
	}

	// 源数据自净：主类目不在类目集合中时先丢弃，避免把脏引用翻译过去
	if source.PrimaryProductCategory != nil && !source.HasCategory(source.PrimaryProductCategory.CategoryID) {
		source.PrimaryProductCategory = nil
	}

	srcIndex := indexes[source.CatalogID]
	dstIndex := indexes[destination.CatalogID]

	mapped := make([]models.CategoryRef, 0, len(source.ProductCategories))
	for _, ref := range source.ProductCategories {
		if id, ok := translateRef(srcIndex, dstIndex, ref.CategoryID); ok {
			mapped = append(mapped, models.CategoryRef{CategoryID: id})
		}
		// 目标目录中不存在对应编码的类目：不可翻译，静默丢弃
	}

	if len(mapped) != len(destination.ProductCategories) {
		destination.ProductCategories = mapped
	} else {
		drifted := lo.SomeBy(mapped, func(mref models.CategoryRef) bool {
			return !destination.HasCategory(mref.CategoryID)
		})
		if drifted {
			destination.ProductCategories = mapped
		}
	}

	// 空集合不落盘，字段缺失才是"无类目"的规范形态
	if len(destination.ProductCategories) == 0 {
		destination.ProductCategories = nil
	}

	// 主类目同样走 id -> code -> id 翻译；翻译失败则目标侧不保留主类目
	var primaryID int
	var primaryOK bool
	if source.PrimaryProductCategory != nil {
		primaryID, primaryOK = translateRef(srcIndex, dstIndex, source.PrimaryProductCategory.CategoryID)
	}
	if primaryOK {
		destination.PrimaryProductCategory = &models.CategoryRef{CategoryID: primaryID}
		if !destination.HasCategory(primaryID) {
			destination.ProductCategories = append(destination.ProductCategories, models.CategoryRef{CategoryID: primaryID})
		}
	} else {
		destination.PrimaryProductCategory = nil
	}
}

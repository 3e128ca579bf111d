package models

import (
	"encoding/json"

	"github.com/samber/lo"
)

// Product 商品。productCode 在租户内唯一；productSequence 由远端分配、
// 单调递增，商品更新时不变，用作游标分页的续传键。
type Product struct {
	ProductCode       string              `json:"productCode"`
	ProductSequence   int64               `json:"productSequence,omitempty"`
	ProductTypeID     int                 `json:"productTypeId,omitempty"`
	MasterCatalogID   int                 `json:"masterCatalogId,omitempty"`
	ProductInCatalogs []*ProductInCatalog `json:"productInCatalogs,omitempty"` // 各目录下的商品表示
}

// ProductInCatalog 商品在单个目录下的表示，按 catalogId 区分
type ProductInCatalog struct {
	CatalogID              int             `json:"catalogId"`
	IsActive               *bool           `json:"isActive,omitempty"`
	Content                *ProductContent `json:"content,omitempty"`
	Price                  *ProductPrice   `json:"price,omitempty"`
	PrimaryProductCategory *CategoryRef    `json:"primaryProductCategory,omitempty"`
	// 类目集合，逻辑上无序；为空时整个字段不落盘（缺失即"无类目"）
	ProductCategories []CategoryRef `json:"productCategories,omitempty"`
}

// ProductContent 商品内容（名称、图片等）
type ProductContent struct {
	ProductName      string         `json:"productName,omitempty"`
	ProductShortDesc string         `json:"productShortDescription,omitempty"`
	Seo              *ProductSeo    `json:"seoContent,omitempty"`
	ProductImages    []ProductImage `json:"productImages,omitempty"`
}

// ProductSeo SEO 内容
type ProductSeo struct {
	MetaTagTitle       string `json:"metaTagTitle,omitempty"`
	MetaTagDescription string `json:"metaTagDescription,omitempty"`
}

// ProductImage 商品图片
type ProductImage struct {
	ImageURL string `json:"imageUrl,omitempty"`
	CmsID    string `json:"cmsId,omitempty"`
	AltText  string `json:"altText,omitempty"`
	Sequence int    `json:"sequence,omitempty"`
}

// ProductPrice 商品价格
type ProductPrice struct {
	Price           float64 `json:"price"`
	SalePrice       float64 `json:"salePrice,omitempty"`
	IsoCurrencyCode string  `json:"isoCurrencyCode,omitempty"`
}

// InCatalog 按 catalogId 查找目录内表示，找不到返回 nil
func (p *Product) InCatalog(catalogID int) *ProductInCatalog {
	pic, _ := lo.Find(p.ProductInCatalogs, func(pic *ProductInCatalog) bool {
		return pic.CatalogID == catalogID
	})
	return pic
}

// Clone 结构化深拷贝（经 JSON 往返），用于变更比较前的快照
func (p *Product) Clone() *Product {
	data, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	clone := new(Product)
	if err := json.Unmarshal(data, clone); err != nil {
		return nil
	}
	return clone
}

// Clone 目录内表示的深拷贝，用于合成缺失的目标目录记录
func (pic *ProductInCatalog) Clone() *ProductInCatalog {
	data, err := json.Marshal(pic)
	if err != nil {
		return nil
	}
	clone := new(ProductInCatalog)
	if err := json.Unmarshal(data, clone); err != nil {
		return nil
	}
	return clone
}

// HasCategory 类目集合中是否包含指定ID
func (pic *ProductInCatalog) HasCategory(categoryID int) bool {
	return lo.ContainsBy(pic.ProductCategories, func(ref CategoryRef) bool {
		return ref.CategoryID == categoryID
	})
}

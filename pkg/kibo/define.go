package kibo

import (
	"fmt"

	"kibo-catalog-sync/pkg/models"
)

// CategoryCollection 类目分页结果
type CategoryCollection struct {
	StartIndex int                `json:"startIndex"`
	PageSize   int                `json:"pageSize"`
	PageCount  int                `json:"pageCount"`
	TotalCount int                `json:"totalCount"`
	Items      []*models.Category `json:"items"`
}

// ProductCollection 商品分页结果
type ProductCollection struct {
	StartIndex int               `json:"startIndex"`
	PageSize   int               `json:"pageSize"`
	PageCount  int               `json:"pageCount"`
	TotalCount int               `json:"totalCount"`
	Items      []*models.Product `json:"items"`
}

// Facet 搜索分面（只建模同步需要的字段，其余字段原样透传）
type Facet struct {
	FacetID         int         `json:"facetId,omitempty"`
	CatalogID       int         `json:"catalogId,omitempty"`
	CategoryID      int         `json:"categoryId,omitempty"`
	CategoryCode    string      `json:"categoryCode,omitempty"`
	OverrideFacetID int         `json:"overrideFacetId,omitempty"`
	FacetType       string      `json:"facetType,omitempty"`
	Source          FacetSource `json:"source"`
}

// FacetSource 分面的取值来源
type FacetSource struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type,omitempty"`
}

// FacetCollection 分面列表结果
type FacetCollection struct {
	TotalCount int      `json:"totalCount"`
	Items      []*Facet `json:"items"`
}

// Document 通用文档集合（搜索跳转、陈列规则、搜索设置、实体等透传记录）
type Document = map[string]interface{}

// DocumentCollection 透传记录的分页结果
type DocumentCollection struct {
	StartIndex int        `json:"startIndex"`
	PageSize   int        `json:"pageSize"`
	TotalCount int        `json:"totalCount"`
	Items      []Document `json:"items"`
}

// SiteScope 站点级请求范围（写入 x-vol-catalog / x-vol-site 头）
type SiteScope struct {
	CatalogID int
	SiteID    int
}

// StatusError 远端返回的非成功状态
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("远端返回状态 %d", e.Status)
	}
	return fmt.Sprintf("远端返回状态 %d: %s", e.Status, e.Message)
}

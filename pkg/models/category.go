package models

// Category 目录下的类目。id 为目录内自增ID（跨目录不稳定），
// categoryCode 为人工维护的编码（约定跨目录一致），作为跨目录的关联键。
type Category struct {
	ID                 int              `json:"id,omitempty"`
	CategoryCode       string           `json:"categoryCode"`
	ParentCategoryID   int              `json:"parentCategoryId,omitempty"`
	ParentCategoryCode string           `json:"parentCategoryCode,omitempty"`
	IsDisplayed        *bool            `json:"isDisplayed,omitempty"`
	Content            *CategoryContent `json:"content,omitempty"`
}

// CategoryContent 类目展示内容
type CategoryContent struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Slug        string `json:"slug,omitempty"`
}

// CategoryRef 商品上的类目引用（只带目录内ID）
type CategoryRef struct {
	CategoryID int `json:"categoryId"`
}

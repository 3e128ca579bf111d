package models

import "github.com/samber/lo"

// Tenant 租户信息（/platform/tenants/{id} 返回结构的子集）
type Tenant struct {
	ID             int              `json:"id"`
	Name           string           `json:"name,omitempty"`
	Domain         string           `json:"domain,omitempty"`
	Sites          []*Site          `json:"sites,omitempty"`          // 站点列表
	MasterCatalogs []*MasterCatalog `json:"masterCatalogs,omitempty"` // 主目录列表
}

// Site 站点，绑定一个目录
type Site struct {
	ID        int    `json:"id"`
	Name      string `json:"name,omitempty"`
	CatalogID int    `json:"catalogId"`
}

// MasterCatalog 主目录，下挂若干目录变体
type MasterCatalog struct {
	ID       int        `json:"id"`
	Name     string     `json:"name,omitempty"`
	Catalogs []*Catalog `json:"catalogs,omitempty"`
}

// Catalog 目录（具体的商品集合/价格表变体）
type Catalog struct {
	ID                  int    `json:"id"`
	Name                string `json:"name,omitempty"`
	DefaultCurrencyCode string `json:"defaultCurrencyCode,omitempty"` // 默认货币
}

// UniqueCatalogIDs 取租户所有站点引用的目录ID（去重，保持出现顺序）
func (t *Tenant) UniqueCatalogIDs() []int {
	ids := lo.Map(t.Sites, func(site *Site, _ int) int { return site.CatalogID })
	return lo.Uniq(ids)
}

// CatalogMap 构建 目录ID -> 目录 的映射（跨所有主目录）
func (t *Tenant) CatalogMap() map[int]*Catalog {
	catalogMap := make(map[int]*Catalog)
	for _, mc := range t.MasterCatalogs {
		for _, c := range mc.Catalogs {
			catalogMap[c.ID] = c
		}
	}
	return catalogMap
}

// SiteByID 按ID查找站点，找不到返回 nil
func (t *Tenant) SiteByID(siteID int) *Site {
	site, _ := lo.Find(t.Sites, func(s *Site) bool { return s.ID == siteID })
	return site
}

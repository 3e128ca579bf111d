package kibo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"kibo-catalog-sync/pkg/models"

	"github.com/pkg/errors"
)

const (
	headerCatalog       = "x-vol-catalog"
	headerMasterCatalog = "x-vol-master-catalog"
	headerSite          = "x-vol-site"
)

// generalSettingRoutes 站点级通用设置的路由表
var generalSettingRoutes = map[string]string{
	"general":  "/commerce/settings/general",
	"shipping": "/commerce/settings/shipping",
	"checkout": "/commerce/settings/checkout",
	"return":   "/commerce/settings/return",
}

// GeneralSettingNames 支持同步的设置名列表
func GeneralSettingNames() []string {
	names := make([]string, 0, len(generalSettingRoutes))
	for name := range generalSettingRoutes {
		names = append(names, name)
	}
	return names
}

type authTicket struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	expiresAt   time.Time
}

// Client 远端平台的 HTTP 客户端。token 过期前复用，过期自动换取；
// 租户信息按ID缓存（一次运行内只读）。
type Client struct {
	cfg  *Config
	http *http.Client

	mu      sync.Mutex
	ticket  *authTicket
	tenants map[string]*models.Tenant
}

func NewClient(cfg *Config) *Client {
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: 60 * time.Second},
		tenants: make(map[string]*models.Tenant),
	}
}

// RefreshAuth 确保持有有效 token，必要时重新换取。
// 大目录的长时间运行中每翻一页调用一次，避免中途过期。
func (c *Client) RefreshAuth(ctx context.Context) error {
	_, err := c.token(ctx)
	return err
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ticket != nil && time.Now().Before(c.ticket.expiresAt) {
		return c.ticket.AccessToken, nil
	}

	body, _ := json.Marshal(map[string]string{
		"client_id":     c.cfg.ClientID,
		"client_secret": c.cfg.ClientSecret,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.APIRoot+"/platform/applications/authtickets/oauth", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "构建认证请求失败")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "换取认证票据失败")
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &StatusError{Status: resp.StatusCode, Message: string(msg)}
	}

	ticket := new(authTicket)
	if err := json.NewDecoder(resp.Body).Decode(ticket); err != nil {
		return "", errors.Wrap(err, "解析认证票据失败")
	}
	ticket.expiresAt = time.Now().Add(time.Duration(ticket.ExpiresIn) * time.Second)
	c.ticket = ticket
	return ticket.AccessToken, nil
}

// requestScope 单次请求的范围头。零值表示不带对应头。
type requestScope struct {
	catalogID       int
	masterCatalogID int
	siteID          int
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, scope requestScope, body, out interface{}) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	endpoint := c.cfg.APIRoot + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "序列化请求体失败 [%s]", path)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return errors.Wrapf(err, "构建请求失败 [%s]", path)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if scope.catalogID > 0 {
		req.Header.Set(headerCatalog, strconv.Itoa(scope.catalogID))
	}
	if scope.masterCatalogID > 0 {
		req.Header.Set(headerMasterCatalog, strconv.Itoa(scope.masterCatalogID))
	}
	if scope.siteID > 0 {
		req.Header.Set(headerSite, strconv.Itoa(scope.siteID))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "请求失败 [%s %s]", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Status: resp.StatusCode, Message: string(msg)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "解析响应失败 [%s %s]", method, path)
	}
	return nil
}

// GetTenant 获取租户信息，一次运行内按ID缓存
func (c *Client) GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error) {
	c.mu.Lock()
	if tenant, ok := c.tenants[tenantID]; ok {
		c.mu.Unlock()
		return tenant, nil
	}
	c.mu.Unlock()

	tenant := new(models.Tenant)
	if err := c.do(ctx, http.MethodGet, "/platform/tenants/"+tenantID, nil, requestScope{}, nil, tenant); err != nil {
		return nil, errors.Wrapf(err, "获取租户 %s 失败", tenantID)
	}

	c.mu.Lock()
	c.tenants[tenantID] = tenant
	c.mu.Unlock()
	return tenant, nil
}

// ListCategories 按偏移量分页获取目录下的类目
func (c *Client) ListCategories(ctx context.Context, catalogID, startIndex, pageSize int) (*CategoryCollection, error) {
	query := url.Values{}
	query.Set("startIndex", strconv.Itoa(startIndex))
	query.Set("pageSize", strconv.Itoa(pageSize))
	out := new(CategoryCollection)
	if err := c.do(ctx, http.MethodGet, "/commerce/catalog/admin/categories", query,
		requestScope{catalogID: catalogID}, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCategory 在目录下新建类目
func (c *Client) CreateCategory(ctx context.Context, catalogID int, category *models.Category) (*models.Category, error) {
	out := new(models.Category)
	if err := c.do(ctx, http.MethodPost, "/commerce/catalog/admin/categories/", nil,
		requestScope{catalogID: catalogID}, category, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveCategory 更新目录下的类目
func (c *Client) SaveCategory(ctx context.Context, catalogID int, category *models.Category) (*models.Category, error) {
	out := new(models.Category)
	path := fmt.Sprintf("/commerce/catalog/admin/categories/%d", category.ID)
	if err := c.do(ctx, http.MethodPut, path, nil, requestScope{catalogID: catalogID}, category, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteCategory 删除目录下的类目
func (c *Client) DeleteCategory(ctx context.Context, catalogID, categoryID int) error {
	path := fmt.Sprintf("/commerce/catalog/admin/categories/%d", categoryID)
	return c.do(ctx, http.MethodDelete, path, nil, requestScope{catalogID: catalogID}, nil, nil)
}

// ListProductsByOffset 按偏移量取商品页，按 productSequence 升序。
// 只用于首页；后续页应改用 ListProductsAfter 游标续传。
func (c *Client) ListProductsByOffset(ctx context.Context, startIndex, pageSize int) (*ProductCollection, error) {
	query := url.Values{}
	query.Set("startIndex", strconv.Itoa(startIndex))
	query.Set("pageSize", strconv.Itoa(pageSize))
	query.Set("sortby", "productSequence asc")
	return c.listProducts(ctx, query)
}

// ListProductsAfter 取 productSequence 大于 lastSequence 的下一页商品。
// 写入与读取交错时，游标分页不会因记录移动而漏读或重读。
func (c *Client) ListProductsAfter(ctx context.Context, lastSequence int64, pageSize int) (*ProductCollection, error) {
	query := url.Values{}
	query.Set("pageSize", strconv.Itoa(pageSize))
	query.Set("sortby", "productSequence asc")
	query.Set("filter", fmt.Sprintf("productSequence gt %d", lastSequence))
	return c.listProducts(ctx, query)
}

func (c *Client) listProducts(ctx context.Context, query url.Values) (*ProductCollection, error) {
	out := new(ProductCollection)
	if err := c.do(ctx, http.MethodGet, "/commerce/catalog/admin/products", query,
		requestScope{masterCatalogID: c.cfg.MasterCatalog}, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveProduct 回写商品（整体 PUT，按 productCode 定位）
func (c *Client) SaveProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	out := new(models.Product)
	path := "/commerce/catalog/admin/products/" + url.PathEscape(product.ProductCode)
	if err := c.do(ctx, http.MethodPut, path, nil,
		requestScope{masterCatalogID: c.cfg.MasterCatalog}, product, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSetting 读取站点级通用设置
func (c *Client) GetSetting(ctx context.Context, scope SiteScope, name string) (Document, error) {
	route, ok := generalSettingRoutes[name]
	if !ok {
		return nil, errors.Errorf("未知的设置名: %s", name)
	}
	out := Document{}
	if err := c.do(ctx, http.MethodGet, route, nil,
		requestScope{catalogID: scope.CatalogID, siteID: scope.SiteID}, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveSetting 写入站点级通用设置
func (c *Client) SaveSetting(ctx context.Context, scope SiteScope, name string, setting Document) error {
	route, ok := generalSettingRoutes[name]
	if !ok {
		return errors.Errorf("未知的设置名: %s", name)
	}
	return c.do(ctx, http.MethodPut, route, nil,
		requestScope{catalogID: scope.CatalogID, siteID: scope.SiteID}, setting, nil)
}

// ListFacets 获取站点下的搜索分面
func (c *Client) ListFacets(ctx context.Context, scope SiteScope) (*FacetCollection, error) {
	query := url.Values{}
	query.Set("pagesize", "200")
	out := new(FacetCollection)
	if err := c.do(ctx, http.MethodGet, "/commerce/catalog/admin/facets", query,
		requestScope{catalogID: scope.CatalogID, siteID: scope.SiteID}, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveFacet 保存分面：有 facetId 则 PUT，否则 POST 新建
func (c *Client) SaveFacet(ctx context.Context, scope SiteScope, facet *Facet) error {
	reqScope := requestScope{catalogID: scope.CatalogID, siteID: scope.SiteID}
	if facet.FacetID > 0 {
		path := fmt.Sprintf("/commerce/catalog/admin/facets/%d", facet.FacetID)
		return c.do(ctx, http.MethodPut, path, nil, reqScope, facet, nil)
	}
	return c.do(ctx, http.MethodPost, "/commerce/catalog/admin/facets", nil, reqScope, facet, nil)
}

// ListSearchRedirects 获取站点下的搜索跳转规则
func (c *Client) ListSearchRedirects(ctx context.Context, scope SiteScope) (*DocumentCollection, error) {
	query := url.Values{}
	query.Set("pagesize", "200")
	out := new(DocumentCollection)
	if err := c.do(ctx, http.MethodGet, "/commerce/catalog/admin/search/redirect", query,
		requestScope{catalogID: scope.CatalogID, siteID: scope.SiteID}, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveSearchRedirect 保存跳转规则：先按ID PUT，失败则 POST 新建
func (c *Client) SaveSearchRedirect(ctx context.Context, scope SiteScope, item Document) error {
	reqScope := requestScope{catalogID: scope.CatalogID, siteID: scope.SiteID}
	if id, ok := item["redirectId"]; ok {
		path := fmt.Sprintf("/commerce/catalog/admin/search/redirect/%v", id)
		if err := c.do(ctx, http.MethodPut, path, nil, reqScope, item, nil); err == nil {
			return nil
		}
	}
	return c.do(ctx, http.MethodPost, "/commerce/catalog/admin/search/redirect", nil, reqScope, item, nil)
}

// ListMerchRules 获取站点下的搜索陈列规则
func (c *Client) ListMerchRules(ctx context.Context, scope SiteScope) (*DocumentCollection, error) {
	query := url.Values{}
	query.Set("pagesize", "200")
	out := new(DocumentCollection)
	if err := c.do(ctx, http.MethodGet, "/commerce/catalog/admin/searchmerchandizingrules", query,
		requestScope{catalogID: scope.CatalogID, siteID: scope.SiteID}, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveMerchRule 保存陈列规则：先按 code PUT，失败则 POST 新建
func (c *Client) SaveMerchRule(ctx context.Context, scope SiteScope, rule Document) error {
	reqScope := requestScope{catalogID: scope.CatalogID, siteID: scope.SiteID}
	if code, ok := rule["code"]; ok {
		path := fmt.Sprintf("/commerce/catalog/admin/searchmerchandizingrules/%v", code)
		if err := c.do(ctx, http.MethodPut, path, nil, reqScope, rule, nil); err == nil {
			return nil
		}
	}
	return c.do(ctx, http.MethodPost, "/commerce/catalog/admin/searchmerchandizingrules", nil, reqScope, rule, nil)
}

// GetSearchSettings 获取站点下的搜索设置列表
func (c *Client) GetSearchSettings(ctx context.Context, scope SiteScope) (*DocumentCollection, error) {
	out := new(DocumentCollection)
	if err := c.do(ctx, http.MethodGet, "/commerce/catalog/admin/search/settings", nil,
		requestScope{catalogID: scope.CatalogID, siteID: scope.SiteID}, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveSearchSetting 保存搜索设置：先按名称 PUT，失败则 POST 新建
func (c *Client) SaveSearchSetting(ctx context.Context, scope SiteScope, name string, setting Document) error {
	reqScope := requestScope{catalogID: scope.CatalogID, siteID: scope.SiteID}
	if name != "" {
		path := "/commerce/catalog/admin/search/settings/" + url.PathEscape(name)
		if err := c.do(ctx, http.MethodPut, path, nil, reqScope, setting, nil); err == nil {
			return nil
		}
	}
	return c.do(ctx, http.MethodPost, "/commerce/catalog/admin/search/settings", nil, reqScope, setting, nil)
}

// ListEntityLists 获取平台实体列表定义
func (c *Client) ListEntityLists(ctx context.Context) (*DocumentCollection, error) {
	query := url.Values{}
	query.Set("pagesize", "200")
	out := new(DocumentCollection)
	if err := c.do(ctx, http.MethodGet, "/platform/entitylists", query, requestScope{}, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEntities 获取实体列表下的实体
func (c *Client) ListEntities(ctx context.Context, scope SiteScope, listFQN string, startIndex int) (*DocumentCollection, error) {
	query := url.Values{}
	query.Set("pagesize", "200")
	query.Set("startIndex", strconv.Itoa(startIndex))
	out := new(DocumentCollection)
	path := "/platform/entitylists/" + url.PathEscape(listFQN) + "/entities"
	if err := c.do(ctx, http.MethodGet, path, query,
		requestScope{catalogID: scope.CatalogID, siteID: scope.SiteID}, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveEntity 保存实体：先按ID PUT，失败则 POST 新建
func (c *Client) SaveEntity(ctx context.Context, scope SiteScope, listFQN string, entity Document) error {
	reqScope := requestScope{catalogID: scope.CatalogID, siteID: scope.SiteID}
	base := "/platform/entitylists/" + url.PathEscape(listFQN) + "/entities"
	if id, ok := entity["id"]; ok {
		if err := c.do(ctx, http.MethodPut, fmt.Sprintf("%s/%v", base, id), nil, reqScope, entity, nil); err == nil {
			return nil
		}
	}
	return c.do(ctx, http.MethodPost, base, nil, reqScope, entity, nil)
}

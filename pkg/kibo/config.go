package kibo

import (
	"regexp"

	"github.com/pkg/errors"
)

var (
	apiRootPattern      = regexp.MustCompile(`^https?://.+/api$`)
	tenantIDPattern     = regexp.MustCompile(`^https://t(\d+)`)
	clientSecretPattern = regexp.MustCompile(`^[a-f0-9]{32}$`)
)

// Config 远端平台接入配置
type Config struct {
	APIRoot       string `json:"apiRoot" yaml:"apiRoot"`             // 形如 https://t12345.sandbox.mozu.com/api
	ClientID      string `json:"clientId" yaml:"clientId"`           // 应用ID
	ClientSecret  string `json:"clientSecret" yaml:"clientSecret"`   // 应用密钥（32位hex）
	MasterCatalog int    `json:"masterCatalog" yaml:"masterCatalog"` // 主目录ID，商品接口的请求范围
}

func NewDefaultConfig() *Config {
	return &Config{}
}

func (c *Config) Validate() []error {
	var errs = make([]error, 0)
	if c.APIRoot == "" {
		errs = append(errs, errors.New("缺少 apiRoot 配置"))
	} else if !apiRootPattern.MatchString(c.APIRoot) {
		errs = append(errs, errors.Errorf("apiRoot 不是合法的 API 地址: %s", c.APIRoot))
	}
	if c.ClientID == "" {
		errs = append(errs, errors.New("缺少 clientId 配置"))
	}
	if c.ClientSecret == "" {
		errs = append(errs, errors.New("缺少 clientSecret 配置"))
	} else if !clientSecretPattern.MatchString(c.ClientSecret) {
		errs = append(errs, errors.New("clientSecret 不是合法的应用密钥"))
	}
	if c.MasterCatalog <= 0 {
		errs = append(errs, errors.New("缺少 masterCatalog 配置"))
	}
	return errs
}

// TenantID 从 apiRoot 中解析租户ID（https://t{N}... 中的 N）
func (c *Config) TenantID() (string, error) {
	m := tenantIDPattern.FindStringSubmatch(c.APIRoot)
	if len(m) < 2 {
		return "", errors.Errorf("无法从 apiRoot 解析租户ID: %s", c.APIRoot)
	}
	return m[1], nil
}

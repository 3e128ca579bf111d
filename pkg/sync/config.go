package sync

import (
	"os"
	"path/filepath"
	"strings"

	"kibo-catalog-sync/pkg/db"
	"kibo-catalog-sync/pkg/kibo"
	"kibo-catalog-sync/pkg/nsc"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	DefaultPageSize          = 200 // 远端分页固定页大小
	DefaultMaxInflightWrites = 4   // 主循环允许的最大在途写入数
)

type Config struct {
	Kibo         *kibo.Config `json:"kibo" yaml:"kibo"`                 // 远端平台接入
	PrimeCatalog int          `json:"primeCatalog" yaml:"primeCatalog"` // 权威目录ID
	CatalogPairs []Pair       `json:"catalogPairs" yaml:"catalogPairs"` // 目录传播边
	SitePairs    []Pair       `json:"sitePairs" yaml:"sitePairs"`       // 站点传播边

	PageSize          int `json:"pageSize,omitempty" yaml:"pageSize,omitempty"`
	MaxInflightWrites int `json:"maxInflightWrites,omitempty" yaml:"maxInflightWrites,omitempty"`

	Schedule   *ScheduleConfig   `json:"schedule,omitempty" yaml:"schedule,omitempty"`
	Nats       *nsc.NatsConfig   `json:"nats,omitempty" yaml:"nats,omitempty"`             // 可选：变更事件发布
	ReportDB   *db.Config        `json:"reportDB,omitempty" yaml:"reportDB,omitempty"`     // 可选：运行审计库
	Checkpoint *CheckpointConfig `json:"checkpoint,omitempty" yaml:"checkpoint,omitempty"` // 可选：断点存储
}

type ScheduleConfig struct {
	RunOnStart bool   `json:"runOnStart" yaml:"runOnStart"`
	Cron       string `json:"cron,omitempty" yaml:"cron,omitempty"`
}

type CheckpointConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Dir     string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Kibo:              kibo.NewDefaultConfig(),
		PageSize:          DefaultPageSize,
		MaxInflightWrites: DefaultMaxInflightWrites,
	}
}

func TryLoadFromDisk(configFilePath string) (*Config, error) {
	_, err := os.Stat(configFilePath)
	if err != nil {
		return nil, err
	}
	dir, file := filepath.Split(configFilePath)
	fileType := filepath.Ext(file)
	viper.Reset()
	viper.AddConfigPath(dir)
	viper.SetConfigName(strings.TrimSuffix(file, fileType))
	viper.SetConfigType(strings.TrimPrefix(fileType, "."))
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := viper.ReadInConfig(); err != nil {
		if errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, nil
		}
		return nil, err
	}
	cfg := NewDefaultConfig()
	if err := viper.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = strings.TrimPrefix(fileType, ".")
	}); err != nil {
		return nil, err
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.MaxInflightWrites <= 0 {
		cfg.MaxInflightWrites = DefaultMaxInflightWrites
	}
	return cfg, nil
}

// Validate 验证配置信息
func (c *Config) Validate() []error {
	var errs = make([]error, 0)
	if c.Kibo == nil {
		errs = append(errs, errors.New("缺少 kibo 配置"))
	} else if kiboErrs := c.Kibo.Validate(); len(kiboErrs) > 0 {
		errs = append(errs, kiboErrs...)
	}
	if c.PrimeCatalog <= 0 {
		errs = append(errs, errors.New("缺少 primeCatalog 配置"))
	}
	if len(c.CatalogPairs) == 0 {
		errs = append(errs, errors.New("缺少 catalogPairs 配置"))
	}
	for _, pair := range c.CatalogPairs {
		if pair.Source <= 0 || pair.Destination <= 0 {
			errs = append(errs, errors.Errorf("非法的目录对: %d -> %d", pair.Source, pair.Destination))
		}
	}
	if c.Nats != nil {
		if err := c.Nats.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.ReportDB != nil {
		if dbErrs := c.ReportDB.Validate(); len(dbErrs) > 0 {
			errs = append(errs, dbErrs...)
		}
	}
	return errs
}

package server

import (
	"os"
	"path/filepath"
	"strings"

	"kibo-catalog-sync/pkg/util"

	"github.com/spf13/viper"
)

type Config struct {
	ClientName string `json:"client_name" yaml:"client_name"`
	Port       int    `json:"port,omitempty" yaml:"port,omitempty"`
}

func (g *Config) Validate() []error {
	var errs = make([]error, 0)
	if err := util.IsValidPort(g.Port); err != nil {
		errs = append(errs, err)
	}
	return errs
}

func NewDefaultConfig() *Config {
	return &Config{
		ClientName: util.GetVersion().AppName,
		Port:       3000,
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
		return nil, err
	}
	cfg := NewDefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

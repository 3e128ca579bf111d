package cmd

import (
	stderrors "errors"

	"kibo-catalog-sync/pkg/sync"
	"kibo-catalog-sync/pkg/util"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   util.AppName,
		Short: "Kibo 目录同步工具",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableNoDescFlag:   true,
			DisableDescriptions: true,
			HiddenDefaultCmd:    true,
		},
		Version: util.GetVersion().Version,
	}
	cmd.AddCommand(
		NewSyncCommand(),
		NewCategorySyncCommand(),
		NewSiteSyncCommand(),
		NewServerCommand(),
		NewValidateCommand(),
		NewInitEnvCommand(),
	)
	return cmd
}

// loadConfig 读取并验证配置文件
func loadConfig(configFilePath string) (*sync.Config, error) {
	cfg, err := sync.TryLoadFromDisk(configFilePath)
	if err != nil {
		return nil, errors.Errorf("读取本地配置文件错误:%s", err.Error())
	}
	if cfg == nil {
		return nil, errors.Errorf("配置文件 %s 不存在", configFilePath)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errors.Errorf("本地配置文件验证错误:%s", stderrors.Join(errs...))
	}
	return cfg, nil
}

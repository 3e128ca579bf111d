package cmd

import (
	"kibo-catalog-sync/pkg/kibo"
	"kibo-catalog-sync/pkg/signals"
	"kibo-catalog-sync/pkg/sync"
	"kibo-catalog-sync/pkg/util"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewCategorySyncCommand() *cobra.Command {
	var configFilePath string
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "类目结构同步",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableNoDescFlag:   true,
			DisableDescriptions: true,
			HiddenDefaultCmd:    true,
		},
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := loadConfig(configFilePath)
			if err != nil {
				zap.S().Errorf(err.Error())
				return
			}
			ctx := signals.SetupSignalHandler()
			client := kibo.NewClient(cfg.Kibo)
			service := sync.NewCategorySyncService(cfg, client)
			if err := service.Sync(ctx); err != nil {
				zap.S().Errorf(err.Error())
			}
		},
		Version: util.GetVersion().Version,
	}
	cmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", "./etc/config.yaml", "配置文件路径")
	return cmd
}

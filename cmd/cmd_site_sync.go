package cmd

import (
	"kibo-catalog-sync/pkg/kibo"
	"kibo-catalog-sync/pkg/signals"
	"kibo-catalog-sync/pkg/sync"
	"kibo-catalog-sync/pkg/util"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewSiteSyncCommand() *cobra.Command {
	var configFilePath string
	var kinds []string
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "站点级配置同步（设置、分面、搜索跳转、陈列规则、搜索设置、实体）",
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
			if len(cfg.SitePairs) == 0 {
				zap.S().Error("缺少 sitePairs 配置")
				return
			}
			ctx := signals.SetupSignalHandler()
			client := kibo.NewClient(cfg.Kibo)
			service := sync.NewSiteSyncService(cfg, client)
			if err := service.Sync(ctx, kinds...); err != nil {
				zap.S().Errorf(err.Error())
			}
		},
		Version: util.GetVersion().Version,
	}
	cmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", "./etc/config.yaml", "配置文件路径")
	cmd.Flags().StringSliceVar(&kinds, "kinds", nil, "只执行指定的子任务（settings/facets/redirects/merchrules/searchsettings/entities）")
	return cmd
}

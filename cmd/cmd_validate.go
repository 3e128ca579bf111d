package cmd

import (
	"context"
	"time"

	"kibo-catalog-sync/pkg/kibo"
	"kibo-catalog-sync/pkg/util"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewValidateCommand() *cobra.Command {
	var configFilePath string
	var offline bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "验证配置文件和账号设置",
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
			zap.S().Info("配置文件验证通过")
			if offline {
				return
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			client := kibo.NewClient(cfg.Kibo)
			if err := client.RefreshAuth(ctx); err != nil {
				zap.S().Errorf("平台认证失败: %v", err)
				return
			}
			zap.S().Info("平台认证通过")

			tenantID, err := cfg.Kibo.TenantID()
			if err != nil {
				zap.S().Errorf("解析租户ID失败: %v", err)
				return
			}
			tenant, err := client.GetTenant(ctx, tenantID)
			if err != nil {
				zap.S().Errorf("读取租户 %s 失败: %v", tenantID, err)
				return
			}
			zap.S().Infof("租户 %s (%d) 可访问，站点 %d 个", tenant.Name, tenant.ID, len(tenant.Sites))

			if len(tenant.MasterCatalogs) == 0 {
				zap.S().Error("租户没有任何主目录")
				return
			}

			catalogMap := tenant.CatalogMap()
			if _, ok := catalogMap[cfg.PrimeCatalog]; !ok {
				zap.S().Errorf("权威目录 %d 在租户中不存在", cfg.PrimeCatalog)
				return
			}
			for _, pair := range cfg.CatalogPairs {
				if _, ok := catalogMap[pair.Source]; !ok {
					zap.S().Errorf("目录对源 %d 在租户中不存在", pair.Source)
					return
				}
				if _, ok := catalogMap[pair.Destination]; !ok {
					zap.S().Errorf("目录对目标 %d 在租户中不存在", pair.Destination)
					return
				}
			}
			for _, pair := range cfg.SitePairs {
				if tenant.SiteByID(pair.Source) == nil {
					zap.S().Errorf("站点对源 %d 在租户中不存在", pair.Source)
					return
				}
				if tenant.SiteByID(pair.Destination) == nil {
					zap.S().Errorf("站点对目标 %d 在租户中不存在", pair.Destination)
					return
				}
			}
			zap.S().Info("账号设置验证通过")
		},
		Version: util.GetVersion().Version,
	}
	cmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", "./etc/config.yaml", "配置文件路径")
	cmd.Flags().BoolVar(&offline, "offline", false, "只做本地验证，不访问远端")
	return cmd
}

package cmd

import (
	"os"
	"path/filepath"

	"kibo-catalog-sync/pkg/util"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const configTemplate = `# kibo-catalog-sync 配置模板
kibo:
  apiRoot: "https://t00000.sandbox.mozu.com/api"
  clientId: ""
  clientSecret: ""
  masterCatalog: 1

# 权威目录（商品内容和类目引用的基准）
primeCatalog: 1

# 目录传播边：源目录 -> 目标目录
catalogPairs:
  - source: 1
    destination: 2

# 站点传播边：源站点 -> 目标站点（sites 命令用）
sitePairs: []

pageSize: 200
maxInflightWrites: 4

# 调度（可选）：runOnStart 启动即跑一次；cron 为空时默认每天12点
#schedule:
#  runOnStart: true
#  cron: "0 0 12 * * *"

# 断点存储（可选）
#checkpoint:
#  enabled: true
#  dir: ./etc/data

# 同步事件发布（可选）
#nats:
#  endpoint: nats://127.0.0.1:4222
#  defaultAccountName: default
#  account:
#    default:
#      nkey: ""
#      seed: ""

# 运行审计库（可选）
#reportDB:
#  driver: mysql
#  host: 127.0.0.1
#  port: 3306
#  username: ""
#  password: ""
#  database: catalog_sync
`

func NewInitEnvCommand() *cobra.Command {
	var configFilePath string
	cmd := &cobra.Command{
		Use:   "init-env",
		Short: "生成配置文件模板",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableNoDescFlag:   true,
			DisableDescriptions: true,
			HiddenDefaultCmd:    true,
		},
		Run: func(cmd *cobra.Command, args []string) {
			if _, err := os.Stat(configFilePath); err == nil {
				zap.S().Errorf("配置文件 %s 已存在，不覆盖", configFilePath)
				return
			}
			if err := os.MkdirAll(filepath.Dir(configFilePath), 0o755); err != nil {
				zap.S().Errorf("创建配置目录失败: %v", err)
				return
			}
			if err := os.WriteFile(configFilePath, []byte(configTemplate), 0o644); err != nil {
				zap.S().Errorf("写入配置模板失败: %v", err)
				return
			}
			zap.S().Infof("配置模板已生成: %s", configFilePath)
		},
		Version: util.GetVersion().Version,
	}
	cmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", "./etc/config.yaml", "配置文件路径")
	return cmd
}

package cmd

import (
	"context"

	"kibo-catalog-sync/pkg/db"
	"kibo-catalog-sync/pkg/kibo"
	"kibo-catalog-sync/pkg/nsc"
	"kibo-catalog-sync/pkg/report"
	"kibo-catalog-sync/pkg/signals"
	"kibo-catalog-sync/pkg/store"
	"kibo-catalog-sync/pkg/sync"
	"kibo-catalog-sync/pkg/util"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewSyncCommand() *cobra.Command {
	var configFilePath string
	var resume bool
	var once bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "商品传播同步",
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
			if err := runProductSync(cfg, resume, once); err != nil {
				zap.S().Errorf(err.Error())
			}
		},
		Version: util.GetVersion().Version,
	}
	cmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", "./etc/config.yaml", "配置文件路径")
	cmd.Flags().BoolVar(&resume, "resume", false, "从上次断点继续")
	cmd.Flags().BoolVar(&once, "once", false, "只执行一次后退出（忽略调度配置）")
	return cmd
}

func runProductSync(cfg *sync.Config, resume, once bool) error {
	zap.S().Infof("***  %s %s ***", util.AppName, util.GetVersion().Version)
	ctx := signals.SetupSignalHandler()

	client := kibo.NewClient(cfg.Kibo)
	service := sync.NewProductSyncService(cfg, client)

	// 事件发布（可选）
	if cfg.Nats != nil {
		if err := nsc.InitNats(util.AppName, cfg.Nats); err != nil {
			return errors.Errorf("初始化NATS失败:%s", err.Error())
		}
		defer nsc.GetNatsClient().Close()
		service.UsePublisher(nsc.GetNatsClient())
	}

	// 运行审计库（可选）
	if cfg.ReportDB != nil {
		if err := db.InitDB(cfg.ReportDB); err != nil {
			return errors.Errorf("初始化审计库失败:%s", err.Error())
		}
		recorder, err := report.NewGormRecorder(db.GetDB())
		if err != nil {
			return errors.Errorf("初始化审计记录失败:%s", err.Error())
		}
		service.UseRecorder(recorder)
	}

	// 断点存储（可选）
	if cfg.Checkpoint != nil && cfg.Checkpoint.Enabled {
		if err := store.InitStore(cfg.Checkpoint.Dir); err != nil {
			return errors.Errorf("初始化断点存储失败:%s", err.Error())
		}
		defer store.CloseStore()
		service.UseCheckpoints(store.GetStore(), resume)
	}

	// 没有调度配置或指定了 --once 时执行一次即退出
	if once || cfg.Schedule == nil {
		return service.Sync(ctx)
	}
	return runScheduled(ctx, cfg, service)
}

func runScheduled(ctx context.Context, cfg *sync.Config, service *sync.ProductSyncService) error {
	if cfg.Schedule.RunOnStart {
		zap.S().Info("启动时立即执行一次同步...")
		if err := service.Sync(ctx); err != nil {
			zap.S().Errorf("启动时同步失败: %v", err)
		}
	}

	if cfg.Schedule.Cron != "" {
		zap.S().Infof("使用 cron 表达式启动定时同步: %s", cfg.Schedule.Cron)
		if err := service.StartCronSync(ctx); err != nil {
			return errors.Errorf("启动 cron 定时同步失败:%s", err.Error())
		}
	} else {
		zap.S().Info("启动每日定时同步（每天12点执行）")
		if err := service.StartDailySync(ctx); err != nil {
			return errors.Errorf("启动每日定时同步失败:%s", err.Error())
		}
	}

	zap.S().Info("同步服务已启动，等待退出信号...")
	<-ctx.Done()
	zap.S().Info("接收到退出信号，正在关闭同步服务...")
	return nil
}

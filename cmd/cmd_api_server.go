package cmd

import (
	"context"

	"kibo-catalog-sync/pkg/db"
	"kibo-catalog-sync/pkg/kibo"
	"kibo-catalog-sync/pkg/nsc"
	"kibo-catalog-sync/pkg/report"
	"kibo-catalog-sync/pkg/server"
	"kibo-catalog-sync/pkg/signals"
	"kibo-catalog-sync/pkg/store"
	"kibo-catalog-sync/pkg/sync"
	"kibo-catalog-sync/pkg/util"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func NewServerCommand() *cobra.Command {
	var configFilePath string
	cmd := &cobra.Command{
		Use:   "server",
		Short: "启动api服务",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := loadConfig(configFilePath)
			if err != nil {
				zap.S().Errorf(err.Error())
				return
			}
			serverCfg, err := server.TryLoadFromDisk(configFilePath)
			if err != nil {
				zap.S().Errorf("配置文件加载错误:%s", err.Error())
				return
			}
			if errs := serverCfg.Validate(); len(errs) > 0 {
				for _, e := range errs {
					zap.S().Error(e)
				}
				return
			}
			ctx := signals.SetupSignalHandler()
			_ = startServer(ctx, cfg, serverCfg)
		},
		Version: util.GetVersion().Version,
	}
	cmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", "./etc/config.yaml", "配置文件路径")
	return cmd
}

func startServer(ctx context.Context, cfg *sync.Config, serverCfg *server.Config) error {
	zap.S().Infof("***  %s %s ***", util.AppName, util.GetVersion().Version)

	client := kibo.NewClient(cfg.Kibo)
	products := sync.NewProductSyncService(cfg, client)
	categories := sync.NewCategorySyncService(cfg, client)
	sites := sync.NewSiteSyncService(cfg, client)

	// 事件发布（可选）
	if cfg.Nats != nil {
		if err := nsc.InitNats(serverCfg.ClientName, cfg.Nats); err != nil {
			zap.S().Fatal(err)
		}
		defer nsc.GetNatsClient().Close()
		products.UsePublisher(nsc.GetNatsClient())
	}

	// 运行审计库（可选）
	var recorder *report.GormRecorder
	if cfg.ReportDB != nil {
		if err := db.InitDB(cfg.ReportDB); err != nil {
			zap.S().Fatalf("无法连接审计库。%s", err.Error())
		}
		var err error
		recorder, err = report.NewGormRecorder(db.GetDB())
		if err != nil {
			zap.S().Fatalf("初始化审计记录失败。%s", err.Error())
		}
		products.UseRecorder(recorder)
	}

	// 断点存储（可选）
	if cfg.Checkpoint != nil && cfg.Checkpoint.Enabled {
		if err := store.InitStore(cfg.Checkpoint.Dir); err != nil {
			zap.S().Fatalf("初始化断点存储失败。%s", err.Error())
		}
		products.UseCheckpoints(store.GetStore(), true)
	}

	handler := server.NewHandler(products, categories, sites, recorder)
	webServer := server.NewServer(serverCfg, handler)

	// 配置了调度时在服务内启动定时同步
	if cfg.Schedule != nil {
		if cfg.Schedule.Cron != "" {
			if err := products.StartCronSync(ctx); err != nil {
				zap.S().Fatalf("启动 cron 定时同步失败。%s", err.Error())
			}
		} else {
			if err := products.StartDailySync(ctx); err != nil {
				zap.S().Fatalf("启动每日定时同步失败。%s", err.Error())
			}
		}
	}

	g, c := errgroup.WithContext(ctx)
	g.Go(func() error {
		return webServer.Run()
	})
	g.Go(func() error {
		<-c.Done()
		store.CloseStore()
		_ = webServer.GracefulShutdown(c)
		return c.Err()
	})
	return g.Wait()
}

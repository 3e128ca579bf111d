package signals

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

var onlyOneSignalHandler = make(chan struct{})

// SetupSignalHandler 注册 SIGINT/SIGTERM 信号，返回可取消的 context。
// 收到第二次信号时直接退出进程。
func SetupSignalHandler() context.Context {
	close(onlyOneSignalHandler) // 保证只调用一次

	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		zap.S().Info("接收到退出信号，正在停止...")
		cancel()
		<-c
		os.Exit(1)
	}()

	return ctx
}

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"shadow-mm/infrastructure/logger"
	"shadow-mm/internal/container"
	"shadow-mm/server"
)

func main() {
	cfgPath := flag.String("config", "", "配置文件路径，留空使用内置默认值")
	envPath := flag.String("env", "", ".env 文件路径，留空读取当前目录 .env")
	addr := flag.String("addr", "", "监听地址，覆盖配置中的 server.addr")
	watch := flag.Bool("watch", true, "配置文件变化时热加载")
	flag.Parse()

	if *envPath != "" {
		_ = godotenv.Load(*envPath)
	} else {
		_ = godotenv.Load()
	}

	c, err := container.New(*cfgPath)
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}
	defer c.Close()
	lg := c.Logger()

	listen := c.Config().Server.Addr
	if *addr != "" {
		listen = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *watch && *cfgPath != "" {
		go func() {
			if err := c.WatchConfig(ctx, *cfgPath); err != nil && ctx.Err() == nil {
				lg.Error("config watcher stopped", zap.Error(err))
			}
		}()
	}

	srv := server.New(c.Engine(), c.Monitor().Handler(), lg)
	notify(lg, daemon.SdNotifyReady)
	if err := srv.Start(ctx, listen); err != nil {
		lg.Error("server failed", zap.Error(err))
	}
	notify(lg, daemon.SdNotifyStopping)
}

// notify 在 systemd 下报告状态，非 systemd 环境为空操作
func notify(lg *logger.Logger, state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		lg.Debug("sd_notify failed", zap.String("state", state), zap.Error(err))
		return
	}
	if sent {
		lg.Debug("sd_notify sent", zap.String("state", state))
	}
}

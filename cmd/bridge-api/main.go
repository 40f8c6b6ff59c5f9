package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yuqie6/SkillBridge/internal/bootstrap"
	"github.com/yuqie6/SkillBridge/internal/httpapi"
	"github.com/yuqie6/SkillBridge/internal/pkg/config"
)

func main() {
	cfgPath := flag.String("config", "", "config file path")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	core, err := bootstrap.NewCore(ctx, *cfgPath)
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer core.Close()

	if core.DB.SafeMode {
		slog.Warn("running in safe mode", "migration_error", core.DB.MigrationError)
	}
	if core.Cfg.App.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	// only the log level is applied live; everything else needs a restart
	config.Watch(core.Viper, func(next *config.Config) {
		config.SetLogLevel(next.App.LogLevel)
	})

	srv, err := httpapi.Start(ctx, core, httpapi.Options{ListenAddr: core.Cfg.Server.ListenAddr})
	if err != nil {
		slog.Error("http api failed to start", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http api shutdown failed", "error", err)
	}
}

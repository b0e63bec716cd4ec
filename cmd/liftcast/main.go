package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"bridgelift"
	"bridgelift/config"
	"bridgelift/logger"

	"github.com/pkg/profile"
	"go.uber.org/zap"
)

var (
	configPath  = flag.String("config", "", "path to configuration file")
	outPath     = flag.String("out", "", "report html path, overrides output.html_path")
	serve       = flag.Bool("serve", false, "serve the report over http instead of exiting")
	profileMode = flag.Bool("profile", false, "write a cpu profile for the run")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *outPath != "" {
		cfg.Output.HTMLPath = *outPath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	if *profileMode {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipeline, err := bridgelift.NewPipeline(cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to build pipeline", zap.Error(err))
	}
	defer pipeline.Close()

	res, err := pipeline.Run(ctx)
	if err != nil {
		zlog.Fatal("pipeline run failed", zap.Error(err))
	}

	if cfg.Output.HTMLPath != "" {
		if err := res.RenderHTML(cfg.Output.HTMLPath); err != nil {
			zlog.Fatal("failed to write report", zap.Error(err))
		}
		zlog.Info("report written", zap.String("path", cfg.Output.HTMLPath))
	}

	if *serve {
		srv := &http.Server{
			Addr:    cfg.Output.ListenAddr,
			Handler: res.Handler(zlog),
		}
		go func() {
			<-ctx.Done()
			srv.Close()
		}()
		zlog.Info("serving report", zap.String("addr", cfg.Output.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("report server failed", zap.Error(err))
		}
	}
}

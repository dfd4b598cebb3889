package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"Go2GateSpectra/internal/config"
	"Go2GateSpectra/internal/engine/manager"
	"Go2GateSpectra/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML or TOML config file")
	flag.Parse()

	// 1. Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Configuration loaded successfully", logger.String("path", *configPath))

	// 2. Initialize modules
	managerImpl, err := manager.NewManager(cfg, log)
	if err != nil {
		log.Error("Failed to create manager", logger.Error(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	// 3. Run the pipeline once
	rep, err := managerImpl.Run(ctx)
	stop()
	managerImpl.Stop()
	if err != nil {
		log.Error("Analysis failed", logger.Error(err))
		log.Sync()
		os.Exit(1)
	}
	log.Info("Analysis complete", logger.String("run_id", rep.RunID), logger.Int("figures", rep.FigureCount()))
}

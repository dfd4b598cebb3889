package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Go2GateSpectra/internal/api"
	"Go2GateSpectra/internal/config"
	"Go2GateSpectra/internal/query"
	"Go2GateSpectra/pkg/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML or TOML config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	querier, err := query.New(cfg.API.Source, cfg.API.SQLite, cfg.API.ClickHouse)
	if err != nil {
		log.Fatal("Failed to create querier", logger.String("source", cfg.API.Source), logger.Error(err))
	}
	defer querier.Close()

	service := api.NewService(querier, log)

	// Run gRPC server
	grpcServer := grpc.NewServer()
	api.RegisterReportServiceServer(grpcServer, service)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", cfg.API.GrpcListenAddr)
	if err != nil {
		log.Fatal("Failed to listen", logger.String("addr", cfg.API.GrpcListenAddr), logger.Error(err))
	}
	go func() {
		log.Info("gRPC API server starting", logger.String("addr", cfg.API.GrpcListenAddr))
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal("Failed to serve gRPC", logger.Error(err))
		}
	}()

	// Run HTTP server for the JSON API and Grafana
	httpServer := &http.Server{
		Addr: cfg.API.HttpListenAddr,
		Handler: api.NewHTTPHandler(service, api.HTTPOptions{
			RatePerSecond: cfg.API.RatePerSecond,
			Burst:         cfg.API.Burst,
		}),
	}
	go func() {
		log.Info("HTTP server starting", logger.String("addr", cfg.API.HttpListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", logger.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Servers shutting down...")

	healthServer.Shutdown()
	grpcServer.GracefulStop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Warn("HTTP server forced to shutdown", logger.Error(err))
	}
	log.Info("All servers exited.")
}

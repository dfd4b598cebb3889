package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"Go2GateSpectra/internal/config"
	"Go2GateSpectra/internal/probe"
	"Go2GateSpectra/pkg/logger"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

func main() {
	url := flag.String("url", "nats://127.0.0.1:4222", "NATS server URL")
	subject := flag.String("subject", "gatespectra.reports", "subject run summaries are published on")
	flag.Parse()

	log, err := logger.New(logger.Config{Level: "info", Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	sub, err := probe.NewSubscriber(config.NATSConfig{URL: *url, Subject: *subject}, log)
	if err != nil {
		log.Fatal("Failed to connect to NATS", logger.Error(err))
	}
	defer sub.Close()

	err = sub.Start(func(summary *structpb.Struct) {
		fields := summary.GetFields()
		log.Info("Run summary received",
			logger.String("run_id", fields["run_id"].GetStringValue()),
			logger.String("generated_at", fields["generated_at"].GetStringValue()))
		fmt.Println(protojson.MarshalOptions{Multiline: true, Indent: "  "}.Format(summary))
	})
	if err != nil {
		log.Fatal("Failed to subscribe", logger.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down watcher...")
}

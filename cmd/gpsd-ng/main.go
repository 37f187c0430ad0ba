package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gpsd-ng/internal/config"
)

func main() {
	var configPath string
	var summaryPath string
	flag.StringVar(&configPath, "config", "./gpsd-ng.yaml", "Path to YAML config")
	flag.StringVar(&summaryPath, "summarize", "", "Print a summary of a capture file and exit")
	flag.Parse()

	if summaryPath != "" {
		if err := printCaptureSummary(os.Stdout, summaryPath); err != nil {
			log.Fatalf("capture summary failed: %v", err)
		}
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := log.New(os.Stderr, "gpsd-ng: ", log.LstdFlags|log.Lmicroseconds)
	logger.Printf("starting")
	if err := run(ctx, cfg, logger, os.Stdout); err != nil && ctx.Err() == nil {
		logger.Fatalf("stopped: %v", err)
	}
	logger.Printf("stopping")
}

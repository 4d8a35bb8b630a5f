package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"shortform-pipeline/config"
	"shortform-pipeline/notify"
	"shortform-pipeline/scheduler"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("Failed to load config: %v", err)
		}
		log.Printf("[scheduler] %s not found, using defaults", *configPath)
		cfg = config.Default()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(cfg, notify.NewFromEnv())
	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Scheduler stopped: %v", err)
	}
}

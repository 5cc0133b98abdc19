package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jengzang/records-hexbin/internal/api"
	"github.com/jengzang/records-hexbin/internal/config"
)

func main() {
	path := os.Getenv("HEXBIN_CONFIG")
	if path == "" {
		path = "config.yml"
	}
	flag.StringVar(&path, "config", path, "config file path")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := api.Run(ctx, cfg); err != nil {
		log.Fatal("Server error:", err)
	}
}

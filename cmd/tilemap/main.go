package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	embedded "tilemap/assets"
	"tilemap/internal/app"
	"tilemap/internal/assets"
	"tilemap/internal/config"
	"tilemap/internal/log"
	"tilemap/internal/scene"
)

func main() {
	configFile := flag.String("config", "tilemap.json", "Path to config file (json, yaml or toml)")
	flag.Parse()

	fmt.Println("Tilemap - WebGPU")
	fmt.Println("Controls:")
	fmt.Println("  Escape : Exit")
	fmt.Println()

	if err := run(*configFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	if err := log.Setup(log.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	}); err != nil {
		return fmt.Errorf("log setup failed: %w", err)
	}

	loader, err := assets.NewLoader(embedded.FS, cfg.Atlas.CacheDir)
	if err != nil {
		return err
	}
	defer loader.Close()

	s, err := scene.Load(context.Background(), loader, cfg)
	if err != nil {
		return err
	}

	application, err := app.New(cfg, s)
	if err != nil {
		return err
	}
	defer application.Cleanup()

	return application.Run()
}

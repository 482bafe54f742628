package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/nightvsknight/phraims/internal/app"
	"github.com/nightvsknight/phraims/internal/config"
)

func defaultConfigPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "phraims", "config.toml")
}

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to config file")
	address := flag.String("url", "", "open this address in a new frame")
	incognito := flag.Bool("incognito", false, "start an ephemeral window")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		cfg = &config.DefaultConfig
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	if *address != "" || *incognito {
		a.Dispatch(func() {
			if _, err := a.CreateAndShowWindow(*address, "", *incognito); err != nil {
				log.Printf("Failed to open window: %v", err)
			}
		})
	}

	if err := a.Run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/docfold/docfold"
	"github.com/docfold/docfold/events"
	"github.com/docfold/docfold/http"

	"gopkg.in/yaml.v3"
)

type config struct {
	// Addr is the listen address of the JSON server.
	Addr string `yaml:"addr"`
	// Permissive disables mongo compatible update validation.
	Permissive bool `yaml:"permissive"`
	// LogEvents logs every collection event to stderr.
	LogEvents bool `yaml:"logEvents"`
}

func loadConfig(path string) (config, error) {
	cfg := config{Addr: ":8080"}
	if path == "" {
		return cfg, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(content, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

func main() {
	configPath := flag.String("config", "", "path to a yaml config file")
	addr := flag.String("addr", "", "listen address, overrides the config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	db := docfold.New(docfold.Options{
		Permissive: cfg.Permissive,
		Warn: func(msg string) {
			log.Printf("warning: %s", msg)
		},
	})
	if cfg.LogEvents {
		db.Bus().Subscribe(events.Wildcard, func(ctx context.Context, e events.Event) error {
			log.Printf("%s: %s", e.Collection, e.Name)
			return nil
		})
	}

	log.Printf("listening on %s", cfg.Addr)
	log.Fatal(http.ListenAndServe(db, cfg.Addr))
}

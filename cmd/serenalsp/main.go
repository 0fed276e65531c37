// Command serenalsp is a minimal example driver that exercises the serena
// library end-to-end: load a JSON config naming one language and launch
// command, start a Client, print its full symbol tree, and shut down.
// Mirrors the teacher's own main.go config-loading shape (flag +
// encoding/json), trimmed to what proves the Sync Facade is independently
// usable without the MCP tool front-end.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/thanhtunguet/serena"
	"github.com/thanhtunguet/serena/internal/profile"
	"github.com/thanhtunguet/serena/internal/symbols"
)

// fileConfig is the on-disk shape read via -config.
type fileConfig struct {
	RootPath     string   `json:"rootPath"`
	Language     string   `json:"language"`
	LaunchCommand []string `json:"launchCommand"`
	IgnoredPaths []string `json:"ignoredPaths"`
}

func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func main() {
	configPath := flag.String("config", "", "path to a JSON config naming rootPath/language/launchCommand")
	flag.Parse()

	if *configPath == "" {
		log.Fatal("serenalsp: -config is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("serenalsp: %v", err)
	}

	prof, ok := profile.BuiltinTable().Get(cfg.Language)
	if !ok {
		log.Fatalf("serenalsp: unknown language %q", cfg.Language)
	}
	prof.LaunchCommand = cfg.LaunchCommand

	client, err := serena.New(serena.Config{
		RootPath:     cfg.RootPath,
		Profile:      prof,
		IgnoredPaths: cfg.IgnoredPaths,
	})
	if err != nil {
		log.Fatalf("serenalsp: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := client.Start(ctx); err != nil {
		log.Fatalf("serenalsp: start: %v", err)
	}
	defer func() {
		if err := client.Stop(10 * time.Second); err != nil {
			log.Printf("serenalsp: stop: %v", err)
		}
	}()

	tree, err := client.RequestFullSymbolTree(ctx)
	if err != nil {
		log.Fatalf("serenalsp: full symbol tree: %v", err)
	}

	printTree(tree, 0)
}

func printTree(nodes []*symbols.Node, depth int) {
	for _, n := range nodes {
		fmt.Printf("%*s%s\n", depth*2, "", n.Name)
		printTree(n.Children, depth+1)
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/codesketch/codesketch/internal/config"
	"github.com/codesketch/codesketch/internal/engine"
	"github.com/codesketch/codesketch/internal/extract"
	"github.com/codesketch/codesketch/internal/extract/jsextract"
	"github.com/codesketch/codesketch/internal/extract/pyextract"
	"github.com/codesketch/codesketch/internal/extract/tsextract"
	"github.com/codesketch/codesketch/internal/plugins"
	"github.com/codesketch/codesketch/internal/plugins/complexity"
	"github.com/codesketch/codesketch/internal/server"
)

func main() {
	// Ensure log output goes to stderr, never stdout (MCP uses stdout for JSON-RPC)
	log.SetOutput(os.Stderr)

	ctx := context.Background()

	// Check for --analyze flag
	analyzeMode := false
	cfgPath := "codesketch.yaml"
	for _, arg := range os.Args[1:] {
		if arg == "--analyze" {
			analyzeMode = true
		} else {
			cfgPath = arg
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		// If config file doesn't exist, use defaults
		fmt.Fprintf(os.Stderr, "warning: %v, using defaults\n", err)
		cfg = config.Default()
	}

	// Register extractors. TypeScript comes after JavaScript so it takes
	// over the .ts and .tsx extensions that both claim.
	extractors := extract.NewRegistry()
	if cfg.IsExtractorEnabled("python") {
		extractors.Register(pyextract.Factory)
	}
	if cfg.IsExtractorEnabled("javascript") {
		extractors.Register(jsextract.Factory)
	}
	if cfg.IsExtractorEnabled("typescript") {
		extractors.Register(tsextract.Factory)
	}

	// Register plugins
	pluginReg := plugins.NewRegistry()
	pluginReg.Register(complexity.Factory)

	eng, err := engine.New(cfg, extractors, pluginReg)
	if err != nil {
		log.Fatalf("failed to create engine: %v", err)
	}

	// One-shot analysis mode
	if analyzeMode {
		repoPath, err := filepath.Abs(cfg.Repo)
		if err != nil {
			log.Fatalf("failed to resolve repo path: %v", err)
		}

		batch, err := eng.Run(ctx, repoPath)
		if err != nil {
			log.Fatalf("batch run failed: %v", err)
		}

		if err := eng.WriteArtifacts(repoPath); err != nil {
			log.Fatalf("failed to write artifacts: %v", err)
		}

		fmt.Fprintf(os.Stderr, "\nBatch complete:\n")
		fmt.Fprintf(os.Stderr, "  Repository:  %s\n", batch.Meta.RepoPath)
		fmt.Fprintf(os.Stderr, "  Files:       %d\n", batch.Meta.FileCount)
		fmt.Fprintf(os.Stderr, "  Documents:   %d\n", batch.Meta.DocumentCount)
		fmt.Fprintf(os.Stderr, "  Errors:      %d\n", batch.Meta.ErrorCount)
		fmt.Fprintf(os.Stderr, "  Duration:    %s\n", batch.Meta.Duration)
		fmt.Fprintf(os.Stderr, "  Output:      %s\n", filepath.Join(repoPath, cfg.Output.Dir))
		os.Exit(0)
	}

	// Auto-load the previous document projection if one exists (so queries
	// work immediately without requiring an analyze_repo call first).
	if repoPath, err := filepath.Abs(cfg.Repo); err == nil {
		docsPath := filepath.Join(repoPath, cfg.Output.Dir, "documents.jsonl")
		if _, err := os.Stat(docsPath); err == nil {
			log.Printf("[main] loading existing documents from %s", docsPath)
			if err := eng.Store().ReadJSONLFile(docsPath); err != nil {
				log.Printf("[main] warning: failed to load existing documents: %v", err)
			} else {
				log.Printf("[main] loaded %d documents from previous run", eng.Store().DocumentCount())
			}
		}
	}

	// MCP server mode (default)
	srv, err := server.New(eng, cfg, extractors, pluginReg)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

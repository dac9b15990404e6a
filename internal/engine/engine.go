// Package engine orchestrates directory-wide extraction and analysis:
// walk -> resolve extractor -> parse -> analyze -> project -> artifacts.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"

	"github.com/codesketch/codesketch/internal/config"
	"github.com/codesketch/codesketch/internal/extract"
	"github.com/codesketch/codesketch/internal/model"
	"github.com/codesketch/codesketch/internal/plugins"
)

// Engine runs the analysis pipeline over a repository.
type Engine struct {
	cfg        *config.Config
	extractors *extract.Registry
	plugins    *plugins.Registry
	store      *model.Store
	batch      *Batch
	ignore     []compiledPattern
	prevHashes map[string]string // file -> sha256 hash from previous run
}

// compiledPattern holds both the pattern string and compiled glob.
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// New creates an Engine wired to the given registries. Both registries
// must be populated by the caller at bootstrap (no auto-registration).
func New(cfg *config.Config, extractors *extract.Registry, pluginReg *plugins.Registry) (*Engine, error) {
	e := &Engine{
		cfg:        cfg,
		extractors: extractors,
		plugins:    pluginReg,
		store:      model.NewStore(),
	}

	for _, pattern := range cfg.Ignore {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("compiling ignore pattern %q: %w", pattern, err)
		}
		e.ignore = append(e.ignore, compiledPattern{pattern: pattern, glob: g})
	}

	return e, nil
}

// Store returns the result store.
func (e *Engine) Store() *model.Store {
	return e.store
}

// Batch returns the last batch result, or nil.
func (e *Engine) Batch() *Batch {
	return e.batch
}

// Config returns the engine config.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Run executes the full pipeline over repoPath. A failure to read or
// decode one file is recorded on that file's result and never aborts the
// batch; only walk-level failures are returned as errors.
func (e *Engine) Run(ctx context.Context, repoPath string) (*Batch, error) {
	start := time.Now()

	if repoPath == "" {
		repoPath = e.cfg.Repo
	}
	absRepo, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("resolving repo path: %w", err)
	}

	e.loadPreviousHashes(absRepo)
	e.store.Clear()

	files, skipped, err := e.walkRepo(absRepo)
	if err != nil {
		return nil, fmt.Errorf("walking repo: %w", err)
	}
	log.Printf("[engine] found %d supported files in %s (%d skipped)", len(files), absRepo, skipped)

	currentHashes, changed := e.filterChangedFiles(absRepo, files)

	// If nothing changed since the previous run, reload the cached
	// document projection instead of re-parsing.
	if len(e.prevHashes) > 0 && len(changed) == 0 {
		docsPath := filepath.Join(absRepo, e.cfg.Output.Dir, "documents.jsonl")
		if err := e.store.ReadJSONLFile(docsPath); err == nil {
			log.Printf("[engine] no changes detected, reloaded %d documents from cache", e.store.DocumentCount())
			e.batch = e.buildBatch(absRepo, nil, skipped, currentHashes, time.Since(start))
			return e.batch, nil
		}
	}

	results := e.processFiles(ctx, absRepo, files)

	for _, r := range results {
		if r.Model != nil {
			e.store.AddFile(r.Model)
		}
	}

	e.batch = e.buildBatch(absRepo, results, skipped, currentHashes, time.Since(start))
	log.Printf("[engine] parsed %d files, %d documents, %d errors in %s",
		e.batch.Meta.FileCount, e.batch.Meta.DocumentCount, e.batch.Meta.ErrorCount, e.batch.Meta.Duration)
	return e.batch, nil
}

// processFiles parses and analyzes files concurrently on a bounded worker
// pool. Results keep the walk order regardless of completion order.
func (e *Engine) processFiles(ctx context.Context, absRepo string, files []string) []FileResult {
	results := make([]FileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)

	for i, relFile := range files {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				results[i] = FileResult{Path: relFile, Err: ctx.Err().Error()}
				return nil
			default:
			}
			results[i] = e.processFile(absRepo, relFile)
			return nil
		})
	}

	// Workers never return errors; per-file failures land in results.
	_ = g.Wait()
	return results
}

// processFile parses one file and runs the enabled plugins for its
// language.
func (e *Engine) processFile(absRepo, relFile string) FileResult {
	result := FileResult{Path: relFile}

	ext, ok := e.extractors.ByExtension(relFile)
	if !ok {
		// walkRepo only passes supported files; a miss here means the
		// registry changed mid-run.
		result.Err = "no extractor for file"
		return result
	}

	sf, err := ext.Parse(filepath.Join(absRepo, relFile))
	if err != nil {
		log.Printf("[engine] error parsing %s: %v", relFile, err)
		result.Err = err.Error()
		return result
	}
	// Keep the repo-relative path in the model so artifacts are stable
	// across checkouts.
	sf.Path = relFile
	result.Language = sf.Language
	result.Model = sf

	for _, p := range e.plugins.ForLanguage(sf.Language) {
		if !e.cfg.IsPluginEnabled(p.ID()) {
			continue
		}
		report, err := p.Analyze(sf)
		if err != nil {
			log.Printf("[engine] plugin %s error on %s: %v", p.ID(), relFile, err)
			continue
		}
		if result.Reports == nil {
			result.Reports = make(map[string]*plugins.Report)
		}
		result.Reports[p.ID()] = report
	}

	return result
}

// walkRepo collects supported files under repoPath, applying ignore
// patterns and the extractor registry's extension map. Unsupported
// extensions are counted, not errored.
func (e *Engine) walkRepo(repoPath string) (files []string, skipped int, err error) {
	err = filepath.WalkDir(repoPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(repoPath, path)
		if err != nil {
			return err
		}

		if e.isIgnored(relPath) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		ext, ok := e.extractors.ByExtension(relPath)
		if !ok || !e.cfg.IsExtractorEnabled(ext.Language()) {
			skipped++
			return nil
		}

		files = append(files, relPath)
		return nil
	})
	return files, skipped, err
}

// isIgnored checks whether a path matches any ignore pattern. Patterns
// ending in "/**" also match the directory itself so the walk can prune.
func (e *Engine) isIgnored(relPath string) bool {
	relPath = filepath.ToSlash(relPath)

	for _, cp := range e.ignore {
		if cp.glob.Match(relPath) {
			return true
		}
		if strings.HasSuffix(cp.pattern, "/**") {
			prefix := strings.TrimSuffix(cp.pattern, "/**")
			if relPath == prefix {
				return true
			}
		}
	}
	return false
}

// loadPreviousHashes reads file hashes from the previous batch.meta.json.
func (e *Engine) loadPreviousHashes(repoPath string) {
	metaPath := filepath.Join(repoPath, e.cfg.Output.Dir, "batch.meta.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		e.prevHashes = nil
		return
	}

	var meta BatchMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		e.prevHashes = nil
		return
	}

	e.prevHashes = make(map[string]string, len(meta.FileHashes))
	for _, fh := range meta.FileHashes {
		e.prevHashes[fh.Path] = fh.Hash
	}
	log.Printf("[engine] loaded %d file hashes from previous batch", len(e.prevHashes))
}

// filterChangedFiles computes sha256 hashes for all files and returns the
// current hash map plus the files that changed since the previous run.
func (e *Engine) filterChangedFiles(repoPath string, files []string) (map[string]string, []string) {
	currentHashes := make(map[string]string, len(files))
	var changed []string

	for _, relFile := range files {
		data, err := os.ReadFile(filepath.Join(repoPath, relFile))
		if err != nil {
			// Can't hash, treat as changed
			changed = append(changed, relFile)
			continue
		}

		h := sha256.Sum256(data)
		hash := hex.EncodeToString(h[:])
		currentHashes[relFile] = hash

		if prevHash, ok := e.prevHashes[relFile]; !ok || prevHash != hash {
			changed = append(changed, relFile)
		}
	}

	return currentHashes, changed
}

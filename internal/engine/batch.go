package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/codesketch/codesketch/internal/model"
	"github.com/codesketch/codesketch/internal/plugins"
)

// Batch holds the complete result of one pipeline run.
type Batch struct {
	Meta  BatchMeta    `json:"meta"`
	Files []FileResult `json:"files"`
}

// FileResult is the per-file outcome: a structural model and plugin
// reports on success, or the error that stopped this file (and only this
// file).
type FileResult struct {
	Path     string                     `json:"path"`
	Language string                     `json:"language,omitempty"`
	Model    *model.SourceFile          `json:"model,omitempty"`
	Reports  map[string]*plugins.Report `json:"reports,omitempty"`
	Err      string                     `json:"error,omitempty"`
}

// BatchMeta contains metadata about a batch run.
type BatchMeta struct {
	RepoPath      string     `json:"repo_path"`
	GeneratedAt   string     `json:"generated_at"`
	Duration      string     `json:"duration"`
	Languages     []string   `json:"languages"`
	Plugins       []string   `json:"plugins"`
	FileCount     int        `json:"file_count"`
	DocumentCount int        `json:"document_count"`
	ErrorCount    int        `json:"error_count"`
	SkippedCount  int        `json:"skipped_count"`
	FileHashes    []FileHash `json:"file_hashes,omitempty"`
}

// FileHash tracks a file's content hash for incremental runs.
type FileHash struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
}

func (e *Engine) buildBatch(absRepo string, results []FileResult, skipped int, hashes map[string]string, duration time.Duration) *Batch {
	errorCount := 0
	langSet := make(map[string]bool)
	for _, r := range results {
		if r.Err != "" {
			errorCount++
		}
		if r.Language != "" {
			langSet[r.Language] = true
		}
	}
	languages := make([]string, 0, len(langSet))
	for l := range langSet {
		languages = append(languages, l)
	}
	sort.Strings(languages)

	fileHashes := make([]FileHash, 0, len(hashes))
	for path, hash := range hashes {
		fileHashes = append(fileHashes, FileHash{Path: path, Hash: hash})
	}
	sort.Slice(fileHashes, func(i, j int) bool { return fileHashes[i].Path < fileHashes[j].Path })

	return &Batch{
		Meta: BatchMeta{
			RepoPath:      absRepo,
			GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
			Duration:      duration.String(),
			Languages:     languages,
			Plugins:       e.cfg.Plugins,
			FileCount:     e.store.FileCount(),
			DocumentCount: e.store.DocumentCount(),
			ErrorCount:    errorCount,
			SkippedCount:  skipped,
			FileHashes:    fileHashes,
		},
		Files: results,
	}
}

// WriteArtifacts writes documents.jsonl, analysis.json, and
// batch.meta.json to the output directory under repoPath.
func (e *Engine) WriteArtifacts(repoPath string) error {
	if e.batch == nil {
		return fmt.Errorf("no batch generated")
	}

	outDir := filepath.Join(repoPath, e.cfg.Output.Dir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	docsPath := filepath.Join(outDir, "documents.jsonl")
	if err := e.store.WriteJSONLFile(docsPath); err != nil {
		return fmt.Errorf("writing documents.jsonl: %w", err)
	}
	log.Printf("[engine] wrote %s", docsPath)

	analysisJSON, err := json.MarshalIndent(e.batch.Files, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling analysis: %w", err)
	}
	analysisPath := filepath.Join(outDir, "analysis.json")
	if err := os.WriteFile(analysisPath, analysisJSON, 0o644); err != nil {
		return fmt.Errorf("writing analysis.json: %w", err)
	}
	log.Printf("[engine] wrote %s (%d bytes)", analysisPath, len(analysisJSON))

	metaJSON, err := json.MarshalIndent(e.batch.Meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling meta: %w", err)
	}
	metaPath := filepath.Join(outDir, "batch.meta.json")
	if err := os.WriteFile(metaPath, metaJSON, 0o644); err != nil {
		return fmt.Errorf("writing batch.meta.json: %w", err)
	}
	log.Printf("[engine] wrote %s (%d bytes)", metaPath, len(metaJSON))

	return nil
}

// GetArtifact returns the content of a named artifact from the last batch.
func (e *Engine) GetArtifact(name string) ([]byte, error) {
	if e.batch == nil {
		return nil, fmt.Errorf("no batch generated")
	}

	switch name {
	case "documents.jsonl":
		var buf bytes.Buffer
		if err := e.store.WriteJSONL(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "analysis.json":
		return json.MarshalIndent(e.batch.Files, "", "  ")
	case "batch.meta.json":
		return json.MarshalIndent(e.batch.Meta, "", "  ")
	default:
		return nil, fmt.Errorf("artifact %q not found", name)
	}
}

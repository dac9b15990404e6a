package engine

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/codesketch/codesketch/internal/config"
	"github.com/codesketch/codesketch/internal/extract"
	"github.com/codesketch/codesketch/internal/extract/jsextract"
	"github.com/codesketch/codesketch/internal/extract/pyextract"
	"github.com/codesketch/codesketch/internal/extract/tsextract"
	"github.com/codesketch/codesketch/internal/plugins"
	"github.com/codesketch/codesketch/internal/plugins/complexity"
)

// --- helpers ---

// setupRepo creates a temp directory populated with the given files.
func setupRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for relPath, content := range files {
		absPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(absPath, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newEngine(t *testing.T, cfg *config.Config) *Engine {
	t.Helper()

	extractors := extract.NewRegistry()
	extractors.Register(pyextract.Factory)
	extractors.Register(jsextract.Factory)
	extractors.Register(tsextract.Factory)

	pluginReg := plugins.NewRegistry()
	pluginReg.Register(complexity.Factory)

	eng, err := New(cfg, extractors, pluginReg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng
}

func findResult(batch *Batch, path string) (FileResult, bool) {
	for _, r := range batch.Files {
		if r.Path == path {
			return r, true
		}
	}
	return FileResult{}, false
}

// --- tests ---

func TestRun_BasicBatch(t *testing.T) {
	repo := setupRepo(t, map[string]string{
		"app.py":    "import os\n\ndef main():\n    pass\n",
		"lib.js":    "function helper() { return 1; }\n",
		"README.md": "# readme\n",
	})

	cfg := config.Default()
	cfg.Workers = 2
	eng := newEngine(t, cfg)

	batch, err := eng.Run(context.Background(), repo)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if batch.Meta.FileCount != 2 {
		t.Errorf("FileCount = %d, want 2", batch.Meta.FileCount)
	}
	if batch.Meta.SkippedCount != 1 {
		t.Errorf("SkippedCount = %d, want 1 (README.md)", batch.Meta.SkippedCount)
	}
	if batch.Meta.ErrorCount != 0 {
		t.Errorf("ErrorCount = %d, want 0", batch.Meta.ErrorCount)
	}
	if want := []string{"javascript", "python"}; !reflect.DeepEqual(batch.Meta.Languages, want) {
		t.Errorf("Languages = %v, want %v", batch.Meta.Languages, want)
	}

	r, ok := findResult(batch, "app.py")
	if !ok || r.Model == nil {
		t.Fatalf("expected a parsed result for app.py, got %+v", r)
	}
	if len(r.Model.Functions) != 1 || r.Model.Functions[0].Name != "main" {
		t.Errorf("app.py functions = %+v, want [main]", r.Model.Functions)
	}
	if _, ok := r.Reports["complexity_analyzer"]; !ok {
		t.Errorf("app.py reports = %v, want a complexity_analyzer report", r.Reports)
	}

	// The model keeps the repo-relative path.
	if r.Model.Path != "app.py" {
		t.Errorf("model path = %q, want app.py", r.Model.Path)
	}

	if eng.Store().DocumentCount() == 0 {
		t.Error("expected projected documents in the store")
	}
}

func TestRun_IgnorePatterns(t *testing.T) {
	repo := setupRepo(t, map[string]string{
		"app.py":                "x = 1\n",
		"node_modules/dep/a.js": "const a = 1;\n",
		"dist/bundle.js":        "const b = 2;\n",
		"src/util.min.js":       "const c = 3;\n",
	})

	cfg := config.Default()
	cfg.Workers = 1
	eng := newEngine(t, cfg)

	batch, err := eng.Run(context.Background(), repo)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if batch.Meta.FileCount != 1 {
		t.Errorf("FileCount = %d, want 1 (only app.py)", batch.Meta.FileCount)
	}
	if _, ok := findResult(batch, "node_modules/dep/a.js"); ok {
		t.Error("node_modules content should be pruned")
	}
}

func TestRun_BadFileDoesNotAbortBatch(t *testing.T) {
	repo := setupRepo(t, map[string]string{
		"good.py": "def f():\n    pass\n",
	})
	// Invalid UTF-8 content fails the decoder, not the batch.
	if err := os.WriteFile(filepath.Join(repo, "bad.py"), []byte{0xff, 0xfe}, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Workers = 1
	eng := newEngine(t, cfg)

	batch, err := eng.Run(context.Background(), repo)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if batch.Meta.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", batch.Meta.ErrorCount)
	}
	bad, ok := findResult(batch, "bad.py")
	if !ok || bad.Err == "" {
		t.Errorf("bad.py result = %+v, want a recorded error", bad)
	}
	good, ok := findResult(batch, "good.py")
	if !ok || good.Model == nil {
		t.Errorf("good.py result = %+v, want a parsed model", good)
	}
}

func TestRun_TypeScriptWinsTSExtension(t *testing.T) {
	repo := setupRepo(t, map[string]string{
		"app.ts": "interface I {\n  m(): void;\n}\n",
	})

	cfg := config.Default()
	cfg.Workers = 1
	eng := newEngine(t, cfg)

	batch, err := eng.Run(context.Background(), repo)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	r, ok := findResult(batch, "app.ts")
	if !ok || r.Model == nil {
		t.Fatalf("expected a parsed result for app.ts, got %+v", r)
	}
	if r.Language != "typescript" {
		t.Errorf("language = %q, want typescript (later registration wins .ts)", r.Language)
	}
	if len(r.Model.Classes) != 1 || !r.Model.Classes[0].IsInterface {
		t.Errorf("classes = %+v, want the interface marker set", r.Model.Classes)
	}
}

func TestWriteArtifacts(t *testing.T) {
	repo := setupRepo(t, map[string]string{
		"app.py": "def f():\n    pass\n",
	})

	cfg := config.Default()
	cfg.Workers = 1
	eng := newEngine(t, cfg)

	if err := eng.WriteArtifacts(repo); err == nil {
		t.Fatal("expected an error before any batch has run")
	}

	if _, err := eng.Run(context.Background(), repo); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := eng.WriteArtifacts(repo); err != nil {
		t.Fatalf("WriteArtifacts: %v", err)
	}

	outDir := filepath.Join(repo, cfg.Output.Dir)
	for _, name := range []string{"documents.jsonl", "analysis.json", "batch.meta.json"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
		content, err := eng.GetArtifact(name)
		if err != nil {
			t.Errorf("GetArtifact(%s): %v", name, err)
		} else if len(content) == 0 {
			t.Errorf("GetArtifact(%s) returned empty content", name)
		}
	}

	if _, err := eng.GetArtifact("nope.txt"); err == nil {
		t.Error("expected an error for an unknown artifact")
	}
}

func TestRun_UnchangedRepoUsesCache(t *testing.T) {
	repo := setupRepo(t, map[string]string{
		"app.py": "def f():\n    pass\n",
	})

	cfg := config.Default()
	cfg.Workers = 1
	eng := newEngine(t, cfg)

	first, err := eng.Run(context.Background(), repo)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := eng.WriteArtifacts(repo); err != nil {
		t.Fatalf("WriteArtifacts: %v", err)
	}

	// A fresh engine picks up the previous hashes from batch.meta.json
	// and reloads the cached projection instead of re-parsing.
	second := newEngine(t, cfg)
	batch, err := second.Run(context.Background(), repo)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if batch.Meta.DocumentCount != first.Meta.DocumentCount {
		t.Errorf("cached DocumentCount = %d, want %d", batch.Meta.DocumentCount, first.Meta.DocumentCount)
	}
	if len(batch.Files) != 0 {
		t.Errorf("cached run re-parsed %d files, want 0", len(batch.Files))
	}
}

func TestIsIgnored(t *testing.T) {
	cfg := config.Default()
	cfg.Workers = 1
	eng := newEngine(t, cfg)

	tests := []struct {
		path string
		want bool
	}{
		{"node_modules", true}, // directory itself, so the walk can prune
		{"node_modules/pkg/index.js", true},
		{"src/__pycache__/mod.pyc", true},
		{"src/app.min.js", true},
		{"src/app.py", false},
	}
	for _, tt := range tests {
		if got := eng.isIgnored(tt.path); got != tt.want {
			t.Errorf("isIgnored(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

// Package extract defines the extractor contract and the registry mapping
// file extensions and language names to language extractors.
package extract

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/codesketch/codesketch/internal/model"
)

// Extractor parses source files of one language into structural models.
// Implementations are heuristic pattern extractors, not validating front
// ends: Parse fails only on read or decode errors and otherwise degrades
// to partial results.
type Extractor interface {
	// Language returns the language identifier (e.g. "python").
	Language() string
	// Extensions returns the file extensions handled, without the dot.
	Extensions() []string
	// Parse reads the file and extracts its structural model.
	Parse(path string) (*model.SourceFile, error)
}

// Factory produces a fresh Extractor instance.
type Factory func() Extractor

// Registry maps file extensions and language names to extractor factories.
// It is populated once at bootstrap; the lock exists so that late
// registration never exposes a half-updated mapping to concurrent readers.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory // language -> factory
	byExt     map[string]string  // extension -> language
	order     []string           // languages in registration order
}

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		byExt:     make(map[string]string),
	}
}

// Register installs an extractor factory under its declared language and
// extensions. A later registration for the same language or extension
// overwrites the earlier one; this is the documented conflict policy, not
// an error.
func (r *Registry) Register(f Factory) {
	ext := f()
	lang := ext.Language()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[lang]; !exists {
		r.order = append(r.order, lang)
	}
	r.factories[lang] = f
	for _, e := range ext.Extensions() {
		r.byExt[normalizeExt(e)] = lang
	}
}

// ByExtension resolves an extractor for the given file path by its
// extension. Unknown extensions resolve to absence, never an error; the
// caller decides on a fallback.
func (r *Registry) ByExtension(path string) (Extractor, bool) {
	r.mu.RLock()
	lang, ok := r.byExt[normalizeExt(filepath.Ext(path))]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return r.ByLanguage(lang)
}

// ByLanguage resolves an extractor by language name.
func (r *Registry) ByLanguage(lang string) (Extractor, bool) {
	r.mu.RLock()
	f, ok := r.factories[lang]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return f(), true
}

// Languages returns all registered language names in registration order.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]string, len(r.order))
	copy(result, r.order)
	return result
}

// Extensions returns all registered extensions, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]string, 0, len(r.byExt))
	for e := range r.byExt {
		result = append(result, e)
	}
	sort.Strings(result)
	return result
}

func normalizeExt(e string) string {
	return strings.ToLower(strings.TrimPrefix(e, "."))
}

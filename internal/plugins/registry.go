// Package plugins defines the analysis plugin contract and the registry
// mapping plugin ids to plugin factories.
package plugins

import (
	"sync"

	"github.com/codesketch/codesketch/internal/model"
)

// Plugin computes a derived analysis report from a structural model. The
// model is read-only input; a plugin never mutates it.
type Plugin interface {
	// ID returns the unique plugin identifier (e.g. "complexity").
	ID() string
	// Name returns the human-readable plugin name.
	Name() string
	// Description returns a one-line description of what the plugin does.
	Description() string
	// Languages returns the languages this plugin supports.
	Languages() []string
	// Analyze computes the plugin's report for one parsed file.
	Analyze(sf *model.SourceFile) (*Report, error)
}

// Factory produces a fresh Plugin instance.
type Factory func() Plugin

// Report is the immutable result of one plugin invocation.
type Report struct {
	Metrics         Metrics  `json:"metrics"`
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Metrics holds file-wide scores plus per-symbol breakdowns.
type Metrics struct {
	Cyclomatic int               `json:"cyclomatic_complexity"`
	MaxNesting int               `json:"max_nesting_depth"`
	Cognitive  int               `json:"cognitive_complexity"`
	Functions  []FunctionMetrics `json:"function_metrics"`
	Classes    []ClassMetrics    `json:"class_metrics"`
}

// FunctionMetrics holds scores for one top-level function.
type FunctionMetrics struct {
	Name           string `json:"name"`
	Cyclomatic     int    `json:"cyclomatic_complexity"`
	Nesting        int    `json:"nesting_depth"`
	Cognitive      int    `json:"cognitive_complexity"`
	ParameterCount int    `json:"parameter_count"`
	IsComplex      bool   `json:"is_complex"`
}

// ClassMetrics holds aggregate method scores for one class.
type ClassMetrics struct {
	Name                    string   `json:"name"`
	MethodCount             int      `json:"method_count"`
	AverageMethodComplexity float64  `json:"average_method_complexity"`
	ComplexMethods          []string `json:"complex_methods,omitempty"`
}

// Info describes a registered plugin.
type Info struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Languages   []string `json:"supported_languages"`
}

// Registry maps plugin ids to plugin factories. Populated once at
// bootstrap; the lock guards late registration against concurrent readers.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	order     []string // plugin ids in registration order
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register installs a plugin factory under its declared id. A later
// registration for the same id overwrites the earlier one.
func (r *Registry) Register(f Factory) {
	id := f().ID()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[id]; !exists {
		r.order = append(r.order, id)
	}
	r.factories[id] = f
}

// Get resolves a plugin by id. Unknown ids resolve to absence, never an
// error.
func (r *Registry) Get(id string) (Plugin, bool) {
	r.mu.RLock()
	f, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return f(), true
}

// ForLanguage returns all plugins whose declared language set contains
// lang, in registration order.
func (r *Registry) ForLanguage(lang string) []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Plugin
	for _, id := range r.order {
		p := r.factories[id]()
		for _, l := range p.Languages() {
			if l == lang {
				result = append(result, p)
				break
			}
		}
	}
	return result
}

// List returns metadata for all registered plugins in registration order.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Info, 0, len(r.order))
	for _, id := range r.order {
		p := r.factories[id]()
		result = append(result, Info{
			ID:          p.ID(),
			Name:        p.Name(),
			Description: p.Description(),
			Languages:   p.Languages(),
		})
	}
	return result
}

// Unregister removes the plugin with the given id. Removing an unknown id
// is a no-op.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[id]; !ok {
		return
	}
	delete(r.factories, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

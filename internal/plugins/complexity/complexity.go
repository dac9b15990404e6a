// Package complexity implements the code complexity analysis plugin. All
// scores are heuristic token counts over raw text, not control-flow-graph
// analysis.
package complexity

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/codesketch/codesketch/internal/model"
	"github.com/codesketch/codesketch/internal/plugins"
)

// Analyzer scores structural models for cyclomatic, nesting, and
// cognitive complexity.
type Analyzer struct{}

// New creates a new complexity Analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Factory returns the registry factory for this plugin.
func Factory() plugins.Plugin {
	return New()
}

func (a *Analyzer) ID() string {
	return "complexity_analyzer"
}

func (a *Analyzer) Name() string {
	return "Code Complexity Analyzer"
}

func (a *Analyzer) Description() string {
	return "Analyzes code complexity metrics including cyclomatic complexity and nesting depth"
}

func (a *Analyzer) Languages() []string {
	return []string{model.LangPython, model.LangJavaScript, model.LangTypeScript}
}

// Complexity thresholds for flagging a symbol.
const (
	complexCyclomatic = 10
	complexNesting    = 3
	complexCognitive  = 15
	complexParams     = 4
)

var (
	decisionRe = regexp.MustCompile(`\b(if|while|for|and|or)\b|&&|\|\||\?|\bcatch\b`)
	controlRe  = regexp.MustCompile(`\b(if|else|while|for|switch|catch)\b`)
	logicalRe  = regexp.MustCompile(`&&|\|\|`)
	ternaryRe  = regexp.MustCompile(`\?[^\n?:]*:`)
)

// Analyze computes the analysis report for one parsed file.
func (a *Analyzer) Analyze(sf *model.SourceFile) (*plugins.Report, error) {
	metrics := plugins.Metrics{
		Cyclomatic: cyclomatic(sf.RawContent),
		MaxNesting: nestingDepth(sf.RawContent),
		Cognitive:  cognitive(sf.RawContent),
		Functions:  analyzeFunctions(sf),
		Classes:    analyzeClasses(sf),
	}

	return &plugins.Report{
		Metrics:         metrics,
		Summary:         summarize(metrics),
		Recommendations: recommend(metrics),
	}, nil
}

// cyclomatic counts decision points (if, while, for, and, or, &&, ||, ?,
// catch) plus one for the base path.
func cyclomatic(text string) int {
	return len(decisionRe.FindAllString(text, -1)) + 1
}

// nestingDepth tracks the maximum per-line indentation level, assuming
// four spaces per level. Tab- or brace-style-indented files will
// misreport; this is an indentation proxy, not a block-structure walk.
func nestingDepth(text string) int {
	max := 0
	for _, line := range strings.Split(text, "\n") {
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if depth := indent / 4; depth > max {
			max = depth
		}
	}
	return max
}

// cognitive weights control keywords at 2, logical operators at 1, and
// ternaries at 3. A ternary is a "?...:" occurrence whose colon is not
// immediately followed by an opening brace.
func cognitive(text string) int {
	score := 2 * len(controlRe.FindAllString(text, -1))
	score += len(logicalRe.FindAllString(text, -1))
	for _, m := range ternaryRe.FindAllStringIndex(text, -1) {
		if m[1] < len(text) && text[m[1]] == '{' {
			continue
		}
		score += 3
	}
	return score
}

// analyzeFunctions scores each top-level function over a body re-located
// by name search across the whole file. Functions whose body cannot be
// found are omitted; this is documented best-effort behavior.
func analyzeFunctions(sf *model.SourceFile) []plugins.FunctionMetrics {
	var result []plugins.FunctionMetrics

	for _, fn := range sf.Functions {
		body, ok := findFunctionBody(sf.RawContent, fn.Name)
		if !ok {
			continue
		}

		fm := plugins.FunctionMetrics{
			Name:           fn.Name,
			Cyclomatic:     cyclomatic(body),
			Nesting:        nestingDepth(body),
			Cognitive:      cognitive(body),
			ParameterCount: len(fn.Params),
		}
		fm.IsComplex = fm.Cyclomatic > complexCyclomatic ||
			fm.Nesting > complexNesting ||
			fm.Cognitive > complexCognitive ||
			fm.ParameterCount > complexParams
		result = append(result, fm)
	}

	return result
}

// analyzeClasses aggregates per-method cyclomatic scores for each class.
func analyzeClasses(sf *model.SourceFile) []plugins.ClassMetrics {
	var result []plugins.ClassMetrics

	for _, cls := range sf.Classes {
		cm := plugins.ClassMetrics{
			Name:        cls.Name,
			MethodCount: len(cls.Methods),
		}

		total := 0
		for _, m := range cls.Methods {
			body, ok := findMethodBody(sf.RawContent, m.Name)
			if !ok {
				continue
			}
			score := cyclomatic(body)
			total += score
			if score > complexCyclomatic {
				cm.ComplexMethods = append(cm.ComplexMethods, m.Name)
			}
		}

		if cm.MethodCount > 0 {
			cm.AverageMethodComplexity = float64(total) / float64(cm.MethodCount)
		}

		result = append(result, cm)
	}

	return result
}

// findFunctionBody re-locates a function body by an independent search for
// a brace-delimited block headed by "function NAME". The first match wins
// for duplicate names, and the body ends at the first closing brace.
func findFunctionBody(content, name string) (string, bool) {
	re := regexp.MustCompile(`(?s)function\s+` + regexp.QuoteMeta(name) + `.*?\{(.*?)\}`)
	m := re.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// findMethodBody re-locates a method body by name; the header pattern is
// looser than the function one since methods carry no keyword.
func findMethodBody(content, name string) (string, bool) {
	re := regexp.MustCompile(`(?s)` + regexp.QuoteMeta(name) + `.*?\{(.*?)\}`)
	m := re.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func summarize(m plugins.Metrics) string {
	complexCount := 0
	for _, f := range m.Functions {
		if f.IsComplex {
			complexCount++
		}
	}

	return fmt.Sprintf(
		"Analysis found %d complex functions out of %d total functions across %d classes. "+
			"Overall cyclomatic complexity is %d with maximum nesting depth of %d.",
		complexCount, len(m.Functions), len(m.Classes), m.Cyclomatic, m.MaxNesting,
	)
}

func recommend(m plugins.Metrics) []string {
	var recs []string

	if m.Cyclomatic > 20 {
		recs = append(recs, "Consider breaking down complex logic into smaller functions")
	}
	if m.MaxNesting > 3 {
		recs = append(recs, "Reduce nesting depth by extracting deeply nested code into functions")
	}

	var complexNames []string
	for _, f := range m.Functions {
		if f.IsComplex {
			complexNames = append(complexNames, f.Name)
		}
	}
	if len(complexNames) > 0 {
		recs = append(recs, "Simplify complex functions: "+strings.Join(complexNames, ", "))
	}

	for _, c := range m.Classes {
		if c.AverageMethodComplexity > 10 {
			recs = append(recs, fmt.Sprintf(
				"Class %s has high average complexity. Consider splitting into smaller classes.", c.Name))
		}
	}

	return recs
}

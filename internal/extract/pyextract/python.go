// Package pyextract extracts structural models from Python source using
// line-based and regex heuristics.
package pyextract

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/codesketch/codesketch/internal/extract"
	"github.com/codesketch/codesketch/internal/model"
)

// PyExtractor extracts structural models from Python files.
type PyExtractor struct{}

// New creates a new PyExtractor.
func New() *PyExtractor {
	return &PyExtractor{}
}

// Factory returns the registry factory for this extractor.
func Factory() extract.Extractor {
	return New()
}

func (e *PyExtractor) Language() string {
	return model.LangPython
}

func (e *PyExtractor) Extensions() []string {
	return []string{"py"}
}

// --- Regex patterns ---

var (
	classRe = regexp.MustCompile(`class\s+(\w+)(?:\(([^)]*)\))?:`)

	// Methods are indented defs; top-level functions start at column zero.
	methodRe = regexp.MustCompile(`(?m)^[ \t]+def\s+(\w+)\s*\(([^)]*)\)`)
	funcRe   = regexp.MustCompile(`(?m)^def\s+(\w+)\s*\(([^)]*)\)`)
)

// Parse reads a Python file and extracts its structural model. It fails
// only on read or decode errors; malformed source degrades to partial
// results.
func (e *PyExtractor) Parse(path string) (*model.SourceFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("reading %s: content is not valid UTF-8", path)
	}
	content := string(data)

	return &model.SourceFile{
		Path:       path,
		Language:   e.Language(),
		Imports:    extractImports(content),
		Classes:    extractClasses(content),
		Functions:  extractFunctions(content),
		Variables:  extractVariables(content),
		RawContent: content,
	}, nil
}

// extractImports scans lines for "import X" and "from X import Y" forms.
func extractImports(content string) []model.Import {
	var imports []model.Import

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, "import "):
			var mods []string
			for _, m := range strings.Split(line[len("import "):], ",") {
				if m = strings.TrimSpace(m); m != "" {
					mods = append(mods, m)
				}
			}
			imp := model.Import{Statement: line, Kind: model.ImportSimple, Symbols: mods}
			if len(mods) > 0 {
				imp.Module = mods[0]
			}
			imports = append(imports, imp)

		case strings.HasPrefix(line, "from "):
			idx := strings.Index(line, "import ")
			if idx < 0 {
				continue
			}
			module := strings.TrimSpace(strings.TrimPrefix(line[:idx], "from "))
			var syms []string
			for _, s := range strings.Split(line[idx+len("import "):], ",") {
				if s = strings.TrimSpace(s); s != "" {
					syms = append(syms, s)
				}
			}
			imports = append(imports, model.Import{
				Statement: line,
				Kind:      model.ImportFrom,
				Module:    module,
				Symbols:   syms,
			})
		}
	}

	return imports
}

// extractClasses finds class headers and pulls a docstring and methods out
// of each class body. The body is approximated as the rest of the file
// following the header, not a true indentation-scoped block.
func extractClasses(content string) []model.Class {
	var classes []model.Class

	for _, m := range classRe.FindAllStringSubmatchIndex(content, -1) {
		name := content[m[2]:m[3]]

		var parents []string
		if m[4] >= 0 {
			for _, p := range strings.Split(content[m[4]:m[5]], ",") {
				if p = strings.TrimSpace(p); p != "" {
					parents = append(parents, p)
				}
			}
		}

		body := content[m[1]:]
		cls := model.Class{
			Name:      name,
			Parents:   parents,
			Docstring: scanDocstring(strings.Split(body, "\n")),
		}

		for _, mm := range methodRe.FindAllStringSubmatch(body, -1) {
			cls.Methods = append(cls.Methods, model.Method{
				Name:   mm[1],
				Params: parseParams(mm[2], true),
			})
		}

		classes = append(classes, cls)
	}

	return classes
}

// extractFunctions finds top-level (non-indented) defs with optional
// return-type annotations and docstrings.
func extractFunctions(content string) []model.Function {
	var functions []model.Function

	for _, m := range funcRe.FindAllStringSubmatchIndex(content, -1) {
		fn := model.Function{
			Name:   content[m[2]:m[3]],
			Params: parseParams(content[m[4]:m[5]], false),
		}

		// Return type sits between "->" and the trailing colon on the
		// header line.
		header, _, _ := strings.Cut(content[m[0]:], "\n")
		if arrowIdx := strings.Index(header, "->"); arrowIdx >= 0 {
			rt := header[arrowIdx+2:]
			if colonIdx := strings.Index(rt, ":"); colonIdx >= 0 {
				rt = rt[:colonIdx]
			}
			fn.ReturnType = strings.TrimSpace(rt)
		}

		// The docstring follows the header's closing colon.
		rest := strings.Split(content[m[1]:], "\n")
		for i, line := range rest {
			if strings.Contains(line, ":") {
				rest = rest[i+1:]
				break
			}
		}
		fn.Docstring = scanDocstring(rest)

		functions = append(functions, fn)
	}

	return functions
}

// extractVariables finds non-indented assignments that are not imports,
// defs, classes, comments, or comparisons.
func extractVariables(content string) []model.Variable {
	var variables []model.Variable

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "import ") || strings.HasPrefix(trimmed, "from ") ||
			strings.HasPrefix(trimmed, "def ") || strings.HasPrefix(trimmed, "class ") ||
			strings.HasPrefix(trimmed, "#") {
			continue
		}
		if !strings.Contains(line, "=") || strings.Contains(line, "==") {
			continue
		}

		lhs, value, _ := strings.Cut(line, "=")
		if strings.Contains(lhs, "(") {
			continue
		}

		name := strings.TrimSpace(lhs)
		if strings.HasPrefix(name, "(") || strings.HasPrefix(name, "[") || strings.Contains(name, "{") {
			continue
		}

		// Optional "name: type" annotation on the left-hand side.
		var typ string
		if colonIdx := strings.Index(name, ":"); colonIdx >= 0 {
			typ = strings.TrimSpace(name[colonIdx+1:])
			name = strings.TrimSpace(name[:colonIdx])
		}

		if !isIdentifier(name) {
			continue
		}

		variables = append(variables, model.Variable{
			Name:       name,
			Type:       typ,
			Value:      strings.TrimSpace(value),
			IsConstant: isConstantName(name),
		})
	}

	return variables
}

// scanDocstring looks for a triple-quoted string among the given lines and
// returns its text. Both single-line ("""Doc.""") and multi-line forms are
// recognized.
func scanDocstring(lines []string) string {
	for i, line := range lines {
		line = strings.TrimSpace(line)

		var delim string
		switch {
		case strings.HasPrefix(line, `"""`):
			delim = `"""`
		case strings.HasPrefix(line, "'''"):
			delim = "'''"
		default:
			continue
		}

		rest := line[len(delim):]
		if endIdx := strings.Index(rest, delim); endIdx >= 0 {
			return rest[:endIdx]
		}

		parts := []string{rest}
		for _, next := range lines[i+1:] {
			if endIdx := strings.Index(next, delim); endIdx >= 0 {
				parts = append(parts, next[:endIdx])
				break
			}
			parts = append(parts, next)
		}
		return strings.Join(parts, "\n")
	}
	return ""
}

// parseParams splits a parameter list on commas; each entry may carry a
// "name: type = default" shape, parsed by splitting on ":" then "=". No
// awareness of nested brackets or generics in the type text.
func parseParams(raw string, excludeSelf bool) []model.Param {
	var params []model.Param

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if excludeSelf && part == "self" {
			continue
		}

		var p model.Param
		decl, def, hasDefault := strings.Cut(part, "=")
		name, typ, hasType := strings.Cut(decl, ":")
		p.Name = strings.TrimSpace(name)
		if hasType {
			p.Type = strings.TrimSpace(typ)
		}
		if hasDefault {
			p.Default = strings.TrimSpace(def)
		}
		if p.Name == "" {
			continue
		}
		params = append(params, p)
	}

	return params
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}

// isConstantName reports whether a name is all-uppercase (with at least
// one letter), the convention used to flag constants.
func isConstantName(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

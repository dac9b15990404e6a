// Package jsextract extracts structural models from JavaScript (and JSX)
// source using regex heuristics and balanced-brace body isolation. Its
// scan functions are shared with the TypeScript extractor.
package jsextract

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/codesketch/codesketch/internal/extract"
	"github.com/codesketch/codesketch/internal/model"
)

// JSExtractor extracts structural models from JavaScript files.
type JSExtractor struct{}

// New creates a new JSExtractor.
func New() *JSExtractor {
	return &JSExtractor{}
}

// Factory returns the registry factory for this extractor.
func Factory() extract.Extractor {
	return New()
}

func (e *JSExtractor) Language() string {
	return model.LangJavaScript
}

func (e *JSExtractor) Extensions() []string {
	return []string{"js", "jsx", "ts", "tsx"}
}

// --- Regex patterns ---

var (
	es6ImportRe = regexp.MustCompile(`import\s+(?:\{[^}]+\}|\*\s+as\s+\w+|\w+)?\s*(?:,\s*\{[^}]+\})?\s*from\s+['"]([^'"]+)['"]`)
	requireRe   = regexp.MustCompile(`(?:const|let|var)\s+(\w+)\s*=\s*require\(['"]([^'"]+)['"]\)`)

	classRe  = regexp.MustCompile(`class\s+(\w+)(?:\s+extends\s+(\w+))?\s*\{`)
	methodRe = regexp.MustCompile(`(async\s+)?(\w+)\s*\(([^)]*)\)\s*\{`)

	funcDeclRe  = regexp.MustCompile(`(async\s+)?function\s+(\w+)\s*\(([^)]*)\)\s*\{`)
	arrowFuncRe = regexp.MustCompile(`(?:const|let|var)\s+(\w+)\s*=\s*(async\s+)?\(([^)]*)\)\s*=>`)

	// Anchored to column zero: indented declarations live inside some
	// enclosing block and are not top-level bindings.
	varRe = regexp.MustCompile(`(?m)^(const|let|var)\s+(\w+)(?:\s*:\s*([^=;\n]+?))?\s*=\s*([^;\n]+)`)

	braceSymbolsRe = regexp.MustCompile(`\{([^}]+)\}`)
)

// Control keywords that the method pattern would otherwise pick up.
var reservedNames = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true,
	"catch": true, "function": true, "return": true,
}

// Parse reads a JavaScript file and extracts its structural model. It
// fails only on read or decode errors; malformed source degrades to
// partial results.
func (e *JSExtractor) Parse(path string) (*model.SourceFile, error) {
	content, err := readSource(path)
	if err != nil {
		return nil, err
	}

	return &model.SourceFile{
		Path:       path,
		Language:   e.Language(),
		Imports:    Imports(content),
		Classes:    Classes(content),
		Functions:  Functions(content),
		Variables:  Variables(content),
		RawContent: content,
	}, nil
}

func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("reading %s: content is not valid UTF-8", path)
	}
	return string(data), nil
}

// Imports finds ES-module imports and CommonJS require bindings.
func Imports(content string) []model.Import {
	type hit struct {
		pos int
		imp model.Import
	}
	var hits []hit

	for _, m := range es6ImportRe.FindAllStringSubmatchIndex(content, -1) {
		stmt := content[m[0]:m[1]]
		hits = append(hits, hit{m[0], model.Import{
			Statement: stmt,
			Kind:      model.ImportES6,
			Module:    content[m[2]:m[3]],
			Symbols:   importedSymbols(stmt),
		}})
	}

	for _, m := range requireRe.FindAllStringSubmatchIndex(content, -1) {
		hits = append(hits, hit{m[0], model.Import{
			Statement: content[m[0]:m[1]],
			Kind:      model.ImportRequire,
			Module:    content[m[4]:m[5]],
			Symbols:   []string{content[m[2]:m[3]]},
		}})
	}

	// Merge the two passes back into source encounter order.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	imports := make([]model.Import, 0, len(hits))
	for _, h := range hits {
		imports = append(imports, h.imp)
	}
	return imports
}

// importedSymbols pulls the names out of an import statement's braces,
// dropping any "as" aliases down to the local name.
func importedSymbols(stmt string) []string {
	m := braceSymbolsRe.FindStringSubmatch(stmt)
	if m == nil {
		return nil
	}
	var syms []string
	for _, s := range strings.Split(m[1], ",") {
		s = strings.TrimSpace(s)
		if idx := strings.Index(s, " as "); idx >= 0 {
			s = strings.TrimSpace(s[idx+len(" as "):])
		}
		if s != "" {
			syms = append(syms, s)
		}
	}
	return syms
}

// Classes finds class declarations and isolates each body with a balanced
// brace scan so arbitrarily nested blocks are handled.
func Classes(content string) []model.Class {
	var classes []model.Class

	for _, m := range classRe.FindAllStringSubmatchIndex(content, -1) {
		cls := model.Class{Name: content[m[2]:m[3]]}
		if m[4] >= 0 {
			cls.Parents = []string{content[m[4]:m[5]]}
		}

		// m[1] is just past the opening brace.
		cls.Methods = Methods(IsolateBody(content, m[1]))

		classes = append(classes, cls)
	}

	return classes
}

// Methods finds method declarations in an isolated class body, skipping
// over each method's own body so nested blocks are never matched as
// methods.
func Methods(body string) []model.Method {
	var methods []model.Method
	skipUntil := 0

	for _, m := range methodRe.FindAllStringSubmatchIndex(body, -1) {
		if m[0] < skipUntil {
			continue
		}
		name := body[m[4]:m[5]]
		if reservedNames[name] {
			continue
		}

		methods = append(methods, model.Method{
			Name:    name,
			Params:  ParseParams(body[m[6]:m[7]]),
			IsAsync: m[2] >= 0,
		})

		skipUntil = ScanBalanced(body, m[1]-1)
	}

	return methods
}

// Functions finds "function NAME(...) {" declarations and named arrow
// functions bound with const/let/var.
func Functions(content string) []model.Function {
	type hit struct {
		pos int
		fn  model.Function
	}
	var hits []hit

	for _, m := range funcDeclRe.FindAllStringSubmatchIndex(content, -1) {
		hits = append(hits, hit{m[0], model.Function{
			Name:    content[m[4]:m[5]],
			Params:  ParseParams(content[m[6]:m[7]]),
			IsAsync: m[2] >= 0,
		}})
	}

	for _, m := range arrowFuncRe.FindAllStringSubmatchIndex(content, -1) {
		hits = append(hits, hit{m[0], model.Function{
			Name:    content[m[2]:m[3]],
			Params:  ParseParams(content[m[6]:m[7]]),
			IsAsync: m[4] >= 0,
		}})
	}

	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	functions := make([]model.Function, 0, len(hits))
	for _, h := range hits {
		functions = append(functions, h.fn)
	}
	return functions
}

// Variables finds const/let/var bindings, skipping right-hand sides that
// begin with "function" or "class" to avoid double-registering callables.
// The declaration keyword is retained as metadata.
func Variables(content string) []model.Variable {
	var variables []model.Variable

	for _, m := range varRe.FindAllStringSubmatch(content, -1) {
		value := strings.TrimSpace(m[4])
		if strings.HasPrefix(value, "function") || strings.HasPrefix(value, "class") {
			continue
		}

		variables = append(variables, model.Variable{
			Name:       m[2],
			Type:       strings.TrimSpace(m[3]),
			Value:      value,
			IsConstant: isConstantName(m[2]),
			Decl:       m[1],
		})
	}

	return variables
}

// ParseParams splits a parameter list on commas; entries may carry a
// "name: type = default" shape. No awareness of nested brackets or
// generics in the type text.
func ParseParams(raw string) []model.Param {
	var params []model.Param

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
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

// ScanBalanced walks text from the opening brace at openIdx, counting "{"
// as +1 and "}" as -1, and returns the index just past the brace that
// returns the counter to zero. Braces inside string or template literals
// and comments are not special-cased. Returns len(text) if the braces
// never balance.
func ScanBalanced(text string, openIdx int) int {
	depth := 0
	for i := openIdx; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(text)
}

// IsolateBody returns the substring between the opening brace just before
// bodyStart and its balancing close. Unbalanced bodies run to end of text.
func IsolateBody(text string, bodyStart int) string {
	end := ScanBalanced(text, bodyStart-1)
	if end <= bodyStart {
		return text[bodyStart:]
	}
	return text[bodyStart : end-1]
}

func isConstantName(s string) bool {
	hasLetter := false
	for _, r := range s {
		if 'a' <= r && r <= 'z' {
			return false
		}
		if 'A' <= r && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

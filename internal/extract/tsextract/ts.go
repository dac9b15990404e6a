// Package tsextract extracts structural models from TypeScript source.
// It shares the JavaScript heuristics and additionally folds interface
// declarations into the class list with an interface marker.
package tsextract

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/codesketch/codesketch/internal/extract"
	"github.com/codesketch/codesketch/internal/extract/jsextract"
	"github.com/codesketch/codesketch/internal/model"
)

// TSExtractor extracts structural models from TypeScript files.
type TSExtractor struct{}

// New creates a new TSExtractor.
func New() *TSExtractor {
	return &TSExtractor{}
}

// Factory returns the registry factory for this extractor.
func Factory() extract.Extractor {
	return New()
}

func (e *TSExtractor) Language() string {
	return model.LangTypeScript
}

func (e *TSExtractor) Extensions() []string {
	return []string{"ts", "tsx"}
}

var (
	interfaceRe = regexp.MustCompile(`interface\s+(\w+)(?:\s+extends\s+([\w,\s.]+?))?\s*\{`)

	// Interface member signatures have no body brace, so the shared
	// method scan does not apply here.
	ifaceMethodRe = regexp.MustCompile(`(?m)^\s*(?:readonly\s+)?(\w+)\s*\(([^)]*)\)`)
)

// Parse reads a TypeScript file and extracts its structural model. It
// fails only on read or decode errors; malformed source degrades to
// partial results.
func (e *TSExtractor) Parse(path string) (*model.SourceFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("reading %s: content is not valid UTF-8", path)
	}
	content := string(data)

	classes := jsextract.Classes(content)
	classes = append(classes, extractInterfaces(content)...)

	return &model.SourceFile{
		Path:       path,
		Language:   e.Language(),
		Imports:    jsextract.Imports(content),
		Classes:    classes,
		Functions:  jsextract.Functions(content),
		Variables:  jsextract.Variables(content),
		RawContent: content,
	}, nil
}

// extractInterfaces finds interface declarations, isolating each body with
// the balanced-brace scan and recording member signatures as methods.
func extractInterfaces(content string) []model.Class {
	var interfaces []model.Class

	for _, m := range interfaceRe.FindAllStringSubmatchIndex(content, -1) {
		iface := model.Class{
			Name:        content[m[2]:m[3]],
			IsInterface: true,
		}
		if m[4] >= 0 {
			for _, p := range strings.Split(content[m[4]:m[5]], ",") {
				if p = strings.TrimSpace(p); p != "" {
					iface.Parents = append(iface.Parents, p)
				}
			}
		}

		body := jsextract.IsolateBody(content, m[1])

		for _, mm := range ifaceMethodRe.FindAllStringSubmatch(body, -1) {
			iface.Methods = append(iface.Methods, model.Method{
				Name:   mm[1],
				Params: jsextract.ParseParams(mm[2]),
			})
		}

		interfaces = append(interfaces, iface)
	}

	return interfaces
}

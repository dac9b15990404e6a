package model

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Document is one (text, metadata) chunk handed off to an external
// indexing collaborator.
type Document struct {
	Text string       `json:"text"`
	Meta DocumentMeta `json:"meta"`
}

// DocumentMeta identifies where a document came from.
type DocumentMeta struct {
	Source   string `json:"source"`
	Filename string `json:"filename"`
	Language string `json:"language"`
	Kind     string `json:"kind"`             // file, class, function
	Symbol   string `json:"symbol,omitempty"` // owning class or function name
}

// Document kind values.
const (
	DocFile     = "file"
	DocClass    = "class"
	DocFunction = "function"
)

// Documents projects a source file into a fully materialized, ordered
// sequence of documents: one for the raw content (if present), one per
// class, one per top-level function.
func Documents(sf *SourceFile) []Document {
	var docs []Document

	base := DocumentMeta{
		Source:   sf.Path,
		Filename: filepath.Base(sf.Path),
		Language: sf.Language,
	}

	if sf.RawContent != "" {
		meta := base
		meta.Kind = DocFile
		docs = append(docs, Document{Text: sf.RawContent, Meta: meta})
	}

	for _, cls := range sf.Classes {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Class: %s\n\n", cls.Name)
		if cls.Docstring != "" {
			fmt.Fprintf(&sb, "Description: %s\n\n", cls.Docstring)
		}
		if len(cls.Methods) > 0 {
			sb.WriteString("Methods:\n")
			for _, m := range cls.Methods {
				names := make([]string, len(m.Params))
				for i, p := range m.Params {
					names[i] = p.Name
				}
				fmt.Fprintf(&sb, "- %s(%s)\n", m.Name, strings.Join(names, ", "))
			}
		}

		meta := base
		meta.Kind = DocClass
		meta.Symbol = cls.Name
		docs = append(docs, Document{Text: sb.String(), Meta: meta})
	}

	for _, fn := range sf.Functions {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Function: %s\n\n", fn.Name)
		if fn.Docstring != "" {
			fmt.Fprintf(&sb, "Description: %s\n\n", fn.Docstring)
		}
		if len(fn.Params) > 0 {
			sb.WriteString("Parameters:\n")
			for _, p := range fn.Params {
				sb.WriteString("- " + p.Name)
				if p.Type != "" {
					fmt.Fprintf(&sb, " (%s)", p.Type)
				}
				if p.Default != "" {
					fmt.Fprintf(&sb, " = %s", p.Default)
				}
				sb.WriteString("\n")
			}
		}
		if fn.ReturnType != "" {
			fmt.Fprintf(&sb, "\nReturns: %s\n", fn.ReturnType)
		}

		meta := base
		meta.Kind = DocFunction
		meta.Symbol = fn.Name
		docs = append(docs, Document{Text: sb.String(), Meta: meta})
	}

	return docs
}

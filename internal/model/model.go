package model

// SourceFile is the structural model extracted from one source file.
// It is immutable after parse returns; derived computations (plugins,
// document projection) build new values instead of mutating it.
type SourceFile struct {
	Path       string     `json:"path"`
	Language   string     `json:"language"`
	Imports    []Import   `json:"imports,omitempty"`
	Classes    []Class    `json:"classes,omitempty"`
	Functions  []Function `json:"functions,omitempty"`
	Variables  []Variable `json:"variables,omitempty"`
	RawContent string     `json:"-"`
}

// Import is one import/require statement in source encounter order.
type Import struct {
	Statement string   `json:"statement"`         // raw statement text
	Kind      string   `json:"kind"`              // simple, from, require, es6
	Module    string   `json:"module,omitempty"`  // resolved module name, if recognized
	Symbols   []string `json:"symbols,omitempty"`
}

// Class is a class (or TypeScript interface, when IsInterface is set)
// with its methods in source encounter order.
type Class struct {
	Name        string   `json:"name"`
	Parents     []string `json:"parents,omitempty"`
	Docstring   string   `json:"docstring,omitempty"`
	Methods     []Method `json:"methods,omitempty"`
	IsInterface bool     `json:"is_interface,omitempty"`
}

// Method is a named callable owned by a class.
type Method struct {
	Name    string  `json:"name"`
	Params  []Param `json:"params,omitempty"`
	IsAsync bool    `json:"is_async,omitempty"`
}

// Param is a single declared parameter.
type Param struct {
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Default string `json:"default,omitempty"`
}

// Function is a top-level function.
type Function struct {
	Name       string  `json:"name"`
	Params     []Param `json:"params,omitempty"`
	IsAsync    bool    `json:"is_async,omitempty"`
	ReturnType string  `json:"return_type,omitempty"`
	Docstring  string  `json:"docstring,omitempty"`
}

// Variable is a top-level variable binding.
type Variable struct {
	Name       string `json:"name"`
	Type       string `json:"type,omitempty"`
	Value      string `json:"value,omitempty"`
	IsConstant bool   `json:"is_constant,omitempty"`
	// Decl holds the declaration keyword (const/let/var) for JS/TS sources.
	Decl string `json:"decl,omitempty"`
}

// Language identifiers.
const (
	LangPython     = "python"
	LangJavaScript = "javascript"
	LangTypeScript = "typescript"
)

// Import kind values.
const (
	ImportSimple  = "simple"
	ImportFrom    = "from"
	ImportRequire = "require"
	ImportES6     = "es6"
)

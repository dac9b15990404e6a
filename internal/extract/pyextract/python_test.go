package pyextract

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/codesketch/codesketch/internal/model"
)

// --- helpers ---

// parseSource writes content to a temp .py file and parses it.
func parseSource(t *testing.T, content string) *model.SourceFile {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.py")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	sf, err := New().Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return sf
}

// --- tests ---

func TestParse_ImportsPreserveOrder(t *testing.T) {
	sf := parseSource(t, "import os\nimport sys\nfrom typing import List, Dict\ndef f(): pass\nclass C: pass\n")

	if len(sf.Imports) != 3 {
		t.Fatalf("got %d imports, want 3", len(sf.Imports))
	}

	if sf.Imports[0].Statement != "import os" || sf.Imports[0].Kind != model.ImportSimple {
		t.Errorf("imports[0] = %+v, want simple import os", sf.Imports[0])
	}
	if sf.Imports[1].Statement != "import sys" {
		t.Errorf("imports[1].Statement = %q, want import sys", sf.Imports[1].Statement)
	}

	if len(sf.Functions) != 1 || sf.Functions[0].Name != "f" {
		t.Errorf("functions = %+v, want [f]", sf.Functions)
	}
	if len(sf.Classes) != 1 || sf.Classes[0].Name != "C" {
		t.Errorf("classes = %+v, want [C]", sf.Classes)
	}

	from := sf.Imports[2]
	if from.Kind != model.ImportFrom {
		t.Errorf("imports[2].Kind = %q, want %q", from.Kind, model.ImportFrom)
	}
	if from.Module != "typing" {
		t.Errorf("imports[2].Module = %q, want typing", from.Module)
	}
	if !reflect.DeepEqual(from.Symbols, []string{"List", "Dict"}) {
		t.Errorf("imports[2].Symbols = %v, want [List Dict]", from.Symbols)
	}
}

func TestParse_ClassWithDocstringAndMethod(t *testing.T) {
	sf := parseSource(t, `class C:
    """Doc."""
    def m(self):
        pass
`)

	if len(sf.Classes) != 1 {
		t.Fatalf("got %d classes, want 1", len(sf.Classes))
	}
	c := sf.Classes[0]
	if c.Name != "C" {
		t.Errorf("class name = %q, want C", c.Name)
	}
	if c.Docstring != "Doc." {
		t.Errorf("docstring = %q, want Doc.", c.Docstring)
	}
	if len(c.Methods) != 1 || c.Methods[0].Name != "m" {
		t.Fatalf("methods = %+v, want one method m", c.Methods)
	}
	if len(c.Methods[0].Params) != 0 {
		t.Errorf("method m params = %+v, want none (self excluded)", c.Methods[0].Params)
	}
}

func TestParse_ClassParents(t *testing.T) {
	sf := parseSource(t, "class Child(Base, Mixin):\n    pass\n")

	if len(sf.Classes) != 1 {
		t.Fatalf("got %d classes, want 1", len(sf.Classes))
	}
	want := []string{"Base", "Mixin"}
	if !reflect.DeepEqual(sf.Classes[0].Parents, want) {
		t.Errorf("parents = %v, want %v", sf.Classes[0].Parents, want)
	}
}

func TestParse_FunctionSignature(t *testing.T) {
	sf := parseSource(t, `def greet(name: str, times: int = 1) -> str:
    """Say hello."""
    return name * times
`)

	if len(sf.Functions) != 1 {
		t.Fatalf("got %d functions, want 1", len(sf.Functions))
	}
	fn := sf.Functions[0]
	if fn.Name != "greet" {
		t.Errorf("name = %q, want greet", fn.Name)
	}
	if fn.ReturnType != "str" {
		t.Errorf("return type = %q, want str", fn.ReturnType)
	}
	if fn.Docstring != "Say hello." {
		t.Errorf("docstring = %q, want Say hello.", fn.Docstring)
	}

	if len(fn.Params) != 2 {
		t.Fatalf("got %d params, want 2: %+v", len(fn.Params), fn.Params)
	}
	if fn.Params[0].Name != "name" || fn.Params[0].Type != "str" {
		t.Errorf("params[0] = %+v, want name: str", fn.Params[0])
	}
	if fn.Params[1].Name != "times" || fn.Params[1].Type != "int" || fn.Params[1].Default != "1" {
		t.Errorf("params[1] = %+v, want times: int = 1", fn.Params[1])
	}
}

func TestParse_MultilineDocstring(t *testing.T) {
	sf := parseSource(t, `def f():
    """First line.
    Second line."""
    pass
`)

	if len(sf.Functions) != 1 {
		t.Fatalf("got %d functions, want 1", len(sf.Functions))
	}
	ds := sf.Functions[0].Docstring
	if ds == "" {
		t.Fatal("expected a docstring")
	}
	if want := "First line.\n    Second line."; ds != want {
		t.Errorf("docstring = %q, want %q", ds, want)
	}
}

func TestParse_Variables(t *testing.T) {
	sf := parseSource(t, `MAX_SIZE = 100
count: int = 0
x == y
result = compute()
    indented = "skipped"
`)

	var names []string
	for _, v := range sf.Variables {
		names = append(names, v.Name)
	}
	want := []string{"MAX_SIZE", "count", "result"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("variable names = %v, want %v", names, want)
	}

	if !sf.Variables[0].IsConstant {
		t.Error("MAX_SIZE should be flagged as a constant")
	}
	if sf.Variables[1].IsConstant {
		t.Error("count should not be flagged as a constant")
	}
	if sf.Variables[1].Type != "int" {
		t.Errorf("count type = %q, want int", sf.Variables[1].Type)
	}
	if sf.Variables[0].Value != "100" {
		t.Errorf("MAX_SIZE value = %q, want 100", sf.Variables[0].Value)
	}
}

func TestParse_Idempotent(t *testing.T) {
	content := `import os

class C(Base):
    """Doc."""
    def m(self, x):
        pass

def f(a, b=2) -> int:
    return a + b
`
	first := parseSource(t, content)
	second := parseSource(t, content)

	// Paths differ between temp dirs; compare the structural parts.
	first.Path, second.Path = "", ""
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated parses disagree:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestParse_InvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.py")
	if err := os.WriteFile(path, []byte{0xff, 0xfe, 0xfd}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New().Parse(path); err == nil {
		t.Fatal("expected an error for invalid UTF-8 content")
	}
}

func TestParse_MalformedSourceDegrades(t *testing.T) {
	// Unclosed parens and stray indentation should never produce an error,
	// only partial results.
	sf := parseSource(t, "def broken(\nclass Unfinished\nx = 1\n")
	if sf == nil {
		t.Fatal("expected a model for malformed source")
	}
	if len(sf.Variables) != 1 || sf.Variables[0].Name != "x" {
		t.Errorf("variables = %+v, want just x", sf.Variables)
	}
}

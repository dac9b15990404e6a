package extract

import (
	"reflect"
	"testing"

	"github.com/codesketch/codesketch/internal/model"
)

// --- helpers ---

// fakeExtractor is a minimal Extractor for registry tests.
type fakeExtractor struct {
	lang string
	exts []string
}

func (f *fakeExtractor) Language() string     { return f.lang }
func (f *fakeExtractor) Extensions() []string { return f.exts }
func (f *fakeExtractor) Parse(path string) (*model.SourceFile, error) {
	return &model.SourceFile{Path: path, Language: f.lang}, nil
}

func fakeFactory(lang string, exts ...string) Factory {
	return func() Extractor { return &fakeExtractor{lang: lang, exts: exts} }
}

// --- tests ---

func TestRegistry_ByExtension(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeFactory("python", "py"))
	r.Register(fakeFactory("javascript", "js", "jsx"))

	tests := []struct {
		path     string
		wantLang string
		wantOK   bool
	}{
		{"main.py", "python", true},
		{"app.js", "javascript", true},
		{"component.jsx", "javascript", true},
		{"Component.JSX", "javascript", true}, // case-insensitive
		{"data.xyz", "", false},
		{"Makefile", "", false}, // no extension
	}

	for _, tt := range tests {
		ext, ok := r.ByExtension(tt.path)
		if ok != tt.wantOK {
			t.Errorf("ByExtension(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			continue
		}
		if ok && ext.Language() != tt.wantLang {
			t.Errorf("ByExtension(%q) language = %q, want %q", tt.path, ext.Language(), tt.wantLang)
		}
	}
}

func TestRegistry_EveryExtensionResolves(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeFactory("python", "py"))
	r.Register(fakeFactory("javascript", "js", "jsx", "ts", "tsx"))
	r.Register(fakeFactory("typescript", "ts", "tsx"))

	for _, e := range r.Extensions() {
		ext, ok := r.ByExtension("file." + e)
		if !ok {
			t.Fatalf("registered extension %q did not resolve", e)
		}
		found := false
		for _, declared := range ext.Extensions() {
			if declared == e {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("extension %q resolved to %s, which does not declare it", e, ext.Language())
		}
	}
}

func TestRegistry_OverwriteOnConflict(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeFactory("javascript", "js", "ts"))
	r.Register(fakeFactory("typescript", "ts"))

	// .ts now resolves to the later registration.
	ext, ok := r.ByExtension("app.ts")
	if !ok {
		t.Fatal("expected resolution for .ts")
	}
	if ext.Language() != "typescript" {
		t.Errorf("language = %q, want typescript (last registration wins)", ext.Language())
	}

	// .js is untouched.
	ext, ok = r.ByExtension("app.js")
	if !ok || ext.Language() != "javascript" {
		t.Errorf("expected .js to still resolve to javascript")
	}
}

func TestRegistry_LanguagesOrderAndExtensions(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeFactory("python", "py"))
	r.Register(fakeFactory("javascript", "js"))
	r.Register(fakeFactory("python", "py")) // re-register keeps original position

	if got, want := r.Languages(), []string{"python", "javascript"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Languages() = %v, want %v", got, want)
	}
	if got, want := r.Extensions(), []string{"js", "py"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Extensions() = %v, want %v", got, want)
	}
}

func TestRegistry_ByLanguage(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeFactory("python", "py"))

	if _, ok := r.ByLanguage("python"); !ok {
		t.Error("expected resolution for python")
	}
	if _, ok := r.ByLanguage("cobol"); ok {
		t.Error("expected absence for an unregistered language")
	}
}

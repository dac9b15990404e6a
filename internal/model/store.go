package model

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Store provides in-memory storage and querying of parsed files and their
// projected documents, with JSONL persistence for the document hand-off.
type Store struct {
	mu    sync.RWMutex
	files []*SourceFile
	docs  []Document

	// Indexes for fast lookups
	fileByPath map[string]int   // path -> index into files
	byLanguage map[string][]int // language -> indices into files
	docsByKind map[string][]int // document kind -> indices into docs
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		fileByPath: make(map[string]int),
		byLanguage: make(map[string][]int),
		docsByKind: make(map[string][]int),
	}
}

// AddFile adds a parsed file and its document projection to the store.
func (s *Store) AddFile(sf *SourceFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := len(s.files)
	s.files = append(s.files, sf)
	s.fileByPath[sf.Path] = idx
	s.byLanguage[sf.Language] = append(s.byLanguage[sf.Language], idx)
	s.addDocs(Documents(sf))
}

// AddDocuments adds pre-built documents, used when reloading a cached
// projection instead of re-parsing.
func (s *Store) AddDocuments(docs []Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addDocs(docs)
}

func (s *Store) addDocs(docs []Document) {
	for _, d := range docs {
		idx := len(s.docs)
		s.docs = append(s.docs, d)
		s.docsByKind[d.Meta.Kind] = append(s.docsByKind[d.Meta.Kind], idx)
	}
}

// File returns the parsed file for the given path, or nil.
func (s *Store) File(path string) *SourceFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx, ok := s.fileByPath[path]; ok {
		return s.files[idx]
	}
	return nil
}

// Files returns all parsed files.
func (s *Store) Files() []*SourceFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*SourceFile, len(s.files))
	copy(result, s.files)
	return result
}

// FilesByLanguage returns all parsed files for the given language.
func (s *Store) FilesByLanguage(lang string) []*SourceFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	indices := s.byLanguage[lang]
	result := make([]*SourceFile, 0, len(indices))
	for _, idx := range indices {
		result = append(result, s.files[idx])
	}
	return result
}

// FileCount returns the number of parsed files in the store.
func (s *Store) FileCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// Documents returns all documents in the store.
func (s *Store) Documents() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]Document, len(s.docs))
	copy(result, s.docs)
	return result
}

// DocumentCount returns the number of documents in the store.
func (s *Store) DocumentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// QueryDocuments returns documents matching all provided filters.
// Empty filter values are ignored (match all). The symbol filter is a
// substring match; kind, language, and source are exact.
func (s *Store) QueryDocuments(kind, language, source, symbol string) []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Document
	for _, d := range s.docs {
		if kind != "" && d.Meta.Kind != kind {
			continue
		}
		if language != "" && d.Meta.Language != language {
			continue
		}
		if source != "" && d.Meta.Source != source {
			continue
		}
		if symbol != "" && !strings.Contains(d.Meta.Symbol, symbol) {
			continue
		}
		result = append(result, d)
	}
	return result
}

// Clear removes all files and documents from the store.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = nil
	s.docs = nil
	s.fileByPath = make(map[string]int)
	s.byLanguage = make(map[string][]int)
	s.docsByKind = make(map[string][]int)
}

// WriteJSONL writes all documents as JSONL to the given writer.
func (s *Store) WriteJSONL(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	enc := json.NewEncoder(w)
	for _, d := range s.docs {
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encoding document for %s: %w", d.Meta.Source, err)
		}
	}
	return nil
}

// WriteJSONLFile writes all documents as JSONL to the given file path.
func (s *Store) WriteJSONLFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	if err := s.WriteJSONL(bw); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadJSONL reads documents from a JSONL reader and adds them to the store.
func (s *Store) ReadJSONL(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	// Allow large lines; file documents carry whole source texts.
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var d Document
		if err := json.Unmarshal(line, &d); err != nil {
			return fmt.Errorf("decoding document: %w", err)
		}
		s.AddDocuments([]Document{d})
	}
	return scanner.Err()
}

// ReadJSONLFile reads documents from a JSONL file and adds them to the store.
func (s *Store) ReadJSONLFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return s.ReadJSONL(f)
}

// Package server exposes the extraction core to MCP hosts over the stdio
// transport.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codesketch/codesketch/internal/config"
	"github.com/codesketch/codesketch/internal/engine"
	"github.com/codesketch/codesketch/internal/extract"
	"github.com/codesketch/codesketch/internal/plugins"
)

// Server wraps the MCP server and connects it to the engine and the two
// registries.
type Server struct {
	mcp        *mcp.Server
	eng        *engine.Engine
	cfg        *config.Config
	extractors *extract.Registry
	plugins    *plugins.Registry
}

// New creates a new MCP server wired to the given engine and registries.
func New(eng *engine.Engine, cfg *config.Config, extractors *extract.Registry, pluginReg *plugins.Registry) (*Server, error) {
	s := &Server{
		eng:        eng,
		cfg:        cfg,
		extractors: extractors,
		plugins:    pluginReg,
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "codesketch",
		Version: "0.1.0",
	}, nil)

	s.mcp = mcpServer
	s.registerResources()
	s.registerTools()

	return s, nil
}

// Run starts the MCP server on the stdio transport.
func (s *Server) Run(ctx context.Context) error {
	log.Println("[server] starting MCP server on stdio transport")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// registerResources adds MCP resources for batch artifacts.
func (s *Server) registerResources() {
	resources := []struct {
		uri, name, desc, artifact, mime string
	}{
		{"sketch://batch/documents", "Document Projection", "Projected (text, metadata) documents for indexing, in JSONL format", "documents.jsonl", "application/jsonl"},
		{"sketch://batch/analysis", "Analysis Results", "Per-file structural models and plugin reports", "analysis.json", "application/json"},
		{"sketch://batch/meta", "Batch Metadata", "Metadata about the last batch run", "batch.meta.json", "application/json"},
	}

	for _, r := range resources {
		s.mcp.AddResource(&mcp.Resource{
			URI:         r.uri,
			Name:        r.name,
			Description: r.desc,
			MIMEType:    r.mime,
		}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			content, err := s.eng.GetArtifact(r.artifact)
			if err != nil {
				return nil, fmt.Errorf("no batch available: %w (run analyze_repo first)", err)
			}
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{
					{URI: req.Params.URI, Text: string(content), MIMEType: r.mime},
				},
			}, nil
		})
	}
}

// analyzeRepoArgs are the arguments for the analyze_repo tool.
type analyzeRepoArgs struct {
	RepoPath string `json:"repo_path,omitempty" jsonschema:"Path to the repository to analyze. Defaults to the configured repo path."`
}

// parseFileArgs are the arguments for the parse_file tool.
type parseFileArgs struct {
	Path string `json:"path" jsonschema:"required,Path to the source file to parse"`
}

// analyzeFileArgs are the arguments for the analyze_file tool.
type analyzeFileArgs struct {
	Path   string `json:"path" jsonschema:"required,Path to the source file to analyze"`
	Plugin string `json:"plugin,omitempty" jsonschema:"Plugin id to run (default complexity_analyzer)"`
}

// readSourceArgs are the arguments for the read_source tool.
type readSourceArgs struct {
	Path         string `json:"path" jsonschema:"required,Path to the source file"`
	Line         int    `json:"line,omitempty" jsonschema:"Line number to center the window on (default 1)"`
	ContextLines int    `json:"context_lines,omitempty" jsonschema:"Number of source lines to show around the line (default 30)"`
}

// queryDocumentsArgs are the arguments for the query_documents tool.
type queryDocumentsArgs struct {
	Kind     string `json:"kind,omitempty" jsonschema:"Filter by document kind: file, class, or function"`
	Language string `json:"language,omitempty" jsonschema:"Filter by language: python, javascript, or typescript"`
	Source   string `json:"source,omitempty" jsonschema:"Filter by source file path"`
	Symbol   string `json:"symbol,omitempty" jsonschema:"Filter by symbol name using substring match"`
}

// registerTools adds MCP tools for batch runs, single-file parsing and
// analysis, and registry introspection.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "analyze_repo",
		Description: "Run the extraction pipeline over a repository: parse supported source files, run analysis plugins, and project documents for indexing.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args analyzeRepoArgs) (*mcp.CallToolResult, any, error) {
		repoPath := args.RepoPath
		if repoPath == "" {
			repoPath = s.cfg.Repo
		}

		absRepo, err := filepath.Abs(repoPath)
		if err != nil {
			return errorResult(fmt.Sprintf("invalid repo path: %v", err)), nil, nil
		}

		batch, err := s.eng.Run(ctx, absRepo)
		if err != nil {
			return errorResult(fmt.Sprintf("batch run failed: %v", err)), nil, nil
		}

		if err := s.eng.WriteArtifacts(absRepo); err != nil {
			log.Printf("[server] warning: failed to write artifacts: %v", err)
		}

		summary := fmt.Sprintf(
			"Batch complete.\n\n"+
				"- Repository: %s\n"+
				"- Files parsed: %d\n"+
				"- Documents: %d\n"+
				"- Errors: %d\n"+
				"- Skipped (unsupported): %d\n"+
				"- Languages: %v\n"+
				"- Duration: %s\n\n"+
				"Use the sketch://batch/documents resource to read the projection.",
			batch.Meta.RepoPath,
			batch.Meta.FileCount,
			batch.Meta.DocumentCount,
			batch.Meta.ErrorCount,
			batch.Meta.SkippedCount,
			batch.Meta.Languages,
			batch.Meta.Duration,
		)

		return textResult(summary), nil, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "parse_file",
		Description: "Parse a single source file and return its structural model (imports, classes, functions, variables) as JSON.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args parseFileArgs) (*mcp.CallToolResult, any, error) {
		if args.Path == "" {
			return errorResult("path is required"), nil, nil
		}

		ext, ok := s.extractors.ByExtension(args.Path)
		if !ok {
			return errorResult(fmt.Sprintf("unsupported file type: %s (supported extensions: %s)",
				args.Path, strings.Join(s.extractors.Extensions(), ", "))), nil, nil
		}

		sf, err := ext.Parse(args.Path)
		if err != nil {
			return errorResult(fmt.Sprintf("parse failed: %v", err)), nil, nil
		}

		data, err := json.MarshalIndent(sf, "", "  ")
		if err != nil {
			return errorResult(fmt.Sprintf("failed to marshal model: %v", err)), nil, nil
		}
		return textResult(string(data)), nil, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "analyze_file",
		Description: "Parse a single source file and run an analysis plugin over it. Returns the plugin report as JSON.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args analyzeFileArgs) (*mcp.CallToolResult, any, error) {
		if args.Path == "" {
			return errorResult("path is required"), nil, nil
		}

		pluginID := args.Plugin
		if pluginID == "" {
			pluginID = "complexity_analyzer"
		}
		p, ok := s.plugins.Get(pluginID)
		if !ok {
			return errorResult(fmt.Sprintf("unknown plugin: %s", pluginID)), nil, nil
		}

		ext, ok := s.extractors.ByExtension(args.Path)
		if !ok {
			return errorResult(fmt.Sprintf("unsupported file type: %s", args.Path)), nil, nil
		}

		sf, err := ext.Parse(args.Path)
		if err != nil {
			return errorResult(fmt.Sprintf("parse failed: %v", err)), nil, nil
		}

		report, err := p.Analyze(sf)
		if err != nil {
			return errorResult(fmt.Sprintf("analysis failed: %v", err)), nil, nil
		}

		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return errorResult(fmt.Sprintf("failed to marshal report: %v", err)), nil, nil
		}
		return textResult(string(data)), nil, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "query_documents",
		Description: "Query the projected documents from the last batch by kind, language, source path, or symbol name.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args queryDocumentsArgs) (*mcp.CallToolResult, any, error) {
		store := s.eng.Store()
		if store.DocumentCount() == 0 {
			return errorResult("No documents available. Run analyze_repo first."), nil, nil
		}

		results := store.QueryDocuments(args.Kind, args.Language, args.Source, args.Symbol)

		truncated := false
		if len(results) > 100 {
			results = results[:100]
			truncated = true
		}

		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return errorResult(fmt.Sprintf("failed to marshal results: %v", err)), nil, nil
		}

		text := string(data)
		if truncated {
			text += fmt.Sprintf("\n\n... (showing 100 of %d documents, refine your query)", store.DocumentCount())
		}
		return textResult(text), nil, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "read_source",
		Description: "Read a numbered window of source lines centered on a line of a file, for inspecting a symbol the documents point at.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args readSourceArgs) (*mcp.CallToolResult, any, error) {
		if args.Path == "" {
			return errorResult("path is required"), nil, nil
		}
		line := args.Line
		if line < 1 {
			line = 1
		}
		contextLines := args.ContextLines
		if contextLines <= 0 {
			contextLines = 30
		}

		source, err := readSourceWindow(args.Path, line, contextLines)
		if err != nil {
			return errorResult(fmt.Sprintf("could not read source: %v", err)), nil, nil
		}
		return textResult(source), nil, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_languages",
		Description: "List the registered languages and the file extensions they cover.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args struct{}) (*mcp.CallToolResult, any, error) {
		out := map[string]any{
			"languages":  s.extractors.Languages(),
			"extensions": s.extractors.Extensions(),
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return errorResult(fmt.Sprintf("failed to marshal: %v", err)), nil, nil
		}
		return textResult(string(data)), nil, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_plugins",
		Description: "List the registered analysis plugins with their ids, descriptions, and supported languages.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args struct{}) (*mcp.CallToolResult, any, error) {
		data, err := json.MarshalIndent(s.plugins.List(), "", "  ")
		if err != nil {
			return errorResult(fmt.Sprintf("failed to marshal: %v", err)), nil, nil
		}
		return textResult(string(data)), nil, nil
	})
}

// readSourceWindow reads lines from a file centered around the given line
// number, prefixed with line numbers.
func readSourceWindow(path string, centerLine, contextLines int) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	lines := strings.Split(string(data), "\n")
	startLine := centerLine - contextLines/2
	if startLine < 1 {
		startLine = 1
	}
	endLine := centerLine + contextLines/2
	if endLine > len(lines) {
		endLine = len(lines)
	}

	var sb strings.Builder
	for i := startLine; i <= endLine; i++ {
		fmt.Fprintf(&sb, "%4d│ %s\n", i, lines[i-1])
	}
	return sb.String(), nil
}

func textResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

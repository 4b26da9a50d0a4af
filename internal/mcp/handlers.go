package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/matzehuels/aidocs/pkg/config"
	"github.com/matzehuels/aidocs/pkg/errors"
	"github.com/matzehuels/aidocs/pkg/lockfile"
	"github.com/matzehuels/aidocs/pkg/status"
	"github.com/matzehuels/aidocs/pkg/store"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	cfg   *config.Config
	store *store.Store
}

// NewHandlers creates handlers reading the cache under cfg's output dir.
func NewHandlers(cfg *config.Config) *Handlers {
	return &Handlers{cfg: cfg, store: store.New(cfg.Settings.OutputDir)}
}

// ListRequest represents the arguments for docs_list.
type ListRequest struct {
	Package string `json:"package,omitempty"`
}

// ReadRequest represents the arguments for docs_read.
type ReadRequest struct {
	Package string `json:"package"`
	Version string `json:"version,omitempty"`
	File    string `json:"file,omitempty"`
}

// CachedPackage is one entry of the docs_list output.
type CachedPackage struct {
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	Locked     bool     `json:"locked"`
	Ref        string   `json:"ref,omitempty"`
	IsFallback bool     `json:"is_fallback,omitempty"`
	Files      []string `json:"files"`
}

// HandleStatus handles docs_status.
func (h *Handlers) HandleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	versions, err := h.locked()
	if err != nil {
		return errorResult(err), nil
	}
	rows := status.Reconcile(h.cfg.Names(), versions, h.cfg.Settings.OutputDir)
	return mcp.NewToolResultJSON(status.NewReport(rows))
}

// HandleList handles docs_list.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid arguments")), nil
	}

	// The lock file is optional here; without it nothing is marked locked.
	versions, _ := h.locked()

	pkgs, err := h.store.Packages()
	if err != nil {
		return errorResult(errors.Wrap(errors.ErrCodeInternal, err, "read cache")), nil
	}
	out := make([]CachedPackage, 0, len(pkgs))
	for _, p := range pkgs {
		if input.Package != "" && p.Name != input.Package {
			continue
		}
		files, err := h.store.ListFiles(p.Name, p.Version)
		if err != nil {
			continue
		}
		cp := CachedPackage{
			Name:    p.Name,
			Version: p.Version,
			Locked:  versions[p.Name] == p.Version,
			Files:   files,
		}
		if entry, err := h.store.ReadEntry(p.Name, p.Version); err == nil {
			cp.Ref = entry.Ref
			cp.IsFallback = entry.IsFallback
		}
		out = append(out, cp)
	}
	return mcp.NewToolResultJSON(map[string]any{"packages": out})
}

// HandleRead handles docs_read.
func (h *Handlers) HandleRead(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReadRequest](req)
	if err != nil {
		return errorResult(errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid arguments")), nil
	}
	if input.Package == "" {
		return errorResult(errors.New(errors.ErrCodeInvalidInput, "package is required")), nil
	}

	version := input.Version
	if version == "" {
		if version, err = h.defaultVersion(input.Package); err != nil {
			return errorResult(err), nil
		}
	}
	file := input.File
	if file == "" {
		file = store.SummaryFile
	}

	content, err := h.store.ReadFile(input.Package, version, file)
	if os.IsNotExist(err) {
		return errorResult(errors.New(errors.ErrCodeInvalidInput,
			"%s not cached for %s@%s; call docs_list or run aidocs sync", file, input.Package, version)), nil
	}
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(content), nil
}

// defaultVersion picks the locked version, or the only cached one.
func (h *Handlers) defaultVersion(name string) (string, error) {
	if versions, err := h.locked(); err == nil {
		if v, ok := versions.Get(name); ok {
			return v, nil
		}
	}
	cached, err := h.store.Versions(name)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "read cache")
	}
	switch len(cached) {
	case 0:
		return "", errors.New(errors.ErrCodeInvalidInput, "no cached documentation for %s", name)
	case 1:
		return cached[0], nil
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, "%s has several cached versions %v; pass version", name, cached)
	}
}

func (h *Handlers) locked() (lockfile.Versions, error) {
	policy, err := lockfile.ParsePolicy(h.cfg.Settings.DuplicateVersions)
	if err != nil {
		return nil, err
	}
	return lockfile.Load(h.cfg.Settings.LockFile, policy)
}

// errorResult creates an MCP error result carrying the error code.
func errorResult(err error) *mcp.CallToolResult {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	payload := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": errors.UserMessage(err),
		},
	}
	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// decode unmarshals MCP request arguments into a typed struct.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return result, fmt.Errorf("marshal args: %w", err)
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, fmt.Errorf("unmarshal args: %w", err)
	}
	return result, nil
}

// Package setup registers folio with MCP clients.
package setup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
)

// ServerName is the key folio registers under in .mcp.json.
const ServerName = "folio"

// MCPFileName is the project-level MCP client config.
const MCPFileName = ".mcp.json"

type mcpServer struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env,omitempty"`
}

// mcpConfig keeps other servers and top-level keys as raw JSON so a
// rewrite never drops entries folio does not own.
type mcpConfig struct {
	Servers map[string]json.RawMessage `json:"mcpServers"`
	rest    map[string]json.RawMessage
}

func loadMCPConfig(path string) (*mcpConfig, error) {
	cfg := &mcpConfig{Servers: map[string]json.RawMessage{}, rest: map[string]json.RawMessage{}}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", MCPFileName, err)
	}
	if err := json.Unmarshal(data, &cfg.rest); err != nil {
		return nil, fmt.Errorf("parse %s: %w", MCPFileName, err)
	}
	if raw, ok := cfg.rest["mcpServers"]; ok {
		if err := json.Unmarshal(raw, &cfg.Servers); err != nil {
			return nil, fmt.Errorf("parse %s: mcpServers: %w", MCPFileName, err)
		}
		if cfg.Servers == nil {
			cfg.Servers = map[string]json.RawMessage{}
		}
	}
	return cfg, nil
}

func (c *mcpConfig) write(path string) error {
	servers, err := json.Marshal(c.Servers)
	if err != nil {
		return err
	}
	c.rest["mcpServers"] = servers
	data, err := json.MarshalIndent(c.rest, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", MCPFileName, err)
	}
	return nil
}

// RegisterMCP adds or replaces the folio entry in dir/.mcp.json. The entry
// runs "folio mcp" with the content root pinned through FOLIO_CONTENT_ROOT.
func RegisterMCP(w io.Writer, dir, contentRoot string) error {
	path := filepath.Join(dir, MCPFileName)
	cfg, err := loadMCPConfig(path)
	if err != nil {
		return err
	}

	entry, err := json.Marshal(mcpServer{
		Command: detectBinaryPath(),
		Args:    []string{"mcp"},
		Env: map[string]string{
			"FOLIO_CONTENT_ROOT": contentRoot,
		},
	})
	if err != nil {
		return err
	}
	cfg.Servers[ServerName] = entry

	if err := cfg.write(path); err != nil {
		return err
	}
	fmt.Fprintf(w, "  → %s (MCP server %q)\n", path, ServerName)
	return nil
}

// UnregisterMCP removes the folio entry from dir/.mcp.json.
func UnregisterMCP(w io.Writer, dir string) error {
	path := filepath.Join(dir, MCPFileName)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("read %s: %w", MCPFileName, err)
	}
	cfg, err := loadMCPConfig(path)
	if err != nil {
		return err
	}
	if _, ok := cfg.Servers[ServerName]; !ok {
		fmt.Fprintf(w, "  folio not registered in %s\n", MCPFileName)
		return nil
	}
	delete(cfg.Servers, ServerName)
	if err := cfg.write(path); err != nil {
		return err
	}
	fmt.Fprintf(w, "  Removed folio from %s\n", MCPFileName)
	return nil
}

// MCPInstalled reports whether folio is registered in dir/.mcp.json.
func MCPInstalled(dir string) bool {
	cfg, err := loadMCPConfig(filepath.Join(dir, MCPFileName))
	if err != nil {
		return false
	}
	_, ok := cfg.Servers[ServerName]
	return ok
}

// detectBinaryPath prefers the running binary, then PATH, then the bare name.
func detectBinaryPath() string {
	if p, err := os.Executable(); err == nil && filepath.Base(p) == "folio" {
		return p
	}
	if p, err := exec.LookPath("folio"); err == nil {
		return p
	}
	return "folio"
}

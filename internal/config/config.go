// Package config provides configuration for the folio binary.
// Loads from: CLI flags > env vars > folio.toml > built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/sgx-labs/folio/internal/content"
	"github.com/sgx-labs/folio/internal/logging"
)

// ConfigFileName is the file looked up in the working directory.
const ConfigFileName = "folio.toml"

// Site defaults.
const (
	DefaultRoutePrefix = "/blog"
	DefaultRecentLimit = 10
	DefaultAddr        = "127.0.0.1:4040"
	DefaultOutputDir   = "public"
	DefaultEngine      = "goldmark"
)

var (
	// ErrNoContentRoot is returned when no usable content root is configured.
	ErrNoContentRoot = errors.New("no content root configured")

	// ErrInvalidConfig is returned when a setting has an unusable value.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Engines lists the markup renderers that can be selected.
var Engines = []string{"goldmark", "gomarkdown"}

// Config holds all folio configuration, loaded from TOML + env + flags.
type Config struct {
	Content ContentConfig `toml:"content"`
	Site    SiteConfig    `toml:"site"`
	Render  RenderConfig  `toml:"render"`
	Server  ServerConfig  `toml:"server"`
	Build   BuildConfig   `toml:"build"`
	Log     LogConfig     `toml:"log"`
}

// ContentConfig locates the document store.
type ContentConfig struct {
	Root      string   `toml:"root"`
	Extension string   `toml:"extension"`
	SkipDirs  []string `toml:"skip_dirs"`
}

// SiteConfig holds presentation settings shared by the server and the builder.
type SiteConfig struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	BaseURL     string `toml:"base_url"`
	RoutePrefix string `toml:"route_prefix"`
	RecentLimit int    `toml:"recent_limit"`
}

// RenderConfig selects and tunes the markup renderer.
type RenderConfig struct {
	Engine            string `toml:"engine"` // "goldmark" (default) or "gomarkdown"
	HardWraps         bool   `toml:"hard_wraps"`
	OpenLinksInNewTab bool   `toml:"open_links_in_new_tab"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr string `toml:"addr"`
	// LocalOnly rejects requests whose Host header is not a loopback name.
	LocalOnly bool `toml:"local_only"`
}

// BuildConfig holds static build settings.
type BuildConfig struct {
	OutputDir string `toml:"output_dir"`
	StaticDir string `toml:"static_dir"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // console or json
}

// FileOverride is set by the --config flag.
var FileOverride string

// RootOverride is set by the --root flag and wins over every other source.
var RootOverride string

// DefaultConfig returns a Config with all built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Content: ContentConfig{
			Root:      "posts",
			Extension: content.DefaultExtension,
		},
		Site: SiteConfig{
			Title:       "Blog",
			Description: "Notes and articles",
			RoutePrefix: DefaultRoutePrefix,
			RecentLimit: DefaultRecentLimit,
		},
		Render: RenderConfig{
			Engine: DefaultEngine,
		},
		Server: ServerConfig{
			Addr: DefaultAddr,
		},
		Build: BuildConfig{
			OutputDir: DefaultOutputDir,
			StaticDir: "static",
		},
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatConsole,
		},
	}
}

// LoadConfig merges all configuration sources: defaults < TOML file < env vars < flags.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(findConfigFile())
}

// LoadConfigFrom loads configuration from a specific file path, merging with
// defaults, env vars and flag overrides. A missing file is not an error.
func LoadConfigFrom(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			meta, err := toml.DecodeFile(configPath, cfg)
			if err != nil {
				return nil, fmt.Errorf("parse config %s: %w", configPath, err)
			}
			warnUnknownKeys(meta, configPath)
		} else if configPath == FileOverride {
			return nil, fmt.Errorf("config %s: %w", configPath, err)
		}
	}

	applyEnv(cfg)
	if RootOverride != "" {
		cfg.Content.Root = RootOverride
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FOLIO_CONTENT_ROOT"); v != "" {
		cfg.Content.Root = v
	}
	if v := os.Getenv("FOLIO_EXTENSION"); v != "" {
		cfg.Content.Extension = v
	}
	if v := os.Getenv("FOLIO_SKIP_DIRS"); v != "" {
		for _, d := range strings.Split(v, ",") {
			d = strings.TrimSpace(d)
			if d != "" {
				cfg.Content.SkipDirs = append(cfg.Content.SkipDirs, d)
			}
		}
	}
	if v := os.Getenv("FOLIO_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("FOLIO_RENDER_ENGINE"); v != "" {
		cfg.Render.Engine = v
	}
	if v := os.Getenv("FOLIO_OUTPUT_DIR"); v != "" {
		cfg.Build.OutputDir = v
	}
	if v := os.Getenv("FOLIO_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("FOLIO_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// Validate checks the settings that cannot be fixed up silently.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Content.Root) == "" {
		return ErrNoContentRoot
	}
	if !strings.HasPrefix(c.Content.Extension, ".") || len(c.Content.Extension) < 2 {
		return fmt.Errorf("%w: content.extension %q must start with a dot", ErrInvalidConfig, c.Content.Extension)
	}
	if !validEngine(c.Render.Engine) {
		return fmt.Errorf("%w: render.engine %q (want one of %s)", ErrInvalidConfig, c.Render.Engine, strings.Join(Engines, ", "))
	}
	if c.Site.RecentLimit < 0 {
		return fmt.Errorf("%w: site.recent_limit must not be negative", ErrInvalidConfig)
	}
	if !logging.ValidLevel(c.Log.Level) {
		return fmt.Errorf("%w: log.level %q", ErrInvalidConfig, c.Log.Level)
	}
	if !logging.ValidFormat(c.Log.Format) {
		return fmt.Errorf("%w: log.format %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

func validEngine(name string) bool {
	for _, e := range Engines {
		if e == name {
			return true
		}
	}
	return false
}

// ContentRoot returns the absolute content root.
// SECURITY: filesystem roots and shallow system directories are rejected so a
// typo cannot make the walker crawl the whole disk.
func (c *Config) ContentRoot() (string, error) {
	root := strings.TrimSpace(c.Content.Root)
	if root == "" {
		return "", ErrNoContentRoot
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("content root %q: %w", root, err)
	}
	if isDangerousRoot(abs) {
		return "", fmt.Errorf("%w: %q is too broad", ErrNoContentRoot, abs)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil && isDangerousRoot(resolved) {
		return "", fmt.Errorf("%w: %q resolves to %q which is too broad", ErrNoContentRoot, abs, resolved)
	}
	return abs, nil
}

func isDangerousRoot(abs string) bool {
	dangerous := []string{"/", "/home", "/Users", "/tmp", "/var", "/etc", "/opt"}
	if runtime.GOOS == "windows" && len(abs) >= 3 {
		for _, letter := range "ABCDEFGHIJKLMNOPQRSTUVWXYZ" {
			dangerous = append(dangerous, string(letter)+":\\")
		}
		driveRoot := abs[:3]
		dangerous = append(dangerous, filepath.Join(driveRoot, "Users"), filepath.Join(driveRoot, "Windows"))
	}
	for _, d := range dangerous {
		if abs == d {
			return true
		}
		// macOS links /tmp to /private/tmp.
		if resolved, err := filepath.EvalSymlinks(d); err == nil && abs == resolved {
			return true
		}
	}
	return false
}

// SkipDirSet merges the built-in skip list with configured extras.
func (c *Config) SkipDirSet() map[string]bool {
	dirs := make(map[string]bool, len(content.DefaultSkipDirs)+len(c.Content.SkipDirs))
	for k, v := range content.DefaultSkipDirs {
		dirs[k] = v
	}
	for _, d := range c.Content.SkipDirs {
		d = strings.TrimSpace(d)
		if d != "" {
			dirs[d] = true
		}
	}
	return dirs
}

// RoutePrefix returns the listing prefix with one leading slash and no
// trailing slash. An empty or "/" prefix mounts the blog at the site root.
func (c *Config) RoutePrefix() string {
	p := strings.Trim(strings.TrimSpace(c.Site.RoutePrefix), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

// RecentLimit returns the number of posts on the overview page.
func (c *Config) RecentLimit() int {
	if c.Site.RecentLimit <= 0 {
		return DefaultRecentLimit
	}
	return c.Site.RecentLimit
}

// findConfigFile returns --config if given, else ./folio.toml, else ./.folio/config.toml.
func findConfigFile() string {
	if FileOverride != "" {
		return FileOverride
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for _, p := range []string{
		filepath.Join(cwd, ConfigFileName),
		filepath.Join(cwd, ".folio", "config.toml"),
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// FindConfigFile returns the path to the active config file, or empty string if none found.
func FindConfigFile() string {
	return findConfigFile()
}

// ConfigFilePath returns where GenerateConfig writes for dir.
func ConfigFilePath(dir string) string {
	return filepath.Join(dir, ConfigFileName)
}

// GenerateConfig writes a commented default folio.toml into dir. An existing
// file is left alone.
func GenerateConfig(dir string) (string, error) {
	configPath := ConfigFilePath(dir)
	if _, err := os.Stat(configPath); err == nil {
		return configPath, fmt.Errorf("%s already exists", configPath)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(generateTOMLContent()), 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return configPath, nil
}

func generateTOMLContent() string {
	d := DefaultConfig()
	var b strings.Builder
	b.WriteString("# folio configuration\n")
	b.WriteString("#\n")
	b.WriteString("# Priority: CLI flags > environment variables > this file > built-in defaults\n")
	b.WriteString("# Environment variables: FOLIO_CONTENT_ROOT, FOLIO_EXTENSION, FOLIO_SKIP_DIRS,\n")
	b.WriteString("#   FOLIO_ADDR, FOLIO_RENDER_ENGINE, FOLIO_OUTPUT_DIR, FOLIO_LOG_LEVEL, FOLIO_LOG_FORMAT\n\n")

	b.WriteString("[content]\n")
	b.WriteString(fmt.Sprintf("root = %q\n", d.Content.Root))
	b.WriteString(fmt.Sprintf("extension = %q\n", d.Content.Extension))
	b.WriteString("# skip_dirs = [\"drafts\", \"assets\"]  # added to built-in exclusions\n\n")

	b.WriteString("[site]\n")
	b.WriteString(fmt.Sprintf("title = %q\n", d.Site.Title))
	b.WriteString(fmt.Sprintf("description = %q\n", d.Site.Description))
	b.WriteString("# base_url = \"https://example.com\"\n")
	b.WriteString(fmt.Sprintf("route_prefix = %q\n", d.Site.RoutePrefix))
	b.WriteString(fmt.Sprintf("recent_limit = %d\n\n", d.Site.RecentLimit))

	b.WriteString("[render]\n")
	b.WriteString("# Markup engine: \"goldmark\" (default) or \"gomarkdown\"\n")
	b.WriteString(fmt.Sprintf("engine = %q\n", d.Render.Engine))
	b.WriteString("hard_wraps = false\n")
	b.WriteString("open_links_in_new_tab = false\n\n")

	b.WriteString("[server]\n")
	b.WriteString(fmt.Sprintf("addr = %q\n", d.Server.Addr))
	b.WriteString("local_only = false  # reject requests not addressed to localhost\n\n")

	b.WriteString("[build]\n")
	b.WriteString(fmt.Sprintf("output_dir = %q\n", d.Build.OutputDir))
	b.WriteString(fmt.Sprintf("static_dir = %q\n\n", d.Build.StaticDir))

	b.WriteString("[log]\n")
	b.WriteString(fmt.Sprintf("level = %q\n", d.Log.Level))
	b.WriteString(fmt.Sprintf("format = %q  # or \"json\"\n", d.Log.Format))
	return b.String()
}

// ShowConfig returns the effective configuration as TOML.
func ShowConfig() string {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Sprintf("# Error loading config: %v\n", err)
	}
	if root, err := cfg.ContentRoot(); err == nil {
		cfg.Content.Root = root
	}

	var b strings.Builder
	b.WriteString("# Effective folio configuration (merged from all sources)\n")
	if p := findConfigFile(); p != "" {
		b.WriteString(fmt.Sprintf("# Loaded from %s\n", p))
	}
	b.WriteString("\n")
	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Sprintf("# Error encoding config: %v\n", err)
	}
	return b.String()
}

// configSuggestions maps common wrong keys to the correct TOML key name.
var configSuggestions = map[string]string{
	"dir":           "root",
	"path":          "root",
	"content_dir":   "root",
	"posts_dir":     "root",
	"ext":           "extension",
	"exclude_dirs":  "skip_dirs",
	"ignore_dirs":   "skip_dirs",
	"excludes":      "skip_dirs",
	"prefix":        "route_prefix",
	"base_path":     "route_prefix",
	"baseurl":       "base_url",
	"base-url":      "base_url",
	"recent":        "recent_limit",
	"renderer":      "engine",
	"listen":        "addr",
	"port":          "addr",
	"out":           "output_dir",
	"localhost":     "local_only",
	"public_dir":    "output_dir",
	"assets_dir":    "static_dir",
	"hardwraps":     "hard_wraps",
	"target_blank":  "open_links_in_new_tab",
	"log_level":     "level",
	"verbosity":     "level",
	"encoding":      "format",
	"output_format": "format",
}

// warnUnknownKeys prints warnings for unrecognized config keys.
func warnUnknownKeys(meta toml.MetaData, configPath string) {
	for _, msg := range unknownKeyWarnings(meta, configPath) {
		fmt.Fprintln(os.Stderr, msg)
	}
}

func unknownKeyWarnings(meta toml.MetaData, configPath string) []string {
	undecoded := meta.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}

	fname := filepath.Base(configPath)
	var out []string
	for _, key := range undecoded {
		keyStr := key.String()
		lastPart := key[len(key)-1]

		if suggestion, ok := configSuggestions[lastPart]; ok {
			out = append(out, fmt.Sprintf("folio: WARNING: unknown key %q in %s, did you mean %q?", keyStr, fname, suggestion))
		} else {
			out = append(out, fmt.Sprintf("folio: WARNING: unknown key %q in %s (will be ignored)", keyStr, fname))
		}
	}
	sort.Strings(out)
	return out
}

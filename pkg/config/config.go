// Package config reads the csrefactor.toml project manifest.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/mamaar/csrefactor/pkg/types"
)

// FileName is the manifest looked up from the working directory upwards.
const FileName = "csrefactor.toml"

// DefaultGeneratedPatterns match files produced by code generators.
var DefaultGeneratedPatterns = []string{"*.g.cs", "*.g.i.cs", "*.designer.cs", "*.generated.cs"}

type Config struct {
	// Path is the manifest file, or empty when defaults are in use.
	Path string `toml:"-"`
	// Root is the directory relative paths resolve against.
	Root string `toml:"-"`

	Project    ProjectConfig         `toml:"project"`
	References ReferencesConfig      `toml:"references"`
	Generated  GeneratedConfig       `toml:"generated"`
	Rules      map[string]RuleConfig `toml:"rules"`
}

type ProjectConfig struct {
	// Name is the assembly name of the compilation.
	Name    string   `toml:"name"`
	Sources []string `toml:"sources"`
}

type ReferencesConfig struct {
	Assemblies []string `toml:"assemblies"`
}

type GeneratedConfig struct {
	Patterns []string `toml:"patterns"`
}

// RuleConfig overrides one rule. A nil Enabled keeps the rule's default.
type RuleConfig struct {
	Enabled  *bool  `toml:"enabled"`
	Severity string `toml:"severity"`
}

// Default is the configuration of a directory without a manifest.
func Default(root string) *Config {
	return &Config{
		Root:      root,
		Project:   ProjectConfig{Name: filepath.Base(root)},
		Generated: GeneratedConfig{Patterns: DefaultGeneratedPatterns},
	}
}

// Find walks from startDir towards the filesystem root looking for the
// manifest.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load finds and reads the manifest for startDir, falling back to defaults
// rooted at startDir.
func Load(startDir string) (*Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, &types.RefactorError{Type: types.ConfigError, Message: err.Error(), Cause: err}
	}
	if !ok {
		root, err := filepath.Abs(startDir)
		if err != nil {
			return nil, &types.RefactorError{Type: types.ConfigError, Message: err.Error(), Cause: err}
		}
		return Default(root), nil
	}
	return LoadFile(path)
}

// LoadFile decodes and validates one manifest.
func LoadFile(path string) (*Config, error) {
	cfg := Default(filepath.Dir(path))
	cfg.Path = path
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, &types.RefactorError{
			Type:    types.ConfigError,
			Message: fmt.Sprintf("failed to parse TOML: %v", err),
			File:    path,
			Cause:   err,
		}
	}

	var issues []types.Issue
	add := func(format string, args ...any) {
		issues = append(issues, types.Issue{
			Type:        types.IssueConfig,
			Description: fmt.Sprintf(format, args...),
			File:        path,
			Severity:    types.Error,
		})
	}
	if meta.IsDefined("project") && (!meta.IsDefined("project", "name") || strings.TrimSpace(cfg.Project.Name) == "") {
		add("missing [project].name")
	}
	for id, rc := range cfg.Rules {
		if rc.Severity == "" {
			continue
		}
		if _, err := types.ParseSeverity(rc.Severity); err != nil {
			add("[rules.%s].severity: %v", id, err)
		}
	}
	for _, key := range meta.Undecoded() {
		add("unknown key %s", key)
	}
	for _, p := range cfg.Generated.Patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			add("[generated].patterns: bad pattern %q", p)
		}
	}
	if len(issues) > 0 {
		return nil, &types.ValidationError{Issues: issues}
	}
	return cfg, nil
}

func (c *Config) resolve(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.Root, filepath.FromSlash(rel))
}

// SourceRoots are the absolute directories scanned for .cs files.
func (c *Config) SourceRoots() []string {
	if len(c.Project.Sources) == 0 {
		return []string{c.Root}
	}
	roots := make([]string, len(c.Project.Sources))
	for i, s := range c.Project.Sources {
		roots[i] = c.resolve(s)
	}
	return roots
}

// ReferencePaths are the absolute paths of the reference assembly files.
func (c *Config) ReferencePaths() []string {
	paths := make([]string, len(c.References.Assemblies))
	for i, a := range c.References.Assemblies {
		paths[i] = c.resolve(a)
	}
	return paths
}

// IsGenerated reports whether path names a generated file. Patterns match
// the base name without regard to case.
func (c *Config) IsGenerated(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	for _, p := range c.Generated.Patterns {
		if ok, _ := filepath.Match(strings.ToLower(p), base); ok {
			return true
		}
	}
	return false
}

// Rule returns the override for id, if any.
func (c *Config) Rule(id string) (RuleConfig, bool) {
	rc, ok := c.Rules[id]
	return rc, ok
}

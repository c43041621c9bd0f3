package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamaar/csrefactor/pkg/config"
	"github.com/mamaar/csrefactor/pkg/types"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FindsManifestUpwards(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `
[project]
name = "Foo"
sources = ["src"]

[references]
assemblies = ["refs/zeta.yaml"]

[rules.CSR2001]
enabled = false
severity = "warning"
`)
	nested := filepath.Join(root, "src", "deep")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, err := config.Load(nested)
	require.NoError(t, err)
	assert.Equal(t, "Foo", cfg.Project.Name)
	assert.Equal(t, []string{filepath.Join(root, "src")}, cfg.SourceRoots())
	assert.Equal(t, []string{filepath.Join(root, "refs", "zeta.yaml")}, cfg.ReferencePaths())

	rc, ok := cfg.Rule("CSR2001")
	require.True(t, ok)
	require.NotNil(t, rc.Enabled)
	assert.False(t, *rc.Enabled)
	assert.Equal(t, "warning", rc.Severity)

	// generated patterns keep their defaults when the manifest is silent
	assert.True(t, cfg.IsGenerated("obj/Foo.g.cs"))
}

func TestLoad_Defaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "MyApp")
	require.NoError(t, os.Mkdir(dir, 0o755))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Empty(t, cfg.Path)
	assert.Equal(t, "MyApp", cfg.Project.Name)
	assert.Equal(t, []string{dir}, cfg.SourceRoots())
}

func TestLoadFile_Validation(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
[project]
sources = ["."]

[rules.CSR1001]
severity = "loud"

[extra]
key = 1
`)
	_, err := config.LoadFile(path)
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)

	var descriptions []string
	for _, issue := range verr.Issues {
		assert.Equal(t, types.IssueConfig, issue.Type)
		descriptions = append(descriptions, issue.Description)
	}
	assert.Contains(t, descriptions, "missing [project].name")
	assert.Contains(t, descriptions, "unknown key extra.key")
	found := false
	for _, d := range descriptions {
		found = found || strings.HasPrefix(d, "[rules.CSR1001].severity")
	}
	assert.True(t, found, descriptions)
}

func TestLoadFile_Malformed(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "[project\nname = ")
	_, err := config.LoadFile(path)
	assert.True(t, types.IsType(err, types.ConfigError))
}

func TestIsGenerated(t *testing.T) {
	cfg := config.Default("/src")
	tests := map[string]bool{
		"Form1.Designer.cs":      true,
		"obj/Debug/App.g.i.cs":   true,
		"Api.generated.cs":       true,
		"Program.cs":             false,
		"generated/Program.cs":   false,
		"Resources.designer.cs2": false,
	}
	for path, want := range tests {
		assert.Equal(t, want, cfg.IsGenerated(path), path)
	}
}

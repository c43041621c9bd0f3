package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamaar/csrefactor/internal/cli"
)

const program = `using Zeta;
using System;

class Program
{
    string Name(string s) => s != null ? s : "none";
}
`

func setupProject(t *testing.T, manifest string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Program.cs"), []byte(program), 0o644))
	if manifest != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "csrefactor.toml"), []byte(manifest), 0o644))
	}
	return dir
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := cli.NewApp(&out, &errOut)
	runner := cli.NewRunner(app)
	Register(runner, app)
	code := runner.Execute(context.Background(), append([]string{"--color=off"}, args...))
	return code, out.String(), errOut.String()
}

func TestAnalyze_Text(t *testing.T) {
	dir := setupProject(t, "")
	code, out, _ := run(t, "analyze", dir)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "info[CSR1001]: Using directives are not sorted")
	assert.Contains(t, out, "info[CSR2001]: '?:' expression can be converted to '??' expression")
	assert.Contains(t, out, "--> Program.cs:6:30")
	assert.Contains(t, out, `    string Name(string s) => s != null ? s : "none";`)
	assert.Contains(t, out, strings.Repeat(" ", 29)+strings.Repeat("^", len(`s != null ? s : "none"`)))
	assert.Contains(t, out, "2 findings in 1 files (2 info)")
}

func TestAnalyze_JSON(t *testing.T) {
	dir := setupProject(t, "")
	code, out, _ := run(t, "--json", "analyze", "--rule", "CSR2001", dir)
	require.Equal(t, 0, code)

	var report struct {
		Findings []struct {
			File     string `json:"file"`
			Line     int    `json:"line"`
			Rule     string `json:"rule"`
			Severity string `json:"severity"`
		} `json:"findings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Findings, 1)
	assert.Equal(t, "Program.cs", report.Findings[0].File)
	assert.Equal(t, 6, report.Findings[0].Line)
	assert.Equal(t, "info", report.Findings[0].Severity)
}

func TestAnalyze_ErrorSeverityExitCode(t *testing.T) {
	dir := setupProject(t, "[project]\nname = \"App\"\n\n[rules.CSR2001]\nseverity = \"error\"\n")
	code, out, errOut := run(t, "analyze", dir)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "error[CSR2001]")
	assert.Empty(t, errOut)
}

func TestAnalyze_BadManifest(t *testing.T) {
	dir := setupProject(t, "[project]\nname = \"App\"\n\n[rules.CSR9999]\nenabled = true\n")
	code, _, errOut := run(t, "analyze", dir)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, `unknown rule "CSR9999"`)
}

func TestFix_DryRunThenApply(t *testing.T) {
	dir := setupProject(t, "")
	path := filepath.Join(dir, "Program.cs")

	code, out, _ := run(t, "fix", "--dry-run", dir)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "-using Zeta;")
	assert.Contains(t, out, `+    string Name(string s) => s ?? "none";`)
	assert.Contains(t, out, "Dry run: 2 fixes in 1 files not applied")
	disk, _ := os.ReadFile(path)
	assert.Equal(t, program, string(disk))

	code, out, _ = run(t, "fix", dir)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "fixed Program.cs")
	disk, _ = os.ReadFile(path)
	assert.True(t, strings.HasPrefix(string(disk), "using System;\nusing Zeta;\n"))
	assert.Contains(t, string(disk), `s ?? "none"`)
	assert.NoFileExists(t, path+".backup")

	code, out, _ = run(t, "fix", dir)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Nothing to fix")
}

func TestFix_SingleRuleJSON(t *testing.T) {
	dir := setupProject(t, "")
	code, out, _ := run(t, "--json", "--backup", "fix", "-r", "CSR2001", "-f", filepath.Join(dir, "Program.cs"), dir)
	require.Equal(t, 0, code)

	var plan struct {
		Applied int `json:"applied"`
		Changes []struct {
			File    string `json:"file"`
			NewText string `json:"new_text"`
		} `json:"changes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	assert.Equal(t, 1, plan.Applied)
	require.Len(t, plan.Changes, 1)
	assert.Equal(t, "Program.cs", plan.Changes[0].File)
	assert.FileExists(t, filepath.Join(dir, "Program.cs.backup"))
}

func TestSortUsings(t *testing.T) {
	dir := setupProject(t, "")
	path := filepath.Join(dir, "Program.cs")

	code, out, _ := run(t, "sort-usings", path)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Applied 1 fixes in 1 files")

	code, out, _ = run(t, "sort-usings", path)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Usings in Program.cs are already sorted")
	disk, _ := os.ReadFile(path)
	assert.Contains(t, string(disk), `s != null ? s : "none"`, "only usings are touched")
}

func TestRules(t *testing.T) {
	dir := setupProject(t, "[project]\nname = \"App\"\n\n[rules.CSR2002]\nenabled = false\n")
	code, out, _ := run(t, "rules", dir)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "CSR1001")
	assert.Contains(t, out, "Practices And Improvements")
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "CSR2002") {
			assert.Contains(t, line, "off")
		}
	}

	code, out, _ = run(t, "--json", "rules", dir)
	require.Equal(t, 0, code)
	var rules []struct {
		ID      string `json:"id"`
		Enabled bool   `json:"enabled"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rules))
	require.Len(t, rules, 3)
	assert.True(t, rules[0].Enabled)
	assert.False(t, rules[2].Enabled)
}

func TestParse(t *testing.T) {
	dir := setupProject(t, "")
	code, out, _ := run(t, "parse", "--tree", filepath.Join(dir, "Program.cs"))
	require.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out, "CompilationUnit [0.."))
	assert.Contains(t, out, "  UsingDirective [0..11)")
	assert.Contains(t, out, `NullKeyword`)
	assert.Contains(t, out, "0 skipped runs")
}

func TestParse_MissingFile(t *testing.T) {
	code, _, errOut := run(t, "parse", filepath.Join(t.TempDir(), "Nope.cs"))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Error:")
}

func TestVersion(t *testing.T) {
	code, out, _ := run(t, "version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "csrefactor version "+cli.Version+"\n", out)
}

package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamaar/csrefactor/pkg/codefix"
	"github.com/mamaar/csrefactor/pkg/config"
	"github.com/mamaar/csrefactor/pkg/rules"
	"github.com/mamaar/csrefactor/pkg/types"
)

func ids(r *rules.Registry) []string {
	var out []string
	for _, rule := range r.Rules() {
		out = append(out, rule.ID())
	}
	return out
}

func TestDefault(t *testing.T) {
	reg := rules.Default()
	assert.Equal(t, []string{"CSR1001", "CSR2001", "CSR2002"}, ids(reg))
	for _, rule := range reg.Rules() {
		assert.NotNil(t, rule.Analyzer, rule.ID())
		assert.NotNil(t, rule.Fix, rule.ID())
		assert.NotEmpty(t, rule.FixTitle, rule.ID())
	}

	rule, ok := reg.Lookup("csr2002")
	require.True(t, ok)
	assert.Equal(t, "simplifyternary", rule.Analyzer.Name)
}

func TestConfigure(t *testing.T) {
	off := false
	cfg := config.Default(t.TempDir())
	cfg.Rules = map[string]config.RuleConfig{
		"CSR1001": {Enabled: &off},
		"CSR2001": {Severity: "warning"},
	}
	reg, err := rules.Default().Configure(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"CSR2001", "CSR2002"}, ids(reg))

	rule, _ := reg.Lookup("CSR2001")
	assert.Equal(t, types.Warning, rule.Descriptor.Severity)
	assert.NotSame(t, rules.Default().Rules()[1].Analyzer, rule.Analyzer)

	// The default registry is untouched.
	orig, _ := rules.Default().Lookup("CSR2001")
	assert.Equal(t, types.Info, orig.Descriptor.Severity)
	assert.Equal(t, 3, rules.Default().Len())
}

func TestConfigure_UnknownRule(t *testing.T) {
	cfg := config.Default(t.TempDir())
	cfg.Rules = map[string]config.RuleConfig{"CSR9999": {}}
	_, err := rules.Default().Configure(cfg)
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Issues, 1)
	assert.Contains(t, verr.Issues[0].Description, "CSR9999")
}

func TestSelect(t *testing.T) {
	reg, err := rules.Default().Select("CSR2002", "CSR2002")
	require.NoError(t, err)
	assert.Equal(t, []string{"CSR2002"}, ids(reg))

	all, err := rules.Default().Select()
	require.NoError(t, err)
	assert.Equal(t, 3, all.Len())

	_, err = rules.Default().Select("CSR0000")
	assert.True(t, types.IsType(err, types.InvalidOperation))
}

func TestFixerFor(t *testing.T) {
	reg := rules.Default()
	rule, _ := reg.Lookup("CSR1001")
	assert.NotNil(t, reg.FixerFor(&codefix.MatchSite{Descriptor: rule.Descriptor}))
	assert.Nil(t, reg.FixerFor(&codefix.MatchSite{Descriptor: &types.Descriptor{ID: "X"}}))
}

func TestCategoryTitle(t *testing.T) {
	assert.Equal(t, "Practices And Improvements", rules.CategoryTitle("PracticesAndImprovements"))
	assert.Equal(t, "Opportunities", rules.CategoryTitle("Opportunities"))
	assert.Equal(t, "Code Style", rules.CategoryTitle("CodeStyle"))
}

// Package rules is the catalog of analyzers with their descriptors and
// fixers. A Registry never changes once built; applying configuration
// produces a new one.
package rules

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/tools/go/analysis"

	"github.com/mamaar/csrefactor/pkg/analyzers/nullcoalesce"
	"github.com/mamaar/csrefactor/pkg/analyzers/simplifyternary"
	"github.com/mamaar/csrefactor/pkg/analyzers/sortusings"
	"github.com/mamaar/csrefactor/pkg/codefix"
	"github.com/mamaar/csrefactor/pkg/config"
	"github.com/mamaar/csrefactor/pkg/types"
)

// Rule pairs a diagnostic with the analyzer reporting it and the fixer
// rewriting its sites.
type Rule struct {
	Descriptor *types.Descriptor
	Analyzer   *analysis.Analyzer
	Fix        codefix.Fixer
	// FixTitle is the title of the action the fixer is offered under.
	FixTitle string

	build func(types.Severity) *analysis.Analyzer
}

func (r *Rule) ID() string { return r.Descriptor.ID }

// withSeverity returns a copy of r reporting at s.
func (r *Rule) withSeverity(s types.Severity) *Rule {
	if s == r.Descriptor.Severity {
		return r
	}
	c := *r
	c.Descriptor = r.Descriptor.WithSeverity(s)
	c.Analyzer = r.build(s)
	return &c
}

// RegisterCodeFixes offers the rule's fix for the context's site.
func (r *Rule) RegisterCodeFixes(c *codefix.Context) {
	c.Offer(r.FixTitle, r.Fix)
}

type Registry struct {
	rules []*Rule
	byID  map[string]*Rule
}

func newRegistry(rules []*Rule) *Registry {
	slices.SortFunc(rules, func(a, b *Rule) int { return strings.Compare(a.ID(), b.ID()) })
	reg := &Registry{rules: rules, byID: make(map[string]*Rule, len(rules))}
	for _, r := range rules {
		reg.byID[r.ID()] = r
	}
	return reg
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	return newRegistry([]*Rule{
		{
			Descriptor: sortusings.Descriptor,
			Analyzer:   sortusings.Analyzer,
			Fix:        sortusings.Fix,
			FixTitle:   sortusings.Title,
			build: func(s types.Severity) *analysis.Analyzer {
				return sortusings.NewAnalyzer(sortusings.WithSeverity(s))
			},
		},
		{
			Descriptor: nullcoalesce.Descriptor,
			Analyzer:   nullcoalesce.Analyzer,
			Fix:        nullcoalesce.Fix,
			FixTitle:   nullcoalesce.Title,
			build: func(s types.Severity) *analysis.Analyzer {
				return nullcoalesce.NewAnalyzer(nullcoalesce.WithSeverity(s))
			},
		},
		{
			Descriptor: simplifyternary.Descriptor,
			Analyzer:   simplifyternary.Analyzer,
			Fix:        simplifyternary.Fix,
			FixTitle:   simplifyternary.Title,
			build: func(s types.Severity) *analysis.Analyzer {
				return simplifyternary.NewAnalyzer(simplifyternary.WithSeverity(s))
			},
		},
	})
})

// Default returns every built-in rule, enabled by default or not.
func Default() *Registry { return defaultRegistry() }

// Rules returns the rules ordered by ID.
func (r *Registry) Rules() []*Rule { return slices.Clone(r.rules) }

func (r *Registry) Len() int { return len(r.rules) }

func (r *Registry) Lookup(id string) (*Rule, bool) {
	rule, ok := r.byID[strings.ToUpper(id)]
	return rule, ok
}

// FixerFor returns the fixer for a site's rule, or nil. It has the shape
// codefix.FixAll expects.
func (r *Registry) FixerFor(site *codefix.MatchSite) codefix.Fixer {
	if rule, ok := r.byID[site.ID()]; ok {
		return rule.Fix
	}
	return nil
}

// Configure applies the rule overrides of cfg: rules disabled by default
// or by cfg are dropped and severities are replaced. Overrides naming an
// unknown rule are a validation error.
func (r *Registry) Configure(cfg *config.Config) (*Registry, error) {
	var issues []types.Issue
	var out []*Rule
	for id := range cfg.Rules {
		if _, ok := r.byID[id]; !ok {
			issues = append(issues, types.Issue{
				Type:        types.IssueConfig,
				Description: fmt.Sprintf("unknown rule %q", id),
				File:        cfg.Path,
				Severity:    types.Warning,
			})
		}
	}
	for _, rule := range r.rules {
		rc, ok := cfg.Rule(rule.ID())
		if !ok {
			if rule.Descriptor.EnabledByDefault {
				out = append(out, rule)
			}
			continue
		}
		if rc.Enabled != nil && !*rc.Enabled || rc.Enabled == nil && !rule.Descriptor.EnabledByDefault {
			continue
		}
		if rc.Severity != "" {
			// LoadFile has already rejected malformed severities.
			s, err := types.ParseSeverity(rc.Severity)
			if err != nil {
				return nil, err
			}
			rule = rule.withSeverity(s)
		}
		out = append(out, rule)
	}
	if len(issues) > 0 {
		slices.SortFunc(issues, func(a, b types.Issue) int { return strings.Compare(a.Description, b.Description) })
		return nil, &types.ValidationError{Issues: issues}
	}
	return newRegistry(out), nil
}

// Select keeps only the rules named by ids. An empty ids keeps every rule.
func (r *Registry) Select(ids ...string) (*Registry, error) {
	if len(ids) == 0 {
		return r, nil
	}
	var out []*Rule
	for _, id := range ids {
		rule, ok := r.Lookup(id)
		if !ok {
			return nil, types.NewError(types.InvalidOperation, "unknown or disabled rule %q", id)
		}
		if !slices.Contains(out, rule) {
			out = append(out, rule)
		}
	}
	return newRegistry(out), nil
}

// CategoryTitle spells a category such as PracticesAndImprovements as
// words for display.
func CategoryTitle(category string) string {
	var words []string
	start := 0
	for i, r := range category {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, category[start:i])
			start = i
		}
	}
	words = append(words, category[start:])
	return cases.Title(language.English).String(strings.Join(words, " "))
}

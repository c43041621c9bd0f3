package refactor

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/mamaar/csrefactor/pkg/parser"
	"github.com/mamaar/csrefactor/pkg/syntax"
	"github.com/mamaar/csrefactor/pkg/types"
)

// Validator checks a plan before it is written out.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidatePlan rejects plans whose changes overlap, and rewrites that no
// longer parse as cleanly as the text they replace.
func (v *Validator) ValidatePlan(res *FixResult) error {
	if res == nil || res.Plan == nil {
		return &types.RefactorError{
			Type:    types.InvalidOperation,
			Message: "refactoring plan is nil",
		}
	}

	var issues []types.Issue
	issues = append(issues, v.validateChanges(res.Plan.Changes)...)
	for _, path := range slices.Sorted(maps.Keys(res.Documents)) {
		issues = append(issues, v.validateSyntax(path, res.Original[path], res.Documents[path].Text())...)
	}
	if len(issues) > 0 {
		return &types.ValidationError{Issues: issues}
	}
	return nil
}

func (v *Validator) validateChanges(changes []types.Change) []types.Issue {
	var issues []types.Issue
	byFile := make(map[string][]types.Change)
	for _, c := range changes {
		byFile[c.File] = append(byFile[c.File], c)
	}
	for _, file := range slices.Sorted(maps.Keys(byFile)) {
		fc := byFile[file]
		slices.SortFunc(fc, func(a, b types.Change) int { return cmp.Compare(a.Start, b.Start) })
		for i := 1; i < len(fc); i++ {
			if fc[i].Start < fc[i-1].End {
				issues = append(issues, types.Issue{
					Type:        types.IssueParse,
					Description: fmt.Sprintf("overlapping changes [%d-%d] and [%d-%d]", fc[i-1].Start, fc[i-1].End, fc[i].Start, fc[i].End),
					File:        file,
					Severity:    types.Error,
				})
			}
		}
	}
	return issues
}

// validateSyntax reparses the rewritten text. The rewrite must round-trip
// and must not leave more unparsed token runs than the original had.
func (v *Validator) validateSyntax(path, before, after string) []types.Issue {
	issue := func(format string, args ...any) []types.Issue {
		return []types.Issue{{
			Type:        types.IssueParse,
			Description: fmt.Sprintf(format, args...),
			File:        path,
			Severity:    types.Error,
		}}
	}
	tree, err := parser.Parse(path, after)
	if err != nil {
		return issue("rewritten file does not parse: %v", err)
	}
	if tree.Text() != after {
		return issue("rewritten file does not round-trip")
	}
	orig, err := parser.Parse(path, before)
	if err != nil {
		// Nothing to compare against.
		return nil
	}
	if n, m := skipped(orig), skipped(tree); m > n {
		return issue("rewrite introduced %d unparsed token runs", m-n)
	}
	return nil
}

func skipped(t *syntax.Tree) int {
	n := 0
	for node := range t.DescendantNodes() {
		if node.Kind() == syntax.SkippedTokens {
			n++
		}
	}
	return n
}

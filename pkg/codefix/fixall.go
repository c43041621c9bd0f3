package codefix

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/mamaar/csrefactor/pkg/syntax"
	"github.com/mamaar/csrefactor/pkg/types"
	"github.com/mamaar/csrefactor/pkg/workspace"
)

// FixAllResult is the outcome of fixing every site of one document.
type FixAllResult struct {
	// Doc is the rewritten document, or the input when nothing applied.
	Doc     *workspace.Document
	Applied int
	Skipped []types.SkippedFix
}

// FixAll applies the fixer of every site to doc. Sites are tracked on the
// original tree and fixed from the end of the document backwards, each
// against the tree the previous fixes produced. A site whose node is gone,
// or whose fixer finds no match or refuses an unsafe rewrite, is skipped and
// reported. Any other error aborts with no result.
func FixAll(ctx context.Context, doc *workspace.Document, sites []*MatchSite, fixerFor func(*MatchSite) Fixer, logger *slog.Logger) (*FixAllResult, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	res := &FixAllResult{Doc: doc}
	if len(sites) == 0 {
		return res, nil
	}

	nodes := make([]*syntax.Node, 0, len(sites))
	for _, s := range sites {
		if !slices.Contains(nodes, s.Node) {
			nodes = append(nodes, s.Node)
		}
	}
	tracked, tracking, err := syntax.Track(doc.Tree, nodes...)
	if err != nil {
		return nil, err
	}

	// Later sites first; among sites starting together the inner one first.
	ordered := slices.Clone(sites)
	slices.SortStableFunc(ordered, func(a, b *MatchSite) int {
		sa, sb := a.Span(), b.Span()
		if c := cmp.Compare(sb.Start, sa.Start); c != 0 {
			return c
		}
		return cmp.Compare(sa.End, sb.End)
	})

	cur := doc.WithTree(tracked)
	skip := func(site *MatchSite, reason string) {
		logger.Debug("skipping fix", "file", doc.Path, "rule", site.ID(), "offset", site.Span().Start, "reason", reason)
		res.Skipped = append(res.Skipped, types.SkippedFix{
			File:         doc.Path,
			DiagnosticID: site.ID(),
			Start:        site.Span().Start,
			Reason:       reason,
		})
	}

	for _, site := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, types.CancelledError(err)
		}
		fix := fixerFor(site)
		if fix == nil {
			skip(site, "no fix registered")
			continue
		}
		node, err := tracking.Resolve(cur.Tree, site.Node)
		if err != nil {
			if types.IsType(err, types.StaleTrackedNode) {
				skip(site, err.Error())
				continue
			}
			return nil, err
		}
		resolved := *site
		resolved.Node = node

		next, err := fix(ctx, cur, &resolved)
		switch {
		case err == nil:
		case types.IsType(err, types.NoMatch), types.IsType(err, types.UnsafeRewrite), errors.Is(err, types.ErrStaleTrackedNode):
			skip(site, err.Error())
			continue
		default:
			return nil, err
		}
		cur = cur.WithTree(next)
		res.Applied++
	}

	if res.Applied > 0 {
		res.Doc = doc.WithTree(syntax.Untracked(cur.Tree))
	}
	return res, nil
}

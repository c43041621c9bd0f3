// Package codefix turns analyzer match sites into rewritten trees: single
// fix actions offered to a caller, and fix-all over every site in a
// document.
package codefix

import (
	"context"

	"github.com/mamaar/csrefactor/pkg/syntax"
	"github.com/mamaar/csrefactor/pkg/types"
	"github.com/mamaar/csrefactor/pkg/workspace"
)

// MatchSite is one place an analyzer matched. It refers to a node of the
// tree the analyzer ran on.
type MatchSite struct {
	Node       *syntax.Node
	Descriptor *types.Descriptor
	Message    string
	Severity   types.Severity
}

// NewMatchSite reports n under d with the descriptor's formatted message
// and default severity.
func NewMatchSite(n *syntax.Node, d *types.Descriptor, args ...any) *MatchSite {
	return &MatchSite{Node: n, Descriptor: d, Message: d.Message(args...), Severity: d.Severity}
}

func (s *MatchSite) Span() syntax.Span { return s.Node.Span() }

// ID is the descriptor ID of the site.
func (s *MatchSite) ID() string { return s.Descriptor.ID }

// Fixer rewrites one site of doc. It returns types.ErrNoMatch when the site
// no longer has the shape the fix needs, and a StaleTrackedNode error when
// a node it relies on cannot be found.
type Fixer func(ctx context.Context, doc *workspace.Document, site *MatchSite) (*syntax.Tree, error)

// Action is a fix offered for a span. Its edit is computed only when the
// action is applied.
type Action struct {
	Title        string
	DiagnosticID string
	Span         syntax.Span
	Severity     types.Severity

	compute func(ctx context.Context) (*syntax.Tree, error)
}

// Apply computes the action's edit and returns the rewritten tree.
func (a *Action) Apply(ctx context.Context) (*syntax.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.CancelledError(err)
	}
	return a.compute(ctx)
}

// Context is handed to fix providers. Providers call RegisterFix once per
// action they offer.
type Context struct {
	Doc  *workspace.Document
	Site *MatchSite

	actions []*Action
}

func NewContext(doc *workspace.Document, site *MatchSite) *Context {
	return &Context{Doc: doc, Site: site}
}

// RegisterFix offers an action covering span.
func (c *Context) RegisterFix(span syntax.Span, severity types.Severity, title string, compute func(ctx context.Context) (*syntax.Tree, error)) {
	id := ""
	if c.Site != nil {
		id = c.Site.ID()
	}
	c.actions = append(c.actions, &Action{
		Title:        title,
		DiagnosticID: id,
		Span:         span,
		Severity:     severity,
		compute:      compute,
	})
}

// Actions returns the registered actions in registration order.
func (c *Context) Actions() []*Action { return c.actions }

// Offer registers fix for the context's site under title.
func (c *Context) Offer(title string, fix Fixer) {
	site := c.Site
	c.RegisterFix(site.Span(), site.Severity, title, func(ctx context.Context) (*syntax.Tree, error) {
		return fix(ctx, c.Doc, site)
	})
}

// Package analyzers runs C# analyzers, written as x/tools analysis.Analyzer
// values, over workspace documents.
package analyzers

import (
	"context"
	"fmt"
	gotypes "go/types"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/analysis"

	"github.com/mamaar/csrefactor/pkg/analyzers/document"
	"github.com/mamaar/csrefactor/pkg/codefix"
	"github.com/mamaar/csrefactor/pkg/types"
	"github.com/mamaar/csrefactor/pkg/workspace"
)

// RunResult holds the output of running an analyzer across one or more
// documents.
type RunResult struct {
	Sites       []*codefix.MatchSite
	Diagnostics []analysis.Diagnostic
	// Docs holds the document each site in Sites was found in.
	Docs []*workspace.Document
}

// Run executes an analyzer against workspace documents. If fileFilter is
// non-empty only that document is analysed; otherwise all are, in parallel.
// Generated documents are skipped.
func Run(ctx context.Context, ws *workspace.Workspace, a *analysis.Analyzer, fileFilter string) (*RunResult, error) {
	var docs []*workspace.Document
	if fileFilter != "" {
		doc, ok := ws.Document(fileFilter)
		if !ok {
			return &RunResult{}, nil
		}
		docs = []*workspace.Document{doc}
	} else {
		docs = ws.Documents()
	}

	results := make([]*RunResult, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	for i, doc := range docs {
		g.Go(func() error {
			rr, err := RunDocument(gctx, doc, a)
			if err != nil {
				return err
			}
			results[i] = rr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	combined := &RunResult{}
	for _, rr := range results {
		combined.Sites = append(combined.Sites, rr.Sites...)
		combined.Diagnostics = append(combined.Diagnostics, rr.Diagnostics...)
		combined.Docs = append(combined.Docs, rr.Docs...)
	}
	return combined, nil
}

// RunDocument executes an analyzer against a single document.
func RunDocument(ctx context.Context, doc *workspace.Document, a *analysis.Analyzer) (*RunResult, error) {
	if doc.Generated {
		return &RunResult{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, types.CancelledError(err)
	}

	var diags []analysis.Diagnostic
	pass, err := buildPass(ctx, doc, a, func(d analysis.Diagnostic) {
		diags = append(diags, d)
	})
	if err != nil {
		return nil, err
	}

	res, err := a.Run(pass)
	if err != nil {
		return nil, err
	}
	sites, ok := res.([]*codefix.MatchSite)
	if !ok && res != nil {
		return nil, fmt.Errorf("analyzer %s: unexpected result type %T", a.Name, res)
	}
	rr := &RunResult{Sites: sites, Diagnostics: diags}
	for range sites {
		rr.Docs = append(rr.Docs, doc)
	}
	return rr, nil
}

func buildPass(ctx context.Context, doc *workspace.Document, a *analysis.Analyzer, report func(analysis.Diagnostic)) (*analysis.Pass, error) {
	name := doc.Compilation.AssemblyName()
	pass := &analysis.Pass{
		Analyzer:   a,
		Fset:       doc.FileSet(),
		Pkg:        gotypes.NewPackage(name, name),
		TypesInfo:  &gotypes.Info{},
		TypesSizes: gotypes.SizesFor("gc", "amd64"),
		Report:     report,
		ResultOf:   make(map[*analysis.Analyzer]any),
		ReadFile: func(string) ([]byte, error) {
			return []byte(doc.Text()), nil
		},
	}

	// Pre-compute results for required analyzers.
	for _, req := range a.Requires {
		switch req {
		case document.Analyzer:
			pass.ResultOf[req] = document.NewData(ctx, doc)
		default:
			reqPass, err := buildPass(ctx, doc, req, func(analysis.Diagnostic) {})
			if err != nil {
				return nil, err
			}
			res, err := req.Run(reqPass)
			if err != nil {
				return nil, err
			}
			pass.ResultOf[req] = res
		}
	}

	return pass, nil
}

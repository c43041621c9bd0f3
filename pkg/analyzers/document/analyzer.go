// Package document provides a pass-through analyzer that hands the C#
// document being analyzed to downstream analyzers via pass.ResultOf.
//
// The runner pre-populates the result with a *Data value for the document
// of the current pass.
package document

import (
	"context"
	"reflect"

	"golang.org/x/tools/go/analysis"

	"github.com/mamaar/csrefactor/pkg/codefix"
	"github.com/mamaar/csrefactor/pkg/semantic"
	"github.com/mamaar/csrefactor/pkg/syntax"
	"github.com/mamaar/csrefactor/pkg/workspace"
)

// Data is the document of one pass plus the context the pass runs under.
type Data struct {
	Ctx       context.Context
	Doc       *workspace.Document
	Inspector *syntax.Inspector
}

// NewData prepares the pass data for doc.
func NewData(ctx context.Context, doc *workspace.Document) *Data {
	return &Data{Ctx: ctx, Doc: doc, Inspector: syntax.NewInspector(doc.Tree)}
}

func (d *Data) Model() *semantic.Model { return d.Doc.Model() }

// Analyzer is a placeholder required by downstream analyzers so the runner
// can inject the document via pass.ResultOf[document.Analyzer].
var Analyzer = &analysis.Analyzer{
	Name:       "document",
	Doc:        "provides the C# document under analysis to downstream analyzers",
	Run:        run,
	ResultType: reflect.TypeOf((*Data)(nil)),
}

func run(pass *analysis.Pass) (any, error) {
	// Outside the runner there is no document; analyzers see an empty one.
	return &Data{Ctx: context.Background()}, nil
}

// Report reports site as a diagnostic. When fixed is non-nil the
// diagnostic carries the fix as a suggested text edit.
func (d *Data) Report(pass *analysis.Pass, site *codefix.MatchSite, title string, fixed *syntax.Tree) {
	span := site.Span()
	diag := analysis.Diagnostic{
		Pos:      d.Doc.Pos(span.Start),
		End:      d.Doc.Pos(span.End),
		Category: site.ID(),
		Message:  site.Message,
		URL:      site.Descriptor.HelpLink,
	}
	if fixed != nil {
		fix := analysis.SuggestedFix{Message: title}
		for _, c := range codefix.Changes(d.Doc.Path, d.Doc.Text(), fixed.Text(), title) {
			fix.TextEdits = append(fix.TextEdits, analysis.TextEdit{
				Pos:     d.Doc.Pos(c.Start),
				End:     d.Doc.Pos(c.End),
				NewText: []byte(c.NewText),
			})
		}
		diag.SuggestedFixes = []analysis.SuggestedFix{fix}
	}
	pass.Report(diag)
}

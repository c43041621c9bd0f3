// Package refactor drives the rules over a workspace: it collects
// findings, batches fixes into plans, previews them and writes them out.
package refactor

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/mamaar/csrefactor/pkg/analyzers"
	"github.com/mamaar/csrefactor/pkg/analyzers/sortusings"
	"github.com/mamaar/csrefactor/pkg/codefix"
	"github.com/mamaar/csrefactor/pkg/rules"
	"github.com/mamaar/csrefactor/pkg/syntax"
	"github.com/mamaar/csrefactor/pkg/types"
	"github.com/mamaar/csrefactor/pkg/workspace"
)

// RefactorEngine is the surface the CLI and the MCP server share.
type RefactorEngine interface {
	LoadWorkspace(ctx context.Context, path string) (*workspace.Workspace, error)
	Rules(ws *workspace.Workspace, ids ...string) (*rules.Registry, error)

	Analyze(ctx context.Context, ws *workspace.Workspace, req AnalyzeRequest) (*AnalysisReport, error)
	Fix(ctx context.Context, ws *workspace.Workspace, req FixRequest) (*FixResult, error)
	SortUsings(ctx context.Context, ws *workspace.Workspace, path string) (*FixResult, error)
	CodeActions(ctx context.Context, ws *workspace.Workspace, path string, offset int) ([]*codefix.Action, error)

	ValidateRefactoring(res *FixResult) error
	ExecutePlan(ws *workspace.Workspace, res *FixResult) error
	PreviewPlan(ws *workspace.Workspace, res *FixResult) (string, error)
}

// EngineConfig contains configuration options for the engine.
type EngineConfig struct {
	// Backup keeps <file>.backup copies of rewritten files.
	Backup bool
	Logger *slog.Logger
}

func DefaultConfig() *EngineConfig {
	return &EngineConfig{}
}

type DefaultEngine struct {
	config     *EngineConfig
	logger     *slog.Logger
	serializer *workspace.Serializer
	validator  *Validator
}

func CreateEngine() RefactorEngine {
	return CreateEngineWithConfig(DefaultConfig())
}

func CreateEngineWithConfig(config *EngineConfig) RefactorEngine {
	if config == nil {
		config = DefaultConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := workspace.NewSerializer(logger)
	s.Backup = config.Backup
	return &DefaultEngine{
		config:     config,
		logger:     logger,
		serializer: s,
		validator:  NewValidator(),
	}
}

// AnalyzeRequest limits analysis to one file and a set of rules. Empty
// fields mean everything.
type AnalyzeRequest struct {
	File  string
	Rules []string
}

// Finding is one diagnostic, resolved to a file position.
type Finding struct {
	File      string         `json:"file"`
	Line      int            `json:"line"`
	Column    int            `json:"column"`
	EndLine   int            `json:"end_line"`
	EndColumn int            `json:"end_column"`
	Start     int            `json:"start"`
	End       int            `json:"end"`
	Rule      string         `json:"rule"`
	Category  string         `json:"category"`
	Severity  types.Severity `json:"severity"`
	Message   string         `json:"message"`
	HelpLink  string         `json:"help_link,omitempty"`
	// Fix is the title of the fix offered for the finding.
	Fix string `json:"fix,omitempty"`
}

// AnalysisReport lists findings ordered by file, offset and rule.
type AnalysisReport struct {
	Findings []Finding `json:"findings"`
	Files    int       `json:"files"`
}

// Count returns the number of findings at severity s.
func (r *AnalysisReport) Count(s types.Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == s {
			n++
		}
	}
	return n
}

// FixRequest selects what Fix rewrites. Empty fields mean everything.
type FixRequest struct {
	File  string
	Rules []string
}

// FixResult is a plan together with the documents it produces.
type FixResult struct {
	Plan *types.RefactoringPlan
	// Documents are the rewritten documents, keyed by path.
	Documents map[string]*workspace.Document
	// Original holds the text each rewritten document had before.
	Original map[string]string
	Applied  int
}

func newFixResult() *FixResult {
	return &FixResult{
		Documents: make(map[string]*workspace.Document),
		Original:  make(map[string]string),
	}
}

func (e *DefaultEngine) LoadWorkspace(ctx context.Context, path string) (*workspace.Workspace, error) {
	ws, err := workspace.Load(ctx, path, e.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}
	return ws, nil
}

// Rules returns the built-in rules configured by the workspace manifest,
// optionally narrowed to ids.
func (e *DefaultEngine) Rules(ws *workspace.Workspace, ids ...string) (*rules.Registry, error) {
	reg, err := rules.Default().Configure(ws.Config)
	if err != nil {
		return nil, err
	}
	return reg.Select(ids...)
}

func (e *DefaultEngine) documents(ws *workspace.Workspace, file string) ([]*workspace.Document, error) {
	if file == "" {
		return ws.Documents(), nil
	}
	doc, ok := ws.Document(file)
	if !ok {
		return nil, types.NewError(types.InvalidOperation, "file %s is not part of the workspace", file)
	}
	return []*workspace.Document{doc}, nil
}

func (e *DefaultEngine) Analyze(ctx context.Context, ws *workspace.Workspace, req AnalyzeRequest) (*AnalysisReport, error) {
	reg, err := e.Rules(ws, req.Rules...)
	if err != nil {
		return nil, err
	}
	docs, err := e.documents(ws, req.File)
	if err != nil {
		return nil, err
	}

	report := &AnalysisReport{Files: len(docs)}
	for _, rule := range reg.Rules() {
		res, err := analyzers.Run(ctx, ws, rule.Analyzer, req.File)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", rule.ID(), err)
		}
		for i, site := range res.Sites {
			report.Findings = append(report.Findings, newFinding(ws, res.Docs[i], site, rule.FixTitle))
		}
	}
	slices.SortFunc(report.Findings, func(a, b Finding) int {
		return cmp.Or(
			strings.Compare(a.File, b.File),
			cmp.Compare(a.Start, b.Start),
			strings.Compare(a.Rule, b.Rule),
		)
	})
	e.logger.Debug("analysis complete", "files", report.Files, "findings", len(report.Findings))
	return report, nil
}

func newFinding(ws *workspace.Workspace, doc *workspace.Document, site *codefix.MatchSite, fix string) Finding {
	span := site.Span()
	start, end := doc.Position(span.Start), doc.Position(span.End)
	return Finding{
		File:      ws.Rel(doc.Path),
		Line:      start.Line,
		Column:    start.Column,
		EndLine:   end.Line,
		EndColumn: end.Column,
		Start:     span.Start,
		End:       span.End,
		Rule:      site.ID(),
		Category:  site.Descriptor.Category,
		Severity:  site.Severity,
		Message:   site.Message,
		HelpLink:  site.Descriptor.HelpLink,
		Fix:       fix,
	}
}

// Fix applies every selected rule to each document in rule ID order. Each
// rule sees the text the previous rules produced.
func (e *DefaultEngine) Fix(ctx context.Context, ws *workspace.Workspace, req FixRequest) (*FixResult, error) {
	reg, err := e.Rules(ws, req.Rules...)
	if err != nil {
		return nil, err
	}
	docs, err := e.documents(ws, req.File)
	if err != nil {
		return nil, err
	}

	res := newFixResult()
	var changes []types.Change
	var skipped []types.SkippedFix
	for _, doc := range docs {
		cur := doc
		var titles []string
		for _, rule := range reg.Rules() {
			rr, err := analyzers.RunDocument(ctx, cur, rule.Analyzer)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", rule.ID(), err)
			}
			if len(rr.Sites) == 0 {
				continue
			}
			fixed, err := codefix.FixAll(ctx, cur, rr.Sites, reg.FixerFor, e.logger)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", rule.ID(), err)
			}
			skipped = append(skipped, fixed.Skipped...)
			if fixed.Applied > 0 {
				titles = append(titles, rule.FixTitle)
				res.Applied += fixed.Applied
				cur = fixed.Doc
			}
		}
		if cur != doc {
			changes = append(changes, e.record(res, doc, cur, strings.Join(titles, "; "))...)
		}
	}
	res.Plan = codefix.NewPlan(changes, skipped)
	return res, nil
}

func (e *DefaultEngine) record(res *FixResult, before, after *workspace.Document, desc string) []types.Change {
	res.Documents[after.Path] = after
	res.Original[after.Path] = before.Text()
	return codefix.Changes(after.Path, before.Text(), after.Text(), desc)
}

// SortUsings sorts every using block of one document. An already sorted
// document yields an empty plan.
func (e *DefaultEngine) SortUsings(ctx context.Context, ws *workspace.Workspace, path string) (*FixResult, error) {
	docs, err := e.documents(ws, path)
	if err != nil {
		return nil, err
	}
	doc := docs[0]
	res := newFixResult()
	if doc.Generated {
		res.Plan = codefix.NewPlan(nil, nil)
		return res, nil
	}

	tree, err := sortusings.Sort(ctx, doc)
	switch {
	case types.IsType(err, types.NoMatch):
		res.Plan = codefix.NewPlan(nil, nil)
		return res, nil
	case err != nil:
		return nil, err
	}
	res.Applied = 1
	res.Plan = codefix.NewPlan(e.record(res, doc, doc.WithTree(tree), sortusings.Title), nil)
	return res, nil
}

// CodeActions lists the fixes available at offset in path: the fix of
// every finding whose span contains the offset and the sort refactoring
// when the offset is inside a using directive.
func (e *DefaultEngine) CodeActions(ctx context.Context, ws *workspace.Workspace, path string, offset int) ([]*codefix.Action, error) {
	reg, err := e.Rules(ws)
	if err != nil {
		return nil, err
	}
	docs, err := e.documents(ws, path)
	if err != nil {
		return nil, err
	}
	doc := docs[0]

	var actions []*codefix.Action
	for _, rule := range reg.Rules() {
		rr, err := analyzers.RunDocument(ctx, doc, rule.Analyzer)
		if err != nil {
			return nil, err
		}
		for _, site := range rr.Sites {
			span := site.Span()
			if offset < span.Start || offset > span.End {
				continue
			}
			c := codefix.NewContext(doc, site)
			rule.RegisterCodeFixes(c)
			actions = append(actions, c.Actions()...)
		}
	}

	sorts, err := sortusings.Refactor(ctx, doc, syntax.Span{Start: offset, End: offset})
	if err != nil {
		return nil, err
	}
	for _, a := range sorts {
		// The diagnostic's own fix already covers this block.
		if !slices.ContainsFunc(actions, func(o *codefix.Action) bool { return o.Title == a.Title }) {
			actions = append(actions, a)
		}
	}
	return actions, nil
}

func (e *DefaultEngine) ValidateRefactoring(res *FixResult) error {
	return e.validator.ValidatePlan(res)
}

// ExecutePlan validates the plan, writes every change to disk and stores
// the rewritten documents in ws.
func (e *DefaultEngine) ExecutePlan(ws *workspace.Workspace, res *FixResult) error {
	if err := e.ValidateRefactoring(res); err != nil {
		return err
	}
	if len(res.Plan.Changes) == 0 {
		return nil
	}
	if err := e.serializer.ApplyChanges(res.Plan.Changes); err != nil {
		return fmt.Errorf("failed to apply changes: %w", err)
	}
	for _, path := range res.Plan.AffectedFiles {
		if doc, ok := res.Documents[path]; ok {
			ws.Update(doc)
		}
	}
	e.logger.Info("plan applied", "files", len(res.Plan.AffectedFiles), "fixes", res.Applied)
	return nil
}

// PreviewPlan renders the plan as unified diffs in file order.
func (e *DefaultEngine) PreviewPlan(ws *workspace.Workspace, res *FixResult) (string, error) {
	var b strings.Builder
	for _, path := range res.Plan.AffectedFiles {
		doc, ok := res.Documents[path]
		if !ok {
			continue
		}
		d, err := codefix.UnifiedDiff(ws.Rel(path), res.Original[path], doc.Text())
		if err != nil {
			return "", err
		}
		b.WriteString(d)
	}
	return b.String(), nil
}

package types

// RefactoringPlan represents a planned set of changes
type RefactoringPlan struct {
	Changes       []Change
	AffectedFiles []string
	Skipped       []SkippedFix
}

// Change represents a specific change to be made
type Change struct {
	File        string
	Start       int
	End         int
	OldText     string
	NewText     string
	Description string
}

// SkippedFix records a match site that could not be fixed during a batch.
type SkippedFix struct {
	File         string
	DiagnosticID string
	Start        int
	Reason       string
}

type Issue struct {
	Type        IssueType
	Description string
	File        string
	Line        int
	Severity    Severity
}

type IssueType int

const (
	IssueConfig IssueType = iota
	IssueReference
	IssueParse
)

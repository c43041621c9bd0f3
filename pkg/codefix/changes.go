package codefix

import (
	"bytes"
	"fmt"
	"strings"

	"fortio.org/safecast"
	"github.com/sourcegraph/go-diff/diff"

	"github.com/mamaar/csrefactor/pkg/types"
)

// Changes describes the edit from before to after as one change covering
// the region between their common prefix and common suffix. It returns no
// change when the texts are equal.
func Changes(path, before, after, description string) []types.Change {
	if before == after {
		return nil
	}
	prefix := 0
	for prefix < len(before) && prefix < len(after) && before[prefix] == after[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(before)-prefix && suffix < len(after)-prefix &&
		before[len(before)-1-suffix] == after[len(after)-1-suffix] {
		suffix++
	}
	return []types.Change{{
		File:        path,
		Start:       prefix,
		End:         len(before) - suffix,
		OldText:     before[prefix : len(before)-suffix],
		NewText:     after[prefix : len(after)-suffix],
		Description: description,
	}}
}

// NewPlan groups changes into a refactoring plan.
func NewPlan(changes []types.Change, skipped []types.SkippedFix) *types.RefactoringPlan {
	seen := make(map[string]bool)
	var affected []string
	for _, c := range changes {
		if !seen[c.File] {
			seen[c.File] = true
			affected = append(affected, c.File)
		}
	}
	return &types.RefactoringPlan{Changes: changes, AffectedFiles: affected, Skipped: skipped}
}

const diffContext = 3

// UnifiedDiff renders the difference between two versions of a file in
// unified format. Equal texts produce an empty string.
func UnifiedDiff(path, before, after string) (string, error) {
	if before == after {
		return "", nil
	}
	a, b := splitLines(before), splitLines(after)
	ops := diffLines(a, b)

	fd := &diff.FileDiff{OrigName: "a/" + path, NewName: "b/" + path}
	for _, h := range groupHunks(ops) {
		hunk, err := h.render(a, b)
		if err != nil {
			return "", err
		}
		fd.Hunks = append(fd.Hunks, hunk)
	}
	out, err := diff.PrintFileDiff(fd)
	if err != nil {
		return "", fmt.Errorf("printing diff: %w", err)
	}
	return string(out), nil
}

// splitLines keeps line terminators so that a missing final newline still
// shows as a change.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

type opKind byte

const (
	opEqual  opKind = ' '
	opDelete opKind = '-'
	opInsert opKind = '+'
)

// op is one line of the edit script. ai and bi index the line in the old
// and new text; only the one matching kind is meaningful for inserts and
// deletes.
type op struct {
	kind   opKind
	ai, bi int
}

// diffLines computes a line edit script. The common head and tail are
// matched directly and only the middle goes through the quadratic LCS,
// which keeps typical fix diffs cheap.
func diffLines(a, b []string) []op {
	head := 0
	for head < len(a) && head < len(b) && a[head] == b[head] {
		head++
	}
	tail := 0
	for tail < len(a)-head && tail < len(b)-head && a[len(a)-1-tail] == b[len(b)-1-tail] {
		tail++
	}

	var ops []op
	for i := range head {
		ops = append(ops, op{opEqual, i, i})
	}
	ma, mb := a[head:len(a)-tail], b[head:len(b)-tail]

	// lcs[i][j] is the LCS length of ma[i:] and mb[j:].
	lcs := make([][]int, len(ma)+1)
	for i := range lcs {
		lcs[i] = make([]int, len(mb)+1)
	}
	for i := len(ma) - 1; i >= 0; i-- {
		for j := len(mb) - 1; j >= 0; j-- {
			if ma[i] == mb[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}
	i, j := 0, 0
	for i < len(ma) || j < len(mb) {
		switch {
		case i < len(ma) && j < len(mb) && ma[i] == mb[j]:
			ops = append(ops, op{opEqual, head + i, head + j})
			i++
			j++
		case j < len(mb) && (i == len(ma) || lcs[i][j+1] > lcs[i+1][j]):
			ops = append(ops, op{opInsert, head + i, head + j})
			j++
		default:
			ops = append(ops, op{opDelete, head + i, head + j})
			i++
		}
	}
	for k := range tail {
		ops = append(ops, op{opEqual, len(a) - tail + k, len(b) - tail + k})
	}
	return ops
}

type hunkRange struct {
	ops []op
}

// groupHunks cuts the script into hunks with diffContext equal lines
// around each run of changes, merging runs whose context would overlap.
func groupHunks(ops []op) []hunkRange {
	var hunks []hunkRange
	start, end := -1, -1
	for i, o := range ops {
		if o.kind == opEqual {
			continue
		}
		lo, hi := max(i-diffContext, 0), min(i+diffContext+1, len(ops))
		if start >= 0 && lo <= end {
			end = hi
			continue
		}
		if start >= 0 {
			hunks = append(hunks, hunkRange{ops[start:end]})
		}
		start, end = lo, hi
	}
	if start >= 0 {
		hunks = append(hunks, hunkRange{ops[start:end]})
	}
	return hunks
}

func (h hunkRange) render(a, b []string) (*diff.Hunk, error) {
	var body bytes.Buffer
	origLines, newLines := 0, 0
	for _, o := range h.ops {
		var line string
		switch o.kind {
		case opEqual:
			line = a[o.ai]
			origLines++
			newLines++
		case opDelete:
			line = a[o.ai]
			origLines++
		case opInsert:
			line = b[o.bi]
			newLines++
		}
		body.WriteByte(byte(o.kind))
		body.WriteString(line)
		if !strings.HasSuffix(line, "\n") {
			body.WriteString("\n\\ No newline at end of file\n")
		}
	}

	first := h.ops[0]
	origStart, newStart := first.ai+1, first.bi+1
	if origLines == 0 {
		origStart--
	}
	if newLines == 0 {
		newStart--
	}

	hunk := &diff.Hunk{Body: body.Bytes()}
	var err error
	if hunk.OrigStartLine, err = safecast.Conv[int32](origStart); err != nil {
		return nil, err
	}
	if hunk.OrigLines, err = safecast.Conv[int32](origLines); err != nil {
		return nil, err
	}
	if hunk.NewStartLine, err = safecast.Conv[int32](newStart); err != nil {
		return nil, err
	}
	if hunk.NewLines, err = safecast.Conv[int32](newLines); err != nil {
		return nil, err
	}
	return hunk, nil
}

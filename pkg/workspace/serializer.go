package workspace

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mamaar/csrefactor/pkg/types"
)

// Serializer writes rewritten sources back to disk. Every write goes to a
// temporary file in the target directory first and is renamed into place.
type Serializer struct {
	// Backup keeps the previous content next to the file as <name>.backup.
	Backup bool
	logger *slog.Logger
}

func NewSerializer(logger *slog.Logger) *Serializer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Serializer{logger: logger}
}

// WriteDocument stores the document's current text at its path.
func (s *Serializer) WriteDocument(doc *Document) error {
	return s.write(doc.Path, doc.Text())
}

// ApplyChanges applies text changes grouped by file. Changes to one file
// must not overlap; when OldText is set it must match the current content.
func (s *Serializer) ApplyChanges(changes []types.Change) error {
	if len(changes) == 0 {
		return nil
	}

	byFile := make(map[string][]types.Change)
	for _, c := range changes {
		byFile[c.File] = append(byFile[c.File], c)
	}
	for _, path := range slices.Sorted(maps.Keys(byFile)) {
		if err := s.applyChangesToFile(path, byFile[path]); err != nil {
			return &types.RefactorError{
				Type:    types.FileSystemError,
				Message: fmt.Sprintf("failed to apply changes: %v", err),
				File:    path,
				Cause:   err,
			}
		}
	}
	return nil
}

func (s *Serializer) applyChangesToFile(path string, changes []types.Change) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	// Apply from the end so earlier offsets stay valid.
	changes = slices.Clone(changes)
	slices.SortFunc(changes, func(a, b types.Change) int { return cmp.Compare(b.Start, a.Start) })
	if err := validateChangePositions(changes); err != nil {
		return fmt.Errorf("invalid change positions: %w", err)
	}

	text := string(content)
	for _, c := range changes {
		if text, err = ApplyChange(text, c); err != nil {
			return err
		}
	}
	return s.write(path, text)
}

// ApplyChange splices one change into content.
func ApplyChange(content string, c types.Change) (string, error) {
	if c.Start < 0 || c.End > len(content) || c.Start > c.End {
		return "", fmt.Errorf("invalid change bounds: start=%d, end=%d, content length=%d",
			c.Start, c.End, len(content))
	}
	if c.OldText != "" && content[c.Start:c.End] != c.OldText {
		return "", fmt.Errorf("old text mismatch at %d: expected %q, found %q", c.Start, c.OldText, content[c.Start:c.End])
	}
	return content[:c.Start] + c.NewText + content[c.End:], nil
}

// validateChangePositions expects changes sorted by descending start.
func validateChangePositions(changes []types.Change) error {
	for i := 1; i < len(changes); i++ {
		later, earlier := changes[i-1], changes[i]
		if earlier.End > later.Start {
			return fmt.Errorf("overlapping changes detected: [%d-%d] and [%d-%d]",
				earlier.Start, earlier.End, later.Start, later.End)
		}
	}
	return nil
}

func (s *Serializer) write(path, text string) error {
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
		if s.Backup {
			if _, err := s.BackupFile(path); err != nil {
				return err
			}
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.WriteString(text); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}
	s.logger.Debug("wrote file", "path", path, "bytes", len(text))
	return nil
}

// BackupFile copies path to path.backup and returns the backup's path.
func (s *Serializer) BackupFile(path string) (string, error) {
	backup := path + ".backup"
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read original file: %w", err)
	}
	if err := os.WriteFile(backup, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}
	return backup, nil
}

// RestoreFromBackup puts a backup's content back in place.
func (s *Serializer) RestoreFromBackup(path, backup string) error {
	content, err := os.ReadFile(backup)
	if err != nil {
		return fmt.Errorf("failed to read backup file: %w", err)
	}
	return s.write(path, string(content))
}

// PreviewChanges summarizes changes per file without touching the disk.
func PreviewChanges(changes []types.Change) string {
	if len(changes) == 0 {
		return "No changes to preview"
	}
	byFile := make(map[string][]types.Change)
	for _, c := range changes {
		byFile[c.File] = append(byFile[c.File], c)
	}
	files := slices.Sorted(maps.Keys(byFile))

	var b strings.Builder
	fmt.Fprintf(&b, "Preview of %d changes across %d files:\n\n", len(changes), len(files))
	for _, file := range files {
		fc := byFile[file]
		slices.SortFunc(fc, func(a, b types.Change) int { return cmp.Compare(a.Start, b.Start) })
		fmt.Fprintf(&b, "File: %s\n%s\n", file, strings.Repeat("-", len(file)+6))
		for i, c := range fc {
			fmt.Fprintf(&b, "%d. %s\n   Position: %d-%d\n", i+1, c.Description, c.Start, c.End)
			if c.OldText != "" {
				fmt.Fprintf(&b, "   - %s\n", truncateText(c.OldText, 80))
			}
			if c.NewText != "" {
				fmt.Fprintf(&b, "   + %s\n", truncateText(c.NewText, 80))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// truncateText flattens text to one line of at most n bytes.
func truncateText(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= n {
		return text
	}
	return text[:n-3] + "..."
}

package types

import (
	"fmt"
	"strings"
)

type Severity int

const (
	Error Severity = iota
	Warning
	Info
	Hidden
)

// String returns the string representation of Severity
func (s Severity) String() string {
	switch s {
	case Error:
		return "Error"
	case Warning:
		return "Warning"
	case Info:
		return "Info"
	case Hidden:
		return "Hidden"
	default:
		return "Unknown"
	}
}

// ParseSeverity accepts the lower-case names used in project manifests.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return Error, nil
	case "warning", "warn":
		return Warning, nil
	case "info", "suggestion":
		return Info, nil
	case "hidden", "silent":
		return Hidden, nil
	}
	return 0, NewError(ConfigError, "unknown severity %q", s)
}

// MarshalText lets severities appear as names in JSON output.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(s.String())), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Descriptor is the immutable description of one diagnostic rule.
type Descriptor struct {
	ID               string
	Title            string
	MessageFormat    string
	Category         string
	Severity         Severity
	EnabledByDefault bool
	HelpLink         string
}

// Message formats the descriptor's message with args.
func (d *Descriptor) Message(args ...any) string {
	if len(args) == 0 {
		return d.MessageFormat
	}
	return fmt.Sprintf(d.MessageFormat, args...)
}

// WithSeverity returns a copy of d reporting at s.
func (d *Descriptor) WithSeverity(s Severity) *Descriptor {
	c := *d
	c.Severity = s
	return &c
}

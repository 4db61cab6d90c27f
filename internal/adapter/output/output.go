// Package output provides output formatters for notification status.
package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/traynote/internal/model"
)

// Formatter formats outstanding notifications for output.
type Formatter interface {
	// Format writes formatted statuses to the writer.
	Format(w io.Writer, statuses []model.Status) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatPlain  FormatType = "plain"
	FormatJSON   FormatType = "json"
	FormatYAML   FormatType = "yaml"
	FormatIDs    FormatType = "ids"
	FormatWaybar FormatType = "waybar"
)

// FormatTypes lists the supported formats in display order.
var FormatTypes = []FormatType{FormatPlain, FormatJSON, FormatYAML, FormatIDs, FormatWaybar}

// ParseFormatType validates a format name.
func ParseFormatType(s string) (FormatType, error) {
	for _, f := range FormatTypes {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatYAML:
		return NewYAMLFormatter()
	case FormatIDs:
		return NewIDsFormatter()
	case FormatWaybar:
		return NewWaybarFormatter()
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template  string // Custom template for plain format
	ShowIndex bool   // Show 1-based index prefix
	ShowTime  bool   // Show relative time
	ShowRef   bool   // Show request ref
	Compact   bool   // Single-line JSON
}

// DefaultFormatterOptions returns sensible defaults for terminal output.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowIndex: false,
		ShowTime:  true,
		ShowRef:   false,
	}
}

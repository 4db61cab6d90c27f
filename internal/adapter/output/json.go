package output

import (
	"encoding/json"
	"io"

	"github.com/jmylchreest/traynote/internal/model"
)

// JSONFormatter formats statuses as JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Format writes statuses as a JSON array.
func (f *JSONFormatter) Format(w io.Writer, statuses []model.Status) error {
	if statuses == nil {
		statuses = []model.Status{}
	}
	encoder := json.NewEncoder(w)
	if !f.opts.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(statuses)
}

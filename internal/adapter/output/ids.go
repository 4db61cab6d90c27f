package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/traynote/internal/model"
)

// IDsFormatter outputs just the notification ids, one per line.
// Useful for piping to other commands (e.g., xargs -n1 traynote close).
type IDsFormatter struct{}

// NewIDsFormatter creates a new IDs formatter.
func NewIDsFormatter() *IDsFormatter {
	return &IDsFormatter{}
}

// Format writes ids to the writer, one per line.
func (f *IDsFormatter) Format(w io.Writer, statuses []model.Status) error {
	for _, s := range statuses {
		if _, err := fmt.Fprintln(w, s.ID); err != nil {
			return err
		}
	}
	return nil
}

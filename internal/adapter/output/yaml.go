package output

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/traynote/internal/model"
)

// YAMLFormatter formats statuses as a YAML sequence.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Format writes statuses as YAML.
func (f *YAMLFormatter) Format(w io.Writer, statuses []model.Status) error {
	if statuses == nil {
		statuses = []model.Status{}
	}
	data, err := yaml.Marshal(statuses)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	_, err = w.Write(data)
	return err
}

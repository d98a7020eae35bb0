package reporter

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/mongoscope/internal/models"
)

// YAMLReporter writes the report as a YAML document
type YAMLReporter struct {
	writer io.Writer
}

// NewYAMLReporter creates a new YAML reporter
func NewYAMLReporter(writer io.Writer) *YAMLReporter {
	return &YAMLReporter{writer: writer}
}

// Generate writes the report as YAML
func (r *YAMLReporter) Generate(report *models.ServerReport) error {
	enc := yaml.NewEncoder(r.writer)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}

// Package reporter renders crawl reports. Renderers only format values they
// are given; they never talk to the database.
package reporter

import (
	"fmt"
	"io"

	"github.com/ppiankov/mongoscope/internal/models"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the supported output formats.
var Formats = []string{FormatText, FormatJSON, FormatYAML}

// Reporter renders a ServerReport.
type Reporter interface {
	Generate(report *models.ServerReport) error
}

// New returns the reporter for format writing to w.
func New(format string, w io.Writer) (Reporter, error) {
	switch format {
	case FormatText, "":
		return NewTextReporter(w), nil
	case FormatJSON:
		return NewJSONReporter(w, true), nil
	case FormatYAML:
		return NewYAMLReporter(w), nil
	default:
		return nil, fmt.Errorf("unsupported format %q (want text, json or yaml)", format)
	}
}

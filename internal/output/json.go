package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/quorumhq/quorum/internal/consolidate"
)

// JSONWriter outputs the full consolidated review as JSON.
type JSONWriter struct{}

func (j *JSONWriter) Write(w io.Writer, report *Report) error {
	data, err := json.MarshalIndent(report.Review, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	if _, err = w.Write(data); err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

// CommentsWriter outputs only the machine-readable comment array, the format
// downstream tooling ingests.
type CommentsWriter struct{}

func (c *CommentsWriter) Write(w io.Writer, report *Report) error {
	_, err := fmt.Fprintln(w, consolidate.FormatComments(report.Comments))
	return err
}

// Package pit enforces the point-in-time discipline: only information
// available on or before the simulated cutoff date may enter the pipeline.
package pit

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/moatscan/moatscan/internal/model"
)

// Filter returns the transcripts with event_date on or before cutoff,
// preserving input order
func Filter(transcripts []model.Transcript, cutoff time.Time) []model.Transcript {
	filtered := make([]model.Transcript, 0, len(transcripts))
	for _, t := range transcripts {
		if !t.Metadata.EventDate.After(cutoff) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// Validate reports whether all transcripts respect the cutoff. On the first
// violation it writes a warning naming the ticker and dates to warn (stderr
// when nil) and returns false.
func Validate(transcripts []model.Transcript, cutoff time.Time, warn io.Writer) bool {
	if warn == nil {
		warn = os.Stderr
	}
	for _, t := range transcripts {
		if t.Metadata.EventDate.After(cutoff) {
			fmt.Fprintf(warn, "Warning: point-in-time violation: %s transcript dated %s is after cutoff %s\n",
				t.Metadata.Ticker,
				t.Metadata.EventDate.Format("2006-01-02"),
				cutoff.Format("2006-01-02"))
			return false
		}
	}
	return true
}

// PromptContext renders the fixed constraint block injected into every LLM
// prompt, embedding the literal cutoff date
func PromptContext(cutoff time.Time) string {
	date := cutoff.Format("2006-01-02")
	return fmt.Sprintf(`POINT-IN-TIME CONSTRAINT:
You are operating as of %s. Use only information that was publicly
available on or before %s. Do not reference events, financial results,
guidance, or market developments published after that date.`, date, date)
}

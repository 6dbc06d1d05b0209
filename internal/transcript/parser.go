// Package transcript reads point-in-time-filtered earnings-call transcripts
// and optional SEC filing context from disk.
package transcript

import (
	"encoding/json"
	"fmt"

	"github.com/moatscan/moatscan/internal/model"
)

// Parse decodes and validates one transcript file
func Parse(data []byte) (*model.Transcript, error) {
	var t model.Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}

	if t.Metadata.Ticker == "" {
		return nil, fmt.Errorf("transcript missing ticker")
	}
	if t.Metadata.EventDate.IsZero() {
		return nil, fmt.Errorf("transcript %s missing event_date", t.Metadata.Ticker)
	}
	if len(t.Sections) == 0 {
		return nil, fmt.Errorf("transcript %s has no sections", t.Metadata.Ticker)
	}
	for i, s := range t.Sections {
		if s.Content == "" {
			return nil, fmt.Errorf("transcript %s section %d has empty content", t.Metadata.Ticker, i)
		}
	}

	return &t, nil
}

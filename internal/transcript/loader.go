package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/moatscan/moatscan/internal/model"
	"github.com/moatscan/moatscan/internal/pit"
)

const transcriptSuffix = "_earnings_call.json"

// Loader reads transcripts laid out as {dir}/{ticker}/{year_month}_earnings_call.json
type Loader struct {
	dir string
}

// NewLoader creates a loader rooted at dir
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Load returns all transcripts for a ticker, ordered by event date.
// A ticker with no transcript directory yields an empty slice, not an error;
// missing data degrades gracefully downstream.
func (l *Loader) Load(ticker string) ([]model.Transcript, error) {
	tickerDir := filepath.Join(l.dir, ticker)
	entries, err := os.ReadDir(tickerDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read transcript dir: %w", err)
	}

	var transcripts []model.Transcript
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), transcriptSuffix) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(tickerDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read transcript %s: %w", entry.Name(), err)
		}

		t, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s/%s: %w", ticker, entry.Name(), err)
		}
		transcripts = append(transcripts, *t)
	}

	sort.SliceStable(transcripts, func(i, j int) bool {
		return transcripts[i].Metadata.EventDate.Before(transcripts[j].Metadata.EventDate)
	})
	return transcripts, nil
}

// LoadAsOf returns the ticker's transcripts with event dates on or before
// cutoff, ordered by event date
func (l *Loader) LoadAsOf(ticker string, cutoff time.Time) ([]model.Transcript, error) {
	transcripts, err := l.Load(ticker)
	if err != nil {
		return nil, err
	}
	return pit.Filter(transcripts, cutoff), nil
}

package pit

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/moatscan/moatscan/internal/model"
)

func transcriptOn(ticker, date string) model.Transcript {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return model.Transcript{
		Metadata: model.TranscriptMetadata{Ticker: ticker, EventDate: t},
	}
}

func TestFilter_RemovesPostCutoff(t *testing.T) {
	cutoff, _ := time.Parse("2006-01-02", "2024-03-31")
	transcripts := []model.Transcript{
		transcriptOn("AAPL", "2024-01-15"),
		transcriptOn("AAPL", "2024-04-02"),
		transcriptOn("AAPL", "2024-03-31"), // On the cutoff day counts as available
	}

	filtered := Filter(transcripts, cutoff)

	if len(filtered) != 2 {
		t.Fatalf("expected 2 transcripts, got %d", len(filtered))
	}
	for _, tr := range filtered {
		if tr.Metadata.EventDate.After(cutoff) {
			t.Errorf("transcript dated %s leaked past cutoff", tr.Metadata.EventDate.Format("2006-01-02"))
		}
	}
	// Order preserved
	if !filtered[0].Metadata.EventDate.Before(filtered[1].Metadata.EventDate) {
		t.Error("expected input order to be preserved")
	}
}

func TestFilter_Empty(t *testing.T) {
	cutoff, _ := time.Parse("2006-01-02", "2024-03-31")
	filtered := Filter(nil, cutoff)
	if len(filtered) != 0 {
		t.Errorf("expected empty result, got %d", len(filtered))
	}
}

func TestValidate_Violation(t *testing.T) {
	cutoff, _ := time.Parse("2006-01-02", "2024-03-31")
	transcripts := []model.Transcript{
		transcriptOn("AAPL", "2024-01-15"),
		transcriptOn("MSFT", "2024-05-01"),
	}

	var buf bytes.Buffer
	if Validate(transcripts, cutoff, &buf) {
		t.Error("expected validation to fail")
	}

	warning := buf.String()
	if !strings.Contains(warning, "MSFT") {
		t.Errorf("expected warning to name the violating ticker, got %q", warning)
	}
	if !strings.Contains(warning, "2024-05-01") {
		t.Errorf("expected warning to include the violating date, got %q", warning)
	}
}

func TestValidate_Compliant(t *testing.T) {
	cutoff, _ := time.Parse("2006-01-02", "2024-03-31")
	transcripts := []model.Transcript{
		transcriptOn("AAPL", "2024-01-15"),
		transcriptOn("MSFT", "2024-02-20"),
	}

	var buf bytes.Buffer
	if !Validate(transcripts, cutoff, &buf) {
		t.Error("expected validation to pass")
	}
	if buf.Len() != 0 {
		t.Errorf("expected no warnings, got %q", buf.String())
	}
}

func TestPromptContext_EmbedsCutoff(t *testing.T) {
	cutoff, _ := time.Parse("2006-01-02", "2024-03-31")
	block := PromptContext(cutoff)

	if !strings.Contains(block, "2024-03-31") {
		t.Errorf("expected prompt context to embed the cutoff date, got %q", block)
	}
	if !strings.HasPrefix(block, "POINT-IN-TIME CONSTRAINT:") {
		t.Errorf("expected fixed header, got %q", block)
	}
}

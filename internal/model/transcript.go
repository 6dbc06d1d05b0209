package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SectionType classifies a transcript section
type SectionType string

const (
	SectionPreparedRemarks SectionType = "prepared_remarks" // Management's prepared statements
	SectionQuestion        SectionType = "question"          // Analyst question
	SectionAnswer          SectionType = "answer"            // Management answer
	SectionOperator        SectionType = "operator"          // Call operator boilerplate
)

// TranscriptMetadata identifies one earnings call
type TranscriptMetadata struct {
	Ticker        string    `json:"ticker"`
	EventDate     time.Time `json:"event_date"`
	FiscalQuarter string    `json:"fiscal_quarter"` // e.g. "2024Q3"
	IsTruncated   bool      `json:"is_truncated"`   // Source was cut off mid-call
}

// transcriptMetadataJSON mirrors TranscriptMetadata with the date as a string,
// so on-disk files can use either "2006-01-02" or RFC 3339.
type transcriptMetadataJSON struct {
	Ticker        string `json:"ticker"`
	EventDate     string `json:"event_date"`
	FiscalQuarter string `json:"fiscal_quarter"`
	IsTruncated   bool   `json:"is_truncated"`
}

// UnmarshalJSON accepts event dates as "2006-01-02" or RFC 3339
func (m *TranscriptMetadata) UnmarshalJSON(data []byte) error {
	var raw transcriptMetadataJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.Ticker = raw.Ticker
	m.FiscalQuarter = raw.FiscalQuarter
	m.IsTruncated = raw.IsTruncated

	if raw.EventDate == "" {
		return fmt.Errorf("event_date is required")
	}

	if t, err := time.Parse("2006-01-02", raw.EventDate); err == nil {
		m.EventDate = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw.EventDate)
	if err != nil {
		return fmt.Errorf("parse event_date %q: %w", raw.EventDate, err)
	}
	m.EventDate = t
	return nil
}

// MarshalJSON writes event dates as "2006-01-02"
func (m TranscriptMetadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(transcriptMetadataJSON{
		Ticker:        m.Ticker,
		EventDate:     m.EventDate.Format("2006-01-02"),
		FiscalQuarter: m.FiscalQuarter,
		IsTruncated:   m.IsTruncated,
	})
}

// TranscriptSection is one speaker turn in the call
type TranscriptSection struct {
	Speaker     string      `json:"speaker"`
	Role        string      `json:"role"` // e.g. "CEO", "CFO", "Analyst"
	SectionType SectionType `json:"section_type"`
	Content     string      `json:"content"`
}

// Transcript is one earnings call, immutable once loaded
type Transcript struct {
	Metadata  TranscriptMetadata  `json:"metadata"`
	Sections  []TranscriptSection `json:"sections"`
	RawSource string              `json:"raw_source,omitempty"`
}

// Text concatenates section contents with speaker attribution, in call order
func (t Transcript) Text() string {
	var b strings.Builder
	for _, s := range t.Sections {
		if s.Speaker != "" {
			b.WriteString(s.Speaker)
			if s.Role != "" {
				b.WriteString(" (" + s.Role + ")")
			}
			b.WriteString(": ")
		}
		b.WriteString(s.Content)
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

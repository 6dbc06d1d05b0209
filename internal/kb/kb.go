// Package kb loads the rule knowledge-base files that guide claim extraction
// and scoring: KB1 (claim rules), KB2 (scoring rules), KB3 (few-shot
// examples), and the dogma.md 12-rule framework.
package kb

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Knowledge-base file names, fixed by convention
const (
	KB1   = "kb1_claim_rules.md"
	KB2   = "kb2_scoring_rules.md"
	KB3   = "kb3_examples.md"
	Dogma = "dogma.md"
)

// Library holds the knowledge-base texts for one run, loaded once
type Library struct {
	files map[string]string
}

// Load reads all knowledge-base files from dir. Missing files are a
// configuration error; the pipeline cannot prompt without its rules.
func Load(dir string) (*Library, error) {
	files := make(map[string]string, 4)
	for _, name := range []string{KB1, KB2, KB3, Dogma} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("knowledge base %s: %w", name, err)
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			return nil, fmt.Errorf("knowledge base %s is empty", name)
		}
		files[name] = text
	}
	return &Library{files: files}, nil
}

// Excerpt returns up to maxRunes runes of one knowledge-base file.
// maxRunes <= 0 returns the whole text.
func (l *Library) Excerpt(name string, maxRunes int) string {
	text := l.files[name]
	if maxRunes <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes])
}

// ExtractionContext renders the Phase 1 rule context (KB1 + KB3 excerpts)
func (l *Library) ExtractionContext(maxRunesPerFile int) string {
	return "CLAIM RULES:\n" + l.Excerpt(KB1, maxRunesPerFile) +
		"\n\nEXAMPLES:\n" + l.Excerpt(KB3, maxRunesPerFile)
}

// ScoringContext renders the Phase 2 rule context (KB1 + KB2 + KB3 + dogma)
func (l *Library) ScoringContext(maxRunesPerFile int) string {
	return "CLAIM RULES:\n" + l.Excerpt(KB1, maxRunesPerFile) +
		"\n\nSCORING RULES:\n" + l.Excerpt(KB2, maxRunesPerFile) +
		"\n\nEXAMPLES:\n" + l.Excerpt(KB3, maxRunesPerFile) +
		"\n\nRULE FRAMEWORK:\n" + l.Excerpt(Dogma, maxRunesPerFile)
}

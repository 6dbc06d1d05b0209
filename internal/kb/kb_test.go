package kb

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeKB(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		KB1:   "Rule: claims must quote the speaker.",
		KB2:   "Rule: structural advantages weigh more.",
		KB3:   "Example: 'our network effects compound' -> competitive_advantage",
		Dogma: "rule_1 through rule_12 framework text. rule_6: structural advantage. rule_11: industry structure match.",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLoad_AllFiles(t *testing.T) {
	lib, err := Load(writeKB(t))
	if err != nil {
		t.Fatal(err)
	}

	extraction := lib.ExtractionContext(0)
	if !strings.Contains(extraction, "quote the speaker") {
		t.Error("extraction context missing KB1 text")
	}
	if !strings.Contains(extraction, "network effects") {
		t.Error("extraction context missing KB3 text")
	}
	if strings.Contains(extraction, "rule_12 framework") {
		t.Error("extraction context should not include dogma")
	}

	scoring := lib.ScoringContext(0)
	for _, want := range []string{"quote the speaker", "weigh more", "network effects", "rule_6"} {
		if !strings.Contains(scoring, want) {
			t.Errorf("scoring context missing %q", want)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	dir := writeKB(t)
	if err := os.Remove(filepath.Join(dir, Dogma)); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("expected error for missing dogma.md")
	}
}

func TestExcerpt_Truncates(t *testing.T) {
	lib, err := Load(writeKB(t))
	if err != nil {
		t.Fatal(err)
	}

	full := lib.Excerpt(KB1, 0)
	if len(full) == 0 {
		t.Fatal("expected KB1 text")
	}
	short := lib.Excerpt(KB1, 4)
	if len([]rune(short)) != 4 {
		t.Errorf("expected 4 runes, got %q", short)
	}
}

package layout

import (
	"testing"
)

func block(text string, page int, size float64, bold bool, y float64, idx int) TextBlock {
	return TextBlock{Text: text, Page: page, FontSize: size, Bold: bold, X: 0.05, Y: y, Index: idx}
}

func mustClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(Config{})
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	return c
}

func TestClassifySingleHeadingDocument(t *testing.T) {
	// A one-page document with a single bold 24pt line and three 11pt body
	// lines must yield exactly one Title and no other headings.
	blocks := []TextBlock{
		block("Introduction", 1, 24, true, 0.05, 0),
		block("This document introduces the topic in detail.", 1, 11, false, 0.30, 1),
		block("It continues with supporting material here.", 1, 11, false, 0.40, 2),
		block("Finally it wraps up the page content.", 1, 11, false, 0.50, 3),
	}
	c := mustClassifier(t)
	labeled := c.Classify(blocks, ComputeFontStats(blocks))

	if len(labeled) != 4 {
		t.Fatalf("got %d labeled blocks, want 4", len(labeled))
	}
	if labeled[0].Level != LevelTitle {
		t.Errorf("first block level = %v, want title", labeled[0].Level)
	}
	for _, lb := range labeled[1:] {
		if lb.Level != LevelBody {
			t.Errorf("block %q level = %v, want body", lb.Text, lb.Level)
		}
	}
}

func TestClassifyNoHeadings(t *testing.T) {
	// Uniform typography with sentence-like lines: nothing should qualify.
	blocks := []TextBlock{
		block("this is an ordinary sentence that keeps going for quite a while and then some.", 1, 11, false, 0.4, 0),
		block("another unremarkable line of body text that also ends with a period.", 1, 11, false, 0.5, 1),
	}
	c := mustClassifier(t)
	labeled := c.Classify(blocks, ComputeFontStats(blocks))
	for _, lb := range labeled {
		if lb.Level != LevelBody {
			t.Errorf("block %q level = %v, want body", lb.Text, lb.Level)
		}
	}
}

func TestClassifyScoreLevelMonotonicity(t *testing.T) {
	// Higher score must never map to a strictly less significant level.
	blocks := []TextBlock{
		block("1. Overview", 1, 18, true, 0.05, 0),
		block("1.1 Scope of Work", 1, 14, true, 0.20, 1),
		block("Some body content follows this heading with enough words to look like prose.", 1, 11, false, 0.30, 2),
		block("2. Requirements", 1, 18, true, 0.45, 3),
		block("2.1 Functional Details", 1, 14, false, 0.60, 4),
	}
	c := mustClassifier(t)
	labeled := c.Classify(blocks, ComputeFontStats(blocks))

	for i, a := range labeled {
		for j, b := range labeled {
			if i == j {
				continue
			}
			if a.Score > b.Score && a.Level > b.Level {
				t.Errorf("score %v (level %v) > score %v (level %v): level inversion",
					a.Score, a.Level, b.Score, b.Level)
			}
		}
	}
}

func TestClassifyAtMostOneTitle(t *testing.T) {
	blocks := []TextBlock{
		block("Annual Report", 1, 24, true, 0.05, 0),
		block("Financial Summary", 1, 24, true, 0.10, 1),
		block("Plain body text sitting in the middle of the page, written as a sentence.", 1, 11, false, 0.5, 2),
	}
	c := mustClassifier(t)
	labeled := c.Classify(blocks, ComputeFontStats(blocks))

	titles := 0
	for _, lb := range labeled {
		if lb.Level == LevelTitle {
			titles++
		}
	}
	if titles != 1 {
		t.Errorf("got %d title blocks, want exactly 1", titles)
	}
}

func TestClassifyTitleTieBreakPrefersLargerFont(t *testing.T) {
	// Two top-of-page candidates that differ only in font size.
	blocks := []TextBlock{
		block("Project Charter", 1, 20, true, 0.05, 0),
		block("Project Charter Two", 1, 24, true, 0.05, 1),
		block("Ordinary prose below the candidates, long enough to rank as body text.", 1, 11, false, 0.6, 2),
	}
	c := mustClassifier(t)
	labeled := c.Classify(blocks, ComputeFontStats(blocks))

	for _, lb := range labeled {
		if lb.Level == LevelTitle && lb.FontSize != 24 {
			t.Errorf("title chose font size %v, want the larger 24pt block", lb.FontSize)
		}
	}
}

func TestClassifyEmptyInput(t *testing.T) {
	c := mustClassifier(t)
	if got := c.Classify(nil, FontStats{}); got != nil {
		t.Errorf("Classify(nil) = %v, want nil", got)
	}
}

func TestDedupe(t *testing.T) {
	blocks := []TextBlock{
		block("Repeated Header", 1, 14, true, 0.05, 0),
		block("Repeated Header", 1, 14, true, 0.05, 1),
		block("Repeated Header", 2, 14, true, 0.05, 2), // different page survives
		block("   ", 1, 11, false, 0.3, 3),             // blank dropped
	}
	got := Dedupe(blocks)
	if len(got) != 2 {
		t.Fatalf("Dedupe returned %d blocks, want 2", len(got))
	}
	if got[0].Page != 1 || got[1].Page != 2 {
		t.Errorf("unexpected pages after dedupe: %v, %v", got[0].Page, got[1].Page)
	}
}

func TestComputeFontStats(t *testing.T) {
	blocks := []TextBlock{
		block("a", 1, 10, false, 0.1, 0),
		block("b", 1, 12, false, 0.2, 1),
		block("c", 1, 14, false, 0.3, 2),
		block("d", 1, 24, false, 0.4, 3),
	}
	stats := ComputeFontStats(blocks)
	if stats.Max != 24 {
		t.Errorf("Max = %v, want 24", stats.Max)
	}
	if stats.Median != 12 {
		t.Errorf("Median = %v, want 12", stats.Median)
	}
	if stats.Mean != 15 {
		t.Errorf("Mean = %v, want 15", stats.Mean)
	}
}

func TestFontFeature(t *testing.T) {
	stats := FontStats{Median: 10, Max: 24}
	tests := []struct {
		size float64
		want float64
	}{
		{24, 1.0},
		{18, 1.0},
		{15, 0.85},
		{13, 0.65},
		{11, 0.40},
		{10.5, 0.20},
		{10, 0},
		{9, 0},
	}
	for _, tt := range tests {
		if got := fontFeature(stats, tt.size); got != tt.want {
			t.Errorf("fontFeature(%v) = %v, want %v", tt.size, got, tt.want)
		}
	}

	// The document's largest size stays a strong signal even when large
	// fonts pull the median close to it.
	if got := fontFeature(FontStats{Median: 20, Max: 24}, 24); got != 0.9 {
		t.Errorf("max-size feature = %v, want 0.9", got)
	}
	if got := fontFeature(FontStats{}, 12); got != 0 {
		t.Errorf("zero stats feature = %v, want 0", got)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(*Config) {}, false},
		{"weights not summing", func(c *Config) { c.FontWeight = 0.9 }, true},
		{"increasing fractions", func(c *Config) { c.H2Fraction = 0.95 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{}
			cfg.ApplyDefaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

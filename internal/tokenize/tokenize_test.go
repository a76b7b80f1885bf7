package tokenize

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "drops stopwords and short tokens",
			in:   "Plan a trip to the south of France",
			want: []string{"plan", "trip", "south", "france"},
		},
		{
			name: "splits on punctuation",
			in:   "beach-side, sun & surf!",
			want: []string{"beach", "side", "sun", "surf"},
		},
		{
			name: "lowercases",
			in:   "VEGETARIAN Buffet",
			want: []string{"vegetarian", "buffet"},
		},
		{
			name: "empty input",
			in:   "",
			want: []string{},
		},
		{
			name: "only stopwords",
			in:   "the and of",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSet(t *testing.T) {
	set := Set("group group trip trip")
	if len(set) != 2 {
		t.Fatalf("expected 2 unique tokens, got %d", len(set))
	}
	if _, ok := set["group"]; !ok {
		t.Error("expected set to contain group")
	}
}

func TestOverlap(t *testing.T) {
	set := Set("beach activities swimming snorkeling")

	tests := []struct {
		name  string
		query []string
		want  float64
	}{
		{name: "full overlap", query: []string{"beach", "swimming"}, want: 1.0},
		{name: "half overlap", query: []string{"beach", "nightlife"}, want: 0.5},
		{name: "no overlap", query: []string{"tax", "forms"}, want: 0.0},
		{name: "duplicates count once", query: []string{"beach", "beach", "nightlife", "nightlife"}, want: 0.5},
		{name: "empty query", query: nil, want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlap(tt.query, set); got != tt.want {
				t.Errorf("Overlap(%v) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestIsStopword(t *testing.T) {
	if !IsStopword("the") {
		t.Error("expected the to be a stopword")
	}
	if IsStopword("beach") {
		t.Error("beach is not a stopword")
	}
}

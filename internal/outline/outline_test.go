package outline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/docrank/internal/layout"
)

func labeled(text string, level layout.HeadingLevel, page int) layout.LabeledBlock {
	return layout.LabeledBlock{
		TextBlock: layout.TextBlock{Text: text, Page: page},
		Level:     level,
	}
}

func TestBuild(t *testing.T) {
	blocks := []layout.LabeledBlock{
		labeled("User Guide", layout.LevelTitle, 1),
		labeled("Getting Started", layout.LevelH1, 1),
		labeled("Some body text that should not appear.", layout.LevelBody, 1),
		labeled("Installation", layout.LevelH2, 2),
		labeled("Advanced Topics", layout.LevelH1, 5),
	}

	out := Build(blocks)
	assert.Equal(t, "User Guide", out.Title)
	require.Len(t, out.Entries, 3)
	assert.Equal(t, Entry{Level: "H1", Text: "Getting Started", Page: 1}, out.Entries[0])
	assert.Equal(t, Entry{Level: "H2", Text: "Installation", Page: 2}, out.Entries[1])
	assert.Equal(t, Entry{Level: "H1", Text: "Advanced Topics", Page: 5}, out.Entries[2])
}

// A document with a single prominent heading produces a title and no
// sub-entries, end to end through the classifier.
func TestBuildSingleHeadingDocument(t *testing.T) {
	classifier, err := layout.NewClassifier(layout.Config{})
	require.NoError(t, err)

	blocks := []layout.TextBlock{
		{Text: "Introduction", Page: 1, FontSize: 24, Bold: true, Y: 0.05, Index: 0},
		{Text: "This document walks through the basics of the system.", Page: 1, FontSize: 11, Y: 0.20, Index: 1},
		{Text: "Each chapter builds on the previous one.", Page: 1, FontSize: 11, Y: 0.30, Index: 2},
		{Text: "Examples are provided throughout.", Page: 1, FontSize: 11, Y: 0.40, Index: 3},
	}

	out := Build(classifier.Classify(blocks, layout.ComputeFontStats(blocks)))
	assert.Equal(t, "Introduction", out.Title)
	assert.Empty(t, out.Entries)
}

func TestBuildNoTitle(t *testing.T) {
	out := Build([]layout.LabeledBlock{
		labeled("Only a body line here.", layout.LevelBody, 1),
	})
	assert.Empty(t, out.Title)
	assert.Empty(t, out.Entries)
}

func TestBuildSerialization(t *testing.T) {
	out := Build(nil)
	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"","outline":[]}`, string(data))
}

// Package outline turns labeled blocks into a document outline: the title
// plus one entry per heading in reading order.
package outline

import "github.com/fyrsmithlabs/docrank/internal/layout"

// Entry is a single heading in the outline.
type Entry struct {
	Level string `json:"level"`
	Text  string `json:"text"`
	Page  int    `json:"page"`
}

// Outline is the extracted structure of one document.
type Outline struct {
	Title   string  `json:"title"`
	Entries []Entry `json:"outline"`
}

// Build produces an outline from labeled blocks. The title is the block
// labeled as title, or empty when none was found; body blocks are skipped.
// Entries keep document order.
func Build(labeled []layout.LabeledBlock) Outline {
	out := Outline{Entries: []Entry{}}
	for _, lb := range labeled {
		switch {
		case lb.Level == layout.LevelTitle:
			if out.Title == "" {
				out.Title = lb.Text
			}
		case lb.Level.IsHeading():
			out.Entries = append(out.Entries, Entry{
				Level: lb.Level.String(),
				Text:  lb.Text,
				Page:  lb.Page,
			})
		}
	}
	return out
}

// Package section groups labeled blocks into coherent document sections.
package section

import (
	"strings"

	"github.com/fyrsmithlabs/docrank/internal/layout"
)

// Section is a heading plus the body blocks that follow it, up to the next
// heading of equal or higher rank. Sections are immutable after assembly and
// may span page boundaries.
type Section struct {
	Document  string
	Heading   layout.LabeledBlock
	Body      []layout.LabeledBlock
	PageStart int
	PageEnd   int
}

// BodyText returns the section's body as a single space-joined string.
func (s Section) BodyText() string {
	if len(s.Body) == 0 {
		return ""
	}
	parts := make([]string, len(s.Body))
	for i, b := range s.Body {
		parts[i] = strings.TrimSpace(b.Text)
	}
	return strings.Join(parts, " ")
}

// Assemble walks labeled blocks in document order and produces sections.
// Each non-body block opens a section; body blocks accumulate into the open
// section until a block of equal-or-more-significant level closes it. Body
// blocks preceding the first heading belong to no section. A document with
// zero headings yields zero sections; callers report that condition rather
// than treating it as an error.
func Assemble(document string, labeled []layout.LabeledBlock) []Section {
	var sections []Section
	var cur *Section

	flush := func() {
		if cur != nil {
			sections = append(sections, *cur)
			cur = nil
		}
	}

	for _, lb := range labeled {
		if lb.Level.IsHeading() {
			// Any heading closes the open section: body blocks attach to
			// the nearest preceding heading.
			flush()
			s := Section{
				Document:  document,
				Heading:   lb,
				PageStart: lb.Page,
				PageEnd:   lb.Page,
			}
			cur = &s
			continue
		}
		if cur == nil {
			continue
		}
		cur.Body = append(cur.Body, lb)
		if lb.Page < cur.PageStart {
			cur.PageStart = lb.Page
		}
		if lb.Page > cur.PageEnd {
			cur.PageEnd = lb.Page
		}
	}
	flush()

	return sections
}

package layout

// HeadingLevel is the structural significance of a text block.
// Lower values are more significant: Title > H1 > H2 > H3 > H4 > Body.
type HeadingLevel int

const (
	LevelTitle HeadingLevel = iota
	LevelH1
	LevelH2
	LevelH3
	LevelH4
	LevelBody
)

// String returns the wire representation used in outline output.
func (l HeadingLevel) String() string {
	switch l {
	case LevelTitle:
		return "title"
	case LevelH1:
		return "H1"
	case LevelH2:
		return "H2"
	case LevelH3:
		return "H3"
	case LevelH4:
		return "H4"
	default:
		return "body"
	}
}

// IsHeading reports whether the level is a heading (anything but Body).
func (l HeadingLevel) IsHeading() bool {
	return l != LevelBody
}

// MoreSignificantOrEqual reports whether l ranks at least as high as other.
func (l HeadingLevel) MoreSignificantOrEqual(other HeadingLevel) bool {
	return l <= other
}

// TextBlock is a single line-level unit of extracted text. Positions X and Y
// are relative to the page, in [0,1]. Blocks are immutable once extracted.
type TextBlock struct {
	Text     string  `json:"text"`
	Page     int     `json:"page"`
	FontSize float64 `json:"font_size"`
	Bold     bool    `json:"bold"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Index    int     `json:"index"`
}

// LabeledBlock is a TextBlock with its classified heading level and the
// continuous headingness score the level was derived from.
type LabeledBlock struct {
	TextBlock
	Level HeadingLevel `json:"level"`
	Score float64      `json:"score"`
}

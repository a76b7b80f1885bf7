package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docrank/internal/layout"
)

// PDFSource extracts line-level text blocks from PDF files by walking each
// page's content stream. Font size comes from Tf operands, position from
// the Td/TD/Tm text-positioning operators, and boldness from the resolved
// font name. The parser is deliberately shallow: it reads the operators a
// text line needs and ignores the rest of the graphics state.
type PDFSource struct {
	logger *zap.Logger
}

// NewPDFSource creates a PDF block source.
func NewPDFSource(logger *zap.Logger) *PDFSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFSource{logger: logger}
}

var _ Source = (*PDFSource)(nil)

// Extract parses the PDF at path into text blocks.
func (s *PDFSource) Extract(ctx context.Context, path string) ([]layout.TextBlock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	dims, err := pdfCtx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("reading page dimensions: %w", err)
	}

	var blocks []layout.TextBlock
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data := pageContent(pdfCtx, pageNr)
		if len(data) == 0 {
			continue
		}

		width, height := 612.0, 792.0 // US Letter fallback
		if pageNr-1 < len(dims) && dims[pageNr-1].Width > 0 && dims[pageNr-1].Height > 0 {
			width, height = dims[pageNr-1].Width, dims[pageNr-1].Height
		}

		p := contentParser{
			page:   pageNr,
			width:  width,
			height: height,
			fonts:  pageFontNames(pdfCtx, pageNr),
		}
		pageBlocks := p.parse(data)
		blocks = append(blocks, pageBlocks...)

		s.logger.Debug("extracted page",
			zap.String("path", path),
			zap.Int("page", pageNr),
			zap.Int("blocks", len(pageBlocks)),
		)
	}

	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoText, path)
	}
	for i := range blocks {
		blocks[i].Index = i
	}
	return blocks, nil
}

// pageContent returns the raw content stream of one page, or nil.
func pageContent(pdfCtx *model.Context, pageNr int) []byte {
	r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
	if err != nil {
		return nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil
	}
	return data
}

// pageFontNames maps font resource names (e.g. "F1") to base font names
// for one page, using pdfcpu's optimization pass. An empty map means bold
// detection falls back to the resource name itself.
func pageFontNames(pdfCtx *model.Context, pageNr int) map[string]string {
	fonts := make(map[string]string)
	if pdfCtx.Optimize == nil || pageNr-1 >= len(pdfCtx.Optimize.PageFonts) {
		return fonts
	}
	for objNr := range pdfCtx.Optimize.PageFonts[pageNr-1] {
		fo, ok := pdfCtx.Optimize.FontObjects[objNr]
		if !ok || fo == nil {
			continue
		}
		for _, res := range fo.ResourceNames {
			fonts[res] = fo.FontName
		}
	}
	return fonts
}

// pdfStringRe matches PDF string literals in parentheses, honoring escaped
// parens: (text \(here\))
var pdfStringRe = regexp.MustCompile(`\(((?:\\.|[^)\\])*)\)`)

// boldNameRe matches bold variants in font names (Helvetica-Bold,
// Arial Black, NotoSans-Heavy).
var boldNameRe = regexp.MustCompile(`(?i)bold|black|heavy`)

// contentParser accumulates text runs for a single page. A run is flushed
// into a TextBlock whenever the vertical position moves, which recovers
// line-level blocks from show-text operators.
type contentParser struct {
	page   int
	width  float64
	height float64
	fonts  map[string]string

	fontSize float64
	bold     bool
	x, y     float64

	run    strings.Builder
	runX   float64
	runY   float64
	blocks []layout.TextBlock
}

func (p *contentParser) parse(data []byte) []layout.TextBlock {
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		p.handleLine(line)
	}
	p.flush()
	return p.blocks
}

func (p *contentParser) handleLine(line []byte) {
	fields := strings.Fields(string(line))
	if len(fields) == 0 {
		return
	}
	op := fields[len(fields)-1]

	switch {
	case op == "Tf" && len(fields) >= 3:
		p.setFont(fields[len(fields)-3], fields[len(fields)-2])

	case op == "Tm" && len(fields) >= 7:
		e, errE := strconv.ParseFloat(fields[len(fields)-3], 64)
		f, errF := strconv.ParseFloat(fields[len(fields)-2], 64)
		if errE == nil && errF == nil {
			p.moveTo(e, f)
		}

	case (op == "Td" || op == "TD") && len(fields) >= 3:
		tx, errX := strconv.ParseFloat(fields[len(fields)-3], 64)
		ty, errY := strconv.ParseFloat(fields[len(fields)-2], 64)
		if errX == nil && errY == nil {
			p.moveTo(p.x+tx, p.y+ty)
		}

	case op == "T*":
		// Next line: approximate the leading with the font size.
		p.moveTo(p.x, p.y-p.fontSize)

	case op == "BT" || op == "ET":
		p.flush()
		p.x, p.y = 0, 0

	case op == "Tj" || op == "TJ":
		p.appendStrings(line)

	case op == "'":
		p.moveTo(p.x, p.y-p.fontSize)
		p.appendStrings(line)
	}
}

func (p *contentParser) setFont(resource, size string) {
	if s, err := strconv.ParseFloat(size, 64); err == nil && s > 0 {
		p.fontSize = s
	}
	name := strings.TrimPrefix(resource, "/")
	if base, ok := p.fonts[name]; ok {
		name = base
	}
	p.bold = boldNameRe.MatchString(name)
}

// moveTo updates the text position, flushing the current run when the
// vertical position changes enough to start a new line.
func (p *contentParser) moveTo(x, y float64) {
	if p.run.Len() > 0 && absFloat(y-p.runY) > 0.1 {
		p.flush()
	}
	p.x, p.y = x, y
}

func (p *contentParser) appendStrings(line []byte) {
	matches := pdfStringRe.FindAllSubmatch(line, -1)
	if len(matches) == 0 {
		return
	}
	if p.run.Len() == 0 {
		p.runX, p.runY = p.x, p.y
	}
	for _, m := range matches {
		p.run.WriteString(decodePDFString(m[1]))
	}
}

func (p *contentParser) flush() {
	text := cleanText(p.run.String())
	p.run.Reset()
	if text == "" {
		return
	}
	p.blocks = append(p.blocks, layout.TextBlock{
		Text:     text,
		Page:     p.page,
		FontSize: p.fontSize,
		Bold:     p.bold,
		X:        clamp01(p.runX / p.width),
		Y:        clamp01(1 - p.runY/p.height),
	})
}

// decodePDFString handles basic PDF escape sequences, including octal
// escapes like \040.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}

// cleanText collapses whitespace and drops non-printable runes.
func cleanText(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsPrint(r):
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

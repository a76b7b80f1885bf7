package layout

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

var (
	// ErrInvalidConfig indicates invalid classifier configuration.
	ErrInvalidConfig = errors.New("invalid classifier configuration")
)

const weightSumTolerance = 1e-6

// Config holds classifier tuning. Feature weights must sum to 1.0; level
// fractions are applied to the document's own maximum block score, so the
// resulting cutoffs adapt to each document's typography.
type Config struct {
	FontWeight        float64 `koanf:"font_weight"`
	BoldWeight        float64 `koanf:"bold_weight"`
	LengthWeight      float64 `koanf:"length_weight"`
	PositionWeight    float64 `koanf:"position_weight"`
	PatternWeight     float64 `koanf:"pattern_weight"`
	PunctuationWeight float64 `koanf:"punctuation_weight"`

	// MaxHeadingWords is the word count above which the short-length bonus
	// no longer applies. Default: 12.
	MaxHeadingWords int `koanf:"max_heading_words"`

	// TopOfPage is the relative Y position below which a block earns the
	// positional bonus. Default: 0.15.
	TopOfPage float64 `koanf:"top_of_page"`

	// Level cutoffs as fractions of the document's maximum block score.
	TitleFraction float64 `koanf:"title_fraction"`
	H1Fraction    float64 `koanf:"h1_fraction"`
	H2Fraction    float64 `koanf:"h2_fraction"`
	H3Fraction    float64 `koanf:"h3_fraction"`
	H4Fraction    float64 `koanf:"h4_fraction"`

	// MinHeadingScore is an absolute floor: no block below it becomes a
	// heading regardless of the adaptive cutoffs. Default: 0.30.
	MinHeadingScore float64 `koanf:"min_heading_score"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.FontWeight == 0 && c.BoldWeight == 0 && c.LengthWeight == 0 &&
		c.PositionWeight == 0 && c.PatternWeight == 0 && c.PunctuationWeight == 0 {
		c.FontWeight = 0.30
		c.BoldWeight = 0.15
		c.LengthWeight = 0.15
		c.PositionWeight = 0.10
		c.PatternWeight = 0.20
		c.PunctuationWeight = 0.10
	}
	if c.MaxHeadingWords == 0 {
		c.MaxHeadingWords = 12
	}
	if c.TopOfPage == 0 {
		c.TopOfPage = 0.15
	}
	if c.TitleFraction == 0 {
		c.TitleFraction = 0.85
	}
	if c.H1Fraction == 0 {
		c.H1Fraction = 0.70
	}
	if c.H2Fraction == 0 {
		c.H2Fraction = 0.55
	}
	if c.H3Fraction == 0 {
		c.H3Fraction = 0.45
	}
	if c.H4Fraction == 0 {
		c.H4Fraction = 0.35
	}
	if c.MinHeadingScore == 0 {
		c.MinHeadingScore = 0.30
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	sum := c.FontWeight + c.BoldWeight + c.LengthWeight +
		c.PositionWeight + c.PatternWeight + c.PunctuationWeight
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: feature weights sum to %v, want 1.0", ErrInvalidConfig, sum)
	}
	fracs := []float64{c.TitleFraction, c.H1Fraction, c.H2Fraction, c.H3Fraction, c.H4Fraction}
	for i := 1; i < len(fracs); i++ {
		if fracs[i] > fracs[i-1] {
			return fmt.Errorf("%w: level fractions must be non-increasing", ErrInvalidConfig)
		}
	}
	return nil
}

// headingPattern pairs a compiled regex with a bonus weight. When several
// patterns match, the highest weight wins.
type headingPattern struct {
	name   string
	regex  *regexp.Regexp
	weight float64
}

func defaultPatterns() []headingPattern {
	return []headingPattern{
		{"numbered", regexp.MustCompile(`^\d+(\.\d+)*\.?\s+\S`), 1.0},
		{"chapter", regexp.MustCompile(`(?i)^(chapter|section|part|appendix)\b`), 1.0},
		{"lettered", regexp.MustCompile(`^[A-Z]\.\s+\S`), 0.7},
		{"roman", regexp.MustCompile(`^[IVXLC]+\.\s+\S`), 0.7},
		{"all_caps", regexp.MustCompile(`^[A-Z][A-Z\s\d.\-]{2,}$`), 0.5},
	}
}

// headingKeywords are terms that frequently appear in section headings.
var headingKeywords = map[string]struct{}{
	"introduction": {}, "conclusion": {}, "summary": {}, "abstract": {},
	"overview": {}, "methodology": {}, "method": {}, "results": {},
	"discussion": {}, "background": {}, "literature": {}, "review": {},
	"analysis": {}, "findings": {}, "recommendations": {}, "appendix": {},
	"references": {}, "bibliography": {}, "acknowledgments": {},
	"objectives": {}, "goals": {}, "purpose": {}, "scope": {}, "limitations": {},
}

// Classifier converts text blocks into labeled blocks.
type Classifier struct {
	cfg      Config
	patterns []headingPattern
}

// NewClassifier creates a Classifier, applying defaults and validating.
func NewClassifier(cfg Config) (*Classifier, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{cfg: cfg, patterns: defaultPatterns()}, nil
}

// Classify scores every block and maps scores to heading levels using
// cutoffs derived from the document's own score distribution. The stats
// argument comes from ComputeFontStats over the same blocks and drives the
// font-size feature. Blocks are returned in document order. A document
// where no block clears the floor yields only Body labels, which is a
// valid (empty-outline) result.
func (c *Classifier) Classify(blocks []TextBlock, stats FontStats) []LabeledBlock {
	blocks = Dedupe(blocks)
	if len(blocks) == 0 {
		return nil
	}

	labeled := make([]LabeledBlock, len(blocks))
	maxScore := 0.0
	for i, b := range blocks {
		score := c.headingScore(b, stats)
		labeled[i] = LabeledBlock{TextBlock: b, Level: LevelBody, Score: score}
		if score > maxScore {
			maxScore = score
		}
	}

	if maxScore < c.cfg.MinHeadingScore {
		return labeled
	}

	cutoff := func(frac float64) float64 {
		return math.Max(frac*maxScore, c.cfg.MinHeadingScore)
	}
	titleCut := cutoff(c.cfg.TitleFraction)
	levelCuts := []struct {
		level HeadingLevel
		cut   float64
	}{
		{LevelH1, cutoff(c.cfg.H1Fraction)},
		{LevelH2, cutoff(c.cfg.H2Fraction)},
		{LevelH3, cutoff(c.cfg.H3Fraction)},
		{LevelH4, cutoff(c.cfg.H4Fraction)},
	}

	titleIdx := c.pickTitle(labeled, titleCut)

	for i := range labeled {
		if i == titleIdx {
			labeled[i].Level = LevelTitle
			continue
		}
		for _, lc := range levelCuts {
			if labeled[i].Score >= lc.cut {
				labeled[i].Level = lc.level
				break
			}
		}
	}

	return labeled
}

// pickTitle selects the single Title block: the highest-scoring block above
// the title cutoff. Ties go to the larger font, then the earlier block.
// Returns -1 when no block qualifies.
func (c *Classifier) pickTitle(labeled []LabeledBlock, titleCut float64) int {
	best := -1
	for i, lb := range labeled {
		if lb.Score < titleCut {
			continue
		}
		if best == -1 {
			best = i
			continue
		}
		switch {
		case lb.Score > labeled[best].Score:
			best = i
		case lb.Score == labeled[best].Score && lb.FontSize > labeled[best].FontSize:
			best = i
		}
	}
	return best
}

// headingScore computes the composite headingness score in [0,1].
func (c *Classifier) headingScore(b TextBlock, stats FontStats) float64 {
	text := strings.TrimSpace(b.Text)
	if text == "" {
		return 0
	}
	words := strings.Fields(text)

	score := c.cfg.FontWeight * fontFeature(stats, b.FontSize)
	if b.Bold {
		score += c.cfg.BoldWeight
	}
	score += c.cfg.LengthWeight * lengthFeature(len(words), c.cfg.MaxHeadingWords)
	if b.Y <= c.cfg.TopOfPage {
		score += c.cfg.PositionWeight
	}
	score += c.cfg.PatternWeight * c.patternFeature(text, words)
	if !endsWithSentencePunct(text) {
		score += c.cfg.PunctuationWeight
	}

	return math.Min(score, 1.0)
}

// fontFeature maps a block's font size to [0,1] by its ratio to the
// document median, in tiers. The document's single largest size earns a
// near-maximal value even when large fonts dominate the block count and
// drag the median up.
func fontFeature(stats FontStats, size float64) float64 {
	if stats.Median <= 0 {
		return 0
	}
	ratio := size / stats.Median
	f := 0.0
	switch {
	case ratio >= 1.8:
		f = 1.0
	case ratio >= 1.45:
		f = 0.85
	case ratio >= 1.25:
		f = 0.65
	case ratio >= 1.1:
		f = 0.40
	case ratio > 1.0:
		f = 0.20
	}
	if size >= stats.Max && stats.Max > stats.Median && f < 0.9 {
		f = 0.9
	}
	return f
}

// lengthFeature rewards concise blocks: headings are rarely long.
func lengthFeature(wordCount, maxWords int) float64 {
	switch {
	case wordCount == 0:
		return 0
	case wordCount <= 8:
		return 1.0
	case wordCount <= maxWords:
		return 0.6
	case wordCount <= maxWords+4:
		return 0.2
	default:
		return 0
	}
}

// patternFeature returns the highest weight among matching heading patterns,
// or a keyword bonus when the block contains a common section term.
func (c *Classifier) patternFeature(text string, words []string) float64 {
	best := 0.0
	for _, p := range c.patterns {
		if p.weight > best && p.regex.MatchString(text) {
			best = p.weight
		}
	}
	if best < 0.6 {
		for _, w := range words {
			if _, ok := headingKeywords[strings.ToLower(strings.Trim(w, ".,:;"))]; ok {
				best = 0.6
				break
			}
		}
	}
	if best < 0.5 && isTitleCase(words) {
		best = 0.5
	}
	return best
}

func endsWithSentencePunct(text string) bool {
	return strings.HasSuffix(text, ".") || strings.HasSuffix(text, "!") ||
		strings.HasSuffix(text, "?") || strings.HasSuffix(text, ";") ||
		strings.HasSuffix(text, ",")
}

// isTitleCase reports whether most words start with an uppercase letter.
func isTitleCase(words []string) bool {
	if len(words) == 0 {
		return false
	}
	upper := 0
	for _, w := range words {
		if w[0] >= 'A' && w[0] <= 'Z' {
			upper++
		}
	}
	return float64(upper)/float64(len(words)) > 0.7
}

// Dedupe drops blocks that repeat identical normalized text at the same
// rounded position on the same page. Extractors occasionally emit such
// duplicates for overlapping spans.
func Dedupe(blocks []TextBlock) []TextBlock {
	type key struct {
		text string
		page int
		y    int
	}
	seen := make(map[key]struct{}, len(blocks))
	out := make([]TextBlock, 0, len(blocks))
	for _, b := range blocks {
		k := key{
			text: strings.ToLower(strings.TrimSpace(b.Text)),
			page: b.Page,
			y:    int(b.Y * 100),
		}
		if k.text == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, b)
	}
	return out
}

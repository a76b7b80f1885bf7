// Package scoring computes hybrid relevance scores for sections against a
// persona profile. Relevance is a weighted blend of three components:
// semantic (embedding cosine similarity), lexical (weighted term overlap)
// and structural (heading level and body length). All components and the
// blended score stay in [0,1], and identical inputs always produce
// identical scores.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docrank/internal/embeddings"
	"github.com/fyrsmithlabs/docrank/internal/layout"
	"github.com/fyrsmithlabs/docrank/internal/persona"
	"github.com/fyrsmithlabs/docrank/internal/section"
	"github.com/fyrsmithlabs/docrank/internal/semindex"
	"github.com/fyrsmithlabs/docrank/internal/tokenize"
)

var tracer = otel.Tracer("docrank.scoring")

// ErrInvalidConfig indicates an invalid scoring configuration.
var ErrInvalidConfig = errors.New("invalid scoring config")

const weightEpsilon = 1e-6

// Config holds the scoring weights and component parameters.
type Config struct {
	// SemanticWeight, LexicalWeight and StructuralWeight blend the three
	// components and must sum to 1.
	SemanticWeight   float64 `koanf:"semantic_weight"`
	LexicalWeight    float64 `koanf:"lexical_weight"`
	StructuralWeight float64 `koanf:"structural_weight"`

	// RoleWeight and TaskWeight split the lexical component between terms
	// drawn from the persona role and from the job to be done. Must sum
	// to 1.
	RoleWeight float64 `koanf:"role_weight"`
	TaskWeight float64 `koanf:"task_weight"`

	// SemanticTextWords caps how many leading body words join the heading
	// in the text that gets embedded.
	SemanticTextWords int `koanf:"semantic_text_words"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.SemanticWeight == 0 && c.LexicalWeight == 0 && c.StructuralWeight == 0 {
		c.SemanticWeight = 0.5
		c.LexicalWeight = 0.35
		c.StructuralWeight = 0.15
	}
	if c.RoleWeight == 0 && c.TaskWeight == 0 {
		c.RoleWeight = 0.4
		c.TaskWeight = 0.6
	}
	if c.SemanticTextWords == 0 {
		c.SemanticTextWords = 120
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for name, w := range map[string]float64{
		"semantic_weight":   c.SemanticWeight,
		"lexical_weight":    c.LexicalWeight,
		"structural_weight": c.StructuralWeight,
		"role_weight":       c.RoleWeight,
		"task_weight":       c.TaskWeight,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("%w: %s %.3f outside [0,1]", ErrInvalidConfig, name, w)
		}
	}
	if sum := c.SemanticWeight + c.LexicalWeight + c.StructuralWeight; math.Abs(sum-1) > weightEpsilon {
		return fmt.Errorf("%w: component weights sum to %.4f, want 1.0", ErrInvalidConfig, sum)
	}
	if sum := c.RoleWeight + c.TaskWeight; math.Abs(sum-1) > weightEpsilon {
		return fmt.Errorf("%w: role/task weights sum to %.4f, want 1.0", ErrInvalidConfig, sum)
	}
	if c.SemanticTextWords <= 0 {
		return fmt.Errorf("%w: semantic_text_words must be positive", ErrInvalidConfig)
	}
	return nil
}

// Components holds the per-component scores before blending.
type Components struct {
	Semantic   float64 `json:"semantic"`
	Lexical    float64 `json:"lexical"`
	Structural float64 `json:"structural"`
}

// ScoredSection pairs a section with its relevance score.
type ScoredSection struct {
	section.Section

	Relevance  float64
	Components Components
}

// Result is the outcome of scoring one document's sections.
type Result struct {
	Sections []ScoredSection
	// SemanticUsed is false when the embedder failed and the semantic
	// component was dropped, with the remaining weights renormalized.
	SemanticUsed bool
}

// Engine scores sections against a persona profile.
type Engine struct {
	config   Config
	embedder embeddings.Embedder
	logger   *zap.Logger
}

// NewEngine creates a scoring engine. A nil embedder is allowed; scoring
// then runs in lexical-only fallback from the start.
func NewEngine(config Config, embedder embeddings.Embedder, logger *zap.Logger) (*Engine, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{config: config, embedder: embedder, logger: logger}, nil
}

// ScoreAll scores every section in one batch. Embeddings are computed once
// for all sections; if the embedder fails, the semantic component is
// dropped and the lexical and structural weights are renormalized so the
// result still spans [0,1].
func (e *Engine) ScoreAll(ctx context.Context, sections []section.Section, profile persona.Profile) (Result, error) {
	ctx, span := tracer.Start(ctx, "scoring.ScoreAll")
	defer span.End()

	span.SetAttributes(attribute.Int("section_count", len(sections)))

	if len(sections) == 0 {
		return Result{Sections: []ScoredSection{}, SemanticUsed: false}, nil
	}

	semantic, semanticUsed, err := e.semanticScores(ctx, sections, profile)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	wSem, wLex, wStruct := e.config.SemanticWeight, e.config.LexicalWeight, e.config.StructuralWeight
	if !semanticUsed {
		rest := wLex + wStruct
		if rest < weightEpsilon {
			// Degenerate config with all weight on semantic; fall back
			// to lexical alone.
			wLex, wStruct = 1, 0
		} else {
			wLex /= rest
			wStruct /= rest
		}
		wSem = 0
	}

	scored := make([]ScoredSection, len(sections))
	for i, sec := range sections {
		comp := Components{
			Lexical:    e.lexicalScore(sec, profile),
			Structural: e.structuralScore(sec),
		}
		if semanticUsed {
			comp.Semantic = semantic[i]
		}
		relevance := clamp01(wSem*comp.Semantic + wLex*comp.Lexical + wStruct*comp.Structural)
		scored[i] = ScoredSection{Section: sec, Relevance: relevance, Components: comp}
	}

	span.SetAttributes(attribute.Bool("semantic_used", semanticUsed))
	span.SetStatus(codes.Ok, "success")
	return Result{Sections: scored, SemanticUsed: semanticUsed}, nil
}

// Score scores a single section. Convenience wrapper over ScoreAll.
func (e *Engine) Score(ctx context.Context, sec section.Section, profile persona.Profile) (ScoredSection, error) {
	res, err := e.ScoreAll(ctx, []section.Section{sec}, profile)
	if err != nil {
		return ScoredSection{}, err
	}
	return res.Sections[0], nil
}

// semanticScores embeds all sections and the profile query in one batch and
// returns per-section similarities in [0,1]. The second return is false
// when the embedder is absent or failed; callers then renormalize weights.
// An expired or cancelled context is not a model failure and comes back as
// an error, so a document that ran out of budget mid-embedding is never
// mislabeled as a lexical fallback.
func (e *Engine) semanticScores(ctx context.Context, sections []section.Section, profile persona.Profile) ([]float64, bool, error) {
	if e.embedder == nil {
		return nil, false, nil
	}

	index, err := semindex.New(e.embedder, e.logger)
	if err != nil {
		e.logger.Warn("semantic index unavailable, falling back to lexical scoring", zap.Error(err))
		return nil, false, nil
	}

	docs := make([]semindex.Document, len(sections))
	for i, sec := range sections {
		docs[i] = semindex.Document{
			ID:      strconv.Itoa(i),
			Content: e.semanticText(sec),
		}
	}
	if err := index.Add(ctx, docs); err != nil {
		if ctxErr := contextFailure(ctx, err); ctxErr != nil {
			return nil, false, fmt.Errorf("embedding sections: %w", ctxErr)
		}
		e.logger.Warn("embedding sections failed, falling back to lexical scoring", zap.Error(err))
		return nil, false, nil
	}

	sims, err := index.Similarities(ctx, profile.QueryText())
	if err != nil {
		if ctxErr := contextFailure(ctx, err); ctxErr != nil {
			return nil, false, fmt.Errorf("similarity query: %w", ctxErr)
		}
		e.logger.Warn("similarity query failed, falling back to lexical scoring", zap.Error(err))
		return nil, false, nil
	}

	scores := make([]float64, len(sections))
	for i := range sections {
		scores[i] = sims[strconv.Itoa(i)]
	}
	return scores, true, nil
}

// contextFailure returns the context error behind err, if any. Embedding
// failures get wrapped along the way, so the live context is checked too.
func contextFailure(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return context.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return context.Canceled
	case ctx.Err() != nil:
		return ctx.Err()
	}
	return nil
}

// semanticText is the heading plus the first SemanticTextWords body words.
// An empty body means the heading stands alone.
func (e *Engine) semanticText(sec section.Section) string {
	words := strings.Fields(sec.BodyText())
	if len(words) > e.config.SemanticTextWords {
		words = words[:e.config.SemanticTextWords]
	}
	if len(words) == 0 {
		return sec.Heading.Text
	}
	return sec.Heading.Text + " " + strings.Join(words, " ")
}

// lexicalScore measures weighted term overlap between the section text and
// the profile, split between role-derived and task-derived terms. Each
// side is the weight fraction of its terms present in the section; a side
// with no terms cedes its share to the other.
func (e *Engine) lexicalScore(sec section.Section, profile persona.Profile) float64 {
	text := sec.Heading.Text + " " + sec.BodyText()
	tokens := tokenize.Set(text)

	roleSet := make(map[string]bool, len(profile.RoleKeywords))
	for _, kw := range profile.RoleKeywords {
		roleSet[kw] = true
	}

	var roleHit, roleTotal, taskHit, taskTotal float64
	for term, weight := range profile.WeightedTerms {
		if roleSet[term] {
			roleTotal += weight
			if containsTerm(tokens, term) {
				roleHit += weight
			}
		} else {
			taskTotal += weight
			if containsTerm(tokens, term) {
				taskHit += weight
			}
		}
	}

	wRole, wTask := e.config.RoleWeight, e.config.TaskWeight
	switch {
	case roleTotal == 0 && taskTotal == 0:
		return 0
	case roleTotal == 0:
		wRole, wTask = 0, 1
	case taskTotal == 0:
		wRole, wTask = 1, 0
	}

	var score float64
	if roleTotal > 0 {
		score += wRole * (roleHit / roleTotal)
	}
	if taskTotal > 0 {
		score += wTask * (taskHit / taskTotal)
	}
	return clamp01(score * domainBoost(tokens, profile))
}

const (
	domainBoostPerHit = 0.1
	maxDomainBoost    = 1.5
)

// domainBoost rewards sections that also speak the persona type's wider
// domain vocabulary, beyond the profile's own terms. A travel planner's
// sections mentioning itineraries or logistics move up even when those
// words never appear in the persona or job statement. Multiplicative and
// capped, so it reorders near-ties without overriding the term overlap.
func domainBoost(tokens map[string]struct{}, profile persona.Profile) float64 {
	hits := 0
	for _, kw := range profile.DomainKeywords() {
		if _, ok := tokens[kw]; ok {
			hits++
		}
	}
	boost := 1 + domainBoostPerHit*float64(hits)
	if boost > maxDomainBoost {
		boost = maxDomainBoost
	}
	return boost
}

// containsTerm reports whether term appears in the token set. Multi-word
// terms match when all their words do.
func containsTerm(tokens map[string]struct{}, term string) bool {
	words := strings.Fields(term)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if _, ok := tokens[strings.ToLower(w)]; !ok {
			return false
		}
	}
	return true
}

// levelBoost rewards sections whose heading sits near the top of the
// hierarchy. H1 gets the strongest boost: titles are usually document-wide
// boilerplate, and deep headings cover narrow fragments.
var levelBoost = map[layout.HeadingLevel]float64{
	layout.LevelTitle: 0.15,
	layout.LevelH1:    0.25,
	layout.LevelH2:    0.18,
	layout.LevelH3:    0.12,
	layout.LevelH4:    0.08,
}

// structuralScore rates a section on heading level and body length.
func (e *Engine) structuralScore(sec section.Section) float64 {
	score := 0.35 + levelBoost[sec.Heading.Level]

	words := len(strings.Fields(sec.BodyText()))
	switch {
	case words == 0:
		// Thin section: a heading with no content under it.
		score -= 0.25
	case words >= 40 && words <= 500:
		score += 0.30
	case words >= 10 && words <= 1500:
		score += 0.15
	default:
		score += 0.05
	}
	return clamp01(score)
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

// Package pipeline orchestrates a ranking run: documents fan out to a
// bounded worker pool for extraction, classification, assembly and scoring,
// then the ranker joins the surviving candidates into one ordered result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docrank/internal/extract"
	"github.com/fyrsmithlabs/docrank/internal/layout"
	"github.com/fyrsmithlabs/docrank/internal/persona"
	"github.com/fyrsmithlabs/docrank/internal/ranking"
	"github.com/fyrsmithlabs/docrank/internal/scoring"
	"github.com/fyrsmithlabs/docrank/internal/section"
)

var tracer = otel.Tracer("docrank.pipeline")

var (
	// ErrInvalidConfig indicates an invalid pipeline configuration.
	ErrInvalidConfig = errors.New("invalid pipeline config")
	// ErrNoDocuments indicates a run request with an empty document list.
	ErrNoDocuments = errors.New("no input documents")
)

// Config holds pipeline orchestration settings.
type Config struct {
	// Workers bounds concurrent document processing. Zero means
	// GOMAXPROCS, fixed when the runner is created.
	Workers int `koanf:"workers"`
	// DocBudget is the per-document processing deadline.
	DocBudget time.Duration `koanf:"doc_budget"`
	// TopK is how many sections the final ranking keeps.
	TopK int `koanf:"top_k"`
	// MinRelevance is the hard floor under the adaptive cutoff.
	MinRelevance float64 `koanf:"min_relevance"`
	// Lambda is the diversity penalty weight in ranking.
	Lambda float64 `koanf:"lambda"`
	// RefineTop caps refined fragments per ranked section.
	RefineTop int `koanf:"refine_top"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Workers == 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.DocBudget == 0 {
		c.DocBudget = 30 * time.Second
	}
	if c.TopK == 0 {
		c.TopK = 5
	}
	if c.Lambda == 0 {
		c.Lambda = ranking.DefaultLambda
	}
	if c.RefineTop == 0 {
		c.RefineTop = 2
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	}
	if c.DocBudget <= 0 {
		return fmt.Errorf("%w: doc budget must be positive", ErrInvalidConfig)
	}
	if c.TopK < 1 {
		return fmt.Errorf("%w: top k must be positive", ErrInvalidConfig)
	}
	if c.MinRelevance < 0 || c.MinRelevance > 1 {
		return fmt.Errorf("%w: min relevance %.3f outside [0,1]", ErrInvalidConfig, c.MinRelevance)
	}
	if c.Lambda < 0 || c.Lambda > 1 {
		return fmt.Errorf("%w: lambda %.3f outside [0,1]", ErrInvalidConfig, c.Lambda)
	}
	return nil
}

// Runner executes ranking runs. Safe for concurrent use: all per-run state
// lives on the stack of Run.
type Runner struct {
	config     Config
	source     extract.Source
	classifier *layout.Classifier
	engine     *scoring.Engine
	logger     *zap.Logger
}

// NewRunner creates a Runner.
func NewRunner(config Config, source extract.Source, classifier *layout.Classifier, engine *scoring.Engine, logger *zap.Logger) (*Runner, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if source == nil {
		return nil, fmt.Errorf("%w: source is required", ErrInvalidConfig)
	}
	if classifier == nil {
		return nil, fmt.Errorf("%w: classifier is required", ErrInvalidConfig)
	}
	if engine == nil {
		return nil, fmt.Errorf("%w: scoring engine is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		config:     config,
		source:     source,
		classifier: classifier,
		engine:     engine,
		logger:     logger,
	}, nil
}

// docResult is what one worker hands back to the join point.
type docResult struct {
	status   DocumentStatus
	sections []scoring.ScoredSection
}

// Run processes the collection and returns ranked sections. Individual
// document failures are recorded as statuses; only an empty input or a
// cancelled run context produce an error.
func (r *Runner) Run(ctx context.Context, input CollectionInput) (*Result, error) {
	ctx, span := tracer.Start(ctx, "pipeline.Run")
	defer span.End()

	if len(input.Documents) == 0 {
		return nil, ErrNoDocuments
	}

	runID := uuid.NewString()
	started := time.Now().UTC()
	span.SetAttributes(
		attribute.String("run_id", runID),
		attribute.Int("document_count", len(input.Documents)),
	)

	logger := r.logger.With(zap.String("run_id", runID))
	logger.Info("starting run",
		zap.Int("documents", len(input.Documents)),
		zap.String("persona", input.Persona.Role),
		zap.Int("workers", r.config.Workers),
	)

	profile := persona.BuildProfile(input.Persona.Role, input.JobToBeDone.Task)

	// Fan out: one goroutine per document, bounded by a semaphore channel.
	results := make([]docResult, len(input.Documents))
	sem := make(chan struct{}, r.config.Workers)
	var wg sync.WaitGroup

	for i, doc := range input.Documents {
		wg.Add(1)
		go func(i int, doc DocumentRef) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = r.processDocument(ctx, doc, profile, logger)
		}(i, doc)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Late join: rank the surviving candidates once.
	statuses := make(map[string]DocumentStatus, len(input.Documents))
	var candidates []scoring.ScoredSection
	for i, doc := range input.Documents {
		statuses[doc.Filename] = results[i].status
		candidates = append(candidates, results[i].sections...)
	}

	ranked := ranking.Rank(candidates, r.config.TopK, r.config.MinRelevance, r.config.Lambda)

	result := &Result{
		Metadata: Metadata{
			RunID:               runID,
			InputDocuments:      documentNames(input.Documents),
			Persona:             input.Persona.Role,
			JobToBeDone:         input.JobToBeDone.Task,
			ProcessingTimestamp: started.Format(time.RFC3339),
		},
		ExtractedSections:  []ExtractedSection{},
		SubsectionAnalysis: []SubsectionAnalysis{},
		DocumentStatuses:   statuses,
	}

	for _, rs := range ranked.Sections {
		result.ExtractedSections = append(result.ExtractedSections, ExtractedSection{
			Document:       rs.Document,
			SectionTitle:   rs.Heading.Text,
			ImportanceRank: rs.Rank,
			PageNumber:     rs.PageStart,
			PageEnd:        rs.PageEnd,
			RelevanceScore: rs.Relevance,
		})
		for _, sub := range section.Refine(rs.Section, profile, r.config.RefineTop) {
			result.SubsectionAnalysis = append(result.SubsectionAnalysis, SubsectionAnalysis{
				Document:    sub.Document,
				RefinedText: sub.Text,
				PageNumber:  sub.Page,
			})
		}
	}

	span.SetAttributes(attribute.Int("ranked_sections", len(result.ExtractedSections)))
	span.SetStatus(codes.Ok, "success")

	logger.Info("run complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("ranked", len(result.ExtractedSections)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

// processDocument runs extraction through scoring for one document under
// its own deadline. Failures become statuses, never errors.
func (r *Runner) processDocument(ctx context.Context, doc DocumentRef, profile persona.Profile, logger *zap.Logger) docResult {
	ctx, cancel := context.WithTimeout(ctx, r.config.DocBudget)
	defer cancel()

	ctx, span := tracer.Start(ctx, "pipeline.processDocument")
	defer span.End()
	span.SetAttributes(attribute.String("document", doc.Filename))

	log := logger.With(zap.String("document", doc.Filename))

	blocks, err := r.source.Extract(ctx, doc.Filename)
	if err != nil {
		return r.failDocument(ctx, span, log, "extraction failed", err)
	}

	stats := layout.ComputeFontStats(blocks)
	log.Debug("extracted blocks",
		zap.Int("blocks", len(blocks)),
		zap.Float64("font_median", stats.Median),
		zap.Float64("font_max", stats.Max),
	)

	labeled := r.classifier.Classify(blocks, stats)
	sections := section.Assemble(doc.Filename, labeled)
	if len(sections) == 0 {
		span.SetStatus(codes.Ok, "no sections")
		log.Warn("no block cleared the heading threshold")
		return docResult{status: StatusThresholdMiss}
	}

	scored, err := r.engine.ScoreAll(ctx, sections, profile)
	if err != nil {
		return r.failDocument(ctx, span, log, "scoring failed", err)
	}

	status := StatusOK
	if !scored.SemanticUsed {
		status = StatusModelUnavailable
	}

	span.SetAttributes(attribute.Int("sections", len(scored.Sections)))
	span.SetStatus(codes.Ok, "success")
	log.Debug("document processed",
		zap.Int("blocks", len(blocks)),
		zap.Int("sections", len(scored.Sections)),
		zap.String("status", string(status)),
	)
	return docResult{status: status, sections: scored.Sections}
}

func (r *Runner) failDocument(ctx context.Context, span trace.Span, log *zap.Logger, msg string, err error) docResult {
	status := StatusMalformedInput
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		status = StatusBudgetExceeded
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	log.Warn(msg, zap.Error(err), zap.String("status", string(status)))
	return docResult{status: status}
}

func documentNames(docs []DocumentRef) []string {
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Filename
	}
	return names
}

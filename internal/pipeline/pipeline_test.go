package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docrank/internal/embeddings"
	"github.com/fyrsmithlabs/docrank/internal/extract"
	"github.com/fyrsmithlabs/docrank/internal/layout"
	"github.com/fyrsmithlabs/docrank/internal/scoring"
)

func heading(text string, page int, size float64, index int) layout.TextBlock {
	return layout.TextBlock{Text: text, Page: page, FontSize: size, Bold: true, Y: 0.05, Index: index}
}

func body(text string, page int, index int) layout.TextBlock {
	return layout.TextBlock{Text: text, Page: page, FontSize: 11, Y: 0.35, Index: index}
}

// travelCollection is a small corpus for a travel-planning persona: one
// well-formed guide, one empty document, and one wall of prose with no
// headings.
func travelCollection() extract.MemorySource {
	return extract.MemorySource{
		"south.pdf": {
			heading("South of France Guide", 1, 24, 0),
			heading("Coastal Adventures", 2, 20, 1),
			body("Enjoy beach activities such as swimming, snorkeling and paddleboarding along the coast, ideal for a group of college friends on a short trip.", 2, 2),
			heading("Nightlife and Bars", 3, 20, 3),
			body("The best night spots for college students include beach bars, rooftop terraces and live music clubs that stay open late into the evening.", 3, 4),
			heading("Packing Tips", 4, 20, 5),
			body("What to pack for a multi day trip with a group of friends, from swimwear and sunscreen to comfortable shoes for coastal walks.", 4, 6),
		},
		"broken.pdf": nil,
		"plain.pdf": {
			body("this is an unstructured page of prose without any headings at all.", 1, 0),
			body("it continues in the same quiet register for quite a while longer.", 1, 1),
			body("and then it simply ends without ever introducing a single section.", 2, 2),
		},
	}
}

func travelInput() CollectionInput {
	input := CollectionInput{
		Documents: []DocumentRef{
			{Filename: "south.pdf", Title: "South of France Guide"},
			{Filename: "broken.pdf"},
			{Filename: "plain.pdf"},
		},
	}
	input.Persona.Role = "Travel Planner"
	input.JobToBeDone.Task = "Plan a trip of 4 days for a group of 10 college friends"
	return input
}

func newTestRunner(t *testing.T, cfg Config, source extract.Source, embedder embeddings.Embedder) *Runner {
	t.Helper()

	classifier, err := layout.NewClassifier(layout.Config{})
	require.NoError(t, err)
	engine, err := scoring.NewEngine(scoring.Config{}, embedder, zap.NewNop())
	require.NoError(t, err)
	runner, err := NewRunner(cfg, source, classifier, engine, zap.NewNop())
	require.NoError(t, err)
	return runner
}

func TestRunTravelPlannerCollection(t *testing.T) {
	runner := newTestRunner(t, Config{TopK: 3}, travelCollection(), embeddings.NewHashProvider(0))

	result, err := runner.Run(context.Background(), travelInput())
	require.NoError(t, err)

	assert.Equal(t, StatusOK, result.DocumentStatuses["south.pdf"])
	assert.Equal(t, StatusMalformedInput, result.DocumentStatuses["broken.pdf"])
	assert.Equal(t, StatusThresholdMiss, result.DocumentStatuses["plain.pdf"])

	require.NotEmpty(t, result.ExtractedSections)
	assert.LessOrEqual(t, len(result.ExtractedSections), 3)
	for i, sec := range result.ExtractedSections {
		assert.Equal(t, i+1, sec.ImportanceRank)
		assert.Equal(t, "south.pdf", sec.Document)
		assert.GreaterOrEqual(t, sec.RelevanceScore, 0.0)
		assert.LessOrEqual(t, sec.RelevanceScore, 1.0)
		assert.GreaterOrEqual(t, sec.PageEnd, sec.PageNumber)
	}

	require.NotEmpty(t, result.SubsectionAnalysis)
	for _, sub := range result.SubsectionAnalysis {
		assert.Equal(t, "south.pdf", sub.Document)
		assert.NotEmpty(t, sub.RefinedText)
		assert.Positive(t, sub.PageNumber)
	}

	assert.NotEmpty(t, result.Metadata.RunID)
	assert.Equal(t, "Travel Planner", result.Metadata.Persona)
	assert.Equal(t, []string{"south.pdf", "broken.pdf", "plain.pdf"}, result.Metadata.InputDocuments)
	_, err = time.Parse(time.RFC3339, result.Metadata.ProcessingTimestamp)
	assert.NoError(t, err)
}

func TestRunPartialResultsDeterministicRanking(t *testing.T) {
	runner := newTestRunner(t, Config{TopK: 3, Workers: 4}, travelCollection(), embeddings.NewHashProvider(0))

	first, err := runner.Run(context.Background(), travelInput())
	require.NoError(t, err)
	second, err := runner.Run(context.Background(), travelInput())
	require.NoError(t, err)

	assert.Equal(t, first.ExtractedSections, second.ExtractedSections,
		"worker scheduling must not change the final ranking")
}

func TestRunModelUnavailableFallback(t *testing.T) {
	runner := newTestRunner(t, Config{TopK: 3}, travelCollection(), nil)

	result, err := runner.Run(context.Background(), travelInput())
	require.NoError(t, err)

	assert.Equal(t, StatusModelUnavailable, result.DocumentStatuses["south.pdf"])
	assert.NotEmpty(t, result.ExtractedSections,
		"lexical fallback still produces a ranking")
}

type slowSource struct{ delay time.Duration }

func (s slowSource) Extract(ctx context.Context, path string) ([]layout.TextBlock, error) {
	select {
	case <-time.After(s.delay):
		return []layout.TextBlock{heading("Too Late", 1, 20, 0)}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestRunBudgetExceeded(t *testing.T) {
	runner := newTestRunner(t, Config{DocBudget: 20 * time.Millisecond}, slowSource{delay: time.Second}, embeddings.NewHashProvider(0))

	input := CollectionInput{Documents: []DocumentRef{{Filename: "slow.pdf"}}}
	input.Persona.Role = "Analyst"
	input.JobToBeDone.Task = "Analyze quarterly results"

	result, err := runner.Run(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, StatusBudgetExceeded, result.DocumentStatuses["slow.pdf"])
	assert.Empty(t, result.ExtractedSections)
}

// stalledEmbedder blocks until the context expires, like a model call that
// hangs past the document budget.
type stalledEmbedder struct{}

func (stalledEmbedder) EmbedQuery(ctx context.Context, _ string) ([]float32, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalledEmbedder) EmbedDocuments(ctx context.Context, _ []string) ([][]float32, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRunBudgetExceededDuringScoring(t *testing.T) {
	source := extract.MemorySource{
		"south.pdf": travelCollection()["south.pdf"],
	}
	runner := newTestRunner(t, Config{DocBudget: 50 * time.Millisecond}, source, stalledEmbedder{})

	result, err := runner.Run(context.Background(), travelInput())
	require.NoError(t, err)

	assert.Equal(t, StatusBudgetExceeded, result.DocumentStatuses["south.pdf"],
		"a deadline that expires mid-embedding is a budget miss, not a model outage")
	assert.Empty(t, result.ExtractedSections,
		"sections from a document that blew its budget must not be ranked")
}

func TestRunNoDocuments(t *testing.T) {
	runner := newTestRunner(t, Config{}, travelCollection(), embeddings.NewHashProvider(0))

	_, err := runner.Run(context.Background(), CollectionInput{})
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestRunCancelledContext(t *testing.T) {
	runner := newTestRunner(t, Config{}, travelCollection(), embeddings.NewHashProvider(0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Run(ctx, travelInput())
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "negative workers", mutate: func(c *Config) { c.Workers = -1 }, wantErr: true},
		{name: "lambda above one", mutate: func(c *Config) { c.Lambda = 1.5 }, wantErr: true},
		{name: "min relevance above one", mutate: func(c *Config) { c.MinRelevance = 2 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{}
			cfg.ApplyDefaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

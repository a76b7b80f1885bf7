package persona

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProfileWeightsSumToOne(t *testing.T) {
	p := BuildProfile(
		"Travel Planner",
		"Plan a 4-day trip for 10 college friends",
	)

	require.NotEmpty(t, p.WeightedTerms)
	sum := 0.0
	for _, w := range p.WeightedTerms {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9, "term weights must sum to 1.0")
}

func TestBuildProfileJobTermsWeighHeavier(t *testing.T) {
	p := BuildProfile("planner", "itinerary")

	// "itinerary" appears once in the job text, "planner" once in the
	// persona text; job occurrences count double.
	assert.Greater(t, p.WeightedTerms["itinerary"], p.WeightedTerms["planner"])
}

func TestBuildProfileDeterministic(t *testing.T) {
	a := BuildProfile("HR professional", "Create and manage fillable forms for onboarding and compliance")
	b := BuildProfile("HR professional", "Create and manage fillable forms for onboarding and compliance")

	assert.Equal(t, a, b)
}

func TestBuildProfileRoleAndTaskKeptSeparate(t *testing.T) {
	p := BuildProfile("Food Contractor", "Prepare a vegetarian buffet menu")

	assert.Contains(t, p.RoleKeywords, "food")
	assert.Contains(t, p.TaskKeywords, "vegetarian")
	assert.NotContains(t, p.RoleKeywords, "vegetarian")
}

func TestDetectPersonaType(t *testing.T) {
	tests := []struct {
		persona string
		want    string
	}{
		{"Travel Planner", "planner"},
		{"PhD Researcher in Computational Biology", "researcher"},
		{"Undergraduate student preparing for exams", "student"},
		{"Food contractor catering corporate events", "contractor"},
		{"HR specialist", "professional"},
		{"Somebody with no obvious role", "professional"},
	}
	for _, tt := range tests {
		t.Run(tt.persona, func(t *testing.T) {
			p := BuildProfile(tt.persona, "do something")
			assert.Equal(t, tt.want, p.PersonaType)
		})
	}
}

func TestExtractRequirements(t *testing.T) {
	p := BuildProfile(
		"Food Contractor",
		"Prepare a vegetarian buffet-style dinner menu for a corporate gathering of 25 people over 3 days",
	)

	assert.Equal(t, 25, p.Requirements.GroupSize)
	assert.Equal(t, "3 days", p.Requirements.Duration)
	assert.Contains(t, p.Requirements.Dietary, "vegetarian")
	assert.Contains(t, p.Requirements.SpecialNeeds, "buffet-style")
	assert.Contains(t, p.Requirements.SpecialNeeds, "professional")
}

func TestExtractRequirementsSingularDuration(t *testing.T) {
	p := BuildProfile("Travel Planner", "Plan a 1 day excursion for 4 friends")
	assert.Equal(t, "1 day", p.Requirements.Duration)

	p = BuildProfile("Travel Planner", "Plan a 1-week tour")
	assert.Equal(t, "1 week", p.Requirements.Duration)
}

func TestDomainKeywords(t *testing.T) {
	p := BuildProfile("Travel Planner", "Plan a trip")
	kws := p.DomainKeywords()
	assert.Contains(t, kws, "itinerary")
	assert.Contains(t, kws, "logistics")

	// The returned slice is a copy.
	kws[0] = "mutated"
	assert.NotContains(t, p.DomainKeywords(), "mutated")

	p.PersonaType = "unmapped"
	assert.Nil(t, p.DomainKeywords())
}

func TestExtractJobActions(t *testing.T) {
	p := BuildProfile("Travel Planner", "Plan a 4-day trip for 10 college friends")
	assert.Contains(t, p.JobActions, "plan")

	// A job with no recognizable verbs falls back to analyze.
	p = BuildProfile("Analyst", "stuff")
	assert.Equal(t, []string{"analyze"}, p.JobActions)
}

func TestQueryTextIncludesPersonaJobAndTerms(t *testing.T) {
	p := BuildProfile("Travel Planner", "Plan a trip with a detailed itinerary")
	q := p.QueryText()

	assert.Contains(t, q, "Travel Planner")
	assert.Contains(t, q, "itinerary")
	assert.False(t, math.IsNaN(float64(len(q))))
}

package persona

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/fyrsmithlabs/docrank/internal/tokenize"
)

// Requirements are explicit constraints mentioned in the job text.
type Requirements struct {
	GroupSize    int
	Duration     string
	Dietary      []string
	SpecialNeeds []string
}

// Profile is the weighted-term representation of a persona and their task.
// Immutable once built.
type Profile struct {
	PersonaText string
	JobText     string

	// RoleKeywords derive from the persona text, TaskKeywords from the job
	// text. Kept separate so the similarity engine can weight "who is
	// asking" and "what they need" independently. Both sorted.
	RoleKeywords []string
	TaskKeywords []string

	// WeightedTerms maps term to weight; weights sum to 1.0. Task terms
	// count double, reflecting that the job statement is the stronger
	// signal of what the reader needs.
	WeightedTerms map[string]float64

	PersonaType  string
	JobActions   []string
	Requirements Requirements
}

// QueryText returns the text embedded as the semantic query for this
// profile: the raw persona and job statements plus the highest-weighted
// terms, so the embedding sees both phrasing and vocabulary.
func (p Profile) QueryText() string {
	terms := make([]string, 0, len(p.WeightedTerms))
	for t := range p.WeightedTerms {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if p.WeightedTerms[terms[i]] != p.WeightedTerms[terms[j]] {
			return p.WeightedTerms[terms[i]] > p.WeightedTerms[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > 16 {
		terms = terms[:16]
	}
	return strings.TrimSpace(p.PersonaText + " " + p.JobText + " " + strings.Join(terms, " "))
}

// DomainKeywords returns the characteristic vocabulary of the profile's
// persona type. Unknown types yield nil. The slice is a copy, so callers
// cannot mutate the shared tables.
func (p Profile) DomainKeywords() []string {
	kws, ok := personaKeywords[p.PersonaType]
	if !ok {
		return nil
	}
	return append([]string(nil), kws...)
}

// personaKeywords maps persona types to their characteristic vocabulary.
var personaKeywords = map[string][]string{
	"researcher":   {"research", "methodology", "analysis", "study", "findings", "literature", "academic", "publication", "data", "experiment"},
	"student":      {"learn", "study", "exam", "concept", "understanding", "education", "knowledge", "practice", "tutorial", "explanation"},
	"analyst":      {"analysis", "trend", "metrics", "performance", "evaluation", "comparison", "insight", "report", "assessment", "review"},
	"manager":      {"strategy", "planning", "coordination", "team", "leadership", "decision", "execution", "oversight", "process", "management"},
	"planner":      {"plan", "schedule", "organize", "coordinate", "timeline", "logistics", "arrangement", "preparation", "itinerary", "booking"},
	"contractor":   {"service", "delivery", "quality", "specification", "requirement", "standard", "compliance", "execution", "performance", "contract"},
	"professional": {"expertise", "skill", "experience", "competency", "qualification", "practice", "standard", "protocol", "procedure", "guideline"},
}

// jobActionWords maps canonical job actions to verbs that imply them.
var jobActionWords = map[string][]string{
	"create":  {"design", "build", "develop", "make", "construct", "generate", "produce", "establish"},
	"analyze": {"examine", "evaluate", "assess", "review", "investigate", "study", "research", "compare"},
	"plan":    {"organize", "schedule", "prepare", "arrange", "coordinate", "structure", "outline"},
	"manage":  {"oversee", "supervise", "control", "direct", "handle", "administer", "govern", "lead"},
	"prepare": {"ready", "setup", "arrange", "organize", "compile", "assemble", "gather", "collect"},
}

var dietaryTerms = []string{"vegetarian", "vegan", "gluten-free", "halal", "kosher", "dairy-free"}

var (
	groupSizeRe = regexp.MustCompile(`(\d+)\s*(?:people|person|friends?|guests?|individuals?|colleagues?)`)
	durationRe  = regexp.MustCompile(`(\d+)[\s-]*(day|week|hour|month)s?`)
)

// BuildProfile constructs a Profile from persona and job text. Same inputs
// always yield the same profile.
func BuildProfile(personaText, jobText string) Profile {
	roleTokens := tokenize.Tokenize(personaText)
	taskTokens := tokenize.Tokenize(jobText)

	p := Profile{
		PersonaText:   personaText,
		JobText:       jobText,
		RoleKeywords:  uniqueSorted(roleTokens),
		TaskKeywords:  uniqueSorted(taskTokens),
		WeightedTerms: weightTerms(roleTokens, taskTokens),
		PersonaType:   detectPersonaType(strings.ToLower(personaText)),
		JobActions:    extractJobActions(strings.ToLower(jobText)),
		Requirements:  extractRequirements(strings.ToLower(jobText)),
	}
	return p
}

// weightTerms assigns each term a weight proportional to
// 2*tf(job) + tf(persona), normalized so all weights sum to 1.0.
func weightTerms(roleTokens, taskTokens []string) map[string]float64 {
	raw := make(map[string]float64)
	for _, t := range roleTokens {
		raw[t]++
	}
	for _, t := range taskTokens {
		raw[t] += 2
	}
	total := 0.0
	for _, w := range raw {
		total += w
	}
	if total == 0 {
		return map[string]float64{}
	}
	for t, w := range raw {
		raw[t] = w / total
	}
	return raw
}

func uniqueSorted(tokens []string) []string {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// detectPersonaType matches the persona text against type vocabularies.
// Falls back on a few domain cues, then "professional".
func detectPersonaType(persona string) string {
	types := make([]string, 0, len(personaKeywords))
	for t := range personaKeywords {
		types = append(types, t)
	}
	sort.Strings(types)

	for _, t := range types {
		if strings.Contains(persona, t) {
			return t
		}
	}
	for _, t := range types {
		for _, kw := range personaKeywords[t][:3] {
			if strings.Contains(persona, kw) {
				return t
			}
		}
	}

	switch {
	case containsAny(persona, "travel", "trip", "tour"):
		return "planner"
	case containsAny(persona, "food", "chef", "cook", "menu"):
		return "contractor"
	case containsAny(persona, "hr", "human", "resource"):
		return "professional"
	}
	return "professional"
}

// extractJobActions finds canonical actions implied by the job text.
func extractJobActions(job string) []string {
	found := make(map[string]struct{})
	actions := make([]string, 0, len(jobActionWords))
	for a := range jobActionWords {
		actions = append(actions, a)
	}
	sort.Strings(actions)

	for _, action := range actions {
		if strings.Contains(job, action) {
			found[action] = struct{}{}
			continue
		}
		for _, w := range jobActionWords[action] {
			if strings.Contains(job, w) {
				found[action] = struct{}{}
				break
			}
		}
	}
	if containsAny(job, "menu", "food", "recipe") {
		found["prepare"] = struct{}{}
	}
	if containsAny(job, "form", "document") {
		found["create"] = struct{}{}
	}
	if containsAny(job, "trip", "travel", "itinerary") {
		found["plan"] = struct{}{}
	}

	if len(found) == 0 {
		return []string{"analyze"}
	}
	out := make([]string, 0, len(found))
	for a := range found {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// extractRequirements pulls explicit constraints out of the job text.
func extractRequirements(job string) Requirements {
	var req Requirements

	for _, term := range dietaryTerms {
		if strings.Contains(job, term) {
			req.Dietary = append(req.Dietary, term)
		}
	}
	if m := groupSizeRe.FindStringSubmatch(job); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			req.GroupSize = n
		}
	}
	if m := durationRe.FindStringSubmatch(job); m != nil {
		unit := m[2]
		if m[1] != "1" {
			unit += "s"
		}
		req.Duration = m[1] + " " + unit
	}
	if strings.Contains(job, "corporate") {
		req.SpecialNeeds = append(req.SpecialNeeds, "professional")
	}
	if strings.Contains(job, "buffet") {
		req.SpecialNeeds = append(req.SpecialNeeds, "buffet-style")
	}
	if strings.Contains(job, "college") {
		req.SpecialNeeds = append(req.SpecialNeeds, "budget-friendly")
	}
	return req
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

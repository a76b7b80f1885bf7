// Package ranking selects the top-k most relevant sections while keeping
// the selection diverse. It runs greedy maximal marginal relevance over the
// scored candidates: each pick maximizes relevance minus a penalty for
// vocabulary already covered by earlier picks.
package ranking

import (
	"math"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/docrank/internal/scoring"
	"github.com/fyrsmithlabs/docrank/internal/tokenize"
)

// DefaultLambda is the diversity penalty weight.
const DefaultLambda = 0.3

// RankedSection is a selected section with its final rank, 1-based.
type RankedSection struct {
	scoring.ScoredSection

	Rank int
}

// RankedOutput is the ordered selection for one run.
type RankedOutput struct {
	Sections []RankedSection
	// Floor is the adaptive relevance cutoff applied before selection.
	Floor float64
}

// Rank picks at most k sections by greedy maximal marginal relevance.
//
// Candidates below an adaptive floor are discarded first: the floor is the
// larger of minRelevance and mean − 0.5·stddev over all candidate scores,
// so a weak field is trimmed harder than a uniformly strong one. Ties are
// broken by lower page, then document id, then block order, which makes the
// output deterministic for identical inputs. Selection order is final rank
// order. lambda is used as given; zero disables the diversity penalty and
// reduces the selection to plain top-k.
func Rank(scored []scoring.ScoredSection, k int, minRelevance, lambda float64) RankedOutput {
	floor := adaptiveFloor(scored, minRelevance)

	pool := make([]candidate, 0, len(scored))
	for i, s := range scored {
		if s.Relevance < floor {
			continue
		}
		pool = append(pool, candidate{
			section: s,
			order:   i,
			tokens:  tokenize.Tokenize(s.Heading.Text + " " + s.BodyText()),
		})
	}

	out := RankedOutput{Floor: floor}
	if k <= 0 || len(pool) == 0 {
		return out
	}

	chosen := make(map[string]struct{})
	picked := make([]bool, len(pool))

	for rank := 1; rank <= k && rank <= len(pool); rank++ {
		best := -1
		bestScore := math.Inf(-1)
		for i, c := range pool {
			if picked[i] {
				continue
			}
			score := c.section.Relevance - lambda*tokenize.Overlap(c.tokens, chosen)
			if best == -1 || score > bestScore || (score == bestScore && c.precedes(pool[best])) {
				best = i
				bestScore = score
			}
		}

		picked[best] = true
		for _, tok := range pool[best].tokens {
			chosen[tok] = struct{}{}
		}
		out.Sections = append(out.Sections, RankedSection{
			ScoredSection: pool[best].section,
			Rank:          rank,
		})
	}

	return out
}

type candidate struct {
	section scoring.ScoredSection
	order   int
	tokens  []string
}

// precedes orders tied candidates: lower page, then lexicographically
// earlier document, then original block order.
func (c candidate) precedes(other candidate) bool {
	if c.section.PageStart != other.section.PageStart {
		return c.section.PageStart < other.section.PageStart
	}
	if cmp := strings.Compare(c.section.Document, other.section.Document); cmp != 0 {
		return cmp < 0
	}
	return c.order < other.order
}

// adaptiveFloor computes the relevance cutoff for a candidate field.
func adaptiveFloor(scored []scoring.ScoredSection, minRelevance float64) float64 {
	if len(scored) == 0 {
		return minRelevance
	}

	var sum float64
	for _, s := range scored {
		sum += s.Relevance
	}
	mean := sum / float64(len(scored))

	var varsum float64
	for _, s := range scored {
		d := s.Relevance - mean
		varsum += d * d
	}
	std := math.Sqrt(varsum / float64(len(scored)))

	return math.Max(minRelevance, mean-0.5*std)
}

// NaiveTopK returns the plain top-k by relevance with the same tie-breaks
// and no diversity penalty. Used to measure how much MMR buys.
func NaiveTopK(scored []scoring.ScoredSection, k int) []scoring.ScoredSection {
	pool := make([]candidate, len(scored))
	for i, s := range scored {
		pool[i] = candidate{section: s, order: i}
	}
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].section.Relevance != pool[j].section.Relevance {
			return pool[i].section.Relevance > pool[j].section.Relevance
		}
		return pool[i].precedes(pool[j])
	})
	if k > len(pool) {
		k = len(pool)
	}
	out := make([]scoring.ScoredSection, k)
	for i := 0; i < k; i++ {
		out[i] = pool[i].section
	}
	return out
}

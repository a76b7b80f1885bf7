package section

import (
	"regexp"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/docrank/internal/persona"
)

// Subsection is a refined fragment of a section's body, scored against a
// persona profile for the subsection-analysis output.
type Subsection struct {
	Document string
	Text     string
	Page     int
	Score    float64
}

const (
	minSubsectionChars = 100
	maxFragmentChars   = 2000
	sentenceGroupChars = 200
)

var (
	numberedSplitRe = regexp.MustCompile(`\n\s*\d+\.\s+`)
	bulletSplitRe   = regexp.MustCompile(`\n\s*[•·*-]\s+`)
	sentenceEndRe   = regexp.MustCompile(`[.!?]+\s+`)
)

// Refine splits a section's body into candidate fragments, scores each
// against the profile, and returns at most max fragments ordered by score.
// Splitting tries numbered lists, then bullets, then sentence groups.
func Refine(sec Section, profile persona.Profile, max int) []Subsection {
	if max <= 0 {
		return nil
	}
	body := sec.BodyText()
	if body == "" {
		return nil
	}

	fragments := splitFragments(body)

	subs := make([]Subsection, 0, len(fragments))
	for _, frag := range fragments {
		frag = strings.TrimSpace(frag)
		if len(frag) < minSubsectionChars {
			continue
		}
		subs = append(subs, Subsection{
			Document: sec.Document,
			Text:     frag,
			Page:     sec.PageStart,
			Score:    scoreFragment(frag, profile),
		})
	}

	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].Score > subs[j].Score
	})
	if len(subs) > max {
		subs = subs[:max]
	}
	return subs
}

// splitFragments breaks body text into refinement candidates.
func splitFragments(body string) []string {
	if parts := splitNonEmpty(numberedSplitRe, body); len(parts) > 1 {
		return parts
	}
	if parts := splitNonEmpty(bulletSplitRe, body); len(parts) > 1 {
		return parts
	}

	// Group sentences until each fragment reaches a readable size.
	sentences := sentenceEndRe.Split(body, -1)
	if len(sentences) > 1 {
		var fragments []string
		var cur strings.Builder
		for _, s := range sentences {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if cur.Len() > 0 {
				cur.WriteString(". ")
			}
			cur.WriteString(s)
			if cur.Len() >= sentenceGroupChars {
				fragments = append(fragments, cur.String())
				cur.Reset()
			}
		}
		if cur.Len() > 0 {
			fragments = append(fragments, cur.String())
		}
		if len(fragments) > 0 {
			return fragments
		}
	}

	if len(body) > maxFragmentChars {
		return []string{body[:maxFragmentChars]}
	}
	return []string{body}
}

func splitNonEmpty(re *regexp.Regexp, text string) []string {
	var out []string
	for _, p := range re.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// scoreFragment estimates how useful a fragment is to the profiled persona:
// weighted-term coverage plus small bonuses for job actions, requirement
// mentions, and substantial length.
func scoreFragment(frag string, profile persona.Profile) float64 {
	lower := strings.ToLower(frag)
	score := 0.0

	for term, weight := range profile.WeightedTerms {
		if strings.Contains(lower, term) {
			score += weight
		}
	}
	for _, action := range profile.JobActions {
		if strings.Contains(lower, action) {
			score += 0.05
		}
	}
	for _, d := range profile.Requirements.Dietary {
		if strings.Contains(lower, d) {
			score += 0.1
		}
	}
	for _, n := range profile.Requirements.SpecialNeeds {
		if strings.Contains(lower, n) {
			score += 0.05
		}
	}

	// Prefer substantial fragments: cap the length bonus at 0.1.
	lengthBonus := float64(len(frag)) / 500.0 * 0.1
	if lengthBonus > 0.1 {
		lengthBonus = 0.1
	}
	return score + lengthBonus
}

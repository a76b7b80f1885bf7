// Package tokenize provides the shared lowercasing word tokenizer used by
// the profiler, the similarity engine, and the ranker. Keeping one tokenizer
// guarantees the lexical components all agree on what a term is.
package tokenize

import "strings"

// stopwords are common English terms excluded from all lexical scoring.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "as": true, "is": true, "was": true,
	"are": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "can": true, "this": true, "that": true,
	"these": true, "those": true, "i": true, "you": true, "he": true,
	"she": true, "it": true, "we": true, "they": true, "what": true,
	"which": true, "who": true, "when": true, "where": true, "why": true,
	"how": true, "not": true, "no": true, "so": true, "if": true, "then": true,
	"than": true, "too": true, "very": true, "just": true, "into": true,
	"about": true, "over": true, "under": true, "after": true, "before": true,
}

// IsStopword reports whether the lowercased token is a stopword.
func IsStopword(token string) bool {
	return stopwords[token]
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') || r == '_'
}

// Tokenize splits text into lowercase terms, dropping stopwords and tokens
// shorter than three characters. Order follows the input text.
func Tokenize(text string) []string {
	raw := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isAlphanumeric(r)
	})
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		if len(tok) > 2 && !stopwords[tok] {
			out = append(out, tok)
		}
	}
	return out
}

// Set returns the unique tokens of text as a membership set.
func Set(text string) map[string]struct{} {
	toks := Tokenize(text)
	set := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		set[t] = struct{}{}
	}
	return set
}

// Overlap returns the fraction of query tokens present in the given set,
// in [0,1]. Duplicate query tokens count once.
func Overlap(query []string, set map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	counted := make(map[string]bool, len(query))
	matched := 0
	unique := 0
	for _, q := range query {
		if counted[q] {
			continue
		}
		counted[q] = true
		unique++
		if _, ok := set[q]; ok {
			matched++
		}
	}
	if unique == 0 {
		return 0
	}
	return float64(matched) / float64(unique)
}

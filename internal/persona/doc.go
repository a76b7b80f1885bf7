// Package persona builds weighted keyword profiles from free-text persona
// and job-to-be-done descriptions.
//
// A profile captures "who is asking and what they need": separate role and
// task keyword sets, a term-weight map summing to 1.0, and lightweight
// contextual signals (persona type, job actions, explicit requirements such
// as group size or dietary constraints). Profile construction is fully
// deterministic; identical inputs always produce identical profiles.
package persona

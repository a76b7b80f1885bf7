// Package layout classifies raw text blocks into heading levels.
//
// The classifier is purely statistical: it scores each block on typographic
// and textual features (font-size rank, boldness, length, page position,
// numbering patterns) and maps scores to levels using thresholds derived
// from the document's own score distribution. No trained model is involved.
package layout

package domain

import "strings"

// Candidate is one entry discovered in an upstream news source. Candidates
// arrive newest first and are never persisted.
type Candidate struct {
	Title      string     `json:"title"`
	Link       string     `json:"link"`
	BodyMarkup string     `json:"body_markup"`
	Source     SourceKind `json:"source"`
}

// HasBody reports whether the candidate carries any markup to normalize
func (c Candidate) HasBody() bool {
	return strings.TrimSpace(c.BodyMarkup) != ""
}

package service

import "unicode/utf8"

// Normalizer converts HTML or BBCode into the plain-text dialect understood by
// the destination channel. It never fails: malformed markup degrades to best
// effort text.
type Normalizer struct {
	rules []Rule
}

// New creates a normalizer running the default rules
func New() *Normalizer {
	return &Normalizer{rules: DefaultRules()}
}

// NewWithRules creates a normalizer running rules in the given order
func NewWithRules(rules ...Rule) *Normalizer {
	return &Normalizer{rules: rules}
}

func (n *Normalizer) Normalize(raw string) string {
	text := raw
	for _, rule := range n.rules {
		text = rule.Apply(text)
	}
	return text
}

// Usable reports whether normalized text carries at least minLength runes
func Usable(text string, minLength int) bool {
	return text != "" && utf8.RuneCountInString(text) >= minLength
}

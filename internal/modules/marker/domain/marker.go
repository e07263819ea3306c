package domain

import "time"

// Marker is the identity of the most recently selected announcement
type Marker struct {
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsZero reports whether nothing was ever selected
func (m Marker) IsZero() bool {
	return m.Value == ""
}

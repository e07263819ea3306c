package domain

import (
	"time"

	feedDomain "github.com/reshetovitsme/patchnotes-feed/internal/modules/feed/domain"
)

// CycleReport describes one ingestion cycle
type CycleReport struct {
	Stage    Stage                 `json:"stage"`
	Outcome  Outcome               `json:"outcome"`
	Identity string                `json:"identity,omitempty"`
	Link     string                `json:"link,omitempty"`
	Source   feedDomain.SourceKind `json:"source,omitempty"`
	Segments int                   `json:"segments"`
	Started  time.Time             `json:"started"`
	Duration time.Duration         `json:"duration"`
	Err      error                 `json:"-"`
}

// Error returns the cycle error message, empty when the cycle succeeded
func (r CycleReport) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

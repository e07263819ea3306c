package service

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	deliveryDomain "github.com/reshetovitsme/patchnotes-feed/internal/modules/delivery/domain"
	"github.com/reshetovitsme/patchnotes-feed/internal/modules/feed/domain"
)

// Gate decides whether a selected candidate still has to be published
type Gate struct {
	identifier   *Identifier
	history      deliveryDomain.HistoryReader
	historyDepth int
	forcePending atomic.Bool
}

// NewGate creates a gate. history may be nil, in which case only the marker
// is consulted. forcePost lets the first candidate through unconditionally.
func NewGate(identifier *Identifier, history deliveryDomain.HistoryReader, historyDepth int, forcePost bool) *Gate {
	g := &Gate{
		identifier:   identifier,
		history:      history,
		historyDepth: historyDepth,
	}
	g.forcePending.Store(forcePost)
	return g
}

func (g *Gate) Identity(c domain.Candidate) string {
	return g.identifier.Identity(c)
}

// IsNew reports whether c differs from the marker and, when a history reader
// is available, was not posted recently by this publisher. A pending force
// post lets every candidate through until ConsumeForce is called.
func (g *Gate) IsNew(ctx context.Context, c domain.Candidate, marker string) bool {
	if g.forcePending.Load() {
		slog.Info("Force post enabled, bypassing deduplication", "link", c.Link)
		return true
	}

	identity := g.identifier.Identity(c)
	if marker != "" && (identity == marker || (c.Link != "" && c.Link == marker)) {
		return false
	}

	if g.history == nil || c.Link == "" || g.historyDepth <= 0 {
		return true
	}

	return !g.recentlyPosted(ctx, c.Link)
}

// ConsumeForce clears a pending force post once a forced candidate has been
// committed to
func (g *Gate) ConsumeForce() {
	if g.forcePending.CompareAndSwap(true, false) {
		slog.Info("Force post used")
	}
}

func (g *Gate) recentlyPosted(ctx context.Context, link string) bool {
	self, err := g.history.Self(ctx)
	if err != nil {
		slog.Debug("History check unavailable", "stage", "self", "error", err)
		return false
	}

	entries, err := g.history.Recent(ctx, g.historyDepth)
	if err != nil {
		slog.Debug("History check unavailable", "stage", "recent", "error", err)
		return false
	}

	needle := StripQuery(link)
	for _, entry := range entries {
		if self != "" && entry.Author != self {
			continue
		}
		if strings.Contains(entry.Content, needle) {
			slog.Info("Candidate found in recent channel history", "link", link, "author", entry.Author)
			return true
		}
	}

	return false
}

package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	deliveryService "github.com/reshetovitsme/patchnotes-feed/internal/modules/delivery/service"
	feedDomain "github.com/reshetovitsme/patchnotes-feed/internal/modules/feed/domain"
	feedService "github.com/reshetovitsme/patchnotes-feed/internal/modules/feed/service"
	markerDomain "github.com/reshetovitsme/patchnotes-feed/internal/modules/marker/domain"
	markerRepo "github.com/reshetovitsme/patchnotes-feed/internal/modules/marker/repository"
	markerService "github.com/reshetovitsme/patchnotes-feed/internal/modules/marker/service"
	markupService "github.com/reshetovitsme/patchnotes-feed/internal/modules/markup/service"
	messageDomain "github.com/reshetovitsme/patchnotes-feed/internal/modules/message/domain"
	"github.com/reshetovitsme/patchnotes-feed/internal/modules/pipeline/domain"
	selectionService "github.com/reshetovitsme/patchnotes-feed/internal/modules/selection/service"
	"github.com/reshetovitsme/patchnotes-feed/internal/shared/errors"
	"github.com/samber/oops"
)

// Journal records announcements that reached the channel
type Journal interface {
	Record(message *messageDomain.Message) error
}

// Publisher delivers message segments followed by link segments
type Publisher interface {
	Publish(ctx context.Context, segments, links []string) (int, error)
}

type Settings struct {
	ProductName      string
	MessageLimit     int
	MinContentLength int
}

// Runner executes ingestion cycles: fetch, select, dedupe, normalize, chunk,
// publish and advance the marker
type Runner struct {
	adapters   []feedService.Adapter
	selector   *selectionService.Selector
	gate       *markerService.Gate
	normalizer *markupService.Normalizer
	publisher  Publisher
	markers    markerRepo.Repository
	journal    Journal
	settings   Settings

	running sync.Mutex

	mu     sync.RWMutex
	stage  domain.Stage
	marker markerDomain.Marker
	last   *domain.CycleReport
}

func NewRunner(
	adapters []feedService.Adapter,
	selector *selectionService.Selector,
	gate *markerService.Gate,
	normalizer *markupService.Normalizer,
	publisher Publisher,
	markers markerRepo.Repository,
	journal Journal,
	settings Settings,
) *Runner {
	return &Runner{
		adapters:   adapters,
		selector:   selector,
		gate:       gate,
		normalizer: normalizer,
		publisher:  publisher,
		markers:    markers,
		journal:    journal,
		settings:   settings,
		stage:      domain.StageIdle,
	}
}

// LoadMarker reads the durable marker. A failed read starts without one.
func (r *Runner) LoadMarker(ctx context.Context) {
	marker, err := r.markers.Load(ctx)
	if err != nil {
		slog.Error("Failed to load publish marker, starting without one", "error", err)
		marker = markerDomain.Marker{}
	}

	r.mu.Lock()
	r.marker = marker
	r.mu.Unlock()

	slog.Info("Loaded publish marker", "marker", marker.Value)
}

// Marker returns the identity of the last selected announcement
func (r *Runner) Marker() markerDomain.Marker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.marker
}

// Stage returns the stage of the cycle in flight, idle between cycles
func (r *Runner) Stage() domain.Stage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stage
}

// LastReport returns the report of the most recent finished cycle
func (r *Runner) LastReport() (domain.CycleReport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return domain.CycleReport{}, false
	}
	return *r.last, true
}

// RunCycle runs one ingestion cycle. Overlapping calls return immediately
// with the skipped outcome.
func (r *Runner) RunCycle(ctx context.Context) domain.CycleReport {
	if !r.running.TryLock() {
		slog.Warn("Ingestion cycle already running, skipping")
		return domain.CycleReport{Stage: domain.StageIdle, Outcome: domain.OutcomeSkipped, Started: time.Now(), Err: errors.ErrCycleInFlight}
	}
	defer r.running.Unlock()

	report := &domain.CycleReport{Stage: domain.StageIdle, Started: time.Now()}
	r.cycle(ctx, report)
	report.Duration = time.Since(report.Started)

	r.mu.Lock()
	r.stage = domain.StageIdle
	r.last = report
	r.mu.Unlock()

	attrs := []any{"stage", report.Stage, "outcome", report.Outcome, "identity", report.Identity, "duration", report.Duration}
	switch report.Outcome {
	case domain.OutcomeFetchFailed, domain.OutcomePublishFailed:
		slog.Error("Ingestion cycle failed", append(attrs, "error", report.Err)...)
	case domain.OutcomeTooShort:
		slog.Warn("Announcement has no usable content", attrs...)
	default:
		slog.Info("Ingestion cycle finished", attrs...)
	}

	return *report
}

func (r *Runner) cycle(ctx context.Context, report *domain.CycleReport) {
	candidate, adapter, err := r.discover(ctx, report)
	if err != nil {
		report.Outcome, report.Err = domain.OutcomeFetchFailed, err
		return
	}
	if adapter == nil {
		report.Outcome = domain.OutcomeNothingNew
		return
	}

	r.advance(report, domain.StageDeduping)
	report.Identity = r.gate.Identity(candidate)
	report.Link = candidate.Link
	report.Source = candidate.Source
	if !r.gate.IsNew(ctx, candidate, r.Marker().Value) {
		report.Outcome = domain.OutcomeDuplicate
		return
	}

	if hydrator, ok := adapter.(feedService.Hydrator); ok && !candidate.HasBody() {
		hydrated, err := hydrator.Hydrate(ctx, candidate)
		switch {
		case err == nil:
			candidate = hydrated
		case errors.HasCode(err, errors.CodeParse):
			slog.Warn("No content found on announcement page", "link", candidate.Link, "error", err)
		default:
			// the page may come back, so the marker stays put
			report.Outcome, report.Err = domain.OutcomeFetchFailed, err
			return
		}
	}
	r.gate.ConsumeForce()

	r.advance(report, domain.StageNormalizing)
	text := r.normalizer.Normalize(candidate.BodyMarkup)
	if !markupService.Usable(text, r.settings.MinContentLength) {
		report.Outcome = domain.OutcomeTooShort
		report.Err = oops.Code(errors.CodeContentTooShort).
			With("identity", report.Identity, "length", len([]rune(text)), "min", r.settings.MinContentLength).
			New("normalized content below minimum length")
		r.updateMarker(ctx, report)
		return
	}

	r.advance(report, domain.StageChunking)
	segments := deliveryService.Chunk(r.header(candidate), text, r.settings.MessageLimit)
	var links []string
	if candidate.Link != "" {
		links = append(links, candidate.Link)
	}

	r.advance(report, domain.StagePublishing)
	sent, publishErr := r.publisher.Publish(ctx, segments, links)
	report.Segments = sent

	r.updateMarker(ctx, report)

	if sent > 0 {
		r.record(candidate, text, report)
	}

	if publishErr != nil {
		report.Outcome, report.Err = domain.OutcomePublishFailed, publishErr
		return
	}
	report.Outcome = domain.OutcomePublished
}

// discover tries the sources in order and returns the first accepted
// candidate with the adapter that produced it. A nil adapter with a nil error
// means nothing was accepted.
func (r *Runner) discover(ctx context.Context, report *domain.CycleReport) (feedDomain.Candidate, feedService.Adapter, error) {
	var lastErr error
	fetched := false

	for _, adapter := range r.adapters {
		r.advance(report, domain.StageFetching)
		candidates, err := adapter.FetchCandidates(ctx)
		if err != nil {
			if errors.HasCode(err, errors.CodeParse) {
				slog.Warn("Source returned no recognizable entries", "source", adapter.Kind(), "url", adapter.URL(), "error", err)
				fetched = true
				continue
			}
			slog.Warn("Failed to fetch source", "source", adapter.Kind(), "url", adapter.URL(), "error", err)
			lastErr = err
			continue
		}
		fetched = true
		if len(candidates) == 0 {
			slog.Debug("Source returned no candidates", "source", adapter.Kind(), "url", adapter.URL())
			continue
		}

		r.advance(report, domain.StageSelecting)
		if candidate, ok := r.selector.Select(candidates); ok {
			slog.Debug("Selected candidate", "source", adapter.Kind(), "title", candidate.Title, "link", candidate.Link)
			return candidate, adapter, nil
		}
	}

	if !fetched && lastErr != nil {
		return feedDomain.Candidate{}, nil, lastErr
	}
	return feedDomain.Candidate{}, nil, nil
}

func (r *Runner) header(c feedDomain.Candidate) string {
	title := strings.TrimSpace(c.Title)
	if title == "" {
		title = strings.TrimSpace(r.settings.ProductName + " update")
	}
	return "**" + title + "**"
}

func (r *Runner) updateMarker(ctx context.Context, report *domain.CycleReport) {
	r.advance(report, domain.StageMarkerUpdate)

	marker := markerDomain.Marker{Value: report.Identity, UpdatedAt: time.Now().UTC()}
	r.mu.Lock()
	r.marker = marker
	r.mu.Unlock()

	if err := r.markers.Save(ctx, marker); err != nil {
		slog.Error("Failed to persist publish marker", "marker", marker.Value, "error", err)
	}
}

func (r *Runner) record(c feedDomain.Candidate, text string, report *domain.CycleReport) {
	if r.journal == nil {
		return
	}

	err := r.journal.Record(&messageDomain.Message{
		ID:       report.Identity,
		Title:    c.Title,
		Link:     c.Link,
		Text:     text,
		Segments: report.Segments,
	})
	if err != nil {
		slog.Error("Failed to record published announcement", "identity", report.Identity, "error", err)
	}
}

func (r *Runner) advance(report *domain.CycleReport, stage domain.Stage) {
	report.Stage = stage
	r.mu.Lock()
	r.stage = stage
	r.mu.Unlock()
}

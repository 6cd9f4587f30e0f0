// Package scout drives the sequential lead-generation workflows: area
// discovery, per-area business search, and bulk enrichment. Exactly one
// service call is ever in flight across the whole session; batch runs
// process a snapshot one unit at a time with a fixed inter-unit delay to
// stay under the service's request-rate ceiling.
package scout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/posso-labs/leadscout/internal/model"
	"github.com/posso-labs/leadscout/internal/quota"
	"github.com/posso-labs/leadscout/internal/workspace"
	"github.com/posso-labs/leadscout/pkg/gemini"
)

// Inter-unit delays. These exist purely to stay under the external
// service's request-rate ceiling; tests inject a no-op sleeper instead of
// removing them.
const (
	DefaultSearchDelay = 1200 * time.Millisecond
	DefaultEnrichDelay = 1000 * time.Millisecond
)

var (
	// ErrBusy is returned when another workflow holds the in-flight slot.
	ErrBusy = eris.New("scout: another operation is in flight")
	// ErrAreaBusy rejects a re-entrant search on an area already mid-request.
	ErrAreaBusy = eris.New("scout: area search already in flight")
)

// Sleeper pauses between batch units. The production sleeper honors
// context cancellation; tests substitute a no-op.
type Sleeper func(ctx context.Context, d time.Duration)

func ctxSleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Progress is the (processed, total) pair of a running enrichment batch.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// Option configures the Scouter.
type Option func(*Scouter)

// WithSearchDelay overrides the delay between area searches.
func WithSearchDelay(d time.Duration) Option {
	return func(s *Scouter) { s.searchDelay = d }
}

// WithEnrichDelay overrides the delay between lead enrichments.
func WithEnrichDelay(d time.Duration) Option {
	return func(s *Scouter) { s.enrichDelay = d }
}

// WithSleeper substitutes the inter-unit sleeper.
func WithSleeper(sleep Sleeper) Option {
	return func(s *Scouter) { s.sleep = sleep }
}

// WithLocation biases business searches toward a coordinate.
func WithLocation(loc *gemini.Coordinate) Option {
	return func(s *Scouter) { s.loc = loc }
}

// Scouter orchestrates the search and enrichment workflows over the shared
// workspace.
type Scouter struct {
	ws       *workspace.Workspace
	svc      gemini.Client
	guard    *quota.Guard
	inflight *semaphore.Weighted

	searchDelay time.Duration
	enrichDelay time.Duration
	sleep       Sleeper
	loc         *gemini.Coordinate

	mu       sync.Mutex
	region   string
	progress Progress
}

// New creates a Scouter over the given workspace, service client, and
// quota guard.
func New(ws *workspace.Workspace, svc gemini.Client, guard *quota.Guard, opts ...Option) *Scouter {
	s := &Scouter{
		ws:          ws,
		svc:         svc,
		guard:       guard,
		inflight:    semaphore.NewWeighted(1),
		searchDelay: DefaultSearchDelay,
		enrichDelay: DefaultEnrichDelay,
		sleep:       ctxSleep,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SetLocation updates the coordinate bias for subsequent searches.
func (s *Scouter) SetLocation(loc *gemini.Coordinate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loc = loc
}

func (s *Scouter) location() *gemini.Coordinate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loc
}

// Region returns the place name the current area queue was scouted from.
func (s *Scouter) Region() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.region
}

// Progress returns the enrichment batch progress pair.
func (s *Scouter) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

func (s *Scouter) setProgress(current, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = Progress{Current: current, Total: total}
}

func (s *Scouter) acquire() error {
	if !s.inflight.TryAcquire(1) {
		return ErrBusy
	}
	return nil
}

// DiscoverAreas asks the service for the sub-areas of a city or county and
// replaces the entire area queue with idle entries. On failure the queue is
// left untouched. The attempted call counts against the quota even if it
// fails; there are no retries.
func (s *Scouter) DiscoverAreas(ctx context.Context, place string) error {
	if place == "" {
		return eris.New("scout: place name is required")
	}
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.inflight.Release(1)

	if err := s.guard.Check(); err != nil {
		return err
	}

	s.ws.SetStatus(fmt.Sprintf("Identifying areas, towns and villages in %s...", place))
	s.guard.Track()

	names, err := s.svc.EnumerateAreas(ctx, place)
	if err != nil {
		zap.L().Error("area discovery failed", zap.String("place", place), zap.Error(err))
		s.ws.SetStatus("Failed to find towns. Try a broader city or county name.")
		return eris.Wrap(err, "scout: discover areas")
	}

	s.mu.Lock()
	s.region = place
	s.mu.Unlock()

	s.ws.ReplaceAreas(names)
	s.ws.SetStatus(fmt.Sprintf("Found %d scouting zones in %s.", len(names), place))
	return nil
}

// SearchArea runs a single-area business search. It returns the raw result
// count the service reported and the number of non-duplicate leads added to
// the store.
func (s *Scouter) SearchArea(ctx context.Context, term, area string) (raw, added int, err error) {
	if err := s.acquire(); err != nil {
		return 0, 0, err
	}
	defer s.inflight.Release(1)

	return s.searchArea(ctx, term, area)
}

// searchArea is the unguarded single-area search shared by SearchArea and
// the batch loop. Service and parse failures are swallowed after logging:
// the area degrades to empty with a zero count. Validation, re-entrancy,
// and quota refusals are returned to the caller.
func (s *Scouter) searchArea(ctx context.Context, term, area string) (raw, added int, err error) {
	if term == "" {
		return 0, 0, eris.New("scout: search term is required")
	}

	status, ok := s.ws.AreaStatus(area)
	if !ok {
		return 0, 0, eris.Errorf("scout: unknown area %q", area)
	}
	if status == model.AreaStatusSearching {
		return 0, 0, ErrAreaBusy
	}
	if err := s.guard.Check(); err != nil {
		return 0, 0, err
	}

	s.ws.SetAreaStatus(area, model.AreaStatusSearching)
	s.ws.SetStatus(fmt.Sprintf("Scouting %s in %s...", term, area))

	// One quota increment covers the search/extract pair: the guard
	// counts workflow invocations, not wire round-trips.
	s.guard.Track()

	query := term + " in " + area
	if region := s.Region(); region != "" {
		query = fmt.Sprintf("%s in %s, %s", term, area, region)
	}

	log := zap.L().With(zap.String("area", area), zap.String("term", term))

	result, svcErr := s.svc.SearchBusinesses(ctx, query, s.location())
	if svcErr != nil {
		log.Error("area search failed", zap.Error(svcErr))
		s.ws.SetAreaResult(area, model.AreaStatusEmpty, 0)
		return 0, 0, nil
	}

	leads, svcErr := s.svc.ExtractLeads(ctx, result.Text, result.Citations)
	if svcErr != nil {
		log.Error("lead extraction failed", zap.Error(svcErr))
		s.ws.SetAreaResult(area, model.AreaStatusEmpty, 0)
		return 0, 0, nil
	}

	raw = len(leads)
	added = s.ws.AddLeads(leads)

	// Count reflects raw service results, not post-dedup survivors.
	if raw > 0 {
		s.ws.SetAreaResult(area, model.AreaStatusFound, raw)
	} else {
		s.ws.SetAreaResult(area, model.AreaStatusEmpty, 0)
	}

	s.ws.SetStatus(fmt.Sprintf("Added %d leads from %s.", added, area))
	log.Info("area searched", zap.Int("raw", raw), zap.Int("added", added))
	return raw, added, nil
}

// SearchAllAreas searches every area that was idle when the run started,
// strictly sequentially, pausing between units. A quota-denied unit is
// treated as a failed search (the area goes empty) and the batch continues.
// Returns the total number of new leads added.
func (s *Scouter) SearchAllAreas(ctx context.Context, term string) (int, error) {
	if term == "" {
		return 0, eris.New("scout: search term is required")
	}
	if err := s.acquire(); err != nil {
		return 0, err
	}
	defer s.inflight.Release(1)

	snapshot := s.ws.AreaSnapshot(model.AreaStatusIdle)
	if len(snapshot) == 0 {
		return 0, nil
	}

	totalAdded := 0
	for _, area := range snapshot {
		if ctx.Err() != nil {
			return totalAdded, eris.Wrap(ctx.Err(), "scout: bulk search")
		}

		s.ws.SetStatus(fmt.Sprintf("Processing %s...", area))

		_, added, err := s.searchArea(ctx, term, area)
		switch {
		case err == nil:
			totalAdded += added
		case eris.Is(err, quota.ErrExhausted):
			zap.L().Warn("quota exhausted mid-batch, marking area empty", zap.String("area", area))
			s.ws.SetAreaResult(area, model.AreaStatusEmpty, 0)
		default:
			zap.L().Warn("skipping area", zap.String("area", area), zap.Error(err))
		}

		s.sleep(ctx, s.searchDelay)
	}

	s.ws.SetStatus(fmt.Sprintf("Bulk search complete. Added %d new leads across the region.", totalAdded))
	return totalAdded, nil
}

// EnrichOne enriches a single lead. Service and parse failures degrade the
// lead to failed and are not returned; the attempted call still counts
// against the quota.
func (s *Scouter) EnrichOne(ctx context.Context, id string) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.inflight.Release(1)

	return s.enrichLead(ctx, id)
}

func (s *Scouter) enrichLead(ctx context.Context, id string) error {
	lead, ok := s.ws.Lead(id)
	if !ok {
		return eris.Errorf("scout: unknown lead %q", id)
	}
	if err := s.guard.Check(); err != nil {
		return err
	}

	s.ws.SetLeadStatus(id, model.LeadStatusEnriching)
	s.guard.Track()

	enrichment, err := s.svc.EnrichLead(ctx, lead)
	if err != nil {
		zap.L().Error("enrichment failed", zap.String("lead", lead.Name), zap.Error(err))
		s.ws.FailEnrichment(id)
		return nil
	}

	s.ws.CompleteEnrichment(id, enrichment)
	return nil
}

// EnrichAll enriches every lead that had status new when the run started,
// one at a time, pausing between units and updating the progress pair after
// each. Failed leads are not retried within the run. Quota exhaustion stops
// the run: remaining leads are never attempted and stay new.
func (s *Scouter) EnrichAll(ctx context.Context) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.inflight.Release(1)

	snapshot := s.ws.LeadSnapshot(model.LeadStatusNew)
	if len(snapshot) == 0 {
		return nil
	}

	s.setProgress(0, len(snapshot))
	s.ws.SetStatus(fmt.Sprintf("Enriching %d leads with Socials & Emails...", len(snapshot)))

	processed := 0
	for _, id := range snapshot {
		if ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "scout: bulk enrichment")
		}
		if err := s.guard.Check(); err != nil {
			zap.L().Warn("quota exhausted, stopping enrichment run",
				zap.Int("processed", processed),
				zap.Int("total", len(snapshot)),
			)
			s.ws.SetStatus("Request limit reached. Enrichment stopped.")
			return nil
		}

		if err := s.enrichLead(ctx, id); err != nil {
			zap.L().Warn("skipping lead", zap.String("id", id), zap.Error(err))
			continue
		}

		processed++
		s.setProgress(processed, len(snapshot))
		s.sleep(ctx, s.enrichDelay)
	}

	s.ws.SetStatus(fmt.Sprintf("Finished hunting contacts for %d leads.", processed))
	return nil
}

package services

import (
	"context"
	"fmt"
	"time"

	"emas-scraper/models"
	"emas-scraper/scraper"
	"emas-scraper/storage"
	"emas-scraper/utils"
)

// RunOptions controls one pipeline run. Category is an exact-match
// post-filter over the normalized records; WithDeltas additionally fetches
// prior snapshots and annotates the response with signed changes.
type RunOptions struct {
	Category   string
	WithDeltas bool
}

// Pipeline dispatches to the right extractor, normalizes, persists in the
// background and optionally computes deltas.
type Pipeline struct {
	fetcher scraper.Fetcher
	store   storage.Store
	audit   storage.RawFieldWriter
	logger  *utils.Logger
	norm    *Normalizer
	diff    *DiffEngine
	writers *utils.WorkerPool
}

// NewPipeline creates a Pipeline. store may be nil: the pipeline then runs
// without history, skipping persistence and reporting zero deltas.
func NewPipeline(fetcher scraper.Fetcher, store storage.Store, logger *utils.Logger, persistWorkers int) *Pipeline {
	return &Pipeline{
		fetcher: fetcher,
		store:   store,
		logger:  logger,
		norm:    NewNormalizer(logger),
		diff:    NewDiffEngine(logger),
		writers: utils.NewWorkerPool(persistWorkers),
	}
}

// SetAuditWriter enables the raw-field audit trail.
func (p *Pipeline) SetAuditWriter(w storage.RawFieldWriter) {
	p.audit = w
}

// Run executes one scrape for the given source selector. The selector is
// validated before any network call; persistence of the unfiltered record
// set is dispatched in the background and its failure never reaches the
// caller. Deltas are computed (and awaited) only when requested, over the
// filtered view the caller receives.
func (p *Pipeline) Run(ctx context.Context, selector string, opts RunOptions) (*models.ScrapeResult, []*models.PriceWithDelta, error) {
	ext, err := scraper.For(selector)
	if err != nil {
		return nil, nil, err
	}

	observedAt := time.Now()

	body, err := p.fetcher.Fetch(ctx, ext.URL())
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", selector, err)
	}

	fields, publishedAt, err := ext.Extract(body)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", selector, err)
	}

	if p.audit != nil {
		if err := p.audit.WriteRaw(fields); err != nil {
			p.logger.Warn("[pipeline] Audit write failed: %v", err)
		}
	}

	records := p.norm.Normalize(fields, publishedAt)
	p.persistAsync(selector, records)

	filtered := FilterCategory(records, opts.Category)
	result := &models.ScrapeResult{
		Source:      selector,
		URL:         ext.URL(),
		PublishedAt: publishedAt,
		ObservedAt:  observedAt,
		Records:     filtered,
	}

	var deltas []*models.PriceWithDelta
	if opts.WithDeltas {
		deltas = p.diff.ComputeDeltas(filtered, p.priorLookup())
	}

	return result, deltas, nil
}

// persistAsync hands the unfiltered record set to the store without
// blocking the response. A storage outage degrades to "no history", so
// failures are logged and swallowed.
func (p *Pipeline) persistAsync(selector string, records []*models.PriceRecord) {
	if p.store == nil || len(records) == 0 {
		return
	}
	p.writers.Submit(func() {
		if err := p.store.Upsert(records); err != nil {
			p.logger.Error("[pipeline] Persisting %d records for %s failed: %v",
				len(records), selector, err)
			return
		}
		p.logger.Debug("[pipeline] Persisted %d records for %s", len(records), selector)
	})
}

func (p *Pipeline) priorLookup() PriorLookup {
	if p.store == nil {
		return func(string, string, []float64, string) (map[float64]*models.PriceRecord, error) {
			return map[float64]*models.PriceRecord{}, nil
		}
	}
	return p.store.LatestBefore
}

// Flush waits for pending background writes. Used on shutdown.
func (p *Pipeline) Flush() {
	p.writers.Wait()
}

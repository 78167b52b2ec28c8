package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"emas-scraper/models"
	"emas-scraper/scraper"
)

const antamPage = `
<html><body>
  <span class="publish-date">29 Agustus 2026</span>
  <h2>Emas Batangan</h2>
  <table class="gold-price">
    <tr><td>1 gram</td><td>Rp 1.000.000</td><td>Rp 950.000</td></tr>
    <tr><td>5 gram</td><td>Rp 5.000.000</td><td>Rp 4.750.000</td></tr>
  </table>
  <h2>Gift Series</h2>
  <table class="gold-price">
    <tr><td>1 gram</td><td>Rp 1.100.000</td><td>Rp 990.000</td></tr>
  </table>
</body></html>`

type fakeFetcher struct {
	body  []byte
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.body, nil
}

type fakeStore struct {
	mu       sync.Mutex
	upserted [][]*models.PriceRecord
	priors   map[float64]*models.PriceRecord
	writeErr error
}

func (s *fakeStore) Upsert(records []*models.PriceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.upserted = append(s.upserted, records)
	return nil
}

func (s *fakeStore) LatestBefore(_, category string, weights []float64, _ string) (map[float64]*models.PriceRecord, error) {
	out := make(map[float64]*models.PriceRecord)
	for _, w := range weights {
		if p, ok := s.priors[w]; ok && p.Category == category {
			out[w] = p
		}
	}
	return out, nil
}

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) persisted() [][]*models.PriceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upserted
}

func TestPipelineUnsupportedSourceBeforeFetch(t *testing.T) {
	fetcher := &fakeFetcher{}
	p := NewPipeline(fetcher, &fakeStore{}, newTestLogger(), 1)

	_, _, err := p.Run(context.Background(), "foo", RunOptions{})
	require.ErrorIs(t, err, scraper.ErrUnsupportedSource)
	require.Zero(t, fetcher.calls, "an unknown selector must be rejected before any network call")
}

func TestPipelineEndToEnd(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte(antamPage)}
	store := &fakeStore{}
	p := NewPipeline(fetcher, store, newTestLogger(), 1)

	res, deltas, err := p.Run(context.Background(), "logammulia", RunOptions{Category: "antam"})
	require.NoError(t, err)
	require.Nil(t, deltas)

	require.Equal(t, "logammulia", res.Source)
	require.Equal(t, "29 Agustus 2026", res.PublishedAt)
	require.Len(t, res.Records, 2)

	one, five := res.Records[0], res.Records[1]
	require.Equal(t, "antam", one.Category)
	require.EqualValues(t, 1, one.Weight)
	require.EqualValues(t, 1000000, one.SellPrice)
	require.EqualValues(t, 950000, one.BuyPrice)
	require.EqualValues(t, 5, five.Weight)
	require.EqualValues(t, 5000000, five.SellPrice)
	require.EqualValues(t, 4750000, five.BuyPrice)
}

func TestPipelinePersistsUnfilteredSet(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte(antamPage)}
	store := &fakeStore{}
	p := NewPipeline(fetcher, store, newTestLogger(), 1)

	res, _, err := p.Run(context.Background(), "logammulia", RunOptions{Category: "gift-series"})
	require.NoError(t, err)
	p.Flush()

	// the response is the filtered view...
	require.Len(t, res.Records, 1)
	require.Equal(t, "gift-series", res.Records[0].Category)

	// ...but the store received every normalized record
	persisted := store.persisted()
	require.Len(t, persisted, 1)
	require.Len(t, persisted[0], 3)
}

func TestPipelineIdempotentExtraction(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte(antamPage)}
	p := NewPipeline(fetcher, &fakeStore{}, newTestLogger(), 1)

	first, _, err := p.Run(context.Background(), "logammulia", RunOptions{})
	require.NoError(t, err)
	second, _, err := p.Run(context.Background(), "logammulia", RunOptions{})
	require.NoError(t, err)

	require.Len(t, second.Records, len(first.Records))
	for i := range first.Records {
		a, b := first.Records[i], second.Records[i]
		require.Equal(t, a.Source, b.Source)
		require.Equal(t, a.Category, b.Category)
		require.Equal(t, a.Weight, b.Weight)
		require.Equal(t, a.SellPrice, b.SellPrice)
		require.Equal(t, a.BuyPrice, b.BuyPrice)
		require.Equal(t, a.PublishedAt, b.PublishedAt)
		// only ObservedAt may differ between runs
	}
}

func TestPipelineDeltas(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte(antamPage)}
	store := &fakeStore{priors: map[float64]*models.PriceRecord{
		1: {Source: "logammulia", Category: "antam", Weight: 1, SellPrice: 995000, BuyPrice: 955000, PublishedAt: "28 Agustus 2026"},
	}}
	p := NewPipeline(fetcher, store, newTestLogger(), 1)

	_, deltas, err := p.Run(context.Background(), "logammulia", RunOptions{Category: "antam", WithDeltas: true})
	require.NoError(t, err)
	require.Len(t, deltas, 2)
	require.EqualValues(t, 5000, deltas[0].SellChange)
	require.EqualValues(t, -5000, deltas[0].BuyChange)
	require.EqualValues(t, 0, deltas[1].SellChange)
}

func TestPipelineFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("dial tcp: connection refused")}
	store := &fakeStore{}
	p := NewPipeline(fetcher, store, newTestLogger(), 1)

	_, _, err := p.Run(context.Background(), "anekalogam", RunOptions{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "anekalogam")
	p.Flush()
	require.Empty(t, store.persisted(), "nothing to persist on a failed fetch")
}

func TestPipelinePersistFailureIsSwallowed(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte(antamPage)}
	store := &fakeStore{writeErr: errors.New("disk full")}
	p := NewPipeline(fetcher, store, newTestLogger(), 1)

	res, _, err := p.Run(context.Background(), "logammulia", RunOptions{})
	require.NoError(t, err, "a storage outage must not break the read path")
	require.NotEmpty(t, res.Records)
	p.Flush()
}

func TestPipelineWithoutStore(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte(antamPage)}
	p := NewPipeline(fetcher, nil, newTestLogger(), 1)

	res, deltas, err := p.Run(context.Background(), "logammulia", RunOptions{WithDeltas: true})
	require.NoError(t, err)
	require.NotEmpty(t, res.Records)
	require.Len(t, deltas, len(res.Records))
	for _, d := range deltas {
		require.Zero(t, d.SellChange)
	}
}

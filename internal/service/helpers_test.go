package service

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"twstock-advisor/internal/catalog"
	"twstock-advisor/internal/domain"
	"twstock-advisor/internal/indicator"
)

func testTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer("test")
}

var (
	tsmc    = domain.StockMetadata{Code: "2330", Name: "台積電", Industry: "半導體業", Market: domain.MarketListed}
	honhai  = domain.StockMetadata{Code: "2317", Name: "鴻海", Industry: "其他電子業", Market: domain.MarketListed}
	umc     = domain.StockMetadata{Code: "2303", Name: "聯電", Industry: "半導體業", Market: domain.MarketListed}
	otcMeta = domain.StockMetadata{Code: "6488", Name: "環球晶", Industry: "半導體業", Market: domain.MarketOTC}
)

func testCatalog() *catalog.Catalog {
	c, err := catalog.New([]domain.StockMetadata{tsmc, honhai, umc, otcMeta})
	if err != nil {
		panic(err)
	}
	return c
}

func pointsFromCloses(closes []float64) []domain.PricePoint {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	points := make([]domain.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = domain.PricePoint{
			Date:   base.AddDate(0, 0, i),
			Open:   c,
			High:   c + 0.5,
			Low:    c - 0.5,
			Close:  c,
			Volume: 5000,
		}
	}
	return points
}

// acceleratingRise climbs every bar and ends on a MACD golden cross.
func acceleratingRise() []float64 {
	closes := []float64{100}
	for i := 0; i < 30; i++ {
		closes = append(closes, closes[len(closes)-1]+2)
	}
	for i := 0; i < 20; i++ {
		closes = append(closes, closes[len(closes)-1]+0.2)
	}
	for i := 0; i < 7; i++ {
		closes = append(closes, closes[len(closes)-1]+0.2+0.4*float64(i+1))
	}
	return closes
}

func mirrored(closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i, c := range closes {
		out[i] = 400 - c
	}
	return out
}

type stubProvider struct {
	name     string
	market   domain.Market
	points   []domain.PricePoint
	err      error
	mu       sync.Mutex
	calls    int
	lastFrom time.Time
	lastTo   time.Time
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Supports(meta domain.StockMetadata) bool {
	return p.market == "" || p.market == meta.Market
}

func (p *stubProvider) FetchDaily(_ context.Context, _ domain.StockMetadata, from, to time.Time) ([]domain.PricePoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.lastFrom, p.lastTo = from, to
	return p.points, p.err
}

type stubArchive struct {
	stored  map[string][]domain.PricePoint
	sources map[string]string
	readErr error
	upserts int
}

func newStubArchive() *stubArchive {
	return &stubArchive{stored: map[string][]domain.PricePoint{}, sources: map[string]string{}}
}

func (a *stubArchive) UpsertPrices(_ context.Context, stockID, source string, points []domain.PricePoint) error {
	a.upserts++
	a.stored[stockID] = points
	a.sources[stockID] = source
	return nil
}

func (a *stubArchive) GetPricesInRange(_ context.Context, stockID string, _, _ time.Time) ([]domain.PricePoint, error) {
	if a.readErr != nil {
		return nil, a.readErr
	}
	return a.stored[stockID], nil
}

// stubSeries serves fixed closes per stock code.
type stubSeries struct {
	mu     sync.Mutex
	closes map[string][]float64
	calls  []string
}

func (s *stubSeries) GetSeries(_ context.Context, meta domain.StockMetadata, months int) (domain.PriceSeries, error) {
	s.mu.Lock()
	s.calls = append(s.calls, meta.Code)
	s.mu.Unlock()

	closes, ok := s.closes[meta.Code]
	if !ok {
		return domain.PriceSeries{}, domain.DataUnavailablef("no price data for %s", meta.Code)
	}
	return domain.PriceSeries{StockID: meta.Code, Months: months, Points: pointsFromCloses(closes)}, nil
}

type stubChart struct {
	lastMeta   domain.StockMetadata
	lastParams indicator.Params
}

func (c *stubChart) Render(meta domain.StockMetadata, series domain.PriceSeries, params indicator.Params) (domain.ChartImage, error) {
	c.lastMeta = meta
	c.lastParams = params
	return domain.ChartImage{StockID: series.StockID, MimeType: "image/png", Width: 10, Height: 10, Bytes: []byte{0x89}}, nil
}

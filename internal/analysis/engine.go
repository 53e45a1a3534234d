// Package analysis turns a price series into a recommendation and runs that
// pipeline over batches of stocks.
package analysis

import (
	"fmt"
	"sort"

	"twstock-advisor/internal/domain"
	"twstock-advisor/internal/indicator"
	"twstock-advisor/internal/signal"
)

// Engine is stateless apart from its configuration and safe for concurrent use.
type Engine struct {
	cfg        Config
	classifier *signal.Classifier
}

func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Indicators.Validate(); err != nil {
		return nil, fmt.Errorf("indicator params: %w", err)
	}
	if err := cfg.Weights.Validate(); err != nil {
		return nil, fmt.Errorf("weights: %w", err)
	}
	if cfg.Thresholds.Oversold >= cfg.Thresholds.Overbought {
		return nil, fmt.Errorf("rsi oversold threshold must be below overbought")
	}
	return &Engine{cfg: cfg, classifier: signal.NewClassifier(cfg.Thresholds)}, nil
}

func (e *Engine) Config() Config {
	cfg := e.cfg
	cfg.Indicators.MovingAveragePeriods = append([]int(nil), e.cfg.Indicators.MovingAveragePeriods...)
	return cfg
}

// Analyze runs indicators, classification and synthesis for one stock. It
// fails with the first indicator that lacks history.
func (e *Engine) Analyze(meta domain.StockMetadata, series domain.PriceSeries) (domain.Recommendation, error) {
	points := normalizePoints(series.Points)
	params := e.cfg.Indicators

	curr, err := indicator.Compute(points, params)
	if err != nil {
		return domain.Recommendation{}, err
	}
	var prev *domain.IndicatorSet
	if len(points) > 1 {
		if p, err := indicator.Compute(points[:len(points)-1], params); err == nil {
			prev = &p
		}
	}

	signals := e.classifier.Classify(curr, prev)
	trend := ClassifyTrend(curr, params.MovingAveragePeriods)
	volatility := indicator.Volatility(closesOf(points), params.VolatilityWindow)
	support, resistance, err := indicator.SupportResistance(points, params.SupportLookback)
	if err != nil {
		return domain.Recommendation{}, err
	}
	v := synthesize(e.cfg.Weights, trend, signals, curr, params.MovingAveragePeriods, volatility)

	last := points[len(points)-1]
	return domain.Recommendation{
		StockID:      meta.Code,
		Name:         meta.Name,
		Industry:     meta.Industry,
		Market:       meta.Market,
		AsOf:         last.Day(),
		CurrentPrice: indicator.Round(last.Close, 2),
		Trend:        trend,
		Action:       v.action,
		Confidence:   v.confidence,
		Support:      support,
		Resistance:   resistance,
		Volatility:   volatility,
		Indicators:   roundSet(curr),
		Signals:      signals,
		Rationale:    v.rationale,
	}, nil
}

func normalizePoints(in []domain.PricePoint) []domain.PricePoint {
	out := make([]domain.PricePoint, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func closesOf(points []domain.PricePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Close
	}
	return out
}

func roundSet(s domain.IndicatorSet) domain.IndicatorSet {
	mas := make(map[string]float64, len(s.MovingAverages))
	for k, v := range s.MovingAverages {
		mas[k] = indicator.Round(v, 2)
	}
	return domain.IndicatorSet{
		Close:          indicator.Round(s.Close, 2),
		MovingAverages: mas,
		RSI:            indicator.Round(s.RSI, 2),
		MACD: domain.MACDValue{
			Line:      indicator.Round(s.MACD.Line, 4),
			Signal:    indicator.Round(s.MACD.Signal, 4),
			Histogram: indicator.Round(s.MACD.Histogram, 4),
		},
		Bollinger: domain.BollingerBands{
			Upper:  indicator.Round(s.Bollinger.Upper, 2),
			Middle: indicator.Round(s.Bollinger.Middle, 2),
			Lower:  indicator.Round(s.Bollinger.Lower, 2),
		},
		VolumeRatio: indicator.Round(s.VolumeRatio, 2),
		FourPoint: domain.FourPointCheck{
			Buy:  append([]string(nil), s.FourPoint.Buy...),
			Sell: append([]string(nil), s.FourPoint.Sell...),
		},
	}
}

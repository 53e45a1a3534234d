// Package indicator computes technical indicators over a daily price series.
// Every function is pure and works on the trailing window ending at the last
// value; nothing looks ahead.
package indicator

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"twstock-advisor/internal/domain"
)

const (
	DefaultRSIPeriod        = 14
	DefaultMACDFast         = 12
	DefaultMACDSlow         = 26
	DefaultMACDSignal       = 9
	DefaultBollingerPeriod  = 20
	DefaultBollingerStdDevs = 2.0
	DefaultVolatilityWindow = 20
	DefaultVolumeWindow     = 5
)

// Params holds the indicator windows. Zero values are not defaulted; use
// DefaultParams and override.
type Params struct {
	MovingAveragePeriods []int   `json:"moving_average_periods"`
	RSIPeriod            int     `json:"rsi_period"`
	MACDFast             int     `json:"macd_fast"`
	MACDSlow             int     `json:"macd_slow"`
	MACDSignal           int     `json:"macd_signal"`
	BollingerPeriod      int     `json:"bollinger_period"`
	BollingerStdDevs     float64 `json:"bollinger_std_devs"`
	VolatilityWindow     int     `json:"volatility_window"`
	VolumeWindow         int     `json:"volume_window"`
	// SupportLookback limits the support/resistance window; 0 uses the whole series.
	SupportLookback int `json:"support_lookback"`
}

func DefaultParams() Params {
	return Params{
		MovingAveragePeriods: []int{5, 10, 20},
		RSIPeriod:            DefaultRSIPeriod,
		MACDFast:             DefaultMACDFast,
		MACDSlow:             DefaultMACDSlow,
		MACDSignal:           DefaultMACDSignal,
		BollingerPeriod:      DefaultBollingerPeriod,
		BollingerStdDevs:     DefaultBollingerStdDevs,
		VolatilityWindow:     DefaultVolatilityWindow,
		VolumeWindow:         DefaultVolumeWindow,
	}
}

func (p Params) Validate() error {
	if len(p.MovingAveragePeriods) == 0 {
		return fmt.Errorf("at least one moving average period is required")
	}
	prev := 0
	for _, period := range p.MovingAveragePeriods {
		if period <= prev {
			return fmt.Errorf("moving average periods must be positive and ascending: %v", p.MovingAveragePeriods)
		}
		prev = period
	}
	if p.RSIPeriod <= 0 || p.BollingerPeriod <= 0 || p.VolatilityWindow <= 0 || p.VolumeWindow <= 0 {
		return fmt.Errorf("indicator windows must be positive")
	}
	if p.MACDFast <= 0 || p.MACDSignal <= 0 || p.MACDFast >= p.MACDSlow {
		return fmt.Errorf("macd periods must satisfy 0 < fast < slow and signal > 0")
	}
	if p.BollingerStdDevs <= 0 {
		return fmt.Errorf("bollinger std devs must be positive")
	}
	if p.SupportLookback < 0 {
		return fmt.Errorf("support lookback must not be negative")
	}
	return nil
}

// MinPoints is the shortest series Compute accepts.
func (p Params) MinPoints() int {
	n := 0
	for _, r := range p.requirements() {
		n = max(n, r.points)
	}
	return n
}

type requirement struct {
	indicator string
	points    int
}

func (p Params) requirements() []requirement {
	return []requirement{
		{domain.IndicatorMovingAverage, p.MovingAveragePeriods[len(p.MovingAveragePeriods)-1]},
		{domain.IndicatorRSI, p.RSIPeriod + 1},
		{domain.IndicatorMACD, macdRequired(p.MACDSlow)},
		{domain.IndicatorBollinger, p.BollingerPeriod},
	}
}

// shortfall names the unmet requirement with the largest minimum. Ties go to
// the indicator listed first.
func (p Params) shortfall(got int) error {
	var worst *requirement
	for _, r := range p.requirements() {
		if got >= r.points {
			continue
		}
		if worst == nil || r.points > worst.points {
			worst = &r
		}
	}
	if worst == nil {
		return nil
	}
	return insufficient(worst.indicator, worst.points, got)
}

// MovingAverageKey names a moving average period in IndicatorSet.MovingAverages.
func MovingAverageKey(period int) string {
	return fmt.Sprintf("ma%d", period)
}

// Compute returns the indicator snapshot at the last point of points. A series
// too short for any indicator fails before anything is computed, naming the
// indicator with the largest unmet minimum.
func Compute(points []domain.PricePoint, p Params) (domain.IndicatorSet, error) {
	if err := p.shortfall(len(points)); err != nil {
		return domain.IndicatorSet{}, err
	}
	if len(points) == 0 {
		return domain.IndicatorSet{}, insufficient(domain.IndicatorMovingAverage, 1, 0)
	}
	closes := make([]float64, len(points))
	volumes := make([]float64, len(points))
	for i, pt := range points {
		closes[i] = pt.Close
		volumes[i] = float64(pt.Volume)
	}

	set := domain.IndicatorSet{
		Close:          closes[len(closes)-1],
		MovingAverages: make(map[string]float64, len(p.MovingAveragePeriods)),
	}
	for _, period := range p.MovingAveragePeriods {
		ma, err := SMA(closes, period)
		if err != nil {
			return domain.IndicatorSet{}, err
		}
		set.MovingAverages[MovingAverageKey(period)] = ma
	}

	rsi, err := RSI(closes, p.RSIPeriod)
	if err != nil {
		return domain.IndicatorSet{}, err
	}
	set.RSI = rsi

	macd, err := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	if err != nil {
		return domain.IndicatorSet{}, err
	}
	set.MACD = macd

	bands, err := Bollinger(closes, p.BollingerPeriod, p.BollingerStdDevs)
	if err != nil {
		return domain.IndicatorSet{}, err
	}
	set.Bollinger = bands
	set.VolumeRatio = VolumeRatio(volumes, p.VolumeWindow)
	set.FourPoint = BestFourPoint(points)

	return set, nil
}

func SMA(values []float64, period int) (float64, error) {
	if period <= 0 || len(values) < period {
		return 0, insufficient(domain.IndicatorMovingAverage, period, len(values))
	}
	return stat.Mean(values[len(values)-period:], nil), nil
}

// EMASeries returns the exponential moving average aligned with values. The
// first period-1 entries are NaN and entry period-1 is the SMA seed.
func EMASeries(values []float64, period int) ([]float64, error) {
	if period <= 0 || len(values) < period {
		return nil, insufficient(domain.IndicatorMovingAverage, period, len(values))
	}
	out := nanSeries(len(values))
	alpha := 2.0 / (float64(period) + 1.0)
	out[period-1] = stat.Mean(values[:period], nil)
	for i := period; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out, nil
}

// RSISeries uses Wilder smoothing. Entries before index period are NaN.
func RSISeries(closes []float64, period int) ([]float64, error) {
	if period <= 0 || len(closes) <= period {
		return nil, insufficient(domain.IndicatorRSI, period+1, len(closes))
	}
	series := nanSeries(len(closes))

	var gainSum, lossSum float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	series[period] = rsiFromAvg(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain := math.Max(delta, 0)
		loss := math.Max(-delta, 0)
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		series[i] = rsiFromAvg(avgGain, avgLoss)
	}
	return series, nil
}

func RSI(closes []float64, period int) (float64, error) {
	series, err := RSISeries(closes, period)
	if err != nil {
		return 0, err
	}
	return series[len(series)-1], nil
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// MACDSeries returns the MACD and signal lines aligned with closes. Both start
// at index slow-1; the signal line is seeded with the first MACD value there,
// so slow+1 closes give two comparable histogram values.
func MACDSeries(closes []float64, fast, slow, signal int) ([]float64, []float64, error) {
	required := macdRequired(slow)
	if fast <= 0 || fast >= slow || signal <= 0 || len(closes) < required {
		return nil, nil, insufficient(domain.IndicatorMACD, required, len(closes))
	}
	fastEMA, err := EMASeries(closes, fast)
	if err != nil {
		return nil, nil, err
	}
	slowEMA, err := EMASeries(closes, slow)
	if err != nil {
		return nil, nil, err
	}

	line := nanSeries(len(closes))
	for i := slow - 1; i < len(closes); i++ {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine := nanSeries(len(closes))
	alpha := 2.0 / (float64(signal) + 1.0)
	signalLine[slow-1] = line[slow-1]
	for i := slow; i < len(closes); i++ {
		signalLine[i] = alpha*line[i] + (1-alpha)*signalLine[i-1]
	}
	return line, signalLine, nil
}

func macdRequired(slow int) int {
	return slow + 1
}

func MACD(closes []float64, fast, slow, signal int) (domain.MACDValue, error) {
	line, signalLine, err := MACDSeries(closes, fast, slow, signal)
	if err != nil {
		return domain.MACDValue{}, err
	}
	last := len(closes) - 1
	return domain.MACDValue{
		Line:      line[last],
		Signal:    signalLine[last],
		Histogram: line[last] - signalLine[last],
	}, nil
}

// Bollinger uses the population standard deviation of the trailing window.
func Bollinger(closes []float64, period int, stdDevs float64) (domain.BollingerBands, error) {
	if period <= 0 || len(closes) < period {
		return domain.BollingerBands{}, insufficient(domain.IndicatorBollinger, period, len(closes))
	}
	mean, std := stat.PopMeanStdDev(closes[len(closes)-period:], nil)
	return domain.BollingerBands{
		Upper:  mean + stdDevs*std,
		Middle: mean,
		Lower:  mean - stdDevs*std,
	}, nil
}

// SupportResistance returns the lowest low and highest high over the trailing
// lookback (0 means the whole series), rounded to two decimals.
func SupportResistance(points []domain.PricePoint, lookback int) (support, resistance float64, err error) {
	if len(points) == 0 {
		return 0, 0, insufficient("support_resistance", 1, 0)
	}
	window := points
	if lookback > 0 && lookback < len(points) {
		window = points[len(points)-lookback:]
	}
	lows := make([]float64, len(window))
	highs := make([]float64, len(window))
	for i, pt := range window {
		lows[i] = pt.Low
		highs[i] = pt.High
	}
	return Round(floats.Min(lows), 2), Round(floats.Max(highs), 2), nil
}

// Volatility is the sample standard deviation of the trailing window daily
// returns, in percent. Fewer than two returns yield 0.
func Volatility(closes []float64, window int) float64 {
	start := 0
	if window > 0 && len(closes) > window+1 {
		start = len(closes) - window - 1
	}
	tail := closes[start:]
	if len(tail) < 3 {
		return 0
	}
	returns := make([]float64, 0, len(tail)-1)
	for i := 1; i < len(tail); i++ {
		if tail[i-1] == 0 {
			continue
		}
		returns = append(returns, (tail[i]-tail[i-1])/tail[i-1])
	}
	if len(returns) < 2 {
		return 0
	}
	return Round(stat.StdDev(returns, nil)*100, 2)
}

// VolumeRatio compares the mean volume of the last window points with the
// window before it. It is 0 when history is short or the earlier mean is 0.
func VolumeRatio(volumes []float64, window int) float64 {
	if window <= 0 || len(volumes) < 2*window {
		return 0
	}
	n := len(volumes)
	recent := stat.Mean(volumes[n-window:], nil)
	earlier := stat.Mean(volumes[n-2*window:n-window], nil)
	if earlier == 0 {
		return 0
	}
	return recent / earlier
}

// Round rounds half away from zero to places decimals.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func insufficient(indicator string, required, got int) error {
	return &domain.InsufficientDataError{Indicator: indicator, Required: required, Got: got}
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

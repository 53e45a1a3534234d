// Package signal turns indicator snapshots into discrete signal labels.
package signal

import "twstock-advisor/internal/domain"

const (
	DefaultOverbought        = 70.0
	DefaultOversold          = 30.0
	DefaultVolumeSurgeFactor = 1.2

	// histogramEpsilon absorbs float noise around zero, e.g. on a flat series.
	histogramEpsilon = 1e-9
)

type Thresholds struct {
	Overbought        float64 `json:"rsi_overbought"`
	Oversold          float64 `json:"rsi_oversold"`
	VolumeSurgeFactor float64 `json:"volume_surge_factor"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Overbought:        DefaultOverbought,
		Oversold:          DefaultOversold,
		VolumeSurgeFactor: DefaultVolumeSurgeFactor,
	}
}

type Classifier struct {
	thresholds Thresholds
}

func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{thresholds: t}
}

// Classify maps the current snapshot and the one before it to signal labels.
// prev is nil when the previous point had too little history; MACD then
// reports no crossover.
func (c *Classifier) Classify(curr domain.IndicatorSet, prev *domain.IndicatorSet) domain.SignalSet {
	var prevMACD *domain.MACDValue
	if prev != nil {
		prevMACD = &prev.MACD
	}
	return domain.SignalSet{
		FourPoint: FourPoint(curr.FourPoint),
		RSI:       c.RSI(curr.RSI),
		MACD:      MACD(curr.MACD, prevMACD),
		Bollinger: Bollinger(curr.Close, curr.Bollinger),
		Volume:    c.Volume(curr.VolumeRatio),
	}
}

// FourPoint reports the side whose best four point rules fired. Both sides
// need a volume rule and the volume rules exclude each other, so at most one
// side fires.
func FourPoint(check domain.FourPointCheck) domain.FourPointSignal {
	switch {
	case len(check.Buy) > 0:
		return domain.FourPointBuy
	case len(check.Sell) > 0:
		return domain.FourPointSell
	default:
		return domain.FourPointNone
	}
}

func (c *Classifier) RSI(rsi float64) domain.RSISignal {
	switch {
	case rsi > c.thresholds.Overbought:
		return domain.RSIOverbought
	case rsi < c.thresholds.Oversold:
		return domain.RSIOversold
	default:
		return domain.RSINormal
	}
}

// MACD detects a histogram sign change between prev and curr.
func MACD(curr domain.MACDValue, prev *domain.MACDValue) domain.MACDSignal {
	if prev == nil {
		return domain.MACDNone
	}
	before, after := sign(prev.Histogram), sign(curr.Histogram)
	if before <= 0 && after > 0 {
		return domain.MACDGoldenCross
	}
	if before >= 0 && after < 0 {
		return domain.MACDDeathCross
	}
	return domain.MACDNone
}

func sign(v float64) int {
	switch {
	case v > histogramEpsilon:
		return 1
	case v < -histogramEpsilon:
		return -1
	default:
		return 0
	}
}

func Bollinger(price float64, bands domain.BollingerBands) domain.BollingerSignal {
	switch {
	case price > bands.Upper:
		return domain.BollingerUpperBreach
	case price < bands.Lower:
		return domain.BollingerLowerBreach
	default:
		return domain.BollingerNone
	}
}

func (c *Classifier) Volume(ratio float64) domain.VolumeSignal {
	if ratio > c.thresholds.VolumeSurgeFactor {
		return domain.VolumeSurge
	}
	return domain.VolumeNormal
}

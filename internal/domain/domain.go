package domain

import "time"

// DateLayout is the calendar-day layout used for as-of dates and price keys.
const DateLayout = "2006-01-02"

type Market string

const (
	MarketListed Market = "上市"
	MarketOTC    Market = "上櫃"
)

type StockMetadata struct {
	Code     string `json:"code" yaml:"code"`
	Name     string `json:"name" yaml:"name"`
	Industry string `json:"industry" yaml:"industry"`
	Market   Market `json:"market" yaml:"market"`
}

type PricePoint struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Day returns the trading day of the point in DateLayout form.
func (p PricePoint) Day() string {
	return p.Date.Format(DateLayout)
}

type PriceSeries struct {
	StockID string       `json:"stock_id"`
	Months  int          `json:"months"`
	Source  string       `json:"source,omitempty"`
	Points  []PricePoint `json:"points"`
}

func (s PriceSeries) Len() int {
	return len(s.Points)
}

// Last returns the most recent point. Callers must check Len first.
func (s PriceSeries) Last() PricePoint {
	return s.Points[len(s.Points)-1]
}

func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Close
	}
	return out
}

type Trend string

const (
	TrendStrongUp   Trend = "strong_up"
	TrendUp         Trend = "up"
	TrendSideways   Trend = "sideways"
	TrendDown       Trend = "down"
	TrendStrongDown Trend = "strong_down"
)

// Strength maps the trend onto -2..2, positive for rising trends.
func (t Trend) Strength() int {
	switch t {
	case TrendStrongUp:
		return 2
	case TrendUp:
		return 1
	case TrendDown:
		return -1
	case TrendStrongDown:
		return -2
	default:
		return 0
	}
}

type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

const (
	IndicatorMovingAverage = "moving_average"
	IndicatorRSI           = "rsi"
	IndicatorMACD          = "macd"
	IndicatorBollinger     = "bollinger"
)

type MACDValue struct {
	Line      float64 `json:"macd_line"`
	Signal    float64 `json:"signal_line"`
	Histogram float64 `json:"histogram"`
}

type BollingerBands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// FourPointCheck lists the best four point rules met on the last bar, per
// side. A side is empty unless it fired.
type FourPointCheck struct {
	Buy  []string `json:"buy,omitempty"`
	Sell []string `json:"sell,omitempty"`
}

type IndicatorSet struct {
	Close          float64            `json:"close"`
	MovingAverages map[string]float64 `json:"moving_averages"`
	RSI            float64            `json:"rsi"`
	MACD           MACDValue          `json:"macd"`
	Bollinger      BollingerBands     `json:"bollinger"`
	VolumeRatio    float64            `json:"volume_ratio"`
	FourPoint      FourPointCheck     `json:"four_point"`
}

type RSISignal string

const (
	RSIOversold   RSISignal = "oversold"
	RSIOverbought RSISignal = "overbought"
	RSINormal     RSISignal = "normal"
)

type MACDSignal string

const (
	MACDGoldenCross MACDSignal = "golden_cross"
	MACDDeathCross  MACDSignal = "death_cross"
	MACDNone        MACDSignal = "none"
)

type BollingerSignal string

const (
	BollingerUpperBreach BollingerSignal = "upper_breach"
	BollingerLowerBreach BollingerSignal = "lower_breach"
	BollingerNone        BollingerSignal = "none"
)

type VolumeSignal string

const (
	VolumeSurge  VolumeSignal = "surge"
	VolumeNormal VolumeSignal = "normal"
)

type FourPointSignal string

const (
	FourPointBuy  FourPointSignal = "buy"
	FourPointSell FourPointSignal = "sell"
	FourPointNone FourPointSignal = "none"
)

type SignalSet struct {
	FourPoint FourPointSignal `json:"four_point"`
	RSI       RSISignal       `json:"rsi"`
	MACD      MACDSignal      `json:"macd"`
	Bollinger BollingerSignal `json:"bollinger"`
	Volume    VolumeSignal    `json:"volume"`
}

type Recommendation struct {
	StockID      string       `json:"stock_id"`
	Name         string       `json:"name"`
	Industry     string       `json:"industry"`
	Market       Market       `json:"market"`
	AsOf         string       `json:"as_of"`
	CurrentPrice float64      `json:"current_price"`
	Trend        Trend        `json:"trend"`
	Action       Action       `json:"action"`
	Confidence   int          `json:"confidence"`
	Support      float64      `json:"support"`
	Resistance   float64      `json:"resistance"`
	Volatility   float64      `json:"volatility"`
	Indicators   IndicatorSet `json:"indicators"`
	Signals      SignalSet    `json:"signals"`
	Rationale    []string     `json:"rationale"`
}

type BatchError struct {
	StockID string `json:"stock_id"`
	Error   string `json:"error"`
	Kind    string `json:"error_kind"`
}

type BatchResult struct {
	Results       []Recommendation `json:"results"`
	Errors        []BatchError     `json:"errors"`
	TotalAnalyzed int              `json:"total_analyzed"`
	TotalErrors   int              `json:"total_errors"`
}

type RecommendationSummary struct {
	TotalAnalyzed       int              `json:"total_analyzed"`
	BuyCount            int              `json:"buy_count"`
	SellCount           int              `json:"sell_count"`
	HoldCount           int              `json:"hold_count"`
	BuyRecommendations  []Recommendation `json:"buy_recommendations"`
	SellRecommendations []Recommendation `json:"sell_recommendations"`
	HoldRecommendations []Recommendation `json:"hold_recommendations"`
	AllResults          []Recommendation `json:"all_results"`
	Errors              []BatchError     `json:"errors"`
	TotalErrors         int              `json:"total_errors"`
}

type ChartImage struct {
	StockID  string `json:"stock_id"`
	MimeType string `json:"mime_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Bytes    []byte `json:"-"`
}

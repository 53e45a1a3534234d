package analysis

import (
	"fmt"
	"strings"

	"twstock-advisor/internal/domain"
	"twstock-advisor/internal/indicator"
)

// ClassifyTrend orders the close against the moving averages, shortest period first.
func ClassifyTrend(set domain.IndicatorSet, periods []int) domain.Trend {
	if len(periods) == 0 {
		return domain.TrendSideways
	}
	mas := make([]float64, len(periods))
	for i, p := range periods {
		mas[i] = set.MovingAverages[indicator.MovingAverageKey(p)]
	}
	shortest, longest := mas[0], mas[len(mas)-1]

	rising, falling := true, true
	prev := set.Close
	for _, ma := range mas {
		if !(prev > ma) {
			rising = false
		}
		if !(prev < ma) {
			falling = false
		}
		prev = ma
	}

	switch {
	case rising:
		return domain.TrendStrongUp
	case falling:
		return domain.TrendStrongDown
	case set.Close > longest && shortest > longest:
		return domain.TrendUp
	case set.Close < longest && shortest < longest:
		return domain.TrendDown
	default:
		return domain.TrendSideways
	}
}

type verdict struct {
	action     domain.Action
	confidence int
	rationale  []string
}

// synthesize votes on the action and scores the confidence. Best four point,
// RSI, MACD and Bollinger signals count as +1 for the side they point to;
// agreeing signals add SignalBonus and conflicting ones subtract
// ConflictPenalty.
func synthesize(w Weights, trend domain.Trend, signals domain.SignalSet, set domain.IndicatorSet, periods []int, volatility float64) verdict {
	directions := signalDirections(signals)

	buy, sell := 0, 0
	switch trend {
	case domain.TrendStrongUp:
		buy += w.StrongTrendVotes
	case domain.TrendUp:
		buy += w.TrendVotes
	case domain.TrendDown:
		sell += w.TrendVotes
	case domain.TrendStrongDown:
		sell += w.StrongTrendVotes
	}
	for _, d := range directions {
		switch d {
		case domain.ActionBuy:
			buy++
		case domain.ActionSell:
			sell++
		}
	}

	action := domain.ActionHold
	switch {
	case buy > sell:
		action = domain.ActionBuy
	case sell > buy:
		action = domain.ActionSell
	}

	strength := trend.Strength()
	var confidence int
	switch action {
	case domain.ActionBuy:
		confidence = w.BaseConfidence + w.TrendStep*strength
	case domain.ActionSell:
		confidence = w.BaseConfidence - w.TrendStep*strength
	default:
		confidence = w.BaseConfidence + w.TrendStep*(2-abs(strength))
	}
	for _, d := range directions {
		switch {
		case d == "":
		case action == domain.ActionHold:
			confidence -= w.ConflictPenalty
		case d == action:
			confidence += w.SignalBonus
		default:
			confidence -= w.ConflictPenalty
		}
	}
	surge := signals.Volume == domain.VolumeSurge
	if surge && action != domain.ActionHold {
		confidence += w.VolumeBonus
	}
	volatile := volatility > w.VolatilityThreshold
	if volatile {
		confidence -= w.VolatilityPenalty
	}

	rationale := []string{trendReason(trend, set, periods)}
	rationale = append(rationale, signalReasons(signals, set)...)
	if surge {
		rationale = append(rationale, fmt.Sprintf("volume surge: recent volume %.2fx the prior window", set.VolumeRatio))
	}
	if volatile {
		rationale = append(rationale, fmt.Sprintf("high volatility %.2f%% above %.2f%%", volatility, w.VolatilityThreshold))
	}

	return verdict{
		action:     action,
		confidence: clamp(confidence, 0, 100),
		rationale:  rationale,
	}
}

// signalDirections lists the side each signal points to in the order best
// four point, RSI, MACD, Bollinger. Neutral signals map to "".
func signalDirections(s domain.SignalSet) []domain.Action {
	out := make([]domain.Action, 4)
	switch s.FourPoint {
	case domain.FourPointBuy:
		out[0] = domain.ActionBuy
	case domain.FourPointSell:
		out[0] = domain.ActionSell
	}
	switch s.RSI {
	case domain.RSIOversold:
		out[1] = domain.ActionBuy
	case domain.RSIOverbought:
		out[1] = domain.ActionSell
	}
	switch s.MACD {
	case domain.MACDGoldenCross:
		out[2] = domain.ActionBuy
	case domain.MACDDeathCross:
		out[2] = domain.ActionSell
	}
	switch s.Bollinger {
	case domain.BollingerLowerBreach:
		out[3] = domain.ActionBuy
	case domain.BollingerUpperBreach:
		out[3] = domain.ActionSell
	}
	return out
}

func trendReason(trend domain.Trend, set domain.IndicatorSet, periods []int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "trend %s: close %.2f", trend, set.Close)
	for _, p := range periods {
		key := indicator.MovingAverageKey(p)
		fmt.Fprintf(&b, ", %s %.2f", key, set.MovingAverages[key])
	}
	return b.String()
}

func signalReasons(s domain.SignalSet, set domain.IndicatorSet) []string {
	var out []string
	switch s.FourPoint {
	case domain.FourPointBuy:
		out = append(out, "best four point buy: "+strings.Join(set.FourPoint.Buy, "; "))
	case domain.FourPointSell:
		out = append(out, "best four point sell: "+strings.Join(set.FourPoint.Sell, "; "))
	}
	switch s.RSI {
	case domain.RSIOversold:
		out = append(out, fmt.Sprintf("RSI %.2f is oversold", set.RSI))
	case domain.RSIOverbought:
		out = append(out, fmt.Sprintf("RSI %.2f is overbought", set.RSI))
	}
	switch s.MACD {
	case domain.MACDGoldenCross:
		out = append(out, fmt.Sprintf("MACD golden cross: histogram turned positive (%.4f)", set.MACD.Histogram))
	case domain.MACDDeathCross:
		out = append(out, fmt.Sprintf("MACD death cross: histogram turned negative (%.4f)", set.MACD.Histogram))
	}
	switch s.Bollinger {
	case domain.BollingerUpperBreach:
		out = append(out, fmt.Sprintf("close %.2f above upper Bollinger band %.2f", set.Close, set.Bollinger.Upper))
	case domain.BollingerLowerBreach:
		out = append(out, fmt.Sprintf("close %.2f below lower Bollinger band %.2f", set.Close, set.Bollinger.Lower))
	}
	return out
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

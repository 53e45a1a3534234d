package indicator

import (
	"gonum.org/v1/gonum/stat"

	"twstock-advisor/internal/domain"
)

// Best four point rules. A side fires when one of its volume rules and one of
// its average rules hold on the last bar.
const (
	FourPointBuyVolumeUp      = "volume up, close above open"
	FourPointBuyVolumeDown    = "volume down, close higher"
	FourPointBuyAverageTurn   = "3-day average turned up"
	FourPointBuyAverageAbove  = "3-day average above 6-day average"
	FourPointSellVolumeUp     = "volume up, close below open"
	FourPointSellVolumeDown   = "volume down, close lower"
	FourPointSellAverageTurn  = "3-day average turned down"
	FourPointSellAverageBelow = "3-day average below 6-day average"
)

const (
	fourPointShort = 3
	fourPointLong  = 6
)

type fourPointRule struct {
	name string
	met  bool
}

// BestFourPoint evaluates the best four point rules at the last point. Each
// side lists the rules it met, or nothing when it did not fire. Series shorter
// than six points report nothing.
func BestFourPoint(points []domain.PricePoint) domain.FourPointCheck {
	n := len(points)
	if n < fourPointLong {
		return domain.FourPointCheck{}
	}
	closes := make([]float64, n)
	for i, pt := range points {
		closes[i] = pt.Close
	}
	short := func(end int) float64 {
		return stat.Mean(closes[end-fourPointShort:end], nil)
	}
	now, prev, prior := short(n), short(n-1), short(n-2)
	long := stat.Mean(closes[n-fourPointLong:], nil)
	rising, wasRising := now > prev, prev > prior

	last, before := points[n-1], points[n-2]
	return domain.FourPointCheck{
		Buy: firedRules(
			[]fourPointRule{
				{FourPointBuyVolumeUp, last.Volume > before.Volume && last.Close > last.Open},
				{FourPointBuyVolumeDown, last.Volume < before.Volume && last.Close > before.Close},
			},
			[]fourPointRule{
				{FourPointBuyAverageTurn, rising && !wasRising},
				{FourPointBuyAverageAbove, now > long},
			},
		),
		Sell: firedRules(
			[]fourPointRule{
				{FourPointSellVolumeUp, last.Volume > before.Volume && last.Close < last.Open},
				{FourPointSellVolumeDown, last.Volume < before.Volume && last.Close < before.Close},
			},
			[]fourPointRule{
				{FourPointSellAverageTurn, !rising && wasRising},
				{FourPointSellAverageBelow, now < long},
			},
		),
	}
}

func firedRules(volume, average []fourPointRule) []string {
	var names []string
	volumeMet, averageMet := false, false
	for _, r := range volume {
		if r.met {
			volumeMet = true
			names = append(names, r.name)
		}
	}
	for _, r := range average {
		if r.met {
			averageMet = true
			names = append(names, r.name)
		}
	}
	if !volumeMet || !averageMet {
		return nil
	}
	return names
}

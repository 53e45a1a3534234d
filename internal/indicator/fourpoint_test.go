package indicator

import (
	"slices"
	"testing"

	"twstock-advisor/internal/domain"
)

func fourPointBars(closes []float64, lastOpen float64, lastVolume int64) []domain.PricePoint {
	points := pointsFromCloses(closes)
	last := len(points) - 1
	points[last].Open = lastOpen
	points[last].Volume = lastVolume
	return points
}

func TestBestFourPoint(t *testing.T) {
	cases := []struct {
		name     string
		closes   []float64
		open     float64
		volume   int64
		wantBuy  []string
		wantSell []string
	}{
		{
			name:    "volume up on a rising close",
			closes:  []float64{10, 11, 12, 13, 14, 15},
			open:    14,
			volume:  2000,
			wantBuy: []string{FourPointBuyVolumeUp, FourPointBuyAverageAbove},
		},
		{
			name:    "volume down while the close still rises",
			closes:  []float64{10, 11, 12, 13, 14, 15},
			open:    15.5,
			volume:  500,
			wantBuy: []string{FourPointBuyVolumeDown, FourPointBuyAverageAbove},
		},
		{
			name:   "unchanged volume fires nothing",
			closes: []float64{10, 11, 12, 13, 14, 15},
			open:   14,
			volume: 1000,
		},
		{
			name:    "3-day average turns up below the 6-day average",
			closes:  []float64{15, 14, 13, 12, 12, 16},
			open:    15,
			volume:  2000,
			wantBuy: []string{FourPointBuyVolumeUp, FourPointBuyAverageTurn},
		},
		{
			name:     "volume up on a falling close",
			closes:   []float64{15, 14, 13, 12, 11, 10},
			open:     10.5,
			volume:   2000,
			wantSell: []string{FourPointSellVolumeUp, FourPointSellAverageBelow},
		},
		{
			name:     "3-day average turns down on shrinking volume",
			closes:   []float64{10, 11, 12, 13, 13, 9},
			open:     9,
			volume:   500,
			wantSell: []string{FourPointSellVolumeDown, FourPointSellAverageTurn},
		},
		{
			name:   "too short",
			closes: []float64{10, 11, 12, 13, 14},
			open:   13,
			volume: 2000,
		},
	}
	for _, tc := range cases {
		got := BestFourPoint(fourPointBars(tc.closes, tc.open, tc.volume))
		if !slices.Equal(got.Buy, tc.wantBuy) {
			t.Errorf("%s: buy = %v, want %v", tc.name, got.Buy, tc.wantBuy)
		}
		if !slices.Equal(got.Sell, tc.wantSell) {
			t.Errorf("%s: sell = %v, want %v", tc.name, got.Sell, tc.wantSell)
		}
	}
}

func TestComputeCarriesFourPoint(t *testing.T) {
	points := fourPointBars(linear(30, 50, 1), 78, 3000)
	set, err := Compute(points, DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{FourPointBuyVolumeUp, FourPointBuyAverageAbove}
	if !slices.Equal(set.FourPoint.Buy, want) || len(set.FourPoint.Sell) != 0 {
		t.Fatalf("unexpected four point check %+v", set.FourPoint)
	}
}

package analysis

import (
	"time"

	"twstock-advisor/internal/domain"
)

var testMeta = domain.StockMetadata{Code: "2330", Name: "台積電", Industry: "半導體業", Market: domain.MarketListed}

func seriesFromCloses(id string, closes []float64) domain.PriceSeries {
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
	return domain.PriceSeries{StockID: id, Months: 3, Points: points}
}

// acceleratingRise is strictly increasing: a fast leg, a slow drift that pulls
// the MACD histogram below zero, then an acceleration whose last bar flips it
// back above zero.
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

func flat(n int, price float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = price
	}
	return out
}

func rising(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 50 + float64(i)
	}
	return out
}

package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"gonum.org/v1/gonum/stat"

	"twstock-advisor/internal/domain"
	"twstock-advisor/internal/indicator"
)

const (
	defaultChartWidth  = 960
	defaultChartHeight = 720
	maxChartPoints     = 250
	minChartPoints     = 2
)

// Local market convention: red candles close up, green candles close down.
var (
	colBackground = color.RGBA{R: 250, G: 252, B: 255, A: 255}
	colGrid       = color.RGBA{R: 225, G: 232, B: 240, A: 255}
	colUp         = color.RGBA{R: 210, G: 61, B: 87, A: 255}
	colDown       = color.RGBA{R: 18, G: 140, B: 126, A: 255}
	colWick       = color.RGBA{R: 58, G: 64, B: 90, A: 255}
	colLineA      = color.RGBA{R: 62, G: 106, B: 214, A: 255}
	colLineB      = color.RGBA{R: 255, G: 149, B: 0, A: 255}
	colLineC      = color.RGBA{R: 142, G: 68, B: 173, A: 255}
	colBand       = color.RGBA{R: 104, G: 122, B: 146, A: 255}
	colVolume     = color.RGBA{R: 120, G: 139, B: 164, A: 255}
)

var maColors = []color.RGBA{colLineA, colLineB, colLineC}

// Renderer draws a four-panel PNG: candles with moving averages and
// Bollinger bands, volume, RSI and MACD.
type Renderer struct {
	width  int
	height int
}

func NewRenderer() *Renderer {
	return &Renderer{width: defaultChartWidth, height: defaultChartHeight}
}

func (r *Renderer) Render(meta domain.StockMetadata, series domain.PriceSeries, params indicator.Params) (domain.ChartImage, error) {
	points := series.Points
	if len(points) < minChartPoints {
		return domain.ChartImage{}, &domain.InsufficientDataError{Indicator: "chart", Required: minChartPoints, Got: len(points)}
	}

	// Indicators are computed on the full series so the visible window
	// starts with warmed-up values.
	closes := series.Closes()
	overlays := movingAverages(closes, params.MovingAveragePeriods)
	upper, middle, lower := bollingerSeries(closes, params.BollingerPeriod, params.BollingerStdDevs)
	rsi, _ := indicator.RSISeries(closes, params.RSIPeriod)
	macd, macdSignal, _ := indicator.MACDSeries(closes, params.MACDFast, params.MACDSlow, params.MACDSignal)

	start := 0
	if len(points) > maxChartPoints {
		start = len(points) - maxChartPoints
	}
	points = points[start:]
	for i := range overlays {
		overlays[i] = tail(overlays[i], start)
	}
	upper, middle, lower = tail(upper, start), tail(middle, start), tail(lower, start)
	rsi, macd, macdSignal = tail(rsi, start), tail(macd, start), tail(macdSignal, start)

	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	fillRect(img, img.Bounds(), colBackground)

	mainRect := image.Rect(60, 20, r.width-20, (r.height*52)/100)
	volRect := image.Rect(60, mainRect.Max.Y+10, r.width-20, (r.height*64)/100)
	rsiRect := image.Rect(60, volRect.Max.Y+14, r.width-20, (r.height*80)/100)
	macdRect := image.Rect(60, rsiRect.Max.Y+14, r.width-20, r.height-20)
	drawGrid(img, mainRect, 8, 6)
	drawGrid(img, volRect, 8, 2)
	drawGrid(img, rsiRect, 8, 2)
	drawGrid(img, macdRect, 8, 2)

	minPrice, maxPrice := priceBounds(points)
	for _, band := range [][]float64{upper, lower} {
		lo, hi := finiteBounds(band)
		if hasFinite(band) {
			minPrice = math.Min(minPrice, lo)
			maxPrice = math.Max(maxPrice, hi)
		}
	}

	drawCandles(img, mainRect, points, minPrice, maxPrice)
	drawSeries(img, mainRect, upper, minPrice, maxPrice, colBand)
	drawSeries(img, mainRect, middle, minPrice, maxPrice, colBand)
	drawSeries(img, mainRect, lower, minPrice, maxPrice, colBand)
	for i, ma := range overlays {
		drawSeries(img, mainRect, ma, minPrice, maxPrice, maColors[i%len(maColors)])
	}

	drawVolume(img, volRect, points)

	if rsi != nil {
		drawHorizontalValueLine(img, rsiRect, 30, 0, 100, colBand)
		drawHorizontalValueLine(img, rsiRect, 70, 0, 100, colBand)
		drawSeries(img, rsiRect, rsi, 0, 100, colLineA)
	}

	if macd != nil {
		hist := make([]float64, len(macd))
		for i := range macd {
			hist[i] = macd[i] - macdSignal[i]
		}
		minV, maxV := finiteBounds(macd)
		for _, s := range [][]float64{macdSignal, hist} {
			lo, hi := finiteBounds(s)
			minV = math.Min(minV, lo)
			maxV = math.Max(maxV, hi)
		}
		drawBars(img, macdRect, hist, minV, maxV, colVolume)
		drawHorizontalValueLine(img, macdRect, 0, minV, maxV, colBand)
		drawSeries(img, macdRect, macd, minV, maxV, colLineA)
		drawSeries(img, macdRect, macdSignal, minV, maxV, colLineB)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return domain.ChartImage{}, fmt.Errorf("encode chart for %s: %w", meta.Code, err)
	}

	stockID := meta.Code
	if stockID == "" {
		stockID = series.StockID
	}
	return domain.ChartImage{
		StockID:  stockID,
		MimeType: "image/png",
		Width:    r.width,
		Height:   r.height,
		Bytes:    buf.Bytes(),
	}, nil
}

func movingAverages(closes []float64, periods []int) [][]float64 {
	out := make([][]float64, 0, len(periods))
	for _, period := range periods {
		if period <= 0 || len(closes) < period {
			continue
		}
		ma := nanSeries(len(closes))
		for i := period - 1; i < len(closes); i++ {
			ma[i] = stat.Mean(closes[i-period+1:i+1], nil)
		}
		out = append(out, ma)
	}
	return out
}

func bollingerSeries(closes []float64, period int, stdDevs float64) (upper, middle, lower []float64) {
	if period <= 0 || len(closes) < period {
		return nil, nil, nil
	}
	upper, middle, lower = nanSeries(len(closes)), nanSeries(len(closes)), nanSeries(len(closes))
	for i := period - 1; i < len(closes); i++ {
		mean, std := stat.PopMeanStdDev(closes[i-period+1:i+1], nil)
		middle[i] = mean
		upper[i] = mean + stdDevs*std
		lower[i] = mean - stdDevs*std
	}
	return upper, middle, lower
}

func drawCandles(img *image.RGBA, rect image.Rectangle, points []domain.PricePoint, minPrice, maxPrice float64) {
	candleWidth := max(1, (rect.Dx()-10)/len(points)-1)
	for i, p := range points {
		x := mapIndexToX(i, len(points), rect)
		highY := mapValueToY(p.High, minPrice, maxPrice, rect)
		lowY := mapValueToY(p.Low, minPrice, maxPrice, rect)
		drawLine(img, x, highY, x, lowY, colWick)

		openY := mapValueToY(p.Open, minPrice, maxPrice, rect)
		closeY := mapValueToY(p.Close, minPrice, maxPrice, rect)
		top := min(openY, closeY)
		bottom := max(openY, closeY)
		if bottom-top < 2 {
			bottom = top + 2
		}

		bodyColor := colUp
		if p.Close < p.Open {
			bodyColor = colDown
		}
		fillRect(img, image.Rect(x-candleWidth/2, top, x+candleWidth/2+1, bottom+1), bodyColor)
	}
}

func drawVolume(img *image.RGBA, rect image.Rectangle, points []domain.PricePoint) {
	volumes := make([]float64, len(points))
	for i, p := range points {
		volumes[i] = float64(p.Volume)
	}
	_, maxV := finiteBounds(volumes)
	drawBars(img, rect, volumes, 0, maxV, colVolume)
}

func drawSeries(img *image.RGBA, rect image.Rectangle, series []float64, minV, maxV float64, col color.RGBA) {
	lastX, lastY := -1, -1
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			lastX, lastY = -1, -1
			continue
		}
		x := mapIndexToX(i, len(series), rect)
		y := mapValueToY(v, minV, maxV, rect)
		if lastX >= 0 {
			drawLine(img, lastX, lastY, x, y, col)
		}
		lastX, lastY = x, y
	}
}

func drawBars(img *image.RGBA, rect image.Rectangle, series []float64, minV, maxV float64, col color.RGBA) {
	if len(series) == 0 {
		return
	}
	barW := max(1, (rect.Dx()-10)/len(series)-1)
	zeroY := mapValueToY(0, minV, maxV, rect)
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		x := mapIndexToX(i, len(series), rect)
		y := mapValueToY(v, minV, maxV, rect)
		top := min(y, zeroY)
		bottom := max(y, zeroY)
		fillRect(img, image.Rect(x-barW/2, top, x+barW/2+1, bottom+1), col)
	}
}

func drawGrid(img *image.RGBA, rect image.Rectangle, verticalLines, horizontalLines int) {
	for i := 0; i <= verticalLines; i++ {
		x := rect.Min.X + (rect.Dx()*i)/max(1, verticalLines)
		drawLine(img, x, rect.Min.Y, x, rect.Max.Y, colGrid)
	}
	for i := 0; i <= horizontalLines; i++ {
		y := rect.Min.Y + (rect.Dy()*i)/max(1, horizontalLines)
		drawLine(img, rect.Min.X, y, rect.Max.X, y, colGrid)
	}
}

func drawHorizontalValueLine(img *image.RGBA, rect image.Rectangle, value, minV, maxV float64, col color.RGBA) {
	y := mapValueToY(value, minV, maxV, rect)
	drawLine(img, rect.Min.X, y, rect.Max.X, y, col)
}

func mapIndexToX(idx, total int, rect image.Rectangle) int {
	if total <= 1 {
		return rect.Min.X
	}
	return rect.Min.X + (idx*(rect.Dx()-1))/(total-1)
}

func mapValueToY(value, minV, maxV float64, rect image.Rectangle) int {
	if maxV <= minV {
		return rect.Max.Y
	}
	ratio := (value - minV) / (maxV - minV)
	ratio = math.Max(0, math.Min(1, ratio))
	return rect.Max.Y - int(ratio*float64(rect.Dy()-1))
}

func priceBounds(points []domain.PricePoint) (float64, float64) {
	lo, hi := points[0].Low, points[0].High
	for _, p := range points {
		lo = math.Min(lo, p.Low)
		hi = math.Max(hi, p.High)
	}
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

func finiteBounds(values []float64) (float64, float64) {
	minV := math.Inf(1)
	maxV := math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	if math.IsInf(minV, 1) || math.IsInf(maxV, -1) {
		return 0, 1
	}
	if minV == maxV {
		return minV, maxV + 1
	}
	return minV, maxV
}

func hasFinite(values []float64) bool {
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

func tail(values []float64, start int) []float64 {
	if values == nil {
		return nil
	}
	return values[start:]
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func fillRect(img *image.RGBA, rect image.Rectangle, col color.RGBA) {
	r := rect.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}

func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	errTerm := dx + dy
	for {
		if image.Pt(x0, y0).In(img.Bounds()) {
			img.SetRGBA(x0, y0, col)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * errTerm
		if e2 >= dy {
			errTerm += dy
			x0 += sx
		}
		if e2 <= dx {
			errTerm += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

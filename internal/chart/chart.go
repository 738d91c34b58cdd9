// Package chart renders candle series to PNG line charts.
package chart

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/xhit/go-str2duration/v2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/deusflow/cryptonews/internal/market"
)

var ErrNoData = errors.New("no candles to plot")

// Renderer writes chart images into dir.
type Renderer struct {
	dir    string
	logger zerolog.Logger
}

func New(dir string, logger zerolog.Logger) *Renderer {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Renderer{dir: dir, logger: logger}
}

// Render plots the close prices of candles and returns the PNG path. The
// caller owns the file.
func (r *Renderer) Render(symbol, interval string, candles []market.Candle) (string, error) {
	if len(candles) == 0 {
		return "", ErrNoData
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s Price Chart (%s)", symbol, interval)
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Price (USDT)"
	p.X.Tick.Marker = plot.TimeTicks{Format: timeFormat(interval)}
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	pts := make(plotter.XYs, len(candles))
	for i, c := range candles {
		pts[i].X = float64(c.Time)
		pts[i].Y = c.Close
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return "", fmt.Errorf("building line for %s: %w", symbol, err)
	}
	p.Add(plotter.NewGrid(), line)
	p.Legend.Add("Close Price", line)
	p.Legend.Top = true

	f, err := os.CreateTemp(r.dir, "chart-*.png")
	if err != nil {
		return "", fmt.Errorf("creating chart file: %w", err)
	}
	path := f.Name()
	f.Close()

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("saving chart %s: %w", path, err)
	}

	r.logger.Debug().Str("symbol", symbol).Str("interval", interval).Str("path", path).Msg("Chart rendered")
	return path, nil
}

// timeFormat picks tick labels that stay readable for the candle width.
func timeFormat(interval string) string {
	d, err := str2duration.ParseDuration(interval)
	if err != nil {
		return "01-02 15:04"
	}
	switch {
	case d < time.Hour:
		return "15:04"
	case d < 24*time.Hour:
		return "01-02 15:04"
	default:
		return "2006-01-02"
	}
}

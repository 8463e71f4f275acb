// Package chart renders the per-category aggregate of a questionnaire as a
// horizontal bar chart PNG.
package chart

import (
	"bytes"
	"context"
	"doraform/internal/i18n"
	"doraform/internal/logger"
	"doraform/internal/model"
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	Width = 900

	headerHeight = 80
	rowHeight    = 64
	footerHeight = 36
	labelWidth   = 280
	margin       = 24
	barHeight    = 30
)

var (
	background = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	ink        = color.NRGBA{R: 0x1F, G: 0x29, B: 0x37, A: 0xFF}
	track      = color.NRGBA{R: 0xE5, G: 0xE7, B: 0xEB, A: 0xFF}
	low        = color.NRGBA{R: 0xDC, G: 0x26, B: 0x26, A: 0xFF}
	medium     = color.NRGBA{R: 0xF5, G: 0x9E, B: 0x0B, A: 0xFF}
	high       = color.NRGBA{R: 0x16, G: 0xA3, B: 0x4A, A: 0xFF}
)

// Renderer draws score charts and is safe for concurrent use. Font faces are
// built per render: a truetype face is not.
type Renderer struct {
	font     *truetype.Font
	maxScore float64
	log      *logger.Logger
}

// NewRenderer creates a renderer whose bars are scaled against maxScore.
func NewRenderer(maxScore float64, log *logger.Logger) (*Renderer, error) {
	if log == nil {
		log = logger.Nop()
	}
	if maxScore <= 0 {
		return nil, fmt.Errorf("chart: max score must be positive, got %v", maxScore)
	}
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return &Renderer{
		font:     f,
		maxScore: maxScore,
		log:      log.With("service", "ChartRenderer"),
	}, nil
}

// ExportVisual renders scores and returns the PNG bytes.
func (r *Renderer) ExportVisual(ctx context.Context, scores []model.CategoryScore, locale model.Locale) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf, err := r.Render(scores, locale)
	if err != nil {
		return nil, err
	}
	r.log.Debug("chart rendered", "categories", len(scores), "bytes", buf.Len())
	return buf.Bytes(), nil
}

// Height returns the image height for n categories.
func Height(n int) int {
	if n == 0 {
		n = 1
	}
	return headerHeight + n*rowHeight + footerHeight
}

// Render draws one row per category in the given order. Categories without
// answers get an empty track and the localized no-data label.
func (r *Renderer) Render(scores []model.CategoryScore, locale model.Locale) (bytes.Buffer, error) {
	var buf bytes.Buffer
	height := Height(len(scores))
	dc := gg.NewContext(Width, height)

	dc.SetColor(background)
	dc.Clear()

	dc.SetColor(ink)
	dc.SetFontFace(r.face(26))
	dc.DrawStringAnchored(i18n.T(locale, i18n.MsgChartTitle), Width/2, headerHeight/2, 0.5, 0.5)

	body := r.face(16)
	dc.SetFontFace(body)
	if len(scores) == 0 {
		dc.DrawStringAnchored(i18n.T(locale, i18n.MsgNoData), Width/2, headerHeight+rowHeight/2, 0.5, 0.5)
	}

	barX := float64(margin + labelWidth)
	barMax := float64(Width - margin - 70 - margin - labelWidth)
	for i, s := range scores {
		top := float64(headerHeight + i*rowHeight)
		mid := top + rowHeight/2

		dc.SetColor(ink)
		dc.DrawStringWrapped(s.Label, margin, mid, 0, 0.5, labelWidth-margin, 1.2, gg.AlignLeft)

		dc.SetColor(track)
		dc.DrawRoundedRectangle(barX, mid-barHeight/2, barMax, barHeight, 4)
		dc.Fill()

		value := i18n.T(locale, i18n.MsgNoData)
		if s.HasData() {
			w := barMax * clamp(s.Mean/r.maxScore)
			dc.SetColor(r.tone(s.Mean))
			dc.DrawRoundedRectangle(barX, mid-barHeight/2, w, barHeight, 4)
			dc.Fill()
			value = fmt.Sprintf("%.2f", s.Mean)
		}
		dc.SetColor(ink)
		dc.DrawStringAnchored(value, barX+barMax+margin, mid, 0, 0.5)
	}

	dc.SetFontFace(r.face(12))
	dc.DrawStringAnchored(fmt.Sprintf("0 - %.0f", r.maxScore), Width-margin, float64(height-footerHeight/2), 1, 0.5)

	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

func (r *Renderer) face(size float64) font.Face {
	return truetype.NewFace(r.font, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

func (r *Renderer) tone(mean float64) color.Color {
	switch f := mean / r.maxScore; {
	case f < 0.5:
		return low
	case f < 0.75:
		return medium
	default:
		return high
	}
}

func clamp(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

package report

import (
	"bytes"
	"doraform/internal/form"
	"doraform/internal/i18n"
	"doraform/internal/model"
	"fmt"
	"image/png"

	"github.com/go-pdf/fpdf"
)

const (
	pageMargin   = 15.0
	contentWidth = 180.0 // A4 width minus margins
	lineHeight   = 6.0
	chartImage   = "chart"
)

// RenderPDF builds the submission report: identity header, per-category
// summary, the chart when one was exported, then every question with its
// answer and observation.
func RenderPDF(req form.DeliveryRequest) ([]byte, error) {
	if req.Record == nil {
		return nil, fmt.Errorf("render pdf: nil record")
	}
	rec := req.Record
	loc := req.Locale

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle(tr(i18n.T(loc, i18n.MsgReportTitle)), false)
	pdf.SetAuthor(tr(rec.UserName), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentWidth, 10, tr(i18n.T(loc, i18n.MsgReportTitle)), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 11)
	for _, row := range [][2]string{
		{i18n.T(loc, i18n.MsgReportProvider), rec.ProviderName},
		{i18n.T(loc, i18n.MsgReportEntity), rec.FinancialEntityName},
		{i18n.T(loc, i18n.MsgReportUser), rec.UserName},
		{i18n.T(loc, i18n.MsgReportDate), rec.Date.UTC().Format("02/01/2006 15:04 UTC")},
	} {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(45, lineHeight, tr(row[0]+":"), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(contentWidth-45, lineHeight, tr(row[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	section(pdf, tr(i18n.T(loc, i18n.MsgReportSummary)))
	pdf.SetFont("Helvetica", "", 10)
	for _, s := range rec.Scores {
		mean := i18n.T(loc, i18n.MsgNoData)
		if s.HasData() {
			mean = fmt.Sprintf("%.2f", s.Mean)
		}
		pdf.CellFormat(120, lineHeight, tr(s.Label), "B", 0, "L", false, 0, "")
		pdf.CellFormat(30, lineHeight, fmt.Sprintf("%d/%d", s.Answered, s.Total), "B", 0, "C", false, 0, "")
		pdf.CellFormat(30, lineHeight, tr(mean), "B", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	if cfg, err := png.DecodeConfig(bytes.NewReader(req.Visual)); err == nil && cfg.Width > 0 {
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(chartImage, opts, bytes.NewReader(req.Visual))
		h := contentWidth * float64(cfg.Height) / float64(cfg.Width)
		pdf.ImageOptions(chartImage, pageMargin, 0, contentWidth, h, true, opts, 0, "")
		pdf.Ln(4)
	}

	section(pdf, tr(i18n.T(loc, i18n.MsgReportDetail)))
	labels := categoryLabels(req.Categories, loc)
	for i, q := range req.Questions {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(contentWidth, 5, tr(labels[q.CategoryID]), "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "B", 10)
		text := rec.Identity.Expand(q.Text.In(loc))
		pdf.MultiCell(contentWidth, 5, tr(fmt.Sprintf("%d. %s", i+1, text)), "", "L", false)

		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(contentWidth, 5, tr(i18n.T(loc, i18n.MsgReportAnswer)+": "+answerText(q, rec.Answers, loc)), "", "L", false)
		if obs := rec.Observations[q.ID]; obs != "" {
			pdf.MultiCell(contentWidth, 5, tr(i18n.T(loc, i18n.MsgReportObservation)+": "+obs), "", "L", false)
		}
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func section(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentWidth, 8, title, "", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func categoryLabels(categories []model.Category, loc model.Locale) map[string]string {
	out := make(map[string]string, len(categories))
	for _, c := range categories {
		out[c.ID] = c.Label.In(loc)
	}
	return out
}

func answerText(q model.Question, answers map[string]float64, loc model.Locale) string {
	v, ok := answers[q.ID]
	if !ok {
		return i18n.T(loc, i18n.MsgReportUnanswered)
	}
	if o, ok := q.OptionFor(v); ok {
		return fmt.Sprintf("%s (%g)", o.Text.In(loc), v)
	}
	return fmt.Sprintf("%g", v)
}

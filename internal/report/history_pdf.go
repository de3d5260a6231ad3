// Package report renders downloadable asset history reports.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/spec-kit/asset-tracker/internal/domain"
)

// HistoryReport describes the filters a report was generated with.
type HistoryReport struct {
	Title       string
	GeneratedAt time.Time
	StartDate   *time.Time
	EndDate     *time.Time
	Entries     []domain.HistoryEntry
}

type column struct {
	title string
	width float64
	value func(e domain.HistoryEntry) string
}

var columns = []column{
	{"Date", 32, func(e domain.HistoryEntry) string { return e.ActionDate.Format("2006-01-02 15:04") }},
	{"Asset Tag", 30, func(e domain.HistoryEntry) string {
		if e.Asset == nil {
			return "-"
		}
		return e.Asset.AssetTag
	}},
	{"Asset", 50, func(e domain.HistoryEntry) string {
		if e.Asset == nil {
			return "-"
		}
		return e.Asset.Make + " " + e.Asset.Model
	}},
	{"Action", 22, func(e domain.HistoryEntry) string { return string(e.Action) }},
	{"Employee", 45, func(e domain.HistoryEntry) string {
		if e.Employee == nil {
			return "-"
		}
		return e.Employee.Name
	}},
	{"Condition", 22, func(e domain.HistoryEntry) string {
		if e.Condition == nil {
			return "-"
		}
		return string(*e.Condition)
	}},
	{"Performed By", 40, func(e domain.HistoryEntry) string {
		if e.Performer == nil {
			return "-"
		}
		return e.Performer.Name
	}},
	{"Reason", 36, func(e domain.HistoryEntry) string {
		if e.Reason == nil {
			return ""
		}
		return *e.Reason
	}},
}

// RenderHistory writes r as a landscape A4 PDF to w.
func RenderHistory(w io.Writer, r HistoryReport) error {
	title := r.Title
	if title == "" {
		title = "Asset History Report"
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreationDate(r.GeneratedAt)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, c := range columns {
			pdf.CellFormat(c.width, 8, c.title, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
	}
	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			header()
		}
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Generated: "+r.GeneratedAt.Format(time.RFC1123), "", 1, "C", false, 0, "")
	if period := periodLabel(r.StartDate, r.EndDate); period != "" {
		pdf.CellFormat(0, 6, period, "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Records: %d", len(r.Entries)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	header()
	if len(r.Entries) == 0 {
		pdf.CellFormat(0, 8, "No history records match the selected filters.", "1", 1, "C", false, 0, "")
	}
	for _, e := range r.Entries {
		for _, c := range columns {
			pdf.CellFormat(c.width, 7, tr(fit(pdf, c.value(e), c.width-2)), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

func periodLabel(start, end *time.Time) string {
	const layout = "2006-01-02"
	switch {
	case start != nil && end != nil:
		return "Period: " + start.Format(layout) + " to " + end.Format(layout)
	case start != nil:
		return "From: " + start.Format(layout)
	case end != nil:
		return "Until: " + end.Format(layout)
	}
	return ""
}

// fit truncates s with an ellipsis so it fits width at the current font.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

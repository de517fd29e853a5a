// Package report renders task lists as printable documents.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nibzard/tasklist/internal/todo"
)

// Agenda is the content of one exported document.
type Agenda struct {
	Title     string
	Generated time.Time
	Start     time.Time
	End       time.Time
	Tasks     []todo.Task
}

// Options tune the rendered PDF.
type Options struct {
	// Uncompressed leaves page streams readable, which helps when
	// inspecting output.
	Uncompressed bool
}

const (
	margin     = 15.0
	lineHeight = 5.0
	cellPad    = 1.0
	dueLayout  = "Mon 02 Jan 2006 15:04"
)

var columns = []struct {
	title string
	width float64
}{
	{"Due", 36},
	{"Summary", 46},
	{"Repeats", 24},
	{"Alerts", 24},
	{"Details", 50},
}

// Write renders a as an A4 PDF to w.
func Write(w io.Writer, a Agenda, opts Options) error {
	pdf := render(a, opts)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render agenda: %w", err)
	}
	return nil
}

// WriteFile renders a to path, creating parent directories.
func WriteFile(path string, a Agenda, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	pdf := render(a, opts)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("render agenda: %w", err)
	}
	return nil
}

type renderer struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func render(a Agenda, opts Options) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(!opts.Uncompressed)
	if !a.Generated.IsZero() {
		pdf.SetCreationDate(a.Generated)
	}
	r := &renderer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	title := a.Title
	if title == "" {
		title = "Agenda"
	}
	pdf.SetTitle(title, true)
	pdf.SetCreator("tasklist", false)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-margin + 2)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, r.tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	window := fmt.Sprintf("%s to %s", a.Start.Format(dueLayout), a.End.Format(dueLayout))
	pdf.CellFormat(0, 6, window, "", 1, "L", false, 0, "")
	pdf.Ln(3)

	if len(a.Tasks) == 0 {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.CellFormat(0, 8, "No tasks due in this window.", "", 1, "L", false, 0, "")
		return pdf
	}

	r.header()
	pdf.SetFont("Helvetica", "", 9)
	for i, t := range a.Tasks {
		r.row([]string{
			t.Due.Format(dueLayout),
			t.Summary,
			repeats(t),
			alerts(t),
			t.Details,
		}, i%2 == 1)
	}
	return pdf
}

func (r *renderer) header() {
	r.pdf.SetFont("Helvetica", "B", 9)
	r.pdf.SetFillColor(220, 220, 220)
	for _, c := range columns {
		r.pdf.CellFormat(c.width, 7, c.title, "1", 0, "L", true, 0, "")
	}
	r.pdf.Ln(-1)
	r.pdf.SetFont("Helvetica", "", 9)
}

// row draws one table row, wrapping each cell and starting a new page
// when the row would cross the bottom margin.
func (r *renderer) row(cells []string, shaded bool) {
	split := make([][][]byte, len(cells))
	lines := 1
	for i, c := range cells {
		split[i] = r.pdf.SplitLines([]byte(r.tr(c)), columns[i].width-2*cellPad)
		lines = max(lines, len(split[i]))
	}
	h := float64(lines)*lineHeight + 2*cellPad

	_, pageH := r.pdf.GetPageSize()
	if r.pdf.GetY()+h > pageH-margin-5 {
		r.pdf.AddPage()
		r.header()
	}

	style := "D"
	if shaded {
		r.pdf.SetFillColor(245, 245, 245)
		style = "FD"
	}
	x, y := r.pdf.GetXY()
	for i, c := range columns {
		r.pdf.Rect(x, y, c.width, h, style)
		r.pdf.SetXY(x+cellPad, y+cellPad)
		for _, line := range split[i] {
			r.pdf.CellFormat(c.width-2*cellPad, lineHeight, string(line), "", 2, "L", false, 0, "")
		}
		x += c.width
	}
	r.pdf.SetXY(margin, y+h)
}

func repeats(t todo.Task) string {
	if !t.Recurrence.IsRecurring() {
		return "-"
	}
	return t.Recurrence.String()
}

func alerts(t todo.Task) string {
	if len(t.AlertOffsets) == 1 && t.AlertOffsets[0] == 0 {
		return "at due time"
	}
	return todo.FormatAlertOffsets(t.AlertOffsets) + " before"
}

package report

import (
	"fmt"
	"io"
	"time"

	"timesheet-service/prometheus"

	"github.com/jung-kurt/gofpdf"
)

const pdfFontFamily = "report"

// RenderPDF writes the report as a line-oriented PDF: a centered title, then
// one line per row in "date | studentId | hours | activity" order. When
// fontPath names a TTF file it is embedded so non-Latin activity text renders
// correctly; otherwise a built-in core font is used. Page breaks are left to
// the library.
func RenderPDF(rows []Row, title, fontPath string, w io.Writer) error {
	defer prometheus.TrackRender("pdf")(time.Now())

	pdf := gofpdf.New("P", "mm", "A4", "")

	family := "Arial"
	if fontPath != "" {
		pdf.AddUTF8Font(pdfFontFamily, "", fontPath)
		family = pdfFontFamily
	}

	pdf.AddPage()
	pdf.SetFont(family, "", 16)
	pdf.CellFormat(0, 12, title, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(family, "", 11)
	for _, r := range rows {
		line := fmt.Sprintf("%s | %s | %s | %s", r.Date, r.StudentID, r.Hours, r.Activity)
		pdf.CellFormat(0, 8, line, "", 1, "L", false, 0, "")
	}

	return pdf.Output(w)
}

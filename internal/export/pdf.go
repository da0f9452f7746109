package export

import (
	"io"
	"strconv"
	"strings"

	"ecopoweratlas/internal/models"

	"github.com/go-pdf/fpdf"
)

const pdfRowLimit = 40

// WriteResourceMetricsPDF renders a short tabular report of the first 40
// metric rows.
func WriteResourceMetricsPDF(w io.Writer, metrics []models.ResourceMetric, title string) error {
	if title == "" {
		title = "Resource Metrics Report"
	}

	pdf := fpdf.New("P", "cm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.AddPage()
	_, pageHeight := pdf.GetPageSize()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(2, 2, title)

	y := 3.0
	pdf.SetFont("Helvetica", "", 10)
	headers := []string{"Country", "Type", "Metric", "Value", "Unit", "Year"}
	pdf.Text(2, y, strings.Join(headers, " | "))
	y += 0.8

	rows := metrics
	if len(rows) > pdfRowLimit {
		rows = rows[:pdfRowLimit]
	}
	for _, metric := range rows {
		year := ""
		if metric.Year != nil {
			year = strconv.Itoa(*metric.Year)
		}
		row := []string{
			metric.CountryISO3,
			metric.ResourceType,
			metric.Metric,
			metric.Value.String(),
			metric.Unit,
			year,
		}
		pdf.Text(2, y, strings.Join(row, " | "))
		y += 0.6
		if y > pageHeight-2 {
			pdf.AddPage()
			pdf.SetFont("Helvetica", "", 10)
			y = 2
		}
	}

	return pdf.Output(w)
}

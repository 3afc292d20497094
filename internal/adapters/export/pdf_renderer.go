package export

import (
	"fmt"
	"io"
	"strings"

	"analytics-service/internal/core/domain"
	"analytics-service/internal/core/port"

	"github.com/go-pdf/fpdf"
)

var _ port.ReportRendererPort = (*PDFRenderer)(nil)

const (
	pdfRowHeight  = 6.0
	pdfFontFamily = "Helvetica"
)

// PDFRenderer lays the report out as a landscape A4 table; the header row
// repeats on every page.
type PDFRenderer struct {
	author string
}

func NewPDFRenderer(author string) *PDFRenderer {
	return &PDFRenderer{author: author}
}

func (r *PDFRenderer) ContentType() string   { return "application/pdf" }
func (r *PDFRenderer) FileExtension() string { return "pdf" }

func (r *PDFRenderer) Render(w io.Writer, report domain.ExportReport) error {
	specs := fitWidths(specsFor(report.Columns), 277)

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(report.Title, true)
	pdf.SetAuthor(r.author, true)
	pdf.SetCreationDate(report.GeneratedAt)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(pdfFontFamily, "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	tableHeader := func() {
		pdf.SetFont(pdfFontFamily, "B", 8)
		pdf.SetFillColor(230, 230, 230)
		for _, s := range specs {
			pdf.CellFormat(s.width, pdfRowHeight+1, tr(s.header), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont(pdfFontFamily, "", 7.5)
	}

	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			tableHeader()
		}
	})

	pdf.AddPage()
	pdf.SetFont(pdfFontFamily, "B", 14)
	pdf.CellFormat(0, 9, tr(report.Title), "", 1, "L", false, 0, "")
	pdf.SetFont(pdfFontFamily, "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated %s UTC. Showing %d of %d properties. Sorted by %s %s.",
		report.GeneratedAt.UTC().Format("2006-01-02 15:04"), len(report.Properties), report.Total,
		report.Sort.Field, strings.ToLower(string(report.Sort.Direction))), "", 1, "L", false, 0, "")
	if summary := filterSummary(report.Filter); summary != "" {
		pdf.MultiCell(0, 5, tr("Filters: "+summary), "", "L", false)
	}
	pdf.Ln(3)

	tableHeader()
	for i, p := range report.Properties {
		fill := i%2 == 1
		if fill {
			pdf.SetFillColor(245, 248, 252)
		}
		for _, s := range specs {
			pdf.CellFormat(s.width, pdfRowHeight, tr(truncate(pdf, s.value(p), s.width)), "1", 0, s.align, fill, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(report.Properties) == 0 {
		pdf.CellFormat(0, pdfRowHeight, "No properties match the filters.", "1", 1, "C", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}

// fitWidths scales columns down when they exceed the printable width.
func fitWidths(specs []columnSpec, printable float64) []columnSpec {
	var total float64
	for _, s := range specs {
		total += s.width
	}
	if total <= printable {
		return specs
	}
	scaled := make([]columnSpec, len(specs))
	for i, s := range specs {
		s.width = s.width * printable / total
		scaled[i] = s
	}
	return scaled
}

func truncate(pdf *fpdf.Fpdf, s string, width float64) string {
	limit := width - 2
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

func filterSummary(f domain.SearchFilter) string {
	var parts []string
	add := func(label, value string) {
		parts = append(parts, label+" "+value)
	}
	if f.ZipCode != "" {
		add("zip", f.ZipCode)
	}
	if f.City != "" {
		add("city", f.City)
	}
	if f.State != "" {
		add("state", f.State)
	}
	if f.PropertyType != "" {
		add("type", string(f.PropertyType))
	}
	if f.PriceMin != nil {
		add("price >=", dollars(*f.PriceMin))
	}
	if f.PriceMax != nil {
		add("price <=", dollars(*f.PriceMax))
	}
	if f.RentMin != nil {
		add("rent >=", dollars(*f.RentMin))
	}
	if f.RentMax != nil {
		add("rent <=", dollars(*f.RentMax))
	}
	if f.RatioMin != nil {
		add("ratio >=", optional(f.RatioMin))
	}
	if f.RatioMax != nil {
		add("ratio <=", optional(f.RatioMax))
	}
	if f.CapRateMin != nil {
		add("cap rate >=", optional(f.CapRateMin))
	}
	if f.CapRateMax != nil {
		add("cap rate <=", optional(f.CapRateMax))
	}
	if f.Bedrooms != nil {
		add("bedrooms", fmt.Sprint(*f.Bedrooms))
	}
	if f.BathroomsMin != nil {
		add("bathrooms >=", decimal(*f.BathroomsMin, 1))
	}
	if f.SquareFeetMin != nil {
		add("sq ft >=", fmt.Sprint(*f.SquareFeetMin))
	}
	if f.SquareFeetMax != nil {
		add("sq ft <=", fmt.Sprint(*f.SquareFeetMax))
	}
	if f.MarketImprovementMin != nil {
		add("vs market >=", optional(f.MarketImprovementMin))
	}
	if f.AnomaliesOnly {
		parts = append(parts, "anomalies only")
	}
	return strings.Join(parts, ", ")
}

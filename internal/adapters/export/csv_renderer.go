package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"analytics-service/internal/core/domain"
	"analytics-service/internal/core/port"
)

var _ port.ReportRendererPort = (*CSVRenderer)(nil)

// CSVRenderer writes a header row and one row per property.
type CSVRenderer struct{}

func NewCSVRenderer() *CSVRenderer {
	return &CSVRenderer{}
}

func (r *CSVRenderer) ContentType() string   { return "text/csv; charset=utf-8" }
func (r *CSVRenderer) FileExtension() string { return "csv" }

func (r *CSVRenderer) Render(w io.Writer, report domain.ExportReport) error {
	specs := specsFor(report.Columns)
	cw := csv.NewWriter(w)

	header := make([]string, len(specs))
	for i, s := range specs {
		header[i] = s.header
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	record := make([]string, len(specs))
	for _, p := range report.Properties {
		for i, s := range specs {
			record[i] = s.value(p)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

package port

import (
	"io"

	"analytics-service/internal/core/domain"
)

// ReportRendererPort - renders an export report into a binary attachment
type ReportRendererPort interface {
	Render(w io.Writer, report domain.ExportReport) error
	ContentType() string
	FileExtension() string
}

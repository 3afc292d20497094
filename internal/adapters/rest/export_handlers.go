package rest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"analytics-service/internal/adapters/metrics"
	"analytics-service/internal/contextkeys"
	"analytics-service/internal/core/domain"
	"analytics-service/internal/core/port"
	"analytics-service/internal/core/port/usecases_port"

	"github.com/goccy/go-json"
)

const maxExportBodyBytes = 1 << 20

type ExportHandler struct {
	exportUC  usecases_port.ExportPropertiesUseCase
	renderers map[string]port.ReportRendererPort
}

// NewExportHandler takes renderers keyed by format name ("csv", "pdf").
func NewExportHandler(exportUC usecases_port.ExportPropertiesUseCase, renderers map[string]port.ReportRendererPort) *ExportHandler {
	return &ExportHandler{exportUC: exportUC, renderers: renderers}
}

// Export returns the handler of POST /export/{format}
func (h *ExportHandler) Export(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := contextkeys.LoggerFromContext(r.Context())
		handlerLogger := logger.WithFields(port.Fields{
			"handler": "Export",
			"format":  format,
		})

		renderer, ok := h.renderers[format]
		if !ok {
			WriteJSONError(w, http.StatusNotFound, "Unknown export format", format)
			return
		}

		var body ExportRequestDTO
		decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxExportBodyBytes))
		decoder.UseNumber()
		if err := decoder.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			handlerLogger.Debug("Invalid export body", port.Fields{"error": err.Error()})
			WriteJSONError(w, http.StatusBadRequest, "Invalid request body", "Body must be a JSON object")
			return
		}

		if err := validateStruct(&body); err != nil {
			WriteJSONError(w, http.StatusBadRequest, "Invalid export options", err.Error())
			return
		}

		req := domain.ExportRequest{
			Query: parseSearchQuery(bodyValues(normalizeNumbers(body.Filters))),
			Title: body.Title,
		}
		for _, c := range body.Columns {
			req.Columns = append(req.Columns, domain.ExportColumn(c))
		}

		report, err := h.exportUC.Execute(r.Context(), req)
		if err != nil {
			writeUseCaseError(w, handlerLogger, err)
			return
		}

		// рендерим в буфер, чтобы ошибка не оборвала уже начатый ответ
		var buf bytes.Buffer
		if err := renderer.Render(&buf, *report); err != nil {
			handlerLogger.Error("Failed to render report", err, nil)
			WriteJSONError(w, http.StatusInternalServerError, "Internal server error", "Failed to render report")
			return
		}

		size := buf.Len()
		filename := fmt.Sprintf("properties-%s.%s", report.GeneratedAt.UTC().Format("20060102-150405"), renderer.FileExtension())
		w.Header().Set("Content-Type", renderer.ContentType())
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		w.Header().Set("Content-Length", strconv.Itoa(size))
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil {
			handlerLogger.Warn("Failed to write export", port.Fields{"error": err.Error()})
			return
		}

		metrics.Exports.WithLabelValues(format).Inc()
		handlerLogger.Info("Export generated", port.Fields{
			"rows":  len(report.Properties),
			"bytes": size,
		})
	}
}

// normalizeNumbers turns json.Number values into strings the parser reads.
func normalizeNumbers(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if n, ok := v.(json.Number); ok {
			out[k] = n.String()
			continue
		}
		out[k] = v
	}
	return out
}

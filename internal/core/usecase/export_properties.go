package usecase

import (
	"context"
	"strings"
	"time"

	"analytics-service/internal/contextkeys"
	"analytics-service/internal/core/analytics"
	"analytics-service/internal/core/domain"
	"analytics-service/internal/core/port"
)

const defaultExportTitle = "Property Investment Report"

type ExportPropertiesUseCase struct {
	storage port.PropertySearchPort
	ranker  *analytics.Ranker
	maxRows int
	now     func() time.Time
}

func NewExportPropertiesUseCase(storage port.PropertySearchPort, ranker *analytics.Ranker, maxRows int) *ExportPropertiesUseCase {
	if maxRows <= 0 {
		maxRows = 1000
	}
	return &ExportPropertiesUseCase{storage: storage, ranker: ranker, maxRows: maxRows, now: time.Now}
}

// Execute collects up to maxRows ranked rows for a renderer. A request
// without a limit gets the maximum.
func (uc *ExportPropertiesUseCase) Execute(ctx context.Context, req domain.ExportRequest) (*domain.ExportReport, error) {
	query := req.Query
	query.Page = domain.PagePolicy{DefaultLimit: uc.maxRows, MaxLimit: uc.maxRows}.Clamp(query.Page)
	query.Sort = query.Sort.Resolved()

	columns := dedupColumns(req.Columns)
	if len(columns) == 0 {
		columns = domain.DefaultExportColumns
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultExportTitle
	}

	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "ExportProperties",
		"columns":  len(columns),
		"limit":    query.Page.Limit,
	})

	ucLogger.Info("Use case started", nil)

	result, err := uc.storage.FindWithFilters(ctx, query)
	if err != nil {
		ucLogger.Error("Storage returned an error", err, nil)
		return nil, err
	}

	report := &domain.ExportReport{
		Title:       title,
		GeneratedAt: uc.now().UTC(),
		Columns:     columns,
		Properties:  uc.ranker.RankAll(result.Rows),
		Total:       result.Total,
		Filter:      query.Filter,
		Sort:        query.Sort,
	}

	ucLogger.Info("Use case finished successfully", port.Fields{"rows": len(report.Properties), "total": report.Total})
	return report, nil
}

func dedupColumns(cols []domain.ExportColumn) []domain.ExportColumn {
	seen := make(map[domain.ExportColumn]struct{}, len(cols))
	out := make([]domain.ExportColumn, 0, len(cols))
	for _, c := range cols {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

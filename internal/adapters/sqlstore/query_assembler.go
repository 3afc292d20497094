package sqlstore

import (
	"fmt"

	"analytics-service/internal/core/domain"
)

const propertyColumns = `p.id, p.external_id, p.data_source, p.street, p.city, p.state, p.zip_code,
	p.latitude, p.longitude, p.geohash, p.bedrooms, p.bathrooms, p.square_feet, p.property_type,
	p.list_price, p.monthly_rent, p.price_to_rent_ratio, p.cap_rate, p.created_at, p.last_updated, p.is_active`

const marketColumns = `m.sample_size, m.median_ratio, m.p25_ratio, m.p75_ratio`

// first placeholder is always the minimum peer count
const fromTemplate = `properties p
	LEFT JOIN market_aggregates m
		ON m.zip_code = p.zip_code AND m.bedrooms = p.bedrooms AND m.sample_size >= %s`

// sortColumns maps allow-listed sort keys to SQL text; ratio_vs_market_percent
// is rendered per dialect by sortColumn.
var sortColumns = map[domain.SortField]string{
	domain.SortByRatio:         "p.price_to_rent_ratio",
	domain.SortByCapRate:       "p.cap_rate",
	domain.SortByPrice:         "p.list_price",
	domain.SortByRent:          "p.monthly_rent",
	domain.SortByBedrooms:      "p.bedrooms",
	domain.SortByBathrooms:     "p.bathrooms",
	domain.SortBySquareFeet:    "p.square_feet",
	domain.SortByLastUpdated:   "p.last_updated",
	domain.SortByCreatedAt:     "p.created_at",
}

// AssemblerOptions - tunables shared by every assembled search
type AssemblerOptions struct {
	MinPeers          int
	RelativeThreshold float64
	// Page is the outer bound; endpoints clamp tighter before calling
	Page domain.PagePolicy
}

// DefaultAssemblerOptions: 5 peers, 10% relative threshold, export-sized page cap.
var DefaultAssemblerOptions = AssemblerOptions{
	MinPeers:          5,
	RelativeThreshold: 10,
	Page:              domain.PagePolicy{DefaultLimit: 50, MaxLimit: 1000},
}

// AssembledQuery - data and count statements sharing one WHERE clause.
// CountArgs is a prefix of DataArgs; the data statement adds limit and offset.
type AssembledQuery struct {
	DataSQL   string
	DataArgs  []any
	CountSQL  string
	CountArgs []any
	Page      domain.Page
	Sort      domain.Sort
}

type QueryAssembler struct {
	dialect Dialect
	opts    AssemblerOptions
}

func NewQueryAssembler(d Dialect, opts AssemblerOptions) *QueryAssembler {
	if opts.MinPeers <= 0 {
		opts.MinPeers = DefaultAssemblerOptions.MinPeers
	}
	if opts.Page.MaxLimit <= 0 {
		opts.Page = DefaultAssemblerOptions.Page
	}
	return &QueryAssembler{dialect: d, opts: opts}
}

// sortColumn is the only path from a sort key to SQL text. Callers pass a
// sort already resolved against the allow-list.
func sortColumn(d Dialect, field domain.SortField) string {
	if field == domain.SortByRatioVsMarket {
		return vsMarketColumn(d)
	}
	return sortColumns[field]
}

func orderClause(col string, dir domain.SortDirection) string {
	return fmt.Sprintf("ORDER BY %s %s NULLS LAST, p.id ASC", col, dir)
}

// Assemble builds both statements for one search.
func (a *QueryAssembler) Assemble(q domain.SearchQuery) AssembledQuery {
	qb := newQueryBuilder(a.dialect)
	from := fmt.Sprintf(fromTemplate, qb.bind(a.opts.MinPeers))
	applyFilters(qb, q.Filter, a.opts.RelativeThreshold)
	where := qb.whereClause()

	page := a.opts.Page.Clamp(q.Page)
	sort := q.Sort.Resolved()
	col := sortColumn(a.dialect, sort.Field)

	countArgs := make([]any, len(qb.args))
	copy(countArgs, qb.args)

	n := len(qb.args)
	dataArgs := make([]any, 0, n+2)
	dataArgs = append(dataArgs, qb.args...)
	dataArgs = append(dataArgs, page.Limit, page.Offset)

	return AssembledQuery{
		DataSQL: fmt.Sprintf("SELECT %s, %s FROM %s %s %s LIMIT %s OFFSET %s",
			propertyColumns, marketColumns, from, where, orderClause(col, sort.Direction),
			a.dialect.Placeholder(n+1), a.dialect.Placeholder(n+2)),
		DataArgs:  dataArgs,
		CountSQL:  fmt.Sprintf("SELECT COUNT(*) FROM %s %s", from, where),
		CountArgs: countArgs,
		Page:      page,
		Sort:      sort,
	}
}

// selectByCondition builds a single-purpose select with the market join,
// used by lookups that are not user searches.
func (a *QueryAssembler) selectByCondition(condition string, extra ...any) (string, []any) {
	qb := newQueryBuilder(a.dialect)
	from := fmt.Sprintf(fromTemplate, qb.bind(a.opts.MinPeers))
	placeholders := make([]any, len(extra))
	for i, arg := range extra {
		placeholders[i] = qb.bind(arg)
	}
	return fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s", propertyColumns, marketColumns, from,
		fmt.Sprintf(condition, placeholders...)), qb.args
}

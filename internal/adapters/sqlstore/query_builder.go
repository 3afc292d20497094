package sqlstore

import (
	"fmt"
	"strings"

	"analytics-service/internal/core/domain"
)

// ratio_vs_market_percent, defined only when the market join matched
const vsMarketExpr = "((p.price_to_rent_ratio / NULLIF(m.median_ratio, 0)) - 1) * 100"

// vsMarketColumn is vsMarketExpr rounded the same way as the ranker's value,
// so a property flagged at exactly the threshold also passes the filter.
func vsMarketColumn(d Dialect) string {
	return d.Round2(vsMarketExpr)
}

type queryBuilder struct {
	dialect    Dialect
	conditions []string
	args       []any
}

func newQueryBuilder(d Dialect) *queryBuilder {
	return &queryBuilder{
		dialect:    d,
		conditions: []string{"p.is_active = TRUE"},
		args:       make([]any, 0, 8),
	}
}

// bind appends arg and returns its placeholder; numbering always equals
// the argument position.
func (qb *queryBuilder) bind(arg any) string {
	qb.args = append(qb.args, arg)
	return qb.dialect.Placeholder(len(qb.args))
}

// addCondition: condition is a format with a %s for the field and a %s for the placeholder
func (qb *queryBuilder) addCondition(condition string, fieldName string, arg any) {
	qb.conditions = append(qb.conditions, fmt.Sprintf(condition, fieldName, qb.bind(arg)))
}

func addRange[T int | int64 | float64](qb *queryBuilder, fieldName string, min, max *T) {
	if min != nil {
		qb.addCondition("%s >= %s", fieldName, *min)
	}
	if max != nil {
		qb.addCondition("%s <= %s", fieldName, *max)
	}
}

// whereClause joins the collected predicates with AND.
func (qb *queryBuilder) whereClause() string {
	return "WHERE " + strings.Join(qb.conditions, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern escapes LIKE metacharacters so user input matches literally.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// applyFilters translates a typed filter into predicates. relativeThreshold is
// the ratio_vs_market_percent bound used by the anomalies-only toggle.
func applyFilters(qb *queryBuilder, f domain.SearchFilter, relativeThreshold float64) {
	if zip := strings.TrimSpace(f.ZipCode); zip != "" {
		qb.addCondition("%s = %s", "p.zip_code", zip)
	}
	if state := strings.TrimSpace(f.State); state != "" {
		qb.addCondition("%s = %s", "p.state", strings.ToUpper(state))
	}
	if city := strings.TrimSpace(f.City); city != "" {
		qb.addCondition("%s "+qb.dialect.ContainsOperator()+` %s ESCAPE '\'`, "p.city", containsPattern(city))
	}
	if f.PropertyType != "" {
		qb.addCondition("%s = %s", "p.property_type", string(f.PropertyType))
	}
	if f.Bedrooms != nil {
		qb.addCondition("%s = %s", "p.bedrooms", *f.Bedrooms)
	}
	if f.BathroomsMin != nil {
		qb.addCondition("%s >= %s", "p.bathrooms", *f.BathroomsMin)
	}

	addRange(qb, "p.list_price", f.PriceMin, f.PriceMax)
	addRange(qb, "p.monthly_rent", f.RentMin, f.RentMax)
	addRange(qb, "p.price_to_rent_ratio", f.RatioMin, f.RatioMax)
	addRange(qb, "p.cap_rate", f.CapRateMin, f.CapRateMax)
	addRange(qb, "p.square_feet", f.SquareFeetMin, f.SquareFeetMax)

	if f.MarketImprovementMin != nil {
		qb.addCondition("%s >= %s", vsMarketColumn(qb.dialect), *f.MarketImprovementMin)
	}
	if f.AnomaliesOnly {
		qb.addCondition("%s >= %s", vsMarketColumn(qb.dialect), relativeThreshold)
	}
}

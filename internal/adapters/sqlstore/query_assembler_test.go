package sqlstore

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"analytics-service/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

var pgPlaceholder = regexp.MustCompile(`\$(\d+)`)

// placeholderNumbers returns the distinct $n numbers used in sql, in order of first use
func placeholderNumbers(sql string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range pgPlaceholder.FindAllStringSubmatch(sql, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

func TestAssemble_BaseQuery(t *testing.T) {
	a := NewQueryAssembler(Postgres, DefaultAssemblerOptions)

	q := a.Assemble(domain.SearchQuery{Sort: domain.DefaultSort, Page: domain.Page{Limit: 50}})

	assert.Contains(t, q.CountSQL, "WHERE p.is_active = TRUE")
	assert.Contains(t, q.CountSQL, "m.sample_size >= $1")
	assert.Equal(t, []any{5}, q.CountArgs)
	assert.Equal(t, []any{5, 50, 0}, q.DataArgs)
	assert.Contains(t, q.DataSQL, "ORDER BY p.price_to_rent_ratio DESC NULLS LAST, p.id ASC LIMIT $2 OFFSET $3")
	assert.NotContains(t, q.CountSQL, "LIMIT")
	assert.NotContains(t, q.CountSQL, "ORDER BY")
}

func TestAssemble_PlaceholdersMatchArguments(t *testing.T) {
	a := NewQueryAssembler(Postgres, DefaultAssemblerOptions)

	q := a.Assemble(domain.SearchQuery{
		Filter: domain.SearchFilter{
			ZipCode:              "02134",
			City:                 "Boston",
			State:                "ma",
			PropertyType:         domain.PropertyTypeCondo,
			PriceMin:             ptr(int64(10000000)),
			PriceMax:             ptr(int64(50000000)),
			RentMin:              ptr(int64(150000)),
			RatioMin:             ptr(0.5),
			RatioMax:             ptr(1.5),
			CapRateMin:           ptr(6.0),
			Bedrooms:             ptr(2),
			BathroomsMin:         ptr(1.5),
			SquareFeetMin:        ptr(600),
			SquareFeetMax:        ptr(1800),
			MarketImprovementMin: ptr(5.0),
			AnomaliesOnly:        true,
		},
		Page: domain.Page{Limit: 20, Offset: 40},
	})

	nums := placeholderNumbers(q.DataSQL)
	require.Len(t, nums, len(q.DataArgs))
	for i, n := range nums {
		assert.Equal(t, fmt.Sprint(i+1), n)
	}
	assert.Len(t, placeholderNumbers(q.CountSQL), len(q.CountArgs))
	assert.Equal(t, q.CountArgs, q.DataArgs[:len(q.CountArgs)])
	assert.Equal(t, []any{20, 40}, q.DataArgs[len(q.CountArgs):])

	assert.Contains(t, q.CountArgs, "MA")
	assert.Contains(t, q.CountArgs, "%Boston%")
	assert.Contains(t, q.CountArgs, 10.0, "anomalies-only binds the relative threshold")
	assert.Contains(t, q.CountSQL, "p.city ILIKE $")
}

func TestAssemble_UserInputNeverInSQLText(t *testing.T) {
	a := NewQueryAssembler(Postgres, DefaultAssemblerOptions)
	evil := "x'; DROP TABLE properties; --"

	q := a.Assemble(domain.SearchQuery{
		Filter: domain.SearchFilter{ZipCode: evil, City: evil, State: evil, PropertyType: domain.PropertyType(evil)},
		Sort:   domain.Sort{Field: domain.SortField(evil), Direction: domain.SortDirection(evil)},
	})

	assert.NotContains(t, q.DataSQL, "DROP")
	assert.NotContains(t, q.CountSQL, "DROP")
	assert.Contains(t, q.DataSQL, "ORDER BY p.price_to_rent_ratio DESC NULLS LAST")
	assert.Equal(t, domain.DefaultSort, q.Sort)
}

func TestAssemble_SortAllowList(t *testing.T) {
	a := NewQueryAssembler(Postgres, DefaultAssemblerOptions)

	for _, field := range domain.SortFields {
		col := sortColumn(Postgres, field)
		require.NotEmpty(t, col, "sort field %s has no column", field)

		q := a.Assemble(domain.SearchQuery{Sort: domain.Sort{Field: field, Direction: domain.SortAsc}})
		assert.Contains(t, q.DataSQL, "ORDER BY "+col+" ASC NULLS LAST, p.id ASC")
	}
	assert.Len(t, sortColumns, len(domain.SortFields)-1)
}

func TestAssemble_RatioVsMarketIsRounded(t *testing.T) {
	pg := NewQueryAssembler(Postgres, DefaultAssemblerOptions).Assemble(domain.SearchQuery{
		Filter: domain.SearchFilter{AnomaliesOnly: true},
		Sort:   domain.Sort{Field: domain.SortByRatioVsMarket},
	})
	rounded := "ROUND(CAST(" + vsMarketExpr + " AS numeric), 2)"
	assert.Contains(t, pg.CountSQL, rounded+" >= $2")
	assert.Contains(t, pg.DataSQL, "ORDER BY "+rounded+" DESC NULLS LAST")

	lite := NewQueryAssembler(SQLite, DefaultAssemblerOptions).Assemble(domain.SearchQuery{
		Filter: domain.SearchFilter{MarketImprovementMin: ptr(10.0)},
	})
	assert.Contains(t, lite.CountSQL, "ROUND("+vsMarketExpr+", 2) >= ?2")
}

func TestAssemble_ClampsPage(t *testing.T) {
	a := NewQueryAssembler(Postgres, AssemblerOptions{
		MinPeers: 5,
		Page:     domain.PagePolicy{DefaultLimit: 50, MaxLimit: 100},
	})

	q := a.Assemble(domain.SearchQuery{Page: domain.Page{Limit: 5000, Offset: -7}})
	assert.Equal(t, domain.Page{Limit: 100, Offset: 0}, q.Page)

	q = a.Assemble(domain.SearchQuery{Page: domain.Page{Limit: 0}})
	assert.Equal(t, 50, q.Page.Limit)
}

func TestAssemble_SQLiteDialect(t *testing.T) {
	a := NewQueryAssembler(SQLite, DefaultAssemblerOptions)

	q := a.Assemble(domain.SearchQuery{Filter: domain.SearchFilter{City: "austin"}, Page: domain.Page{Limit: 10}})

	assert.Contains(t, q.DataSQL, "p.city LIKE ?2 ESCAPE")
	assert.Contains(t, q.DataSQL, "LIMIT ?3 OFFSET ?4")
	assert.NotContains(t, q.DataSQL, "$")
}

func TestContainsPattern_EscapesWildcards(t *testing.T) {
	assert.Equal(t, `%50\% off\_now\\%`, containsPattern(`50% off_now\`))
	assert.Equal(t, "%plain%", containsPattern("plain"))
}

func TestApplyFilters_EmptyFilterOnlyBasePredicate(t *testing.T) {
	qb := newQueryBuilder(Postgres)
	applyFilters(qb, domain.SearchFilter{ZipCode: "  ", City: " "}, 10)

	assert.Equal(t, "WHERE p.is_active = TRUE", qb.whereClause())
	assert.Empty(t, qb.args)
	assert.False(t, strings.Contains(qb.whereClause(), vsMarketExpr))
	assert.NotContains(t, qb.whereClause(), "ROUND")
}

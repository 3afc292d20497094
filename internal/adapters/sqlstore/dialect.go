package sqlstore

import "fmt"

// Dialect - the few places where Postgres and SQLite SQL differ
type Dialect interface {
	Name() string
	// Placeholder renders the n-th (1-indexed) bind parameter
	Placeholder(n int) string
	// ContainsOperator is the case-insensitive LIKE operator
	ContainsOperator() string
	// Round2 rounds a float expression to 2 decimals, the precision the
	// ranker reports
	Round2(expr string) string
}

type postgresDialect struct{}

func (postgresDialect) Name() string             { return "postgres" }
func (postgresDialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }
func (postgresDialect) ContainsOperator() string { return "ILIKE" }

// ROUND(x, n) exists only for numeric in Postgres
func (postgresDialect) Round2(expr string) string {
	return fmt.Sprintf("ROUND(CAST(%s AS numeric), 2)", expr)
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

// ?NNN keeps numbering explicit, same as $n
func (sqliteDialect) Placeholder(n int) string { return fmt.Sprintf("?%d", n) }

// LIKE is case-insensitive for ASCII in SQLite
func (sqliteDialect) ContainsOperator() string { return "LIKE" }

func (sqliteDialect) Round2(expr string) string { return fmt.Sprintf("ROUND(%s, 2)", expr) }

var (
	Postgres Dialect = postgresDialect{}
	SQLite   Dialect = sqliteDialect{}
)

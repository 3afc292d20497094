package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"analytics-service/internal/contextkeys"
	"analytics-service/internal/core/domain"
	"analytics-service/internal/core/port"

	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
)

var (
	_ port.PropertySearchPort = (*Repository)(nil)
	_ port.MarketStoragePort  = (*Repository)(nil)
	_ port.ListingStoragePort = (*Repository)(nil)
)

// Options for NewRepository
type Options struct {
	Assembler AssemblerOptions
	Breaker   BreakerSettings
	// ComparableCandidates bounds the rows fetched before distance ordering
	ComparableCandidates int
	// QueryTimeout bounds each read; zero disables it
	QueryTimeout time.Duration
}

// Repository implements the storage ports over any Executor.
type Repository struct {
	exec      Executor
	assembler *QueryAssembler
	breaker   *gobreaker.CircuitBreaker[any]
	opts      Options
}

func NewRepository(exec Executor, opts Options) (*Repository, error) {
	if exec == nil {
		return nil, fmt.Errorf("executor cannot be nil")
	}
	if opts.Breaker.Name == "" {
		opts.Breaker = DefaultBreakerSettings
	}
	if opts.ComparableCandidates <= 0 {
		opts.ComparableCandidates = 200
	}
	return &Repository{
		exec:      exec,
		assembler: NewQueryAssembler(exec.Dialect(), opts.Assembler),
		breaker:   newBreaker(opts.Breaker),
		opts:      opts,
	}, nil
}

// Ping checks the store is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.exec.Ping(ctx)
}

// BreakerState reports the gobreaker state name for health output.
func (r *Repository) BreakerState() string {
	return r.breaker.State().String()
}

// FindWithFilters runs the count and the page query concurrently.
func (r *Repository) FindWithFilters(ctx context.Context, query domain.SearchQuery) (*domain.PaginatedProperties, error) {
	repoLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "sqlstore.Repository",
		"method":    "FindWithFilters",
	})

	aq := r.assembler.Assemble(query)

	return read(ctx, r, func(ctx context.Context) (*domain.PaginatedProperties, error) {
		var (
			total int
			rows  []domain.PropertyRow
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := r.exec.QueryRow(gctx, aq.CountSQL, aq.CountArgs...).Scan(&total); err != nil {
				return fmt.Errorf("failed to count properties with filters: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			rs, err := r.exec.Query(gctx, aq.DataSQL, aq.DataArgs...)
			if err != nil {
				return fmt.Errorf("failed to find properties with filters: %w", err)
			}
			rows, err = collectPropertyRows(rs, aq.Page.Limit)
			if err != nil {
				return fmt.Errorf("failed to scan property: %w", err)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			repoLogger.Error("Search query failed", err, port.Fields{"query": aq.DataSQL})
			return nil, err
		}

		repoLogger.Debug("Search page loaded", port.Fields{
			"total": total, "count": len(rows), "limit": aq.Page.Limit, "offset": aq.Page.Offset,
		})
		return &domain.PaginatedProperties{Rows: rows, Total: total, Page: aq.Page}, nil
	})
}

// GetPropertyByID returns an active property with its market context.
func (r *Repository) GetPropertyByID(ctx context.Context, id uuid.UUID) (*domain.PropertyRow, error) {
	sql, args := r.assembler.selectByCondition("p.is_active = TRUE AND p.id = %s", id)

	return read(ctx, r, func(ctx context.Context) (*domain.PropertyRow, error) {
		row, err := scanPropertyRow(r.exec.QueryRow(ctx, sql, args...))
		if errors.Is(err, ErrNoRows) {
			return nil, domain.ErrPropertyNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get property %s: %w", id, err)
		}
		return &row, nil
	})
}

// GetPeerRatios returns the sorted ratios of active properties in the group.
func (r *Repository) GetPeerRatios(ctx context.Context, key domain.PeerGroupKey) ([]float64, error) {
	d := r.exec.Dialect()
	sql := fmt.Sprintf(`SELECT price_to_rent_ratio FROM properties
		WHERE is_active = TRUE AND zip_code = %s AND bedrooms = %s AND price_to_rent_ratio IS NOT NULL
		ORDER BY price_to_rent_ratio`, d.Placeholder(1), d.Placeholder(2))

	return read(ctx, r, func(ctx context.Context) ([]float64, error) {
		return queryColumn[float64](ctx, r.exec, sql, key.ZipCode, key.Bedrooms)
	})
}

// GetRentalCompRents returns the sorted rents of rental comps in the group.
func (r *Repository) GetRentalCompRents(ctx context.Context, key domain.PeerGroupKey) ([]int64, error) {
	d := r.exec.Dialect()
	sql := fmt.Sprintf(`SELECT monthly_rent FROM rental_comps
		WHERE zip_code = %s AND bedrooms = %s AND monthly_rent > 0
		ORDER BY monthly_rent`, d.Placeholder(1), d.Placeholder(2))

	return read(ctx, r, func(ctx context.Context) ([]int64, error) {
		return queryColumn[int64](ctx, r.exec, sql, key.ZipCode, key.Bedrooms)
	})
}

func queryColumn[T any](ctx context.Context, exec Executor, sql string, args ...any) ([]T, error) {
	rows, err := exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		var v T
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

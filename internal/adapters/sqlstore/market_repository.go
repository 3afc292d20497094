package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"analytics-service/internal/contextkeys"
	"analytics-service/internal/core/domain"
	"analytics-service/internal/core/port"
)

// ListPeerSamples returns every active property with a ratio, the input of
// the (zip, bedrooms) aggregate refresh.
func (r *Repository) ListPeerSamples(ctx context.Context) ([]domain.PeerSample, error) {
	const sql = `SELECT zip_code, bedrooms, price_to_rent_ratio, list_price, monthly_rent
		FROM properties
		WHERE is_active = TRUE AND price_to_rent_ratio IS NOT NULL`

	return read(ctx, r, func(ctx context.Context) ([]domain.PeerSample, error) {
		return r.queryPeerSamples(ctx, sql)
	})
}

// ListMarketSamples returns active properties of one market, state required.
func (r *Repository) ListMarketSamples(ctx context.Context, q domain.MarketQuery) ([]domain.PeerSample, error) {
	if strings.TrimSpace(q.State) == "" {
		return nil, &domain.MissingFilterError{Field: "state"}
	}

	qb := newQueryBuilder(r.exec.Dialect())
	qb.conditions = []string{"is_active = TRUE", "list_price > 0"}
	qb.addCondition("%s = %s", "state", strings.ToUpper(strings.TrimSpace(q.State)))
	if city := strings.TrimSpace(q.City); city != "" {
		qb.addCondition("%s = LOWER(%s)", "LOWER(city)", city)
	}
	if zip := strings.TrimSpace(q.ZipCode); zip != "" {
		qb.addCondition("%s = %s", "zip_code", zip)
	}
	if q.Bedrooms != nil {
		qb.addCondition("%s = %s", "bedrooms", *q.Bedrooms)
	}

	sql := fmt.Sprintf(`SELECT zip_code, bedrooms, price_to_rent_ratio, list_price, monthly_rent
		FROM properties %s`, qb.whereClause())

	return read(ctx, r, func(ctx context.Context) ([]domain.PeerSample, error) {
		return r.queryPeerSamples(ctx, sql, qb.args...)
	})
}

func (r *Repository) queryPeerSamples(ctx context.Context, sql string, args ...any) ([]domain.PeerSample, error) {
	rows, err := r.exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list peer samples: %w", err)
	}
	defer rows.Close()

	samples := make([]domain.PeerSample, 0)
	for rows.Next() {
		var s domain.PeerSample
		if err := rows.Scan(&s.Key.ZipCode, &s.Key.Bedrooms, &s.Ratio, &s.ListPrice, &s.MonthlyRent); err != nil {
			return nil, fmt.Errorf("failed to scan peer sample: %w", err)
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// ReplaceMarketAggregates swaps the materialized aggregates in one transaction.
func (r *Repository) ReplaceMarketAggregates(ctx context.Context, aggregates []domain.MarketAggregate) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "sqlstore.Repository",
		"method":    "ReplaceMarketAggregates",
	})

	d := r.exec.Dialect()
	ph := make([]any, 10)
	for i := range ph {
		ph[i] = d.Placeholder(i + 1)
	}
	insert := fmt.Sprintf(`INSERT INTO market_aggregates
		(zip_code, bedrooms, sample_size, mean_ratio, median_ratio, p25_ratio, p75_ratio,
		 median_list_price, median_monthly_rent, refreshed_at)
		VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s)`, ph...)

	err := r.exec.InTx(ctx, func(tx Executor) error {
		if _, err := tx.Exec(ctx, "DELETE FROM market_aggregates"); err != nil {
			return fmt.Errorf("failed to clear market aggregates: %w", err)
		}
		for _, a := range aggregates {
			_, err := tx.Exec(ctx, insert,
				a.Key.ZipCode, a.Key.Bedrooms, a.SampleSize, a.MeanRatio, a.MedianRatio, a.P25Ratio, a.P75Ratio,
				a.MedianListPrice, a.MedianMonthlyRent, a.RefreshedAt.UTC())
			if err != nil {
				return fmt.Errorf("failed to insert market aggregate %s/%d: %w", a.Key.ZipCode, a.Key.Bedrooms, err)
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("Market aggregate replace failed", err, nil)
		return err
	}
	logger.Debug("Market aggregates replaced", port.Fields{"groups": len(aggregates)})
	return nil
}

// GetMarketAggregates loads the aggregates of the given groups; missing groups
// are absent from the map.
func (r *Repository) GetMarketAggregates(ctx context.Context, keys []domain.PeerGroupKey) (map[domain.PeerGroupKey]domain.MarketAggregate, error) {
	out := make(map[domain.PeerGroupKey]domain.MarketAggregate, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	wanted := make(map[domain.PeerGroupKey]struct{}, len(keys))
	zips := make([]string, 0, len(keys))
	seenZip := make(map[string]struct{})
	for _, k := range keys {
		wanted[k] = struct{}{}
		if _, ok := seenZip[k.ZipCode]; !ok {
			seenZip[k.ZipCode] = struct{}{}
			zips = append(zips, k.ZipCode)
		}
	}

	d := r.exec.Dialect()
	placeholders := make([]string, len(zips))
	args := make([]any, len(zips))
	for i, z := range zips {
		placeholders[i] = d.Placeholder(i + 1)
		args[i] = z
	}
	sql := fmt.Sprintf(`SELECT zip_code, bedrooms, sample_size, mean_ratio, median_ratio, p25_ratio, p75_ratio,
			median_list_price, median_monthly_rent, refreshed_at
		FROM market_aggregates WHERE zip_code IN (%s)`, strings.Join(placeholders, ", "))

	return read(ctx, r, func(ctx context.Context) (map[domain.PeerGroupKey]domain.MarketAggregate, error) {
		rows, err := r.exec.Query(ctx, sql, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to load market aggregates: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var a domain.MarketAggregate
			if err := rows.Scan(&a.Key.ZipCode, &a.Key.Bedrooms, &a.SampleSize, &a.MeanRatio, &a.MedianRatio,
				&a.P25Ratio, &a.P75Ratio, &a.MedianListPrice, &a.MedianMonthlyRent, &a.RefreshedAt); err != nil {
				return nil, fmt.Errorf("failed to scan market aggregate: %w", err)
			}
			if _, ok := wanted[a.Key]; ok {
				out[a.Key] = a
			}
		}
		return out, rows.Err()
	})
}

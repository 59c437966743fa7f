package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/gaybro8777/mediacloud/internal/domain"
)

// ClickHouseClient wraps a ClickHouse connection pool used as the
// analytics sink for every query translation run through the system,
// independent of whether the translation succeeded.
type ClickHouseClient struct {
	conn driver.Conn
}

// NewClickHouseClient creates a new ClickHouse client from the given DSN.
// The DSN format follows the clickhouse-go v2 convention, e.g.
// "clickhouse://localhost:9004/mediacloud".
func NewClickHouseClient(ctx context.Context, dsn string) (*ClickHouseClient, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("clickhouse: parse dsn: %w", err)
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("clickhouse: open: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse: ping: %w", err)
	}

	return &ClickHouseClient{conn: conn}, nil
}

// Close releases the underlying connection pool.
func (c *ClickHouseClient) Close() error {
	return c.conn.Close()
}

// Ping verifies connectivity to ClickHouse.
func (c *ClickHouseClient) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

// BatchInsertTranslations inserts a batch of query_translations rows. The
// translate endpoint feeds one row here per request not answered from its
// Redis cache, successes and failures alike, so failed-parse rate is a
// first-class analytics signal rather than something only visible in logs.
func (c *ClickHouseClient) BatchInsertTranslations(ctx context.Context, rows []domain.QueryTranslation) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := c.conn.PrepareBatch(ctx, `
		INSERT INTO query_translations (
			tenant_id, user_id, query_id, raw_query, node_count, tsquery, regex,
			backend, succeeded, error_text, match_count, duration_ms, requested_at
		)
	`)
	if err != nil {
		return fmt.Errorf("clickhouse: prepare batch: %w", err)
	}

	for i := range rows {
		r := &rows[i]
		if err := batch.Append(
			r.TenantID, r.UserID, r.QueryID, r.RawQuery, r.NodeCount, r.TSQuery, r.Regex,
			r.Backend, r.Succeeded, r.ErrorText, r.MatchCount, r.DurationMS, r.RequestedAt,
		); err != nil {
			return fmt.Errorf("clickhouse: append row %d: %w", i, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("clickhouse: send batch: %w", err)
	}
	return nil
}

// GetDashboardData queries ClickHouse for the translation-activity
// dashboard served by the dashboard endpoint: overall volume, failure
// count, the most frequently issued raw queries, and a bucketed time
// series of query volume.
func (c *ClickHouseClient) GetDashboardData(ctx context.Context, tenantID string, topN int) (*domain.DashboardData, error) {
	if topN <= 0 {
		topN = 10
	}

	dash := &domain.DashboardData{}

	row := c.conn.QueryRow(ctx, `
		SELECT
			count() AS total,
			countIf(NOT succeeded) AS failed
		FROM query_translations
		WHERE tenant_id = ?
	`, tenantID)
	if err := row.Scan(&dash.TotalQueries, &dash.FailedQueries); err != nil {
		return nil, fmt.Errorf("clickhouse: total/failed counts: %w", err)
	}

	topRows, err := c.conn.Query(ctx, `
		SELECT raw_query
		FROM query_translations
		WHERE tenant_id = ?
		GROUP BY raw_query
		ORDER BY count() DESC
		LIMIT ?
	`, tenantID, topN)
	if err != nil {
		return nil, fmt.Errorf("clickhouse: top queries: %w", err)
	}
	defer topRows.Close()

	for topRows.Next() {
		var q string
		if err := topRows.Scan(&q); err != nil {
			return nil, fmt.Errorf("clickhouse: scan top query: %w", err)
		}
		dash.TopQueries = append(dash.TopQueries, q)
	}
	if err := topRows.Err(); err != nil {
		return nil, fmt.Errorf("clickhouse: iterate top queries: %w", err)
	}

	series, err := c.GetQueryVolume(ctx, tenantID, 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("clickhouse: volume series: %w", err)
	}
	dash.VolumeSeries = series

	return dash, nil
}

// GetQueryVolume returns hourly-bucketed query volume, failure count, and
// average duration for the given tenant over the trailing window.
func (c *ClickHouseClient) GetQueryVolume(ctx context.Context, tenantID string, window time.Duration) ([]domain.QueryVolumePoint, error) {
	rows, err := c.conn.Query(ctx, `
		SELECT
			toStartOfHour(requested_at) AS bucket,
			count() AS query_count,
			countIf(NOT succeeded) AS failure_count,
			avg(duration_ms) AS avg_duration_ms
		FROM query_translations
		WHERE tenant_id = ? AND requested_at >= ?
		GROUP BY bucket
		ORDER BY bucket ASC
	`, tenantID, time.Now().UTC().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("clickhouse: query volume: %w", err)
	}
	defer rows.Close()

	var points []domain.QueryVolumePoint
	for rows.Next() {
		var p domain.QueryVolumePoint
		if err := rows.Scan(&p.Timestamp, &p.QueryCount, &p.FailureCount, &p.AvgDurationMS); err != nil {
			return nil, fmt.Errorf("clickhouse: scan volume point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// GetRecentTranslations returns the most recent translation runs for a
// tenant, newest first.
func (c *ClickHouseClient) GetRecentTranslations(ctx context.Context, tenantID, userID string, limit int) ([]domain.QueryTranslation, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := c.conn.Query(ctx, `
		SELECT tenant_id, user_id, query_id, raw_query, node_count, tsquery, regex,
		       backend, succeeded, error_text, match_count, duration_ms, requested_at
		FROM query_translations
		WHERE tenant_id = ? AND user_id = ?
		ORDER BY requested_at DESC
		LIMIT ?
	`, tenantID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("clickhouse: recent translations: %w", err)
	}
	defer rows.Close()

	var out []domain.QueryTranslation
	for rows.Next() {
		var t domain.QueryTranslation
		if err := rows.Scan(
			&t.TenantID, &t.UserID, &t.QueryID, &t.RawQuery, &t.NodeCount, &t.TSQuery, &t.Regex,
			&t.Backend, &t.Succeeded, &t.ErrorText, &t.MatchCount, &t.DurationMS, &t.RequestedAt,
		); err != nil {
			return nil, fmt.Errorf("clickhouse: scan translation: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

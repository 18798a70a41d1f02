package history

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/Resham8/token-swap/internal/models"
)

// ClickHouseConfig holds connection settings for the persistent swap store.
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

// ClickHouseRecorder persists swaps into the swaps table for analytics.
type ClickHouseRecorder struct {
	conn driver.Conn
}

func NewClickHouseRecorder(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseRecorder, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}
	return &ClickHouseRecorder{conn: conn}, nil
}

func (c *ClickHouseRecorder) Record(ctx context.Context, rec *models.SwapRecord) error {
	query := `
		INSERT INTO swaps (
			signature, timestamp, pair, token_in, token_out,
			amount_in, amount_out, price_impact, route
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := c.conn.Exec(ctx, query,
		rec.Signature,
		rec.Timestamp,
		rec.Pair,
		rec.TokenIn,
		rec.TokenOut,
		rec.AmountIn,
		rec.AmountOut,
		rec.PriceImpact,
		rec.Route,
	)
	if err != nil {
		return fmt.Errorf("failed to insert swap: %w", err)
	}
	return nil
}

func (c *ClickHouseRecorder) Recent(ctx context.Context, limit int64) ([]*models.SwapRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := c.conn.Query(ctx, `
		SELECT signature, timestamp, pair, token_in, token_out,
		       amount_in, amount_out, price_impact, route
		FROM swaps
		ORDER BY timestamp DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent swaps: %w", err)
	}
	defer rows.Close()

	var out []*models.SwapRecord
	for rows.Next() {
		var rec models.SwapRecord
		if err := rows.Scan(
			&rec.Signature,
			&rec.Timestamp,
			&rec.Pair,
			&rec.TokenIn,
			&rec.TokenOut,
			&rec.AmountIn,
			&rec.AmountOut,
			&rec.PriceImpact,
			&rec.Route,
		); err != nil {
			return nil, fmt.Errorf("failed to scan swap row: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (c *ClickHouseRecorder) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseRecorder) Close() error {
	return c.conn.Close()
}

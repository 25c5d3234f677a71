package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/Insanely-69/CelestialSword2/internal/domain/model"
	"github.com/Insanely-69/CelestialSword2/internal/domain/repository"
)

// ClickHouseRepository implements the EventArchive interface using ClickHouse
// as the backend. It keeps the full donation history for analytics; the JSON
// document store remains the source of truth for the ledger itself.
type ClickHouseRepository struct {
	conn driver.Conn
}

type ClickHouseConfig struct {
	Addr     string
	Username string
	Password string
	Timeout  int
}

func NewClickHouseRepository(cfg ClickHouseConfig) (*ClickHouseRepository, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: "default",
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: time.Duration(cfg.Timeout) * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, err
	}

	// Check the connection
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	// Ensure tables exist
	if err := createTablesIfNotExist(conn); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &ClickHouseRepository{conn: conn}, nil
}

// Ensure ClickHouseRepository implements the EventArchive interface
var _ repository.EventArchive = (*ClickHouseRepository)(nil)

func createTablesIfNotExist(conn driver.Conn) error {
	return conn.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS donation_events (
			guild String,
			identity String,
			name String,
			amount Int64,
			timestamp DateTime,
			processed_at DateTime DEFAULT now()
		) ENGINE = MergeTree()
		ORDER BY (guild, timestamp)
	`)
}

// ArchiveDonation saves one donation row to ClickHouse
func (r *ClickHouseRepository) ArchiveDonation(ctx context.Context, row *model.ArchivedDonation) error {
	query := `
		INSERT INTO donation_events (
			guild, identity, name, amount, timestamp
		) VALUES (
			?, ?, ?, ?, ?
		)
	`

	return r.conn.AsyncInsert(ctx, query, false,
		row.Guild,
		row.Identity,
		row.Name,
		row.Amount,
		row.Timestamp,
	)
}

// DonationsSince retrieves all archived donations after the given timestamp
func (r *ClickHouseRepository) DonationsSince(ctx context.Context, since int64) ([]*model.ArchivedDonation, error) {
	query := `
		SELECT guild, identity, name, amount, timestamp
		FROM donation_events
		WHERE timestamp >= fromUnixTimestamp(?)
		ORDER BY timestamp
	`

	rows, err := r.conn.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*model.ArchivedDonation
	for rows.Next() {
		row := new(model.ArchivedDonation)
		if err := rows.Scan(
			&row.Guild,
			&row.Identity,
			&row.Name,
			&row.Amount,
			&row.Timestamp,
		); err != nil {
			return nil, err
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

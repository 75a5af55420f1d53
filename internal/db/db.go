package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/xtrntr/marketplace/internal/events"
	"github.com/xtrntr/marketplace/internal/models"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	Pool *pgxpool.Pool
}

// NewDB initializes a new database connection pool
func NewDB(ctx context.Context, connString string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Migrate applies the schema. Every statement is idempotent.
func (db *DB) Migrate(ctx context.Context, schema string) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection pool
func (db *DB) Close(ctx context.Context) error {
	db.Pool.Close()
	return nil
}

// CreateUser inserts a new user
func (db *DB) CreateUser(ctx context.Context, username, passwordHash string, address models.Address) (*models.User, error) {
	user := &models.User{}
	err := db.Pool.QueryRow(ctx,
		"INSERT INTO users (username, password_hash, address) VALUES ($1, $2, $3) RETURNING id, username, password_hash, address, created_at",
		username, passwordHash, string(address)).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Address, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := db.Pool.QueryRow(ctx,
		"SELECT id, username, password_hash, address, created_at FROM users WHERE username = $1",
		username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Address, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// RecordEvent appends a committed marketplace event to the journal
func (db *DB) RecordEvent(ctx context.Context, ev events.Event) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO market_events (id, type, collection, asset_id, seller, buyer, bidder, price, expires_at, value, at)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8::numeric, $9, $10, $11)`,
		ev.ID.String(), string(ev.Type), ev.Collection, ev.AssetID,
		string(ev.Seller), string(ev.Buyer), string(ev.Bidder),
		ev.Price.String(), ev.ExpiresAt, ev.Value, ev.At)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// ListEvents returns the journaled events of one asset, oldest first. limit <= 0 returns all of them.
func (db *DB) ListEvents(ctx context.Context, key models.Key, limit int) ([]events.Event, error) {
	query := `SELECT id::text, type, collection, asset_id, seller, buyer, bidder, price::text, expires_at, value, at
		FROM market_events
		WHERE collection = $1 AND asset_id = $2
		ORDER BY seq ASC`
	args := []interface{}{key.Collection, key.AssetID}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var list []events.Event
	for rows.Next() {
		var (
			ev           events.Event
			id, typ, amt string
		)
		if err := rows.Scan(&id, &typ, &ev.Collection, &ev.AssetID, &ev.Seller, &ev.Buyer, &ev.Bidder,
			&amt, &ev.ExpiresAt, &ev.Value, &ev.At); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if ev.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse event id: %w", err)
		}
		if ev.Price, err = decimal.NewFromString(amt); err != nil {
			return nil, fmt.Errorf("failed to parse event price: %w", err)
		}
		ev.Type = events.Type(typ)
		list = append(list, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// Journal records every committed event in Postgres. Failures are logged; the marketplace state is already
// committed by the time an event arrives.
type Journal struct {
	DB     *DB
	Logger zerolog.Logger
}

var _ events.Emitter = Journal{}

func (j Journal) Emit(ctx context.Context, ev events.Event) {
	if err := j.DB.RecordEvent(ctx, ev); err != nil {
		j.Logger.Error().Err(err).Str("event", string(ev.Type)).Str("id", ev.ID.String()).Msg("failed to journal event")
	}
}

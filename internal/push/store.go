package push

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dealradar/dealradar/internal/logger"
)

// Store handles persistence of push subscriptions to PostgreSQL.
type Store struct {
	logger *logger.Logger
	db     *sql.DB
}

// NewStore creates a new subscription store.
func NewStore(logger *logger.Logger, db *sql.DB) *Store {
	return &Store{
		logger: logger,
		db:     db,
	}
}

// Save inserts a subscription. A browser re-subscribing with the same
// endpoint refreshes its keys instead of duplicating the row.
func (s *Store) Save(ctx context.Context, sub Subscription) error {
	log := s.logger.WithComponent("push-store")

	query := `
		INSERT INTO push_subscriptions (id, endpoint, p256dh_key, auth_key, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (endpoint) DO UPDATE SET p256dh_key = EXCLUDED.p256dh_key, auth_key = EXCLUDED.auth_key
	`

	_, err := s.db.ExecContext(ctx, query,
		uuid.New().String(), sub.Endpoint, sub.Keys.P256dh, sub.Keys.Auth, time.Now())
	if err != nil {
		log.Error("failed to save subscription", slog.String("error", err.Error()))
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	return nil
}

// Remove deletes a subscription by endpoint.
func (s *Store) Remove(ctx context.Context, endpoint string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM push_subscriptions WHERE endpoint = $1`, endpoint)
	if err != nil {
		return fmt.Errorf("failed to remove subscription: %w", err)
	}
	return nil
}

// List returns all stored subscriptions.
func (s *Store) List(ctx context.Context) ([]Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, endpoint, p256dh_key, auth_key, created_at FROM push_subscriptions ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var subs []Subscription
	for rows.Next() {
		var sub Subscription
		if err := rows.Scan(&sub.ID, &sub.Endpoint, &sub.Keys.P256dh, &sub.Keys.Auth, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriptions: %w", err)
	}

	return subs, nil
}

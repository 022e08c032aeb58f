package deals

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/dealradar/dealradar/internal/logger"
	"github.com/dealradar/dealradar/pkg/deal"
)

// Store handles persistence of deals to PostgreSQL.
type Store struct {
	logger *logger.Logger
	db     *sql.DB
}

// NewStore creates a new deal store.
func NewStore(logger *logger.Logger, db *sql.DB) *Store {
	return &Store{
		logger: logger,
		db:     db,
	}
}

// Insert stores one deal. A missing ID is assigned here.
func (s *Store) Insert(ctx context.Context, d deal.Deal) (string, error) {
	log := s.logger.WithComponent("deal-store")

	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO deals (id, title, description, discount_percentage, original_price, sale_price,
			business_name, category, lat, lng, address, expiration_date, image_url, url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := s.db.ExecContext(ctx, query,
		d.ID, d.Title, d.Description, d.DiscountPercentage,
		nullFloat(d.OriginalPrice), nullFloat(d.SalePrice),
		d.BusinessName, string(d.Category),
		d.Location.Lat, d.Location.Lng, d.Location.Address,
		nullTime(d.ExpirationDate), nullString(d.ImageURL), nullString(d.URL),
		d.CreatedAt,
	)
	if err != nil {
		log.Error("failed to insert deal",
			slog.String("business", d.BusinessName),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("failed to insert deal: %w", err)
	}

	return d.ID, nil
}

// List returns deals meeting the minimum discount, optionally constrained to a
// category. CategoryAll and the empty string mean no category constraint.
func (s *Store) List(ctx context.Context, minDiscount float64, category deal.Category) ([]deal.Deal, error) {
	log := s.logger.WithComponent("deal-store")

	query := `
		SELECT id, title, description, discount_percentage, original_price, sale_price,
			business_name, category, lat, lng, address, expiration_date, image_url, url, created_at
		FROM deals
		WHERE discount_percentage >= $1
	`
	args := []any{minDiscount}

	if category != "" && category != deal.CategoryAll {
		query += ` AND category = $2`
		args = append(args, string(category))
	}

	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query deals", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to query deals: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var deals []deal.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			log.Error("failed to scan deal row", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan deal: %w", err)
		}
		deals = append(deals, d)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deals: %w", err)
	}

	return deals, nil
}

// DeleteExpired removes deals whose expiration timestamp is in the past.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM deals WHERE expiration_date IS NOT NULL AND expiration_date < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired deals: %w", err)
	}

	return res.RowsAffected()
}

// DeleteByBusinesses removes all deals belonging to the named businesses.
// Used to reseed sample data without duplicating it.
func (s *Store) DeleteByBusinesses(ctx context.Context, names []string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM deals WHERE business_name = ANY($1)`, pq.Array(names))
	if err != nil {
		return fmt.Errorf("failed to delete deals by business: %w", err)
	}
	return nil
}

func scanDeal(rows *sql.Rows) (deal.Deal, error) {
	var (
		d                    deal.Deal
		category             string
		origPrice, salePrice sql.NullFloat64
		expiration           sql.NullTime
		imageURL, dealURL    sql.NullString
	)

	err := rows.Scan(&d.ID, &d.Title, &d.Description, &d.DiscountPercentage,
		&origPrice, &salePrice, &d.BusinessName, &category,
		&d.Location.Lat, &d.Location.Lng, &d.Location.Address,
		&expiration, &imageURL, &dealURL, &d.CreatedAt)
	if err != nil {
		return deal.Deal{}, err
	}

	d.Category = deal.Category(category)
	if origPrice.Valid {
		d.OriginalPrice = &origPrice.Float64
	}
	if salePrice.Valid {
		d.SalePrice = &salePrice.Float64
	}
	if expiration.Valid {
		t := expiration.Time
		d.ExpirationDate = &t
	}
	d.ImageURL = imageURL.String
	d.URL = dealURL.String

	return d, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

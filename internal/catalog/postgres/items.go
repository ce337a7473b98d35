package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/finder/internal/catalog"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL SQLSTATE for duplicate keys.
const uniqueViolation = "23505"

const itemColumns = `id, description, item_date, category, image_url, user_id,
	latitude, longitude, located_at, descriptors, descriptor_length, created_at`

// ItemRepository provides PostgreSQL-backed catalog storage
type ItemRepository struct {
	pool *Pool
}

// NewItemRepository creates a new ItemRepository
func NewItemRepository(pool *Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

// FetchOne retrieves a record by ID
func (r *ItemRepository) FetchOne(ctx context.Context, id string) (*catalog.Record, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
	rec, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", id, err)
	}
	return &rec, nil
}

// FetchAll streams every item in insertion order. Rows are scanned one at a
// time so a consumer that stops early never loads the rest of the table.
func (r *ItemRepository) FetchAll(ctx context.Context) iter.Seq2[catalog.Record, error] {
	return func(yield func(catalog.Record, error) bool) {
		rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM items ORDER BY seq`)
		if err != nil {
			yield(catalog.Record{}, fmt.Errorf("list items: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanItem(rows)
			if err != nil {
				yield(catalog.Record{}, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(catalog.Record{}, fmt.Errorf("iterate items: %w", err))
		}
	}
}

// Count returns the number of stored items
func (r *ItemRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}

// Save inserts a new item and returns its ID
func (r *ItemRepository) Save(ctx context.Context, rec catalog.Record) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	var locatedAt sql.NullTime
	if !rec.Metadata.LocatedAt.IsZero() {
		locatedAt = sql.NullTime{Time: rec.Metadata.LocatedAt, Valid: true}
	}
	descriptors := rec.Descriptors
	if descriptors == nil {
		descriptors = []float64{}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO items (`+itemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rec.ID,
		rec.Metadata.Description,
		rec.Metadata.Date,
		rec.Metadata.Category,
		rec.Metadata.ImageURL,
		rec.Metadata.UserID,
		rec.Metadata.Latitude,
		rec.Metadata.Longitude,
		locatedAt,
		pq.Float64Array(descriptors),
		rec.DescriptorLength,
		rec.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return "", fmt.Errorf("save item %s: %w", rec.ID, catalog.ErrAlreadyExists)
		}
		return "", fmt.Errorf("save item: %w", err)
	}
	return rec.ID, nil
}

// Delete removes an item
func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	if n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func scanItem(scanner interface{ Scan(...any) error }) (catalog.Record, error) {
	var rec catalog.Record
	var descriptors pq.Float64Array
	var locatedAt sql.NullTime

	err := scanner.Scan(
		&rec.ID,
		&rec.Metadata.Description,
		&rec.Metadata.Date,
		&rec.Metadata.Category,
		&rec.Metadata.ImageURL,
		&rec.Metadata.UserID,
		&rec.Metadata.Latitude,
		&rec.Metadata.Longitude,
		&locatedAt,
		&descriptors,
		&rec.DescriptorLength,
		&rec.CreatedAt,
	)
	if err != nil {
		return rec, fmt.Errorf("scan item: %w", err)
	}

	rec.Descriptors = []float64(descriptors)
	if locatedAt.Valid {
		rec.Metadata.LocatedAt = locatedAt.Time
	}
	return rec, nil
}

var _ catalog.Writer = (*ItemRepository)(nil)

package mariadb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/kozaktomas/finder/internal/catalog"
)

// duplicateEntry is the MySQL error number for unique key violations.
const duplicateEntry = 1062

const itemColumns = `id, description, item_date, category, image_url, user_id,
	latitude, longitude, located_at, descriptors, descriptor_length, created_at`

// ItemRepository stores catalog items in MariaDB. Descriptors are kept as a
// JSON number array, the same representation the mobile client wrote.
type ItemRepository struct {
	pool *Pool
}

// NewItemRepository creates a new ItemRepository
func NewItemRepository(pool *Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

func (r *ItemRepository) FetchOne(ctx context.Context, id string) (*catalog.Record, error) {
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	rec, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", id, err)
	}
	return &rec, nil
}

func (r *ItemRepository) FetchAll(ctx context.Context) iter.Seq2[catalog.Record, error] {
	return func(yield func(catalog.Record, error) bool) {
		rows, err := r.pool.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM items ORDER BY seq`)
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

func (r *ItemRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}

func (r *ItemRepository) Save(ctx context.Context, rec catalog.Record) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	descriptors := rec.Descriptors
	if descriptors == nil {
		descriptors = []float64{}
	}
	data, err := json.Marshal(descriptors)
	if err != nil {
		return "", fmt.Errorf("marshal descriptors: %w", err)
	}
	var locatedAt sql.NullTime
	if !rec.Metadata.LocatedAt.IsZero() {
		locatedAt = sql.NullTime{Time: rec.Metadata.LocatedAt.UTC(), Valid: true}
	}

	_, err = r.pool.db.ExecContext(ctx, `
		INSERT INTO items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Metadata.Description,
		rec.Metadata.Date,
		rec.Metadata.Category,
		rec.Metadata.ImageURL,
		rec.Metadata.UserID,
		rec.Metadata.Latitude,
		rec.Metadata.Longitude,
		locatedAt,
		string(data),
		rec.DescriptorLength,
		rec.CreatedAt.UTC(),
	)
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == duplicateEntry {
			return "", fmt.Errorf("save item %s: %w", rec.ID, catalog.ErrAlreadyExists)
		}
		return "", fmt.Errorf("save item: %w", err)
	}
	return rec.ID, nil
}

func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
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

// scanItem decodes one row. A descriptor column that is not a JSON number
// array does not fail the scan, it is reported through rec.DecodeErr.
func scanItem(scanner interface{ Scan(...any) error }) (catalog.Record, error) {
	var rec catalog.Record
	var descriptors string
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

	if err := json.Unmarshal([]byte(descriptors), &rec.Descriptors); err != nil {
		rec.Descriptors = nil
		rec.DecodeErr = fmt.Errorf("decode descriptors of %s: %w", rec.ID, err)
	}
	if locatedAt.Valid {
		rec.Metadata.LocatedAt = locatedAt.Time
	}
	return rec, nil
}

var _ catalog.Writer = (*ItemRepository)(nil)

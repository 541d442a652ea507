package inventory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// PostgresStore implements Store on top of the shared postgres database.
// The order repository performs commit-time decrements against the same
// stock table inside its transaction; this store covers reads and seeding.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetStock(ctx context.Context, bookIDs []int64) (map[int64]int32, error) {
	if len(bookIDs) == 0 {
		return map[int64]int32{}, nil
	}

	query := `SELECT book_id, quantity FROM stock WHERE book_id = ANY($1)`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(bookIDs))
	if err != nil {
		return nil, fmt.Errorf("query stock: %w", err)
	}
	defer rows.Close()

	result := make(map[int64]int32, len(bookIDs))
	for rows.Next() {
		var id int64
		var qty int32
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, fmt.Errorf("scan stock row: %w", err)
		}
		result[id] = qty
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return result, nil
}

func (s *PostgresStore) SetStock(ctx context.Context, bookID int64, quantity int32) error {
	query := `INSERT INTO stock (book_id, quantity, updated_at)
	          VALUES ($1, $2, NOW())
	          ON CONFLICT (book_id) DO UPDATE SET quantity = $2, updated_at = NOW()`

	if _, err := s.db.ExecContext(ctx, query, bookID, quantity); err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

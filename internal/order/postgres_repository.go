package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/TienxDun/DigiBook-sub002/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(cred *Credentials) (*PostgresRepository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "digibook_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

// DB exposes the underlying handle for stores sharing the same database.
func (r *PostgresRepository) DB() *sql.DB {
	return r.db
}

// Commit runs the whole commit as one transaction: insert the order with its
// frozen lines, conditionally decrement stock per line, count the coupon
// usage, and write the outbox row. A decrement matching zero rows means a
// concurrent buyer took the stock first; everything rolls back.
func (r *PostgresRepository) Commit(ctx context.Context, o *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit tx: %w", err)
	}
	defer tx.Rollback()

	linesJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("failed to marshal order lines: %w", err)
	}

	insertOrder := `INSERT INTO orders
	        (id, user_id, customer_name, customer_phone, shipping_address, payment_method,
	         coupon_code, subtotal, shipping_fee, discount, grand_total, status, lines,
	         created_at, updated_at)
	        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())`

	_, err = tx.ExecContext(ctx, insertOrder,
		o.ID,
		o.UserID,
		o.Customer.Name,
		o.Customer.Phone,
		o.Customer.Address,
		o.PaymentMethod,
		o.CouponCode,
		o.Subtotal,
		o.ShippingFee,
		o.Discount,
		o.GrandTotal,
		o.Status,
		linesJSON)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	decrement := `UPDATE stock SET quantity = quantity - $1, updated_at = NOW()
	              WHERE book_id = $2 AND quantity >= $1`

	for _, line := range o.Lines {
		res, err := tx.ExecContext(ctx, decrement, line.Quantity, line.BookID)
		if err != nil {
			return fmt.Errorf("decrement stock for book %d: %w", line.BookID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("decrement stock for book %d: %w", line.BookID, err)
		}
		if affected == 0 {
			return &StockConflictError{BookID: line.BookID, Title: line.Title}
		}
	}

	if o.CouponCode != "" {
		increment := `UPDATE coupons SET used_count = used_count + 1
		              WHERE code = $1 AND (usage_limit = 0 OR used_count < usage_limit)`
		res, err := tx.ExecContext(ctx, increment, o.CouponCode)
		if err != nil {
			return fmt.Errorf("increment coupon usage: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("increment coupon usage: %w", err)
		}
		if affected == 0 {
			return ErrCouponExhausted
		}
	}

	payload, err := json.Marshal(map[string]interface{}{
		"order_id":     o.ID,
		"user_id":      o.UserID,
		"lines":        o.Lines,
		"grand_total":  o.GrandTotal,
		"completed_at": o.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	insertOutbox := `INSERT INTO order_outbox (aggregate_id, event_type, payload, created_at)
	                 VALUES ($1, $2, $3, NOW())`
	if _, err := tx.ExecContext(ctx, insertOutbox, o.ID.String(), "order-created", payload); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT id, user_id, customer_name, customer_phone, shipping_address, payment_method,
	                 coupon_code, subtotal, shipping_fee, discount, grand_total, status, lines,
	                 created_at, updated_at
	          FROM orders WHERE id = $1`

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	return o, nil
}

func (r *PostgresRepository) ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	query := `SELECT id, user_id, customer_name, customer_phone, shipping_address, payment_method,
	                 coupon_code, subtotal, shipping_fee, discount, grand_total, status, lines,
	                 created_at, updated_at
	          FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	var linesJSON []byte
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.Customer.Name,
		&o.Customer.Phone,
		&o.Customer.Address,
		&o.PaymentMethod,
		&o.CouponCode,
		&o.Subtotal,
		&o.ShippingFee,
		&o.Discount,
		&o.GrandTotal,
		&o.Status,
		&linesJSON,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(linesJSON, &o.Lines); err != nil {
		return nil, fmt.Errorf("unmarshal order lines: %w", err)
	}
	return &o, nil
}

// GetUnprocessedEvents returns outbox rows not yet published, oldest first.
func (r *PostgresRepository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `SELECT id, aggregate_id, event_type, payload, created_at
	          FROM order_outbox WHERE processed_at IS NULL
	          ORDER BY created_at ASC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		e := &OutboxEvent{}
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

func (r *PostgresRepository) MarkEventProcessed(ctx context.Context, id int64) error {
	query := `UPDATE order_outbox SET processed_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("mark outbox event processed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

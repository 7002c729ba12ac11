package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
	_ "github.com/lib/pq"
)

var ErrDuplicateEntry = errors.New("ledger entry for this invoice already exists")

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// EntryRepository defines the interface for ledger persistence.
type EntryRepository interface {
	InsertEntries(ctx context.Context, entries []Entry) error
	ListEntriesByInvoice(ctx context.Context, invoiceNo string) ([]Entry, error)
	Close() error
}

type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
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
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "ledger_schema_migrations",
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

// InsertEntries writes all entries of one sale in a single transaction.
// The unique (invoice_no, entry_type) constraint turns Kafka redeliveries
// into ErrDuplicateEntry.
func (r *Repository) InsertEntries(ctx context.Context, entries []Entry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO ledger_entries (id, invoice_no, entry_type, amount, currency, staff, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, entry := range entries {
		_, insertErr := tx.ExecContext(ctx, query,
			entry.ID,
			entry.InvoiceNo,
			entry.EntryType,
			entry.Amount,
			entry.Currency,
			entry.Staff,
			entry.CreatedAt)

		if insertErr != nil {
			var pqErr *pq.Error
			if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
				return ErrDuplicateEntry
			}
			return fmt.Errorf("insert ledger entry: %w", insertErr)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}
	return nil
}

func (r *Repository) ListEntriesByInvoice(ctx context.Context, invoiceNo string) ([]Entry, error) {
	query := `SELECT id, invoice_no, entry_type, amount, currency, staff, created_at
	          FROM ledger_entries WHERE invoice_no = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, invoiceNo)
	if err != nil {
		return nil, fmt.Errorf("query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(
			&entry.ID,
			&entry.InvoiceNo,
			&entry.EntryType,
			&entry.Amount,
			&entry.Currency,
			&entry.Staff,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

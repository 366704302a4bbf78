package ledger

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/anbtech/storebot/internal/clock"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLite is a Ledger backed by a SQLite database. With the ":memory:" DSN
// the data lives only as long as the process.
type SQLite struct {
	db    *sql.DB
	clock clock.Clock
}

// OpenSQLite opens (or creates) the database at path and runs pending
// migrations. Pass ":memory:" for an in-memory database.
func OpenSQLite(path string, clk clock.Clock) (*SQLite, error) {
	if clk == nil {
		clk = clock.System{}
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// One connection: every query sees the same in-memory database and
	// writes are serialized.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting journal mode: %w", err)
		}
	}

	s := &SQLite{db: db, clock: clk}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		var version int
		if _, err := fmt.Sscanf(entry.Name(), "%d_", &version); err != nil {
			return fmt.Errorf("parsing migration version from %q: %w", entry.Name(), err)
		}

		var applied int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&applied); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if applied > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}
	return nil
}

// AppliedMigrations returns the applied migration versions in ascending order.
func (s *SQLite) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (s *SQLite) AddPending(ctx context.Context, userID, item string, amount int) (SaleRecord, error) {
	if err := validate(userID, item, amount); err != nil {
		return SaleRecord{}, err
	}
	rec := s.newRecord(userID, item, amount, StatusPending)
	if err := insertRecord(ctx, s.db, rec); err != nil {
		return SaleRecord{}, fmt.Errorf("inserting pending sale: %w", err)
	}
	return rec, nil
}

func (s *SQLite) AddPromised(ctx context.Context, userID, item string, amount int, day time.Weekday) (SaleRecord, error) {
	if err := validate(userID, item, amount); err != nil {
		return SaleRecord{}, err
	}
	if day < time.Sunday || day > time.Saturday {
		return SaleRecord{}, ErrInvalidDay
	}
	rec := s.newRecord(userID, item, amount, StatusPromised)
	rec.Day = day.String()
	if err := insertRecord(ctx, s.db, rec); err != nil {
		return SaleRecord{}, fmt.Errorf("inserting promised sale: %w", err)
	}
	return rec, nil
}

func (s *SQLite) CompletePayment(ctx context.Context, userID, details string) (SaleRecord, bool, error) {
	if err := validate(userID, details, 0); err != nil {
		return SaleRecord{}, false, err
	}
	today := s.clock.Now().Format(DateLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SaleRecord{}, false, fmt.Errorf("beginning payment transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM sales
		WHERE status = 'pending' AND user_id = ?
		ORDER BY seq ASC LIMIT 1`, userID)
	rec, err := scanRecord(row)

	switch {
	case err == sql.ErrNoRows:
		rec = s.newRecord(userID, details, DefaultAmount, StatusCompleted)
		rec.CompletedDate = today
		if err := insertRecord(ctx, tx, rec); err != nil {
			return SaleRecord{}, false, fmt.Errorf("inserting completed sale: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return SaleRecord{}, false, fmt.Errorf("committing payment: %w", err)
		}
		return rec, false, nil
	case err != nil:
		return SaleRecord{}, false, fmt.Errorf("selecting pending sale: %w", err)
	}

	// Re-insert so the record takes its place at the end of the completed list.
	if _, err := tx.ExecContext(ctx, `DELETE FROM sales WHERE id = ?`, rec.ID); err != nil {
		return SaleRecord{}, false, fmt.Errorf("removing pending sale: %w", err)
	}
	rec.Status = StatusCompleted
	rec.CompletedDate = today
	if err := insertRecord(ctx, tx, rec); err != nil {
		return SaleRecord{}, false, fmt.Errorf("inserting completed sale: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return SaleRecord{}, false, fmt.Errorf("committing payment: %w", err)
	}
	return rec, true, nil
}

func (s *SQLite) Snapshot(ctx context.Context) (Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM sales ORDER BY seq ASC`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("listing sales: %w", err)
	}
	defer rows.Close()

	var snap Snapshot
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return Snapshot{}, err
		}
		switch rec.Status {
		case StatusCompleted:
			snap.Completed = append(snap.Completed, rec)
		case StatusPending:
			snap.Pending = append(snap.Pending, rec)
		case StatusPromised:
			snap.Promised = append(snap.Promised, rec)
		}
	}
	return snap, rows.Err()
}

func (s *SQLite) newRecord(userID, item string, amount int, status Status) SaleRecord {
	return SaleRecord{
		ID:        uuid.New().String(),
		UserID:    userID,
		Item:      item,
		Amount:    amount,
		Status:    status,
		CreatedAt: s.clock.Now().UTC(),
	}
}

const recordColumns = `id, user_id, item, amount, status, day, completed_date, created_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...any) error
}

func insertRecord(ctx context.Context, db execer, rec SaleRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO sales (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Item, rec.Amount, string(rec.Status),
		rec.Day, rec.CompletedDate, rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

func scanRecord(row scanner) (SaleRecord, error) {
	var rec SaleRecord
	var status, createdAt string
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Item, &rec.Amount, &status,
		&rec.Day, &rec.CompletedDate, &createdAt); err != nil {
		return SaleRecord{}, err
	}
	rec.Status = Status(status)
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return SaleRecord{}, fmt.Errorf("parsing created_at for sale %s: %w", rec.ID, err)
	}
	rec.CreatedAt = t
	return rec, nil
}

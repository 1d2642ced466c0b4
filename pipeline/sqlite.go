package pipeline

import (
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/aluiziolira/go-scrape-prices/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS batch_records (
	seq INTEGER PRIMARY KEY,
	batch_id INTEGER NOT NULL,
	category TEXT NOT NULL,
	product_name TEXT NOT NULL,
	product_image TEXT NOT NULL,
	store_name TEXT NOT NULL,
	product_link TEXT NOT NULL,
	price TEXT NOT NULL,
	unit_price TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_batch_records_batch ON batch_records(batch_id);
`

const sqliteInsert = `INSERT INTO batch_records
	(seq, batch_id, category, product_name, product_image, store_name, product_link, price, unit_price)
	VALUES (:seq, :batch_id, :category, :product_name, :product_image, :store_name, :product_link, :price, :unit_price)`

// SQLite caps bound variables per statement; nine columns per row.
const sqliteChunkRows = 100

type sqliteRow struct {
	Seq int `db:"seq"`
	models.BatchRecord
}

// SQLiteWriter mirrors the dataset into a batch_records table, replacing all
// rows in one transaction per WriteAll.
type SQLiteWriter struct {
	db *sqlx.DB
	mu sync.Mutex
}

// NewSQLiteWriter opens or creates the database at filename.
func NewSQLiteWriter(filename string) (*SQLiteWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}
	db, err := sqlx.Open("sqlite", filename)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", filename, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteWriter{db: db}, nil
}

// WriteAll replaces the table contents with records.
func (sw *SQLiteWriter) WriteAll(records []models.BatchRecord) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	tx, err := sw.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM batch_records"); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear batch_records: %w", err)
	}

	for start := 0; start < len(records); start += sqliteChunkRows {
		end := start + sqliteChunkRows
		if end > len(records) {
			end = len(records)
		}
		rows := make([]sqliteRow, 0, end-start)
		for i := start; i < end; i++ {
			rows = append(rows, sqliteRow{Seq: i + 1, BatchRecord: records[i]})
		}
		if _, err := tx.NamedExec(sqliteInsert, rows); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert batch_records: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch_records: %w", err)
	}
	return nil
}

// records reads the stored dataset back in insertion order.
func (sw *SQLiteWriter) records() ([]models.BatchRecord, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	var rows []sqliteRow
	if err := sw.db.Select(&rows, "SELECT * FROM batch_records ORDER BY seq"); err != nil {
		return nil, fmt.Errorf("select batch_records: %w", err)
	}
	out := make([]models.BatchRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.BatchRecord)
	}
	return out, nil
}

// Close closes the database handle.
func (sw *SQLiteWriter) Close() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.db.Close()
}

// Validate checks the database is reachable.
func (sw *SQLiteWriter) Validate() error {
	if err := sw.db.Ping(); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	return nil
}

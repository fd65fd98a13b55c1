package cache

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite" // Driver sqlite
)

// SQLiteStore is the durable Store used in production: one row per server
// address in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite initializes the SQLite connection, sets connection pool
// parameters, and runs migrations.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetBytes implements Store.
func (s *SQLiteStore) GetBytes(key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM records WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return value, nil
}

// PutBytes implements Store.
func (s *SQLiteStore) PutBytes(key string, value []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO records (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now())

	return err
}

// Entry describes one cached address for maintenance listings.
type Entry struct {
	Key       string    `json:"key"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Entries lists all cached addresses, most recently updated first.
func (s *SQLiteStore) Entries() ([]Entry, error) {
	rows, err := s.db.Query(`SELECT key, updated_at FROM records ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.UpdatedAt); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// DeleteOlderThan removes records last updated before the cutoff and
// returns how many were deleted.
func (s *SQLiteStore) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM records WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

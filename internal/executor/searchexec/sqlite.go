package searchexec

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // sqlite driver for local-first scope snapshots
)

// SQLiteStore backs email and dataset scopes with a local sqlite database,
// the natural snapshot format for a local-first deployment. The store is
// read-only from the executor's point of view.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the scope database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("searchexec: open sqlite: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB exposes the handle for hosts that seed scope snapshots.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// EmailSource returns an EmailSource reading from table. The table needs
// columns (id TEXT, sender TEXT, recipient TEXT, subject TEXT, body TEXT,
// received_at INTEGER NULL); rowid order is the deterministic source order.
func (s *SQLiteStore) EmailSource(table string) EmailSource {
	return &sqliteEmailSource{db: s.db, table: table}
}

// DatasetSource returns a DatasetSource reading from table. The table needs
// an INTEGER primary key column named id; every other TEXT column is a
// searchable field.
func (s *SQLiteStore) DatasetSource(table string) DatasetSource {
	return &sqliteDatasetSource{db: s.db, table: table}
}

type sqliteEmailSource struct {
	db    *sql.DB
	table string
}

func (s *sqliteEmailSource) Emails() ([]EmailRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, sender, recipient, subject, body, received_at FROM ` + s.table + ` ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("searchexec: query emails: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []EmailRecord
	for rows.Next() {
		var r EmailRecord
		var receivedAt sql.NullInt64
		if err := rows.Scan(&r.ID, &r.From, &r.To, &r.Subject, &r.Body, &receivedAt); err != nil {
			return nil, fmt.Errorf("searchexec: scan email: %w", err)
		}
		if receivedAt.Valid {
			v := receivedAt.Int64
			r.ReceivedAt = &v
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("searchexec: iterate emails: %w", err)
	}
	return out, nil
}

type sqliteDatasetSource struct {
	db    *sql.DB
	table string
}

func (s *sqliteDatasetSource) Records() ([]DatasetRecord, error) {
	rows, err := s.db.Query(`SELECT * FROM ` + s.table + ` ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("searchexec: query dataset: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("searchexec: dataset columns: %w", err)
	}

	var out []DatasetRecord
	for rows.Next() {
		values := make([]any, len(cols))
		for i := range values {
			values[i] = new(sql.NullString)
		}
		var key sql.NullInt64
		for i, c := range cols {
			if c == "id" {
				values[i] = &key
			}
		}
		if err := rows.Scan(values...); err != nil {
			return nil, fmt.Errorf("searchexec: scan dataset row: %w", err)
		}
		if !key.Valid {
			continue // rows without a primary key are not searchable
		}
		rec := DatasetRecord{Key: key.Int64, Fields: make(map[string]string, len(cols)-1)}
		for i, c := range cols {
			if c == "id" {
				continue
			}
			if ns, ok := values[i].(*sql.NullString); ok && ns.Valid {
				rec.Fields[c] = ns.String
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("searchexec: iterate dataset: %w", err)
	}
	return out, nil
}

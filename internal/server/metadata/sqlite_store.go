package metadata

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/openmined/filedrop/internal/db"
)

const DBFileName = ".metadata.db"

const schema = `
CREATE TABLE IF NOT EXISTS file_metadata (
    name TEXT PRIMARY KEY,
    upload_time TEXT NOT NULL, -- RFC3339, empty when unknown
    size_bytes INTEGER NOT NULL -- -1 when unknown
);
`

type dbEntry struct {
	Name       string `db:"name"`
	UploadTime string `db:"upload_time"`
	SizeBytes  int64  `db:"size_bytes"`
}

func (d dbEntry) entry() Entry {
	return Entry{UploadTime: ParseTime(d.UploadTime), SizeBytes: d.SizeBytes}
}

// SQLiteStore keeps metadata in an embedded database for deployments that
// want transactional writes instead of whole-document rewrites.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(dir string) (*SQLiteStore, error) {
	conn, err := db.NewSqliteDB(db.WithPath(filepath.Join(dir, DBFileName)), db.WithMaxOpenConns(1))
	if err != nil {
		return nil, fmt.Errorf("metadata db: %w", err)
	}
	return newSQLiteStore(conn)
}

func newSQLiteStore(conn *sqlx.DB) (*SQLiteStore, error) {
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("metadata schema: %w", err)
	}
	return &SQLiteStore{db: conn}, nil
}

func (s *SQLiteStore) All() (map[string]Entry, error) {
	var rows []dbEntry
	if err := s.db.Select(&rows, "SELECT name, upload_time, size_bytes FROM file_metadata"); err != nil {
		return nil, fmt.Errorf("metadata query: %w", err)
	}

	entries := make(map[string]Entry, len(rows))
	for _, row := range rows {
		entries[row.Name] = row.entry()
	}
	return entries, nil
}

func (s *SQLiteStore) Get(name string) (Entry, bool, error) {
	var row dbEntry
	err := s.db.Get(&row, "SELECT name, upload_time, size_bytes FROM file_metadata WHERE name = ?", name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("metadata query %s: %w", name, err)
	}
	return row.entry(), true, nil
}

func (s *SQLiteStore) Put(name string, entry Entry) error {
	row := dbEntry{Name: name, SizeBytes: entry.SizeBytes}
	if entry.HasTime() {
		row.UploadTime = entry.UploadTime.Format(time.RFC3339Nano)
	}

	query := `INSERT OR REPLACE INTO file_metadata (name, upload_time, size_bytes)
	          VALUES (:name, :upload_time, :size_bytes)`
	if _, err := s.db.NamedExec(query, row); err != nil {
		return fmt.Errorf("metadata set %s: %w", name, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(name string) error {
	if _, err := s.db.Exec("DELETE FROM file_metadata WHERE name = ?", name); err != nil {
		return fmt.Errorf("metadata delete %s: %w", name, err)
	}
	return nil
}

func (s *SQLiteStore) Wipe() error {
	if _, err := s.db.Exec("DELETE FROM file_metadata"); err != nil {
		return fmt.Errorf("metadata wipe: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

package cache

import (
	"fmt"
	"path/filepath"

	"zombiezen.com/go/sqlite"
)

// sqliteStore backs the modern (rs3) variant: one file per index,
// `<cacheDir>/js5-<indexID>.jcache`, holding a single table
// `cache(KEY INTEGER PRIMARY KEY, DATA BLOB)`. Grounded directly on
// convert.go's ConvertMbtiles use of zombiezen.com/go/sqlite and its
// PrepareTransient/Step/column-access idiom.
type sqliteStore struct {
	conn *sqlite.Conn
}

func openSQLiteStore(cacheDir string, indexID uint32) (*sqliteStore, error) {
	path := filepath.Join(cacheDir, fmt.Sprintf("js5-%d.jcache", indexID))
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadOnly)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return &sqliteStore{conn: conn}, nil
}

func (s *sqliteStore) Catalog() ([]byte, error) {
	return s.lookup(catalogKey)
}

func (s *sqliteStore) Archive(id uint32) ([]byte, error) {
	return s.lookup(int64(id))
}

func (s *sqliteStore) lookup(key int64) ([]byte, error) {
	stmt, _, err := s.conn.PrepareTransient("SELECT DATA FROM cache WHERE KEY = ?")
	if err != nil {
		return nil, fmt.Errorf("preparing cache lookup: %w", err)
	}
	defer stmt.Finalize()

	stmt.BindInt64(1, key)

	row, err := stmt.Step()
	if err != nil {
		return nil, fmt.Errorf("stepping cache lookup: %w", err)
	}
	if !row {
		return nil, fmt.Errorf("no row for KEY=%d", key)
	}

	n := stmt.ColumnLen(0)
	buf := make([]byte, n)
	stmt.ColumnBytes(0, buf)
	return buf, nil
}

func (s *sqliteStore) Close() error {
	return s.conn.Close()
}

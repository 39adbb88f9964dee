// Package evalcache implements the evaluator's persistent, on-disk
// evaluation cache: a single SQLite table of forced attribute values,
// keyed by a parent fingerprint and attribute name, so that a later
// session re-evaluating the same expression under the same configuration
// can skip re-forcing attributes it already recorded.
//
// Grounded on modernc.org/sqlite (the pure-Go, CGo-free driver the pack's
// funvibe-funxy module already depends on for its own persistent state)
// opened through database/sql exactly the way
// josephgoksu-TaskWing's internal/agents/tools symbol-context reader does
// (sql.Open("sqlite", path) behind a blank driver import), and on
// funvibe-funxy's internal/ext.Cache for the "one struct wrapping a
// directory/handle, a deterministic key, a lookup and a store method"
// shape.
package evalcache

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// Cache is the evaluator's single open handle onto the on-disk cache
// database, guarded by a mutex because internal/eval never forces two
// thunks concurrently against the same Evaluator but a cache can
// legitimately be shared across more than one (see SPEC_FULL.md §5's
// "single-threaded-evaluator / shared-cache split").
type Cache struct {
	mu sync.Mutex
	db *sql.DB
	tx *sql.Tx // open for the lifetime of the session; committed on Close
}

// Open creates (if necessary) and opens the cache database at path,
// applies the schema, and begins the single transaction every write this
// session makes will go through — committed only when Close succeeds.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("evalcache: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("evalcache: ping %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("evalcache: apply schema: %w", err)
	}
	tx, err := db.Begin()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("evalcache: begin session transaction: %w", err)
	}
	return &Cache{db: db, tx: tx}, nil
}

// Close commits the session's transaction and closes the database handle.
// A Cache must not be used after Close.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.tx.Commit(); err != nil {
		_ = c.db.Close()
		return fmt.Errorf("evalcache: commit: %w", err)
	}
	return c.db.Close()
}

// row is one Attributes record, independent of any value.Value so this
// package never needs to import internal/value.
type row struct {
	typ     attrType
	value   string
	context string
}

// get returns the row stored for (parent, name), or ok=false if no row
// exists yet (a true cache miss, as opposed to a previously-recorded
// absence, which is stored as typeUnset).
func (c *Cache) get(parent, name string) (row, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var r row
	err := c.tx.QueryRow(
		`SELECT type, value, context FROM Attributes WHERE parent = ? AND name = ?`,
		parent, name,
	).Scan(&r.typ, &r.value, &r.context)
	if err == sql.ErrNoRows {
		return row{}, false, nil
	}
	if err != nil {
		return row{}, false, fmt.Errorf("evalcache: get %s.%s: %w", parent, name, err)
	}
	return r, true, nil
}

// put records (or overwrites) the row for (parent, name).
func (c *Cache) put(parent, name string, r row) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.tx.Exec(
		`INSERT INTO Attributes (parent, name, type, value, context) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (parent, name) DO UPDATE SET type = excluded.type, value = excluded.value, context = excluded.context`,
		parent, name, r.typ, r.value, r.context,
	)
	if err != nil {
		return fmt.Errorf("evalcache: put %s.%s: %w", parent, name, err)
	}
	return nil
}

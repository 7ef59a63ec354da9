package lifecycle

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/corectl/corectl/internal/identity"
)

// ActivityRecord is the persisted pause/drain state for one (domain,key),
// surviving process restarts per spec.md §3/§6.
type ActivityRecord struct {
	Domain    identity.Domain
	Key       string
	Paused    bool
	Draining  bool
	Note      string
	UpdatedAt time.Time
}

// ActivityStore is the durable key-value store keyed by (domain,key). The
// sqlite-backed implementation below is grounded on the pure-Go
// modernc.org/sqlite driver used for durable local state in the example
// pack (ipiton-alert-history-service, theRebelliousNerd-codenerd).
type ActivityStore interface {
	Get(domain identity.Domain, key string) (ActivityRecord, bool, error)
	Set(rec ActivityRecord) error
	Clear(domain identity.Domain, key string) error
	ListAll() ([]ActivityRecord, error)
	Close() error
}

const activitySchemaVersion = 1

// SQLiteActivityStore persists activity records in a local SQLite file via
// the CGo-free modernc.org/sqlite driver, so the control plane never needs
// a C toolchain to build.
type SQLiteActivityStore struct {
	db *sql.DB
}

// NewSQLiteActivityStore opens (creating if needed) the activity database
// at path and ensures its schema. Schema evolution is handled by the
// schema_version column on every row; readers ignore unknown columns by
// only ever SELECTing the columns they know about.
func NewSQLiteActivityStore(path string) (*SQLiteActivityStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open activity store: %w", err)
	}
	if err := ensureActivitySchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteActivityStore{db: db}, nil
}

func ensureActivitySchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS activity_records (
			domain TEXT NOT NULL,
			key TEXT NOT NULL,
			paused INTEGER NOT NULL DEFAULT 0,
			draining INTEGER NOT NULL DEFAULT 0,
			note TEXT NOT NULL DEFAULT '',
			updated_at INTEGER NOT NULL,
			schema_version INTEGER NOT NULL DEFAULT 1,
			PRIMARY KEY (domain, key)
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure activity schema: %w", err)
	}
	return nil
}

// Get returns the activity record for (domain,key), if one exists.
func (s *SQLiteActivityStore) Get(domain identity.Domain, key string) (ActivityRecord, bool, error) {
	row := s.db.QueryRow(`
		SELECT domain, key, paused, draining, note, updated_at
		FROM activity_records WHERE domain = ? AND key = ?
	`, string(domain), key)

	var rec ActivityRecord
	var d, k string
	var pausedInt, drainingInt int
	var updatedUnix int64
	err := row.Scan(&d, &k, &pausedInt, &drainingInt, &rec.Note, &updatedUnix)
	if err == sql.ErrNoRows {
		return ActivityRecord{}, false, nil
	}
	if err != nil {
		return ActivityRecord{}, false, fmt.Errorf("get activity record: %w", err)
	}
	rec.Domain = identity.Domain(d)
	rec.Key = k
	rec.Paused = pausedInt != 0
	rec.Draining = drainingInt != 0
	rec.UpdatedAt = time.Unix(updatedUnix, 0).UTC()
	return rec, true, nil
}

// Set writes (replacing) the activity record for rec.Domain/rec.Key.
func (s *SQLiteActivityStore) Set(rec ActivityRecord) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO activity_records (domain, key, paused, draining, note, updated_at, schema_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(domain, key) DO UPDATE SET
			paused = excluded.paused,
			draining = excluded.draining,
			note = excluded.note,
			updated_at = excluded.updated_at
	`, string(rec.Domain), rec.Key, boolToInt(rec.Paused), boolToInt(rec.Draining), rec.Note, rec.UpdatedAt.Unix(), activitySchemaVersion)
	if err != nil {
		return fmt.Errorf("set activity record: %w", err)
	}
	return nil
}

// Clear removes the activity record for (domain,key), returning it to the
// implicit default (not paused, not draining).
func (s *SQLiteActivityStore) Clear(domain identity.Domain, key string) error {
	_, err := s.db.Exec(`DELETE FROM activity_records WHERE domain = ? AND key = ?`, string(domain), key)
	if err != nil {
		return fmt.Errorf("clear activity record: %w", err)
	}
	return nil
}

// ListAll returns every persisted activity record.
func (s *SQLiteActivityStore) ListAll() ([]ActivityRecord, error) {
	rows, err := s.db.Query(`SELECT domain, key, paused, draining, note, updated_at FROM activity_records`)
	if err != nil {
		return nil, fmt.Errorf("list activity records: %w", err)
	}
	defer rows.Close()

	var out []ActivityRecord
	for rows.Next() {
		var rec ActivityRecord
		var d, k string
		var pausedInt, drainingInt int
		var updatedUnix int64
		if err := rows.Scan(&d, &k, &pausedInt, &drainingInt, &rec.Note, &updatedUnix); err != nil {
			return nil, fmt.Errorf("scan activity record: %w", err)
		}
		rec.Domain = identity.Domain(d)
		rec.Key = k
		rec.Paused = pausedInt != 0
		rec.Draining = drainingInt != 0
		rec.UpdatedAt = time.Unix(updatedUnix, 0).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (s *SQLiteActivityStore) Close() error { return s.db.Close() }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// InMemoryActivityStore is a map-backed ActivityStore for tests and for
// configurations that opt out of durable persistence.
type InMemoryActivityStore struct {
	records map[string]ActivityRecord
}

// NewInMemoryActivityStore constructs an empty in-memory store.
func NewInMemoryActivityStore() *InMemoryActivityStore {
	return &InMemoryActivityStore{records: make(map[string]ActivityRecord)}
}

func activityMapKey(domain identity.Domain, key string) string {
	return string(domain) + "/" + key
}

func (s *InMemoryActivityStore) Get(domain identity.Domain, key string) (ActivityRecord, bool, error) {
	rec, ok := s.records[activityMapKey(domain, key)]
	return rec, ok, nil
}

func (s *InMemoryActivityStore) Set(rec ActivityRecord) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	s.records[activityMapKey(rec.Domain, rec.Key)] = rec
	return nil
}

func (s *InMemoryActivityStore) Clear(domain identity.Domain, key string) error {
	delete(s.records, activityMapKey(domain, key))
	return nil
}

func (s *InMemoryActivityStore) ListAll() ([]ActivityRecord, error) {
	out := make([]ActivityRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out, nil
}

func (s *InMemoryActivityStore) Close() error { return nil }

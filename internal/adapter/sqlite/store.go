// Package sqlite provides the SQLite-backed relational store for normalized
// near-Earth-object data.
//
// The store owns a three-table schema: asteroids (one row per identifier,
// upserted wholesale), asteroid_diameters and close_approaches (child rows,
// exclusively owned by their parent). The database is opened with WAL mode,
// synchronous=NORMAL, a 5s busy timeout, and foreign keys enforced; the
// schema is applied idempotently at open.
//
// Read order is documented and test-stable: ListAsteroidIDs and
// ListAllNormalized return asteroids in ascending identifier order, and
// child rows within an asteroid in insertion order via their autoincrement
// primary key.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/astronuts/neo-data-etl/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS asteroids (
	id TEXT PRIMARY KEY,
	neo_reference_id TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL DEFAULT '',
	nasa_jpl_url TEXT NOT NULL DEFAULT '',
	absolute_magnitude_h REAL NOT NULL DEFAULT 0,
	is_potentially_hazardous INTEGER NOT NULL DEFAULT 0,
	is_sentry_object INTEGER NOT NULL DEFAULT 0,
	ingested_at TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS asteroid_diameters (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	asteroid_id TEXT NOT NULL REFERENCES asteroids(id) ON DELETE CASCADE,
	unit TEXT NOT NULL,
	diameter_min REAL NOT NULL,
	diameter_max REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_diameters_asteroid ON asteroid_diameters(asteroid_id);

CREATE TABLE IF NOT EXISTS close_approaches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	asteroid_id TEXT NOT NULL REFERENCES asteroids(id) ON DELETE CASCADE,
	close_approach_date TEXT NOT NULL DEFAULT '',
	close_approach_date_full TEXT NOT NULL DEFAULT '',
	epoch_date_close_approach INTEGER NOT NULL DEFAULT 0,
	velocity_km_s REAL NOT NULL DEFAULT 0,
	velocity_km_h REAL NOT NULL DEFAULT 0,
	velocity_mph REAL NOT NULL DEFAULT 0,
	miss_distance_au REAL NOT NULL DEFAULT 0,
	miss_distance_lunar REAL NOT NULL DEFAULT 0,
	miss_distance_km REAL NOT NULL DEFAULT 0,
	miss_distance_mi REAL NOT NULL DEFAULT 0,
	orbiting_body TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_approaches_asteroid ON close_approaches(asteroid_id);
`

// ingested_at is stored as RFC 3339 text with sub-second precision.
const timeLayout = time.RFC3339Nano

// Store is the relational persistence layer over a single SQLite database.
// It is safe for concurrent readers; SQLite serializes writers internally
// and batch writes run inside one transaction.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)",
		path,
	)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("sqlite store opened", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpsertAsteroid writes the parent row with insert-or-replace semantics:
// a second call with the same identifier overwrites every field.
func (s *Store) UpsertAsteroid(ctx context.Context, a domain.Asteroid) error {
	return upsertAsteroid(ctx, s.db, a)
}

// AppendDiameter inserts one child row. It does not replace prior rows for
// the same asteroid and unit; batch ingestion handles replacement.
func (s *Store) AppendDiameter(ctx context.Context, d domain.DiameterEstimate) error {
	return appendDiameter(ctx, s.db, d)
}

// AppendApproach inserts one child row in arrival order.
func (s *Store) AppendApproach(ctx context.Context, a domain.CloseApproach) error {
	return appendApproach(ctx, s.db, a)
}

// SaveBatch persists one ingestion atomically: all rows commit together or
// none do. Each asteroid's previous child rows are deleted before its new
// ones are inserted, so re-ingesting an identifier replaces its children
// rather than accumulating duplicates. A write failure rolls the whole
// batch back and names the failing identifier.
func (s *Store) SaveBatch(ctx context.Context, records []domain.NormalizedRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin batch: %w", domain.ErrStoreWrite, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, rec := range records {
		if err := saveRecord(ctx, tx, rec); err != nil {
			return fmt.Errorf("%w: asteroid %s: %w", domain.ErrStoreWrite, rec.Asteroid.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit batch: %w", domain.ErrStoreWrite, err)
	}

	s.logger.Debug("batch saved", "asteroids", len(records))
	return nil
}

func saveRecord(ctx context.Context, tx *sql.Tx, rec domain.NormalizedRecord) error {
	if err := upsertAsteroid(ctx, tx, rec.Asteroid); err != nil {
		return err
	}

	// Children are owned by the parent: replace them wholesale on re-ingest.
	for _, stmt := range []string{
		`DELETE FROM asteroid_diameters WHERE asteroid_id = ?`,
		`DELETE FROM close_approaches WHERE asteroid_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, rec.Asteroid.ID); err != nil {
			return fmt.Errorf("clear child rows: %w", err)
		}
	}

	for _, d := range rec.Diameters {
		if err := appendDiameter(ctx, tx, d); err != nil {
			return err
		}
	}
	for _, a := range rec.Approaches {
		if err := appendApproach(ctx, tx, a); err != nil {
			return err
		}
	}
	return nil
}

// execer lets the write helpers run against either the pooled handle or an
// open transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertAsteroid(ctx context.Context, db execer, a domain.Asteroid) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO asteroids
			(id, neo_reference_id, name, nasa_jpl_url, absolute_magnitude_h,
			 is_potentially_hazardous, is_sentry_object, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			neo_reference_id = excluded.neo_reference_id,
			name = excluded.name,
			nasa_jpl_url = excluded.nasa_jpl_url,
			absolute_magnitude_h = excluded.absolute_magnitude_h,
			is_potentially_hazardous = excluded.is_potentially_hazardous,
			is_sentry_object = excluded.is_sentry_object,
			ingested_at = excluded.ingested_at`,
		a.ID, a.NeoReferenceID, a.Name, a.NasaJplURL, a.AbsoluteMagnitude,
		boolToInt(a.Hazardous), boolToInt(a.Sentry), a.IngestedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("upsert asteroid: %w", err)
	}
	return nil
}

func appendDiameter(ctx context.Context, db execer, d domain.DiameterEstimate) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO asteroid_diameters (asteroid_id, unit, diameter_min, diameter_max)
		VALUES (?, ?, ?, ?)`,
		d.AsteroidID, d.Unit, d.Min, d.Max,
	)
	if err != nil {
		return fmt.Errorf("append diameter %s: %w", d.Unit, err)
	}
	return nil
}

func appendApproach(ctx context.Context, db execer, a domain.CloseApproach) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO close_approaches
			(asteroid_id, close_approach_date, close_approach_date_full,
			 epoch_date_close_approach, velocity_km_s, velocity_km_h, velocity_mph,
			 miss_distance_au, miss_distance_lunar, miss_distance_km, miss_distance_mi,
			 orbiting_body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.AsteroidID, a.Date, a.DateFull, a.Epoch,
		a.VelocityKmS, a.VelocityKmH, a.VelocityMph,
		a.MissAu, a.MissLunar, a.MissKm, a.MissMi,
		a.OrbitingBody,
	)
	if err != nil {
		return fmt.Errorf("append approach: %w", err)
	}
	return nil
}

// GetAsteroidByID reconstructs the nested view for one identifier, or
// domain.ErrNotFound if no row exists.
func (s *Store) GetAsteroidByID(ctx context.Context, id string) (domain.AsteroidView, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, neo_reference_id, name, nasa_jpl_url, absolute_magnitude_h,
		       is_potentially_hazardous, is_sentry_object, ingested_at
		FROM asteroids WHERE id = ?`, id)

	view, err := scanAsteroid(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AsteroidView{}, fmt.Errorf("asteroid %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.AsteroidView{}, fmt.Errorf("query asteroid %q: %w", id, err)
	}

	if err := s.loadChildren(ctx, map[string]*domain.AsteroidView{id: &view}); err != nil {
		return domain.AsteroidView{}, err
	}
	return view, nil
}

// ListAsteroidIDs returns every known identifier in ascending order.
func (s *Store) ListAsteroidIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM asteroids ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list asteroid ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan asteroid id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListAllNormalized returns every asteroid with its children in the nested
// projection shape, ordered by ascending identifier.
func (s *Store) ListAllNormalized(ctx context.Context) ([]domain.AsteroidView, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, neo_reference_id, name, nasa_jpl_url, absolute_magnitude_h,
		       is_potentially_hazardous, is_sentry_object, ingested_at
		FROM asteroids ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list asteroids: %w", err)
	}
	defer rows.Close()

	var views []domain.AsteroidView
	for rows.Next() {
		view, err := scanAsteroid(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asteroid: %w", err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Index only once the slice has stopped growing: appending above may
	// reallocate the backing array and strand earlier pointers.
	byID := make(map[string]*domain.AsteroidView, len(views))
	for i := range views {
		byID[views[i].ID] = &views[i]
	}

	if err := s.loadChildren(ctx, byID); err != nil {
		return nil, err
	}
	return views, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAsteroid(row scanner) (domain.AsteroidView, error) {
	var (
		view              domain.AsteroidView
		hazardous, sentry int
		ingestedAt        string
	)
	err := row.Scan(&view.ID, &view.NeoReferenceID, &view.Name, &view.NasaJplURL,
		&view.AbsoluteMagnitude, &hazardous, &sentry, &ingestedAt)
	if err != nil {
		return domain.AsteroidView{}, err
	}
	view.Hazardous = hazardous != 0
	view.Sentry = sentry != 0
	view.IngestedAt = parseStoredTime(ingestedAt)
	view.Diameters = make(map[string]domain.DiameterRange)
	view.Approaches = []domain.ApproachView{}
	return view, nil
}

// loadChildren fills diameter maps and approach lists for the given views.
// Child rows are read in primary-key order, which is insertion order.
func (s *Store) loadChildren(ctx context.Context, byID map[string]*domain.AsteroidView) error {
	if len(byID) == 0 {
		return nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT asteroid_id, unit, diameter_min, diameter_max
		FROM asteroid_diameters ORDER BY id ASC`)
	if err != nil {
		return fmt.Errorf("list diameters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			asteroidID, unit string
			r                domain.DiameterRange
		)
		if err := rows.Scan(&asteroidID, &unit, &r.Min, &r.Max); err != nil {
			return fmt.Errorf("scan diameter: %w", err)
		}
		if view, ok := byID[asteroidID]; ok {
			view.Diameters[unit] = r
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	approachRows, err := s.db.QueryContext(ctx, `
		SELECT asteroid_id, close_approach_date, close_approach_date_full,
		       epoch_date_close_approach, velocity_km_s, velocity_km_h, velocity_mph,
		       miss_distance_au, miss_distance_lunar, miss_distance_km, miss_distance_mi,
		       orbiting_body
		FROM close_approaches ORDER BY id ASC`)
	if err != nil {
		return fmt.Errorf("list approaches: %w", err)
	}
	defer approachRows.Close()

	for approachRows.Next() {
		var (
			asteroidID string
			a          domain.ApproachView
		)
		err := approachRows.Scan(&asteroidID, &a.Date, &a.DateFull, &a.Epoch,
			&a.Velocity.KmS, &a.Velocity.KmH, &a.Velocity.Mph,
			&a.MissDistance.Au, &a.MissDistance.Lunar, &a.MissDistance.Km, &a.MissDistance.Mi,
			&a.OrbitingBody)
		if err != nil {
			return fmt.Errorf("scan approach: %w", err)
		}
		if view, ok := byID[asteroidID]; ok {
			view.Approaches = append(view.Approaches, a)
		}
	}
	return approachRows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// parseStoredTime decodes an ingested_at column value. Rows written before
// the column existed hold an empty string, which maps to the zero time.
func parseStoredTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

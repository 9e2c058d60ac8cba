package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"threatmap/internal/logger"
	"threatmap/internal/model"
)

// PostgresStore tracks seen events and archives every emitted threat event
// for the query API.
type PostgresStore struct {
	db       *sql.DB
	ttlHours int
}

func NewPostgresStore(connectionString string, ttlHours int) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db, ttlHours: ttlHours}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("postgres store connected")
	return store, nil
}

func (ps *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS threat_events (
		id           TEXT PRIMARY KEY,
		hash         TEXT NOT NULL,
		title        TEXT NOT NULL,
		summary      TEXT,
		category     TEXT NOT NULL,
		threat_level TEXT NOT NULL,
		latitude     DOUBLE PRECISION NOT NULL,
		longitude    DOUBLE PRECISION NOT NULL,
		place_name   TEXT,
		country      TEXT,
		event_time   TIMESTAMPTZ NOT NULL,
		source       TEXT,
		source_url   TEXT,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_threat_events_hash ON threat_events (hash);
	CREATE INDEX IF NOT EXISTS idx_threat_events_created_at ON threat_events (created_at);
	`
	_, err := ps.db.Exec(schema)
	return err
}

func (ps *PostgresStore) IsSeen(hash string) bool {
	cutoff := time.Now().Add(-time.Duration(ps.ttlHours) * time.Hour)

	var exists bool
	err := ps.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM threat_events WHERE hash = $1 AND created_at > $2)`,
		hash, cutoff,
	).Scan(&exists)
	if err != nil {
		logger.Warn("seen lookup failed", "error", err)
		return false
	}
	return exists
}

func (ps *PostgresStore) MarkSeen(event model.ThreatEvent) error {
	if event.Location == nil {
		return fmt.Errorf("refusing to archive event %s without location", event.ID)
	}

	_, err := ps.db.Exec(
		`INSERT INTO threat_events
		 (id, hash, title, summary, category, threat_level, latitude, longitude,
		  place_name, country, event_time, source, source_url)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		 ON CONFLICT (id) DO NOTHING`,
		event.ID,
		seenHash(event),
		event.Title,
		event.Summary,
		string(event.Category),
		string(event.ThreatLevel),
		event.Location.Latitude,
		event.Location.Longitude,
		event.Location.PlaceName,
		event.Location.Country,
		event.Timestamp,
		event.Source,
		event.SourceURL,
	)
	if err != nil {
		return fmt.Errorf("failed to archive event: %w", err)
	}
	return nil
}

// RecentEvents returns the newest archived events, capped at limit.
func (ps *PostgresStore) RecentEvents(limit int) ([]model.ThreatEvent, error) {
	rows, err := ps.db.Query(
		`SELECT id, title, summary, category, threat_level, latitude, longitude,
		        place_name, country, event_time, source, source_url
		 FROM threat_events
		 ORDER BY created_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []model.ThreatEvent
	for rows.Next() {
		var e model.ThreatEvent
		var loc model.GeoLocation
		var category, level string
		if err := rows.Scan(&e.ID, &e.Title, &e.Summary, &category, &level,
			&loc.Latitude, &loc.Longitude, &loc.PlaceName, &loc.Country,
			&e.Timestamp, &e.Source, &e.SourceURL); err != nil {
			return nil, err
		}
		e.Category = model.Category(category)
		e.ThreatLevel = model.ThreatLevel(level)
		e.Location = &loc
		events = append(events, e)
	}
	return events, rows.Err()
}

// Cleanup deletes archive rows older than the TTL window.
func (ps *PostgresStore) Cleanup() error {
	cutoff := time.Now().Add(-time.Duration(ps.ttlHours) * time.Hour)
	_, err := ps.db.Exec(`DELETE FROM threat_events WHERE created_at < $1`, cutoff)
	return err
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

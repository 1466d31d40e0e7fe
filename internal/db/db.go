package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var errNotInitialized = errors.New("database not initialized")

// DB wraps a database connection
type DB struct {
	*sql.DB
}

// Place is a location a user has looked up before.
type Place struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Admin1    string    `json:"admin1,omitempty"`
	Country   string    `json:"country"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Hits      int       `json:"hits"`
	LastUsed  time.Time `json:"last_used"`
}

// CachedWeather is a stored forecast payload.
type CachedWeather struct {
	Data      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Open opens (creating if needed) the SQLite database at path and applies
// the schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS weather_cache (
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			data TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL,
			PRIMARY KEY (latitude, longitude)
		);
		CREATE TABLE IF NOT EXISTS places (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			admin1 TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT '',
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			hits INTEGER NOT NULL DEFAULT 1,
			last_used DATETIME NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_places_identity
			ON places(name, admin1, country, latitude, longitude);
		CREATE INDEX IF NOT EXISTS idx_places_last_used ON places(last_used);
	`)
	return err
}

// GetCachedWeather returns the cached payload for a coordinate pair, or nil
// if there is none or it has expired.
func (d *DB) GetCachedWeather(lat, lon float64) (*CachedWeather, error) {
	if d == nil || d.DB == nil {
		return nil, errNotInitialized
	}

	var cw CachedWeather
	err := d.QueryRow(
		"SELECT data, created_at, expires_at FROM weather_cache WHERE latitude = ? AND longitude = ? AND expires_at > ?",
		lat, lon, time.Now().UTC(),
	).Scan(&cw.Data, &cw.CreatedAt, &cw.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading weather cache (%.2f,%.2f): %w", lat, lon, err)
	}
	return &cw, nil
}

// SetCachedWeather stores a payload for ttl.
func (d *DB) SetCachedWeather(lat, lon float64, data string, ttl time.Duration) error {
	if d == nil || d.DB == nil {
		return errNotInitialized
	}

	now := time.Now().UTC()
	_, err := d.Exec(`
		INSERT INTO weather_cache (latitude, longitude, data, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(latitude, longitude) DO UPDATE SET
			data = excluded.data,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at`,
		lat, lon, data, now, now.Add(ttl),
	)
	if err != nil {
		return fmt.Errorf("writing weather cache (%.2f,%.2f): %w", lat, lon, err)
	}
	return nil
}

// PurgeExpired deletes expired cache rows and reports how many were removed.
func (d *DB) PurgeExpired() (int64, error) {
	if d == nil || d.DB == nil {
		return 0, errNotInitialized
	}

	res, err := d.Exec("DELETE FROM weather_cache WHERE expires_at <= ?", time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purging weather cache: %w", err)
	}
	return res.RowsAffected()
}

// RecordPlace remembers a successful lookup, bumping its hit count when the
// same place was seen before.
func (d *DB) RecordPlace(p Place) error {
	if d == nil || d.DB == nil {
		return errNotInitialized
	}

	_, err := d.Exec(`
		INSERT INTO places (name, admin1, country, latitude, longitude, hits, last_used)
		VALUES (?, ?, ?, ?, ?, 1, ?)
		ON CONFLICT(name, admin1, country, latitude, longitude) DO UPDATE SET
			hits = hits + 1,
			last_used = excluded.last_used`,
		p.Name, p.Admin1, p.Country, p.Latitude, p.Longitude, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording place %q: %w", p.Name, err)
	}
	return nil
}

// RecentPlaces returns up to limit places, most recently used first.
func (d *DB) RecentPlaces(limit int) ([]Place, error) {
	if d == nil || d.DB == nil {
		return nil, errNotInitialized
	}

	rows, err := d.Query(
		"SELECT id, name, admin1, country, latitude, longitude, hits, last_used FROM places ORDER BY last_used DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing recent places: %w", err)
	}
	defer rows.Close()

	var places []Place
	for rows.Next() {
		var p Place
		if err := rows.Scan(&p.ID, &p.Name, &p.Admin1, &p.Country, &p.Latitude, &p.Longitude, &p.Hits, &p.LastUsed); err != nil {
			return nil, fmt.Errorf("scanning place: %w", err)
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

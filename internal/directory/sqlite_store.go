package directory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"tero/internal/models"
)

const schema = `CREATE TABLE IF NOT EXISTS hospitals (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	city TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	latitude REAL NOT NULL DEFAULT 0,
	longitude REAL NOT NULL DEFAULT 0,
	specialties TEXT NOT NULL DEFAULT '[]',
	available_beds INTEGER NOT NULL DEFAULT 0,
	total_beds INTEGER NOT NULL DEFAULT 0,
	wait_time REAL NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_hospitals_city ON hospitals (lower(city));`

const selectColumns = `SELECT id, name, city, address, phone, latitude, longitude,
	specialties, available_beds, total_beds, wait_time, updated_at FROM hospitals`

// SQLiteStore keeps the hospital directory in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenSQLite opens (or creates) the database at path. Use ":memory:" for a
// throwaway store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases shared and serializes
	// writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Seed inserts hospitals that are not stored yet. Existing rows, and the live
// capacity they hold, are left alone. It returns the number of new rows.
func (s *SQLiteStore) Seed(ctx context.Context, hospitals []models.Hospital) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, h := range hospitals {
		args, err := rowArgs(h)
		if err != nil {
			return 0, err
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO hospitals
			(id, name, city, address, phone, latitude, longitude, specialties,
			 available_beds, total_beds, wait_time, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING`, args...)
		if err != nil {
			return 0, fmt.Errorf("seed hospital %s: %w", h.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return inserted, nil
}

// Upsert implements Store.
func (s *SQLiteStore) Upsert(ctx context.Context, h models.Hospital) error {
	args, err := rowArgs(h)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `INSERT INTO hospitals
		(id, name, city, address, phone, latitude, longitude, specialties,
		 available_beds, total_beds, wait_time, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			city = excluded.city,
			address = excluded.address,
			phone = excluded.phone,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			specialties = excluded.specialties,
			available_beds = excluded.available_beds,
			total_beds = excluded.total_beds,
			wait_time = excluded.wait_time,
			updated_at = excluded.updated_at`, args...)
	if err != nil {
		return fmt.Errorf("upsert hospital %s: %w", h.ID, err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, city string) ([]models.Hospital, error) {
	query := selectColumns
	var args []interface{}
	if city = strings.TrimSpace(city); city != "" {
		query += " WHERE lower(city) = lower(?)"
		args = append(args, city)
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list hospitals: %w", err)
	}
	defer rows.Close()

	hospitals := []models.Hospital{}
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, err
		}
		hospitals = append(hospitals, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list hospitals: %w", err)
	}
	return hospitals, nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, id string) (models.Hospital, error) {
	return s.get(ctx, s.db, id)
}

// UpdateCapacity implements Store.
func (s *SQLiteStore) UpdateCapacity(ctx context.Context, id string, availableBeds int, waitTime float64) (models.Hospital, error) {
	if availableBeds < 0 || waitTime < 0 || math.IsNaN(waitTime) || math.IsInf(waitTime, 0) {
		return models.Hospital{}, fmt.Errorf("%w: beds=%d wait=%v", ErrInvalidCapacity, availableBeds, waitTime)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE hospitals SET available_beds = ?, wait_time = ?, updated_at = ? WHERE id = ?`,
		availableBeds, waitTime, now(), id)
	if err != nil {
		return models.Hospital{}, fmt.Errorf("update capacity %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Hospital{}, fmt.Errorf("%w: %s", ErrHospitalNotFound, id)
	}
	return s.get(ctx, s.db, id)
}

// ReserveBed implements Store.
func (s *SQLiteStore) ReserveBed(ctx context.Context, id string) (models.Hospital, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Hospital{}, fmt.Errorf("begin reservation: %w", err)
	}
	defer tx.Rollback()

	h, err := s.get(ctx, tx, id)
	if err != nil {
		return models.Hospital{}, err
	}
	if h.AvailableBeds <= 0 {
		return models.Hospital{}, fmt.Errorf("%w: %s", ErrNoBedsAvailable, id)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE hospitals SET available_beds = available_beds - 1, updated_at = ? WHERE id = ?`,
		now(), id); err != nil {
		return models.Hospital{}, fmt.Errorf("reserve bed %s: %w", id, err)
	}

	h, err = s.get(ctx, tx, id)
	if err != nil {
		return models.Hospital{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Hospital{}, fmt.Errorf("commit reservation: %w", err)
	}
	return h, nil
}

// Cities implements Store.
func (s *SQLiteStore) Cities(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT city FROM hospitals WHERE city != '' ORDER BY city`)
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	defer rows.Close()

	var cities []string
	for rows.Next() {
		var city string
		if err := rows.Scan(&city); err != nil {
			return nil, fmt.Errorf("scan city: %w", err)
		}
		cities = append(cities, city)
	}
	return cities, rows.Err()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (s *SQLiteStore) get(ctx context.Context, q queryer, id string) (models.Hospital, error) {
	row := q.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	h, err := scanHospital(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Hospital{}, fmt.Errorf("%w: %s", ErrHospitalNotFound, id)
	}
	return h, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanHospital(row scanner) (models.Hospital, error) {
	var (
		h           models.Hospital
		specialties string
		updatedAt   string
	)
	err := row.Scan(&h.ID, &h.Name, &h.City, &h.Address, &h.Phone,
		&h.Location.Latitude, &h.Location.Longitude, &specialties,
		&h.AvailableBeds, &h.TotalBeds, &h.WaitTime, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Hospital{}, err
		}
		return models.Hospital{}, fmt.Errorf("scan hospital: %w", err)
	}
	if err := json.Unmarshal([]byte(specialties), &h.Specialties); err != nil {
		return models.Hospital{}, fmt.Errorf("decode specialties of %s: %w", h.ID, err)
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		h.UpdatedAt = t
	}
	h.Location.Address = h.Address
	return h, nil
}

func rowArgs(h models.Hospital) ([]interface{}, error) {
	if strings.TrimSpace(h.ID) == "" || strings.TrimSpace(h.Name) == "" {
		return nil, fmt.Errorf("%w: id and name are required", ErrInvalidHospital)
	}
	if h.AvailableBeds < 0 || h.WaitTime < 0 {
		return nil, fmt.Errorf("%w: %s has negative capacity", ErrInvalidCapacity, h.ID)
	}
	specialties := h.Specialties
	if specialties == nil {
		specialties = []string{}
	}
	raw, err := json.Marshal(specialties)
	if err != nil {
		return nil, fmt.Errorf("encode specialties of %s: %w", h.ID, err)
	}
	address := h.Address
	if address == "" {
		address = h.Location.Address
	}
	return []interface{}{
		h.ID, h.Name, h.City, address, h.Phone,
		h.Location.Latitude, h.Location.Longitude, string(raw),
		h.AvailableBeds, h.TotalBeds, h.WaitTime, now(),
	}, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

var _ Store = (*SQLiteStore)(nil)

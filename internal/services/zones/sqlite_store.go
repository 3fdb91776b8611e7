package zones

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/models"
)

const zonesSchema = `CREATE TABLE IF NOT EXISTS zones (
	position INTEGER PRIMARY KEY,
	polygon  TEXT NOT NULL
)`

// SQLiteStore keeps zones in a sqlite table, rows ordered by position.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open zone db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(zonesSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create zones table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Save replaces every row in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, polygons [][]models.Point) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM zones`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO zones (position, polygon) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, polygon := range polygons {
		if _, err := stmt.ExecContext(ctx, i, FormatPolygon(polygon)); err != nil {
			return fmt.Errorf("failed to insert zone %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Load(ctx context.Context) ([][]models.Point, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT position, polygon FROM zones ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var polygons [][]models.Point
	for rows.Next() {
		var (
			position int
			text     string
		)
		if err := rows.Scan(&position, &text); err != nil {
			return nil, err
		}
		polygon, err := ParsePolygon(text)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", position, err)
		}
		polygons = append(polygons, polygon)
	}
	return polygons, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

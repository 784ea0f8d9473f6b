// Package storage keeps the history of finished Signalmaster runs in SQLite.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// Run is one finished (or abandoned) session on a map.
type Run struct {
	ID        int64
	Map       string
	Score     int     // cars delivered
	Trains    int     // trains delivered
	Minutes   float64 // game minutes played
	Completed bool    // timetable exhausted and network empty
	CreatedAt time.Time
}

// MapStats aggregates the runs recorded for one map.
type MapStats struct {
	Map        string
	Runs       int
	Completed  int
	HighScore  int
	AvgScore   float64
	LastPlayed time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			map_name TEXT NOT NULL,
			score INTEGER NOT NULL,
			trains INTEGER NOT NULL DEFAULT 0,
			game_minutes REAL NOT NULL DEFAULT 0,
			completed INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_map ON runs(map_name);
		CREATE INDEX IF NOT EXISTS idx_runs_top ON runs(map_name, score DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun records a run and returns its ID.
func (s *Store) SaveRun(r Run) (int64, error) {
	if r.Map == "" {
		return 0, errors.New("storage: run has no map name")
	}
	result, err := s.db.Exec(
		"INSERT INTO runs (map_name, score, trains, game_minutes, completed) VALUES (?, ?, ?, ?, ?)",
		r.Map, r.Score, r.Trains, r.Minutes, r.Completed,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}
	return id, nil
}

// TopRuns retrieves the best runs on a map, highest score first. Ties go to
// the run that needed less game time.
func (s *Store) TopRuns(mapName string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, map_name, score, trains, game_minutes, completed, created_at
		 FROM runs
		 WHERE map_name = ?
		 ORDER BY score DESC, game_minutes ASC, id ASC
		 LIMIT ?`,
		mapName, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var createdAt any
		if err := rows.Scan(&r.ID, &r.Map, &r.Score, &r.Trains, &r.Minutes, &r.Completed, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.CreatedAt = parseTime(createdAt)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return runs, nil
}

// HighScore returns the best score on a map, or 0 if it was never played.
func (s *Store) HighScore(mapName string) (int, error) {
	var score int
	err := s.db.QueryRow(
		"SELECT COALESCE(MAX(score), 0) FROM runs WHERE map_name = ?",
		mapName,
	).Scan(&score)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get high score: %w", err)
	}
	return score, nil
}

// ClearRuns deletes every run recorded for a map.
func (s *Store) ClearRuns(mapName string) error {
	if _, err := s.db.Exec("DELETE FROM runs WHERE map_name = ?", mapName); err != nil {
		return fmt.Errorf("storage: cannot clear runs: %w", err)
	}
	return nil
}

// AllMapStats aggregates runs for every map that has been played.
func (s *Store) AllMapStats() (map[string]*MapStats, error) {
	rows, err := s.db.Query(
		`SELECT map_name, COUNT(*), SUM(completed), MAX(score), AVG(score), MAX(created_at)
		 FROM runs
		 GROUP BY map_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get map stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]*MapStats)
	for rows.Next() {
		var st MapStats
		var lastPlayed any
		if err := rows.Scan(&st.Map, &st.Runs, &st.Completed, &st.HighScore, &st.AvgScore, &lastPlayed); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		st.LastPlayed = parseTime(lastPlayed)
		stats[st.Map] = &st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return stats, nil
}

// MapStats aggregates runs for one map. A map never played yields zero stats.
func (s *Store) MapStats(mapName string) (*MapStats, error) {
	all, err := s.AllMapStats()
	if err != nil {
		return nil, err
	}
	if st, ok := all[mapName]; ok {
		return st, nil
	}
	return &MapStats{Map: mapName}, nil
}

// parseTime accepts both driver representations of DATETIME.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

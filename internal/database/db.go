package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"dutch/internal/model"
)

// Store keeps the history of scored rounds in sqlite. Live rooms are never
// written here.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

func NewStore(dbPath string, log *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	sqlStmt := `CREATE TABLE IF NOT EXISTS round_history (id INTEGER PRIMARY KEY AUTOINCREMENT, room_id TEXT, room_code TEXT, round INTEGER, player_id TEXT, player_name TEXT, score INTEGER, played_at DATETIME DEFAULT CURRENT_TIMESTAMP);`
	sqlStmt += `CREATE INDEX IF NOT EXISTS idx_round_history_room ON round_history(room_code);`
	if _, err := db.Exec(sqlStmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if err := migrateRoomID(db); err != nil {
		db.Close()
		return nil, err
	}

	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log}, nil
}

// migrateRoomID adds room_id to files written before rooms had one. Old rows
// keep a NULL id and are never matched by GetRoomStats.
func migrateRoomID(db *sql.DB) error {
	rows, err := db.Query(`PRAGMA table_info(round_history)`)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	found := false
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			rows.Close()
			return fmt.Errorf("scan schema: %w", err)
		}
		if name == "room_id" {
			found = true
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	if !found {
		if _, err := db.Exec(`ALTER TABLE round_history ADD COLUMN room_id TEXT`); err != nil {
			return fmt.Errorf("add room_id: %w", err)
		}
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_round_history_room_id ON round_history(room_id)`); err != nil {
		return fmt.Errorf("create room_id index: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRoundResults appends one row per player in a single transaction.
func (s *Store) RecordRoundResults(ctx context.Context, results []model.RoundResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO round_history(room_id, room_code, round, player_id, player_name, score) VALUES(?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, r := range results {
		if _, err := stmt.ExecContext(ctx, r.RoomID, r.RoomCode, r.Round, r.PlayerID, r.PlayerName, r.Score); err != nil {
			return fmt.Errorf("insert result for %s: %w", r.PlayerName, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.Debug("round recorded", zap.Int("rows", len(results)))
	return nil
}

// GetRoomStats aggregates the history of one room per player name, lowest
// total first. Rooms are keyed by id since codes are reused.
func (s *Store) GetRoomStats(ctx context.Context, roomID string) ([]model.PlayerStat, error) {
	stats := make([]model.PlayerStat, 0)

	rows, err := s.db.QueryContext(ctx, `SELECT player_name, COUNT(*) AS rounds, SUM(score) AS total_score FROM round_history WHERE room_id = ? GROUP BY player_name ORDER BY total_score ASC, player_name ASC`, roomID)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st model.PlayerStat
		if err := rows.Scan(&st.Name, &st.RoundsPlayed, &st.TotalScore); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

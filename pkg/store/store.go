// Package store persists games to SQLite. Game state is stored as an
// lz4-compressed JSON snapshot with a blake3 checksum verified on load.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pierrec/lz4/v4"
	"lukechampine.com/blake3"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/opd-ai/go-stellar/pkg/engine"
)

var (
	ErrNotFound         = errors.New("game not found")
	ErrChecksumMismatch = errors.New("state checksum mismatch")
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	state BLOB NOT NULL,
	checksum TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'waiting_for_players',
	turn_number INTEGER NOT NULL DEFAULT 0,
	turn_deadline TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS player_games (
	user_id INTEGER NOT NULL,
	game_id TEXT NOT NULL,
	empire_id INTEGER NOT NULL,
	is_ai INTEGER NOT NULL DEFAULT 0,
	forfeited INTEGER NOT NULL DEFAULT 0,
	timeout_count INTEGER NOT NULL DEFAULT 0,
	last_active TEXT NOT NULL,
	PRIMARY KEY (user_id, game_id)
);

CREATE INDEX IF NOT EXISTS idx_games_status ON games(status);
CREATE INDEX IF NOT EXISTS idx_player_games_user ON player_games(user_id);
`

// Store is a SQLite-backed game store. It is safe for concurrent use;
// the driver serializes writers and WAL mode keeps readers unblocked.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and initializes
// the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GameSummary is one row of a per-user game listing.
type GameSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	TurnNumber uint32 `json:"turn_number"`
}

// OpenGame is one row of the joinable-game listing.
type OpenGame struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PlayerCount uint32 `json:"player_count"`
}

// encodeState compresses a marshaled snapshot and returns the blob with
// its checksum. The checksum covers the uncompressed JSON.
func encodeState(snap *engine.Snapshot) ([]byte, string, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, "", fmt.Errorf("marshal state: %w", err)
	}

	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, "", fmt.Errorf("compress state: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, "", fmt.Errorf("compress state: %w", err)
	}

	sum := blake3.Sum256(raw)
	return buf.Bytes(), hex.EncodeToString(sum[:]), nil
}

func decodeState(blob []byte, checksum string) (*engine.Snapshot, error) {
	zr := lz4.NewReader(bytes.NewReader(blob))
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress state: %w", err)
	}

	sum := blake3.Sum256(raw)
	if hex.EncodeToString(sum[:]) != checksum {
		return nil, ErrChecksumMismatch
	}

	var snap engine.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return &snap, nil
}

// SaveGame upserts a game's full snapshot along with the indexed
// columns the listing and sweep queries read.
func (s *Store) SaveGame(ctx context.Context, snap *engine.Snapshot) error {
	blob, checksum, err := encodeState(snap)
	if err != nil {
		return err
	}

	var deadline any
	if !snap.TurnDeadline.IsZero() {
		deadline = snap.TurnDeadline.UTC().Format(time.RFC3339)
	}
	now := time.Now().UTC().Format(time.RFC3339)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO games (id, name, state, checksum, status, turn_number, turn_deadline, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			state = excluded.state,
			checksum = excluded.checksum,
			status = excluded.status,
			turn_number = excluded.turn_number,
			turn_deadline = excluded.turn_deadline,
			updated_at = excluded.updated_at`,
		snap.ID, snap.Name, blob, checksum, string(snap.Status), snap.TurnNumber, deadline, now, now)
	if err != nil {
		return fmt.Errorf("save game %s: %w", snap.ID, err)
	}
	return nil
}

// LoadGame returns a game's snapshot, verifying the stored checksum.
func (s *Store) LoadGame(ctx context.Context, gameID string) (*engine.Snapshot, error) {
	var (
		blob     []byte
		checksum string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT state, checksum FROM games WHERE id = ?`, gameID).Scan(&blob, &checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", gameID, err)
	}
	return decodeState(blob, checksum)
}

// DeleteGame removes a game and its player associations.
func (s *Store) DeleteGame(ctx context.Context, gameID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete game %s: %w", gameID, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM player_games WHERE game_id = ?`, gameID); err != nil {
		return fmt.Errorf("delete game %s: %w", gameID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, gameID); err != nil {
		return fmt.Errorf("delete game %s: %w", gameID, err)
	}
	return tx.Commit()
}

// ListOpenGames returns up to 20 games still waiting for players,
// newest first.
func (s *Store) ListOpenGames(ctx context.Context) ([]OpenGame, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.id, g.name,
		       (SELECT COUNT(*) FROM player_games WHERE game_id = g.id) AS player_count
		FROM games g
		WHERE g.status = ?
		ORDER BY g.created_at DESC
		LIMIT 20`, string(engine.StatusWaitingForPlayers))
	if err != nil {
		return nil, fmt.Errorf("list open games: %w", err)
	}
	defer rows.Close()

	var games []OpenGame
	for rows.Next() {
		var g OpenGame
		if err := rows.Scan(&g.ID, &g.Name, &g.PlayerCount); err != nil {
			return nil, fmt.Errorf("list open games: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// ListUserGames returns the unfinished games a user participates in,
// most recently updated first.
func (s *Store) ListUserGames(ctx context.Context, userID int64) ([]GameSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.status, g.turn_number
		FROM games g
		JOIN player_games pg ON pg.game_id = g.id
		WHERE pg.user_id = ? AND g.status != ?
		ORDER BY g.updated_at DESC`, userID, string(engine.StatusCompleted))
	if err != nil {
		return nil, fmt.Errorf("list games for user %d: %w", userID, err)
	}
	defer rows.Close()

	var games []GameSummary
	for rows.Next() {
		var g GameSummary
		if err := rows.Scan(&g.ID, &g.Name, &g.Status, &g.TurnNumber); err != nil {
			return nil, fmt.Errorf("list games for user %d: %w", userID, err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// JoinGame records a user's membership in a game.
func (s *Store) JoinGame(ctx context.Context, userID int64, gameID string, empireID uint32) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO player_games
		(user_id, game_id, empire_id, is_ai, forfeited, timeout_count, last_active)
		VALUES (?, ?, ?, 0, 0, 0, ?)`, userID, gameID, empireID, now)
	if err != nil {
		return fmt.Errorf("join game %s: %w", gameID, err)
	}
	return nil
}

// TouchPlayer refreshes a player's last-active timestamp.
func (s *Store) TouchPlayer(ctx context.Context, userID int64, gameID string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`UPDATE player_games SET last_active = ? WHERE user_id = ? AND game_id = ?`,
		now, userID, gameID)
	if err != nil {
		return fmt.Errorf("touch player %d in game %s: %w", userID, gameID, err)
	}
	return nil
}

// ForfeitPlayer marks a player's membership forfeited to AI control.
func (s *Store) ForfeitPlayer(ctx context.Context, userID int64, gameID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE player_games SET forfeited = 1, is_ai = 1 WHERE user_id = ? AND game_id = ?`,
		userID, gameID)
	if err != nil {
		return fmt.Errorf("forfeit player %d in game %s: %w", userID, gameID, err)
	}
	return nil
}

// IncrementTimeout bumps a player's timeout count and returns the new
// value.
func (s *Store) IncrementTimeout(ctx context.Context, userID int64, gameID string) (uint32, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE player_games SET timeout_count = timeout_count + 1 WHERE user_id = ? AND game_id = ?`,
		userID, gameID)
	if err != nil {
		return 0, fmt.Errorf("increment timeout for player %d in game %s: %w", userID, gameID, err)
	}

	var count uint32
	err = s.db.QueryRowContext(ctx,
		`SELECT timeout_count FROM player_games WHERE user_id = ? AND game_id = ?`,
		userID, gameID).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("increment timeout for player %d in game %s: %w", userID, gameID, err)
	}
	return count, nil
}

// GamesPastDeadline returns the ids of in-progress games whose turn
// deadline has passed.
func (s *Store) GamesPastDeadline(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM games
		WHERE status = ? AND turn_deadline IS NOT NULL AND turn_deadline < ?`,
		string(engine.StatusInProgress), now.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("sweep deadlines: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sweep deadlines: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Package persistence stores save slots in SQLite: one row per slot with
// the session state, and one row per city economy snapshot.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/mini-market/internal/engine"
	"github.com/talgya/mini-market/internal/market"
)

// Errors.
var (
	ErrNoSave      = errors.New("no such save")
	ErrInvalidSlot = errors.New("slot name must not be empty")
)

const economiesKey = "CityEconomies"

// DB wraps a SQLite connection holding save slots.
type DB struct {
	conn *sqlx.DB
}

// SlotSummary is what the save list shows for a slot.
type SlotSummary struct {
	Name      string  `db:"name"`
	SessionID string  `db:"session_id"`
	Gold      int     `db:"player_gold"`
	WorldX    float64 `db:"world_x"`
	WorldY    float64 `db:"world_y"`
	Cities    int     `db:"city_count"`
	Frame     int64   `db:"frame"`
	SavedAt   int64   `db:"saved_at"` // Unix seconds
}

// Time returns when the slot was written.
func (s SlotSummary) Time() time.Time {
	return time.Unix(s.SavedAt, 0)
}

// String formats the summary like the save dialog details.
func (s SlotSummary) String() string {
	return fmt.Sprintf("Gold: %d\nWorldPos: (%.2f,%.2f)\nCities: %d", s.Gold, s.WorldX, s.WorldY, s.Cities)
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS slots (
		name TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		player_gold INTEGER NOT NULL,
		world_x REAL NOT NULL,
		world_y REAL NOT NULL,
		city_count INTEGER NOT NULL,
		frame INTEGER NOT NULL,
		saved_at INTEGER NOT NULL,
		state_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS city_economies (
		slot TEXT NOT NULL,
		city TEXT NOT NULL,
		model TEXT NOT NULL,
		snapshot_json TEXT NOT NULL,
		PRIMARY KEY (slot, city)
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_slots_saved_at ON slots(saved_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

func slotName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidSlot
	}
	return name, nil
}

// SaveGame writes the session into slot, replacing anything already there.
func (db *DB) SaveGame(slot string, s *engine.Session) error {
	slot, err := slotName(slot)
	if err != nil {
		return err
	}

	state := s.ToMap()
	economies, _ := state[economiesKey].(map[string]any)
	delete(state, economiesKey)

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM city_economies WHERE slot = ?", slot); err != nil {
		return err
	}
	_, err = tx.Exec(`INSERT OR REPLACE INTO slots
		(name, session_id, player_gold, world_x, world_y, city_count, frame, saved_at, state_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		slot, s.ID.String(), s.Gold, s.WorldPos.X, s.WorldPos.Y, len(economies),
		int64(s.Clock.Frame), time.Now().Unix(), string(stateJSON),
	)
	if err != nil {
		return fmt.Errorf("insert slot %q: %w", slot, err)
	}

	stmt, err := tx.Preparex("INSERT INTO city_economies (slot, city, model, snapshot_json) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for city, raw := range economies {
		snap := snapshotOf(raw)
		snapJSON, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("encode economy %q: %w", city, err)
		}
		if _, err := stmt.Exec(slot, city, snap.String("model", string(market.ModelPrice)), string(snapJSON)); err != nil {
			return fmt.Errorf("insert economy %q: %w", city, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("game saved", "slot", slot, "gold", s.Gold, "cities", len(economies))
	return nil
}

func snapshotOf(v any) market.Snapshot {
	switch m := v.(type) {
	case market.Snapshot:
		return m
	case map[string]any:
		return m
	}
	return market.Snapshot{}
}

// LoadGame replaces the session state with slot's contents.
func (db *DB) LoadGame(slot string, s *engine.Session) error {
	state, err := db.State(slot)
	if err != nil {
		return err
	}
	s.LoadMap(state)
	return nil
}

// State returns slot's full save map, city economies included.
func (db *DB) State(slot string) (map[string]any, error) {
	slot, err := slotName(slot)
	if err != nil {
		return nil, err
	}

	var stateJSON string
	err = db.conn.Get(&stateJSON, "SELECT state_json FROM slots WHERE name = ?", slot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load %q: %w", slot, ErrNoSave)
	}
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", slot, err)
	}

	state := make(map[string]any)
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		// A corrupt row still loads with defaults.
		slog.Warn("corrupt session state", "slot", slot, "error", err)
		state = make(map[string]any)
	}

	var rows []struct {
		City     string `db:"city"`
		Snapshot string `db:"snapshot_json"`
	}
	if err := db.conn.Select(&rows, "SELECT city, snapshot_json FROM city_economies WHERE slot = ? ORDER BY city", slot); err != nil {
		return nil, fmt.Errorf("load economies for %q: %w", slot, err)
	}
	economies := make(map[string]any, len(rows))
	for _, r := range rows {
		snap := make(map[string]any)
		if err := json.Unmarshal([]byte(r.Snapshot), &snap); err != nil {
			slog.Warn("corrupt city economy", "slot", slot, "city", r.City, "error", err)
		}
		economies[r.City] = snap
	}
	state[economiesKey] = economies

	slog.Info("game loaded", "slot", slot, "cities", len(economies))
	return state, nil
}

// ListSlots returns every slot, most recently saved first.
func (db *DB) ListSlots() ([]SlotSummary, error) {
	var out []SlotSummary
	err := db.conn.Select(&out, `SELECT name, session_id, player_gold, world_x, world_y, city_count, frame, saved_at
		FROM slots ORDER BY saved_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return out, nil
}

// Summary returns one slot's summary.
func (db *DB) Summary(slot string) (SlotSummary, error) {
	var out SlotSummary
	err := db.conn.Get(&out, `SELECT name, session_id, player_gold, world_x, world_y, city_count, frame, saved_at
		FROM slots WHERE name = ?`, strings.TrimSpace(slot))
	if errors.Is(err, sql.ErrNoRows) {
		return out, fmt.Errorf("summary %q: %w", slot, ErrNoSave)
	}
	return out, err
}

// DeleteSlot removes a slot and its economies.
func (db *DB) DeleteSlot(slot string) error {
	slot, err := slotName(slot)
	if err != nil {
		return err
	}
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec("DELETE FROM slots WHERE name = ?", slot)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete %q: %w", slot, ErrNoSave)
	}
	if _, err := tx.Exec("DELETE FROM city_economies WHERE slot = ?", slot); err != nil {
		return err
	}
	return tx.Commit()
}

// HasSave reports whether slot exists.
func (db *DB) HasSave(slot string) bool {
	var count int
	err := db.conn.Get(&count, "SELECT COUNT(*) FROM slots WHERE name = ?", strings.TrimSpace(slot))
	return err == nil && count > 0
}

// SaveMeta stores a key-value pair in the metadata table.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

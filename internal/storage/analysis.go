package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pable/gridscout/internal/model"
)

// SaveAnalysis stores a as the player's checkpoint, replacing any previous one.
func (db *DB) SaveAnalysis(a *model.PlayerAnalysis) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	_, err = db.conn.Exec(db.q(`
		INSERT INTO analysis_checkpoints(player_id, player_name, series_count, analysis_json, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (player_id) DO UPDATE SET
			player_name = excluded.player_name,
			series_count = excluded.series_count,
			analysis_json = excluded.analysis_json,
			updated_at = excluded.updated_at`),
		a.PlayerID, a.PlayerName, a.SeriesTrends.SeriesPlayed, string(data), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save analysis for %s: %w", a.PlayerID, err)
	}
	return nil
}

// GetAnalysis loads the player's checkpoint, or ErrNotFound.
func (db *DB) GetAnalysis(playerID string) (*model.PlayerAnalysis, error) {
	var data string
	err := db.conn.QueryRow(db.q(`SELECT analysis_json FROM analysis_checkpoints WHERE player_id = ?`), playerID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	var a model.PlayerAnalysis
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		return nil, fmt.Errorf("decode analysis for %s: %w", playerID, err)
	}
	return &a, nil
}

// DeleteAnalysis removes the player's checkpoint.
func (db *DB) DeleteAnalysis(playerID string) error {
	_, err := db.conn.Exec(db.q(`DELETE FROM analysis_checkpoints WHERE player_id = ?`), playerID)
	return err
}

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimeWindow names the period a scouting report covers.
type TimeWindow string

const (
	WindowWeek    TimeWindow = "WEEK"
	WindowMonth   TimeWindow = "MONTH"
	Window3Months TimeWindow = "3_MONTHS"
	Window6Months TimeWindow = "6_MONTHS"
	WindowYear    TimeWindow = "YEAR"
	WindowAll     TimeWindow = "ALL"
)

// TimeWindows lists every accepted window, shortest first.
var TimeWindows = []TimeWindow{WindowWeek, WindowMonth, Window3Months, Window6Months, WindowYear, WindowAll}

// ParseTimeWindow accepts a window name in any case ("month", "3_months", ...).
func ParseTimeWindow(s string) (TimeWindow, error) {
	w := TimeWindow(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range TimeWindows {
		if w == known {
			return w, nil
		}
	}
	return "", fmt.Errorf("unknown time window %q", s)
}

// TimeWindowSince returns the start of window w ending at now. WindowAll
// (and any unknown window) returns the zero time.
func TimeWindowSince(w TimeWindow, now time.Time) time.Time {
	switch w {
	case WindowWeek:
		return now.AddDate(0, 0, -7)
	case WindowMonth:
		return now.AddDate(0, -1, 0)
	case Window3Months:
		return now.AddDate(0, -3, 0)
	case Window6Months:
		return now.AddDate(0, -6, 0)
	case WindowYear:
		return now.AddDate(-1, 0, 0)
	default:
		return time.Time{}
	}
}

// Report is a stored scouting report for one player and time window.
type Report struct {
	ID             uuid.UUID
	PlayerID       string
	TimeWindow     TimeWindow
	Text           string
	Model          string
	PromptVersion  string
	SeriesCount    int
	LastSeriesDate time.Time // zero when unknown
	CreatedAt      time.Time
}

// SaveReport inserts r, replacing any report stored for the same player and
// window. The stored id and creation time are written back into r.
func (db *DB) SaveReport(r *Report) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	var lastMs int64
	if !r.LastSeriesDate.IsZero() {
		lastMs = r.LastSeriesDate.UnixMilli()
	}

	var id uuid.UUID
	err := db.conn.QueryRow(db.q(`
		INSERT INTO scouting_reports(id, player_id, time_window, report_text, model, prompt_version,
			series_count, last_series_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (player_id, time_window) DO UPDATE SET
			report_text = excluded.report_text,
			model = excluded.model,
			prompt_version = excluded.prompt_version,
			series_count = excluded.series_count,
			last_series_date = excluded.last_series_date,
			created_at = excluded.created_at
		RETURNING id`),
		r.ID, r.PlayerID, string(r.TimeWindow), r.Text, r.Model, r.PromptVersion,
		r.SeriesCount, lastMs, r.CreatedAt.UnixMilli(),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("save report for %s/%s: %w", r.PlayerID, r.TimeWindow, err)
	}
	r.ID = id
	return nil
}

const reportColumns = `id, player_id, time_window, report_text, model, prompt_version,
	series_count, last_series_date, created_at`

// GetReport returns the stored report for a player and window, or ErrNotFound.
func (db *DB) GetReport(playerID string, w TimeWindow) (*Report, error) {
	row := db.conn.QueryRow(db.q(`SELECT `+reportColumns+`
		FROM scouting_reports WHERE player_id = ? AND time_window = ?`), playerID, string(w))
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return r, nil
}

// ListReports returns stored reports, newest first. An empty playerID lists every player.
func (db *DB) ListReports(playerID string) ([]Report, error) {
	query := `SELECT ` + reportColumns + ` FROM scouting_reports`
	var args []any
	if playerID != "" {
		query += ` WHERE player_id = ?`
		args = append(args, playerID)
	}
	query += ` ORDER BY created_at DESC, player_id, time_window`

	rows, err := db.conn.Query(db.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// DeleteReport removes the report for a player and window. Deleting a missing report is not an error.
func (db *DB) DeleteReport(playerID string, w TimeWindow) error {
	_, err := db.conn.Exec(db.q(`DELETE FROM scouting_reports WHERE player_id = ? AND time_window = ?`), playerID, string(w))
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(s rowScanner) (*Report, error) {
	var (
		r               Report
		window          string
		lastMs, created int64
	)
	if err := s.Scan(&r.ID, &r.PlayerID, &window, &r.Text, &r.Model, &r.PromptVersion,
		&r.SeriesCount, &lastMs, &created); err != nil {
		return nil, err
	}
	r.TimeWindow = TimeWindow(window)
	if lastMs != 0 {
		r.LastSeriesDate = time.UnixMilli(lastMs)
	}
	r.CreatedAt = time.UnixMilli(created)
	return &r, nil
}

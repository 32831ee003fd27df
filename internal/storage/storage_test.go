package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/pable/gridscout/internal/model"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestReportSaveAndGet(t *testing.T) {
	db := openMemDB(t)

	last := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	r := &Report{
		PlayerID:       "p1",
		TimeWindow:     WindowMonth,
		Text:           "STRENGTHS:\n• aim",
		Model:          "claude-haiku-4-5-20251001",
		PromptVersion:  "v1",
		SeriesCount:    4,
		LastSeriesDate: last,
	}
	if err := db.SaveReport(r); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	got, err := db.GetReport("p1", WindowMonth)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if got.ID != r.ID || got.Text != r.Text || got.SeriesCount != 4 || got.Model != r.Model {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.LastSeriesDate.Equal(last) {
		t.Errorf("last series date: want %v, got %v", last, got.LastSeriesDate)
	}

	if _, err := db.GetReport("p1", WindowYear); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for other window, got %v", err)
	}
}

func TestReportUpsertKeepsID(t *testing.T) {
	db := openMemDB(t)

	first := &Report{PlayerID: "p1", TimeWindow: WindowAll, Text: "old"}
	if err := db.SaveReport(first); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	second := &Report{PlayerID: "p1", TimeWindow: WindowAll, Text: "new"}
	if err := db.SaveReport(second); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("upsert should keep the stored id: %s vs %s", second.ID, first.ID)
	}

	reports, err := db.ListReports("p1")
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(reports) != 1 || reports[0].Text != "new" {
		t.Errorf("expected one replaced report, got %+v", reports)
	}
	if !reports[0].LastSeriesDate.IsZero() {
		t.Error("unset last series date should read back as zero")
	}
}

func TestListReports(t *testing.T) {
	db := openMemDB(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, r := range []Report{
		{PlayerID: "p1", TimeWindow: WindowWeek, Text: "a"},
		{PlayerID: "p1", TimeWindow: WindowYear, Text: "b"},
		{PlayerID: "p2", TimeWindow: WindowWeek, Text: "c"},
	} {
		r.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if err := db.SaveReport(&r); err != nil {
			t.Fatalf("SaveReport: %v", err)
		}
	}

	all, err := db.ListReports("")
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(all) != 3 || all[0].Text != "c" {
		t.Errorf("expected 3 reports newest first, got %+v", all)
	}
	p1, _ := db.ListReports("p1")
	if len(p1) != 2 {
		t.Errorf("expected 2 reports for p1, got %d", len(p1))
	}

	if err := db.DeleteReport("p1", WindowWeek); err != nil {
		t.Fatalf("DeleteReport: %v", err)
	}
	p1, _ = db.ListReports("p1")
	if len(p1) != 1 || p1[0].TimeWindow != WindowYear {
		t.Errorf("after delete: %+v", p1)
	}
}

func TestAnalysisCheckpoint(t *testing.T) {
	db := openMemDB(t)

	if _, err := db.GetAnalysis("p1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	a := &model.PlayerAnalysis{
		PlayerID:   "p1",
		PlayerName: "ace",
		SeriesIDs:  []string{"s1"},
		Range:      model.TimeRange{Start: 10, End: 20},
		RoundTrends: []model.RoundTrendData{{
			SeriesID: "s1", GameNumber: 1, RoundNumber: 1,
			Stats: model.PlayerRoundCombatStats{Kills: 2, Side: model.SideDefender},
		}},
		SeriesTrends: model.SeriesTrendData{SeriesPlayed: 1, GamesPlayed: 1, TotalKills: 2},
		Trends:       model.Trends{RoundPerformance: model.TrendResult{Direction: model.TrendStable}},
	}
	if err := db.SaveAnalysis(a); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	got, err := db.GetAnalysis("p1")
	if err != nil {
		t.Fatalf("GetAnalysis: %v", err)
	}
	if got.PlayerName != "ace" || got.Range != a.Range || len(got.SeriesIDs) != 1 {
		t.Errorf("checkpoint mismatch: %+v", got)
	}
	if len(got.RoundTrends) != 1 || got.RoundTrends[0].Stats.Side != model.SideDefender {
		t.Errorf("round trends not restored: %+v", got.RoundTrends)
	}

	a.SeriesTrends.TotalKills = 7
	if err := db.SaveAnalysis(a); err != nil {
		t.Fatalf("SaveAnalysis overwrite: %v", err)
	}
	got, _ = db.GetAnalysis("p1")
	if got.SeriesTrends.TotalKills != 7 {
		t.Errorf("checkpoint not replaced: %+v", got.SeriesTrends)
	}

	if err := db.DeleteAnalysis("p1"); err != nil {
		t.Fatalf("DeleteAnalysis: %v", err)
	}
	if _, err := db.GetAnalysis("p1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestTimeWindows(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		in   string
		want time.Time
	}{
		{"week", time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC)},
		{"MONTH", time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)},
		{"3_months", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"6_MONTHS", time.Date(2023, 12, 15, 0, 0, 0, 0, time.UTC)},
		{"year", time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)},
		{"all", time.Time{}},
	}
	for _, c := range cases {
		w, err := ParseTimeWindow(c.in)
		if err != nil {
			t.Fatalf("ParseTimeWindow(%q): %v", c.in, err)
		}
		if got := TimeWindowSince(w, now); !got.Equal(c.want) {
			t.Errorf("%s: want %v, got %v", c.in, c.want, got)
		}
	}
	if _, err := ParseTimeWindow("fortnight"); err == nil {
		t.Error("expected error for unknown window")
	}
}

func TestRebind(t *testing.T) {
	got := rebind(`SELECT * FROM t WHERE a = ? AND b = '?' AND c = ?`)
	want := `SELECT * FROM t WHERE a = $1 AND b = '?' AND c = $2`
	if got != want {
		t.Errorf("rebind:\nwant %s\ngot  %s", want, got)
	}
}

func TestCountsAndPurge(t *testing.T) {
	db := openMemDB(t)
	if err := db.SaveAnalysis(&model.PlayerAnalysis{PlayerID: "p1"}); err != nil {
		t.Fatal(err)
	}
	for _, w := range []TimeWindow{WindowMonth, WindowAll} {
		if err := db.SaveReport(&Report{PlayerID: "p1", TimeWindow: w, Text: "x"}); err != nil {
			t.Fatal(err)
		}
	}

	reports, checkpoints, err := db.Counts()
	if err != nil || reports != 2 || checkpoints != 1 {
		t.Fatalf("Counts: %d reports, %d checkpoints, %v", reports, checkpoints, err)
	}
	if err := db.Purge(); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	reports, checkpoints, err = db.Counts()
	if err != nil || reports != 0 || checkpoints != 0 {
		t.Errorf("after purge: %d reports, %d checkpoints, %v", reports, checkpoints, err)
	}
	if err := db.SaveAnalysis(&model.PlayerAnalysis{PlayerID: "p2"}); err != nil {
		t.Errorf("schema should survive a purge: %v", err)
	}
}

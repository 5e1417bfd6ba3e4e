package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func TestStatsAggregatesTrend(t *testing.T) {
	db, mock := newTestDB(t)
	h := NewStatsHandler(db)

	callerID := uuid.New()
	today := time.Now().UTC().Truncate(24 * time.Hour)

	mock.ExpectQuery("AS entries_today").
		WithArgs(callerID).
		WillReturnRows(sqlmock.NewRows([]string{"entries_today", "entries_this_week", "entries_this_month", "avg_mood_30d"}).
			AddRow(1, 3, 10, 3.5))
	mock.ExpectQuery("WITH d AS").
		WithArgs(callerID).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(3))
	trend := sqlmock.NewRows([]string{"day", "avg_mood", "entries"})
	for i := 6; i >= 0; i-- {
		trend.AddRow(today.AddDate(0, 0, -i), 3.0, 1)
	}
	mock.ExpectQuery("generate_series").
		WithArgs(callerID).
		WillReturnRows(trend)

	rec := httptest.NewRecorder()
	h.Get(rec, authedRequestAs(callerID, http.MethodGet, "/api/moods/stats", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var out statsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.EntriesToday != 1 || out.EntriesThisWeek != 3 || out.EntriesThisMonth != 10 {
		t.Errorf("counts = %d/%d/%d, want 1/3/10", out.EntriesToday, out.EntriesThisWeek, out.EntriesThisMonth)
	}
	if out.CurrentStreakDays != 3 {
		t.Errorf("streak = %d, want 3", out.CurrentStreakDays)
	}
	if len(out.Last7DaysTrend) != 7 {
		t.Fatalf("trend has %d points, want 7", len(out.Last7DaysTrend))
	}
	if out.Last7DaysTrend[0].Date != today.AddDate(0, 0, -6).Format("2006-01-02") {
		t.Errorf("trend starts at %s, want six days back", out.Last7DaysTrend[0].Date)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// A trend row that cannot be scanned is a server error, not a silently
// truncated chart.
func TestStatsTrendScanFailure(t *testing.T) {
	db, mock := newTestDB(t)
	h := NewStatsHandler(db)

	callerID := uuid.New()

	mock.ExpectQuery("AS entries_today").
		WithArgs(callerID).
		WillReturnRows(sqlmock.NewRows([]string{"entries_today", "entries_this_week", "entries_this_month", "avg_mood_30d"}).
			AddRow(0, 0, 0, 0))
	mock.ExpectQuery("WITH d AS").
		WithArgs(callerID).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))
	mock.ExpectQuery("generate_series").
		WithArgs(callerID).
		WillReturnRows(sqlmock.NewRows([]string{"day", "avg_mood", "entries"}).
			AddRow(time.Now(), "not-a-number", 1))

	rec := httptest.NewRecorder()
	h.Get(rec, authedRequestAs(callerID, http.MethodGet, "/api/moods/stats", ""))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500: %s", rec.Code, rec.Body.String())
	}
	var out map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil || out["message"] != "Could not fetch trend" {
		t.Errorf("body = %s, want Could not fetch trend", rec.Body.String())
	}
}

package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type StatsHandler struct {
	db *sqlx.DB
}

func NewStatsHandler(db *sqlx.DB) *StatsHandler { return &StatsHandler{db: db} }

type trendPoint struct {
	Date        string  `json:"date"`
	AverageMood float64 `json:"averageMood"`
	Entries     int     `json:"entries"`
}

type statsResponse struct {
	EntriesToday      int          `json:"entriesToday"`
	EntriesThisWeek   int          `json:"entriesThisWeek"`
	EntriesThisMonth  int          `json:"entriesThisMonth"`
	AverageMood30Days float64      `json:"averageMood30Days"`
	CurrentStreakDays int          `json:"currentStreakDays"`
	Last7DaysTrend    []trendPoint `json:"last7DaysTrend"`
}

// Get aggregates the caller's mood history into the numbers the client's
// home screen charts.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(uuid.UUID)

	aggQuery := `
		SELECT
			COALESCE(COUNT(*) FILTER (WHERE logged_at::date = CURRENT_DATE), 0) AS entries_today,
			COALESCE(COUNT(*) FILTER (WHERE logged_at::date >= date_trunc('week', CURRENT_DATE)::date), 0) AS entries_this_week,
			COALESCE(COUNT(*) FILTER (WHERE date_trunc('month', logged_at) = date_trunc('month', CURRENT_DATE::timestamp)), 0) AS entries_this_month,
			COALESCE(AVG(mood) FILTER (WHERE logged_at >= CURRENT_DATE - INTERVAL '30 days'), 0) AS avg_mood_30d
		FROM moods
		WHERE user_id = $1`

	var resp statsResponse
	if err := h.db.QueryRowx(aggQuery, userID).Scan(&resp.EntriesToday, &resp.EntriesThisWeek, &resp.EntriesThisMonth, &resp.AverageMood30Days); err != nil {
		writeError(w, http.StatusInternalServerError, "Could not fetch aggregates")
		return
	}

	// Consecutive days with at least one entry, ending today.
	streakQuery := `
		WITH d AS (
			SELECT DISTINCT logged_at::date AS day FROM moods WHERE user_id=$1 AND logged_at::date <= CURRENT_DATE
		), g AS (
			SELECT day, day - (ROW_NUMBER() OVER (ORDER BY day))::int AS grp FROM d
		), c AS (
			SELECT COUNT(*) AS cnt, MAX(day) AS maxd FROM g GROUP BY grp
		)
		SELECT COALESCE((SELECT cnt FROM c WHERE maxd = CURRENT_DATE), 0)`
	if err := h.db.QueryRowx(streakQuery, userID).Scan(&resp.CurrentStreakDays); err != nil {
		writeError(w, http.StatusInternalServerError, "Could not compute streak")
		return
	}

	trendRows, err := h.db.Queryx(`
		SELECT d::date AS day, COALESCE(AVG(m.mood), 0) AS avg_mood, COUNT(m.id) AS entries
		FROM generate_series(CURRENT_DATE - INTERVAL '6 days', CURRENT_DATE, INTERVAL '1 day') AS d
		LEFT JOIN moods m ON m.user_id=$1 AND m.logged_at::date = d::date
		GROUP BY d::date
		ORDER BY d::date`, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not fetch trend")
		return
	}
	defer trendRows.Close()

	resp.Last7DaysTrend = []trendPoint{}
	for trendRows.Next() {
		var day time.Time
		var avg float64
		var entries int
		if err := trendRows.Scan(&day, &avg, &entries); err != nil {
			writeError(w, http.StatusInternalServerError, "Could not fetch trend")
			return
		}
		resp.Last7DaysTrend = append(resp.Last7DaysTrend, trendPoint{
			Date:        day.Format("2006-01-02"),
			AverageMood: avg,
			Entries:     entries,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

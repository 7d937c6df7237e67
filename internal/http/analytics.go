package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/booklib/server/internal/database/analytics"
)

// topN bounds the ranked analytics views (popular books, user activity,
// scholar popularity).
const topN = 10

var analyticsPeriods = map[string]time.Duration{
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
	"1y":  365 * 24 * time.Hour,
}

// AnalyticsController serves the reporting views computed from the download
// ledger.
type AnalyticsController struct {
	repo *analytics.Repository
}

// NewAnalyticsController creates a new AnalyticsController.
func NewAnalyticsController(repo *analytics.Repository) *AnalyticsController {
	return &AnalyticsController{repo: repo}
}

// AnalyticsResponse bundles all reporting views for one window.
type AnalyticsResponse struct {
	Period            string                   `json:"period"`
	StartDate         time.Time                `json:"start_date"`
	EndDate           time.Time                `json:"end_date"`
	Overview          *analytics.Overview      `json:"overview"`
	DailyTrend        []analytics.DailyPoint   `json:"daily_trend"`
	CategoryBreakdown []analytics.CategoryStat `json:"category_breakdown"`
	PopularBooks      []analytics.PopularBook  `json:"popular_books"`
	UserActivity      []analytics.UserActivity `json:"user_activity"`
	ScholarPopularity []analytics.ScholarStat  `json:"scholar_popularity"`
	SourceBreakdown   []analytics.SourceStat   `json:"source_breakdown"`
}

// GetAnalytics returns all reporting views for the requested period.
// GET /api/downloads/analytics?period=7d|30d|90d|1y
func (ac *AnalyticsController) GetAnalytics(c *gin.Context) {
	period := c.DefaultQuery("period", "30d")
	window, ok := analyticsPeriods[period]
	if !ok {
		respondBadRequest(c, "invalid period, expected one of: 7d, 30d, 90d, 1y")
		return
	}

	end := time.Now()
	start := end.Add(-window)

	overview, err := ac.repo.GetOverview(start, end)
	if err != nil {
		respondInternalError(c, err, "analytics overview")
		return
	}
	dailyTrend, err := ac.repo.GetDailyTrend(start, end)
	if err != nil {
		respondInternalError(c, err, "analytics daily trend")
		return
	}
	categories, err := ac.repo.GetCategoryBreakdown(start, end)
	if err != nil {
		respondInternalError(c, err, "analytics category breakdown")
		return
	}
	popularBooks, err := ac.repo.GetPopularBooks(start, end, topN)
	if err != nil {
		respondInternalError(c, err, "analytics popular books")
		return
	}
	userActivity, err := ac.repo.GetUserActivity(start, end, topN)
	if err != nil {
		respondInternalError(c, err, "analytics user activity")
		return
	}
	scholars, err := ac.repo.GetScholarPopularity(start, end, topN)
	if err != nil {
		respondInternalError(c, err, "analytics scholar popularity")
		return
	}
	sources, err := ac.repo.GetSourceBreakdown(start, end)
	if err != nil {
		respondInternalError(c, err, "analytics source breakdown")
		return
	}

	c.JSON(http.StatusOK, AnalyticsResponse{
		Period:            period,
		StartDate:         start,
		EndDate:           end,
		Overview:          overview,
		DailyTrend:        dailyTrend,
		CategoryBreakdown: categories,
		PopularBooks:      popularBooks,
		UserActivity:      userActivity,
		ScholarPopularity: scholars,
		SourceBreakdown:   sources,
	})
}

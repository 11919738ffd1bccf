package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bishop254/vts-backend/internal/analytics"
	"github.com/bishop254/vts-backend/internal/models"
	log "github.com/sirupsen/logrus"
)

// Reporter builds the dashboard reports.
type Reporter interface {
	TotalDistance(ctx context.Context, window analytics.TimeRange) ([]models.TotalDistanceEntry, error)
	TopVehicles(ctx context.Context) ([]models.LeaderboardEntry, error)
}

// DashboardHandler serves fleet distance analytics
type DashboardHandler struct {
	reports Reporter
	timeout time.Duration
}

// NewDashboardHandler creates a dashboard handler. A positive timeout bounds
// each report.
func NewDashboardHandler(reports Reporter, timeout time.Duration) *DashboardHandler {
	return &DashboardHandler{reports: reports, timeout: timeout}
}

func (h *DashboardHandler) reportContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.timeout > 0 {
		return context.WithTimeout(r.Context(), h.timeout)
	}
	return context.WithCancel(r.Context())
}

// TotalDistance reports per-vehicle distance over ?timeRange=7d|30d|90d
func (h *DashboardHandler) TotalDistance(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.reportContext(r)
	defer cancel()

	window := analytics.ParseTimeRange(r.URL.Query().Get("timeRange"))
	report, err := h.reports.TotalDistance(ctx, window)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// TopVehicles reports the ten vehicles with the largest lifetime distance
func (h *DashboardHandler) TopVehicles(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.reportContext(r)
	defer cancel()

	board, err := h.reports.TopVehicles(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *DashboardHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	entry := log.WithError(err).WithField("path", r.URL.Path)
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		// client went away
		entry.Info("Report abandoned")
	} else {
		entry.Error("Report failed")
	}
	writeError(w, http.StatusInternalServerError, "Database error", err)
}

// internal/handler/campaign_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/unclebandit/campaign-engine/internal/errors"
	"github.com/unclebandit/campaign-engine/internal/service"
)

// AnalyticsHandler serves the read-side endpoints: per-campaign analytics,
// optimizer recommendations and the projected content calendar.
type AnalyticsHandler struct {
	Service   *service.CampaignService
	Optimizer *service.ScheduleOptimizer
	Projector *service.CalendarProjector
}

// GetAnalyticsHandler returns rolling stats, retained results and the
// current advisory recommendation for one campaign.
func (h *AnalyticsHandler) GetAnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	analytics, err := h.Service.GetAnalytics(id)
	if err != nil {
		if appErrors.IsNotFound(err) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "failed to fetch analytics: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(analytics)
}

// GetRecommendationsHandler returns the optimizer's advisory output only.
func (h *AnalyticsHandler) GetRecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := h.Service.GetCampaign(id); err != nil {
		if appErrors.IsNotFound(err) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Optimizer.Recommend(id))
}

// GetCalendarHandler projects a non-binding content calendar.
// Query params: days, channels (csv), topics (csv), content_types (csv),
// campaign (optional id to seed the projection with that campaign's history).
func (h *AnalyticsHandler) GetCalendarHandler(w http.ResponseWriter, r *http.Request) {
	days := 7
	if d, err := strconv.Atoi(r.URL.Query().Get("days")); err == nil && d > 0 {
		days = d
	}
	channels := splitCSV(r.URL.Query().Get("channels"))
	if len(channels) == 0 {
		http.Error(w, "channels query parameter is required", http.StatusBadRequest)
		return
	}
	topics := splitCSV(r.URL.Query().Get("topics"))
	contentTypes := splitCSV(r.URL.Query().Get("content_types"))
	campaignID := r.URL.Query().Get("campaign")

	entries := h.Projector.Project(days, channels, topics, contentTypes, campaignID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"days":    days,
		"entries": entries,
	})
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

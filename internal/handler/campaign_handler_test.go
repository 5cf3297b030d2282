package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/unclebandit/campaign-engine/internal/handler"
	"github.com/unclebandit/campaign-engine/internal/model"
	"github.com/unclebandit/campaign-engine/internal/repository"
	"github.com/unclebandit/campaign-engine/internal/service"
)

type fixture struct {
	router chi.Router
	svc    *service.CampaignService
	agg    *service.PerformanceAggregator
}

func newFixture() *fixture {
	reg := repository.NewMemoryCampaignRepository()
	agg := service.NewPerformanceAggregator(reg, 50, zerolog.Nop())
	opt := service.NewScheduleOptimizer(agg)
	svc := service.NewCampaignService(reg, agg, opt, time.UTC, zerolog.Nop())
	h := &handler.AnalyticsHandler{
		Service:   svc,
		Optimizer: opt,
		Projector: service.NewCalendarProjector(opt, 1),
	}

	r := chi.NewRouter()
	r.Get("/campaigns/{id}/analytics", h.GetAnalyticsHandler)
	r.Get("/campaigns/{id}/recommendations", h.GetRecommendationsHandler)
	r.Get("/calendar", h.GetCalendarHandler)
	return &fixture{router: r, svc: svc, agg: agg}
}

func (f *fixture) createCampaign(t *testing.T) *model.Campaign {
	t.Helper()
	c, err := f.svc.CreateCampaign(service.CampaignDefinition{
		Name:         "spring launch",
		Cadence:      model.Cadence{Kind: model.CadenceDaily, Hour: 9},
		Channels:     []string{"instagram"},
		ContentTypes: []string{"post"},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	return c
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestAnalyticsEndpoint(t *testing.T) {
	f := newFixture()
	c := f.createCampaign(t)

	res := &model.ExecutionResult{
		CampaignID:  c.ID,
		TriggeredAt: time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC),
		Attempts: []model.PostAttempt{{
			Channel: "instagram", ContentType: "post",
			Outcome: model.OutcomeSuccess, ReachEstimate: 100, Engagement: 6,
		}},
	}
	res.Finalize()
	if err := f.agg.Record(res); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	w := f.get("/campaigns/" + c.ID + "/analytics")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var a service.CampaignAnalytics
	if err := json.Unmarshal(w.Body.Bytes(), &a); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if a.Performance.TotalPosts != 1 {
		t.Errorf("unexpected performance: %+v", a.Performance)
	}
	if len(a.RecentResults) != 1 {
		t.Errorf("expected 1 retained result, got %d", len(a.RecentResults))
	}

	if w := f.get("/campaigns/ghost/analytics"); w.Code != http.StatusNotFound {
		t.Errorf("unknown id: expected 404, got %d", w.Code)
	}
}

func TestRecommendationsEndpoint(t *testing.T) {
	f := newFixture()
	c := f.createCampaign(t)

	w := f.get("/campaigns/" + c.ID + "/recommendations")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var rec model.Recommendation
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if rec.CampaignID != c.ID {
		t.Errorf("wrong campaign id %q", rec.CampaignID)
	}
	// no history yet: advisory note, no slots
	if len(rec.TimeSlots) != 0 || len(rec.Notes) == 0 {
		t.Errorf("unexpected recommendation: %+v", rec)
	}

	if w := f.get("/campaigns/ghost/recommendations"); w.Code != http.StatusNotFound {
		t.Errorf("unknown id: expected 404, got %d", w.Code)
	}
}

func TestCalendarEndpoint(t *testing.T) {
	f := newFixture()

	w := f.get("/calendar?days=2&channels=instagram,facebook&topics=a,b&content_types=post")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Days    int                   `json:"days"`
		Entries []model.CalendarEntry `json:"entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Days != 2 {
		t.Errorf("expected days 2, got %d", resp.Days)
	}
	if len(resp.Entries) != 4 {
		t.Errorf("expected 2 days x 2 channels = 4 entries, got %d", len(resp.Entries))
	}

	if w := f.get("/calendar?days=2"); w.Code != http.StatusBadRequest {
		t.Errorf("missing channels: expected 400, got %d", w.Code)
	}
}

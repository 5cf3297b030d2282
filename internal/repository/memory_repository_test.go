package repository_test

import (
	"testing"
	"time"

	appErrors "github.com/unclebandit/campaign-engine/internal/errors"
	"github.com/unclebandit/campaign-engine/internal/model"
	"github.com/unclebandit/campaign-engine/internal/repository"
)

func sampleCampaign(id string) *model.Campaign {
	next := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	return &model.Campaign{
		ID:             id,
		Name:           "sample " + id,
		Cadence:        model.Cadence{Kind: model.CadenceDaily, Hour: 9},
		Channels:       []string{"instagram", "facebook"},
		ContentTypes:   []string{"post"},
		TargetSegments: []string{"athletes"},
		Status:         model.StatusActive,
		NextRun:        &next,
	}
}

func TestCreateAndGet(t *testing.T) {
	repo := repository.NewMemoryCampaignRepository()
	if err := repo.Create(sampleCampaign("c1")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := repo.GetByID("c1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Name != "sample c1" || len(got.Channels) != 2 {
		t.Errorf("unexpected campaign: %+v", got)
	}
}

func TestGetUnknownReturnsNotFound(t *testing.T) {
	repo := repository.NewMemoryCampaignRepository()
	if _, err := repo.GetByID("nope"); !appErrors.IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestReadsReturnCopies(t *testing.T) {
	repo := repository.NewMemoryCampaignRepository()
	repo.Create(sampleCampaign("c1"))

	got, _ := repo.GetByID("c1")
	got.Name = "mutated"
	got.Channels[0] = "mutated"
	*got.NextRun = got.NextRun.Add(time.Hour)

	fresh, _ := repo.GetByID("c1")
	if fresh.Name != "sample c1" {
		t.Error("mutation through a returned pointer leaked into the store")
	}
	if fresh.Channels[0] != "instagram" {
		t.Error("slice mutation leaked into the store")
	}
	if !fresh.NextRun.Equal(time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)) {
		t.Error("time mutation leaked into the store")
	}
}

func TestListFilters(t *testing.T) {
	repo := repository.NewMemoryCampaignRepository()
	repo.Create(sampleCampaign("c1"))

	c2 := sampleCampaign("c2")
	c2.Status = model.StatusPaused
	c2.Channels = []string{"tiktok"}
	repo.Create(c2)

	all, err := repo.List(model.CampaignFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 campaigns, got %d", len(all))
	}

	active, _ := repo.List(model.CampaignFilter{Status: model.StatusActive})
	if len(active) != 1 || active[0].ID != "c1" {
		t.Errorf("status filter wrong: %+v", active)
	}

	tiktok, _ := repo.List(model.CampaignFilter{Channel: "tiktok"})
	if len(tiktok) != 1 || tiktok[0].ID != "c2" {
		t.Errorf("channel filter wrong: %+v", tiktok)
	}

	none, _ := repo.List(model.CampaignFilter{Status: model.StatusDeleted})
	if len(none) != 0 {
		t.Errorf("expected empty list, got %d", len(none))
	}
}

func TestUpdateRunStatePartial(t *testing.T) {
	repo := repository.NewMemoryCampaignRepository()
	repo.Create(sampleCampaign("c1"))

	last := time.Date(2026, 4, 2, 9, 0, 1, 0, time.UTC)
	inFlight := true
	cursor := 3
	if err := repo.UpdateRunState("c1", model.RunStateUpdate{
		LastRun:       &last,
		InFlight:      &inFlight,
		SegmentCursor: &cursor,
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, _ := repo.GetByID("c1")
	if got.LastRun == nil || !got.LastRun.Equal(last) {
		t.Errorf("last_run not updated: %v", got.LastRun)
	}
	if !got.InFlight || got.SegmentCursor != 3 {
		t.Errorf("run state not updated: %+v", got)
	}
	// untouched fields stay put
	if got.Status != model.StatusActive {
		t.Errorf("status should be untouched, got %q", got.Status)
	}
	if got.NextRun == nil || !got.NextRun.Equal(time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("next_run should be untouched, got %v", got.NextRun)
	}
}

func TestUpdateRunStateUnknownReturnsNotFound(t *testing.T) {
	repo := repository.NewMemoryCampaignRepository()
	status := model.StatusPaused
	if err := repo.UpdateRunState("nope", model.RunStateUpdate{Status: &status}); !appErrors.IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestUpdatePerformance(t *testing.T) {
	repo := repository.NewMemoryCampaignRepository()
	repo.Create(sampleCampaign("c1"))

	snap := model.PerformanceSnapshot{TotalPosts: 12, TotalReach: 3400, AvgEngagement: 5.5}
	if err := repo.UpdatePerformance("c1", snap); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, _ := repo.GetByID("c1")
	if got.Performance != snap {
		t.Errorf("performance not stored: %+v", got.Performance)
	}

	if err := repo.UpdatePerformance("nope", snap); !appErrors.IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}

package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/unclebandit/campaign-engine/internal/model"
	"github.com/unclebandit/campaign-engine/internal/repository"
	"github.com/unclebandit/campaign-engine/internal/service"
)

var schedBase = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func newDailyCampaign(t *testing.T, reg *repository.MemoryCampaignRepository) (*service.CampaignService, *model.Campaign) {
	t.Helper()
	svc := service.NewCampaignService(reg, nil, nil, time.UTC, zerolog.Nop())
	svc.SetNowFunc(func() time.Time { return schedBase })
	c, err := svc.CreateCampaign(service.CampaignDefinition{
		Name:           "daily drop",
		Cadence:        model.Cadence{Kind: model.CadenceDaily, Hour: 9, Minute: 0},
		Channels:       []string{"instagram", "facebook"},
		ContentTypes:   []string{"post"},
		TargetSegments: []string{"spring", "summer"},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	return svc, c
}

func newScheduler(reg *repository.MemoryCampaignRepository, exec service.Executor, rec service.Recorder) *service.SchedulerCore {
	return service.NewSchedulerCore(reg, exec, rec, nil, time.UTC, time.Hour, zerolog.Nop())
}

func TestTickExecutesDueCampaignsOncePerDay(t *testing.T) {
	reg := repository.NewMemoryCampaignRepository()
	_, c := newDailyCampaign(t, reg)

	dist := newScriptedDistributor()
	coord := newTestCoordinator(&okGenerator{}, dist)
	rec := &recorderStub{}
	sched := newScheduler(reg, coord, rec)

	ctx := context.Background()
	for day := 1; day <= 3; day++ {
		tickAt := schedBase.AddDate(0, 0, day)
		sched.SetNowFunc(func() time.Time { return tickAt })
		sched.Tick(ctx)
		sched.Wait()
	}

	results := rec.all()
	if len(results) != 3 {
		t.Fatalf("expected 3 executions over 3 days, got %d", len(results))
	}
	for _, r := range results {
		if r.PostsCreated != 2 {
			t.Errorf("each execution should create 2 posts, got %d", r.PostsCreated)
		}
	}
	// segment cursor advances per run, so topics rotate
	if got := results[0].Attempts[0].Topic; got != "spring" {
		t.Errorf("run 1 topic: expected spring, got %q", got)
	}
	if got := results[1].Attempts[0].Topic; got != "summer" {
		t.Errorf("run 2 topic: expected summer, got %q", got)
	}
	if got := results[2].Attempts[0].Topic; got != "spring" {
		t.Errorf("run 3 topic: expected spring again, got %q", got)
	}

	fresh, err := reg.GetByID(c.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if fresh.SegmentCursor != 3 {
		t.Errorf("expected segment cursor 3, got %d", fresh.SegmentCursor)
	}
	if fresh.InFlight {
		t.Error("in-flight mark should be cleared")
	}
	if fresh.LastRun == nil {
		t.Fatal("last_run should be set")
	}
	wantNext := schedBase.AddDate(0, 0, 4)
	if fresh.NextRun == nil || !fresh.NextRun.Equal(wantNext) {
		t.Errorf("expected next_run %v, got %v", wantNext, fresh.NextRun)
	}
}

func TestTickIgnoresFutureAndPausedCampaigns(t *testing.T) {
	reg := repository.NewMemoryCampaignRepository()
	svc, c := newDailyCampaign(t, reg)

	rec := &recorderStub{}
	exec := newBlockingExecutor()
	sched := newScheduler(reg, exec, rec)

	// before next_run: nothing fires
	sched.SetNowFunc(func() time.Time { return schedBase.Add(time.Hour) })
	sched.Tick(context.Background())
	sched.Wait()
	if exec.callCount() != 0 {
		t.Fatal("campaign fired before its trigger time")
	}

	// paused: due but not listed as active
	if err := svc.PauseCampaign(c.ID); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	sched.SetNowFunc(func() time.Time { return schedBase.AddDate(0, 0, 2) })
	sched.Tick(context.Background())
	sched.Wait()
	if exec.callCount() != 0 {
		t.Fatal("paused campaign fired")
	}

	fresh, _ := reg.GetByID(c.ID)
	if fresh.NextRun == nil || !fresh.NextRun.Equal(schedBase.AddDate(0, 0, 1)) {
		t.Errorf("pause must freeze next_run, got %v", fresh.NextRun)
	}
}

func TestTickSkipsInFlightCampaign(t *testing.T) {
	reg := repository.NewMemoryCampaignRepository()
	newDailyCampaign(t, reg)

	rec := &recorderStub{}
	exec := newBlockingExecutor()
	sched := newScheduler(reg, exec, rec)

	due := schedBase.AddDate(0, 0, 1)
	sched.SetNowFunc(func() time.Time { return due })

	ctx := context.Background()
	sched.Tick(ctx)
	waitStarted(t, exec)

	// second tick while the first execution is parked: must skip, not queue
	sched.Tick(ctx)
	if got := exec.callCount(); got != 1 {
		t.Errorf("expected exactly one execution, got %d", got)
	}

	close(exec.release)
	sched.Wait()
	if len(rec.all()) != 1 {
		t.Errorf("expected one recorded result, got %d", len(rec.all()))
	}
}

func TestPauseDuringExecutionRecordsButFreezesNextRun(t *testing.T) {
	reg := repository.NewMemoryCampaignRepository()
	svc, c := newDailyCampaign(t, reg)

	rec := &recorderStub{}
	exec := newBlockingExecutor()
	sched := newScheduler(reg, exec, rec)

	due := schedBase.AddDate(0, 0, 1)
	sched.SetNowFunc(func() time.Time { return due })
	sched.Tick(context.Background())
	waitStarted(t, exec)

	if err := svc.PauseCampaign(c.ID); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	close(exec.release)
	sched.Wait()

	// in-flight execution finishes and its result still counts
	if len(rec.all()) != 1 {
		t.Fatalf("expected the in-flight result to be recorded, got %d", len(rec.all()))
	}

	fresh, _ := reg.GetByID(c.ID)
	if fresh.Status != model.StatusPaused {
		t.Errorf("expected paused, got %q", fresh.Status)
	}
	if fresh.NextRun == nil || !fresh.NextRun.Equal(due) {
		t.Errorf("next_run must stay frozen at %v, got %v", due, fresh.NextRun)
	}
	if fresh.LastRun == nil {
		t.Error("last_run should record the finished execution")
	}
	if fresh.InFlight {
		t.Error("in-flight mark should be cleared")
	}
}

func TestDeleteDuringExecutionDropsResult(t *testing.T) {
	reg := repository.NewMemoryCampaignRepository()
	svc, c := newDailyCampaign(t, reg)

	rec := &recorderStub{}
	exec := newBlockingExecutor()
	sched := newScheduler(reg, exec, rec)

	sched.SetNowFunc(func() time.Time { return schedBase.AddDate(0, 0, 1) })
	sched.Tick(context.Background())
	waitStarted(t, exec)

	if err := svc.DeleteCampaign(c.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	close(exec.release)
	sched.Wait()

	// delete wins the race: nothing recorded
	if got := rec.all(); len(got) != 0 {
		t.Errorf("deleted campaign must not record results, got %d", len(got))
	}
	fresh, _ := reg.GetByID(c.ID)
	if fresh.Status != model.StatusDeleted {
		t.Errorf("expected deleted, got %q", fresh.Status)
	}
}

func TestResumeRecomputesNextRunForward(t *testing.T) {
	reg := repository.NewMemoryCampaignRepository()
	svc, c := newDailyCampaign(t, reg)

	if err := svc.PauseCampaign(c.ID); err != nil {
		t.Fatalf("pause failed: %v", err)
	}

	resumeAt := schedBase.AddDate(0, 0, 10).Add(2 * time.Hour) // 11:00, past the 9:00 slot
	svc.SetNowFunc(func() time.Time { return resumeAt })
	if err := svc.ResumeCampaign(c.ID); err != nil {
		t.Fatalf("resume failed: %v", err)
	}

	fresh, _ := reg.GetByID(c.ID)
	if fresh.Status != model.StatusActive {
		t.Errorf("expected active, got %q", fresh.Status)
	}
	want := schedBase.AddDate(0, 0, 11)
	if fresh.NextRun == nil || !fresh.NextRun.Equal(want) {
		t.Errorf("resume must reschedule to %v, got %v", want, fresh.NextRun)
	}
}

func TestStartRecoversStalledInFlightMarks(t *testing.T) {
	reg := repository.NewMemoryCampaignRepository()
	_, c := newDailyCampaign(t, reg)

	// simulate a crash that left the persisted flag set
	inFlight := true
	if err := reg.UpdateRunState(c.ID, model.RunStateUpdate{InFlight: &inFlight}); err != nil {
		t.Fatalf("marking in-flight: %v", err)
	}

	rec := &recorderStub{}
	exec := newBlockingExecutor()
	sched := newScheduler(reg, exec, rec)
	sched.SetNowFunc(func() time.Time { return schedBase })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched.Start(ctx)
	defer sched.Stop()

	fresh, err := reg.GetByID(c.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if fresh.InFlight {
		t.Error("recovery sweep should clear the stale in-flight mark")
	}
}

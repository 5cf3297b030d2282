// internal/service/campaign_service.go
package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appErrors "github.com/unclebandit/campaign-engine/internal/errors"
	"github.com/unclebandit/campaign-engine/internal/model"
	"github.com/unclebandit/campaign-engine/internal/recurrence"
	"github.com/unclebandit/campaign-engine/internal/repository"
)

// CampaignService implements the lifecycle API: create, pause, resume,
// delete, plus read-side analytics. Only ValidationError and NotFound
// surface to callers; execution-time failures stay inside execution results.
type CampaignService struct {
	Registry   repository.CampaignRegistryInterface
	Aggregator *PerformanceAggregator
	Optimizer  *ScheduleOptimizer

	loc *time.Location
	log zerolog.Logger
	now func() time.Time
}

func NewCampaignService(registry repository.CampaignRegistryInterface, agg *PerformanceAggregator, opt *ScheduleOptimizer, loc *time.Location, log zerolog.Logger) *CampaignService {
	if loc == nil {
		loc = time.UTC
	}
	return &CampaignService{
		Registry:   registry,
		Aggregator: agg,
		Optimizer:  opt,
		loc:        loc,
		log:        log,
		now:        time.Now,
	}
}

// CampaignDefinition is the creation payload.
type CampaignDefinition struct {
	Name           string        `json:"name"`
	Cadence        model.Cadence `json:"cadence"`
	Channels       []string      `json:"channels"`
	ContentTypes   []string      `json:"content_types"`
	TargetSegments []string      `json:"target_segments"`
}

// CreateCampaign validates the definition, assigns an id, sets the campaign
// active and computes its first trigger. Invalid definitions never reach the
// scheduler.
func (s *CampaignService) CreateCampaign(def CampaignDefinition) (*model.Campaign, error) {
	if def.Name == "" {
		return nil, appErrors.NewInvalidDefinition("name", "must not be empty")
	}
	if len(def.Channels) == 0 {
		return nil, appErrors.NewInvalidDefinition("channels", "must not be empty")
	}
	if len(def.ContentTypes) == 0 {
		return nil, appErrors.NewInvalidDefinition("content_types", "must not be empty")
	}
	if err := recurrence.Validate(def.Cadence); err != nil {
		return nil, appErrors.NewInvalidDefinition("cadence", err.Error())
	}

	next, err := recurrence.NextTrigger(def.Cadence, s.now(), s.loc)
	if err != nil {
		return nil, appErrors.NewInvalidDefinition("cadence", err.Error())
	}

	c := &model.Campaign{
		ID:             uuid.NewString(),
		Name:           def.Name,
		Cadence:        def.Cadence,
		Channels:       def.Channels,
		ContentTypes:   def.ContentTypes,
		TargetSegments: def.TargetSegments,
		Status:         model.StatusActive,
		NextRun:        &next,
	}
	if err := s.Registry.Create(c); err != nil {
		return nil, err
	}
	s.log.Info().Str("campaign", c.ID).Str("name", c.Name).Time("next_run", next).Msg("campaign created")
	return c, nil
}

// PauseCampaign cancels the pending trigger but keeps next_run and the
// performance snapshot intact.
func (s *CampaignService) PauseCampaign(id string) error {
	c, err := s.Registry.GetByID(id)
	if err != nil {
		return err
	}
	if c.Status != model.StatusActive {
		return appErrors.NewInvalidDefinition("status", "only active campaigns can be paused")
	}
	status := model.StatusPaused
	if err := s.Registry.UpdateRunState(id, model.RunStateUpdate{Status: &status}); err != nil {
		return err
	}
	s.log.Info().Str("campaign", id).Msg("campaign paused")
	return nil
}

// ResumeCampaign reactivates a paused campaign and recomputes next_run from
// now, so the new trigger is always strictly in the future.
func (s *CampaignService) ResumeCampaign(id string) error {
	c, err := s.Registry.GetByID(id)
	if err != nil {
		return err
	}
	if c.Status != model.StatusPaused {
		return appErrors.NewInvalidDefinition("status", "only paused campaigns can be resumed")
	}
	next, err := recurrence.NextTrigger(c.Cadence, s.now(), s.loc)
	if err != nil {
		return err
	}
	status := model.StatusActive
	if err := s.Registry.UpdateRunState(id, model.RunStateUpdate{Status: &status, NextRun: &next}); err != nil {
		return err
	}
	s.log.Info().Str("campaign", id).Time("next_run", next).Msg("campaign resumed")
	return nil
}

// DeleteCampaign moves the campaign to the terminal deleted state. The
// record is retained for audit; an execution already in flight may finish
// but its result is dropped.
func (s *CampaignService) DeleteCampaign(id string) error {
	c, err := s.Registry.GetByID(id)
	if err != nil {
		return err
	}
	if c.Status == model.StatusDeleted {
		return appErrors.NewCampaignNotFound(id)
	}
	status := model.StatusDeleted
	if err := s.Registry.UpdateRunState(id, model.RunStateUpdate{Status: &status}); err != nil {
		return err
	}
	s.log.Info().Str("campaign", id).Msg("campaign deleted")
	return nil
}

// GetCampaign fetches a campaign by ID
func (s *CampaignService) GetCampaign(id string) (*model.Campaign, error) {
	return s.Registry.GetByID(id)
}

// ListCampaigns returns campaigns matching the filter.
func (s *CampaignService) ListCampaigns(f model.CampaignFilter) ([]*model.Campaign, error) {
	return s.Registry.List(f)
}

// CampaignAnalytics is the read-side report for one campaign.
type CampaignAnalytics struct {
	Campaign       *model.Campaign           `json:"campaign"`
	Performance    model.PerformanceSnapshot `json:"performance"`
	RecentResults  []*model.ExecutionResult  `json:"recent_results"`
	Recommendation *model.Recommendation     `json:"recommendation,omitempty"`
}

// GetAnalytics returns the campaign's rolling statistics, retained results
// and the optimizer's current advisory recommendation.
func (s *CampaignService) GetAnalytics(id string) (*CampaignAnalytics, error) {
	c, err := s.Registry.GetByID(id)
	if err != nil {
		return nil, err
	}
	a := &CampaignAnalytics{
		Campaign:    c,
		Performance: s.Aggregator.CampaignSnapshot(id),
	}
	a.RecentResults = s.Aggregator.History(id)
	if s.Optimizer != nil {
		a.Recommendation = s.Optimizer.Recommend(id)
	}
	return a, nil
}

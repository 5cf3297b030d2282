package service

import "time"

// Test hooks for pinning the clock.

func (s *SchedulerCore) SetNowFunc(f func() time.Time) { s.now = f }

func (c *ExecutionCoordinator) SetNowFunc(f func() time.Time) { c.now = f }

func (s *CampaignService) SetNowFunc(f func() time.Time) { s.now = f }

func (p *CalendarProjector) SetNowFunc(f func() time.Time) { p.now = f }

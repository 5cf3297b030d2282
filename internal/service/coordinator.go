// internal/service/coordinator.go
package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	appErrors "github.com/unclebandit/campaign-engine/internal/errors"
	"github.com/unclebandit/campaign-engine/internal/model"
)

// ExecutionCoordinator drives one fan-out round across the campaign's
// (contentType x channel) pairs. It owns no campaign state: the caller
// guarantees no concurrent execution for the same campaign id, and all
// registry updates happen in the scheduler core after Execute returns.
//
// No attempt failure ever aborts the round; every failure becomes a failed
// attempt in the result.
type ExecutionCoordinator struct {
	Generator   ContentGenerator
	Distributor Distributor

	limiter      *rate.Limiter
	retryBackoff time.Duration
	callTimeout  time.Duration
	log          zerolog.Logger
	now          func() time.Time
}

func NewExecutionCoordinator(gen ContentGenerator, dist Distributor, interPostDelay, retryBackoff, callTimeout time.Duration, log zerolog.Logger) *ExecutionCoordinator {
	var limiter *rate.Limiter
	if interPostDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(interPostDelay), 1)
	}
	if retryBackoff <= 0 {
		retryBackoff = 500 * time.Millisecond
	}
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	return &ExecutionCoordinator{
		Generator:    gen,
		Distributor:  dist,
		limiter:      limiter,
		retryBackoff: retryBackoff,
		callTimeout:  callTimeout,
		log:          log,
		now:          time.Now,
	}
}

// Execute runs one fan-out round and returns the aggregated result.
func (c *ExecutionCoordinator) Execute(ctx context.Context, campaign *model.Campaign) *model.ExecutionResult {
	result := &model.ExecutionResult{
		CampaignID:  campaign.ID,
		TriggeredAt: c.now(),
	}
	topic := campaign.NextTopic()

	for _, contentType := range campaign.ContentTypes {
		for _, channel := range campaign.Channels {
			if c.limiter != nil {
				if err := c.limiter.Wait(ctx); err != nil {
					// context gone: record the remaining pairs as failed
					result.Attempts = append(result.Attempts, model.PostAttempt{
						Channel: channel, ContentType: contentType, Topic: topic,
						Outcome: model.OutcomeFailure, Error: err.Error(),
					})
					continue
				}
			}
			result.Attempts = append(result.Attempts, c.attemptPost(ctx, channel, contentType, topic))
		}
	}

	result.Finalize()
	c.log.Info().
		Str("campaign", campaign.ID).
		Str("topic", topic).
		Int("created", result.PostsCreated).
		Int("succeeded", result.PostsSucceeded).
		Msg("execution finished")
	return result
}

func (c *ExecutionCoordinator) attemptPost(ctx context.Context, channel, contentType, topic string) model.PostAttempt {
	attempt := model.PostAttempt{
		Channel:     channel,
		ContentType: contentType,
		Topic:       topic,
		Outcome:     model.OutcomeFailure,
	}

	bundle, err := c.generate(ctx, channel, contentType, topic)
	if err != nil {
		attempt.Error = err.Error()
		c.log.Warn().Str("channel", channel).Str("content_type", contentType).Err(err).Msg("content generation failed")
		return attempt
	}

	receipt, retried, err := c.deliver(ctx, channel, bundle)
	attempt.Retried = retried
	if err != nil {
		attempt.Error = err.Error()
		c.log.Warn().Str("channel", channel).Str("content_type", contentType).Err(err).Msg("delivery failed after retry")
		return attempt
	}

	attempt.Outcome = model.OutcomeSuccess
	attempt.RemoteID = receipt.RemoteID
	attempt.ReachEstimate = receipt.ReachEstimate
	attempt.Engagement = receipt.Engagement
	return attempt
}

func (c *ExecutionCoordinator) generate(ctx context.Context, channel, contentType, topic string) (*ContentBundle, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()
	bundle, err := c.Generator.Generate(callCtx, channel, contentType, topic)
	if err != nil {
		return nil, &appErrors.ErrCollaborator{
			Collaborator: "generator",
			Channel:      channel,
			ContentType:  contentType,
			Timeout:      errors.Is(err, context.DeadlineExceeded),
			Err:          err,
		}
	}
	return bundle, nil
}

// deliver posts the bundle, retrying once after a fixed backoff. The second
// failure is terminal for this attempt.
func (c *ExecutionCoordinator) deliver(ctx context.Context, channel string, bundle *ContentBundle) (*PostReceipt, bool, error) {
	receipt, err := c.postOnce(ctx, channel, bundle)
	if err == nil {
		return receipt, false, nil
	}

	tmr := time.NewTimer(c.retryBackoff)
	select {
	case <-ctx.Done():
		if !tmr.Stop() {
			<-tmr.C
		}
		return nil, false, err
	case <-tmr.C:
	}

	receipt, err2 := c.postOnce(ctx, channel, bundle)
	if err2 == nil {
		return receipt, true, nil
	}
	return nil, true, err2
}

func (c *ExecutionCoordinator) postOnce(ctx context.Context, channel string, bundle *ContentBundle) (*PostReceipt, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()
	receipt, err := c.Distributor.Post(callCtx, channel, bundle)
	if err != nil {
		return nil, &appErrors.ErrCollaborator{
			Collaborator: "distributor",
			Channel:      channel,
			ContentType:  bundle.ContentType,
			Timeout:      errors.Is(err, context.DeadlineExceeded),
			Err:          err,
		}
	}
	return receipt, nil
}

package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/unclebandit/campaign-engine/internal/model"
	"github.com/unclebandit/campaign-engine/internal/service"
)

// okGenerator always produces a bundle, except for content types listed in
// failTypes.
type okGenerator struct {
	failTypes map[string]bool
}

func (g *okGenerator) Generate(ctx context.Context, channel, contentType, topic string) (*service.ContentBundle, error) {
	if g.failTypes[contentType] {
		return nil, fmt.Errorf("no template for %s", contentType)
	}
	return &service.ContentBundle{
		Channel:     channel,
		ContentType: contentType,
		Topic:       topic,
		Text:        "generated text about " + topic,
	}, nil
}

// scriptedDistributor fails a (channel, contentType) pair a fixed number of
// times before succeeding, and counts every Post call.
type scriptedDistributor struct {
	mu       sync.Mutex
	failures map[string]int // pairKey -> remaining failures
	calls    map[string]int // pairKey -> total Post calls
}

func newScriptedDistributor() *scriptedDistributor {
	return &scriptedDistributor{failures: map[string]int{}, calls: map[string]int{}}
}

func pairKey(channel, contentType string) string { return channel + "/" + contentType }

func (d *scriptedDistributor) failNext(channel, contentType string, times int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[pairKey(channel, contentType)] = times
}

func (d *scriptedDistributor) callCount(channel, contentType string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[pairKey(channel, contentType)]
}

func (d *scriptedDistributor) Post(ctx context.Context, channel string, bundle *service.ContentBundle) (*service.PostReceipt, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := pairKey(channel, bundle.ContentType)
	d.calls[key]++
	if d.failures[key] > 0 {
		d.failures[key]--
		return nil, fmt.Errorf("platform rejected post on %s", channel)
	}
	return &service.PostReceipt{
		RemoteID:      fmt.Sprintf("%s-%d", key, d.calls[key]),
		ReachEstimate: 100,
		Engagement:    5,
	}, nil
}

// recorderStub captures recorded results.
type recorderStub struct {
	mu      sync.Mutex
	results []*model.ExecutionResult
}

func (r *recorderStub) Record(res *model.ExecutionResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
	return nil
}

func (r *recorderStub) all() []*model.ExecutionResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.ExecutionResult(nil), r.results...)
}

// blockingExecutor parks every Execute call until release is closed, so tests
// can interleave lifecycle changes with a running execution. Each entry into
// Execute sends one value on started.
type blockingExecutor struct {
	started chan struct{}
	release chan struct{}

	mu    sync.Mutex
	calls int
}

func newBlockingExecutor() *blockingExecutor {
	return &blockingExecutor{
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (e *blockingExecutor) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func (e *blockingExecutor) Execute(ctx context.Context, c *model.Campaign) *model.ExecutionResult {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	e.started <- struct{}{}
	<-e.release

	res := &model.ExecutionResult{
		CampaignID:  c.ID,
		TriggeredAt: time.Now(),
		Attempts: []model.PostAttempt{{
			Channel:       "instagram",
			ContentType:   "post",
			Topic:         c.NextTopic(),
			Outcome:       model.OutcomeSuccess,
			ReachEstimate: 100,
			Engagement:    5,
		}},
	}
	res.Finalize()
	return res
}

func waitStarted(t interface{ Fatalf(string, ...any) }, e *blockingExecutor) {
	select {
	case <-e.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("execution never started")
	}
}

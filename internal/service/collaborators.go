// internal/service/collaborators.go
package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
)

// ContentBundle is one postable artifact produced by the content generation
// collaborator.
type ContentBundle struct {
	Channel     string `json:"channel"`
	ContentType string `json:"content_type"`
	Topic       string `json:"topic"`
	Text        string `json:"text"`
	MediaURL    string `json:"media_url,omitempty"`
}

// PostReceipt is the distribution collaborator's delivery result.
type PostReceipt struct {
	RemoteID      string  `json:"remote_id"`
	ReachEstimate int     `json:"reach_estimate"`
	Engagement    float64 `json:"engagement"`
}

// ContentGenerator renders a (channel, contentType, topic) tuple into a
// postable artifact. Implementations must be safe to call once per attempt.
type ContentGenerator interface {
	Generate(ctx context.Context, channel, contentType, topic string) (*ContentBundle, error)
}

// Distributor delivers a bundle to a destination channel.
type Distributor interface {
	Post(ctx context.Context, channel string, bundle *ContentBundle) (*PostReceipt, error)
}

// ---------------------------------------------------------------------------
// Default implementations so the binaries run without real platform accounts.
// ---------------------------------------------------------------------------

// TemplateContentGenerator renders bundles from per-content-type templates
// with {topic}, {channel} and {content_type} placeholders.
type TemplateContentGenerator struct {
	Templates map[string]string // keyed by content type
}

const defaultTemplate = "New {content_type} about {topic} — follow us on {channel}!"

func (g *TemplateContentGenerator) Generate(ctx context.Context, channel, contentType, topic string) (*ContentBundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	template := g.Templates[contentType]
	if template == "" {
		template = defaultTemplate
	}
	text := RenderTemplate(template, map[string]string{
		"channel":      channel,
		"content_type": contentType,
		"topic":        topic,
	})
	return &ContentBundle{
		Channel:     channel,
		ContentType: contentType,
		Topic:       topic,
		Text:        text,
	}, nil
}

// RenderTemplate substitutes {key} placeholders.
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

// platformReach approximates audience size per channel; taken from the
// historical averages the engine shipped with before real analytics existed.
var platformReach = map[string]int{
	"facebook":  1200,
	"instagram": 1500,
	"twitter":   800,
	"tiktok":    2500,
	"linkedin":  600,
	"hudl":      400,
}

// SimulatedDistributor fakes deliveries with a configurable success rate and
// pseudo reach/engagement numbers.
type SimulatedDistributor struct {
	SuccessRate float64 // 0..1, defaults to 0.9

	mu  sync.Mutex
	rng *rand.Rand
	seq int
}

func NewSimulatedDistributor(successRate float64, seed int64) *SimulatedDistributor {
	if successRate <= 0 || successRate > 1 {
		successRate = 0.9
	}
	return &SimulatedDistributor{
		SuccessRate: successRate,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

func (d *SimulatedDistributor) Post(ctx context.Context, channel string, bundle *ContentBundle) (*PostReceipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if d.rng.Float64() >= d.SuccessRate {
		return nil, fmt.Errorf("simulated delivery failure on %s", channel)
	}
	reach := platformReach[channel]
	if reach == 0 {
		reach = 500
	}
	// jitter reach +-20%, engagement in [1,10)
	reach = reach + int(float64(reach)*(d.rng.Float64()*0.4-0.2))
	return &PostReceipt{
		RemoteID:      fmt.Sprintf("%s-%d", channel, d.seq),
		ReachEstimate: reach,
		Engagement:    1 + d.rng.Float64()*9,
	}, nil
}

package builtin

import (
	"context"
	"fmt"
	"regexp"

	"github.com/cincinnati-graph/cincinnati/internal/cerrors"
	"github.com/cincinnati-graph/cincinnati/internal/graph"
	"github.com/cincinnati-graph/cincinnati/internal/plugins"
	"github.com/cincinnati-graph/cincinnati/internal/tracing"
)

func init() {
	plugins.Register("channel-filter", func(options map[string]any) (plugins.Plugin, error) {
		var cfg ChannelFilterConfig
		if err := plugins.DecodeOptions(options, &cfg); err != nil {
			return nil, err
		}
		return NewChannelFilter(cfg), nil
	})
}

// channelPattern is the exact character class spec §4.D6 requires: lowercase
// letters, digits, dash, dot.
var channelPattern = regexp.MustCompile(`^[0-9a-z\-.]+$`)

// ChannelFilterConfig is D6's typed configuration record.
type ChannelFilterConfig struct {
	Prefix string `mapstructure:"prefix" validate:"required"`
}

// ChannelFilter is D6: validates the request's channel parameter and
// retains only nodes whose {prefix}.release.channels metadata contains it.
type ChannelFilter struct {
	cfg ChannelFilterConfig
}

// NewChannelFilter builds a ChannelFilter plugin.
func NewChannelFilter(cfg ChannelFilterConfig) *ChannelFilter {
	return &ChannelFilter{cfg: cfg}
}

func (p *ChannelFilter) Name() string       { return "channel-filter" }
func (p *ChannelFilter) Kind() plugins.Kind { return plugins.KindInternal }

func (p *ChannelFilter) Run(ctx context.Context, span tracing.Span, env plugins.Envelope) (plugins.Envelope, error) {
	channel, ok := env.Parameters["channel"]
	if !ok || !channelPattern.MatchString(channel) {
		return plugins.Envelope{}, cerrors.New(cerrors.KindInvalidParams, fmt.Sprintf("channel '%s'", channel))
	}
	span.SetAttribute("channel", channel)

	key := fmt.Sprintf("%s.release.channels", p.cfg.Prefix)
	keep := make(map[graph.ReleaseID]struct{})
	for _, m := range env.Graph.FindByMetadataKey(key) {
		if csvContains(m.Value, channel) {
			keep[m.ID] = struct{}{}
		}
	}

	removeUnkept(env.Graph, keep)
	return env, nil
}

// csvContains reports whether the comma-separated list raw contains value
// as a whole element (not a substring match).
func csvContains(raw, value string) bool {
	for _, v := range splitCSV(raw) {
		if v == value {
			return true
		}
	}
	return false
}

// removeUnkept removes every node in g that is not in keep.
func removeUnkept(g *graph.Graph, keep map[graph.ReleaseID]struct{}) {
	var drop []graph.ReleaseID
	for _, id := range g.AllReleaseIDs() {
		if _, ok := keep[id]; !ok {
			drop = append(drop, id)
		}
	}
	g.RemoveReleases(drop)
}

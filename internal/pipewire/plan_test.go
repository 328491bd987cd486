package pipewire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func out(name, channel string) Port { return Port{Name: name, Channel: channel} }
func in(name, channel string) Port  { return Port{Name: name, Input: true, Channel: channel} }

func TestPlanLinksMatchesChannel(t *testing.T) {
	sources := []Port{out("capture_FL", "FL"), out("capture_FR", "FR")}
	targets := []Port{in("playback_FR", "FR")}

	assert.Equal(t, []PlannedLink{{SourcePort: "capture_FR", TargetPort: "playback_FR"}}, PlanLinks(sources, targets))
}

func TestPlanLinksChannelMatchIgnoresCase(t *testing.T) {
	sources := []Port{out("capture_FL", "fl"), out("capture_FR", "fr")}
	targets := []Port{in("playback_FR", "FR")}

	assert.Equal(t, []PlannedLink{{SourcePort: "capture_FR", TargetPort: "playback_FR"}}, PlanLinks(sources, targets))
}

func TestPlanLinksMonoFeedsBothStereoInputs(t *testing.T) {
	sources := []Port{out("capture_MONO", "MONO")}
	targets := []Port{in("playback_FR", "FR"), in("playback_FL", "FL")}

	assert.Equal(t, []PlannedLink{
		{SourcePort: "capture_MONO", TargetPort: "playback_FL"},
		{SourcePort: "capture_MONO", TargetPort: "playback_FR"},
	}, PlanLinks(sources, targets))
}

func TestPlanLinksUntaggedTargetUsesFirstSource(t *testing.T) {
	sources := []Port{out("capture_FL", "FL"), out("capture_FR", "FR")}
	targets := []Port{in("input_0", "")}

	assert.Equal(t, []PlannedLink{{SourcePort: "capture_FL", TargetPort: "input_0"}}, PlanLinks(sources, targets))
}

func TestPlanLinksUnmatchedSurroundFallsBackToFirst(t *testing.T) {
	sources := []Port{out("capture_FR", "FR"), out("capture_FL", "FL")}
	targets := []Port{in("playback_RL", "RL"), in("playback_FL", "FL")}

	assert.Equal(t, []PlannedLink{
		{SourcePort: "capture_FL", TargetPort: "playback_FL"},
		{SourcePort: "capture_FR", TargetPort: "playback_RL"},
	}, PlanLinks(sources, targets))
}

func TestPlanLinksDeduplicatesAndIsStable(t *testing.T) {
	sources := []Port{out("capture_MONO", "MONO")}
	targets := []Port{in("playback_FL", "FL"), in("playback_FL", "FL")}

	first := PlanLinks(sources, targets)
	second := PlanLinks(sources, targets)
	assert.Equal(t, []PlannedLink{{SourcePort: "capture_MONO", TargetPort: "playback_FL"}}, first)
	assert.Equal(t, first, second)
}

func TestPlanLinksWithoutSourcesIsEmpty(t *testing.T) {
	assert.Empty(t, PlanLinks(nil, []Port{in("playback_FL", "FL")}))
}

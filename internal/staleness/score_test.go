package staleness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreEntryAllSignalsAvailable(t *testing.T) {
	fd := FileDrift{Available: true, Score: 1.0}
	bd := BacklinkDrift{Available: true, Score: 0.0}
	nd := NeighborDrift{Available: true, Score: 1.0}
	vd := VocabularyDrift{Available: true, Score: 0.5}

	drift, status, signals := ScoreEntry(fd, bd, nd, vd, "medium", DefaultWeights(), DefaultThresholds())
	expected := 0.55*1.0 + 0.25*0.0 + 0.10*1.0 + 0.10*0.5
	assert.InDelta(t, expected, drift, 1e-9)
	assert.Equal(t, StatusStale, status)
	assert.True(t, signals.FileDrift.Available)
}

func TestScoreEntryUnavailableNeighborAndVocabularyFoldIntoConfidence(t *testing.T) {
	fd := FileDrift{Available: true, Score: 1.0}
	bd := BacklinkDrift{Available: false}

	// Only file_drift available directly; neighbor's and vocabulary's weight
	// fold into confidence (backlink's does not, it is simply dropped), then
	// the remaining 0.55+0.20 is renormalized to sum to 1.
	drift, _, signals := ScoreEntry(fd, bd, NeighborDrift{}, VocabularyDrift{}, "low", DefaultWeights(), DefaultThresholds())

	total := signals.FileDrift.Weight + signals.BacklinkDrift.Weight + signals.NeighborDrift.Weight +
		signals.VocabularyDrift.Weight + signals.Confidence.Weight
	assert.InDelta(t, 1.0, total, 1e-9)
	assert.InDelta(t, 0.55/0.75, signals.FileDrift.Weight, 1e-9)
	assert.InDelta(t, 0.20/0.75, signals.Confidence.Weight, 1e-9)
	assert.InDelta(t, 1.0, drift, 1e-9)
}

func TestScoreEntryNoSignalsFallsBackToConfidenceOnly(t *testing.T) {
	drift, _, signals := ScoreEntry(FileDrift{}, BacklinkDrift{}, NeighborDrift{}, VocabularyDrift{}, "high", DefaultWeights(), DefaultThresholds())
	assert.InDelta(t, 1.0, signals.Confidence.Weight, 1e-9)
	assert.Equal(t, 0.0, drift)
}

func TestScoreEntryStatusThresholds(t *testing.T) {
	_, fresh, _ := ScoreEntry(FileDrift{Available: true, Score: 0.0}, BacklinkDrift{Available: true, Score: 0.0}, NeighborDrift{}, VocabularyDrift{}, "high", DefaultWeights(), DefaultThresholds())
	assert.Equal(t, StatusFresh, fresh)

	_, aging, _ := ScoreEntry(FileDrift{Available: true, Score: 0.6}, BacklinkDrift{Available: true, Score: 0.0}, NeighborDrift{}, VocabularyDrift{}, "medium", DefaultWeights(), DefaultThresholds())
	assert.Equal(t, StatusAging, aging)

	_, stale, _ := ScoreEntry(FileDrift{Available: true, Score: 1.0}, BacklinkDrift{Available: true, Score: 1.0}, NeighborDrift{}, VocabularyDrift{}, "low", DefaultWeights(), DefaultThresholds())
	assert.Equal(t, StatusStale, stale)
}

package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestArtifact(t *testing.T) *Artifact {
	t.Helper()
	artifact, err := Load(testArtifactPath)
	require.NoError(t, err)
	return artifact
}

func TestPredictWorkMessage(t *testing.T) {
	artifact := loadTestArtifact(t)

	pred, err := artifact.Predict("Please send me the Q3 report by EOD")
	require.NoError(t, err)

	assert.Equal(t, LabelWork, pred.Label)
	assert.True(t, pred.IsWork())
	assert.GreaterOrEqual(t, pred.Confidence, 0.5)
}

func TestPredictPersonalMessage(t *testing.T) {
	artifact := loadTestArtifact(t)

	pred, err := artifact.Predict("lol that movie was hilarious")
	require.NoError(t, err)

	assert.Equal(t, LabelPersonal, pred.Label)
	assert.False(t, pred.IsWork())
	assert.GreaterOrEqual(t, pred.Confidence, 0.5)
}

func TestPredictDistributionIsValid(t *testing.T) {
	artifact := loadTestArtifact(t)

	pred, err := artifact.Predict("standup moved to 11, join the meeting")
	require.NoError(t, err)

	require.Len(t, pred.Probabilities, 2)
	var sum float64
	for label, p := range pred.Probabilities {
		assert.Contains(t, artifact.Labels(), label)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	// Confidence is the argmax of the distribution, never fabricated.
	assert.Equal(t, pred.Probabilities[pred.Label], pred.Confidence)
	for _, p := range pred.Probabilities {
		assert.LessOrEqual(t, p, pred.Confidence)
	}
}

func TestPredictIsDeterministic(t *testing.T) {
	artifact := loadTestArtifact(t)

	first, err := artifact.Predict("деплой впав, подивись баг в джирі")
	require.NoError(t, err)
	second, err := artifact.Predict("деплой впав, подивись баг в джирі")
	require.NoError(t, err)

	assert.Equal(t, first.Label, second.Label)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.Probabilities, second.Probabilities)
}

func TestPredictBatchPreservesOrder(t *testing.T) {
	artifact := loadTestArtifact(t)

	preds, err := artifact.PredictBatch([]string{
		"merge the fix and cut a release",
		"pizza tonight?",
	})
	require.NoError(t, err)
	require.Len(t, preds, 2)

	assert.Equal(t, LabelWork, preds[0].Label)
	assert.Equal(t, LabelPersonal, preds[1].Label)
}

func TestSoftmaxDegenerateScores(t *testing.T) {
	_, err := softmax([]float64{math.Inf(1), math.Inf(1)})
	assert.ErrorIs(t, err, ErrInference)
}

package model

import (
	"fmt"
	"math"
)

// Prediction is the output of a single inference: the argmax label and the
// full class-probability distribution it was drawn from.
type Prediction struct {
	Label         string
	Confidence    float64
	Probabilities map[string]float64
}

// IsWork reports whether the predicted label is the work label.
func (p Prediction) IsWork() bool {
	return p.Label == LabelWork
}

// Predict runs inference over the frozen transform and trained weights.
// It is pure computation: identical text always yields identical output, and
// concurrent calls need no synchronization.
func (a *Artifact) Predict(text string) (Prediction, error) {
	vec := a.transform.vector(text)

	scores := make([]float64, len(a.labels))
	for i, row := range a.weights {
		s := a.intercepts[i]
		for j, w := range row {
			s += w * vec[j]
		}
		scores[i] = s
	}

	probs, err := softmax(scores)
	if err != nil {
		return Prediction{}, err
	}

	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}

	dist := make(map[string]float64, len(a.labels))
	for i, label := range a.labels {
		dist[label] = probs[i]
	}

	return Prediction{
		Label:         a.labels[best],
		Confidence:    probs[best],
		Probabilities: dist,
	}, nil
}

// PredictBatch classifies a slice of texts in order.
func (a *Artifact) PredictBatch(texts []string) ([]Prediction, error) {
	out := make([]Prediction, 0, len(texts))
	for _, text := range texts {
		p, err := a.Predict(text)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// softmax converts raw scores to a probability distribution. Scores are
// shifted by their max before exponentiation to avoid overflow.
func softmax(scores []float64) ([]float64, error) {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}

	probs := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		probs[i] = math.Exp(s - max)
		sum += probs[i]
	}

	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return nil, fmt.Errorf("%w: degenerate score distribution", ErrInference)
	}

	for i := range probs {
		probs[i] /= sum
		if math.IsNaN(probs[i]) {
			return nil, fmt.Errorf("%w: NaN probability at index %d", ErrInference, i)
		}
	}

	return probs, nil
}

package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

var (
	// ErrArtifactNotFound indicates the artifact path does not exist.
	ErrArtifactNotFound = errors.New("model: artifact not found")
	// ErrArtifactCorrupt indicates the artifact failed to deserialize or is
	// missing a required capability.
	ErrArtifactCorrupt = errors.New("model: artifact corrupt")
	// ErrInference indicates an internal numerical failure. This is a defect,
	// not a recoverable condition.
	ErrInference = errors.New("model: inference failed")
)

// Well-known labels produced by the work classifier.
const (
	LabelWork     = "work"
	LabelPersonal = "personal"
)

// Artifact is the loaded, immutable classifier bundle: the frozen feature
// transform and the trained logistic weights. Safe for concurrent read-only
// use by any number of inference calls.
type Artifact struct {
	version    string
	labels     []string
	loadedAt   time.Time
	transform  *transform
	weights    [][]float64
	intercepts []float64
}

// artifactFile is the on-disk JSON shape of a serialized artifact.
type artifactFile struct {
	Version    string        `json:"version"`
	Labels     []string      `json:"labels"`
	Transform  transformSpec `json:"transform"`
	Weights    [][]float64   `json:"weights"`
	Intercepts []float64     `json:"intercepts"`
}

// Load reads and validates a serialized artifact. It is expected to run once
// at process start; the returned handle is never mutated.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
		}
		return nil, fmt.Errorf("model: read artifact: %w", err)
	}

	var file artifactFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactCorrupt, err)
	}

	if err := file.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactCorrupt, err)
	}

	// Keywords are matched lowercase, exactly as at training time.
	keywords := make([]string, len(file.Transform.Keywords))
	for i, kw := range file.Transform.Keywords {
		keywords[i] = strings.ToLower(kw)
	}

	return &Artifact{
		version:  file.Version,
		labels:   file.Labels,
		loadedAt: time.Now().UTC(),
		transform: &transform{
			keywords:   keywords,
			vocabulary: file.Transform.Vocabulary,
			idf:        file.Transform.IDF,
		},
		weights:    file.Weights,
		intercepts: file.Intercepts,
	}, nil
}

func (f *artifactFile) validate() error {
	if len(f.Labels) < 2 {
		return fmt.Errorf("need at least 2 labels, got %d", len(f.Labels))
	}
	if len(f.Weights) != len(f.Labels) {
		return fmt.Errorf("weight rows (%d) do not match labels (%d)", len(f.Weights), len(f.Labels))
	}
	if len(f.Intercepts) != len(f.Labels) {
		return fmt.Errorf("intercepts (%d) do not match labels (%d)", len(f.Intercepts), len(f.Labels))
	}
	if len(f.Transform.IDF) != len(f.Transform.Vocabulary) {
		return fmt.Errorf("idf entries (%d) do not match vocabulary size (%d)",
			len(f.Transform.IDF), len(f.Transform.Vocabulary))
	}

	dim := keywordFeatureCount + len(f.Transform.Vocabulary)
	for i, row := range f.Weights {
		if len(row) != dim {
			return fmt.Errorf("weight row %d has dim %d, want %d", i, len(row), dim)
		}
	}

	for term, idx := range f.Transform.Vocabulary {
		if idx < 0 || idx >= len(f.Transform.Vocabulary) {
			return fmt.Errorf("vocabulary index out of range for term %q: %d", term, idx)
		}
	}

	return nil
}

// Version returns the artifact's version tag.
func (a *Artifact) Version() string {
	return a.version
}

// Labels returns a copy of the fixed output label set, in trained order.
func (a *Artifact) Labels() []string {
	out := make([]string, len(a.labels))
	copy(out, a.labels)
	return out
}

// LoadedAt returns when the artifact was loaded.
func (a *Artifact) LoadedAt() time.Time {
	return a.loadedAt
}

// FeatureDim returns the dimensionality of the frozen feature transform.
func (a *Artifact) FeatureDim() int {
	return keywordFeatureCount + len(a.transform.vocabulary)
}

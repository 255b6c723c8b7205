package model

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// keywordFeatureCount is the number of hand-crafted keyword features that
// prefix the tf-idf block: kw_count, has_kw, density, char_count, word_count,
// has_question.
const keywordFeatureCount = 6

// transformSpec is the serialized definition of the frozen feature transform.
type transformSpec struct {
	Keywords   []string       `json:"keywords"`
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
}

// transform is the feature extractor bundled with the artifact. It was fit
// together with the classifier weights and must never be altered
// independently; callers hand it raw text with at most leading/trailing
// whitespace removed.
type transform struct {
	keywords   []string
	vocabulary map[string]int
	idf        []float64
}

// vector maps text to the fixed-dimension feature vector: six keyword
// features followed by an l2-normalized tf-idf block over the trained
// vocabulary.
func (t *transform) vector(text string) []float64 {
	lower := strings.ToLower(text)

	kwCount := 0
	for _, kw := range t.keywords {
		if strings.Contains(lower, kw) {
			kwCount++
		}
	}

	hasKw := 0.0
	if kwCount > 0 {
		hasKw = 1
	}

	words := len(strings.Fields(lower))
	density := float64(kwCount) / math.Max(float64(words), 1)

	hasQuestion := 0.0
	if strings.Contains(lower, "?") {
		hasQuestion = 1
	}

	vec := make([]float64, keywordFeatureCount+len(t.vocabulary))
	vec[0] = float64(kwCount)
	vec[1] = hasKw
	vec[2] = density
	vec[3] = float64(utf8.RuneCountInString(lower))
	vec[4] = float64(words)
	vec[5] = hasQuestion

	if len(t.vocabulary) > 0 {
		t.fillTFIDF(lower, vec[keywordFeatureCount:])
	}

	return vec
}

// fillTFIDF writes term-frequency * idf values for in-vocabulary tokens and
// l2-normalizes the block, matching how the artifact was fit.
func (t *transform) fillTFIDF(lower string, out []float64) {
	tokens := tokenize(lower)

	for _, tok := range tokens {
		idx, ok := t.vocabulary[tok]
		if !ok {
			continue
		}
		out[idx] += t.idf[idx]
	}

	var norm float64
	for _, v := range out {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range out {
			out[i] /= norm
		}
	}
}

// tokenize splits on anything that is not a letter or digit.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

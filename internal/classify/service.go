package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vkovalov/workbot/internal/model"
	"github.com/vkovalov/workbot/internal/observability/metrics"
	"github.com/vkovalov/workbot/internal/stats"
	"github.com/vkovalov/workbot/pkg/logging"
)

var (
	// ErrInvalidInput indicates a request that fails validation, e.g. text
	// that is empty after trimming or a missing conversation id.
	ErrInvalidInput = errors.New("classify: invalid input")
	// ErrTextTooLong indicates the text exceeded the configured maximum.
	ErrTextTooLong = errors.New("classify: text exceeds maximum length")
	// ErrTimeout indicates inference missed its latency budget. The model is
	// expected to run sub-millisecond, so hitting this is a latency anomaly.
	ErrTimeout = errors.New("classify: inference timed out")
	// ErrClassification wraps internal inference failures without exposing
	// artifact internals to the caller.
	ErrClassification = errors.New("classify: classification failed")
)

const (
	defaultMaxTextLength    = 4096
	defaultInferenceTimeout = 50 * time.Millisecond
	defaultHighConfidence   = 0.95
)

// Request is a single classification call.
type Request struct {
	Text           string `json:"text"`
	ConversationID string `json:"conversation_id"`
}

// Result is the outcome of a successful classification.
type Result struct {
	Label          string        `json:"label"`
	Confidence     float64       `json:"confidence"`
	IsWork         bool          `json:"is_work"`
	HighConfidence bool          `json:"high_confidence"`
	LatencyMS      float64       `json:"latency_ms"`
	Latency        time.Duration `json:"-"`
}

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	MaxTextLength           int
	InferenceTimeout        time.Duration
	HighConfidenceThreshold float64
}

// Service orchestrates the extractor and classifier behind one call: input
// validation, latency budget, metrics, and the best-effort stats side
// channel. Safe for concurrent use.
type Service struct {
	artifact   *model.Artifact
	aggregator *stats.Aggregator
	logger     *logging.Logger
	metrics    *metrics.EngineMetrics
	tracer     trace.Tracer

	maxTextLength  int
	timeout        time.Duration
	highConfidence float64

	mu    sync.RWMutex
	muted map[string]struct{}
}

// NewService creates a classification service around a loaded artifact.
func NewService(artifact *model.Artifact, aggregator *stats.Aggregator, logger *logging.Logger, m *metrics.EngineMetrics, opts Options) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if opts.MaxTextLength <= 0 {
		opts.MaxTextLength = defaultMaxTextLength
	}
	if opts.InferenceTimeout <= 0 {
		opts.InferenceTimeout = defaultInferenceTimeout
	}
	if opts.HighConfidenceThreshold <= 0 || opts.HighConfidenceThreshold > 1 {
		opts.HighConfidenceThreshold = defaultHighConfidence
	}
	return &Service{
		artifact:       artifact,
		aggregator:     aggregator,
		logger:         logger,
		metrics:        m,
		tracer:         otel.Tracer("workbot/classify"),
		maxTextLength:  opts.MaxTextLength,
		timeout:        opts.InferenceTimeout,
		highConfidence: opts.HighConfidenceThreshold,
	}
}

// Classify validates and classifies one message and, on success, records the
// label for the conversation. Stats failures never fail the classification.
func (s *Service) Classify(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.ConversationID) == "" {
		s.metrics.ObserveError("invalid_input")
		return Result{}, fmt.Errorf("%w: conversation id required", ErrInvalidInput)
	}

	result, err := s.run(ctx, req.Text)
	if err != nil {
		return Result{}, err
	}

	if s.IsMuted(req.ConversationID) {
		return result, nil
	}

	// Best-effort side channel: a full aggregator or a dead store must not
	// take the classification response down with it.
	if err := s.aggregator.Record(ctx, req.ConversationID, result.Label); err != nil {
		s.metrics.ObserveRecordFailure()
		s.logger.Warn("stats update dropped",
			"conversation_id", req.ConversationID,
			"label", result.Label,
			"error", err,
		)
	}

	return result, nil
}

// Check classifies without recording statistics.
func (s *Service) Check(ctx context.Context, text string) (Result, error) {
	return s.run(ctx, text)
}

func (s *Service) run(ctx context.Context, text string) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	text = strings.TrimSpace(text)
	if text == "" {
		s.metrics.ObserveError("invalid_input")
		return Result{}, fmt.Errorf("%w: text is empty", ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(text); n > s.maxTextLength {
		s.metrics.ObserveError("input_too_large")
		return Result{}, fmt.Errorf("%w: %d > %d characters", ErrTextTooLong, n, s.maxTextLength)
	}

	requestID := uuid.NewString()
	ctx, span := s.tracer.Start(ctx, "classify.predict")
	defer span.End()

	start := time.Now()
	pred, err := s.predictWithin(ctx, text)
	latency := time.Since(start)

	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, ErrTimeout):
			s.metrics.ObserveError("timeout")
			s.logger.Warn("inference latency anomaly",
				"request_id", requestID,
				"budget", s.timeout,
				"latency", latency,
			)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			s.metrics.ObserveError("canceled")
		default:
			s.metrics.ObserveError("inference")
			s.logger.Error("inference failed",
				"request_id", requestID,
				"error", err,
			)
		}
		return Result{}, err
	}

	span.SetAttributes(
		attribute.String("classify.label", pred.Label),
		attribute.Float64("classify.confidence", pred.Confidence),
	)
	s.metrics.ObserveClassification(pred.Label, latency.Seconds())
	s.logger.Debug("message classified",
		"request_id", requestID,
		"label", pred.Label,
		"confidence", pred.Confidence,
		"latency", latency,
	)

	return Result{
		Label:          pred.Label,
		Confidence:     pred.Confidence,
		IsWork:         pred.IsWork(),
		HighConfidence: pred.IsWork() && pred.Confidence >= s.highConfidence,
		LatencyMS:      float64(latency.Microseconds()) / 1000,
		Latency:        latency,
	}, nil
}

// predictWithin runs inference under the latency budget. Inference itself is
// pure computation, so on timeout the orphaned goroutine finishes and its
// result is dropped; nothing shared is left half-updated.
func (s *Service) predictWithin(ctx context.Context, text string) (model.Prediction, error) {
	type outcome struct {
		pred model.Prediction
		err  error
	}

	ch := make(chan outcome, 1)
	go func() {
		pred, err := s.artifact.Predict(text)
		ch <- outcome{pred: pred, err: err}
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return model.Prediction{}, ctx.Err()
	case <-timer.C:
		return model.Prediction{}, ErrTimeout
	case out := <-ch:
		if out.err != nil {
			// Log carries the cause; the caller only sees the wrapper.
			s.logger.Error("inference defect", "error", out.err)
			return model.Prediction{}, ErrClassification
		}
		return out.pred, nil
	}
}

// Version returns the loaded artifact's version tag.
func (s *Service) Version() string {
	return s.artifact.Version()
}

// Labels returns the artifact's fixed output label set.
func (s *Service) Labels() []string {
	return s.artifact.Labels()
}

// SetMuted toggles statistics tracking for one conversation. Muted
// conversations are still classified, just never recorded.
func (s *Service) SetMuted(conversationID string, muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.muted == nil {
		s.muted = make(map[string]struct{})
	}
	if muted {
		s.muted[conversationID] = struct{}{}
		return
	}
	delete(s.muted, conversationID)
}

// IsMuted reports whether a conversation's statistics tracking is off.
func (s *Service) IsMuted(conversationID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.muted[conversationID]
	return ok
}

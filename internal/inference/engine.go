// Package inference turns a set of hand landmarks into a predicted sign.
//
// An Engine prefers a trained classifier and falls back to cosine matching
// against the reference dictionary. With neither available every prediction
// is ("unknown", 0).
package inference

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/dictionary"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/telemetry"
)

// UnknownLabel is returned when no sign can be identified.
const UnknownLabel = "unknown"

// DefaultPassThreshold is the confidence a practice attempt must exceed.
const DefaultPassThreshold = 0.75

// Source names the component that produced a prediction.
type Source string

const (
	SourceClassifier Source = "classifier"
	SourceDictionary Source = "dictionary"
	SourceNone       Source = "none"
)

// Prediction is the result of one inference.
type Prediction struct {
	Label      string
	Confidence float64
	Source     Source
}

// Unknown reports whether no sign was identified.
func (p Prediction) Unknown() bool {
	return p.Label == UnknownLabel
}

// Engine holds the loaded artifacts. It is immutable after construction and
// safe for concurrent use.
type Engine struct {
	classifier Classifier
	dict       *dictionary.Dictionary
	labels     []string
	matcher    *gesture.Matcher
	logger     *zap.Logger
	tracer     trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithTracer sets the tracer used for prediction spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// New creates an Engine. classifier and dict may both be nil. The label
// order of dict is captured here and maps classifier output indices to labels.
func New(classifier Classifier, dict *dictionary.Dictionary, opts ...Option) *Engine {
	if dict == nil {
		dict = dictionary.Empty()
	}

	e := &Engine{
		classifier: classifier,
		dict:       dict,
		labels:     dict.Labels(),
		matcher:    gesture.NewMatcher(dict.References()),
		logger:     zap.NewNop(),
		tracer:     telemetry.Tracer("github.com/ayusman/mudra/internal/inference"),
	}
	for _, opt := range opts {
		opt(e)
	}

	metrics.DictionarySize.Set(float64(dict.Len()))
	metrics.ClassifierLoaded.Set(metrics.BoolGauge(classifier != nil))

	return e
}

// LoadConfig names the artifacts loaded at startup.
type LoadConfig struct {
	ModelPath      string
	DictionaryPath string
	ORTLibraryPath string
}

// Load builds an Engine from artifacts on disk. It never fails: a missing or
// unreadable model or dictionary is logged and the engine runs without it.
func Load(cfg LoadConfig, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	var classifier Classifier
	if cls, err := loadClassifier(cfg); err != nil {
		metrics.LoadFailuresTotal.WithLabelValues("model").Inc()
		logger.Warn("running without trained classifier",
			zap.String("path", cfg.ModelPath),
			zap.Error(err),
		)
	} else if cls != nil {
		classifier = cls
		logger.Info("classifier loaded", zap.String("path", cfg.ModelPath))
	}

	dict, err := loadDictionary(cfg.DictionaryPath)
	if err != nil {
		metrics.LoadFailuresTotal.WithLabelValues("dictionary").Inc()
		logger.Warn("running without reference dictionary",
			zap.String("path", cfg.DictionaryPath),
			zap.Error(err),
		)
		dict = dictionary.Empty()
	} else {
		logger.Info("dictionary loaded",
			zap.String("path", cfg.DictionaryPath),
			zap.Int("signs", dict.Len()),
		)
	}

	opts = append([]Option{WithLogger(logger)}, opts...)
	return New(classifier, dict, opts...)
}

func loadClassifier(cfg LoadConfig) (*ONNXClassifier, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("%w: no model path configured", ErrModelLoad)
	}
	cls, err := NewONNXClassifier(cfg.ModelPath, cfg.ORTLibraryPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelLoad, err)
	}
	return cls, nil
}

func loadDictionary(path string) (*dictionary.Dictionary, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no dictionary path configured", ErrDictionaryLoad)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDictionaryLoad, err)
	}
	dict, err := dictionary.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDictionaryLoad, err)
	}
	return dict, nil
}

// ClassifierLoaded reports whether a trained classifier is available.
func (e *Engine) ClassifierLoaded() bool {
	return e.classifier != nil
}

// DictionarySize returns the number of reference signs.
func (e *Engine) DictionarySize() int {
	return e.dict.Len()
}

// Dictionary returns the loaded reference dictionary, never nil.
func (e *Engine) Dictionary() *dictionary.Dictionary {
	return e.dict
}

// Labels returns the ordered label list.
func (e *Engine) Labels() []string {
	out := make([]string, len(e.labels))
	copy(out, e.labels)
	return out
}

// Close releases the classifier.
func (e *Engine) Close() error {
	if e.classifier == nil {
		return nil
	}
	return e.classifier.Close()
}

// PredictRows validates raw landmark rows and predicts. Shape problems are
// returned as detector.ErrInvalidShape.
func (e *Engine) PredictRows(ctx context.Context, rows [][]float64) (Prediction, error) {
	lm, err := detector.ParseLandmarks(rows)
	if err != nil {
		return Prediction{}, err
	}
	return e.Predict(ctx, lm)
}

// Predict normalizes lm and identifies the sign.
func (e *Engine) Predict(ctx context.Context, lm detector.Landmarks) (Prediction, error) {
	_, span := e.tracer.Start(ctx, "inference.Predict")
	defer span.End()

	start := time.Now()
	pred, err := e.predict(lm)
	source := string(pred.Source)
	if err != nil {
		source = e.source()
	}
	metrics.PredictionDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.PredictionsTotal.WithLabelValues(source, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Error("prediction failed", zap.String("source", source), zap.Error(err))
		return Prediction{}, err
	}

	status := "ok"
	if pred.Unknown() {
		status = "unknown"
	}
	metrics.PredictionsTotal.WithLabelValues(source, status).Inc()
	metrics.PredictionConfidence.Observe(pred.Confidence)
	span.SetAttributes(
		attribute.String("mudra.source", source),
		attribute.String("mudra.sign", pred.Label),
		attribute.Float64("mudra.confidence", pred.Confidence),
	)

	return pred, nil
}

func (e *Engine) source() string {
	switch {
	case e.classifier != nil:
		return string(SourceClassifier)
	case e.matcher.Len() > 0:
		return string(SourceDictionary)
	default:
		return string(SourceNone)
	}
}

func (e *Engine) predict(lm detector.Landmarks) (Prediction, error) {
	if e.classifier == nil && e.matcher.Len() == 0 {
		return Prediction{Label: UnknownLabel, Source: SourceNone}, nil
	}

	normalized := lm.Normalize()

	if e.classifier != nil {
		return e.classify(normalized)
	}

	best, ok, err := e.matcher.Best(normalized.Flatten())
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: %w", ErrInference, err)
	}
	if !ok {
		return Prediction{Label: UnknownLabel, Source: SourceDictionary}, nil
	}
	return Prediction{Label: best.Label, Confidence: best.Score, Source: SourceDictionary}, nil
}

func (e *Engine) classify(normalized detector.Landmarks) (Prediction, error) {
	scores, err := e.classifier.Predict(normalized.Float32())
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: %w", ErrInference, err)
	}
	if len(scores) == 0 {
		return Prediction{}, fmt.Errorf("%w: classifier returned no scores", ErrInference)
	}

	idx := 0
	for i, s := range scores {
		if s > scores[idx] {
			idx = i
		}
	}

	label := UnknownLabel
	if idx < len(e.labels) {
		label = e.labels[idx]
	}
	return Prediction{
		Label:      label,
		Confidence: float64(scores[idx]),
		Source:     SourceClassifier,
	}, nil
}

// Rank scores lm against every reference sign, best first, returning at most
// limit matches. limit <= 0 returns all of them.
func (e *Engine) Rank(ctx context.Context, lm detector.Landmarks, limit int) ([]gesture.Match, error) {
	_, span := e.tracer.Start(ctx, "inference.Rank")
	defer span.End()

	matches, err := e.matcher.Rank(lm.Normalize().Flatten())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %w", ErrInference, err)
	}
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// IsInputError reports whether err was caused by the caller's landmarks
// rather than by the engine.
func IsInputError(err error) bool {
	return errors.Is(err, detector.ErrInvalidShape)
}

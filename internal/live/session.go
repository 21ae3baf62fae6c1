// Package live recognizes signs from a camera feed.
//
// A Session reads frames at a low rate until the motion detector sees
// movement, then speeds up and runs hand detection and inference on every
// frame. A sign is reported once it has been predicted for several
// consecutive frames, and not again until it changes or the hand leaves.
package live

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/inference"
	"github.com/ayusman/mudra/internal/metrics"
)

// Pipeline defaults.
const (
	// IdleFPS is the frame rate while nothing moves.
	IdleFPS = 5
	// ActiveFPS is the frame rate while a hand is being tracked.
	ActiveFPS = 15
	// DefaultIdleTimeout is how long without motion before dropping to IdleFPS.
	DefaultIdleTimeout = 2 * time.Second
	// DefaultStableFrames is how many consecutive frames must agree on a sign.
	DefaultStableFrames = 3
)

// ErrIncomplete is returned by New when a required component is missing.
var ErrIncomplete = errors.New("live session needs a camera, a detector and an engine")

// Config holds the components and tuning of a Session.
type Config struct {
	Camera   capture.Camera
	Detector detector.Detector
	Engine   *inference.Engine
	// Motion gates detection. Without it every frame is processed.
	Motion *capture.MotionDetector
	Logger *zap.Logger

	// Target switches the session to practice mode: every result says
	// whether it matched Target with enough confidence.
	Target        string
	PassThreshold float64

	IdleFPS      int
	ActiveFPS    int
	IdleTimeout  time.Duration
	StableFrames int
}

// Result is a sign reported by a Session.
type Result struct {
	Sign       string    `json:"predicted_sign"`
	Confidence float64   `json:"confidence"`
	Handedness string    `json:"handedness"`
	Target     string    `json:"target,omitempty"`
	IsCorrect  *bool     `json:"is_correct,omitempty"`
	Time       time.Time `json:"time"`
}

// Session runs the capture pipeline. It is not safe for concurrent use.
type Session struct {
	config Config

	candidate string
	streak    int
	reported  string
}

// New validates cfg and fills in defaults.
func New(cfg Config) (*Session, error) {
	if cfg.Camera == nil || cfg.Detector == nil || cfg.Engine == nil {
		return nil, ErrIncomplete
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.PassThreshold <= 0 {
		cfg.PassThreshold = inference.DefaultPassThreshold
	}
	if cfg.IdleFPS <= 0 {
		cfg.IdleFPS = IdleFPS
	}
	if cfg.ActiveFPS <= 0 {
		cfg.ActiveFPS = ActiveFPS
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.StableFrames <= 0 {
		cfg.StableFrames = DefaultStableFrames
	}
	return &Session{config: cfg}, nil
}

// Run reads frames until ctx is cancelled or a recorded source ends, calling
// emit for every reported sign. Frame and detection errors are logged and
// skipped.
func (s *Session) Run(ctx context.Context, emit func(Result)) error {
	cam := s.config.Camera
	logger := s.config.Logger

	if err := cam.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	defer func() {
		if err := cam.Close(); err != nil {
			logger.Warn("closing camera failed", zap.Error(err))
		}
	}()
	if s.config.Motion != nil {
		defer s.config.Motion.Reset()
	}

	active := s.config.Motion == nil
	fps := s.config.IdleFPS
	if active {
		fps = s.config.ActiveFPS
	}
	cam.SetFPS(fps)

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	lastMotion := time.Now()
	logger.Info("live session started", zap.Int("fps", fps), zap.String("target", s.config.Target))

	for {
		select {
		case <-ctx.Done():
			logger.Info("live session stopped")
			return nil
		case <-ticker.C:
		}

		frame, err := cam.ReadFrame()
		if errors.Is(err, capture.ErrEndOfStream) {
			logger.Info("live session reached end of stream")
			return nil
		}
		if err != nil {
			metrics.LiveFramesTotal.WithLabelValues("error").Inc()
			logger.Warn("reading frame failed", zap.Error(err))
			continue
		}

		if s.config.Motion != nil {
			motion := s.config.Motion.Detect(frame)
			switch {
			case motion.Moved:
				lastMotion = time.Now()
				if !active {
					active = true
					s.setRate(ticker, s.config.ActiveFPS)
					logger.Debug("switched to active mode",
						zap.Float64("changed", motion.Changed),
						zap.Float64("threshold", s.config.Motion.Threshold()),
					)
				}
			case active && time.Since(lastMotion) > s.config.IdleTimeout:
				active = false
				s.setRate(ticker, s.config.IdleFPS)
				s.candidate, s.streak = "", 0
				logger.Debug("switched to idle mode")
			}
		}

		if !active {
			frame.Close()
			metrics.LiveFramesTotal.WithLabelValues("still").Inc()
			continue
		}

		result, ok, err := s.process(ctx, frame)
		frame.Close()
		if err != nil {
			metrics.LiveFramesTotal.WithLabelValues("error").Inc()
			logger.Warn("processing frame failed", zap.Error(err))
			continue
		}
		if ok {
			metrics.LiveResultsTotal.Inc()
			emit(result)
		}
	}
}

func (s *Session) setRate(ticker *time.Ticker, fps int) {
	s.config.Camera.SetFPS(fps)
	ticker.Reset(time.Second / time.Duration(fps))
}

// process detects the best hand in frame and feeds its prediction to the
// stability tracker.
func (s *Session) process(ctx context.Context, frame *gocv.Mat) (Result, bool, error) {
	hands, err := s.config.Detector.Detect(frame)
	if err != nil {
		return Result{}, false, fmt.Errorf("detect hands: %w", err)
	}

	hand, ok := detector.Best(hands)
	if !ok {
		metrics.LiveFramesTotal.WithLabelValues("no_hand").Inc()
		s.candidate, s.streak, s.reported = "", 0, ""
		return Result{}, false, nil
	}
	metrics.LiveFramesTotal.WithLabelValues("hand").Inc()

	pred, err := s.config.Engine.Predict(ctx, hand.Points)
	if err != nil {
		return Result{}, false, err
	}

	result, ok := s.observe(pred, hand.Handedness)
	return result, ok, nil
}

// observe reports pred once it has been stable for StableFrames frames and
// differs from the last reported sign.
func (s *Session) observe(pred inference.Prediction, handedness string) (Result, bool) {
	if pred.Unknown() {
		s.candidate, s.streak = "", 0
		return Result{}, false
	}

	if pred.Label == s.candidate {
		s.streak++
	} else {
		s.candidate, s.streak = pred.Label, 1
	}
	if s.streak < s.config.StableFrames || pred.Label == s.reported {
		return Result{}, false
	}
	s.reported = pred.Label

	result := Result{
		Sign:       pred.Label,
		Confidence: pred.Confidence,
		Handedness: handedness,
		Time:       time.Now(),
	}
	if s.config.Target != "" {
		correct := pred.Label == s.config.Target && pred.Confidence > s.config.PassThreshold
		result.Target = s.config.Target
		result.IsCorrect = &correct
	}
	return result, true
}

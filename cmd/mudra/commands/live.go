package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/inference"
	"github.com/ayusman/mudra/internal/live"
)

var liveFlags struct {
	source   string
	target   string
	motion   float64
	noMotion bool
	stable   int
}

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Recognize signs from a webcam or video file",
	Long: `Reads frames from a camera (or a recorded clip), detects the hand with
MediaPipe and prints one JSON line per recognized sign.

With --target the session becomes a practice session and every line says
whether the sign matched the target.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if flags.Changed("source") {
			cfg.CameraSource = liveFlags.source
		}
		if flags.Changed("motion-threshold") {
			cfg.MotionThreshold = liveFlags.motion
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		dc := detector.DefaultConfig()
		dc.ScriptPath = cfg.MediaPipeScript
		hands, err := detector.NewMediaPipeDetector(dc)
		if err != nil {
			return fmt.Errorf("hand detector unavailable: %w", err)
		}
		defer hands.Close()

		engine := inference.Load(inference.LoadConfig{
			ModelPath:      cfg.ModelPath,
			DictionaryPath: cfg.DictionaryPath,
			ORTLibraryPath: cfg.ORTLibraryPath,
		}, logger)
		defer engine.Close()

		if liveFlags.target != "" {
			if _, ok := engine.Dictionary().Vector(liveFlags.target); !ok {
				logger.Warn("practice target is not in the dictionary", zap.String("target", liveFlags.target))
			}
		}

		var motion *capture.MotionDetector
		if !liveFlags.noMotion && !capture.IsFile(cfg.CameraSource) {
			motion = capture.NewMotionDetector(cfg.MotionThreshold)
			defer motion.Close()
			logger.Info("motion gating enabled", zap.Float64("threshold", motion.Threshold()))
		}

		session, err := live.New(live.Config{
			Camera:        capture.NewCamera(cfg.CameraSource),
			Detector:      hands,
			Engine:        engine,
			Motion:        motion,
			Logger:        logger,
			Target:        liveFlags.target,
			PassThreshold: cfg.PassThreshold,
			StableFrames:  liveFlags.stable,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		enc := json.NewEncoder(cmd.OutOrStdout())
		return session.Run(ctx, func(r live.Result) {
			if err := enc.Encode(r); err != nil {
				logger.Warn("writing result failed", zap.Error(err))
			}
		})
	},
}

func init() {
	f := liveCmd.Flags()
	f.StringVar(&liveFlags.source, "source", "0", "Camera index or video file (MUDRA_CAMERA_SOURCE)")
	f.StringVar(&liveFlags.target, "target", "", "Practice this sign and report whether each attempt matches")
	f.Float64Var(&liveFlags.motion, "motion-threshold", capture.DefaultMotionThreshold, "Percent of changed pixels that wakes detection (MUDRA_MOTION_THRESHOLD)")
	f.BoolVar(&liveFlags.noMotion, "no-motion", false, "Run detection on every frame")
	f.IntVar(&liveFlags.stable, "stable", live.DefaultStableFrames, "Consecutive frames that must agree before a sign is reported")
}

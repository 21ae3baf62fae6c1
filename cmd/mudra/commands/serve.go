package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/inference"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/telemetry"
	"github.com/ayusman/mudra/internal/version"
)

var serveFlags struct {
	addr       string
	model      string
	dictionary string
	frames     bool
	logLevel   string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP inference service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyServeFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		shutdownTracing, err := telemetry.Init(ctx, version.Current, cfg.OTLPEndpoint)
		if err != nil {
			return err
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(flushCtx); err != nil {
				logger.Warn("tracing shutdown failed", zap.Error(err))
			}
		}()

		engine := inference.Load(inference.LoadConfig{
			ModelPath:      cfg.ModelPath,
			DictionaryPath: cfg.DictionaryPath,
			ORTLibraryPath: cfg.ORTLibraryPath,
		}, logger)
		defer engine.Close()

		var hands detector.Detector
		if cfg.EnableFrames {
			hands = newDetector(cfg, logger)
			if hands != nil {
				defer hands.Close()
			}
		}

		srv := server.New(server.Config{
			Engine:        engine,
			Detector:      hands,
			Logger:        logger,
			PassThreshold: cfg.PassThreshold,
			MaxBodyBytes:  cfg.MaxBodyBytes,
			Version:       version.Current,
		})

		logger.Info("starting mudra",
			zap.String("version", version.Current),
			zap.String("addr", cfg.ListenAddr),
			zap.Bool("model_loaded", engine.ClassifierLoaded()),
			zap.Int("dictionary_size", engine.DictionarySize()),
			zap.Bool("frames", hands != nil),
		)

		return srv.ListenAndServe(ctx, cfg.ListenAddr, server.ServeOptions{
			ReadTimeout:     cfg.ReadTimeout,
			WriteTimeout:    cfg.WriteTimeout,
			ShutdownTimeout: cfg.ShutdownTimeout,
		})
	},
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.addr, "addr", "", "Listen address (MUDRA_LISTEN_ADDR)")
	f.StringVar(&serveFlags.model, "model", "", "Trained ONNX classifier (MUDRA_MODEL_PATH)")
	f.StringVar(&serveFlags.dictionary, "dictionary", "", "Reference dictionary, .npz or .db (MUDRA_DICTIONARY_PATH)")
	f.BoolVar(&serveFlags.frames, "frames", false, "Enable /predict/frame with MediaPipe (MUDRA_ENABLE_FRAMES)")
	f.StringVar(&serveFlags.logLevel, "log-level", "", "Log level (MUDRA_LOG_LEVEL)")
}

// applyServeFlags overrides environment settings with explicitly set flags.
func applyServeFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("addr") {
		c.ListenAddr = serveFlags.addr
	}
	if flags.Changed("model") {
		c.ModelPath = serveFlags.model
	}
	if flags.Changed("dictionary") {
		c.DictionaryPath = serveFlags.dictionary
	}
	if flags.Changed("frames") {
		c.EnableFrames = serveFlags.frames
	}
	if flags.Changed("log-level") {
		c.LogLevel = serveFlags.logLevel
	}
}

// newDetector starts the MediaPipe helper, or returns nil when it is unavailable.
func newDetector(c *config.Config, logger *zap.Logger) detector.Detector {
	dc := detector.DefaultConfig()
	dc.ScriptPath = c.MediaPipeScript

	d, err := detector.NewMediaPipeDetector(dc)
	if err != nil {
		logger.Warn("frame prediction disabled", zap.Error(err))
		return nil
	}
	return d
}

package commands

import (
	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/inference"
	"github.com/ayusman/mudra/internal/logging"
)

var predictFlags struct {
	input      string
	model      string
	dictionary string
	top        int
}

type predictOutput struct {
	PredictedSign string        `json:"predicted_sign"`
	Confidence    float64       `json:"confidence"`
	Source        string        `json:"source"`
	Ranking       []rankedMatch `json:"ranking,omitempty"`
}

type rankedMatch struct {
	Sign  string  `json:"sign"`
	Score float64 `json:"score"`
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict the sign of one landmarks file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("model") {
			cfg.ModelPath = predictFlags.model
		}
		if cmd.Flags().Changed("dictionary") {
			cfg.DictionaryPath = predictFlags.dictionary
		}

		rows, err := readLandmarks(predictFlags.input)
		if err != nil {
			return err
		}
		lm, err := detector.ParseLandmarks(rows)
		if err != nil {
			return err
		}

		// Load problems are reported on stderr, the result on stdout
		logger, err := logging.NewLogger(logging.Config{Format: "console", Level: "warn"})
		if err != nil {
			return err
		}
		engine := inference.Load(inference.LoadConfig{
			ModelPath:      cfg.ModelPath,
			DictionaryPath: cfg.DictionaryPath,
			ORTLibraryPath: cfg.ORTLibraryPath,
		}, logger)
		defer engine.Close()

		pred, err := engine.Predict(cmd.Context(), lm)
		if err != nil {
			return err
		}

		out := predictOutput{
			PredictedSign: pred.Label,
			Confidence:    pred.Confidence,
			Source:        string(pred.Source),
		}
		if predictFlags.top > 0 && engine.DictionarySize() > 0 {
			matches, err := engine.Rank(cmd.Context(), lm, predictFlags.top)
			if err != nil {
				return err
			}
			for _, m := range matches {
				out.Ranking = append(out.Ranking, rankedMatch{Sign: m.Label, Score: m.Score})
			}
		}

		return printJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	f := predictCmd.Flags()
	f.StringVarP(&predictFlags.input, "input", "i", "-", "Landmarks JSON file, - for stdin")
	f.StringVar(&predictFlags.model, "model", "", "Trained ONNX classifier (MUDRA_MODEL_PATH)")
	f.StringVar(&predictFlags.dictionary, "dictionary", "", "Reference dictionary (MUDRA_DICTIONARY_PATH)")
	f.IntVar(&predictFlags.top, "top", 0, "Also list the n most similar reference signs")
}

package commands

import (
	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/gesture"
)

var featuresInput string

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Print the 292-value feature vector of a landmarks file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := readLandmarks(featuresInput)
		if err != nil {
			return err
		}
		features, err := gesture.ExtractFeatures(rows)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), features)
	},
}

func init() {
	featuresCmd.Flags().StringVarP(&featuresInput, "input", "i", "-", "Landmarks JSON file, - for stdin")
}

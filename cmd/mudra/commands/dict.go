package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/dictionary"
	"github.com/ayusman/mudra/internal/store"
)

var dictCmd = &cobra.Command{
	Use:   "dict",
	Short: "Build and inspect reference sign dictionaries",
}

var dictImportFlags struct {
	input  string
	output string
}

var dictImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Average recorded samples into a reference dictionary",
	Long: `Reads a JSON array of {"label": "...", "samples": [[[x,y,z] x 21], ...]}
objects. Each label's samples are normalized and averaged into one reference.
The output format follows the extension: .npz or .db/.sqlite.
Entry order in the file becomes the label order of the dictionary.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(dictImportFlags.input)
		if err != nil {
			return err
		}

		var signs []dictionary.Samples
		if err := json.Unmarshal(data, &signs); err != nil {
			return fmt.Errorf("parse samples: %w", err)
		}

		dict, counts, err := dictionary.Build(signs)
		if err != nil {
			return err
		}

		if err := saveDictionary(dictImportFlags.output, dict, counts); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d signs to %s\n", dict.Len(), dictImportFlags.output)
		return nil
	},
}

// saveDictionary writes dict to path, keeping sample counts in SQLite output.
func saveDictionary(path string, dict *dictionary.Dictionary, counts map[string]int) error {
	format, err := dictionary.FormatOf(path)
	if err != nil {
		return err
	}
	if format != dictionary.FormatSQLite {
		return dictionary.Save(path, dict)
	}

	st, err := store.New(path)
	if err != nil {
		return err
	}
	defer st.Close()
	return dictionary.ToStore(st, dict, counts)
}

var dictListPath string

var dictListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the signs of a dictionary in label order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := dictListPath
		if path == "" {
			path = cfg.DictionaryPath
		}

		dict, err := dictionary.Load(path)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "INDEX\tLABEL\tVALUES")
		for i, e := range dict.Entries() {
			fmt.Fprintf(w, "%d\t%s\t%d\n", i, e.Label, len(e.Vector))
		}
		return w.Flush()
	},
}

var dictAddFlags struct {
	input      string
	dictionary string
}

var dictAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Append signs to a SQLite dictionary",
	Long: `Reads the same samples JSON as import and appends each sign after the
signs already in the database. Existing labels are rejected.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(dictAddFlags.input)
		if err != nil {
			return err
		}

		var signs []dictionary.Samples
		if err := json.Unmarshal(data, &signs); err != nil {
			return fmt.Errorf("parse samples: %w", err)
		}

		st, err := openSignStore(dictAddFlags.dictionary, store.New)
		if err != nil {
			return err
		}
		defer st.Close()

		for _, s := range signs {
			if err := dictionary.AddSign(st, s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%d samples)\n", s.Label, len(s.Samples))
		}
		return nil
	},
}

var dictRemovePath string

var dictRemoveCmd = &cobra.Command{
	Use:   "remove LABEL...",
	Short: "Remove signs from a SQLite dictionary",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openSignStore(dictRemovePath, store.Open)
		if err != nil {
			return err
		}
		defer st.Close()

		for _, label := range args {
			if err := dictionary.RemoveSign(st, label); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", label)
		}
		return nil
	},
}

// openSignStore opens path, or the configured dictionary, as a SQLite store.
func openSignStore(path string, open func(string) (*store.Store, error)) (*store.Store, error) {
	if path == "" {
		path = cfg.DictionaryPath
	}
	format, err := dictionary.FormatOf(path)
	if err != nil {
		return nil, err
	}
	if format != dictionary.FormatSQLite {
		return nil, fmt.Errorf("%s: signs can only be edited in a SQLite dictionary", path)
	}
	return open(path)
}

func init() {
	dictImportCmd.Flags().StringVarP(&dictImportFlags.input, "input", "i", "-", "Samples JSON file, - for stdin")
	dictImportCmd.Flags().StringVarP(&dictImportFlags.output, "output", "o", "", "Output dictionary (.npz, .db)")
	dictImportCmd.MarkFlagRequired("output")

	dictListCmd.Flags().StringVarP(&dictListPath, "dictionary", "d", "", "Dictionary to list (MUDRA_DICTIONARY_PATH)")

	dictAddCmd.Flags().StringVarP(&dictAddFlags.input, "input", "i", "-", "Samples JSON file, - for stdin")
	dictAddCmd.Flags().StringVarP(&dictAddFlags.dictionary, "dictionary", "d", "", "SQLite dictionary to edit (MUDRA_DICTIONARY_PATH)")

	dictRemoveCmd.Flags().StringVarP(&dictRemovePath, "dictionary", "d", "", "SQLite dictionary to edit (MUDRA_DICTIONARY_PATH)")

	dictCmd.AddCommand(dictImportCmd)
	dictCmd.AddCommand(dictListCmd)
	dictCmd.AddCommand(dictAddCmd)
	dictCmd.AddCommand(dictRemoveCmd)
}

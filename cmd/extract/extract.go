// Package extract prints the text lines extracted from a statement PDF.
package extract

import (
	"fmt"
	"io"

	"dbkr/kontoauszug-reader/cmd/root"
	"dbkr/kontoauszug-reader/internal/pdfparser"

	"github.com/spf13/cobra"
)

var numbered bool

// Cmd represents the extract command
var Cmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Print the text lines extracted from a statement",
	Long: `Print the text lines the decoder sees for one statement PDF, one per line.
Useful to check why a statement does not decode as expected.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := root.GetContainer()
		if c == nil {
			return fmt.Errorf("container not initialized")
		}
		return Run(c.GetExtractor(), args[0], numbered, cmd.OutOrStdout())
	},
}

func init() {
	Cmd.Flags().BoolVarP(&numbered, "number", "n", false, "prefix every line with its line number")
}

// Run writes the lines extracted from path to w.
func Run(extractor pdfparser.Extractor, path string, numbered bool, w io.Writer) error {
	lines, err := extractor.ExtractLines(path)
	if err != nil {
		return err
	}
	for i, line := range lines {
		var werr error
		if numbered {
			_, werr = fmt.Fprintf(w, "%5d  %s\n", i+1, line)
		} else {
			_, werr = fmt.Fprintln(w, line)
		}
		if werr != nil {
			return fmt.Errorf("failed to write line: %w", werr)
		}
	}
	return nil
}

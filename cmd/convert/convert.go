// Package convert implements the statement conversion command.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"

	"dbkr/kontoauszug-reader/cmd/root"
	"dbkr/kontoauszug-reader/internal/batch"
	"dbkr/kontoauszug-reader/internal/container"
	"dbkr/kontoauszug-reader/internal/fileutils"
	"dbkr/kontoauszug-reader/internal/logging"
	"dbkr/kontoauszug-reader/internal/output"
	"dbkr/kontoauszug-reader/internal/parsererror"

	"github.com/spf13/cobra"
)

// Flags holds the options that only make sense for one conversion run.
// Options shared with the configuration file are read from the container.
type Flags struct {
	Quiet       bool
	Verbose     bool
	PerDocument bool
	Lines       bool
	Update      bool
	Month       bool
	BookingDate bool
	Output      string
	Dir         string
}

var flags Flags

// Cmd represents the convert command
var Cmd = &cobra.Command{
	Use:   "convert [flags] <file|dir>...",
	Short: "Decode statement PDFs into records",
	Long: `Decode one or more statement PDFs (or pre-extracted .txt files) into records.

By default every statement is written to stdout as one record. With -d each
booking line becomes its own file in a year/month/day tree below the given
directory; with -j one record file is written next to each PDF.

Arguments starting with '#' are ignored.

Examples:
  kontoauszug convert -r -p Kontoauszug_ ~/statements
  kontoauszug convert -d ~/bookings -m -b Kontoauszug_2018_01.pdf
  kontoauszug convert -j --format yaml statements/`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := root.GetContainer()
		if c == nil {
			return fmt.Errorf("container not initialized")
		}
		result, err := Run(cmd.Context(), c, flags, args, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if result.Failed() {
			return fmt.Errorf("%d of %d documents failed: %s",
				len(result.Failures), result.Documents, result.FailureSummary())
		}
		return nil
	},
}

func init() {
	f := Cmd.Flags()
	f.BoolP("recurse", "r", false, "descend into subdirectories")
	f.StringP("prefix", "p", "", "only accept files whose name starts with this prefix when scanning directories")
	f.BoolVarP(&flags.Quiet, "quiet", "q", false, "do not print the number of booking lines processed")
	f.BoolVarP(&flags.Verbose, "verbose", "v", false, "print the name of every file written")
	f.BoolVarP(&flags.PerDocument, "json", "j", false, "write one record file next to each statement")
	f.BoolVar(&flags.Lines, "lines", false, "emit one record per booking line instead of one per statement")
	f.BoolVarP(&flags.Update, "update", "u", false, "overwrite existing record files")
	f.BoolVarP(&flags.Month, "month", "m", false, "stop the -d directory tree at month level")
	f.BoolVarP(&flags.BookingDate, "booking-date", "b", false, "use the booking date instead of the value date for -d")
	f.BoolP("one-line", "1", false, "write JSON records on a single line")
	f.StringVarP(&flags.Output, "output", "o", "", "write the record stream to this file instead of stdout")
	f.StringVarP(&flags.Dir, "dir", "d", "", "base directory of the per-date tree (must exist)")
	f.String("format", "json", "record format (json, csv, yaml)")
	f.String("csv-delimiter", ",", "CSV field delimiter")
	f.Bool("strict", false, "keep a booking line left open by a truncated statement")
	f.Int("workers", 0, "number of documents parsed in parallel (default: number of CPUs)")
	f.Bool("fail-fast", false, "stop at the first document that cannot be read")
}

// CheckConflicts rejects flag combinations that select more than one
// output mode or a modifier the selected mode cannot honor.
func (f Flags) CheckConflicts() error {
	switch {
	case f.PerDocument && f.Output != "":
		return &parsererror.ConfigError{Option: "-j", Reason: "cannot be combined with an output file (-o)"}
	case f.PerDocument && f.Dir != "":
		return &parsererror.ConfigError{Option: "-j", Reason: "cannot be combined with directory mode (-d)"}
	case f.Output != "" && f.Dir != "":
		return &parsererror.ConfigError{Option: "-o", Reason: "cannot be combined with directory mode (-d)"}
	case f.Update && f.Dir == "" && !f.PerDocument:
		return &parsererror.ConfigError{Option: "-u", Reason: "can only be used with -d or -j"}
	case f.Month && f.Dir == "":
		return &parsererror.ConfigError{Option: "-m", Reason: "can only be used with -d"}
	case f.PerDocument && f.Lines:
		return &parsererror.ConfigError{Option: "-j", Reason: "cannot emit single booking lines (--lines)"}
	case f.Dir != "" && f.Lines:
		return &parsererror.ConfigError{Option: "--lines", Reason: "directory mode always writes single booking lines"}
	}
	return nil
}

// Mode returns the output mode the flags select.
func (f Flags) Mode() output.Mode {
	switch {
	case f.Dir != "":
		return output.ModePerDate
	case f.PerDocument:
		return output.ModePerDocument
	default:
		return output.ModeStream
	}
}

// RouterOptions combines the configured output settings with the flags.
// Configured overwrite and month settings only apply where the mode
// supports them; the flags are passed through so that misuse is reported.
func (f Flags) RouterOptions(c *container.Container) output.Options {
	mode := f.Mode()
	opts := c.OutputOptions(mode)
	opts.BaseDir = f.Dir
	opts.LineGranularity = f.Lines
	opts.Overwrite = (opts.Overwrite && mode != output.ModeStream) || f.Update
	opts.MonthOnly = (opts.MonthOnly && mode == output.ModePerDate) || f.Month
	if f.BookingDate {
		opts.DateField = output.DateFieldBooking
	}
	return opts
}

// Run converts the documents named by args and writes the summary line to
// stdout. Document failures are reported in the Result, not as error.
func Run(ctx context.Context, c *container.Container, f Flags, args []string, stdout io.Writer) (*batch.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := c.GetLogger()

	if err := f.CheckConflicts(); err != nil {
		return nil, err
	}
	if f.Dir != "" {
		if !fileutils.DirectoryExists(c.GetFS(), f.Dir) {
			return nil, &parsererror.ConfigError{Option: "-d", Reason: fmt.Sprintf("directory %s does not exist", f.Dir)}
		}
	}

	opts := f.RouterOptions(c)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	paths, err := c.GetScanner().ScanPaths(args)
	if err != nil {
		return nil, err
	}

	sink := stdout
	if f.Output != "" {
		file, err := c.GetFS().OpenFile(f.Output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", f.Output, err)
		}
		defer func() {
			if cerr := file.Close(); cerr != nil {
				logger.WithError(cerr).Warn("Failed to close output file", logging.F(logging.FieldOutputFile, f.Output))
			}
		}()
		sink = file
	}

	var routerOpts []output.RouterOption
	if f.Verbose {
		routerOpts = append(routerOpts, output.WithOnWrite(func(path string) {
			fmt.Fprintln(stdout, path)
		}))
	}
	router, err := c.NewRouter(sink, opts, routerOpts...)
	if err != nil {
		return nil, err
	}

	result, runErr := c.NewProcessor(router).Run(ctx, paths)
	if err := router.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to finish output: %w", err)
	}
	if runErr != nil {
		return result, runErr
	}

	if !f.Quiet {
		fmt.Fprintf(stdout, "Number of booking lines processed: %d\n", result.Output.LinesEmitted)
	}
	return result, nil
}

// Command parsha answers weekly Torah reading and Hebrew calendar
// questions from the command line.
//
// Usage:
//
//	parsha lookup 1988-11-05
//	parsha year 5785 --il
//	parsha find 5781 Chukat-Balak --containing
//	parsha convert 2024-04-23
//	parsha convert 5785 Adar 14
//	parsha keviot --from 5700 --to 6000
//	parsha materialize --from 5785 --years 10
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/parsha-api/internal/calendar"
	"github.com/zapponejosh/parsha-api/internal/logger"
)

const (
	Version = "0.1.0"
	appName = "parsha"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options are the flags shared by every subcommand.
type options struct {
	logLevel string
	asJSON   bool
	israel   bool

	// now is the clock behind "today"; tests replace it.
	now func() time.Time
}

func (o *options) logger(w io.Writer) *slog.Logger {
	return logger.New(w, o.logLevel, "text")
}

func (o *options) resolver(w io.Writer) *calendar.Resolver {
	return calendar.NewResolver(nil, nil, o.logger(w))
}

// print writes v as indented JSON when --json is set, or calls text
// otherwise.
func (o *options) print(w io.Writer, v any, text func(io.Writer) error) error {
	if o.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return text(w)
}

func rootCmd() *cobra.Command {
	return newRootCmd(&options{now: time.Now})
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Weekly Torah readings and Hebrew dates",
		Long: `parsha computes the weekly Torah reading (parashat hashavua) for any
Saturday, in Israel or the Diaspora, and converts between the Gregorian
and Hebrew calendars.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "Print JSON instead of text")
	cmd.PersistentFlags().BoolVar(&opts.israel, "il", false, "Use the Israel schedule")

	cmd.AddCommand(
		lookupCmd(opts),
		yearCmd(opts),
		findCmd(opts),
		convertCmd(opts),
		keviotCmd(opts),
		materializeCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}

package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/parsha-api/internal/calendar"
	"github.com/zapponejosh/parsha-api/internal/config"
	"github.com/zapponejosh/parsha-api/internal/database"
	"github.com/zapponejosh/parsha-api/internal/hdate"
	"github.com/zapponejosh/parsha-api/internal/keviah"
	"github.com/zapponejosh/parsha-api/internal/sedra"
)

func location(il bool) string {
	if il {
		return "Israel"
	}
	return "Diaspora"
}

func parseYear(s string) (int, error) {
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid Hebrew year %q", s)
	}
	return year, nil
}

func lookupCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup [YYYY-MM-DD]",
		Short: "Show the reading for the Saturday on or after a date (default today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := opts.now()
			if len(args) == 1 {
				var err error
				if date, err = calendar.ParseDateString(args[0]); err != nil {
					return fmt.Errorf("invalid date %q: use YYYY-MM-DD", args[0])
				}
			}

			out := cmd.OutOrStdout()
			reading, err := opts.resolver(cmd.ErrOrStderr()).ResolveDate(cmd.Context(), date, opts.israel)
			if err != nil {
				return err
			}
			return opts.print(out, reading, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s (%s, %s): %s\n",
					reading.Date, reading.HebrewDate, location(opts.israel), reading.Name)
				return err
			})
		},
	}
}

func yearCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "year YEAR",
		Short: "List every Saturday of a Hebrew year with its reading",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := parseYear(args[0])
			if err != nil {
				return err
			}
			sy, err := opts.resolver(cmd.ErrOrStderr()).Year(cmd.Context(), year, opts.israel)
			if err != nil {
				return err
			}

			return opts.print(cmd.OutOrStdout(), sy, func(w io.Writer) error {
				fmt.Fprintf(w, "%d (%s, %s): %d Saturdays\n\n", sy.Year, sy.Keviah, location(sy.Israel), len(sy.Weeks))
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "WEEK\tDATE\tHEBREW DATE\tREADING")
				for _, wk := range sy.Weeks {
					name := joinParsha(wk.Parsha)
					if wk.Chag {
						name = "(" + name + ")"
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", wk.Week+1, wk.Date, wk.HebrewDate, name)
				}
				return tw.Flush()
			})
		},
	}
}

func joinParsha(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	return names[0] + "-" + names[1]
}

func findCmd(opts *options) *cobra.Command {
	var containing bool

	cmd := &cobra.Command{
		Use:   "find YEAR PARSHA",
		Short: "Find the Saturday a parsha (or pair, or 0-based index) is read",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := parseYear(args[0])
			if err != nil {
				return err
			}
			res, err := opts.resolver(cmd.ErrOrStderr()).Find(cmd.Context(), year, args[1], opts.israel, containing)
			if err != nil {
				return err
			}

			return opts.print(cmd.OutOrStdout(), res, func(w io.Writer) error {
				if !res.Found {
					_, err := fmt.Fprintf(w, "%s is not read in that form in %d (%s)\n", res.Parsha, year, location(opts.israel))
					return err
				}
				_, err := fmt.Fprintf(w, "%s: %s (%s)\n", res.Parsha, res.Date, res.HebrewDate)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&containing, "containing", false, "Also match a parsha read as part of a pair, or a pair read separately")
	return cmd
}

func convertCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "convert YYYY-MM-DD | convert YEAR MONTH DAY",
		Short: "Convert a Gregorian date to Hebrew, or a Hebrew date to Gregorian",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 && len(args) != 3 {
				return fmt.Errorf("expected a Gregorian date or a Hebrew year, month and day, got %d args", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var d hdate.HDate
			if len(args) == 1 {
				date, err := calendar.ParseDateString(args[0])
				if err != nil {
					return fmt.Errorf("invalid date %q: use YYYY-MM-DD", args[0])
				}
				d = hdate.FromTime(date)
			} else {
				var err error
				if d, err = calendar.ParseHebrewDate(args[0], args[1], args[2]); err != nil {
					return err
				}
			}

			info := calendar.Describe(d)
			return opts.print(cmd.OutOrStdout(), info, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s %s = %s (year %s, %d days)\n",
					info.Weekday, info.Gregorian, info.Hebrew, info.Keviah, info.DaysInYear)
				return err
			})
		},
	}
}

// keviahRow summarizes one year type over a span of years.
type keviahRow struct {
	Code          string `json:"code"`
	Keviah        string `json:"keviah"`
	Mnemonic      string `json:"mnemonic"`
	Days          int    `json:"days"`
	PesachWeekday string `json:"pesach_weekday"`
	Saturdays     int    `json:"saturdays"`
	Years         int    `json:"years"`
	Example       int    `json:"example,omitempty"`
}

func keviotCmd(opts *options) *cobra.Command {
	var from, to int

	cmd := &cobra.Command{
		Use:   "keviot",
		Short: "List the fourteen year types and how often each occurs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if from < 1 || to < from {
				return fmt.Errorf("invalid range %d-%d", from, to)
			}

			rows := make(map[keviah.YearType]*keviahRow)
			var order []keviah.YearType
			for _, t := range keviah.Reachable() {
				rows[t] = &keviahRow{
					Code:          t.Code(),
					Keviah:        t.String(),
					Mnemonic:      t.Mnemonic(),
					Days:          t.Days(),
					PesachWeekday: t.PesachWeekday().String(),
				}
				order = append(order, t)
			}
			for year := from; year <= to; year++ {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				row := rows[keviah.Classify(year)]
				row.Years++
				if row.Example == 0 {
					row.Example = year
					y, err := sedra.New(year, opts.israel)
					if err != nil {
						return err
					}
					row.Saturdays = y.Len()
				}
			}

			list := make([]keviahRow, len(order))
			for i, t := range order {
				list[i] = *rows[t]
			}

			return opts.print(cmd.OutOrStdout(), list, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "CODE\tKEVIAH\tMNEMONIC\tDAYS\tPESACH\tSATURDAYS\tYEARS\tEXAMPLE")
				for _, r := range list {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%d\t%d\t%d\n",
						r.Code, r.Keviah, r.Mnemonic, r.Days, r.PesachWeekday, r.Saturdays, r.Years, r.Example)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&from, "from", 5700, "First Hebrew year")
	cmd.Flags().IntVar(&to, "to", 6000, "Last Hebrew year")
	return cmd
}

func materializeCmd(opts *options) *cobra.Command {
	var (
		dbPath string
		from   int
		years  int
	)

	cmd := &cobra.Command{
		Use:   "materialize",
		Short: "Compute schedules and store them in the SQLite database",
		Long: `materialize computes the reading schedule of a span of Hebrew years and
writes it to the schedule store used by the API server. Running it again
replaces the stored years.

The database path defaults to DATABASE_PATH (see .env).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				dbPath = cfg.DatabasePath
			}
			if years < 1 || years > config.MaxMaterializeSpan {
				return fmt.Errorf("years must be between 1 and %d", config.MaxMaterializeSpan)
			}
			return materialize(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr(), dbPath, from, years)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "Path to SQLite database")
	cmd.Flags().IntVar(&from, "from", 0, "First Hebrew year")
	cmd.Flags().IntVar(&years, "years", 10, "Number of years")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func materialize(ctx context.Context, opts *options, out, errOut io.Writer, dbPath string, from, years int) error {
	log := opts.logger(errOut)

	db, err := database.Open(database.DefaultConfig(dbPath), log)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	res, err := calendar.NewResolver(db, nil, log).Materialize(ctx, from, years, opts.israel)
	if err != nil {
		return err
	}
	return opts.print(out, res, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "stored %d-%d (%s): %d years, %d Saturdays\n",
			res.From, res.To, location(res.Israel), res.Years, res.Weeks)
		return err
	})
}

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/perpbt/backtest"
	"github.com/rustyeddy/perpbt/journal"
)

func newJournalCmd(rc *RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Query the SQLite run journal",
		Long: `Query and display recorded runs from the SQLite journal.

Subcommands:
  runs         - List runs, optionally ranked by a metric
  run <id>     - Show one run as an org-mode report
  trades <id>  - List the trades of one run
  day <date>   - List trades closed on a specific day

Examples:
  perpbt journal runs --order-by calmar --limit 10
  perpbt journal run 01J9Z3Q6R4M1T8X2V5B7N0C3KD
  perpbt journal day 2024-01-15`,
	}

	open := func(cmd *cobra.Command) (*journal.SQLite, error) {
		cfg, _, err := rc.Load(cmd)
		if err != nil {
			return nil, err
		}
		path := rc.DBPath
		if cfg.Journal.DBPath != "" {
			path = cfg.Journal.DBPath
		}
		j, err := journal.NewSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		return j, nil
	}

	var filter journal.RunFilter
	var orderBy string
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := open(cmd)
			if err != nil {
				return err
			}
			defer j.Close()

			filter.OrderBy = backtest.Metric(orderBy)
			runs, err := j.ListRuns(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("query runs: %w", err)
			}
			journal.PrintRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	runsCmd.Flags().StringVar(&filter.Symbol, "symbol", "", "Only runs of this symbol")
	runsCmd.Flags().StringVar(&filter.Strategy, "strategy", "", "Only runs of this strategy")
	runsCmd.Flags().StringVar(&orderBy, "order-by", "", "Rank by metric instead of newest first")
	runsCmd.Flags().IntVarP(&filter.Limit, "limit", "n", 20, "Maximum rows, 0 for all")

	runCmd := &cobra.Command{
		Use:   "run <run-id>",
		Short: "Show one run as an org-mode report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := open(cmd)
			if err != nil {
				return err
			}
			defer j.Close()

			run, err := j.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			trades, err := j.ListTrades(cmd.Context(), run.RunID)
			if err != nil {
				return fmt.Errorf("query trades: %w", err)
			}
			return journal.WriteOrg(cmd.OutOrStdout(), run, trades)
		},
	}

	tradesCmd := &cobra.Command{
		Use:   "trades <run-id>",
		Short: "List the trades of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := open(cmd)
			if err != nil {
				return err
			}
			defer j.Close()

			if _, err := j.GetRun(cmd.Context(), args[0]); err != nil {
				return err
			}
			trades, err := j.ListTrades(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("query trades: %w", err)
			}
			journal.PrintTrades(cmd.OutOrStdout(), trades)
			return nil
		},
	}

	dayCmd := &cobra.Command{
		Use:   "day <YYYY-MM-DD>",
		Short: "List trades closed on a specific day (UTC)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := dayBounds(time.UTC, args[0])
			if err != nil {
				return fmt.Errorf("date: %w", err)
			}

			j, err := open(cmd)
			if err != nil {
				return err
			}
			defer j.Close()

			recs, err := j.ListTradesClosedBetween(cmd.Context(), start, end)
			if err != nil {
				return fmt.Errorf("query trades: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradesOrg(recs))
			return nil
		},
	}

	cmd.AddCommand(runsCmd, runCmd, tradesCmd, dayCmd)
	return cmd
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1), nil
}

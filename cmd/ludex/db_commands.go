package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ludex/internal/store"
)

func newDBCommand(ctx *commandContext) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "State database maintenance",
	}

	dbCmd.AddCommand(newDBHealthCommand(ctx))
	dbCmd.AddCommand(newDBStatsCommand(ctx))
	dbCmd.AddCommand(newDBRecoverCommand(ctx))

	return dbCmd
}

func newDBHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check database integrity and schema completeness",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			health, err := st.CheckHealth(cmd.Context())
			out := cmd.OutOrStdout()

			rows := [][]string{
				{"Database", health.DBPath},
				{"Exists", yesNo(health.DatabaseExists)},
				{"Readable", yesNo(health.DatabaseReadable)},
				{"Table present", yesNo(health.TableExists)},
				{"Columns", strconv.Itoa(len(health.ColumnsPresent))},
				{"Missing columns", strings.Join(health.MissingColumns, ", ")},
				{"Integrity check", yesNo(health.IntegrityCheck)},
				{"Rows", strconv.Itoa(health.TotalRows)},
			}
			if health.Error != "" {
				rows = append(rows, []string{"Error", health.Error})
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Result"}, rows))

			if err != nil {
				return fmt.Errorf("database unhealthy: %w", err)
			}
			return nil
		},
	}
}

func newDBStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show row counts per install phase",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			stats := st.Stats(cmd.Context())
			if len(stats) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No rows")
				return nil
			}

			phases := make([]string, 0, len(stats))
			for phase := range stats {
				phases = append(phases, string(phase))
			}
			sort.Strings(phases)

			rows := make([][]string, 0, len(phases))
			total := 0
			for _, phase := range phases {
				count := stats[store.InstallPhase(phase)]
				total += count
				label := phase
				if label == "" {
					label = "(none)"
				}
				rows = append(rows, []string{label, strconv.Itoa(count)})
			}
			rows = append(rows, []string{"total", strconv.Itoa(total)})
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Phase", "Rows"}, rows))
			return nil
		},
	}
}

func newDBRecoverCommand(ctx *commandContext) *cobra.Command {
	var thresholdHours int

	cmd := &cobra.Command{
		Use:   "recover-stale",
		Short: "Reset install operations stuck in a transient phase",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			hours := cfg.Store.StaleThresholdHours
			if cmd.Flags().Changed("threshold-hours") {
				hours = thresholdHours
			}
			recovered := st.RecoverStaleOperations(cmd.Context(), time.Duration(hours)*time.Hour)
			fmt.Fprintf(cmd.OutOrStdout(), "Recovered %d stale operation(s)\n", recovered)
			return nil
		},
	}

	cmd.Flags().IntVar(&thresholdHours, "threshold-hours", 0, "Age after which a transient phase counts as stale")
	return cmd
}

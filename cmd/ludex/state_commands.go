package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ludex/internal/store"
)

func newStateCommand(ctx *commandContext) *cobra.Command {
	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect and manage persisted install state",
	}

	stateCmd.AddCommand(newStateListCommand(ctx))
	stateCmd.AddCommand(newStateShowCommand(ctx))
	stateCmd.AddCommand(newStateForgetCommand(ctx))

	return stateCmd
}

func newStateListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <remote-collection-id>",
		Short: "List rows linked to a remote collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			states := st.GetByCollection(cmd.Context(), args[0])
			if len(states) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No rows for collection", args[0])
				return nil
			}

			rows := make([][]string, 0, len(states))
			for _, state := range states {
				rows = append(rows, []string{
					state.LocalItemID,
					state.RemoteItemID,
					string(state.InstallKind),
					phaseLabel(state.InstallPhase),
					yesNo(state.IsInstalled),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(),
				renderTable([]string{"Local Item", "Remote Item", "Kind", "Phase", "Installed"}, rows))
			return nil
		},
	}
}

func newStateShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <local-item-id>",
		Short: "Show the full persisted state of one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			state := st.Get(cmd.Context(), args[0])
			if state == nil {
				return fmt.Errorf("no state for item %q", args[0])
			}

			rows := [][]string{
				{"Local item", state.LocalItemID},
				{"Remote item", state.RemoteItemID},
				{"Remote collection", state.RemoteCollectionID},
				{"Server origin", state.ServerOrigin},
				{"Remote hash", state.RemoteContentHash},
				{"Local hash", state.LocalContentHash},
				{"Install kind", string(state.InstallKind)},
				{"Install phase", phaseLabel(state.InstallPhase)},
				{"Status note", state.StatusNote},
				{"Installed", yesNo(state.IsInstalled)},
				{"Installed path", state.InstalledPath},
				{"Archive path", state.ArchivePath},
				{"Install root", state.InstallRootPath},
				{"Installed at", timeLabel(state.InstalledAt)},
				{"Last validated", timeLabel(state.LastValidatedAt)},
				{"Last attempt", timeLabel(state.LastAttemptAt)},
			}
			if state.MergedAppID != "" {
				rows = append(rows,
					[]string{"Merged app", state.MergedAppID},
					[]string{"Merged base item", state.MergedBaseItemID},
					[]string{"Launch path", state.LaunchPath},
					[]string{"Launch args", state.LaunchArgs},
					[]string{"Merge synced", timeLabel(state.MergedSyncedAt)},
				)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows))
			return nil
		},
	}
}

func newStateForgetCommand(ctx *commandContext) *cobra.Command {
	var keepIdentity bool

	cmd := &cobra.Command{
		Use:   "forget <local-item-id>",
		Short: "Remove an item's persisted state",
		Long: "Removes install facts for an item. By default the remote linkage is " +
			"erased too; with --keep-identity the linkage survives so re-installation " +
			"needs no re-match.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			var ok bool
			if keepIdentity {
				ok = st.Delete(cmd.Context(), args[0])
			} else {
				ok = st.Forget(cmd.Context(), args[0])
			}
			if !ok {
				return fmt.Errorf("forget %q failed", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed state for %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepIdentity, "keep-identity", false, "Preserve remote linkage, clear install facts only")
	return cmd
}

func phaseLabel(phase store.InstallPhase) string {
	if phase == store.PhaseNone {
		return "-"
	}
	return string(phase)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func timeLabel(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

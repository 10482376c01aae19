package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/brewco/cafe/internal/client"
	"github.com/brewco/cafe/internal/model"
	"github.com/brewco/cafe/internal/shopstatus"
	"github.com/brewco/cafe/internal/ui"
	"github.com/spf13/cobra"
)

// cliLogger reports swallowed write and stream failures on stderr.
func cliLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show whether the shop is open",
	GroupID: "status",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if transport == "http" {
			v, err := apiClient.Status(ctx, rowID)
			if err != nil {
				return fmt.Errorf("reading status: %w", err)
			}
			if jsonOutput {
				return printJSON(out, v)
			}
			printStatusView(out, v)
			return nil
		}

		st, err := statusClient.Read(ctx, rowID)
		if err != nil {
			return fmt.Errorf("reading status: %w", err)
		}
		if jsonOutput {
			return printJSON(out, st)
		}
		printStatus(out, st)
		return nil
	},
}

var toggleCmd = &cobra.Command{
	Use:     "toggle",
	Short:   "Flip the shop between open and closed",
	GroupID: "status",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rollback, _ := cmd.Flags().GetBool("rollback")

		p := shopstatus.NewPublisher(statusClient,
			shopstatus.WithRowID(rowID),
			shopstatus.WithRollback(rollback),
			shopstatus.WithLogger(cliLogger()),
		)
		if err := p.Load(ctx); err != nil {
			return fmt.Errorf("loading status: %w", err)
		}
		want := p.State() != model.Open
		p.Toggle(ctx)

		// Toggle only logs write failures; confirm against the server.
		st, err := statusClient.Read(ctx, rowID)
		if err != nil {
			return fmt.Errorf("confirming toggle: %w", err)
		}
		if jsonOutput {
			if err := printJSON(cmd.OutOrStdout(), st); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), ui.RenderState(p.State()))
		}
		if st.IsOpen != want {
			return fmt.Errorf("toggle not applied: server still reports %s", model.DisplayStateFor(st.IsOpen))
		}
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:       "set <open|closed>",
	Short:     "Set the shop status explicitly",
	GroupID:   "status",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"open", "closed"},
	RunE: func(cmd *cobra.Command, args []string) error {
		open, err := parseOpen(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		var st *model.ShopStatus
		switch c := statusClient.(type) {
		case *client.GRPCClient:
			st, err = c.SetStatus(ctx, rowID, open, actor)
		default:
			var v *client.StatusView
			v, err = apiClient.SetStatus(ctx, rowID, open, actor)
			if v != nil {
				st = &v.ShopStatus
			}
		}
		if err != nil {
			return fmt.Errorf("setting status: %w", err)
		}
		if jsonOutput {
			return printJSON(out, st)
		}
		printStatus(out, st)
		return nil
	},
}

func parseOpen(s string) (bool, error) {
	switch s {
	case "open", "opened", "on":
		return true, nil
	case "closed", "close", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid status %q (must be open or closed)", s)
}

var eventsCmd = &cobra.Command{
	Use:     "events",
	Short:   "Show recent status changes",
	GroupID: "status",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		evs, err := apiClient.StatusEvents(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("listing events: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), evs)
		}
		printEvents(cmd.OutOrStdout(), evs)
		return nil
	},
}

func init() {
	toggleCmd.Flags().Bool("rollback", false, "restore the previous state if the write fails")
	eventsCmd.Flags().Int("limit", 20, "maximum number of events")
}

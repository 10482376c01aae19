package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var remoteCmd = &cobra.Command{
	Use:     "remote",
	Short:   "Manage named server profiles",
	GroupID: "system",
	// Profiles live in a local file; no server connection is needed.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}

var remoteAddCmd = &cobra.Command{
	Use:   "add <name> <http-url>",
	Short: "Add a profile, or replace one with the same name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, rawURL := args[0], args[1]
		if err := validateRemoteURL(rawURL); err != nil {
			return err
		}
		r := Remote{URL: rawURL}
		r.Server, _ = cmd.Flags().GetString("server")
		r.Token, _ = cmd.Flags().GetString("token")
		r.NATSURL, _ = cmd.Flags().GetString("nats")
		activate, _ := cmd.Flags().GetBool("use")

		err := editRemotes(func(cfg *RemotesConfig) error {
			cfg.Remotes[name] = r
			if activate || len(cfg.Remotes) == 1 {
				cfg.Active = name
			}
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved remote %s -> %s\n", name, rawURL)
		return nil
	},
}

var remoteRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := editRemotes(func(cfg *RemotesConfig) error {
			name, _, err := cfg.lookup(args[0])
			if err != nil {
				return err
			}
			delete(cfg.Remotes, name)
			if cfg.Active == name {
				cfg.Active = ""
			}
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed remote %s\n", args[0])
		return nil
	},
}

var remoteUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Make a profile the default for later commands",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := editRemotes(func(cfg *RemotesConfig) error {
			name, _, err := cfg.lookup(args[0])
			if err != nil {
				return err
			}
			cfg.Active = name
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "using remote %s\n", args[0])
		return nil
	},
}

var remoteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles; the active one is starred",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readRemotes()
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), redactedRemotes(cfg))
		}
		if len(cfg.Remotes) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no remotes; add one with 'cafe remote add <name> <http-url>'")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "\tNAME\tURL\tGRPC\tTOKEN")
		for _, name := range cfg.names() {
			r := cfg.Remotes[name]
			star := ""
			if name == cfg.Active {
				star = "*"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", star, name, r.URL, orDash(r.Server), orDash(redactToken(r.Token)))
		}
		return tw.Flush()
	},
}

var remoteShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show one profile (the active one by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readRemotes()
		if err != nil {
			return err
		}
		var want string
		if len(args) == 1 {
			want = args[0]
		}
		name, r, err := cfg.lookup(want)
		if err != nil {
			return err
		}
		r.Token = redactToken(r.Token)
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{"name": name, "active": name == cfg.Active, "remote": r})
		}
		printRemote(cmd.OutOrStdout(), name, r, name == cfg.Active)
		return nil
	},
}

func printRemote(w io.Writer, name string, r Remote, active bool) {
	if active {
		name += " (active)"
	}
	fmt.Fprintf(w, "Name:    %s\n", name)
	fmt.Fprintf(w, "HTTP:    %s\n", r.URL)
	fmt.Fprintf(w, "gRPC:    %s\n", orDash(r.Server))
	fmt.Fprintf(w, "NATS:    %s\n", orDash(r.NATSURL))
	fmt.Fprintf(w, "Token:   %s\n", orDash(r.Token))
}

// redactToken keeps a short prefix so profiles can be told apart.
func redactToken(tok string) string {
	const keep = 6
	if tok == "" {
		return ""
	}
	if len(tok) <= keep {
		return strings.Repeat("*", len(tok))
	}
	return tok[:keep] + "…"
}

func redactedRemotes(cfg *RemotesConfig) *RemotesConfig {
	out := &RemotesConfig{Active: cfg.Active, Remotes: make(map[string]Remote, len(cfg.Remotes))}
	for name, r := range cfg.Remotes {
		r.Token = redactToken(r.Token)
		out.Remotes[name] = r
	}
	return out
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	remoteAddCmd.Flags().String("server", "", "gRPC address (host:port)")
	remoteAddCmd.Flags().String("token", "", "bearer token for write access")
	remoteAddCmd.Flags().String("nats", "", "NATS URL used by watch --via nats")
	remoteAddCmd.Flags().Bool("use", false, "make this the active remote")

	remoteCmd.AddCommand(remoteAddCmd, remoteUseCmd, remoteListCmd, remoteShowCmd, remoteRemoveCmd)
}

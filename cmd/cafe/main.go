package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/brewco/cafe/internal/client"
	"github.com/brewco/cafe/internal/model"
	"github.com/brewco/cafe/internal/ui"
	"github.com/spf13/cobra"
)

var (
	serverAddr string
	httpURL    string
	transport  string
	authToken  string
	jsonOutput bool
	actor      string
	rowID      int64

	// statusClient follows --transport. apiClient always speaks HTTP since
	// the menu, gallery and hero routes have no gRPC surface.
	statusClient client.StatusClient
	apiClient    *client.HTTPClient
)

func defaultActor() string {
	out, err := exec.Command("git", "config", "user.name").Output()
	if err == nil {
		name := strings.TrimSpace(string(out))
		if name != "" {
			return name
		}
	}
	return "unknown"
}

func defaultHTTPURL() string {
	if s := os.Getenv("CAFE_HTTP_URL"); s != "" {
		return s
	}
	if u := currentRemote().URL; u != "" {
		return u
	}
	return "http://localhost:8080"
}

func defaultServer() string {
	if s := os.Getenv("CAFE_SERVER"); s != "" {
		return s
	}
	if s := currentRemote().Server; s != "" {
		return s
	}
	return "localhost:9090"
}

func defaultToken() string {
	if s := os.Getenv("CAFE_TOKEN"); s != "" {
		return s
	}
	return currentRemote().Token
}

var rootCmd = &cobra.Command{
	Use:          "cafe <command>",
	Short:        "Run and operate the café status service",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if jsonOutput || !ui.ShouldUseColor(os.Stdout) {
			ui.ForceNoColor()
		}
		apiClient = client.NewHTTPClient(httpURL, authToken).WithLogger(cliLogger())
		switch transport {
		case "http":
			statusClient = apiClient
		case "grpc":
			c, err := client.NewGRPCClient(serverAddr, authToken)
			if err != nil {
				return fmt.Errorf("failed to connect to server: %w", err)
			}
			statusClient = c.WatchRow(rowID).WithLogger(cliLogger())
		default:
			return fmt.Errorf("unknown transport %q (must be http or grpc)", transport)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if statusClient != nil {
			statusClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&httpURL, "http-url", defaultHTTPURL(), "HTTP server URL")
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", defaultServer(), "gRPC server address")
	rootCmd.PersistentFlags().StringVar(&transport, "transport", "http", "transport protocol for status commands (http or grpc)")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", defaultToken(), "bearer token for write access")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", defaultActor(), "actor name recorded on changes")
	rootCmd.PersistentFlags().Int64Var(&rowID, "row", model.ShopStatusRowID, "status row id")

	rootCmd.AddGroup(
		&cobra.Group{ID: "status", Title: "Status:"},
		&cobra.Group{ID: "content", Title: "Content:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Status
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(eventsCmd)

	// Content
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(galleryCmd)
	rootCmd.AddCommand(heroCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(watchersCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

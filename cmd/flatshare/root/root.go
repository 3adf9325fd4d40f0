/*
Package root holds the flatshare command tree.

COMMANDS:
  serve                 Run the household API server
  rooms                 List rooms
  seed [scenario]       Load a demo scenario, or import --file household.json
  calendar              Show the cleaning calendar
  tasks <id>            Tick cleaning tasks of a turn
  bill list|add|reconcile
  payments              List payments (--active for the open one)
  accept <id>           Accept a payment (--undo to reopen it)
  export -o file.xlsx   Download the payments workbook

GLOBAL FLAGS:
  --config     YAML config file (serve only)
  --server     API base URL (env FLATSHARE_SERVER)
  --room       Acting room, sent as X-Room-ID (env FLATSHARE_ROOM)
  --log-level  Client log level; empty keeps the client quiet
*/
package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flatmate/household-engine/client"
	"github.com/flatmate/household-engine/cmd/flatshare/ui"
	"github.com/flatmate/household-engine/logging"
)

const defaultServer = "http://localhost:8080"

type globalOptions struct {
	configPath string
	server     string
	room       string
	logLevel   string
}

// client builds an API client for the acting room.
func (o *globalOptions) client() (*client.Client, error) {
	var logger *zap.Logger
	if o.logLevel != "" {
		l, err := logging.New(o.logLevel, "console", "")
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		logger = l
	}
	return client.New(o.server, o.room, logger), nil
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "flatshare",
		Short:         "Cleaning rotation and shared bills for a flat",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML config file")
	flags.StringVar(&opts.server, "server", envOr("FLATSHARE_SERVER", defaultServer), "API base URL")
	flags.StringVar(&opts.room, "room", os.Getenv("FLATSHARE_ROOM"), "acting room ID")
	flags.StringVar(&opts.logLevel, "log-level", "", "client log level (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCmd(opts),
		newRoomsCmd(opts),
		newSeedCmd(opts),
		newCalendarCmd(opts),
		newTasksCmd(opts),
		newBillCmd(opts),
		newPaymentsCmd(opts),
		newAcceptCmd(opts),
		newExportCmd(opts),
	)
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

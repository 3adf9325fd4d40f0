package root

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flatmate/household-engine/api"
	"github.com/flatmate/household-engine/cmd/flatshare/ui"
)

func newRoomsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rooms",
		Short: "List rooms in rotation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			rooms, err := c.Rooms(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconHouse, "Rooms"))
			if len(rooms) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("No rooms."))
				return nil
			}
			for _, r := range rooms {
				fmt.Fprintf(out, "%s  rent %s  share %s%%  purchases x%s\n",
					roomLabel(r.ID, r.Name),
					r.BasePrice.StringFixed(2),
					r.Multiplier.String(),
					r.PurchaseMultiplier.String())
			}
			return nil
		},
	}
}

func newSeedCmd(opts *globalOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed [scenario]",
		Short: "Load a demo scenario or import rooms",
		Long: `Load a demo scenario, replacing all data on the server:

  ` + api.ScenarioEmpty + `            no data
  ` + api.ScenarioFourRoomFlat + `   four rooms, a running calendar and last month's bill

With --file, rooms are imported from a household JSON document instead and
existing data is kept. Rooms whose ID already exists are skipped.`,
		Example: "  flatshare seed four-room-flat\n  flatshare seed --file household.json",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if file != "" {
				if len(args) > 0 {
					return errors.New("use either a scenario or --file, not both")
				}
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", file, err)
				}
				resp, err := c.ImportRooms(cmd.Context(), string(data))
				if err != nil {
					return err
				}
				fmt.Fprintln(out, ui.LabelValue("Created", joinOrDash(resp.Created)))
				fmt.Fprintln(out, ui.LabelValue("Skipped", joinOrDash(resp.Skipped)))
				return nil
			}

			scenario := api.ScenarioFourRoomFlat
			if len(args) == 1 {
				scenario = args[0]
			}
			if err := c.LoadScenario(cmd.Context(), scenario); err != nil {
				return err
			}
			fmt.Fprintln(out, ui.Good.Render(ui.IconHouse+" Scenario "+scenario+" loaded"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "household JSON file to import")
	return cmd
}

func joinOrDash(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ", ")
}

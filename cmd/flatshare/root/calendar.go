package root

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/flatmate/household-engine/api"
	"github.com/flatmate/household-engine/cmd/flatshare/ui"
)

func newCalendarCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "calendar",
		Short: "Show the cleaning calendar",
		Long: `Show the cleaning calendar, newest turn first.

With --room only that room's turns are listed, marked as yours. Listing
the calendar also extends it once the last scheduled turn has elapsed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			entries, err := c.Calendar(cmd.Context())
			if err != nil {
				return err
			}
			printCalendar(cmd.OutOrStdout(), entries)
			return nil
		},
	}
}

func printCalendar(out io.Writer, entries []api.AssignmentDTO) {
	fmt.Fprintln(out, ui.Heading(ui.IconCalendar, "Cleaning calendar"))
	if len(entries) == 0 {
		fmt.Fprintln(out, ui.Muted.Render("No turns scheduled. Add rooms first."))
		return
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s  %s  %s  %s\n",
			ui.Key.Render(fmt.Sprintf("#%d", e.ID)),
			e.PeriodID,
			roomLabel(e.RoomID, e.RoomName),
			ui.TurnStatus(e.Done, e.Editable))
		fmt.Fprintf(out, "     %s kitchen  %s bathroom  %s toilet  %s living room  %s\n",
			ui.Check(e.Tasks.Kitchen),
			ui.Check(e.Tasks.Bathroom),
			ui.Check(e.Tasks.Toilet),
			ui.Check(e.Tasks.LivingRoom),
			ui.Muted.Render("until "+formatPeriodEnd(e.PeriodEnd)))
	}
}

func newTasksCmd(opts *globalOptions) *cobra.Command {
	var states api.TaskStatesDTO

	cmd := &cobra.Command{
		Use:   "tasks <turn-id>",
		Short: "Set the cleaning tasks of your turn",
		Long: `Set the cleaning tasks of your turn.

The flags are the full new state: a task whose flag is omitted is
unticked. Only the room a turn belongs to (--room) can change it.`,
		Example: "  flatshare tasks 12 --room room-1 --kitchen --toilet",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid turn id %q", args[0])
			}
			if opts.room == "" {
				return errors.New("--room is required to tick tasks")
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			if err := c.SetTasks(cmd.Context(), id, states); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Good.Render(ui.IconBroom+" Tasks saved"))
			if states.Kitchen && states.Bathroom && states.Toilet && states.LivingRoom {
				fmt.Fprintln(out, ui.Good.Render(ui.IconDone+" Turn complete"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&states.Kitchen, "kitchen", false, "kitchen cleaned")
	cmd.Flags().BoolVar(&states.Bathroom, "bathroom", false, "bathroom cleaned")
	cmd.Flags().BoolVar(&states.Toilet, "toilet", false, "toilet cleaned")
	cmd.Flags().BoolVar(&states.LivingRoom, "living-room", false, "living room cleaned")
	return cmd
}

func roomLabel(id, name string) string {
	if name == "" || name == id {
		return ui.H2.Render(id)
	}
	return ui.H2.Render(name) + " " + ui.Muted.Render("("+id+")")
}

// formatPeriodEnd shortens an RFC 3339 instant to a date.
func formatPeriodEnd(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.Format("Mon 02 Jan 2006")
}

package root

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flatmate/household-engine/api"
	"github.com/flatmate/household-engine/cmd/flatshare/ui"
)

func newPaymentsCmd(opts *globalOptions) *cobra.Command {
	var active bool

	cmd := &cobra.Command{
		Use:   "payments",
		Short: "List payments",
		Long: `List payments, newest bill first.

With --room only that room's payments are listed. --active shows the
room's most recent payment that is not accepted yet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if active {
				if opts.room == "" {
					return errors.New("--room is required with --active")
				}
				p, found, err := c.ActivePayment(cmd.Context())
				if err != nil {
					return err
				}
				if !found {
					fmt.Fprintln(out, ui.Good.Render(ui.IconDone+" Nothing to pay"))
					return nil
				}
				printPaymentDetail(out, p)
				return nil
			}

			payments, err := c.Payments(cmd.Context())
			if err != nil {
				return err
			}
			printPayments(out, payments)
			return nil
		},
	}

	cmd.Flags().BoolVar(&active, "active", false, "show only the open payment of --room")
	return cmd
}

func printPayments(out io.Writer, payments []api.PaymentDTO) {
	fmt.Fprintln(out, ui.Heading(ui.IconMoney, "Payments"))
	if len(payments) == 0 {
		fmt.Fprintln(out, ui.Muted.Render("No payments."))
		return
	}
	for _, p := range payments {
		fmt.Fprintf(out, "%s  %s  %s  %s  %s\n",
			ui.Key.Render(fmt.Sprintf("#%d", p.ID)),
			p.BillID,
			roomLabel(p.RoomID, p.RoomName),
			ui.Money(p.Prices.Total),
			ui.PaymentStatus(p.Accepted))
	}
}

func printPaymentDetail(out io.Writer, p api.PaymentDTO) {
	lines := []string{
		ui.LabelValue("Payment", fmt.Sprintf("#%d", p.ID)),
		ui.LabelValue("Bill", fmt.Sprintf("%s (%02d/%d)", p.BillID, p.Month, p.Year)),
		ui.LabelValue("Room", roomLabel(p.RoomID, p.RoomName)),
		"",
		ui.LabelValue("Rent", p.Prices.Base),
		ui.LabelValue("Media", p.Prices.Media),
		ui.LabelValue("Energy", p.Prices.Energy),
		ui.LabelValue("Internet", p.Prices.Internet),
		ui.LabelValue("Purchases", p.Prices.Purchases),
		ui.LabelValue("Total", ui.Money(p.Prices.Total)),
		ui.LabelValue("Status", ui.PaymentStatus(p.Accepted)),
	}
	fmt.Fprintln(out, ui.Heading(ui.IconMoney, "Open payment"))
	fmt.Fprintln(out, ui.Panel.Render(strings.Join(lines, "\n")))
}

func newAcceptCmd(opts *globalOptions) *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "accept <payment-id>",
		Short: "Accept one of your payments",
		Long: `Mark one of your payments as paid.

Only the room a payment belongs to (--room) can change it. --undo reopens
an accepted payment.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid payment id %q", args[0])
			}
			if opts.room == "" {
				return errors.New("--room is required to accept a payment")
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			if err := c.SetAccepted(cmd.Context(), id, !undo); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if undo {
				fmt.Fprintln(out, ui.Warn.Render(fmt.Sprintf("Payment #%d reopened", id)))
				return nil
			}
			fmt.Fprintln(out, ui.Good.Render(fmt.Sprintf("%s Payment #%d accepted", ui.IconDone, id)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&undo, "undo", false, "reopen the payment instead")
	return cmd
}

func newExportCmd(opts *globalOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the payments workbook (.xlsx)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := c.ExportPayments(cmd.Context(), f); err != nil {
				f.Close()
				os.Remove(output)
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Written", output))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "payments.xlsx", "output file")
	return cmd
}

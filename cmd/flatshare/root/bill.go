package root

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/flatmate/household-engine/api"
	"github.com/flatmate/household-engine/cmd/flatshare/ui"
)

func newBillCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bill",
		Short: "Manage monthly bills",
	}
	cmd.AddCommand(
		newBillListCmd(opts),
		newBillAddCmd(opts),
		newBillReconcileCmd(opts),
	)
	return cmd
}

func newBillListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List bills, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			bills, err := c.Bills(cmd.Context())
			if err != nil {
				return err
			}
			printBills(cmd.OutOrStdout(), bills)
			return nil
		},
	}
}

func printBills(out io.Writer, bills []api.BillDTO) {
	fmt.Fprintln(out, ui.Heading(ui.IconBill, "Bills"))
	if len(bills) == 0 {
		fmt.Fprintln(out, ui.Muted.Render("No bills yet."))
		return
	}
	for _, b := range bills {
		fmt.Fprintf(out, "%s  media %s  energy %s  internet %s  purchases %s\n",
			ui.Key.Render(b.ID),
			b.Media.StringFixed(2),
			b.Energy.StringFixed(2),
			b.Internet.StringFixed(2),
			b.Purchases.StringFixed(2))
	}
}

func newBillAddCmd(opts *globalOptions) *cobra.Command {
	var media, energy, internet, purchases string

	cmd := &cobra.Command{
		Use:   "add <YYYY-MM>",
		Short: "Add a monthly bill and split it between rooms",
		Long: `Add a monthly bill and split it between rooms.

Every room gets a payment for the bill. Adding a bill that already exists
changes nothing and is reported as such.`,
		Example: "  flatshare bill add 2026-10 --media 100 --energy 50 --internet 30 --purchases 20",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bill := api.BillDTO{ID: args[0]}
			amounts := []struct {
				name string
				raw  string
				dst  *decimal.Decimal
			}{
				{"media", media, &bill.Media},
				{"energy", energy, &bill.Energy},
				{"internet", internet, &bill.Internet},
				{"purchases", purchases, &bill.Purchases},
			}
			for _, a := range amounts {
				d, err := decimal.NewFromString(a.raw)
				if err != nil {
					return fmt.Errorf("invalid --%s amount %q", a.name, a.raw)
				}
				*a.dst = d
			}

			c, err := opts.client()
			if err != nil {
				return err
			}
			outcome, err := c.AddBill(cmd.Context(), bill)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outcome == "already_exists" {
				fmt.Fprintln(out, ui.Warn.Render(ui.IconWarn+" Bill "+bill.ID+" already exists, nothing changed"))
				return nil
			}
			fmt.Fprintln(out, ui.Good.Render(ui.IconBill+" Bill "+bill.ID+" added"))
			return nil
		},
	}

	cmd.Flags().StringVar(&media, "media", "0", "media (water, heating) amount")
	cmd.Flags().StringVar(&energy, "energy", "0", "energy amount")
	cmd.Flags().StringVar(&internet, "internet", "0", "internet amount")
	cmd.Flags().StringVar(&purchases, "purchases", "0", "shared purchases amount")
	return cmd
}

func newBillReconcileCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile <YYYY-MM>",
		Short: "Create payments missing from an existing bill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			created, err := c.Reconcile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Payments created", created))
			return nil
		},
	}
}

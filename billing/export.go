package billing

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// PaymentsSheet is the worksheet written by WritePayments.
const PaymentsSheet = "Payments"

// PaymentsHeader is the first row of the export.
var PaymentsHeader = []string{
	"ID",
	"Room",
	"Bill",
	"Year",
	"Month",
	"Base",
	"Media",
	"Energy",
	"Internet",
	"Purchases",
	"Total",
	"Accepted",
}

var paymentsColumnWidths = []float64{8, 20, 10, 8, 12, 12, 12, 12, 12, 12, 12, 10}

// WritePayments writes views as an XLSX workbook to w. Money cells are
// written as text so the values keep exactly two decimals.
func WritePayments(w io.Writer, views []PaymentView) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), PaymentsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetRow(PaymentsSheet, "A1", &PaymentsHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(PaymentsHeader))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(PaymentsSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	for i, width := range paymentsColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(PaymentsSheet, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, v := range views {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		accepted := "No"
		if v.Accepted {
			accepted = "Yes"
		}
		row := []any{
			int64(v.ID),
			v.RoomName,
			string(v.BillID),
			v.Year,
			v.Month.String(),
			v.Prices.Base.StringFixed(PricePlaces),
			v.Prices.Media.StringFixed(PricePlaces),
			v.Prices.Energy.StringFixed(PricePlaces),
			v.Prices.Internet.StringFixed(PricePlaces),
			v.Prices.Purchases.StringFixed(PricePlaces),
			v.Prices.Total.StringFixed(PricePlaces),
			accepted,
		}
		if err := f.SetSheetRow(PaymentsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(PaymentsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

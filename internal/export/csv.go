// Package export renders orders as CSV and stores the result.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"annies-bakery/internal/model"
)

// Header is the first row of every export.
var Header = []string{
	"Order ID",
	"Type",
	"Date",
	"Customer Name",
	"Email",
	"Status",
	"Payment Status",
	"Total/Details",
}

// WriteCSV writes standard orders followed by custom orders.
func WriteCSV(w io.Writer, orders []model.Order, customOrders []model.CustomOrder) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, o := range orders {
		row := []string{
			o.ID,
			"Regular",
			o.CreatedAt,
			o.CustomerName,
			o.CustomerEmail,
			o.Status,
			o.PaymentStatus,
			fmt.Sprintf("R%.2f", o.Total),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write order %s: %w", o.ID, err)
		}
	}

	for _, o := range customOrders {
		row := []string{
			o.ID,
			"Custom",
			o.CreatedAt,
			o.CustomerName,
			o.CustomerEmail,
			o.Status,
			o.PaymentStatus,
			o.Details.Size + " - " + o.Details.Flavor,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write custom order %s: %w", o.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// FileName returns the export name for a snapshot taken at t.
func FileName(t time.Time) string {
	return "orders_export_" + t.UTC().Format("20060102T150405Z") + ".csv"
}

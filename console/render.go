package console

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"inventory.GO/client"
	"inventory.GO/console/notify"
)

const barWidth = 30

func bar(n, max int64) string {
	if max <= 0 || n <= 0 {
		return ""
	}
	w := int(n * barWidth / max)
	if w == 0 {
		w = 1
	}
	return strings.Repeat("#", w)
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func RenderDashboard(w io.Writer, v DashboardView) {
	fmt.Fprintf(w, "Total items: %s   Total quantity: %s   Low stock: %s\n\n",
		humanize.Comma(v.Stats.TotalItems), humanize.Comma(v.Stats.TotalQuantity), humanize.Comma(v.Stats.LowStockItems))

	fmt.Fprintln(w, "Items by category")
	var max int64
	for _, n := range v.Pie.Values {
		if n > max {
			max = n
		}
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, label := range v.Pie.Labels {
		fmt.Fprintf(tw, "  %s\t%d\t%s\t%s\n", label, v.Pie.Values[i], v.Pie.Share(i), bar(v.Pie.Values[i], max))
	}
	tw.Flush()

	fmt.Fprintln(w, "\nLow stock items")
	if len(v.LowStock) == 0 {
		fmt.Fprintln(w, "  none")
		return
	}
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  ID\tNAME\tCATEGORY\tQTY\tTHRESHOLD\tSTATUS")
	for _, r := range v.LowStock {
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%d\t%d\t%s\n", r.Item.ID, r.Item.Name, r.Item.Category, r.Item.Quantity, r.Item.LowStockThreshold, r.State())
	}
	tw.Flush()
}

func RenderItems(w io.Writer, items []client.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "no items")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tQTY\tTHRESHOLD\tBARCODE\tSTATUS")
	for _, it := range items {
		state := "In Stock"
		if it.Quantity == 0 {
			state = "Out of Stock"
		} else if it.LowStock {
			state = "Low Stock"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n", it.ID, it.Name, it.Category, humanize.Comma(int64(it.Quantity)), it.LowStockThreshold, deref(it.Barcode), state)
	}
	tw.Flush()
	fmt.Fprintf(w, "%d item(s)\n", len(items))
}

func RenderItem(w io.Writer, it client.Item) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\t%d\n", it.ID)
	fmt.Fprintf(tw, "Name\t%s\n", it.Name)
	fmt.Fprintf(tw, "Category\t%s\n", it.Category)
	fmt.Fprintf(tw, "Quantity\t%d\n", it.Quantity)
	fmt.Fprintf(tw, "Low stock threshold\t%d\n", it.LowStockThreshold)
	fmt.Fprintf(tw, "Low stock\t%t\n", it.LowStock)
	fmt.Fprintf(tw, "Barcode\t%s\n", deref(it.Barcode))
	fmt.Fprintf(tw, "QR code\t%s\n", deref(it.QRCode))
	fmt.Fprintf(tw, "Updated\t%s\n", humanize.Time(it.UpdatedAt))
	tw.Flush()
}

// RenderForm prints the add item form with inline field errors.
func RenderForm(w io.Writer, f Form, fieldErr func(string) string) {
	rows := []struct{ field, value string }{
		{"name", f.Name},
		{"category", f.Category},
		{"quantity", fmt.Sprint(f.Quantity)},
		{"lowStockThreshold", fmt.Sprint(f.LowStockThreshold)},
		{"barcode", f.Barcode},
		{"qrCode", f.QRCode},
		{"image", f.Image},
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, r := range rows {
		line := fmt.Sprintf("%s\t%s", r.field, r.value)
		if msg := fieldErr(r.field); msg != "" {
			line += "\t! " + msg
		}
		fmt.Fprintln(tw, line)
	}
	tw.Flush()
}

func RenderToasts(w io.Writer, toasts []notify.Toast) {
	for _, t := range toasts {
		fmt.Fprintf(w, "[%s] %s\n", t.Level, t.Message)
	}
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"inventory.GO/console"
	"inventory.GO/console/notify"
)

// showToasts prints what a page reported while the command ran.
func showToasts(notes *notify.Center) {
	console.RenderToasts(os.Stdout, notes.Active())
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id %q", s)
	}
	return id, nil
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show stock totals, items per category and low stock items",
	RunE: func(c *cobra.Command, args []string) error {
		notes := notify.Init()
		d := console.NewDashboard(c.Context(), newClient(), notes)
		defer d.Close()
		err := d.Load()
		if err == nil {
			console.RenderDashboard(os.Stdout, d.View())
		}
		showToasts(notes)
		return err
	},
}

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "List and change inventory items",
}

var lowStockThreshold int

func listCommand(use, short string, nargs int, load func(l *console.InventoryList, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(c *cobra.Command, args []string) error {
			notes := notify.Init()
			l := console.NewInventoryList(c.Context(), newClient(), notes)
			defer l.Close()
			err := load(l, args)
			if err == nil {
				console.RenderItems(os.Stdout, l.Items())
			}
			showToasts(notes)
			return err
		},
	}
}

var itemsLowStockCmd = &cobra.Command{
	Use:   "low-stock",
	Short: "List items at or below their threshold (or --threshold)",
	RunE: func(c *cobra.Command, args []string) error {
		var t *int
		if c.Flags().Changed("threshold") {
			t = &lowStockThreshold
		}
		items, err := newClient().ListLowStockItems(c.Context(), t)
		if err != nil {
			return err
		}
		console.RenderItems(os.Stdout, items)
		return nil
	},
}

var itemsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one item",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		it, err := newClient().GetItem(c.Context(), id)
		if err != nil {
			return err
		}
		console.RenderItem(os.Stdout, it)
		return nil
	},
}

// mutate loads the list, runs one write through it and prints the result.
func mutate(ctx context.Context, write func(l *console.InventoryList) error) error {
	notes := notify.Init()
	l := console.NewInventoryList(ctx, newClient(), notes)
	defer l.Close()
	err := l.Load()
	if err == nil {
		err = write(l)
	}
	showToasts(notes)
	return err
}

var itemsQtyCmd = &cobra.Command{
	Use:   "qty <id> <quantity>",
	Short: "Set the quantity of an item",
	Args:  cobra.ExactArgs(2),
	RunE: func(c *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		q, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[1])
		}
		return mutate(c.Context(), func(l *console.InventoryList) error { return l.UpdateQuantity(id, q) })
	},
}

var itemsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return mutate(c.Context(), func(l *console.InventoryList) error { return l.Delete(id, nil) })
	},
}

var addForm = map[string]*string{}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an item and save its QR code",
	RunE: func(c *cobra.Command, args []string) error {
		notes := notify.Init()
		a := console.NewAddItem(c.Context(), newClient(), notes)
		defer a.Close()
		for field, v := range addForm {
			if c.Flags().Changed(field) {
				if err := a.Set(field, *v); err != nil {
					return err
				}
			}
		}
		it, err := a.Submit()
		if err == nil {
			console.RenderItem(os.Stdout, it)
			if out, _ := c.Flags().GetString("qr-out"); out != "" {
				err = a.SavePreview(console.QRPreview, out)
			}
		}
		showToasts(notes)
		return err
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan <barcode>",
	Short: "Look an item up by barcode",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		notes := notify.Init()
		s := console.NewScanner(c.Context(), newClient(), notes)
		defer s.Close()
		it, err := s.Lookup(args[0])
		if it != nil {
			console.RenderItem(os.Stdout, *it)
		}
		showToasts(notes)
		return err
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <image>",
	Short: "Decode a barcode or QR code from an image file",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		notes := notify.Init()
		u := console.NewImageUpload(c.Context(), newClient(), notes)
		defer u.Close()
		err := u.SelectFile(args[0])
		var outcome console.UploadOutcome
		if err == nil {
			outcome, err = u.Decode()
		}
		if err == nil {
			switch r := u.Result(); outcome {
			case console.ItemFound:
				console.RenderItem(os.Stdout, *r.MatchedItem)
			case console.TextDecoded:
				fmt.Println(*r.DecodedText)
			}
		}
		showToasts(notes)
		return err
	},
}

func init() {
	itemsLowStockCmd.Flags().IntVar(&lowStockThreshold, "threshold", 0, "list items with quantity at or below this value")
	itemsCmd.AddCommand(
		listCommand("list", "List all items", 0, func(l *console.InventoryList, _ []string) error { return l.Load() }),
		listCommand("search <name>", "Search items by name", 1, func(l *console.InventoryList, a []string) error { return l.Search(a[0]) }),
		listCommand("category <category>", "List the items of one category", 1, func(l *console.InventoryList, a []string) error { return l.Filter(a[0]) }),
		itemsLowStockCmd,
		itemsGetCmd,
		itemsQtyCmd,
		itemsDeleteCmd,
	)

	for _, f := range []struct{ name, usage string }{
		{"name", "item name (required)"},
		{"category", "category (required)"},
		{"quantity", "quantity in stock"},
		{"lowStockThreshold", "low stock threshold"},
		{"barcode", "barcode, generated when empty"},
		{"qrCode", "QR payload, generated when empty"},
		{"image", "image URL"},
	} {
		addForm[f.name] = addCmd.Flags().String(f.name, "", f.usage)
	}
	addCmd.Flags().String("qr-out", "", "write the QR code PNG of the new item to this file")

	Register(dashboardCmd)
	Register(itemsCmd)
	Register(addCmd)
	Register(scanCmd)
	Register(uploadCmd)
}

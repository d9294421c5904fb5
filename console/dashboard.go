package console

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"inventory.GO/client"
	"inventory.GO/console/notify"
)

type PieChart struct {
	Labels []string
	Values []int64
}

type Dataset struct {
	Label string
	Data  []int
}

type BarChart struct {
	Labels   []string
	Datasets []Dataset
}

type LowStockRow struct {
	Item       client.Item
	OutOfStock bool
}

func (r LowStockRow) State() string {
	if r.OutOfStock {
		return "Out of Stock"
	}
	return "Low Stock"
}

// DashboardView is what the dashboard renders.
type DashboardView struct {
	Stats    client.DashboardStats
	LowStock []LowStockRow
	Pie      PieChart
	Bar      BarChart
}

type Dashboard struct {
	page
	api  API
	view DashboardView
}

func NewDashboard(ctx context.Context, api API, notes *notify.Center) *Dashboard {
	d := &Dashboard{api: api}
	d.init(ctx, notes)
	return d
}

// Load fetches the stats and the low stock list in parallel and renders
// nothing until both arrived.
func (d *Dashboard) Load() error {
	ctx, gen, err := d.begin()
	if err != nil {
		return err
	}

	var (
		stats client.DashboardStats
		low   []client.Item
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = d.api.GetDashboardStats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		low, err = d.api.ListLowStockItems(gctx, nil)
		return err
	})
	err = g.Wait()

	if !d.settle(gen, err, func() { d.view = buildDashboard(stats, low) }) {
		return ErrSuperseded
	}
	if err != nil {
		d.report("Failed to load dashboard data", err)
	}
	return err
}

func (d *Dashboard) View() DashboardView {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.view
}

func buildDashboard(stats client.DashboardStats, low []client.Item) DashboardView {
	v := DashboardView{Stats: stats}
	for _, cc := range stats.CategoryCounts {
		v.Pie.Labels = append(v.Pie.Labels, cc.Category)
		v.Pie.Values = append(v.Pie.Values, cc.Count)
	}

	quantities := Dataset{Label: "Current Quantity"}
	thresholds := Dataset{Label: "Low Stock Threshold"}
	for _, it := range low {
		v.LowStock = append(v.LowStock, LowStockRow{Item: it, OutOfStock: it.Quantity == 0})
		v.Bar.Labels = append(v.Bar.Labels, it.Name)
		quantities.Data = append(quantities.Data, it.Quantity)
		thresholds.Data = append(thresholds.Data, it.LowStockThreshold)
	}
	v.Bar.Datasets = []Dataset{quantities, thresholds}
	return v
}

// Share returns the percentage of items in category i of the pie chart.
func (p PieChart) Share(i int) string {
	var total int64
	for _, v := range p.Values {
		total += v
	}
	if total == 0 || i < 0 || i >= len(p.Values) {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(p.Values[i])*100/float64(total))
}

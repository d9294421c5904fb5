package inventory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ImportOptions configures a CSV item import run.
type ImportOptions struct {
	BatchSize int
	// UpdateExisting replaces rows whose barcode already exists instead of skipping them.
	UpdateExisting bool
}

// ImportResult holds counters and timing from an import run.
type ImportResult struct {
	TotalRows int           `json:"total_rows"`
	Created   int           `json:"created"`
	Updated   int           `json:"updated"`
	Skipped   int           `json:"skipped"`
	Warnings  []string      `json:"warnings"`
	TotalTime time.Duration `json:"-"`
}

// CSV headers are matched case-insensitively with underscores and spaces ignored,
// so "lowStockThreshold", "low_stock_threshold" and "Low Stock Threshold" are one column.
var importColumns = map[string]bool{
	"name": true, "category": true, "quantity": true, "lowstockthreshold": true,
	"barcode": true, "qrcode": true, "image": true,
}

func columnKey(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer("_", "", " ", "", "-", "").Replace(h)
}

// ImportCSV reads items from r. Rows are keyed by barcode: a known barcode is
// an update (when opts.UpdateExisting), anything else is created through the
// same rules as Create. Invalid rows are skipped with a warning.
func (s *InventoryService) ImportCSV(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	start := time.Now()
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, &ValidationError{Field: "csv", Message: "header: " + err.Error()}
	}

	result := &ImportResult{}
	colIndex := make(map[string]int, len(headers))
	for i, h := range headers {
		key := columnKey(h)
		if !importColumns[key] {
			result.Warnings = append(result.Warnings, fmt.Sprintf("column %q: unknown, skipping", h))
			continue
		}
		colIndex[key] = i
	}
	for _, required := range []string{"name", "category"} {
		if _, ok := colIndex[required]; !ok {
			return nil, &ValidationError{Field: "csv", Message: fmt.Sprintf("must contain a %q column", required)}
		}
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &ValidationError{Field: "csv", Message: err.Error()}
	}
	result.TotalRows = len(rows)

	cell := func(row []string, col string) (string, bool) {
		i, ok := colIndex[col]
		if !ok || i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}

	var codes []string
	for _, row := range rows {
		if code, _ := cell(row, "barcode"); code != "" {
			codes = append(codes, code)
		}
	}
	existing, err := s.repo.IDsByBarcode(ctx, codes, opts.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("lookup barcodes: %w", err)
	}

	for ri, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		line := ri + 2
		in, err := importRow(row, cell)
		if err != nil {
			result.Skipped++
			result.Warnings = append(result.Warnings, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		var id int64
		if in.Barcode != nil {
			id = existing[*in.Barcode]
		}
		if id != 0 && !opts.UpdateExisting {
			result.Skipped++
			result.Warnings = append(result.Warnings, fmt.Sprintf("line %d: barcode %s exists, skipping", line, *in.Barcode))
			continue
		}

		var item Item
		if id != 0 {
			item, err = s.Update(ctx, id, in)
		} else {
			item, err = s.Create(ctx, in)
		}
		if errors.Is(err, ErrValidation) || errors.Is(err, ErrConflict) {
			result.Skipped++
			result.Warnings = append(result.Warnings, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		if err != nil {
			return result, fmt.Errorf("line %d: %w", line, err)
		}
		if id != 0 {
			result.Updated++
		} else {
			result.Created++
			if item.Barcode != nil {
				existing[*item.Barcode] = item.ID
			}
		}
	}

	result.TotalTime = time.Since(start)
	s.log.Info("csv import finished",
		zap.Int("rows", result.TotalRows),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Duration("took", result.TotalTime),
	)
	return result, nil
}

func importRow(row []string, cell func([]string, string) (string, bool)) (ItemInput, error) {
	var in ItemInput
	in.Name, _ = cell(row, "name")
	in.Category, _ = cell(row, "category")

	qty := 0
	if v, _ := cell(row, "quantity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return in, fmt.Errorf("invalid quantity %q", v)
		}
		qty = n
	}
	in.Quantity = &qty

	if v, _ := cell(row, "lowstockthreshold"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return in, fmt.Errorf("invalid lowStockThreshold %q", v)
		}
		in.LowStockThreshold = &n
	}
	for col, dst := range map[string]**string{"barcode": &in.Barcode, "qrcode": &in.QRCode, "image": &in.Image} {
		if v, _ := cell(row, col); v != "" {
			v := v
			*dst = &v
		}
	}
	return in, nil
}

// StockInput is one line of a bulk quantity update.
type StockInput struct {
	Barcode  string `json:"barcode"`
	Quantity *int   `json:"quantity"`
}

// StockResult reports a bulk quantity update.
type StockResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Warnings []string `json:"warnings"`
}

// ImportStock sets quantities by barcode. Each batch is written in one
// transaction; unknown barcodes and bad quantities are skipped with a warning.
func (s *InventoryService) ImportStock(ctx context.Context, lines []StockInput, batchSize int) (*StockResult, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	res := &StockResult{}

	codes := make([]string, 0, len(lines))
	for _, l := range lines {
		if code := strings.TrimSpace(l.Barcode); code != "" {
			codes = append(codes, code)
		}
	}
	ids, err := s.repo.IDsByBarcode(ctx, codes, batchSize)
	if err != nil {
		return nil, fmt.Errorf("lookup barcodes: %w", err)
	}

	type update struct {
		id  int64
		qty int
	}
	pending := make([]update, 0, len(lines))
	for i, l := range lines {
		code := strings.TrimSpace(l.Barcode)
		switch {
		case code == "":
			res.Warnings = append(res.Warnings, fmt.Sprintf("item %d: barcode is required", i))
		case l.Quantity == nil:
			res.Warnings = append(res.Warnings, fmt.Sprintf("barcode=%s: quantity is required", code))
		case *l.Quantity < 0:
			res.Warnings = append(res.Warnings, fmt.Sprintf("barcode=%s: invalid quantity %d", code, *l.Quantity))
		case ids[code] == 0:
			res.Warnings = append(res.Warnings, fmt.Sprintf("barcode=%s: not found", code))
		default:
			pending = append(pending, update{id: ids[code], qty: *l.Quantity})
			continue
		}
		res.Skipped++
	}

	// committed batches stay committed when a later one fails
	defer func() {
		if res.Imported > 0 {
			s.invalidate(ctx)
		}
	}()

	for i := 0; i < len(pending); i += batchSize {
		end := i + batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[i:end]
		err := s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			for _, u := range batch {
				if err := repo.UpdateQuantity(ctx, u.id, u.qty); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return res, err
		}
		res.Imported += len(batch)
	}
	return res, nil
}

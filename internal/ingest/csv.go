package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"docmatch/internal/queue"
)

var lineItemHeader = []string{"sku", "description", "quantity", "uom", "unit_price", "total_price"}

// ReadLineItemsCSV reads line items with the header
// sku,description,quantity,uom,unit_price,total_price. An empty total_price
// is computed from quantity and unit price.
func ReadLineItemsCSV(r io.Reader) ([]queue.LineItem, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(lineItemHeader)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read line item header: %w", err)
	}
	for i, name := range lineItemHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), name) {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrInvalidBundle, i+1, header[i], name)
		}
	}

	var items []queue.LineItem
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line item: %w", err)
		}
		line, _ := reader.FieldPos(0)

		quantity, err := parseNumber(record[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: quantity: %w", line, err)
		}
		unitPrice, err := parseNumber(record[4])
		if err != nil {
			return nil, fmt.Errorf("line %d: unit_price: %w", line, err)
		}
		total := quantity * unitPrice
		if strings.TrimSpace(record[5]) != "" {
			if total, err = parseNumber(record[5]); err != nil {
				return nil, fmt.Errorf("line %d: total_price: %w", line, err)
			}
		}
		items = append(items, queue.LineItem{
			SKU:           strings.TrimSpace(record[0]),
			Description:   strings.TrimSpace(record[1]),
			Quantity:      quantity,
			UnitOfMeasure: strings.TrimSpace(record[3]),
			UnitPrice:     unitPrice,
			TotalPrice:    total,
		})
	}
	return items, nil
}

func parseNumber(raw string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	cleaned = strings.TrimPrefix(cleaned, "$")
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidBundle, raw)
	}
	return value, nil
}

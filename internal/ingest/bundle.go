package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"docmatch/internal/queue"
)

// Format selects the bundle encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrInvalidBundle marks a bundle that decodes but describes an unusable set.
var ErrInvalidBundle = errors.New("invalid bundle")

// Bundle is the on-disk shape of an ingestion file.
type Bundle struct {
	Sets []SetRecord `json:"sets" yaml:"sets"`
}

// SetRecord describes one document set in a bundle.
type SetRecord struct {
	ID          string           `json:"id" yaml:"id"`
	Vendor      string           `json:"vendor" yaml:"vendor"`
	PONumber    string           `json:"po_number" yaml:"po_number"`
	TotalAmount float64          `json:"total_amount" yaml:"total_amount"`
	Priority    string           `json:"priority" yaml:"priority"`
	AssignedTo  string           `json:"assigned_to" yaml:"assigned_to"`
	QueuedAt    *time.Time       `json:"queued_at" yaml:"queued_at"`
	Documents   []DocumentRecord `json:"documents" yaml:"documents"`
}

// DocumentRecord describes one document in a bundle.
type DocumentRecord struct {
	ID               string           `json:"id" yaml:"id"`
	Kind             string           `json:"kind" yaml:"kind"`
	DocumentNumber   string           `json:"document_number" yaml:"document_number"`
	Vendor           string           `json:"vendor" yaml:"vendor"`
	TotalAmount      *float64         `json:"total_amount" yaml:"total_amount"`
	ApprovedForMatch bool             `json:"approved_for_match" yaml:"approved_for_match"`
	LineItems        []LineItemRecord `json:"line_items" yaml:"line_items"`
	LineItemsCSV     string           `json:"line_items_csv" yaml:"line_items_csv"`
}

// LineItemRecord describes one line item in a bundle.
type LineItemRecord struct {
	SKU           string   `json:"sku" yaml:"sku"`
	Description   string   `json:"description" yaml:"description"`
	Quantity      float64  `json:"quantity" yaml:"quantity"`
	UnitOfMeasure string   `json:"uom" yaml:"uom"`
	UnitPrice     float64  `json:"unit_price" yaml:"unit_price"`
	TotalPrice    *float64 `json:"total_price" yaml:"total_price"`
}

// FormatForPath infers the bundle format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unsupported bundle extension %q", ErrInvalidBundle, filepath.Ext(path))
	}
}

// LoadBundle reads the bundle at path and converts it into document sets.
// CSV line-item references resolve relative to the bundle's directory.
func LoadBundle(path string) ([]queue.DocumentSet, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}
	sets, err := DecodeBundle(data, format, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return sets, nil
}

// DecodeBundle converts raw bundle bytes into document sets. baseDir
// resolves CSV references; an empty baseDir rejects every CSV reference,
// which is how bundles received over HTTP are decoded.
func DecodeBundle(data []byte, format Format, baseDir string) ([]queue.DocumentSet, error) {
	var bundle Bundle
	switch format {
	case FormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&bundle); err != nil {
			return nil, fmt.Errorf("%w: decode json: %v", ErrInvalidBundle, err)
		}
	case FormatYAML:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&bundle); err != nil {
			return nil, fmt.Errorf("%w: decode yaml: %v", ErrInvalidBundle, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidBundle, format)
	}

	sets := make([]queue.DocumentSet, 0, len(bundle.Sets))
	for i, record := range bundle.Sets {
		set, err := record.toSet(baseDir)
		if err != nil {
			return nil, fmt.Errorf("set %d: %w", i+1, err)
		}
		sets = append(sets, set)
	}
	return sets, nil
}

func (r SetRecord) toSet(baseDir string) (queue.DocumentSet, error) {
	priority, ok := queue.ParsePriority(r.Priority)
	if !ok {
		return queue.DocumentSet{}, fmt.Errorf("%w: unknown priority %q", ErrInvalidBundle, r.Priority)
	}
	set := queue.DocumentSet{
		ID:           strings.TrimSpace(r.ID),
		Vendor:       strings.TrimSpace(r.Vendor),
		PONumber:     strings.TrimSpace(r.PONumber),
		TotalAmount:  r.TotalAmount,
		Status:       queue.StatusIncomplete,
		PriorityFlag: priority,
		AssignedTo:   strings.TrimSpace(r.AssignedTo),
	}
	if r.QueuedAt != nil {
		set.QueuedAt = r.QueuedAt.UTC()
	}

	for _, docRecord := range r.Documents {
		doc, err := docRecord.toDocument(baseDir)
		if err != nil {
			return queue.DocumentSet{}, err
		}
		if set.Slot(doc.Kind) != nil {
			return queue.DocumentSet{}, fmt.Errorf("%w: more than one %s", ErrInvalidBundle, doc.Kind.Label())
		}
		set.SetSlot(doc)
	}

	if set.Vendor == "" {
		for _, doc := range set.Documents() {
			if doc.Vendor != "" {
				set.Vendor = doc.Vendor
				break
			}
		}
	}
	if set.PONumber == "" && set.PurchaseOrder != nil {
		set.PONumber = set.PurchaseOrder.DocumentNumber
	}
	if set.TotalAmount == 0 {
		for _, doc := range set.Documents() {
			set.TotalAmount = max(set.TotalAmount, doc.TotalAmount)
		}
	}
	return set, nil
}

func (r DocumentRecord) toDocument(baseDir string) (*queue.Document, error) {
	kind, ok := queue.ParseDocumentKind(r.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: unknown document kind %q", ErrInvalidBundle, r.Kind)
	}
	doc := &queue.Document{
		ID:               strings.TrimSpace(r.ID),
		Kind:             kind,
		DocumentNumber:   strings.TrimSpace(r.DocumentNumber),
		Vendor:           strings.TrimSpace(r.Vendor),
		ApprovedForMatch: r.ApprovedForMatch,
	}
	for _, item := range r.LineItems {
		doc.LineItems = append(doc.LineItems, item.toLineItem())
	}
	if r.LineItemsCSV != "" {
		items, err := readCSVReference(baseDir, r.LineItemsCSV)
		if err != nil {
			return nil, err
		}
		doc.LineItems = append(doc.LineItems, items...)
	}
	if r.TotalAmount != nil {
		doc.TotalAmount = *r.TotalAmount
	} else {
		for _, item := range doc.LineItems {
			doc.TotalAmount += item.TotalPrice
		}
	}
	return doc, nil
}

func (r LineItemRecord) toLineItem() queue.LineItem {
	item := queue.LineItem{
		SKU:           strings.TrimSpace(r.SKU),
		Description:   strings.TrimSpace(r.Description),
		Quantity:      r.Quantity,
		UnitOfMeasure: strings.TrimSpace(r.UnitOfMeasure),
		UnitPrice:     r.UnitPrice,
	}
	if r.TotalPrice != nil {
		item.TotalPrice = *r.TotalPrice
	} else {
		item.TotalPrice = r.Quantity * r.UnitPrice
	}
	return item
}

func readCSVReference(baseDir, ref string) ([]queue.LineItem, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("%w: line_items_csv %q needs a bundle directory", ErrInvalidBundle, ref)
	}
	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, ref)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open line items %s: %w", ref, err)
	}
	defer file.Close()
	items, err := ReadLineItemsCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}
	return items, nil
}

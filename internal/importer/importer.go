package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"commerce-storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// ProductWriter creates (or, for a known SKU, updates) a catalog product.
type ProductWriter interface {
	CreateProduct(ctx context.Context, in domain.ProductInput) (*domain.Product, error)
}

// ProductWriterFunc adapts a plain function, such as the admin product
// store's Create, to ProductWriter.
type ProductWriterFunc func(ctx context.Context, in domain.ProductInput) (*domain.Product, error)

func (f ProductWriterFunc) CreateProduct(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	return f(ctx, in)
}

// CSVImporter reads a catalog CSV and writes one product per row.
//
// Recognised headers: name, description, sku, price, stockQuantity,
// categoryId, category (matched by name), imageUrl. name and price are
// required.
type CSVImporter struct {
	reader     *csv.Reader
	writer     ProductWriter
	categories map[string]int64
}

func NewCSVImporter(r io.Reader, writer ProductWriter, categories []domain.Category) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	byName := make(map[string]int64, len(categories))
	for _, c := range categories {
		byName[strings.ToLower(strings.TrimSpace(c.Name))] = c.ID
	}
	return &CSVImporter{
		reader:     csvr,
		writer:     writer,
		categories: byName,
	}
}

// Run imports every row and returns how many products were written. It stops
// at the first invalid row or failed write.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, required := range []string{"name", "price"} {
		if _, ok := index[required]; !ok {
			return 0, fmt.Errorf("missing %q column: %w", required, domain.ErrInvalidInput)
		}
	}

	imported := 0
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line, _ := i.reader.FieldPos(0)
		if blank(record) {
			continue
		}

		in, err := i.parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		if _, err := i.writer.CreateProduct(ctx, in); err != nil {
			return imported, fmt.Errorf("line %d: create product %q: %w", line, in.Name, err)
		}
		imported++
	}
	return imported, nil
}

func (i *CSVImporter) parseRow(record []string, index map[string]int) (domain.ProductInput, error) {
	in := domain.ProductInput{
		Name:        pick(record, index, "name"),
		Description: pick(record, index, "description"),
		SKU:         pick(record, index, "sku"),
		ImageURL:    pick(record, index, "imageUrl"),
	}
	if in.Name == "" {
		return in, fmt.Errorf("name is required: %w", domain.ErrInvalidInput)
	}

	price, err := decimal.NewFromString(pick(record, index, "price"))
	if err != nil {
		return in, fmt.Errorf("invalid price for %q: %w", in.Name, domain.ErrInvalidInput)
	}
	in.Price = price

	if raw := pick(record, index, "stockQuantity"); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil || stock < 0 {
			return in, fmt.Errorf("invalid stockQuantity %q for %q: %w", raw, in.Name, domain.ErrInvalidInput)
		}
		in.StockQuantity = stock
	}

	switch {
	case pick(record, index, "categoryId") != "":
		raw := pick(record, index, "categoryId")
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return in, fmt.Errorf("invalid categoryId %q for %q: %w", raw, in.Name, domain.ErrInvalidInput)
		}
		in.CategoryID = &id
	case pick(record, index, "category") != "":
		name := pick(record, index, "category")
		id, ok := i.categories[strings.ToLower(name)]
		if !ok {
			return in, fmt.Errorf("unknown category %q for %q: %w", name, in.Name, domain.ErrInvalidInput)
		}
		in.CategoryID = &id
	}
	return in, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

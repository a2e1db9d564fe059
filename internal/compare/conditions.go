// Package compare turns a product's variants into the fixed card-condition
// comparison shown next to a selected product.
package compare

import (
	"fmt"
	"strings"

	"github.com/Houeta/darkside-companion/internal/models"
)

// Conditions is the fixed display order of card conditions.
var Conditions = []string{ //nolint:gochecknoglobals // fixed vocabulary
	"Near Mint",
	"Lightly Played",
	"Moderately Played",
	"Heavily Played",
	"Damaged",
}

// StockTier doubles as the CSS class of the stock cell.
type StockTier string

const (
	InStock    StockTier = "in-stock"
	LowStock   StockTier = "low-stock"
	OutOfStock StockTier = "out-of-stock"
)

const lowStockMax = 3

// Row labels.
const (
	NoPrice         = "—"
	NotAvailable    = "Not Available"
	LabelOutOfStock = "Out of Stock"
	LabelInStock    = "In Stock"
	LabelAddToCart  = "Add to Cart"
	LabelUnavail    = "Unavailable"
)

// Row is one rendered condition line.
type Row struct {
	Condition   string
	Matched     bool
	VariantID   int64
	Quantity    int
	Tier        StockTier
	PriceText   string
	StockText   string
	ActionLabel string
	Disabled    bool
}

// Tier classifies an inventory quantity.
func Tier(qty int) StockTier {
	switch {
	case qty <= 0:
		return OutOfStock
	case qty <= lowStockMax:
		return LowStock
	default:
		return InStock
	}
}

// MatchVariant returns the first variant whose option1 equals label or
// whose title contains it.
func MatchVariant(variants []models.Variant, label string) (models.Variant, bool) {
	for _, v := range variants {
		if v.Option1 == label || strings.Contains(v.Title, label) {
			return v, true
		}
	}

	return models.Variant{}, false
}

// Rows builds one row per entry of Conditions, in order.
func Rows(product *models.Product) []Row {
	rows := make([]Row, 0, len(Conditions))

	for _, label := range Conditions {
		var variants []models.Variant
		if product != nil {
			variants = product.Variants
		}

		variant, ok := MatchVariant(variants, label)
		if !ok {
			rows = append(rows, Row{
				Condition:   label,
				Tier:        OutOfStock,
				PriceText:   NoPrice,
				StockText:   NotAvailable,
				ActionLabel: LabelUnavail,
				Disabled:    true,
			})
			continue
		}

		rows = append(rows, matchedRow(label, variant))
	}

	return rows
}

func matchedRow(label string, variant models.Variant) Row {
	qty := variant.Quantity()
	row := Row{
		Condition:   label,
		Matched:     true,
		VariantID:   variant.ID,
		Quantity:    qty,
		Tier:        Tier(qty),
		PriceText:   fmt.Sprintf("%.2f", float64(variant.Price)/100), //nolint:mnd // minor units
		ActionLabel: LabelAddToCart,
	}

	switch row.Tier {
	case OutOfStock:
		row.StockText = LabelOutOfStock
		row.ActionLabel = LabelOutOfStock
		row.Disabled = true
	case LowStock:
		row.StockText = fmt.Sprintf("%d left", qty)
	case InStock:
		row.StockText = LabelInStock
	}

	return row
}

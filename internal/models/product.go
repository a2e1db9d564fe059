package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Product is a storefront product as returned by /products/{handle}.js.
type Product struct {
	ID            int64     `json:"id"`
	Handle        string    `json:"handle"`
	Title         string    `json:"title"`
	Vendor        string    `json:"vendor"`
	Type          string    `json:"type"`
	ProductType   string    `json:"product_type"`
	Description   string    `json:"description"`
	FeaturedImage ImageRef  `json:"featured_image"`
	Price         int64     `json:"price"`
	Variants      []Variant `json:"variants"`
}

// Variant is one purchasable option of a product. Price is in minor units.
type Variant struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	Option1           string `json:"option1"`
	Price             int64  `json:"price"`
	InventoryQuantity *int   `json:"inventory_quantity"`
	Available         bool   `json:"available"`
}

// Quantity returns the tracked inventory, treating an untracked variant as zero.
func (v Variant) Quantity() int {
	if v.InventoryQuantity == nil {
		return 0
	}

	return *v.InventoryQuantity
}

// Kind returns the product type under whichever key the storefront used.
func (p *Product) Kind() string {
	if p.Type != "" {
		return p.Type
	}

	return p.ProductType
}

// ProductSummary is the short form of a product used by search results
// and wishlist snapshots.
type ProductSummary struct {
	Handle       string `json:"handle"`
	Title        string `json:"title"`
	Image        string `json:"image"`
	Type         string `json:"type"`
	Price        string `json:"price"`
	Vendor       string `json:"vendor"`
	VariantCount int    `json:"variantCount"`
}

// Summary builds a ProductSummary with the price formatted as major units.
func (p *Product) Summary() ProductSummary {
	return ProductSummary{
		Handle:       p.Handle,
		Title:        p.Title,
		Image:        p.FeaturedImage.URL,
		Type:         p.Kind(),
		Price:        fmt.Sprintf("%.2f", float64(p.Price)/100), //nolint:mnd // minor units
		Vendor:       p.Vendor,
		VariantCount: len(p.Variants),
	}
}

// ImageRef is an image reference that the storefront encodes either as a
// bare URL string or as an object with a url field.
type ImageRef struct {
	URL string
	Alt string
}

func (i *ImageRef) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*i = ImageRef{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("image url: %w", err)
		}
		*i = ImageRef{URL: s}
		return nil
	}

	var obj struct {
		URL string `json:"url"`
		Src string `json:"src"`
		Alt string `json:"alt"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("image object: %w", err)
	}

	*i = ImageRef{URL: obj.URL, Alt: obj.Alt}
	if i.URL == "" {
		i.URL = obj.Src
	}

	return nil
}

func (i ImageRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.URL)
}

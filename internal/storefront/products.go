package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Houeta/darkside-companion/internal/models"
)

type suggestResponse struct {
	Resources struct {
		Results struct {
			Products []suggestProduct `json:"products"`
		} `json:"results"`
	} `json:"resources"`
}

type suggestProduct struct {
	Handle        string            `json:"handle"`
	Title         string            `json:"title"`
	Vendor        string            `json:"vendor"`
	Type          string            `json:"type"`
	ProductType   string            `json:"product_type"`
	Price         flexString        `json:"price"`
	Image         models.ImageRef   `json:"image"`
	FeaturedImage models.ImageRef   `json:"featured_image"`
	Variants      []json.RawMessage `json:"variants"`
}

func (p suggestProduct) summary() models.ProductSummary {
	image := p.FeaturedImage.URL
	if image == "" {
		image = p.Image.URL
	}

	kind := p.ProductType
	if kind == "" {
		kind = p.Type
	}

	return models.ProductSummary{
		Handle:       p.Handle,
		Title:        p.Title,
		Image:        image,
		Type:         kind,
		Price:        string(p.Price),
		Vendor:       p.Vendor,
		VariantCount: len(p.Variants),
	}
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("flexString: %w", err)
		}
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("flexString: %w", err)
	}
	*f = flexString(n.String())

	return nil
}

// SuggestProducts returns at most limit product suggestions for query.
func (c *Client) SuggestProducts(ctx context.Context, query string, limit int) ([]models.ProductSummary, error) {
	const opn = "storefront.SuggestProducts"

	params := url.Values{}
	params.Set("q", query)
	params.Set("resources[type]", "product")
	params.Set("resources[limit]", strconv.Itoa(limit))

	var resp suggestResponse
	err := c.do(ctx, request{
		endpoint: "suggest",
		method:   http.MethodGet,
		path:     []string{"search", "suggest.json"},
		query:    params,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	products := resp.Resources.Results.Products
	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}

	out := make([]models.ProductSummary, 0, len(products))
	for _, p := range products {
		out = append(out, p.summary())
	}

	c.log.DebugContext(ctx, "Received suggestions", "op", opn, "query", query, "count", len(out))

	return out, nil
}

// GetProduct loads the full product document of handle.
func (c *Client) GetProduct(ctx context.Context, handle string) (*models.Product, error) {
	const opn = "storefront.GetProduct"

	var product models.Product
	err := c.do(ctx, request{
		endpoint: "product",
		method:   http.MethodGet,
		path:     []string{"products", handle + ".js"},
	}, &product)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%s: %s: %w", opn, handle, ErrProductNotFound)
		}
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	if product.Handle == "" {
		product.Handle = handle
	}

	return &product, nil
}

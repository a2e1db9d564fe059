package storefront

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Houeta/darkside-companion/internal/models"
)

type cartLine struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

type addRequest struct {
	Items []cartLine `json:"items"`
}

// AddToCart adds quantity units of a variant to the session's cart.
func (c *Client) AddToCart(ctx context.Context, sess *Session, variantID int64, quantity int) error {
	const opn = "storefront.AddToCart"

	err := c.do(ctx, request{
		endpoint: "cart_add",
		method:   http.MethodPost,
		path:     []string{"cart", "add.js"},
		body:     addRequest{Items: []cartLine{{ID: variantID, Quantity: quantity}}},
		session:  sess,
	}, nil)
	if err != nil {
		return fmt.Errorf("%s: variant %d: %w", opn, variantID, err)
	}

	return nil
}

// GetCart returns the session's cart.
func (c *Client) GetCart(ctx context.Context, sess *Session) (*models.Cart, error) {
	const opn = "storefront.GetCart"

	var cart models.Cart
	err := c.do(ctx, request{
		endpoint: "cart",
		method:   http.MethodGet,
		path:     []string{"cart.js"},
		session:  sess,
	}, &cart)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	return &cart, nil
}

type updateRequest struct {
	Updates map[string]int `json:"updates"`
}

// UpdateCart sets line quantities of the session's cart and returns the
// updated cart. Keys are line keys or variant ids; quantity 0 removes the line.
func (c *Client) UpdateCart(ctx context.Context, sess *Session, updates map[string]int) (*models.Cart, error) {
	const opn = "storefront.UpdateCart"

	var cart models.Cart
	err := c.do(ctx, request{
		endpoint: "cart_update",
		method:   http.MethodPost,
		path:     []string{"cart", "update.js"},
		body:     updateRequest{Updates: updates},
		session:  sess,
	}, &cart)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	return &cart, nil
}

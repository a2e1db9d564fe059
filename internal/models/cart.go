package models

// Cart mirrors the storefront /cart.js document.
type Cart struct {
	Token      string     `json:"token"`
	ItemCount  int        `json:"item_count"`
	TotalPrice int64      `json:"total_price"`
	Currency   string     `json:"currency"`
	Items      []CartItem `json:"items"`
}

// CartItem is one cart line. Key identifies the line for updates.
type CartItem struct {
	Key       string `json:"key"`
	ID        int64  `json:"id"`
	VariantID int64  `json:"variant_id"`
	Handle    string `json:"handle"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
	LinePrice int64  `json:"line_price"`
}

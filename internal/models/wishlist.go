package models

// WishlistItem is a snapshot of a product taken when it was added to a wishlist.
// The JSON layout is the persisted layout.
type WishlistItem struct {
	Handle    string `json:"handle"`
	Title     string `json:"title"`
	Image     string `json:"image"`
	Price     string `json:"price"`
	Vendor    string `json:"vendor"`
	DateAdded string `json:"dateAdded"`
}

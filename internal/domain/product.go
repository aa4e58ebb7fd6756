package domain

// Product is a catalog entry. The catalog service owns it; the storefront
// treats the id as opaque and the whole record as immutable for the lifetime
// of a shop session.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       Money  `json:"price"`
}

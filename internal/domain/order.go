package domain

type OrderItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     Money  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// OrderRequest is the payload sent to the order service.
type OrderRequest struct {
	BuyerEmail string      `json:"buyer_email"`
	BuyerName  string      `json:"buyer_name"`
	IGN        string      `json:"ign"`
	Items      []OrderItem `json:"items"`
	Note       string      `json:"note"`
}

// OrderOutcome is the terminal result of one submission attempt. It is never
// mutated afterwards; a retry produces a new outcome.
type OrderOutcome struct {
	OrderID string `json:"order_id,omitempty"`
	Message string `json:"message,omitempty"`
}

func (o OrderOutcome) Succeeded() bool {
	return o.OrderID != ""
}

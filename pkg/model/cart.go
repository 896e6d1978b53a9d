package model

import "time"

// LineEntry is one item of a shopping cart. Quantity is always >= 1 while
// the entry is in a cart.
type LineEntry struct {
	ItemID    string   `json:"item_id"`
	Name      string   `json:"name"`
	Quantity  int      `json:"qty"`
	UnitPrice Cents    `json:"unit_price"`
	Notes     []string `json:"notes,omitempty"`
}

// LineTotal is quantity times unit price
func (e *LineEntry) LineTotal() Cents {
	return Cents(e.Quantity) * e.UnitPrice
}

// CartLine is the summary view of a LineEntry
type CartLine struct {
	Name      string `json:"name"`
	Quantity  int    `json:"qty"`
	UnitPrice Cents  `json:"unit_price"`
	LineTotal Cents  `json:"line_total"`
}

// CartSummary is the priced content of a cart
type CartSummary struct {
	Items []CartLine `json:"items"`
	Total Cents      `json:"total"`
}

const OrderStatusReceived = "received"

// Order is the persisted form of a placed grocery order
type Order struct {
	OrderID      SnapshotID `json:"order_id"`
	Timestamp    time.Time  `json:"timestamp"`
	CustomerName string     `json:"customer_name"`
	Address      string     `json:"address"`
	Items        []CartLine `json:"items"`
	Total        Cents      `json:"total"`
	Note         string     `json:"note"`
	Status       string     `json:"status"`
}

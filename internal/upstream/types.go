package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jumla-app/trader-gateway/internal/pricing"
)

// ID decodes a JSON identifier that may arrive as a number or a string. The
// marketplace API is inconsistent about this, so identifiers are normalised to
// opaque strings at the boundary.
type ID string

// UnmarshalJSON accepts both 3 and "3".
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("upstream: decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the normalised identifier.
func (id ID) String() string { return string(id) }

// Amount decodes a price that may arrive as a JSON string or number and
// normalises it to minor units. Arithmetic is never performed on the raw form.
type Amount pricing.Money

// UnmarshalJSON accepts "12.5", 12.5 and 12.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	if strings.HasPrefix(s, "\"") {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	value, err := pricing.ParseAmount(s)
	if err != nil {
		return err
	}
	*a = Amount(value)
	return nil
}

// Money converts the amount into the pricing representation.
func (a Amount) Money() pricing.Money { return pricing.Money(a) }

// Credentials is the login payload forwarded to the marketplace API.
type Credentials struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	DeviceName string `json:"device_name,omitempty"`
}

// Profile is the trader or driver record nested in the user payload.
type Profile struct {
	ID   ID     `json:"id"`
	Name string `json:"name,omitempty"`
}

// User is the authenticated account as returned by GET /user.
type User struct {
	ID     ID       `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email,omitempty"`
	Trader *Profile `json:"trader,omitempty"`
	Driver *Profile `json:"driver,omitempty"`
}

// WholesaleStore is a vendor listed for traders.
type WholesaleStore struct {
	ID      ID     `json:"id"`
	Name    string `json:"name"`
	Logo    string `json:"logo,omitempty"`
	Address string `json:"address,omitempty"`
}

// Product is a catalog entry scoped to one wholesale store.
type Product struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Price     Amount `json:"price"`
	Thumbnail string `json:"thumbnail,omitempty"`
	MinOrder  int    `json:"min_order,omitempty"`
}

// DeliveryArea is a serviced area with its delivery fee.
type DeliveryArea struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Price Amount `json:"price"`
}

// OrderProduct is one ordered line inside an order submission.
type OrderProduct struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

// StoreOrder groups the ordered lines of a single wholesale store.
type StoreOrder struct {
	WholesaleStoreID string         `json:"wholesale_store_id"`
	Products         []OrderProduct `json:"products"`
	Deferred         bool           `json:"deferred"`
}

// OrderSubmission is the checkout payload sent to POST /orders.
type OrderSubmission struct {
	TraderID string       `json:"trader_id"`
	AreaID   string       `json:"area_id"`
	Orders   []StoreOrder `json:"orders"`
}

// Order is a previously placed order as listed by GET /trader/orders.
type Order struct {
	ID        ID              `json:"id"`
	Status    string          `json:"status"`
	Total     Amount          `json:"total"`
	CreatedAt string          `json:"created_at,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
}

// Notification is one entry of the user's notification feed.
type Notification struct {
	ID        ID              `json:"id"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	ReadAt    string          `json:"read_at,omitempty"`
	CreatedAt string          `json:"created_at,omitempty"`
}

// Shipment is a shipment record as exposed to drivers. State carries the
// server's state name; the gateway decorates it with the client-side
// transition surface.
type Shipment struct {
	ID        ID              `json:"id"`
	State     string          `json:"state"`
	CreatedAt string          `json:"created_at,omitempty"`
	Order     json.RawMessage `json:"order,omitempty"`
}

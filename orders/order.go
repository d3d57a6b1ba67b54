package orders

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	store "github.com/medatechnology/storefront"
)

// Wire field names of the order_c entity.
const (
	FieldItems             = "items_c"
	FieldTotal             = "total_c"
	FieldDeliveryAddress   = "delivery_address_c"
	FieldPaymentMethod     = "payment_method_c"
	FieldStatus            = "status_c"
	FieldOrderDate         = "order_date_c"
	FieldEstimatedDelivery = "estimated_delivery_c"
)

// Fields is the projection every order query asks for.
var Fields = []string{
	FieldItems,
	FieldTotal,
	FieldDeliveryAddress,
	FieldPaymentMethod,
	FieldStatus,
	FieldOrderDate,
	FieldEstimatedDelivery,
}

// DeliveryWindow is how far after the order date delivery is estimated.
const DeliveryWindow = 5 * 24 * time.Hour

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusConfirmed  Status = "confirmed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusConfirmed:
		return true
	}
	return false
}

// Address is the free-form delivery address structure.
type Address map[string]interface{}

// Item is one order line. Keys the storefront does not know about, and
// known keys whose value is not of the expected type, are kept in Extra and
// written back unchanged.
type Item struct {
	Name      string
	Quantity  int
	Price     decimal.Decimal
	ProductID int
	Image     string
	Extra     map[string]interface{}

	// present is set by UnmarshalJSON to the known keys the wire item carried
	// in their typed shape. Nil for items built in code.
	present map[string]bool
}

const (
	itemName      = "name"
	itemQuantity  = "quantity"
	itemPrice     = "price"
	itemProductID = "productId"
	itemImage     = "image"
)

// MarshalJSON writes Extra, then every typed key that was decoded or is
// non-zero. Items built in code always carry name and quantity.
func (it Item) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(it.Extra)+5)
	for k, v := range it.Extra {
		m[k] = v
	}
	built := it.present == nil
	keep := func(key string, nonZero bool) bool {
		return nonZero || it.present[key]
	}
	if keep(itemName, it.Name != "" || built) {
		m[itemName] = it.Name
	}
	if keep(itemQuantity, it.Quantity != 0 || built) {
		m[itemQuantity] = it.Quantity
	}
	if keep(itemPrice, !it.Price.IsZero()) {
		m[itemPrice] = store.Amount(it.Price)
	}
	if keep(itemProductID, it.ProductID != 0) {
		m[itemProductID] = it.ProductID
	}
	if keep(itemImage, it.Image != "") {
		m[itemImage] = it.Image
	}
	return json.Marshal(m)
}

func (it *Item) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var m map[string]interface{}
	if err := dec.Decode(&m); err != nil {
		return err
	}
	*it = Item{present: make(map[string]bool, 5)}

	if s, ok := m[itemName].(string); ok {
		it.Name = s
		it.take(m, itemName)
	}
	if s, ok := m[itemImage].(string); ok {
		it.Image = s
		it.take(m, itemImage)
	}
	if n, ok := m[itemQuantity].(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			it.Quantity = int(i)
			it.take(m, itemQuantity)
		}
	}
	if n, ok := m[itemProductID].(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			it.ProductID = int(i)
			it.take(m, itemProductID)
		}
	}
	if n, ok := m[itemPrice].(json.Number); ok {
		if d, err := decimal.NewFromString(n.String()); err == nil {
			it.Price = d
			it.take(m, itemPrice)
		}
	}
	if len(m) > 0 {
		it.Extra = m
	}
	return nil
}

func (it *Item) take(m map[string]interface{}, key string) {
	it.present[key] = true
	delete(m, key)
}

// Order is a decoded order_c record. JSON tags keep the wire names so the
// record reads the same to API consumers.
type Order struct {
	ID                int             `json:"Id"`
	Items             []Item          `json:"items_c"`
	Total             decimal.Decimal `json:"total_c"`
	DeliveryAddress   Address         `json:"delivery_address_c"`
	PaymentMethod     string          `json:"payment_method_c"`
	Status            Status          `json:"status_c"`
	OrderDate         time.Time       `json:"order_date_c"`
	EstimatedDelivery time.Time       `json:"estimated_delivery_c"`
}

// ItemCount is the sum of all line quantities.
func (o Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// Decode turns a raw order_c record into an Order. Absent items and address
// decode to empty values; unparseable ones are a *store.DecodeError.
func Decode(rec store.Record) (Order, error) {
	o := Order{
		ID:                rec.GetInt(store.FieldID),
		Total:             rec.GetDecimal(FieldTotal),
		PaymentMethod:     rec.GetString(FieldPaymentMethod),
		Status:            Status(rec.GetString(FieldStatus)),
		OrderDate:         store.TimestampValue(rec[FieldOrderDate]),
		EstimatedDelivery: store.TimestampValue(rec[FieldEstimatedDelivery]),
	}
	if err := store.DecodeJSONArray(rec, FieldItems, &o.Items); err != nil {
		return Order{}, store.ForEntity(store.EntityOrder, err)
	}
	if err := store.DecodeJSONObject(rec, FieldDeliveryAddress, &o.DeliveryAddress); err != nil {
		return Order{}, store.ForEntity(store.EntityOrder, err)
	}
	return o, nil
}

// NewOrder is the input of a create call. Zero values get the create
// defaults: no items, total 0, empty address, status confirmed.
type NewOrder struct {
	Items           []Item
	Total           decimal.Decimal
	DeliveryAddress Address
	PaymentMethod   string
	Status          Status
}

// CreatePayload builds the create record. Both dates are stamped from now.
func (n NewOrder) CreatePayload(now time.Time) (store.Record, error) {
	items := n.Items
	if items == nil {
		items = []Item{}
	}
	itemsJSON, err := store.EncodeJSON(items)
	if err != nil {
		return nil, err
	}

	address := n.DeliveryAddress
	if address == nil {
		address = Address{}
	}
	addressJSON, err := store.EncodeJSON(address)
	if err != nil {
		return nil, err
	}

	status := n.Status
	if status == "" {
		status = StatusConfirmed
	}

	return store.Record{
		FieldItems:             itemsJSON,
		FieldTotal:             store.Amount(n.Total),
		FieldDeliveryAddress:   addressJSON,
		FieldPaymentMethod:     n.PaymentMethod,
		FieldStatus:            string(status),
		FieldOrderDate:         store.FormatTimestamp(now),
		FieldEstimatedDelivery: store.FormatTimestamp(now.Add(DeliveryWindow)),
	}, nil
}

// Patch is a partial update. Opt fields are sent whenever set, zero values
// included; string fields are sent when non-empty; dates when non-zero.
// Everything else is left unchanged on the server.
type Patch struct {
	Items             store.Opt[[]Item]
	Total             store.Opt[decimal.Decimal]
	DeliveryAddress   store.Opt[Address]
	PaymentMethod     string
	Status            Status
	OrderDate         time.Time
	EstimatedDelivery time.Time
}

// Payload builds the update record for order id.
func (p Patch) Payload(id int) (store.Record, error) {
	rec := store.Record{store.FieldID: id}

	if items, ok := p.Items.Get(); ok {
		if items == nil {
			items = []Item{}
		}
		s, err := store.EncodeJSON(items)
		if err != nil {
			return nil, err
		}
		rec[FieldItems] = s
	}
	if total, ok := p.Total.Get(); ok {
		rec[FieldTotal] = store.Amount(total)
	}
	if address, ok := p.DeliveryAddress.Get(); ok {
		if address == nil {
			address = Address{}
		}
		s, err := store.EncodeJSON(address)
		if err != nil {
			return nil, err
		}
		rec[FieldDeliveryAddress] = s
	}
	if p.PaymentMethod != "" {
		rec[FieldPaymentMethod] = p.PaymentMethod
	}
	if p.Status != "" {
		rec[FieldStatus] = string(p.Status)
	}
	if !p.OrderDate.IsZero() {
		rec[FieldOrderDate] = store.FormatTimestamp(p.OrderDate)
	}
	if !p.EstimatedDelivery.IsZero() {
		rec[FieldEstimatedDelivery] = store.FormatTimestamp(p.EstimatedDelivery)
	}
	return rec, nil
}

// Empty reports whether the patch would change nothing.
func (p Patch) Empty() bool {
	return !p.Items.IsSet() && !p.Total.IsSet() && !p.DeliveryAddress.IsSet() &&
		p.PaymentMethod == "" && p.Status == "" && p.OrderDate.IsZero() && p.EstimatedDelivery.IsZero()
}

package domain

// OrderParams are the raw order parameters before signing. Empty string
// fields are treated as absent and excluded from the canonical payload.
type OrderParams struct {
	Market        string
	Side          string // "BUY" or "SELL"
	OrderType     string // "MARKET" or "LIMIT"
	Size          string
	Price         string // empty for market orders
	ClientOrderID string // generated when empty
	ReduceOnly    bool
	PostOnly      bool
}

// Signature is the placeholder signature structure attached to an order.
// It mimics the (r, s, v) shape of a curve signature but is produced from
// a plain digest. Not cryptographically sound; kept for venue-API shape
// compatibility.
type Signature struct {
	R          string `json:"r"`
	S          string `json:"s"`
	RecoveryID int    `json:"recovery_id"`
	Scheme     string `json:"scheme"`
}

// SignedOrderPayload is an order bound to a signature. It is built once
// per attempt, immutable after signing, and never reused: ClientOrderID
// is unique per request.
type SignedOrderPayload struct {
	Market          string    `json:"market"`
	Side            string    `json:"side"`
	OrderType       string    `json:"order_type"`
	Size            string    `json:"size"`
	Price           string    `json:"price,omitempty"`
	ClientOrderID   string    `json:"client_order_id"`
	ReduceOnly      bool      `json:"reduce_only"`
	PostOnly        bool      `json:"post_only"`
	Signature       Signature `json:"signature"`
	TimestampMillis int64     `json:"timestamp_millis"`
}

// Venue order statuses that count as accepted.
const (
	OrderStatusPending = "PENDING"
	OrderStatusOpen    = "OPEN"
	OrderStatusFilled  = "FILLED"
)

// VenueOrderResult is the venue's response to a placed order.
type VenueOrderResult struct {
	OrderID string `json:"order_id"`
	Market  string `json:"market"`
	Status  string `json:"status"`
}

// Accepted reports whether the venue took the order.
func (r *VenueOrderResult) Accepted() bool {
	switch r.Status {
	case OrderStatusPending, OrderStatusOpen, OrderStatusFilled:
		return true
	}
	return false
}

// VenueBalance is a single asset balance on the venue account.
type VenueBalance struct {
	Asset     string  `json:"asset"`
	Available float64 `json:"available"`
}

// VenuePosition is an open position on the venue account.
type VenuePosition struct {
	Market     string  `json:"market"`
	Side       string  `json:"side"`
	Size       float64 `json:"size"`
	EntryPrice float64 `json:"entry_price"`
}

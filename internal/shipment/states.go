package shipment

import "strings"

// State is a shipment lifecycle state as named by the marketplace API.
type State string

const (
	Pending             State = "Pending"
	WaitingForShipping  State = "WaitingForShipping"
	WaitingForReceiving State = "WaitingForReceiving"
	Received            State = "Received"
	Shipping            State = "Shipping"
	Shipped             State = "Shipped"
)

// Parse normalises a raw state string. The API spells some states with
// spaces ("Waiting For Receiving"), so whitespace is stripped before matching.
func Parse(raw string) (State, bool) {
	switch State(strings.ReplaceAll(strings.TrimSpace(raw), " ", "")) {
	case Pending:
		return Pending, true
	case WaitingForShipping:
		return WaitingForShipping, true
	case WaitingForReceiving:
		return WaitingForReceiving, true
	case Received:
		return Received, true
	case Shipping:
		return Shipping, true
	case Shipped:
		return Shipped, true
	}
	return "", false
}

// Label returns the Arabic display label shown to drivers and traders.
func (s State) Label() string {
	switch s {
	case Pending:
		return "قيد الانتظار"
	case WaitingForShipping:
		return "في انتظار الشحن"
	case WaitingForReceiving:
		return "في انتظار الاستلام"
	case Received:
		return "تم الاستلام"
	case Shipping:
		return "قيد التوصيل"
	case Shipped:
		return "تم الشحن"
	}
	return string(s)
}

// Next returns the state a driver may advance this shipment into, if any.
// The delivery leg runs WaitingForReceiving, Received, Shipping, Shipped.
func (s State) Next() (State, bool) {
	switch s {
	case WaitingForReceiving:
		return Received, true
	case Received:
		return Shipping, true
	case Shipping:
		return Shipped, true
	}
	return "", false
}

// CanTransition reports whether moving from s to target is a legal driver
// action. The server stays authoritative; this gate only stops requests that
// could never succeed.
func (s State) CanTransition(target State) bool {
	next, ok := s.Next()
	return ok && next == target
}

// Cancellable reports whether the driver may still release the shipment.
// Delivered shipments are final.
func (s State) Cancellable() bool {
	return s != Shipped && s != ""
}

// Terminal reports whether the shipment has reached the end of its lifecycle.
func (s State) Terminal() bool {
	return s == Shipped
}

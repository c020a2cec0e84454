package shipment

import "testing"

func TestParseNormalisesSpacedStates(t *testing.T) {
	cases := map[string]State{
		"Pending":               Pending,
		"Waiting For Shipping":  WaitingForShipping,
		"WaitingForReceiving":   WaitingForReceiving,
		"Waiting For Receiving": WaitingForReceiving,
		"Received":              Received,
		"Shipping":              Shipping,
		"Shipped":               Shipped,
	}
	for raw, want := range cases {
		got, ok := Parse(raw)
		if !ok {
			t.Fatalf("Parse(%q) not recognised", raw)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %q, want %q", raw, got, want)
		}
	}
	if _, ok := Parse("Teleported"); ok {
		t.Fatal("unknown state must not parse")
	}
}

func TestDeliveryLegProgression(t *testing.T) {
	order := []State{WaitingForReceiving, Received, Shipping, Shipped}
	for i := 0; i < len(order)-1; i++ {
		next, ok := order[i].Next()
		if !ok || next != order[i+1] {
			t.Fatalf("%s.Next() = %q, %v; want %q", order[i], next, ok, order[i+1])
		}
		if !order[i].CanTransition(order[i+1]) {
			t.Fatalf("%s must transition to %s", order[i], order[i+1])
		}
	}
	if _, ok := Shipped.Next(); ok {
		t.Fatal("Shipped is terminal")
	}
	if WaitingForReceiving.CanTransition(Shipped) {
		t.Fatal("skipping states must be rejected")
	}
	if Pending.CanTransition(Received) {
		t.Fatal("Pending is not on the driver leg")
	}
}

func TestCancellableUntilShipped(t *testing.T) {
	for _, s := range []State{Pending, WaitingForShipping, WaitingForReceiving, Received, Shipping} {
		if !s.Cancellable() {
			t.Fatalf("%s should be cancellable", s)
		}
	}
	if Shipped.Cancellable() {
		t.Fatal("Shipped must not be cancellable")
	}
	if !Shipped.Terminal() {
		t.Fatal("Shipped is terminal")
	}
}

func TestArabicLabels(t *testing.T) {
	if Received.Label() != "تم الاستلام" {
		t.Fatalf("unexpected label %q", Received.Label())
	}
	if Shipping.Label() != "قيد التوصيل" {
		t.Fatalf("unexpected label %q", Shipping.Label())
	}
	// Unknown states fall back to their raw name.
	if State("Weird").Label() != "Weird" {
		t.Fatal("unknown state should echo its name")
	}
}

package domain

import (
	"encoding/json"
	"testing"
)

const cartFixture = `{
  "cartId": 11,
  "items": [
    {"id": 1, "productId": 7, "productName": "Mug", "productPrice": 10, "quantity": 2, "subtotal": 20},
    {"id": 2, "productId": 9, "productName": "Tee", "productPrice": "19.99", "quantity": 3, "subtotal": 59.97}
  ],
  "itemCount": 2,
  "totalItems": 5,
  "subtotal": 79.97,
  "isEmpty": false
}`

func TestCartSnapshotVerifyFixture(t *testing.T) {
	var cart CartSnapshot
	if err := json.Unmarshal([]byte(cartFixture), &cart); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if err := cart.Verify(); err != nil {
		t.Fatalf("fixture should satisfy cart math: %v", err)
	}
}

func TestCartSnapshotVerifyDetectsItemMismatch(t *testing.T) {
	var cart CartSnapshot
	if err := json.Unmarshal([]byte(cartFixture), &cart); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	cart.Items[0].Quantity = 3
	if err := cart.Verify(); err == nil {
		t.Fatalf("expected item subtotal mismatch")
	}
}

func TestCartSnapshotVerifyDetectsTotalMismatch(t *testing.T) {
	var cart CartSnapshot
	if err := json.Unmarshal([]byte(cartFixture), &cart); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	cart.Items = cart.Items[:1]
	if err := cart.Verify(); err == nil {
		t.Fatalf("expected cart subtotal mismatch")
	}
}

func TestCartSnapshotVerifyEmpty(t *testing.T) {
	if err := (CartSnapshot{IsEmpty: true}).Verify(); err != nil {
		t.Fatalf("empty cart should verify: %v", err)
	}
}

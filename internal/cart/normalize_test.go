package cart

import (
	"reflect"
	"testing"

	"checkout-service/internal/models"
)

func TestNormalizeIdempotent(t *testing.T) {
	lines := []models.CartLine{
		{ProductID: "p1", StoreID: "s1", Quantity: -4, UnitPrice: 120},
		{ProductID: "p1", StoreID: "s1", Quantity: 3, UnitPrice: 120},
		{ProductID: "", StoreID: "s1", Quantity: 2},
		{ProductID: "p2", StoreID: "s1", Quantity: 100000, UnitPrice: -5},
		{ProductID: "p3", StoreID: "s2", Quantity: 1},
	}
	once := Normalize(lines)
	twice := Normalize(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("normalize not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestNormalizeMaxMergeNotSum(t *testing.T) {
	lines := []models.CartLine{
		{ProductID: "pX", StoreID: "s1", Quantity: 1, UnitPrice: 50},
		{ProductID: "pX", StoreID: "s1", Quantity: 1, UnitPrice: 50},
	}
	got := Normalize(lines)
	if len(got) != 1 {
		t.Fatalf("expected 1 merged line, got %d", len(got))
	}
	if got[0].Quantity != 1 {
		t.Fatalf("duplicate sources must merge by max, not sum: qty=%d", got[0].Quantity)
	}

	lines[1].Quantity = 4
	got = Normalize(lines)
	if got[0].Quantity != 4 {
		t.Fatalf("merge should keep the max quantity, got %d", got[0].Quantity)
	}
}

func TestNormalizeQuantityClamp(t *testing.T) {
	for _, q := range []int{0, -1, MaxQuantity + 1, 1 << 30} {
		got := Normalize([]models.CartLine{{ProductID: "p", StoreID: "s", Quantity: q}})
		if len(got) != 1 || got[0].Quantity != 1 {
			t.Fatalf("quantity %d should normalize to 1, got %+v", q, got)
		}
	}
	got := Normalize([]models.CartLine{{ProductID: "p", StoreID: "s", Quantity: MaxQuantity}})
	if got[0].Quantity != MaxQuantity {
		t.Fatalf("quantity at cap should be kept, got %d", got[0].Quantity)
	}
}

func TestNormalizePriceClamp(t *testing.T) {
	got := Normalize([]models.CartLine{
		{ProductID: "a", StoreID: "s", Quantity: 1, UnitPrice: -10},
		{ProductID: "b", StoreID: "s", Quantity: 1, UnitPrice: maxUnitPrice + 1},
	})
	for _, l := range got {
		if l.UnitPrice != 0 {
			t.Fatalf("out-of-range price should reset to 0, got %v for %s", l.UnitPrice, l.ProductID)
		}
	}
}

func TestNormalizeSingleStore(t *testing.T) {
	got := Normalize([]models.CartLine{
		{ProductID: "a", StoreID: "s1", Quantity: 1},
		{ProductID: "b", StoreID: "s2", Quantity: 1},
		{ProductID: "c", StoreID: "s1", Quantity: 2},
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 surviving lines, got %d", len(got))
	}
	for _, l := range got {
		if l.StoreID != "s1" {
			t.Fatalf("surviving store must be the first line's store, got %s", l.StoreID)
		}
	}
}

func TestNormalizeDropsLinesMissingIDs(t *testing.T) {
	got := Normalize([]models.CartLine{
		{ProductID: "", StoreID: "s1", Quantity: 1},
		{ProductID: "a", StoreID: "", Quantity: 1},
	})
	if len(got) != 0 {
		t.Fatalf("lines without product or store id must be dropped, got %+v", got)
	}
}

func TestNormalizeFillsMissingFields(t *testing.T) {
	got := Normalize([]models.CartLine{
		{ProductID: "a", StoreID: "s1", Quantity: 2},
		{ProductID: "a", StoreID: "s1", Quantity: 1, Name: "Paneer Roll", UnitPrice: 90, Image: "rolls/1.jpg"},
	})
	if len(got) != 1 {
		t.Fatalf("expected merged line, got %+v", got)
	}
	l := got[0]
	if l.Name != "Paneer Roll" || l.UnitPrice != 90 || l.Image != "rolls/1.jpg" || l.Quantity != 2 {
		t.Fatalf("merge should fill missing fields and keep max qty, got %+v", l)
	}
}

func TestParseLinesMalformed(t *testing.T) {
	for _, raw := range []string{"", "{not json", `{"a":1}`, "null"} {
		if got := parseLines(raw); len(got) != 0 {
			t.Fatalf("malformed storage %q should parse to empty, got %+v", raw, got)
		}
	}
}

func TestParseLinesRepairsFractionalQuantity(t *testing.T) {
	got := parseLines(`[{"product_id":"a","store_id":"s","quantity":2.5,"unit_price":10}]`)
	if len(got) != 1 || got[0].Quantity != 1 {
		t.Fatalf("fractional quantity should repair to 1, got %+v", got)
	}
}

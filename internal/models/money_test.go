package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneyJSONRoundTrip(t *testing.T) {
	cases := map[string]string{
		`"12.345"`: "12.35",
		`7`:        "7.00",
		`"0"`:      "0.00",
		`3.1`:      "3.10",
	}
	for input, want := range cases {
		var m Money
		if err := json.Unmarshal([]byte(input), &m); err != nil {
			t.Fatalf("unmarshal %s failed: %v", input, err)
		}
		if m.String() != want {
			t.Fatalf("unmarshal %s: want %s got %s", input, want, m.String())
		}
		out, err := json.Marshal(m)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if string(out) != `"`+want+`"` {
			t.Fatalf("marshal %s: got %s", input, out)
		}
	}

	var bad Money
	if err := json.Unmarshal([]byte(`"abc"`), &bad); err == nil {
		t.Fatalf("expected error for non numeric amount")
	}
}

func TestMoneyMulQuantityAndScan(t *testing.T) {
	price := NewMoneyFromDecimal(decimal.RequireFromString("19.99"))
	if got := price.MulQuantity(3).String(); got != "59.97" {
		t.Fatalf("unexpected subtotal: %s", got)
	}

	var scanned Money
	if err := scanned.Scan("10.005"); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if scanned.String() != "10.01" || scanned.Float() != 10.01 {
		t.Fatalf("unexpected scanned value: %s", scanned.String())
	}
	value, err := NewMoneyFromInt(4).Value()
	if err != nil || value != "4" {
		t.Fatalf("unexpected driver value: %v %v", value, err)
	}
}

package market

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewValidation(t *testing.T) {
	cases := []struct {
		name                string
		symbol, base, quote string
		priceStep, qtyStep  string
		wantErr             bool
	}{
		{"valid", "BTC-USDT", "BTC", "USDT", "0.01", "0.0001", false},
		{"empty symbol", "", "BTC", "USDT", "0.01", "0.0001", true},
		{"empty base", "BTC-USDT", "", "USDT", "0.01", "0.0001", true},
		{"empty quote", "BTC-USDT", "BTC", "", "0.01", "0.0001", true},
		{"zero price step", "BTC-USDT", "BTC", "USDT", "0", "0.0001", true},
		{"negative qty step", "BTC-USDT", "BTC", "USDT", "0.01", "-1", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := New(tc.symbol, tc.base, tc.quote, d(tc.priceStep), d(tc.qtyStep))
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if m.Status != Active {
				t.Errorf("status = %v, want active", m.Status)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	m, err := New("BTC-USDT", "BTC", "USDT", d("0.01"), d("0.0001"))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Register(m); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(m); err == nil {
		t.Fatal("duplicate register succeeded")
	}

	got, ok := r.Get("BTC-USDT")
	if !ok || got.BaseAsset != "BTC" {
		t.Fatalf("get = %+v ok=%v", got, ok)
	}
	if _, ok := r.Get("DOGE-USDT"); ok {
		t.Fatal("unknown symbol found")
	}
}

func TestDefaultsOrderAndContents(t *testing.T) {
	r := Defaults()
	list := r.List()
	want := []string{"BTC-USDT", "ETH-USDT", "SOL-USDT", "ADA-USDT"}
	if len(list) != len(want) {
		t.Fatalf("markets = %d, want %d", len(list), len(want))
	}
	for i, symbol := range want {
		if list[i].Symbol != symbol {
			t.Errorf("list[%d] = %s, want %s", i, list[i].Symbol, symbol)
		}
		if list[i].QuoteAsset != "USDT" {
			t.Errorf("%s quote = %s, want USDT", symbol, list[i].QuoteAsset)
		}
	}
}

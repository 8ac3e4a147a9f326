package model

import (
	"testing"

	"github.com/google/uuid"
)

func TestCommodity(t *testing.T) {
	tests := []struct {
		name  string
		c     Commodity
		valid bool
		str   string
	}{
		{"gold", Gold, true, "Gold"},
		{"wheat", Wheat, true, "Wheat"},
		{"silk", Silk, true, "Silk"},
		{"spices", Spices, true, "Spices"},
		{"iron", Iron, true, "Iron"},
		{"negative", Commodity(-1), false, "Unknown"},
		{"past end", Commodity(5), false, "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
			if got := tt.c.String(); got != tt.str {
				t.Errorf("String() = %q, want %q", got, tt.str)
			}
		})
	}
}

func TestCityID(t *testing.T) {
	tests := []struct {
		name  string
		c     CityID
		valid bool
		str   string
	}{
		{"silverport", Silverport, true, "Silverport"},
		{"goldmere", Goldmere, true, "Goldmere"},
		{"silkwind", Silkwind, true, "Silkwind"},
		{"ironhold", Ironhold, true, "Ironhold"},
		{"negative", CityID(-1), false, "Unknown"},
		{"past end", CityID(4), false, "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
			if got := tt.c.String(); got != tt.str {
				t.Errorf("String() = %q, want %q", got, tt.str)
			}
		})
	}
}

func TestTradeSide(t *testing.T) {
	if Buy.String() != "buy" {
		t.Errorf("Buy.String() = %q, want %q", Buy.String(), "buy")
	}
	if Sell.String() != "sell" {
		t.Errorf("Sell.String() = %q, want %q", Sell.String(), "sell")
	}
}

func TestZeroValues(t *testing.T) {
	t.Run("zero value Merchant", func(t *testing.T) {
		var m Merchant
		if m.ID != uuid.Nil {
			t.Errorf("zero Merchant.ID = %v, want nil UUID", m.ID)
		}
		if m.Gold != 0 {
			t.Errorf("zero Merchant.Gold = %d, want 0", m.Gold)
		}
	})

	t.Run("zero value TravelStatus", func(t *testing.T) {
		var s TravelStatus
		if s.IsTraveling {
			t.Error("zero TravelStatus.IsTraveling = true, want false")
		}
		if s.TimeRemaining != 0 {
			t.Errorf("zero TravelStatus.TimeRemaining = %v, want 0", s.TimeRemaining)
		}
	})
}

package core

import (
	"math"
	"testing"
)

func boolPtr(b bool) *bool { return &b }

func TestToViewLowBalanceBoundary(t *testing.T) {
	cases := []struct {
		balance string
		low     bool
	}{
		{"9.99", true},
		{"10.00", false},
		{"10", false},
		{"0", true},
		{"150.00", false},
	}
	for _, tc := range cases {
		v := ToView(CardRecord{ID: "1", LastFourDigits: "4532", Balance: tc.balance, ExpiryMonth: "12", ExpiryYear: "26"})
		if v.IsLowBalance != tc.low {
			t.Errorf("balance %q: IsLowBalance=%v, want %v", tc.balance, v.IsLowBalance, tc.low)
		}
	}
}

func TestToViewDefaultsExpired(t *testing.T) {
	v := ToView(CardRecord{ID: "1", LastFourDigits: "4532", Balance: "5"})
	if v.IsExpired {
		t.Fatal("missing isExpired must default to false")
	}
	v = ToView(CardRecord{ID: "1", LastFourDigits: "4532", Balance: "5", IsExpired: boolPtr(true)})
	if !v.IsExpired {
		t.Fatal("expected expired")
	}
	if v.ShowLowBadge() {
		t.Fatal("expired cards must not show the low badge")
	}
}

func TestToViewNaNBalance(t *testing.T) {
	v := ToView(CardRecord{ID: "x", LastFourDigits: "0000", Balance: "not-a-number"})
	if !math.IsNaN(v.Balance) {
		t.Fatalf("expected NaN, got %v", v.Balance)
	}
	if v.IsLowBalance {
		t.Fatal("NaN balance is not low")
	}
	if v.Valid() {
		t.Fatal("NaN view must not be valid")
	}
}

func TestTotal(t *testing.T) {
	if got := Total(nil); got != 0 {
		t.Fatalf("empty total = %v, want 0", got)
	}
	views := ToViews([]CardRecord{
		{ID: "1", Balance: "150.00"},
		{ID: "2", Balance: "8.50"},
		{ID: "3", Balance: "25.00"},
	})
	if got := Total(views); got != 183.50 {
		t.Fatalf("total = %v, want 183.50", got)
	}
	s := Summarize(views)
	if s.Count != 3 || s.CountLabel() != "3 cards in wallet" {
		t.Fatalf("unexpected summary %+v %q", s, s.CountLabel())
	}
	if got := (Summary{Count: 1}).CountLabel(); got != "1 card in wallet" {
		t.Fatalf("singular label = %q", got)
	}
}

func TestToViewsPreservesOrder(t *testing.T) {
	views := ToViews([]CardRecord{{ID: "b"}, {ID: "a"}, {ID: "c"}})
	for i, id := range []string{"b", "a", "c"} {
		if views[i].ID != id {
			t.Fatalf("position %d: got %s want %s", i, views[i].ID, id)
		}
	}
}

func TestCardNumberHelpers(t *testing.T) {
	if got := LastFour("4111 1111 1111 1111"); got != "1111" {
		t.Fatalf("LastFour = %q", got)
	}
	if got := LastFour("4532015112830366"); got != "0366" {
		t.Fatalf("LastFour = %q", got)
	}
	cases := map[string]string{
		"4111111111111111":    "4111 1111 1111 1111",
		"4111 11":             "4111 11",
		"4111-1111":           "4111 1111",
		"12345678901234567890": "1234 5678 9012 3456 789",
		"":                    "",
	}
	for in, want := range cases {
		if got := FormatCardNumber(in); got != want {
			t.Errorf("FormatCardNumber(%q) = %q, want %q", in, got, want)
		}
	}
	v := CardView{LastFourDigits: "4532", ExpiryMonth: "12", ExpiryYear: "26"}
	if v.MaskedNumber() != "•••• •••• •••• 4532" || v.Expiry() != "12/26" {
		t.Fatalf("unexpected display %q %q", v.MaskedNumber(), v.Expiry())
	}
}

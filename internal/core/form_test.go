package core

import (
	"errors"
	"testing"
)

func validForm() AddCardForm {
	return AddCardForm{
		CardNumber:  "4111 1111 1111 1111",
		CVV:         "123",
		ExpiryMonth: "12",
		ExpiryYear:  "26",
		Balance:     "100.00",
	}
}

func TestAddCardFormValid(t *testing.T) {
	if errs := validForm().Validate(); errs != nil {
		t.Fatalf("expected valid form, got %v", errs)
	}
}

func TestAddCardFormMessages(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(*AddCardForm)
		field string
		want  string
	}{
		{"short number", func(f *AddCardForm) { f.CardNumber = "123" }, "cardNumber", "Card number must be 16 digits"},
		{"empty number", func(f *AddCardForm) { f.CardNumber = "" }, "cardNumber", "Card number must be 16 digits"},
		{"long number", func(f *AddCardForm) { f.CardNumber = "41111111111111111111" }, "cardNumber", "Card number is too long"},
		{"letters in number", func(f *AddCardForm) { f.CardNumber = "4111-1111-1111-1111" }, "cardNumber", "Card number must contain only digits"},
		{"cvv length", func(f *AddCardForm) { f.CVV = "12" }, "cvv", "CVV must be 3 digits"},
		{"cvv letters", func(f *AddCardForm) { f.CVV = "12a" }, "cvv", "CVV must contain only digits"},
		{"month empty", func(f *AddCardForm) { f.ExpiryMonth = "" }, "expiryMonth", "Required"},
		{"month 13", func(f *AddCardForm) { f.ExpiryMonth = "13" }, "expiryMonth", "Invalid month (01-12)"},
		{"month single digit", func(f *AddCardForm) { f.ExpiryMonth = "1" }, "expiryMonth", "Invalid month (01-12)"},
		{"year length", func(f *AddCardForm) { f.ExpiryYear = "2026" }, "expiryYear", "Use 2 digits (e.g., 25)"},
		{"year letters", func(f *AddCardForm) { f.ExpiryYear = "2x" }, "expiryYear", "Year must be digits"},
		{"balance empty", func(f *AddCardForm) { f.Balance = "" }, "balance", "Balance is required"},
		{"balance three decimals", func(f *AddCardForm) { f.Balance = "1.234" }, "balance", "Invalid balance format"},
		{"balance negative", func(f *AddCardForm) { f.Balance = "-5" }, "balance", "Invalid balance format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := validForm()
			tc.mut(&f)
			errs := f.Validate()
			if errs == nil {
				t.Fatal("expected validation errors")
			}
			if got := errs[tc.field]; got != tc.want {
				t.Fatalf("%s: got %q, want %q (all: %v)", tc.field, got, tc.want, errs)
			}
			if len(errs) != 1 {
				t.Fatalf("expected only %s to fail, got %v", tc.field, errs)
			}
		})
	}
}

func TestAddCardFormReportsEveryField(t *testing.T) {
	errs := AddCardForm{}.Validate()
	want := []string{"cardNumber", "cvv", "expiryMonth", "expiryYear", "balance"}
	got := errs.Fields()
	if len(got) != len(want) {
		t.Fatalf("fields = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("fields = %v, want %v", got, want)
		}
	}
}

func TestToNewCard(t *testing.T) {
	nc, err := validForm().ToNewCard()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nc.LastFourDigits != "1111" || nc.Balance != "100" || nc.IsExpired {
		t.Fatalf("unexpected payload %+v", nc)
	}
	if nc.ExpiryMonth != "12" || nc.ExpiryYear != "26" {
		t.Fatalf("unexpected expiry %+v", nc)
	}

	f := validForm()
	f.CardNumber = "123"
	_, err = f.ToNewCard()
	var fe FieldErrors
	if !errors.As(err, &fe) || fe["cardNumber"] != "Card number must be 16 digits" {
		t.Fatalf("expected field errors, got %v", err)
	}
}

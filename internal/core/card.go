package core

import (
	"math"
	"strings"
	"unicode"
)

// ToView maps a persisted record to its view. It never fails: an
// unparseable balance becomes NaN and is not flagged as low.
func ToView(c CardRecord) CardView {
	balance := ParseBalance(c.Balance)
	expired := false
	if c.IsExpired != nil {
		expired = *c.IsExpired
	}
	return CardView{
		ID:             c.ID,
		LastFourDigits: c.LastFourDigits,
		Balance:        balance,
		ExpiryMonth:    c.ExpiryMonth,
		ExpiryYear:     c.ExpiryYear,
		IsExpired:      expired,
		IsLowBalance:   balance < LowBalanceThreshold,
	}
}

// ToViews maps records preserving order.
func ToViews(records []CardRecord) []CardView {
	views := make([]CardView, 0, len(records))
	for _, r := range records {
		views = append(views, ToView(r))
	}
	return views
}

// Total sums balances in order. An empty set totals 0; a NaN balance
// makes the total NaN.
func Total(views []CardView) float64 {
	var sum float64
	for _, v := range views {
		sum += v.Balance
	}
	return sum
}

// ShowLowBadge reports whether the "Low" badge is shown. Expired cards
// only carry the expired badge.
func (v CardView) ShowLowBadge() bool {
	return v.IsLowBalance && !v.IsExpired
}

// MaskedNumber renders the card number with only the last four visible.
func (v CardView) MaskedNumber() string {
	return "•••• •••• •••• " + v.LastFourDigits
}

// Expiry renders MM/YY.
func (v CardView) Expiry() string {
	return v.ExpiryMonth + "/" + v.ExpiryYear
}

// Valid reports whether the balance parsed.
func (v CardView) Valid() bool {
	return !math.IsNaN(v.Balance)
}

// StripCardNumber removes whitespace from a typed card number.
func StripCardNumber(number string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, number)
}

// LastFour returns the last four characters of the stripped card number.
func LastFour(number string) string {
	n := StripCardNumber(number)
	if len(n) <= 4 {
		return n
	}
	return n[len(n)-4:]
}

// FormatCardNumber groups the digits of a partially typed number in
// blocks of four, dropping anything that is not a digit and capping the
// input at 19 digits.
func FormatCardNumber(input string) string {
	digits := make([]rune, 0, 19)
	for _, r := range input {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
		if len(digits) == 19 {
			break
		}
	}
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

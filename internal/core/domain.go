package core

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	Purchase TransactionType = "purchase"
	Coffee   TransactionType = "coffee"
	Fuel     TransactionType = "fuel"
	Store    TransactionType = "store"
)

// LowBalanceThreshold is the balance below which a card is flagged as low.
const LowBalanceThreshold = 10.0

type (
	TransactionType string

	// CardRecord is the persisted card as exchanged over the REST API.
	// Balance stays a decimal string end to end.
	CardRecord struct {
		ID             string `json:"id"`
		LastFourDigits string `json:"lastFourDigits"`
		Balance        string `json:"balance"`
		ExpiryMonth    string `json:"expiryMonth"`
		ExpiryYear     string `json:"expiryYear"`
		IsExpired      *bool  `json:"isExpired,omitempty"`
	}

	// CardView is the client-side derived representation of a CardRecord.
	CardView struct {
		ID             string
		LastFourDigits string
		Balance        float64
		ExpiryMonth    string
		ExpiryYear     string
		IsExpired      bool
		IsLowBalance   bool
	}

	// NewCard is the body of a create request. The full card number never
	// leaves the client, only its last four digits.
	NewCard struct {
		LastFourDigits string `json:"lastFourDigits"`
		Balance        string `json:"balance"`
		ExpiryMonth    string `json:"expiryMonth"`
		ExpiryYear     string `json:"expiryYear"`
		IsExpired      bool   `json:"isExpired"`
	}

	Transaction struct {
		ID       string          `json:"id"`
		Merchant string          `json:"merchant"`
		Amount   string          `json:"amount"`
		Date     string          `json:"date"`
		Type     TransactionType `json:"type"`
	}
)

var (
	ErrInvalidLastFour = errors.New("last four digits must be exactly 4 digits")
	ErrInvalidBalance  = errors.New("invalid balance")
	ErrInvalidExpiry   = errors.New("invalid expiry")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrCardNotFound    = errors.New("card not found")
)

var (
	fourDigits  = regexp.MustCompile(`^\d{4}$`)
	monthFormat = regexp.MustCompile(`^(0[1-9]|1[0-2])$`)
	yearFormat  = regexp.MustCompile(`^\d{2}$`)
)

func (t TransactionType) Valid() bool {
	switch t {
	case Purchase, Coffee, Fuel, Store:
		return true
	}
	return false
}

// Label returns the human readable name of the transaction category.
func (t TransactionType) Label() string {
	switch t {
	case Purchase:
		return "Purchase"
	case Coffee:
		return "Coffee"
	case Fuel:
		return "Fuel"
	case Store:
		return "Store"
	}
	return string(t)
}

// Validate checks a create request the way the backend accepts it.
func (n NewCard) Validate() error {
	if !fourDigits.MatchString(n.LastFourDigits) {
		return ErrInvalidLastFour
	}
	if err := ValidateBalance(n.Balance); err != nil {
		return err
	}
	if !monthFormat.MatchString(n.ExpiryMonth) || !yearFormat.MatchString(n.ExpiryYear) {
		return ErrInvalidExpiry
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Merchant) == "" {
		return errors.New("empty merchant")
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if _, err := ParseAmount(t.Amount); err != nil {
		return err
	}
	return nil
}

// ExpiredAt reports whether a card expiring in month/year (MM, YY) is
// expired at now. A card stays valid through the last day of its expiry
// month.
func ExpiredAt(month, year string, now time.Time) (bool, error) {
	if !monthFormat.MatchString(month) || !yearFormat.MatchString(year) {
		return false, ErrInvalidExpiry
	}
	m, _ := strconv.Atoi(month)
	y, _ := strconv.Atoi(year)
	firstInvalid := time.Date(2000+y, time.Month(m)+1, 1, 0, 0, 0, 0, now.Location())
	return !now.Before(firstInvalid), nil
}

// WithExpiry returns a copy of the record with IsExpired computed at now.
// Records with an unparseable expiry are left as not expired.
func (c CardRecord) WithExpiry(now time.Time) CardRecord {
	expired, err := ExpiredAt(c.ExpiryMonth, c.ExpiryYear, now)
	if err != nil {
		expired = false
	}
	c.IsExpired = &expired
	return c
}

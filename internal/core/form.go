package core

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// AddCardForm holds the raw add-card input as typed by the user.
type AddCardForm struct {
	CardNumber  string `json:"cardNumber" validate:"min=16,max=19,card_digits"`
	CVV         string `json:"cvv" validate:"len=3,only_digits"`
	ExpiryMonth string `json:"expiryMonth" validate:"required,expiry_month"`
	ExpiryYear  string `json:"expiryYear" validate:"len=2,only_digits"`
	Balance     string `json:"balance" validate:"required,balance_format"`
}

// FieldErrors maps a form field to its first failing message.
type FieldErrors map[string]string

// formFields fixes the order fields are reported in.
var formFields = []string{"cardNumber", "cvv", "expiryMonth", "expiryYear", "balance"}

var fieldMessages = map[string]map[string]string{
	"cardNumber": {
		"min":         "Card number must be 16 digits",
		"max":         "Card number is too long",
		"card_digits": "Card number must contain only digits",
	},
	"cvv": {
		"len":         "CVV must be 3 digits",
		"only_digits": "CVV must contain only digits",
	},
	"expiryMonth": {
		"required":     "Required",
		"expiry_month": "Invalid month (01-12)",
	},
	"expiryYear": {
		"len":         "Use 2 digits (e.g., 25)",
		"only_digits": "Year must be digits",
	},
	"balance": {
		"required":       "Balance is required",
		"balance_format": "Invalid balance format",
	},
}

var (
	cardDigits    = regexp.MustCompile(`^[\d\s]+$`)
	onlyDigits    = regexp.MustCompile(`^\d+$`)
	balanceFormat = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	mustRegister(v, "card_digits", cardDigits)
	mustRegister(v, "only_digits", onlyDigits)
	mustRegister(v, "expiry_month", monthFormat)
	mustRegister(v, "balance_format", balanceFormat)
	return v
}

func mustRegister(v *validator.Validate, tag string, re *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	})
	if err != nil {
		panic("register validation " + tag + ": " + err.Error())
	}
}

// Validate returns nil when the form can be submitted, otherwise one
// message per failing field.
func (f AddCardForm) Validate() FieldErrors {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"form": err.Error()}
	}
	out := FieldErrors{}
	for _, e := range verrs {
		field := e.Field()
		if _, seen := out[field]; seen {
			continue
		}
		msg, ok := fieldMessages[field][e.Tag()]
		if !ok {
			msg = "Invalid value"
		}
		out[field] = msg
	}
	return out
}

// ToNewCard builds the create request. Only the last four digits of the
// card number are kept and the CVV is dropped.
func (f AddCardForm) ToNewCard() (NewCard, error) {
	if errs := f.Validate(); errs != nil {
		return NewCard{}, errs
	}
	balance, err := NormalizeBalance(f.Balance)
	if err != nil {
		return NewCard{}, err
	}
	return NewCard{
		LastFourDigits: LastFour(f.CardNumber),
		Balance:        balance,
		ExpiryMonth:    f.ExpiryMonth,
		ExpiryYear:     f.ExpiryYear,
		IsExpired:      false,
	}, nil
}

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, field := range fe.Fields() {
		parts = append(parts, field+": "+fe[field])
	}
	return strings.Join(parts, "; ")
}

// Fields lists failing fields in form order.
func (fe FieldErrors) Fields() []string {
	out := make([]string, 0, len(fe))
	for _, f := range formFields {
		if _, ok := fe[f]; ok {
			out = append(out, f)
		}
	}
	for f := range fe {
		if !contains(formFields, f) {
			out = append(out, f)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

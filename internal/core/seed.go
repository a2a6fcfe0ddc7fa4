package core

// SeedCard is a card plus its transaction history as loaded at startup.
type SeedCard struct {
	LastFourDigits string        `yaml:"lastFourDigits"`
	Balance        string        `yaml:"balance"`
	ExpiryMonth    string        `yaml:"expiryMonth"`
	ExpiryYear     string        `yaml:"expiryYear"`
	Transactions   []Transaction `yaml:"transactions"`
}

// NewCard returns the create request for the seeded card.
func (s SeedCard) NewCard() NewCard {
	return NewCard{
		LastFourDigits: s.LastFourDigits,
		Balance:        s.Balance,
		ExpiryMonth:    s.ExpiryMonth,
		ExpiryYear:     s.ExpiryYear,
	}
}

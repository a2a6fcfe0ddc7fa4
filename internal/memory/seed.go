package memory

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"giftwallet/internal/core"
)

type seedFile struct {
	Cards []core.SeedCard `yaml:"cards"`
}

// LoadSeed reads seed cards from a YAML file. A missing file yields the
// demo set; an empty path yields no cards.
func LoadSeed(path string) ([]core.SeedCard, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DemoSeed(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) ([]core.SeedCard, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i, c := range f.Cards {
		if err := c.NewCard().Validate(); err != nil {
			return nil, fmt.Errorf("seed card %d (%s): %w", i, c.LastFourDigits, err)
		}
	}
	return f.Cards, nil
}

func DemoSeed() []core.SeedCard {
	return []core.SeedCard{
		{
			LastFourDigits: "4532", Balance: "150.00", ExpiryMonth: "12", ExpiryYear: "26",
			Transactions: []core.Transaction{
				{ID: "t1", Merchant: "Amazon", Amount: "24.99", Date: "Dec 10, 2025", Type: core.Purchase},
				{ID: "t2", Merchant: "Starbucks", Amount: "6.50", Date: "Dec 9, 2025", Type: core.Coffee},
				{ID: "t3", Merchant: "Shell Gas Station", Amount: "45.00", Date: "Dec 8, 2025", Type: core.Fuel},
				{ID: "t4", Merchant: "Target", Amount: "89.99", Date: "Dec 5, 2025", Type: core.Store},
			},
		},
		{LastFourDigits: "7891", Balance: "8.50", ExpiryMonth: "03", ExpiryYear: "25"},
		{LastFourDigits: "2345", Balance: "25.00", ExpiryMonth: "06", ExpiryYear: "27"},
	}
}

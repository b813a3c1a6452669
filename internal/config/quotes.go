package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Alias1177/ForceGold/models"
)

type quoteFile struct {
	Quotes []struct {
		Pair       string `yaml:"pair"`
		Currency   string `yaml:"currency"`
		Convention string `yaml:"convention"`
	} `yaml:"quotes"`
}

// LoadQuoteTable reads a YAML quoting table:
//
//	quotes:
//	  - pair: EUR/USD
//	    currency: EUR
//	    convention: divide
//	  - pair: USD/JPY
//	    currency: JPY
//	    convention: multiply
func LoadQuoteTable(path string) (models.QuoteTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading quote table: %w", err)
	}
	return ParseQuoteTable(data)
}

// ParseQuoteTable decodes the YAML document accepted by LoadQuoteTable
func ParseQuoteTable(data []byte) (models.QuoteTable, error) {
	var f quoteFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing quote table: %w", err)
	}
	if len(f.Quotes) == 0 {
		return nil, fmt.Errorf("quote table has no entries")
	}

	table := make(models.QuoteTable, len(f.Quotes))
	for _, q := range f.Quotes {
		if q.Pair == "" {
			return nil, fmt.Errorf("quote table entry without pair")
		}
		conv, err := models.ParseQuoteConvention(q.Convention)
		if err != nil {
			return nil, fmt.Errorf("pair %s: %w", q.Pair, err)
		}
		if _, dup := table[q.Pair]; dup {
			return nil, fmt.Errorf("pair %s listed twice", q.Pair)
		}
		table[q.Pair] = models.QuoteEntry{Pair: q.Pair, Currency: q.Currency, Convention: conv}
	}
	return table, nil
}

package constants

import (
	"strings"
)

type Category string

const (
	Groceries     Category = "Groceries"
	Dining        Category = "Dining"
	Transport     Category = "Transport"
	Travel        Category = "Travel"
	Utilities     Category = "Utilities"
	Healthcare    Category = "Healthcare"
	Entertainment Category = "Entertainment"
	Shopping      Category = "Shopping"
	Subscriptions Category = "Subscriptions"
	Education     Category = "Education"
	Other         Category = "Other"
)

var allCategories = []Category{
	Groceries,
	Dining,
	Transport,
	Travel,
	Utilities,
	Healthcare,
	Entertainment,
	Shopping,
	Subscriptions,
	Education,
	Other,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Other, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]Category{
		"supermarket":  Groceries,
		"restaurant":   Dining,
		"cafe":         Dining,
		"coffee":       Dining,
		"uber":         Transport,
		"lyft":         Transport,
		"taxi":         Transport,
		"fuel":         Transport,
		"gas":          Transport,
		"airline":      Travel,
		"hotel":        Travel,
		"pharmacy":     Healthcare,
		"saas":         Subscriptions,
		"subscription": Subscriptions,
		"streaming":    Subscriptions,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	// check if it matches any category string
	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return Other, false
}

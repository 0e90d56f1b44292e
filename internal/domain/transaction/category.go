package transaction

import "strings"

// DefaultCategory is used when no keyword matches.
const DefaultCategory = "other"

type keywordCategory struct {
	category string
	keywords []string
}

// categoryKeywords is checked in order; the first match wins.
var categoryKeywords = []keywordCategory{
	{"salary", []string{"salary", "income"}},
	{"housing", []string{"rent", "housing"}},
	{"food", []string{"food", "restaurant", "swiggy", "zomato"}},
	{"transportation", []string{"uber", "ola", "transport", "petrol"}},
	{"shopping", []string{"amazon", "flipkart", "shopping"}},
	{"entertainment", []string{"netflix", "spotify", "entertainment"}},
	{"utilities", []string{"electric", "water", "gas", "bill"}},
	{"healthcare", []string{"hospital", "medical", "pharmacy"}},
	{"education", []string{"education", "course", "school"}},
	{"other", []string{"atm", "cash"}},
	{"transfer", []string{"transfer", "upi", "neft", "imps"}},
}

// Categorize assigns a category by substring match on the lower-cased description.
// Manual entry and import share it so both paths classify identically.
func Categorize(description string) string {
	desc := strings.ToLower(description)
	if desc == "" {
		return DefaultCategory
	}

	for _, kc := range categoryKeywords {
		for _, kw := range kc.keywords {
			if strings.Contains(desc, kw) {
				return kc.category
			}
		}
	}
	return DefaultCategory
}

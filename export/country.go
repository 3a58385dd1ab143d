package export

import (
	"strings"

	"github.com/staykit/subscout/models"
)

// countryKeywords match country mentions in address, title or description
// text. Checked in fixed order so categorization is deterministic.
var countryKeywords = []struct {
	country  string
	keywords []string
}{
	{"United States", []string{"usa", "united states", "california", "florida", "texas", "new york", "colorado", "hawaii"}},
	{"United Kingdom", []string{"united kingdom", "england", "scotland", "wales", "london", "cornwall"}},
	{"Spain", []string{"spain", "españa", "mallorca", "barcelona", "tenerife", "ibiza", "andalucia"}},
	{"France", []string{"france", "provence", "paris", "côte d'azur", "normandy"}},
	{"Italy", []string{"italy", "italia", "tuscany", "sicily", "rome", "amalfi"}},
	{"Portugal", []string{"portugal", "algarve", "lisbon", "madeira"}},
	{"Greece", []string{"greece", "crete", "santorini", "mykonos"}},
	{"Germany", []string{"germany", "deutschland", "bavaria", "berlin"}},
	{"Canada", []string{"canada", "ontario", "british columbia", "quebec"}},
	{"Australia", []string{"australia", "queensland", "sydney", "melbourne"}},
	{"Mexico", []string{"mexico", "méxico", "cancun", "tulum", "baja"}},
	{"Croatia", []string{"croatia", "hrvatska", "dubrovnik", "split"}},
	{"Thailand", []string{"thailand", "phuket", "koh samui", "bangkok"}},
	{"Indonesia", []string{"indonesia", "bali", "lombok"}},
}

// tldCountries resolve a country from the site's own domain suffix when the
// tenant links out to a branded domain. Checked in order, multi-label
// suffixes before their single-label tails, so matching is deterministic.
var tldCountries = []struct {
	suffix  string
	country string
}{
	{".co.uk", "United Kingdom"},
	{".com.au", "Australia"},
	{".uk", "United Kingdom"},
	{".au", "Australia"},
	{".es", "Spain"},
	{".fr", "France"},
	{".it", "Italy"},
	{".pt", "Portugal"},
	{".gr", "Greece"},
	{".de", "Germany"},
	{".ca", "Canada"},
	{".mx", "Mexico"},
	{".hr", "Croatia"},
	{".th", "Thailand"},
	{".id", "Indonesia"},
	{".us", "United States"},
	{".nl", "Netherlands"},
	{".at", "Austria"},
	{".ch", "Switzerland"},
	{".nz", "New Zealand"},
	{".za", "South Africa"},
}

// Country categorizes one record by matching its address, then domain
// suffix, then title and description, against the keyword table. Returns
// "Unknown" when nothing matches.
func Country(rec *models.ClassifiedRecord) string {
	if c := matchKeywords(rec.Address); c != "" {
		return c
	}

	domain := strings.ToLower(rec.Domain)
	for _, entry := range tldCountries {
		if strings.HasSuffix(domain, entry.suffix) {
			return entry.country
		}
	}

	if c := matchKeywords(rec.Title + " " + rec.Description); c != "" {
		return c
	}
	return "Unknown"
}

func matchKeywords(text string) string {
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	for _, entry := range countryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.country
			}
		}
	}
	return ""
}

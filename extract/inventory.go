package extract

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// listingSelectors match listing/card containers tenant templates use for
// individual rentable units. Tried in order; the first selector with
// content-bearing matches decides the count.
var listingSelectors = []string{
	".property-card", ".listing-card", ".listing-item", ".room-card",
	".booking-item", ".rental-item",
	"[data-property]", "[data-room]",
	"[class*=\"property-item\"]", "[class*=\"accommodation\"]", "[class*=\"unit-card\"]",
}

// countPhrases pull an explicit inventory size out of page copy or
// pagination ("12 properties", "showing 8", "1 of 24").
var countPhrases = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)\s*(?:properties|rentals|rooms|units|accommodations|villas|cabins|apartments)`),
	regexp.MustCompile(`showing\s+(\d+)`),
	regexp.MustCompile(`\d+\s+of\s+(\d+)`),
}

// maxPlausibleCount rejects numbers that are clearly not an inventory size
// (years, prices, zip codes).
const maxPlausibleCount = 500

// inventoryCount estimates the number of rentable units. The strategy order
// is a deliberate bias: explicit structural signals (listing cards) beat
// regex inference from copy, which beats dropdown token counting. When no
// strategy fires, a visible booking affordance still implies at least one
// bookable unit; otherwise zero is positively asserted.
func inventoryCount(doc *goquery.Document, lowerText string, hasBooking bool) int {
	chain := []strategy[int]{
		func() (int, bool) { return countListingElements(doc) },
		func() (int, bool) { return countFromPhrases(lowerText) },
		func() (int, bool) { return countFromOptions(doc) },
	}
	if n, ok := first(chain...); ok {
		return n
	}
	if hasBooking {
		return 1
	}
	return 0
}

func countListingElements(doc *goquery.Document) (int, bool) {
	for _, sel := range listingSelectors {
		n := 0
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			// Skip empty shells and navigation chrome.
			if len(strings.TrimSpace(s.Text())) > 10 {
				n++
			}
		})
		if n > 0 {
			return n, true
		}
	}
	return 0, false
}

func countFromPhrases(lowerText string) (int, bool) {
	for _, re := range countPhrases {
		m := re.FindStringSubmatch(lowerText)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > maxPlausibleCount {
			continue
		}
		return n, true
	}
	return 0, false
}

// countFromOptions counts distinct unit identifiers offered in a
// property/room selection dropdown.
func countFromOptions(doc *goquery.Document) (int, bool) {
	seen := make(map[string]struct{})
	doc.Find(`select[name*="property"] option, select[name*="room"] option, select[name*="unit"] option,
		select[class*="property"] option, select[class*="room"] option`).
		Each(func(_ int, s *goquery.Selection) {
			label := strings.ToLower(strings.TrimSpace(s.Text()))
			if label == "" || strings.HasPrefix(label, "select") || strings.HasPrefix(label, "choose") || label == "all" {
				return
			}
			seen[label] = struct{}{}
		})
	if len(seen) == 0 {
		return 0, false
	}
	return len(seen), true
}

// linkKeywords mark anchors that point at individual inventory pages.
var linkKeywords = []string{
	"property", "room", "unit", "booking", "reserve",
	"accommodation", "rental", "villa", "cabin", "suite",
}

// inventoryLinks collects same-host links to individual units, in document
// order, deduplicated, capped at maxLinks.
func inventoryLinks(doc *goquery.Document, sourceURL string) []string {
	base, err := url.Parse(sourceURL)
	if err != nil {
		return nil
	}

	var links []string
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if len(links) >= maxLinks {
			return
		}
		href, _ := s.Attr("href")
		if href == "" {
			return
		}
		lower := strings.ToLower(href)
		matched := false
		for _, kw := range linkKeywords {
			if strings.Contains(lower, kw) {
				matched = true
				break
			}
		}
		if !matched {
			return
		}

		resolved, err := base.Parse(href)
		if err != nil || (resolved.Scheme != "http" && resolved.Scheme != "https") {
			return
		}
		if !strings.EqualFold(resolved.Host, base.Host) {
			return
		}
		abs := resolved.String()
		if abs == sourceURL {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})

	return links
}

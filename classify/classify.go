// Package classify labels a fetched, extracted site as a tenant customer
// property or a page the hosting platform runs for itself.
//
// The procedure is a deterministic top-down rule list, first match wins.
// It is a heuristic with accepted false rates, not a certainty: ambiguous
// signal deliberately defaults to platform_internal so the lead list stays
// conservative.
package classify

import (
	"strings"

	"github.com/staykit/subscout/models"
)

// titleSignatures mark pages the platform serves directly: error pages,
// help-center and product surfaces. Matched case-insensitively as
// substrings of the page title.
var titleSignatures = []string{
	"page not found",
	"404",
	"error",
	"access denied",
	"help center",
	"knowledge base",
	"learning center",
	"feedback",
	"product roadmap",
	"release notes",
	"status page",
	"under maintenance",
	"account suspended",
	"coming soon",
}

// reservedSubdomains are platform-operated names that never belong to a
// tenant. Matched against the leftmost DNS label.
var reservedSubdomains = map[string]struct{}{
	"www": {}, "api": {}, "app": {}, "admin": {}, "blog": {},
	"help": {}, "support": {}, "support2": {}, "docs": {}, "cdn": {},
	"assets": {}, "static": {}, "mail": {}, "ftp": {}, "dev": {},
	"test": {}, "staging": {}, "demo": {}, "portal": {}, "dashboard": {},
	"auth": {}, "login": {}, "billing": {}, "payments": {}, "feedback": {},
	"roadmap": {}, "status": {}, "updates": {}, "academy": {},
	"platform": {}, "sendy": {}, "learning-center": {}, "omcdn": {},
}

// domainKeywords are rental-business terms used by the mixed-signal rule.
var domainKeywords = []string{
	"book now", "reserve", "availability", "check-in", "check-out",
	"vacation rental", "holiday rental", "guest", "stay with us",
	"our properties", "accommodation",
}

const (
	// substantiveMarkupLen is the raw markup size above which a site is
	// considered to have real content even without a positive inventory
	// count.
	substantiveMarkupLen = 5000

	// ambiguousMarkupLen is the (lower) size bar for the mixed-signal rule.
	ambiguousMarkupLen = 2000
)

// Classify labels one extracted site.
func Classify(title, domain, email, phone string, inventoryCount int, markup string) models.Belonging {
	// Rule 1: known platform-internal signature in title or domain.
	lowerTitle := strings.ToLower(title)
	for _, sig := range titleSignatures {
		if strings.Contains(lowerTitle, sig) {
			return models.BelongingPlatformInternal
		}
	}
	if isReservedSubdomain(domain) {
		return models.BelongingPlatformInternal
	}

	hasContact := email != "" || phone != ""
	hasSubstance := inventoryCount > 0 || len(markup) > substantiveMarkupLen

	// Rule 2: a reachable business with content is a customer.
	if hasContact && hasSubstance {
		return models.BelongingCustomer
	}

	// Rule 3: nothing to contact and nothing to show.
	if !hasContact && !hasSubstance {
		return models.BelongingPlatformInternal
	}

	// Rule 4: mixed signal. Rental-domain vocabulary on a non-trivial page
	// tips toward customer; everything else defaults to internal.
	lowerMarkup := strings.ToLower(markup)
	if len(markup) > ambiguousMarkupLen {
		for _, kw := range domainKeywords {
			if strings.Contains(lowerMarkup, kw) {
				return models.BelongingCustomer
			}
		}
	}
	return models.BelongingPlatformInternal
}

// isReservedSubdomain reports whether the leftmost label of domain is a
// platform-operated name.
func isReservedSubdomain(domain string) bool {
	host := strings.ToLower(domain)
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	label, _, found := strings.Cut(host, ".")
	if !found {
		return false
	}
	_, reserved := reservedSubdomains[label]
	return reserved
}

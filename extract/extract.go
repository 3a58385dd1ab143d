// Package extract turns rendered markup into a structured lead record.
//
// Every field is produced by an ordered chain of independent strategies;
// the chain is folded left to right and the first confident result wins.
// Extraction is a pure function of its inputs: no network I/O, and
// identical markup always yields an identical record.
package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/staykit/subscout/models"
)

// strategy is one independent extraction attempt. ok reports a confident,
// non-empty result; the engine moves on to the next strategy otherwise.
type strategy[T any] func() (T, bool)

// first folds a strategy chain and returns the first confident value.
// A strategy that panics is treated as a miss, never as a failure of the
// whole record.
func first[T any](chain ...strategy[T]) (T, bool) {
	for _, s := range chain {
		if v, ok := attempt(s); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func attempt[T any](s strategy[T]) (v T, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return s()
}

const (
	titleMax       = 200
	descriptionMax = 400
	addressMax     = 400
	addressMin     = 15
	maxLinks       = 15
)

// Extract parses markup fetched from sourceURL and returns the lead record.
// It never fails: unparseable markup yields a record with only URL/domain.
func Extract(markup, sourceURL string) models.ExtractedRecord {
	rec := models.ExtractedRecord{
		URL:    sourceURL,
		Domain: domainOf(sourceURL),
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return rec
	}

	pageText := doc.Text()
	lowerText := strings.ToLower(pageText)

	if title, ok := first(titleChain(doc)...); ok {
		rec.Title = title
	}

	rec.HasContactForm = hasContactForm(doc)
	rec.HasBookingWidget = hasBookingWidget(lowerText)

	rec.PropertyCount = inventoryCount(doc, lowerText, rec.HasBookingWidget)
	rec.PropertyLinks = inventoryLinks(doc, sourceURL)

	if email, ok := first(emailChain(doc, markup)...); ok {
		rec.Email = email
	}
	if phone, ok := first(phoneChain(doc, pageText)...); ok {
		rec.Phone = phone
	}
	if addr, ok := first(addressChain(doc, pageText)...); ok {
		rec.Address = addr
	}
	if desc, ok := first(descriptionChain(doc)...); ok {
		rec.Description = desc
	}

	rec.SocialMedia = socialLinks(doc)
	rec.Amenities = amenities(lowerText)
	rec.Coordinates = coordinates(markup)

	return rec
}

// titleChain has a single strategy today; kept as a chain so heading-based
// fallbacks slot in without changing the engine.
func titleChain(doc *goquery.Document) []strategy[string] {
	return []strategy[string]{
		func() (string, bool) {
			title := strings.TrimSpace(doc.Find("title").First().Text())
			if title == "" {
				return "", false
			}
			return clip(title, titleMax), true
		},
	}
}

// domainOf resolves the host portion of a URL, falling back to the raw
// string when it does not parse.
func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}

// clip bounds a string, dropping any partial rune left at the cut point.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "")
}

// squeeze collapses all runs of whitespace to single spaces.
func squeeze(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

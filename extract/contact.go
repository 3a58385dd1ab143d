package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	reEmail = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	rePhones = []*regexp.Regexp{
		regexp.MustCompile(`(\+\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`),
		regexp.MustCompile(`\+\d{1,3}[-.\s]?\d{2,4}[-.\s]?\d{3,4}[-.\s]?\d{3,4}`),
	}

	reDigits = regexp.MustCompile(`\d`)
)

// emailDenylist rejects placeholder and machine addresses. A denylisted
// address is never returned, even when it is the only candidate; the field
// stays absent instead.
var emailDenylist = []string{
	"noreply", "no-reply", "donotreply", "do-not-reply",
	"example", "test", "spam", "placeholder",
	"sentry", "wixpress", "@sentry",
}

// emailChain prefers explicit mailto: anchors over regex-scanned text; an
// author-declared contact link is authoritative, free text is inference.
func emailChain(doc *goquery.Document, markup string) []strategy[string] {
	return []strategy[string]{
		func() (string, bool) {
			found := ""
			doc.Find(`a[href^="mailto:"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
				href, _ := s.Attr("href")
				addr := strings.TrimPrefix(href, "mailto:")
				if i := strings.IndexByte(addr, '?'); i >= 0 {
					addr = addr[:i]
				}
				addr = strings.TrimSpace(addr)
				if plausibleEmail(addr) {
					found = addr
					return false
				}
				return true
			})
			return found, found != ""
		},
		func() (string, bool) {
			// Scan the raw markup, not just visible text, so addresses in
			// attributes and JSON blobs are found too.
			for _, addr := range reEmail.FindAllString(markup, -1) {
				if plausibleEmail(addr) {
					return addr, true
				}
			}
			return "", false
		},
	}
}

func plausibleEmail(addr string) bool {
	if addr == "" || !reEmail.MatchString(addr) {
		return false
	}
	lower := strings.ToLower(addr)
	for _, banned := range emailDenylist {
		if strings.Contains(lower, banned) {
			return false
		}
	}
	return true
}

// phoneChain prefers tel: anchors, then falls back to number-shaped text.
func phoneChain(doc *goquery.Document, pageText string) []strategy[string] {
	return []strategy[string]{
		func() (string, bool) {
			found := ""
			doc.Find(`a[href^="tel:"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
				href, _ := s.Attr("href")
				num := strings.TrimSpace(strings.TrimPrefix(href, "tel:"))
				if plausiblePhone(num) {
					found = num
					return false
				}
				return true
			})
			return found, found != ""
		},
		func() (string, bool) {
			for _, re := range rePhones {
				for _, m := range re.FindAllString(pageText, -1) {
					num := strings.TrimSpace(m)
					if plausiblePhone(num) {
						return num, true
					}
				}
			}
			return "", false
		},
	}
}

// plausiblePhone accepts candidates with a sane digit count; shorter runs
// are usually prices or dates, longer ones tracking IDs.
func plausiblePhone(num string) bool {
	digits := len(reDigits.FindAllString(num, -1))
	return digits >= 7 && digits <= 15
}

// contactFormKeywords identify forms that function as a contact channel.
var contactFormKeywords = []string{"contact", "inquiry", "enquiry", "message", "booking", "reservation"}

func hasContactForm(doc *goquery.Document) bool {
	found := false
	doc.Find("form").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		html, err := goquery.OuterHtml(s)
		if err != nil {
			return true
		}
		lower := strings.ToLower(html)
		for _, kw := range contactFormKeywords {
			if strings.Contains(lower, kw) {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// bookingKeywords signal a live booking affordance in page copy.
var bookingKeywords = []string{
	"book now", "reserve", "availability", "check-in", "check-out",
	"booking", "reservation", "book online", "instant book",
	"check availability",
}

func hasBookingWidget(lowerText string) bool {
	for _, kw := range bookingKeywords {
		if strings.Contains(lowerText, kw) {
			return true
		}
	}
	return false
}

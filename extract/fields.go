package extract

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/staykit/subscout/models"
)

// addressSelectors are tried in order; structured markup beats class-name
// guessing.
var addressSelectors = []string{
	`[itemtype*="PostalAddress"]`,
	"address",
	".address", ".location", ".contact-address",
	`[class*="address"]`, `[class*="location"]`,
}

var reStreetAddress = regexp.MustCompile(`(?i)\d+[^,\n]*(?:street|st|avenue|ave|road|rd|boulevard|blvd|lane|ln|drive|dr)\b[^,\n]*(?:,\s*[^,\n]+){1,4}`)

// promoMarkers cut promotional copy that templates embed next to the
// address block.
var promoMarkers = []string{"book now", "special offer", "sign up", "subscribe", "follow us"}

func addressChain(doc *goquery.Document, pageText string) []strategy[string] {
	return []strategy[string]{
		func() (string, bool) {
			for _, sel := range addressSelectors {
				addr := squeeze(doc.Find(sel).First().Text())
				if len(addr) >= addressMin {
					return clip(cleanAddress(addr), addressMax), true
				}
			}
			return "", false
		},
		func() (string, bool) {
			m := reStreetAddress.FindString(pageText)
			addr := squeeze(m)
			if len(addr) < addressMin {
				return "", false
			}
			return clip(cleanAddress(addr), addressMax), true
		},
	}
}

func cleanAddress(addr string) string {
	lower := strings.ToLower(addr)
	cut := len(addr)
	for _, marker := range promoMarkers {
		if i := strings.Index(lower, marker); i >= 0 && i < cut {
			cut = i
		}
	}
	return strings.TrimRight(strings.TrimSpace(addr[:cut]), " -|·")
}

// socialPlatforms is the fixed per-platform domain table. Only the first
// match per platform is kept.
var socialPlatforms = []struct {
	name  string
	hosts []string
}{
	{"facebook", []string{"facebook.com", "fb.com"}},
	{"twitter", []string{"twitter.com", "x.com"}},
	{"instagram", []string{"instagram.com"}},
	{"linkedin", []string{"linkedin.com"}},
	{"youtube", []string{"youtube.com", "youtu.be"}},
	{"tiktok", []string{"tiktok.com"}},
}

// genericSocialPaths are platform URLs that identify nobody (login pages,
// share endpoints, the platform home page).
var genericSocialPaths = []string{"/login", "/signup", "/sharer", "/share", "/home", "/intent"}

func socialLinks(doc *goquery.Document) map[string]string {
	links := make(map[string]string)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		u, err := url.Parse(strings.TrimSpace(href))
		if err != nil || u.Host == "" {
			return
		}
		host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
		path := strings.ToLower(u.Path)

		for _, platform := range socialPlatforms {
			if _, taken := links[platform.name]; taken {
				continue
			}
			for _, ph := range platform.hosts {
				if host != ph && !strings.HasSuffix(host, "."+ph) {
					continue
				}
				if path == "" || path == "/" {
					break // bare platform home identifies nobody
				}
				generic := false
				for _, g := range genericSocialPaths {
					if strings.HasPrefix(path, g) {
						generic = true
						break
					}
				}
				if !generic {
					links[platform.name] = href
				}
				break
			}
		}
	})

	if len(links) == 0 {
		return nil
	}
	return links
}

const descriptionMin = 50

func descriptionChain(doc *goquery.Document) []strategy[string] {
	return []strategy[string]{
		func() (string, bool) {
			desc := strings.TrimSpace(doc.Find(`meta[name="description"]`).AttrOr("content", ""))
			if len(desc) < 20 {
				return "", false
			}
			return clip(desc, descriptionMax), true
		},
		func() (string, bool) {
			desc := strings.TrimSpace(doc.Find(`meta[property="og:description"]`).AttrOr("content", ""))
			if len(desc) < 20 {
				return "", false
			}
			return clip(desc, descriptionMax), true
		},
		func() (string, bool) {
			// Scan until the first qualifying paragraph: nav crumbs and
			// consent banners can stack up ahead of the real copy.
			found := ""
			doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
				text := squeeze(s.Text())
				// Cookie notices are long paragraphs too.
				if len(text) > descriptionMin && !strings.Contains(strings.ToLower(text), "cookie") {
					found = text
					return false
				}
				return true
			})
			if found == "" {
				return "", false
			}
			return clip(found, descriptionMax), true
		},
	}
}

// amenityKeywords is the fixed tag vocabulary; matches are returned in
// vocabulary order so identical markup yields an identical tag set.
var amenityKeywords = []string{
	"wifi", "parking", "pool", "gym", "kitchen", "breakfast",
	"air conditioning", "heating", "balcony", "terrace", "garden",
	"beach access", "pet friendly", "wheelchair accessible",
	"laundry", "dishwasher", "microwave", "refrigerator", "hot tub",
	"fireplace", "bbq",
}

func amenities(lowerText string) []string {
	var found []string
	for _, kw := range amenityKeywords {
		if strings.Contains(lowerText, kw) {
			found = append(found, kw)
		}
	}
	return found
}

var (
	reLatitude  = regexp.MustCompile(`(?i)lat(?:itude)?["'\s]*[:=]["'\s]*([+-]?\d{1,3}\.\d+)`)
	reLongitude = regexp.MustCompile(`(?i)(?:lng|lon(?:gitude)?)["'\s]*[:=]["'\s]*([+-]?\d{1,3}\.\d+)`)
)

// coordinates digs a geocoordinate pair out of inline map configuration.
// Both halves must parse and be in range, otherwise the field stays absent.
func coordinates(markup string) *models.Coordinates {
	latM := reLatitude.FindStringSubmatch(markup)
	lngM := reLongitude.FindStringSubmatch(markup)
	if latM == nil || lngM == nil {
		return nil
	}
	lat, errLat := strconv.ParseFloat(latM[1], 64)
	lng, errLng := strconv.ParseFloat(lngM[1], 64)
	if errLat != nil || errLng != nil {
		return nil
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil
	}
	return &models.Coordinates{Latitude: lat, Longitude: lng}
}

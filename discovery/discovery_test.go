package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/staykit/subscout/config"
)

func TestIsCustomerSubdomain(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"oceanview.lodgify.com", true},
		{"casa-del-mar.lodgify.com", true},
		{"www.lodgify.com", false},
		{"api.lodgify.com", false},
		{"learning-center.lodgify.com", false},
		{"ab.lodgify.com", false},          // label too short
		{"lodgify.com", false},             // no subdomain label
		{"oceanview.othersite.com", false}, // wrong domain
		{"OCEANVIEW.lodgify.com", true},
	}

	for _, tt := range tests {
		if got := IsCustomerSubdomain(tt.host, "lodgify.com"); got != tt.want {
			t.Errorf("IsCustomerSubdomain(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}

func TestDiscover_MergesCertLogAndWordlist(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("output") != "json" {
			t.Errorf("missing output=json, query: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`[
			{"name_value": "oceanview.lodgify.com\n*.lodgify.com"},
			{"name_value": "www.lodgify.com"},
			{"name_value": "hillsidecottages.lodgify.com"}
		]`))
	}))
	defer srv.Close()

	f := NewFinder(config.DiscoveryConfig{
		Domain:     "lodgify.com",
		MaxResults: 500,
		CrtShURL:   srv.URL,
		ProbeRPS:   100,
	})

	urls := f.Discover(context.Background())

	if !sort.StringsAreSorted(urls) {
		t.Error("candidate list must be sorted")
	}

	set := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if !strings.HasPrefix(u, "https://") {
			t.Errorf("candidate %q missing scheme", u)
		}
		set[u] = struct{}{}
	}

	for _, want := range []string{
		"https://oceanview.lodgify.com", // from the cert log
		"https://hillsidecottages.lodgify.com",
		"https://beachfront.lodgify.com", // from the wordlist
	} {
		if _, ok := set[want]; !ok {
			t.Errorf("missing candidate %q", want)
		}
	}

	for _, banned := range []string{
		"https://www.lodgify.com", // reserved label
		"https://*.lodgify.com",   // wildcard entry
	} {
		if _, ok := set[banned]; ok {
			t.Errorf("candidate %q should have been filtered", banned)
		}
	}
}

func TestDiscover_CertLogFailureStillYieldsWordlist(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewFinder(config.DiscoveryConfig{
		Domain:     "lodgify.com",
		MaxResults: 500,
		CrtShURL:   srv.URL,
		ProbeRPS:   100,
	})

	urls := f.Discover(context.Background())
	if len(urls) == 0 {
		t.Fatal("wordlist candidates should survive a cert-log outage")
	}
}

func TestDiscover_CapsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	f := NewFinder(config.DiscoveryConfig{
		Domain:     "lodgify.com",
		MaxResults: 5,
		CrtShURL:   srv.URL,
		ProbeRPS:   100,
	})

	urls := f.Discover(context.Background())
	if len(urls) > 5 {
		t.Errorf("candidates = %d, want <= 5", len(urls))
	}
}

package export

import (
	"strings"
	"testing"

	"github.com/staykit/subscout/models"
)

func fullLead() *models.ClassifiedRecord {
	return &models.ClassifiedRecord{
		ExtractedRecord: models.ExtractedRecord{
			URL:              "https://oceanview.lodgify.com",
			Domain:           "oceanview.lodgify.com",
			Title:            "Ocean View Villas",
			PropertyCount:    12,
			Address:          "14 Harbour Road, St Ives",
			Phone:            "+44 1736 555 123",
			Email:            "stay@oceanview.com",
			HasContactForm:   true,
			HasBookingWidget: true,
		},
		Status:    models.StatusSuccess,
		Belonging: models.BelongingCustomer,
	}
}

func TestScore_FullLead(t *testing.T) {
	score, breakdown := Score(fullLead())

	// 35+30+15+10+15 contact/booking signals plus the 11-50 portfolio tier.
	if score != 125 {
		t.Errorf("score = %d, want 125", score)
	}
	for _, part := range []string{"Email(+35)", "Phone(+30)", "Address(+15)", "ContactForm(+10)", "BookingEngine(+15)", "Portfolio(+20)"} {
		if !strings.Contains(breakdown, part) {
			t.Errorf("breakdown %q missing %q", breakdown, part)
		}
	}
}

func TestScore_EmptyLead(t *testing.T) {
	score, breakdown := Score(&models.ClassifiedRecord{})
	if score != 0 {
		t.Errorf("score = %d, want 0", score)
	}
	if breakdown != "" {
		t.Errorf("breakdown = %q, want empty", breakdown)
	}
}

func TestScore_PortfolioTiers(t *testing.T) {
	tests := []struct {
		count int
		want  int
	}{
		{0, 0},
		{1, 15},
		{10, 15},
		{11, 20},
		{50, 20},
		{51, 25},
	}

	for _, tt := range tests {
		rec := &models.ClassifiedRecord{
			ExtractedRecord: models.ExtractedRecord{PropertyCount: tt.count},
		}
		if score, _ := Score(rec); score != tt.want {
			t.Errorf("Score(count=%d) = %d, want %d", tt.count, score, tt.want)
		}
	}
}

func TestGrade(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, "D"}, {29, "D"},
		{30, "C"}, {49, "C"},
		{50, "B"}, {69, "B"},
		{70, "A"}, {89, "A"},
		{90, "A+"}, {125, "A+"},
	}

	for _, tt := range tests {
		if got := Grade(tt.score); got != tt.want {
			t.Errorf("Grade(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestPriority(t *testing.T) {
	if got := Priority("A+"); got != "Immediate" {
		t.Errorf("Priority(A+) = %q", got)
	}
	if got := Priority("D"); got != "Low" {
		t.Errorf("Priority(D) = %q", got)
	}
}

func TestRevenuePotential(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{0, "Low (<$500/month)"},
		{5, "Low-Medium ($500-2K/month)"},
		{20, "Medium ($2K-5K/month)"},
		{50, "Medium-High ($5K-10K/month)"},
		{51, "High ($10K+/month)"},
	}

	for _, tt := range tests {
		if got := RevenuePotential(tt.count); got != tt.want {
			t.Errorf("RevenuePotential(%d) = %q, want %q", tt.count, got, tt.want)
		}
	}
}

func TestCustomers_FiltersFailedAndInternal(t *testing.T) {
	records := []models.ClassifiedRecord{
		*fullLead(),
		{Status: models.StatusFailed, Belonging: models.BelongingCustomer},
		{Status: models.StatusSuccess, Belonging: models.BelongingPlatformInternal},
		{Status: models.StatusPartial, Belonging: models.BelongingCustomer},
	}

	got := Customers(records)
	if len(got) != 2 {
		t.Fatalf("customers = %d, want 2", len(got))
	}
	for _, rec := range got {
		if rec.Status == models.StatusFailed || rec.Belonging != models.BelongingCustomer {
			t.Errorf("unexpected record in customer list: %+v", rec)
		}
	}
}

func TestCountry(t *testing.T) {
	tests := []struct {
		name string
		rec  models.ClassifiedRecord
		want string
	}{
		{
			"address wins",
			models.ClassifiedRecord{ExtractedRecord: models.ExtractedRecord{
				Address: "Carrer de la Mar 14, Mallorca",
				Domain:  "villas.co.uk",
			}},
			"Spain",
		},
		{
			"domain tld fallback",
			models.ClassifiedRecord{ExtractedRecord: models.ExtractedRecord{
				Domain: "seaside-cottages.co.uk",
			}},
			"United Kingdom",
		},
		{
			"multi-label suffix beats its tail",
			models.ClassifiedRecord{ExtractedRecord: models.ExtractedRecord{
				Domain: "reef-stays.com.au",
			}},
			"Australia",
		},
		{
			"single-label uk",
			models.ClassifiedRecord{ExtractedRecord: models.ExtractedRecord{
				Domain: "lakeside-lodges.uk",
			}},
			"United Kingdom",
		},
		{
			"description fallback",
			models.ClassifiedRecord{ExtractedRecord: models.ExtractedRecord{
				Domain:      "oceanview.lodgify.com",
				Description: "Beachfront villas in Tulum with private cenote access.",
			}},
			"Mexico",
		},
		{
			"unknown",
			models.ClassifiedRecord{ExtractedRecord: models.ExtractedRecord{
				Domain: "oceanview.lodgify.com",
			}},
			"Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Country(&tt.rec); got != tt.want {
				t.Errorf("Country = %q, want %q", got, tt.want)
			}
		})
	}
}

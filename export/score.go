// Package export turns a batch of classified records into downstream
// artifacts: JSON, a flattened customer CSV, and a scored XLSX lead sheet.
// It consumes only the output record schema and holds no pipeline state.
package export

import (
	"fmt"
	"strings"

	"github.com/staykit/subscout/models"
)

// Score weights: contact channels dominate, inventory size differentiates.
const (
	emailWeight       = 35
	phoneWeight       = 30
	addressWeight     = 15
	contactFormWeight = 10
	bookingWeight     = 15

	smallPortfolioWeight  = 15 // 1–10 units
	mediumPortfolioWeight = 20 // 11–50 units
	largePortfolioWeight  = 25 // 51+ units
)

// Score assigns a weighted lead score and a human-readable breakdown.
func Score(rec *models.ClassifiedRecord) (int, string) {
	score := 0
	var parts []string

	if rec.Email != "" {
		score += emailWeight
		parts = append(parts, fmt.Sprintf("Email(+%d)", emailWeight))
	}
	if rec.Phone != "" {
		score += phoneWeight
		parts = append(parts, fmt.Sprintf("Phone(+%d)", phoneWeight))
	}
	if rec.Address != "" {
		score += addressWeight
		parts = append(parts, fmt.Sprintf("Address(+%d)", addressWeight))
	}
	if rec.HasContactForm {
		score += contactFormWeight
		parts = append(parts, fmt.Sprintf("ContactForm(+%d)", contactFormWeight))
	}
	if rec.HasBookingWidget {
		score += bookingWeight
		parts = append(parts, fmt.Sprintf("BookingEngine(+%d)", bookingWeight))
	}

	switch {
	case rec.PropertyCount > 50:
		score += largePortfolioWeight
		parts = append(parts, fmt.Sprintf("Portfolio(+%d)", largePortfolioWeight))
	case rec.PropertyCount > 10:
		score += mediumPortfolioWeight
		parts = append(parts, fmt.Sprintf("Portfolio(+%d)", mediumPortfolioWeight))
	case rec.PropertyCount > 0:
		score += smallPortfolioWeight
		parts = append(parts, fmt.Sprintf("Portfolio(+%d)", smallPortfolioWeight))
	}

	return score, strings.Join(parts, "; ")
}

// Grade maps a score to a letter grade.
func Grade(score int) string {
	switch {
	case score >= 90:
		return "A+"
	case score >= 70:
		return "A"
	case score >= 50:
		return "B"
	case score >= 30:
		return "C"
	default:
		return "D"
	}
}

// Priority maps a grade to a sales priority.
func Priority(grade string) string {
	switch grade {
	case "A+":
		return "Immediate"
	case "A":
		return "High"
	case "B":
		return "Medium"
	case "C":
		return "Low-Medium"
	default:
		return "Low"
	}
}

// RevenuePotential buckets estimated monthly revenue by portfolio size.
func RevenuePotential(propertyCount int) string {
	switch {
	case propertyCount <= 0:
		return "Low (<$500/month)"
	case propertyCount <= 5:
		return "Low-Medium ($500-2K/month)"
	case propertyCount <= 20:
		return "Medium ($2K-5K/month)"
	case propertyCount <= 50:
		return "Medium-High ($5K-10K/month)"
	default:
		return "High ($10K+/month)"
	}
}

// Customers filters a batch to reachable tenant leads: successful or
// partially successful records classified as customer.
func Customers(records []models.ClassifiedRecord) []models.ClassifiedRecord {
	var out []models.ClassifiedRecord
	for i := range records {
		if records[i].Status == models.StatusFailed {
			continue
		}
		if records[i].Belonging != models.BelongingCustomer {
			continue
		}
		out = append(out, records[i])
	}
	return out
}

package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/staykit/subscout/models"
	"github.com/xuri/excelize/v2"
)

const leadSheet = "Leads"

var xlsxHeader = []string{
	"URL", "Domain", "Business Name", "Email", "Phone", "Address",
	"Properties", "Contact Form", "Booking Engine",
	"Score", "Score Breakdown", "Grade", "Priority", "Revenue Potential",
	"Country", "Social Profiles", "Status", "Scraped At",
}

// WriteXLSX writes a scored lead sheet for the sales team: customers only,
// highest score first.
func WriteXLSX(path string, records []models.ClassifiedRecord) error {
	leads := Customers(records)
	sort.SliceStable(leads, func(i, j int) bool {
		si, _ := Score(&leads[i])
		sj, _ := Score(&leads[j])
		return si > sj
	})

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", leadSheet); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}

	for col, h := range xlsxHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("export: header cell: %w", err)
		}
		if err := f.SetCellValue(leadSheet, cell, h); err != nil {
			return fmt.Errorf("export: write header: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(xlsxHeader), 1)
		_ = f.SetCellStyle(leadSheet, "A1", last, headerStyle)
	}

	for i := range leads {
		rec := &leads[i]
		score, breakdown := Score(rec)
		grade := Grade(score)

		values := []any{
			rec.URL, rec.Domain, rec.Title, rec.Email, rec.Phone, rec.Address,
			rec.PropertyCount, rec.HasContactForm, rec.HasBookingWidget,
			score, breakdown, grade, Priority(grade), RevenuePotential(rec.PropertyCount),
			Country(rec), socialSummary(rec.SocialMedia), string(rec.Status), rec.ScrapedAt,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("export: row cell: %w", err)
			}
			if err := f.SetCellValue(leadSheet, cell, v); err != nil {
				return fmt.Errorf("export: write row %d: %w", i+2, err)
			}
		}
	}

	_ = f.SetColWidth(leadSheet, "A", "A", 40)
	_ = f.SetColWidth(leadSheet, "C", "F", 30)
	_ = f.SetColWidth(leadSheet, "K", "K", 45)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("export: save %s: %w", path, err)
	}
	return nil
}

// socialSummary flattens the platform map into one cell in the fixed
// platform order.
func socialSummary(social map[string]string) string {
	var parts []string
	for _, platform := range socialColumns {
		if link, ok := social[platform]; ok {
			parts = append(parts, platform+": "+link)
		}
	}
	return strings.Join(parts, "\n")
}

package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/staykit/subscout/models"
)

// socialColumns is the fixed platform order for flattened columns.
var socialColumns = []string{"facebook", "twitter", "instagram", "linkedin", "youtube", "tiktok"}

// csvHeader is the flattened, marketing-friendly column set.
var csvHeader = []string{
	"Website_URL", "Company_Domain", "Business_Name",
	"Property_Portfolio_Size", "Business_Address", "Phone_Number",
	"Email_Address", "Business_Description",
	"Facebook_Profile_URL", "Twitter_Profile_URL", "Instagram_Profile_URL",
	"Linkedin_Profile_URL", "Youtube_Profile_URL", "Tiktok_Profile_URL",
	"Amenities", "Has_Contact_Form", "Has_Booking_Engine",
	"Lead_Score", "Lead_Grade", "Sales_Priority",
	"Estimated_Revenue_Potential", "Country",
	"Data_Quality_Status", "Data_Collection_Date",
}

// WriteCustomerCSV flattens the batch into a CSV of customer leads only:
// nested social links become per-platform columns, and failed or
// platform-internal records are dropped.
func WriteCustomerCSV(path string, records []models.ClassifiedRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}

	for _, rec := range Customers(records) {
		score, _ := Score(&rec)
		grade := Grade(score)

		row := []string{
			rec.URL,
			rec.Domain,
			rec.Title,
			strconv.Itoa(rec.PropertyCount),
			rec.Address,
			rec.Phone,
			rec.Email,
			rec.Description,
		}
		for _, platform := range socialColumns {
			row = append(row, rec.SocialMedia[platform])
		}
		row = append(row,
			strings.Join(rec.Amenities, ", "),
			strconv.FormatBool(rec.HasContactForm),
			strconv.FormatBool(rec.HasBookingWidget),
			strconv.Itoa(score),
			grade,
			Priority(grade),
			RevenuePotential(rec.PropertyCount),
			Country(&rec),
			string(rec.Status),
			rec.ScrapedAt,
		)
		if err := w.Write(row); err != nil {
			return fmt.Errorf("export: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("export: flush csv: %w", err)
	}
	return nil
}

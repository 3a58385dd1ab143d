package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/staykit/subscout/models"
)

func TestWriteCustomerCSV(t *testing.T) {
	lead := *fullLead()
	lead.SocialMedia = map[string]string{
		"facebook":  "https://facebook.com/oceanview",
		"instagram": "https://instagram.com/oceanview",
	}

	records := []models.ClassifiedRecord{
		lead,
		{Status: models.StatusFailed, Belonging: models.BelongingCustomer},
		{Status: models.StatusSuccess, Belonging: models.BelongingPlatformInternal},
	}

	path := filepath.Join(t.TempDir(), "customer_leads.csv")
	if err := WriteCustomerCSV(path, records); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1 customer", len(rows))
	}
	header, row := rows[0], rows[1]
	if len(header) != len(row) {
		t.Fatalf("row width %d != header width %d", len(row), len(header))
	}

	col := func(name string) string {
		for i, h := range header {
			if h == name {
				return row[i]
			}
		}
		t.Fatalf("missing column %q", name)
		return ""
	}

	if got := col("Website_URL"); got != "https://oceanview.lodgify.com" {
		t.Errorf("url column = %q", got)
	}
	if got := col("Facebook_Profile_URL"); got != "https://facebook.com/oceanview" {
		t.Errorf("facebook column = %q", got)
	}
	if got := col("Twitter_Profile_URL"); got != "" {
		t.Errorf("absent platform should flatten to empty, got %q", got)
	}
	if got := col("Lead_Score"); got != "125" {
		t.Errorf("score column = %q, want 125", got)
	}
	if got := col("Lead_Grade"); got != "A+" {
		t.Errorf("grade column = %q", got)
	}
}

func TestWriteJSON_OmitsAbsentFields(t *testing.T) {
	records := []models.ClassifiedRecord{
		{
			ExtractedRecord: models.ExtractedRecord{
				URL:    "https://a.lodgify.com",
				Domain: "a.lodgify.com",
			},
			Status:    models.StatusFailed,
			Belonging: models.BelongingPlatformInternal,
			Error:     "HTTP 429 - blocked after 3 attempts",
		},
	}

	path := filepath.Join(t.TempDir(), "leads.json")
	if err := WriteJSON(path, records); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)

	for _, absent := range []string{"\"email\"", "\"phone\"", "\"location_coords\""} {
		if strings.Contains(out, absent) {
			t.Errorf("absent field %s must be omitted, output:\n%s", absent, out)
		}
	}
	if !strings.Contains(out, "\"error\"") {
		t.Error("failure reason must be present")
	}
}

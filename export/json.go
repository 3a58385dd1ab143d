package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/staykit/subscout/models"
)

// WriteJSON serializes the full batch as a JSON array of objects. Absent
// fields are omitted per the record schema's struct tags, never zero-filled.
func WriteJSON(path string, records []models.ClassifiedRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("export: marshal records: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}

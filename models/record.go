package models

// Status is the terminal outcome of one URL's pipeline unit.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial_success"
	StatusFailed  Status = "failed"
)

// Belonging labels a site as a tenant customer property or as a page owned
// by the hosting platform itself. Only meaningful when Status != failed;
// failed records carry BelongingPlatformInternal as a conservative
// placeholder.
type Belonging string

const (
	BelongingCustomer         Belonging = "customer"
	BelongingPlatformInternal Belonging = "platform_internal"
)

// Coordinates is an optional geocoordinate pair scraped from page markup.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ExtractedRecord holds the lead-generation fields pulled from one site.
// Every field is independently optional except URL and Domain; absent
// fields are omitted from serialized output rather than zero-filled.
type ExtractedRecord struct {
	URL    string `json:"url"`
	Domain string `json:"domain"`

	Title string `json:"title,omitempty"`

	// PropertyCount is the inventory-size estimate. Zero is a positively
	// asserted "no inventory found", not an unknown.
	PropertyCount int      `json:"property_count"`
	PropertyLinks []string `json:"property_links,omitempty"`

	Address     string            `json:"address,omitempty"`
	Phone       string            `json:"phone,omitempty"`
	Email       string            `json:"email,omitempty"`
	SocialMedia map[string]string `json:"social_media,omitempty"`
	Description string            `json:"description,omitempty"`
	Amenities   []string          `json:"amenities,omitempty"`
	Coordinates *Coordinates      `json:"location_coords,omitempty"`

	HasContactForm   bool `json:"contact_form"`
	HasBookingWidget bool `json:"booking_engine"`
}

// ClassifiedRecord is the pipeline's unit of output: the extracted fields
// plus outcome, belonging and provenance. Records are never mutated after
// creation.
type ClassifiedRecord struct {
	ExtractedRecord

	Status    Status    `json:"status"`
	Belonging Belonging `json:"belonging"`

	// FetchMethod records which path produced the markup: "http" or "browser".
	FetchMethod string `json:"fetch_method,omitempty"`
	Attempts    int    `json:"attempts,omitempty"`

	// Error is a short human-readable reason, present iff Status == failed.
	Error string `json:"error,omitempty"`

	ScrapedAt string `json:"scraped_at"`
}

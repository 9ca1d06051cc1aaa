package models

// LabTest is a single orderable test in the catalog
type LabTest struct {
	Code      string `json:"code" yaml:"code"` // stable symbolic key, e.g. "CBC"
	ID        string `json:"id" yaml:"id"`     // opaque backend identifier
	Name      string `json:"name" yaml:"name"`
	UnitPrice int    `json:"price" yaml:"price"` // whole rupees
}

// CatalogListing is the response body for the catalog endpoint
type CatalogListing struct {
	Version string    `json:"version,omitempty"`
	Tests   []LabTest `json:"tests"`
	Total   int       `json:"total"`
}

package model

// KEVEntry is one record of the CISA Known Exploited Vulnerabilities catalog.
type KEVEntry struct {
	CVEID                      string   `json:"cveID" yaml:"cveID"`
	VendorProject              string   `json:"vendorProject,omitempty" yaml:"vendorProject,omitempty"`
	Product                    string   `json:"product,omitempty" yaml:"product,omitempty"`
	VulnerabilityName          string   `json:"vulnerabilityName" yaml:"vulnerabilityName"`
	DateAdded                  string   `json:"dateAdded,omitempty" yaml:"dateAdded,omitempty"`
	ShortDescription           string   `json:"shortDescription" yaml:"shortDescription"`
	RequiredAction             string   `json:"requiredAction,omitempty" yaml:"requiredAction,omitempty"`
	DueDate                    string   `json:"dueDate,omitempty" yaml:"dueDate,omitempty"`
	KnownRansomwareCampaignUse string   `json:"knownRansomwareCampaignUse,omitempty" yaml:"knownRansomwareCampaignUse,omitempty"`
	Notes                      string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	CWEs                       []string `json:"cwes,omitempty" yaml:"cwes,omitempty"`
}

// Catalog is the KEV feed document. A nil Vulnerabilities means the field
// was missing from the document.
type Catalog struct {
	Title           string     `json:"title"`
	CatalogVersion  string     `json:"catalogVersion"`
	DateReleased    string     `json:"dateReleased"`
	Count           int        `json:"count"`
	Vulnerabilities []KEVEntry `json:"vulnerabilities"`
}

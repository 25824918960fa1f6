// cdxprops package contains constants and helpers for extended CycloneDX
// properties describing looked up hosts and KEV catalog entries
package cdxprops

import (
	"github.com/CZERTAINLY/kevhost/internal/model"

	cdx "github.com/CycloneDX/cyclonedx-go"
)

const (
	HostIP           = "kevhost:ip"
	HostOrganization = "kevhost:organization"
	HostHostname     = "kevhost:hostname"
	LookupOutcome    = "kevhost:outcome"

	KEVVulnerabilityName          = "kev:vulnerabilityName"
	KEVVendorProject              = "kev:vendorProject"
	KEVProduct                    = "kev:product"
	KEVDateAdded                  = "kev:dateAdded"
	KEVDueDate                    = "kev:dueDate"
	KEVKnownRansomwareCampaignUse = "kev:knownRansomwareCampaignUse"
	KEVNotes                      = "kev:notes"
	KEVCWE                        = "kev:cwe"
)

// HostProperties appends the ip, the organization (when reported) and one
// property per hostname.
func HostProperties(props []cdx.Property, host model.HostRecord) []cdx.Property {
	props = append(props, cdx.Property{Name: HostIP, Value: host.IP})
	if org, ok := host.Org(); ok {
		props = append(props, cdx.Property{Name: HostOrganization, Value: org})
	}
	for _, h := range host.Hostnames {
		props = append(props, cdx.Property{Name: HostHostname, Value: h})
	}
	return props
}

// KEVProperties appends the non empty fields of a catalog entry, one
// property per CWE.
func KEVProperties(props []cdx.Property, e model.KEVEntry) []cdx.Property {
	for _, p := range []cdx.Property{
		{Name: KEVVulnerabilityName, Value: e.VulnerabilityName},
		{Name: KEVVendorProject, Value: e.VendorProject},
		{Name: KEVProduct, Value: e.Product},
		{Name: KEVDateAdded, Value: e.DateAdded},
		{Name: KEVDueDate, Value: e.DueDate},
		{Name: KEVKnownRansomwareCampaignUse, Value: e.KnownRansomwareCampaignUse},
		{Name: KEVNotes, Value: e.Notes},
	} {
		if p.Value != "" {
			props = append(props, p)
		}
	}
	for _, cwe := range e.CWEs {
		props = append(props, cdx.Property{Name: KEVCWE, Value: cwe})
	}
	return props
}

func OutcomeProperty(outcome model.Outcome) cdx.Property {
	return cdx.Property{Name: LookupOutcome, Value: string(outcome)}
}

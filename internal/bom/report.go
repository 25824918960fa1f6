package bom

import (
	"strings"

	"github.com/CZERTAINLY/kevhost/internal/cdxprops"
	"github.com/CZERTAINLY/kevhost/internal/model"

	cdx "github.com/CycloneDX/cyclonedx-go"
)

const (
	nvdURL = "https://nvd.nist.gov/vuln/detail/"
	kevURL = "https://www.cisa.gov/known-exploited-vulnerabilities-catalog"
)

// FromReport describes a lookup as a BOM: the host is a device component and
// every reported identifier is a vulnerability affecting it.
func FromReport(report model.Report) *Builder {
	b := NewBuilder()
	if report.SerialNumber != "" {
		b.SetSerialNumber(report.SerialNumber)
	}
	if !report.Timestamp.IsZero() {
		b.SetTimestamp(report.Timestamp)
	}

	ref := HostRef(report.Host)
	b.AppendComponents(hostComponent(ref, report.Host))

	known := make(map[string]model.KEVEntry, len(report.KnownExploited))
	for _, e := range report.KnownExploited {
		known[e.CVEID] = e
	}
	for _, id := range report.Vulnerabilities {
		vuln := cdx.Vulnerability{
			BOMRef: "vuln/" + id,
			ID:     id,
			Affects: &[]cdx.Affects{
				{Ref: ref},
			},
		}
		if strings.HasPrefix(id, "CVE-") {
			vuln.Source = &cdx.Source{Name: "NVD", URL: nvdURL + id}
		}
		if e, ok := known[id]; ok {
			applyKEV(&vuln, e)
		}
		b.AppendVulnerabilities(vuln)
	}

	b.AppendProperties(cdxprops.OutcomeProperty(report.Outcome))
	return b
}

func HostRef(host model.HostRecord) string {
	return "host/" + host.IP
}

func hostComponent(ref string, host model.HostRecord) cdx.Component {
	props := cdxprops.HostProperties(nil, host)
	return cdx.Component{
		BOMRef:     ref,
		Type:       cdx.ComponentTypeDevice,
		Name:       host.IP,
		Properties: &props,
	}
}

func applyKEV(vuln *cdx.Vulnerability, e model.KEVEntry) {
	vuln.Description = e.ShortDescription
	vuln.Recommendation = e.RequiredAction
	vuln.Published = e.DateAdded
	vuln.Advisories = &[]cdx.Advisory{
		{Title: e.VulnerabilityName, URL: kevURL},
	}
	props := cdxprops.KEVProperties(nil, e)
	vuln.Properties = &props
}

package bom_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/CZERTAINLY/kevhost/internal/bom"
	"github.com/CZERTAINLY/kevhost/internal/model"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	t.Parallel()

	b := bom.NewBuilder().
		SetSerialNumber("0b5e8f2c-3d8e-4f55-9a43-3b3c0d6e7f10").
		AppendComponents(cdx.Component{
			BOMRef: "host/192.0.2.1",
			Type:   cdx.ComponentTypeDevice,
			Name:   "192.0.2.1",
		}).
		AppendVulnerabilities(cdx.Vulnerability{
			BOMRef: "vuln/CVE-2021-1234",
			ID:     "CVE-2021-1234",
		}).
		AppendProperties(cdx.Property{
			Name:  "property1",
			Value: "value1",
		})

	var buf bytes.Buffer
	err := b.AsJSON(&buf)
	require.NoError(t, err)

	var decoded cdx.BOM
	err = cdx.NewBOMDecoder(&buf, cdx.BOMFileFormatJSON).Decode(&decoded)
	require.NoError(t, err)
	require.Equal(t, "urn:uuid:0b5e8f2c-3d8e-4f55-9a43-3b3c0d6e7f10", decoded.SerialNumber)
	require.Equal(t, cdx.SpecVersion1_6, decoded.SpecVersion)
	require.Equal(t, "kevhost", decoded.Metadata.Component.Name)
	require.Len(t, *decoded.Components, 1)
	require.Len(t, *decoded.Vulnerabilities, 1)
	require.Len(t, *decoded.Properties, 1)
}

func TestEmptyBuilder(t *testing.T) {
	t.Parallel()
	bom := bom.NewBuilder().BOM()
	require.NotNil(t, bom.Components)
	require.Empty(t, *bom.Components)
	require.NotNil(t, bom.Vulnerabilities)
	require.Regexp(t, `^urn:uuid:[0-9a-f-]{36}$`, bom.SerialNumber)
}

func TestFromReport(t *testing.T) {
	t.Parallel()
	org := "Example Org"
	report := model.Report{
		SerialNumber: "7c1f4c2a-8a5e-4b8e-9d0e-2f1a3b4c5d6e",
		Timestamp:    time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC),
		Host: model.HostRecord{
			IP:              "192.0.2.1",
			Organization:    &org,
			Hostnames:       []string{"gw.example.net"},
			Vulnerabilities: model.VulnSet{"CVE-2021-1234", "CVE-9999-0000"},
		},
		Outcome: model.OutcomeKEVMatch,
		KnownExploited: []model.KEVEntry{
			{
				CVEID:             "CVE-2021-1234",
				VulnerabilityName: "Example Gateway RCE",
				ShortDescription:  "Allows remote code execution.",
				RequiredAction:    "Apply updates per vendor instructions.",
				DateAdded:         "2021-11-03",
				CWEs:              []string{"CWE-78"},
			},
		},
		Vulnerabilities: []string{"CVE-2021-1234", "CVE-9999-0000"},
	}

	got := bom.FromReport(report).BOM()
	require.Equal(t, "urn:uuid:7c1f4c2a-8a5e-4b8e-9d0e-2f1a3b4c5d6e", got.SerialNumber)
	require.Equal(t, "2024-05-02T10:00:00Z", got.Metadata.Timestamp)

	require.Len(t, *got.Components, 1)
	host := (*got.Components)[0]
	require.Equal(t, cdx.ComponentTypeDevice, host.Type)
	require.Equal(t, "host/192.0.2.1", host.BOMRef)
	require.Contains(t, *host.Properties, cdx.Property{Name: "kevhost:organization", Value: "Example Org"})
	require.Contains(t, *host.Properties, cdx.Property{Name: "kevhost:hostname", Value: "gw.example.net"})

	vulns := *got.Vulnerabilities
	require.Len(t, vulns, 2)

	kev := vulns[0]
	require.Equal(t, "CVE-2021-1234", kev.ID)
	require.Equal(t, "Allows remote code execution.", kev.Description)
	require.Equal(t, "Apply updates per vendor instructions.", kev.Recommendation)
	require.Equal(t, "https://nvd.nist.gov/vuln/detail/CVE-2021-1234", kev.Source.URL)
	require.Equal(t, []cdx.Affects{{Ref: "host/192.0.2.1"}}, *kev.Affects)
	require.Contains(t, *kev.Properties, cdx.Property{Name: "kev:cwe", Value: "CWE-78"})

	other := vulns[1]
	require.Equal(t, "CVE-9999-0000", other.ID)
	require.Empty(t, other.Description)
	require.Nil(t, other.Properties)

	require.Equal(t, []cdx.Property{{Name: "kevhost:outcome", Value: "kev_match"}}, *got.Properties)
}

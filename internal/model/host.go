package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// HostRecord is the subset of a Shodan host document used by kevhost.
// A nil Organization or Hostnames means the service did not report the field.
type HostRecord struct {
	IP              string   `json:"ip_str" yaml:"ip"`
	Organization    *string  `json:"org,omitempty" yaml:"org,omitempty"`
	Hostnames       []string `json:"hostnames,omitempty" yaml:"hostnames,omitempty"`
	Vulnerabilities VulnSet  `json:"vulns,omitempty" yaml:"vulns,omitempty"`
}

func (h HostRecord) Org() (string, bool) {
	if h.Organization == nil {
		return "", false
	}
	return *h.Organization, true
}

func (h HostRecord) HasHostnames() bool {
	return h.Hostnames != nil
}

func (h HostRecord) HasVulnerabilities() bool {
	return len(h.Vulnerabilities) > 0
}

// VulnSet is a list of vulnerability identifiers. Shodan encodes it either as
// an array or as an object keyed by identifier; both decode into the same set.
type VulnSet []string

func (s *VulnSet) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*s = nil
		return nil
	case len(b) > 0 && b[0] == '{':
		var m map[string]json.RawMessage
		if err := json.Unmarshal(b, &m); err != nil {
			return fmt.Errorf("decoding vulns object: %w", err)
		}
		ids := make([]string, 0, len(m))
		for id := range m {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		*s = ids
		return nil
	default:
		var ids []string
		if err := json.Unmarshal(b, &ids); err != nil {
			return fmt.Errorf("decoding vulns array: %w", err)
		}
		*s = dedup(ids)
		return nil
	}
}

// dedup keeps the first occurrence of every identifier.
func dedup(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	ret := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ret = append(ret, id)
	}
	return ret
}

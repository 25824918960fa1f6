package model

import "time"

// Outcome is the terminal branch a lookup took.
type Outcome string

const (
	OutcomeNoVulnerabilities Outcome = "no_vulnerabilities"
	OutcomeKEVMatch          Outcome = "kev_match"
	OutcomeNoKEVMatch        Outcome = "no_kev_match"
)

// Report is the result of one host lookup.
type Report struct {
	SerialNumber    string     `json:"serialNumber" yaml:"serialNumber"`
	Timestamp       time.Time  `json:"timestamp" yaml:"timestamp"`
	Host            HostRecord `json:"host" yaml:"host"`
	Outcome         Outcome    `json:"outcome" yaml:"outcome"`
	KnownExploited  []KEVEntry `json:"knownExploited" yaml:"knownExploited"`
	Vulnerabilities []string   `json:"vulnerabilities" yaml:"vulnerabilities"`
}

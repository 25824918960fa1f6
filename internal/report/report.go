// Package report renders a model.Report for humans or machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/CZERTAINLY/kevhost/internal/bom"
	"github.com/CZERTAINLY/kevhost/internal/model"

	"gopkg.in/yaml.v3"
)

// notAvailable is printed for fields the service did not report
const notAvailable = "n/a"

type Printer interface {
	Print(w io.Writer, report model.Report) error
}

// New returns the printer of a format, see model.Formats.
func New(format string) (Printer, error) {
	switch format {
	case model.FormatText, "":
		return Text{}, nil
	case model.FormatJSON:
		return JSON{}, nil
	case model.FormatYAML:
		return YAML{}, nil
	case model.FormatCycloneDX:
		return CycloneDX{}, nil
	default:
		return nil, &model.ConfigError{
			Key:     model.KeyFormat,
			Message: fmt.Sprintf("possible values (%s): got %q", strings.Join(model.Formats, ","), format),
		}
	}
}

// Text is the human readable report.
type Text struct{}

func (Text) Print(w io.Writer, r model.Report) error {
	p := &textWriter{w: w}
	p.generalInfo(r.Host)
	switch r.Outcome {
	case model.OutcomeNoVulnerabilities:
		p.line("No vulnerabilities have been identified on this host.")
		return p.err
	case model.OutcomeKEVMatch:
		p.kevMatches(r.KnownExploited)
	default:
		p.line("No 'Known Exploited Vulnerabilities' were identified on the host.")
	}
	p.remaining(r.Vulnerabilities)
	return p.err
}

// textWriter keeps the first write error, so the layout code stays linear
type textWriter struct {
	w   io.Writer
	err error
}

func (p *textWriter) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *textWriter) generalInfo(host model.HostRecord) {
	org, ok := host.Org()
	if !ok {
		org = notAvailable
	}
	hostnames := notAvailable
	switch {
	case host.HasHostnames() && len(host.Hostnames) == 0:
		hostnames = "none"
	case host.HasHostnames():
		hostnames = strings.Join(host.Hostnames, ", ")
	}
	p.line("")
	p.line("IP: %s", host.IP)
	p.line("Organization: %s", org)
	p.line("Host Names: %s", hostnames)
	p.line("")
}

func (p *textWriter) kevMatches(entries []model.KEVEntry) {
	p.line("The host may be impacted by the following Known Exploited Vulnerabilities identified by CISA:")
	p.line("")
	for _, e := range entries {
		p.line("%s", e.CVEID)
		p.line("Vulnerability Name: %s", e.VulnerabilityName)
		p.line("Description: %s", e.ShortDescription)
		p.line("")
	}
}

func (p *textWriter) remaining(ids []string) {
	p.line("Host may still contain other vulnerabilities, including the following:")
	p.line("")
	for _, id := range ids {
		p.line("%s", id)
	}
	p.line("")
	p.line("Best of luck!")
}

type JSON struct{}

func (JSON) Print(w io.Writer, r model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(normalize(r)); err != nil {
		return fmt.Errorf("encoding report as JSON: %w", err)
	}
	return nil
}

type YAML struct{}

func (YAML) Print(w io.Writer, r model.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(normalize(r)); err != nil {
		return fmt.Errorf("encoding report as YAML: %w", err)
	}
	return enc.Close()
}

// CycloneDX prints the report as a CycloneDX BOM.
type CycloneDX struct{}

func (CycloneDX) Print(w io.Writer, r model.Report) error {
	if err := bom.FromReport(r).AsJSON(w); err != nil {
		return fmt.Errorf("formatting BOM as JSON: %w", err)
	}
	return nil
}

// normalize makes empty lists explicit in machine readable output
func normalize(r model.Report) model.Report {
	if r.KnownExploited == nil {
		r.KnownExploited = []model.KEVEntry{}
	}
	if r.Vulnerabilities == nil {
		r.Vulnerabilities = []string{}
	}
	return r
}

package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/CZERTAINLY/kevhost/internal/bom"
	"github.com/CZERTAINLY/kevhost/internal/kev"
	"github.com/CZERTAINLY/kevhost/internal/model"
	"github.com/CZERTAINLY/kevhost/internal/report"
	"github.com/CZERTAINLY/kevhost/internal/shodan"

	"github.com/google/uuid"
)

// HostLookup returns what the host-intelligence service knows about an IP.
type HostLookup interface {
	Host(ctx context.Context, ip string) (model.HostRecord, error)
}

// FeedFetcher returns the entries of the KEV catalog.
type FeedFetcher interface {
	Fetch(ctx context.Context) ([]model.KEVEntry, error)
}

// State of a single lookup
type State string

const (
	StateStart        State = "start"
	StateKeyLoaded    State = "key_loaded"
	StateHostFetched  State = "host_fetched"
	StateNoVulns      State = "no_vulns"
	StateVulnsPresent State = "vulns_present"
	StateKEVMatch     State = "kev_match"
	StateNoKEVMatch   State = "no_kev_match"
	StateDone         State = "done"
)

// Lookup runs one host lookup: fetch the host, cross-reference its
// vulnerabilities with the KEV catalog and print the report.
type Lookup struct {
	hosts    HostLookup
	feed     FeedFetcher
	printer  report.Printer
	uploader model.Uploader
	now      func() time.Time
	serial   func() string
}

func NewLookup(hosts HostLookup, feed FeedFetcher, printer report.Printer) *Lookup {
	return &Lookup{
		hosts:   hosts,
		feed:    feed,
		printer: printer,
		now:     time.Now,
		serial:  uuid.NewString,
	}
}

// SetUploader makes Do publish the CycloneDX form of each report.
func (l *Lookup) SetUploader(u model.Uploader) *Lookup {
	l.uploader = u
	return l
}

// LookupFromConfig wires the shodan client, the KEV fetcher, the printer
// and the optional uploader from a validated configuration.
func LookupFromConfig(ctx context.Context, cfg model.Config) (*Lookup, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base, err := url.Parse(cfg.ShodanURL)
	if err != nil {
		return nil, &model.ConfigError{Key: model.KeyShodanURL, Message: err.Error()}
	}
	hosts, err := shodan.NewClient(cfg.ShodanAPIKey,
		shodan.WithBaseURL(base),
		shodan.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, err
	}
	printer, err := report.New(cfg.Format)
	if err != nil {
		return nil, err
	}
	l := NewLookup(hosts, kev.NewFetcher(cfg.KEVURL, kev.WithTimeout(cfg.Timeout)), printer)

	if cfg.UploadURL != "" {
		uploader, err := NewBOMRepoUploader(cfg.UploadURL, cfg.Timeout)
		if err != nil {
			return nil, &model.ConfigError{Key: model.KeyUploadURL, Message: err.Error()}
		}
		l.SetUploader(uploader)
	}
	slog.DebugContext(ctx, "lookup configured",
		slog.String("shodan", base.Host),
		slog.String("kev", cfg.KEVURL),
		slog.String("format", cfg.Format),
		slog.Bool("upload", cfg.UploadURL != ""))
	return l, nil
}

// Report gathers the data of target without printing anything.
func (l *Lookup) Report(ctx context.Context, target string) (model.Report, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return model.Report{}, model.ErrEmptyTarget
	}
	transition(ctx, StateStart, StateKeyLoaded)

	host, err := l.hosts.Host(ctx, target)
	if err != nil {
		return model.Report{}, err
	}
	transition(ctx, StateKeyLoaded, StateHostFetched)

	r := model.Report{
		SerialNumber: l.serial(),
		Timestamp:    l.now().UTC(),
		Host:         host,
	}
	if !host.HasVulnerabilities() {
		transition(ctx, StateHostFetched, StateNoVulns)
		r.Outcome = model.OutcomeNoVulnerabilities
		return r, nil
	}
	transition(ctx, StateHostFetched, StateVulnsPresent)
	r.Vulnerabilities = []string(host.Vulnerabilities)

	entries, err := l.feed.Fetch(ctx)
	if err != nil {
		return model.Report{}, err
	}
	idx := kev.NewIndex(entries)

	r.KnownExploited = idx.Match(r.Vulnerabilities)
	if len(r.KnownExploited) > 0 {
		transition(ctx, StateVulnsPresent, StateKEVMatch)
		r.Outcome = model.OutcomeKEVMatch
	} else {
		transition(ctx, StateVulnsPresent, StateNoKEVMatch)
		r.Outcome = model.OutcomeNoKEVMatch
	}
	slog.DebugContext(ctx, "KEV cross-reference done",
		slog.Int("catalog", idx.Len()),
		slog.Int("vulnerabilities", len(r.Vulnerabilities)),
		slog.Int("known_exploited", len(r.KnownExploited)))
	return r, nil
}

// Do looks up target and prints the report to out.
func (l *Lookup) Do(ctx context.Context, target string, out io.Writer) error {
	r, err := l.Report(ctx, target)
	if err != nil {
		return err
	}

	if err := l.printer.Print(out, r); err != nil {
		return fmt.Errorf("printing report: %w", err)
	}

	if l.uploader != nil {
		var buf bytes.Buffer
		if err := bom.FromReport(r).AsJSON(&buf); err != nil {
			return fmt.Errorf("formatting BOM as JSON: %w", err)
		}
		if err := l.uploader.Upload(ctx, buf.Bytes()); err != nil {
			return &model.UploadError{Err: err}
		}
	}

	from := StateNoVulns
	switch r.Outcome {
	case model.OutcomeKEVMatch:
		from = StateKEVMatch
	case model.OutcomeNoKEVMatch:
		from = StateNoKEVMatch
	}
	transition(ctx, from, StateDone)
	return nil
}

func transition(ctx context.Context, from, to State) {
	slog.DebugContext(ctx, "lookup state", slog.String("from", string(from)), slog.String("to", string(to)))
}

package model

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Configuration keys. The same flat names are used in kevhost.yaml, in .env
// files and by the command line flags.
const (
	KeyShodanAPIKey = "shodan_api_key"
	KeyShodanURL    = "shodan_url"
	KeyKEVURL       = "kev_url"
	KeyTimeout      = "timeout"
	KeyFormat       = "format"
	KeyUploadURL    = "upload_url"
	KeyVerbose      = "verbose"
)

const (
	DefaultShodanURL = "https://api.shodan.io"
	DefaultKEVURL    = "https://www.cisa.gov/sites/default/files/feeds/known_exploited_vulnerabilities.json"
	DefaultTimeout   = 30 * time.Second

	FormatText      = "text"
	FormatJSON      = "json"
	FormatYAML      = "yaml"
	FormatCycloneDX = "cyclonedx"
)

var Formats = []string{FormatText, FormatJSON, FormatYAML, FormatCycloneDX}

// env variable names, SHODAN_API_KEY is what the shodan tooling expects
var envNames = map[string]string{
	KeyShodanAPIKey: "SHODAN_API_KEY",
	KeyShodanURL:    "KEVHOST_SHODAN_URL",
	KeyKEVURL:       "KEVHOST_KEV_URL",
	KeyTimeout:      "KEVHOST_TIMEOUT",
	KeyFormat:       "KEVHOST_FORMAT",
	KeyUploadURL:    "KEVHOST_UPLOAD_URL",
	KeyVerbose:      "KEVHOST_VERBOSE",
}

type Config struct {
	ShodanAPIKey string        `mapstructure:"shodan_api_key" json:"-" yaml:"-"`
	ShodanURL    string        `mapstructure:"shodan_url" json:"shodan_url" yaml:"shodan_url"`
	KEVURL       string        `mapstructure:"kev_url" json:"kev_url" yaml:"kev_url"`
	Timeout      time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
	Format       string        `mapstructure:"format" json:"format" yaml:"format"`
	UploadURL    string        `mapstructure:"upload_url" json:"upload_url,omitempty" yaml:"upload_url,omitempty"`
	Verbose      bool          `mapstructure:"verbose" json:"verbose" yaml:"verbose"`
}

// NewViper returns a viper instance with kevhost defaults and environment
// bindings registered.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyShodanURL, DefaultShodanURL)
	v.SetDefault(KeyKEVURL, DefaultKEVURL)
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeyFormat, FormatText)
	v.SetDefault(KeyUploadURL, "")
	v.SetDefault(KeyVerbose, false)
	for key, env := range envNames {
		// BindEnv fails only when called without a key
		_ = v.BindEnv(key, env)
	}
	return v
}

// ReadConfigFile merges a YAML configuration into v.
func ReadConfigFile(v *viper.Viper, r io.Reader) error {
	return mergeAs(v, "yaml", r)
}

// ReadEnvFile merges a dotenv file into v. Variable names are the ones
// from the environment, so SHODAN_API_KEY=... sets shodan_api_key.
// Variables exported in the process environment keep precedence.
func ReadEnvFile(v *viper.Viper, r io.Reader) error {
	dotenv := viper.New()
	dotenv.SetConfigType("env")
	if err := dotenv.ReadConfig(r); err != nil {
		return fmt.Errorf("reading env file: %w", err)
	}
	settings := make(map[string]any)
	for key, env := range envNames {
		if val := dotenv.Get(strings.ToLower(env)); val != nil {
			settings[key] = val
		}
	}
	return v.MergeConfigMap(settings)
}

func mergeAs(v *viper.Viper, typ string, r io.Reader) error {
	tmp := viper.New()
	tmp.SetConfigType(typ)
	if err := tmp.ReadConfig(r); err != nil {
		return fmt.Errorf("reading %s config: %w", typ, err)
	}
	return v.MergeConfigMap(tmp.AllSettings())
}

// ParseConfig decodes and validates the configuration held by v.
func ParseConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	cfg.ShodanAPIKey = strings.TrimSpace(cfg.ShodanAPIKey)
	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate returns all problems of the configuration joined together.
func (c Config) Validate() error {
	var errs []error
	if c.ShodanAPIKey == "" {
		errs = append(errs, &ConfigError{Key: KeyShodanAPIKey, Message: "is required, set " + envNames[KeyShodanAPIKey]})
	}
	if err := validateURL(KeyShodanURL, c.ShodanURL); err != nil {
		errs = append(errs, err)
	}
	if err := validateURL(KeyKEVURL, c.KEVURL); err != nil {
		errs = append(errs, err)
	}
	if c.UploadURL != "" {
		if err := validateURL(KeyUploadURL, c.UploadURL); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Timeout <= 0 {
		errs = append(errs, &ConfigError{Key: KeyTimeout, Message: fmt.Sprintf("must be positive, got %s", c.Timeout)})
	}
	if !slices.Contains(Formats, c.Format) {
		errs = append(errs, &ConfigError{
			Key:     KeyFormat,
			Message: fmt.Sprintf("possible values (%s): got %q", strings.Join(Formats, ","), c.Format),
		})
	}
	return errors.Join(errs...)
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &ConfigError{Key: key, Message: err.Error()}
	}
	if u.Scheme == "" || u.Host == "" {
		return &ConfigError{Key: key, Message: fmt.Sprintf("expected an absolute URL with a scheme, got %q", raw)}
	}
	return nil
}

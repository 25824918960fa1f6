package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"

	"github.com/CZERTAINLY/kevhost/internal/log"
	"github.com/CZERTAINLY/kevhost/internal/model"
	"github.com/CZERTAINLY/kevhost/internal/service"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configEnv  = "KEVHOSTCONFIG"
	configName = "kevhost.yaml"
	dotEnvName = ".env"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(stdin, stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return model.ExitOK
	}
	for _, d := range model.ConfigErrDetails(err) {
		slog.ErrorContext(ctx, "invalid configuration", d.Attr("config"))
	}
	slog.ErrorContext(ctx, "kevhost failed", "error", err)
	_, _ = fmt.Fprintf(stderr, "Error: %s\n", err)
	return model.ExitCode(err)
}

// app carries the state shared by the commands of a single invocation.
type app struct {
	stdin          io.Reader
	stdout, stderr io.Writer

	v          *viper.Viper
	configPath string // config file used, if any
	envPath    string // .env file used, if any

	flagConfigFilePath string
	flagEnvFilePath    string
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		v:      model.NewViper(),
	}

	userConfigPath := "<user config dir>/kevhost"
	if d, err := os.UserConfigDir(); err == nil {
		userConfigPath = filepath.Join(d, "kevhost")
	}

	root := &cobra.Command{
		Use:               "kevhost",
		Short:             "Tool checking what CISA Known Exploited Vulnerabilities may affect a host",
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.flagConfigFilePath, "config", "", "Config file to load - default is "+configName+" in current directory or in "+userConfigPath)
	flags.StringVar(&a.flagEnvFilePath, "env-file", "", "dotenv file to load - default is "+dotEnvName+" in current directory")
	flags.String("shodan-url", model.DefaultShodanURL, "base URL of the Shodan API")
	flags.String("kev-url", model.DefaultKEVURL, "URL of the CISA KEV catalog")
	flags.Duration("timeout", model.DefaultTimeout, "timeout of every network call")
	flags.StringP("format", "o", model.FormatText, "report format: text, json, yaml or cyclonedx")
	flags.String("upload-url", "", "BOM repository to upload the CycloneDX report to")
	flags.Bool("verbose", false, "verbose logging")

	for key, flag := range map[string]string{
		model.KeyShodanURL: "shodan-url",
		model.KeyKEVURL:    "kev-url",
		model.KeyTimeout:   "timeout",
		model.KeyFormat:    "format",
		model.KeyUploadURL: "upload-url",
		model.KeyVerbose:   "verbose",
	} {
		if err := a.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	root.AddCommand(newLookupCmd(a))
	root.AddCommand(newVersionCmd(a))
	return root
}

func newLookupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup [ipv4]",
		Short: "look up a host and report the known exploited vulnerabilities it may be impacted by",
		Long: "lookup queries Shodan for the given IPv4 address and cross-references the reported\n" +
			"vulnerabilities with the CISA KEV catalog. Without an argument the address is read from stdin.",
		Args: cobra.MaximumNArgs(1),
		RunE: a.lookup,
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "version provide version of a kevhost",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			info, ok := debug.ReadBuildInfo()
			if !ok {
				_, _ = fmt.Fprintln(out, "kevhost: version info not available")
				return
			}
			if a.configPath != "" {
				_, _ = fmt.Fprintf(out, "config: %s\n", a.configPath)
			}
			_, _ = fmt.Fprintf(out, "kevhost: %s\n", info.Main.Version)
			_, _ = fmt.Fprintf(out, "go:      %s\n", info.GoVersion)
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					_, _ = fmt.Fprintf(out, "commit:  %s\n", s.Value)
				case "vcs.time":
					_, _ = fmt.Fprintf(out, "date:    %s\n", s.Value)
				case "vcs.modified":
					_, _ = fmt.Fprintf(out, "dirty:   %s\n", s.Value)
				}
			}
		},
	}
}

func (a *app) lookup(cmd *cobra.Command, args []string) error {
	ctx := log.ContextAttrs(cmd.Context(), slog.Group("kevhost",
		slog.String("cmd", "lookup"),
		slog.Int("pid", os.Getpid()),
	))

	cfg, err := model.ParseConfig(a.v)
	if err != nil {
		return err
	}
	slog.DebugContext(ctx, "kevhost lookup", "configPath", a.configPath, "envPath", a.envPath, "config", cfg)

	lookup, err := service.LookupFromConfig(ctx, cfg)
	if err != nil {
		return err
	}

	var target string
	if len(args) == 1 {
		target = args[0]
	} else {
		target, err = promptTarget(a.stdin, a.stdout)
		if err != nil {
			return err
		}
	}
	ctx = log.ContextAttrs(ctx, slog.String("target", target))

	return lookup.Do(ctx, target, a.stdout)
}

// init loads config and dotenv files into viper and sets up logging.
func (a *app) init(_ *cobra.Command, _ []string) error {
	configPath, err := a.findConfig()
	if err != nil {
		return err
	}
	if configPath != "" {
		if err := readInto(a.v, configPath, model.ReadConfigFile); err != nil {
			return &model.ConfigError{Key: "config", Message: err.Error()}
		}
		a.configPath = configPath
	}

	envPath := a.flagEnvFilePath
	if envPath == "" && exists(dotEnvName) {
		envPath = dotEnvName
	}
	if envPath != "" {
		if err := readInto(a.v, envPath, model.ReadEnvFile); err != nil {
			return &model.ConfigError{Key: "env-file", Message: err.Error()}
		}
		a.envPath = envPath
	}

	slog.SetDefault(log.New(a.stderr, a.v.GetBool(model.KeyVerbose)))
	return nil
}

// findConfig returns the config file to load, empty when there is none.
// An explicitly requested file must exist.
func (a *app) findConfig() (string, error) {
	explicit := a.flagConfigFilePath
	if envConfig, ok := os.LookupEnv(configEnv); ok && envConfig != "" {
		explicit = envConfig
	}
	if explicit != "" {
		if !exists(explicit) {
			return "", &model.ConfigError{Key: "config", Message: fmt.Sprintf("file %s does not exist", explicit)}
		}
		return explicit, nil
	}

	dirs := []string{"."}
	if d, err := os.UserConfigDir(); err == nil {
		dirs = []string{filepath.Join(d, "kevhost"), "."}
	}
	for _, d := range dirs {
		path := filepath.Join(d, configName)
		if exists(path) {
			return path, nil
		}
	}
	return "", nil
}

func readInto(v *viper.Viper, path string, read func(*viper.Viper, io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	if err := read(v, f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

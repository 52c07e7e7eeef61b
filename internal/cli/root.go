package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wesleyorama2/courier/http"
	"github.com/wesleyorama2/courier/internal/config"
	"github.com/wesleyorama2/courier/internal/logging"
	"github.com/wesleyorama2/courier/internal/output"
)

var version = "0.1.0"

// options holds the persistent flags shared by every command.
type options struct {
	verbose   bool
	noColor   bool
	format    string
	timeout   time.Duration
	transport string
	rateLimit float64
}

// NewRootCmd builds the command tree. Settings from COURIER_* environment
// variables provide flag defaults.
func NewRootCmd() *cobra.Command {
	settings, err := config.LoadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, using defaults\n", err)
		settings = config.DefaultSettings()
	}

	opts := &options{}
	root := &cobra.Command{
		Use:     "courier",
		Short:   "A terminal HTTP client built on typed request descriptors",
		Version: version,
		Long: `Courier sends HTTP requests from the command line or from request-template
files. Parameters are encoded as JSON, URL form or property lists, and
responses can be checked against expected status codes and JSON Schemas.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	flags.BoolVar(&opts.noColor, "no-color", settings.NoColor, "Disable colored output")
	flags.StringVarP(&opts.format, "output", "o", "text", "Output format (text, json, yaml)")
	flags.DurationVarP(&opts.timeout, "timeout", "t", settings.Timeout, "Request timeout")
	flags.StringVar(&opts.transport, "transport", settings.Transport, "HTTP transport (net, resty)")
	flags.Float64Var(&opts.rateLimit, "rate-limit", settings.RateLimit, "Maximum requests per second (0 disables)")

	for _, method := range []http.Method{
		http.MethodGet, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodHead,
	} {
		root.AddCommand(newMethodCmd(opts, settings, method))
	}
	root.AddCommand(newRunCmd(opts, settings))
	return root
}

// Execute runs the root command against the process arguments.
func Execute() error {
	return NewRootCmd().Execute()
}

// session is the per-invocation state built from options.
type session struct {
	manager   *http.SessionManager
	formatter output.FormatProvider
	logger    *zap.Logger
}

func (o *options) session(cmd *cobra.Command, settings *config.Settings) (*session, error) {
	format, err := output.ParseFormat(o.format)
	if err != nil {
		return nil, err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = settings.LogLevel
	if o.verbose {
		logCfg = logging.VerboseConfig()
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	var transport http.Transport
	switch o.transport {
	case "net":
		transport = http.NewNetTransport(http.WithTimeout(o.timeout))
	case "resty":
		transport = http.NewRestyTransport(o.timeout)
	default:
		return nil, fmt.Errorf("unknown transport %q (want net or resty)", o.transport)
	}

	noColor := !output.ColorEnabled(o.noColor, os.Stdout)
	if cmd.OutOrStdout() != os.Stdout {
		noColor = true
	}

	manager := http.NewSessionManager(
		http.WithTransport(transport),
		http.WithLogger(logger),
		http.WithRateLimit(o.rateLimit, 1),
		http.WithHeader("User-Agent", "courier/"+version),
	)
	return &session{
		manager:   manager,
		formatter: output.GetFormatter(format, o.verbose, noColor),
		logger:    logger,
	}, nil
}

func (s *session) close() {
	s.manager.Close()
	_ = s.logger.Sync()
}

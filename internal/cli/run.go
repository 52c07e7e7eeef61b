package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wesleyorama2/courier/http"
	"github.com/wesleyorama2/courier/internal/config"
	"github.com/wesleyorama2/courier/internal/output"
	"github.com/wesleyorama2/courier/pkg/jsonpath"
	"github.com/wesleyorama2/courier/pkg/jsonschema"
)

// errChecksFailed is returned when a response fails one of its checks.
var errChecksFailed = errors.New("checks failed")

type runFlags struct {
	configFile  string
	environment string
	request     string
	vars        []string
}

func newRunCmd(opts *options, settings *config.Settings) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a request from a request-template file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			vars, err := parseVars(flags.vars)
			if err != nil {
				return err
			}

			s, err := opts.session(cmd, settings)
			if err != nil {
				return err
			}
			defer s.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			_, err = s.runRequest(ctx, cmd, cfg, flags.environment, flags.request, vars)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.configFile, "config", "c", "", "Request-template file (required)")
	f.StringVarP(&flags.environment, "environment", "e", "", "Environment to use (required)")
	f.StringVarP(&flags.request, "request", "r", "", "Request to run (required)")
	f.StringArrayVar(&flags.vars, "var", nil, "Variable override as key=value (can be used multiple times)")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("environment")
	_ = cmd.MarkFlagRequired("request")
	return cmd
}

// load reads and validates the template file and the selected environment
// and request.
func (f *runFlags) load() (*config.Config, error) {
	cfg, err := config.LoadConfig(f.configFile)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	if errs := config.ValidateConfig(cfg); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = "  - " + e.Error()
		}
		return nil, fmt.Errorf("configuration validation errors:\n%s", strings.Join(msgs, "\n"))
	}
	if err := config.ValidateEnvironment(cfg, f.environment); err != nil {
		return nil, err
	}
	if err := config.ValidateRequest(cfg, f.request); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runRequest executes one template, then prints and returns its checks.
// The error wraps errChecksFailed when any check fails.
func (s *session) runRequest(ctx context.Context, cmd *cobra.Command, cfg *config.Config, envName, reqName string, vars map[string]string) ([]output.Check, error) {
	tmpl := cfg.Requests[reqName]
	endpoint, err := tmpl.Endpoint(cfg.Environments[envName], vars)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", reqName, err)
	}

	w := cmd.OutOrStdout()
	result, err := s.exchange(ctx, w, endpoint)
	if err != nil {
		return nil, err
	}

	checks := s.check(cfg, tmpl, result)
	write(w, s.formatter.FormatChecks(checks))

	failed := 0
	for _, c := range checks {
		if !c.Passed {
			failed++
		}
	}
	if failed > 0 {
		return checks, fmt.Errorf("%w: %d of %d", errChecksFailed, failed, len(checks))
	}
	return checks, nil
}

// check evaluates status, extraction and schema checks against a response.
// Without an expected status any 2xx passes.
func (s *session) check(cfg *config.Config, tmpl config.Request, result http.Result[[]byte]) []output.Check {
	resp := result.Response
	var checks []output.Check

	status := output.Check{Type: "status", Passed: resp.IsSuccess()}
	if want := tmpl.Validate.Status; want != 0 {
		status.Passed = resp.StatusCode == want
		status.Message = fmt.Sprintf("expected %d, got %d", want, resp.StatusCode)
	} else {
		status.Message = fmt.Sprintf("expected 2xx, got %d", resp.StatusCode)
	}
	checks = append(checks, status)

	if len(tmpl.Extract) > 0 {
		extracted, err := jsonpath.ExtractMultiple(resp.Body, tmpl.Extract)
		if err != nil {
			s.logger.Debug("extraction incomplete", zap.Error(err))
		}
		names := make([]string, 0, len(tmpl.Extract))
		for name := range tmpl.Extract {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			value, ok := extracted[name]
			c := output.Check{Type: "extract", Name: name, Value: value, Passed: ok}
			if !ok {
				c.Message = fmt.Sprintf("no value at %s", tmpl.Extract[name])
			}
			checks = append(checks, c)
		}
	}

	if name := tmpl.Validate.Schema; name != "" {
		c := output.Check{Type: "schema", Name: name, Passed: true}
		schema, err := cfg.SchemaJSON(name)
		if err == nil {
			err = jsonschema.Validate(resp.Body, schema)
		}
		if err != nil {
			c.Passed = false
			c.Message = err.Error()
		}
		checks = append(checks, c)
	}
	return checks
}

// parseVars parses key=value variable overrides.
func parseVars(args []string) (map[string]string, error) {
	vars := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid variable %q (want key=value)", arg)
		}
		vars[key] = value
	}
	return vars, nil
}

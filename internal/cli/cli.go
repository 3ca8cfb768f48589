package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/vk/reportgrid/internal/app"
	"github.com/vk/reportgrid/internal/engine"
	"github.com/vk/reportgrid/internal/model"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Commands.
const (
	CommandServe   = "serve"
	CommandResolve = "resolve"
)

// Command is a parsed invocation.
type Command struct {
	Name   string
	Config *app.Config
	// Request and Output are set for the resolve command.
	Request engine.ResolveRequest
	Output  string
}

const usage = `
reportgrid - Declarative report generation from templates, queries and live data.

Usage:
  reportgrid serve   [options]
  reportgrid resolve [options] --template ID --user USER

Commands:
  serve     Serve the HTTP API and refresh triggers on content changes.
  resolve   Resolve one template and write the content to stdout or a file.

Options:
`

// Parse processes command-line arguments. It returns the parsed Command, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Command, bool, error) {
	slog.Debug("CLI parser started.")
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprint(output, usage)
		return nil, true, nil
	}
	name := args[0]
	if name != CommandServe && name != CommandResolve {
		return nil, false, usageError("unknown command %q: must be 'serve' or 'resolve'", name)
	}

	flagSet := pflag.NewFlagSet("reportgrid "+name, pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, usage)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.StringP("config", "c", "", "Path to the YAML configuration file.")
	logFormatFlag := flagSet.String("log-format", "", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	listenFlag := flagSet.String("listen", "", "Address of the HTTP server (serve only).")

	var req engine.ResolveRequest
	var referential map[string]string
	var paramsFlag, outputFlag string
	flagSet.StringVarP(&req.TemplateID, "template", "t", "", "Template to resolve.")
	flagSet.StringVarP(&req.User, "user", "u", "", "User resolving the template.")
	flagSet.StringVar(&req.Language, "language", "", "Language overriding the template's.")
	flagSet.StringVar(&req.PictureContext, "picture-context", "", "Picture context overriding the template's.")
	flagSet.BoolVar(&req.DataOnly, "data-only", false, "Return the assembled document as JSON.")
	flagSet.BoolVar(&req.TextToPath, "text-to-path", false, "Convert SVG text to paths.")
	flagSet.StringToStringVarP(&referential, "referential", "r", nil, "Referential entries as KEY=entity:ID or KEY=event:ID.")
	flagSet.StringVar(&paramsFlag, "user-parameters", "", `User parameters as JSON, e.g. '{"query_id":{"season":2024}}'.`)
	flagSet.StringVarP(&outputFlag, "output", "o", "", "Write the content to this file instead of stdout.")

	if err := flagSet.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError("%s", err.Error())
	}
	slog.Debug("Arguments parsed successfully.", "command", name)

	cfg, err := app.LoadConfig(*configFlag)
	if err != nil {
		return nil, false, usageError("%s", err.Error())
	}
	if *logFormatFlag != "" {
		cfg.LogFormat = strings.ToLower(*logFormatFlag)
	}
	if *logLevelFlag != "" {
		cfg.LogLevel = strings.ToLower(*logLevelFlag)
	}
	if *listenFlag != "" {
		cfg.Listen = *listenFlag
	}
	if cfg, err = app.NewConfig(*cfg); err != nil {
		return nil, false, usageError("%s", err.Error())
	}

	cmd := &Command{Name: name, Config: cfg}
	if name == CommandServe {
		return cmd, false, nil
	}

	if req.TemplateID == "" || req.User == "" {
		return nil, false, usageError("resolve requires --template and --user")
	}
	if req.Referential, err = parseReferential(referential); err != nil {
		return nil, false, usageError("%s", err.Error())
	}
	if paramsFlag != "" {
		if err := json.Unmarshal([]byte(paramsFlag), &req.UserParameters); err != nil {
			return nil, false, usageError("invalid --user-parameters: %s", err)
		}
	}
	cmd.Request = req
	cmd.Output = outputFlag

	slog.Debug("CLI parser finished successfully.", "template", req.TemplateID)
	return cmd, false, nil
}

// parseReferential reads KEY=KIND:ID pairs.
func parseReferential(pairs map[string]string) (model.ReferentialSpec, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(model.ReferentialSpec, len(pairs))
	for key, v := range pairs {
		kind, id, ok := strings.Cut(v, ":")
		if !ok || id == "" || !model.RefKind(kind).Valid() {
			return nil, fmt.Errorf("invalid referential %s=%s: want KIND:ID with KIND 'entity' or 'event'", key, v)
		}
		out[key] = model.Reference{ID: id, Kind: model.RefKind(kind)}
	}
	return out, nil
}

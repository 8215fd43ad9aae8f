package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/definer/internal/app"
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

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("definer", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
Definer - builds Go object graphs from XML, JSON, YAML and HCL documents.

Usage:
  definer [options] PATH...

Arguments:
  PATH
    A document file or a directory searched recursively for
    .xml, .json, .yaml, .yml and .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	elementFlag := flagSet.String("element", "", "Root-level element name to construct.")
	eFlag := flagSet.String("e", "", "Root-level element name to construct (shorthand).")
	formatFlag := flagSet.String("format", "", "Force a document format: 'xml', 'json', 'yaml' or 'hcl'.")
	cultureFlag := flagSet.String("culture", "", "BCP 47 culture tag for culture-aware values, e.g. 'de-DE'.")
	ignoreCaseFlag := flagSet.Bool("ignore-case", false, "Match enumeration names case-insensitively.")
	keyStoreFlag := flagSet.String("keystore", "", "Path to a SQLite key store to save key tables into.")
	keysOutFlag := flagSet.String("keys-out", "", "Write the key table to a .yaml or .json file.")
	dumpFlag := flagSet.Bool("dump", false, "Print every constructed object.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	paths := flagSet.Args()
	if len(paths) == 0 {
		slog.Debug("No document path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	element := *elementFlag
	if element == "" {
		element = *eFlag
	}
	if element == "" {
		return nil, false, &ExitError{Code: 2, Message: "missing -element: name the root-level elements to construct"}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		Paths:        paths,
		Element:      element,
		Format:       *formatFlag,
		Culture:      *cultureFlag,
		IgnoreCase:   *ignoreCaseFlag,
		KeyStorePath: *keyStoreFlag,
		KeysOut:      *keysOutFlag,
		Dump:         *dumpFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

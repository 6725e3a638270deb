package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/charsmith/internal/app"
	"github.com/specialistvlad/charsmith/internal/config"
	"github.com/specialistvlad/charsmith/internal/mutator"
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

// Env holds flag defaults that may come from the environment. Flags given on
// the command line always win.
type Env struct {
	Content        []string `env:"CHARSMITH_CONTENT" envSeparator:","`
	Store          string   `env:"CHARSMITH_STORE"`
	LogFormat      string   `env:"CHARSMITH_LOG_FORMAT" envDefault:"text"`
	LogLevel       string   `env:"CHARSMITH_LOG_LEVEL" envDefault:"info"`
	Output         string   `env:"CHARSMITH_OUTPUT" envDefault:"text"`
	Ordering       string   `env:"CHARSMITH_ORDERING" envDefault:"comparator"`
	Workers        int      `env:"CHARSMITH_WORKERS" envDefault:"8"`
	MaxExtraRounds int      `env:"CHARSMITH_MAX_EXTRA_ROUNDS" envDefault:"3"`
	DeferLookups   bool     `env:"CHARSMITH_DEFER_LOOKUPS"`
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	var env Env
	if err := config.ParseEnv(&env); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	flagSet := flag.NewFlagSet("charsmith", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
Charsmith - Derives a character sheet from rule content and a character file.

Usage:
  charsmith [options] [CHARACTER_FILE]

Arguments:
  CHARACTER_FILE
    Path to an .hcl file declaring one or more characters.

Options:
`)
		flagSet.PrintDefaults()
	}

	var contentPaths, selections, conditions stringList
	fileFlag := flagSet.String("file", "", "Path to the character file.")
	fFlag := flagSet.String("f", "", "Path to the character file (shorthand).")
	characterFlag := flagSet.String("character", "", "Id of the character to derive. Optional when the file holds one character.")
	flagSet.Var(&contentPaths, "content", "Content pack file or directory. May be repeated.")
	flagSet.Var(&selections, "select", "Selection to record before deriving, as path=value. May be repeated.")
	flagSet.Var(&conditions, "condition", "Condition id to add before deriving. May be repeated.")
	storeFlag := flagSet.String("store", env.Store, "SQLite file to import content into. Empty keeps content in memory.")
	orderingFlag := flagSet.String("ordering", env.Ordering, "Mutator ordering. Options: 'comparator' or 'graph'.")
	workersFlag := flagSet.Int("workers", env.Workers, "Maximum concurrent content fetches. 0 is unbounded.")
	roundsFlag := flagSet.Int("max-extra-rounds", env.MaxExtraRounds, "Resolution rounds allowed after the first before giving up on pending references.")
	deferFlag := flagSet.Bool("defer-lookups", env.DeferLookups, "Publish before spell text is fetched and fill it in afterwards.")
	outputFlag := flagSet.String("output", env.Output, "Sheet format. Options: 'text' or 'json'.")
	logFormatFlag := flagSet.String("log-format", env.LogFormat, "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", env.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *fileFlag != "" {
		path = *fileFlag
	} else if *fFlag != "" {
		path = *fFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Character file determined.", "path", path)

	if path == "" {
		slog.Debug("No character file provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	if len(contentPaths) == 0 {
		contentPaths = env.Content
	}

	parsedSelections := make([]app.Selection, 0, len(selections))
	for _, raw := range selections {
		s, err := app.ParseSelection(raw)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		parsedSelections = append(parsedSelections, s)
	}

	cfg, err := app.NewConfig(app.Config{
		CharacterPath:  path,
		CharacterID:    *characterFlag,
		ContentPaths:   contentPaths,
		StorePath:      *storeFlag,
		LogFormat:      strings.ToLower(*logFormatFlag),
		LogLevel:       strings.ToLower(*logLevelFlag),
		OutputFormat:   strings.ToLower(*outputFlag),
		Workers:        *workersFlag,
		Ordering:       mutator.Ordering(strings.ToLower(*orderingFlag)),
		MaxExtraRounds: *roundsFlag,
		DeferLookups:   *deferFlag,
		Selections:     parsedSelections,
		Conditions:     conditions,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", cfg)
	return cfg, false, nil
}

// Package main is the entry point for the prosecheck command-line tool.
// It runs the validation engine once over each input file and prints the
// matches, exercising the same session machinery an editor host embeds.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/dshills/prosecheck/internal/checker"
	"github.com/dshills/prosecheck/internal/checker/llm"
	"github.com/dshills/prosecheck/internal/checker/ltapi"
	"github.com/dshills/prosecheck/internal/config"
	"github.com/dshills/prosecheck/internal/document"
	"github.com/dshills/prosecheck/internal/logging"
	"github.com/dshills/prosecheck/internal/notify"
	"github.com/dshills/prosecheck/internal/session"
	"github.com/dshills/prosecheck/internal/validate"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	ConfigPath string
	ServiceURL string
	UseLLM     bool
	Model      string
	Categories string
	LogLevel   string
	Debug      bool
	Watch      bool
	Files      []string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load configuration: %v\n", err)
		return 2
	}
	applyFlagOverrides(&cfg, opts)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		return 2
	}

	log := logging.New(logging.ParseLevel(cfg.LogLevel), os.Stderr)

	chk, err := buildChecker(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create checker: %v\n", err)
		return 2
	}

	// Handle signals for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		cancel()
	}()

	if opts.Watch {
		if opts.ConfigPath == "" {
			fmt.Fprintln(os.Stderr, "Error: -watch requires -config")
			return 2
		}
		return runWatch(ctx, opts, cfg, log)
	}

	matches := 0
	for _, path := range opts.Files {
		n, err := checkFile(ctx, path, cfg, chk, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
			return 2
		}
		matches += n

		if ctx.Err() != nil {
			return 2
		}
	}

	if matches > 0 {
		return 1
	}
	return 0
}

// runWatch re-checks the input files whenever the configuration file
// changes, until interrupted.
func runWatch(ctx context.Context, opts options, cfg config.Config, log *logging.Logger) int {
	recheck := func(cfg config.Config) {
		chk, err := buildChecker(cfg, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create checker: %v\n", err)
			return
		}
		for _, path := range opts.Files {
			if _, err := checkFile(ctx, path, cfg, chk, log); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
			}
		}
	}
	recheck(cfg)

	w, err := config.Watch(opts.ConfigPath, log, func(next config.Config, err error) {
		if err != nil {
			log.Warn("config reload failed: %v", err)
			return
		}
		applyFlagOverrides(&next, opts)
		if err := next.Validate(); err != nil {
			log.Warn("reloaded config rejected: %v", err)
			return
		}
		log.Info("configuration reloaded, re-checking %d file(s)", len(opts.Files))
		recheck(next)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	defer w.Close()

	<-ctx.Done()
	return 0
}

// checkFile validates one file and prints its matches, returning how many
// were found.
func checkFile(ctx context.Context, path string, cfg config.Config, chk checker.Checker, log *logging.Logger) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	doc := document.NewTextDocument(string(data))
	sess := session.New(doc, chk,
		session.WithLogger(log),
		session.WithThrottle(cfg.Throttle.Initial.Std(), cfg.Throttle.Max.Std()),
		session.WithCategories(cfg.Categories),
	)
	defer sess.Close()

	if cfg.Debug {
		sess.SetDebug(true)
	}

	done := make(chan validate.State, 1)
	sub := sess.Subscribe(func(tr notify.Transition) {
		if !tr.New.HasInFlight() && !tr.New.Pending {
			select {
			case done <- tr.New:
			default:
			}
		}
	})
	defer sub.Unsubscribe()

	sess.ValidateDocument()

	var final validate.State
	select {
	case final = <-done:
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-time.After(2 * cfg.Service.Timeout.Std()):
		return 0, fmt.Errorf("validation did not finish within %s", 2*cfg.Service.Timeout.Std())
	}

	if final.Err != "" {
		return 0, fmt.Errorf("checking service: %s", final.Err)
	}

	printMatches(path, string(data), final.Current)
	return len(final.Current), nil
}

// printMatches writes one line per match: file:line:col [category] message.
func printMatches(path, text string, outputs []validate.Output) {
	sorted := make([]validate.Output, len(outputs))
	copy(sorted, outputs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Range.From < sorted[j].Range.From })

	for _, out := range sorted {
		line, col := lineCol(text, out.Range.From)
		fmt.Printf("%s:%d:%d: [%s] %s", path, line, col, out.Category.ID, out.Message)
		if len(out.Suggestions) > 0 {
			fmt.Printf(" (suggest: %s)", strings.Join(out.Suggestions, ", "))
		}
		fmt.Println()
	}
}

// lineCol converts a flat offset to 1-based line and column numbers.
func lineCol(text string, pos int) (int, int) {
	if pos > len(text) {
		pos = len(text)
	}
	line := 1 + strings.Count(text[:pos], "\n")
	col := pos - strings.LastIndexByte(text[:pos], '\n')
	return line, col
}

func buildChecker(cfg config.Config, log *logging.Logger) (checker.Checker, error) {
	switch cfg.Service.Adapter {
	case "llm":
		c, err := llm.New(cfg.Service.APIKey,
			llm.WithModel(cfg.Service.Model),
			llm.WithLogger(log),
		)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		hc := &http.Client{Timeout: cfg.Service.Timeout.Std()}
		return ltapi.New(cfg.Service.URL,
			ltapi.WithAPIKey(cfg.Service.APIKey),
			ltapi.WithHTTPClient(hc),
			ltapi.WithLogger(log),
		), nil
	}
}

func applyFlagOverrides(cfg *config.Config, opts options) {
	if opts.ServiceURL != "" {
		cfg.Service.URL = opts.ServiceURL
	}
	if opts.UseLLM {
		cfg.Service.Adapter = "llm"
	}
	if opts.Model != "" {
		cfg.Service.Model = opts.Model
	}
	if opts.Categories != "" {
		cfg.Categories = strings.Split(opts.Categories, ",")
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.Debug {
		cfg.Debug = true
	}
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file (YAML or TOML)")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.ServiceURL, "service", "", "Rule service base URL")
	flag.BoolVar(&opts.UseLLM, "llm", false, "Use the LLM adapter instead of the rule service")
	flag.StringVar(&opts.Model, "model", "", "Chat model name (llm adapter)")
	flag.StringVar(&opts.Categories, "categories", "", "Comma-separated category ids to check")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.Debug, "debug", false, "Enable debug mode")
	flag.BoolVar(&opts.Debug, "d", false, "Enable debug mode (shorthand)")
	flag.BoolVar(&opts.Watch, "watch", false, "Re-check files when the config file changes")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Prosecheck - grammar and style checker\n\n")
		fmt.Fprintf(os.Stderr, "Usage: prosecheck [options] files...\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  prosecheck draft.md                     Check one file\n")
		fmt.Fprintf(os.Stderr, "  prosecheck -service http://lt:8010 *.md  Check against a rule service\n")
		fmt.Fprintf(os.Stderr, "  prosecheck -llm -model gpt-4o draft.md  Check with the LLM adapter\n")
		fmt.Fprintf(os.Stderr, "  prosecheck -categories grammar draft.md Restrict categories\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("Prosecheck %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	opts.Files = flag.Args()
	if len(opts.Files) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	return opts
}

// Login check runner.
//
// Drives a real browser through the reference site's login form. Each run
// picks valid or invalid credentials and a submission method at random, so
// repeated runs sample every scenario.
//
// Usage:
//
//	go run ./cmd/logincheck                      # one run against the public site
//	go run ./cmd/logincheck --runs 20 --seed 7   # reproducible sample
//	go run ./cmd/logincheck --driver chromedp --url http://localhost:8080/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thesyncim/logincheck/pkg/driver/cdpdriver"
	"github.com/thesyncim/logincheck/pkg/driver/rodriver"
	"github.com/thesyncim/logincheck/pkg/login"
)

// DefaultTargetURL is the public reference site.
const DefaultTargetURL = "https://referencesite.nudatasecurity.com/"

// options holds the command line configuration.
type options struct {
	url       string
	runs      int
	driver    string
	headless  bool
	chromeBin string
	timeout   time.Duration
	poll      time.Duration
	opTimeout time.Duration
	seed      uint64
	stable    bool
	logLevel  string
	logFormat string
}

func defaultOptions() options {
	return options{
		url:       DefaultTargetURL,
		runs:      1,
		driver:    "rod",
		headless:  true,
		timeout:   login.DefaultWaitTimeout,
		poll:      login.DefaultPollInterval,
		opTimeout: 30 * time.Second,
		logLevel:  "info",
		logFormat: "console",
	}
}

func newRootCommand() *cobra.Command {
	opts := defaultOptions()

	cmd := &cobra.Command{
		Use:           "logincheck",
		Short:         "Check the reference site's login form with random credentials",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.url, "url", opts.url, "Target site URL")
	f.IntVar(&opts.runs, "runs", opts.runs, "Number of independent runs")
	f.StringVar(&opts.driver, "driver", opts.driver, "Browser driver: rod or chromedp")
	f.BoolVar(&opts.headless, "headless", opts.headless, "Run Chrome headless")
	f.StringVar(&opts.chromeBin, "chrome-bin", opts.chromeBin, "Chrome binary (default: driver lookup)")
	f.DurationVar(&opts.timeout, "timeout", opts.timeout, "Timeout for each page condition wait")
	f.DurationVar(&opts.poll, "poll", opts.poll, "Poll interval for page condition waits")
	f.DurationVar(&opts.opTimeout, "op-timeout", opts.opTimeout, "Timeout for a single browser operation")
	f.Uint64Var(&opts.seed, "seed", opts.seed, "Random seed (0 picks one)")
	f.BoolVar(&opts.stable, "stable-locators", opts.stable, "Use element ids instead of structural XPath for outcome checks")
	f.StringVar(&opts.logLevel, "log-level", opts.logLevel, "Log level: debug, info, warn, error")
	f.StringVar(&opts.logFormat, "log-format", opts.logFormat, "Log format: console or json")

	return cmd
}

func main() {
	// Set up graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "logincheck: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	switch format {
	case "console":
		cfg = zap.NewDevelopmentConfig()
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	cfg.Level = lvl
	return cfg.Build()
}

func newOpener(opts options, logger *zap.Logger) (login.Opener, error) {
	switch opts.driver {
	case "rod":
		cfg := rodriver.DefaultBrowserConfig()
		cfg.Headless = opts.headless
		cfg.Bin = opts.chromeBin
		cfg.Timeout = opts.opTimeout
		cfg.Logger = logger.Named("rod")
		return rodriver.New(cfg), nil
	case "chromedp":
		cfg := cdpdriver.DefaultBrowserConfig()
		cfg.Headless = opts.headless
		cfg.ExecPath = opts.chromeBin
		cfg.Timeout = opts.opTimeout
		cfg.Logger = logger.Named("chromedp")
		return cdpdriver.New(cfg), nil
	default:
		return nil, fmt.Errorf("unknown driver %q (want rod or chromedp)", opts.driver)
	}
}

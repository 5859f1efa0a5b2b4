package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/thesyncim/logincheck/pkg/login"
)

// Summary contains the results of a batch of runs.
type Summary struct {
	Runs     int
	Passed   int
	Failed   int
	Skipped  int // runs not started because the batch was cancelled
	ByRecord map[string]int
	ByMethod map[string]int
	Duration time.Duration
	Status   string
}

func run(ctx context.Context, opts options, out io.Writer) error {
	if opts.runs < 1 {
		return errors.New("--runs must be at least 1")
	}

	logger, err := newLogger(opts.logLevel, opts.logFormat)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	opener, err := newOpener(opts, logger)
	if err != nil {
		return err
	}

	layout := login.DefaultLayout()
	if opts.stable {
		layout = login.StableLayout()
	}
	runner, err := login.NewRunner(opener,
		login.WithSource(login.NewRandSource(opts.seed)),
		login.WithLayout(layout),
		login.WithWaitTimeout(opts.timeout),
		login.WithPollInterval(opts.poll),
		login.WithLogger(logger.Named("login")),
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Login Check\n")
	fmt.Fprintf(out, "===========\n")
	fmt.Fprintf(out, "Target: %s\n", opts.url)
	fmt.Fprintf(out, "Driver: %s\n", opts.driver)
	fmt.Fprintf(out, "Runs:   %d\n\n", opts.runs)

	summary := runBatch(ctx, runner, opts.url, opts.runs, out)
	printSummary(out, summary)

	if summary.Status != "PASS" {
		return fmt.Errorf("%d of %d runs failed", summary.Failed+summary.Skipped, summary.Runs)
	}
	return nil
}

// runBatch executes n independent runs, stopping early when ctx is done.
func runBatch(ctx context.Context, runner *login.Runner, url string, n int, out io.Writer) Summary {
	start := time.Now()
	s := Summary{
		Runs:     n,
		ByRecord: make(map[string]int),
		ByMethod: make(map[string]int),
		Status:   "PASS",
	}

	for i := 1; i <= n; i++ {
		if ctx.Err() != nil {
			s.Skipped = n - i + 1
			s.Status = "FAIL"
			break
		}

		res := runner.Run(ctx, url)
		s.ByRecord[res.Choice.Record.Username]++
		s.ByMethod[res.Choice.Method.String()]++

		if res.Passed() {
			s.Passed++
			fmt.Fprintf(out, "[%d/%d] %-16s %-18s valid=%-5t PASS %v\n",
				i, n, res.Choice.Record.Username, res.Choice.Method, res.Choice.Record.Valid, res.Elapsed.Round(time.Millisecond))
			continue
		}

		s.Failed++
		s.Status = "FAIL"
		fmt.Fprintf(out, "[%d/%d] %-16s %-18s valid=%-5t FAIL %v\n      %v\n",
			i, n, res.Choice.Record.Username, res.Choice.Method, res.Choice.Record.Valid, res.Elapsed.Round(time.Millisecond), res.Err)
	}

	s.Duration = time.Since(start)
	return s
}

func printSummary(out io.Writer, s Summary) {
	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "Login Check Complete\n")
	fmt.Fprintf(out, "====================\n")
	fmt.Fprintf(out, "Duration:  %v\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "Runs:      %d\n", s.Runs)
	fmt.Fprintf(out, "Passed:    %d\n", s.Passed)
	fmt.Fprintf(out, "Failed:    %d\n", s.Failed)
	if s.Skipped > 0 {
		fmt.Fprintf(out, "Skipped:   %d\n", s.Skipped)
	}
	fmt.Fprintf(out, "Status:    %s\n", s.Status)
	fmt.Fprintf(out, "\n")

	fmt.Fprintf(out, "Sampled records:\n")
	for _, k := range sortedKeys(s.ByRecord) {
		fmt.Fprintf(out, "  - %-16s %d\n", k, s.ByRecord[k])
	}
	fmt.Fprintf(out, "Sampled methods:\n")
	for _, k := range sortedKeys(s.ByMethod) {
		fmt.Fprintf(out, "  - %-18s %d\n", k, s.ByMethod[k])
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

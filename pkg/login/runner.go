package login

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Defaults for condition-based waits.
const (
	DefaultWaitTimeout  = 10 * time.Second
	DefaultPollInterval = 100 * time.Millisecond
)

// Option configures a Runner.
type Option func(*Runner) error

// Runner executes login scenarios. It holds no per-run state, so one Runner
// may execute many runs; every run opens and releases its own Session.
type Runner struct {
	opener       Opener
	catalog      *Catalog
	source       Source
	layout       Layout
	waitTimeout  time.Duration
	pollInterval time.Duration
	log          *zap.Logger
	onTransition func(runID string, s State)
}

// WithCatalog sets the credential catalog.
// Default: DefaultCatalog()
func WithCatalog(c *Catalog) Option {
	return func(r *Runner) error {
		if c == nil || c.Count() == 0 {
			return errors.New("catalog must not be empty")
		}
		r.catalog = c
		return nil
	}
}

// WithSource sets the random source used to pick record and method.
// Default: a randomly seeded source
func WithSource(s Source) Option {
	return func(r *Runner) error {
		if s == nil {
			return errors.New("random source must not be nil")
		}
		r.source = s
		return nil
	}
}

// WithLayout sets the locators used on the target site.
// Default: DefaultLayout()
func WithLayout(l Layout) Option {
	return func(r *Runner) error {
		r.layout = l
		return nil
	}
}

// WithWaitTimeout bounds every condition-based wait.
// Default: 10 seconds
func WithWaitTimeout(d time.Duration) Option {
	return func(r *Runner) error {
		if d <= 0 {
			return errors.New("wait timeout must be positive")
		}
		r.waitTimeout = d
		return nil
	}
}

// WithPollInterval sets how often waits re-check the page.
// Default: 100 milliseconds
func WithPollInterval(d time.Duration) Option {
	return func(r *Runner) error {
		if d <= 0 {
			return errors.New("poll interval must be positive")
		}
		r.pollInterval = d
		return nil
	}
}

// WithLogger sets the logger for per-step trace lines.
// Default: zap.NewNop()
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) error {
		if l == nil {
			l = zap.NewNop()
		}
		r.log = l
		return nil
	}
}

// WithTransitionHook sets a callback invoked on every state transition.
func WithTransitionHook(fn func(runID string, s State)) Option {
	return func(r *Runner) error {
		r.onTransition = fn
		return nil
	}
}

// NewRunner creates a Runner that opens sessions with opener.
func NewRunner(opener Opener, opts ...Option) (*Runner, error) {
	if opener == nil {
		return nil, errors.New("opener must not be nil")
	}
	r := &Runner{
		opener:       opener,
		catalog:      DefaultCatalog(),
		layout:       DefaultLayout(),
		waitTimeout:  DefaultWaitTimeout,
		pollInterval: DefaultPollInterval,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if r.source == nil {
		r.source = NewRandSource(0)
	}
	return r, nil
}

// Result describes one finished run.
type Result struct {
	RunID   string
	Choice  Choice
	States  []State // every state entered, in order
	Final   State
	Elapsed time.Duration
	Err     error // nil on success, otherwise a *RunError
}

// Passed reports whether the run verified the expected outcome and released
// its session cleanly.
func (r Result) Passed() bool {
	return r.Err == nil && r.Final == StateClosed
}

// Run draws a random Choice and executes it against targetURL.
func (r *Runner) Run(ctx context.Context, targetURL string) Result {
	choice, err := NewChooser(r.catalog, r.source).Choose()
	if err != nil {
		res := Result{RunID: uuid.NewString(), States: []State{StateInit, StateFailed}, Final: StateFailed}
		res.Err = &RunError{State: StateInit, Err: err}
		return res
	}
	return r.Execute(ctx, choice, targetURL)
}

// Execute runs choice against targetURL. The session is released exactly
// once on every path, and failures are returned in Result.Err rather than
// propagated.
func (r *Runner) Execute(ctx context.Context, choice Choice, targetURL string) (res Result) {
	start := time.Now()
	res = Result{RunID: uuid.NewString(), Choice: choice}
	log := r.log.With(
		zap.String("run_id", res.RunID),
		zap.String("username", choice.Record.Username),
		zap.Bool("valid", choice.Record.Valid),
		zap.Stringer("method", choice.Method),
	)
	defer func() { res.Elapsed = time.Since(start) }()

	r.enter(&res, StateInit)

	log.Info("opening browser session")
	session, err := r.opener.Open(ctx)
	if err != nil {
		log.Warn("browser session failed to open", zap.Error(err))
		res.Err = &RunError{State: StateInit, Err: &SessionError{Op: "open", Err: err}}
		r.enter(&res, StateFailed)
		return res
	}
	r.enter(&res, StateSessionOpen)

	defer func() {
		log.Info("closing browser session")
		if qerr := session.Quit(); qerr != nil {
			serr := &SessionError{Op: "quit", Err: qerr}
			var runErr *RunError
			if errors.As(res.Err, &runErr) {
				runErr.Err = multierr.Append(runErr.Err, serr)
			} else {
				res.Err = &RunError{State: res.last(), Err: serr}
			}
		}
		r.enter(&res, StateClosed)
		if res.Err != nil {
			log.Warn("login run failed", zap.Error(res.Err))
		} else {
			log.Info("login run passed")
		}
	}()

	if err := r.drive(ctx, session, choice, targetURL, &res, log); err != nil {
		res.Err = &RunError{State: res.last(), Err: err}
		r.enter(&res, StateFailed)
	}
	return res
}

func (r *Runner) drive(ctx context.Context, s Session, choice Choice, targetURL string, res *Result, log *zap.Logger) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &SessionError{Op: "drive", Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	log.Info("navigating", zap.String("url", targetURL))
	if err := s.Navigate(ctx, targetURL); err != nil {
		return &SessionError{Op: "navigate", Err: err}
	}
	r.enter(res, StateNavigated)

	entry, err := r.await(ctx, s, r.layout.LoginEntry)
	if err != nil {
		return err
	}
	log.Debug("opening login form")
	if err := entry.Click(ctx); err != nil {
		return &SessionError{Op: "click " + r.layout.LoginEntry.String(), Err: err}
	}

	if err := r.typeInto(ctx, s, r.layout.Username, choice.Record.Username); err != nil {
		return err
	}
	log.Debug("entered username")
	if err := r.typeInto(ctx, s, r.layout.Password, choice.Record.Password); err != nil {
		return err
	}
	log.Debug("entered password")
	r.enter(res, StateCredentialsEntered)

	submit, err := r.await(ctx, s, r.layout.Submit)
	if err != nil {
		return err
	}
	switch choice.Method {
	case ProgrammaticSubmit:
		log.Debug("submitting login form programmatically")
		err = submit.Submit(ctx)
	default:
		log.Debug("clicking submit button")
		err = submit.Click(ctx)
	}
	if err != nil {
		return &SessionError{Op: "submit via " + choice.Method.String(), Err: err}
	}
	r.enter(res, StateSubmitted)

	if choice.Record.Valid {
		err = r.verifyPortal(ctx, s, log)
	} else {
		err = r.verifyRejected(ctx, s, log)
	}
	if err != nil {
		return err
	}
	r.enter(res, StateVerified)
	return nil
}

// verifyPortal checks the three markers of a successful login.
func (r *Runner) verifyPortal(ctx context.Context, s Session, log *zap.Logger) error {
	if err := r.awaitOutcome(ctx, s, r.layout.PortalHeading); err != nil {
		return err
	}
	if err := r.expectText(ctx, s, "portal heading", r.layout.PortalHeading, PortalMarker); err != nil {
		return err
	}
	log.Debug("found portal heading")

	if err := r.expectURL(ctx, s, PortalPath); err != nil {
		return err
	}
	if err := r.expectText(ctx, s, "welcome greeting", r.layout.WelcomeLink, WelcomeMarker); err != nil {
		return err
	}
	log.Debug("found welcome greeting")
	return nil
}

// verifyRejected checks the two markers of a rejected login.
func (r *Runner) verifyRejected(ctx context.Context, s Session, log *zap.Logger) error {
	if err := r.awaitOutcome(ctx, s, r.layout.LoginError); err != nil {
		return err
	}
	if err := r.expectText(ctx, s, "login error", r.layout.LoginError, ErrorMarker); err != nil {
		return err
	}
	log.Debug("found invalid credentials message")
	return r.expectURL(ctx, s, LoginPagePath)
}

// awaitOutcome waits until either outcome marker is on the page. Which one
// appeared is judged by the caller's checks; if neither does, the expected
// marker is reported missing.
func (r *Runner) awaitOutcome(ctx context.Context, s Session, expected Locator) error {
	_, _, err := waitAny(ctx, s, r.waitTimeout, r.pollInterval, "login outcome",
		r.layout.PortalHeading, r.layout.LoginError)
	var te *TimeoutError
	if errors.As(err, &te) {
		return &ElementNotFoundError{Locator: expected, Err: te}
	}
	if err != nil && ctx.Err() == nil {
		return &SessionError{Op: "await login outcome", Err: err}
	}
	return err
}

func (r *Runner) await(ctx context.Context, s Session, loc Locator) (Element, error) {
	return waitElement(ctx, s, loc, r.waitTimeout, r.pollInterval)
}

func (r *Runner) typeInto(ctx context.Context, s Session, loc Locator, text string) error {
	el, err := r.await(ctx, s, loc)
	if err != nil {
		return err
	}
	if err := el.SendKeys(ctx, text); err != nil {
		return &SessionError{Op: "type into " + loc.String(), Err: err}
	}
	return nil
}

func (r *Runner) expectText(ctx context.Context, s Session, check string, loc Locator, want string) error {
	el, err := s.Find(ctx, loc)
	if err != nil {
		if errors.Is(err, ErrElementNotFound) {
			return &ElementNotFoundError{Locator: loc}
		}
		return &SessionError{Op: "find " + loc.String(), Err: err}
	}
	got, err := el.Text(ctx)
	if err != nil {
		return &SessionError{Op: "read text of " + loc.String(), Err: err}
	}
	if !strings.Contains(got, want) {
		return &AssertionError{Check: check, Want: want, Got: got}
	}
	return nil
}

func (r *Runner) expectURL(ctx context.Context, s Session, want string) error {
	got, err := s.CurrentURL(ctx)
	if err != nil {
		return &SessionError{Op: "read url", Err: err}
	}
	if !strings.Contains(got, want) {
		return &AssertionError{Check: "current url", Want: want, Got: got}
	}
	return nil
}

func (r *Runner) enter(res *Result, s State) {
	res.States = append(res.States, s)
	res.Final = s
	if r.onTransition != nil {
		r.onTransition(res.RunID, s)
	}
}

// last returns the most recent state other than StateFailed.
func (res *Result) last() State {
	for i := len(res.States) - 1; i >= 0; i-- {
		if res.States[i] != StateFailed {
			return res.States[i]
		}
	}
	return StateInit
}

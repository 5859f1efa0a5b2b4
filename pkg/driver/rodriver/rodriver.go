// Package rodriver implements login.Opener on top of Rod.
// Each session launches its own headless Chrome, so runs never share
// cookies or storage.
package rodriver

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/thesyncim/logincheck/pkg/login"
)

// BrowserConfig configures Chrome launch options.
type BrowserConfig struct {
	Headless  bool          // Run in headless mode (default: true)
	NoSandbox bool          // Pass --no-sandbox, needed in most containers (default: true)
	Bin       string        // Chrome binary; empty lets Rod find or download one
	Timeout   time.Duration // Per-operation timeout (default: 30s)
	Logger    *zap.Logger   // default: zap.NewNop()
}

// DefaultBrowserConfig returns sensible defaults for automated runs.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Headless:  true,
		NoSandbox: true,
		Timeout:   30 * time.Second,
	}
}

// Opener launches one Chrome per session.
type Opener struct {
	cfg BrowserConfig
}

// New creates an Opener with cfg.
func New(cfg BrowserConfig) *Opener {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultBrowserConfig().Timeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Opener{cfg: cfg}
}

// Open launches Chrome and opens a blank page. The browser lives until
// Quit, independent of ctx.
func (o *Opener) Open(ctx context.Context) (login.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := launcher.New().
		Headless(o.cfg.Headless).
		Set("disable-gpu")
	if o.cfg.NoSandbox {
		l = l.Set("no-sandbox")
	}
	if o.cfg.Bin != "" {
		l = l.Bin(o.cfg.Bin)
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch Chrome: %w", err)
	}
	o.cfg.Logger.Debug("chrome launched", zap.String("control_url", url))

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to Chrome: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &Session{
		launcher: l,
		browser:  browser,
		page:     page,
		timeout:  o.cfg.Timeout,
		log:      o.cfg.Logger,
	}, nil
}

// Session is a single Chrome instance with one page.
type Session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	timeout  time.Duration
	log      *zap.Logger
}

func (s *Session) pageFor(ctx context.Context) *rod.Page {
	return s.page.Context(ctx).Timeout(s.timeout)
}

// Navigate opens url and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	p := s.pageFor(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("page did not load: %w", err)
	}
	return nil
}

// Find looks loc up once. Query errors, such as a document that is being
// replaced mid-navigation, are reported as not found so callers retry.
func (s *Session) Find(ctx context.Context, loc login.Locator) (login.Element, error) {
	p := s.pageFor(ctx)

	var (
		found bool
		el    *rod.Element
		err   error
	)
	switch loc.Kind {
	case login.ByID:
		found, el, err = p.Has("#" + loc.Value)
	case login.ByCSS:
		found, el, err = p.Has(loc.Value)
	case login.ByXPath:
		found, el, err = p.HasX(loc.Value)
	default:
		return nil, fmt.Errorf("unsupported locator %s", loc)
	}

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %v", login.ErrElementNotFound, loc, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", login.ErrElementNotFound, loc)
	}
	return &element{el: el, timeout: s.timeout}, nil
}

// CurrentURL returns the page's URL.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	info, err := s.pageFor(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

// Quit closes Chrome and removes its profile directory.
func (s *Session) Quit() error {
	err := s.browser.Close()
	if err != nil {
		s.log.Warn("chrome did not close cleanly, killing it", zap.Error(err))
		s.launcher.Kill()
	}
	s.launcher.Cleanup()
	return err
}

// submitJS submits the owning form without firing a click. The prototype
// call sidesteps inputs named "submit" shadowing form.submit.
const submitJS = `() => {
	const form = this.form || this.closest('form');
	if (!form) {
		throw new Error('element is not inside a form');
	}
	HTMLFormElement.prototype.submit.call(form);
}`

type element struct {
	el      *rod.Element
	timeout time.Duration
}

func (e *element) with(ctx context.Context) *rod.Element {
	return e.el.Context(ctx).Timeout(e.timeout)
}

func (e *element) Click(ctx context.Context) error {
	return e.with(ctx).Click(proto.InputMouseButtonLeft, 1)
}

func (e *element) SendKeys(ctx context.Context, text string) error {
	return e.with(ctx).Input(text)
}

func (e *element) Submit(ctx context.Context) error {
	if _, err := e.with(ctx).Eval(submitJS); err != nil {
		return fmt.Errorf("submit failed: %w", err)
	}
	return nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	return e.with(ctx).Text()
}

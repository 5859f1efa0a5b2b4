// Package cdpdriver implements login.Opener on top of chromedp.
package cdpdriver

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/thesyncim/logincheck/pkg/login"
)

// BrowserConfig configures Chrome launch options.
type BrowserConfig struct {
	Headless bool          // default: true
	ExecPath string        // Chrome binary; empty uses chromedp's lookup
	Timeout  time.Duration // Per-operation timeout (default: 30s)
	Logger   *zap.Logger   // default: zap.NewNop()
}

// DefaultBrowserConfig returns sensible defaults for automated runs.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Headless: true,
		Timeout:  30 * time.Second,
	}
}

// Opener starts one Chrome process per session.
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

func (o *Opener) allocatorOptions() []chromedp.ExecAllocatorOption {
	options := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	options = append(options, chromedp.Flag("headless", o.cfg.Headless))
	if runtime.GOOS != "darwin" && runtime.GOOS != "windows" {
		// Assume a container on linux; Chrome refuses to start sandboxed there.
		options = append(options, chromedp.NoSandbox)
	}
	if o.cfg.ExecPath != "" {
		options = append(options, chromedp.ExecPath(o.cfg.ExecPath))
	}
	return options
}

// Open starts Chrome. The browser lives until Quit, independent of ctx.
func (o *Opener) Open(ctx context.Context) (login.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), o.allocatorOptions()...)

	sugar := o.cfg.Logger.Sugar()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Warnf),
	)

	s := &Session{
		ctx:         browserCtx,
		cancel:      cancelBrowser,
		cancelAlloc: cancelAlloc,
		timeout:     o.cfg.Timeout,
	}

	// The first Run on a fresh context launches the browser and binds it to
	// that context, so it must not carry a timeout.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start Chrome: %w", err)
	}
	return s, nil
}

// Session is a single Chrome process with one tab.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	cancelAlloc context.CancelFunc
	timeout     time.Duration
}

// opContext derives a context for one browser operation: it carries the
// browser's executor, expires after the session timeout and is cancelled
// with ctx.
func (s *Session) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	opCtx, cancel := context.WithTimeout(s.ctx, s.timeout)
	stopAfter := context.AfterFunc(ctx, cancel)
	return opCtx, func() {
		stopAfter()
		cancel()
	}
}

func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	opCtx, stop := s.opContext(ctx)
	defer stop()
	err := chromedp.Run(opCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Navigate opens url and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func query(loc login.Locator) (string, chromedp.QueryOption, error) {
	switch loc.Kind {
	case login.ByID:
		return "#" + loc.Value, chromedp.ByQuery, nil
	case login.ByCSS:
		return loc.Value, chromedp.ByQuery, nil
	case login.ByXPath:
		return loc.Value, chromedp.BySearch, nil
	default:
		return "", nil, fmt.Errorf("unsupported locator %s", loc)
	}
}

// Find looks loc up once without waiting for it to appear.
func (s *Session) Find(ctx context.Context, loc login.Locator) (login.Element, error) {
	sel, by, err := query(loc)
	if err != nil {
		return nil, err
	}

	var nodes []*cdp.Node
	if err := s.run(ctx, chromedp.Nodes(sel, &nodes, by, chromedp.AtLeast(0))); err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", login.ErrElementNotFound, loc, err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", login.ErrElementNotFound, loc)
	}
	return &element{s: s, node: nodes[0]}, nil
}

// CurrentURL returns the tab's location.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// Quit closes the browser gracefully and releases its allocator.
func (s *Session) Quit() error {
	err := chromedp.Cancel(s.ctx)
	s.cancel()
	s.cancelAlloc()
	return err
}

type element struct {
	s    *Session
	node *cdp.Node
}

func (e *element) ids() []cdp.NodeID {
	return []cdp.NodeID{e.node.NodeID}
}

func (e *element) Click(ctx context.Context) error {
	return e.s.run(ctx, chromedp.MouseClickNode(e.node))
}

func (e *element) SendKeys(ctx context.Context, text string) error {
	return e.s.run(ctx, chromedp.SendKeys(e.ids(), text, chromedp.ByNodeID))
}

func (e *element) Submit(ctx context.Context) error {
	return e.s.run(ctx, chromedp.Submit(e.ids(), chromedp.ByNodeID))
}

func (e *element) Text(ctx context.Context) (string, error) {
	var text string
	if err := e.s.run(ctx, chromedp.Text(e.ids(), &text, chromedp.ByNodeID)); err != nil {
		return "", err
	}
	return text, nil
}

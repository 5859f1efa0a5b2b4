package login

import (
	"context"
	"fmt"
)

// LocatorKind selects how a Locator value is interpreted.
type LocatorKind int

const (
	// ByID matches the element whose id attribute equals Value.
	ByID LocatorKind = iota
	// ByXPath evaluates Value as an XPath expression.
	ByXPath
	// ByCSS evaluates Value as a CSS selector.
	ByCSS
)

// Locator identifies an element on the page.
type Locator struct {
	Kind  LocatorKind
	Value string
}

// ID returns a Locator matching an element id.
func ID(id string) Locator { return Locator{Kind: ByID, Value: id} }

// XPath returns a Locator evaluating an XPath expression.
func XPath(expr string) Locator { return Locator{Kind: ByXPath, Value: expr} }

// CSS returns a Locator evaluating a CSS selector.
func CSS(sel string) Locator { return Locator{Kind: ByCSS, Value: sel} }

func (l Locator) String() string {
	switch l.Kind {
	case ByID:
		return fmt.Sprintf("id=%s", l.Value)
	case ByXPath:
		return fmt.Sprintf("xpath=%s", l.Value)
	case ByCSS:
		return fmt.Sprintf("css=%s", l.Value)
	default:
		return fmt.Sprintf("unknown=%s", l.Value)
	}
}

// Opener launches browser sessions. Each call must return an independent
// session that shares no state with earlier ones.
type Opener interface {
	Open(ctx context.Context) (Session, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context) (Session, error)

// Open calls f(ctx).
func (f OpenerFunc) Open(ctx context.Context) (Session, error) { return f(ctx) }

// Session is a single browser instance owned by one run.
type Session interface {
	// Navigate loads url and waits for the document to load.
	Navigate(ctx context.Context, url string) error

	// Find returns the first element matching loc without waiting.
	// It returns an error matching ErrElementNotFound if nothing matches.
	Find(ctx context.Context, loc Locator) (Element, error)

	// CurrentURL returns the URL of the current document.
	CurrentURL(ctx context.Context) (string, error)

	// Quit closes the browser. Implementations must tolerate being called
	// once per session; the runner never calls it twice.
	Quit() error
}

// Element is a handle to a located DOM element.
type Element interface {
	Click(ctx context.Context) error
	SendKeys(ctx context.Context, text string) error
	// Submit submits the form that owns the element without clicking it.
	Submit(ctx context.Context) error
	Text(ctx context.Context) (string, error)
}

// Layout names the locators the runner uses on the target site.
type Layout struct {
	LoginEntry    Locator // control that opens the credential form
	Username      Locator
	Password      Locator
	Submit        Locator
	PortalHeading Locator // heading containing PortalMarker after a valid login
	WelcomeLink   Locator // greeting containing WelcomeMarker after a valid login
	LoginError    Locator // inline label containing ErrorMarker after an invalid login
}

// Page text and URL markers checked after submission.
const (
	PortalMarker  = "Client Portal"
	PortalPath    = "/client/portal"
	WelcomeMarker = "Welcome"
	ErrorMarker   = "Invalid Username or Password"
	LoginPagePath = "/client/login"
)

// DefaultLayout returns the locators of the reference site, including its
// structural XPath queries for the portal heading, greeting and error label.
func DefaultLayout() Layout {
	return Layout{
		LoginEntry:    ID("clientLogin"),
		Username:      ID("username"),
		Password:      ID("password"),
		Submit:        ID("btnSubmit"),
		PortalHeading: XPath("//*[@id='middle']/div[3]/h2"),
		WelcomeLink:   XPath("//*[@id='membermenu']/a[1]"),
		LoginError:    XPath("//*[@id='login']/label[2]/aside/p"),
	}
}

// StableLayout returns DefaultLayout with the structural queries replaced by
// element ids, for sites that expose them.
func StableLayout() Layout {
	l := DefaultLayout()
	l.PortalHeading = ID("portalHeading")
	l.WelcomeLink = ID("welcomeLink")
	l.LoginError = ID("loginError")
	return l
}

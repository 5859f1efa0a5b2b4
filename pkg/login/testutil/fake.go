// Package testutil provides an in-memory browser that models the reference
// login site, so runner behavior can be tested without launching Chrome.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/thesyncim/logincheck/pkg/login"
)

// FakeSite describes the pages a FakeBrowser serves.
type FakeSite struct {
	BaseURL  string            // default: https://reference.test
	Accounts map[string]string // username -> password that authenticate
	Layout   login.Layout      // locators the site answers to (default: login.DefaultLayout())

	// FormDelay is the number of Find calls that miss after the login entry
	// is clicked before the form fields appear. Exercises polling waits.
	FormDelay int

	// OmitLoginEntry removes the login entry control from the home page.
	OmitLoginEntry bool

	// Outcome texts and portal path; defaults match the reference site.
	PortalPath    string
	PortalHeading string
	WelcomeText   string
	ErrorText     string

	// Failure injection.
	OpenErr     error
	NavigateErr error
	QuitErr     error
	FindErr     error // returned by every Find once set
}

// DefaultFakeSite returns a site that accepts the valid records of
// login.DefaultCatalog().
func DefaultFakeSite() FakeSite {
	accounts := make(map[string]string)
	for _, r := range login.DefaultCatalog().Valid() {
		accounts[r.Username] = r.Password
	}
	return FakeSite{Accounts: accounts}
}

func (s *FakeSite) applyDefaults() {
	if s.BaseURL == "" {
		s.BaseURL = "https://reference.test"
	}
	if s.Layout == (login.Layout{}) {
		s.Layout = login.DefaultLayout()
	}
	if s.PortalPath == "" {
		s.PortalPath = "/client/portal"
	}
	if s.PortalHeading == "" {
		s.PortalHeading = "Client Portal"
	}
	if s.WelcomeText == "" {
		s.WelcomeText = "Welcome, Kent"
	}
	if s.ErrorText == "" {
		s.ErrorText = "Invalid Username or Password"
	}
}

// FakeBrowser is a login.Opener whose sessions navigate a FakeSite.
type FakeBrowser struct {
	site FakeSite

	mu       sync.Mutex
	sessions []*FakeSession
}

// NewFakeBrowser creates a FakeBrowser serving site.
func NewFakeBrowser(site FakeSite) *FakeBrowser {
	site.applyDefaults()
	return &FakeBrowser{site: site}
}

// Open starts a new independent session.
func (b *FakeBrowser) Open(_ context.Context) (login.Session, error) {
	if b.site.OpenErr != nil {
		return nil, b.site.OpenErr
	}
	s := &FakeSession{site: &b.site, page: pageBlank}
	b.mu.Lock()
	b.sessions = append(b.sessions, s)
	b.mu.Unlock()
	return s, nil
}

// Sessions returns every session opened so far.
func (b *FakeBrowser) Sessions() []*FakeSession {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*FakeSession(nil), b.sessions...)
}

type page int

const (
	pageBlank page = iota
	pageHome
	pageLoginForm
	pagePortal
	pageLoginError
)

// FakeSession is one session of a FakeBrowser.
type FakeSession struct {
	site *FakeSite

	mu        sync.Mutex
	page      page
	url       string
	username  string
	password  string
	formMiss  int
	quits     int
	calls     []string
	submitted string // "submit" or "click"
}

// Quits returns how many times Quit was called.
func (s *FakeSession) Quits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quits
}

// Calls returns the recorded interactions, e.g. "navigate https://...",
// "click id=clientLogin", "keys id=username".
func (s *FakeSession) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// SubmittedBy returns "submit" or "click" depending on how the form was
// submitted, or "" if it never was.
func (s *FakeSession) SubmittedBy() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted
}

// Typed returns the username and password entered into the form.
func (s *FakeSession) Typed() (username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username, s.password
}

func (s *FakeSession) record(format string, args ...any) {
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

func (s *FakeSession) Navigate(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("navigate %s", url)
	if s.site.NavigateErr != nil {
		return s.site.NavigateErr
	}
	s.page = pageHome
	s.url = url
	return nil
}

func (s *FakeSession) Find(_ context.Context, loc login.Locator) (login.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.site.FindErr != nil {
		return nil, s.site.FindErr
	}

	l := s.site.Layout
	switch {
	case loc == l.LoginEntry && !s.site.OmitLoginEntry && s.page != pageBlank:
		return &fakeElement{s: s, loc: loc, kind: elemEntry}, nil
	case s.page == pageLoginForm || s.page == pageLoginError:
		if s.formMiss < s.site.FormDelay {
			s.formMiss++
			break
		}
		switch loc {
		case l.Username:
			return &fakeElement{s: s, loc: loc, kind: elemUsername}, nil
		case l.Password:
			return &fakeElement{s: s, loc: loc, kind: elemPassword}, nil
		case l.Submit:
			return &fakeElement{s: s, loc: loc, kind: elemSubmit}, nil
		case l.LoginError:
			if s.page == pageLoginError {
				return &fakeElement{s: s, loc: loc, kind: elemText, text: s.site.ErrorText}, nil
			}
		}
	case s.page == pagePortal:
		switch loc {
		case l.PortalHeading:
			return &fakeElement{s: s, loc: loc, kind: elemText, text: s.site.PortalHeading}, nil
		case l.WelcomeLink:
			return &fakeElement{s: s, loc: loc, kind: elemText, text: s.site.WelcomeText}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", login.ErrElementNotFound, loc)
}

func (s *FakeSession) CurrentURL(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url, nil
}

func (s *FakeSession) Quit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quits++
	s.record("quit")
	return s.site.QuitErr
}

func (s *FakeSession) path(p string) string {
	return strings.TrimSuffix(s.site.BaseURL, "/") + p
}

// authenticate must be called with s.mu held.
func (s *FakeSession) authenticate(by string) {
	s.submitted = by
	if pw, ok := s.site.Accounts[s.username]; ok && pw == s.password {
		s.page = pagePortal
		s.url = s.path(s.site.PortalPath)
		return
	}
	s.page = pageLoginError
	s.url = s.path("/client/login")
	s.username, s.password = "", ""
}

type elemKind int

const (
	elemEntry elemKind = iota
	elemUsername
	elemPassword
	elemSubmit
	elemText
)

type fakeElement struct {
	s    *FakeSession
	loc  login.Locator
	kind elemKind
	text string
}

func (e *fakeElement) Click(_ context.Context) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	e.s.record("click %s", e.loc)
	switch e.kind {
	case elemEntry:
		e.s.page = pageLoginForm
		e.s.url = e.s.path("/client/login")
		e.s.formMiss = 0
	case elemSubmit:
		e.s.authenticate("click")
	}
	return nil
}

func (e *fakeElement) SendKeys(_ context.Context, text string) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	e.s.record("keys %s", e.loc)
	switch e.kind {
	case elemUsername:
		e.s.username += text
	case elemPassword:
		e.s.password += text
	default:
		return errors.New("element is not editable")
	}
	return nil
}

func (e *fakeElement) Submit(_ context.Context) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	e.s.record("submit %s", e.loc)
	switch e.kind {
	case elemUsername, elemPassword, elemSubmit:
		e.s.authenticate("submit")
		return nil
	default:
		return errors.New("element is not inside a form")
	}
}

func (e *fakeElement) Text(_ context.Context) (string, error) {
	return e.text, nil
}

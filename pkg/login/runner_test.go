package login_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/thesyncim/logincheck/pkg/login"
	"github.com/thesyncim/logincheck/pkg/login/testutil"
)

const targetURL = "https://reference.test/"

func newRunner(t *testing.T, b *testutil.FakeBrowser, opts ...login.Option) *login.Runner {
	t.Helper()
	opts = append([]login.Option{
		login.WithWaitTimeout(200 * time.Millisecond),
		login.WithPollInterval(time.Millisecond),
	}, opts...)
	r, err := login.NewRunner(b, opts...)
	require.NoError(t, err)
	return r
}

func TestRunner_ValidCredentials(t *testing.T) {
	for _, method := range []login.SubmissionMethod{login.ProgrammaticSubmit, login.ClickButton} {
		t.Run(method.String(), func(t *testing.T) {
			b := testutil.NewFakeBrowser(testutil.DefaultFakeSite())
			r := newRunner(t, b, login.WithSource(login.FixedChoice(0, method)))

			res := r.Run(context.Background(), targetURL)
			require.NoError(t, res.Err)
			assert.True(t, res.Passed())
			assert.Equal(t, "kent.avasarala", res.Choice.Record.Username)
			assert.Equal(t, method, res.Choice.Method)
			assert.Equal(t, []login.State{
				login.StateInit,
				login.StateSessionOpen,
				login.StateNavigated,
				login.StateCredentialsEntered,
				login.StateSubmitted,
				login.StateVerified,
				login.StateClosed,
			}, res.States)
			assert.Equal(t, login.StateClosed, res.Final)
			assert.NotEmpty(t, res.RunID)

			sessions := b.Sessions()
			require.Len(t, sessions, 1)
			assert.Equal(t, 1, sessions[0].Quits())

			user, pass := sessions[0].Typed()
			assert.Equal(t, "kent.avasarala", user)
			assert.Equal(t, "wC*MD^2V4G*qXj25", pass)

			want := "click"
			if method == login.ProgrammaticSubmit {
				want = "submit"
			}
			assert.Equal(t, want, sessions[0].SubmittedBy())
		})
	}
}

func TestRunner_InvalidCredentials(t *testing.T) {
	for _, method := range []login.SubmissionMethod{login.ProgrammaticSubmit, login.ClickButton} {
		t.Run(method.String(), func(t *testing.T) {
			b := testutil.NewFakeBrowser(testutil.DefaultFakeSite())
			r := newRunner(t, b, login.WithSource(login.FixedChoice(1, method)))

			res := r.Run(context.Background(), targetURL)
			require.NoError(t, res.Err)
			assert.True(t, res.Passed())
			assert.Equal(t, "alicebob", res.Choice.Record.Username)
			assert.Contains(t, res.States, login.StateVerified)
			assert.Equal(t, login.StateClosed, res.Final)
			assert.Equal(t, 1, b.Sessions()[0].Quits())
		})
	}
}

func TestRunner_SubmissionMethodEquivalence(t *testing.T) {
	for index := range login.DefaultCatalog().Records() {
		var outcomes []bool
		for _, method := range []login.SubmissionMethod{login.ProgrammaticSubmit, login.ClickButton} {
			b := testutil.NewFakeBrowser(testutil.DefaultFakeSite())
			r := newRunner(t, b)
			rec, err := login.DefaultCatalog().Get(index)
			require.NoError(t, err)

			res := r.Execute(context.Background(), login.Choice{Record: rec, Method: method}, targetURL)
			outcomes = append(outcomes, res.Passed())
			assert.Equal(t, login.StateClosed, res.Final)
		}
		assert.Equal(t, outcomes[0], outcomes[1], "record %d", index)
	}
}

func TestRunner_Idempotent(t *testing.T) {
	b := testutil.NewFakeBrowser(testutil.DefaultFakeSite())
	r := newRunner(t, b, login.WithSource(login.FixedChoice(1, login.ClickButton)))

	first := r.Run(context.Background(), targetURL)
	second := r.Run(context.Background(), targetURL)

	assert.Equal(t, first.Passed(), second.Passed())
	assert.Equal(t, first.States, second.States)
	assert.Equal(t, first.Choice, second.Choice)
	assert.NotEqual(t, first.RunID, second.RunID)

	sessions := b.Sessions()
	require.Len(t, sessions, 2, "runs must not share sessions")
	assert.NotSame(t, sessions[0], sessions[1])
	for _, s := range sessions {
		assert.Equal(t, 1, s.Quits())
	}
}

func TestRunner_MissingLoginEntry(t *testing.T) {
	site := testutil.DefaultFakeSite()
	site.OmitLoginEntry = true
	b := testutil.NewFakeBrowser(site)
	r := newRunner(t, b, login.WithSource(login.FixedChoice(0, login.ClickButton)))

	res := r.Run(context.Background(), "https://wrong.test/")
	require.Error(t, res.Err)
	assert.False(t, res.Passed())

	var nf *login.ElementNotFoundError
	require.True(t, errors.As(res.Err, &nf), "got %v", res.Err)
	assert.Equal(t, login.ID("clientLogin"), nf.Locator)
	assert.True(t, errors.Is(res.Err, login.ErrTimeout))

	var runErr *login.RunError
	require.True(t, errors.As(res.Err, &runErr))
	assert.Equal(t, login.StateNavigated, runErr.State)

	assert.NotContains(t, res.States, login.StateCredentialsEntered)
	assert.Equal(t, login.StateClosed, res.Final)

	s := b.Sessions()[0]
	assert.Equal(t, 1, s.Quits())
	for _, call := range s.Calls() {
		assert.False(t, strings.HasPrefix(call, "keys"), "no credential should be entered, got %q", call)
	}
}

func TestRunner_FormAppearsAfterDelay(t *testing.T) {
	site := testutil.DefaultFakeSite()
	site.FormDelay = 5
	b := testutil.NewFakeBrowser(site)
	r := newRunner(t, b, login.WithSource(login.FixedChoice(0, login.ProgrammaticSubmit)))

	res := r.Run(context.Background(), targetURL)
	require.NoError(t, res.Err)
	assert.True(t, res.Passed())
}

func TestRunner_AssertionFailures(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*testutil.FakeSite)
		index     int
		wantCheck string
	}{
		{
			name:      "portal heading text",
			mutate:    func(s *testutil.FakeSite) { s.PortalHeading = "Dashboard" },
			index:     0,
			wantCheck: "portal heading",
		},
		{
			name:      "welcome greeting text",
			mutate:    func(s *testutil.FakeSite) { s.WelcomeText = "Hello" },
			index:     0,
			wantCheck: "welcome greeting",
		},
		{
			name:      "error label text",
			mutate:    func(s *testutil.FakeSite) { s.ErrorText = "Something went wrong" },
			index:     1,
			wantCheck: "login error",
		},
		{
			name:      "invalid credentials accepted",
			mutate:    func(s *testutil.FakeSite) { s.Accounts["alicebob"] = "qwerty" },
			index:     1,
			wantCheck: "login error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site := testutil.DefaultFakeSite()
			tt.mutate(&site)
			b := testutil.NewFakeBrowser(site)
			r := newRunner(t, b, login.WithSource(login.FixedChoice(tt.index, login.ClickButton)))

			res := r.Run(context.Background(), targetURL)
			require.Error(t, res.Err)
			assert.Equal(t, login.StateClosed, res.Final)
			assert.Contains(t, res.States, login.StateFailed)
			assert.NotContains(t, res.States, login.StateVerified)
			assert.Equal(t, 1, b.Sessions()[0].Quits())

			var nf *login.ElementNotFoundError
			var ae *login.AssertionError
			switch {
			case errors.As(res.Err, &ae):
				assert.Equal(t, tt.wantCheck, ae.Check)
			case errors.As(res.Err, &nf):
				// Accepted invalid credentials land on the portal, so the
				// error label never appears.
				assert.Equal(t, login.DefaultLayout().LoginError, nf.Locator)
			default:
				t.Fatalf("unexpected error type %T: %v", res.Err, res.Err)
			}
		})
	}
}

func TestRunner_PortalURLMismatch(t *testing.T) {
	site := testutil.DefaultFakeSite()
	site.PortalPath = "/client/home"
	b := testutil.NewFakeBrowser(site)
	r := newRunner(t, b, login.WithSource(login.FixedChoice(0, login.ClickButton)))

	res := r.Run(context.Background(), targetURL)
	var ae *login.AssertionError
	require.True(t, errors.As(res.Err, &ae), "got %v", res.Err)
	assert.Equal(t, "current url", ae.Check)
	assert.Equal(t, "/client/portal", ae.Want)
	assert.Equal(t, "https://reference.test/client/home", ae.Got)
	assert.Equal(t, 1, b.Sessions()[0].Quits())
}

func TestRunner_OpenFailure(t *testing.T) {
	site := testutil.DefaultFakeSite()
	site.OpenErr = errors.New("chrome not installed")
	b := testutil.NewFakeBrowser(site)
	r := newRunner(t, b)

	res := r.Run(context.Background(), targetURL)
	require.Error(t, res.Err)

	var se *login.SessionError
	require.True(t, errors.As(res.Err, &se))
	assert.Equal(t, "open", se.Op)
	assert.Equal(t, login.StateFailed, res.Final)
	assert.Empty(t, b.Sessions())
}

func TestRunner_NavigateFailure(t *testing.T) {
	site := testutil.DefaultFakeSite()
	site.NavigateErr = errors.New("net::ERR_NAME_NOT_RESOLVED")
	b := testutil.NewFakeBrowser(site)
	r := newRunner(t, b)

	res := r.Run(context.Background(), targetURL)
	var se *login.SessionError
	require.True(t, errors.As(res.Err, &se))
	assert.Equal(t, "navigate", se.Op)
	assert.Equal(t, login.StateClosed, res.Final)
	assert.Equal(t, 1, b.Sessions()[0].Quits())
}

func TestRunner_QuitFailure(t *testing.T) {
	t.Run("on passing run", func(t *testing.T) {
		site := testutil.DefaultFakeSite()
		site.QuitErr = errors.New("browser already gone")
		b := testutil.NewFakeBrowser(site)
		r := newRunner(t, b, login.WithSource(login.FixedChoice(0, login.ClickButton)))

		res := r.Run(context.Background(), targetURL)
		require.Error(t, res.Err)
		assert.Contains(t, res.States, login.StateVerified)

		var se *login.SessionError
		require.True(t, errors.As(res.Err, &se))
		assert.Equal(t, "quit", se.Op)
		assert.Equal(t, 1, b.Sessions()[0].Quits())
	})

	t.Run("on failing run", func(t *testing.T) {
		site := testutil.DefaultFakeSite()
		site.QuitErr = errors.New("browser already gone")
		site.OmitLoginEntry = true
		b := testutil.NewFakeBrowser(site)
		r := newRunner(t, b)

		res := r.Run(context.Background(), targetURL)
		require.Error(t, res.Err)

		var nf *login.ElementNotFoundError
		assert.True(t, errors.As(res.Err, &nf), "original cause kept")
		var se *login.SessionError
		assert.True(t, errors.As(res.Err, &se), "quit failure attached")
		assert.Equal(t, 1, b.Sessions()[0].Quits())
	})
}

func TestRunner_FindFailureIsSessionError(t *testing.T) {
	site := testutil.DefaultFakeSite()
	site.FindErr = errors.New("target closed")
	b := testutil.NewFakeBrowser(site)
	r := newRunner(t, b)

	res := r.Run(context.Background(), targetURL)
	var se *login.SessionError
	require.True(t, errors.As(res.Err, &se))
	assert.Contains(t, se.Op, "find id=clientLogin")
	assert.Equal(t, 1, b.Sessions()[0].Quits())
}

func TestRunner_CancelledContextStillReleases(t *testing.T) {
	site := testutil.DefaultFakeSite()
	site.OmitLoginEntry = true
	b := testutil.NewFakeBrowser(site)
	r := newRunner(t, b, login.WithWaitTimeout(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	res := r.Run(ctx, targetURL)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, login.StateClosed, res.Final)
	assert.Equal(t, 1, b.Sessions()[0].Quits())
}

func TestRunner_StableLayout(t *testing.T) {
	site := testutil.DefaultFakeSite()
	site.Layout = login.StableLayout()
	b := testutil.NewFakeBrowser(site)

	r := newRunner(t, b, login.WithLayout(login.StableLayout()), login.WithSource(login.FixedChoice(1, login.ProgrammaticSubmit)))
	res := r.Run(context.Background(), targetURL)
	require.NoError(t, res.Err)

	// The structural queries do not match a site that only exposes ids.
	r = newRunner(t, b, login.WithSource(login.FixedChoice(1, login.ProgrammaticSubmit)))
	res = r.Run(context.Background(), targetURL)
	require.Error(t, res.Err)
}

func TestRunner_TransitionHookAndLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	var seen []login.State
	b := testutil.NewFakeBrowser(testutil.DefaultFakeSite())
	r := newRunner(t, b,
		login.WithSource(login.FixedChoice(0, login.ProgrammaticSubmit)),
		login.WithLogger(zap.New(core)),
		login.WithTransitionHook(func(_ string, s login.State) { seen = append(seen, s) }),
	)

	res := r.Run(context.Background(), targetURL)
	require.NoError(t, res.Err)
	assert.Equal(t, res.States, seen)

	assert.NotZero(t, logs.FilterMessage("submitting login form programmatically").Len())
	for _, entry := range logs.All() {
		assert.Equal(t, res.RunID, entry.ContextMap()["run_id"])
		assert.NotContains(t, entry.Message, "wC*MD^2V4G*qXj25")
		for _, v := range entry.ContextMap() {
			assert.NotEqual(t, "wC*MD^2V4G*qXj25", v, "password must never be logged")
		}
	}
}

func TestNewRunner_InvalidOptions(t *testing.T) {
	b := testutil.NewFakeBrowser(testutil.DefaultFakeSite())

	_, err := login.NewRunner(nil)
	assert.Error(t, err)

	_, err = login.NewRunner(b, login.WithWaitTimeout(0))
	assert.ErrorContains(t, err, "wait timeout")

	_, err = login.NewRunner(b, login.WithPollInterval(-time.Second))
	assert.ErrorContains(t, err, "poll interval")

	_, err = login.NewRunner(b, login.WithCatalog(nil))
	assert.ErrorContains(t, err, "catalog")

	_, err = login.NewRunner(b, login.WithSource(nil))
	assert.ErrorContains(t, err, "source")
}

func TestRunner_ChooseFailure(t *testing.T) {
	b := testutil.NewFakeBrowser(testutil.DefaultFakeSite())
	r := newRunner(t, b, login.WithSource(login.FixedChoice(9, login.ClickButton)))

	res := r.Run(context.Background(), targetURL)
	assert.ErrorIs(t, res.Err, login.ErrOutOfRange)
	assert.Empty(t, b.Sessions(), "no session is opened for an invalid choice")
}
